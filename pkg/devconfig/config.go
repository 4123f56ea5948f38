// Package devconfig loads the development server configuration: where to
// listen, what to serve statically and which path prefixes are proxied to
// a backend.
package devconfig

import (
	"net"
	"strconv"

	"github.com/papercomputeco/devproxy/pkg/proxyrule"
)

const (
	// DefaultHost is used when devServer.host is not set.
	DefaultHost = "localhost"

	// DefaultPort is used when devServer.port is not set.
	DefaultPort = 8080

	// DefaultFileName is looked up in the working directory when no
	// config path is given.
	DefaultFileName = "devproxy.toml"
)

// Config is the fully resolved configuration. It is built once by Load and
// never modified afterwards.
type Config struct {
	// Host and Port form the listen address.
	Host string
	Port int

	// Static is a directory served for requests no proxy rule claims.
	// Empty disables static serving.
	Static string

	rules *proxyrule.Table
}

// Rules returns the proxy rules in declaration order.
func (c *Config) Rules() *proxyrule.Table {
	return c.rules
}

// ListenAddr is the host:port the development server binds to.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
