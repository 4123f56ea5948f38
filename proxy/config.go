package proxy

import "github.com/papercomputeco/devproxy/pkg/proxyrule"

// Config is the development server configuration.
type Config struct {
	// Address to listen on (e.g., "localhost:8080")
	ListenAddr string

	// StaticDir is served for requests that no rule forwards.
	// Leave empty to answer those with 404.
	StaticDir string

	// Rules decides which requests are forwarded and where to.
	Rules *proxyrule.Table

	// BodyLimit caps request bodies in bytes. Zero means DefaultBodyLimit.
	BodyLimit int
}

// DefaultBodyLimit lets uploads well past fiber's 4 MiB default reach
// the backend, which applies its own limit.
const DefaultBodyLimit = 256 << 20
