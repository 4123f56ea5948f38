package resolvecmder

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/devproxy/cmd/devproxy/configpath"
	"github.com/papercomputeco/devproxy/pkg/devconfig"
)

const resolveLongDesc string = `Show where a request path would be forwarded.

Prints the destination URL and the Host header the backend would
receive, or reports that the path is handled by the dev server
itself. Nothing is sent over the network.

Examples:
  devproxy resolve /api/users
  devproxy resolve --host app.local:8080 '/api/users?page=2'`

const resolveShortDesc string = "Show where a request path is forwarded"

type resolveCommander struct {
	configPath string
	host       string
}

func NewResolveCmd() *cobra.Command {
	cmder := &resolveCommander{}

	cmd := &cobra.Command{
		Use:   "resolve <request-path>",
		Short: resolveShortDesc,
		Long:  resolveLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to config file (default: ./devproxy.toml)")
	cmd.Flags().StringVar(&cmder.host, "host", "", "Host header of the incoming request (default: the listen address)")

	return cmd
}

func (c *resolveCommander) run(cmd *cobra.Command, requestPath string) error {
	path, err := configpath.ResolveConfigPath(c.configPath)
	if err != nil {
		return err
	}

	cfg, err := devconfig.Load(path)
	if err != nil {
		return err
	}

	u, err := url.ParseRequestURI(requestPath)
	if err != nil {
		return fmt.Errorf("invalid request path %q: %w", requestPath, err)
	}

	host := c.host
	if host == "" {
		host = cfg.ListenAddr()
	}

	out := cmd.OutOrStdout()
	escapedPath := u.EscapedPath()
	rule, ok := cfg.Rules().Match(escapedPath)
	if !ok {
		fmt.Fprintf(out, "%s is not proxied; served by the dev server\n", escapedPath)
		return nil
	}

	fmt.Fprintf(out, "%s -> %s (rule %s, Host: %s)\n",
		u.RequestURI(),
		rule.Destination(escapedPath, u.RawQuery),
		rule.MatchPrefix,
		rule.OutboundHost(host),
	)
	return nil
}
