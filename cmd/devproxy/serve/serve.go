package servecmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/devproxy/cmd/devproxy/configpath"
	"github.com/papercomputeco/devproxy/pkg/devconfig"
	"github.com/papercomputeco/devproxy/pkg/logger"
	"github.com/papercomputeco/devproxy/proxy"
)

const serveLongDesc string = `Start the development server.

Requests whose path starts with a configured prefix are forwarded to
that rule's target. Everything else is served from devServer.static,
or answered with 404 when no static directory is set.

Examples:
  devproxy serve
  devproxy serve --config ./frontend/devproxy.toml --listen :3000 --debug`

const serveShortDesc string = "Start the development server"

type serveCommander struct {
	configPath string
	listenAddr string
	bodyLimit  int
	debug      bool
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to config file (default: ./devproxy.toml)")
	cmd.Flags().StringVarP(&cmder.listenAddr, "listen", "l", "", "Address to listen on (overrides devServer.host/port)")
	cmd.Flags().IntVar(&cmder.bodyLimit, "body-limit", proxy.DefaultBodyLimit>>20, "Maximum request body size in MiB")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cmd *cobra.Command) error {
	path, err := configpath.ResolveConfigPath(c.configPath)
	if err != nil {
		return err
	}

	cfg, err := devconfig.Load(path)
	if err != nil {
		return err
	}

	listenAddr := cfg.ListenAddr()
	if c.listenAddr != "" {
		listenAddr = c.listenAddr
	}

	log := logger.NewLogger(cmd.OutOrStdout(), c.debug)
	defer func() { _ = log.Sync() }()

	log.Info("config loaded",
		zap.String("path", path),
		zap.Bool("debug", c.debug),
	)

	p, err := proxy.New(proxy.Config{
		ListenAddr: listenAddr,
		StaticDir:  cfg.Static,
		Rules:      cfg.Rules(),
		BodyLimit:  c.bodyLimit << 20,
	}, log)
	if err != nil {
		return fmt.Errorf("could not create dev server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- p.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("dev server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutting down dev server")
		if err := p.Shutdown(); err != nil {
			return fmt.Errorf("could not shut down dev server: %w", err)
		}
		return nil
	}
}
