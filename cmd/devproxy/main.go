package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	checkcmder "github.com/papercomputeco/devproxy/cmd/devproxy/check"
	resolvecmder "github.com/papercomputeco/devproxy/cmd/devproxy/resolve"
	servecmder "github.com/papercomputeco/devproxy/cmd/devproxy/serve"
)

const rootLongDesc string = `devproxy is a local development server.

It reads devproxy.toml once at startup, forwards requests whose path
starts with a configured prefix to a backend, and serves everything
else from a static directory.`

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "devproxy",
		Short:        "Development server with prefix-based API proxying",
		Long:         rootLongDesc,
		SilenceUsage: true,
	}

	cmd.AddCommand(
		servecmder.NewServeCmd(),
		checkcmder.NewCheckCmd(),
		resolvecmder.NewResolveCmd(),
	)

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
