package checkcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/devproxy/cmd/devproxy/configpath"
	"github.com/papercomputeco/devproxy/pkg/devconfig"
	"github.com/papercomputeco/devproxy/pkg/ruletable"
)

const checkLongDesc string = `Validate a devproxy config file and print its rules.

Rules are listed in evaluation order: a request is handled by the
first rule whose prefix matches its path. The command fails if the
file does not parse or any rule is invalid.

Examples:
  devproxy check
  devproxy check --config ./frontend/devproxy.toml`

const checkShortDesc string = "Validate the config and list proxy rules"

type checkCommander struct {
	configPath string
}

func NewCheckCmd() *cobra.Command {
	cmder := &checkCommander{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: checkShortDesc,
		Long:  checkLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to config file (default: ./devproxy.toml)")

	return cmd
}

func (c *checkCommander) run(cmd *cobra.Command) error {
	path, err := configpath.ResolveConfigPath(c.configPath)
	if err != nil {
		return err
	}

	cfg, err := devconfig.Load(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	rules := cfg.Rules().Rules()

	fmt.Fprintf(out, "%s is valid: listening on %s", path, cfg.ListenAddr())
	if cfg.Static != "" {
		fmt.Fprintf(out, ", static files from %s", cfg.Static)
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "%d proxy rule(s):\n", len(rules))
	fmt.Fprintln(out, ruletable.Render(ruletable.NewRenderer(out), rules))

	return nil
}
