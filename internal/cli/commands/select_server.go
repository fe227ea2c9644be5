package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/techshop-dev/techshop/internal/cli/config"
	"github.com/techshop-dev/techshop/internal/cli/serverselect"
	"github.com/techshop-dev/techshop/internal/cli/userconfig"
)

// NewSelectServerCmd creates the select-server command
func NewSelectServerCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-server [url-or-alias]",
		Short: "Select the backend to use for commands",
		Long: `Select the backend to use for commands.

If no param is provided, an interactive prompt will be shown.

Examples:
  $ techshop select-server                            # Interactive selection
  $ techshop select-server http://localhost:8001/api  # Select by URL
  $ techshop select-server prod                       # Select by alias`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var urlOrAlias string
			if len(args) > 0 {
				urlOrAlias = args[0]
			}
			return runSelectServer(opts, urlOrAlias)
		},
	}

	return cmd
}

func runSelectServer(opts *Options, urlOrAlias string) error {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return fmt.Errorf("failed to load config: %w\nRun 'techshop init <url>' to create a configuration file", err)
	}

	var server *config.Server

	if urlOrAlias != "" {
		server, err = cfg.GetServerByURLOrAlias(urlOrAlias)
		if err != nil {
			return err
		}
	} else {
		server, err = serverselect.PromptServerSelection(cfg)
		if err != nil {
			return err
		}
	}

	if err := userconfig.SetSelectedServer(server.URL); err != nil {
		return fmt.Errorf("failed to save selected server: %w", err)
	}

	fmt.Fprintf(opts.Out, "Selected server: %s (%s)\n", server.Alias, server.URL)
	return nil
}
