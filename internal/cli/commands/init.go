package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/techshop-dev/techshop/internal/cli/config"
)

// NewInitCmd creates the init command
func NewInitCmd(opts *Options) *cobra.Command {
	var alias string

	cmd := &cobra.Command{
		Use:   "init <base-url>",
		Short: "Add a TechShop backend to techshop.json",
		Long: `Add a TechShop backend to ./techshop.json, creating the file if needed.

Examples:
  $ techshop init http://localhost:8001/api
  $ techshop init https://shop.example.com/api --alias prod`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, args[0], alias)
		},
	}

	cmd.Flags().StringVar(&alias, "alias", "", "Alias for the backend (defaults to 'local', then 'server-N')")

	return cmd
}

func runInit(opts *Options, baseURL, alias string) error {
	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)

	var cfg *config.Config
	isNewConfig := false

	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		fmt.Fprintf(opts.Out, "Found existing %s\n", config.ConfigFileName)
	} else {
		cfg = &config.Config{Servers: []config.Server{}}
		isNewConfig = true
	}

	server, added, err := cfg.AddServer(baseURL, alias)
	if err != nil {
		return err
	}

	if !added {
		fmt.Fprintf(opts.Out, "Server %s already exists in %s as '%s'\n", server.URL, config.ConfigFileName, server.Alias)
		return nil
	}

	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	if isNewConfig {
		fmt.Fprintf(opts.Out, "✓ Created ./%s with server %s (%s)\n", config.ConfigFileName, server.URL, server.Alias)
	} else {
		fmt.Fprintf(opts.Out, "✓ Added server %s (%s) to ./%s\n", server.URL, server.Alias, config.ConfigFileName)
	}

	fmt.Fprintln(opts.Out, "\nNext steps:")
	fmt.Fprintln(opts.Out, "  1. Run 'techshop register' to create an account, or")
	fmt.Fprintln(opts.Out, "  2. Run 'techshop login' to authenticate")

	return nil
}
