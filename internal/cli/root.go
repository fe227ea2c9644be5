package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/techshop-dev/techshop/internal/cli/commands"
	"github.com/techshop-dev/techshop/internal/cli/userconfig"
	"github.com/techshop-dev/techshop/internal/logger"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the techshop command tree around opts
func NewRootCmd(opts *commands.Options) *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "techshop",
		Short: "TechShop - storefront from the terminal",
		Long: `TechShop CLI - browse the catalog, manage your cart and orders,
and administer a TechShop backend.

Sessions are stored per backend in the OS keyring (or a credentials file
when TECHSHOP_TOKEN_STORE=file) and refreshed automatically when they expire.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if logLevel == "" {
				logLevel = os.Getenv("TECHSHOP_LOG_LEVEL")
			}
			if logLevel == "" {
				logLevel = "warn"
			}
			logger.InitWriter(opts.Err, logLevel, "console")

			if opts.Output == "" {
				if cfg, err := userconfig.Load(); err == nil {
					opts.Output = cfg.OutputFormat
				}
			}
			return commands.ValidateFormat(opts.Output)
		},
	}

	rootCmd.SetOut(opts.Out)
	rootCmd.SetErr(opts.Err)

	rootCmd.PersistentFlags().StringVar(&opts.Server, "server", "", "Backend URL or alias (or set TECHSHOP_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", "", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (or set TECHSHOP_LOG_LEVEL)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(opts.Out, "techshop version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewInitCmd(opts))
	rootCmd.AddCommand(commands.NewSelectServerCmd(opts))
	rootCmd.AddCommand(commands.NewOutputCmd(opts))
	rootCmd.AddCommand(commands.NewLoginCmd(opts))
	rootCmd.AddCommand(commands.NewLogoutCmd(opts))
	rootCmd.AddCommand(commands.NewWhoamiCmd(opts))
	rootCmd.AddCommand(commands.NewRegisterCmd(opts))
	rootCmd.AddCommand(commands.NewPasswdCmd(opts))
	rootCmd.AddCommand(commands.NewProductsCmd(opts))
	rootCmd.AddCommand(commands.NewSearchCmd(opts))
	rootCmd.AddCommand(commands.NewCategoriesCmd(opts))
	rootCmd.AddCommand(commands.NewCartCmd(opts))
	rootCmd.AddCommand(commands.NewOrdersCmd(opts))
	rootCmd.AddCommand(commands.NewAdminCmd(opts))
	rootCmd.AddCommand(commands.NewOpenCmd(opts))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	// A missing .env is fine; values may come from the real environment
	_ = godotenv.Load()

	opts := commands.NewOptions()
	rootCmd := NewRootCmd(opts)

	err := rootCmd.ExecuteContext(context.Background())

	// Give a scheduled "sign in again" notice the chance to print
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = opts.WaitForRedirect(ctx)

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
