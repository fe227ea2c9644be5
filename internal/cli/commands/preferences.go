package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/techshop-dev/techshop/internal/cli/userconfig"
)

// NewOutputCmd creates the output command, which shows or sets the default output format
func NewOutputCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "output [table|json|yaml]",
		Short: "Show or set the default output format",
		Long: `Show or set the output format used when --output is not given.

Examples:
  $ techshop output        # Show the current default
  $ techshop output json   # Print JSON unless --output says otherwise`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return showOutputFormat(opts)
			}
			return runSetOutputFormat(opts, args[0])
		},
	}
}

func showOutputFormat(opts *Options) error {
	cfg, err := userconfig.Load()
	if err != nil {
		return err
	}
	format := cfg.OutputFormat
	if format == "" {
		format = FormatTable
	}
	fmt.Fprintf(opts.Out, "Default output format: %s\n", format)
	return nil
}

func runSetOutputFormat(opts *Options, format string) error {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return fmt.Errorf("output format is required, must be one of: table, json, yaml")
	}
	if err := ValidateFormat(format); err != nil {
		return err
	}

	if err := userconfig.SetOutputFormat(format); err != nil {
		return fmt.Errorf("failed to save output format: %w", err)
	}

	fmt.Fprintf(opts.Out, "✓ Default output format set to %s\n", format)
	return nil
}
