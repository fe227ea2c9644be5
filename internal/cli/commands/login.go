package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCmd creates the login command
func NewLoginCmd(opts *Options) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to a TechShop backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), opts, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set TECHSHOP_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set TECHSHOP_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(ctx context.Context, opts *Options, email, password string) error {
	// Environment variables are useful for CI/CD
	if email == "" {
		email = os.Getenv("TECHSHOP_EMAIL")
	}
	if password == "" {
		password = os.Getenv("TECHSHOP_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or TECHSHOP_EMAIL env var)")
	}

	cn, err := opts.connect()
	if err != nil {
		return err
	}

	if password == "" {
		password, err = promptSecret(opts, "Password", "--password flag or TECHSHOP_PASSWORD env var")
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(opts.Out, "Logging in to %s (%s)...\n", cn.server.Alias, cn.server.URL)

	loginResp, err := cn.client.Login(ctx, email, password)
	if err != nil {
		return err
	}

	fmt.Fprintln(opts.Out, "✓ Login successful!")
	fmt.Fprintf(opts.Out, "  User: %s %s (%s)\n", loginResp.FirstName, loginResp.LastName, loginResp.Email)
	if loginResp.CustomerType != "" {
		fmt.Fprintf(opts.Out, "  Tier: %s\n", loginResp.CustomerType)
	}
	for _, role := range loginResp.Roles {
		if strings.EqualFold(strings.TrimPrefix(role, "ROLE_"), "ADMIN") {
			fmt.Fprintln(opts.Out, "  Role: Admin")
			break
		}
	}

	return nil
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session for the selected backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cn, err := opts.connect()
			if err != nil {
				return err
			}
			if err := cn.client.Logout(); err != nil {
				return err
			}
			fmt.Fprintf(opts.Out, "✓ Logged out of %s\n", cn.server.Alias)
			return nil
		},
	}
}

// promptSecret reads a secret from the terminal without echo.
// In non-interactive mode it fails and points at the flag or env var to use.
func promptSecret(opts *Options, label, alternative string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("%s is required in non-interactive mode (use %s)", strings.ToLower(label), alternative)
	}

	fmt.Fprintf(opts.Err, "%s: ", label)
	secret, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(opts.Err)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return string(secret), nil
}
