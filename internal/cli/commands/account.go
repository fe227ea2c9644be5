package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/techshop-dev/techshop/internal/cli/client"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd.Context(), opts)
		},
	}
}

func runWhoami(ctx context.Context, opts *Options) error {
	cn, err := opts.connect()
	if err != nil {
		return err
	}

	user, err := cn.client.Profile(ctx)
	if err != nil {
		return friendly(err)
	}

	return render(opts.Out, opts.Output, user, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Server:\t%s (%s)\n", cn.server.Alias, cn.server.URL)
		fmt.Fprintf(w, "Name:\t%s %s\n", user.FirstName, user.LastName)
		fmt.Fprintf(w, "Email:\t%s\n", user.Email)
		if user.CustomerType != "" {
			fmt.Fprintf(w, "Tier:\t%s\n", user.CustomerType)
		}
		if user.Role != "" {
			fmt.Fprintf(w, "Role:\t%s\n", user.Role)
		}
	})
}

// NewRegisterCmd creates the register command
func NewRegisterCmd(opts *Options) *cobra.Command {
	var req client.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a storefront account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd.Context(), opts, req)
		},
	}

	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (or set TECHSHOP_PASSWORD, will prompt if not provided)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runRegister(ctx context.Context, opts *Options, req client.RegisterRequest) error {
	cn, err := opts.connect()
	if err != nil {
		return err
	}

	if req.Password == "" {
		req.Password = os.Getenv("TECHSHOP_PASSWORD")
	}
	if req.Password == "" {
		if req.Password, err = promptSecret(opts, "Password", "--password flag or TECHSHOP_PASSWORD env var"); err != nil {
			return err
		}
	}

	if err := cn.client.Register(ctx, req); err != nil {
		return err
	}

	fmt.Fprintf(opts.Out, "✓ Registered %s on %s\n", req.Email, cn.server.Alias)
	fmt.Fprintln(opts.Out, "\nRun 'techshop login' to sign in")
	return nil
}

// NewPasswdCmd creates the passwd command
func NewPasswdCmd(opts *Options) *cobra.Command {
	var current, next string

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the signed-in user's password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPasswd(cmd.Context(), opts, current, next)
		},
	}

	cmd.Flags().StringVar(&current, "current", "", "Current password (will prompt if not provided)")
	cmd.Flags().StringVar(&next, "new", "", "New password (will prompt if not provided)")

	return cmd
}

func runPasswd(ctx context.Context, opts *Options, current, next string) error {
	cn, err := opts.connect()
	if err != nil {
		return err
	}

	if current == "" {
		if current, err = promptSecret(opts, "Current password", "--current flag"); err != nil {
			return err
		}
	}
	if next == "" {
		if next, err = promptSecret(opts, "New password", "--new flag"); err != nil {
			return err
		}
	}

	if err := cn.client.ChangePassword(ctx, current, next); err != nil {
		return friendly(err)
	}

	fmt.Fprintln(opts.Out, "✓ Password changed")
	return nil
}
