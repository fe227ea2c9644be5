package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/techshop-dev/techshop/internal/cli/auth"
	"github.com/techshop-dev/techshop/internal/cli/client"
	"github.com/techshop-dev/techshop/internal/cli/config"
	"github.com/techshop-dev/techshop/internal/cli/serverselect"
	"github.com/techshop-dev/techshop/internal/logger"
)

// RedirectDelay is how long the CLI waits before telling the user to sign in again
const RedirectDelay = 100 * time.Millisecond

// Options carries the global flags and I/O shared by every command
type Options struct {
	Server string
	Output string

	Out io.Writer
	Err io.Writer
	In  io.Reader

	// Store overrides the token store picked from TECHSHOP_TOKEN_STORE
	Store auth.TokenStore

	redirector *client.DeferredRedirector
}

// NewOptions returns options writing to the process stdio
func NewOptions() *Options {
	return &Options{
		Out: os.Stdout,
		Err: os.Stderr,
		In:  os.Stdin,
	}
}

// Redirector returns the redirector that tells the user to run 'techshop login'
func (o *Options) Redirector() *client.DeferredRedirector {
	if o.redirector == nil {
		o.redirector = client.NewDeferredRedirector(RedirectDelay, func(reason string) {
			fmt.Fprintf(o.Err, "Session ended (%s). Run 'techshop login' to sign in again.\n", reason)
		})
	}
	return o.redirector
}

// WaitForRedirect lets a scheduled redirect notice print before the process exits
func (o *Options) WaitForRedirect(ctx context.Context) error {
	if o.redirector == nil {
		return nil
	}
	return o.redirector.Wait(ctx)
}

// conn is everything a command needs to talk to the selected backend
type conn struct {
	server  *config.Server
	session *auth.Session
	client  *client.Client
}

// connect resolves the backend and builds a session-bound client.
// A project config is only required when no --server/TECHSHOP_SERVER is given.
func (o *Options) connect() (*conn, error) {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		if o.Server == "" && os.Getenv(serverselect.EnvServer) == "" {
			return nil, fmt.Errorf("failed to load config: %w\nRun 'techshop init <url>' to create a configuration file", err)
		}
		cfg = &config.Config{}
	}

	server, err := serverselect.ResolveServer(cfg, o.Server)
	if err != nil {
		return nil, err
	}

	if server.URL == "" {
		return nil, fmt.Errorf("server URL is empty. Please edit %s and add a valid URL", config.ConfigFileName)
	}

	store := o.Store
	if store == nil {
		if store, err = auth.StoreFromEnv(); err != nil {
			return nil, fmt.Errorf("failed to open token store: %w", err)
		}
	}

	session := auth.NewSession(store, server.Origin())
	apiClient := client.New(server.URL, session,
		client.WithRedirector(o.Redirector()),
		client.WithLogger(logger.GetLogger().With().Str("component", "client").Logger()),
	)

	return &conn{server: server, session: session, client: apiClient}, nil
}

// currentUserID resolves the signed-in user's id, from the token when it carries one
func (r *conn) currentUserID(ctx context.Context) (int64, error) {
	if claims, err := r.client.CurrentClaims(); err == nil && claims.UserID != 0 {
		return claims.UserID, nil
	}

	user, err := r.client.CurrentUser(ctx)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

// isAdmin reports whether the stored token grants admin access
func (r *conn) isAdmin() bool {
	claims, err := r.client.CurrentClaims()
	if err != nil {
		return false
	}
	return claims.IsAdmin()
}

// friendly turns auth sentinel errors into the message the user should act on
func friendly(err error) error {
	switch {
	case errors.Is(err, client.ErrForbidden):
		return fmt.Errorf("access denied: you have been signed out, run 'techshop login' to sign in again")
	case errors.Is(err, client.ErrUnauthenticated):
		return client.ErrUnauthenticated
	}
	return err
}
