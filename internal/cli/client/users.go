package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/techshop-dev/techshop/internal/auth"
)

// Login authenticates with email and password, stores the returned token and
// broadcasts the change to session subscribers.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	req := &Request{
		Method:    "POST",
		Path:      "/users/login",
		Form:      url.Values{"email": {email}, "password": {password}},
		Anonymous: true,
	}

	var loginResp LoginResponse
	if err := c.Send(ctx, req, &loginResp); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if loginResp.Token == "" {
		return nil, fmt.Errorf("invalid response from server during login")
	}

	if err := c.session.Set(loginResp.Token); err != nil {
		return nil, fmt.Errorf("failed to save authentication token: %w", err)
	}

	c.logger.Info().Str("email", loginResp.Email).Msg("Logged in")
	return &loginResp, nil
}

// Logout forgets the stored token
func (c *Client) Logout() error {
	if err := c.session.Clear(); err != nil {
		return fmt.Errorf("failed to remove authentication token: %w", err)
	}
	return nil
}

// CurrentClaims decodes the stored token locally. It returns ErrUnauthenticated when anonymous.
func (c *Client) CurrentClaims() (*auth.Claims, error) {
	token, err := c.currentToken()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrUnauthenticated
	}
	return auth.DecodeUnverified(token)
}

// Register creates a new account
func (c *Client) Register(ctx context.Context, reg RegisterRequest) error {
	if err := c.validateRequest(reg); err != nil {
		return err
	}

	req := &Request{Method: "POST", Path: "/users/register", Body: reg, Anonymous: true}
	if err := c.Send(ctx, req, nil); err != nil {
		return fmt.Errorf("failed to register: %w", err)
	}
	return nil
}

// Profile returns the authenticated user's profile
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var user User
	if err := c.Send(ctx, Get("/users/profile", true), &user); err != nil {
		return nil, fmt.Errorf("failed to fetch user profile: %w", err)
	}
	return &user, nil
}

// UserByEmail looks a user up by email
func (c *Client) UserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	path := fmt.Sprintf("/users/email/%s", url.PathEscape(email))
	if err := c.Send(ctx, Get(path, true), &user); err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}

// CurrentUser resolves the user behind the stored token
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	claims, err := c.CurrentClaims()
	if err != nil {
		c.redirect("no credential for current user")
		return nil, err
	}
	return c.UserByEmail(ctx, claims.Email())
}

// ChangePassword changes the authenticated user's password
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	body := ChangePasswordRequest{CurrentPassword: current, NewPassword: next}
	if err := c.validateRequest(body); err != nil {
		return err
	}

	if err := c.Send(ctx, Post("/users/change-password", body, true), nil); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}
