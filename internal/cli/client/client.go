package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/techshop-dev/techshop/internal/auth"
	cliauth "github.com/techshop-dev/techshop/internal/cli/auth"
)

const (
	// DefaultBaseURL is the storefront backend used when nothing is configured
	DefaultBaseURL = "http://localhost:8001/api"

	refreshPath = "/users/refresh-token"
)

// Client is a session-aware HTTP client for the TechShop API.
// It attaches the stored credential to requests, refreshes it once when it
// expires or is rejected, and schedules a redirect to login when the session
// cannot be recovered. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *cliauth.Session
	redirector Redirector
	logger     zerolog.Logger
	validate   *validator.Validate
	userAgent  string
	now        func() time.Time

	refreshes singleflight.Group
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithRedirector sets where unauthenticated users are sent
func WithRedirector(r Redirector) Option {
	return func(c *Client) { c.redirector = r }
}

// WithLogger sets the client logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithClock overrides the time source used for local expiry checks
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a new API client bound to session
func New(baseURL string, session *cliauth.Session, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		session:   session,
		logger:    zerolog.Nop(),
		validate:  validator.New(),
		userAgent: "techshop-cli",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend origin
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns the session the client reads credentials from
func (c *Client) Session() *cliauth.Session {
	return c.session
}

// Send issues req and decodes a successful JSON response into out (which may be nil).
//
// Before sending, a stored credential is decoded locally; an expired one is
// refreshed first. A protected request without a credential fails with
// ErrUnauthenticated without touching the network. A 401 response triggers a
// single refresh and resend; a second 401, or any 403, clears the session.
func (c *Client) Send(ctx context.Context, req *Request, out any) error {
	token, err := c.credentialFor(ctx, req)
	if err != nil {
		return err
	}

	for {
		resp, err := c.do(ctx, req, token)
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized && token != "":
			apiErr := readAPIError(req, resp)
			if req.retried {
				c.expire("unauthorized after refresh")
				return fmt.Errorf("%w: %w", ErrUnauthenticated, apiErr)
			}
			req.retried = true

			if err := c.refreshFrom(ctx, token); err != nil {
				return err
			}
			if token, err = c.currentToken(); err != nil {
				return err
			}
			if token == "" {
				return ErrUnauthenticated
			}
			continue

		case resp.StatusCode == http.StatusForbidden && !req.Anonymous:
			apiErr := readAPIError(req, resp)
			c.expire("forbidden")
			return fmt.Errorf("%w: %w", ErrForbidden, apiErr)

		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return readAPIError(req, resp)
		}

		return decodeResponse(resp, out)
	}
}

// credentialFor decides which token (if any) the first attempt carries.
func (c *Client) credentialFor(ctx context.Context, req *Request) (string, error) {
	if req.Anonymous {
		return "", nil
	}

	token, err := c.currentToken()
	if err != nil {
		return "", err
	}

	if token == "" {
		if req.Protected {
			c.logger.Warn().Str("path", req.Path).Msg("No credential for protected request")
			c.redirect("no credential for protected request")
			return "", ErrUnauthenticated
		}
		return "", nil
	}

	claims, err := auth.DecodeUnverified(token)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Stored credential is unreadable, clearing it")
		c.clear()
		if req.Protected {
			c.redirect("unreadable credential")
			return "", ErrUnauthenticated
		}
		return "", nil
	}

	if !claims.ExpiredAt(c.now()) {
		return token, nil
	}

	c.logger.Info().Str("path", req.Path).Msg("Credential expired, refreshing before send")
	req.retried = true
	if err := c.refreshFrom(ctx, token); err != nil {
		return "", err
	}

	token, err = c.currentToken()
	if err != nil {
		return "", err
	}
	if token == "" && req.Protected {
		return "", ErrUnauthenticated
	}
	return token, nil
}

// Refresh exchanges the stored credential for a new one
func (c *Client) Refresh(ctx context.Context) error {
	token, err := c.currentToken()
	if err != nil {
		return err
	}
	return c.refreshFrom(ctx, token)
}

// refreshFrom refreshes the stale token. Concurrent callers holding the same
// stale token share one in-flight exchange; a caller whose stale token was
// already replaced returns immediately. An empty session is never refreshed,
// so a logout during a request stays in effect.
func (c *Client) refreshFrom(ctx context.Context, stale string) error {
	_, err, shared := c.refreshes.Do(stale, func() (any, error) {
		current, err := c.currentToken()
		if err != nil {
			return nil, err
		}
		if current == "" {
			c.redirect("signed out")
			return nil, ErrUnauthenticated
		}
		if current != stale {
			return nil, nil
		}
		return nil, c.exchange(context.WithoutCancel(ctx), stale)
	})
	if shared {
		c.logger.Debug().Msg("Joined in-flight credential refresh")
	}
	return err
}

// refreshResponse is returned by the login and refresh endpoints
type refreshResponse struct {
	Token string `json:"jwtToken"`
}

func (c *Client) exchange(ctx context.Context, stale string) error {
	req := &Request{Method: "POST", Path: refreshPath}
	resp, err := c.do(ctx, req, stale)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Credential refresh failed")
		c.expire("refresh failed")
		return fmt.Errorf("%w: refresh failed: %w", ErrUnauthenticated, err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := readAPIError(req, resp)
		c.logger.Warn().Int("status", resp.StatusCode).Msg("Credential refresh rejected")
		c.expire("refresh rejected")
		return fmt.Errorf("%w: %w", ErrUnauthenticated, apiErr)
	}

	var refreshed refreshResponse
	if err := decodeResponse(resp, &refreshed); err != nil || refreshed.Token == "" {
		c.expire("refresh returned no credential")
		return fmt.Errorf("%w: invalid response from server during refresh", ErrUnauthenticated)
	}

	if err := c.session.Set(refreshed.Token); err != nil {
		return fmt.Errorf("failed to save refreshed token: %w", err)
	}

	c.logger.Info().Msg("Credential refreshed")
	return nil
}

// do performs one HTTP round trip. Network errors are returned as-is (wrapped).
func (c *Client) do(ctx context.Context, req *Request, token string) (*http.Response, error) {
	body, contentType, err := req.body()
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.url(c.baseURL), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := ulid.Make().String()
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", requestID)
	if token != "" {
		httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug().Err(err).
			Str("method", req.Method).
			Str("path", req.Path).
			Str("request_id", requestID).
			Msg("Request failed")
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Bool("authenticated", token != "").
		Bool("retry", req.retried).
		Str("request_id", requestID).
		Msg("HTTP request")

	return resp, nil
}

func (c *Client) currentToken() (string, error) {
	token, err := c.session.Token()
	if err != nil {
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// expire clears the session and schedules the login redirect
func (c *Client) expire(reason string) {
	c.clear()
	c.redirect(reason)
}

func (c *Client) clear() {
	if err := c.session.Clear(); err != nil {
		c.logger.Error().Err(err).Msg("Failed to clear stored credential")
	}
}

func (c *Client) redirect(reason string) {
	c.logger.Warn().Str("reason", reason).Msg("Redirecting to login")
	if c.redirector != nil {
		c.redirector.Schedule(reason)
	}
}

// validateRequest checks a request DTO before anything is sent
func (c *Client) validateRequest(v any) error {
	if err := c.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid request: field %s failed '%s' check: %w", verrs[0].Field(), verrs[0].Tag(), err)
		}
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

func readAPIError(req *Request, resp *http.Response) *APIError {
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return &APIError{
		StatusCode: resp.StatusCode,
		Method:     req.Method,
		Path:       req.Path,
		Message:    errorMessage(body),
	}
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
