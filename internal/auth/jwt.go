package auth

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTokenTTL matches the lifetime the storefront backend gives its tokens.
	DefaultTokenTTL = 15 * time.Minute

	// RefreshGrace is how long after expiry a token can still be exchanged for a new one.
	RefreshGrace = 7 * 24 * time.Hour

	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

var (
	ErrSecretNotInitialized = errors.New("JWT secret not initialized")
	ErrInvalidToken         = errors.New("invalid token")
)

// Claims represents the storefront session token claims.
// The subject carries the user's email.
type Claims struct {
	UserID       int64    `json:"userId"`
	Roles        []string `json:"roles"`
	FirstName    string   `json:"firstName,omitempty"`
	LastName     string   `json:"lastName,omitempty"`
	CustomerType string   `json:"customerType,omitempty"`
	jwt.RegisteredClaims
}

// Email returns the token subject
func (c *Claims) Email() string {
	return c.Subject
}

// HasRole reports whether the token carries role, with or without the ROLE_ prefix
func (c *Claims) HasRole(role string) bool {
	return slices.ContainsFunc(c.Roles, func(r string) bool {
		return strings.EqualFold(strings.TrimPrefix(r, "ROLE_"), role)
	})
}

// IsAdmin reports whether the token grants admin access
func (c *Claims) IsAdmin() bool {
	return c.HasRole(RoleAdmin)
}

// ExpiredAt reports whether the token is expired at the given instant.
// A token without an exp claim never expires.
func (c *Claims) ExpiredAt(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}

// TokenSubject is the user data embedded into an issued token
type TokenSubject struct {
	UserID       int64
	Email        string
	Roles        []string
	FirstName    string
	LastName     string
	CustomerType string
}

// Issuer signs and validates HS256 session tokens
type Issuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewIssuer creates an issuer with the given secret and token lifetime
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrSecretNotInitialized
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "techshop",
		now:    time.Now,
	}, nil
}

// SetClock overrides the issuer's time source
func (i *Issuer) SetClock(now func() time.Time) {
	i.now = now
}

// GenerateToken creates a new signed token for a user
func (i *Issuer) GenerateToken(subject TokenSubject) (string, error) {
	now := i.now()
	claims := Claims{
		UserID:       subject.UserID,
		Roles:        subject.Roles,
		FirstName:    subject.FirstName,
		LastName:     subject.LastName,
		CustomerType: subject.CustomerType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.Email,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// ValidateToken validates a token and returns the claims
func (i *Issuer) ValidateToken(tokenString string) (*Claims, error) {
	return i.parse(tokenString)
}

// ValidateForRefresh accepts tokens that expired less than RefreshGrace ago
func (i *Issuer) ValidateForRefresh(tokenString string) (*Claims, error) {
	return i.parse(tokenString, jwt.WithLeeway(RefreshGrace))
}

func (i *Issuer) parse(tokenString string, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts, jwt.WithTimeFunc(i.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// DecodeUnverified reads the claims of a token without checking its signature.
// Clients use it to inspect expiry locally; never use it for authorization decisions.
func DecodeUnverified(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}
