package auth

import (
	"errors"
	"os"
	"strings"
)

// ErrNotAuthenticated is returned by a TokenStore when no token is stored for an origin
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'techshop login' first")

// TokenStore persists one token per backend origin. LoadToken returns
// ErrNotAuthenticated when the origin has no token.
type TokenStore interface {
	SaveToken(origin, token string) error
	LoadToken(origin string) (string, error)
	DeleteToken(origin string) error
}

// StoreFromEnv picks the token store named by TECHSHOP_TOKEN_STORE.
// "file" selects the credentials file (useful on hosts without a keyring),
// anything else the OS keyring.
func StoreFromEnv() (TokenStore, error) {
	switch strings.ToLower(os.Getenv("TECHSHOP_TOKEN_STORE")) {
	case "file":
		path, err := DefaultCredentialsPath()
		if err != nil {
			return nil, err
		}
		return NewFileStore(path), nil
	default:
		return Default, nil
	}
}
