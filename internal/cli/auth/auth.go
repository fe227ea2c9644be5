package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService is the service name TechShop sessions are filed under in the OS keyring
const KeyringService = "techshop-cli"

// KeyringStore keeps one session token per backend origin in the OS keychain/credential manager
type KeyringStore struct {
	service string
}

// NewKeyringStore returns a keyring store filing tokens under service
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = KeyringService
	}
	return &KeyringStore{service: service}
}

// Default is the store used when TECHSHOP_TOKEN_STORE does not name another one
var Default TokenStore = NewKeyringStore(KeyringService)

// account is the keyring entry name for an origin. Origins differing only in
// case or a trailing slash share one entry.
func account(origin string) string {
	return "jwt-" + strings.ToLower(strings.TrimRight(origin, "/"))
}

func (k *KeyringStore) SaveToken(origin, token string) error {
	if err := keyring.Set(k.service, account(origin), token); err != nil {
		return fmt.Errorf("failed to save token to keyring: %w", err)
	}
	return nil
}

func (k *KeyringStore) LoadToken(origin string) (string, error) {
	token, err := keyring.Get(k.service, account(origin))
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return "", ErrNotAuthenticated
	case err != nil:
		return "", fmt.Errorf("failed to load token from keyring: %w", err)
	case token == "":
		return "", ErrNotAuthenticated
	}
	return token, nil
}

// DeleteToken forgets the origin's token. Deleting a missing token is not an error.
func (k *KeyringStore) DeleteToken(origin string) error {
	err := keyring.Delete(k.service, account(origin))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}
