package auth

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

const testOrigin = "http://localhost:8001/api"

func TestSession_AnonymousByDefault(t *testing.T) {
	s := NewSession(NewMemoryStore(), testOrigin)

	token, err := s.Token()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestSession_SetReplacesToken(t *testing.T) {
	store := NewMemoryStore()
	s := NewSession(store, testOrigin)

	require.NoError(t, s.Set("first"))
	require.NoError(t, s.Set("second"))

	token, err := s.Token()
	require.NoError(t, err)
	assert.Equal(t, "second", token)

	stored, err := store.LoadToken(testOrigin)
	require.NoError(t, err)
	assert.Equal(t, "second", stored)
}

func TestSession_RejectsEmptyToken(t *testing.T) {
	s := NewSession(NewMemoryStore(), testOrigin)
	assert.Error(t, s.Set(""))
}

func TestSession_BroadcastsChanges(t *testing.T) {
	s := NewSession(NewMemoryStore(), testOrigin)

	var events []Event
	unsubscribe := s.Subscribe(func(ev Event) {
		events = append(events, ev)
	})

	require.NoError(t, s.Set("abc"))
	require.NoError(t, s.Clear())

	require.Len(t, events, 2)
	assert.Equal(t, TokenChanged, events[0].Kind)
	assert.Equal(t, "abc", events[0].Token)
	assert.Equal(t, testOrigin, events[0].Origin)
	assert.Equal(t, TokenCleared, events[1].Kind)

	unsubscribe()
	unsubscribe()
	require.NoError(t, s.Set("def"))
	assert.Len(t, events, 2)
}

type failingStore struct{ MemoryStore }

func (f *failingStore) LoadToken(string) (string, error) {
	return "", errors.New("keyring locked")
}

func TestSession_PropagatesStoreErrors(t *testing.T) {
	s := NewSession(&failingStore{}, testOrigin)

	_, err := s.Token()
	assert.EqualError(t, err, "keyring locked")
}

func TestFileStore_RoundTripPerOrigin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	store := NewFileStore(path)

	_, err := store.LoadToken(testOrigin)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, store.SaveToken(testOrigin, "token-a"))
	require.NoError(t, store.SaveToken("https://shop.example.com/api", "token-b"))

	reopened := NewFileStore(path)
	token, err := reopened.LoadToken(testOrigin)
	require.NoError(t, err)
	assert.Equal(t, "token-a", token)

	require.NoError(t, reopened.DeleteToken(testOrigin))
	require.NoError(t, reopened.DeleteToken(testOrigin))

	_, err = store.LoadToken(testOrigin)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	token, err = store.LoadToken("https://shop.example.com/api")
	require.NoError(t, err)
	assert.Equal(t, "token-b", token)
}

func TestFileStore_TightensExistingPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not enforced on windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, credentialsFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"https://old.example.com/api":"token-old"}`), 0644))

	store := NewFileStore(path)
	require.NoError(t, store.SaveToken(testOrigin, "token-a"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	token, err := store.LoadToken("https://old.example.com/api")
	require.NoError(t, err)
	assert.Equal(t, "token-old", token)

	// No temporary files are left next to the credentials
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestKeyringStore_PerOrigin(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringStore("")

	_, err := store.LoadToken(testOrigin)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, store.SaveToken("http://localhost:8001", "token-a"))
	require.NoError(t, store.SaveToken("https://shop.example.com", "token-b"))

	// Case and a trailing slash do not make a different origin
	token, err := store.LoadToken("HTTP://LOCALHOST:8001/")
	require.NoError(t, err)
	assert.Equal(t, "token-a", token)

	require.NoError(t, store.DeleteToken("http://localhost:8001"))
	require.NoError(t, store.DeleteToken("http://localhost:8001"))

	_, err = store.LoadToken("http://localhost:8001")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	token, err = store.LoadToken("https://shop.example.com")
	require.NoError(t, err)
	assert.Equal(t, "token-b", token)
}

func TestKeyringStore_ServicesAreSeparate(t *testing.T) {
	keyring.MockInit()

	require.NoError(t, NewKeyringStore("techshop-a").SaveToken(testOrigin, "token-a"))

	_, err := NewKeyringStore("techshop-b").LoadToken(testOrigin)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestKeyringStore_BackendErrors(t *testing.T) {
	keyring.MockInitWithError(errors.New("keyring locked"))
	t.Cleanup(keyring.MockInit)

	store := NewKeyringStore(KeyringService)

	_, err := store.LoadToken(testOrigin)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotAuthenticated)
	assert.Contains(t, err.Error(), "keyring locked")

	assert.ErrorContains(t, store.SaveToken(testOrigin, "token"), "keyring locked")
	assert.ErrorContains(t, store.DeleteToken(testOrigin), "keyring locked")
}

func TestStoreFromEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	t.Setenv("TECHSHOP_TOKEN_STORE", "file")
	store, err := StoreFromEnv()
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	t.Setenv("TECHSHOP_TOKEN_STORE", "")
	store, err = StoreFromEnv()
	require.NoError(t, err)
	assert.IsType(t, &KeyringStore{}, store)
}
