package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    string
		shouldError bool
	}{
		{
			name:     "full url",
			input:    "http://localhost:8001/api",
			expected: "http://localhost:8001/api",
		},
		{
			name:     "trailing slash",
			input:    "https://shop.example.com/api/",
			expected: "https://shop.example.com/api",
		},
		{
			name:     "missing scheme",
			input:    "localhost:8001/api",
			expected: "http://localhost:8001/api",
		},
		{
			name:        "unsupported scheme",
			input:       "ftp://shop.example.com",
			shouldError: true,
		},
		{
			name:        "empty",
			input:       "",
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.input)
			if tt.shouldError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestServer_Origin(t *testing.T) {
	server := Server{Alias: "local", URL: "http://localhost:8001/api"}
	assert.Equal(t, "http://localhost:8001", server.Origin())
}

func TestConfig_AddServer(t *testing.T) {
	cfg := &Config{}

	first, added, err := cfg.AddServer("http://localhost:8001/api", "")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "local", first.Alias)

	second, added, err := cfg.AddServer("https://shop.example.com/api", "")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "server-2", second.Alias)

	again, added, err := cfg.AddServer("http://localhost:8001/api/", "other")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, "local", again.Alias)

	_, _, err = cfg.AddServer("https://staging.example.com/api", "local")
	assert.Error(t, err)

	assert.Len(t, cfg.Servers, 2)
}

func TestConfig_Lookup(t *testing.T) {
	cfg := &Config{Servers: []Server{
		{Alias: "local", URL: "http://localhost:8001/api"},
		{Alias: "prod", URL: "https://shop.example.com/api"},
	}}

	server, err := cfg.GetServerByURLOrAlias("prod")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/api", server.URL)

	server, err = cfg.GetServerByURLOrAlias("http://localhost:8001/api/")
	require.NoError(t, err)
	assert.Equal(t, "local", server.Alias)

	_, err = cfg.GetServerByURLOrAlias("staging")
	assert.Error(t, err)

	server, err = cfg.GetDefaultServer()
	require.NoError(t, err)
	assert.Equal(t, "local", server.Alias)

	_, err = (&Config{}).GetDefaultServer()
	assert.Error(t, err)
}

func TestSaveLoadAndFind(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	path := filepath.Join(root, ConfigFileName)
	require.NoError(t, Save(path, DefaultConfig()))

	t.Chdir(nested)

	found, err := FindConfigFile()
	require.NoError(t, err)
	assert.Equal(t, ConfigFileName, filepath.Base(found))

	cfg, err := LoadFromCurrentDir()
	require.NoError(t, err)
	require.Len(t, cfg.Servers, 1)
	assert.Equal(t, "http://localhost:8001/api", cfg.Servers[0].URL)
}

func TestFindConfigFile_Missing(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := FindConfigFile()
	assert.ErrorContains(t, err, ConfigFileName)
}
