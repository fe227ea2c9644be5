package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techshop-dev/techshop/internal/cli/auth"
	"github.com/techshop-dev/techshop/internal/cli/userconfig"
)

func TestOutputCommand(t *testing.T) {
	setupTestEnvironment(t, nil)

	t.Run("DefaultsToTable", func(t *testing.T) {
		opts, out := newTestOptions(auth.NewMemoryStore())
		require.NoError(t, showOutputFormat(opts))
		assert.Equal(t, "Default output format: table\n", out.String())
	})

	t.Run("Set", func(t *testing.T) {
		opts, out := newTestOptions(auth.NewMemoryStore())
		require.NoError(t, runSetOutputFormat(opts, " YAML "))
		assert.Contains(t, out.String(), "set to yaml")

		cfg, err := userconfig.Load()
		require.NoError(t, err)
		assert.Equal(t, FormatYAML, cfg.OutputFormat)
	})

	t.Run("RejectsUnknownFormat", func(t *testing.T) {
		opts, _ := newTestOptions(auth.NewMemoryStore())
		err := runSetOutputFormat(opts, "xml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid output format")

		cfg, err := userconfig.Load()
		require.NoError(t, err)
		assert.Equal(t, FormatYAML, cfg.OutputFormat)
	})

	t.Run("RejectsBlankFormat", func(t *testing.T) {
		opts, _ := newTestOptions(auth.NewMemoryStore())
		assert.Error(t, runSetOutputFormat(opts, "  "))
	})
}
