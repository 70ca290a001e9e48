package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "work", "seed", "purge", "digest", "events-tail"} {
		assert.True(t, names[want], want)
	}
}

func TestDigest_RejectsMalformedDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jwt:\n  secret: test\nlog:\n  level: error\n"), 0o600))

	rootCmd.SetArgs([]string{"digest", "--config", path, "--date", "17/10/2026"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		digestDate = ""
	})

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --date")
	require.NotNil(t, cfg)
	assert.Equal(t, "test", cfg.JWT.Secret)
}

func TestEventsTail_RequiresRedis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jwt:\n  secret: test\nlog:\n  level: error\n"), 0o600))

	rootCmd.SetArgs([]string{"events-tail", "--config", path})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis is disabled")
}
