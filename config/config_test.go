package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedDefaults(t *testing.T) {
	settings, err := Load("unit-test-system")
	require.NoError(t, err)

	assert.Equal(t, "unit-test-system", settings.System.Name)
	assert.Equal(t, 1024, settings.Actor.MailboxSize)
	assert.Equal(t, 20, settings.Actor.MessageThroughput)
	assert.Equal(t, "on_panic", settings.Actor.RestartPolicy)

	pool, ok := settings.Pool["default"]
	require.True(t, ok)
	assert.Equal(t, 0.5, pool.ThreadsFactor)
	assert.Equal(t, 2, pool.ThreadsMin)
	assert.Equal(t, 32, pool.ThreadsMax)
}

func TestLoad_HostnameSentinel(t *testing.T) {
	settings, err := Load("$HOSTNAME")
	require.NoError(t, err)

	host, hostErr := os.Hostname()
	if hostErr == nil && host != "" {
		assert.Equal(t, host, settings.System.Name)
	} else {
		assert.Equal(t, defaultSystemName, settings.System.Name)
	}
}

func TestLoad_FileOverrideMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))

	require.NoError(t, os.Mkdir("config", 0o755))
	override := []byte("[actor]\nmailbox_size = 4096\n")
	require.NoError(t, os.WriteFile(filepath.Join("config", "override-system.toml"), override, 0o644))

	settings, err := Load("override-system")
	require.NoError(t, err)

	assert.Equal(t, 4096, settings.Actor.MailboxSize, "the override file must win over the embedded default")
	assert.Equal(t, 20, settings.Actor.MessageThroughput, "keys absent from the override keep the embedded default")
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("ACTORHOST_ACTOR_MAILBOX_SIZE", "7")

	settings, err := Load("env-test-system")
	require.NoError(t, err)

	assert.Equal(t, 7, settings.Actor.MailboxSize)
}
