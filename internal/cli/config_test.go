package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigFromEnv(t *testing.T) {
	t.Setenv("PMCTL_SERVER", "http://manager:9000")
	t.Setenv("PMCTL_TOKEN", "abc")
	t.Setenv("PMCTL_OUTPUT", "json")
	t.Setenv("PMCTL_TOKEN_FILE", "/tmp/pm-token")

	c := DefaultConfig()
	assert.Equal(t, "http://manager:9000", c.ServerURL)
	assert.Equal(t, "abc", c.Token)
	assert.Equal(t, "json", c.Output)
	assert.Equal(t, "/tmp/pm-token", c.TokenFile)
	assert.NoError(t, c.Validate())
}

func TestDefaultConfigDefaults(t *testing.T) {
	t.Setenv("PMCTL_SERVER", "")
	t.Setenv("PMCTL_TOKEN_FILE", "")
	t.Setenv("PMCTL_OUTPUT", "")

	c := DefaultConfig()
	assert.Equal(t, "http://localhost:8080", c.ServerURL)
	assert.Equal(t, "text", c.Output)
	assert.Equal(t, "token", filepath.Base(c.TokenFile))
}

func TestConfigValidateOutput(t *testing.T) {
	c := &Config{ServerURL: "http://x", Output: "yaml"}
	assert.ErrorContains(t, c.Validate(), "unknown output format")
}

func TestTokenFileRoundTrip(t *testing.T) {
	c := &Config{TokenFile: filepath.Join(t.TempDir(), "nested", "token")}

	require.NoError(t, c.LoadToken())
	assert.Empty(t, c.Token)

	require.NoError(t, c.SaveToken("tok-1"))
	c.Token = ""
	require.NoError(t, c.LoadToken())
	assert.Equal(t, "tok-1", c.Token)

	require.NoError(t, c.ClearToken())
	assert.Empty(t, c.Token)
	_, err := os.Stat(c.TokenFile)
	assert.ErrorIs(t, err, os.ErrNotExist)
	require.NoError(t, c.ClearToken())
}
