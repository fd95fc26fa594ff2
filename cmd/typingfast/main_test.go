package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/typingfast/internal/config"
)

func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv(config.EnvLogLevel, "")
}

func TestLoadSettingsPrecedence(t *testing.T) {
	isolateConfig(t)
	t.Setenv(config.EnvAPIURL, "http://env.example/api")

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--words", "50"}))
	s, err := loadSettings(cmd)
	require.NoError(t, err)
	assert.Equal(t, 50, s.Words)
	assert.Equal(t, "http://env.example/api", s.APIBaseURL)

	cmd = newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--api-url", "http://flag.example/api"}))
	s, err = loadSettings(cmd)
	require.NoError(t, err)
	assert.Equal(t, "http://flag.example/api", s.APIBaseURL)
	assert.Equal(t, config.DefaultWords, s.Words)
}

func TestLoadSettingsRejectsBadValues(t *testing.T) {
	isolateConfig(t)
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--words", "0"}))
	_, err := loadSettings(cmd)
	assert.Error(t, err)

	cmd = newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--api-url", "localhost:8080"}))
	_, err = loadSettings(cmd)
	assert.Error(t, err)
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	var lines []string
	for _, line := range strings.Split(defaultConfigTemplate(), "\n") {
		if strings.HasPrefix(line, "# ") && strings.Contains(line, " = ") {
			line = strings.TrimPrefix(line, "# ")
		}
		lines = append(lines, line)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	s := config.Defaults().Merge(cfg)
	assert.Equal(t, config.DefaultWords, s.Words)
	assert.Equal(t, config.DefaultAPIURL, s.APIBaseURL)
	assert.Equal(t, config.DefaultAPITimeout, s.APITimeout)
	require.NoError(t, s.Validate())
}

func TestSubcommandsRegistered(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"login", "signup", "logout", "whoami", "dashboard", "history", "config", "mock-server"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestPortSuffix(t *testing.T) {
	assert.Equal(t, ":8080", portSuffix(":8080"))
	assert.Equal(t, ":9000", portSuffix("127.0.0.1:9000"))
	assert.Equal(t, "", portSuffix("localhost"))
}
