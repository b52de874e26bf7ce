package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "rest", cfg.Content.Backend)
	require.Equal(t, []string{"fr", "nl"}, cfg.Locale.Supported)
	require.Equal(t, "fr", cfg.Locale.Default)
	require.True(t, cfg.Navigation.DeepLinkFetch)
	require.Equal(t, 10*time.Minute, cfg.Content.CacheDuration())
	require.False(t, cfg.Relay.Configured())
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte(`
server:
  port: 9090
content:
  backend: postgres
  cache_ttl: 0
locale:
  supported: [fr, nl]
  default: fr
`)
	require.NoError(t, os.WriteFile(path, body, 0o600))
	t.Setenv("LOCALE_DEFAULT", "nl")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, ":9090", cfg.Server.Addr())
	require.Equal(t, "postgres", cfg.Content.Backend)
	require.Zero(t, cfg.Content.CacheDuration())
	require.Equal(t, "nl", cfg.Locale.Default)
}

func TestValidateRejectsUnknownDefaultLanguage(t *testing.T) {
	cfg := &Config{
		Content: ContentConfig{Backend: "rest"},
		Locale:  LocaleConfig{Supported: []string{"fr", "nl"}, Default: "en"},
	}
	require.Error(t, cfg.Validate())

	cfg.Locale.Default = "nl"
	require.NoError(t, cfg.Validate())

	cfg.Content.Backend = "graphql"
	require.Error(t, cfg.Validate())
}

func TestLoadFileMissingExplicitPathFails(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
