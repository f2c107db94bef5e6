package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaultsWithSecretFromEnv(t *testing.T) {
	t.Setenv("PORTAL_SESSION_SECRET", "s3cret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Session.Secret)
	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 5, cfg.App.PostsPerPage)
	assert.Equal(t, 10, cfg.Storage.MaxFilesPerPost)
	assert.Equal(t, int64(500*1024*1024), cfg.Storage.MaxUploadBytes())
	assert.Equal(t, 5, cfg.App.LoginMaxFailures)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Empty(t, cfg.App.AllowedOrigins)
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	p := writeConfig(t, `{
		"app": {"port": "8080", "posts_per_page": 20},
		"session": {"secret": "from-file"},
		"storage": {"max_files_per_post": 3}
	}`)
	t.Setenv("PORTAL_APP_PORT", "9090")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, 20, cfg.App.PostsPerPage)
	assert.Equal(t, "from-file", cfg.Session.Secret)
	assert.Equal(t, 3, cfg.Storage.MaxFilesPerPost)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("PORTAL_SESSION_SECRET", "")
	_, err := Load(writeConfig(t, `{"app": {"port": "1"}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session secret")
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	_, err := Load(writeConfig(t, `{"session": {"secret": "x"}, "database": {"driver": "postgres"}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}

func TestLoadBadFile(t *testing.T) {
	_, err := Load(writeConfig(t, `{not json`))
	assert.Error(t, err)
}

func TestValidateFillsLimits(t *testing.T) {
	cfg := AppConfig{Session: SessionConfig{Secret: "x"}, Database: DatabaseConfig{Driver: "mysql"}}
	require.NoError(t, cfg.validate())
	assert.Equal(t, 5, cfg.App.PostsPerPage)
	assert.Equal(t, 10, cfg.Storage.MaxFilesPerPost)
	assert.Equal(t, int64(500), cfg.Storage.MaxUploadSizeMB)
}
