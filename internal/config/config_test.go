package config

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/auditmagic/internal/update"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, "", "1.0.0", io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "auditmagic.sqlite3", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "Admin", cfg.AdminUser)
	assert.Empty(t, cfg.LogPath)
	assert.True(t, cfg.SaveHistory)
	assert.True(t, cfg.UpdateCheck)
	assert.Equal(t, update.DefaultURL, cfg.UpdateURL)
	assert.Equal(t, "1.0.0", cfg.Version)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("AUDITMAGIC_ADDR", ":9000")
	t.Setenv("AUDITMAGIC_DB", "env.sqlite3")
	t.Setenv("AUDITMAGIC_HISTORY", "false")

	cfg, err := Load([]string{"-d", "flag.sqlite3", "-update-check=false"}, "", "", io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "flag.sqlite3", cfg.DBPath)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.False(t, cfg.SaveHistory)
	assert.False(t, cfg.UpdateCheck)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("AUDITMAGIC_USER=Keeper\nAUDITMAGIC_LOG=server.log\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("AUDITMAGIC_USER")
		os.Unsetenv("AUDITMAGIC_LOG")
	})

	cfg, err := Load(nil, path, "", io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "Keeper", cfg.AdminUser)
	assert.Equal(t, "server.log", cfg.LogPath)
}

func TestLoadMissingEnvFile(t *testing.T) {
	_, err := Load(nil, filepath.Join(t.TempDir(), "missing.env"), "", io.Discard)
	assert.NoError(t, err)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load([]string{"-h"}, "", "", io.Discard)
	assert.True(t, errors.Is(err, flag.ErrHelp))

	_, err = Load([]string{"extra"}, "", "", io.Discard)
	assert.Error(t, err)

	_, err = Load([]string{"-user", "  "}, "", "", io.Discard)
	assert.Error(t, err)

	t.Setenv("AUDITMAGIC_HISTORY", "maybe")
	_, err = Load(nil, "", "", io.Discard)
	assert.Error(t, err)
}
