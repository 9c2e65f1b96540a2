package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), cfg.Import.DefaultCategoryID)
	assert.Equal(t, 5, cfg.Import.SampleRows)
	assert.Equal(t, time.Hour, cfg.Database.MaxConnLifetime)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("IMPORT_DEFAULT_CATEGORY_ID=42\nIMPORT_CURRENCY=usd\nPOSTGRES_PORT=6543\nIMPORT_ARCHIVE_DIR=/var/lib/statements\n"), 0o600))

	// godotenv never overrides variables that are already set.
	for _, k := range []string{"IMPORT_DEFAULT_CATEGORY_ID", "IMPORT_CURRENCY", "POSTGRES_PORT", "IMPORT_ARCHIVE_DIR"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Import.DefaultCategoryID)
	assert.Equal(t, "USD", cfg.Import.Currency)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "/var/lib/statements", cfg.Import.ArchiveDir)
	assert.Contains(t, cfg.Database.DSN(), "port=6543")
}

func TestLoad_Validation(t *testing.T) {
	t.Setenv("IMPORT_CURRENCY", "EURO")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMPORT_CURRENCY")
}

func TestLogConfig_NewLogger(t *testing.T) {
	assert.NotNil(t, LogConfig{Level: "debug", Format: "json"}.NewLogger())
	assert.NotNil(t, LogConfig{Level: "nonsense"}.NewLogger())
}
