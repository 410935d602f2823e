package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domicilios-tipovia/internal/pipeline"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PGHOST", "PGPORT", "PGUSER", "PGDATABASE", "PGPASSWORD", "TIPOVIA_TABLE", "TIPOVIA_PK", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "postgres", cfg.Database.Name)
	assert.Equal(t, "public", cfg.Target.Schema)
	assert.Equal(t, "domicilios", cfg.Target.Table)
	assert.Equal(t, "id", cfg.Target.PrimaryKey)
	assert.Equal(t, "tipo_via", cfg.Target.TypeColumn)
	assert.Equal(t, "calle", cfg.Target.NameColumn)
	assert.Equal(t, pipeline.DefaultBatchSize, cfg.Run.BatchSize)
	assert.Equal(t, 10, cfg.Run.PreviewLimit)
	assert.Equal(t, "all", cfg.Run.ExportMode)
	assert.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("PGPORT", "6543")
	t.Setenv("TIPOVIA_TABLE", "direcciones")
	t.Setenv("TIPOVIA_BATCH_SIZE", "250")
	t.Setenv("TIPOVIA_WHERE", "estado = 'CDMX'")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("TIPOVIA_BACKUP", "sí")

	cfg := Load()

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "direcciones", cfg.Target.Table)
	assert.Equal(t, 250, cfg.Run.BatchSize)
	assert.Equal(t, "estado = 'CDMX'", cfg.Target.Filter)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Run.Backup)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "Driver must be one of"},
		{"port out of range", func(c *Config) { c.Database.Port = 70000 }, "Port must be <= 65535"},
		{"empty table", func(c *Config) { c.Target.Table = "" }, "Table is not a usable identifier"},
		{"same columns", func(c *Config) { c.Target.NameColumn = c.Target.TypeColumn }, "TypeColumn must differ from NameColumn"},
		{"zero batch", func(c *Config) { c.Run.BatchSize = 0 }, "BatchSize must be >= 1"},
		{"bad export mode", func(c *Config) { c.Run.ExportMode = "some" }, "ExportMode must be one of"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "Level must be one of"},
		{"unsupported sslmode", func(c *Config) { c.Database.SSLMode = "prefer" }, "SSLMode must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, pipeline.ErrValidation)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidateSections(t *testing.T) {
	cfg := Load()
	cfg.Web.MaxBatch = 0
	assert.NoError(t, cfg.ValidateDatabase())
	assert.ErrorIs(t, cfg.ValidateWeb(), pipeline.ErrValidation)

	cfg.Log.Format = "xml"
	assert.Error(t, cfg.ValidateLog())

	assert.NoError(t, cfg.ValidateRun())
	cfg.Run.ExportMode = "some"
	assert.ErrorIs(t, cfg.ValidateRun(), pipeline.ErrValidation)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "localhost", Port: 5432, User: "app", Name: "padron", SSLMode: "disable"}
	assert.Equal(t, "host='localhost' port=5432 user='app' dbname='padron' sslmode='disable'", d.DSN())

	d.Password = `it's a \secret`
	assert.Contains(t, d.DSN(), `password='it\'s a \\secret'`)
	assert.Contains(t, d.Redacted(), "password='xxxxx'")
	assert.NotContains(t, d.Redacted(), "secret")
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TIPOVIA_TEST_INT", " 42 ")
	t.Setenv("TIPOVIA_TEST_BAD_INT", "many")
	t.Setenv("TIPOVIA_TEST_BOOL", "Sí")

	assert.Equal(t, 42, GetEnvInt("TIPOVIA_TEST_INT", 1))
	assert.Equal(t, 1, GetEnvInt("TIPOVIA_TEST_BAD_INT", 1))
	assert.True(t, GetEnvBool("TIPOVIA_TEST_BOOL", false))
	assert.True(t, GetEnvBool("TIPOVIA_TEST_UNSET", true))
	assert.Equal(t, "fallback", GetEnv("TIPOVIA_TEST_UNSET", "fallback"))
}

func TestLoadEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TIPOVIA_TEST_FROM_FILE=file\nTIPOVIA_TEST_PRESET=file\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("TIPOVIA_TEST_PRESET", "env")
	t.Setenv("TIPOVIA_TEST_FROM_FILE", "")
	require.NoError(t, os.Unsetenv("TIPOVIA_TEST_FROM_FILE"))

	require.NoError(t, LoadEnv())
	assert.Equal(t, "file", os.Getenv("TIPOVIA_TEST_FROM_FILE"))
	assert.Equal(t, "env", os.Getenv("TIPOVIA_TEST_PRESET"))
}
