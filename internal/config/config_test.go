package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/classbook/internal/engine"
)

// unsetAfter removes variables a .env file exported during the test.
func unsetAfter(t *testing.T, names ...string) {
	t.Helper()
	t.Cleanup(func() {
		for _, name := range names {
			os.Unsetenv(name)
		}
	})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func noDotEnv(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{DotEnv: noDotEnv(t)})
	require.NoError(t, err)

	assert.Equal(t, "classbook.db", cfg.DB)
	assert.Empty(t, cfg.Endpoint)
	assert.Zero(t, cfg.Remote.Timeout)
	assert.Equal(t, engine.DefaultBatches(), cfg.Batch)
	assert.Equal(t, ":8089", cfg.Serve.Addr)
}

func TestLoad_File(t *testing.T) {
	file := writeFile(t, "classbook.yaml", `
db: /var/lib/classbook/9a1.db
endpoint: https://script.example.com/exec
remote:
  timeout: 15s
batch:
  create:
    size: 5
    delay: 1s
`)
	cfg, err := Load(LoadOptions{File: file, DotEnv: noDotEnv(t)})
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/classbook/9a1.db", cfg.DB)
	assert.Equal(t, "https://script.example.com/exec", cfg.Endpoint)
	assert.Equal(t, 15*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, engine.BatchConfig{Size: 5, Delay: time.Second}, cfg.Batch.Create)
	assert.Equal(t, engine.DefaultBatches().Update, cfg.Batch.Update)
}

func TestLoad_Precedence(t *testing.T) {
	file := writeFile(t, "classbook.yaml", "db: from-file.db\nserve:\n  addr: :1000\nbatch:\n  update:\n    size: 2\n")
	dotEnv := writeFile(t, ".env", "CLASSBOOK_DB=from-dotenv.db\nCLASSBOOK_SERVE_ADDR=:2000\nOTHER=ignored\n")
	t.Setenv("CLASSBOOK_DB", "from-env.db")
	t.Setenv("CLASSBOOK_BATCH_UPDATE_DELAY", "50ms")
	unsetAfter(t, "CLASSBOOK_SERVE_ADDR", "OTHER")

	cfg, err := Load(LoadOptions{File: file, DotEnv: dotEnv})
	require.NoError(t, err)

	assert.Equal(t, "from-env.db", cfg.DB, "environment beats .env and file")
	assert.Equal(t, ":2000", cfg.Serve.Addr, ".env beats file")
	assert.Equal(t, engine.BatchConfig{Size: 2, Delay: 50 * time.Millisecond}, cfg.Batch.Update)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing config file", func(t *testing.T) {
		_, err := Load(LoadOptions{File: filepath.Join(t.TempDir(), "nope.yaml"), DotEnv: noDotEnv(t)})
		assert.Error(t, err)
	})
	t.Run("zero batch size", func(t *testing.T) {
		t.Setenv("CLASSBOOK_BATCH_CREATE_SIZE", "0")
		_, err := Load(LoadOptions{DotEnv: noDotEnv(t)})
		assert.ErrorContains(t, err, "config")
	})
	t.Run("empty db", func(t *testing.T) {
		t.Setenv("CLASSBOOK_DB", "")
		_, err := Load(LoadOptions{DotEnv: noDotEnv(t)})
		assert.Error(t, err)
	})
}

func TestLoad_EnvironmentAlone(t *testing.T) {
	t.Setenv("CLASSBOOK_ENDPOINT", "https://script.example.com/exec")
	t.Setenv("CLASSBOOK_REMOTE_TIMEOUT", "2s")
	t.Setenv("CLASSBOOK_BATCH_CREATE_SIZE", "7")

	cfg, err := Load(LoadOptions{DotEnv: noDotEnv(t)})
	require.NoError(t, err)

	assert.Equal(t, "https://script.example.com/exec", cfg.Endpoint)
	assert.Equal(t, 2*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, 7, cfg.Batch.Create.Size)
	assert.Equal(t, engine.DefaultBatches().Create.Delay, cfg.Batch.Create.Delay)
}
