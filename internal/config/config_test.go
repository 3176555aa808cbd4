package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/wordwise/internal/store"
	"github.com/abhisek/wordwise/internal/vocab"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, store.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, vocab.DefaultSelectionConfig(), cfg.Selection)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, "wordwise:", cfg.Redis.KeyPrefix)
	assert.False(t, cfg.Embeddings.Enabled())
}

func TestLoadFileAndEnv(t *testing.T) {
	p := writeConfig(t, `
database:
  driver: postgres
  dsn: postgres://localhost/wordwise
redis:
  addr: localhost:6380
selection:
  new_word_ratio: 0.1
  recent_use_window: 12h
log:
  level: debug
  format: json
vocabulary:
  file: words.yaml
`)
	t.Setenv("WORDWISE_SELECTION_MAX_USAGE_FREQUENCY", "5")
	t.Setenv("WORDWISE_LOG_LEVEL", "error")
	t.Setenv("WORDWISE_EMBEDDINGS_API_KEY", "sk-test")

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, store.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/wordwise", cfg.Database.DSN)
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr)
	assert.Equal(t, 48*time.Hour, cfg.Redis.TTL, "unset keys keep defaults")
	assert.Equal(t, 0.1, cfg.Selection.NewWordRatio)
	assert.Equal(t, 0.4, cfg.Selection.ReviewWordRatio)
	assert.Equal(t, 12*time.Hour, cfg.Selection.RecentUseWindow)
	assert.Equal(t, 5, cfg.Selection.MaxUsageFrequency)
	assert.Equal(t, "error", cfg.Log.Level, "environment overrides the file")
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "words.yaml", cfg.Vocabulary.File)
	assert.Equal(t, "sk-test", cfg.Embeddings.APIKey)
}

func TestLoadOpenAIKeyFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.Embeddings.APIKey)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"driver", "database:\n  driver: mysql\n"},
		{"postgres without dsn", "database:\n  driver: postgres\n"},
		{"ratio sum", "selection:\n  review_word_ratio: 0.9\n"},
		{"yaml", "selection: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "database.dsn", envKey("WORDWISE_DATABASE_DSN"))
	assert.Equal(t, "selection.new_word_ratio", envKey("WORDWISE_SELECTION_NEW_WORD_RATIO"))
	assert.Equal(t, "db", envKey("WORDWISE_DB"))
}
