// Package config loads the wordwise CLI configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/abhisek/wordwise/internal/contextfit"
	"github.com/abhisek/wordwise/internal/cooldown"
	"github.com/abhisek/wordwise/internal/logging"
	"github.com/abhisek/wordwise/internal/spacedrep"
	"github.com/abhisek/wordwise/internal/store"
	"github.com/abhisek/wordwise/internal/vocab"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WORDWISE_"

const maxConfigFileSize = 1024 * 1024

// Config is the full CLI configuration.
type Config struct {
	Database   DatabaseConfig             `koanf:"database"`
	Redis      store.RedisConfig          `koanf:"redis"`
	Embeddings contextfit.EmbeddingConfig `koanf:"embeddings"`
	Log        logging.Config             `koanf:"log"`
	Selection  vocab.SelectionConfig      `koanf:"selection"`
	Scheduler  spacedrep.Config           `koanf:"scheduler"`
	Cooldown   cooldown.Config            `koanf:"cooldown"`
	Vocabulary VocabularyConfig           `koanf:"vocabulary"`
}

// DatabaseConfig selects the SQL backend.
type DatabaseConfig struct {
	Driver string `koanf:"driver"` // sqlite or postgres
	DSN    string `koanf:"dsn"`    // file path for sqlite
}

// VocabularyConfig points at an optional YAML word list loaded at startup.
type VocabularyConfig struct {
	File string `koanf:"file"`
}

// Defaults returns the configuration used when nothing is set. Redis is
// off until an address is configured.
func Defaults() Config {
	redis := store.DefaultRedisConfig()
	redis.Addr = ""
	return Config{
		Database:   DatabaseConfig{Driver: store.DriverSQLite},
		Redis:      redis,
		Log:        logging.DefaultConfig(),
		Selection:  vocab.DefaultSelectionConfig(),
		Scheduler:  spacedrep.DefaultConfig(),
		Cooldown:   cooldown.DefaultConfig(),
		Embeddings: contextfit.EmbeddingConfig{Retry: contextfit.DefaultRetryConfig()},
	}
}

// DefaultPath is ~/.config/wordwise/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".config", "wordwise", "config.yaml"), nil
}

// Load reads configuration in increasing precedence: defaults, the YAML
// file at path (the default path when empty; a missing file is fine),
// then WORDWISE_* environment variables. A .env file in the working
// directory is loaded into the environment first.
//
// Environment keys split on the first underscore after the prefix:
//
//	WORDWISE_DATABASE_DSN               -> database.dsn
//	WORDWISE_SELECTION_NEW_WORD_RATIO   -> selection.new_word_ratio
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	k := koanf.New(".")
	content, err := readFile(path)
	switch {
	case err == nil:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, err
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Embeddings.APIKey == "" {
		cfg.Embeddings.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return content, nil
}

// Validate checks the sections that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case store.DriverSQLite, store.DriverPostgres:
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.Driver == store.DriverPostgres && c.Database.DSN == "" {
		return errors.New("config: database.dsn is required for postgres")
	}
	if err := c.Selection.Validate(); err != nil {
		return fmt.Errorf("config: selection: %w", err)
	}
	if c.Redis.Addr != "" && c.Redis.TTL < time.Minute {
		return fmt.Errorf("config: redis.ttl %s is shorter than a minute", c.Redis.TTL)
	}
	return nil
}
