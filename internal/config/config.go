package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the translator server and CLI.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Anthropic   AnthropicConfig
	Translation TranslationConfig
	Snippets    SnippetConfig
}

type ServerConfig struct {
	Port      int
	Env       string
	RateLimit int
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsDir   string
}

type RedisConfig struct {
	URL string
}

// AnthropicConfig configures the Messages API client. An empty APIKey is not
// a load error; it surfaces as a configuration error on the first call.
type AnthropicConfig struct {
	APIKey          string
	Model           string
	BaseURL         string
	Timeout         time.Duration
	MetadataTimeout time.Duration
}

type TranslationConfig struct {
	SourceLanguage    string
	SystemPrompt      string
	SnippetChunkSize  int
	FileChunkSize     int
	ChunkDelay        time.Duration
	OverwriteExisting bool
}

type SnippetConfig struct {
	Roots []string
}

// Load reads configuration from environment variables and returns a validated Config.
// Connection URLs are not required here; RequireServer checks them for the HTTP server.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:      envInt("TRANSLATOR_PORT", 8080),
			Env:       envString("TRANSLATOR_ENV", "development"),
			RateLimit: envInt("TRANSLATOR_RATE_LIMIT", 60),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			MigrationsDir:   envString("DATABASE_MIGRATIONS_DIR", "migrations"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Anthropic: AnthropicConfig{
			APIKey:          os.Getenv("ANTHROPIC_API_KEY"),
			Model:           envString("ANTHROPIC_MODEL", "claude-3-haiku-20240307"),
			BaseURL:         strings.TrimRight(envString("ANTHROPIC_BASE_URL", "https://api.anthropic.com"), "/"),
			Timeout:         envDurationSecs("ANTHROPIC_TIMEOUT_SECS", 120*time.Second),
			MetadataTimeout: envDurationSecs("ANTHROPIC_METADATA_TIMEOUT_SECS", 30*time.Second),
		},
		Translation: TranslationConfig{
			SourceLanguage:    envString("TRANSLATION_SOURCE_LANGUAGE", "de-DE"),
			SystemPrompt:      os.Getenv("TRANSLATION_SYSTEM_PROMPT"),
			SnippetChunkSize:  envInt("TRANSLATION_SNIPPET_CHUNK_SIZE", 50),
			FileChunkSize:     envInt("TRANSLATION_FILE_CHUNK_SIZE", 50),
			ChunkDelay:        envDuration("TRANSLATION_CHUNK_DELAY", 500*time.Millisecond),
			OverwriteExisting: envBool("TRANSLATION_OVERWRITE_EXISTING", false),
		},
		Snippets: SnippetConfig{
			Roots: envList("SNIPPET_ROOTS"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("TRANSLATOR_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if !strings.HasPrefix(c.Anthropic.BaseURL, "http://") && !strings.HasPrefix(c.Anthropic.BaseURL, "https://") {
		return fmt.Errorf("ANTHROPIC_BASE_URL must start with http:// or https://, got %q", c.Anthropic.BaseURL)
	}
	if c.Anthropic.Timeout <= 0 {
		return fmt.Errorf("ANTHROPIC_TIMEOUT_SECS must be positive")
	}

	if c.Translation.SourceLanguage == "" {
		return fmt.Errorf("TRANSLATION_SOURCE_LANGUAGE must not be empty")
	}
	if c.Translation.SnippetChunkSize <= 0 {
		return fmt.Errorf("TRANSLATION_SNIPPET_CHUNK_SIZE must be positive, got %d", c.Translation.SnippetChunkSize)
	}
	if c.Translation.FileChunkSize <= 0 {
		return fmt.Errorf("TRANSLATION_FILE_CHUNK_SIZE must be positive, got %d", c.Translation.FileChunkSize)
	}
	if c.Translation.ChunkDelay < 0 {
		return fmt.Errorf("TRANSLATION_CHUNK_DELAY must not be negative")
	}

	return nil
}

// RequireServer checks the values only the HTTP server needs.
func (c *Config) RequireServer() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

// envList splits a path-list variable (":" on unix) into its non-empty entries.
func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range filepath.SplitList(v) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
