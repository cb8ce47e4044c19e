// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"

	DefaultCommitInterval = 10
)

// envBindings maps config keys to the environment variables the job has
// always honoured. Keys not listed here still resolve through AutomaticEnv
// (database.redis.address -> DATABASE_REDIS_ADDRESS).
var envBindings = map[string][]string{
	"database.url":                  {"DATABASE_URL"},
	"database.postgres.host":        {"DB_HOST"},
	"database.postgres.port":        {"DB_PORT"},
	"database.postgres.database":    {"DB_NAME"},
	"database.postgres.user":        {"DB_USER"},
	"database.postgres.password":    {"DB_PASSWORD"},
	"database.postgres.sslmode":     {"DB_SSLMODE"},
	"database.redis.address":        {"REDIS_ADDRESS", "DATABASE_REDIS_ADDRESS"},
	"database.redis.password":       {"REDIS_PASSWORD", "DATABASE_REDIS_PASSWORD"},
	"embedding.provider":            {"EMBEDDING_PROVIDER"},
	"embedding.model":               {"EMBEDDING_MODEL"},
	"embedding.dimension":           {"EMBEDDING_DIMENSION"},
	"embedding.huggingface.api_key": {"HF_API_KEY"},
	"embedding.openai.api_key":      {"OPENAI_API_KEY"},
	"embedding.openai.base_url":     {"OPENAI_BASE_URL"},
	"job.timeout":                   {"JOB_TIMEOUT"},
	"metrics.pushgateway_url":       {"PUSHGATEWAY_URL"},
	"logging.level":                 {"LOG_LEVEL"},
	"logging.format":                {"LOG_FORMAT"},
}

var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// Load reads .env, configs/config.yaml (optional) and the environment.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := v.GetString("app.environment")
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // ignore error if not found

	return unmarshal(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("app.name", "embedding-backfill")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")

	v.SetDefault("database.url", "")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "realestate_db")
	v.SetDefault("database.postgres.user", "realestate_user")
	v.SetDefault("database.postgres.password", "realestate_password")
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.postgres.connect_timeout", 10)
	v.SetDefault("database.redis.address", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("embedding.provider", ProviderHuggingFace)
	v.SetDefault("embedding.model", "BAAI/bge-small-en-v1.5")
	v.SetDefault("embedding.dimension", 384)
	v.SetDefault("embedding.timeout", 60000)
	v.SetDefault("embedding.cache_ttl", 0)
	v.SetDefault("embedding.huggingface.base_url", "https://api-inference.huggingface.co")
	v.SetDefault("embedding.huggingface.api_key", "")
	v.SetDefault("embedding.openai.base_url", "")
	v.SetDefault("embedding.openai.api_key", "")

	v.SetDefault("job.commit_interval", DefaultCommitInterval)
	v.SetDefault("job.timeout", 0)

	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job_name", "embedding_backfill")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")

	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	for key, envs := range envBindings {
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}

	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up towards the module root.
func loadEnvFile() string {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars resolves ${VAR} placeholders in string values from the config file.
// Values supplied through the environment are taken verbatim.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		if envOverridden(key) {
			continue
		}
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "${") {
			continue
		}
		expanded := placeholderPattern.ReplaceAllStringFunc(strVal, func(m string) string {
			if val, ok := os.LookupEnv(m[2 : len(m)-1]); ok {
				return val
			}
			return m
		})
		if expanded != strVal {
			v.Set(key, expanded)
		}
	}
}

// envOverridden reports whether a non-empty environment variable feeds key.
func envOverridden(key string) bool {
	names := append([]string{envKeyReplacer.Replace(strings.ToUpper(key))}, envBindings[key]...)
	for _, name := range names {
		if val, ok := os.LookupEnv(name); ok && val != "" {
			return true
		}
	}
	return false
}

// applyDefaults repairs values a config file may have zeroed out.
func applyDefaults(cfg *Config) {
	cfg.Embedding.Provider = strings.ToLower(strings.TrimSpace(cfg.Embedding.Provider))
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderHuggingFace
	}
	if cfg.Embedding.Timeout <= 0 {
		cfg.Embedding.Timeout = 60000
	}

	if cfg.Job.CommitInterval <= 0 {
		cfg.Job.CommitInterval = DefaultCommitInterval
	}

	if cfg.Job.Timeout < 0 {
		cfg.Job.Timeout = 0
	}

	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics.JobName == "" {
		cfg.Metrics.JobName = "embedding_backfill"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Database.URL == "" {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
		if cfg.Database.Postgres.Port <= 0 || cfg.Database.Postgres.Port > 65535 {
			return fmt.Errorf("database.postgres.port %d is out of range", cfg.Database.Postgres.Port)
		}
	}

	switch cfg.Embedding.Provider {
	case ProviderHuggingFace, ProviderOpenAI:
	default:
		return fmt.Errorf("embedding.provider %q is not supported", cfg.Embedding.Provider)
	}

	if cfg.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if cfg.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
