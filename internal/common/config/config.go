// internal/common/config/config.go
package config

import (
	"fmt"
	"net/url"
	"unicode"
)

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Job       JobConfig       `mapstructure:"job"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	// URL is a full connection string (DATABASE_URL). When set it wins over Postgres.
	URL      string         `mapstructure:"url"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"sslmode"`
	ConnectTimeout int    `mapstructure:"connect_timeout"` // seconds
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		quoteDSNValue(p.Host), p.Port, quoteDSNValue(p.User), quoteDSNValue(p.Password),
		quoteDSNValue(p.Database), p.SSLMode, p.ConnectTimeout,
	)
}

// GetDSN prefers the full connection string and falls back to discrete settings.
func (d DatabaseConfig) GetDSN() string {
	if d.URL != "" {
		return d.URL
	}
	return d.Postgres.GetDSN()
}

// Target describes where the job connects without leaking credentials.
func (d DatabaseConfig) Target() string {
	if d.URL != "" {
		u, err := url.Parse(d.URL)
		if err != nil {
			return "<unparseable DATABASE_URL>"
		}
		return u.Redacted()
	}
	return fmt.Sprintf("%s:%d/%s", d.Postgres.Host, d.Postgres.Port, d.Postgres.Database)
}

// quoteDSNValue escapes a value for lib/pq's key=value connection format.
func quoteDSNValue(v string) string {
	if v == "" {
		return "''"
	}
	escaped := make([]rune, 0, len(v))
	needsQuotes := false
	for _, r := range v {
		switch r {
		case '\\', '\'':
			escaped = append(escaped, '\\', r)
			needsQuotes = true
		default:
			if unicode.IsSpace(r) {
				needsQuotes = true
			}
			escaped = append(escaped, r)
		}
	}
	if needsQuotes {
		return "'" + string(escaped) + "'"
	}
	return string(escaped)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Specific Configuration Sections ---

// EmbeddingConfig selects the sentence encoder used to fill the embedding column.
type EmbeddingConfig struct {
	Provider  string `mapstructure:"provider"` // huggingface | openai
	Model     string `mapstructure:"model"`
	Dimension int    `mapstructure:"dimension"`
	Timeout   int    `mapstructure:"timeout"`   // milliseconds
	CacheTTL  int    `mapstructure:"cache_ttl"` // seconds, 0 disables expiry

	HuggingFace struct {
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
	} `mapstructure:"huggingface"`

	OpenAI struct {
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
	} `mapstructure:"openai"`
}

// JobConfig holds settings for the backfill job itself.
type JobConfig struct {
	CommitInterval int `mapstructure:"commit_interval"`
	Timeout        int `mapstructure:"timeout"` // milliseconds, 0 means no deadline
}

// MetricsConfig holds the Pushgateway target; empty disables pushing.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	JobName        string `mapstructure:"job_name"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
