package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

/* Config is read from a .env file (TOML syntax) in the working directory and
 * overridden by environment variables. A missing file is fine: defaults and
 * the environment are enough to run.
 */

const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	Storage  string `mapstructure:"STORAGE"`
	SeedFile string `mapstructure:"SEED_FILE"`

	SQLitePath string `mapstructure:"SQLITE_PATH"`

	PostgresHost               string `mapstructure:"POSTGRES_HOST"`
	PostgresPort               string `mapstructure:"POSTGRES_PORT"`
	PostgresUser               string `mapstructure:"POSTGRES_USER"`
	PostgresPassword           string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresDB                 string `mapstructure:"POSTGRES_DB"`
	PostgresSSLMode            string `mapstructure:"POSTGRES_SSLMODE"`
	PostgresMaxOpenConns       int    `mapstructure:"POSTGRES_MAX_OPEN_CONNS"`
	PostgresMaxIdleConns       int    `mapstructure:"POSTGRES_MAX_IDLE_CONNS"`
	PostgresConnMaxLifeMinutes int    `mapstructure:"POSTGRES_CONN_MAX_LIFE_MINUTES"`

	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int    `mapstructure:"REDIS_DB"`
	CacheTTLSeconds int    `mapstructure:"CACHE_TTL_SECONDS"`
}

var defaults = map[string]any{
	"PORT":                           "8000",
	"LOG_LEVEL":                      "info",
	"STORAGE":                        StorageSQLite,
	"SEED_FILE":                      "",
	"SQLITE_PATH":                    "bookcatalog.db",
	"POSTGRES_HOST":                  "localhost",
	"POSTGRES_PORT":                  "5432",
	"POSTGRES_USER":                  "",
	"POSTGRES_PASSWORD":              "",
	"POSTGRES_DB":                    "",
	"POSTGRES_SSLMODE":               "disable",
	"POSTGRES_MAX_OPEN_CONNS":        25,
	"POSTGRES_MAX_IDLE_CONNS":        5,
	"POSTGRES_CONN_MAX_LIFE_MINUTES": 5,
	"REDIS_ADDR":                     "",
	"REDIS_PASSWORD":                 "",
	"REDIS_DB":                       0,
	"CACHE_TTL_SECONDS":              60,
}

func GetConfig() (*Config, error) {
	return Load(".")
}

// Load reads <dir>/.env and the environment.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	if config.Storage != StoragePostgres && config.Storage != StorageSQLite {
		return nil, fmt.Errorf("unknown STORAGE %q (want %s or %s)", config.Storage, StoragePostgres, StorageSQLite)
	}
	return &config, nil
}

// ValidatePostgres reports the first missing PostgreSQL setting.
func (c *Config) ValidatePostgres() error {
	required := []struct{ name, value string }{
		{"POSTGRES_HOST", c.PostgresHost},
		{"POSTGRES_PORT", c.PostgresPort},
		{"POSTGRES_USER", c.PostgresUser},
		{"POSTGRES_DB", c.PostgresDB},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required for postgres storage", r.name)
		}
	}
	return nil
}

// PostgresConnectionString builds a postgres:// URL for lib/pq.
func (c *Config) PostgresConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     c.PostgresHost + ":" + c.PostgresPort,
		Path:     "/" + c.PostgresDB,
		RawQuery: url.Values{"sslmode": []string{c.PostgresSSLMode}}.Encode(),
	}
	return u.String()
}

func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

func (c *Config) CacheTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}
