// Package config loads and validates f1data configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/f1"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	General  GeneralConfig  `mapstructure:"general"`
	APIs     APIsConfig     `mapstructure:"apis"`
	Scraping ScrapingConfig `mapstructure:"scraping"`
	DB       DBConfig       `mapstructure:"db"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	API      APIConfig      `mapstructure:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// GeneralConfig holds directories and the collection window.
type GeneralConfig struct {
	CacheDir       string `mapstructure:"cache_dir"`
	DataDir        string `mapstructure:"data_dir"`
	LogDir         string `mapstructure:"log_dir"`
	LogLevel       string `mapstructure:"log_level"`
	UseCache       bool   `mapstructure:"use_cache"`
	YearsToCollect int    `mapstructure:"years_to_collect"`
	Years          []int  `mapstructure:"years"`
}

// APIsConfig configures the upstream API clients and their retry policy.
type APIsConfig struct {
	ErgastBaseURL    string        `mapstructure:"ergast_base_url"`
	OpenMeteoBaseURL string        `mapstructure:"openmeteo_base_url"`
	MaxRetries       int           `mapstructure:"max_retries"`
	Multiplier       float64       `mapstructure:"multiplier"`
	MinWait          time.Duration `mapstructure:"min_wait"`
	MaxWait          time.Duration `mapstructure:"max_wait"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RequestsPerSec   float64       `mapstructure:"requests_per_second"`
	RaceHour         int           `mapstructure:"race_hour"`
	BreakerFailures  uint32        `mapstructure:"breaker_failures"`
}

// ScrapingConfig configures the page fetcher.
type ScrapingConfig struct {
	Backend        string        `mapstructure:"backend"`
	MinDelay       time.Duration `mapstructure:"min_delay"`
	MaxDelay       time.Duration `mapstructure:"max_delay"`
	UserAgents     []string      `mapstructure:"user_agents"`
	AcceptLanguage string        `mapstructure:"accept_language"`
	RespectRobots  bool          `mapstructure:"respect_robots"`
	NavTimeout     time.Duration `mapstructure:"nav_timeout"`
	SettleDelay    time.Duration `mapstructure:"settle_delay"`
	ArchivePages   bool          `mapstructure:"archive_pages"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// MongoConfig points at the performance document store.
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// APIConfig controls the REST facade.
type APIConfig struct {
	Port                int      `mapstructure:"port"`
	SecretKey           string   `mapstructure:"secret_key"`
	Password            string   `mapstructure:"password"`
	DefaultTokenSeconds int      `mapstructure:"default_token_seconds"`
	EmptyAsMessage      bool     `mapstructure:"empty_as_message"`
	CORSOrigins         []string `mapstructure:"cors_origins"`
	RateLimitPerMinute  int      `mapstructure:"rate_limit_per_minute"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Backend names accepted by scraping.backend.
const (
	BackendHTTP    = "http"
	BackendBrowser = "browser"
)

// Driver names accepted by db.driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DefaultUserAgents is the rotation pool used when none is configured.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("F1DATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.cache_dir", "cache")
	v.SetDefault("general.data_dir", "data")
	v.SetDefault("general.log_dir", "logs")
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.use_cache", true)
	v.SetDefault("general.years_to_collect", 5)
	v.SetDefault("general.years", []int{})
	v.SetDefault("apis.ergast_base_url", "http://ergast.com/api/f1")
	v.SetDefault("apis.openmeteo_base_url", "https://archive-api.open-meteo.com/v1/archive")
	v.SetDefault("apis.max_retries", 3)
	v.SetDefault("apis.multiplier", 2.0)
	v.SetDefault("apis.min_wait", 4*time.Second)
	v.SetDefault("apis.max_wait", 30*time.Second)
	v.SetDefault("apis.timeout", 30*time.Second)
	v.SetDefault("apis.requests_per_second", 4.0)
	v.SetDefault("apis.race_hour", 14)
	v.SetDefault("apis.breaker_failures", 10)
	v.SetDefault("scraping.backend", BackendHTTP)
	v.SetDefault("scraping.min_delay", 3*time.Second)
	v.SetDefault("scraping.max_delay", 7*time.Second)
	v.SetDefault("scraping.user_agents", DefaultUserAgents)
	v.SetDefault("scraping.accept_language", "fr-FR,fr;q=0.9,en-US;q=0.8,en;q=0.7")
	v.SetDefault("scraping.respect_robots", false)
	v.SetDefault("scraping.nav_timeout", 30*time.Second)
	v.SetDefault("scraping.settle_delay", 2*time.Second)
	v.SetDefault("scraping.archive_pages", false)
	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("db.dsn", "data/f1.db")
	v.SetDefault("db.max_conns", 4)
	// Keys without a usable default still need registering so that
	// AutomaticEnv resolves them during Unmarshal.
	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "F1")
	v.SetDefault("mongo.collection", "f1_performance_data")
	v.SetDefault("api.port", 8000)
	v.SetDefault("api.secret_key", "")
	v.SetDefault("api.password", "")
	v.SetDefault("api.default_token_seconds", 3600)
	v.SetDefault("api.empty_as_message", true)
	v.SetDefault("api.cors_origins", []string{"*"})
	v.SetDefault("api.rate_limit_per_minute", 120)
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	switch {
	case c.General.CacheDir == "":
		return invalid("general.cache_dir", "must be set")
	case c.General.DataDir == "":
		return invalid("general.data_dir", "must be set")
	case c.General.YearsToCollect < 0:
		return invalid("general.years_to_collect", "must be >= 0")
	case c.APIs.ErgastBaseURL == "":
		return invalid("apis.ergast_base_url", "must be set")
	case c.APIs.OpenMeteoBaseURL == "":
		return invalid("apis.openmeteo_base_url", "must be set")
	case c.APIs.MaxRetries <= 0:
		return invalid("apis.max_retries", "must be > 0")
	case c.APIs.Multiplier < 1:
		return invalid("apis.multiplier", "must be >= 1")
	case c.APIs.MinWait < 0 || c.APIs.MaxWait < c.APIs.MinWait:
		return invalid("apis.max_wait", "must be >= apis.min_wait >= 0")
	case c.APIs.Timeout <= 0:
		return invalid("apis.timeout", "must be > 0")
	case c.APIs.RequestsPerSec < 0:
		return invalid("apis.requests_per_second", "must be >= 0")
	case c.APIs.RaceHour < 0 || c.APIs.RaceHour > 23:
		return invalid("apis.race_hour", "must be within [0, 23]")
	case c.Scraping.Backend != BackendHTTP && c.Scraping.Backend != BackendBrowser:
		return invalid("scraping.backend", fmt.Sprintf("must be %q or %q", BackendHTTP, BackendBrowser))
	case c.Scraping.MinDelay < 0 || c.Scraping.MaxDelay < c.Scraping.MinDelay:
		return invalid("scraping.max_delay", "must be >= scraping.min_delay >= 0")
	case c.DB.Driver != DriverPostgres && c.DB.Driver != DriverSQLite:
		return invalid("db.driver", fmt.Sprintf("must be %q or %q", DriverPostgres, DriverSQLite))
	case c.API.Port <= 0:
		return invalid("api.port", "must be > 0")
	case c.API.DefaultTokenSeconds <= 0:
		return invalid("api.default_token_seconds", "must be > 0")
	}
	return nil
}

// ValidateServe enforces the keys only the REST facade needs.
func (c Config) ValidateServe() error {
	if c.API.SecretKey == "" {
		return invalid("api.secret_key", "must be set to serve the API")
	}
	if c.API.Password == "" {
		return invalid("api.password", "must be set to serve the API")
	}
	if c.DB.DSN == "" {
		return invalid("db.dsn", "must be set to serve the API")
	}
	return nil
}

// Years resolves the seasons to collect: the explicit list when set, else
// the last YearsToCollect seasons up to and including now's year.
func (c Config) Years(now time.Time) []int {
	if len(c.General.Years) > 0 {
		return append([]int(nil), c.General.Years...)
	}
	current := now.Year()
	years := make([]int, 0, c.General.YearsToCollect+1)
	for y := current - c.General.YearsToCollect; y <= current; y++ {
		years = append(years, y)
	}
	return years
}

func invalid(key, reason string) error {
	return &f1.ConfigError{Key: key, Reason: reason}
}
