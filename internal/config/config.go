package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config global configuration, mirrors config/config.yaml
type Config struct {
	Server    ServerConfig              `mapstructure:"server"`
	Log       LogConfig                 `mapstructure:"log"`
	Database  DatabaseConfig            `mapstructure:"database"`
	Refresh   RefreshConfig             `mapstructure:"refresh"`
	Rotation  RotationConfig            `mapstructure:"rotation"`
	Resolver  ResolverConfig            `mapstructure:"resolver"`
	Validator ValidatorConfig           `mapstructure:"validator"`
	Providers map[string]ProviderConfig `mapstructure:"providers"` // per image-search provider settings
	Seed      SeedConfig                `mapstructure:"seed"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug/release/test
}

// LogConfig logrus settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text/json
}

// DatabaseConfig catalog database settings
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres/sqlite
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"` // gorm logger: silent/error/warn/info
}

// RefreshConfig batch refresh job and scheduler settings
type RefreshConfig struct {
	Cron         string        `mapstructure:"cron"`          // periodic refresh expression
	StartupDelay time.Duration `mapstructure:"startup_delay"` // delay before the first run after start
	ChannelDelay time.Duration `mapstructure:"channel_delay"` // stagger between league and channel runs
	PaceInterval time.Duration `mapstructure:"pace_interval"` // minimum spacing between entities
	PaceBurst    int           `mapstructure:"pace_burst"`
}

// RotationConfig provider rotation policy
type RotationConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	MaxRequests int           `mapstructure:"max_requests"`
}

// ResolverConfig image resolution settings
type ResolverConfig struct {
	Qualifier      string          `mapstructure:"qualifier"`       // appended to every search phrase
	PlaceholderURL string          `mapstructure:"placeholder_url"` // query text is appended, url-encoded
	Overrides      []ImageOverride `mapstructure:"overrides"`       // list form keeps query case intact
}

// ImageOverride fixed image for an exact search query
type ImageOverride struct {
	Query string `mapstructure:"query"`
	URL   string `mapstructure:"url"`
}

// ValidatorConfig accessibility validator settings
type ValidatorConfig struct {
	Timeout            time.Duration `mapstructure:"timeout"`
	FollowRedirects    bool          `mapstructure:"follow_redirects"`
	MaxRedirects       int           `mapstructure:"max_redirects"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
	PlaceholderDomains []string      `mapstructure:"placeholder_domains"`
	BlockedDomains     []string      `mapstructure:"blocked_domains"`
	UserAgent          string        `mapstructure:"user_agent"`
}

// ProviderConfig settings of a single image-search provider
type ProviderConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	BaseURL   string `mapstructure:"base_url"`
	Timeout   int    `mapstructure:"timeout"` // seconds
	Proxy     string `mapstructure:"proxy"`
	UserAgent string `mapstructure:"user_agent"`
}

// SeedConfig initial catalog data
type SeedConfig struct {
	ResetOnStart bool   `mapstructure:"reset_on_start"`
	ChannelsFile string `mapstructure:"channels_file"`
}

// DefaultUserAgent browser user agent sent to search engines and image hosts
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// LoadConfig loads config/config.yaml; .env and LOGOSYNC_* variables override it
func LoadConfig() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("LOGOSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// Default returns the built-in configuration without reading files or the environment
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// defaults are static and always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.mode", "release")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:logosync.db?cache=shared")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("refresh.cron", "0 */8 * * *")
	v.SetDefault("refresh.startup_delay", 5*time.Second)
	v.SetDefault("refresh.channel_delay", 10*time.Second)
	v.SetDefault("refresh.pace_interval", time.Second)
	v.SetDefault("refresh.pace_burst", 1)

	v.SetDefault("rotation.interval", 30*time.Second)
	v.SetDefault("rotation.max_requests", 5)

	v.SetDefault("resolver.qualifier", "logo official svg")
	v.SetDefault("resolver.placeholder_url", "https://via.placeholder.com/300x150?text=")

	v.SetDefault("validator.timeout", 5*time.Second)
	v.SetDefault("validator.follow_redirects", true)
	v.SetDefault("validator.max_redirects", 5)
	v.SetDefault("validator.cache_ttl", 10*time.Minute)
	v.SetDefault("validator.placeholder_domains", []string{"placeholder.com"})
	v.SetDefault("validator.blocked_domains", []string{"vectorportal.com"})
	v.SetDefault("validator.user_agent", DefaultUserAgent)

	v.SetDefault("providers", map[string]interface{}{
		"google":     map[string]interface{}{"enabled": true, "base_url": "https://www.google.com", "timeout": 10},
		"yandex":     map[string]interface{}{"enabled": true, "base_url": "https://yandex.com", "timeout": 10},
		"duckduckgo": map[string]interface{}{"enabled": true, "base_url": "https://duckduckgo.com", "timeout": 10},
		"ecosia":     map[string]interface{}{"enabled": true, "base_url": "https://www.ecosia.org", "timeout": 10},
		"yahoo":      map[string]interface{}{"enabled": true, "base_url": "https://images.search.yahoo.com", "timeout": 10},
		"brave":      map[string]interface{}{"enabled": true, "base_url": "https://search.brave.com", "timeout": 10},
	})

	v.SetDefault("seed.reset_on_start", true)
	v.SetDefault("seed.channels_file", "attached_assets/CANALES.csv")
}

// overrideFromEnv applies secrets that are kept out of the yaml file
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	for name, p := range cfg.Providers {
		key := strings.ToUpper(name) + "_PROXY"
		if v := os.Getenv(key); v != "" {
			p.Proxy = v
			cfg.Providers[name] = p
		}
	}
}
