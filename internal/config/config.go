package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Site       SiteConfig       `mapstructure:"site"`
	Content    ContentConfig    `mapstructure:"content"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Locale     LocaleConfig     `mapstructure:"locale"`
	Navigation NavigationConfig `mapstructure:"navigation"`
	Relay      RelayConfig      `mapstructure:"relay"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port          int    `mapstructure:"port"`
	Host          string `mapstructure:"host"`
	ReadTimeout   int    `mapstructure:"read_timeout"`
	WriteTimeout  int    `mapstructure:"write_timeout"`
	SessionKey    string `mapstructure:"session_key"`
	SecureCookies bool   `mapstructure:"secure_cookies"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SiteConfig holds public site metadata used for SEO.
type SiteConfig struct {
	Name    string `mapstructure:"name"`
	BaseURL string `mapstructure:"base_url"`
}

// ContentConfig holds content service configuration
type ContentConfig struct {
	// Backend is "rest" (PostgREST / Supabase) or "postgres" (direct pgx access).
	Backend              string   `mapstructure:"backend"`
	BaseURLs             []string `mapstructure:"base_urls"`
	APIKey               string   `mapstructure:"api_key"`
	Timeout              int      `mapstructure:"timeout"`
	MaxRetries           int      `mapstructure:"max_retries"`
	MaxRequestsPerSecond int      `mapstructure:"max_requests_per_second"`
	CacheTTL             int      `mapstructure:"cache_ttl"`
	ValidateEndpoints    bool     `mapstructure:"validate_endpoints"`
}

// CacheDuration returns the catalog cache lifetime; zero means entries never expire.
func (c ContentConfig) CacheDuration() time.Duration {
	if c.CacheTTL <= 0 {
		return 0
	}
	return time.Duration(c.CacheTTL) * time.Second
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the pgx connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	MinIdleTime   int    `mapstructure:"min_idle_time"`
	Workers       int    `mapstructure:"workers"`
}

// LocaleConfig lists the supported content languages and the fallback language.
type LocaleConfig struct {
	Supported []string `mapstructure:"supported"`
	Default   string   `mapstructure:"default"`
}

// NavigationConfig tunes the browsing state machine.
type NavigationConfig struct {
	DeepLinkFetch bool `mapstructure:"deep_link_fetch"`
	AnchorDelayMS int  `mapstructure:"anchor_delay_ms"`
	HandoffTTL    int  `mapstructure:"handoff_ttl"`
	SessionTTL    int  `mapstructure:"session_ttl"`
}

// RelayConfig holds transactional email relay settings.
type RelayConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	ServiceID  string `mapstructure:"service_id"`
	TemplateID string `mapstructure:"template_id"`
	PublicKey  string `mapstructure:"public_key"`
	Timeout    int    `mapstructure:"timeout"`
}

// Configured reports whether enough settings are present to deliver mail.
func (r RelayConfig) Configured() bool {
	return r.ServiceID != "" && r.TemplateID != "" && r.PublicKey != ""
}

// LogConfig controls logrus output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from config.yaml (optional) with environment variable overrides
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from an explicit file path. An empty path searches the
// working directory and ./config for config.yaml; a missing file falls back to defaults.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks cross-field constraints that defaults cannot express.
func (c *Config) Validate() error {
	if len(c.Locale.Supported) == 0 {
		return fmt.Errorf("locale.supported must list at least one language")
	}
	found := false
	for _, l := range c.Locale.Supported {
		if len(l) != 2 {
			return fmt.Errorf("locale.supported: %q is not a two-letter code", l)
		}
		if l == c.Locale.Default {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("locale.default %q is not in locale.supported", c.Locale.Default)
	}
	switch c.Content.Backend {
	case "rest", "postgres":
	default:
		return fmt.Errorf("content.backend must be rest or postgres, got %q", c.Content.Backend)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "")
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("server.session_key", "")
	v.SetDefault("server.secure_cookies", false)

	v.SetDefault("site.name", "Lemme Fire Technics")
	v.SetDefault("site.base_url", "http://localhost:8080")

	v.SetDefault("content.backend", "rest")
	v.SetDefault("content.base_urls", []string{"http://localhost:54321"})
	v.SetDefault("content.api_key", "")
	v.SetDefault("content.timeout", 10)
	v.SetDefault("content.max_retries", 2)
	v.SetDefault("content.max_requests_per_second", 20)
	v.SetDefault("content.cache_ttl", 600)
	v.SetDefault("content.validate_endpoints", false)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "postgres")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.consumer_group", "firetechnics_consumer")
	v.SetDefault("redis.min_idle_time", 120)
	v.SetDefault("redis.workers", 2)

	v.SetDefault("locale.supported", []string{"fr", "nl"})
	v.SetDefault("locale.default", "fr")

	v.SetDefault("navigation.deep_link_fetch", true)
	v.SetDefault("navigation.anchor_delay_ms", 100)
	v.SetDefault("navigation.handoff_ttl", 3600)
	v.SetDefault("navigation.session_ttl", 86400)

	v.SetDefault("relay.base_url", "https://api.emailjs.com")
	v.SetDefault("relay.service_id", "")
	v.SetDefault("relay.template_id", "")
	v.SetDefault("relay.public_key", "")
	v.SetDefault("relay.timeout", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
