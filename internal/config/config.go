package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	applog "expensetracker/internal/log"
)

type Config struct {
	// HTTP Server
	Port          string
	AllowedOrigin string

	// Networks allowed to set X-Forwarded-For / X-Real-IP, besides loopback
	TrustedProxies []string

	// Logging
	LogLevel  string
	LogFormat string

	// AMQP (optional event publishing)
	AMQPURL      string
	AMQPExchange string

	// Rate limiting for mutating requests
	RateLimitPerMinute int

	// View cache
	ViewCacheSize int
	ViewCacheTTL  time.Duration

	// Load the sample expenses at startup
	SeedDemo bool
}

// Keys, also the environment variable names.
const (
	KeyPort               = "PORT"
	KeyAllowedOrigin      = "ALLOWED_ORIGIN"
	KeyTrustedProxies     = "TRUSTED_PROXIES"
	KeyLogLevel           = "LOG_LEVEL"
	KeyLogFormat          = "LOG_FORMAT"
	KeyAMQPURL            = "AMQP_URL"
	KeyAMQPExchange       = "AMQP_EXCHANGE"
	KeyRateLimitPerMinute = "RATE_LIMIT_PER_MINUTE"
	KeyViewCacheSize      = "VIEW_CACHE_SIZE"
	KeyViewCacheTTL       = "VIEW_CACHE_TTL"
	KeySeedDemo           = "SEED_DEMO"
)

// flag name -> key
var flagKeys = map[string]string{
	"port":            KeyPort,
	"log-level":       KeyLogLevel,
	"log-format":      KeyLogFormat,
	"amqp-url":        KeyAMQPURL,
	"seed-demo":       KeySeedDemo,
	"trusted-proxies": KeyTrustedProxies,
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyPort, "8081")
	v.SetDefault(KeyAllowedOrigin, "")
	v.SetDefault(KeyTrustedProxies, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyAMQPURL, "")
	v.SetDefault(KeyAMQPExchange, "expenses")
	v.SetDefault(KeyRateLimitPerMinute, 60)
	v.SetDefault(KeyViewCacheSize, 100)
	v.SetDefault(KeyViewCacheTTL, 5*time.Minute)
	v.SetDefault(KeySeedDemo, false)
}

// Load resolves configuration from defaults, an optional config file, the
// environment (after reading .env when present) and any bound flags, in
// increasing order of precedence.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		Port:               v.GetString(KeyPort),
		AllowedOrigin:      v.GetString(KeyAllowedOrigin),
		TrustedProxies:     splitList(v.GetString(KeyTrustedProxies)),
		LogLevel:           v.GetString(KeyLogLevel),
		LogFormat:          v.GetString(KeyLogFormat),
		AMQPURL:            v.GetString(KeyAMQPURL),
		AMQPExchange:       v.GetString(KeyAMQPExchange),
		RateLimitPerMinute: v.GetInt(KeyRateLimitPerMinute),
		ViewCacheSize:      v.GetInt(KeyViewCacheSize),
		ViewCacheTTL:       v.GetDuration(KeyViewCacheTTL),
		SeedDemo:           v.GetBool(KeySeedDemo),
	}
	return cfg, nil
}

// splitList splits a comma separated value, dropping blank entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var problems []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.AllowedOrigin != "" && c.AllowedOrigin != "*" {
		if u, err := url.Parse(c.AllowedOrigin); err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, fmt.Sprintf("invalid allowed origin '%s': must be '*' or scheme://host", c.AllowedOrigin))
		}
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			problems = append(problems, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR such as 10.0.0.0/8", cidr))
		}
	}

	if c.RateLimitPerMinute < 1 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	if c.ViewCacheSize < 1 {
		problems = append(problems, fmt.Sprintf("invalid view cache size %d: must be at least 1", c.ViewCacheSize))
	} else if c.ViewCacheSize > 10000 {
		problems = append(problems, fmt.Sprintf("invalid view cache size %d: must be at most 10000", c.ViewCacheSize))
	}
	if c.ViewCacheTTL < time.Second {
		problems = append(problems, fmt.Sprintf("invalid view cache TTL %v: must be at least 1 second", c.ViewCacheTTL))
	}

	// Return combined errors
	if len(problems) > 0 {
		return errors.New("configuration validation failed:\n- " + strings.Join(problems, "\n- "))
	}

	return nil
}
