package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config keeps runtime settings for the server, the sweeper and the bot.
type Config struct {
	ListenAddr       string        `yaml:"listen_addr"`
	PublicURL        string        `yaml:"public_url"`
	DatabaseURL      string        `yaml:"database_url"`
	IdentitySecret   string        `yaml:"identity_secret"`
	CompletionWindow time.Duration `yaml:"completion_window"`
	ExpireInterval   time.Duration `yaml:"expire_interval"`
	TelegramToken    string        `yaml:"telegram_token"`
	ReportInterval   time.Duration `yaml:"report_interval"`
	DigestTime       string        `yaml:"digest_time"`
	RedisAddr        string        `yaml:"redis_addr"`
	StatsCacheTTL    time.Duration `yaml:"stats_cache_ttl"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		ListenAddr:       ":3004",
		DatabaseURL:      "beefsteak.db",
		CompletionWindow: 25 * time.Minute,
		ExpireInterval:   5 * time.Minute,
		ReportInterval:   24 * time.Hour,
		StatsCacheTTL:    time.Minute,
	}
}

// Load builds the configuration from defaults, the optional YAML file at path
// and environment variables, in that order of precedence.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = strings.TrimSpace(os.Getenv("BEEFSTEAK_CONFIG"))
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks settings that have no usable fallback.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return errors.New("listen address is required")
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("database url is required")
	}
	if c.CompletionWindow <= 0 {
		return fmt.Errorf("completion window must be positive, got %s", c.CompletionWindow)
	}
	if c.ExpireInterval < 0 || c.ReportInterval < 0 || c.StatsCacheTTL < 0 {
		return errors.New("intervals must not be negative")
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %q: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if port := env("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err == nil {
			port = ":" + port
		}
		cfg.ListenAddr = port
	}
	if v := env("PUBLIC_URL"); v != "" {
		cfg.PublicURL = v
	}
	if v := env("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v, ok := os.LookupEnv("IDENTITY_SECRET"); ok {
		cfg.IdentitySecret = v
	}
	if v := env("TELEGRAM_TOKEN"); v != "" {
		cfg.TelegramToken = v
	}
	if v := env("DIGEST_TIME"); v != "" {
		cfg.DigestTime = v
	}
	if v := env("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}

	if v := env("COMPLETION_WINDOW_MINUTES"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes <= 0 {
			return fmt.Errorf("invalid COMPLETION_WINDOW_MINUTES %q", v)
		}
		cfg.CompletionWindow = time.Duration(minutes) * time.Minute
	}
	if v := env("REPORT_INTERVAL_HOURS"); v != "" {
		cfg.ReportInterval = parseInterval(v)
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"EXPIRE_INTERVAL", &cfg.ExpireInterval},
		{"STATS_CACHE_TTL", &cfg.StatsCacheTTL},
	}
	for _, d := range durations {
		v := env(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.key, v, err)
		}
		*d.dst = parsed
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// parseInterval reads a whole or fractional number of hours; anything unusable disables the job.
func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
