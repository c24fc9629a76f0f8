// Package config loads the storefront settings from an optional YAML file and
// the environment. Environment variables win over the file, the file wins over
// defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything the web process needs at startup.
type Config struct {
	Addr         string        `yaml:"addr"`
	BackendURL   string        `yaml:"backend_url"`
	Currency     string        `yaml:"currency"`
	TemplatesDir string        `yaml:"templates_dir"`
	PublicDir    string        `yaml:"public_dir"`
	Dev          bool          `yaml:"dev"`
	LogLevel     string        `yaml:"log_level"`
	CartRefresh  time.Duration `yaml:"-"`
}

// UnmarshalYAML accepts cart_refresh as a Go duration string ("5m", "90s").
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type plain Config
	var aux struct {
		plain       `yaml:",inline"`
		CartRefresh string `yaml:"cart_refresh"`
	}
	aux.plain = plain(*c)
	if err := node.Decode(&aux); err != nil {
		return err
	}
	*c = Config(aux.plain)
	if aux.CartRefresh != "" {
		d, err := time.ParseDuration(aux.CartRefresh)
		if err != nil {
			return fmt.Errorf("cart_refresh: %w", err)
		}
		c.CartRefresh = d
	}
	return nil
}

func defaults() Config {
	return Config{
		Addr:         ":8080",
		Currency:     "USD",
		TemplatesDir: "templates",
		PublicDir:    "public",
		LogLevel:     "info",
		CartRefresh:  5 * time.Minute,
	}
}

// Load reads .env (when present), then the YAML file named by STOREFRONT_CONFIG
// or the optional path argument, then environment overrides.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path == "" {
		path = os.Getenv("STOREFRONT_CONFIG")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if strings.TrimSpace(cfg.BackendURL) == "" {
		return Config{}, fmt.Errorf("config: backend URL is required (set STOREFRONT_BACKEND_URL)")
	}
	if cfg.CartRefresh <= 0 {
		cfg.CartRefresh = defaults().CartRefresh
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("STOREFRONT_ADDR"); v != "" {
		cfg.Addr = v
	} else if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	}
	if v := os.Getenv("STOREFRONT_BACKEND_URL"); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv("STOREFRONT_CURRENCY"); v != "" {
		cfg.Currency = v
	}
	if v := os.Getenv("STOREFRONT_TEMPLATES"); v != "" {
		cfg.TemplatesDir = v
	}
	if v := os.Getenv("STOREFRONT_PUBLIC"); v != "" {
		cfg.PublicDir = v
	}
	if v := os.Getenv("STOREFRONT_DEV"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Dev = b
		} else {
			cfg.Dev = true
		}
	}
	if v := os.Getenv("STOREFRONT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("STOREFRONT_CART_REFRESH"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CartRefresh = d
		}
	}
}
