package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultCategories is the genre list offered by the catalog forms.
var DefaultCategories = []string{
	"Fantasy",
	"Classic",
	"Adventure",
	"Mystery",
	"Science Fiction",
	"Romance",
	"Historical Fiction",
	"Horror",
	"Biography",
	"Poetry",
}

type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret"`
	JWTIssuer   string        `yaml:"jwt_issuer"`
	JWTDuration time.Duration `yaml:"jwt_ttl"`
}

type ServerConfig struct {
	Addr     string `yaml:"addr"`
	SyncAddr string `yaml:"sync_addr"`
	SeedDemo bool   `yaml:"seed_demo"`
}

type CatalogConfig struct {
	Categories []string `yaml:"categories"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Catalog CatalogConfig `yaml:"catalog"`
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:     ":8080",
			SyncAddr: ":7070",
		},
		Auth: AuthConfig{
			// dev default (change for demo / production)
			JWTSecret:   "dev-secret-change-me",
			JWTIssuer:   "bookstore",
			JWTDuration: 24 * time.Hour,
		},
		Catalog: CatalogConfig{
			Categories: append([]string(nil), DefaultCategories...),
		},
	}
}

// LoadConfig layers defaults, the optional YAML file named by
// BOOKSTORE_CONFIG and BOOKSTORE_* environment variables, in that order.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("BOOKSTORE_CONFIG"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if len(cfg.Catalog.Categories) == 0 {
		cfg.Catalog.Categories = append([]string(nil), DefaultCategories...)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("BOOKSTORE_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("BOOKSTORE_SYNC_ADDR"); v != "" {
		cfg.Server.SyncAddr = v
	}
	if v := os.Getenv("BOOKSTORE_SEED_DEMO"); v != "" {
		seed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("BOOKSTORE_SEED_DEMO: %w", err)
		}
		cfg.Server.SeedDemo = seed
	}
	if v := os.Getenv("BOOKSTORE_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("BOOKSTORE_JWT_ISSUER"); v != "" {
		cfg.Auth.JWTIssuer = v
	}
	if v := os.Getenv("BOOKSTORE_JWT_TTL_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours <= 0 {
			return fmt.Errorf("BOOKSTORE_JWT_TTL_HOURS must be a positive integer, got %q", v)
		}
		cfg.Auth.JWTDuration = time.Duration(hours) * time.Hour
	}
	if v := os.Getenv("BOOKSTORE_CATEGORIES"); v != "" {
		var cats []string
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cats = append(cats, c)
			}
		}
		cfg.Catalog.Categories = cats
	}
	return nil
}
