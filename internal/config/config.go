package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"

	"github.com/apolzek/neosearch/internal/registryhash"
)

type Config struct {
	ServerAddress  string        `env:"SERVER_ADDRESS"`
	DatabaseDSN    string        `env:"DATABASE_DSN"`
	RedisAddr      string        `env:"REDIS_ADDR"`
	SecretKey      string        `env:"SECRET_KEY"`
	CategoriesFile string        `env:"CATEGORIES_FILE"`
	HashAlgorithm  string        `env:"HASH_ALGORITHM"`
	FuzzyThreshold float64       `env:"FUZZY_THRESHOLD"`
	ImportMaxItems int           `env:"IMPORT_MAX_ITEMS"`
	ImportMaxBytes int           `env:"IMPORT_MAX_BYTES"`
	QuotaPerOwner  int           `env:"QUOTA_PER_OWNER"`
	ImportRate     int           `env:"IMPORT_RATE_LIMIT"`
	RateWindow     time.Duration `env:"IMPORT_RATE_WINDOW"`
	FetchTimeout   time.Duration `env:"FETCH_TIMEOUT"`

	// Categories is the predefined enumeration loaded from CategoriesFile.
	// Empty means no restriction.
	Categories []string `env:"-"`
}

func ParseFlags() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	envServerAddress := cfg.ServerAddress
	envDatabaseDSN := cfg.DatabaseDSN
	envRedisAddr := cfg.RedisAddr
	envSecretKey := cfg.SecretKey
	envCategoriesFile := cfg.CategoriesFile

	flag.StringVar(&cfg.ServerAddress, "a", "localhost:8080", "Address of the server")
	flag.StringVar(&cfg.DatabaseDSN, "d", "", "PostgreSQL DSN (empty = in-memory store)")
	flag.StringVar(&cfg.RedisAddr, "r", "", "Redis address for the import rate counter (empty = in-memory)")
	flag.StringVar(&cfg.SecretKey, "s", "", "Secret key for identity cookie signing")
	flag.StringVar(&cfg.CategoriesFile, "c", "", "YAML file with the category enumeration")

	flag.Parse()

	if envServerAddress != "" {
		cfg.ServerAddress = envServerAddress
	}
	if envDatabaseDSN != "" {
		cfg.DatabaseDSN = envDatabaseDSN
	}
	if envRedisAddr != "" {
		cfg.RedisAddr = envRedisAddr
	}
	if envSecretKey != "" {
		cfg.SecretKey = envSecretKey
	}
	if envCategoriesFile != "" {
		cfg.CategoriesFile = envCategoriesFile
	}

	cfg.applyDefaultValues()

	if cfg.CategoriesFile != "" {
		categories, err := loadCategories(cfg.CategoriesFile)
		if err != nil {
			return nil, err
		}
		cfg.Categories = categories
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("secret key cannot be empty")
	}
	if _, err := registryhash.ParseAlgorithm(c.HashAlgorithm); err != nil {
		return err
	}
	if c.FuzzyThreshold <= 0 || c.FuzzyThreshold > 1 {
		return fmt.Errorf("fuzzy threshold must be in (0, 1], got %v", c.FuzzyThreshold)
	}
	if c.ImportMaxItems <= 0 {
		return fmt.Errorf("import max items must be positive")
	}
	if c.ImportMaxBytes <= 0 {
		return fmt.Errorf("import max bytes must be positive")
	}
	if c.QuotaPerOwner <= 0 {
		return fmt.Errorf("quota per owner must be positive")
	}
	if c.ImportRate <= 0 {
		return fmt.Errorf("import rate limit must be positive")
	}
	if c.RateWindow <= 0 {
		return fmt.Errorf("import rate window must be positive")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	return nil
}

func (c *Config) applyDefaultValues() {
	if c.ServerAddress == "" {
		c.ServerAddress = "localhost:8080"
	}
	if c.HashAlgorithm == "" {
		c.HashAlgorithm = string(registryhash.SHA256)
	}
	if c.FuzzyThreshold == 0 {
		c.FuzzyThreshold = 0.75
	}
	if c.ImportMaxItems == 0 {
		c.ImportMaxItems = 1000
	}
	if c.ImportMaxBytes == 0 {
		c.ImportMaxBytes = 1000 * 1024
	}
	if c.QuotaPerOwner == 0 {
		c.QuotaPerOwner = 1000
	}
	if c.ImportRate == 0 {
		c.ImportRate = 100
	}
	if c.RateWindow == 0 {
		c.RateWindow = time.Hour
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = 10 * time.Second
	}
}

type categoriesFile struct {
	Categories []string `yaml:"categories"`
}

func loadCategories(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}

	var parsed categoriesFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse categories file: %w", err)
	}
	return parsed.Categories, nil
}
