package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageMongo = "mongo"
	StorageMem   = "mem"
	StorageLocal = "local"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// ErrMissingStorageURL mirrors the DB_URL requirement of the mongo deployment.
var ErrMissingStorageURL = errors.New("no storage url configured and no DB_URL environment variable supplied")

func LoadConfig() (*PlatformConfig, error) {
	return LoadConfigFromFile("./config.yaml")
}

func LoadConfigFromFile(filename string) (*PlatformConfig, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	return Parse(content)
}

// Parse decodes content, applies the DB_URL override and defaults, and validates.
func Parse(content []byte) (*PlatformConfig, error) {
	config := PlatformConfig{}
	if err := yaml.Unmarshal(content, &config); err != nil {
		return nil, err
	}

	if url := os.Getenv("DB_URL"); url != "" {
		config.StorageConfig.URL = url
	}
	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *PlatformConfig) applyDefaults() {
	if c.StorageConfig.Type == "" {
		c.StorageConfig.Type = StorageMongo
	}
	if c.StorageConfig.Database == "" {
		c.StorageConfig.Database = "pricetracker"
	}
	if c.StorageConfig.Type == StorageLocal && c.StorageConfig.URL == "" {
		c.StorageConfig.URL = "./pricetracker.db"
	}

	if c.CacheConfig.Type == "" {
		c.CacheConfig.Type = CacheMemory
	}
	if c.CacheConfig.TTL <= 0 {
		c.CacheConfig.TTL = 60 * time.Second
	}

	if c.TimelineConfig.Resolution <= 0 {
		c.TimelineConfig.Resolution = time.Hour
	}
	if c.TimelineConfig.DefaultSpan <= 0 {
		c.TimelineConfig.DefaultSpan = 24 * time.Hour
	}
	if c.TimelineConfig.DefaultCount <= 0 {
		c.TimelineConfig.DefaultCount = 10
	}
	if c.TimelineConfig.MaxCount <= 0 {
		c.TimelineConfig.MaxCount = 100
	}

	if c.APIServerConfig.Port == 0 {
		c.APIServerConfig.Port = 8080
	}
	if c.APIServerConfig.PublicDir == "" {
		c.APIServerConfig.PublicDir = "./public"
	}

	if c.MetricsConfig.Namespace == "" {
		c.MetricsConfig.Namespace = "pricetracker"
	}

	if c.IngestionConfig.Enabled && c.IngestionConfig.Subscription == "" {
		c.IngestionConfig.Subscription = "kafka://pricetracker?topic=wishlist-snapshots"
	}

	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}
	if c.LogConfig.Format == "" {
		c.LogConfig.Format = "text"
	}
}

func (c *PlatformConfig) validate() error {
	switch c.StorageConfig.Type {
	case StorageMongo:
		if c.StorageConfig.URL == "" {
			return ErrMissingStorageURL
		}
	case StorageMem, StorageLocal:
	default:
		return fmt.Errorf("unknown storage type %q", c.StorageConfig.Type)
	}

	switch c.CacheConfig.Type {
	case CacheMemory:
	case CacheRedis:
		if c.CacheConfig.URL == "" {
			return errors.New("redis cache requires a url")
		}
	default:
		return fmt.Errorf("unknown cache type %q", c.CacheConfig.Type)
	}

	if c.TimelineConfig.Resolution < time.Second {
		return fmt.Errorf("timeline resolution %s is below one second", c.TimelineConfig.Resolution)
	}
	return nil
}
