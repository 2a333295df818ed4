package config

import "time"

type PlatformConfig struct {
	StorageConfig   StorageConfig   `yaml:"storage"`
	CacheConfig     CacheConfig     `yaml:"cache"`
	TimelineConfig  TimelineConfig  `yaml:"timeline"`
	APIServerConfig APIServerConfig `yaml:"api"`
	MetricsConfig   MetricsConfig   `yaml:"metrics"`
	IngestionConfig IngestionConfig `yaml:"ingestion"`
	LogConfig       LogConfig       `yaml:"log"`
}

// StorageConfig selects the document store. Type is "mongo", "mem" or "local".
// For mongo URL is the server address, for local it is the bolt file path.
type StorageConfig struct {
	Type     string `yaml:"type"`
	URL      string `yaml:"url"`
	Database string `yaml:"database"`
}

// CacheConfig selects where memoized API answers live. Type is "memory" or "redis".
type CacheConfig struct {
	Type string        `yaml:"type"`
	URL  string        `yaml:"url,omitempty"`
	TTL  time.Duration `yaml:"ttl"`
}

type TimelineConfig struct {
	Resolution   time.Duration `yaml:"resolution"`
	DefaultSpan  time.Duration `yaml:"defaultSpan"`
	DefaultCount int           `yaml:"defaultCount"`
	MaxCount     int           `yaml:"maxCount"`
}

type APIServerConfig struct {
	Port      int    `yaml:"port"`
	PublicDir string `yaml:"publicDir"`
}

type MetricsConfig struct {
	Port      int    `yaml:"port"`
	Namespace string `yaml:"namespace"`
}

// IngestionConfig enables recording snapshots pushed on a pubsub subscription.
// Kafka brokers are read from KAFKA_BROKERS.
type IngestionConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Subscription string `yaml:"subscription"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}
