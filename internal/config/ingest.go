package config

import (
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// IngestConfig tunes the inbound ingestion pipeline. It is loaded from an
// optional ingest.yml and can change at runtime without a restart.
type IngestConfig struct {
	Workers           int           `mapstructure:"workers"`
	PollInterval      time.Duration `mapstructure:"pollInterval"`
	BatchSize         int           `mapstructure:"batchSize"`
	VisibilityTimeout time.Duration `mapstructure:"visibilityTimeout"`
	MaxAttempts       int           `mapstructure:"maxAttempts"`
	RetryBackoff      time.Duration `mapstructure:"retryBackoff"`
	EventTimeout      time.Duration `mapstructure:"eventTimeout"`
	OriginatorLockTTL time.Duration `mapstructure:"originatorLockTTL"`
	DedupTTL          time.Duration `mapstructure:"dedupTTL"`
	RouteCacheTTL     time.Duration `mapstructure:"routeCacheTTL"`
}

func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		Workers:           4,
		PollInterval:      time.Second,
		BatchSize:         25,
		VisibilityTimeout: 2 * time.Minute,
		MaxAttempts:       8,
		RetryBackoff:      30 * time.Second,
		EventTimeout:      45 * time.Second,
		OriginatorLockTTL: time.Minute,
		DedupTTL:          14 * 24 * time.Hour,
		RouteCacheTTL:     45 * time.Second,
	}
}

// IngestConfigHolder exposes the current config and swaps it atomically on
// file change.
type IngestConfigHolder struct {
	current atomic.Value // holds IngestConfig
}

func NewIngestConfigHolder() (*IngestConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("ingest")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/leaseline/config")
	v.AddConfigPath("/etc/leaseline")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LEASELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &IngestConfigHolder{}

	load := func() IngestConfig {
		cfg := DefaultIngestConfig()
		if err := v.UnmarshalKey("ingest", &cfg); err != nil {
			log.Printf("ingest config unmarshal failed, keeping previous: %v", err)
			return holder.Current()
		}
		return cfg.withDefaults()
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		holder.current.Store(DefaultIngestConfig())
	} else {
		holder.current.Store(load())
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		holder.current.Store(load())
	})
	v.WatchConfig()

	return holder, nil
}

func (h *IngestConfigHolder) Current() IngestConfig {
	if v, ok := h.current.Load().(IngestConfig); ok {
		return v
	}
	return DefaultIngestConfig()
}

// Store replaces the active config. Exposed for tests.
func (h *IngestConfigHolder) Store(cfg IngestConfig) {
	h.current.Store(cfg.withDefaults())
}

func (c IngestConfig) withDefaults() IngestConfig {
	def := DefaultIngestConfig()
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.VisibilityTimeout <= 0 {
		c.VisibilityTimeout = def.VisibilityTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = def.RetryBackoff
	}
	if c.EventTimeout <= 0 {
		c.EventTimeout = def.EventTimeout
	}
	if c.OriginatorLockTTL <= 0 {
		c.OriginatorLockTTL = def.OriginatorLockTTL
	}
	if c.DedupTTL <= 0 {
		c.DedupTTL = def.DedupTTL
	}
	if c.RouteCacheTTL <= 0 {
		c.RouteCacheTTL = def.RouteCacheTTL
	}
	return c
}
