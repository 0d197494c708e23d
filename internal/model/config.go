package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds the complete factbot configuration
type Config struct {
	NLU          NLUConfig          `yaml:"nlu" mapstructure:"nlu"`
	Data         DataConfig         `yaml:"data" mapstructure:"data"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// NLUConfig holds classifier and intent resolution settings
type NLUConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold" mapstructure:"confidence_threshold"` // Top score must be strictly greater
	NoneIntent          string  `yaml:"none_intent" mapstructure:"none_intent"`                   // Reserved label excluded from training
	MaxNGram            int     `yaml:"max_ngram" mapstructure:"max_ngram"`                       // Highest n-gram order used as a feature
	Regularization      float64 `yaml:"regularization" mapstructure:"regularization"`             // Inverse L2 strength (C)
	MaxIterations       int     `yaml:"max_iterations" mapstructure:"max_iterations"`             // L-BFGS iteration cap
	Seed                int64   `yaml:"seed" mapstructure:"seed"`                                 // 0 = nondeterministic answer selection
}

// DataConfig locates the corpus and reference data
type DataConfig struct {
	Dir           string   `yaml:"dir" mapstructure:"dir"`                       // Empty = embedded default data set
	CorpusFiles   []string `yaml:"corpus_files" mapstructure:"corpus_files"`     // Priority order for fallback answers
	ReferenceFile string   `yaml:"reference_file" mapstructure:"reference_file"` // YAML or JSON
}

// CacheConfig controls trained-model persistence
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`

	// Interval of the memory layer's background sweep. 0 starts no sweeper;
	// expired entries are then only skipped on read. Only long-lived
	// processes that keep reloading models benefit from it.
	CleanupInterval time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig controls per-channel batch throttling
type RateLimitingConfig struct {
	RequestsPerSecond float64                `yaml:"requests_per_second" mapstructure:"requests_per_second"` // <= 0 disables throttling
	BurstSize         int                    `yaml:"burst_size" mapstructure:"burst_size"`
	Channels          map[string]ChannelRate `yaml:"channels,omitempty" mapstructure:"channels"` // Overrides by channel name
}

// ChannelRate is the throttle of one channel
type ChannelRate struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"` // <= 0 disables throttling
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`                   // <= 0 uses the default burst
}

// OutputConfig controls CLI rendering
type OutputConfig struct {
	Verbose   bool   `yaml:"verbose" mapstructure:"verbose"`
	LogFormat string `yaml:"log_format" mapstructure:"log_format"` // json or console
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		NLU: NLUConfig{
			ConfidenceThreshold: 0.04,
			NoneIntent:          "None",
			MaxNGram:            3,
			Regularization:      1.0,
			MaxIterations:       200,
		},
		Data: DataConfig{
			CorpusFiles:   []string{"base-corpus.json", "band-corpus.json"},
			ReferenceFile: "reference.yaml",
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       defaultCacheDir(),
			MemoryTTL: time.Hour,
			DiskTTL:   30 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 0,
			BurstSize:         5,
		},
		Output: OutputConfig{
			LogFormat: "console",
		},
	}
}

// defaultCacheDir returns the per-user cache directory for trained models
func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".factbot-cache"
	}
	return filepath.Join(dir, "factbot")
}
