package model

import "time"

// Config is the full runtime configuration, threaded explicitly into
// constructors. The core never reads environment variables or flags itself;
// the CLI layer populates this struct and hands it over.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Rate        RateConfig        `yaml:"rate" mapstructure:"rate"`
	Politeness  PolitenessConfig  `yaml:"politeness" mapstructure:"politeness"`
	Probe       ProbeConfig       `yaml:"probe" mapstructure:"probe"`
	Limits      LimitsConfig      `yaml:"limits" mapstructure:"limits"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	Sources     []SourceSpec      `yaml:"sources" mapstructure:"sources"`
}

// HTTPConfig controls the outbound HTTP clients.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	BearerToken  string        `yaml:"bearer_token,omitempty" mapstructure:"bearer_token"`
	Retries      int           `yaml:"retries" mapstructure:"retries"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// RateConfig controls the per-source request pacing. Every source gets its
// own limiter clock, so these bounds never serialize unrelated sources.
type RateConfig struct {
	MinInterval time.Duration `yaml:"min_interval" mapstructure:"min_interval"`
	Burst       int           `yaml:"burst" mapstructure:"burst"`
}

// PolitenessConfig controls robots.txt checking. Off by default since the
// upstream endpoints are JSON APIs.
type PolitenessConfig struct {
	RespectRobots bool `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// ProbeConfig controls structure learning.
type ProbeConfig struct {
	Samples  int `yaml:"samples" mapstructure:"samples"`    // sample documents per source
	MaxDepth int `yaml:"max_depth" mapstructure:"max_depth"` // traversal depth bound
}

// LimitsConfig bounds corpus size.
type LimitsConfig struct {
	PerSource        int `yaml:"per_source" mapstructure:"per_source"`                 // 0 = unlimited
	MaxPerCollection int `yaml:"max_per_collection" mapstructure:"max_per_collection"` // page cap per series
	TextCap          int `yaml:"text_cap" mapstructure:"text_cap"`                     // chars per text field
}

// OutputConfig controls where results land.
type OutputConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// ConcurrencyConfig bounds the source worker pool.
type ConcurrencyConfig struct {
	SourceWorkers int `yaml:"source_workers" mapstructure:"source_workers"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// PageSpec describes a numbered URL series for one source. The template
// holds a single {n} placeholder.
type PageSpec struct {
	Template string `yaml:"template" mapstructure:"template"`
	Start    int    `yaml:"start" mapstructure:"start"`
	Count    int    `yaml:"count" mapstructure:"count"`
}

// SourceSpec declares one upstream source. Endpoints live in configuration,
// never in code; the schema learner deals with whatever shape they return.
type SourceSpec struct {
	Name         string   `yaml:"name" mapstructure:"name"`
	ProbeURLs    []string `yaml:"probe_urls" mapstructure:"probe_urls"`
	Pages        PageSpec `yaml:"pages" mapstructure:"pages"`
	Language     string   `yaml:"language" mapstructure:"language"`
	Category     string   `yaml:"category" mapstructure:"category"`
	Subcategory  string   `yaml:"subcategory" mapstructure:"subcategory"`
	DateComposed string   `yaml:"date_composed" mapstructure:"date_composed"`
	BearerToken  string   `yaml:"bearer_token,omitempty" mapstructure:"bearer_token"`
	Limit        int      `yaml:"limit" mapstructure:"limit"` // overrides Limits.PerSource when > 0
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "corpora/1.0 (+https://github.com/rkalinin/corpora)",
			MaxBodyBytes: 4_000_000,
			Retries:      3,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "./corpus/.cache",
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Rate: RateConfig{
			MinInterval: 500 * time.Millisecond,
			Burst:       1,
		},
		Politeness: PolitenessConfig{
			RespectRobots: false,
		},
		Probe: ProbeConfig{
			Samples:  3,
			MaxDepth: 10,
		},
		Limits: LimitsConfig{
			PerSource:        0,
			MaxPerCollection: 200,
			TextCap:          10_000,
		},
		Output: OutputConfig{
			Dir: "./corpus",
		},
		Concurrency: ConcurrencyConfig{
			SourceWorkers: 4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
