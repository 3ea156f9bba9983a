package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

// CaptureConfig controls the browser-based page capture used when a
// request supplies a URL instead of pre-extracted elements.
type CaptureConfig struct {
	Enabled       bool   `yaml:"enabled"`
	BrowserURL    string `yaml:"browserURL"`
	TimeoutMs     int    `yaml:"timeoutMs"`
	UserAgent     string `yaml:"userAgent"`
	RespectRobots bool   `yaml:"respectRobots"`
}

// EngineConfig carries the business assumptions the scoring engine
// cannot derive from a page: traffic volume, economics, and the
// post-click model's base rates.
type EngineConfig struct {
	MonthlyTraffic int     `yaml:"monthlyTraffic"`
	AvgOrderValue  float64 `yaml:"avgOrderValue"`
	ColdBaseRate   float64 `yaml:"coldBaseRate"`
	UpperCap       float64 `yaml:"upperCap"`
	CombineMode    string  `yaml:"combineMode"`
}

// RetryConfig bounds retries for outbound capture fetches.
type RetryConfig struct {
	MaxAttempts      int `yaml:"maxAttempts"`
	InitialBackoffMs int `yaml:"initialBackoffMs"`
}

// CacheConfig controls result caching.
type CacheConfig struct {
	Enabled    bool `yaml:"enabled"`
	TTLSeconds int  `yaml:"ttlSeconds"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Capture  CaptureConfig  `yaml:"capture"`
	Engine   EngineConfig   `yaml:"engine"`
	Retry    RetryConfig    `yaml:"retry"`
	Cache    CacheConfig    `yaml:"cache"`
}

func Load(path string) *Config {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config: %v", err)
	}

	return &cfg
}
