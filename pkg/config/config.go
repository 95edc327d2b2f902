package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the classroom downloader
type Config struct {
	// Activity feed access
	Classroom ClassroomConfig `yaml:"classroom" json:"classroom"`

	// Page crawl settings
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Output locations
	Output OutputConfig `yaml:"output" json:"output"`

	// Feed request throttling
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ClassroomConfig holds activity-feed access configuration
type ClassroomConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	SessionValue   string        `yaml:"session_value" json:"session_value"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// CrawlConfig holds page-crawl configuration
type CrawlConfig struct {
	StartPage int `yaml:"start_page" json:"start_page"`
	EndPage   int `yaml:"end_page" json:"end_page"` // 0 crawls until the feed runs out
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Workers         int           `yaml:"workers" json:"workers"`
	DownloadTimeout time.Duration `yaml:"download_timeout" json:"download_timeout"`
	Flatten         bool          `yaml:"flatten" json:"flatten"`
}

// OutputConfig holds output location configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	IndexFile     string `yaml:"index_file" json:"index_file"`
}

// RateLimitConfig throttles activity-feed page requests. Downloads hit
// pre-signed storage links and are never throttled.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"` // 0 disables throttling
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Classroom: ClassroomConfig{
			BaseURL:        "https://classroom.kindercare.com",
			UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			RequestTimeout: 30 * time.Second,
		},
		Crawl: CrawlConfig{
			StartPage: 1,
			EndPage:   0,
		},
		Download: DownloadConfig{
			Workers:         10,
			DownloadTimeout: 5 * time.Minute,
			Flatten:         false,
		},
		Output: OutputConfig{
			BaseDirectory: "downloads",
			IndexFile:     "index.json",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 0,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if sessionValue := os.Getenv("KCDL_SESSION_VALUE"); sessionValue != "" {
		c.Classroom.SessionValue = sessionValue
	}
	if baseURL := os.Getenv("KCDL_BASE_URL"); baseURL != "" {
		c.Classroom.BaseURL = baseURL
	}
	if userAgent := os.Getenv("KCDL_USER_AGENT"); userAgent != "" {
		c.Classroom.UserAgent = userAgent
	}

	if outputDir := os.Getenv("KCDL_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if indexFile := os.Getenv("KCDL_INDEX_FILE"); indexFile != "" {
		c.Output.IndexFile = indexFile
	}

	if workers := os.Getenv("KCDL_WORKERS"); workers != "" {
		var val int
		fmt.Sscanf(workers, "%d", &val)
		if val > 0 {
			c.Download.Workers = val
		}
	}

	if rpm := os.Getenv("KCDL_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	if logLevel := os.Getenv("KCDL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".kcdl.yaml",
		".kcdl.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "kcdl", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "kcdl", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".kcdl.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Classroom.BaseURL == "" {
		errs = append(errs, errors.New("classroom base URL is required"))
	}
	if c.Classroom.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Crawl.StartPage < 1 {
		errs = append(errs, errors.New("start page must be at least 1"))
	}
	if c.Crawl.EndPage < 0 {
		errs = append(errs, errors.New("end page cannot be negative"))
	}
	if c.Crawl.EndPage > 0 && c.Crawl.EndPage < c.Crawl.StartPage {
		errs = append(errs, errors.New("end page cannot precede start page"))
	}

	if c.Download.Workers <= 0 {
		errs = append(errs, errors.New("workers must be positive"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.IndexFile == "" {
		errs = append(errs, errors.New("index file path is required"))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if sessionValue, ok := flags["session-value"].(string); ok && sessionValue != "" {
		c.Classroom.SessionValue = sessionValue
	}
	if startPage, ok := flags["start-page"].(int); ok && startPage > 0 {
		c.Crawl.StartPage = startPage
	}
	if endPage, ok := flags["end-page"].(int); ok && endPage > 0 {
		c.Crawl.EndPage = endPage
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if indexFile, ok := flags["index-file"].(string); ok && indexFile != "" {
		c.Output.IndexFile = indexFile
	}
	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		c.Download.Workers = workers
	}
	if flatten, ok := flags["flatten"].(bool); ok {
		c.Download.Flatten = flatten
	}
	if rpm, ok := flags["requests-per-minute"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".kcdl.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
