package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultCrawlerEndpoint is the Oxylabs Real-Time Crawler query endpoint
	DefaultCrawlerEndpoint = "https://realtime.oxylabs.io/v1/queries"

	// DefaultUserAgent is sent by the direct client
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/88.0.4324.182 Safari/537.36"
)

// Config holds all configuration options for an availability run
type Config struct {
	// Batch settings
	Check CheckConfig `yaml:"check" json:"check"`

	// Crawler API credentials and endpoint
	Crawler CrawlerConfig `yaml:"crawler" json:"crawler"`

	// Direct request settings
	Direct DirectConfig `yaml:"direct" json:"direct"`

	// Backoff between attempts
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Request rate cap shared by all workers
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// CheckConfig holds the settings of one batch run
type CheckConfig struct {
	InputFile   string        `yaml:"input_file" json:"input_file"`
	OutputFile  string        `yaml:"output_file" json:"output_file"`
	Concurrency int           `yaml:"concurrency" json:"concurrency"`
	Retries     int           `yaml:"retries" json:"retries"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`

	// MaxUsernameLength caps candidate length; 0 disables the cap
	MaxUsernameLength int `yaml:"max_username_length" json:"max_username_length"`
}

// CrawlerConfig holds the crawler API settings.
// The crawler strategy is used only when both Username and Password are set.
type CrawlerConfig struct {
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	Source   string `yaml:"source" json:"source"`
}

// HasCredentials reports whether crawler credentials are configured
func (c CrawlerConfig) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

// DirectConfig holds direct request settings
type DirectConfig struct {
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	ProxyURL  string `yaml:"proxy_url" json:"proxy_url"`
}

// RetryConfig holds backoff settings
type RetryConfig struct {
	BaseDelay    time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
	JitterFactor float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// RateLimitConfig holds rate limiting configuration.
// RequestsPerMinute of 0 means unlimited.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Check: CheckConfig{
			InputFile:         "usernames.txt",
			OutputFile:        "hits.txt",
			Concurrency:       50,
			Retries:           3,
			Timeout:           30 * time.Second,
			MaxUsernameLength: 30,
		},
		Crawler: CrawlerConfig{
			Endpoint: DefaultCrawlerEndpoint,
			Source:   "universal",
		},
		Direct: DirectConfig{
			UserAgent: DefaultUserAgent,
		},
		Retry: RetryConfig{
			BaseDelay:    1 * time.Second,
			MaxDelay:     10 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 0,
			BurstSize:         1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables.
// Malformed numeric values are reported rather than silently ignored.
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv("INPUT_FILE"); v != "" {
		c.Check.InputFile = v
	}
	if v := os.Getenv("OUTPUT_FILE"); v != "" {
		c.Check.OutputFile = v
	}
	if v := os.Getenv("CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("CONCURRENCY: %w", err))
		} else {
			c.Check.Concurrency = n
		}
	}
	if v := os.Getenv("RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("RETRIES: %w", err))
		} else {
			c.Check.Retries = n
		}
	}
	if v := os.Getenv("TIMEOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("TIMEOUT: %w", err))
		} else {
			c.Check.Timeout = time.Duration(n) * time.Second
		}
	}

	// Crawler credentials
	if v := os.Getenv("OXYLABS_USERNAME"); v != "" {
		c.Crawler.Username = v
	}
	if v := os.Getenv("OXYLABS_PASSWORD"); v != "" {
		c.Crawler.Password = v
	}
	if v := os.Getenv("IGAVAIL_CRAWLER_ENDPOINT"); v != "" {
		c.Crawler.Endpoint = v
	}

	if v := os.Getenv("IGAVAIL_PROXY_URL"); v != "" {
		c.Direct.ProxyURL = v
	}
	if v := os.Getenv("IGAVAIL_REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("IGAVAIL_REQUESTS_PER_MINUTE: %w", err))
		} else {
			c.RateLimit.RequestsPerMinute = n
		}
	}

	if v := os.Getenv("IGAVAIL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("IGAVAIL_LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
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
func findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".igavail.yaml",
		".igavail.yml",
		filepath.Join(home, ".config", "igavail", "config.yaml"),
		filepath.Join(home, ".config", "igavail", "config.yml"),
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

	if c.Check.InputFile == "" {
		errs = append(errs, errors.New("input file is required"))
	}
	if c.Check.OutputFile == "" {
		errs = append(errs, errors.New("output file is required"))
	}
	if c.Check.Concurrency <= 0 {
		errs = append(errs, errors.New("concurrency must be positive"))
	}
	if c.Check.Retries < 0 {
		errs = append(errs, errors.New("retries cannot be negative"))
	}
	if c.Check.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	if c.Check.MaxUsernameLength < 0 {
		errs = append(errs, errors.New("max username length cannot be negative"))
	}

	if c.Crawler.Endpoint == "" {
		errs = append(errs, errors.New("crawler endpoint is required"))
	} else if _, err := url.ParseRequestURI(c.Crawler.Endpoint); err != nil {
		errs = append(errs, fmt.Errorf("invalid crawler endpoint: %w", err))
	}
	if (c.Crawler.Username == "") != (c.Crawler.Password == "") {
		errs = append(errs, errors.New("crawler username and password must be set together"))
	}

	if c.Direct.ProxyURL != "" {
		u, err := url.Parse(c.Direct.ProxyURL)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid proxy url: %w", err))
		} else {
			switch u.Scheme {
			case "http", "https", "socks5", "socks5h":
			default:
				errs = append(errs, fmt.Errorf("unsupported proxy scheme %q", u.Scheme))
			}
		}
	}

	if c.Retry.BaseDelay < 0 {
		errs = append(errs, errors.New("retry base delay cannot be negative"))
	}
	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		errs = append(errs, errors.New("retry max delay must not be below base delay"))
	}
	if c.Retry.Multiplier < 1 {
		errs = append(errs, errors.New("retry multiplier must be at least 1"))
	}
	if c.Retry.JitterFactor < 0 || c.Retry.JitterFactor > 1 {
		errs = append(errs, errors.New("retry jitter factor must be between 0 and 1"))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.RateLimit.RequestsPerMinute > 0 && c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges explicitly set command line flags into the configuration.
// Keys match the flag names of the check command.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["input"].(string); ok && v != "" {
		c.Check.InputFile = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Check.OutputFile = v
	}
	if v, ok := flags["concurrency"].(int); ok {
		c.Check.Concurrency = v
	}
	if v, ok := flags["retries"].(int); ok {
		c.Check.Retries = v
	}
	if v, ok := flags["timeout"].(int); ok {
		c.Check.Timeout = time.Duration(v) * time.Second
	}
	if v, ok := flags["oxylabs-username"].(string); ok && v != "" {
		c.Crawler.Username = v
	}
	if v, ok := flags["oxylabs-password"].(string); ok && v != "" {
		c.Crawler.Password = v
	}
	if v, ok := flags["proxy"].(string); ok && v != "" {
		c.Direct.ProxyURL = v
	}
	if v, ok := flags["rate-limit"].(int); ok {
		c.RateLimit.RequestsPerMinute = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok && v != "" {
		c.Logging.File = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// godotenv never overrides variables that are already set
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igavail.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
