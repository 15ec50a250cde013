package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Placeholder values shipped in the sample .env; treated as missing credentials.
const (
	PlaceholderClientID     = "your_client_id_here"
	PlaceholderClientSecret = "your_client_secret_here"
)

// MinPageDelay is the shortest allowed pause between listing pages
const MinPageDelay = time.Second

// DefaultPath is where Load looks when no path is given on the command line
const DefaultPath = "config/settings.yaml"

// Config holds all configuration for the application
type Config struct {
	Subreddits    []string            `yaml:"subreddits"`
	Scraping      ScrapingConfig      `yaml:"scraping"`
	Reddit        RedditConfig        `yaml:"reddit"`
	Keywords      KeywordsConfig      `yaml:"keywords"`
	Reference     ReferenceConfig     `yaml:"reference"`
	Storage       StorageConfig       `yaml:"storage"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Server        ServerConfig        `yaml:"server"`

	// Cron expression (with seconds) for the scheduled collect and combine run
	Schedule  string `yaml:"schedule"`
	Debug     bool   `yaml:"debug"`
	LogFormat string `yaml:"log_format"` // "json" or "text"
}

// ScrapingConfig controls listing and comment fetches
type ScrapingConfig struct {
	PostsPerSubreddit int           `yaml:"posts_per_subreddit"`
	SortBy            string        `yaml:"sort_by"`
	TimeFilter        string        `yaml:"time_filter"`
	IncludeComments   bool          `yaml:"include_comments"`
	CommentsPerPost   int           `yaml:"comments_per_post"`
	CommentPosts      int           `yaml:"comment_posts"` // only the first N posts per channel get comments
	PageDelay         time.Duration `yaml:"page_delay"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	CommentRate       float64       `yaml:"comment_rate"` // comment requests per second
	Concurrency       int           `yaml:"concurrency"`
}

// RedditConfig holds provider credentials
type RedditConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	UserAgent    string `yaml:"user_agent"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	BaseURL      string `yaml:"base_url"`
}

// KeywordsConfig holds the persisted organization list
type KeywordsConfig struct {
	Companies []string `yaml:"companies"`
}

// ReferenceConfig selects the layoff dataset
type ReferenceConfig struct {
	Dataset string   `yaml:"dataset"` // verified, compiled, csv, remote, auto
	Path    string   `yaml:"path"`
	Mirrors []string `yaml:"mirrors"`
	Months  int      `yaml:"months"`
}

// StorageConfig controls where output tables go
type StorageConfig struct {
	DataDir        string `yaml:"data_dir"`
	Format         string `yaml:"format"` // csv or json
	DatabasePath   string `yaml:"database_path"`
	AzureAccount   string `yaml:"azure_account"`
	AzureContainer string `yaml:"azure_container"`
}

// NotificationsConfig holds Teams and SMTP settings
type NotificationsConfig struct {
	TeamsWebhookURL   string `yaml:"teams_webhook_url"`
	NotificationEmail string `yaml:"email"`
	SMTPHost          string `yaml:"smtp_host"`
	SMTPPort          int    `yaml:"smtp_port"`
	SMTPUsername      string `yaml:"smtp_username"`
	SMTPPassword      string `yaml:"smtp_password"`
}

// Enabled reports whether any delivery channel is configured
func (n NotificationsConfig) Enabled() bool {
	return n.TeamsWebhookURL != "" || n.NotificationEmail != ""
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Port string `yaml:"port"`
}

// Default returns a Config with the stock channels and organization list
func Default() *Config {
	return &Config{
		Subreddits: []string{"layoffs", "cscareerquestions", "technology", "jobs", "antiwork"},
		Scraping: ScrapingConfig{
			PostsPerSubreddit: 500,
			SortBy:            "new",
			TimeFilter:        "month",
			IncludeComments:   false,
			CommentsPerPost:   50,
			CommentPosts:      30,
			PageDelay:         MinPageDelay,
			RequestTimeout:    10 * time.Second,
			CommentRate:       1,
			Concurrency:       2,
		},
		Reddit: RedditConfig{
			UserAgent: "layoffs-tracker/1.0",
			BaseURL:   "https://www.reddit.com",
		},
		Keywords: KeywordsConfig{
			Companies: []string{
				"Amazon", "Meta", "Google", "Microsoft", "Apple", "Oracle", "Intel",
				"Salesforce", "IBM", "Cisco", "Dell", "HP", "HPE", "Workday",
				"Autodesk", "CrowdStrike", "Tesla", "Netflix", "Spotify", "Uber",
				"PayPal", "Ericsson", "ASML", "Dow", "Accenture", "Verizon", "UPS",
			},
		},
		Reference: ReferenceConfig{
			Dataset: "verified",
			Path:    "data/layoffs.csv",
			Mirrors: []string{
				"https://raw.githubusercontent.com/justinjm/layoffs-decoded/main/data/layoffs_fyi.csv",
				"https://raw.githubusercontent.com/Sayan-003/layoff/main/data/layoffs.csv",
			},
			Months: 6,
		},
		Storage: StorageConfig{
			DataDir:        "data",
			Format:         "csv",
			DatabasePath:   "data/tracker.db",
			AzureContainer: "layoffs-tracker",
		},
		Notifications: NotificationsConfig{SMTPPort: 587},
		Server:        ServerConfig{Port: "8080"},
		Schedule:      "0 0 9 * * *",
		LogFormat:     "json",
	}
}

// Load reads configuration from a YAML file and applies environment overrides.
// A missing file at the default path is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// defaults only
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Reddit.ClientID = getEnv("REDDIT_CLIENT_ID", c.Reddit.ClientID)
	c.Reddit.ClientSecret = getEnv("REDDIT_CLIENT_SECRET", c.Reddit.ClientSecret)
	c.Reddit.UserAgent = getEnv("REDDIT_USER_AGENT", c.Reddit.UserAgent)
	c.Reddit.Username = getEnv("REDDIT_USERNAME", c.Reddit.Username)
	c.Reddit.Password = getEnv("REDDIT_PASSWORD", c.Reddit.Password)

	c.Subreddits = getSliceEnv("TRACKER_SUBREDDITS", c.Subreddits)
	c.Keywords.Companies = getSliceEnv("TRACKER_COMPANIES", c.Keywords.Companies)
	c.Scraping.PostsPerSubreddit = getIntEnv("TRACKER_POSTS_PER_SUBREDDIT", c.Scraping.PostsPerSubreddit)
	c.Scraping.CommentRate = getFloatEnv("TRACKER_COMMENT_RATE", c.Scraping.CommentRate)
	c.Scraping.IncludeComments = getBoolEnv("TRACKER_INCLUDE_COMMENTS", c.Scraping.IncludeComments)
	c.Reference.Dataset = getEnv("TRACKER_REFERENCE_DATASET", c.Reference.Dataset)

	c.Storage.DataDir = getEnv("TRACKER_DATA_DIR", c.Storage.DataDir)
	c.Storage.DatabasePath = getEnv("TRACKER_DB_PATH", c.Storage.DatabasePath)
	c.Storage.AzureAccount = getEnv("AZURE_STORAGE_ACCOUNT", c.Storage.AzureAccount)
	c.Storage.AzureContainer = getEnv("AZURE_STORAGE_CONTAINER", c.Storage.AzureContainer)

	c.Notifications.TeamsWebhookURL = getEnv("TEAMS_WEBHOOK_URL", c.Notifications.TeamsWebhookURL)
	c.Notifications.NotificationEmail = getEnv("NOTIFICATION_EMAIL", c.Notifications.NotificationEmail)
	c.Notifications.SMTPHost = getEnv("SMTP_HOST", c.Notifications.SMTPHost)
	c.Notifications.SMTPPort = getIntEnv("SMTP_PORT", c.Notifications.SMTPPort)
	c.Notifications.SMTPUsername = getEnv("SMTP_USERNAME", c.Notifications.SMTPUsername)
	c.Notifications.SMTPPassword = getEnv("SMTP_PASSWORD", c.Notifications.SMTPPassword)

	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Debug = getBoolEnv("DEBUG", c.Debug)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}

// HasRedditCredentials reports whether usable, non-placeholder API credentials are present
func (c *Config) HasRedditCredentials() bool {
	id := strings.TrimSpace(c.Reddit.ClientID)
	secret := strings.TrimSpace(c.Reddit.ClientSecret)
	return id != "" && secret != "" &&
		id != PlaceholderClientID && secret != PlaceholderClientSecret
}

// Validate checks enumerated values and limits
func (c *Config) Validate() error {
	if len(c.Subreddits) == 0 {
		return fmt.Errorf("at least one subreddit must be configured")
	}

	switch c.Scraping.SortBy {
	case "new", "hot", "top", "rising", "controversial":
	default:
		return fmt.Errorf("scraping.sort_by must be one of new, hot, top, rising, controversial (got %q)", c.Scraping.SortBy)
	}

	switch c.Scraping.TimeFilter {
	case "hour", "day", "week", "month", "year", "all":
	default:
		return fmt.Errorf("scraping.time_filter must be one of hour, day, week, month, year, all (got %q)", c.Scraping.TimeFilter)
	}

	if c.Scraping.PostsPerSubreddit <= 0 {
		return fmt.Errorf("scraping.posts_per_subreddit must be positive")
	}
	if c.Scraping.PageDelay < MinPageDelay {
		return fmt.Errorf("scraping.page_delay must be at least %s (got %s)", MinPageDelay, c.Scraping.PageDelay)
	}
	if c.Scraping.RequestTimeout <= 0 {
		return fmt.Errorf("scraping.request_timeout must be positive")
	}
	if c.Scraping.Concurrency <= 0 {
		c.Scraping.Concurrency = 1
	}

	switch c.Storage.Format {
	case "csv", "json":
	default:
		return fmt.Errorf("storage.format must be 'csv' or 'json'")
	}

	switch c.Reference.Dataset {
	case "verified", "compiled", "csv", "remote", "auto":
	default:
		return fmt.Errorf("reference.dataset must be one of verified, compiled, csv, remote, auto (got %q)", c.Reference.Dataset)
	}

	if c.Notifications.NotificationEmail != "" {
		n := c.Notifications
		if n.SMTPHost == "" || n.SMTPUsername == "" || n.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
