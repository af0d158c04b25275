package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode                string           `yaml:"mode"` // "auto" publishes, "preview" stops for confirmation
	Category            string           `yaml:"category"`
	Style               string           `yaml:"style"`
	ImageCount          int              `yaml:"image_count"`
	SkipPublishedTopics bool             `yaml:"skip_published_topics"`
	MaxDailyPosts       int              `yaml:"max_daily_posts"`
	DataDir             string           `yaml:"data_dir"`
	CookiesFile         string           `yaml:"cookies_file" env:"XHS_COOKIES_FILE"`
	Schedule            ScheduleConfig   `yaml:"schedule"`
	AI                  AIConfig         `yaml:"ai"`
	Image               ImageConfig      `yaml:"image"`
	Publish             PublishConfig    `yaml:"publish"`
	Monitoring          MonitoringConfig `yaml:"monitoring"`

	path string
}

type ScheduleConfig struct {
	TrendingScan string `yaml:"trending_scan"`
	AutoPublish  string `yaml:"auto_publish"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string `yaml:"model"`
}

type ImageConfig struct {
	APIKey  string `yaml:"api_key" env:"IMAGE_API_KEY"`
	BaseURL string `yaml:"base_url" env:"IMAGE_BASE_URL"`
	Model   string `yaml:"model" env:"IMAGE_MODEL"`
}

type PublishConfig struct {
	BridgeURL string `yaml:"bridge_url" env:"XHS_BRIDGE_URL"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

// Defaults returns a config populated with the stock pipeline settings.
// Load unmarshals the config file over these, so absent fields keep them.
func Defaults() *Config {
	return &Config{
		Mode:                "preview",
		Category:            "综合",
		Style:               "干货分享",
		ImageCount:          4,
		SkipPublishedTopics: true,
		MaxDailyPosts:       3,
		DataDir:             "data",
		Schedule: ScheduleConfig{
			TrendingScan: "0 9,15,21 * * *",
			AutoPublish:  "0 10,14,20 * * *",
		},
		AI: AIConfig{
			Model: "gemini-2.5-flash",
		},
		Monitoring: MonitoringConfig{
			HealthPort: 8080,
		},
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	cfg := Defaults()
	cfg.path = configFile

	data, err := os.ReadFile(configFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
		// No config file yet; env vars and defaults carry the run.
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}

	if cfg.AI.GeminiAPIKey == "" {
		cfg.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Image.APIKey == "" {
		cfg.Image.APIKey = os.Getenv("IMAGE_API_KEY")
	}
	if cfg.Image.BaseURL == "" {
		cfg.Image.BaseURL = os.Getenv("IMAGE_BASE_URL")
	}
	if cfg.Image.Model == "" {
		cfg.Image.Model = os.Getenv("IMAGE_MODEL")
	}
	if cfg.CookiesFile == "" {
		cfg.CookiesFile = os.Getenv("XHS_COOKIES_FILE")
	}
	if cfg.CookiesFile == "" {
		cfg.CookiesFile = filepath.Join(cfg.DataDir, "xhs_cookies.json")
	}
	if cfg.Publish.BridgeURL == "" {
		cfg.Publish.BridgeURL = os.Getenv("XHS_BRIDGE_URL")
	}
	if cfg.Publish.BridgeURL == "" {
		cfg.Publish.BridgeURL = "http://127.0.0.1:18060"
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Mode != "auto" && c.Mode != "preview" {
		return fmt.Errorf("mode must be \"auto\" or \"preview\", got %q", c.Mode)
	}
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	if c.ImageCount < 1 {
		c.ImageCount = 1
	}
	if c.ImageCount > 9 {
		c.ImageCount = 9
	}
	if c.MaxDailyPosts < 1 {
		return fmt.Errorf("max_daily_posts must be at least 1, got %d", c.MaxDailyPosts)
	}
	return nil
}

// SetMode switches between auto and preview and persists the change. This is
// the only field rewritten by an explicit config-update operation.
func (c *Config) SetMode(mode string) error {
	if mode != "auto" && mode != "preview" {
		return fmt.Errorf("mode must be \"auto\" or \"preview\", got %q", mode)
	}
	c.Mode = mode
	return c.Save()
}

func (c *Config) Save() error {
	path := c.path
	if path == "" {
		path = "config.yaml"
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}
