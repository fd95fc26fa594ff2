package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultAPIURL     = "http://localhost:8080/api"
	DefaultAPITimeout = 10 * time.Second
	DefaultWords      = 30
	DefaultLogLevel   = "info"
)

// Settings are the effective values after defaults, file and environment
// have been merged.
type Settings struct {
	Words      int
	APIBaseURL string
	APITimeout time.Duration
	LogLevel   string
	LogFile    string
}

// Defaults returns settings with no file or environment applied.
func Defaults() Settings {
	return Settings{
		Words:      DefaultWords,
		APIBaseURL: DefaultAPIURL,
		APITimeout: DefaultAPITimeout,
		LogLevel:   DefaultLogLevel,
		LogFile:    DefaultLogPath(),
	}
}

// Merge overlays the values set in cfg onto s.
func (s Settings) Merge(cfg FileConfig) Settings {
	if cfg.Practice.Words != nil {
		s.Words = *cfg.Practice.Words
	}
	if cfg.API.BaseURL != nil {
		s.APIBaseURL = strings.TrimSpace(*cfg.API.BaseURL)
	}
	if cfg.API.Timeout != nil {
		s.APITimeout = cfg.API.Timeout.Duration
	}
	if cfg.Log.Level != nil {
		s.LogLevel = *cfg.Log.Level
	}
	if cfg.Log.File != nil && strings.TrimSpace(*cfg.Log.File) != "" {
		s.LogFile = *cfg.Log.File
	}
	return s
}

// Validate checks the merged settings.
func (s Settings) Validate() error {
	if s.Words <= 0 {
		return fmt.Errorf("words must be > 0")
	}
	if s.APITimeout <= 0 {
		return fmt.Errorf("api timeout must be > 0")
	}
	u, err := url.Parse(s.APIBaseURL)
	if err != nil {
		return fmt.Errorf("invalid api base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api base url must be an absolute http(s) url, got %q", s.APIBaseURL)
	}
	return nil
}

// Load reads the config file at path, applies .env files and the
// environment, and returns the merged settings.
func Load(path string, dotenv ...string) (Settings, error) {
	if err := LoadDotEnv(dotenv...); err != nil {
		return Settings{}, err
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return Settings{}, err
	}
	ApplyEnv(&cfg)
	return Defaults().Merge(cfg), nil
}
