// Package config handles configuration loading for ipowatch.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Scrape  ScrapeConfig  `mapstructure:"scrape"  yaml:"scrape"`
	Market  MarketConfig  `mapstructure:"market"  yaml:"market"`
	Export  ExportConfig  `mapstructure:"export"  yaml:"export"`
	Drive   DriveConfig   `mapstructure:"drive"   yaml:"drive"`
	Feed    FeedConfig    `mapstructure:"feed"    yaml:"feed"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ScrapeConfig holds crawling settings for the listing calendar site.
type ScrapeConfig struct {
	BaseURL          string `mapstructure:"base_url"           yaml:"base_url"`
	CalendarPath     string `mapstructure:"calendar_path"      yaml:"calendar_path"`      // fmt template taking year, month
	DetailLinkMarker string `mapstructure:"detail_link_marker" yaml:"detail_link_marker"` // substring identifying detail page hrefs
	DelayMS          int    `mapstructure:"delay_ms"           yaml:"delay_ms"`           // pause between page fetches
	TimeoutSec       int    `mapstructure:"timeout_sec"        yaml:"timeout_sec"`
	UserAgent        string `mapstructure:"user_agent"         yaml:"user_agent"`
	StartYear        int    `mapstructure:"start_year"         yaml:"start_year"` // first year covered by a full crawl

	// The site occasionally re-words labels between layouts; these extend
	// the built-in label sets without a rebuild.
	ShareholderTitle string              `mapstructure:"shareholder_title" yaml:"shareholder_title"`
	LabelExtras      map[string][]string `mapstructure:"label_extras"      yaml:"label_extras"`
}

// MarketConfig holds settings for the quote lookup clients.
type MarketConfig struct {
	CacheTTL  int `mapstructure:"cache_ttl"  yaml:"cache_ttl"`  // seconds
	RateLimit int `mapstructure:"rate_limit" yaml:"rate_limit"` // requests per second
}

// ExportConfig holds workbook output settings.
type ExportConfig struct {
	Dir      string `mapstructure:"dir"      yaml:"dir"`
	Filename string `mapstructure:"filename" yaml:"filename"`
}

// DriveConfig holds Google Drive sync settings.
type DriveConfig struct {
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
	FolderID        string `mapstructure:"folder_id"        yaml:"folder_id"`
}

// FeedConfig holds IPO news feed settings.
type FeedConfig struct {
	Queries []string `mapstructure:"queries" yaml:"queries"`
	Limit   int      `mapstructure:"limit"   yaml:"limit"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.ipowatch/config.yaml (home directory)
//  3. /etc/ipowatch/config.yaml (system)
//
// Environment variables override config file values.
// Format: IPOWATCH_<SECTION>_<KEY>, e.g., IPOWATCH_DRIVE_FOLDER_ID
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".ipowatch"))
	v.AddConfigPath("/etc/ipowatch")

	// Environment variable settings
	v.SetEnvPrefix("IPOWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file, run on defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Override sensitive values from environment
	overrideFromEnv(&cfg)

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("IPOWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Scrape defaults
	v.SetDefault("scrape.base_url", "http://www.ipostock.co.kr")
	v.SetDefault("scrape.calendar_path", "/sub03/ipo04.asp?str4=%d&str5=%02d")
	v.SetDefault("scrape.detail_link_marker", "view_pg")
	v.SetDefault("scrape.delay_ms", 300)
	v.SetDefault("scrape.timeout_sec", 20)
	v.SetDefault("scrape.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("scrape.start_year", 2022)
	v.SetDefault("scrape.shareholder_title", "주주현황")

	// Market defaults
	v.SetDefault("market.cache_ttl", 300) // 5 minutes
	v.SetDefault("market.rate_limit", 2)

	// Export defaults
	v.SetDefault("export.dir", "reports")
	v.SetDefault("export.filename", "ipo_data_all_years.xlsx")

	// Feed defaults
	v.SetDefault("feed.queries", []string{"공모주 청약", "신규 상장", "IPO 수요예측"})
	v.SetDefault("feed.limit", 30)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if path := os.Getenv("IPOWATCH_DRIVE_CREDENTIALS_FILE"); path != "" {
		cfg.Drive.CredentialsFile = path
	}
	if id := os.Getenv("IPOWATCH_DRIVE_FOLDER_ID"); id != "" {
		cfg.Drive.FolderID = id
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
