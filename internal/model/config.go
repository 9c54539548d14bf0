package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// MailboxConfig holds the IMAP connection settings for the polled
// referral mailbox. Password may be empty when the credential is
// stored in the OS keyring instead.
type MailboxConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`

	// Folder is the mailbox opened by default; FallbackFolder is tried
	// when Folder does not exist on the server. Folder names are
	// operator-defined and may be non-ASCII.
	Folder         string `mapstructure:"folder" yaml:"folder"`
	FallbackFolder string `mapstructure:"fallback_folder" yaml:"fallback_folder"`

	ConnectTimeoutSec int `mapstructure:"connect_timeout_sec" yaml:"connect_timeout_sec"`
}

// ImportConfig controls how import runs behave.
type ImportConfig struct {
	// Workers bounds the number of concurrent parse-dedupe-persist
	// tasks within one run.
	Workers int `mapstructure:"workers" yaml:"workers"`

	// RunTimeoutSec is the wall-clock bound on a whole run; expiry
	// forces the IMAP connection closed and fails the run.
	RunTimeoutSec int `mapstructure:"run_timeout_sec" yaml:"run_timeout_sec"`

	// BusinessHoursStart/End gate scheduled runs (local hours, [start, end)).
	BusinessHoursStart int `mapstructure:"business_hours_start" yaml:"business_hours_start"`
	BusinessHoursEnd   int `mapstructure:"business_hours_end" yaml:"business_hours_end"`

	// ScheduleIntervalMin is the scheduled run cadence in minutes.
	ScheduleIntervalMin int `mapstructure:"schedule_interval_min" yaml:"schedule_interval_min"`

	// Notify toggles the fire-and-forget welcome notification for new
	// customers that have an email address.
	Notify bool `mapstructure:"notify" yaml:"notify"`
}

// AppConfig is the top-level configuration for the lead importer.
type AppConfig struct {
	Mailbox    MailboxConfig `mapstructure:"mailbox" yaml:"mailbox"`
	Import     ImportConfig  `mapstructure:"import" yaml:"import"`
	DBPath     string        `mapstructure:"db_path" yaml:"db_path"`
	ListenAddr string        `mapstructure:"listen_addr" yaml:"listen_addr"`
}

// ConnectTimeout returns the mailbox connect/auth timeout.
func (c *MailboxConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSec) * time.Second
}

// RunTimeout returns the wall-clock bound for one import run.
func (c *ImportConfig) RunTimeout() time.Duration {
	return time.Duration(c.RunTimeoutSec) * time.Second
}

// DefaultConfigPath returns the default path for the configuration
// file, located at ~/.config/leadimport/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "leadimport", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Mailbox: MailboxConfig{
			Port:              "993",
			Folder:            "INBOX",
			FallbackFolder:    "INBOX",
			ConnectTimeoutSec: 30,
		},
		Import: ImportConfig{
			Workers:             4,
			RunTimeoutSec:       600,
			BusinessHoursStart:  6,
			BusinessHoursEnd:    22,
			ScheduleIntervalMin: 120,
			Notify:              true,
		},
		DBPath:     filepath.Join(".", "leadimport.db"),
		ListenAddr: ":8080",
	}
}

// LoadConfig reads configuration from the given YAML file path using
// Viper. If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("mailbox.port", "993")
	v.SetDefault("mailbox.folder", "INBOX")
	v.SetDefault("mailbox.fallback_folder", "INBOX")
	v.SetDefault("mailbox.connect_timeout_sec", 30)
	v.SetDefault("import.workers", 4)
	v.SetDefault("import.run_timeout_sec", 600)
	v.SetDefault("import.business_hours_start", 6)
	v.SetDefault("import.business_hours_end", 22)
	v.SetDefault("import.schedule_interval_min", 120)
	v.SetDefault("import.notify", true)
	v.SetDefault("db_path", "leadimport.db")
	v.SetDefault("listen_addr", ":8080")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("mailbox", cfg.Mailbox)
	v.Set("import", cfg.Import)
	v.Set("db_path", cfg.DBPath)
	v.Set("listen_addr", cfg.ListenAddr)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
