// Package config provides YAML-based configuration loading for Induction.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config is the top-level Induction configuration, loaded from induction.yaml.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Trains   []TrainSeed    `yaml:"trains"`
}

// DatabaseConfig holds connection settings for the record store.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // mysql, postgres, sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Path     string `yaml:"path"` // sqlite only
}

// ServerConfig holds web server settings.
type ServerConfig struct {
	Port          int           `yaml:"port"`
	SessionSecret string        `yaml:"session_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
}

// AuthConfig selects the identity provider used at login.
type AuthConfig struct {
	Provider string `yaml:"provider"` // mock, profile
}

// StorageConfig selects where uploaded certificate files are kept.
type StorageConfig struct {
	Driver    string `yaml:"driver"` // local, minio
	Dir       string `yaml:"dir"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// AlertsConfig holds chat notification settings.
type AlertsConfig struct {
	Slack        ChatConfig `yaml:"slack"`
	Discord      ChatConfig `yaml:"discord"`
	ExpiryWindow int        `yaml:"expiry_window"` // days
	Schedule     string     `yaml:"schedule"`      // 5-field cron
}

// ChatConfig is a bot token plus the channel alerts are posted to.
type ChatConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// Enabled reports whether both token and channel are set.
func (c ChatConfig) Enabled() bool {
	return c.BotToken != "" && c.ChannelID != ""
}

// TrainSeed is a train row written by `induct db init` and `induct db seed`.
type TrainSeed struct {
	TrainNumber     string `yaml:"train_number"`
	TrainName       string `yaml:"train_name"`
	Status          string `yaml:"status"`
	Rank            int    `yaml:"rank"`
	CurrentMileage  int    `yaml:"current_mileage"`
	LastServiceDate string `yaml:"last_service_date"`
	StablingBay     string `yaml:"stabling_bay"`
	CleaningStatus  string `yaml:"cleaning_status"`
	StatusNotes     string `yaml:"status_notes"`
}

var (
	validDrivers   = map[string]bool{"mysql": true, "postgres": true, "sqlite": true}
	validProviders = map[string]bool{"mock": true, "profile": true}
	validStorage   = map[string]bool{"local": true, "minio": true}
	validStatuses  = map[string]bool{"ok": true, "minor_maintenance": true, "cannot_schedule": true}
	scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
)

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.Host == "" && c.Database.Driver != "sqlite" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		switch c.Database.Driver {
		case "mysql":
			c.Database.Port = 3306
		case "postgres":
			c.Database.Port = 5432
		}
	}
	if c.Database.Name == "" {
		c.Database.Name = "induction"
	}
	if c.Database.User == "" && c.Database.Driver == "mysql" {
		c.Database.User = "root"
	}
	if c.Database.Path == "" && c.Database.Driver == "sqlite" {
		c.Database.Path = c.Database.Name + ".db"
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.SessionTTL == 0 {
		c.Server.SessionTTL = 12 * time.Hour
	}

	if c.Auth.Provider == "" {
		c.Auth.Provider = "mock"
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = "local"
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = "media"
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = "induction"
	}

	if c.Alerts.ExpiryWindow == 0 {
		c.Alerts.ExpiryWindow = 30
	}
	if c.Alerts.Schedule == "" {
		c.Alerts.Schedule = "0 6 * * *"
	}

	for i := range c.Trains {
		if c.Trains[i].Status == "" {
			c.Trains[i].Status = "ok"
		}
		if c.Trains[i].Rank == 0 {
			c.Trains[i].Rank = 99
		}
		if c.Trains[i].CleaningStatus == "" {
			c.Trains[i].CleaningStatus = "Clean"
		}
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if !validDrivers[c.Database.Driver] {
		errs = append(errs, fmt.Sprintf("database.driver %q is not one of mysql, postgres, sqlite", c.Database.Driver))
	}
	if c.Server.SessionSecret == "" {
		errs = append(errs, "server.session_secret is required")
	}
	if c.Server.SessionTTL < 0 {
		errs = append(errs, "server.session_ttl must be positive")
	}
	if !validProviders[c.Auth.Provider] {
		errs = append(errs, fmt.Sprintf("auth.provider %q is not one of mock, profile", c.Auth.Provider))
	}
	if !validStorage[c.Storage.Driver] {
		errs = append(errs, fmt.Sprintf("storage.driver %q is not one of local, minio", c.Storage.Driver))
	}
	if c.Storage.Driver == "minio" {
		if c.Storage.Endpoint == "" {
			errs = append(errs, "storage.endpoint is required for minio")
		}
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			errs = append(errs, "storage.access_key and storage.secret_key are required for minio")
		}
	}
	if c.Alerts.ExpiryWindow < 0 {
		errs = append(errs, "alerts.expiry_window must not be negative")
	}
	if _, err := scheduleParser.Parse(c.Alerts.Schedule); err != nil {
		errs = append(errs, fmt.Sprintf("alerts.schedule %q: %v", c.Alerts.Schedule, err))
	}

	seen := make(map[string]bool)
	for i, t := range c.Trains {
		if t.TrainNumber == "" {
			errs = append(errs, fmt.Sprintf("trains[%d].train_number is required", i))
		} else if seen[t.TrainNumber] {
			errs = append(errs, fmt.Sprintf("trains[%d].train_number %q is duplicated", i, t.TrainNumber))
		}
		seen[t.TrainNumber] = true
		if t.TrainName == "" {
			errs = append(errs, fmt.Sprintf("trains[%d].train_name is required", i))
		}
		if !validStatuses[t.Status] {
			errs = append(errs, fmt.Sprintf("trains[%d].status %q is invalid", i, t.Status))
		}
		if t.LastServiceDate != "" {
			if _, err := time.Parse(time.DateOnly, t.LastServiceDate); err != nil {
				errs = append(errs, fmt.Sprintf("trains[%d].last_service_date %q is not YYYY-MM-DD", i, t.LastServiceDate))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
