package config

import (
	"os"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

var GlobalConfig *Config

// Config global configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Queue        QueueConfig        `yaml:"queue"`
	Logger       LoggerConfig       `yaml:"logger"`
	Productivity ProductivityConfig `yaml:"productivity"`
	Notification NotificationConfig `yaml:"notification"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Port   int    `yaml:"port"`
	Mode   string `yaml:"mode"`    // debug, release
	APIKey string `yaml:"api_key"` // admin API key (optional, if empty, auth is disabled)
}

// DatabaseConfig relational store configuration
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // mysql, postgres
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"` // postgres only

	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig Redis configuration
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// QueueConfig recompute queue configuration
type QueueConfig struct {
	Enabled     bool `yaml:"enabled"`
	Concurrency int  `yaml:"concurrency"`  // queue processing concurrency
	MaxRetry    int  `yaml:"max_retry"`    // maximum retry count
	TaskTimeout int  `yaml:"task_timeout"` // task timeout (seconds)
}

// LoggerConfig logger configuration
type LoggerConfig struct {
	Level  string           `yaml:"level"`  // debug, info, warn, error
	Output string           `yaml:"output"` // console, file, both
	File   LoggerFileConfig `yaml:"file"`
}

// LoggerFileConfig logger file configuration
type LoggerFileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Quality versioning policies
const (
	QualityVersioningForwardOnly = "forward_only"
	QualityVersioningStrict      = "strict"
)

// Summary last-worked policies
const (
	SummaryPolicyMax       = "max"
	SummaryPolicyOverwrite = "overwrite"
)

// ProductivityConfig scan driver and aggregator configuration
type ProductivityConfig struct {
	Schedule          string `yaml:"schedule"`           // cron spec, e.g. "@every 6h"
	RunOnStart        *bool  `yaml:"run_on_start"`       // scan once at startup (default true)
	WindowDays        int    `yaml:"window_days"`        // trailing window size
	ErrorSampleSize   int    `yaml:"error_sample_size"`  // errors kept in the run summary
	Timezone          string `yaml:"timezone"`           // IANA name used to resolve "today"
	QualityVersioning string `yaml:"quality_versioning"` // strict, forward_only
	SummaryPolicy     string `yaml:"summary_policy"`     // max, overwrite
	LockTTLSeconds    int    `yaml:"lock_ttl_seconds"`   // distributed lock TTL
}

// ShouldRunOnStart reports whether the scan fires once at startup.
func (p ProductivityConfig) ShouldRunOnStart() bool {
	return p.RunOnStart == nil || *p.RunOnStart
}

// Location resolves the configured time zone, falling back to UTC.
func (p ProductivityConfig) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NotificationConfig scan failure alerting
type NotificationConfig struct {
	FeishuWebhookURL string `yaml:"feishu_webhook_url"`
}

// DefaultProductivityConfig returns the defaults applied to unset fields.
func DefaultProductivityConfig() ProductivityConfig {
	return ProductivityConfig{
		Schedule:          "@every 6h",
		WindowDays:        30,
		ErrorSampleSize:   5,
		Timezone:          "UTC",
		QualityVersioning: QualityVersioningStrict,
		SummaryPolicy:     SummaryPolicyMax,
		LockTTLSeconds:    600,
	}
}

// Init initializes configuration
func Init() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	cfg, err := Parse(data)
	if err != nil {
		return err
	}

	GlobalConfig = cfg
	return nil
}

// Parse decodes YAML and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	validateAndApplyDefaults(&cfg)
	return &cfg, nil
}

func validateAndApplyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}

	switch cfg.Database.Driver {
	case "mysql", "postgres":
	default:
		cfg.Database.Driver = "mysql"
	}
	if cfg.Database.Port <= 0 {
		if cfg.Database.Driver == "postgres" {
			cfg.Database.Port = 5432
		} else {
			cfg.Database.Port = 3306
		}
	}
	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 20
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime <= 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}

	if cfg.Queue.Concurrency <= 0 {
		cfg.Queue.Concurrency = 2
	}
	if cfg.Queue.MaxRetry < 0 {
		cfg.Queue.MaxRetry = 3
	}
	if cfg.Queue.TaskTimeout <= 0 {
		cfg.Queue.TaskTimeout = 300
	}

	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Logger.Output == "" {
		cfg.Logger.Output = "console"
	}
	if cfg.Logger.File.MaxSizeMB <= 0 {
		cfg.Logger.File.MaxSizeMB = 100
	}

	defaults := DefaultProductivityConfig()
	p := &cfg.Productivity
	if p.Schedule == "" {
		p.Schedule = defaults.Schedule
	}
	if p.WindowDays <= 0 {
		p.WindowDays = defaults.WindowDays
	}
	if p.ErrorSampleSize <= 0 {
		p.ErrorSampleSize = defaults.ErrorSampleSize
	}
	if _, err := time.LoadLocation(p.Timezone); p.Timezone == "" || err != nil {
		p.Timezone = defaults.Timezone
	}
	if p.QualityVersioning != QualityVersioningForwardOnly {
		p.QualityVersioning = defaults.QualityVersioning
	}
	if p.SummaryPolicy != SummaryPolicyOverwrite {
		p.SummaryPolicy = defaults.SummaryPolicy
	}
	if p.LockTTLSeconds <= 0 {
		p.LockTTLSeconds = defaults.LockTTLSeconds
	}

	if cfg.Notification.FeishuWebhookURL == "" {
		cfg.Notification.FeishuWebhookURL = os.Getenv("FEISHU_WEBHOOK_URL")
	}
}
