package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

type (
	Config struct {
		Logging  LoggingConfig  `yaml:"logging"`
		Reminder ReminderConfig `yaml:"reminder"`
		Holiday  HolidayConfig  `yaml:"holiday"`
		Gateway  GatewayConfig  `yaml:"gateway"`
		Delivery DeliveryConfig `yaml:"delivery"`
		LLM      LLMConfig      `yaml:"llm"`
	}

	LoggingConfig struct {
		Level      string `yaml:"level"`  // debug, info, warn, error
		Format     string `yaml:"format"` // json, text
		Output     string `yaml:"output"` // stdout, file, both
		File       string `yaml:"file"`
		MaxSize    int    `yaml:"max_size"` // MB
		MaxBackups int    `yaml:"max_backups"`
		MaxAge     int    `yaml:"max_age"` // days
	}

	ReminderConfig struct {
		Store    string `yaml:"store"`
		Timezone string `yaml:"timezone"`
		// UniqueSession gives every group member an independent schedule list.
		UniqueSession   bool     `yaml:"unique_session"`
		MisfireGraceSec int      `yaml:"misfire_grace_sec"`
		TickIntervalSec int      `yaml:"tick_interval_sec"`
		JobTimeoutSec   int      `yaml:"job_timeout_sec"`
		WechatPlatforms []string `yaml:"wechat_platforms"`
	}

	HolidayConfig struct {
		Enabled          *bool  `yaml:"enabled"`
		Endpoint         string `yaml:"endpoint"`
		Cache            string `yaml:"cache"`
		StaleAfterDays   int    `yaml:"stale_after_days"`
		TimeoutSec       int    `yaml:"timeout_sec"`
		RetryIntervalSec int    `yaml:"retry_interval_sec"`
	}

	GatewayConfig struct {
		Bind           string `yaml:"bind"`
		MetricsAddr    string `yaml:"metrics_addr"`
		RequestTimeout int    `yaml:"request_timeout"`
		// MaxConcurrent bounds conversations handled at the same time.
		MaxConcurrent int `yaml:"max_concurrent"`
		// APIKey, when set, is required as a bearer token on /api routes.
		APIKey string `yaml:"api_key"`
	}

	DeliveryConfig struct {
		WebhookURL string `yaml:"webhook_url"`
		// Token is sent as a bearer token with every webhook delivery.
		Token      string `yaml:"token"`
		TimeoutSec int    `yaml:"timeout_sec"`
	}

	LLMConfig struct {
		BaseURL    string `yaml:"base_url"`
		APIKey     string `yaml:"api_key"`
		Model      string `yaml:"model"`
		TimeoutSec int    `yaml:"timeout_sec"`
	}
)

// Location resolves the configured timezone, falling back to time.Local.
func (c ReminderConfig) Location() *time.Location {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c ReminderConfig) MisfireGrace() time.Duration {
	return time.Duration(c.MisfireGraceSec) * time.Second
}

func (c ReminderConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalSec) * time.Second
}

func (c ReminderConfig) JobTimeout() time.Duration {
	return time.Duration(c.JobTimeoutSec) * time.Second
}

func (c HolidayConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

func (c HolidayConfig) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterDays) * 24 * time.Hour
}

func (c HolidayConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

func (c HolidayConfig) RetryInterval() time.Duration {
	return time.Duration(c.RetryIntervalSec) * time.Second
}

// LLMEnabled reports whether a chat model can be built from the config.
func (c LLMConfig) LLMEnabled() bool {
	return strings.TrimSpace(c.APIKey) != "" && strings.TrimSpace(c.Model) != ""
}

// UpdateByName replaces one top-level section.
func (c *Config) UpdateByName(name string, value any) error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return fmt.Errorf("name is required")
	case "config":
		typed, ok := value.(*Config)
		if !ok || typed == nil {
			return fmt.Errorf("name 'config' requires *Config")
		}
		*c = *typed
	case "logging":
		typed, ok := value.(*LoggingConfig)
		if !ok || typed == nil {
			return fmt.Errorf("name 'logging' requires *LoggingConfig")
		}
		c.Logging = *typed
	case "reminder":
		typed, ok := value.(*ReminderConfig)
		if !ok || typed == nil {
			return fmt.Errorf("name 'reminder' requires *ReminderConfig")
		}
		c.Reminder = *typed
	case "holiday":
		typed, ok := value.(*HolidayConfig)
		if !ok || typed == nil {
			return fmt.Errorf("name 'holiday' requires *HolidayConfig")
		}
		c.Holiday = *typed
	case "gateway":
		typed, ok := value.(*GatewayConfig)
		if !ok || typed == nil {
			return fmt.Errorf("name 'gateway' requires *GatewayConfig")
		}
		c.Gateway = *typed
	default:
		return fmt.Errorf("unsupported config name: %s", name)
	}
	return nil
}

// Clone .
func (c *Config) Clone() (*Config, error) {
	if c == nil {
		return nil, fmt.Errorf("config is nil")
	}

	raw, err := sonic.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	var cloned Config
	if err := sonic.Unmarshal(raw, &cloned); err != nil {
		return nil, fmt.Errorf("unmarshal config clone: %w", err)
	}
	return &cloned, nil
}

// Hash .
func (c *Config) Hash() string {
	json := sonic.Config{SortMapKeys: true, UseNumber: true}.Froze()
	raw, _ := json.Marshal(c)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
