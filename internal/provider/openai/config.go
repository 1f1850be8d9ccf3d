package openai

import (
	"errors"
	"strings"
	"time"

	"github.com/tgifai/reminder/internal/config"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 60 * time.Second
)

type Config struct {
	ID           string
	APIKey       string
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
	// HealthInterval is the period of the background model listing; zero
	// disables it.
	HealthInterval time.Duration
}

func (c *Config) Validate() error {
	if c.ID == "" {
		return errors.New("provider ID cannot be empty")
	}
	if c.APIKey == "" {
		return errors.New("API key cannot be empty")
	}
	if c.DefaultModel == "" {
		return errors.New("default model cannot be empty")
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return nil
}

// ConfigFromLLM maps the llm section of the service config.
func ConfigFromLLM(id string, llm config.LLMConfig) Config {
	return Config{
		ID:             id,
		APIKey:         strings.TrimSpace(llm.APIKey),
		BaseURL:        strings.TrimSpace(llm.BaseURL),
		DefaultModel:   strings.TrimSpace(llm.Model),
		Timeout:        time.Duration(llm.TimeoutSec) * time.Second,
		HealthInterval: 5 * time.Minute,
	}
}
