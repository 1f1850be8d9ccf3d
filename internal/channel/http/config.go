package http

import (
	"time"

	"github.com/tgifai/reminder/internal/config"
)

const defaultResponseTimeout = 5 * time.Minute

type Config struct {
	// APIKey is an optional bearer token for incoming requests.
	APIKey string
	// ResponseTimeout bounds how long a request waits for its reply.
	ResponseTimeout time.Duration
}

func (c *Config) Validate() error {
	if c.ResponseTimeout <= 0 {
		c.ResponseTimeout = defaultResponseTimeout
	}
	return nil
}

// ConfigFromGateway derives the channel settings from the gateway section.
func ConfigFromGateway(gw config.GatewayConfig) Config {
	cfg := Config{APIKey: gw.APIKey}
	if gw.RequestTimeout > 0 {
		cfg.ResponseTimeout = time.Duration(gw.RequestTimeout) * time.Second
	}
	return cfg
}
