package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tgifai/reminder/internal/consts"
)

const (
	defaultMisfireGraceSec  = 60
	defaultTickIntervalSec  = 30
	defaultJobTimeoutSec    = 120
	defaultStaleAfterDays   = 30
	defaultHolidayTimeout   = 10
	defaultHolidayRetrySec  = 600
	defaultGatewayBind      = "127.0.0.1:18790"
	defaultRequestTimeout   = 30
	defaultMaxConcurrent    = 16
	defaultDeliveryTimeout  = 10
	defaultLLMTimeoutSec    = 60
	defaultWechatPlatformID = "gewechat"
)

// Validate fills defaults and rejects values the service cannot run with.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config cannot be nil")
	}

	r := &c.Reminder
	r.Store = strings.TrimSpace(r.Store)
	if r.Store == "" {
		r.Store = consts.DefaultStorePath()
	}
	r.Timezone = strings.TrimSpace(r.Timezone)
	if r.Timezone == "" {
		r.Timezone = consts.DefaultTimezone
	}
	if !strings.EqualFold(r.Timezone, "local") {
		if _, err := time.LoadLocation(r.Timezone); err != nil {
			return fmt.Errorf("invalid reminder.timezone %q: %w", r.Timezone, err)
		}
	}
	if r.MisfireGraceSec <= 0 {
		r.MisfireGraceSec = defaultMisfireGraceSec
	}
	if r.TickIntervalSec <= 0 {
		r.TickIntervalSec = defaultTickIntervalSec
	}
	if r.JobTimeoutSec <= 0 {
		r.JobTimeoutSec = defaultJobTimeoutSec
	}
	if len(r.WechatPlatforms) == 0 {
		r.WechatPlatforms = []string{defaultWechatPlatformID}
	}

	h := &c.Holiday
	h.Endpoint = strings.TrimRight(strings.TrimSpace(h.Endpoint), "/")
	if h.Endpoint == "" {
		h.Endpoint = consts.DefaultHolidayAPI
	}
	if _, err := url.ParseRequestURI(h.Endpoint); err != nil {
		return fmt.Errorf("invalid holiday.endpoint: %w", err)
	}
	h.Cache = strings.TrimSpace(h.Cache)
	if h.Cache == "" {
		h.Cache = consts.DefaultHolidayCachePath()
	}
	if h.StaleAfterDays <= 0 {
		h.StaleAfterDays = defaultStaleAfterDays
	}
	if h.TimeoutSec <= 0 {
		h.TimeoutSec = defaultHolidayTimeout
	}
	if h.RetryIntervalSec <= 0 {
		h.RetryIntervalSec = defaultHolidayRetrySec
	}

	g := &c.Gateway
	g.Bind = strings.TrimSpace(g.Bind)
	if g.Bind == "" {
		g.Bind = defaultGatewayBind
	}
	g.MetricsAddr = strings.TrimSpace(g.MetricsAddr)
	if g.RequestTimeout <= 0 {
		g.RequestTimeout = defaultRequestTimeout
	}
	if g.MaxConcurrent <= 0 {
		g.MaxConcurrent = defaultMaxConcurrent
	}

	d := &c.Delivery
	d.WebhookURL = strings.TrimSpace(d.WebhookURL)
	if d.WebhookURL != "" {
		if _, err := url.ParseRequestURI(d.WebhookURL); err != nil {
			return fmt.Errorf("invalid delivery.webhook_url: %w", err)
		}
	}
	if d.TimeoutSec <= 0 {
		d.TimeoutSec = defaultDeliveryTimeout
	}

	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = defaultLLMTimeoutSec
	}
	return nil
}
