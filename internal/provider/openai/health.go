package openai

import (
	"context"
	"time"

	"github.com/bytedance/gg/gslice"

	"github.com/tgifai/reminder/internal/pkg/logs"
	"github.com/tgifai/reminder/internal/pkg/prometheus"
	"github.com/tgifai/reminder/internal/provider"
)

// watchHealth re-lists models every HealthInterval until Close.
func (p *Provider) watchHealth() {
	ticker := time.NewTicker(p.config.HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.closeCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), p.config.Timeout)
			p.checkAvailability(ctx)
			cancel()
		}
	}
}

// checkAvailability lists the backend's models. Some OpenAI-compatible
// servers do not list every model they serve, so a missing default model is
// only logged.
func (p *Provider) checkAvailability(ctx context.Context) {
	models, err := p.ListModels(ctx)
	if err != nil {
		if p.setAvailable(false, nil) {
			logs.CtxWarn(ctx, "[provider:%s] backend unavailable: %v", p.config.ID, err)
		}
		return
	}

	if p.setAvailable(true, models) {
		logs.CtxInfo(ctx, "[provider:%s] backend available with %d models", p.config.ID, len(models))
	}
	offered := gslice.Map(models, func(m provider.ModelInfo) string { return m.ID })
	if !gslice.Contains(offered, p.config.DefaultModel) {
		logs.CtxWarn(ctx, "[provider:%s] model %s is not listed by the backend", p.config.ID, p.config.DefaultModel)
	}
}

// setAvailable records the health state and reports whether it changed.
// models is kept only when non-nil.
func (p *Provider) setAvailable(ok bool, models []provider.ModelInfo) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	changed := !p.checked || p.isAvailable != ok
	p.checked = true
	p.isAvailable = ok
	if !ok {
		p.availableModels = p.availableModels[:0]
	} else if models != nil {
		p.availableModels = models
	}

	if ok {
		prometheus.LLMAvailable.Set(1)
	} else {
		prometheus.LLMAvailable.Set(0)
	}
	return changed
}
