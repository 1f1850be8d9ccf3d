package holiday

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/time/rate"

	"github.com/tgifai/reminder/internal/pkg/logs"
	"github.com/tgifai/reminder/internal/pkg/prometheus"
)

// Classification of a calendar day.
type Classification int

const (
	Ordinary Classification = iota
	Holiday
	AdjustedWorkday
)

func (c Classification) String() string {
	switch c {
	case Holiday:
		return "holiday"
	case AdjustedWorkday:
		return "adjusted-workday"
	default:
		return "ordinary"
	}
}

// Calendar answers the workday/holiday questions asked by gated schedules.
type Calendar interface {
	IsHoliday(ctx context.Context, day time.Time) bool
	IsWorkday(ctx context.Context, day time.Time) bool
}

var errNoFetcher = errors.New("holiday: no fetcher configured")

const (
	defaultStaleAfter    = 30 * 24 * time.Hour
	defaultRetryInterval = 10 * time.Minute
)

type Options struct {
	Fs   afero.Fs
	Path string
	// Fetcher may be nil, the provider then answers from the cache and the
	// weekday heuristic only.
	Fetcher       Fetcher
	StaleAfter    time.Duration
	RetryInterval time.Duration
	Now           func() time.Time
}

// Provider classifies days from a per-year table fetched lazily and cached
// on disk. Fetch failures never surface to callers: they are logged and the
// weekday/weekend heuristic answers instead.
type Provider struct {
	fs         afero.Fs
	path       string
	fetcher    Fetcher
	staleAfter time.Duration
	now        func() time.Time

	mu    sync.Mutex
	cache cacheFile
	// failed years may only be refetched when retry grants a token.
	failed map[int]struct{}
	retry  *rate.Limiter
}

var _ Calendar = (*Provider)(nil)

func NewProvider(ctx context.Context, opts Options) *Provider {
	p := &Provider{
		fs:         opts.Fs,
		path:       opts.Path,
		fetcher:    opts.Fetcher,
		staleAfter: opts.StaleAfter,
		now:        opts.Now,
		cache:      newCacheFile(),
		failed:     make(map[int]struct{}),
	}
	if p.fs == nil {
		p.fs = afero.NewOsFs()
	}
	if p.staleAfter <= 0 {
		p.staleAfter = defaultStaleAfter
	}
	if p.now == nil {
		p.now = time.Now
	}
	retryInterval := opts.RetryInterval
	if retryInterval <= 0 {
		retryInterval = defaultRetryInterval
	}
	p.retry = rate.NewLimiter(rate.Every(retryInterval), 1)

	if p.path == "" {
		return p
	}
	cache, err := readCache(p.fs, p.path)
	if err != nil {
		logs.CtxWarn(ctx, "[holiday] load cache %s failed, starting empty: %v", p.path, err)
		return p
	}
	if p.isStale(cache) {
		logs.CtxInfo(ctx, "[holiday] cache %s is older than %s, discarding", p.path, p.staleAfter)
		return p
	}
	p.cache = cache
	return p
}

// Classify reports how the external calendar marks day. Days the table does
// not cover, or all days when the table is unavailable, are Ordinary.
func (p *Provider) Classify(ctx context.Context, day time.Time) Classification {
	marked, found := p.lookup(ctx, day)
	switch {
	case !found:
		return Ordinary
	case marked:
		return Holiday
	default:
		return AdjustedWorkday
	}
}

// IsHoliday is true for marked holidays, and for weekends that are not
// marked as adjusted workdays.
func (p *Provider) IsHoliday(ctx context.Context, day time.Time) bool {
	if marked, found := p.lookup(ctx, day); found {
		return marked
	}
	return isWeekend(day)
}

// IsWorkday is true for marked adjusted workdays, and for Monday to Friday
// when not marked as a holiday.
func (p *Provider) IsWorkday(ctx context.Context, day time.Time) bool {
	if marked, found := p.lookup(ctx, day); found {
		return !marked
	}
	return !isWeekend(day)
}

// Prefetch loads year into the cache, refetching even when it is present.
// Unlike the lookup path the error is returned.
func (p *Provider) Prefetch(ctx context.Context, year int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetchLocked(ctx, year)
}

// Years lists cached years.
func (p *Provider) Years() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int, 0, len(p.cache.years))
	for y := range p.cache.years {
		out = append(out, y)
	}
	return out
}

func (p *Provider) lookup(ctx context.Context, day time.Time) (marked, found bool) {
	table := p.table(ctx, day.Year())
	if table == nil {
		return false, false
	}
	marked, found = table[day.Format("01-02")]
	return marked, found
}

func (p *Provider) table(ctx context.Context, year int) map[string]bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.cache.years) > 0 && p.isStale(p.cache) {
		logs.CtxInfo(ctx, "[holiday] cache expired, refetching on demand")
		p.cache = newCacheFile()
	}
	if entry, ok := p.cache.years[year]; ok {
		return entry.Data
	}
	if p.fetcher == nil {
		return nil
	}
	if _, failed := p.failed[year]; failed && !p.retry.AllowN(p.now(), 1) {
		return nil
	}

	if err := p.fetchLocked(ctx, year); err != nil {
		logs.CtxWarn(ctx, "[holiday] fetch %d failed, using weekday fallback: %v", year, err)
		return nil
	}
	return p.cache.years[year].Data
}

func (p *Provider) fetchLocked(ctx context.Context, year int) error {
	if p.fetcher == nil {
		return errNoFetcher
	}

	table, err := p.fetcher.Fetch(ctx, year)
	if err != nil {
		p.failed[year] = struct{}{}
		// drain the token so the next attempt waits a full interval
		p.retry.AllowN(p.now(), 1)
		prometheus.HolidayFetches.WithLabelValues("error").Inc()
		return err
	}
	prometheus.HolidayFetches.WithLabelValues("ok").Inc()
	delete(p.failed, year)

	p.cache.years[year] = yearEntry{Data: table}
	p.cache.lastUpdate = p.now()
	if p.path != "" {
		if err := writeCache(p.fs, p.path, p.cache); err != nil {
			logs.CtxWarn(ctx, "[holiday] persist cache: %v", err)
		}
	}
	logs.CtxInfo(ctx, "[holiday] loaded %d marked days for %d", len(table), year)
	return nil
}

func (p *Provider) isStale(c cacheFile) bool {
	if c.lastUpdate.IsZero() {
		return len(c.years) > 0
	}
	return p.now().Sub(c.lastUpdate) > p.staleAfter
}

func isWeekend(day time.Time) bool {
	wd := day.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
