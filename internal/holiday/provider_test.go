package holiday

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	calls atomic.Int32
	years map[int]map[string]bool
	err   error
}

func (f *fakeFetcher) Fetch(_ context.Context, year int) (map[string]bool, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.years[year], nil
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.Local)
}

// 2024: Feb 4 (Sun) adjusted workday, Feb 10 (Sat) and Feb 12 (Mon) holidays.
func springFestival() *fakeFetcher {
	return &fakeFetcher{years: map[int]map[string]bool{
		2024: {"02-04": false, "02-10": true, "02-12": true},
	}}
}

func TestProvider_FallbackNeverBothTrue(t *testing.T) {
	p := NewProvider(context.Background(), Options{Fs: afero.NewMemMapFs()})
	ctx := context.Background()

	start := date(2024, 1, 1)
	for i := 0; i < 366; i++ {
		d := start.AddDate(0, 0, i)
		h, w := p.IsHoliday(ctx, d), p.IsWorkday(ctx, d)
		assert.False(t, h && w, "both true on %s", d.Format(time.DateOnly))
		assert.True(t, h || w, "neither true on %s", d.Format(time.DateOnly))
		assert.Equal(t, isWeekend(d), h)
	}
}

func TestProvider_ExternalData(t *testing.T) {
	ctx := context.Background()
	p := NewProvider(ctx, Options{Fs: afero.NewMemMapFs(), Path: "/c.json", Fetcher: springFestival()})

	// adjusted workday on a Sunday
	assert.True(t, p.IsWorkday(ctx, date(2024, 2, 4)))
	assert.False(t, p.IsHoliday(ctx, date(2024, 2, 4)))
	assert.Equal(t, AdjustedWorkday, p.Classify(ctx, date(2024, 2, 4)))

	// holiday on a Monday
	assert.True(t, p.IsHoliday(ctx, date(2024, 2, 12)))
	assert.False(t, p.IsWorkday(ctx, date(2024, 2, 12)))
	assert.Equal(t, Holiday, p.Classify(ctx, date(2024, 2, 12)))

	// unmarked days fall back to the weekday rule
	assert.True(t, p.IsWorkday(ctx, date(2024, 2, 20)))
	assert.True(t, p.IsHoliday(ctx, date(2024, 2, 17)))
	assert.Equal(t, Ordinary, p.Classify(ctx, date(2024, 2, 17)))
}

func TestProvider_FetchesOncePerYearAndPersists(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	f := springFestival()
	clk := &clock{t: date(2024, 2, 1)}

	p := NewProvider(ctx, Options{Fs: fs, Path: "/data/c.json", Fetcher: f, Now: clk.Now})
	for i := 0; i < 5; i++ {
		p.IsWorkday(ctx, date(2024, 2, 4))
	}
	assert.EqualValues(t, 1, f.calls.Load())

	raw, err := afero.ReadFile(fs, "/data/c.json")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"2024":{"data":{"02-04":false,"02-10":true,"02-12":true}}`)
	assert.Contains(t, string(raw), `"last_update"`)

	// a restarted provider serves from disk
	f2 := springFestival()
	p2 := NewProvider(ctx, Options{Fs: fs, Path: "/data/c.json", Fetcher: f2, Now: clk.Now})
	assert.True(t, p2.IsWorkday(ctx, date(2024, 2, 4)))
	assert.EqualValues(t, 0, f2.calls.Load())
	assert.Equal(t, []int{2024}, p2.Years())
}

func TestProvider_StaleCacheIsRefetched(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	old := date(2024, 1, 1)
	require.NoError(t, writeCache(fs, "/c.json", cacheFile{
		years:      map[int]yearEntry{2024: {Data: map[string]bool{"02-04": true}}},
		lastUpdate: old,
	}))

	f := springFestival()
	clk := &clock{t: old.Add(31 * 24 * time.Hour)}
	p := NewProvider(ctx, Options{Fs: fs, Path: "/c.json", Fetcher: f, Now: clk.Now})

	assert.True(t, p.IsWorkday(ctx, date(2024, 2, 4)), "stale entry must not be served")
	assert.EqualValues(t, 1, f.calls.Load())
}

func TestProvider_ExpiresWhileRunning(t *testing.T) {
	ctx := context.Background()
	f := springFestival()
	clk := &clock{t: date(2024, 2, 1)}
	p := NewProvider(ctx, Options{Fs: afero.NewMemMapFs(), Path: "/c.json", Fetcher: f, Now: clk.Now})

	p.IsWorkday(ctx, date(2024, 2, 4))
	clk.Advance(30*24*time.Hour + time.Minute)
	p.IsWorkday(ctx, date(2024, 2, 4))
	assert.EqualValues(t, 2, f.calls.Load())
}

func TestProvider_FailureFallsBackAndThrottles(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{err: errors.New("connection refused")}
	clk := &clock{t: date(2024, 2, 1)}
	p := NewProvider(ctx, Options{
		Fs:            afero.NewMemMapFs(),
		Fetcher:       f,
		RetryInterval: time.Minute,
		Now:           clk.Now,
	})

	// Sunday, no data: weekend heuristic
	assert.False(t, p.IsWorkday(ctx, date(2024, 2, 4)))
	assert.True(t, p.IsHoliday(ctx, date(2024, 2, 4)))
	assert.EqualValues(t, 1, f.calls.Load(), "second lookup is throttled")

	clk.Advance(time.Minute)
	p.IsWorkday(ctx, date(2024, 2, 4))
	assert.EqualValues(t, 2, f.calls.Load())

	assert.Error(t, p.Prefetch(ctx, 2024))
}

func TestProvider_CorruptCacheStartsEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/c.json", []byte("{not json"), 0o644))
	p := NewProvider(context.Background(), Options{Fs: fs, Path: "/c.json"})
	assert.Empty(t, p.Years())
}

func TestReadCache_LegacyTimestamp(t *testing.T) {
	fs := afero.NewMemMapFs()
	raw := `{"2024": {"data": {"01-01": true}}, "last_update": "2024-01-05T10:00:00.123456"}`
	require.NoError(t, afero.WriteFile(fs, "/c.json", []byte(raw), 0o644))

	c, err := readCache(fs, "/c.json")
	require.NoError(t, err)
	assert.Equal(t, 2024, c.lastUpdate.Year())
	assert.True(t, c.years[2024].Data["01-01"])
}

func TestCache_WriteThenRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	in := newCacheFile()
	in.years[2024] = yearEntry{Data: map[string]bool{"01-01": true, "02-04": false}}
	in.years[2025] = yearEntry{Data: map[string]bool{}}
	in.lastUpdate = stamp

	require.NoError(t, writeCache(fs, "/dir/c.json", in))

	out, err := readCache(fs, "/dir/c.json")
	require.NoError(t, err)
	assert.True(t, out.lastUpdate.Equal(stamp))
	assert.Equal(t, in.years, out.years)
}

func TestReadCache_SkipsMalformedYears(t *testing.T) {
	fs := afero.NewMemMapFs()
	raw := `{"2024": {"data": {"01-01": true}}, "2025": "oops", "notes": 1, "last_update": "2024-01-05T10:00:00Z"}`
	require.NoError(t, afero.WriteFile(fs, "/c.json", []byte(raw), 0o644))

	c, err := readCache(fs, "/c.json")
	require.NoError(t, err)
	assert.Len(t, c.years, 1)
	assert.True(t, c.years[2024].Data["01-01"])
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/holiday/year/2024":
			fmt.Fprint(w, `{"code":0,"holiday":{"02-10":{"holiday":true,"name":"春节","date":"2024-02-10"},"02-04":{"holiday":false,"name":"春节前补班"},"bad":{"holiday":true}}}`)
		case "/api/holiday/year/2025":
			fmt.Fprint(w, `{"code":-1}`)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(srv.URL+"/api/holiday/year/", time.Second)
	require.NoError(t, err)
	ctx := context.Background()

	table, err := f.Fetch(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"02-10": true, "02-04": false}, table)

	_, err = f.Fetch(ctx, 2025)
	assert.ErrorContains(t, err, "code -1")

	_, err = f.Fetch(ctx, 2026)
	assert.ErrorContains(t, err, "unexpected status 502")
}
