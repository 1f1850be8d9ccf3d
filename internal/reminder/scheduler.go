package reminder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"

	"github.com/tgifai/reminder/internal/config"
	"github.com/tgifai/reminder/internal/consts"
	"github.com/tgifai/reminder/internal/holiday"
	"github.com/tgifai/reminder/internal/pkg/logs"
	"github.com/tgifai/reminder/internal/pkg/prometheus"
	"github.com/tgifai/reminder/internal/pkg/utils"
	"github.com/tgifai/reminder/internal/session"
)

const (
	defaultMisfireGrace = 60 * time.Second
	defaultTickInterval = 30 * time.Second
	defaultJobTimeout   = 120 * time.Second
)

// FireFunc delivers one occurrence. key is the stored conversation key.
type FireFunc func(ctx context.Context, key string, item Item) error

type Options struct {
	Config   config.ReminderConfig
	Fs       afero.Fs
	Calendar holiday.Calendar
	Fire     FireFunc
	// Now overrides the wall clock, for tests.
	Now func() time.Time
}

// JobInfo describes one armed trigger.
type JobInfo struct {
	JobID  string    `json:"job_id"`
	Key    string    `json:"key"`
	ItemID string    `json:"item_id"`
	Text   string    `json:"text"`
	Repeat string    `json:"repeat"`
	Spec   string    `json:"spec"`
	Next   time.Time `json:"next"`
}

type armedJob struct {
	jobID   string
	key     string
	itemID  string
	trigger Trigger
	gate    Gate
	next    time.Time
}

// Scheduler owns the armed triggers of every stored item and fires them from
// a single loop. Occurrences are dispatched one at a time.
type Scheduler struct {
	fs       afero.Fs
	calendar holiday.Calendar
	fire     FireFunc
	now      func() time.Time

	store    atomic.Pointer[Store]
	resolver atomic.Pointer[session.Resolver]
	// storeMu is held shared by item operations and exclusively while Apply
	// swaps the store, so no write lands in a store being replaced.
	storeMu sync.RWMutex

	mu        sync.Mutex
	cfg       config.ReminderConfig
	loc       *time.Location
	grace     time.Duration
	tick      time.Duration
	timeout   time.Duration
	jobs      map[string]*armedJob // keyed by job id
	itemIndex map[string]string    // item id -> job id

	wake   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler over the store named in opts.Config.
// Call Start to load it and begin firing.
func NewScheduler(opts Options) *Scheduler {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Scheduler{
		fs:        opts.Fs,
		calendar:  opts.Calendar,
		fire:      opts.Fire,
		now:       opts.Now,
		jobs:      make(map[string]*armedJob),
		itemIndex: make(map[string]string),
		wake:      make(chan struct{}, 1),
	}
	s.applySettings(opts.Config)
	s.store.Store(s.newStore(opts.Config.Store))
	return s
}

func (s *Scheduler) newStore(path string) *Store {
	st := NewStore(s.fs, path, s.loc)
	st.now = s.now
	st.armed = s.isArmed
	return st
}

func (s *Scheduler) isArmed(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.itemIndex[itemID]
	return ok
}

func (s *Scheduler) applySettings(cfg config.ReminderConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.loc = cfg.Location()
	s.grace = orDefault(cfg.MisfireGrace(), defaultMisfireGrace)
	s.tick = orDefault(cfg.TickInterval(), defaultTickInterval)
	s.timeout = orDefault(cfg.JobTimeout(), defaultJobTimeout)
	s.resolver.Store(session.NewResolver(cfg.UniqueSession))
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func (s *Scheduler) Store() *Store { return s.store.Load() }

// Resolver maps inbound conversations to storage keys under the current
// isolation setting.
func (s *Scheduler) Resolver() *session.Resolver { return s.resolver.Load() }

func (s *Scheduler) Location() *time.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loc
}

// Now is the scheduler's clock in its configured location.
func (s *Scheduler) Now() time.Time {
	return s.now().In(s.Location())
}

// Start loads the store, arms every persisted item and begins the loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.Store().Load(); err != nil {
		return fmt.Errorf("load reminder store: %w", err)
	}
	n, err := s.RehydrateAll(ctx)
	if err != nil {
		return err
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()

	logs.CtxInfo(ctx, "[reminder] scheduler started (armed=%d, store=%s)", n, s.Store().Path())
	return nil
}

// Stop ends the loop and waits for an in-flight dispatch, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logs.CtxWarn(ctx, "[reminder] stop timed out waiting for dispatch")
	}

	if err := s.Store().Save(); err != nil {
		logs.CtxWarn(ctx, "[reminder] save store on shutdown: %v", err)
	}
	logs.CtxInfo(ctx, "[reminder] scheduler stopped")
}

// Apply takes a reloaded configuration. Timing settings and isolation change
// in place; a new store path or timezone reloads and re-arms everything
// without restarting the loop.
func (s *Scheduler) Apply(ctx context.Context, cfg config.ReminderConfig) error {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	s.mu.Lock()
	prev := s.cfg
	s.mu.Unlock()

	s.applySettings(cfg)
	if cfg.Store == prev.Store && cfg.Location().String() == prev.Location().String() {
		s.notify()
		return nil
	}

	st := s.newStore(cfg.Store)
	if err := st.Load(); err != nil {
		return fmt.Errorf("load reminder store: %w", err)
	}
	s.store.Store(st)
	n, err := s.RehydrateAll(ctx)
	if err != nil {
		return err
	}
	logs.CtxInfo(ctx, "[reminder] store re-pointed to %s (armed=%d)", st.Path(), n)
	return nil
}

// ---------------------------------------------------------------------------
// arming
// ---------------------------------------------------------------------------

// Arm computes the trigger for item and adds it to the loop. An item that
// is already armed is replaced. Outdated one-shots are refused.
func (s *Scheduler) Arm(key string, item Item) (string, error) {
	loc := s.Location()
	trig, rule, err := NewTrigger(item, loc)
	if err != nil {
		return "", err
	}
	now := s.now().In(loc)
	next := trig.Next(now.Add(-time.Nanosecond))
	if next.IsZero() {
		if !rule.Periodic() {
			return "", ErrOutdated
		}
		return "", fmt.Errorf("repeat %q never fires", item.Repeat)
	}

	job := &armedJob{
		jobID:   fmt.Sprintf("reminder_%s_%s_%d%s", key, item.ID, now.UnixNano(), utils.RandDigits(4)),
		key:     key,
		itemID:  item.ID,
		trigger: trig,
		gate:    rule.Gate,
		next:    next,
	}

	s.mu.Lock()
	if prev, ok := s.itemIndex[item.ID]; ok {
		delete(s.jobs, prev)
	}
	s.jobs[job.jobID] = job
	s.itemIndex[item.ID] = job.jobID
	prometheus.ArmedJobs.Set(float64(len(s.jobs)))
	s.mu.Unlock()

	s.notify()
	return job.jobID, nil
}

// Cancel removes an armed trigger. Unknown ids are ignored.
func (s *Scheduler) Cancel(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		logs.Debug("[reminder] cancel: job %s not armed", jobID)
		return false
	}
	s.disarmLocked(job)
	return true
}

// CancelItem removes the trigger armed for an item id.
func (s *Scheduler) CancelItem(itemID string) bool {
	s.mu.Lock()
	jobID, ok := s.itemIndex[itemID]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return s.Cancel(jobID)
}

func (s *Scheduler) disarmLocked(job *armedJob) {
	delete(s.jobs, job.jobID)
	if s.itemIndex[job.itemID] == job.jobID {
		delete(s.itemIndex, job.itemID)
	}
	prometheus.ArmedJobs.Set(float64(len(s.jobs)))
}

// RehydrateAll drops every armed trigger and re-arms the store's contents.
// Bare "HH:MM" datetimes are repaired, unparsable items are skipped and
// one-shots already in the past are left for pruning. Calling it twice
// leaves exactly one trigger per item.
func (s *Scheduler) RehydrateAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	s.jobs = make(map[string]*armedJob)
	s.itemIndex = make(map[string]string)
	prometheus.ArmedJobs.Set(0)
	s.mu.Unlock()

	st := s.Store()
	now := s.Now()
	snapshot := st.Snapshot()
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	armed, repaired := 0, 0
	for _, key := range keys {
		for _, it := range snapshot[key] {
			fixed, changed, err := RepairDateTime(it.DateTime, now)
			if err != nil {
				logs.CtxWarn(ctx, "[reminder] skip %s item %s: %v", key, it.ID, err)
				continue
			}
			if changed {
				logs.CtxInfo(ctx, "[reminder] repaired datetime %q -> %q for %s", it.DateTime, fixed, key)
				it.DateTime = fixed
				st.Replace(key, it)
				repaired++
			}
			if _, err := s.Arm(key, it); err != nil {
				if errors.Is(err, ErrOutdated) {
					logs.CtxDebug(ctx, "[reminder] skip outdated %s item %s", key, it.ID)
				} else {
					logs.CtxWarn(ctx, "[reminder] skip %s item %s: %v", key, it.ID, err)
				}
				continue
			}
			armed++
		}
	}

	if err := st.Save(); err != nil {
		return armed, fmt.Errorf("save reminder store: %w", err)
	}
	logs.CtxDebug(ctx, "[reminder] rehydrated %d triggers (%d repaired)", armed, repaired)
	return armed, nil
}

// Jobs lists armed triggers ordered by next fire time.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	jobs := make([]armedJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, *j)
	}
	s.mu.Unlock()

	st := s.Store()
	out := make([]JobInfo, 0, len(jobs))
	for _, j := range jobs {
		info := JobInfo{JobID: j.jobID, Key: j.key, ItemID: j.itemID, Spec: j.trigger.Spec(), Next: j.next}
		if it, ok := st.Find(j.key, j.itemID); ok {
			info.Text, info.Repeat = it.Text, it.Repeat
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].Next.Equal(out[k].Next) {
			return out[i].JobID < out[k].JobID
		}
		return out[i].Next.Before(out[k].Next)
	})
	return out
}

// ---------------------------------------------------------------------------
// item operations
// ---------------------------------------------------------------------------

// Register validates item, appends it to key's list, arms it and persists.
// The stored copy is returned with its id and canonical fields filled in.
func (s *Scheduler) Register(ctx context.Context, key string, item Item) (Item, error) {
	item.Text = strings.TrimSpace(item.Text)
	if item.Text == "" {
		return Item{}, ErrEmptyText
	}
	rule, err := item.Rule()
	if err != nil {
		return Item{}, err
	}
	item.Repeat = rule.String()
	fixed, _, err := RepairDateTime(item.DateTime, s.Now())
	if err != nil {
		return Item{}, err
	}
	item.DateTime = fixed
	if item.UserName == "" {
		item.UserName = consts.DefaultRecipient
	}
	if item.ID == "" {
		item.ID = newItemID()
	}
	if item.CreatedAt == "" {
		item.CreatedAt = s.Now().Format(time.RFC3339)
	}
	if IsOutdated(item, s.Now(), s.Location()) {
		return Item{}, ErrOutdated
	}

	s.storeMu.RLock()
	defer s.storeMu.RUnlock()
	st := s.Store()
	st.Append(key, item)
	jobID, err := s.Arm(key, item)
	if err != nil {
		st.RemoveByID(key, item.ID)
		return Item{}, err
	}
	if err := st.Save(); err != nil {
		s.Cancel(jobID)
		st.RemoveByID(key, item.ID)
		return Item{}, fmt.Errorf("persist %s: %w", item.Kind(), err)
	}

	logs.CtxInfo(ctx, "[reminder] registered %s %s for %s at %s (%s)", item.Kind(), item.ID, key, item.DateTime, item.Repeat)
	return item, nil
}

// List returns key's items in stored order; positions are 0-based here and
// shown 1-based to users.
func (s *Scheduler) List(key string) []Item {
	return s.Store().List(key)
}

// Delete removes the item at 1-based position pos of key's list.
func (s *Scheduler) Delete(ctx context.Context, key string, pos int) (Item, error) {
	s.storeMu.RLock()
	defer s.storeMu.RUnlock()
	st := s.Store()
	it, err := st.RemoveAt(key, pos-1)
	if err != nil {
		return Item{}, err
	}
	s.CancelItem(it.ID)
	if err := st.Save(); err != nil {
		return it, fmt.Errorf("persist delete: %w", err)
	}
	logs.CtxInfo(ctx, "[reminder] deleted %s %s from %s", it.Kind(), it.ID, key)
	return it, nil
}

// DeleteMatching removes every item of key's list selected by f.
func (s *Scheduler) DeleteMatching(ctx context.Context, key string, f DeleteFilter) ([]Item, error) {
	cf, err := f.compile()
	if err != nil {
		return nil, err
	}
	s.storeMu.RLock()
	defer s.storeMu.RUnlock()
	loc := s.Location()
	st := s.Store()
	removed := st.RemoveMatching(key, func(it Item) bool { return cf.match(it, loc) })
	if len(removed) == 0 {
		return nil, ErrNoMatch
	}
	for _, it := range removed {
		s.CancelItem(it.ID)
	}
	if err := st.Save(); err != nil {
		return removed, fmt.Errorf("persist delete: %w", err)
	}
	logs.CtxInfo(ctx, "[reminder] deleted %d items from %s (%s)", len(removed), key, f.Describe())
	return removed, nil
}

// ---------------------------------------------------------------------------
// loop
// ---------------------------------------------------------------------------

func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	timer := time.NewTimer(s.sleepFor(s.now()))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		case <-timer.C:
		}
		s.fireDue(ctx, s.now())
		timer.Reset(s.sleepFor(s.now()))
	}
}

// sleepFor is the wait until the earliest armed occurrence, capped by the
// tick interval so wall clock jumps are noticed.
func (s *Scheduler) sleepFor(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.tick
	for _, j := range s.jobs {
		if until := j.next.Sub(now); until < d {
			d = until
		}
	}
	if d < 0 {
		return 0
	}
	return d
}

// fireDue runs every occurrence due at now, oldest first.
func (s *Scheduler) fireDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	var due []armedJob
	for _, j := range s.jobs {
		if !j.next.After(now) {
			due = append(due, *j)
		}
	}
	grace := s.grace
	s.mu.Unlock()

	sort.Slice(due, func(i, k int) bool { return due[i].next.Before(due[k].next) })
	for _, job := range due {
		if ctx.Err() != nil {
			return
		}
		s.runOccurrence(ctx, job, now, grace)
	}
}

func (s *Scheduler) runOccurrence(ctx context.Context, job armedJob, now time.Time, grace time.Duration) {
	ctx = logs.SetLogID(ctx, logs.NewLogID())
	ctx = context.WithValue(ctx, consts.CtxKeyItemID, job.itemID)
	st := s.Store()

	item, ok := st.Find(job.key, job.itemID)
	if !ok {
		logs.CtxDebug(ctx, "[reminder] job %s: item gone, disarming", job.jobID)
		s.Cancel(job.jobID)
		return
	}

	if late := now.Sub(job.next); late > grace {
		logs.CtxWarn(ctx, "[reminder] %s %s missed by %s (grace %s), skipped", item.Kind(), item.ID, late.Truncate(time.Second), grace)
		prometheus.SkippedTotal.WithLabelValues("misfire").Inc()
		s.advance(job, now)
		return
	}

	if job.gate != GateNone && s.calendar != nil && !job.gate.Allows(ctx, s.calendar, job.next) {
		logs.CtxInfo(ctx, "[reminder] %s %s skipped on %s: not a %s", item.Kind(), item.ID, job.next.Format(time.DateOnly), job.gate)
		prometheus.SkippedTotal.WithLabelValues("gate").Inc()
		s.advance(job, now)
		return
	}

	if err := s.dispatch(ctx, job.key, item); err != nil {
		logs.CtxError(ctx, "[reminder] dispatch %s %s for %s: %v", item.Kind(), item.ID, job.key, err)
		prometheus.DispatchErrors.Inc()
	} else {
		prometheus.FiredTotal.WithLabelValues(item.Kind()).Inc()
		logs.CtxInfo(ctx, "[reminder] fired %s %s for %s", item.Kind(), item.ID, job.key)
	}

	if !job.trigger.Periodic() {
		s.Cancel(job.jobID)
		if _, ok := st.RemoveByID(job.key, job.itemID); ok {
			if err := st.Save(); err != nil {
				logs.CtxWarn(ctx, "[reminder] persist after one-shot %s: %v", item.ID, err)
			}
		}
		return
	}
	s.advance(job, now)
}

// advance moves a job to its next occurrence after now. The entry may have
// been cancelled or re-armed while the callback ran.
func (s *Scheduler) advance(job armedJob, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.jobs[job.jobID]
	if !ok {
		return
	}
	next := cur.trigger.Next(now)
	if next.IsZero() {
		s.disarmLocked(cur)
		return
	}
	cur.next = next
}

func (s *Scheduler) dispatch(ctx context.Context, key string, item Item) (err error) {
	if s.fire == nil {
		return errors.New("no dispatch callback configured")
	}
	s.mu.Lock()
	timeout := s.timeout
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch panic: %v", r)
		}
	}()
	return s.fire(ctx, key, item)
}
