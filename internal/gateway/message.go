package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tgifai/reminder/internal/channel"
	"github.com/tgifai/reminder/internal/pkg/logs"
)

const (
	defaultLaneBuffer  = 10
	defaultLaneIdle    = 5 * time.Minute
	defaultConcurrency = 16
)

var errQueueNotReady = errors.New("message queue not initialized")

type QueueOptions struct {
	LaneBuffer    int
	MaxConcurrent int
	// IdleTimeout is how long a conversation lane stays alive without
	// messages.
	IdleTimeout time.Duration
}

// lane carries the messages of one conversation address. pending counts
// messages accepted but not yet handled, and is guarded by the queue mutex.
type lane struct {
	ch      chan *channel.Message
	pending int
}

// MessageQueue handles the messages of one conversation in arrival order,
// while different conversations run in parallel up to MaxConcurrent.
type MessageQueue struct {
	mu      sync.Mutex
	lanes   map[string]*lane
	ctx     context.Context
	handler func(context.Context, *channel.Message) error

	laneBuffer int
	idle       time.Duration
	slots      chan struct{}
}

func newMessageQueue(opts QueueOptions) *MessageQueue {
	if opts.LaneBuffer <= 0 {
		opts.LaneBuffer = defaultLaneBuffer
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaultConcurrency
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultLaneIdle
	}
	return &MessageQueue{
		lanes:      make(map[string]*lane),
		laneBuffer: opts.LaneBuffer,
		idle:       opts.IdleTimeout,
		slots:      make(chan struct{}, opts.MaxConcurrent),
	}
}

func (q *MessageQueue) Init(ctx context.Context, handler func(context.Context, *channel.Message) error) error {
	if handler == nil {
		return errors.New("message handler cannot be nil")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ctx = ctx
	q.handler = handler
	return nil
}

// Enqueue blocks while the conversation's lane is full.
func (q *MessageQueue) Enqueue(ctx context.Context, msg *channel.Message) error {
	l, err := q.claim(msg.Address)
	if err != nil {
		return err
	}
	select {
	case l.ch <- msg:
		return nil
	case <-ctx.Done():
		q.done(l)
		return ctx.Err()
	}
}

// Lanes reports the number of live conversation lanes.
func (q *MessageQueue) Lanes() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lanes)
}

func (q *MessageQueue) claim(address string) (*lane, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.handler == nil {
		return nil, errQueueNotReady
	}
	l, ok := q.lanes[address]
	if !ok {
		l = &lane{ch: make(chan *channel.Message, q.laneBuffer)}
		q.lanes[address] = l
		go q.run(address, l)
	}
	l.pending++
	return l, nil
}

func (q *MessageQueue) done(l *lane) {
	q.mu.Lock()
	l.pending--
	q.mu.Unlock()
}

// reap drops the lane when nothing is pending. A sender always claims the
// lane before writing to it, so a reaped lane never loses a message.
func (q *MessageQueue) reap(address string, l *lane) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if l.pending > 0 {
		return false
	}
	delete(q.lanes, address)
	return true
}

func (q *MessageQueue) run(address string, l *lane) {
	idle := time.NewTimer(q.idle)
	defer idle.Stop()
	for {
		select {
		case <-q.ctx.Done():
			return
		case <-idle.C:
			if q.reap(address, l) {
				return
			}
			idle.Reset(q.idle)
		case msg := <-l.ch:
			q.handle(address, msg)
			q.done(l)
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(q.idle)
		}
	}
}

func (q *MessageQueue) handle(address string, msg *channel.Message) {
	select {
	case q.slots <- struct{}{}:
	case <-q.ctx.Done():
		return
	}
	defer func() { <-q.slots }()

	ctx := logs.WithLogID(q.ctx)
	defer func() {
		if r := recover(); r != nil {
			logs.CtxError(ctx, "[queue] panic while handling message in lane %s: %v", address, r)
		}
	}()
	if err := q.handler(ctx, msg); err != nil {
		logs.CtxWarn(ctx, "[queue] failed to process message in lane %s: %v", address, err)
	}
}
