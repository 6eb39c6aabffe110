package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"social-go/internal/logging"
	"social-go/internal/metrics"
)

// ErrBusClosed is returned by Close when called twice.
var ErrBusClosed = errors.New("events: bus closed")

type registry struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler
}

func (r *registry) Subscribe(kind Kind, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handlers == nil {
		r.handlers = make(map[Kind][]Handler)
	}
	r.handlers[kind] = append(r.handlers[kind], h)
}

func (r *registry) lookup(kind Kind) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[kind]
}

// dispatch runs every handler for ev, recovering panics so one bad handler
// cannot take down a worker.
func (r *registry) dispatch(ctx context.Context, ev Event) {
	for _, h := range r.lookup(ev.Kind) {
		start := time.Now()
		err := safeCall(ctx, h, ev)
		metrics.ObserveHandler(string(ev.Kind), start)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("event", string(ev.Kind)).Msg("event handler failed")
		}
	}
}

func safeCall(ctx context.Context, h Handler, ev Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return h(ctx, ev)
}

type job struct {
	ctx context.Context
	ev  Event
}

// AsyncBus runs handlers on a fixed worker pool fed by a bounded queue.
// Publish never blocks: when the queue is full the event is dropped.
type AsyncBus struct {
	registry
	queue  chan job
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewAsyncBus starts workers goroutines draining a queue of queueSize events.
func NewAsyncBus(workers, queueSize int) *AsyncBus {
	if workers < 1 {
		workers = 1
	}
	b := &AsyncBus{queue: make(chan job, queueSize)}
	for i := 0; i < workers; i++ {
		b.wg.Add(1)
		go b.worker()
	}
	return b
}

func (b *AsyncBus) worker() {
	defer b.wg.Done()
	for j := range b.queue {
		b.dispatch(j.ctx, j.ev)
	}
}

// Publish enqueues ev. Handlers see a context detached from ctx's
// cancellation, so a finished request does not abort its side effects.
func (b *AsyncBus) Publish(ctx context.Context, ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		logging.Ctx(ctx).Warn().Str("event", string(ev.Kind)).Msg("event published after bus shutdown, dropped")
		metrics.EventBusDroppedTotal.WithLabelValues(string(ev.Kind)).Inc()
		return
	}
	select {
	case b.queue <- job{ctx: context.WithoutCancel(ctx), ev: ev}:
	default:
		logging.Ctx(ctx).Warn().Str("event", string(ev.Kind)).Msg("event queue full, dropping event")
		metrics.EventBusDroppedTotal.WithLabelValues(string(ev.Kind)).Inc()
	}
}

// Close stops accepting events and waits for queued ones to finish or ctx to expire.
func (b *AsyncBus) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBusClosed
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SyncBus runs handlers inline on Publish. Used by tests and tools.
type SyncBus struct {
	registry
}

func NewSyncBus() *SyncBus { return &SyncBus{} }

func (b *SyncBus) Publish(ctx context.Context, ev Event) {
	b.dispatch(context.WithoutCancel(ctx), ev)
}
