package realtime

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"social-go/internal/logging"
	"social-go/internal/metrics"
)

// BreakerEmitter stops calling a failing emitter for a cool-down period so
// side-effect workers do not pile up behind an unavailable relay.
type BreakerEmitter struct {
	next Emitter
	cb   *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerEmitter trips after failures consecutive errors and retries after timeout.
func NewBreakerEmitter(next Emitter, failures uint32, timeout time.Duration) *BreakerEmitter {
	log := logging.WithComponent("realtime")
	settings := gobreaker.Settings{
		Name:        "realtime-emitter",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}
	return &BreakerEmitter{next: next, cb: gobreaker.NewCircuitBreaker[struct{}](settings)}
}

func (b *BreakerEmitter) EmitToRoom(ctx context.Context, room, event string, payload any) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.EmitToRoom(ctx, room, event, payload)
	})
	if err != nil {
		metrics.RealtimeEmitFailuresTotal.WithLabelValues(event).Inc()
	}
	return err
}

// State reports the breaker state, for health endpoints.
func (b *BreakerEmitter) State() gobreaker.State {
	return b.cb.State()
}
