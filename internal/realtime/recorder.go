package realtime

import (
	"context"
	"sync"

	"github.com/goccy/go-json"
)

// Emission is one call observed by a Recorder.
type Emission struct {
	Room    string
	Event   string
	Payload json.RawMessage
}

// Recorder is an in-memory Emitter that keeps every emission. Payloads are
// stored encoded, exactly as a client would receive them.
type Recorder struct {
	mu        sync.Mutex
	emissions []Emission
	Err       error
}

func (r *Recorder) EmitToRoom(_ context.Context, room, event string, payload any) error {
	if r.Err != nil {
		return r.Err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emissions = append(r.emissions, Emission{Room: room, Event: event, Payload: raw})
	return nil
}

// Emissions returns a snapshot of everything recorded so far.
func (r *Recorder) Emissions() []Emission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Emission(nil), r.emissions...)
}

// To returns the emissions of event delivered to room.
func (r *Recorder) To(room, event string) []Emission {
	var out []Emission
	for _, e := range r.Emissions() {
		if e.Room == room && e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
