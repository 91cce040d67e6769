// Package request drives a single streamed prompt through its lifecycle.
//
// A Hook owns one StreamRequestState. Each submitted query starts a run
// tagged with a generation number; callbacks from a run whose generation is
// no longer current are dropped, so the last query always wins.
package request

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/cloudwego/eino/schema"

	"github.com/vedpatil1345/codetalk/internal/service/ai"
)

// Status is the lifecycle phase of a hook.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Streamer opens a streamed completion for a query.
type Streamer interface {
	Stream(ctx context.Context, query string) (*schema.StreamReader[*schema.Message], error)
}

// State is a snapshot of a hook.
type State struct {
	Query        string       `json:"query"`
	Response     string       `json:"response"`
	Status       Status       `json:"status"`
	ErrorKind    ai.ErrorKind `json:"errorKind,omitempty"`
	Error        string       `json:"error,omitempty"`
	RetryOrdinal int          `json:"retryOrdinal"`
	Generation   uint64       `json:"generation"`
}

// Loading reports whether the loading view applies.
func (s State) Loading() bool { return s.Status == StatusPending }

// Terminal reports whether the run finished, successfully or not.
func (s State) Terminal() bool {
	return s.Status == StatusSucceeded || s.Status == StatusFailed
}

// Listener receives every state transition in the order it happened.
// Listeners run while the hook serializes delivery and must not call back
// into the hook on the same goroutine.
type Listener func(State)

// Hook manages one in-flight request per query and its retries.
type Hook struct {
	streamer Streamer

	// emitMu orders delivery; it is always taken before mu.
	emitMu sync.Mutex

	mu        sync.Mutex
	state     State
	cancel    context.CancelFunc
	listeners map[int]Listener
	nextID    int
	closed    bool
}

// New returns an idle hook backed by streamer.
func New(streamer Streamer) *Hook {
	return &Hook{
		streamer:  streamer,
		state:     State{Status: StatusIdle},
		listeners: make(map[int]Listener),
	}
}

// State returns the current snapshot.
func (h *Hook) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Subscribe registers fn and returns a function that removes it.
func (h *Hook) Subscribe(fn Listener) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return func() {}
	}

	id := h.nextID
	h.nextID++
	h.listeners[id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners, id)
	}
}

// SetQuery submits a query. An empty query clears the hook back to idle and
// an unchanged query is ignored.
func (h *Hook) SetQuery(query string) {
	if strings.TrimSpace(query) == "" {
		h.Clear()
		return
	}

	h.transition(func(s *State) bool {
		if s.Query == query && s.Status != StatusIdle {
			return false
		}
		s.Query = query
		return true
	}, true)
}

// Retry re-runs the current query even when it has not changed.
func (h *Hook) Retry() {
	h.transition(func(s *State) bool {
		if s.Query == "" {
			return false
		}
		s.RetryOrdinal++
		return true
	}, true)
}

// Clear supersedes any run and returns to idle.
func (h *Hook) Clear() {
	h.transition(func(s *State) bool {
		if s.Status == StatusIdle && s.Query == "" && s.RetryOrdinal == 0 {
			return false
		}
		s.Query = ""
		s.Response = ""
		s.Status = StatusIdle
		s.ErrorKind = ""
		s.Error = ""
		s.RetryOrdinal = 0
		return true
	}, false)
}

// Close supersedes any run and drops every listener. The hook ignores all
// later calls.
func (h *Hook) Close() {
	h.emitMu.Lock()
	defer h.emitMu.Unlock()
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	h.state.Generation++
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	h.listeners = nil
}

// transition applies mutate and, when start is set, launches a new run for
// the resulting query. Any previous run is superseded whenever mutate
// reports a change.
func (h *Hook) transition(mutate func(*State) bool, start bool) {
	h.emitMu.Lock()
	defer h.emitMu.Unlock()

	h.mu.Lock()
	if h.closed || !mutate(&h.state) {
		h.mu.Unlock()
		return
	}

	h.state.Generation++
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}

	if start {
		h.state.Status = StatusPending
		h.state.Response = ""
		h.state.ErrorKind = ""
		h.state.Error = ""

		ctx, cancel := context.WithCancel(context.Background())
		h.cancel = cancel
		go h.run(ctx, h.state.Generation, h.state.Query)
	}

	snapshot, listeners := h.state, h.snapshotListeners()
	h.mu.Unlock()

	notify(listeners, snapshot)
}

// apply mutates state for the run tagged gen. It returns false once the run
// has been superseded.
func (h *Hook) apply(gen uint64, mutate func(*State)) bool {
	h.emitMu.Lock()
	defer h.emitMu.Unlock()

	h.mu.Lock()
	if h.closed || h.state.Generation != gen {
		h.mu.Unlock()
		return false
	}
	mutate(&h.state)
	if h.state.Status != StatusPending && h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	snapshot, listeners := h.state, h.snapshotListeners()
	h.mu.Unlock()

	notify(listeners, snapshot)
	return true
}

func (h *Hook) run(ctx context.Context, gen uint64, query string) {
	sr, err := h.streamer.Stream(ctx, query)
	if err != nil {
		h.fail(gen, err)
		return
	}
	defer sr.Close()

	var acc strings.Builder
	for {
		msg, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			h.apply(gen, func(s *State) {
				s.Status = StatusSucceeded
				s.Response = acc.String()
			})
			return
		}
		if err != nil {
			h.fail(gen, err)
			return
		}
		if msg == nil || msg.Content == "" {
			continue
		}

		acc.WriteString(msg.Content)
		text := acc.String()
		if !h.apply(gen, func(s *State) { s.Response = text }) {
			return
		}
	}
}

func (h *Hook) fail(gen uint64, err error) {
	h.apply(gen, func(s *State) {
		s.Status = StatusFailed
		s.Response = ""
		s.ErrorKind = ai.Classify(err)
		s.Error = ai.Describe(err)
	})
}

// snapshotListeners must be called with mu held.
func (h *Hook) snapshotListeners() []Listener {
	if len(h.listeners) == 0 {
		return nil
	}
	out := make([]Listener, 0, len(h.listeners))
	for id := 0; id < h.nextID; id++ {
		if fn, ok := h.listeners[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func notify(listeners []Listener, s State) {
	for _, fn := range listeners {
		fn(s)
	}
}
