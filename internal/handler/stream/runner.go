package stream

import (
	"context"

	modelprompt "github.com/vedpatil1345/codetalk/internal/model/prompt"
	"github.com/vedpatil1345/codetalk/internal/service/request"
	"github.com/vedpatil1345/codetalk/pkg/utils"
)

// Run drives one hook per prompt concurrently and relays every transition to
// ew, tagged with the prompt name. It returns once every card has finished or
// ctx ends; the returned states are in prompt order. A failing card never
// affects its siblings.
func Run(ctx context.Context, ew *utils.EventWriter, streamer request.Streamer, prompts []modelprompt.Prompt, sessionID string) []request.State {
	results := make([]request.State, len(prompts))
	hooks := make([]*request.Hook, len(prompts))
	finished := make(chan int, len(prompts))

	for i, p := range prompts {
		i := i
		hook := request.New(streamer)
		hooks[i] = hook

		r := &relay{ew: ew, name: p.Name, sessionID: sessionID}
		hook.Subscribe(func(s request.State) {
			r.forward(s)
			if s.Terminal() {
				results[i] = s
				finished <- i
			}
		})
	}

	for i, p := range prompts {
		hooks[i].SetQuery(p.Query)
	}

	for remaining := len(prompts); remaining > 0; remaining-- {
		select {
		case <-finished:
		case <-ctx.Done():
			remaining = 0
		}
	}

	for _, hook := range hooks {
		hook.Close()
	}
	return results
}

// relay turns hook snapshots into start/delta/message/error/end events.
type relay struct {
	ew        *utils.EventWriter
	name      string
	sessionID string

	generation uint64
	sent       int
}

func (r *relay) forward(s request.State) {
	if s.Generation != r.generation {
		r.generation = s.Generation
		r.sent = 0
	}

	switch s.Status {
	case request.StatusPending:
		if r.sent == 0 && s.Response == "" {
			r.send(utils.StreamEvent{Event: utils.EventStart})
			return
		}
		r.flushDelta(s.Response)
	case request.StatusSucceeded:
		r.flushDelta(s.Response)
		r.send(utils.StreamEvent{Event: utils.EventMessage, Content: s.Response})
		r.send(utils.StreamEvent{Event: utils.EventEnd, Finished: true})
	case request.StatusFailed:
		r.send(utils.StreamEvent{Event: utils.EventError, Error: s.Error, ErrorKind: string(s.ErrorKind)})
		r.send(utils.StreamEvent{Event: utils.EventEnd, Finished: true})
	}
}

func (r *relay) flushDelta(response string) {
	if len(response) <= r.sent {
		return
	}
	r.send(utils.StreamEvent{Event: utils.EventDelta, Content: response[r.sent:]})
	r.sent = len(response)
}

func (r *relay) send(ev utils.StreamEvent) {
	ev.Name = r.name
	ev.SessionID = r.sessionID
	r.ew.Send(ev)
}
