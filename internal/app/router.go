package app

import (
	"encoding/json"
	"sync"

	"github.com/dkeye/rtcsignal/internal/core"
	"github.com/dkeye/rtcsignal/internal/domain"
	"github.com/rs/zerolog/log"
)

// HandlerFunc handles the payload of one named event.
type HandlerFunc func(data json.RawMessage, from *core.Connection)

// RawHandlerFunc receives messages that carry no event name.
type RawHandlerFunc func(raw []byte, from *core.Connection)

// ErrorFunc is the diagnostic channel for conditions absorbed by the router.
type ErrorFunc func(from domain.ConnID, err error)

// EventRouter decodes inbound envelopes and dispatches them by event name.
type EventRouter struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	raw      RawHandlerFunc
	onError  ErrorFunc
}

func NewEventRouter() *EventRouter {
	return &EventRouter{handlers: make(map[string]HandlerFunc)}
}

// Register binds h to event, replacing any previous handler.
func (r *EventRouter) Register(event string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[event] = h
}

// HandleRaw sets the handler for envelopes without an event name.
func (r *EventRouter) HandleRaw(h RawHandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.raw = h
}

// OnError sets the diagnostic callback.
func (r *EventRouter) OnError(fn ErrorFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onError = fn
}

func (r *EventRouter) Events() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		out = append(out, name)
	}
	return out
}

// Dispatch runs the handler for raw on the caller's goroutine.
// Malformed input is reported through OnError and dropped.
func (r *EventRouter) Dispatch(raw []byte, from *core.Connection) {
	env, err := ParseEnvelope(raw)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.router").Str("conn", string(from.ID)).Msg("dropping message")
		r.reportError(from.ID, err)
		return
	}

	r.mu.RLock()
	h, ok := r.handlers[env.EventName]
	rawHandler := r.raw
	r.mu.RUnlock()

	switch {
	case env.EventName == "":
		if rawHandler != nil {
			rawHandler(raw, from)
		}
	case ok:
		h(env.Data, from)
	default:
		log.Debug().Str("module", "app.router").Str("conn", string(from.ID)).Str("event", env.EventName).Msg("unknown event")
	}
}

func (r *EventRouter) reportError(from domain.ConnID, err error) {
	r.mu.RLock()
	fn := r.onError
	r.mu.RUnlock()
	if fn != nil {
		fn(from, err)
	}
}
