package core

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dkeye/rtcsignal/internal/domain"
	"github.com/rs/zerolog/log"
)

// maxIDAttempts bounds regeneration when a fresh id collides with a live one.
const maxIDAttempts = 8

var (
	ErrDuplicateConn = errors.New("connection id already registered")
	ErrIDExhausted   = errors.New("could not allocate a unique connection id")
)

// Registry tracks every live connection by id.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*Connection
	newID func() domain.ConnID
}

func NewRegistry() *Registry {
	return NewRegistryWithIDs(domain.NewConnID)
}

// NewRegistryWithIDs uses gen for connection ids instead of random UUIDs.
func NewRegistryWithIDs(gen func() domain.ConnID) *Registry {
	return &Registry{
		conns: make(map[domain.ConnID]*Connection),
		newID: gen,
	}
}

// Open assigns a fresh id to sig and registers the resulting connection.
func (r *Registry) Open(sig SignalConnection, token domain.ClientToken) (*Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for range maxIDAttempts {
		id := r.newID()
		if _, taken := r.conns[id]; taken {
			log.Warn().Str("module", "core.registry").Str("conn", string(id)).Msg("connection id collision, regenerating")
			continue
		}
		c := &Connection{ID: id, Token: token, Signal: sig}
		r.conns[id] = c
		log.Debug().Str("module", "core.registry").Str("conn", string(id)).Msg("connection registered")
		return c, nil
	}
	return nil, ErrIDExhausted
}

// Add registers an already identified connection.
func (r *Registry) Add(c *Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.conns[c.ID]; taken {
		return fmt.Errorf("add %s: %w", c.ID, ErrDuplicateConn)
	}
	r.conns[c.ID] = c
	return nil
}

// Remove deregisters id. Removing an unknown id is a no-op.
func (r *Registry) Remove(id domain.ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; !ok {
		return false
	}
	delete(r.conns, id)
	log.Debug().Str("module", "core.registry").Str("conn", string(id)).Msg("connection removed")
	return true
}

func (r *Registry) Find(id domain.ConnID) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// All returns a snapshot of the registered connections in no particular order.
func (r *Registry) All() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

// Broadcast sends f to every registered connection.
func (r *Registry) Broadcast(f Frame) []Delivery {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Delivery, 0, len(r.conns))
	for id, c := range r.conns {
		out = append(out, Delivery{To: id, Err: c.Send(f)})
	}
	return out
}
