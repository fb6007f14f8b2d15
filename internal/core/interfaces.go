package core

import (
	"errors"

	"github.com/dkeye/rtcsignal/internal/domain"
)

var (
	ErrBackpressure     = errors.New("backpressure")
	ErrConnectionClosed = errors.New("connection closed")
)

// Frame is one encoded envelope as it goes over the wire.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend queues f without blocking.
	TrySend(Frame) error
	Close()
}

// Connection binds a connection id to its transport endpoint.
// The registry that created it owns it.
type Connection struct {
	ID     domain.ConnID
	Token  domain.ClientToken
	Signal SignalConnection
}

// Send is a single delivery attempt.
func (c *Connection) Send(f Frame) error {
	if c.Signal == nil {
		return ErrConnectionClosed
	}
	return c.Signal.TrySend(f)
}

// Delivery is the outcome of one send inside a fan-out.
type Delivery struct {
	To  domain.ConnID
	Err error
}

// Failed returns the deliveries that did not reach their recipient.
func Failed(ds []Delivery) []Delivery {
	var out []Delivery
	for _, d := range ds {
		if d.Err != nil {
			out = append(out, d)
		}
	}
	return out
}

// RoomInfo is a read-only view for APIs (no transport fields).
type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"client_count"`
}
