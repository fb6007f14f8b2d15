package app

import (
	"sync/atomic"

	"github.com/dkeye/rtcsignal/internal/domain"
)

// Observer is notified of connection lifecycle and relay activity.
// Calls happen on connection goroutines; implementations must be safe for
// concurrent use and must not call back into the orchestrator.
type Observer interface {
	OnConnect(id domain.ConnID)
	OnJoin(id domain.ConnID, room domain.RoomName)
	OnRelay(event string, from, to domain.ConnID)
	OnRawMessage(id domain.ConnID, raw []byte)
	OnSendFailure(to domain.ConnID, err error)
	OnDisconnect(id domain.ConnID)
}

// Stats counts protocol activity. The zero value is ready to use.
type Stats struct {
	connected    atomic.Int64
	connects     atomic.Uint64
	joins        atomic.Uint64
	relayed      atomic.Uint64
	raw          atomic.Uint64
	sendFailures atomic.Uint64
	disconnects  atomic.Uint64
}

type StatsSnapshot struct {
	Connected    int64  `json:"connected"`
	Connects     uint64 `json:"connects"`
	Joins        uint64 `json:"joins"`
	Relayed      uint64 `json:"relayed"`
	RawMessages  uint64 `json:"raw_messages"`
	SendFailures uint64 `json:"send_failures"`
	Disconnects  uint64 `json:"disconnects"`
}

func (s *Stats) OnConnect(domain.ConnID) {
	s.connected.Add(1)
	s.connects.Add(1)
}

func (s *Stats) OnJoin(domain.ConnID, domain.RoomName) { s.joins.Add(1) }

func (s *Stats) OnRelay(string, domain.ConnID, domain.ConnID) { s.relayed.Add(1) }

func (s *Stats) OnRawMessage(domain.ConnID, []byte) { s.raw.Add(1) }

func (s *Stats) OnSendFailure(domain.ConnID, error) { s.sendFailures.Add(1) }

func (s *Stats) OnDisconnect(domain.ConnID) {
	s.connected.Add(-1)
	s.disconnects.Add(1)
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Connected:    s.connected.Load(),
		Connects:     s.connects.Load(),
		Joins:        s.joins.Load(),
		Relayed:      s.relayed.Load(),
		RawMessages:  s.raw.Load(),
		SendFailures: s.sendFailures.Load(),
		Disconnects:  s.disconnects.Load(),
	}
}
