package orch

import (
	"encoding/json"

	"github.com/dkeye/rtcsignal/internal/app"
	"github.com/dkeye/rtcsignal/internal/core"
	"github.com/dkeye/rtcsignal/internal/domain"
	"github.com/rs/zerolog/log"
)

type joinPayload struct {
	Room string `json:"room"`
}

type peersPayload struct {
	Connections []domain.ConnID `json:"connections"`
	You         domain.ConnID   `json:"you"`
}

type peerPayload struct {
	SocketID domain.ConnID `json:"socketId"`
}

func (o *Orchestrator) handleJoin(data json.RawMessage, from *core.Connection) {
	var p joinPayload
	if err := app.DecodeData(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("conn", string(from.ID)).Msg("bad join payload")
		o.reportError(from.ID, err)
		return
	}
	o.Join(from, domain.RoomOrDefault(p.Room))
}

// Join puts c into room. Existing members get _new_peer and c gets _peers
// listing them in join order.
//
// Joining the room c is already in only repeats _peers. Joining another room
// first removes c from its current one, which sees _remove_peer.
func (o *Orchestrator) Join(c *core.Connection, room domain.RoomName) {
	o.mu.Lock()
	if _, ok := o.Registry.Find(c.ID); !ok {
		o.mu.Unlock()
		log.Debug().Str("module", "orch").Str("conn", string(c.ID)).Msg("join from closed connection")
		return
	}

	cur, inRoom := o.Rooms.RoomOf(c.ID)
	if inRoom && cur == room {
		existing := o.Rooms.Join(room, c)
		o.sendPeers(c, existing)
		o.mu.Unlock()
		return
	}
	if inRoom {
		o.Rooms.Leave(c.ID)
		o.announceRemoval(cur, c.ID)
		log.Info().Str("module", "orch").Str("conn", string(c.ID)).Str("from_room", string(cur)).Str("room", string(room)).Msg("moving to another room")
	}

	existing := o.Rooms.Join(room, c)
	for _, ob := range o.Observers {
		ob.OnJoin(c.ID, room)
	}
	o.BroadcastRoom(room, EventNewPeer, peerPayload{SocketID: c.ID}, c.ID)
	o.sendPeers(c, existing)
	o.mu.Unlock()

	log.Info().Str("module", "orch").Str("conn", string(c.ID)).Str("room", string(room)).Int("peers", len(existing)).Msg("joined")
}

func (o *Orchestrator) sendPeers(c *core.Connection, existing []domain.ConnID) {
	if existing == nil {
		existing = []domain.ConnID{}
	}
	_ = o.send(c, EventPeers, peersPayload{Connections: existing, You: c.ID})
}

// announceRemoval tells the members left in room that id is gone.
// id must already be out of the room.
func (o *Orchestrator) announceRemoval(room domain.RoomName, id domain.ConnID) {
	o.BroadcastRoom(room, EventRemovePeer, peerPayload{SocketID: id}, "")
}
