package orch

import (
	"encoding/json"

	"github.com/dkeye/rtcsignal/internal/app"
	"github.com/dkeye/rtcsignal/internal/core"
	"github.com/dkeye/rtcsignal/internal/domain"
	"github.com/rs/zerolog/log"
)

// sdp, label and candidate are relayed verbatim, whatever their JSON shape.

type descriptionIn struct {
	SocketID domain.ConnID   `json:"socketId"`
	SDP      json.RawMessage `json:"sdp"`
}

type descriptionOut struct {
	SDP      json.RawMessage `json:"sdp,omitempty"`
	SocketID domain.ConnID   `json:"socketId"`
}

type candidateIn struct {
	SocketID  domain.ConnID   `json:"socketId"`
	Label     json.RawMessage `json:"label"`
	Candidate json.RawMessage `json:"candidate"`
}

type candidateOut struct {
	Label     json.RawMessage `json:"label,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	SocketID  domain.ConnID   `json:"socketId"`
}

func (o *Orchestrator) handleOffer(data json.RawMessage, from *core.Connection) {
	o.relayDescription(EventOffer, EventRelayOffer, data, from)
}

func (o *Orchestrator) handleAnswer(data json.RawMessage, from *core.Connection) {
	o.relayDescription(EventAnswer, EventRelayAnswer, data, from)
}

func (o *Orchestrator) relayDescription(in, out string, data json.RawMessage, from *core.Connection) {
	var p descriptionIn
	if err := app.DecodeData(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("conn", string(from.ID)).Str("event", in).Msg("bad payload")
		o.reportError(from.ID, err)
		return
	}
	o.relay(in, out, from, p.SocketID, descriptionOut{SDP: p.SDP, SocketID: from.ID})
}

func (o *Orchestrator) handleICECandidate(data json.RawMessage, from *core.Connection) {
	var p candidateIn
	if err := app.DecodeData(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("conn", string(from.ID)).Str("event", EventICECandidate).Msg("bad payload")
		o.reportError(from.ID, err)
		return
	}
	o.relay(EventICECandidate, EventRelayCandidate, from, p.SocketID, candidateOut{
		Label:     p.Label,
		Candidate: p.Candidate,
		SocketID:  from.ID,
	})
}

// relay delivers payload to target only. An unknown target drops the message.
func (o *Orchestrator) relay(in, out string, from *core.Connection, target domain.ConnID, payload any) {
	to, ok := o.Registry.Find(target)
	if !ok {
		log.Debug().Str("module", "orch").Str("conn", string(from.ID)).Str("target", string(target)).Str("event", in).Msg("relay target not found")
		return
	}
	if err := o.send(to, out, payload); err != nil {
		return
	}
	for _, ob := range o.Observers {
		ob.OnRelay(in, from.ID, to.ID)
	}
}

func (o *Orchestrator) handleRaw(raw []byte, from *core.Connection) {
	log.Debug().Str("module", "orch").Str("conn", string(from.ID)).Int("bytes", len(raw)).Msg("raw message")
	for _, ob := range o.Observers {
		ob.OnRawMessage(from.ID, raw)
	}
}
