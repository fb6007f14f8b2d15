package orch

import (
	"sync"

	"github.com/dkeye/rtcsignal/internal/app"
	"github.com/dkeye/rtcsignal/internal/core"
	"github.com/dkeye/rtcsignal/internal/domain"
	"github.com/rs/zerolog/log"
)

// Inbound event names. The double-underscore forms are what older clients send.
const (
	EventJoin         = "join"
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice_candidate"
)

const legacyInboundPrefix = "__"

// Outbound event names.
const (
	EventPeers          = "_peers"
	EventNewPeer        = "_new_peer"
	EventRemovePeer     = "_remove_peer"
	EventRelayOffer     = "_offer"
	EventRelayAnswer    = "_answer"
	EventRelayCandidate = "_ice_candidate"
)

// Orchestrator owns the connection registry and room directory and runs the
// signaling protocol on top of them.
type Orchestrator struct {
	Registry  *core.Registry
	Rooms     *core.RoomDirectory
	Router    *app.EventRouter
	Policy    app.Policy
	Observers []app.Observer

	// mu serializes membership changes together with the notifications they cause.
	mu      sync.Mutex
	onError app.ErrorFunc
}

func New(reg *core.Registry, rooms *core.RoomDirectory, policy app.Policy, observers ...app.Observer) *Orchestrator {
	if policy == nil {
		policy = app.IgnorePolicy{}
	}
	o := &Orchestrator{
		Registry:  reg,
		Rooms:     rooms,
		Router:    app.NewEventRouter(),
		Policy:    policy,
		Observers: observers,
	}
	o.registerHandlers()
	o.Router.OnError(o.reportError)
	return o
}

func (o *Orchestrator) registerHandlers() {
	handlers := map[string]app.HandlerFunc{
		EventJoin:         o.handleJoin,
		EventOffer:        o.handleOffer,
		EventAnswer:       o.handleAnswer,
		EventICECandidate: o.handleICECandidate,
	}
	for name, h := range handlers {
		o.Router.Register(name, h)
		o.Router.Register(legacyInboundPrefix+name, h)
	}
	o.Router.HandleRaw(o.handleRaw)
}

// OnError sets the diagnostic callback for dropped messages and failed sends.
// It must be called before the orchestrator sees any traffic.
func (o *Orchestrator) OnError(fn app.ErrorFunc) {
	o.onError = fn
}

// Connect registers a new transport endpoint under a fresh id.
func (o *Orchestrator) Connect(sig core.SignalConnection, token domain.ClientToken) (*core.Connection, error) {
	c, err := o.Registry.Open(sig, token)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("connect")
		return nil, err
	}
	log.Info().Str("module", "orch").Str("conn", string(c.ID)).Str("client", string(token)).Msg("connected")
	for _, ob := range o.Observers {
		ob.OnConnect(c.ID)
	}
	return c, nil
}

// OnMessage dispatches one inbound message from c.
func (o *Orchestrator) OnMessage(c *core.Connection, raw []byte) {
	o.Router.Dispatch(raw, c)
}

// Disconnect removes id from its room and the registry and tells the remaining
// room members. Calling it again for the same id does nothing.
func (o *Orchestrator) Disconnect(id domain.ConnID) {
	o.mu.Lock()
	if _, ok := o.Registry.Find(id); !ok {
		o.mu.Unlock()
		return
	}
	if room, ok := o.Rooms.Leave(id); ok {
		o.announceRemoval(room, id)
	}
	o.Registry.Remove(id)
	o.mu.Unlock()

	log.Info().Str("module", "orch").Str("conn", string(id)).Msg("disconnected")
	for _, ob := range o.Observers {
		ob.OnDisconnect(id)
	}
}

// BroadcastAll sends an event to every registered connection.
func (o *Orchestrator) BroadcastAll(event string, data any) []core.Delivery {
	frame, err := app.Encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("broadcast all")
		return nil
	}
	ds := o.Registry.Broadcast(frame)
	o.handleDeliveries(ds)
	return ds
}

// BroadcastRoom sends an event to every member of room except exclude.
func (o *Orchestrator) BroadcastRoom(room domain.RoomName, event string, data any, exclude domain.ConnID) []core.Delivery {
	frame, err := app.Encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("room", string(room)).Msg("broadcast room")
		return nil
	}
	ds := o.Rooms.Broadcast(room, frame, exclude)
	o.handleDeliveries(ds)
	return ds
}

// EvictRoom closes the transport of every member of room.
// Their close signals then run the normal disconnect path.
func (o *Orchestrator) EvictRoom(room domain.RoomName) int {
	n := 0
	for _, id := range o.Rooms.Members(room) {
		if c, ok := o.Registry.Find(id); ok && c.Signal != nil {
			c.Signal.Close()
			n++
		}
	}
	log.Info().Str("module", "orch").Str("room", string(room)).Int("closed", n).Msg("room evicted")
	return n
}

func (o *Orchestrator) send(to *core.Connection, event string, data any) error {
	frame, err := app.Encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("event", event).Msg("encode")
		return err
	}
	err = to.Send(frame)
	o.handleDeliveries([]core.Delivery{{To: to.ID, Err: err}})
	return err
}

func (o *Orchestrator) handleDeliveries(ds []core.Delivery) {
	for _, d := range core.Failed(ds) {
		log.Warn().Err(d.Err).Str("module", "orch").Str("conn", string(d.To)).Msg("send failed")
		o.reportError(d.To, d.Err)
		for _, ob := range o.Observers {
			ob.OnSendFailure(d.To, d.Err)
		}
		if o.Policy.OnSendFailure(d.To, d.Err) != app.CloseConnection {
			continue
		}
		if c, ok := o.Registry.Find(d.To); ok && c.Signal != nil {
			log.Info().Str("module", "orch").Str("conn", string(d.To)).Msg("closing slow connection")
			c.Signal.Close()
		}
	}
}

func (o *Orchestrator) reportError(id domain.ConnID, err error) {
	if fn := o.onError; fn != nil {
		fn(id, err)
	}
}
