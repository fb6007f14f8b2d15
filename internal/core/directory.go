package core

import (
	"cmp"
	"slices"
	"sync"

	"github.com/dkeye/rtcsignal/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomDirectory maps room names to their members in join order.
// A room exists only while it has at least one member.
// It never closes adapter-owned resources.
type RoomDirectory struct {
	mu     sync.RWMutex
	rooms  map[domain.RoomName][]*Connection
	roomOf map[domain.ConnID]domain.RoomName
}

func NewRoomDirectory() *RoomDirectory {
	return &RoomDirectory{
		rooms:  make(map[domain.RoomName][]*Connection),
		roomOf: make(map[domain.ConnID]domain.RoomName),
	}
}

// Join appends c to room, creating the room if needed, and returns the ids
// of the members that were already there in join order.
// A connection already in another room is moved out of it first.
func (d *RoomDirectory) Join(room domain.RoomName, c *Connection) []domain.ConnID {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cur, ok := d.roomOf[c.ID]; ok {
		if cur == room {
			return idsExcept(d.rooms[room], c.ID)
		}
		d.leaveLocked(c.ID)
	}
	existing := idsExcept(d.rooms[room], c.ID)
	d.rooms[room] = append(d.rooms[room], c)
	d.roomOf[c.ID] = room
	log.Info().Str("module", "core.rooms").Str("conn", string(c.ID)).Str("room", string(room)).Int("members", len(d.rooms[room])).Msg("member added")
	return existing
}

// Leave removes id from its room and reports the room it left.
func (d *RoomDirectory) Leave(id domain.ConnID) (domain.RoomName, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.leaveLocked(id)
}

func (d *RoomDirectory) leaveLocked(id domain.ConnID) (domain.RoomName, bool) {
	room, ok := d.roomOf[id]
	if !ok {
		return "", false
	}
	delete(d.roomOf, id)
	members := slices.DeleteFunc(d.rooms[room], func(c *Connection) bool { return c.ID == id })
	if len(members) == 0 {
		delete(d.rooms, room)
		log.Info().Str("module", "core.rooms").Str("room", string(room)).Msg("room removed")
	} else {
		d.rooms[room] = members
	}
	log.Info().Str("module", "core.rooms").Str("conn", string(id)).Str("room", string(room)).Msg("member removed")
	return room, true
}

func (d *RoomDirectory) RoomOf(id domain.ConnID) (domain.RoomName, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.roomOf[id]
	return room, ok
}

// Members returns the member ids of room in join order, or nil if there is no such room.
func (d *RoomDirectory) Members(room domain.RoomName) []domain.ConnID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return idsExcept(d.rooms[room], "")
}

// Broadcast sends f to every member of room except exclude.
// A failed send does not stop delivery to the remaining members.
func (d *RoomDirectory) Broadcast(room domain.RoomName, f Frame, exclude domain.ConnID) []Delivery {
	d.mu.RLock()
	defer d.mu.RUnlock()
	members := d.rooms[room]
	out := make([]Delivery, 0, len(members))
	for _, c := range members {
		if c.ID == exclude {
			continue
		}
		out = append(out, Delivery{To: c.ID, Err: c.Send(f)})
	}
	log.Debug().Str("module", "core.rooms").Str("room", string(room)).Int("sent_to", len(out)-len(Failed(out))).Int("failed", len(Failed(out))).Msg("broadcast result")
	return out
}

// RoomNames returns the names of all rooms, sorted.
func (d *RoomDirectory) RoomNames() []domain.RoomName {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.RoomName, 0, len(d.rooms))
	for name := range d.rooms {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

func (d *RoomDirectory) List() []RoomInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]RoomInfo, 0, len(d.rooms))
	for name, members := range d.rooms {
		out = append(out, RoomInfo{Name: name, MemberCount: len(members)})
	}
	slices.SortFunc(out, func(a, b RoomInfo) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

func idsExcept(members []*Connection, skip domain.ConnID) []domain.ConnID {
	if members == nil {
		return nil
	}
	out := make([]domain.ConnID, 0, len(members))
	for _, c := range members {
		if c.ID == skip {
			continue
		}
		out = append(out, c.ID)
	}
	return out
}
