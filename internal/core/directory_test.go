package core

import (
	"sync"
	"testing"

	"github.com/dkeye/rtcsignal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomDirectory_JoinReturnsExistingInOrder(t *testing.T) {
	d := NewRoomDirectory()
	var joined []domain.ConnID

	for _, id := range []string{"a", "b", "c", "d"} {
		c, _ := newConn(id)
		existing := d.Join("r1", c)
		assert.Equal(t, joined, existing, "joiner %s", id)
		joined = append(joined, c.ID)
	}

	assert.Equal(t, joined, d.Members("r1"))
}

func TestRoomDirectory_Leave(t *testing.T) {
	tests := []struct {
		name        string
		join        []string
		leave       string
		wantMembers []domain.ConnID
		wantRooms   []domain.RoomName
		wantLeft    bool
	}{
		{
			name:        "middle member",
			join:        []string{"a", "b", "c"},
			leave:       "b",
			wantMembers: []domain.ConnID{"a", "c"},
			wantRooms:   []domain.RoomName{"r1"},
			wantLeft:    true,
		},
		{
			name:      "last member removes room",
			join:      []string{"a"},
			leave:     "a",
			wantRooms: []domain.RoomName{},
			wantLeft:  true,
		},
		{
			name:        "not in a room",
			join:        []string{"a"},
			leave:       "zzz",
			wantMembers: []domain.ConnID{"a"},
			wantRooms:   []domain.RoomName{"r1"},
			wantLeft:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewRoomDirectory()
			for _, id := range tt.join {
				c, _ := newConn(id)
				d.Join("r1", c)
			}

			room, left := d.Leave(domain.ConnID(tt.leave))

			assert.Equal(t, tt.wantLeft, left)
			if left {
				assert.Equal(t, domain.RoomName("r1"), room)
			}
			assert.Equal(t, tt.wantMembers, d.Members("r1"))
			assert.Equal(t, tt.wantRooms, d.RoomNames())
			_, inRoom := d.RoomOf(domain.ConnID(tt.leave))
			assert.False(t, inRoom)
		})
	}
}

func TestRoomDirectory_JoinOtherRoomMoves(t *testing.T) {
	d := NewRoomDirectory()
	a, _ := newConn("a")
	b, _ := newConn("b")
	d.Join("r1", a)
	d.Join("r1", b)

	existing := d.Join("r2", a)

	assert.Empty(t, existing)
	assert.Equal(t, []domain.ConnID{"b"}, d.Members("r1"))
	assert.Equal(t, []domain.ConnID{"a"}, d.Members("r2"))
	room, ok := d.RoomOf("a")
	require.True(t, ok)
	assert.Equal(t, domain.RoomName("r2"), room)
}

func TestRoomDirectory_JoinSameRoomTwice(t *testing.T) {
	d := NewRoomDirectory()
	a, _ := newConn("a")
	b, _ := newConn("b")
	d.Join("r1", a)
	d.Join("r1", b)

	existing := d.Join("r1", a)

	assert.Equal(t, []domain.ConnID{"b"}, existing)
	assert.Equal(t, []domain.ConnID{"a", "b"}, d.Members("r1"))
}

func TestRoomDirectory_Broadcast(t *testing.T) {
	d := NewRoomDirectory()
	a, sigA := newConn("a")
	b, sigB := newConn("b")
	c, sigC := newConn("c")
	other, sigOther := newConn("other")
	sigB.sendErr = ErrConnectionClosed
	d.Join("r1", a)
	d.Join("r1", b)
	d.Join("r1", c)
	d.Join("r2", other)

	ds := d.Broadcast("r1", Frame("x"), "a")

	require.Len(t, ds, 2)
	assert.Empty(t, sigA.getReceived(), "excluded member")
	assert.Empty(t, sigB.getReceived())
	assert.Len(t, sigC.getReceived(), 1, "failure on b must not stop delivery to c")
	assert.Empty(t, sigOther.getReceived(), "no cross-room broadcast")
	assert.Equal(t, []Delivery{{To: "b", Err: ErrConnectionClosed}}, Failed(ds))

	assert.Empty(t, d.Broadcast("missing", Frame("x"), ""))
}

func TestRoomDirectory_List(t *testing.T) {
	d := NewRoomDirectory()
	for i, id := range []string{"a", "b", "c"} {
		c, _ := newConn(id)
		if i == 0 {
			d.Join("zeta", c)
			continue
		}
		d.Join("alpha", c)
	}

	assert.Equal(t, []RoomInfo{
		{Name: "alpha", MemberCount: 2},
		{Name: "zeta", MemberCount: 1},
	}, d.List())
	assert.Equal(t, []domain.RoomName{"alpha", "zeta"}, d.RoomNames())
}

func TestRoomDirectory_ConcurrentJoinLeave(t *testing.T) {
	d := NewRoomDirectory()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, _ := newConn(string(rune('A' + i)))
			d.Join("busy", c)
			if i%2 == 0 {
				d.Leave(c.ID)
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, d.Members("busy"), 25)
}
