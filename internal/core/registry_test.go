package core

import (
	"errors"
	"regexp"
	"testing"

	"github.com/dkeye/rtcsignal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var uuidV4 = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestRegistry_OpenAssignsUUID(t *testing.T) {
	r := NewRegistry()
	c, err := r.Open(&fakeSignal{}, "tok")
	require.NoError(t, err)

	assert.Len(t, string(c.ID), domain.ConnIDLen)
	assert.Regexp(t, uuidV4, string(c.ID))
	assert.Equal(t, domain.ClientToken("tok"), c.Token)

	found, ok := r.Find(c.ID)
	require.True(t, ok)
	assert.Same(t, c, found)
}

func TestRegistry_OpenRegeneratesOnCollision(t *testing.T) {
	r := NewRegistryWithIDs(sequentialIDs("a", "a", "b"))

	first, err := r.Open(&fakeSignal{}, "")
	require.NoError(t, err)
	second, err := r.Open(&fakeSignal{}, "")
	require.NoError(t, err)

	assert.Equal(t, domain.ConnID("a"), first.ID)
	assert.Equal(t, domain.ConnID("b"), second.ID)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_OpenGivesUpAfterRepeatedCollisions(t *testing.T) {
	r := NewRegistryWithIDs(sequentialIDs("same"))
	_, err := r.Open(&fakeSignal{}, "")
	require.NoError(t, err)

	_, err = r.Open(&fakeSignal{}, "")
	assert.True(t, errors.Is(err, ErrIDExhausted))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_AddRemove(t *testing.T) {
	r := NewRegistry()
	c, _ := newConn("c1")

	require.NoError(t, r.Add(c))
	assert.ErrorIs(t, r.Add(c), ErrDuplicateConn)

	assert.True(t, r.Remove("c1"))
	assert.False(t, r.Remove("c1"), "second remove is a no-op")

	_, ok := r.Find("c1")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_Broadcast(t *testing.T) {
	r := NewRegistry()
	a, sigA := newConn("a")
	b, sigB := newConn("b")
	sigB.sendErr = ErrBackpressure
	require.NoError(t, r.Add(a))
	require.NoError(t, r.Add(b))

	ds := r.Broadcast(Frame("hello"))

	assert.Len(t, ds, 2)
	assert.Len(t, sigA.getReceived(), 1)
	failed := Failed(ds)
	require.Len(t, failed, 1)
	assert.Equal(t, domain.ConnID("b"), failed[0].To)
	assert.ErrorIs(t, failed[0].Err, ErrBackpressure)
}
