package core

import (
	"sync"

	"github.com/dkeye/rtcsignal/internal/domain"
)

type fakeSignal struct {
	mu       sync.Mutex
	received []Frame
	sendErr  error
	closed   bool
}

func (f *fakeSignal) TrySend(fr Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.received = append(f.received, fr)
	return nil
}

func (f *fakeSignal) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSignal) getReceived() []Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Frame(nil), f.received...)
}

func newConn(id string) (*Connection, *fakeSignal) {
	sig := &fakeSignal{}
	return &Connection{ID: domain.ConnID(id), Signal: sig}, sig
}

// sequentialIDs yields ids in order, wrapping around at the end.
func sequentialIDs(ids ...string) func() domain.ConnID {
	i := 0
	return func() domain.ConnID {
		id := ids[i%len(ids)]
		i++
		return domain.ConnID(id)
	}
}
