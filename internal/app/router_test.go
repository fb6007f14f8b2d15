package app

import (
	"encoding/json"
	"testing"

	"github.com/dkeye/rtcsignal/internal/core"
	"github.com/dkeye/rtcsignal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routed struct {
	event string
	data  string
	from  domain.ConnID
}

func newTestRouter() (*EventRouter, *[]routed, *[]error) {
	var calls []routed
	var errs []error
	r := NewEventRouter()
	for _, ev := range []string{"join", "offer"} {
		r.Register(ev, func(data json.RawMessage, from *core.Connection) {
			calls = append(calls, routed{event: ev, data: string(data), from: from.ID})
		})
	}
	r.HandleRaw(func(raw []byte, from *core.Connection) {
		calls = append(calls, routed{event: "<raw>", data: string(raw), from: from.ID})
	})
	r.OnError(func(_ domain.ConnID, err error) { errs = append(errs, err) })
	return r, &calls, &errs
}

func TestEventRouter_Dispatch(t *testing.T) {
	tests := []struct {
		name      string
		msg       string
		wantCalls []routed
		wantErr   bool
	}{
		{
			name:      "registered event",
			msg:       `{"eventName":"join","data":{"room":"r1"}}`,
			wantCalls: []routed{{event: "join", data: `{"room":"r1"}`, from: "c1"}},
		},
		{
			name:      "registered event without data",
			msg:       `{"eventName":"offer"}`,
			wantCalls: []routed{{event: "offer", data: "", from: "c1"}},
		},
		{
			name: "unknown event is ignored",
			msg:  `{"eventName":"future_thing","data":{}}`,
		},
		{
			name:      "missing event name goes to raw handler",
			msg:       `{"data":{"x":1}}`,
			wantCalls: []routed{{event: "<raw>", data: `{"data":{"x":1}}`, from: "c1"}},
		},
		{
			name:    "invalid json",
			msg:     `not json`,
			wantErr: true,
		},
		{
			name:    "event name of wrong type",
			msg:     `{"eventName":42}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, calls, errs := newTestRouter()

			r.Dispatch([]byte(tt.msg), &core.Connection{ID: "c1"})

			assert.Equal(t, tt.wantCalls, *calls)
			if tt.wantErr {
				require.Len(t, *errs, 1)
				assert.ErrorIs(t, (*errs)[0], ErrMalformedEnvelope)
			} else {
				assert.Empty(t, *errs)
			}
		})
	}
}

func TestEventRouter_NoRawHandler(t *testing.T) {
	r := NewEventRouter()
	assert.NotPanics(t, func() {
		r.Dispatch([]byte(`{"data":1}`), &core.Connection{ID: "c1"})
		r.Dispatch([]byte(`garbage`), &core.Connection{ID: "c1"})
	})
}

func TestEncodeParseRoundTrip(t *testing.T) {
	frame, err := Encode("_peers", map[string]any{"you": "c1"})
	require.NoError(t, err)

	env, err := ParseEnvelope(frame)
	require.NoError(t, err)
	assert.Equal(t, "_peers", env.EventName)

	var p struct {
		You string `json:"you"`
	}
	require.NoError(t, DecodeData(env.Data, &p))
	assert.Equal(t, "c1", p.You)
}

func TestDecodeData_Empty(t *testing.T) {
	var p struct {
		Room string `json:"room"`
	}
	assert.NoError(t, DecodeData(nil, &p))
	assert.NoError(t, DecodeData(json.RawMessage("null"), &p))
	assert.Empty(t, p.Room)
	assert.ErrorIs(t, DecodeData(json.RawMessage(`"r1"`), &p), ErrMalformedEnvelope)
}
