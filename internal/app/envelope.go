package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/rtcsignal/internal/core"
)

var ErrMalformedEnvelope = errors.New("malformed envelope")

// Envelope is the wire unit in both directions.
type Envelope struct {
	EventName string          `json:"eventName,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Encode builds the frame for event with data as its payload.
func Encode(event string, data any) (core.Frame, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return json.Marshal(Envelope{EventName: event, Data: raw})
}

// ParseEnvelope decodes one inbound message.
func ParseEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return env, nil
}

// DecodeData unmarshals an envelope payload into v.
// A missing or null payload leaves v at its zero value.
func DecodeData(data json.RawMessage, v any) error {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: data: %v", ErrMalformedEnvelope, err)
	}
	return nil
}
