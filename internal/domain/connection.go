// Package domain contains entity without logic, just meta-data
package domain

import (
	"github.com/google/uuid"
)

// ConnIDLen is the length of a hyphenated v4 UUID.
const ConnIDLen = 36

type ConnID string

// NewConnID returns a random version 4 UUID string.
func NewConnID() ConnID {
	return ConnID(uuid.NewString())
}

// ClientToken identifies a browser across reconnects. It is diagnostic only.
type ClientToken string
