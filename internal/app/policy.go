package app

import (
	"errors"

	"github.com/dkeye/rtcsignal/internal/core"
	"github.com/dkeye/rtcsignal/internal/domain"
)

type SendFailureAction int

const (
	NoAction SendFailureAction = iota
	CloseConnection
)

// Policy decides what happens to a connection after a failed send.
type Policy interface {
	OnSendFailure(to domain.ConnID, err error) SendFailureAction
}

// IgnorePolicy keeps every connection open; the failure is only reported.
type IgnorePolicy struct{}

func (IgnorePolicy) OnSendFailure(domain.ConnID, error) SendFailureAction { return NoAction }

// CloseSlowPolicy closes connections whose outbound buffer is full.
type CloseSlowPolicy struct{}

func (CloseSlowPolicy) OnSendFailure(_ domain.ConnID, err error) SendFailureAction {
	if errors.Is(err, core.ErrBackpressure) {
		return CloseConnection
	}
	return NoAction
}

// PolicyFor maps the close_slow setting to a Policy.
func PolicyFor(closeSlow bool) Policy {
	if closeSlow {
		return CloseSlowPolicy{}
	}
	return IgnorePolicy{}
}
