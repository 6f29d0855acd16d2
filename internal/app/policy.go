package app

import "github.com/dkeye/Banter/internal/core"

type BackpressureAction int

const (
	DropFrame BackpressureAction = iota
	KickSession
)

// Policy decides what to do with a consumer whose send buffer is full.
type Policy interface {
	OnBackpressure(sid core.SessionID) BackpressureAction
}

// DropPolicy drops the frame and moves on. Chat events lost this way remain
// recoverable through a history fetch.
type DropPolicy struct{}

func (DropPolicy) OnBackpressure(core.SessionID) BackpressureAction { return DropFrame }
