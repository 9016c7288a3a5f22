// Package zap defines the capability boundary between the scheduling engine
// and the transport-specific device clients. A Shocker is an opaque handle
// to one controllable device; implementations live in pkg/httpapi and
// pkg/serialapi and can be swapped without the engine noticing.
package zap

import (
	"context"
	"time"
)

// Operation identifies a device operation kind. The numeric values match
// the PiShock HTTP API's Op parameter.
type Operation int

const (
	Shock Operation = iota
	Vibrate
	Beep
)

// String returns the lower-case operation name.
func (o Operation) String() string {
	switch o {
	case Shock:
		return "shock"
	case Vibrate:
		return "vibrate"
	case Beep:
		return "beep"
	default:
		return "unknown"
	}
}

// Shocker is a single controllable device endpoint, identified by a stable
// name. Every operation blocks until the device has physically finished
// the operation, not merely accepted it — the schedule driver relies on
// this to keep exactly one operation in flight. Implementations must honor
// ctx cancellation at least between the transport call and the completion
// wait.
type Shocker interface {
	// Name returns the stable display name of the shocker.
	Name() string

	// Shock delivers a shock with the given duration and intensity (0-100).
	Shock(ctx context.Context, duration time.Duration, intensity int) error

	// Vibrate delivers a vibration with the given duration and intensity (0-100).
	Vibrate(ctx context.Context, duration time.Duration, intensity int) error

	// Beep emits a beep with the given duration.
	Beep(ctx context.Context, duration time.Duration) error

	// Info fetches current information about the shocker.
	Info(ctx context.Context) (Info, error)
}

// Info holds basic information about a shocker.
type Info struct {
	Name      string
	ClientID  int
	ShockerID int
	IsPaused  bool

	// MaxIntensity and MaxDuration are only populated by clients that can
	// report device limits (the HTTP API); zero means unknown.
	MaxIntensity int
	MaxDuration  int
}
