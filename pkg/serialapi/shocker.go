package serialapi

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/germanamz/zapctl/pkg/zap"
)

// Operation names of the serial operate command.
const (
	opShock   = "shock"
	opVibrate = "vibrate"
	opBeep    = "beep"
	opEnd     = "end"
)

// ShockerNotFoundError reports a shocker ID the device does not know.
type ShockerNotFoundError struct {
	ID        int
	Available []int
}

func (e *ShockerNotFoundError) Error() string {
	avail := make([]string, 0, len(e.Available))
	for _, id := range e.Available {
		avail = append(avail, strconv.Itoa(id))
	}

	return fmt.Sprintf("serialapi: shocker %d not found, available: %s",
		e.ID, strings.Join(avail, ", "))
}

// Shocker drives one shocker over the serial link, addressed by its
// numeric ID. The firmware accepts an operation without feedback, so every
// operation sleeps out its duration to satisfy the zap.Shocker completion
// contract.
type Shocker struct {
	api *API
	id  int
}

var _ zap.Shocker = (*Shocker)(nil)

// Shocker returns a serial-backed shocker for the given ID, verifying that
// the device knows it. IDs are listed under the cogwheels on the website,
// or in Info.
func (a *API) Shocker(ctx context.Context, shockerID int) (*Shocker, error) {
	s := &Shocker{api: a, id: shockerID}
	if _, err := s.Info(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// Name returns "serial shocker <id> (<port>)".
func (s *Shocker) Name() string {
	return fmt.Sprintf("serial shocker %d (%s)", s.id, s.api.portName)
}

// ID returns the shocker's numeric ID.
func (s *Shocker) ID() int { return s.id }

func (s *Shocker) Shock(ctx context.Context, duration time.Duration, intensity int) error {
	return s.operate(ctx, opShock, duration, &intensity)
}

func (s *Shocker) Vibrate(ctx context.Context, duration time.Duration, intensity int) error {
	return s.operate(ctx, opVibrate, duration, &intensity)
}

func (s *Shocker) Beep(ctx context.Context, duration time.Duration) error {
	return s.operate(ctx, opBeep, duration, nil)
}

// End cancels the currently running operation.
func (s *Shocker) End() error {
	return s.api.Operate(s.id, opEnd, 0, nil)
}

// Info looks the shocker up in the device info.
func (s *Shocker) Info(ctx context.Context) (zap.Info, error) {
	info, err := s.api.Info(ctx)
	if err != nil {
		return zap.Info{}, err
	}

	var available []int
	for _, entry := range info.Shockers {
		if entry.ID == s.id {
			return zap.Info{
				Name:      s.Name(),
				ClientID:  info.ClientID,
				ShockerID: s.id,
				IsPaused:  entry.Paused,
			}, nil
		}
		available = append(available, entry.ID)
	}

	return zap.Info{}, &ShockerNotFoundError{ID: s.id, Available: available}
}

func (s *Shocker) operate(ctx context.Context, op string, duration time.Duration, intensity *int) error {
	if err := s.api.Operate(s.id, op, duration, intensity); err != nil {
		return err
	}

	// Hold until the device has finished the operation.
	if duration <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(duration)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
