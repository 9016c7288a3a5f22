package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/germanamz/zapctl/pkg/zap"
)

// Success bodies of the apioperate endpoint. "Attempted" shows up when the
// device acknowledged the command without confirming it.
var successMessages = map[string]bool{
	"Operation Succeeded.": true,
	"Operation Attempted.": true,
}

// pauseSuccessMessage is what PauseShocker returns on success. Really.
const pauseSuccessMessage = "Operation Successful, Probably."

// Shocker drives one shocker through the HTTP API, addressed by its share
// code. The API acknowledges an operation before the device has finished
// it, so every operation sleeps out its duration after a successful call
// to satisfy the zap.Shocker completion contract.
type Shocker struct {
	client    *Client
	sharecode string
	name      string

	shockerID int
	haveID    bool
}

var _ zap.Shocker = (*Shocker)(nil)

// Name returns the display name of the shocker.
func (s *Shocker) Name() string { return s.name }

// Sharecode returns the share code the shocker is addressed by.
func (s *Shocker) Sharecode() string { return s.sharecode }

func (s *Shocker) Shock(ctx context.Context, duration time.Duration, intensity int) error {
	return s.call(ctx, zap.Shock, duration, &intensity)
}

func (s *Shocker) Vibrate(ctx context.Context, duration time.Duration, intensity int) error {
	return s.call(ctx, zap.Vibrate, duration, &intensity)
}

func (s *Shocker) Beep(ctx context.Context, duration time.Duration) error {
	return s.call(ctx, zap.Beep, duration, nil)
}

// infoDTO is the GetShockerInfo response shape.
type infoDTO struct {
	Name         string `json:"name"`
	ClientID     int    `json:"clientId"`
	ID           int    `json:"id"`
	Paused       bool   `json:"paused"`
	MaxIntensity int    `json:"maxIntensity"`
	MaxDuration  int    `json:"maxDuration"`
}

// Info fetches detailed shocker information, including the device's
// intensity and duration limits.
func (s *Shocker) Info(ctx context.Context) (zap.Info, error) {
	resp, err := s.client.Request(ctx, "GetShockerInfo", map[string]any{"Code": s.sharecode})
	if err != nil {
		return zap.Info{}, translateStatus(err)
	}

	var dto infoDTO
	if err := json.Unmarshal(resp.Body(), &dto); err != nil {
		return zap.Info{}, &UnknownMessageError{Body: resp.String()}
	}

	s.shockerID = dto.ID
	s.haveID = true

	return zap.Info{
		Name:         dto.Name,
		ClientID:     dto.ClientID,
		ShockerID:    dto.ID,
		IsPaused:     dto.Paused,
		MaxIntensity: dto.MaxIntensity,
		MaxDuration:  dto.MaxDuration,
	}, nil
}

// Pause pauses or unpauses the shocker. The endpoint wants the numeric
// shocker ID, so the first call resolves it via Info.
func (s *Shocker) Pause(ctx context.Context, pause bool) error {
	if !s.haveID {
		if _, err := s.Info(ctx); err != nil {
			return err
		}
	}

	resp, err := s.client.Request(ctx, "PauseShocker", map[string]any{
		"ShockerId": s.shockerID,
		"Pause":     pause,
	})
	if err != nil {
		return err
	}

	body := resp.String()
	if body == ErrNotAuthorized.Message {
		return ErrNotAuthorized
	}
	if body != pauseSuccessMessage {
		return &UnknownMessageError{Body: body}
	}

	return nil
}

// apiDuration converts a duration to the API's Duration parameter: whole
// seconds between 0 and 15, or, for sub-second precision, a millisecond
// value between 100 and 1500 rounded down to the nearest 100ms. The API
// tells the two apart by magnitude.
func apiDuration(d time.Duration) (int, error) {
	if d%time.Second == 0 {
		secs := int(d / time.Second)
		if secs < 0 || secs > 15 {
			return 0, fmt.Errorf("httpapi: duration must be between 0 and 15 seconds, got %s", d)
		}

		return secs, nil
	}

	ms := d.Milliseconds()
	ms -= ms % 100
	if ms < 100 || ms > 1500 {
		return 0, fmt.Errorf("httpapi: fractional duration must be between 100ms and 1.5s, got %s", d)
	}

	return int(ms), nil
}

func (s *Shocker) call(ctx context.Context, op zap.Operation, duration time.Duration, intensity *int) error {
	if intensity != nil && (*intensity < 0 || *intensity > 100) {
		return fmt.Errorf("httpapi: intensity must be between 0 and 100, got %d", *intensity)
	}

	apiDur, err := apiDuration(duration)
	if err != nil {
		return err
	}

	params := map[string]any{
		"Name":     logName,
		"Code":     s.sharecode,
		"Duration": apiDur,
		"Op":       int(op),
	}
	if intensity != nil {
		params["Intensity"] = *intensity
	}

	resp, err := s.client.Request(ctx, "apioperate", params)
	if err != nil {
		return err
	}

	body := resp.String()
	if e, ok := messageErrors[body]; ok {
		return e
	}
	if !successMessages[body] {
		return &UnknownMessageError{Body: body}
	}

	// Hold until the device has finished the operation.
	return sleepCtx(ctx, duration)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
