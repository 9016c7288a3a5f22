package httpapi

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is an error message the API returns in a response body. The
// known messages are exposed as sentinel values below; compare with
// errors.Is.
type APIError struct {
	Message string
}

func (e *APIError) Error() string { return "httpapi: " + e.Message }

// Sentinel errors for the message texts the API is known to return.
// Messages the API documents but we cannot trigger (account locked,
// outdated client version) surface as *UnknownMessageError instead.
var (
	ErrNotAuthorized        = &APIError{Message: "Not Authorized."}
	ErrShareCodeNotFound    = &APIError{Message: "This code doesn't exist."}
	ErrShareCodeAlreadyUsed = &APIError{Message: "This share code has already been used by somebody else."}
	ErrShockerPaused        = &APIError{Message: "Shocker is Paused or does not exist. Unpause to send command."}
	ErrDeviceNotConnected   = &APIError{Message: "Device currently not connected."}
	ErrDeviceInUse          = &APIError{Message: "Device in Use."}
	ErrShockNotAllowed      = &APIError{Message: "Shock not allowed."}
	ErrVibrateNotAllowed    = &APIError{Message: "Vibrate not allowed."}
	ErrBeepNotAllowed       = &APIError{Message: "Beep not allowed."}
)

// messageErrors maps response body texts to their sentinel.
var messageErrors = map[string]error{}

func init() {
	for _, e := range []*APIError{
		ErrNotAuthorized,
		ErrShareCodeNotFound,
		ErrShareCodeAlreadyUsed,
		ErrShockerPaused,
		ErrDeviceNotConnected,
		ErrDeviceInUse,
		ErrShockNotAllowed,
		ErrVibrateNotAllowed,
		ErrBeepNotAllowed,
	} {
		messageErrors[e.Message] = e
	}
}

// StatusError reports a non-2xx HTTP status from the API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpapi: unexpected HTTP status %d: %s", e.Code, e.Body)
}

// UnknownMessageError reports a response body that matched neither a
// success message nor a known error message.
type UnknownMessageError struct {
	Body string
}

func (e *UnknownMessageError) Error() string {
	return fmt.Sprintf("httpapi: unexpected API response: %q", e.Body)
}

// translateStatus maps the HTTP statuses JSON endpoints use for their
// well-known failures onto the matching sentinels.
func translateStatus(err error) error {
	var serr *StatusError
	if !errors.As(err, &serr) {
		return err
	}

	switch serr.Code {
	case http.StatusNotFound:
		return ErrShareCodeNotFound
	case http.StatusForbidden:
		return ErrNotAuthorized
	default:
		return err
	}
}
