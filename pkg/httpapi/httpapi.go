// Package httpapi is a client for the PiShock HTTP API at do.pishock.com.
// It exposes the account-level calls and an HTTP-backed implementation of
// zap.Shocker addressed by share code.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/germanamz/zapctl/pkg/zap"
)

const defaultBaseURL = "https://do.pishock.com/api"

// logName is sent as the Name parameter of operation calls and shows up in
// the operation log on the website.
const logName = "zapctl"

// sharecodeRe matches a raw share code: 11 upper case hex digits.
var sharecodeRe = regexp.MustCompile(`^[0-9A-F]{11}$`)

// ValidSharecode reports whether s is a syntactically valid share code.
func ValidSharecode(s string) bool { return sharecodeRe.MatchString(s) }

// Client talks to the PiShock HTTP API with a fixed set of credentials.
// It is safe for concurrent use.
type Client struct {
	http     *resty.Client
	username string
	apiKey   string
	log      zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root. Used in tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.http.SetBaseURL(u) }
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a Client for the given pishock.com username and API
// key (from the website's Account menu).
func NewClient(username, apiKey string, opts ...Option) *Client {
	c := &Client{
		username: username,
		apiKey:   apiKey,
		log:      zerolog.Nop(),
	}

	c.http = resty.New().
		SetBaseURL(defaultBaseURL).
		SetTimeout(30 * time.Second).
		SetHeader("User-Agent", logName)

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Username returns the account name the client authenticates as.
func (c *Client) Username() string { return c.username }

// Request makes a raw API call. Every call is a POST with a JSON body
// carrying the credentials plus params; the API is like that. Most callers
// want the higher-level methods instead.
func (c *Client) Request(ctx context.Context, endpoint string, params map[string]any) (*resty.Response, error) {
	body := map[string]any{
		"Username": c.username,
		"Apikey":   c.apiKey,
	}
	for k, v := range params {
		body[k] = v
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/" + endpoint)
	if err != nil {
		return nil, fmt.Errorf("httpapi: %s: %w", endpoint, err)
	}

	c.log.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode()).
		Msg("api call")

	if resp.IsError() {
		return nil, &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}

	return resp, nil
}

// shockerDTO is one entry of the GetShockers response.
type shockerDTO struct {
	Name   string `json:"name"`
	ID     int    `json:"id"`
	Paused bool   `json:"paused"`
}

// GetShockers lists all shockers of the given client (PiShock) ID.
func (c *Client) GetShockers(ctx context.Context, clientID int) ([]zap.Info, error) {
	resp, err := c.Request(ctx, "GetShockers", map[string]any{"ClientId": clientID})
	if err != nil {
		return nil, translateStatus(err)
	}

	var dtos []shockerDTO
	if err := json.Unmarshal(resp.Body(), &dtos); err != nil {
		return nil, &UnknownMessageError{Body: resp.String()}
	}

	infos := make([]zap.Info, 0, len(dtos))
	for _, d := range dtos {
		infos = append(infos, zap.Info{
			Name:      d.Name,
			ClientID:  clientID,
			ShockerID: d.ID,
			IsPaused:  d.Paused,
		})
	}

	return infos, nil
}

// VerifyCredentials checks the username/API key pair against the API. A
// rejected pair is (false, nil); errors are transport-level problems.
func (c *Client) VerifyCredentials(ctx context.Context) (bool, error) {
	_, err := c.Request(ctx, "VerifyApiCredentials", nil)
	if err != nil {
		var serr *StatusError
		if errors.As(err, &serr) && serr.Code == http.StatusForbidden {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// Shocker returns an HTTP-backed shocker for the given share code. name is
// the display name used in logs and errors; empty means the share code
// itself.
func (c *Client) Shocker(sharecode, name string) *Shocker {
	if name == "" {
		name = sharecode
	}

	return &Shocker{client: c, sharecode: sharecode, name: name}
}
