// Package serialapi talks the PiShock serial protocol: newline-delimited
// JSON commands at 115200 baud, with device info arriving as
// "TERMINALINFO: " lines. It provides low-level device commands and a
// serial-backed implementation of zap.Shocker addressed by shocker ID.
package serialapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"go.bug.st/serial"
)

const baudRate = 115200

// infoPrefix starts every device info line on the wire.
var infoPrefix = []byte("TERMINALINFO: ")

// infoWaitLines is how many serial lines to scan for an info response
// before giving up. The firmware chats constantly, so this doubles as a
// rough time bound with the 1s read timeout.
const infoWaitLines = 20

// DeviceType is the PiShock hardware generation.
type DeviceType int

const (
	DeviceNext DeviceType = 3
	DeviceLite DeviceType = 4
)

func (t DeviceType) String() string {
	switch t {
	case DeviceNext:
		return "Next"
	case DeviceLite:
		return "Lite"
	default:
		return fmt.Sprintf("unknown (%d)", int(t))
	}
}

// ShockerEntry is one shocker in the device info.
type ShockerEntry struct {
	ID     int  `json:"id"`
	Type   int  `json:"type"`
	Paused bool `json:"paused"`
}

// Network is one configured WiFi network.
type Network struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

// DeviceInfo is the decoded TERMINALINFO payload. The exact fields depend
// on the firmware version; unknown fields are dropped.
type DeviceInfo struct {
	Version    string         `json:"version"`
	Type       DeviceType     `json:"type"`
	Connected  bool           `json:"connected"`
	ClientID   int            `json:"clientId"`
	WiFi       string         `json:"wifi"`
	Server     string         `json:"server"`
	MacAddress string         `json:"macAddress"`
	Shockers   []ShockerEntry `json:"shockers"`
	Networks   []Network      `json:"networks"`
	Claimed    bool           `json:"claimed"`
	PublicIP   string         `json:"publicIp"`
	Internet   bool           `json:"internet"`
	OwnerID    int            `json:"ownerId"`
}

// API is an open serial connection to a PiShock. Not safe for concurrent
// use; the serial line is a single conversation.
type API struct {
	port     io.ReadWriteCloser
	portName string
	reader   *bufio.Reader
	log      zerolog.Logger
}

// Open connects to the PiShock on the given serial port. An empty port
// autodetects by USB vendor/product ID.
func Open(portName string, log zerolog.Logger) (*API, error) {
	if portName == "" {
		detected, err := AutodetectPort()
		if err != nil {
			return nil, err
		}
		portName = detected
	}

	port, err := serial.Open(portName, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("serialapi: open %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(time.Second); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("serialapi: configure %s: %w", portName, err)
	}

	return New(port, portName, log), nil
}

// New wraps an already-open serial connection. Open is the normal entry
// point; New exists for tests and exotic transports.
func New(port io.ReadWriteCloser, portName string, log zerolog.Logger) *API {
	return &API{
		port:     port,
		portName: portName,
		reader:   bufio.NewReader(port),
		log:      log,
	}
}

// PortName returns the name of the underlying serial port.
func (a *API) PortName() string { return a.portName }

// Close closes the serial port.
func (a *API) Close() error { return a.port.Close() }

type command struct {
	Cmd   string `json:"cmd"`
	Value any    `json:"value,omitempty"`
}

func (a *API) send(cmd string, value any) error {
	doc, err := json.Marshal(command{Cmd: cmd, Value: value})
	if err != nil {
		return fmt.Errorf("serialapi: encode %s: %w", cmd, err)
	}
	doc = append(doc, '\n')

	a.log.Debug().Str("port", a.portName).Str("cmd", cmd).Msg("serial command")

	if _, err := a.port.Write(doc); err != nil {
		return fmt.Errorf("serialapi: send %s: %w", cmd, err)
	}

	return nil
}

// Info requests and decodes device info.
func (a *API) Info(ctx context.Context) (DeviceInfo, error) {
	if err := a.send("info", nil); err != nil {
		return DeviceInfo{}, err
	}

	return a.WaitInfo(ctx)
}

// WaitInfo blocks until the next TERMINALINFO line arrives, without
// sending an info command first. Useful after commands that report info on
// their own, like AddNetwork.
func (a *API) WaitInfo(ctx context.Context) (DeviceInfo, error) {
	for range infoWaitLines {
		if err := ctx.Err(); err != nil {
			return DeviceInfo{}, err
		}

		line, err := a.reader.ReadBytes('\n')
		if len(line) == 0 && err != nil {
			if err == io.EOF {
				break
			}
			return DeviceInfo{}, fmt.Errorf("serialapi: read: %w", err)
		}

		if bytes.HasPrefix(line, infoPrefix) {
			return DecodeInfo(line)
		}
	}

	return DeviceInfo{}, fmt.Errorf("serialapi: no info received, is %s really a PiShock?", a.portName)
}

// DecodeInfo parses a raw TERMINALINFO line.
func DecodeInfo(line []byte) (DeviceInfo, error) {
	var info DeviceInfo
	if err := json.Unmarshal(bytes.TrimPrefix(line, infoPrefix), &info); err != nil {
		return DeviceInfo{}, fmt.Errorf("serialapi: decode info: %w", err)
	}

	return info, nil
}

// AddNetwork adds a WiFi network to the device config. The device reboots
// and reports fresh info afterwards.
func (a *API) AddNetwork(ssid, password string) error {
	return a.send("addnetwork", Network{SSID: ssid, Password: password})
}

// RemoveNetwork removes a WiFi network from the device config.
func (a *API) RemoveNetwork(ssid string) error {
	return a.send("removenetwork", ssid)
}

// TryConnect temporarily connects to the given network without saving it.
func (a *API) TryConnect(ssid, password string) error {
	return a.send("connect", Network{SSID: ssid, Password: password})
}

// Restart reboots the PiShock.
func (a *API) Restart() error {
	return a.send("restart", nil)
}

// Monitor copies raw serial output to out until ctx is cancelled or the
// port fails.
func (a *API) Monitor(ctx context.Context, out io.Writer) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := a.reader.ReadBytes('\n')
		if len(line) > 0 {
			if _, werr := out.Write(line); werr != nil {
				return fmt.Errorf("serialapi: monitor: %w", werr)
			}
		}
		if err != nil {
			if err == io.EOF {
				continue
			}
			return fmt.Errorf("serialapi: monitor: %w", err)
		}
	}
}

type operateValue struct {
	ID        int    `json:"id"`
	Op        string `json:"op"`
	Duration  int64  `json:"duration"` // milliseconds
	Intensity *int   `json:"intensity,omitempty"`
}

// Operate issues a raw operation. The firmware silently ignores unknown
// shocker IDs; Shocker does an existence check up front instead.
func (a *API) Operate(shockerID int, op string, duration time.Duration, intensity *int) error {
	if intensity != nil && (*intensity < 0 || *intensity > 100) {
		return fmt.Errorf("serialapi: intensity must be between 0 and 100, got %d", *intensity)
	}

	ms := duration.Milliseconds()
	if ms < 0 || ms >= 1<<32 {
		return fmt.Errorf("serialapi: duration out of range: %s", duration)
	}

	return a.send("operate", operateValue{
		ID:        shockerID,
		Op:        op,
		Duration:  ms,
		Intensity: intensity,
	})
}
