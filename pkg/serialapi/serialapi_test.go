package serialapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const infoLine = `TERMINALINFO: {"version":"3.1.1.231119.1556","type":4,"connected":true,` +
	`"clientId":621,"wifi":"homenet","server":"eu1.pishock.com","macAddress":"0C:B8:15:AB:CD:EF",` +
	`"shockers":[{"id":420,"type":1,"paused":false},{"id":421,"type":1,"paused":true}],` +
	`"networks":[{"ssid":"homenet","password":"hunter2"}],"claimed":true,"internet":true,"ownerId":6969}` + "\n"

// fakePort replays scripted device output and records everything written.
type fakePort struct {
	reader io.Reader
	wrote  bytes.Buffer
	closed bool
}

func newFakePort(output string) *fakePort {
	return &fakePort{reader: strings.NewReader(output)}
}

func (p *fakePort) Read(b []byte) (int, error)  { return p.reader.Read(b) }
func (p *fakePort) Write(b []byte) (int, error) { return p.wrote.Write(b) }
func (p *fakePort) Close() error                { p.closed = true; return nil }

// commands decodes each JSON line written to the port.
func (p *fakePort) commands(t *testing.T) []map[string]any {
	var cmds []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(p.wrote.String()), "\n") {
		var cmd map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &cmd))
		cmds = append(cmds, cmd)
	}

	return cmds
}

func newTestAPI(output string) (*API, *fakePort) {
	port := newFakePort(output)
	return New(port, "/dev/ttyUSB0", zerolog.Nop()), port
}

func TestAPI_InfoSkipsNoise(t *testing.T) {
	api, port := newTestAPI("boot noise\nmore noise\n" + infoLine)

	info, err := api.Info(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "3.1.1.231119.1556", info.Version)
	assert.Equal(t, DeviceLite, info.Type)
	assert.Equal(t, 621, info.ClientID)
	assert.Equal(t, "homenet", info.WiFi)
	require.Len(t, info.Shockers, 2)
	assert.Equal(t, 420, info.Shockers[0].ID)
	assert.True(t, info.Shockers[1].Paused)
	require.Len(t, info.Networks, 1)
	assert.Equal(t, "homenet", info.Networks[0].SSID)

	cmds := port.commands(t)
	require.Len(t, cmds, 1)
	assert.Equal(t, "info", cmds[0]["cmd"])
	assert.NotContains(t, cmds[0], "value")
}

func TestAPI_InfoTimesOutWithoutResponse(t *testing.T) {
	api, _ := newTestAPI("just noise\nforever\n")

	_, err := api.Info(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no info received")
}

func TestAPI_WaitInfoHonorsContext(t *testing.T) {
	api, _ := newTestAPI("")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := api.WaitInfo(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeInfo_BadJSON(t *testing.T) {
	_, err := DecodeInfo([]byte("TERMINALINFO: {not json}\n"))
	assert.Error(t, err)
}

func TestDeviceType_String(t *testing.T) {
	assert.Equal(t, "Next", DeviceNext.String())
	assert.Equal(t, "Lite", DeviceLite.String())
	assert.Contains(t, DeviceType(7).String(), "unknown")
}

func TestAPI_NetworkCommands(t *testing.T) {
	api, port := newTestAPI("")

	require.NoError(t, api.AddNetwork("cafe", "espresso"))
	require.NoError(t, api.RemoveNetwork("cafe"))
	require.NoError(t, api.TryConnect("cafe", "espresso"))
	require.NoError(t, api.Restart())

	cmds := port.commands(t)
	require.Len(t, cmds, 4)

	assert.Equal(t, "addnetwork", cmds[0]["cmd"])
	assert.Equal(t, map[string]any{"ssid": "cafe", "password": "espresso"}, cmds[0]["value"])

	assert.Equal(t, "removenetwork", cmds[1]["cmd"])
	assert.Equal(t, "cafe", cmds[1]["value"])

	assert.Equal(t, "connect", cmds[2]["cmd"])
	assert.Equal(t, "restart", cmds[3]["cmd"])
}

func TestAPI_OperateEncodesMilliseconds(t *testing.T) {
	api, port := newTestAPI("")

	intensity := 40
	require.NoError(t, api.Operate(420, opShock, 1500*time.Millisecond, &intensity))

	cmds := port.commands(t)
	require.Len(t, cmds, 1)
	assert.Equal(t, "operate", cmds[0]["cmd"])

	value := cmds[0]["value"].(map[string]any)
	assert.EqualValues(t, 420, value["id"])
	assert.Equal(t, "shock", value["op"])
	assert.EqualValues(t, 1500, value["duration"])
	assert.EqualValues(t, 40, value["intensity"])
}

func TestAPI_OperateValidation(t *testing.T) {
	api, _ := newTestAPI("")

	bad := 101
	assert.Error(t, api.Operate(420, opShock, time.Second, &bad))
	assert.Error(t, api.Operate(420, opShock, -time.Second, nil))
}

func TestAPI_Monitor(t *testing.T) {
	api, _ := newTestAPI("line one\nline two\n")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	err := api.Monitor(ctx, &out)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, out.String(), "line one")
	assert.Contains(t, out.String(), "line two")
}

func TestShocker_OperationsAndName(t *testing.T) {
	// Each operation triggers no info read, only the initial lookup does.
	api, port := newTestAPI(infoLine)

	sh, err := api.Shocker(context.Background(), 420)
	require.NoError(t, err)
	assert.Equal(t, "serial shocker 420 (/dev/ttyUSB0)", sh.Name())
	assert.Equal(t, 420, sh.ID())

	require.NoError(t, sh.Beep(context.Background(), 10*time.Millisecond))
	require.NoError(t, sh.Vibrate(context.Background(), 10*time.Millisecond, 50))
	require.NoError(t, sh.End())

	cmds := port.commands(t)
	require.Len(t, cmds, 4) // info + three operations

	beep := cmds[1]["value"].(map[string]any)
	assert.Equal(t, "beep", beep["op"])
	assert.NotContains(t, beep, "intensity")

	vibrate := cmds[2]["value"].(map[string]any)
	assert.Equal(t, "vibrate", vibrate["op"])
	assert.EqualValues(t, 50, vibrate["intensity"])

	end := cmds[3]["value"].(map[string]any)
	assert.Equal(t, "end", end["op"])
	assert.EqualValues(t, 0, end["duration"])
}

func TestShocker_UnknownIDListsAvailable(t *testing.T) {
	api, _ := newTestAPI(infoLine)

	_, err := api.Shocker(context.Background(), 999)
	require.Error(t, err)

	var nferr *ShockerNotFoundError
	require.ErrorAs(t, err, &nferr)
	assert.Equal(t, 999, nferr.ID)
	assert.Equal(t, []int{420, 421}, nferr.Available)
	assert.Contains(t, err.Error(), "420, 421")
}

func TestIsMaybePiShock(t *testing.T) {
	assert.True(t, IsMaybePiShock("1A86", "7523"))
	assert.True(t, IsMaybePiShock("1a86", "55d4"), "case insensitive")
	assert.False(t, IsMaybePiShock("0403", "6001"))
}
