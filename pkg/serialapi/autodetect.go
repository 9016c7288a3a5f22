package serialapi

import (
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

type usbID struct {
	vid string
	pid string
}

// USB vendor/product IDs of the serial chips PiShock hardware uses.
var usbIDs = []usbID{
	{"1A86", "7523"}, // CH340, PiShock Next
	{"1A86", "55D4"}, // CH9102, PiShock Lite
}

// AutodetectError reports that port autodetection found no candidate, or
// more than one.
type AutodetectError struct {
	Candidates []string
}

func (e *AutodetectError) Error() string {
	if len(e.Candidates) == 0 {
		return "serialapi: no PiShock found via port autodetection"
	}

	return fmt.Sprintf("serialapi: multiple (possibly) PiShocks found via port autodetection: %s",
		strings.Join(e.Candidates, ", "))
}

// IsMaybePiShock reports whether the USB IDs look like a PiShock.
func IsMaybePiShock(vid, pid string) bool {
	for _, id := range usbIDs {
		if strings.EqualFold(vid, id.vid) && strings.EqualFold(pid, id.pid) {
			return true
		}
	}

	return false
}

// AutodetectPort scans the system's serial ports for a PiShock. It
// succeeds only when exactly one candidate is found.
func AutodetectPort() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("serialapi: list ports: %w", err)
	}

	var candidates []string
	for _, p := range ports {
		if p.IsUSB && IsMaybePiShock(p.VID, p.PID) {
			candidates = append(candidates, p.Name)
		}
	}

	if len(candidates) != 1 {
		return "", &AutodetectError{Candidates: candidates}
	}

	return candidates[0], nil
}
