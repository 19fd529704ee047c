package transport

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.bug.st/serial/enumerator"
)

// USB identifiers of the Arduino Due the HackEEG shield mounts on. Both the
// native and the programming port are listed, along with the Arduino.org
// vendor ID used by some production runs.
const (
	ArduinoVID    = 0x2341
	ArduinoOrgVID = 0x2a03
	DueNativePID  = 0x003e // native USB port, the one the firmware serves
	DueProgPID    = 0x003d // programming port
)

// ErrNotFound is returned by Locate when no candidate device is attached.
var ErrNotFound = errors.New("no Arduino Due found")

var knownIDs = []struct {
	vid uint16
	pid uint16
}{
	{ArduinoVID, DueNativePID},
	{ArduinoVID, DueProgPID},
	{ArduinoOrgVID, DueNativePID},
	{ArduinoOrgVID, DueProgPID},
}

// Locate scans the serial ports for an attached board and returns the device
// path of the first match. Candidates are matched by the Due's USB vendor
// and product IDs, falling back to an "Arduino" product string for clones
// that report different IDs.
func Locate() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("failed to list serial ports: %w", err)
	}
	return locate(ports)
}

func locate(ports []*enumerator.PortDetails) (string, error) {
	for _, port := range ports {
		if matchesBoard(port) {
			return port.Name, nil
		}
	}
	return "", ErrNotFound
}

// matchesBoard reports whether a serial port looks like a HackEEG carrier
// board.
func matchesBoard(port *enumerator.PortDetails) bool {
	if !port.IsUSB {
		return false
	}

	vid, errVID := strconv.ParseUint(port.VID, 16, 16)
	pid, errPID := strconv.ParseUint(port.PID, 16, 16)
	if errVID == nil && errPID == nil {
		for _, id := range knownIDs {
			if uint16(vid) == id.vid && uint16(pid) == id.pid {
				return true
			}
		}
	}

	return strings.Contains(port.Product, "Arduino")
}
