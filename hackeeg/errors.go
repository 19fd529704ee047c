package hackeeg

import (
	"errors"
	"fmt"

	"github.com/leofor19/hackeeg-go/wire"
)

// Failure classes a session can end with.
var (
	// ErrNoDevice means no board could be located on any serial port.
	ErrNoDevice = errors.New("no HackEEG board found")

	// ErrConnection means the protocol mode handshake did not complete
	// within the attempt ceiling.
	ErrConnection = errors.New("cannot establish protocol mode")

	// ErrDesync means continuous-read recovery exhausted every escalation
	// level without finding a sample frame boundary.
	ErrDesync = errors.New("lost sample frame synchronization")
)

// DeviceError is a command the firmware answered with a status other
// than 200.
type DeviceError struct {
	Command string // command name as sent
	Code    int    // firmware status code
	Text    string // status text, when the firmware supplied one
}

func (e *DeviceError) Error() string {
	text := e.Text
	if text == "" {
		text = statusName(e.Code)
	}
	return fmt.Sprintf("device rejected %q: %d %s", e.Command, e.Code, text)
}

// statusName converts a firmware status code to a readable name.
func statusName(code int) string {
	switch code {
	case wire.StatusOK:
		return "ok"
	case wire.StatusBadRequest:
		return "bad request"
	case wire.StatusError:
		return "error"
	}
	return "unknown status"
}
