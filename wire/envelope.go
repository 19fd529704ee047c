// Package wire implements the HackEEG serial protocol framing: the three
// framing modes (text, JSON Lines, MessagePack), the command and response
// envelopes, and the binary sample frame emitted during continuous reads.
package wire

import "fmt"

// Mode identifies the framing of the firmware protocol. The device boots in
// text mode and answers one human-readable line per command. JSON Lines mode
// frames every request and response as a single-line JSON object. MessagePack
// mode keeps JSON-shaped envelopes but encodes them as binary maps, which is
// what makes the 8000 and 16000 SPS rates sustainable over the wire.
type Mode int

const (
	ModeUnknown Mode = iota
	ModeText
	ModeJSONLines
	ModeMessagePack
)

func (m Mode) String() string {
	switch m {
	case ModeText:
		return "text"
	case ModeJSONLines:
		return "jsonlines"
	case ModeMessagePack:
		return "messagepack"
	}
	return "unknown"
}

// ParseMode converts a mode name as used in configuration files and
// command-line flags.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "text":
		return ModeText, nil
	case "jsonlines":
		return ModeJSONLines, nil
	case "messagepack":
		return ModeMessagePack, nil
	}
	return ModeUnknown, fmt.Errorf("unknown protocol mode %q (must be text, jsonlines or messagepack)", name)
}

// Response status codes returned by the firmware
const (
	StatusOK         = 200
	StatusBadRequest = 400
	StatusError      = 500
)

// Command is a request to the firmware: a lowercase command name and its
// optional integer parameters.
type Command struct {
	Name       string
	Parameters []int
}

// Response is a decoded firmware reply. Data holds the raw payload with any
// base64 transport encoding already removed.
type Response struct {
	StatusCode int
	StatusText string
	Data       []byte
}

// OK reports whether the firmware accepted the command.
func (r *Response) OK() bool {
	return r.StatusCode == StatusOK
}
