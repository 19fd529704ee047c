package wire

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// Decode failure classes. A continuous-read loop escalates differently
// depending on which of these a read produced, so codecs keep them apart:
// ErrMalformed means bytes arrived but did not parse, ErrWrongShape means a
// well-formed value arrived that is not a response envelope (a stray scalar
// from a torn binary frame). Reads that time out with no data at all pass
// the transport's timeout error through unchanged.
var (
	ErrMalformed  = errors.New("malformed response")
	ErrWrongShape = errors.New("response is not an envelope")
)

// LineReader yields one newline-terminated line per call, or whatever was
// received before the read deadline together with the deadline error.
type LineReader interface {
	ReadLine() ([]byte, error)
}

// Codec serializes commands and decodes responses for one framing mode.
// A codec is bound to the connection when the mode is negotiated and from
// then on performs exactly one bounded read per ReadResponse call.
type Codec interface {
	Mode() Mode
	EncodeCommand(cmd Command) ([]byte, error)
	ReadResponse() (*Response, error)
}

// textCodec frames commands as whitespace-delimited lines. The firmware
// boots in this mode; the driver only uses it to escape into JSON Lines.
type textCodec struct {
	r LineReader
}

// NewTextCodec returns the codec for the firmware's boot-time text mode.
func NewTextCodec(r LineReader) Codec {
	return &textCodec{r: r}
}

func (c *textCodec) Mode() Mode {
	return ModeText
}

func (c *textCodec) EncodeCommand(cmd Command) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(cmd.Name)
	for _, p := range cmd.Parameters {
		buf.WriteByte(' ')
		buf.WriteString(strconv.Itoa(p))
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func (c *textCodec) ReadResponse() (*Response, error) {
	line, err := c.r.ReadLine()
	if err != nil {
		if len(line) > 0 {
			return nil, fmt.Errorf("%w: truncated line %q", ErrMalformed, line)
		}
		return nil, err
	}
	return &Response{
		StatusCode: StatusOK,
		StatusText: string(bytes.TrimSpace(line)),
	}, nil
}
