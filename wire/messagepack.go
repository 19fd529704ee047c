package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// MessagePack envelope keys. The firmware reuses "C" for the command name on
// requests and for the status code on responses.
const (
	MpCommandKey    = "C"
	MpParametersKey = "P"
	MpHeadersKey    = "H"
	MpDataKey       = "D"
	MpStatusCodeKey = "C"
	MpStatusTextKey = "T"
)

type mpCommand struct {
	Command    string `msgpack:"C"`
	Parameters []int  `msgpack:"P"`
}

type mpResponse struct {
	StatusCode int    `msgpack:"C"`
	StatusText string `msgpack:"T"`
	Data       []byte `msgpack:"D"`
}

// messagePackCodec frames envelopes as binary MessagePack maps. One streaming
// decoder is bound to the connection for the codec's lifetime so that bytes
// buffered between reads stay coherent.
type messagePackCodec struct {
	dec *msgpack.Decoder
}

// NewMessagePackCodec returns the codec for MessagePack mode. When r also
// implements io.ByteScanner, as the serial transport does, the decoder reads
// it directly without adding a second buffer.
func NewMessagePackCodec(r io.Reader) Codec {
	return &messagePackCodec{dec: msgpack.NewDecoder(r)}
}

func (c *messagePackCodec) Mode() Mode {
	return ModeMessagePack
}

func (c *messagePackCodec) EncodeCommand(cmd Command) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.Encode(mpCommand{Command: cmd.Name, Parameters: cmd.Parameters}); err != nil {
		return nil, fmt.Errorf("failed to marshal command %q: %w", cmd.Name, err)
	}
	return buf.Bytes(), nil
}

func (c *messagePackCodec) ReadResponse() (*Response, error) {
	code, err := c.dec.PeekCode()
	if err != nil {
		return nil, err
	}
	if !msgpcode.IsFixedMap(code) && code != msgpcode.Map16 && code != msgpcode.Map32 {
		// A value arrived but it is not an envelope, typically a stray
		// scalar out of a torn sample frame. Consume it so the stream
		// keeps moving, then report the shape.
		if err := c.dec.Skip(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return nil, fmt.Errorf("%w: msgpack code 0x%02x", ErrWrongShape, code)
	}
	var mr mpResponse
	if err := c.dec.Decode(&mr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &Response{
		StatusCode: mr.StatusCode,
		StatusText: mr.StatusText,
		Data:       mr.Data,
	}, nil
}
