package wire

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// JSON Lines envelope keys
const (
	CommandKey    = "COMMAND"
	ParametersKey = "PARAMETERS"
	HeadersKey    = "HEADERS"
	DataKey       = "DATA"
	StatusCodeKey = "STATUS_CODE"
	StatusTextKey = "STATUS_TEXT"
)

type jsonCommand struct {
	Command    string `json:"COMMAND"`
	Parameters []int  `json:"PARAMETERS"`
}

// The firmware answers commands with the long key names but streams
// continuous-mode envelopes with the short MessagePack ones, so the
// decoder accepts both spellings.
type jsonResponse struct {
	StatusCode int    `json:"STATUS_CODE"`
	StatusText string `json:"STATUS_TEXT"`
	Data       string `json:"DATA"`

	AltStatusCode int    `json:"C"`
	AltStatusText string `json:"T"`
	AltData       string `json:"D"`
}

// jsonLinesCodec frames each request and response as one JSON object per
// line. Sample payloads travel in the DATA field as base64 text.
type jsonLinesCodec struct {
	r LineReader
}

// NewJSONLinesCodec returns the codec for JSON Lines mode, reading responses
// from r one line at a time.
func NewJSONLinesCodec(r LineReader) Codec {
	return &jsonLinesCodec{r: r}
}

func (c *jsonLinesCodec) Mode() Mode {
	return ModeJSONLines
}

func (c *jsonLinesCodec) EncodeCommand(cmd Command) ([]byte, error) {
	data, err := json.Marshal(jsonCommand{Command: cmd.Name, Parameters: cmd.Parameters})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal command %q: %w", cmd.Name, err)
	}
	return append(data, '\n'), nil
}

func (c *jsonLinesCodec) ReadResponse() (*Response, error) {
	line, err := c.r.ReadLine()
	if err != nil {
		if len(line) > 0 {
			// The read deadline split a line; the bytes in hand cannot parse.
			return nil, fmt.Errorf("%w: truncated line %q", ErrMalformed, line)
		}
		return nil, err
	}
	return DecodeJSONResponse(line)
}

// DecodeJSONResponse parses one JSON Lines response. The DATA field is
// base64-decoded when present; if the payload does not decode it is kept
// verbatim so the frame decoder can report it.
func DecodeJSONResponse(line []byte) (*Response, error) {
	line = bytes.TrimSpace(line)
	var jr jsonResponse
	if err := json.Unmarshal(line, &jr); err != nil {
		// A bare number line is a stray scalar from a torn binary frame.
		var scalar json.Number
		if json.Unmarshal(line, &scalar) == nil {
			return nil, fmt.Errorf("%w: got scalar %s", ErrWrongShape, scalar)
		}
		return nil, fmt.Errorf("%w: %q", ErrMalformed, line)
	}
	if jr.StatusCode == 0 {
		jr.StatusCode = jr.AltStatusCode
	}
	if jr.StatusText == "" {
		jr.StatusText = jr.AltStatusText
	}
	if jr.Data == "" {
		jr.Data = jr.AltData
	}
	resp := &Response{
		StatusCode: jr.StatusCode,
		StatusText: jr.StatusText,
	}
	if jr.Data != "" {
		decoded, err := base64.StdEncoding.DecodeString(jr.Data)
		if err != nil {
			resp.Data = []byte(jr.Data)
		} else {
			resp.Data = decoded
		}
	}
	return resp, nil
}
