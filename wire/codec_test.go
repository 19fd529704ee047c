package wire

import (
	"bytes"
	"encoding/base64"
	"errors"
	"reflect"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

var errDeadline = errors.New("read deadline expired")

// scriptedLineReader returns one queued line per call, optionally paired
// with an error, the way a serial read deadline pairs a partial line with
// a timeout.
type scriptedLineReader struct {
	lines []string
	errs  []error
	calls int
}

func (r *scriptedLineReader) ReadLine() ([]byte, error) {
	if r.calls >= len(r.lines) {
		return nil, errDeadline
	}
	line := r.lines[r.calls]
	var err error
	if r.calls < len(r.errs) {
		err = r.errs[r.calls]
	}
	r.calls++
	return []byte(line), err
}

func TestTextCodecEncodeCommand(t *testing.T) {
	codec := NewTextCodec(&scriptedLineReader{})

	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"bare command", Command{Name: "jsonlines"}, "jsonlines\n"},
		{"with parameters", Command{Name: "wreg", Parameters: []int{1, 150}}, "wreg 1 150\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := codec.EncodeCommand(tt.cmd)
			if err != nil {
				t.Fatalf("EncodeCommand failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("EncodeCommand = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextCodecReadResponse(t *testing.T) {
	codec := NewTextCodec(&scriptedLineReader{lines: []string{"200 Ok\r\n"}})

	resp, err := codec.ReadResponse()
	if err != nil {
		t.Fatalf("ReadResponse failed: %v", err)
	}
	if resp.StatusText != "200 Ok" {
		t.Errorf("StatusText = %q, want %q", resp.StatusText, "200 Ok")
	}
	if !resp.OK() {
		t.Error("text response not reported as OK")
	}
}

func TestJSONLinesEncodeCommand(t *testing.T) {
	codec := NewJSONLinesCodec(&scriptedLineReader{})

	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"no parameters", Command{Name: "nop"}, `{"COMMAND":"nop","PARAMETERS":null}` + "\n"},
		{"register write", Command{Name: "wreg", Parameters: []int{5, 96}}, `{"COMMAND":"wreg","PARAMETERS":[5,96]}` + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := codec.EncodeCommand(tt.cmd)
			if err != nil {
				t.Fatalf("EncodeCommand failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("EncodeCommand = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJSONLinesReadResponse(t *testing.T) {
	payload := buildFrame(17, 3, 0xc00000, [8]int32{1, 2, 3, 4, 5, 6, 7, 8})
	dataLine := `{"STATUS_CODE":200,"STATUS_TEXT":"Ok","DATA":"` +
		base64.StdEncoding.EncodeToString(payload) + `"}` + "\r\n"

	tests := []struct {
		name       string
		line       string
		err        error
		wantCode   int
		wantErr    error
		wantFrame  bool
		wantStatus string
	}{
		{
			name:       "plain ok",
			line:       `{"STATUS_CODE":200,"STATUS_TEXT":"Ok"}` + "\r\n",
			wantCode:   200,
			wantStatus: "Ok",
		},
		{
			name:       "bad request",
			line:       `{"STATUS_CODE":400,"STATUS_TEXT":"unknown command"}`,
			wantCode:   400,
			wantStatus: "unknown command",
		},
		{
			name:      "sample payload",
			line:      dataLine,
			wantCode:  200,
			wantFrame: true,
		},
		{
			// Continuous mode streams with the short MessagePack key names
			// even in JSON Lines framing.
			name: "short keys",
			line: `{"C":200,"D":"` +
				base64.StdEncoding.EncodeToString(payload) + `"}` + "\n",
			wantCode:  200,
			wantFrame: true,
		},
		{
			name:    "line noise",
			line:    "mode changed\r\n",
			wantErr: ErrMalformed,
		},
		{
			name:    "stray scalar",
			line:    "214\r\n",
			wantErr: ErrWrongShape,
		},
		{
			name:    "truncated line with deadline",
			line:    `{"STATUS_CO`,
			err:     errDeadline,
			wantErr: ErrMalformed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec := NewJSONLinesCodec(&scriptedLineReader{
				lines: []string{tt.line},
				errs:  []error{tt.err},
			})
			resp, err := codec.ReadResponse()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadResponse failed: %v", err)
			}
			if resp.StatusCode != tt.wantCode {
				t.Errorf("StatusCode = %d, want %d", resp.StatusCode, tt.wantCode)
			}
			if tt.wantStatus != "" && resp.StatusText != tt.wantStatus {
				t.Errorf("StatusText = %q, want %q", resp.StatusText, tt.wantStatus)
			}
			if tt.wantFrame {
				sample, err := DecodeFrame(resp.Data)
				if err != nil {
					t.Fatalf("payload did not decode as a frame: %v", err)
				}
				if sample.SampleNumber != 3 {
					t.Errorf("SampleNumber = %d, want 3", sample.SampleNumber)
				}
			}
		})
	}
}

func TestJSONLinesReadResponseDeadline(t *testing.T) {
	// No bytes at all before the deadline: the transport error passes
	// through untouched so the caller can tell silence from garbage.
	codec := NewJSONLinesCodec(&scriptedLineReader{})
	_, err := codec.ReadResponse()
	if !errors.Is(err, errDeadline) {
		t.Fatalf("error = %v, want deadline passthrough", err)
	}
	if errors.Is(err, ErrMalformed) {
		t.Fatal("silent deadline misreported as malformed")
	}
}

func TestMessagePackEncodeCommand(t *testing.T) {
	codec := NewMessagePackCodec(&bytes.Buffer{})

	raw, err := codec.EncodeCommand(Command{Name: "wreg", Parameters: []int{1, 150}})
	if err != nil {
		t.Fatalf("EncodeCommand failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := msgpack.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("encoded command does not decode: %v", err)
	}
	if decoded["C"] != "wreg" {
		t.Errorf("C = %v, want wreg", decoded["C"])
	}
	params, ok := decoded["P"].([]interface{})
	if !ok || len(params) != 2 {
		t.Fatalf("P = %v, want two-element array", decoded["P"])
	}
}

func TestMessagePackReadResponse(t *testing.T) {
	payload := buildFrame(55, 12, 0xc00000, [8]int32{-1, 1, 0, 0, 0, 0, 0, 0})

	var stream bytes.Buffer
	enc := msgpack.NewEncoder(&stream)
	for _, resp := range []map[string]interface{}{
		{"C": 200, "T": "Ok"},
		{"C": 200, "D": payload},
		{"C": 400, "T": "unknown command"},
	} {
		if err := enc.Encode(resp); err != nil {
			t.Fatalf("failed to build test stream: %v", err)
		}
	}

	codec := NewMessagePackCodec(&stream)

	// 1. Plain acknowledgement
	resp, err := codec.ReadResponse()
	if err != nil {
		t.Fatalf("first ReadResponse failed: %v", err)
	}
	if !resp.OK() || resp.StatusText != "Ok" {
		t.Errorf("first response = %+v, want 200 Ok", resp)
	}

	// 2. Sample frame payload
	resp, err = codec.ReadResponse()
	if err != nil {
		t.Fatalf("second ReadResponse failed: %v", err)
	}
	sample, err := DecodeFrame(resp.Data)
	if err != nil {
		t.Fatalf("payload did not decode as a frame: %v", err)
	}
	if sample.SampleNumber != 12 || sample.ChannelData[0] != -1 {
		t.Errorf("sample = %+v, want number 12 ch1 -1", sample)
	}

	// 3. Error status
	resp, err = codec.ReadResponse()
	if err != nil {
		t.Fatalf("third ReadResponse failed: %v", err)
	}
	if resp.OK() || resp.StatusCode != 400 {
		t.Errorf("third response = %+v, want 400", resp)
	}
}

func TestMessagePackReadResponseWrongShape(t *testing.T) {
	// A torn frame leaves stray bytes that decode as scalars. The codec
	// must consume each one and keep the stream usable for the envelope
	// that follows.
	var stream bytes.Buffer
	enc := msgpack.NewEncoder(&stream)
	if err := enc.Encode(42); err != nil {
		t.Fatal(err)
	}
	if err := enc.Encode(map[string]interface{}{"C": 200, "T": "Ok"}); err != nil {
		t.Fatal(err)
	}

	codec := NewMessagePackCodec(&stream)

	_, err := codec.ReadResponse()
	if !errors.Is(err, ErrWrongShape) {
		t.Fatalf("error = %v, want ErrWrongShape", err)
	}

	resp, err := codec.ReadResponse()
	if err != nil {
		t.Fatalf("stream unusable after stray scalar: %v", err)
	}
	if !resp.OK() {
		t.Errorf("response = %+v, want 200", resp)
	}
}

func TestMessagePackReadResponseMalformed(t *testing.T) {
	// 0xc1 is the one byte value MessagePack never assigns.
	stream := bytes.NewBuffer([]byte{0xc1})
	codec := NewMessagePackCodec(stream)

	_, err := codec.ReadResponse()
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("error = %v, want ErrMalformed", err)
	}
}

func TestMessagePackRoundTrip(t *testing.T) {
	// Commands encoded by the codec decode back to equal values, which is
	// what the firmware's parser relies on.
	out := NewMessagePackCodec(&bytes.Buffer{})
	cmd := Command{Name: "rreg", Parameters: []int{23}}

	raw, err := out.EncodeCommand(cmd)
	if err != nil {
		t.Fatalf("EncodeCommand failed: %v", err)
	}

	var got mpCommand
	if err := msgpack.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	want := mpCommand{Command: "rreg", Parameters: []int{23}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}
