// Package hackeeg talks to a HackEEG shield, an 8-channel TI ADS1299
// bioamplifier driven by an Arduino Due. The board presents a command
// protocol over its native USB serial port in one of three framings,
// detailed in the wire package. This package negotiates the framing,
// correlates commands with responses, programs acquisitions and streams
// sample frames, resynchronizing the stream when it tears.
package hackeeg

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/leofor19/hackeeg-go/transport"
	"github.com/leofor19/hackeeg-go/wire"
)

// Handshake and settling parameters.
const (
	DefaultMaxAttempts = 10                     // mode handshake tries before giving up
	DefaultRetryDelay  = 100 * time.Millisecond // pause between handshake tries
	DefaultSettleDelay = 1 * time.Second        // wait after toggling continuous mode
)

// Transport is the byte pipe a Board speaks over. transport.Port
// implements it; tests substitute a scripted fake. The ByteScanner
// methods must share a buffer with Read and ReadLine so switching
// framings mid-session never strands bytes.
type Transport interface {
	io.Reader
	io.ByteScanner
	ReadLine() ([]byte, error)
	Write(p []byte) (int, error)
	Flush() error
	Close() error
}

// Board is a connected HackEEG device.
type Board struct {
	t     Transport
	codec wire.Codec
	mode  wire.Mode

	rdatac     bool               // continuous data output is on
	sampleRate int                // programmed by Configure, 0 until then
	observe    func(*wire.Sample) // called for each collected sample, may be nil

	log      logrus.FieldLogger
	baud     int
	timeout  time.Duration
	target   wire.Mode
	attempts int
	delay    time.Duration
	settle   time.Duration
	resync   resyncPlan
}

// Option adjusts how a Board is opened and run.
type Option func(*Board)

// WithBaudRate overrides the serial baud rate.
func WithBaudRate(baud int) Option {
	return func(b *Board) { b.baud = baud }
}

// WithReadTimeout overrides the per-read deadline on the serial port.
func WithReadTimeout(d time.Duration) Option {
	return func(b *Board) { b.timeout = d }
}

// WithTargetMode picks the framing the handshake should end in.
// The default is MessagePack.
func WithTargetMode(m wire.Mode) Option {
	return func(b *Board) { b.target = m }
}

// WithLogger routes the board's diagnostics somewhere visible.
func WithLogger(log logrus.FieldLogger) Option {
	return func(b *Board) { b.log = log }
}

// WithMaxAttempts overrides the handshake attempt ceiling.
func WithMaxAttempts(n int) Option {
	return func(b *Board) { b.attempts = n }
}

// WithSettleDelay overrides the pause after continuous-mode toggles.
func WithSettleDelay(d time.Duration) Option {
	return func(b *Board) { b.settle = d }
}

// WithResyncWindow overrides how long each stream recovery level may
// spend discarding and rereading.
func WithResyncWindow(d time.Duration) Option {
	return func(b *Board) { b.resync.window = d }
}

// SetSampleObserver registers a callback invoked for every sample an
// acquisition collects, in stream order. Useful for live progress; it
// runs on the read loop, so it must be quick. A nil fn removes the
// observer.
func (b *Board) SetSampleObserver(fn func(*wire.Sample)) {
	b.observe = fn
}

func newBoard(opts ...Option) *Board {
	b := &Board{
		baud:     transport.DefaultBaudRate,
		timeout:  transport.DefaultReadTimeout,
		target:   wire.ModeMessagePack,
		attempts: DefaultMaxAttempts,
		delay:    DefaultRetryDelay,
		settle:   DefaultSettleDelay,
		resync:   defaultResyncPlan(),
		log:      discardLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open connects to the board on the named serial port and negotiates the
// protocol mode. An empty path scans the system for a recognized board.
func Open(path string, opts ...Option) (*Board, error) {
	b := newBoard(opts...)

	if path == "" {
		located, err := transport.Locate()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
		}
		path = located
		b.log.WithField("port", path).Debug("located board")
	}

	port, err := transport.Open(path, b.baud, b.timeout)
	if err != nil {
		return nil, err
	}
	b.t = port

	if err := b.connect(); err != nil {
		port.Close()
		return nil, err
	}
	return b, nil
}

// NewBoard wraps an already-open transport and negotiates the protocol
// mode on it.
func NewBoard(t Transport, opts ...Option) (*Board, error) {
	b := newBoard(opts...)
	b.t = t
	if err := b.connect(); err != nil {
		return nil, err
	}
	return b, nil
}

// Mode reports the framing the session is currently in.
func (b *Board) Mode() wire.Mode {
	return b.mode
}

// Close releases the serial port. The device is left in whatever mode
// the session ended in.
func (b *Board) Close() error {
	return b.t.Close()
}

// connect senses the firmware's framing, escalates it to the target
// mode, then settles any continuous output left over from a previous
// session.
func (b *Board) connect() error {
	mode, err := b.senseMode()
	if err != nil {
		return err
	}
	b.setMode(mode)
	b.log.WithField("mode", b.mode).Debug("sensed protocol mode")

	if b.mode != b.target {
		connected := false
		for attempt := 0; attempt < b.attempts; attempt++ {
			if attempt > 0 {
				time.Sleep(b.delay)
			}
			err := b.switchMode(b.target)
			if err == nil {
				connected = true
				break
			}
			if !isRetryable(err) {
				return err
			}
			b.log.WithFields(logrus.Fields{
				"attempt": attempt + 1,
				"error":   err,
			}).Debug("mode handshake failed, retrying")
		}
		if !connected {
			return fmt.Errorf("%w: %s handshake did not complete in %d attempts",
				ErrConnection, b.target, b.attempts)
		}
	}
	b.log.WithField("mode", b.mode).Debug("protocol mode established")

	// A previous session may have left the board streaming. Stop it and
	// discard whatever is already in flight.
	if err := b.SDataC(); err != nil {
		var devErr *DeviceError
		if !errors.As(err, &devErr) {
			return err
		}
	}
	b.drainLines()
	return nil
}

// senseMode probes which framing the firmware booted in or was left in.
// Two blind commands settle any continuous output, then a nop is
// executed. A well-formed success envelope means the firmware already
// speaks JSON Lines; silence or an unparsable line means text mode.
func (b *Board) senseMode() (wire.Mode, error) {
	jl := wire.NewJSONLinesCodec(b.t)
	if err := b.sendWith(jl, "stop"); err != nil {
		return wire.ModeUnknown, err
	}
	if err := b.sendWith(jl, "sdatac"); err != nil {
		return wire.ModeUnknown, err
	}
	resp, err := b.executeWith(jl, "nop")
	if err != nil {
		if isRetryable(err) {
			return wire.ModeText, nil
		}
		return wire.ModeUnknown, err
	}
	if resp.OK() {
		return wire.ModeJSONLines, nil
	}
	return wire.ModeText, nil
}

// switchMode drives the firmware from the current framing to target.
// Escalation runs Text to JSON Lines to MessagePack; each hop costs one
// round trip. The acknowledgement to a mode-switch command is still
// framed in the old mode, only subsequent responses use the new one.
func (b *Board) switchMode(target wire.Mode) error {
	if b.mode == target && target != wire.ModeJSONLines {
		return nil
	}
	switch target {
	case wire.ModeJSONLines:
		jl := wire.NewJSONLinesCodec(b.t)
		if b.mode == wire.ModeText {
			if err := b.sendWith(wire.NewTextCodec(b.t), "jsonlines"); err != nil {
				return err
			}
			if _, err := jl.ReadResponse(); err != nil {
				return err
			}
		} else {
			if _, err := b.executeWith(jl, "jsonlines"); err != nil {
				return err
			}
		}
		b.setMode(wire.ModeJSONLines)

	case wire.ModeMessagePack:
		jl := wire.NewJSONLinesCodec(b.t)
		if b.mode == wire.ModeText {
			if err := b.sendWith(wire.NewTextCodec(b.t), "jsonlines"); err != nil {
				return err
			}
			if _, err := jl.ReadResponse(); err != nil {
				return err
			}
			b.setMode(wire.ModeJSONLines)
		}
		if _, err := b.executeWith(jl, "messagepack"); err != nil {
			return err
		}
		b.setMode(wire.ModeMessagePack)

	case wire.ModeText:
		return b.TextMode()
	}
	return nil
}

// setMode installs the codec for mode m over the shared transport.
func (b *Board) setMode(m wire.Mode) {
	b.mode = m
	switch m {
	case wire.ModeJSONLines:
		b.codec = wire.NewJSONLinesCodec(b.t)
	case wire.ModeMessagePack:
		b.codec = wire.NewMessagePackCodec(b.t)
	default:
		b.codec = wire.NewTextCodec(b.t)
	}
}

// sendWith encodes one command and writes it without awaiting a response.
func (b *Board) sendWith(c wire.Codec, name string, params ...int) error {
	raw, err := c.EncodeCommand(wire.Command{Name: name, Parameters: params})
	if err != nil {
		return fmt.Errorf("failed to encode command %q: %w", name, err)
	}
	if _, err := b.t.Write(raw); err != nil {
		return fmt.Errorf("failed to write command %q: %w", name, err)
	}
	return nil
}

// executeWith writes one command and reads exactly one response with the
// given codec, surfacing read errors to the caller.
func (b *Board) executeWith(c wire.Codec, name string, params ...int) (*wire.Response, error) {
	if err := b.sendWith(c, name, params...); err != nil {
		return nil, err
	}
	return c.ReadResponse()
}

// Execute sends one command and reads its single response. Commands and
// responses correlate strictly one to one; there is no pipelining. A
// response that times out or fails to parse yields an empty envelope
// rather than an error, so one garbled line does not end the session.
func (b *Board) Execute(name string, params ...int) (*wire.Response, error) {
	resp, err := b.executeWith(b.codec, name, params...)
	if err != nil {
		if isRetryable(err) {
			b.log.WithFields(logrus.Fields{
				"command": name,
				"error":   err,
			}).Debug("discarding unusable response")
			return &wire.Response{}, nil
		}
		return nil, err
	}
	return resp, nil
}

// command executes name and folds a non-success status into a DeviceError.
func (b *Board) command(name string, params ...int) error {
	resp, err := b.Execute(name, params...)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &DeviceError{Command: name, Code: resp.StatusCode, Text: resp.StatusText}
	}
	return nil
}

// drainLines discards buffered lines until the port goes quiet.
func (b *Board) drainLines() {
	for {
		line, err := b.t.ReadLine()
		if err != nil || len(line) == 0 {
			return
		}
	}
}

// isRetryable reports whether err is a read outcome the protocol
// tolerates: a silent deadline, a line that did not parse, or a stray
// scalar from a torn frame. Anything else is an I/O failure.
func isRetryable(err error) bool {
	return errors.Is(err, transport.ErrTimeout) ||
		errors.Is(err, wire.ErrMalformed) ||
		errors.Is(err, wire.ErrWrongShape)
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
