// Package transport provides the byte-oriented duplex channel to a HackEEG
// board: a serial port with deadline-aware buffered reads, device discovery
// by USB identifiers, and a USB-level reset for wedged boards.
package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate is the rate the HackEEG firmware configures its USB CDC
// serial port for.
const DefaultBaudRate = 115200

// DefaultReadTimeout bounds a single read. The protocol distinguishes a read
// that produced nothing within this window from one that produced garbage,
// so the timeout is deliberately short and reads are retried by the caller.
const DefaultReadTimeout = 100 * time.Millisecond

// ErrTimeout is returned by reads that hit the read deadline before any data
// arrived.
var ErrTimeout = errors.New("serial read timed out")

// portReader converts the serial library's timeout signal, a zero-byte read
// with a nil error, into ErrTimeout so it survives buffering.
type portReader struct {
	ser serial.Port
}

func (r portReader) Read(p []byte) (int, error) {
	n, err := r.ser.Read(p)
	if err != nil {
		return n, err
	}
	if n == 0 && len(p) > 0 {
		return 0, ErrTimeout
	}
	return n, nil
}

// Port is the serial connection to the board. All reads go through one
// shared buffer, so newline-framed reads and the binary MessagePack decoder
// can alternate on the same stream without losing bytes. Port implements
// io.Reader and io.ByteScanner.
type Port struct {
	path string
	ser  serial.Port
	br   *bufio.Reader
}

// Open opens the serial device at path with the given baud rate and per-read
// timeout. The driver-side buffers are cleared so the session does not start
// on stale bytes.
func Open(path string, baud int, timeout time.Duration) (*Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
	}
	ser, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	if err := ser.SetReadTimeout(timeout); err != nil {
		ser.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}
	if err := ser.ResetInputBuffer(); err != nil {
		ser.Close()
		return nil, fmt.Errorf("failed to reset input buffer: %w", err)
	}
	if err := ser.ResetOutputBuffer(); err != nil {
		ser.Close()
		return nil, fmt.Errorf("failed to reset output buffer: %w", err)
	}
	return &Port{
		path: path,
		ser:  ser,
		br:   bufio.NewReaderSize(portReader{ser: ser}, 4096),
	}, nil
}

// Name returns the device path the port was opened with.
func (p *Port) Name() string {
	return p.path
}

func (p *Port) Read(buf []byte) (int, error) {
	return p.br.Read(buf)
}

func (p *Port) ReadByte() (byte, error) {
	return p.br.ReadByte()
}

func (p *Port) UnreadByte() error {
	return p.br.UnreadByte()
}

// ReadLine reads up to and including the next newline. When the deadline
// expires mid-line, the bytes received so far are returned together with
// ErrTimeout.
func (p *Port) ReadLine() ([]byte, error) {
	return p.br.ReadBytes('\n')
}

// ReadRaw reads exactly n bytes. On error the bytes received so far are
// returned alongside it.
func (p *Port) ReadRaw(n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := io.ReadFull(p.br, buf)
	return buf[:got], err
}

// Write sends buf to the device and waits until the output buffer has
// drained, so a command is fully on the wire before its response is awaited.
func (p *Port) Write(buf []byte) (int, error) {
	n, err := p.ser.Write(buf)
	if err != nil {
		return n, err
	}
	if err := p.ser.Drain(); err != nil {
		return n, err
	}
	return n, nil
}

// Flush discards all device input that has not been read yet, both in the
// operating system buffer and in the port's own read buffer.
func (p *Port) Flush() error {
	if err := p.ser.ResetInputBuffer(); err != nil {
		return fmt.Errorf("failed to reset input buffer: %w", err)
	}
	p.br.Reset(portReader{ser: p.ser})
	return nil
}

// SetReadTimeout changes the per-read deadline.
func (p *Port) SetReadTimeout(timeout time.Duration) error {
	return p.ser.SetReadTimeout(timeout)
}

func (p *Port) Close() error {
	return p.ser.Close()
}
