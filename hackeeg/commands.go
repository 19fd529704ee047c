package hackeeg

import (
	"fmt"
	"time"

	"github.com/leofor19/hackeeg-go/ads1299"
	"github.com/leofor19/hackeeg-go/wire"
)

// blinkDuration is how long BlinkBoardLED leaves the LED lit.
const blinkDuration = 300 * time.Millisecond

// query executes name and returns the envelope, folding a non-success
// status into a DeviceError.
func (b *Board) query(name string, params ...int) (*wire.Response, error) {
	resp, err := b.Execute(name, params...)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &DeviceError{Command: name, Code: resp.StatusCode, Text: resp.StatusText}
	}
	return resp, nil
}

// Nop verifies the command channel round-trips.
func (b *Board) Nop() error {
	return b.command("nop")
}

// Version returns the firmware version string.
func (b *Board) Version() (string, error) {
	resp, err := b.query("version")
	if err != nil {
		return "", err
	}
	return resp.StatusText, nil
}

// Status returns the firmware's self-report envelope.
func (b *Board) Status() (*wire.Response, error) {
	return b.query("status")
}

// Micros returns the firmware's microsecond clock envelope.
func (b *Board) Micros() (*wire.Response, error) {
	return b.query("micros")
}

// Reset resets the ADS1299 to its power-on register state.
func (b *Board) Reset() error {
	return b.command("reset")
}

// Start begins analog-to-digital conversions.
func (b *Board) Start() error {
	return b.command("start")
}

// Stop halts analog-to-digital conversions.
func (b *Board) Stop() error {
	return b.command("stop")
}

// WReg writes value to an ADS1299 register.
func (b *Board) WReg(register, value int) error {
	return b.command("wreg", register, value)
}

// RReg reads an ADS1299 register. The firmware reports the value in the
// envelope's status text.
func (b *Board) RReg(register int) (*wire.Response, error) {
	return b.query("rreg", register)
}

// RData reads a single sample frame on demand.
func (b *Board) RData() (*wire.Sample, error) {
	resp, err := b.query("rdata")
	if err != nil {
		return nil, err
	}
	return wire.DecodeFrame(resp.Data)
}

// RDataC starts continuous data output. Once acknowledged, every
// subsequent read yields a sample frame rather than a command response.
func (b *Board) RDataC() error {
	if err := b.command("rdatac"); err != nil {
		return err
	}
	b.rdatac = true
	return nil
}

// SDataC stops continuous data output. Outside JSON Lines mode the
// acknowledgement often arrives torn, so a garbled ack is not an error.
func (b *Board) SDataC() error {
	defer func() { b.rdatac = false }()
	if b.mode == wire.ModeJSONLines {
		return b.command("sdatac")
	}
	if err := b.sendWith(b.codec, "sdatac"); err != nil {
		return err
	}
	b.codec.ReadResponse() // best effort, the ack may be torn
	return nil
}

// BoardLEDOn lights the blue LED on the shield.
func (b *Board) BoardLEDOn() error {
	return b.command("boardledon")
}

// BoardLEDOff turns off the blue LED on the shield.
func (b *Board) BoardLEDOff() error {
	return b.command("boardledoff")
}

// LEDOn lights the LED on the Arduino itself.
func (b *Board) LEDOn() error {
	return b.command("ledon")
}

// LEDOff turns off the LED on the Arduino itself.
func (b *Board) LEDOff() error {
	return b.command("ledoff")
}

// BlinkBoardLED flashes the shield LED once, a quick visual check that
// commands are getting through.
func (b *Board) BlinkBoardLED() error {
	if err := b.BoardLEDOn(); err != nil {
		return err
	}
	time.Sleep(blinkDuration)
	return b.BoardLEDOff()
}

// JSONLinesMode switches the session to JSON Lines framing.
func (b *Board) JSONLinesMode() error {
	return b.switchMode(wire.ModeJSONLines)
}

// MessagePackMode switches the session to MessagePack framing. Required
// for sample rates of 8000 SPS and above, where JSON framing cannot keep
// up with the wire.
func (b *Board) MessagePackMode() error {
	return b.switchMode(wire.ModeMessagePack)
}

// TextMode returns the firmware to its boot-time line protocol. The
// command is sent blind; the firmware does not acknowledge it in a
// parseable frame.
func (b *Board) TextMode() error {
	if err := b.sendWith(b.codec, "text"); err != nil {
		return err
	}
	b.setMode(wire.ModeText)
	return nil
}

// EnableChannel connects channel ch (1 to 8) to its electrode input at
// the given gain. If continuous output is running it is paused around
// the register write and restarted after.
func (b *Board) EnableChannel(ch, gain int) error {
	gainBits, ok := ads1299.Gains[gain]
	if !ok {
		return fmt.Errorf("invalid gain %d", gain)
	}
	if ch < 1 || ch > ads1299.NumChannels {
		return fmt.Errorf("channel %d out of range 1..%d", ch, ads1299.NumChannels)
	}
	wasStreaming := b.rdatac
	if wasStreaming {
		if err := b.SDataC(); err != nil {
			return err
		}
	}
	if err := b.WReg(ads1299.CHnSET+ch, ads1299.ELECTRODE_INPUT|int(gainBits)); err != nil {
		return err
	}
	if wasStreaming {
		return b.RDataC()
	}
	return nil
}

// DisableChannel powers channel ch down with its input shorted.
func (b *Board) DisableChannel(ch int) error {
	if ch < 1 || ch > ads1299.NumChannels {
		return fmt.Errorf("channel %d out of range 1..%d", ch, ads1299.NumChannels)
	}
	return b.WReg(ads1299.CHnSET+ch, ads1299.PDn|ads1299.SHORTED)
}

// EnableAllChannels connects every channel to its electrode input at the
// given gain.
func (b *Board) EnableAllChannels(gain int) error {
	for ch := 1; ch <= ads1299.NumChannels; ch++ {
		if err := b.EnableChannel(ch, gain); err != nil {
			return err
		}
	}
	return nil
}

// DisableAllChannels powers down every channel.
func (b *Board) DisableAllChannels() error {
	for ch := 1; ch <= ads1299.NumChannels; ch++ {
		if err := b.DisableChannel(ch); err != nil {
			return err
		}
	}
	return nil
}

// channelConfigTest routes the internal test sources instead of the
// electrode inputs. Channels 1 to 7 get the DC calibration signal, a
// shorted input, the supply, bias and temperature monitors and the
// square-wave test signal; channel 8 is powered down.
func (b *Board) channelConfigTest() error {
	if err := b.WReg(ads1299.CONFIG2, ads1299.INT_TEST_4HZ|ads1299.CONFIG2_const); err != nil {
		return err
	}
	program := []int{
		ads1299.INT_TEST_DC | ads1299.GAIN_1X,
		ads1299.SHORTED | ads1299.GAIN_1X,
		ads1299.MVDD | ads1299.GAIN_1X,
		ads1299.BIAS_DRN | ads1299.GAIN_1X,
		ads1299.BIAS_DRP | ads1299.GAIN_1X,
		ads1299.TEMP | ads1299.GAIN_1X,
		ads1299.TEST_SIGNAL | ads1299.GAIN_1X,
	}
	for i, value := range program {
		if err := b.WReg(ads1299.CHnSET+i+1, value); err != nil {
			return err
		}
	}
	return b.DisableChannel(ads1299.NumChannels)
}
