package wire

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// buildFrame assembles a binary sample frame from its decoded fields.
func buildFrame(timestamp, sampleNumber, status uint32, channels [8]int32) []byte {
	frame := make([]byte, FrameSize)
	binary.LittleEndian.PutUint32(frame[0:4], timestamp)
	binary.LittleEndian.PutUint32(frame[4:8], sampleNumber)
	frame[8] = byte(status >> 16)
	frame[9] = byte(status >> 8)
	frame[10] = byte(status)
	for ch, value := range channels {
		off := 11 + ch*3
		raw24 := uint32(value) & 0xffffff
		frame[off] = byte(raw24 >> 16)
		frame[off+1] = byte(raw24 >> 8)
		frame[off+2] = byte(raw24)
	}
	return frame
}

func TestDecodeFrame(t *testing.T) {
	channels := [8]int32{1000000, -1000000, 1, -1, 8388607, -8388608, 0, 42}

	// Status word: sync nibble 0xc, loff_statp 0xab, loff_statn 0x55, gpio 0x7
	status := uint32(0xc)<<20 | uint32(0xab)<<12 | uint32(0x55)<<4 | 0x7
	frame := buildFrame(123456789, 4242, status, channels)

	sample, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}

	if sample.Timestamp != 123456789 {
		t.Errorf("Timestamp = %d, want 123456789", sample.Timestamp)
	}
	if sample.SampleNumber != 4242 {
		t.Errorf("SampleNumber = %d, want 4242", sample.SampleNumber)
	}
	if sample.ADSStatus != status {
		t.Errorf("ADSStatus = 0x%06x, want 0x%06x", sample.ADSStatus, status)
	}
	if sample.GPIO != 0x7 {
		t.Errorf("GPIO = 0x%x, want 0x7", sample.GPIO)
	}
	if sample.LoffStatN != 0x55 {
		t.Errorf("LoffStatN = 0x%02x, want 0x55", sample.LoffStatN)
	}
	if sample.LoffStatP != 0xab {
		t.Errorf("LoffStatP = 0x%02x, want 0xab", sample.LoffStatP)
	}
	if sample.Extra != 0xc {
		t.Errorf("Extra = 0x%02x, want 0x0c", sample.Extra)
	}
	if sample.ChannelData != channels {
		t.Errorf("ChannelData = %v, want %v", sample.ChannelData, channels)
	}
}

func TestDecodeFrameBase64(t *testing.T) {
	frame := buildFrame(7, 99, 0xc00000, [8]int32{-2048, 2048, 0, 0, 0, 0, 0, 0})
	encoded := base64.StdEncoding.EncodeToString(frame)

	// The JSON Lines wire form carries the frame as base64 text, sometimes
	// with the line terminator still attached.
	for _, raw := range []string{encoded, encoded + "\r\n"} {
		sample, err := DecodeFrame([]byte(raw))
		if err != nil {
			t.Fatalf("DecodeFrame(%q) failed: %v", raw, err)
		}
		if sample.SampleNumber != 99 {
			t.Errorf("SampleNumber = %d, want 99", sample.SampleNumber)
		}
		if sample.ChannelData[0] != -2048 || sample.ChannelData[1] != 2048 {
			t.Errorf("ChannelData = %v, want ch1=-2048 ch2=2048", sample.ChannelData)
		}
	}
}

func TestDecodeFrameMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"empty", nil},
		{"short", make([]byte, FrameSize-1)},
		{"long", make([]byte, FrameSize+1)},
		{"single byte", []byte{0x55}},
		{"text garbage", []byte("mode changed to messagepack")},
		{"base64 of wrong size", []byte(base64.StdEncoding.EncodeToString(make([]byte, 16)))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sample, err := DecodeFrame(tt.raw)
			if err == nil {
				t.Fatalf("DecodeFrame accepted %d bytes, want error", len(tt.raw))
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("error = %v, want ErrMalformed", err)
			}
			if sample != nil {
				t.Errorf("sample = %+v, want nil", sample)
			}
		})
	}
}

func TestSignExtend24(t *testing.T) {
	tests := []struct {
		raw  uint32
		want int32
	}{
		{0x000000, 0},
		{0x000001, 1},
		{0x7fffff, 8388607},
		{0x800000, -8388608},
		{0x800001, -8388607},
		{0xffffff, -1},
	}
	for _, tt := range tests {
		if got := SignExtend24(tt.raw); got != tt.want {
			t.Errorf("SignExtend24(0x%06x) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestVoltage(t *testing.T) {
	var sample Sample
	sample.ChannelData[0] = 8388607  // positive full scale
	sample.ChannelData[1] = -8388608 // negative full scale
	sample.ChannelData[2] = 0

	tests := []struct {
		name  string
		ch    int
		gain  int
		scale float64
		want  float64
	}{
		{"full scale, unity gain, volts", 1, 1, 1.0, 4.5},
		{"full scale, unity gain, millivolts", 1, 1, 1e-3, 4500},
		{"full scale, gain 24", 1, 24, 1.0, 4.5 / 24},
		{"zero", 3, 24, 1e-6, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sample.Voltage(tt.ch, tt.gain, tt.scale)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Voltage(ch=%d gain=%d scale=%g) = %g, want %g", tt.ch, tt.gain, tt.scale, got, tt.want)
			}
		})
	}

	// Negative full scale overshoots by one LSB worth of voltage
	got := sample.Voltage(2, 1, 1.0)
	want := -4.5 * 8388608 / 8388607
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Voltage(negative full scale) = %g, want %g", got, want)
	}
}
