package wire

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// FrameSize is the length of one binary sample frame in bytes.
const FrameSize = 38

// VRef is the ADS1299 reference voltage in volts.
const VRef = 4.5

// fullScale is the positive full-scale raw reading of the 24-bit converter.
const fullScale = 1<<23 - 1

// Sample is one decoded acquisition frame: a timestamp and sequence number
// stamped by the firmware, the ADS1299 status word, and the readings of all
// eight channels as sign-extended 24-bit values.
type Sample struct {
	Timestamp    uint32
	SampleNumber uint32
	ADSStatus    uint32
	GPIO         uint8
	LoffStatN    uint8
	LoffStatP    uint8
	Extra        uint8
	ChannelData  [8]int32
}

// DecodeFrame parses one 38-byte sample frame. Textual input is accepted as
// well: if raw is the base64 transport encoding of a frame it is decoded
// first. Undersized, oversized or garbled input yields an error value, never
// a panic.
func DecodeFrame(raw []byte) (*Sample, error) {
	if len(raw) != FrameSize {
		decoded, ok := frameFromBase64(raw)
		if !ok {
			return nil, fmt.Errorf("%w: frame is %d bytes, want %d", ErrMalformed, len(raw), FrameSize)
		}
		raw = decoded
	}

	// Frame layout:
	// bytes 0-3:   timestamp (uint32, little-endian)
	// bytes 4-7:   sample number (uint32, little-endian)
	// bytes 8-10:  ADS1299 status word (24 bits, big-endian):
	//              bits 20-27 extra, 12-19 loff_statp, 4-11 loff_statn, 0-3 gpio
	// bytes 11-37: 8 channels, 3 bytes each, big-endian two's complement
	var s Sample
	s.Timestamp = binary.LittleEndian.Uint32(raw[0:4])
	s.SampleNumber = binary.LittleEndian.Uint32(raw[4:8])

	status := uint32(raw[8])<<16 | uint32(raw[9])<<8 | uint32(raw[10])
	s.ADSStatus = status
	s.GPIO = uint8(status & 0x0f)
	s.LoffStatN = uint8((status >> 4) & 0xff)
	s.LoffStatP = uint8((status >> 12) & 0xff)
	s.Extra = uint8((status >> 20) & 0xff)

	for ch := 0; ch < len(s.ChannelData); ch++ {
		off := 11 + ch*3
		raw24 := uint32(raw[off])<<16 | uint32(raw[off+1])<<8 | uint32(raw[off+2])
		s.ChannelData[ch] = SignExtend24(raw24)
	}
	return &s, nil
}

// frameFromBase64 attempts to interpret raw as the base64 text encoding of a
// sample frame, tolerating a trailing line terminator.
func frameFromBase64(raw []byte) ([]byte, bool) {
	raw = bytes.TrimRight(raw, "\r\n")
	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(raw)))
	n, err := base64.StdEncoding.Decode(decoded, raw)
	if err != nil || n != FrameSize {
		return nil, false
	}
	return decoded[:n], true
}

// SignExtend24 widens a 24-bit two's-complement value to int32.
func SignExtend24(v uint32) int32 {
	if v&0x800000 != 0 {
		return int32(v | 0xff000000)
	}
	return int32(v)
}

// Voltage converts the raw reading of channel ch (1-based, matching the
// channel numbering on the board) to volts scaled by the given unit. A scale
// of 1e-3 yields millivolts, 1e-6 microvolts. The gain must be the PGA gain
// the channel was configured with.
func (s *Sample) Voltage(ch int, gain int, scale float64) float64 {
	return float64(s.ChannelData[ch-1]) * VRef / fullScale / float64(gain) / scale
}
