package hackeeg

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/leofor19/hackeeg-go/ads1299"
	"github.com/leofor19/hackeeg-go/wire"
)

// ScanConfig describes one acquisition setup.
type ScanConfig struct {
	SampleRate  int       // samples per second, one of the ADS1299 rates
	Gain        int       // PGA gain applied to every enabled channel
	Mode        wire.Mode // framing for the continuous stream
	ChannelTest bool      // route internal test sources instead of electrodes
}

// Recording is the outcome of one acquisition run.
type Recording struct {
	Samples    []*wire.Sample
	Requested  int           // sample ceiling the run was asked for
	Dropped    int           // sequence numbers that never arrived
	Elapsed    time.Duration // wall clock spent in the read loop
	Throughput float64       // samples per second actually achieved
}

// Configure programs the ADS1299 for an acquisition and leaves the board
// streaming: registers are written for the requested rate and gain, the
// channels are routed, the stream framing is switched, and conversions
// are started with continuous output on. Continuous mode is toggled off
// first so a leftover stream from an earlier run cannot double-start.
func (b *Board) Configure(cfg ScanConfig) error {
	rateBits, ok := ads1299.SampleRates[cfg.SampleRate]
	if !ok {
		return fmt.Errorf("invalid sample rate %d, valid rates are %v",
			cfg.SampleRate, sortedKeys(ads1299.SampleRates))
	}
	if _, ok := ads1299.Gains[cfg.Gain]; !ok {
		return fmt.Errorf("invalid gain %d, valid gains are %v",
			cfg.Gain, sortedKeys(ads1299.Gains))
	}
	if cfg.Mode != wire.ModeJSONLines && cfg.Mode != wire.ModeMessagePack {
		return fmt.Errorf("%s framing cannot carry a sample stream", cfg.Mode)
	}

	if err := b.SDataC(); err != nil {
		var devErr *DeviceError
		if !errors.As(err, &devErr) {
			return err
		}
	}
	if err := b.Reset(); err != nil {
		return err
	}
	if err := b.BlinkBoardLED(); err != nil {
		return err
	}

	if err := b.WReg(ads1299.CONFIG1, ads1299.CONFIG1_const|int(rateBits)); err != nil {
		return fmt.Errorf("failed to set sample rate: %w", err)
	}
	if err := b.DisableAllChannels(); err != nil {
		return err
	}
	if cfg.ChannelTest {
		if err := b.channelConfigTest(); err != nil {
			return err
		}
	} else {
		if err := b.EnableAllChannels(cfg.Gain); err != nil {
			return err
		}
	}

	if cfg.Mode == wire.ModeMessagePack {
		if err := b.MessagePackMode(); err != nil {
			return err
		}
	} else {
		if err := b.JSONLinesMode(); err != nil {
			return err
		}
	}

	// Let the analog front end settle before conversions begin. The
	// stream is still off here, so nothing piles up in the OS buffer.
	time.Sleep(b.settle)

	if err := b.Start(); err != nil {
		return err
	}
	if err := b.RDataC(); err != nil {
		return err
	}
	b.sampleRate = cfg.SampleRate
	return nil
}

// Acquire pulls sample frames from the continuous stream until either
// maxSamples frames have been collected or duration's worth of samples
// at the configured rate have been, whichever ceiling is lower. Both
// bounds are checked every iteration, as is ctx, so cancellation takes
// effect between frames. On every exit path the device is returned to a
// quiescent, command-addressable state.
//
// The returned Recording is valid even when err is non-nil, so a
// degraded run still reports what it achieved.
func (b *Board) Acquire(ctx context.Context, maxSamples int, duration time.Duration) (*Recording, error) {
	if b.sampleRate == 0 {
		return nil, fmt.Errorf("board is not configured for acquisition")
	}
	if maxSamples <= 0 {
		return nil, fmt.Errorf("sample ceiling must be positive, got %d", maxSamples)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %v", duration)
	}

	limit := maxSamples
	if byDuration := int(duration.Seconds() * float64(b.sampleRate)); byDuration < limit {
		limit = byDuration
	}

	if !b.rdatac {
		if err := b.SDataC(); err != nil {
			var devErr *DeviceError
			if !errors.As(err, &devErr) {
				return nil, err
			}
		}
		if err := b.Start(); err != nil {
			return nil, err
		}
		if err := b.RDataC(); err != nil {
			return nil, err
		}
	}
	defer b.stopAndSDataC()

	// One throwaway read eats whatever accumulated between rdatac and
	// the loop, so the first counted frame starts at a boundary.
	if _, err := b.codec.ReadResponse(); err != nil && !isRetryable(err) {
		return nil, err
	}

	samples := make([]*wire.Sample, 0, limit)
	start := time.Now()
	for len(samples) < limit {
		if err := ctx.Err(); err != nil {
			return newRecording(samples, limit, start), err
		}
		sample, err := b.readFrame()
		if err != nil {
			return newRecording(samples, limit, start), err
		}
		samples = append(samples, sample)
		if b.observe != nil {
			b.observe(sample)
		}
	}
	return newRecording(samples, limit, start), nil
}

// readFrame performs one decode-capable read of the continuous stream,
// handing anything that is not a clean frame to the recovery engine.
func (b *Board) readFrame() (*wire.Sample, error) {
	resp, err := b.codec.ReadResponse()
	if err != nil {
		if isRetryable(err) {
			return b.recoverFrame(err)
		}
		return nil, err
	}
	sample, err := wire.DecodeFrame(resp.Data)
	if err != nil {
		return b.recoverFrame(err)
	}
	return sample, nil
}

func newRecording(samples []*wire.Sample, limit int, start time.Time) *Recording {
	elapsed := time.Since(start)
	rec := &Recording{
		Samples:   samples,
		Requested: limit,
		Dropped:   FindDropped(samples, len(samples)),
		Elapsed:   elapsed,
	}
	if elapsed > 0 {
		rec.Throughput = float64(len(samples)) / elapsed.Seconds()
	}
	return rec
}

func sortedKeys(m map[int]byte) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
