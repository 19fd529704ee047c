package hackeeg

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/leofor19/hackeeg-go/wire"
)

// recoveryDecision is what the escalation policy says to do next after a
// continuous read failed to yield a sample frame.
type recoveryDecision int

const (
	decisionRetry    recoveryDecision = iota // discard and reread
	decisionEscalate                         // intervene, then open a fresh window
	decisionFail                             // declare the stream lost
)

func (d recoveryDecision) String() string {
	switch d {
	case decisionRetry:
		return "retry"
	case decisionEscalate:
		return "escalate"
	case decisionFail:
		return "fail"
	}
	return "unknown"
}

// resyncPlan bounds the stream recovery procedure. Each level gets its
// own time window; running past the last level's window loses the
// stream. Keeping the bounds in one table makes the escalation behavior
// checkable without a device.
type resyncPlan struct {
	levels      int           // escalation levels before giving up
	window      time.Duration // reread time allowed per level
	maxAttempts int           // per-level attempt cap, 0 for window-bounded only
}

func defaultResyncPlan() resyncPlan {
	return resyncPlan{levels: 2, window: 10 * time.Second}
}

// decide maps the retry state at one level to the next action. Pure
// function of its inputs.
func (p resyncPlan) decide(level, attempts int, elapsed time.Duration) recoveryDecision {
	withinWindow := elapsed <= p.window
	withinAttempts := p.maxAttempts == 0 || attempts < p.maxAttempts
	if withinWindow && withinAttempts {
		return decisionRetry
	}
	if level < p.levels-1 {
		return decisionEscalate
	}
	return decisionFail
}

// recoverFrame resynchronizes the continuous stream after a read
// produced cause instead of a sample frame. The first level discards
// pending input and rereads until its window closes. The next level
// settles the firmware with a stop/sdatac toggle, waits, restarts the
// stream and rereads within a fresh window. Running out of levels means
// the frame boundary is unrecoverable and the session must end.
func (b *Board) recoverFrame(cause error) (*wire.Sample, error) {
	b.log.WithField("cause", cause).Debug("resynchronizing sample stream")

	for level := 0; level < b.resync.levels; level++ {
		if level > 0 {
			b.log.WithField("level", level).Debug("resync window closed, toggling continuous mode")
			b.stopAndSDataC()
			time.Sleep(b.settle)
			if err := b.t.Flush(); err != nil {
				return nil, err
			}
			// An unacknowledged restart is not fatal here; whether frames
			// arrive again is decided by the reread window.
			if err := b.RDataC(); err != nil {
				var devErr *DeviceError
				if !errors.As(err, &devErr) {
					return nil, err
				}
			}
		}

		start := time.Now()
		for attempt := 0; ; attempt++ {
			if b.resync.decide(level, attempt, time.Since(start)) != decisionRetry {
				break
			}
			if err := b.t.Flush(); err != nil {
				return nil, err
			}
			resp, err := b.codec.ReadResponse()
			if err != nil {
				if isRetryable(err) {
					continue
				}
				return nil, err
			}
			sample, err := wire.DecodeFrame(resp.Data)
			if err != nil {
				continue
			}
			b.log.WithFields(logrus.Fields{
				"level":    level,
				"attempts": attempt + 1,
			}).Debug("sample stream resynchronized")
			return sample, nil
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrDesync, cause)
}

// stopAndSDataC settles the firmware out of continuous mode with blind
// writes, then eats one response if any arrives. Best effort, safe to
// call in any state.
func (b *Board) stopAndSDataC() {
	b.sendWith(b.codec, "stop")
	b.sendWith(b.codec, "sdatac")
	b.sendWith(b.codec, "nop")
	b.codec.ReadResponse()
	b.rdatac = false
}
