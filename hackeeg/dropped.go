package hackeeg

import "github.com/leofor19/hackeeg-go/wire"

// FindDropped counts how many of the sequence numbers 0 through
// expected-1 never appear in samples. Membership is checked against a
// set rather than a sorted diff, because counters can arrive out of
// order under jitter; the result does not depend on sample order.
func FindDropped(samples []*wire.Sample, expected int) int {
	observed := make(map[uint32]struct{}, len(samples))
	for _, s := range samples {
		if s != nil {
			observed[s.SampleNumber] = struct{}{}
		}
	}
	dropped := 0
	for n := 0; n < expected; n++ {
		if _, ok := observed[uint32(n)]; !ok {
			dropped++
		}
	}
	return dropped
}
