package hackeeg

import (
	"testing"

	"github.com/leofor19/hackeeg-go/wire"
)

func samplesNumbered(numbers ...uint32) []*wire.Sample {
	samples := make([]*wire.Sample, len(numbers))
	for i, n := range numbers {
		samples[i] = &wire.Sample{SampleNumber: n}
	}
	return samples
}

func TestFindDropped(t *testing.T) {
	tests := []struct {
		name     string
		numbers  []uint32
		expected int
		want     int
	}{
		{"contiguous", []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, 10, 0},
		{"one missing", []uint32{0, 1, 3, 4, 5, 6, 7, 8, 9, 10}, 10, 1},
		{"several missing", []uint32{0, 5, 9}, 10, 7},
		{"nothing expected", nil, 0, 0},
		{"nothing observed", nil, 5, 5},
		{"duplicates do not hide gaps", []uint32{0, 0, 2, 2}, 4, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindDropped(samplesNumbered(tt.numbers...), tt.expected)
			if got != tt.want {
				t.Errorf("FindDropped(%v, %d) = %d, want %d", tt.numbers, tt.expected, got, tt.want)
			}
		})
	}
}

func TestFindDroppedOrderInvariant(t *testing.T) {
	ordered := samplesNumbered(0, 1, 2, 4, 5, 6, 7)
	shuffled := samplesNumbered(7, 2, 5, 0, 6, 1, 4)

	a := FindDropped(ordered, 7)
	b := FindDropped(shuffled, 7)
	if a != b {
		t.Errorf("order changed the result: %d vs %d", a, b)
	}
	if a != 1 {
		t.Errorf("dropped = %d, want 1 (counter 3 never arrived)", a)
	}
}

func TestFindDroppedIgnoresNil(t *testing.T) {
	samples := samplesNumbered(0, 1, 2)
	samples = append(samples, nil)
	if got := FindDropped(samples, 3); got != 0 {
		t.Errorf("FindDropped with a nil record = %d, want 0", got)
	}
}
