package chart

import "math"

// Downsample picks at most maxPoints elements of seq by even index stride.
// Selected elements are the original samples; nothing is interpolated.
// A sequence already within budget is returned as is.
func Downsample[T any](seq []T, maxPoints int) []T {
	if len(seq) == 0 || len(seq) <= maxPoints {
		return seq
	}
	if maxPoints < 2 {
		return seq[:1]
	}

	out := make([]T, maxPoints)
	last := float64(len(seq) - 1)
	for i := range out {
		idx := int(math.Round(float64(i) * last / float64(maxPoints-1)))
		out[i] = seq[idx]
	}
	return out
}
