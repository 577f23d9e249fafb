package util

import (
	"golang.org/x/exp/constraints"
)

// MinMax returns the smallest and largest value in s.
// ok is false for an empty slice.
func MinMax[T constraints.Integer](s []T) (min T, max T, ok bool) {
	if len(s) == 0 {
		return min, max, false
	}
	min, max = s[0], s[0]
	for _, v := range s[1:] {
		if v < min {
			min = v
		} else if v > max {
			max = v
		}
	}
	return min, max, true
}

// PrefixSum writes the running totals of in to out. out must have len(in)+1 entries,
// out[0] is always zero and out[len(in)] is the grand total.
func PrefixSum[T constraints.Unsigned](in []T, out []T) {
	out[0] = 0
	for i, v := range in {
		out[i+1] = out[i] + v
	}
}

// Reversed returns a reversed copy of s
func Reversed[T any](s []T) []T {
	r := make([]T, len(s))
	for i, v := range s {
		r[len(s)-1-i] = v
	}
	return r
}
