package util

import (
	"cmp"
	"math/bits"
)

// CeilLog1p returns the number of bits needed to represent x.
func CeilLog1p(x int64) int {
	xx := bits.LeadingZeros64(uint64(x))
	return 64 - xx
}

func IsPowerOfTwo(x uint64) bool {
	return x != 0 && x&(x-1) == 0
}

// CeilLog2 returns the smallest s such that 1<<s >= x. x must be non zero.
func CeilLog2(x uint64) uint {
	return uint(bits.Len64(x - 1))
}

func Max[T cmp.Ordered](args ...T) T {
	if len(args) == 0 {
		return *new(T)
	}

	if isNan(args[0]) {
		return args[0]
	}

	max := args[0]
	for _, arg := range args[1:] {

		if isNan(arg) {
			return arg
		}

		if arg > max {
			max = arg
		}
	}
	return max
}

func Min[T cmp.Ordered](args ...T) T {
	if len(args) == 0 {
		return *new(T)
	}

	if isNan(args[0]) {
		return args[0]
	}

	min := args[0]
	for _, arg := range args[1:] {

		if isNan(arg) {
			return arg
		}

		if arg < min {
			min = arg
		}
	}
	return min
}

func isNan[T comparable](arg T) bool {
	return arg != arg
}
