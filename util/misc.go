package util

func IfThenElse[T any](condition bool, a T, b T) T {
	if condition {
		return a
	}
	return b
}

// FillSlice sets every element of a in [fromIndex, toIndex) to val
func FillSlice[T any](a []T, fromIndex uint32, toIndex uint32, val T) {
	for i := fromIndex; i < toIndex; i++ {
		a[i] = val
	}
}
