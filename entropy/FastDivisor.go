package entropy

import (
	"fmt"
	"math/bits"

	"github.com/kpfaulkner/rans-go/util"
)

// MaxFastDivisor is the largest divisor FastDivisor supports.
const MaxFastDivisor = 1 << 31

// FastDivisor divides by a fixed frequency with a multiply-high and a shift instead of a
// hardware division (Alverson, "Integer Division using reciprocals").
// The quotient is exact for 1 <= x < 2^63.
type FastDivisor struct {
	freq  uint32
	rcp   uint64
	shift uint
	bias  uint64
}

func NewFastDivisor(freq uint32) (FastDivisor, error) {
	if freq == 0 {
		return FastDivisor{}, fmt.Errorf("%w: division by zero frequency", ErrDomain)
	}
	if freq > MaxFastDivisor {
		return FastDivisor{}, fmt.Errorf("%w: frequency %d exceeds %d", ErrPrecision, freq, MaxFastDivisor)
	}

	if freq == 1 {
		// mulhi(x, 2^64-1) == x-1 for any x >= 1
		return FastDivisor{freq: 1, rcp: ^uint64(0), shift: 0, bias: 1}, nil
	}

	// rcp = ceil(2^(63+s) / freq) with 2^(s-1) < freq <= 2^s, which always fits 64 bits
	s := util.CeilLog2(uint64(freq))
	rcp, _ := bits.Div64(1<<(s-1), uint64(freq-1), uint64(freq))
	return FastDivisor{freq: freq, rcp: rcp, shift: s - 1}, nil
}

func (d FastDivisor) Freq() uint32 {
	return d.freq
}

// Quotient returns x / freq.
func (d FastDivisor) Quotient(x uint64) uint64 {
	hi, _ := bits.Mul64(x, d.rcp)
	return hi>>d.shift + d.bias
}

// QuoRem returns x / freq and x % freq.
func (d FastDivisor) QuoRem(x uint64) (uint64, uint64) {
	q := d.Quotient(x)
	return q, x - q*uint64(d.freq)
}
