package entropy

import (
	"fmt"
	"sync"

	"github.com/kpfaulkner/rans-go/util"
	"golang.org/x/exp/constraints"
)

// MaxAlphabetSize bounds max-min+1 so a stray symbol cannot trigger a huge table allocation.
const MaxAlphabetSize = 1 << 24

// FrequencyModel is the static symbol statistics a coding session is built from.
// Symbols live in [min, max]; frequencyTable[i] counts symbol min+i and
// cumulativeFrequencyTable[i] is the sum of all frequencies of symbols below min+i.
type FrequencyModel struct {
	min                      int
	max                      int
	frequencyTable           []uint32
	cumulativeFrequencyTable []uint32

	rescaled   bool
	freezeOnce sync.Once
	frozen     bool
	cumToSym   []int32
}

// NewFrequencyModel counts the occurrences of every symbol.
// A non zero rangeBits forces the symbol range to [0, 2^rangeBits-1].
func NewFrequencyModel[T constraints.Integer](symbols []T, rangeBits uint) (*FrequencyModel, error) {
	lo, hi, ok := util.MinMax(symbols)
	if !ok {
		return nil, fmt.Errorf("%w: cannot build model from empty input", ErrRange)
	}

	fm := &FrequencyModel{}
	if rangeBits > 0 {
		if rangeBits > 24 {
			return nil, fmt.Errorf("%w: symbol range of %d bits is too large", ErrRange, rangeBits)
		}
		fm.min = 0
		fm.max = 1<<rangeBits - 1
		if lo < 0 {
			return nil, fmt.Errorf("%w: min of data (%d) too small for given minimum %d", ErrRange, lo, fm.min)
		}
		if uint64(hi) > uint64(fm.max) {
			return nil, fmt.Errorf("%w: max of data (%d) too big for given maximum %d", ErrRange, hi, fm.max)
		}
	} else {
		if err := checkAlphabet(int64(lo), int64(hi)); err != nil {
			return nil, err
		}
		fm.min = int(lo)
		fm.max = int(hi)
	}

	fm.frequencyTable = make([]uint32, fm.max-fm.min+1)
	for _, s := range symbols {
		fm.frequencyTable[int(s)-fm.min]++
	}
	fm.buildCumulativeFrequencyTable()
	return fm, nil
}

// NewFrequencyModelFromTable builds a model from an existing frequency table, e.g. an imported
// dictionary. The cumulative table is rederived, no rescaling is applied.
func NewFrequencyModelFromTable(min int, max int, frequencies []uint32) (*FrequencyModel, error) {
	if min > max {
		return nil, fmt.Errorf("%w: min %d greater than max %d", ErrFormat, min, max)
	}
	if err := checkAlphabet(int64(min), int64(max)); err != nil {
		return nil, err
	}
	if len(frequencies) != max-min+1 {
		return nil, fmt.Errorf("%w: frequency table has %d entries, expected %d", ErrFormat, len(frequencies), max-min+1)
	}

	fm := &FrequencyModel{min: min, max: max}
	fm.frequencyTable = make([]uint32, len(frequencies))
	copy(fm.frequencyTable, frequencies)

	var total uint64
	for _, f := range frequencies {
		total += uint64(f)
	}
	if total > 1<<32-1 {
		return nil, fmt.Errorf("%w: total frequency %d overflows 32 bits", ErrFormat, total)
	}
	fm.buildCumulativeFrequencyTable()
	return fm, nil
}

func checkAlphabet(lo int64, hi int64) error {
	if hi-lo+1 > MaxAlphabetSize || hi-lo < 0 {
		return fmt.Errorf("%w: symbol range [%d, %d] exceeds %d symbols", ErrRange, lo, hi, MaxAlphabetSize)
	}
	return nil
}

func (fm *FrequencyModel) buildCumulativeFrequencyTable() {
	fm.cumulativeFrequencyTable = make([]uint32, len(fm.frequencyTable)+1)
	util.PrefixSum(fm.frequencyTable, fm.cumulativeFrequencyTable)
}

// Rescale scales the frequency table so it sums to target, which must be a power of two.
// Every symbol that occurs keeps a frequency of at least 1. The rounding residual is absorbed
// by the symbol with the largest scaled frequency (lowest symbol wins ties).
func (fm *FrequencyModel) Rescale(target uint32) error {
	if fm.frozen {
		return ErrModelFrozen
	}
	if fm.rescaled {
		return fmt.Errorf("%w: model has already been rescaled", ErrModelFrozen)
	}
	if !util.IsPowerOfTwo(uint64(target)) {
		return fmt.Errorf("%w: target total %d is not a power of two", ErrPrecision, target)
	}

	origTotal := uint64(fm.Total())
	if origTotal == 0 {
		return fmt.Errorf("%w: cannot rescale a model without symbols", ErrPrecision)
	}
	distinct := fm.DistinctSymbols()
	if uint64(target) < uint64(distinct) {
		return fmt.Errorf("%w: total %d cannot hold %d distinct symbols", ErrPrecision, target, distinct)
	}

	scaled := make([]uint32, len(fm.frequencyTable))
	var sum int64
	for i, f := range fm.frequencyTable {
		if f == 0 {
			continue
		}
		// round(f * target / origTotal)
		sf := (2*uint64(f)*uint64(target) + origTotal) / (2 * origTotal)
		scaled[i] = uint32(util.Max(sf, 1))
		sum += int64(scaled[i])
	}

	residual := int64(target) - sum
	if residual > 0 {
		scaled[largestIndex(scaled, 0)] += uint32(residual)
	}
	for residual < 0 {
		idx := largestIndex(scaled, 1)
		if idx < 0 {
			// unreachable while target >= distinct symbols
			return fmt.Errorf("%w: cannot distribute rounding residual %d", ErrPrecision, residual)
		}
		take := util.Min(int64(scaled[idx])-1, -residual)
		scaled[idx] -= uint32(take)
		residual += take
	}

	fm.frequencyTable = scaled
	fm.buildCumulativeFrequencyTable()
	fm.rescaled = true
	return nil
}

// largestIndex returns the index of the largest value above floor, lowest index on ties,
// or -1 when no value is above floor.
func largestIndex(freqs []uint32, floor uint32) int {
	idx := -1
	best := floor
	for i, f := range freqs {
		if f > best {
			best = f
			idx = i
		}
	}
	return idx
}

// Freeze builds the cumulative->symbol lookup table. After Freeze the model is read only and
// may be shared between goroutines.
func (fm *FrequencyModel) Freeze() {
	fm.freezeOnce.Do(func() {
		fm.cumToSym = make([]int32, fm.Total())
		for i := range fm.frequencyTable {
			util.FillSlice(fm.cumToSym, fm.cumulativeFrequencyTable[i], fm.cumulativeFrequencyTable[i+1], int32(fm.min+i))
		}
		fm.frozen = true
	})
}

func (fm *FrequencyModel) Frozen() bool {
	return fm.frozen
}

// SymbolForCumulative returns the symbol whose [start, start+freq) range contains value.
// value must be in [0, Total()).
func (fm *FrequencyModel) SymbolForCumulative(value uint32) int {
	fm.Freeze()
	return int(fm.cumToSym[value])
}

func (fm *FrequencyModel) Min() int {
	return fm.min
}

func (fm *FrequencyModel) Max() int {
	return fm.max
}

// Size returns the number of symbols in [min, max].
func (fm *FrequencyModel) Size() int {
	return len(fm.frequencyTable)
}

func (fm *FrequencyModel) Total() uint32 {
	return fm.cumulativeFrequencyTable[len(fm.cumulativeFrequencyTable)-1]
}

// Frequency returns 0 for symbols outside [min, max].
func (fm *FrequencyModel) Frequency(symbol int) uint32 {
	if symbol < fm.min || symbol > fm.max {
		return 0
	}
	return fm.frequencyTable[symbol-fm.min]
}

// CumulativeFrequency returns the start of the symbols range. symbol may be max+1, which yields the total.
func (fm *FrequencyModel) CumulativeFrequency(symbol int) uint32 {
	if symbol <= fm.min {
		return 0
	}
	if symbol > fm.max {
		return fm.Total()
	}
	return fm.cumulativeFrequencyTable[symbol-fm.min]
}

func (fm *FrequencyModel) FrequencyTable() []uint32 {
	return append([]uint32(nil), fm.frequencyTable...)
}

func (fm *FrequencyModel) CumulativeFrequencyTable() []uint32 {
	return append([]uint32(nil), fm.cumulativeFrequencyTable...)
}

// DistinctSymbols counts the symbols with a non zero frequency.
func (fm *FrequencyModel) DistinctSymbols() int {
	n := 0
	for _, f := range fm.frequencyTable {
		if f != 0 {
			n++
		}
	}
	return n
}

// SymbolRangeBits is the number of bits needed to represent max-min.
func (fm *FrequencyModel) SymbolRangeBits() uint {
	return uint(util.CeilLog1p(int64(fm.max - fm.min)))
}

// ForEach calls fn for every symbol in [min, max] with its frequency and cumulative start.
func (fm *FrequencyModel) ForEach(fn func(symbol int, freq uint32, start uint32)) {
	for i, f := range fm.frequencyTable {
		fn(fm.min+i, f, fm.cumulativeFrequencyTable[i])
	}
}

// Dictionary is the persisted form of a model. The cumulative table is never stored.
type Dictionary struct {
	Min            int      `json:"min"`
	Max            int      `json:"max"`
	FrequencyTable []uint32 `json:"FrequencyTable"`
}

func (fm *FrequencyModel) Dictionary() Dictionary {
	return Dictionary{
		Min:            fm.min,
		Max:            fm.max,
		FrequencyTable: fm.FrequencyTable(),
	}
}

func NewFrequencyModelFromDictionary(d Dictionary) (*FrequencyModel, error) {
	return NewFrequencyModelFromTable(d.Min, d.Max, d.FrequencyTable)
}
