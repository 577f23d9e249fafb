package ransio

import (
	"fmt"
	"math"
	"os"

	"github.com/kpfaulkner/rans-go/entropy"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the descriptor record.
const (
	fieldMin             protowire.Number = 1
	fieldMax             protowire.Number = 2
	fieldFrequencies     protowire.Number = 3
	fieldProbabilityBits protowire.Number = 4
	fieldCoderBits       protowire.Number = 5
	fieldStreamBits      protowire.Number = 6
	fieldLanes           protowire.Number = 7
	fieldSymbolCount     protowire.Number = 8
)

// DefaultSymbolLimit caps the symbol count accepted from a descriptor read from an untrusted source.
const DefaultSymbolLimit = 1 << 30

// StreamDescriptor carries everything a decoder needs that the bitstream itself does not:
// the dictionary, the coder widths, the lane schedule and the number of symbols.
type StreamDescriptor struct {
	Dictionary      entropy.Dictionary
	ProbabilityBits uint
	CoderBits       uint
	StreamBits      uint
	Lanes           int
	SymbolCount     uint64
}

// SymbolCountWithin returns SymbolCount as an int, or ErrFormat when it exceeds limit.
// A single symbol alphabet codes any run length in the flushed state alone, so the count
// cannot be bounded by the stream length.
func (sd StreamDescriptor) SymbolCountWithin(limit uint64) (int, error) {
	if sd.SymbolCount > limit || sd.SymbolCount > math.MaxInt {
		return 0, fmt.Errorf("%w: descriptor announces %d symbols, limit is %d", entropy.ErrFormat, sd.SymbolCount, limit)
	}
	return int(sd.SymbolCount), nil
}

// Config returns the coder configuration of the stream.
func (sd StreamDescriptor) Config() (entropy.CoderConfig, error) {
	return entropy.NewCoderConfig(sd.CoderBits, sd.StreamBits, sd.ProbabilityBits)
}

func (sd StreamDescriptor) Schedule() (entropy.LaneSchedule, error) {
	return entropy.ParseLaneSchedule(sd.Lanes)
}

// Model rebuilds the frequency model. The stored table is already rescaled so it is used as is.
func (sd StreamDescriptor) Model() (*entropy.FrequencyModel, error) {
	return entropy.NewFrequencyModelFromDictionary(sd.Dictionary)
}

// MarshalDescriptor encodes sd with protobuf wire primitives. Frequencies are a packed
// repeated varint field.
func MarshalDescriptor(sd StreamDescriptor) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldMin, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(sd.Dictionary.Min)))
	b = protowire.AppendTag(b, fieldMax, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(sd.Dictionary.Max)))

	var packed []byte
	for _, f := range sd.Dictionary.FrequencyTable {
		packed = protowire.AppendVarint(packed, uint64(f))
	}
	b = protowire.AppendTag(b, fieldFrequencies, protowire.BytesType)
	b = protowire.AppendBytes(b, packed)

	for _, field := range []struct {
		num   protowire.Number
		value uint64
	}{
		{fieldProbabilityBits, uint64(sd.ProbabilityBits)},
		{fieldCoderBits, uint64(sd.CoderBits)},
		{fieldStreamBits, uint64(sd.StreamBits)},
		{fieldLanes, uint64(sd.Lanes)},
		{fieldSymbolCount, sd.SymbolCount},
	} {
		b = protowire.AppendTag(b, field.num, protowire.VarintType)
		b = protowire.AppendVarint(b, field.value)
	}
	return b
}

// UnmarshalDescriptor decodes a descriptor written by MarshalDescriptor. Unknown fields are skipped.
func UnmarshalDescriptor(b []byte) (StreamDescriptor, error) {
	var sd StreamDescriptor
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return StreamDescriptor{}, wireError(n)
		}
		b = b[n:]

		switch {
		case num == fieldFrequencies && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return StreamDescriptor{}, wireError(n)
			}
			b = b[n:]
			for len(packed) > 0 {
				v, m := protowire.ConsumeVarint(packed)
				if m < 0 {
					return StreamDescriptor{}, wireError(m)
				}
				if err := appendFrequency(&sd, v); err != nil {
					return StreamDescriptor{}, err
				}
				packed = packed[m:]
			}

		case num >= fieldMin && num <= fieldSymbolCount && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return StreamDescriptor{}, wireError(n)
			}
			b = b[n:]
			if err := setField(&sd, num, v); err != nil {
				return StreamDescriptor{}, err
			}

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return StreamDescriptor{}, wireError(n)
			}
			b = b[n:]
		}
	}

	if len(sd.Dictionary.FrequencyTable) != sd.Dictionary.Max-sd.Dictionary.Min+1 {
		return StreamDescriptor{}, fmt.Errorf("%w: descriptor has %d frequencies for range [%d, %d]", entropy.ErrFormat, len(sd.Dictionary.FrequencyTable), sd.Dictionary.Min, sd.Dictionary.Max)
	}
	return sd, nil
}

func setField(sd *StreamDescriptor, num protowire.Number, v uint64) error {
	switch num {
	case fieldMin:
		sd.Dictionary.Min = int(protowire.DecodeZigZag(v))
	case fieldMax:
		sd.Dictionary.Max = int(protowire.DecodeZigZag(v))
	case fieldFrequencies:
		// unpacked repeated encoding
		return appendFrequency(sd, v)
	case fieldProbabilityBits:
		sd.ProbabilityBits = uint(v)
	case fieldCoderBits:
		sd.CoderBits = uint(v)
	case fieldStreamBits:
		sd.StreamBits = uint(v)
	case fieldLanes:
		sd.Lanes = int(v)
	case fieldSymbolCount:
		sd.SymbolCount = v
	}
	return nil
}

func appendFrequency(sd *StreamDescriptor, v uint64) error {
	if v > 1<<32-1 {
		return fmt.Errorf("%w: frequency %d overflows 32 bits", entropy.ErrFormat, v)
	}
	if len(sd.Dictionary.FrequencyTable) >= entropy.MaxAlphabetSize {
		return fmt.Errorf("%w: more than %d frequencies", entropy.ErrFormat, entropy.MaxAlphabetSize)
	}
	sd.Dictionary.FrequencyTable = append(sd.Dictionary.FrequencyTable, uint32(v))
	return nil
}

func wireError(n int) error {
	return fmt.Errorf("%w: %v", entropy.ErrFormat, protowire.ParseError(n))
}

// SaveDescriptor writes the descriptor sidecar to path.
func SaveDescriptor(path string, sd StreamDescriptor) error {
	if err := os.WriteFile(path, MarshalDescriptor(sd), 0666); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

func LoadDescriptor(path string) (StreamDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return StreamDescriptor{}, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return UnmarshalDescriptor(data)
}
