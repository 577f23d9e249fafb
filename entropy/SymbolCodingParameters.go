package entropy

import (
	"fmt"
)

// DecoderSymbol is all the decoder needs to step over a symbol.
type DecoderSymbol struct {
	Start uint32 // Start of range.
	Freq  uint32 // Symbol frequency.
}

// EncoderSymbol carries the precomputed constants of the encode hot path.
type EncoderSymbol struct {
	Start uint32
	Freq  uint32

	// XMax is the exclusive upper bound of the pre-normalisation interval.
	XMax uint64

	Divisor FastDivisor
}

func newEncoderSymbol(start uint32, freq uint32, cfg CoderConfig) (EncoderSymbol, error) {
	div, err := NewFastDivisor(freq)
	if err != nil {
		return EncoderSymbol{}, err
	}
	return EncoderSymbol{
		Start:   start,
		Freq:    freq,
		XMax:    ((cfg.LowerBound() >> cfg.ProbabilityBits) << cfg.StreamBits) * uint64(freq),
		Divisor: div,
	}, nil
}

// SymbolTable holds the encoder and decoder parameters of every symbol in [min, max].
type SymbolTable struct {
	min      int
	encoders []EncoderSymbol
	decoders []DecoderSymbol
}

// NewSymbolTable builds the coding parameters from a rescaled model. The model total
// has to match the configured probability scale.
func NewSymbolTable(model *FrequencyModel, cfg CoderConfig) (*SymbolTable, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if model.Total() != cfg.Total() {
		return nil, fmt.Errorf("%w: model total %d does not match probability scale %d, rescale first", ErrPrecision, model.Total(), cfg.Total())
	}

	st := &SymbolTable{
		min:      model.Min(),
		encoders: make([]EncoderSymbol, model.Size()),
		decoders: make([]DecoderSymbol, model.Size()),
	}

	var err error
	model.ForEach(func(symbol int, freq uint32, start uint32) {
		idx := symbol - st.min
		st.decoders[idx] = DecoderSymbol{Start: start, Freq: freq}
		if freq == 0 || err != nil {
			// left zeroed, Encoder reports ErrDomain for it
			return
		}
		st.encoders[idx], err = newEncoderSymbol(start, freq, cfg)
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (st *SymbolTable) Min() int {
	return st.min
}

func (st *SymbolTable) Max() int {
	return st.min + len(st.decoders) - 1
}

// Encoder returns the encode parameters for symbol.
func (st *SymbolTable) Encoder(symbol int) (*EncoderSymbol, error) {
	idx := symbol - st.min
	if idx < 0 || idx >= len(st.encoders) {
		return nil, fmt.Errorf("%w: symbol %d not in [%d, %d]", ErrRange, symbol, st.min, st.Max())
	}
	es := &st.encoders[idx]
	if es.Freq == 0 {
		return nil, fmt.Errorf("%w: symbol %d", ErrDomain, symbol)
	}
	return es, nil
}

// Decoder returns the decode parameters for symbol. Symbols come from the
// cumulative lookup of the same model so they are always in range.
func (st *SymbolTable) Decoder(symbol int) *DecoderSymbol {
	return &st.decoders[symbol-st.min]
}
