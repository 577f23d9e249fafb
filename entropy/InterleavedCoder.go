package entropy

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// InterleavedCoder runs one RansState per lane against a single shared stream. Lanes have
// independent dependency chains so their multiplies and renormalisation branches overlap,
// the compressed size is the same as the sequential coder plus one flushed register per lane.
type InterleavedCoder[T constraints.Integer, S StreamWord] struct {
	coder    Coder[S]
	table    *SymbolTable
	model    *FrequencyModel
	schedule LaneSchedule
	states   []RansState

	flushOrder  []int
	initOrder   []int
	encodeOrder []int
	decodeOrder []int
}

// NewInterleavedCoder binds a coder to the symbol table and frozen model of a session.
func NewInterleavedCoder[T constraints.Integer, S StreamWord](coder Coder[S], table *SymbolTable, model *FrequencyModel, schedule LaneSchedule) (*InterleavedCoder[T, S], error) {
	if _, err := ParseLaneSchedule(schedule.Lanes()); err != nil {
		return nil, err
	}
	if model.Total() != coder.Config().Total() {
		return nil, fmt.Errorf("%w: model total %d does not match probability scale %d", ErrPrecision, model.Total(), coder.Config().Total())
	}
	model.Freeze()

	return &InterleavedCoder[T, S]{
		coder:       coder,
		table:       table,
		model:       model,
		schedule:    schedule,
		states:      make([]RansState, schedule.Lanes()),
		flushOrder:  schedule.FlushOrder(),
		initOrder:   schedule.InitOrder(),
		encodeOrder: schedule.EncodeRoundOrder(),
		decodeOrder: schedule.DecodeRoundOrder(),
	}, nil
}

func (ic *InterleavedCoder[T, S]) Schedule() LaneSchedule {
	return ic.schedule
}

// Encode writes symbols to out. Symbols are consumed back to front: first the leftover
// tail into lane 0, then complete rounds, then every lane is flushed in FlushOrder.
func (ic *InterleavedCoder[T, S]) Encode(symbols []T, out *EncodeCursor[S]) error {
	for i := range ic.states {
		ic.coder.EncInit(&ic.states[i])
	}

	lanes := ic.schedule.Lanes()
	rounded := ic.schedule.RoundedLength(len(symbols))
	for i := len(symbols) - 1; i >= rounded; i-- {
		if err := ic.put(0, symbols[i], out); err != nil {
			return err
		}
	}

	for i := rounded; i > 0; i -= lanes {
		base := i - lanes
		for _, lane := range ic.encodeOrder {
			if err := ic.put(lane, symbols[base+lane], out); err != nil {
				return err
			}
		}
	}

	for _, lane := range ic.flushOrder {
		if err := ic.coder.EncFlush(&ic.states[lane], out); err != nil {
			return err
		}
	}
	return nil
}

func (ic *InterleavedCoder[T, S]) put(lane int, symbol T, out *EncodeCursor[S]) error {
	sym, err := ic.table.Encoder(int(symbol))
	if err != nil {
		return err
	}
	return ic.coder.EncPutSymbol(&ic.states[lane], out, sym)
}

// Decode fills dst from in, mirroring Encode round for round.
func (ic *InterleavedCoder[T, S]) Decode(in *DecodeCursor[S], dst []T) error {
	for _, lane := range ic.initOrder {
		if err := ic.coder.DecInit(&ic.states[lane], in); err != nil {
			return err
		}
	}

	lanes := ic.schedule.Lanes()
	rounded := ic.schedule.RoundedLength(len(dst))
	decoded := make([]*DecoderSymbol, lanes)
	for i := 0; i < rounded; i += lanes {
		for _, lane := range ic.decodeOrder {
			s := ic.model.SymbolForCumulative(ic.coder.DecGet(&ic.states[lane]))
			dst[i+lane] = T(s)
			decoded[lane] = ic.table.Decoder(s)
		}
		for _, lane := range ic.decodeOrder {
			ic.coder.DecAdvanceSymbolStep(&ic.states[lane], decoded[lane])
		}
		for _, lane := range ic.decodeOrder {
			if err := ic.coder.DecRenorm(&ic.states[lane], in); err != nil {
				return err
			}
		}
	}

	for i := rounded; i < len(dst); i++ {
		s := ic.model.SymbolForCumulative(ic.coder.DecGet(&ic.states[0]))
		dst[i] = T(s)
		if err := ic.coder.DecAdvanceSymbol(&ic.states[0], in, ic.table.Decoder(s)); err != nil {
			return err
		}
	}
	return nil
}

// State exposes the register of a lane, mostly for invariant checks.
func (ic *InterleavedCoder[T, S]) State(lane int) *RansState {
	return &ic.states[lane]
}
