package entropy

import (
	"fmt"
)

// RansState is the coder register. Between symbols it stays within [L, b*L) of the
// CoderConfig that drives it.
type RansState struct {
	x uint64
}

func (r *RansState) Value() uint64 {
	return r.x
}

// Coder implements the rANS state transitions for one CoderConfig and stream word type.
// Encoding runs back to front through an EncodeCursor, decoding runs front to back
// through a DecodeCursor. A Coder holds no mutable state and may be shared.
type Coder[S StreamWord] struct {
	cfg        CoderConfig
	lowerBound uint64
	mask       uint64
}

func NewCoder[S StreamWord](cfg CoderConfig) (Coder[S], error) {
	if err := cfg.Validate(); err != nil {
		return Coder[S]{}, err
	}
	if bits := StreamWordBits[S](); bits != cfg.StreamBits {
		return Coder[S]{}, fmt.Errorf("%w: %d bit stream words cannot carry a %d bit stream", ErrPrecision, bits, cfg.StreamBits)
	}
	return Coder[S]{cfg: cfg, lowerBound: cfg.LowerBound(), mask: cfg.Mask()}, nil
}

func (c Coder[S]) Config() CoderConfig {
	return c.cfg
}

// InInterval reports whether r satisfies L <= x < b*L.
func (c Coder[S]) InInterval(r *RansState) bool {
	return r.x >= c.lowerBound && r.x < c.cfg.UpperBound()
}

// EncInit resets r to the lower bound L.
func (c Coder[S]) EncInit(r *RansState) {
	r.x = c.lowerBound
}

// EncPutSymbol encodes sym into r. Stream words pushed out by renormalisation are written
// in front of the previous output.
func (c Coder[S]) EncPutSymbol(r *RansState, out *EncodeCursor[S], sym *EncoderSymbol) error {
	x := r.x
	for x >= sym.XMax {
		if err := out.Put(S(x)); err != nil {
			return err
		}
		x >>= c.cfg.StreamBits
	}

	// x = C(s,x) = (x / freq) * M + (x % freq) + start
	q := sym.Divisor.Quotient(x)
	r.x = q<<c.cfg.ProbabilityBits + x - q*uint64(sym.Freq) + uint64(sym.Start)
	return nil
}

// EncFlush writes the whole register so the decoder reads it back low word first.
// It must be called exactly once per state after the last symbol.
func (c Coder[S]) EncFlush(r *RansState, out *EncodeCursor[S]) error {
	for i := c.cfg.WordsPerState() - 1; i >= 0; i-- {
		if err := out.Put(S(r.x >> (uint(i) * c.cfg.StreamBits))); err != nil {
			return err
		}
	}
	return nil
}

// DecInit reads one flushed register from in.
func (c Coder[S]) DecInit(r *RansState, in *DecodeCursor[S]) error {
	var x uint64
	for i := 0; i < c.cfg.WordsPerState(); i++ {
		w, err := in.Next()
		if err != nil {
			return err
		}
		x |= uint64(w) << (uint(i) * c.cfg.StreamBits)
	}
	r.x = x
	return nil
}

// DecGet returns the cumulative frequency slot of the next symbol. It does not change r.
func (c Coder[S]) DecGet(r *RansState) uint32 {
	return uint32(r.x & c.mask)
}

// DecAdvanceSymbolStep removes sym from r without renormalising.
func (c Coder[S]) DecAdvanceSymbolStep(r *RansState, sym *DecoderSymbol) {
	// s, x = D(x)
	r.x = uint64(sym.Freq)*(r.x>>c.cfg.ProbabilityBits) + r.x&c.mask - uint64(sym.Start)
}

// DecRenorm pulls stream words into r until it is back above L.
func (c Coder[S]) DecRenorm(r *RansState, in *DecodeCursor[S]) error {
	for r.x < c.lowerBound {
		w, err := in.Next()
		if err != nil {
			return err
		}
		r.x = r.x<<c.cfg.StreamBits | uint64(w)
	}
	return nil
}

// DecAdvanceSymbol is DecAdvanceSymbolStep followed by DecRenorm.
func (c Coder[S]) DecAdvanceSymbol(r *RansState, in *DecodeCursor[S], sym *DecoderSymbol) error {
	c.DecAdvanceSymbolStep(r, sym)
	return c.DecRenorm(r, in)
}
