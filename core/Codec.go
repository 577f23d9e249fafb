package core

import (
	"errors"
	"fmt"

	"github.com/kpfaulkner/rans-go/entropy"
	"github.com/kpfaulkner/rans-go/ransio"
	"github.com/kpfaulkner/rans-go/util"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/constraints"
)

type CodecOption func(c *codecSettings) error

type codecSettings struct {
	schedule entropy.LaneSchedule

	// *util.SlicePool[S] of the codec being built
	pool any
}

// WithLaneSchedule selects sequential (SingleLane) or interleaved coding. Default is SingleLane.
func WithLaneSchedule(schedule entropy.LaneSchedule) CodecOption {
	return func(c *codecSettings) error {
		if _, err := entropy.ParseLaneSchedule(schedule.Lanes()); err != nil {
			return err
		}
		c.schedule = schedule
		return nil
	}
}

// WithBufferPool shares stream buffers between codecs, e.g. parallel sessions of the same size.
// The pool element type must match the stream word type of the codec.
func WithBufferPool[S entropy.StreamWord](pool *util.SlicePool[S]) CodecOption {
	return func(c *codecSettings) error {
		if pool == nil {
			return errors.New("nil buffer pool")
		}
		c.pool = pool
		return nil
	}
}

// Codec encodes and decodes symbols of type T into streams of S words using a static model.
// A Codec keeps no per call state, so concurrent Encode and Decode calls are safe.
type Codec[T constraints.Integer, S entropy.StreamWord] struct {
	model    *entropy.FrequencyModel
	table    *entropy.SymbolTable
	coder    entropy.Coder[S]
	schedule entropy.LaneSchedule
	pool     *util.SlicePool[S]
}

// NewCodec freezes model and derives the symbol table for cfg. The model total must already
// equal 1 << cfg.ProbabilityBits.
func NewCodec[T constraints.Integer, S entropy.StreamWord](model *entropy.FrequencyModel, cfg entropy.CoderConfig, opts ...CodecOption) (*Codec[T, S], error) {
	settings := &codecSettings{schedule: entropy.SingleLane}
	for _, opt := range opts {
		if err := opt(settings); err != nil {
			return nil, fmt.Errorf("applying codec option: %w", err)
		}
	}

	coder, err := entropy.NewCoder[S](cfg)
	if err != nil {
		return nil, err
	}
	// the table checks the model total, so a rejected model is left unfrozen
	table, err := entropy.NewSymbolTable(model, cfg)
	if err != nil {
		return nil, err
	}
	pool := util.NewSlicePool[S]()
	if settings.pool != nil {
		p, ok := settings.pool.(*util.SlicePool[S])
		if !ok {
			return nil, fmt.Errorf("%w: buffer pool of %T does not hold %d bit stream words", entropy.ErrPrecision, settings.pool, cfg.StreamBits)
		}
		pool = p
	}
	model.Freeze()

	log.Debugf("codec %v %v: symbols [%d, %d], %d distinct", cfg, settings.schedule, model.Min(), model.Max(), model.DistinctSymbols())
	return &Codec[T, S]{
		model:    model,
		table:    table,
		coder:    coder,
		schedule: settings.schedule,
		pool:     pool,
	}, nil
}

func (c *Codec[T, S]) Model() *entropy.FrequencyModel {
	return c.model
}

func (c *Codec[T, S]) Config() entropy.CoderConfig {
	return c.coder.Config()
}

func (c *Codec[T, S]) Schedule() entropy.LaneSchedule {
	return c.schedule
}

// MaxStreamWords is an upper bound on the stream length for n symbols.
func (c *Codec[T, S]) MaxStreamWords(n int) int {
	cfg := c.coder.Config()
	payloadBits := uint64(n) * uint64(cfg.ProbabilityBits+1)
	words := (payloadBits + uint64(cfg.StreamBits) - 1) / uint64(cfg.StreamBits)
	return int(words) + c.schedule.Lanes()*cfg.WordsPerState() + 1
}

// EncodeInto encodes symbols into the tail of buf and returns the used part.
// The result aliases buf.
func (c *Codec[T, S]) EncodeInto(symbols []T, buf []S) ([]S, error) {
	out := entropy.NewEncodeCursor(buf)
	if c.schedule == entropy.SingleLane {
		if err := c.encodeSequential(symbols, out); err != nil {
			return nil, err
		}
		return out.Stream(), nil
	}

	ic, err := entropy.NewInterleavedCoder[T, S](c.coder, c.table, c.model, c.schedule)
	if err != nil {
		return nil, err
	}
	if err := ic.Encode(symbols, out); err != nil {
		return nil, err
	}
	return out.Stream(), nil
}

func (c *Codec[T, S]) encodeSequential(symbols []T, out *entropy.EncodeCursor[S]) error {
	var r entropy.RansState
	c.coder.EncInit(&r)
	for i := len(symbols) - 1; i >= 0; i-- {
		sym, err := c.table.Encoder(int(symbols[i]))
		if err != nil {
			return fmt.Errorf("symbol %d at %d: %w", symbols[i], i, err)
		}
		if err := c.coder.EncPutSymbol(&r, out, sym); err != nil {
			return err
		}
	}
	return c.coder.EncFlush(&r, out)
}

// Encode returns a newly allocated stream for symbols. The scratch buffer comes from the pool.
func (c *Codec[T, S]) Encode(symbols []T) ([]S, error) {
	buf := c.pool.Get(c.MaxStreamWords(len(symbols)))
	defer c.pool.Put(buf)

	stream, err := c.EncodeInto(symbols, buf)
	if err != nil {
		return nil, err
	}
	return append([]S(nil), stream...), nil
}

// DecodeInto fills dst with len(dst) symbols decoded from stream.
func (c *Codec[T, S]) DecodeInto(stream []S, dst []T) error {
	in := entropy.NewDecodeCursor(stream)
	if c.schedule == entropy.SingleLane {
		return c.decodeSequential(in, dst)
	}

	ic, err := entropy.NewInterleavedCoder[T, S](c.coder, c.table, c.model, c.schedule)
	if err != nil {
		return err
	}
	return ic.Decode(in, dst)
}

func (c *Codec[T, S]) decodeSequential(in *entropy.DecodeCursor[S], dst []T) error {
	var r entropy.RansState
	if err := c.coder.DecInit(&r, in); err != nil {
		return err
	}
	for i := range dst {
		s := c.model.SymbolForCumulative(c.coder.DecGet(&r))
		dst[i] = T(s)
		if err := c.coder.DecAdvanceSymbol(&r, in, c.table.Decoder(s)); err != nil {
			return err
		}
	}
	return nil
}

// Decode decodes n symbols from stream.
func (c *Codec[T, S]) Decode(stream []S, n int) ([]T, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative symbol count %d", entropy.ErrRange, n)
	}
	dst := make([]T, n)
	if err := c.DecodeInto(stream, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// Descriptor returns the out of band parameters a decoder needs for a stream of n symbols.
func (c *Codec[T, S]) Descriptor(n int) ransio.StreamDescriptor {
	cfg := c.coder.Config()
	return ransio.StreamDescriptor{
		Dictionary:      c.model.Dictionary(),
		ProbabilityBits: cfg.ProbabilityBits,
		CoderBits:       cfg.CoderBits,
		StreamBits:      cfg.StreamBits,
		Lanes:           c.schedule.Lanes(),
		SymbolCount:     uint64(n),
	}
}

// NewCodecFromDescriptor rebuilds the codec that produced a stream.
func NewCodecFromDescriptor[T constraints.Integer, S entropy.StreamWord](sd ransio.StreamDescriptor, opts ...CodecOption) (*Codec[T, S], error) {
	cfg, err := sd.Config()
	if err != nil {
		return nil, err
	}
	schedule, err := sd.Schedule()
	if err != nil {
		return nil, err
	}
	model, err := sd.Model()
	if err != nil {
		return nil, err
	}
	opts = append([]CodecOption{WithLaneSchedule(schedule)}, opts...)
	return NewCodec[T, S](model, cfg, opts...)
}
