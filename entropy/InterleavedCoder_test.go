package entropy

import (
	"testing"

	"github.com/kpfaulkner/rans-go/testcommon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func interleavedRoundTrip[T int | uint8 | int32, S StreamWord](t *testing.T, s session[S], schedule LaneSchedule, tokens []T) []S {
	t.Helper()
	ic, err := NewInterleavedCoder[T, S](s.coder, s.table, s.model, schedule)
	require.NoError(t, err)

	out := NewEncodeCursor(make([]S, 2*len(tokens)+8*s.coder.Config().WordsPerState()))
	require.NoError(t, ic.Encode(tokens, out))

	decoded := make([]T, len(tokens))
	in := NewDecodeCursor(out.Stream())
	require.NoError(t, ic.Decode(in, decoded))
	assert.Equal(t, tokens, decoded)
	assert.Equal(t, 0, in.Remaining())
	for lane := 0; lane < schedule.Lanes(); lane++ {
		assert.Equal(t, s.coder.Config().LowerBound(), ic.State(lane).Value(), "lane %d did not return to L", lane)
	}
	return out.Stream()
}

func TestInterleavedRoundTrip(t *testing.T) {
	cfg32, err := Rans32Config(14)
	require.NoError(t, err)
	cfg64, err := Rans64Config(18)
	require.NoError(t, err)

	for _, schedule := range []LaneSchedule{SingleLane, TwoLane, FourLane} {
		for _, n := range []int{1, 2, 3, 4, 5, 7, 1000, 1001, 4099} {
			tokens := testcommon.GenerateSkewedTokens[uint8](int64(n), n, 256, 0)

			s32 := newSession[uint8, uint8](t, tokens, cfg32)
			interleavedRoundTrip(t, s32, schedule, tokens)

			s64 := newSession[uint8, uint32](t, tokens, cfg64)
			interleavedRoundTrip(t, s64, schedule, tokens)
		}
	}
}

func TestInterleavedMatchesSequential(t *testing.T) {
	tokens := testcommon.GenerateSkewedTokens[uint8](11, 3001, 256, 0)
	cfg, err := Rans32Config(14)
	require.NoError(t, err)
	s := newSession[uint8, uint8](t, tokens, cfg)

	sequential, err := encodeSequential(t, s, tokens, make([]uint8, 2*len(tokens)))
	require.NoError(t, err)
	single := interleavedRoundTrip(t, s, SingleLane, tokens)
	assert.Equal(t, sequential, single, "one lane must produce the sequential bitstream")

	two := interleavedRoundTrip(t, s, TwoLane, tokens)
	// interleaving costs at most one extra flushed register per lane
	assert.LessOrEqual(t, len(two), len(sequential)+2*cfg.WordsPerState())
}

func TestInterleavedConcreteScenario(t *testing.T) {
	tokens := []int{2, 2, 2, 3, 3}
	cfg, err := Rans32Config(2)
	require.NoError(t, err)
	s := newSession[int, uint8](t, tokens[:4], cfg)
	interleavedRoundTrip(t, s, TwoLane, tokens[:4])

	// odd length, the last symbol is carried by lane 0 alone
	s = newSession[int, uint8](t, tokens, cfg)
	interleavedRoundTrip(t, s, TwoLane, tokens)
}

func TestInterleavedEmptyInput(t *testing.T) {
	cfg, err := Rans64Config(18)
	require.NoError(t, err)
	s := newSession[int32, uint32](t, []int32{1, 2, 3}, cfg)
	stream := interleavedRoundTrip(t, s, TwoLane, []int32{})
	assert.Len(t, stream, 2*cfg.WordsPerState())
}

func TestInterleavedScheduleMismatchCorrupts(t *testing.T) {
	tokens := testcommon.GenerateUniformTokens[uint8](3, 2000, 256, 0)
	cfg, err := Rans32Config(14)
	require.NoError(t, err)
	s := newSession[uint8, uint8](t, tokens, cfg)

	enc, err := NewInterleavedCoder[uint8, uint8](s.coder, s.table, s.model, TwoLane)
	require.NoError(t, err)
	out := NewEncodeCursor(make([]uint8, 3*len(tokens)))
	require.NoError(t, enc.Encode(tokens, out))

	dec, err := NewInterleavedCoder[uint8, uint8](s.coder, s.table, s.model, FourLane)
	require.NoError(t, err)
	decoded := make([]uint8, len(tokens))
	if err := dec.Decode(NewDecodeCursor(out.Stream()), decoded); err == nil {
		assert.NotEqual(t, tokens, decoded)
	}
}

func TestInterleavedRejectsUnknownSymbol(t *testing.T) {
	cfg, err := Rans32Config(8)
	require.NoError(t, err)
	s := newSession[int, uint8](t, []int{1, 2, 4}, cfg)
	ic, err := NewInterleavedCoder[int, uint8](s.coder, s.table, s.model, TwoLane)
	require.NoError(t, err)

	out := NewEncodeCursor(make([]uint8, 64))
	assert.ErrorIs(t, ic.Encode([]int{1, 3}, out), ErrDomain)
	assert.ErrorIs(t, ic.Encode([]int{1, 9}, out), ErrRange)
}

func TestNewInterleavedCoderValidation(t *testing.T) {
	cfg, err := Rans32Config(8)
	require.NoError(t, err)
	s := newSession[int, uint8](t, []int{1, 2}, cfg)

	_, err = NewInterleavedCoder[int, uint8](s.coder, s.table, s.model, LaneSchedule(3))
	assert.ErrorIs(t, err, ErrPrecision)

	other, err := NewFrequencyModel([]int{1, 2}, 0)
	require.NoError(t, err)
	_, err = NewInterleavedCoder[int, uint8](s.coder, s.table, other, TwoLane)
	assert.ErrorIs(t, err, ErrPrecision)
}
