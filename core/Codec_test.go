package core

import (
	"fmt"
	"sync"
	"testing"

	"github.com/kpfaulkner/rans-go/entropy"
	"github.com/kpfaulkner/rans-go/ransio"
	"github.com/kpfaulkner/rans-go/testcommon"
	"github.com/kpfaulkner/rans-go/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rescaledModel[T int | uint8 | int16](t testing.TB, tokens []T, probabilityBits uint) *entropy.FrequencyModel {
	t.Helper()
	model, err := entropy.NewFrequencyModel(tokens, 0)
	require.NoError(t, err)
	require.NoError(t, model.Rescale(1<<probabilityBits))
	return model
}

func TestCodecRoundTrip(t *testing.T) {
	schedules := []entropy.LaneSchedule{entropy.SingleLane, entropy.TwoLane, entropy.FourLane}

	for _, tc := range []struct {
		name     string
		n        int
		alphabet int
	}{
		{name: "empty", n: 0, alphabet: 1},
		{name: "one symbol", n: 1, alphabet: 1},
		{name: "odd length", n: 1001, alphabet: 40},
		{name: "bytes", n: 20000, alphabet: 256},
	} {
		tokens := testcommon.GenerateSkewedTokens[int](11, tc.n, tc.alphabet, 0)
		if tc.n == 0 {
			tokens = []int{}
		}
		// the model needs at least one symbol
		model := rescaledModel(t, append([]int{0}, tokens...), 14)

		for _, schedule := range schedules {
			t.Run(fmt.Sprintf("%s rans64 %v", tc.name, schedule), func(t *testing.T) {
				cfg, err := entropy.Rans64Config(14)
				require.NoError(t, err)
				codec, err := NewCodec[int, uint32](model, cfg, WithLaneSchedule(schedule))
				require.NoError(t, err)

				stream, err := codec.Encode(tokens)
				require.NoError(t, err)
				assert.LessOrEqual(t, len(stream), codec.MaxStreamWords(len(tokens)))

				decoded, err := codec.Decode(stream, len(tokens))
				require.NoError(t, err)
				assert.Equal(t, tokens, decoded)
			})

			t.Run(fmt.Sprintf("%s rans32 %v", tc.name, schedule), func(t *testing.T) {
				cfg, err := entropy.Rans32Config(14)
				require.NoError(t, err)
				codec, err := NewCodec[int, uint8](model, cfg, WithLaneSchedule(schedule))
				require.NoError(t, err)

				stream, err := codec.Encode(tokens)
				require.NoError(t, err)
				assert.LessOrEqual(t, len(stream), codec.MaxStreamWords(len(tokens)))

				decoded, err := codec.Decode(stream, len(tokens))
				require.NoError(t, err)
				assert.Equal(t, tokens, decoded)
			})
		}
	}
}

func TestCodecConcreteScenario(t *testing.T) {
	tokens := []uint8{2, 2, 2, 3}
	model := rescaledModel(t, tokens, 2)
	assert.Equal(t, []uint32{3, 1}, model.FrequencyTable())

	cfg, err := entropy.Rans32Config(2)
	require.NoError(t, err)
	codec, err := NewCodec[uint8, uint8](model, cfg)
	require.NoError(t, err)

	stream, err := codec.Encode(tokens)
	require.NoError(t, err)
	// four symbols of at most two bits each stay in the flushed register
	assert.Len(t, stream, cfg.WordsPerState())

	decoded, err := codec.Decode(stream, len(tokens))
	require.NoError(t, err)
	assert.Equal(t, tokens, decoded)
}

func TestCodecSkewedDataCompresses(t *testing.T) {
	tokens := testcommon.GenerateSkewedTokens[uint8](5, 50000, 256, 0)
	model := rescaledModel(t, tokens, 12)
	cfg, err := entropy.Rans32Config(12)
	require.NoError(t, err)

	codec, err := NewCodec[uint8, uint8](model, cfg, WithLaneSchedule(entropy.TwoLane))
	require.NoError(t, err)
	stream, err := codec.Encode(tokens)
	require.NoError(t, err)
	assert.Less(t, len(stream), len(tokens))
}

func TestCodecErrors(t *testing.T) {
	model := rescaledModel(t, []int{1, 2, 2, 3}, 10)

	t.Run("model total mismatch", func(t *testing.T) {
		cfg, err := entropy.Rans64Config(12)
		require.NoError(t, err)
		_, err = NewCodec[int, uint32](model, cfg)
		assert.ErrorIs(t, err, entropy.ErrPrecision)
	})

	t.Run("wrong stream word", func(t *testing.T) {
		cfg, err := entropy.Rans64Config(10)
		require.NoError(t, err)
		_, err = NewCodec[int, uint8](model, cfg)
		assert.ErrorIs(t, err, entropy.ErrPrecision)
	})

	t.Run("pool of wrong word type", func(t *testing.T) {
		cfg, err := entropy.Rans64Config(10)
		require.NoError(t, err)
		_, err = NewCodec[int, uint32](model, cfg, WithBufferPool(util.NewSlicePool[uint8]()))
		assert.ErrorIs(t, err, entropy.ErrPrecision)
	})

	t.Run("invalid schedule", func(t *testing.T) {
		cfg, err := entropy.Rans64Config(10)
		require.NoError(t, err)
		_, err = NewCodec[int, uint32](model, cfg, WithLaneSchedule(entropy.LaneSchedule(3)))
		assert.ErrorIs(t, err, entropy.ErrPrecision)
	})

	cfg, err := entropy.Rans64Config(10)
	require.NoError(t, err)
	codec, err := NewCodec[int, uint32](model, cfg)
	require.NoError(t, err)

	t.Run("symbol outside model", func(t *testing.T) {
		_, err := codec.Encode([]int{1, 9})
		assert.ErrorIs(t, err, entropy.ErrRange)
	})

	t.Run("buffer too small", func(t *testing.T) {
		_, err := codec.EncodeInto([]int{1, 2, 3}, make([]uint32, 1))
		assert.ErrorIs(t, err, entropy.ErrBufferExhausted)
	})

	t.Run("truncated stream", func(t *testing.T) {
		_, err := codec.Decode([]uint32{1}, 4)
		assert.ErrorIs(t, err, entropy.ErrFormat)
	})

	t.Run("negative count", func(t *testing.T) {
		_, err := codec.Decode(nil, -1)
		assert.ErrorIs(t, err, entropy.ErrRange)
	})
}

func TestCodecRejectedModelStaysMutable(t *testing.T) {
	model, err := entropy.NewFrequencyModelFromTable(0, 1, []uint32{1 << 26, 1 << 26})
	require.NoError(t, err)
	cfg, err := entropy.Rans64Config(18)
	require.NoError(t, err)

	_, err = NewCodec[uint8, uint32](model, cfg)
	assert.ErrorIs(t, err, entropy.ErrPrecision)
	assert.False(t, model.Frozen())

	require.NoError(t, model.Rescale(cfg.Total()))
	codec, err := NewCodec[uint8, uint32](model, cfg)
	require.NoError(t, err)
	assert.True(t, model.Frozen())

	tokens := []uint8{0, 1, 1, 0, 1}
	stream, err := codec.Encode(tokens)
	require.NoError(t, err)
	decoded, err := codec.Decode(stream, len(tokens))
	require.NoError(t, err)
	assert.Equal(t, tokens, decoded)
}

func TestCodecDescriptor(t *testing.T) {
	tokens := testcommon.GenerateSkewedTokens[int16](9, 3000, 500, -100)
	model := rescaledModel(t, tokens, 16)
	cfg, err := entropy.Rans64Config(16)
	require.NoError(t, err)

	codec, err := NewCodec[int16, uint32](model, cfg, WithLaneSchedule(entropy.FourLane))
	require.NoError(t, err)
	stream, err := codec.Encode(tokens)
	require.NoError(t, err)

	sd, err := ransio.UnmarshalDescriptor(ransio.MarshalDescriptor(codec.Descriptor(len(tokens))))
	require.NoError(t, err)
	assert.Equal(t, 4, sd.Lanes)
	assert.Equal(t, uint64(len(tokens)), sd.SymbolCount)

	restored, err := NewCodecFromDescriptor[int16, uint32](sd)
	require.NoError(t, err)
	decoded, err := restored.Decode(stream, int(sd.SymbolCount))
	require.NoError(t, err)
	assert.Equal(t, tokens, decoded)
}

func TestCodecConcurrentSessions(t *testing.T) {
	tokens := testcommon.GenerateSkewedTokens[uint8](21, 8000, 256, 0)
	model := rescaledModel(t, tokens, 15)
	cfg, err := entropy.Rans32Config(15)
	require.NoError(t, err)

	pool := util.NewSlicePool[uint8]()
	codec, err := NewCodec[uint8, uint8](model, cfg, WithLaneSchedule(entropy.TwoLane), WithBufferPool(pool))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				stream, err := codec.Encode(tokens)
				if err != nil {
					errs <- err
					return
				}
				decoded, err := codec.Decode(stream, len(tokens))
				if err != nil {
					errs <- err
					return
				}
				if string(decoded) != string(tokens) {
					errs <- fmt.Errorf("decoded data differs")
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	hits, misses := pool.GetMetrics()
	assert.Equal(t, int64(40), hits+misses)
}

func benchmarkCodec(b *testing.B, schedule entropy.LaneSchedule, decode bool) {
	tokens := testcommon.GenerateSkewedTokens[uint8](1, 1<<20, 256, 0)
	model := rescaledModel(b, tokens, 14)
	cfg, err := entropy.Rans32Config(14)
	require.NoError(b, err)
	codec, err := NewCodec[uint8, uint8](model, cfg, WithLaneSchedule(schedule))
	require.NoError(b, err)

	buf := make([]uint8, codec.MaxStreamWords(len(tokens)))
	stream, err := codec.EncodeInto(tokens, buf)
	require.NoError(b, err)
	dst := make([]uint8, len(tokens))

	b.SetBytes(int64(len(tokens)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if decode {
			err = codec.DecodeInto(stream, dst)
		} else {
			_, err = codec.EncodeInto(tokens, buf)
		}
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncodeSequential(b *testing.B)  { benchmarkCodec(b, entropy.SingleLane, false) }
func BenchmarkDecodeSequential(b *testing.B)  { benchmarkCodec(b, entropy.SingleLane, true) }
func BenchmarkEncodeInterleaved(b *testing.B) { benchmarkCodec(b, entropy.TwoLane, false) }
func BenchmarkDecodeInterleaved(b *testing.B) { benchmarkCodec(b, entropy.TwoLane, true) }
