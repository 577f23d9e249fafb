package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSymbolTable(t *testing.T) {
	fm, err := NewFrequencyModelFromTable(10, 13, []uint32{1, 0, 2, 5})
	require.NoError(t, err)
	require.NoError(t, fm.Rescale(8))
	cfg, err := Rans32Config(3)
	require.NoError(t, err)

	st, err := NewSymbolTable(fm, cfg)
	require.NoError(t, err)
	assert.Equal(t, 10, st.Min())
	assert.Equal(t, 13, st.Max())

	es, err := st.Encoder(12)
	require.NoError(t, err)
	assert.Equal(t, fm.CumulativeFrequency(12), es.Start)
	assert.Equal(t, fm.Frequency(12), es.Freq)
	assert.Equal(t, ((cfg.LowerBound()>>3)<<8)*uint64(es.Freq), es.XMax)
	assert.Equal(t, es.Freq, es.Divisor.Freq())

	ds := st.Decoder(13)
	assert.Equal(t, fm.CumulativeFrequency(13), ds.Start)
	assert.Equal(t, fm.Frequency(13), ds.Freq)
}

func TestSymbolTableErrors(t *testing.T) {
	fm, err := NewFrequencyModelFromTable(0, 2, []uint32{3, 0, 1})
	require.NoError(t, err)
	require.NoError(t, fm.Rescale(4))
	cfg, err := Rans32Config(2)
	require.NoError(t, err)

	st, err := NewSymbolTable(fm, cfg)
	require.NoError(t, err)

	_, err = st.Encoder(1)
	assert.ErrorIs(t, err, ErrDomain)

	_, err = st.Encoder(3)
	assert.ErrorIs(t, err, ErrRange)

	_, err = st.Encoder(-1)
	assert.ErrorIs(t, err, ErrRange)
}

func TestSymbolTableNeedsMatchingScale(t *testing.T) {
	fm, err := NewFrequencyModelFromTable(0, 1, []uint32{3, 1})
	require.NoError(t, err)
	cfg, err := Rans32Config(4)
	require.NoError(t, err)

	_, err = NewSymbolTable(fm, cfg)
	assert.ErrorIs(t, err, ErrPrecision)
}
