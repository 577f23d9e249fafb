package entropy

import (
	"testing"

	"github.com/kpfaulkner/rans-go/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLaneSchedule(t *testing.T) {
	for _, lanes := range []int{1, 2, 4} {
		s, err := ParseLaneSchedule(lanes)
		require.NoError(t, err)
		assert.Equal(t, lanes, s.Lanes())
	}
	for _, lanes := range []int{0, 3, 8, -1} {
		_, err := ParseLaneSchedule(lanes)
		assert.ErrorIs(t, err, ErrPrecision)
	}
}

func TestLaneScheduleOrders(t *testing.T) {
	assert.Equal(t, []int{1, 0}, TwoLane.FlushOrder())
	assert.Equal(t, []int{0, 1}, TwoLane.InitOrder())
	assert.Equal(t, []int{1, 0}, TwoLane.EncodeRoundOrder())
	assert.Equal(t, []int{0, 1}, TwoLane.DecodeRoundOrder())

	for _, s := range []LaneSchedule{SingleLane, TwoLane, FourLane} {
		t.Run(s.String(), func(t *testing.T) {
			// the decoder reads the stream in the reverse of the order the encoder wrote it
			assert.Equal(t, util.Reversed(s.FlushOrder()), s.InitOrder())
			assert.Equal(t, util.Reversed(s.EncodeRoundOrder()), s.DecodeRoundOrder())
			assert.Len(t, s.FlushOrder(), s.Lanes())
		})
	}
}

func TestLaneScheduleLeftover(t *testing.T) {
	for _, tc := range []struct {
		schedule LaneSchedule
		n        int
		rounded  int
		leftover int
	}{
		{SingleLane, 7, 7, 0},
		{TwoLane, 0, 0, 0},
		{TwoLane, 1, 0, 1},
		{TwoLane, 7, 6, 1},
		{TwoLane, 8, 8, 0},
		{FourLane, 7, 4, 3},
		{FourLane, 3, 0, 3},
	} {
		assert.Equal(t, tc.rounded, tc.schedule.RoundedLength(tc.n))
		assert.Equal(t, tc.leftover, tc.schedule.Leftover(tc.n))
	}
}

func TestLaneScheduleString(t *testing.T) {
	assert.Equal(t, "NonInterleaved", SingleLane.String())
	assert.Equal(t, "Interleaved", TwoLane.String())
	assert.Equal(t, "Interleaved4", FourLane.String())
}
