package entropy

import (
	"fmt"
)

// LaneSchedule fixes how many coder states share one stream and the order in which
// they touch it. Encoder and decoder must use the same schedule: any difference in
// ordering silently corrupts every symbol that follows.
type LaneSchedule int

const (
	SingleLane LaneSchedule = 1
	TwoLane    LaneSchedule = 2
	FourLane   LaneSchedule = 4
)

// ParseLaneSchedule maps a lane count to its schedule.
func ParseLaneSchedule(lanes int) (LaneSchedule, error) {
	switch LaneSchedule(lanes) {
	case SingleLane, TwoLane, FourLane:
		return LaneSchedule(lanes), nil
	}
	return 0, fmt.Errorf("%w: unsupported interleave factor %d", ErrPrecision, lanes)
}

func (s LaneSchedule) Lanes() int {
	return int(s)
}

func (s LaneSchedule) String() string {
	switch s {
	case SingleLane:
		return "NonInterleaved"
	case TwoLane:
		return "Interleaved"
	}
	return fmt.Sprintf("Interleaved%d", int(s))
}

func (s LaneSchedule) descending() []int {
	order := make([]int, s.Lanes())
	for i := range order {
		order[i] = s.Lanes() - 1 - i
	}
	return order
}

func (s LaneSchedule) ascending() []int {
	order := make([]int, s.Lanes())
	for i := range order {
		order[i] = i
	}
	return order
}

// FlushOrder is the order states are flushed in once all symbols are encoded: highest lane first.
func (s LaneSchedule) FlushOrder() []int {
	return s.descending()
}

// InitOrder is the order states are initialised in by the decoder, the reverse of FlushOrder.
func (s LaneSchedule) InitOrder() []int {
	return s.ascending()
}

// EncodeRoundOrder is the lane order within one encode round. Encoding runs back to front
// so the highest lane, which holds the last symbol of the round, goes first.
func (s LaneSchedule) EncodeRoundOrder() []int {
	return s.descending()
}

// DecodeRoundOrder is the lane order within one decode round, the reverse of EncodeRoundOrder.
func (s LaneSchedule) DecodeRoundOrder() []int {
	return s.ascending()
}

// RoundedLength is the number of symbols of an n symbol message covered by complete rounds.
func (s LaneSchedule) RoundedLength(n int) int {
	return n - s.Leftover(n)
}

// Leftover is the number of trailing symbols that do not fill a round. They are coded by lane 0 alone.
func (s LaneSchedule) Leftover(n int) int {
	return n % s.Lanes()
}
