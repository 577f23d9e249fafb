package entropy

import (
	"fmt"
)

// CoderConfig fixes the widths of a coding session. It is created once per session and
// never changes afterwards.
type CoderConfig struct {
	// CoderBits is the width of the coder register, 32 or 64.
	CoderBits uint

	// StreamBits is the width of one output stream word, 8, 16 or 32.
	StreamBits uint

	// ProbabilityBits is log2 of the total frequency.
	ProbabilityBits uint
}

func NewCoderConfig(coderBits uint, streamBits uint, probabilityBits uint) (CoderConfig, error) {
	cfg := CoderConfig{CoderBits: coderBits, StreamBits: streamBits, ProbabilityBits: probabilityBits}
	if err := cfg.Validate(); err != nil {
		return CoderConfig{}, err
	}
	return cfg, nil
}

// Rans32Config is the 32 bit register / byte stream coder.
func Rans32Config(probabilityBits uint) (CoderConfig, error) {
	return NewCoderConfig(32, 8, probabilityBits)
}

// Rans64Config is the 64 bit register / 32 bit word stream coder.
func Rans64Config(probabilityBits uint) (CoderConfig, error) {
	return NewCoderConfig(64, 32, probabilityBits)
}

func (c CoderConfig) Validate() error {
	if c.CoderBits != 32 && c.CoderBits != 64 {
		return fmt.Errorf("%w: coder width %d must be 32 or 64", ErrPrecision, c.CoderBits)
	}
	if c.StreamBits != 8 && c.StreamBits != 16 && c.StreamBits != 32 {
		return fmt.Errorf("%w: stream word width %d must be 8, 16 or 32", ErrPrecision, c.StreamBits)
	}
	if c.CoderBits < 2*c.StreamBits {
		return fmt.Errorf("%w: coder width %d must be at least twice the stream width %d", ErrPrecision, c.CoderBits, c.StreamBits)
	}
	if c.ProbabilityBits == 0 || c.ProbabilityBits > c.CoderBits-c.StreamBits-1 || c.ProbabilityBits > 31 {
		return fmt.Errorf("%w: %d probability bits not supported by a %d/%d coder", ErrPrecision, c.ProbabilityBits, c.CoderBits, c.StreamBits)
	}
	return nil
}

// LowerBound is L, the bottom of the normalised state interval [L, b*L).
func (c CoderConfig) LowerBound() uint64 {
	return 1 << (c.CoderBits - c.StreamBits - 1)
}

// UpperBound is b*L, the exclusive top of the normalised state interval.
func (c CoderConfig) UpperBound() uint64 {
	return c.LowerBound() << c.StreamBits
}

func (c CoderConfig) Total() uint32 {
	return 1 << c.ProbabilityBits
}

func (c CoderConfig) Mask() uint64 {
	return uint64(c.Total()) - 1
}

// WordsPerState is the number of stream words a flushed coder register occupies.
func (c CoderConfig) WordsPerState() int {
	return int(c.CoderBits / c.StreamBits)
}

func (c CoderConfig) String() string {
	return fmt.Sprintf("rans%d/%d p=%d", c.CoderBits, c.StreamBits, c.ProbabilityBits)
}
