package options

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/kpfaulkner/rans-go/util"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidOptions = errors.New("invalid options")

const (
	DefaultSamples       = 5
	DefaultLogFile       = "summary.json"
	DefaultCoderWidth    = 64
	DefaultLanes         = 2
	DefaultTokenWidth    = 8
	defaultBits64        = 18
	defaultBits32        = 14
	maxProbabilityBits32 = 23
	maxProbabilityBits64 = 31
)

// RansOptions configures a benchmark or file coding run.
type RansOptions struct {
	InputFile        string `toml:"input"`
	TokenWidth       uint   `toml:"token_width"`
	Samples          int    `toml:"samples"`
	ProbabilityBits  uint   `toml:"probability_bits"`
	RangeBits        uint   `toml:"range_bits"`
	DictionaryFile   string `toml:"dictionary"`
	ExportDictionary string `toml:"export_dictionary"`
	LogFile          string `toml:"log"`
	CoderWidth       uint   `toml:"coder_width"`
	Lanes            int    `toml:"lanes"`
	ProfileMode      string `toml:"profile"`
	ProfileDir       string `toml:"profile_dir"`
	Debug            bool   `toml:"debug"`
}

// NewRansOptions copies options and fills every unset value with its default.
func NewRansOptions(options *RansOptions) *RansOptions {
	opt := &RansOptions{}
	if options != nil {
		*opt = *options
	}

	if opt.Samples == 0 {
		opt.Samples = DefaultSamples
	}
	if opt.TokenWidth == 0 {
		opt.TokenWidth = DefaultTokenWidth
	}
	if opt.LogFile == "" {
		opt.LogFile = DefaultLogFile
	}
	if opt.CoderWidth == 0 {
		opt.CoderWidth = DefaultCoderWidth
	}
	if opt.Lanes == 0 {
		opt.Lanes = DefaultLanes
	}
	if opt.ProbabilityBits == 0 {
		opt.ProbabilityBits = DefaultProbabilityBits(opt.CoderWidth)
	}
	if opt.ProfileMode == "" {
		opt.ProfileMode = "none"
	}
	return opt
}

// DefaultProbabilityBits is the scale the benchmark uses for a coder of the given width.
func DefaultProbabilityBits(coderWidth uint) uint {
	return util.IfThenElse[uint](coderWidth == 32, defaultBits32, defaultBits64)
}

// LoadFile reads options from a TOML file. A missing file leaves opt untouched.
func (opt *RansOptions) LoadFile(path string) error {
	_, err := toml.DecodeFile(path, opt)
	if os.IsNotExist(err) {
		log.Debugf("config file '%s' does not exist and will not be used", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidOptions, path, err)
	}
	return nil
}

func (opt *RansOptions) Validate() error {
	if opt.Samples < 1 {
		return fmt.Errorf("%w: samples must be at least 1, got %d", ErrInvalidOptions, opt.Samples)
	}

	switch opt.TokenWidth {
	case 8, 16, 32:
	default:
		return fmt.Errorf("%w: token width must be 8, 16 or 32, got %d", ErrInvalidOptions, opt.TokenWidth)
	}

	maxBits := uint(maxProbabilityBits64)
	switch opt.CoderWidth {
	case 32:
		maxBits = maxProbabilityBits32
	case 64:
	default:
		return fmt.Errorf("%w: coder width must be 32 or 64, got %d", ErrInvalidOptions, opt.CoderWidth)
	}
	if opt.ProbabilityBits < 1 || opt.ProbabilityBits > maxBits {
		return fmt.Errorf("%w: probability bits must be in [1, %d] for a %d bit coder, got %d", ErrInvalidOptions, maxBits, opt.CoderWidth, opt.ProbabilityBits)
	}
	if opt.RangeBits > 24 {
		return fmt.Errorf("%w: range bits must be at most 24, got %d", ErrInvalidOptions, opt.RangeBits)
	}

	switch opt.Lanes {
	case 1, 2, 4:
	default:
		return fmt.Errorf("%w: lanes must be 1, 2 or 4, got %d", ErrInvalidOptions, opt.Lanes)
	}

	switch opt.ProfileMode {
	case "none", "cpu", "mem":
	default:
		return fmt.Errorf("%w: unknown profile mode %q", ErrInvalidOptions, opt.ProfileMode)
	}
	return nil
}
