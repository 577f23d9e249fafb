package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/kpfaulkner/rans-go/benchtesting"
	"github.com/kpfaulkner/rans-go/core"
	"github.com/kpfaulkner/rans-go/entropy"
	"github.com/kpfaulkner/rans-go/options"
	"github.com/kpfaulkner/rans-go/ransio"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/constraints"
)

func parseOptions(args []string) (*options.RansOptions, error) {
	fs := flag.NewFlagSet("ransbench", flag.ContinueOnError)
	flags := options.RansOptions{}
	configFile := fs.String("config", "", "TOML file with default options")
	fs.StringVar(&flags.InputFile, "i", "", "file of fixed width tokens to compress")
	fs.UintVar(&flags.TokenWidth, "t", options.DefaultTokenWidth, "token width in bits (8, 16, 32)")
	fs.IntVar(&flags.Samples, "s", options.DefaultSamples, "how many times the measurements are repeated")
	fs.UintVar(&flags.ProbabilityBits, "b", 0, "rescale the dictionary to this many bits (default depends on -w)")
	fs.UintVar(&flags.RangeBits, "r", 0, "range of the source data in bits")
	fs.StringVar(&flags.DictionaryFile, "d", "", "dictionary to use instead of counting the input")
	fs.StringVar(&flags.ExportDictionary, "e", "", "export the dictionary to this file")
	fs.StringVar(&flags.LogFile, "l", options.DefaultLogFile, "JSON run summary")
	fs.UintVar(&flags.CoderWidth, "w", options.DefaultCoderWidth, "coder width (32 or 64)")
	fs.IntVar(&flags.Lanes, "lanes", options.DefaultLanes, "lanes of the interleaved coder (2 or 4)")
	fs.StringVar(&flags.ProfileMode, "profile", "none", "profile mode (none, cpu, mem)")
	fs.StringVar(&flags.ProfileDir, "profiledir", ".", "directory profiles are written to")
	fs.BoolVar(&flags.Debug, "debug", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opts := &options.RansOptions{}
	if *configFile != "" {
		if err := opts.LoadFile(*configFile); err != nil {
			return nil, err
		}
	}

	// flags given on the command line override the config file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			opts.InputFile = flags.InputFile
		case "t":
			opts.TokenWidth = flags.TokenWidth
		case "s":
			opts.Samples = flags.Samples
		case "b":
			opts.ProbabilityBits = flags.ProbabilityBits
		case "r":
			opts.RangeBits = flags.RangeBits
		case "d":
			opts.DictionaryFile = flags.DictionaryFile
		case "e":
			opts.ExportDictionary = flags.ExportDictionary
		case "l":
			opts.LogFile = flags.LogFile
		case "w":
			opts.CoderWidth = flags.CoderWidth
		case "lanes":
			opts.Lanes = flags.Lanes
		case "profile":
			opts.ProfileMode = flags.ProfileMode
		case "profiledir":
			opts.ProfileDir = flags.ProfileDir
		case "debug":
			opts.Debug = flags.Debug
		}
	})
	if opts.InputFile == "" && fs.NArg() > 0 {
		opts.InputFile = fs.Arg(0)
	}

	opts = options.NewRansOptions(opts)
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.InputFile == "" {
		return nil, fmt.Errorf("%w: no input file", options.ErrInvalidOptions)
	}
	return opts, nil
}

func run(opts *options.RansOptions) error {
	log.Infof("Filename: %s", opts.InputFile)
	log.Infof("Probability Bits: %d", opts.ProbabilityBits)
	log.Infof("Dictionary Path: %s", opts.DictionaryFile)
	log.Infof("Export Path: %s", opts.ExportDictionary)
	log.Infof("Repetitions: %d", opts.Samples)

	switch opts.TokenWidth {
	case 16:
		return runTokens[uint16](opts)
	case 32:
		return runTokens[uint32](opts)
	}
	return runTokens[uint8](opts)
}

func runTokens[T ransio.FixedWidth](opts *options.RansOptions) error {
	tokens, err := ransio.ReadTokens[T](opts.InputFile)
	if err != nil {
		return err
	}
	log.Infof("Symbols: %d", len(tokens))

	if opts.CoderWidth == 32 {
		cfg, err := entropy.Rans32Config(opts.ProbabilityBits)
		if err != nil {
			return err
		}
		return benchmark[T, uint8](opts, tokens, cfg)
	}
	cfg, err := entropy.Rans64Config(opts.ProbabilityBits)
	if err != nil {
		return err
	}
	return benchmark[T, uint32](opts, tokens, cfg)
}

func buildModel[T constraints.Integer](opts *options.RansOptions, tokens []T) (*entropy.FrequencyModel, error) {
	var model *entropy.FrequencyModel
	if opts.DictionaryFile == "" {
		m, err := entropy.NewFrequencyModel(tokens, opts.RangeBits)
		if err != nil {
			return nil, err
		}
		model = m
	} else {
		d, err := ransio.LoadDictionary(opts.DictionaryFile)
		if err != nil {
			return nil, err
		}
		m, err := entropy.NewFrequencyModelFromDictionary(d)
		if err != nil {
			return nil, err
		}
		model = m
	}

	if err := model.Rescale(1 << opts.ProbabilityBits); err != nil {
		return nil, err
	}
	return model, nil
}

func benchmark[T ransio.FixedWidth, S entropy.StreamWord](opts *options.RansOptions, tokens []T, cfg entropy.CoderConfig) error {
	model, err := buildModel(opts, tokens)
	if err != nil {
		return err
	}

	symbolRangeBits := opts.RangeBits
	if symbolRangeBits == 0 {
		symbolRangeBits = model.SymbolRangeBits()
	}
	sizeBits := uint64(len(tokens)) * uint64(symbolRangeBits)
	log.Infof("Source Size: %d Bytes", uint64(math.Ceil(float64(sizeBits)/8)))

	h := benchtesting.NewHarness(opts.Samples)
	h.Summary.Filename = opts.InputFile
	h.Summary.ProbabilityBits = opts.ProbabilityBits
	h.Summary.NumberOfSymbols = len(tokens)
	h.Summary.SymbolRange = symbolRangeBits
	h.Summary.CoderBits = cfg.CoderBits
	h.Summary.Lanes = opts.Lanes

	schedule, err := entropy.ParseLaneSchedule(opts.Lanes)
	if err != nil {
		return err
	}
	modes := []struct {
		mode     benchtesting.ExecutionMode
		schedule entropy.LaneSchedule
	}{
		{benchtesting.NonInterleaved, entropy.SingleLane},
		{benchtesting.Interleaved, schedule},
	}

	for _, m := range modes {
		log.Infof("%v:", m.mode)
		codec, err := core.NewCodec[T, S](model, cfg, core.WithLaneSchedule(m.schedule))
		if err != nil {
			return err
		}
		if err := benchmarkMode(h, m.mode, codec, tokens, sizeBits); err != nil {
			return err
		}
	}

	// the reference coders only handle bytes
	if data, ok := any(tokens).([]uint8); ok {
		for _, baseline := range benchtesting.Baselines() {
			log.Infof("%v:", baseline.Mode())
			if err := benchmarkBaseline(h, baseline, data, sizeBits); err != nil {
				return err
			}
		}
	}

	if err := h.WriteSummary(opts.LogFile); err != nil {
		return err
	}
	if opts.ExportDictionary != "" {
		if err := ransio.SaveDictionary(opts.ExportDictionary, model.Dictionary()); err != nil {
			return err
		}
	}
	return nil
}

func benchmarkMode[T ransio.FixedWidth, S entropy.StreamWord](h *benchtesting.Harness, mode benchtesting.ExecutionMode, codec *core.Codec[T, S], tokens []T, sizeBits uint64) error {
	buf := make([]S, codec.MaxStreamWords(len(tokens)))
	var stream []S
	_, err := h.TimedRun(mode, benchtesting.Encode, sizeBits, func() error {
		var err error
		stream, err = codec.EncodeInto(tokens, buf)
		return err
	})
	if err != nil {
		return err
	}

	decoded := make([]T, len(tokens))
	_, err = h.TimedRun(mode, benchtesting.Decode, sizeBits, func() error {
		return codec.DecodeInto(stream, decoded)
	})
	if err != nil {
		return err
	}

	h.RecordSize(mode, len(stream)*int(entropy.StreamWordBits[S]()/8))
	if slices.Equal(tokens, decoded) {
		log.Infof("Decoder passed tests.")
	} else {
		log.Warnf("ERROR: Decoder failed tests.")
	}
	return nil
}

func benchmarkBaseline(h *benchtesting.Harness, baseline benchtesting.Baseline, data []uint8, sizeBits uint64) error {
	mode := baseline.Mode()
	if _, err := h.TimedRun(mode, benchtesting.Encode, sizeBits, func() error {
		return baseline.Encode(data)
	}); err != nil {
		return err
	}

	decoded := make([]uint8, len(data))
	if _, err := h.TimedRun(mode, benchtesting.Decode, sizeBits, func() error {
		return baseline.Decode(decoded)
	}); err != nil {
		return err
	}
	h.RecordSize(mode, baseline.Size())
	if !slices.Equal(data, decoded) {
		log.Warnf("ERROR: %v decoder failed tests.", mode)
	}
	return nil
}

// execute runs one benchmark invocation, returning the first failure so main can exit non zero.
func execute(args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	if opts.Debug {
		log.SetLevel(log.DebugLevel)
	}

	p, err := benchtesting.StartProfiling(opts.ProfileMode, opts.ProfileDir)
	if err != nil {
		return err
	}
	defer p.Stop()

	return run(opts)
}

func main() {
	if err := execute(os.Args[1:]); err != nil {
		log.Fatalf("benchmark failed: %v", err)
	}
}
