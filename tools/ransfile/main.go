package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kpfaulkner/rans-go/core"
	"github.com/kpfaulkner/rans-go/entropy"
	"github.com/kpfaulkner/rans-go/options"
	"github.com/kpfaulkner/rans-go/ransio"
	log "github.com/sirupsen/logrus"
)

const descriptorSuffix = ".desc"

// compress codes the bytes of infile into outfile and writes the descriptor next to it.
func compress(infile string, outfile string, probabilityBits uint, coderWidth uint, lanes int) error {
	data, err := ransio.ReadTokens[uint8](infile)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: %s is empty", entropy.ErrRange, infile)
	}

	model, err := entropy.NewFrequencyModel(data, 0)
	if err != nil {
		return err
	}
	if err := model.Rescale(1 << probabilityBits); err != nil {
		return err
	}
	schedule, err := entropy.ParseLaneSchedule(lanes)
	if err != nil {
		return err
	}

	if coderWidth == 32 {
		cfg, err := entropy.Rans32Config(probabilityBits)
		if err != nil {
			return err
		}
		return compressWith[uint8](model, cfg, schedule, data, outfile)
	}
	cfg, err := entropy.Rans64Config(probabilityBits)
	if err != nil {
		return err
	}
	return compressWith[uint32](model, cfg, schedule, data, outfile)
}

func compressWith[S entropy.StreamWord](model *entropy.FrequencyModel, cfg entropy.CoderConfig, schedule entropy.LaneSchedule, data []uint8, outfile string) error {
	codec, err := core.NewCodec[uint8, S](model, cfg, core.WithLaneSchedule(schedule))
	if err != nil {
		return err
	}

	start := time.Now()
	stream, err := codec.Encode(data)
	if err != nil {
		return err
	}
	log.Infof("encoding took %d ms", time.Since(start).Milliseconds())

	if err := ransio.SaveStream(outfile, stream); err != nil {
		return err
	}
	if err := ransio.SaveDescriptor(outfile+descriptorSuffix, codec.Descriptor(len(data))); err != nil {
		return err
	}
	log.Infof("%d bytes -> %d bytes (%v %v)", len(data), len(stream)*int(cfg.StreamBits/8), cfg, schedule)
	return nil
}

// decompress restores the original bytes from infile and its descriptor.
func decompress(infile string, outfile string) error {
	sd, err := ransio.LoadDescriptor(infile + descriptorSuffix)
	if err != nil {
		return err
	}

	switch sd.StreamBits {
	case 8:
		return decompressWith[uint8](sd, infile, outfile)
	case 16:
		return decompressWith[uint16](sd, infile, outfile)
	case 32:
		return decompressWith[uint32](sd, infile, outfile)
	}
	return fmt.Errorf("%w: unsupported stream width %d", entropy.ErrFormat, sd.StreamBits)
}

func decompressWith[S entropy.StreamWord](sd ransio.StreamDescriptor, infile string, outfile string) error {
	codec, err := core.NewCodecFromDescriptor[uint8, S](sd)
	if err != nil {
		return err
	}
	count, err := sd.SymbolCountWithin(ransio.DefaultSymbolLimit)
	if err != nil {
		return err
	}
	stream, err := ransio.LoadStream[S](infile)
	if err != nil {
		return err
	}

	start := time.Now()
	data, err := codec.Decode(stream, count)
	if err != nil {
		return err
	}
	log.Infof("decoding took %d ms", time.Since(start).Milliseconds())

	if err := os.WriteFile(outfile, data, 0666); err != nil {
		return fmt.Errorf("%w: %w", ransio.ErrIO, err)
	}
	return nil
}

func main() {
	mode := flag.String("mode", "compress", "compress or decompress")
	infile := flag.String("i", "", "input file")
	outfile := flag.String("o", "", "output file")
	bits := flag.Uint("b", 0, "probability bits (default depends on -w)")
	width := flag.Uint("w", options.DefaultCoderWidth, "coder width (32 or 64)")
	lanes := flag.Int("lanes", options.DefaultLanes, "interleaved lanes (1, 2 or 4)")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	if *infile == "" || *outfile == "" {
		fmt.Printf("both input and output files must be specified\n")
		os.Exit(1)
	}
	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	var err error
	switch *mode {
	case "compress":
		opts := options.NewRansOptions(&options.RansOptions{InputFile: *infile, ProbabilityBits: *bits, CoderWidth: *width, Lanes: *lanes})
		if err = opts.Validate(); err == nil {
			err = compress(opts.InputFile, *outfile, opts.ProbabilityBits, opts.CoderWidth, opts.Lanes)
		}
	case "decompress":
		err = decompress(*infile, *outfile)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", *mode, err)
	}
}
