package rans

import (
	"bytes"
	"fmt"
	"io"

	"github.com/kpfaulkner/rans-go/core"
	"github.com/kpfaulkner/rans-go/entropy"
	"github.com/kpfaulkner/rans-go/ransio"
	"google.golang.org/protobuf/encoding/protowire"
)

// DefaultProbabilityBits is the scale Compress uses.
const DefaultProbabilityBits = 18

// Compress codes data with the 64 bit interleaved coder into a self contained container:
// a varint length prefixed descriptor followed by the little endian stream words.
func Compress(data []byte) ([]byte, error) {
	model, err := entropy.NewFrequencyModel(data, 0)
	if err != nil {
		return nil, err
	}
	if err := model.Rescale(1 << DefaultProbabilityBits); err != nil {
		return nil, err
	}
	cfg, err := entropy.Rans64Config(DefaultProbabilityBits)
	if err != nil {
		return nil, err
	}
	codec, err := core.NewCodec[uint8, uint32](model, cfg, core.WithLaneSchedule(entropy.TwoLane))
	if err != nil {
		return nil, err
	}
	stream, err := codec.Encode(data)
	if err != nil {
		return nil, err
	}

	desc := ransio.MarshalDescriptor(codec.Descriptor(len(data)))
	out := bytes.NewBuffer(protowire.AppendBytes(nil, desc))
	if err := ransio.WriteStream(out, stream); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Decompress reverses Compress. Containers announcing more than ransio.DefaultSymbolLimit
// symbols are rejected.
func Decompress(container []byte) ([]byte, error) {
	return DecompressLimit(container, ransio.DefaultSymbolLimit)
}

// DecompressLimit is Decompress with a caller chosen cap on the decoded length.
func DecompressLimit(container []byte, limit uint64) ([]byte, error) {
	desc, n := protowire.ConsumeBytes(container)
	if n < 0 {
		return nil, fmt.Errorf("%w: container header: %v", entropy.ErrFormat, protowire.ParseError(n))
	}
	sd, err := ransio.UnmarshalDescriptor(desc)
	if err != nil {
		return nil, err
	}
	if sd.StreamBits != 32 {
		return nil, fmt.Errorf("%w: container holds %d bit stream words", entropy.ErrFormat, sd.StreamBits)
	}

	count, err := sd.SymbolCountWithin(limit)
	if err != nil {
		return nil, err
	}

	codec, err := core.NewCodecFromDescriptor[uint8, uint32](sd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entropy.ErrFormat, err)
	}
	stream, err := ransio.ReadStream[uint32](bytes.NewReader(container[n:]))
	if err != nil {
		return nil, err
	}
	return codec.Decode(stream, count)
}

// DecompressFrom reads a whole container from r.
func DecompressFrom(r io.Reader) ([]byte, error) {
	container, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ransio.ErrIO, err)
	}
	return Decompress(container)
}
