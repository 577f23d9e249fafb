package benchtesting

import (
	"bytes"
	"fmt"
	"io"

	"github.com/flanglet/kanzi-go/v2/bitstream"
	kentropy "github.com/flanglet/kanzi-go/v2/entropy"
)

const baselineBufferSize = 65536

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// Baseline is a reference byte coder the static coder is measured against. Encode keeps the
// compressed block for the following Decode.
type Baseline interface {
	Mode() ExecutionMode
	Encode(block []byte) error
	Decode(dst []byte) error
	Size() int
}

// Baselines returns every reference coder.
func Baselines() []Baseline {
	return []Baseline{&KanziBaseline{}, &FSEBaseline{}}
}

// KanziBaseline codes byte blocks with kanzi's order 0 ANS codec, which rebuilds its
// frequencies for every chunk.
type KanziBaseline struct {
	encoded bytes.Buffer
}

func (b *KanziBaseline) Mode() ExecutionMode {
	return KanziANS
}

func (b *KanziBaseline) Encode(block []byte) (err error) {
	b.encoded.Reset()
	obs, err := bitstream.NewDefaultOutputBitStream(nopWriteCloser{&b.encoded}, baselineBufferSize)
	if err != nil {
		return err
	}
	defer func() {
		// the bitstream panics on write errors
		if r := recover(); r != nil {
			err = fmt.Errorf("baseline encode: %v", r)
		}
	}()

	enc, err := kentropy.NewANSRangeEncoder(obs)
	if err != nil {
		return err
	}
	if _, err := enc.Write(block); err != nil {
		return err
	}
	enc.Dispose()
	obs.Close()
	return nil
}

// Decode restores the last encoded block into dst, which must have the original length.
func (b *KanziBaseline) Decode(dst []byte) (err error) {
	ibs, err := bitstream.NewDefaultInputBitStream(io.NopCloser(bytes.NewReader(b.encoded.Bytes())), baselineBufferSize)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("baseline decode: %v", r)
		}
	}()

	dec, err := kentropy.NewANSRangeDecoder(ibs)
	if err != nil {
		return err
	}
	if _, err := dec.Read(dst); err != nil {
		return err
	}
	dec.Dispose()
	ibs.Close()
	return nil
}

func (b *KanziBaseline) Size() int {
	return b.encoded.Len()
}
