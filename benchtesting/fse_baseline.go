package benchtesting

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/fse"
	"google.golang.org/protobuf/encoding/protowire"
)

const fseBlockSize = 1 << 16

// block kinds of the FSE framing
const (
	fseRaw byte = iota
	fseRLE
	fseCoded
)

// FSEBaseline codes byte blocks with the tabled ANS coder used by zstd. Every 64 KiB block is
// framed as kind, varint length, payload.
type FSEBaseline struct {
	scratch fse.Scratch
	encoded []byte
}

func (b *FSEBaseline) Mode() ExecutionMode {
	return FSE
}

func (b *FSEBaseline) Encode(block []byte) error {
	b.encoded = b.encoded[:0]
	for start := 0; start < len(block); start += fseBlockSize {
		chunk := block[start:min(start+fseBlockSize, len(block))]

		b.scratch.Out = nil
		out, err := fse.Compress(chunk, &b.scratch)
		switch {
		case err == nil:
			b.encoded = append(b.encoded, fseCoded)
			b.encoded = protowire.AppendBytes(b.encoded, out)
		case errors.Is(err, fse.ErrUseRLE):
			b.encoded = append(b.encoded, fseRLE)
			b.encoded = protowire.AppendVarint(b.encoded, uint64(len(chunk)))
			b.encoded = append(b.encoded, chunk[0])
		case errors.Is(err, fse.ErrIncompressible):
			b.encoded = append(b.encoded, fseRaw)
			b.encoded = protowire.AppendBytes(b.encoded, chunk)
		default:
			return fmt.Errorf("fse block at %d: %w", start, err)
		}
	}
	return nil
}

func (b *FSEBaseline) Decode(dst []byte) error {
	in := b.encoded
	pos := 0
	for len(in) > 0 {
		kind := in[0]
		in = in[1:]

		var n int
		switch kind {
		case fseRLE:
			var count uint64
			count, n = protowire.ConsumeVarint(in)
			if n < 0 || n >= len(in) || pos+int(count) > len(dst) {
				return errors.New("fse: corrupt rle block")
			}
			for i := 0; i < int(count); i++ {
				dst[pos+i] = in[n]
			}
			pos += int(count)
			n++
		case fseRaw, fseCoded:
			var payload []byte
			payload, n = protowire.ConsumeBytes(in)
			if n < 0 {
				return fmt.Errorf("fse: %v", protowire.ParseError(n))
			}
			if kind == fseCoded {
				b.scratch.Out = nil
				out, err := fse.Decompress(payload, &b.scratch)
				if err != nil {
					return err
				}
				payload = out
			}
			if pos+len(payload) > len(dst) {
				return errors.New("fse: decoded data longer than destination")
			}
			pos += copy(dst[pos:], payload)
		default:
			return fmt.Errorf("fse: unknown block kind %d", kind)
		}
		in = in[n:]
	}

	if pos != len(dst) {
		return fmt.Errorf("fse: decoded %d of %d bytes", pos, len(dst))
	}
	return nil
}

func (b *FSEBaseline) Size() int {
	return len(b.encoded)
}
