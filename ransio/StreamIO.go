package ransio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/kpfaulkner/rans-go/entropy"
)

// WriteStream writes stream words in little endian order.
func WriteStream[S entropy.StreamWord](w io.Writer, stream []S) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, stream); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

// ReadStream reads stream words until EOF.
func ReadStream[S entropy.StreamWord](r io.Reader) ([]S, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	size := int(entropy.StreamWordBits[S]() / 8)
	if len(data)%size != 0 {
		return nil, fmt.Errorf("%w: stream of %d bytes with %d byte words", ErrSizeMismatch, len(data), size)
	}
	stream := make([]S, len(data)/size)
	if len(stream) == 0 {
		return stream, nil
	}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, stream); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return stream, nil
}

func SaveStream[S entropy.StreamWord](path string, stream []S) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return writeAndClose(f, stream)
}

// writeAndClose reports the close error as well, since a failed close can lose buffered data.
func writeAndClose[S entropy.StreamWord](wc io.WriteCloser, stream []S) error {
	if err := WriteStream(wc, stream); err != nil {
		wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

func LoadStream[S entropy.StreamWord](path string) ([]S, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()
	return ReadStream[S](f)
}
