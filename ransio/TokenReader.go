package ransio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// FixedWidth is the set of element types a token file can hold.
type FixedWidth interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64
}

// ReadTokens reads a whole file of little endian fixed width tokens.
func ReadTokens[T FixedWidth](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	tokens, err := DecodeTokens[T](data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debugf("read %d tokens from %s", len(tokens), path)
	return tokens, nil
}

// DecodeTokens interprets data as little endian elements of T.
func DecodeTokens[T FixedWidth](data []byte) ([]T, error) {
	var zero T
	size := binary.Size(zero)
	if len(data)%size != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrSizeMismatch, len(data), size)
	}

	tokens := make([]T, len(data)/size)
	if len(tokens) == 0 {
		return tokens, nil
	}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, tokens); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return tokens, nil
}

// EncodeTokens is the inverse of DecodeTokens.
func EncodeTokens[T FixedWidth](tokens []T) []byte {
	var zero T
	var buf bytes.Buffer
	buf.Grow(len(tokens) * binary.Size(zero))
	// writing to a bytes.Buffer cannot fail
	_ = binary.Write(&buf, binary.LittleEndian, tokens)
	return buf.Bytes()
}
