package entropy

import (
	"fmt"
	"math/bits"
)

// StreamWord is the element type of an encoded stream.
type StreamWord interface {
	~uint8 | ~uint16 | ~uint32
}

// StreamWordBits returns the width of S in bits.
func StreamWordBits[S StreamWord]() uint {
	var w S
	return uint(bits.Len64(uint64(^w)))
}

// EncodeCursor writes stream words back to front into a caller owned buffer.
type EncodeCursor[S StreamWord] struct {
	buf []S
	pos int
}

// NewEncodeCursor positions the cursor at the end of buf.
func NewEncodeCursor[S StreamWord](buf []S) *EncodeCursor[S] {
	return &EncodeCursor[S]{buf: buf, pos: len(buf)}
}

// Put writes w in front of everything written so far.
func (c *EncodeCursor[S]) Put(w S) error {
	if c.pos == 0 {
		return fmt.Errorf("%w: %d words written", ErrBufferExhausted, len(c.buf))
	}
	c.pos--
	c.buf[c.pos] = w
	return nil
}

// Stream returns the words written so far, in decode order.
func (c *EncodeCursor[S]) Stream() []S {
	return c.buf[c.pos:]
}

func (c *EncodeCursor[S]) Len() int {
	return len(c.buf) - c.pos
}

// Remaining is the number of words that can still be written.
func (c *EncodeCursor[S]) Remaining() int {
	return c.pos
}

// DecodeCursor reads stream words front to back.
type DecodeCursor[S StreamWord] struct {
	buf []S
	pos int
}

func NewDecodeCursor[S StreamWord](buf []S) *DecodeCursor[S] {
	return &DecodeCursor[S]{buf: buf}
}

// Next returns the next stream word.
func (c *DecodeCursor[S]) Next() (S, error) {
	if c.pos >= len(c.buf) {
		return 0, fmt.Errorf("%w: stream truncated after %d words", ErrFormat, len(c.buf))
	}
	w := c.buf[c.pos]
	c.pos++
	return w, nil
}

// Consumed is the number of words read so far.
func (c *DecodeCursor[S]) Consumed() int {
	return c.pos
}

func (c *DecodeCursor[S]) Remaining() int {
	return len(c.buf) - c.pos
}
