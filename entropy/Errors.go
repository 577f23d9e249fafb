package entropy

import "errors"

var (
	// ErrRange is returned when a symbol falls outside the declared or observed symbol range.
	ErrRange = errors.New("symbol out of range")

	// ErrPrecision is returned when the probability scale cannot represent the model.
	ErrPrecision = errors.New("insufficient probability precision")

	// ErrDomain is returned when coding parameters are requested for a zero probability symbol.
	ErrDomain = errors.New("symbol has zero probability")

	// ErrBufferExhausted is returned when the output buffer has no room left for another stream word.
	ErrBufferExhausted = errors.New("stream buffer exhausted")

	// ErrFormat is returned for malformed dictionaries and truncated streams.
	ErrFormat = errors.New("malformed rans data")

	ErrModelFrozen = errors.New("frequency model is frozen")
)
