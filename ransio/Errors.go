package ransio

import "errors"

var (
	// ErrIO wraps failures of the underlying file system or reader.
	ErrIO = errors.New("rans io error")

	// ErrSizeMismatch is returned when a file is not a whole number of fixed width elements.
	ErrSizeMismatch = errors.New("file size is not a multiple of the element size")
)
