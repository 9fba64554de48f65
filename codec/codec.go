// Package codec converts application values to and from the immutable byte buffers
// stored by the engine.
//
// Numbers are stored as their big-endian representation with the exact width of the
// type, text is stored as raw UTF-8 with no length prefix.
package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode is the root of every decode failure.
	ErrDecode = errors.New("codec: decode failed")

	// ErrNotEnoughData is returned when a buffer is shorter than a fixed-width type.
	ErrNotEnoughData = fmt.Errorf("%w: not enough bytes in data", ErrDecode)

	// ErrInvalidUTF8 is returned when a text buffer is not valid UTF-8.
	ErrInvalidUTF8 = fmt.Errorf("%w: invalid utf-8", ErrDecode)
)

// Encoder turns a typed value into a stored Value.
type Encoder[T any] interface {
	Encode(v T) Value
}

// Decoder interprets a stored Value as T.
// Implementations must not keep references to v beyond the call.
type Decoder[T any] interface {
	Decode(v Value) (T, error)
}

// Codec is a bidirectional mapping between T and Value.
type Codec[T any] interface {
	Encoder[T]
	Decoder[T]
}

func notEnoughData(want, got int) error {
	return fmt.Errorf("%w, expected: %d, got: %d", ErrNotEnoughData, want, got)
}
