package codec

import "bytes"

/*
Value is the unit of storage: an immutable byte buffer.

A Value never changes after it is built. Constructors copy the caller's bytes and
Bytes returns a copy, so the same Value can be shared between goroutines, shards and
callers without any synchronization. Copying a Value is as cheap as copying a slice header.
*/
type Value struct {
	data []byte
}

// NewValue copies b into a new Value.
func NewValue(b []byte) Value {
	return Value{data: bytes.Clone(b)}
}

// StringValue builds a Value holding the bytes of s.
func StringValue(s string) Value {
	return Value{data: []byte(s)}
}

// Len returns the number of bytes in the value.
func (v Value) Len() int {
	return len(v.data)
}

// Bytes returns a copy of the underlying bytes.
func (v Value) Bytes() []byte {
	return bytes.Clone(v.data)
}

// Equal reports whether both values hold the same bytes.
func (v Value) Equal(o Value) bool {
	return bytes.Equal(v.data, o.data)
}

func (v Value) String() string {
	return string(v.data)
}
