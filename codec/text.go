package codec

import (
	"bytes"
	"unicode/utf8"
)

var (
	// String stores text as UTF-8. The whole buffer is the string.
	String Codec[string] = stringCodec{}

	// Bytes stores raw bytes unchanged. Decoded slices are copies.
	Bytes Codec[[]byte] = bytesCodec{}

	// Raw hands back the stored Value itself, without copying.
	Raw Codec[Value] = rawCodec{}
)

type stringCodec struct{}

func (stringCodec) Encode(s string) Value {
	return StringValue(s)
}

func (stringCodec) Decode(v Value) (string, error) {
	if !utf8.Valid(v.data) {
		return "", ErrInvalidUTF8
	}
	return string(v.data), nil
}

type bytesCodec struct{}

func (bytesCodec) Encode(b []byte) Value {
	return NewValue(b)
}

func (bytesCodec) Decode(v Value) ([]byte, error) {
	return bytes.Clone(v.data), nil
}

type rawCodec struct{}

func (rawCodec) Encode(v Value) Value { return v }

func (rawCodec) Decode(v Value) (Value, error) { return v, nil }
