package codec

import (
	"encoding/binary"
	"math"
	"math/big"
	"strconv"

	"golang.org/x/exp/constraints"
)

// Fixed-width numeric codecs. Each one reads and writes exactly its width in big-endian order.
var (
	Int8   Codec[int8]   = integer[int8]{width: 1}
	Int16  Codec[int16]  = integer[int16]{width: 2}
	Int32  Codec[int32]  = integer[int32]{width: 4}
	Int64  Codec[int64]  = integer[int64]{width: 8}
	Int    Codec[int]    = integer[int]{width: strconv.IntSize / 8}
	Uint8  Codec[uint8]  = integer[uint8]{width: 1}
	Uint16 Codec[uint16] = integer[uint16]{width: 2}
	Uint32 Codec[uint32] = integer[uint32]{width: 4}
	Uint64 Codec[uint64] = integer[uint64]{width: 8}
	Uint   Codec[uint]   = integer[uint]{width: strconv.IntSize / 8}

	Int128  Codec[I128] = int128Codec{}
	Uint128 Codec[U128] = uint128Codec{}

	Float32 Codec[float32] = float32Codec{}
	Float64 Codec[float64] = float64Codec{}
)

type integer[T constraints.Integer] struct {
	width int
}

func (c integer[T]) Encode(v T) Value {
	buf := make([]byte, c.width)
	u := uint64(v)
	for i := c.width - 1; i >= 0; i-- {
		buf[i] = byte(u)
		u >>= 8
	}
	return Value{data: buf}
}

func (c integer[T]) Decode(v Value) (T, error) {
	if len(v.data) < c.width {
		return 0, notEnoughData(c.width, len(v.data))
	}
	var u uint64
	for _, b := range v.data[:c.width] {
		u = u<<8 | uint64(b)
	}
	// Conversion truncates to the width of T, which restores the sign of signed types.
	return T(u), nil
}

// U128 is an unsigned 128-bit integer.
type U128 struct {
	Hi, Lo uint64
}

// U128From widens x.
func U128From(x uint64) U128 {
	return U128{Lo: x}
}

// Big returns u as a big.Int.
func (u U128) Big() *big.Int {
	b := new(big.Int).SetUint64(u.Hi)
	b.Lsh(b, 64)
	return b.Or(b, new(big.Int).SetUint64(u.Lo))
}

func (u U128) String() string {
	return u.Big().String()
}

// I128 is a signed 128-bit integer in two's complement form.
type I128 struct {
	Hi int64
	Lo uint64
}

// I128From sign-extends x.
func I128From(x int64) I128 {
	return I128{Hi: x >> 63, Lo: uint64(x)}
}

// Big returns i as a big.Int.
func (i I128) Big() *big.Int {
	b := new(big.Int).SetInt64(i.Hi)
	b.Lsh(b, 64)
	return b.Add(b, new(big.Int).SetUint64(i.Lo))
}

func (i I128) String() string {
	return i.Big().String()
}

type uint128Codec struct{}

func (uint128Codec) Encode(v U128) Value {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], v.Hi)
	binary.BigEndian.PutUint64(buf[8:], v.Lo)
	return Value{data: buf}
}

func (uint128Codec) Decode(v Value) (U128, error) {
	if len(v.data) < 16 {
		return U128{}, notEnoughData(16, len(v.data))
	}
	return U128{
		Hi: binary.BigEndian.Uint64(v.data[:8]),
		Lo: binary.BigEndian.Uint64(v.data[8:16]),
	}, nil
}

type int128Codec struct{}

func (int128Codec) Encode(v I128) Value {
	return uint128Codec{}.Encode(U128{Hi: uint64(v.Hi), Lo: v.Lo})
}

func (int128Codec) Decode(v Value) (I128, error) {
	u, err := uint128Codec{}.Decode(v)
	if err != nil {
		return I128{}, err
	}
	return I128{Hi: int64(u.Hi), Lo: u.Lo}, nil
}

type float32Codec struct{}

func (float32Codec) Encode(v float32) Value {
	return Value{data: binary.BigEndian.AppendUint32(nil, math.Float32bits(v))}
}

func (float32Codec) Decode(v Value) (float32, error) {
	if len(v.data) < 4 {
		return 0, notEnoughData(4, len(v.data))
	}
	return math.Float32frombits(binary.BigEndian.Uint32(v.data)), nil
}

type float64Codec struct{}

func (float64Codec) Encode(v float64) Value {
	return Value{data: binary.BigEndian.AppendUint64(nil, math.Float64bits(v))}
}

func (float64Codec) Decode(v Value) (float64, error) {
	if len(v.data) < 8 {
		return 0, notEnoughData(8, len(v.data))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(v.data)), nil
}
