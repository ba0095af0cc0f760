package prefkit

import (
	"encoding/binary"
	"math"
)

// NullInt is the int64 encoding of a nil *int32.
const NullInt int64 = math.MaxInt64

// InvalidOrdinal never matches a constant. It is a safe default when
// decoding an ordinal with kv.Store.DecodeInt.
const InvalidOrdinal int32 = math.MinInt32

// NullOrdinal is the stored ordinal of a nil enum pointer.
const NullOrdinal int32 = -1

// ValidOrdinal reports whether o indexes one of n enum constants.
func ValidOrdinal(o int32, n int) bool {
	return o >= 0 && int(o) < n
}

// EncodeNullableBool maps nil, false and true to -1, 0 and 1.
func EncodeNullableBool(v *bool) int32 {
	switch {
	case v == nil:
		return -1
	case *v:
		return 1
	default:
		return 0
	}
}

// DecodeNullableBool is the inverse of EncodeNullableBool. Any negative value is nil.
func DecodeNullableBool(v int32) *bool {
	if v < 0 {
		return nil
	}
	b := v != 0
	return &b
}

// EncodeNullableInt widens v to int64, encoding nil as NullInt.
func EncodeNullableInt(v *int32) int64 {
	if v == nil {
		return NullInt
	}
	return int64(*v)
}

// DecodeNullableInt is the inverse of EncodeNullableInt.
func DecodeNullableInt(v int64) *int32 {
	if v == NullInt || v < math.MinInt32 || v > math.MaxInt32 {
		return nil
	}
	i := int32(v)
	return &i
}

// EncodeNullableLong encodes v as 8 big-endian bytes. A nil v is an empty,
// non-nil slice so that the absence is persisted.
func EncodeNullableLong(v *int64) []byte {
	if v == nil {
		return []byte{}
	}
	return binary.BigEndian.AppendUint64(nil, uint64(*v))
}

// DecodeNullableLong is the inverse of EncodeNullableLong.
func DecodeNullableLong(b []byte) *int64 {
	if len(b) != 8 {
		return nil
	}
	v := int64(binary.BigEndian.Uint64(b))
	return &v
}

// EncodeNullableFloat encodes the IEEE 754 bits of v as 4 big-endian bytes.
func EncodeNullableFloat(v *float32) []byte {
	if v == nil {
		return []byte{}
	}
	return binary.BigEndian.AppendUint32(nil, math.Float32bits(*v))
}

// DecodeNullableFloat is the inverse of EncodeNullableFloat.
func DecodeNullableFloat(b []byte) *float32 {
	if len(b) != 4 {
		return nil
	}
	v := math.Float32frombits(binary.BigEndian.Uint32(b))
	return &v
}

// EncodeNullableDouble encodes the IEEE 754 bits of v as 8 big-endian bytes.
func EncodeNullableDouble(v *float64) []byte {
	if v == nil {
		return []byte{}
	}
	return binary.BigEndian.AppendUint64(nil, math.Float64bits(*v))
}

// DecodeNullableDouble is the inverse of EncodeNullableDouble.
func DecodeNullableDouble(b []byte) *float64 {
	if len(b) != 8 {
		return nil
	}
	v := math.Float64frombits(binary.BigEndian.Uint64(b))
	return &v
}
