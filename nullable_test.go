package prefkit_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prefkit/prefkit"
)

func ptr[T any](v T) *T { return &v }

func TestNullableBool(t *testing.T) {
	tests := []struct {
		name string
		in   *bool
		enc  int32
	}{
		{name: "nil", in: nil, enc: -1},
		{name: "false", in: ptr(false), enc: 0},
		{name: "true", in: ptr(true), enc: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := prefkit.EncodeNullableBool(tt.in)
			assert.Equal(t, tt.enc, enc)
			assert.Equal(t, tt.in, prefkit.DecodeNullableBool(enc))
		})
	}
}

func TestNullableInt(t *testing.T) {
	assert.Equal(t, prefkit.NullInt, prefkit.EncodeNullableInt(nil))
	assert.Nil(t, prefkit.DecodeNullableInt(prefkit.NullInt))

	for _, v := range []int32{0, -1, math.MaxInt32, math.MinInt32} {
		assert.Equal(t, ptr(v), prefkit.DecodeNullableInt(prefkit.EncodeNullableInt(ptr(v))))
	}
	assert.Nil(t, prefkit.DecodeNullableInt(math.MaxInt32+1))
}

func TestNullableBytes(t *testing.T) {
	t.Run("nil is persisted as empty", func(t *testing.T) {
		for _, b := range [][]byte{
			prefkit.EncodeNullableLong(nil),
			prefkit.EncodeNullableFloat(nil),
			prefkit.EncodeNullableDouble(nil),
		} {
			assert.NotNil(t, b)
			assert.Empty(t, b)
		}
		assert.Nil(t, prefkit.DecodeNullableLong([]byte{}))
		assert.Nil(t, prefkit.DecodeNullableFloat([]byte{}))
		assert.Nil(t, prefkit.DecodeNullableDouble([]byte{}))
	})

	t.Run("long is big-endian", func(t *testing.T) {
		b := prefkit.EncodeNullableLong(ptr(int64(0x0102030405060708)))
		assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, b)
		assert.Equal(t, ptr(int64(0x0102030405060708)), prefkit.DecodeNullableLong(b))
	})

	t.Run("round trip", func(t *testing.T) {
		assert.Equal(t, ptr(float32(1.5)), prefkit.DecodeNullableFloat(prefkit.EncodeNullableFloat(ptr(float32(1.5)))))
		assert.Equal(t, ptr(-2.25), prefkit.DecodeNullableDouble(prefkit.EncodeNullableDouble(ptr(-2.25))))
		assert.Equal(t, ptr(int64(math.MinInt64)), prefkit.DecodeNullableLong(prefkit.EncodeNullableLong(ptr(int64(math.MinInt64)))))
	})

	t.Run("wrong width", func(t *testing.T) {
		assert.Nil(t, prefkit.DecodeNullableLong([]byte{1, 2, 3}))
		assert.Nil(t, prefkit.DecodeNullableFloat([]byte{1, 2, 3, 4, 5}))
	})
}

func TestValidOrdinal(t *testing.T) {
	assert.True(t, prefkit.ValidOrdinal(0, 1))
	assert.False(t, prefkit.ValidOrdinal(1, 1))
	assert.False(t, prefkit.ValidOrdinal(prefkit.NullOrdinal, 1))
	assert.False(t, prefkit.ValidOrdinal(prefkit.InvalidOrdinal, 1))
	assert.False(t, prefkit.ValidOrdinal(0, 0))
}
