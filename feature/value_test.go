package feature

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestFloat(t *testing.T) {
	t.Run("numeric types are widened", func(t *testing.T) {
		for _, v := range []any{uint8(5), int(5), int64(5), float32(5), float64(5)} {
			f, ok := Float(v)
			assert.True(t, ok)
			assert.Equal(t, 5.0, f)
		}
	})

	t.Run("numeric strings are parsed", func(t *testing.T) {
		f, ok := Float(" 21.5")
		assert.True(t, ok)
		assert.Equal(t, 21.5, f)

		f, ok = Float("-4\n")
		assert.True(t, ok)
		assert.Equal(t, -4.0, f)
	})

	t.Run("padded numeric strings reach integer coercion intact", func(t *testing.T) {
		i, ok := Int(" 72 ")
		assert.True(t, ok)
		assert.Equal(t, 72, i)
	})

	t.Run("nil, non numeric strings and other types are unknown", func(t *testing.T) {
		for _, v := range []any{nil, "unknown", map[string]any{}, []int{1}} {
			_, ok := Float(v)
			assert.False(t, ok)
		}
	})

	t.Run("booleans are one or zero", func(t *testing.T) {
		f, ok := Float(true)
		assert.True(t, ok)
		assert.Equal(t, 1.0, f)
	})
}

func TestInt(t *testing.T) {
	t.Run("fractions are truncated", func(t *testing.T) {
		i, ok := Int(99.7)
		assert.True(t, ok)
		assert.Equal(t, 99, i)
	})
}

func TestBool(t *testing.T) {
	t.Run("numbers are true when non zero", func(t *testing.T) {
		b, ok := Bool(uint8(255))
		assert.True(t, ok)
		assert.True(t, b)

		b, ok = Bool(0)
		assert.True(t, ok)
		assert.False(t, b)
	})

	t.Run("strings are recognised", func(t *testing.T) {
		b, ok := Bool("on")
		assert.True(t, ok)
		assert.True(t, b)

		b, ok = Bool("False")
		assert.True(t, ok)
		assert.False(t, b)

		_, ok = Bool("maybe")
		assert.False(t, ok)
	})

	t.Run("nil is unknown", func(t *testing.T) {
		_, ok := Bool(nil)
		assert.False(t, ok)
	})
}

func TestClamp(t *testing.T) {
	t.Run("values are restricted to the range", func(t *testing.T) {
		assert.Equal(t, 5.0, Clamp(1, 5, 10))
		assert.Equal(t, 10.0, Clamp(11, 5, 10))
		assert.Equal(t, 7.0, Clamp(7, 5, 10))
	})
}
