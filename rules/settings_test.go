package rules

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestSettings(t *testing.T) {
	t.Run("a int setting is returned by Int() and widened by Float()", func(t *testing.T) {
		k := "key"
		v := 2
		s := Settings{k: v}

		val, ok := s.Int(k)
		assert.True(t, ok)
		assert.Equal(t, v, val)

		f, ok := s.Float(k)
		assert.True(t, ok)
		assert.Equal(t, 2.0, f)
	})

	t.Run("a float setting is only returned successfully by Float()", func(t *testing.T) {
		k := "key"
		v := 2.0
		s := Settings{k: v}

		_, ok := s.Int(k)
		assert.False(t, ok)

		val, ok := s.Float(k)
		assert.True(t, ok)
		assert.Equal(t, v, val)
	})

	t.Run("merge overlays settings without modifying either side", func(t *testing.T) {
		a := Settings{"one": 1, "two": 2}
		b := Settings{"two": "overridden"}

		m := a.Merge(b)

		assert.Equal(t, Settings{"one": 1, "two": "overridden"}, m)
		assert.Equal(t, 2, a["two"])
		assert.Len(t, b, 1)
	})
}
