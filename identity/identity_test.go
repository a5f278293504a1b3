package identity

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver("zhap")
	k := Key{NetworkID: 0xdeadbeef, DeviceID: 12}

	current := Generate(Current("zhap", k))
	hexNetwork := Generate(HexNetwork("zhap", k))
	nodePrefixed := Generate(NodePrefixed("zhap", k))
	unscoped := Generate(Unscoped("zhap", k))

	t.Run("uses the current scheme when nothing is persisted", func(t *testing.T) {
		assert.Equal(t, current, r.Resolve(k, NewSet()))
		assert.False(t, r.Migrated(k, NewSet()))
	})

	t.Run("is idempotent for the same persisted set", func(t *testing.T) {
		existing := NewSet(nodePrefixed, "unrelated")

		assert.Equal(t, r.Resolve(k, existing), r.Resolve(k, existing))
	})

	t.Run("prefers the second legacy scheme over the current scheme", func(t *testing.T) {
		existing := NewSet(nodePrefixed)

		assert.Equal(t, nodePrefixed, r.Resolve(k, existing))
		assert.True(t, r.Migrated(k, existing))
	})

	t.Run("the newest legacy match wins", func(t *testing.T) {
		existing := NewSet(unscoped, hexNetwork, nodePrefixed)

		assert.Equal(t, hexNetwork, r.Resolve(k, existing))
	})

	t.Run("a legacy match wins even if the current identifier also exists", func(t *testing.T) {
		existing := NewSet(current, unscoped)

		assert.Equal(t, unscoped, r.Resolve(k, existing))
	})

	t.Run("different devices and networks produce different identifiers", func(t *testing.T) {
		other := Key{NetworkID: 0xdeadbeef, DeviceID: 13}
		otherNetwork := Key{NetworkID: 1, DeviceID: 12}

		assert.NotEqual(t, current, r.Resolve(other, NewSet()))
		assert.NotEqual(t, current, r.Resolve(otherNetwork, NewSet()))
	})

	t.Run("the controller has its own identifier", func(t *testing.T) {
		controller := Key{NetworkID: 0xdeadbeef, Controller: true}

		assert.Equal(t, Generate("zhap-3735928559-controller"), r.Resolve(controller, NewSet()))
	})
}
