package zhap

import (
	"context"
	"github.com/shimmeringbee/persistence/impl/memory"
	"github.com/shimmeringbee/zhap/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestPlatform_deviceListFromPersistence(t *testing.T) {
	t.Run("multiple devices are returned", func(t *testing.T) {
		p, err := New(driver.NewBus(), acceptingRegistry(), memory.New(), networkID, DefaultConfig())
		require.NoError(t, err)

		p.sectionForDevice(4)
		p.sectionForDevice(12)

		devices := p.deviceListFromPersistence()

		assert.Contains(t, devices, uint16(4))
		assert.Contains(t, devices, uint16(12))
	})
}

func TestPlatform_sectionRemoveDevice(t *testing.T) {
	t.Run("devices are removed", func(t *testing.T) {
		p, err := New(driver.NewBus(), acceptingRegistry(), memory.New(), networkID, DefaultConfig())
		require.NoError(t, err)

		p.sectionForDevice(4)
		p.sectionForDevice(12)

		assert.True(t, p.sectionRemoveDevice(12))

		devices := p.deviceListFromPersistence()

		assert.Contains(t, devices, uint16(4))
		assert.NotContains(t, devices, uint16(12))
	})
}

func TestPlatform_pruneOrphanedDevices(t *testing.T) {
	t.Run("state of devices without a cached accessory is removed on start", func(t *testing.T) {
		s := memory.New()

		first, bus := newPlatform(t, acceptingRegistry(), s)
		bus.NodeReady(switchNode(5, "Lamp"))
		first.Stop()

		first.sectionForDevice(8)

		second, _ := newPlatform(t, acceptingRegistry(), s)
		second.pruneOrphanedDevices(context.Background())

		devices := second.deviceListFromPersistence()
		assert.Contains(t, devices, uint16(5))
		assert.NotContains(t, devices, uint16(8))
	})
}
