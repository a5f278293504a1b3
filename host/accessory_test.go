package host

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestAccessory_AddService(t *testing.T) {
	t.Run("a new accessory always has an information service", func(t *testing.T) {
		a := NewAccessory("Kitchen", "uuid")

		assert.Len(t, a.Services(), 1)
		assert.Equal(t, ServiceAccessoryInformation, a.Services()[0].Type())
		assert.Equal(t, "Kitchen", a.Information().Characteristic(CharName).Value())
	})

	t.Run("returns the existing service for the same type and subtype", func(t *testing.T) {
		a := NewAccessory("Kitchen", "uuid")

		first := a.AddService(ServiceSwitch, "Switch 1", "1")
		second := a.AddService(ServiceSwitch, "Other", "1")
		third := a.AddService(ServiceSwitch, "Switch 2", "2")

		assert.Same(t, first, second)
		assert.NotSame(t, first, third)
		assert.Len(t, a.Services(), 3)
		assert.Equal(t, "Switch 1", second.Name())
	})
}

func TestAccessory_RemoveService(t *testing.T) {
	t.Run("removes only the provided service", func(t *testing.T) {
		a := NewAccessory("Kitchen", "uuid")
		s := a.AddService(ServiceSwitch, "Switch", "0")

		assert.True(t, a.RemoveService(s))
		assert.False(t, a.RemoveService(s))
		assert.Nil(t, a.Service(ServiceSwitch, "0"))
		assert.NotNil(t, a.Service(ServiceAccessoryInformation, ""))
	})
}

func TestAccessory_SetName(t *testing.T) {
	t.Run("updates the information service name", func(t *testing.T) {
		a := NewAccessory("Kitchen", "uuid")
		a.SetName("Hall")

		assert.Equal(t, "Hall", a.Name())
		assert.Equal(t, "Hall", a.Information().Name())
		assert.Equal(t, "Hall", a.Information().Characteristic(CharName).Value())
	})
}

func TestService_Characteristics(t *testing.T) {
	t.Run("testing for a characteristic does not add it", func(t *testing.T) {
		s := NewService(ServiceLightbulb, "Light", "0")

		assert.False(t, s.HasCharacteristic(CharBrightness))
		s.Characteristic(CharBrightness)
		assert.True(t, s.HasCharacteristic(CharBrightness))

		assert.True(t, s.RemoveCharacteristic(CharBrightness))
		assert.False(t, s.HasCharacteristic(CharBrightness))
	})
}
