package color_switch

import (
	"context"
	"github.com/shimmeringbee/zhap/catalog"
	"github.com/shimmeringbee/zhap/driver"
	"github.com/shimmeringbee/zhap/feature/featuretest"
	"github.com/shimmeringbee/zhap/host"
	"github.com/stretchr/testify/assert"
	"testing"
)

func component(key string) driver.ValueID {
	return driver.ValueID{CommandClass: catalog.ColorSwitch, Property: CurrentColor, PropertyKey: key}
}

func newColor(t *testing.T, r, g, b int) (*Implementation, *driver.MemoryNode) {
	n := driver.NewMemoryNode(8, "Strip")
	n.Define(component(Red), r)
	n.Define(component(Green), g)
	n.Define(component(Blue), b)

	i := NewColorSwitch(featuretest.Base(n, 0))
	assert.NoError(t, i.Init(context.Background()))

	return i, n
}

func Test_colorConversion(t *testing.T) {
	t.Run("primary colors convert both ways", func(t *testing.T) {
		h, s := rgbToHS(255, 0, 0)
		assert.Equal(t, 0.0, h)
		assert.Equal(t, 100.0, s)

		h, s = rgbToHS(0, 255, 0)
		assert.Equal(t, 120.0, h)

		h, s = rgbToHS(0, 0, 255)
		assert.Equal(t, 240.0, h)

		r, g, b := hsToRGB(120, 100)
		assert.Equal(t, []int{0, 255, 0}, []int{r, g, b})

		r, g, b = hsToRGB(0, 0)
		assert.Equal(t, []int{255, 255, 255}, []int{r, g, b})
	})

	t.Run("black and white have no saturation", func(t *testing.T) {
		_, s := rgbToHS(0, 0, 0)
		assert.Equal(t, 0.0, s)

		_, s = rgbToHS(255, 255, 255)
		assert.Equal(t, 0.0, s)
	})
}

func TestImplementation(t *testing.T) {
	t.Run("updates hue and saturation from the current color", func(t *testing.T) {
		i, _ := newColor(t, 0, 0, 255)
		assert.Equal(t, "ZWaveColorSwitch", i.ImplName())

		i.Update(context.Background(), nil)
		assert.Equal(t, 240.0, i.service.Characteristic(host.CharHue).Value())
		assert.Equal(t, 100.0, i.service.Characteristic(host.CharSaturation).Value())
	})

	t.Run("accepts dimmer events on the same endpoint", func(t *testing.T) {
		i, _ := newColor(t, 255, 0, 0)

		i.Update(context.Background(), &driver.ValueEvent{CommandClass: catalog.MultilevelSwitch, Property: "currentValue"})
		assert.Equal(t, 0.0, i.service.Characteristic(host.CharHue).Value())
		assert.Equal(t, 100.0, i.service.Characteristic(host.CharSaturation).Value())
	})

	t.Run("ignores unrelated events", func(t *testing.T) {
		i, _ := newColor(t, 255, 0, 0)

		i.Update(context.Background(), &driver.ValueEvent{CommandClass: catalog.BinarySwitch, Property: "currentValue"})
		assert.Nil(t, i.service.Characteristic(host.CharHue).Value())
	})

	t.Run("writing hue combines it with the last saturation", func(t *testing.T) {
		i, n := newColor(t, 255, 0, 0)
		i.Update(context.Background(), nil)

		assert.NoError(t, i.service.Characteristic(host.CharHue).HandleSet(context.Background(), 120))

		assert.Equal(t, []driver.Write{{
			ValueID: driver.ValueID{CommandClass: catalog.ColorSwitch, Property: TargetColor},
			Value:   map[string]int{Red: 0, Green: 255, Blue: 0},
		}}, n.Writes())
	})
}
