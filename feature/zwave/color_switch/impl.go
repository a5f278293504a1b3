package color_switch

import (
	"context"
	"github.com/shimmeringbee/zhap/catalog"
	"github.com/shimmeringbee/zhap/driver"
	"github.com/shimmeringbee/zhap/feature"
	"github.com/shimmeringbee/zhap/host"
	"math"
)

var _ feature.Handler = (*Implementation)(nil)

const (
	CurrentColor = "currentColor"
	TargetColor  = "targetColor"

	Red   = "red"
	Green = "green"
	Blue  = "blue"

	HueKey        = "Hue"
	SaturationKey = "Saturation"
)

func NewColorSwitch(b *feature.Base) *Implementation {
	return &Implementation{Base: b}
}

// Implementation adds hue and saturation to the endpoint's lightbulb, on and brightness belong
// to the dimmer on the same endpoint.
type Implementation struct {
	*feature.Base
	service *host.Service
}

func (i *Implementation) ImplName() string {
	return "ZWaveColorSwitch"
}

func (i *Implementation) Init(_ context.Context) error {
	i.service = i.Service(host.ServiceLightbulb)

	rw := []host.Perm{host.PermRead, host.PermWrite, host.PermNotify}

	hue := i.service.Characteristic(host.CharHue)
	hue.SetProps(host.Props{Perms: rw, MinValue: ptr(0), MaxValue: ptr(360), MinStep: ptr(1)})
	hue.OnSet(i.setHue)

	saturation := i.service.Characteristic(host.CharSaturation)
	saturation.SetProps(host.Props{Perms: rw, MinValue: ptr(0), MaxValue: ptr(100), MinStep: ptr(1)})
	saturation.OnSet(i.setSaturation)

	return nil
}

// Update accepts dimmer events as well, devices which fade color report the final color only
// alongside the level.
func (i *Implementation) Update(_ context.Context, ev *driver.ValueEvent) {
	if !feature.ShouldHandle(ev, i.EndpointIndex(), catalog.ColorSwitch, "", catalog.MultilevelSwitch) {
		return
	}

	if ev != nil && ev.CommandClass == catalog.ColorSwitch && ev.Property != CurrentColor {
		return
	}

	if ev != nil && i.LockedOut(i.ValueID(catalog.ColorSwitch, TargetColor, "")) {
		return
	}

	r, rok := i.component(Red)
	g, gok := i.component(Green)
	b, bok := i.component(Blue)

	if !rok || !gok || !bok {
		return
	}

	h, s := rgbToHS(r, g, b)

	if s == 0 {
		// Hue of white is undefined, keep the last one.
		h, _ = i.cached(HueKey)
	}

	i.store(h, s)
	i.Set(i.service, host.CharHue, h)
	i.Set(i.service, host.CharSaturation, s)
}

func (i *Implementation) component(key string) (float64, bool) {
	v, ok := i.Value(i.ValueID(catalog.ColorSwitch, CurrentColor, key))
	if !ok {
		return 0, false
	}

	return feature.Float(v)
}

func (i *Implementation) cached(key string) (float64, bool) {
	return i.Section().Float(key)
}

func (i *Implementation) store(h, s float64) {
	i.Section().Set(HueKey, h)
	i.Section().Set(SaturationKey, s)
}

func (i *Implementation) setHue(ctx context.Context, v any) error {
	h, ok := feature.Float(v)
	if !ok {
		return host.ErrCommunicationFailure
	}

	s, _ := i.cached(SaturationKey)
	return i.write(ctx, h, s)
}

func (i *Implementation) setSaturation(ctx context.Context, v any) error {
	s, ok := feature.Float(v)
	if !ok {
		return host.ErrCommunicationFailure
	}

	h, _ := i.cached(HueKey)
	return i.write(ctx, h, s)
}

func (i *Implementation) write(ctx context.Context, h, s float64) error {
	h = feature.Clamp(h, 0, 360)
	s = feature.Clamp(s, 0, 100)
	i.store(h, s)

	r, g, b := hsToRGB(h, s)

	return i.Write(ctx, i.ValueID(catalog.ColorSwitch, TargetColor, ""), map[string]int{Red: r, Green: g, Blue: b})
}

// rgbToHS returns hue in degrees and saturation in percent, brightness is not part of the color.
func rgbToHS(r, g, b float64) (float64, float64) {
	r, g, b = r/255, g/255, b/255

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	d := max - min

	if max == 0 || d == 0 {
		return 0, 0
	}

	var h float64

	switch max {
	case r:
		h = math.Mod((g-b)/d, 6)
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}

	h *= 60
	if h < 0 {
		h += 360
	}

	return math.Round(h), math.Round(d / max * 100)
}

// hsToRGB converts at full value.
func hsToRGB(h, s float64) (int, int, int) {
	s /= 100
	c := s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := 1 - c

	var r, g, b float64

	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return int(math.Round((r + m) * 255)), int(math.Round((g + m) * 255)), int(math.Round((b + m) * 255))
}

func ptr(f float64) *float64 {
	return &f
}
