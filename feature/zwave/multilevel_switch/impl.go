package multilevel_switch

import (
	"context"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/zhap/catalog"
	"github.com/shimmeringbee/zhap/driver"
	"github.com/shimmeringbee/zhap/feature"
	"github.com/shimmeringbee/zhap/host"
	"math"
)

var _ feature.Handler = (*Implementation)(nil)

const (
	CurrentValue = "currentValue"
	TargetValue  = "targetValue"

	// LastBrightnessKey holds the last non zero brightness, restored when switched on.
	LastBrightnessKey = "LastBrightness"

	levelMax      = 99
	levelPrevious = 255
)

func NewMultilevelSwitch(b *feature.Base) *Implementation {
	return &Implementation{Base: b}
}

type Implementation struct {
	*feature.Base
	service *host.Service
}

func (i *Implementation) ImplName() string {
	return "ZWaveMultilevelSwitch"
}

func (i *Implementation) Init(_ context.Context) error {
	i.service = i.Service(host.ServiceLightbulb)

	rw := []host.Perm{host.PermRead, host.PermWrite, host.PermNotify}

	on := i.service.Characteristic(host.CharOn)
	on.SetProps(host.Props{Perms: rw})
	on.OnGet(i.getOn)
	on.OnSet(i.setOn)

	brightness := i.service.Characteristic(host.CharBrightness)
	brightness.SetProps(host.Props{Perms: rw, MinValue: ptr(0), MaxValue: ptr(100), MinStep: ptr(1)})
	brightness.OnGet(i.getBrightness)
	brightness.OnSet(i.setBrightness)

	return nil
}

func (i *Implementation) Update(ctx context.Context, ev *driver.ValueEvent) {
	if !feature.ShouldHandle(ev, i.EndpointIndex(), catalog.MultilevelSwitch, CurrentValue) {
		return
	}

	if ev != nil && i.LockedOut(i.ValueID(catalog.MultilevelSwitch, TargetValue, "")) {
		i.Logger().LogTrace(ctx, "Ignoring dimmer event during write lockout.")
		return
	}

	v, ok := i.Value(i.ValueID(catalog.MultilevelSwitch, CurrentValue, ""))
	if !ok {
		return
	}

	level, ok := feature.Float(v)
	if !ok {
		i.Logger().LogWarn(ctx, "Unable to decode dimmer level.", logwrap.Datum("Value", v))
		return
	}

	brightness := toBrightness(level)
	i.remember(brightness)

	i.Set(i.service, host.CharOn, brightness > 0)
	if brightness > 0 {
		i.Set(i.service, host.CharBrightness, brightness)
	}
}

// remember caches the last non zero brightness, it survives a node swap and restarts.
func (i *Implementation) remember(brightness int) {
	if brightness > 0 {
		i.Section().Set(LastBrightnessKey, float64(brightness))
	}
}

// LastBrightness returns the last non zero brightness seen, if any.
func (i *Implementation) LastBrightness() (int, bool) {
	f, ok := i.Section().Float(LastBrightnessKey)
	return int(f), ok
}

func (i *Implementation) fallback() any {
	if b, ok := i.LastBrightness(); ok {
		return fromBrightness(b)
	}

	return nil
}

func (i *Implementation) getOn(_ context.Context) (any, error) {
	v, err := i.Read(i.ValueID(catalog.MultilevelSwitch, CurrentValue, ""), nil)
	if err != nil {
		return nil, err
	}

	level, _ := feature.Float(v)
	return level > 0, nil
}

func (i *Implementation) getBrightness(_ context.Context) (any, error) {
	v, err := i.Read(i.ValueID(catalog.MultilevelSwitch, CurrentValue, ""), i.fallback())
	if err != nil {
		return nil, err
	}

	level, _ := feature.Float(v)
	if level == 0 {
		if b, ok := i.LastBrightness(); ok {
			return b, nil
		}
	}

	return toBrightness(level), nil
}

func (i *Implementation) setOn(ctx context.Context, v any) error {
	on, _ := feature.Bool(v)

	level := 0
	if on {
		level = levelPrevious
	}

	return i.Write(ctx, i.ValueID(catalog.MultilevelSwitch, TargetValue, ""), level)
}

func (i *Implementation) setBrightness(ctx context.Context, v any) error {
	b, ok := feature.Float(v)
	if !ok {
		return host.ErrCommunicationFailure
	}

	brightness := int(math.Round(feature.Clamp(b, 0, 100)))
	i.remember(brightness)

	return i.Write(ctx, i.ValueID(catalog.MultilevelSwitch, TargetValue, ""), fromBrightness(brightness))
}

func toBrightness(level float64) int {
	level = feature.Clamp(level, 0, levelMax)
	return int(math.Round(level * 100 / levelMax))
}

func fromBrightness(brightness int) int {
	return int(math.Round(feature.Clamp(float64(brightness), 0, 100) * levelMax / 100))
}

func ptr(f float64) *float64 {
	return &f
}
