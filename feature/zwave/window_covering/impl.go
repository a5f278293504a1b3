package window_covering

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

	// TargetPositionKey holds the last requested position, reported while the covering travels.
	TargetPositionKey = "TargetPosition"
	// TravellingKey is set while the covering moves towards a position requested by the host.
	TravellingKey = "Travelling"

	levelMax = 99

	positionDecreasing = 0
	positionIncreasing = 1
	positionStopped    = 2
)

func NewWindowCovering(b *feature.Base) *Implementation {
	return &Implementation{Base: b}
}

type Implementation struct {
	*feature.Base
	service *host.Service
}

func (i *Implementation) ImplName() string {
	return "ZWaveWindowCovering"
}

// parameter returns the property key of the covering's position point, the first defined
// position parameter on the endpoint.
func (i *Implementation) parameter() string {
	for _, p := range i.Points(catalog.WindowCovering) {
		if p.Property == CurrentValue {
			return p.PropertyKey
		}
	}

	return ""
}

func (i *Implementation) Init(_ context.Context) error {
	i.service = i.Service(host.ServiceWindowCovering)

	i.service.Characteristic(host.CharCurrentPosition).OnGet(i.getCurrent)
	i.service.Characteristic(host.CharPositionState).UpdateValue(positionStopped)

	target := i.service.Characteristic(host.CharTargetPosition)
	target.SetProps(host.Props{Perms: []host.Perm{host.PermRead, host.PermWrite, host.PermNotify}})
	target.OnGet(i.getTarget)
	target.OnSet(i.setTarget)

	return nil
}

func (i *Implementation) Update(ctx context.Context, ev *driver.ValueEvent) {
	if !feature.ShouldHandle(ev, i.EndpointIndex(), catalog.WindowCovering, CurrentValue) {
		return
	}

	key := i.parameter()

	if ev != nil && ev.PropertyKey != key {
		return
	}

	if ev != nil && i.LockedOut(i.ValueID(catalog.WindowCovering, TargetValue, key)) {
		i.Logger().LogTrace(ctx, "Ignoring covering event during write lockout.")
		return
	}

	v, ok := i.Value(i.ValueID(catalog.WindowCovering, CurrentValue, key))
	if !ok {
		return
	}

	level, ok := feature.Float(v)
	if !ok {
		i.Logger().LogWarn(ctx, "Unable to decode covering position.", logwrap.Datum("Value", v))
		return
	}

	position := toPosition(level)
	i.Set(i.service, host.CharCurrentPosition, position)

	target, found := i.target()
	travelling, _ := i.Section().Bool(TravellingKey)

	if ev != nil && found && travelling {
		if t, ok := i.driverTarget(key); ok {
			target = t
		}
	} else {
		target = position
	}

	i.Section().Set(TargetPositionKey, float64(target))
	i.Section().Set(TravellingKey, target != position)

	i.Set(i.service, host.CharTargetPosition, target)

	switch {
	case target > position:
		i.Set(i.service, host.CharPositionState, positionIncreasing)
	case target < position:
		i.Set(i.service, host.CharPositionState, positionDecreasing)
	default:
		i.Set(i.service, host.CharPositionState, positionStopped)
	}
}

func (i *Implementation) target() (int, bool) {
	f, ok := i.Section().Float(TargetPositionKey)
	return int(f), ok
}

// driverTarget returns the position the driver reports the covering is moving to.
func (i *Implementation) driverTarget(key string) (int, bool) {
	v, ok := i.Value(i.ValueID(catalog.WindowCovering, TargetValue, key))
	if !ok {
		return 0, false
	}

	level, ok := feature.Float(v)
	if !ok {
		return 0, false
	}

	return toPosition(level), true
}

func (i *Implementation) getCurrent(_ context.Context) (any, error) {
	var fallback any
	if t, ok := i.target(); ok {
		fallback = fromPosition(t)
	}

	v, err := i.Read(i.ValueID(catalog.WindowCovering, CurrentValue, i.parameter()), fallback)
	if err != nil {
		return nil, err
	}

	level, _ := feature.Float(v)
	return toPosition(level), nil
}

func (i *Implementation) getTarget(ctx context.Context) (any, error) {
	if t, ok := i.target(); ok {
		return t, nil
	}

	return i.getCurrent(ctx)
}

func (i *Implementation) setTarget(ctx context.Context, v any) error {
	p, ok := feature.Float(v)
	if !ok {
		return host.ErrCommunicationFailure
	}

	position := int(math.Round(feature.Clamp(p, 0, 100)))
	i.Section().Set(TargetPositionKey, float64(position))
	i.Section().Set(TravellingKey, true)

	return i.Write(ctx, i.ValueID(catalog.WindowCovering, TargetValue, i.parameter()), fromPosition(position))
}

func toPosition(level float64) int {
	return int(math.Round(feature.Clamp(level, 0, levelMax) * 100 / levelMax))
}

func fromPosition(position int) int {
	return int(math.Round(float64(position) * levelMax / 100))
}
