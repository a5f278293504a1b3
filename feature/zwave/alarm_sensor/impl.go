package alarm_sensor

import (
	"context"
	"fmt"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/zhap/catalog"
	"github.com/shimmeringbee/zhap/driver"
	"github.com/shimmeringbee/zhap/feature"
	"github.com/shimmeringbee/zhap/host"
)

var _ feature.Handler = (*Implementation)(nil)

const (
	notificationIdle = 0
	// Door status reports 22 when open and 23 when closed.
	doorClosed = 23
)

// kind describes how a sensor feature is exposed and which binary sensor types the binary
// sensor rules attach it for. Motion is only ever attached from notifications.
type kind struct {
	name    string
	service host.ServiceType
	char    host.CharacteristicType
	binary  []string
	encode  func(active bool) any
}

var kinds = map[catalog.Feature]kind{
	catalog.FeatureLeakSensor: {
		name:    "ZWaveLeakSensor",
		service: host.ServiceLeakSensor,
		char:    host.CharLeakDetected,
		binary:  []string{"Water"},
		encode:  detected,
	},
	catalog.FeatureMotionSensor: {
		name:    "ZWaveMotionSensor",
		service: host.ServiceMotionSensor,
		char:    host.CharMotionDetected,
		encode:  func(active bool) any { return active },
	},
	catalog.FeatureContactSensor: {
		name:    "ZWaveContactSensor",
		service: host.ServiceContactSensor,
		char:    host.CharContactSensorState,
		encode:  detected,
	},
	catalog.FeatureSmokeSensor: {
		name:    "ZWaveSmokeSensor",
		service: host.ServiceSmokeSensor,
		char:    host.CharSmokeDetected,
		binary:  []string{"Smoke"},
		encode:  detected,
	},
	catalog.FeatureCarbonMonoxide: {
		name:    "ZWaveCarbonMonoxideSensor",
		service: host.ServiceCarbonMonoxideSensor,
		char:    host.CharCarbonMonoxideDetected,
		binary:  []string{"CO", "CO2"},
		encode:  detected,
	},
}

// Supports reports if a feature is served by the alarm sensor handler.
func Supports(f catalog.Feature) bool {
	_, found := kinds[f]
	return found
}

// NewAlarmSensor builds a handler for one of the notification or binary sensor features.
func NewAlarmSensor(f catalog.Feature, b *feature.Base) (*Implementation, error) {
	k, found := kinds[f]
	if !found {
		return nil, fmt.Errorf("alarm sensor does not support feature: %s", f)
	}

	return &Implementation{Base: b, feature: f, kind: k}, nil
}

type Implementation struct {
	*feature.Base
	feature catalog.Feature
	kind    kind
	service *host.Service
}

func (i *Implementation) ImplName() string {
	return i.kind.name
}

func (i *Implementation) Feature() catalog.Feature {
	return i.feature
}

func (i *Implementation) Init(_ context.Context) error {
	i.service = i.Service(i.kind.service)
	i.service.Characteristic(i.kind.char).OnGet(i.get)

	return nil
}

func (i *Implementation) Update(ctx context.Context, ev *driver.ValueEvent) {
	if !feature.ShouldHandle(ev, i.EndpointIndex(), catalog.Notification, "", catalog.BinarySensor) {
		return
	}

	sources := i.sources()

	if ev != nil && !contains(sources, ev.ValueID()) {
		return
	}

	active, known := i.active(ctx, sources)
	if !known {
		return
	}

	i.Set(i.service, i.kind.char, i.kind.encode(active))
}

// sources returns the points signalling this sensor. Notification points named by the
// configured pairs take precedence over binary sensor points.
func (i *Implementation) sources() []driver.ValueID {
	var notifications, binaries []driver.ValueID

	for _, p := range i.Points(catalog.Notification) {
		if i.signalledBy(p) {
			notifications = append(notifications, p)
		}
	}

	if len(notifications) > 0 {
		return notifications
	}

	claimed := map[string]bool{}
	for _, k := range kinds {
		for _, b := range k.binary {
			claimed[b] = true
		}
	}

	points := i.Points(catalog.BinarySensor)

	for _, p := range points {
		for _, b := range i.kind.binary {
			if p.Property == b {
				binaries = append(binaries, p)
			}
		}
	}

	// Binary sensors of a type without a sensor of its own are treated as contact sensors.
	if i.feature == catalog.FeatureContactSensor {
		for _, p := range points {
			if !claimed[p.Property] {
				binaries = append(binaries, p)
			}
		}
	}

	return binaries
}

// signalledBy reports if a notification point maps to this sensor. A point without a qualifier
// only counts when every pair for its property names this sensor.
func (i *Implementation) signalledBy(p driver.ValueID) bool {
	matched := false

	for _, pair := range i.Pairs() {
		if pair.Property != p.Property {
			continue
		}

		if p.PropertyKey == "" {
			if pair.Feature != i.feature {
				return false
			}
			matched = true
		} else if pair.PropertyKey == p.PropertyKey && pair.Feature == i.feature {
			return true
		}
	}

	return matched
}

// active reports if any source is signalling, known is false when no source has a decodable value.
func (i *Implementation) active(ctx context.Context, sources []driver.ValueID) (active bool, known bool) {
	for _, id := range sources {
		v, found := i.Value(id)
		if !found {
			continue
		}

		if id.CommandClass == catalog.BinarySensor {
			b, ok := feature.Bool(v)
			if !ok {
				i.Logger().LogWarn(ctx, "Unable to decode binary sensor.", logwrap.Datum("ValueID", id.String()), logwrap.Datum("Value", v))
				continue
			}

			known = true
			active = active || b
			continue
		}

		n, ok := feature.Int(v)
		if !ok {
			i.Logger().LogWarn(ctx, "Unable to decode notification.", logwrap.Datum("ValueID", id.String()), logwrap.Datum("Value", v))
			continue
		}

		known = true
		active = active || (n != notificationIdle && n != doorClosed)
	}

	return active, known
}

func (i *Implementation) get(ctx context.Context) (any, error) {
	sources := i.sources()

	if active, known := i.active(ctx, sources); known {
		return i.kind.encode(active), nil
	}

	if cached := i.service.Characteristic(i.kind.char).Value(); cached != nil {
		return cached, nil
	}

	if len(sources) > 0 {
		_, err := i.Read(sources[0], nil)
		return nil, err
	}

	return nil, host.ErrCommunicationFailure
}

func detected(active bool) any {
	if active {
		return 1
	}

	return 0
}

func contains(ids []driver.ValueID, id driver.ValueID) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}

	return false
}
