package central_scene

import (
	"context"
	"fmt"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/zhap/catalog"
	"github.com/shimmeringbee/zhap/driver"
	"github.com/shimmeringbee/zhap/feature"
	"github.com/shimmeringbee/zhap/host"
	"sort"
	"strconv"
)

var _ feature.Handler = (*Implementation)(nil)

const (
	Scene = "scene"

	labelArabicNumerals = 1
)

// Scene key attributes reported by the node.
const (
	keyPressed      = 0
	keyHeldDown     = 2
	keyPressedTwice = 3
)

// Programmable switch events exposed to the host.
const (
	singlePress = 0
	doublePress = 1
	longPress   = 2
)

func NewCentralScene(b *feature.Base) *Implementation {
	return &Implementation{Base: b, buttons: map[string]*host.Service{}}
}

// Implementation exposes each scene of the endpoint as a stateless button, grouped under a
// service label.
type Implementation struct {
	*feature.Base
	label   *host.Service
	buttons map[string]*host.Service
}

func (i *Implementation) ImplName() string {
	return "ZWaveCentralScene"
}

func (i *Implementation) Init(_ context.Context) error {
	i.label = i.Service(host.ServiceServiceLabel)
	i.label.Characteristic(host.CharServiceLabelNamespace).UpdateValue(labelArabicNumerals)

	for n, key := range i.scenes() {
		s := i.ServiceWithSubtype(host.ServiceStatelessProgrammable, fmt.Sprintf("%d/%s", i.EndpointIndex(), key))

		s.Characteristic(host.CharProgrammableSwitchEvent).SetProps(host.Props{
			Perms:       []host.Perm{host.PermRead, host.PermNotify},
			ValidValues: []int{singlePress, doublePress, longPress},
		})

		index := n + 1
		if k, err := strconv.Atoi(key); err == nil && k > 0 {
			index = k
		}
		s.Characteristic(host.CharServiceLabelIndex).UpdateValue(index)

		i.buttons[key] = s
	}

	return nil
}

// scenes returns the scene keys defined on the endpoint, in order.
func (i *Implementation) scenes() []string {
	var keys []string

	for _, p := range i.Points(catalog.CentralScene) {
		if p.Property == Scene && p.PropertyKey != "" {
			keys = append(keys, p.PropertyKey)
		}
	}

	sort.Strings(keys)
	return keys
}

// Update forwards scene events as button presses, there is no state to refresh.
func (i *Implementation) Update(ctx context.Context, ev *driver.ValueEvent) {
	if ev == nil || !feature.ShouldHandle(ev, i.EndpointIndex(), catalog.CentralScene, Scene) {
		return
	}

	s, found := i.buttons[ev.PropertyKey]
	if !found {
		i.Logger().LogDebug(ctx, "Scene event for unknown scene.", logwrap.Datum("Scene", ev.PropertyKey))
		return
	}

	attribute, ok := feature.Int(ev.NewValue)
	if !ok {
		i.Logger().LogWarn(ctx, "Unable to decode scene event.", logwrap.Datum("Value", ev.NewValue))
		return
	}

	event, ok := toEvent(attribute)
	if !ok {
		i.Logger().LogTrace(ctx, "Ignoring unsupported scene key attribute.", logwrap.Datum("Attribute", attribute))
		return
	}

	i.Set(s, host.CharProgrammableSwitchEvent, event)
}

func toEvent(attribute int) (int, bool) {
	switch attribute {
	case keyPressed:
		return singlePress, true
	case keyPressedTwice:
		return doublePress, true
	case keyHeldDown:
		return longPress, true
	default:
		return 0, false
	}
}
