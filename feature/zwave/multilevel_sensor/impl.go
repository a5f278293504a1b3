package multilevel_sensor

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
	AirTemperature = "Air temperature"
	Humidity       = "Humidity"
	Illuminance    = "Illuminance"
	CarbonDioxide  = "Carbon dioxide (CO2) level"

	fahrenheit = "°F"
)

// reading describes how one sensor property is exposed.
type reading struct {
	service host.ServiceType
	char    host.CharacteristicType
	props   host.Props
	convert func(v float64, unit string) any
}

var readings = map[string]reading{
	AirTemperature: {
		service: host.ServiceTemperatureSensor,
		char:    host.CharCurrentTemperature,
		props:   host.Props{MinValue: ptr(-270), MaxValue: ptr(100), MinStep: ptr(0.1)},
		convert: temperature,
	},
	Humidity: {
		service: host.ServiceHumiditySensor,
		char:    host.CharCurrentRelativeHumidity,
		props:   host.Props{MinValue: ptr(0), MaxValue: ptr(100), MinStep: ptr(1)},
		convert: percentage,
	},
	Illuminance: {
		service: host.ServiceLightSensor,
		char:    host.CharCurrentAmbientLightLevel,
		props:   host.Props{MinValue: ptr(0.0001), MaxValue: ptr(100000)},
		convert: lux,
	},
	CarbonDioxide: {
		service: host.ServiceAirQualitySensor,
		char:    host.CharAirQuality,
		props:   host.Props{ValidValues: []int{1, 2, 3, 4, 5}},
		convert: airQuality,
	},
}

// Order in which sensor services are created.
var properties = []string{AirTemperature, Humidity, Illuminance, CarbonDioxide}

func NewMultilevelSensor(b *feature.Base) *Implementation {
	return &Implementation{Base: b, services: map[string]*host.Service{}}
}

// Implementation exposes one sensor service per supported property defined on the endpoint.
type Implementation struct {
	*feature.Base
	services map[string]*host.Service
}

func (i *Implementation) ImplName() string {
	return "ZWaveMultilevelSensor"
}

func (i *Implementation) Init(_ context.Context) error {
	defined := map[string]bool{}
	for _, p := range i.Points(catalog.MultilevelSensor) {
		defined[p.Property] = true
	}

	for _, property := range properties {
		if !defined[property] {
			continue
		}

		r := readings[property]
		r.props.Perms = []host.Perm{host.PermRead, host.PermNotify}

		s := i.Service(r.service)
		c := s.Characteristic(r.char)
		c.SetProps(r.props)
		c.OnGet(i.getReading(property))

		i.services[property] = s
	}

	return nil
}

func (i *Implementation) Update(ctx context.Context, ev *driver.ValueEvent) {
	if !feature.ShouldHandle(ev, i.EndpointIndex(), catalog.MultilevelSensor, "") {
		return
	}

	for _, property := range properties {
		s, found := i.services[property]
		if !found || (ev != nil && ev.Property != property) {
			continue
		}

		v, ok := i.reading(property)
		if !ok {
			if raw, known := i.Value(i.ValueID(catalog.MultilevelSensor, property, "")); known {
				i.Logger().LogWarn(ctx, "Unable to decode sensor reading.", logwrap.Datum("Property", property), logwrap.Datum("Value", raw))
			}
			continue
		}

		i.Set(s, readings[property].char, v)
	}
}

func (i *Implementation) reading(property string) (any, bool) {
	id := i.ValueID(catalog.MultilevelSensor, property, "")

	v, found := i.Value(id)
	if !found {
		return nil, false
	}

	f, ok := feature.Float(v)
	if !ok {
		return nil, false
	}

	return readings[property].convert(f, i.Node().GetValueMetadata(id).Unit), true
}

func (i *Implementation) getReading(property string) host.GetHandler {
	return func(_ context.Context) (any, error) {
		if v, ok := i.reading(property); ok {
			return v, nil
		}

		if cached := i.services[property].Characteristic(readings[property].char).Value(); cached != nil {
			return cached, nil
		}

		_, err := i.Read(i.ValueID(catalog.MultilevelSensor, property, ""), nil)
		if err == nil {
			err = host.ErrCommunicationFailure
		}
		return nil, err
	}
}

func temperature(v float64, unit string) any {
	if unit == fahrenheit {
		v = (v - 32) * 5 / 9
	}

	return math.Round(v*10) / 10
}

func percentage(v float64, _ string) any {
	return math.Round(feature.Clamp(v, 0, 100))
}

func lux(v float64, _ string) any {
	return feature.Clamp(v, 0.0001, 100000)
}

// airQuality buckets a carbon dioxide concentration in ppm into the host's quality scale, from
// excellent (1) to poor (5).
func airQuality(ppm float64, _ string) any {
	switch {
	case ppm <= 700:
		return 1
	case ppm <= 1000:
		return 2
	case ppm <= 1500:
		return 3
	case ppm <= 2000:
		return 4
	default:
		return 5
	}
}

func ptr(f float64) *float64 {
	return &f
}
