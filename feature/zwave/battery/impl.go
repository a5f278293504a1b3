package battery

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
	Level = "level"
	IsLow = "isLow"

	// LowThresholdSetting is the level below which the battery is reported low, if the node has no
	// low battery point.
	LowThresholdSetting = "LowThreshold"
	DefaultLowThreshold = 15.0

	chargingNotChargeable = 2
	batteryNormal         = 0
	batteryLow            = 1
)

func NewBattery(b *feature.Base) *Implementation {
	return &Implementation{Base: b}
}

type Implementation struct {
	*feature.Base
	service *host.Service
}

func (i *Implementation) ImplName() string {
	return "ZWaveBattery"
}

func (i *Implementation) Init(_ context.Context) error {
	i.service = i.Service(host.ServiceBattery)
	i.service.Characteristic(host.CharChargingState).UpdateValue(chargingNotChargeable)
	i.service.Characteristic(host.CharBatteryLevel).OnGet(i.getLevel)
	i.service.Characteristic(host.CharStatusLowBattery)

	return nil
}

func (i *Implementation) Update(_ context.Context, ev *driver.ValueEvent) {
	if !feature.ShouldHandle(ev, i.EndpointIndex(), catalog.Battery, "") {
		return
	}

	level, known := i.level()
	if known {
		i.Set(i.service, host.CharBatteryLevel, level)
	}

	if v, ok := i.Value(i.ValueID(catalog.Battery, IsLow, "")); ok {
		if low, ok := feature.Bool(v); ok {
			i.Set(i.service, host.CharStatusLowBattery, lowStatus(low))
			return
		}
	}

	if known {
		threshold, found := i.Settings().Float(LowThresholdSetting)
		if !found {
			threshold = DefaultLowThreshold
		}

		i.Set(i.service, host.CharStatusLowBattery, lowStatus(float64(level) < threshold))
	}
}

func (i *Implementation) level() (int, bool) {
	v, ok := i.Value(i.ValueID(catalog.Battery, Level, ""))
	if !ok {
		return 0, false
	}

	f, ok := feature.Float(v)
	if !ok {
		return 0, false
	}

	return int(math.Round(feature.Clamp(f, 0, 100))), true
}

func (i *Implementation) getLevel(_ context.Context) (any, error) {
	if level, ok := i.level(); ok {
		return level, nil
	}

	if cached := i.service.Characteristic(host.CharBatteryLevel).Value(); cached != nil {
		return cached, nil
	}

	return nil, host.ErrCommunicationFailure
}

func lowStatus(low bool) int {
	if low {
		return batteryLow
	}

	return batteryNormal
}
