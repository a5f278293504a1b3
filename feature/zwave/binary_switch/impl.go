package binary_switch

import (
	"context"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/zhap/catalog"
	"github.com/shimmeringbee/zhap/driver"
	"github.com/shimmeringbee/zhap/feature"
	"github.com/shimmeringbee/zhap/host"
)

var _ feature.Handler = (*Implementation)(nil)

const (
	CurrentValue = "currentValue"
	TargetValue  = "targetValue"
)

func NewBinarySwitch(b *feature.Base) *Implementation {
	return &Implementation{Base: b}
}

type Implementation struct {
	*feature.Base
	service *host.Service
}

func (i *Implementation) ImplName() string {
	return "ZWaveBinarySwitch"
}

func (i *Implementation) Init(_ context.Context) error {
	i.service = i.Service(host.ServiceSwitch)

	on := i.service.Characteristic(host.CharOn)
	on.SetProps(host.Props{Perms: []host.Perm{host.PermRead, host.PermWrite, host.PermNotify}})
	on.OnGet(i.getOn)
	on.OnSet(i.setOn)

	return nil
}

func (i *Implementation) Update(ctx context.Context, ev *driver.ValueEvent) {
	if !feature.ShouldHandle(ev, i.EndpointIndex(), catalog.BinarySwitch, CurrentValue) {
		return
	}

	v, ok := i.Value(i.ValueID(catalog.BinarySwitch, CurrentValue, ""))
	if !ok {
		return
	}

	if on, ok := feature.Bool(v); ok {
		i.Set(i.service, host.CharOn, on)
	} else {
		i.Logger().LogWarn(ctx, "Unable to decode binary switch value.", logwrap.Datum("Value", v))
	}
}

func (i *Implementation) getOn(_ context.Context) (any, error) {
	v, err := i.Read(i.ValueID(catalog.BinarySwitch, CurrentValue, ""), nil)
	if err != nil {
		return nil, err
	}

	on, _ := feature.Bool(v)
	return on, nil
}

func (i *Implementation) setOn(ctx context.Context, v any) error {
	on, _ := feature.Bool(v)
	return i.Write(ctx, i.ValueID(catalog.BinarySwitch, TargetValue, ""), on)
}
