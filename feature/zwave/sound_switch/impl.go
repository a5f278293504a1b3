package sound_switch

import (
	"context"
	"github.com/shimmeringbee/zhap/catalog"
	"github.com/shimmeringbee/zhap/driver"
	"github.com/shimmeringbee/zhap/feature"
	"github.com/shimmeringbee/zhap/host"
)

var _ feature.Handler = (*Implementation)(nil)

const (
	ToneID = "toneId"

	ToneOff     = 0
	ToneDefault = 255

	// ToneSetting selects the tone played when switched on.
	ToneSetting = "Tone"
)

func NewSoundSwitch(b *feature.Base) *Implementation {
	return &Implementation{Base: b}
}

// Implementation exposes a siren as a switch, the host model has no siren service.
type Implementation struct {
	*feature.Base
	service *host.Service
}

func (i *Implementation) ImplName() string {
	return "ZWaveSoundSwitch"
}

func (i *Implementation) Init(_ context.Context) error {
	i.service = i.Service(host.ServiceSwitch)

	on := i.service.Characteristic(host.CharOn)
	on.SetProps(host.Props{Perms: []host.Perm{host.PermRead, host.PermWrite, host.PermNotify}})
	on.OnGet(i.getOn)
	on.OnSet(i.setOn)

	return nil
}

func (i *Implementation) Update(_ context.Context, ev *driver.ValueEvent) {
	if !feature.ShouldHandle(ev, i.EndpointIndex(), catalog.SoundSwitch, ToneID) {
		return
	}

	if v, ok := i.Value(i.ValueID(catalog.SoundSwitch, ToneID, "")); ok {
		if tone, ok := feature.Int(v); ok {
			i.Set(i.service, host.CharOn, tone != ToneOff)
		}
	}
}

func (i *Implementation) getOn(_ context.Context) (any, error) {
	v, err := i.Read(i.ValueID(catalog.SoundSwitch, ToneID, ""), nil)
	if err != nil {
		return nil, err
	}

	tone, _ := feature.Int(v)
	return tone != ToneOff, nil
}

func (i *Implementation) setOn(ctx context.Context, v any) error {
	tone := ToneOff

	if on, _ := feature.Bool(v); on {
		tone = ToneDefault
		if t, ok := i.Settings().Int(ToneSetting); ok {
			tone = t
		}
	}

	return i.Write(ctx, i.ValueID(catalog.SoundSwitch, ToneID, ""), tone)
}
