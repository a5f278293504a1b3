package door_lock

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
	CurrentMode = "currentMode"
	TargetMode  = "targetMode"
	// Locked is the single point of the legacy lock command class.
	Locked = "locked"
)

const (
	modeUnsecured = 0
	modeUnknown   = 254
	modeSecured   = 255

	lockUnsecured = 0
	lockSecured   = 1
	lockJammed    = 2
	lockUnknown   = 3
)

func NewDoorLock(b *feature.Base) *Implementation {
	return &Implementation{Base: b}
}

// Implementation serves both the extended door lock and the legacy lock command classes, the
// extended one is preferred when the endpoint supports both.
type Implementation struct {
	*feature.Base
	service *host.Service
}

func (i *Implementation) ImplName() string {
	return "ZWaveDoorLock"
}

func (i *Implementation) legacy() bool {
	ep := i.Endpoint()
	return !ep.SupportsCC(catalog.DoorLock) && ep.SupportsCC(catalog.Lock)
}

func (i *Implementation) current() driver.ValueID {
	if i.legacy() {
		return i.ValueID(catalog.Lock, Locked, "")
	}

	return i.ValueID(catalog.DoorLock, CurrentMode, "")
}

func (i *Implementation) Init(_ context.Context) error {
	i.service = i.Service(host.ServiceLockMechanism)

	i.service.Characteristic(host.CharLockCurrentState).OnGet(i.getCurrent)

	target := i.service.Characteristic(host.CharLockTargetState)
	target.SetProps(host.Props{Perms: []host.Perm{host.PermRead, host.PermWrite, host.PermNotify}})
	target.OnSet(i.setTarget)

	return nil
}

func (i *Implementation) Update(ctx context.Context, ev *driver.ValueEvent) {
	cc, property := catalog.DoorLock, CurrentMode
	if i.legacy() {
		cc, property = catalog.Lock, Locked
	}

	if !feature.ShouldHandle(ev, i.EndpointIndex(), cc, property) {
		return
	}

	v, ok := i.Value(i.current())
	if !ok {
		return
	}

	state := i.decode(v)
	if state == lockUnknown {
		i.Logger().LogWarn(ctx, "Unable to decode lock state.", logwrap.Datum("Value", v))
	}

	i.Set(i.service, host.CharLockCurrentState, state)

	if state == lockSecured || state == lockUnsecured {
		i.Set(i.service, host.CharLockTargetState, state)
	}
}

func (i *Implementation) decode(v any) int {
	if i.legacy() {
		if locked, ok := feature.Bool(v); ok {
			if locked {
				return lockSecured
			}
			return lockUnsecured
		}
		return lockUnknown
	}

	mode, ok := feature.Int(v)
	switch {
	case !ok:
		return lockUnknown
	case mode == modeSecured:
		return lockSecured
	case mode == modeUnknown:
		return lockUnknown
	default:
		// Any handle unsecured, with or without timeout, opens the door from that side.
		return lockUnsecured
	}
}

func (i *Implementation) getCurrent(_ context.Context) (any, error) {
	v, err := i.Read(i.current(), nil)
	if err != nil {
		return nil, err
	}

	return i.decode(v), nil
}

func (i *Implementation) setTarget(ctx context.Context, v any) error {
	target, _ := feature.Int(v)
	secure := target == lockSecured

	if i.legacy() {
		return i.Write(ctx, i.ValueID(catalog.Lock, Locked, ""), secure)
	}

	mode := modeUnsecured
	if secure {
		mode = modeSecured
	}

	return i.Write(ctx, i.ValueID(catalog.DoorLock, TargetMode, ""), mode)
}
