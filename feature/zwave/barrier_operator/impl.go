package barrier_operator

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
	CurrentState = "currentState"
	TargetState  = "targetState"
)

const (
	barrierClosed  = 0
	barrierClosing = 252
	barrierStopped = 253
	barrierOpening = 254
	barrierOpen    = 255
)

const (
	doorOpen    = 0
	doorClosed  = 1
	doorOpening = 2
	doorClosing = 3
	doorStopped = 4
)

func NewBarrierOperator(b *feature.Base) *Implementation {
	return &Implementation{Base: b}
}

type Implementation struct {
	*feature.Base
	service *host.Service
}

func (i *Implementation) ImplName() string {
	return "ZWaveBarrierOperator"
}

func (i *Implementation) Init(_ context.Context) error {
	i.service = i.Service(host.ServiceGarageDoorOpener)

	i.service.Characteristic(host.CharCurrentDoorState).OnGet(i.getCurrent)
	i.service.Characteristic(host.CharObstructionDetected).UpdateValue(false)

	target := i.service.Characteristic(host.CharTargetDoorState)
	target.SetProps(host.Props{Perms: []host.Perm{host.PermRead, host.PermWrite, host.PermNotify}})
	target.OnSet(i.setTarget)

	return nil
}

func (i *Implementation) Update(ctx context.Context, ev *driver.ValueEvent) {
	if !feature.ShouldHandle(ev, i.EndpointIndex(), catalog.BarrierOperator, CurrentState) {
		return
	}

	v, ok := i.Value(i.ValueID(catalog.BarrierOperator, CurrentState, ""))
	if !ok {
		return
	}

	state, ok := feature.Int(v)
	if !ok {
		i.Logger().LogWarn(ctx, "Unable to decode barrier state.", logwrap.Datum("Value", v))
		return
	}

	current := doorState(state)
	i.Set(i.service, host.CharCurrentDoorState, current)

	switch current {
	case doorOpen, doorOpening:
		i.Set(i.service, host.CharTargetDoorState, doorOpen)
	case doorClosed, doorClosing:
		i.Set(i.service, host.CharTargetDoorState, doorClosed)
	}
}

func (i *Implementation) getCurrent(_ context.Context) (any, error) {
	v, err := i.Read(i.ValueID(catalog.BarrierOperator, CurrentState, ""), nil)
	if err != nil {
		return nil, err
	}

	state, _ := feature.Int(v)
	return doorState(state), nil
}

func (i *Implementation) setTarget(ctx context.Context, v any) error {
	target, _ := feature.Int(v)

	value := barrierClosed
	if target == doorOpen {
		value = barrierOpen
	}

	return i.Write(ctx, i.ValueID(catalog.BarrierOperator, TargetState, ""), value)
}

func doorState(barrier int) int {
	switch barrier {
	case barrierClosed:
		return doorClosed
	case barrierClosing:
		return doorClosing
	case barrierOpening:
		return doorOpening
	case barrierOpen:
		return doorOpen
	default:
		return doorStopped
	}
}
