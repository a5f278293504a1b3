package thermostat

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
	Mode           = "mode"
	State          = "state"
	Setpoint       = "setpoint"
	AirTemperature = "Air temperature"

	SetpointHeating = "1"
	SetpointCooling = "2"

	fahrenheit = "°F"
)

// Thermostat modes, as reported by the node.
const (
	modeOff            = 0
	modeHeat           = 1
	modeCool           = 2
	modeAuto           = 3
	modeAutoChangeover = 10
	modeEnergyHeat     = 11
	modeEnergyCool     = 12
)

// Heating cooling states, as exposed to the host.
const (
	hostOff  = 0
	hostHeat = 1
	hostCool = 2
	hostAuto = 3
)

var (
	defaultHeatingBounds = [2]float64{5, 30}
	defaultCoolingBounds = [2]float64{10, 35}
)

func NewThermostat(b *feature.Base) *Implementation {
	return &Implementation{Base: b}
}

type Implementation struct {
	*feature.Base
	service *host.Service
}

func (i *Implementation) ImplName() string {
	return "ZWaveThermostat"
}

func (i *Implementation) Init(_ context.Context) error {
	i.service = i.Service(host.ServiceThermostat)

	r := []host.Perm{host.PermRead, host.PermNotify}
	rw := []host.Perm{host.PermRead, host.PermWrite, host.PermNotify}

	current := i.service.Characteristic(host.CharCurrentHeatingCoolingState)
	current.SetProps(host.Props{Perms: r, ValidValues: []int{hostOff, hostHeat, hostCool}})
	current.OnGet(i.getCurrentState)

	target := i.service.Characteristic(host.CharTargetHeatingCoolingState)
	target.SetProps(host.Props{Perms: rw, ValidValues: i.validModes()})
	target.OnGet(i.getTargetState)
	target.OnSet(i.setTargetState)

	temperature := i.service.Characteristic(host.CharCurrentTemperature)
	temperature.SetProps(host.Props{Perms: r, MinValue: ptr(-270), MaxValue: ptr(100), MinStep: ptr(0.1)})
	temperature.OnGet(i.getTemperature)

	targetTemperature := i.service.Characteristic(host.CharTargetTemperature)
	targetTemperature.SetProps(host.Props{Perms: rw, MinValue: ptr(10), MaxValue: ptr(38), MinStep: ptr(0.5)})
	targetTemperature.OnGet(i.getTargetTemperature)
	targetTemperature.OnSet(i.setTargetTemperature)

	i.service.Characteristic(host.CharTemperatureDisplayUnits).UpdateValue(0)

	if i.dual() {
		heating, cooling := i.bounds(SetpointHeating), i.bounds(SetpointCooling)

		i.service.AddOptionalCharacteristic(host.CharHeatingThresholdTemperature)
		heatingThreshold := i.service.Characteristic(host.CharHeatingThresholdTemperature)
		heatingThreshold.SetProps(host.Props{Perms: rw, MinValue: ptr(heating[0]), MaxValue: ptr(heating[1]), MinStep: ptr(0.5)})
		heatingThreshold.OnGet(i.getSetpoint(SetpointHeating))
		heatingThreshold.OnSet(i.setThreshold(SetpointHeating))

		i.service.AddOptionalCharacteristic(host.CharCoolingThresholdTemperature)
		coolingThreshold := i.service.Characteristic(host.CharCoolingThresholdTemperature)
		coolingThreshold.SetProps(host.Props{Perms: rw, MinValue: ptr(cooling[0]), MaxValue: ptr(cooling[1]), MinStep: ptr(0.5)})
		coolingThreshold.OnGet(i.getSetpoint(SetpointCooling))
		coolingThreshold.OnSet(i.setThreshold(SetpointCooling))
	}

	return nil
}

func (i *Implementation) Update(ctx context.Context, ev *driver.ValueEvent) {
	if !feature.ShouldHandle(ev, i.EndpointIndex(), catalog.ThermostatSetpoint, "", catalog.ThermostatMode, catalog.ThermostatState, catalog.MultilevelSensor) {
		return
	}

	if ev != nil {
		switch ev.CommandClass {
		case catalog.MultilevelSensor:
			if ev.Property != AirTemperature {
				return
			}
		case catalog.ThermostatSetpoint:
			if i.LockedOut(i.ValueID(catalog.ThermostatSetpoint, Setpoint, ev.PropertyKey)) {
				i.Logger().LogTrace(ctx, "Ignoring setpoint event during write lockout.", logwrap.Datum("Setpoint", ev.PropertyKey))
				return
			}
		}
	}

	if mode, ok := i.mode(); ok {
		i.Set(i.service, host.CharTargetHeatingCoolingState, mode)
	} else if v, found := i.Value(i.ValueID(catalog.ThermostatMode, Mode, "")); found {
		i.Logger().LogWarn(ctx, "Unable to decode thermostat mode.", logwrap.Datum("Value", v))
	}

	if state, ok := i.currentState(); ok {
		i.Set(i.service, host.CharCurrentHeatingCoolingState, state)
	}

	if t, ok := i.temperature(); ok {
		i.Set(i.service, host.CharCurrentTemperature, t)
	}

	if t, ok := i.targetTemperature(); ok {
		i.Set(i.service, host.CharTargetTemperature, t)
	}

	if i.dual() {
		if t, ok := i.setpoint(SetpointHeating); ok {
			i.Set(i.service, host.CharHeatingThresholdTemperature, t)
		}

		if t, ok := i.setpoint(SetpointCooling); ok {
			i.Set(i.service, host.CharCoolingThresholdTemperature, t)
		}
	}
}

// dual reports if the node has both a heating and a cooling setpoint, making auto mode a range.
func (i *Implementation) dual() bool {
	return i.hasSetpoint(SetpointHeating) && i.hasSetpoint(SetpointCooling)
}

func (i *Implementation) hasSetpoint(key string) bool {
	for _, p := range i.Points(catalog.ThermostatSetpoint) {
		if p.Property == Setpoint && p.PropertyKey == key {
			return true
		}
	}

	return false
}

func (i *Implementation) validModes() []int {
	modes := []int{hostOff, hostHeat}

	if i.hasSetpoint(SetpointCooling) {
		modes = append(modes, hostCool)
	}

	if i.dual() {
		modes = append(modes, hostAuto)
	}

	return modes
}

func (i *Implementation) mode() (int, bool) {
	v, found := i.Value(i.ValueID(catalog.ThermostatMode, Mode, ""))
	if !found {
		return 0, false
	}

	m, ok := feature.Int(v)
	if !ok {
		return 0, false
	}

	switch m {
	case modeOff:
		return hostOff, true
	case modeHeat, modeEnergyHeat:
		return hostHeat, true
	case modeCool, modeEnergyCool:
		return hostCool, true
	case modeAuto, modeAutoChangeover:
		return hostAuto, true
	default:
		return 0, false
	}
}

// currentState prefers the node's operating state, falling back to what the mode implies.
func (i *Implementation) currentState() (int, bool) {
	if v, found := i.Value(i.ValueID(catalog.ThermostatState, State, "")); found {
		s, ok := feature.Int(v)
		if !ok {
			return 0, false
		}

		switch s {
		case 1, 4, 8:
			return hostHeat, true
		case 2, 5:
			return hostCool, true
		default:
			return hostOff, true
		}
	}

	m, ok := i.mode()
	if !ok {
		return 0, false
	}

	if m == hostAuto {
		return hostOff, true
	}

	return m, true
}

func (i *Implementation) temperatureID() driver.ValueID {
	return i.ValueID(catalog.MultilevelSensor, AirTemperature, "")
}

func (i *Implementation) temperature() (float64, bool) {
	id := i.temperatureID()

	v, found := i.Value(id)
	if !found {
		return 0, false
	}

	f, ok := feature.Float(v)
	if !ok {
		return 0, false
	}

	return round(toCelsius(f, i.Node().GetValueMetadata(id).Unit)), true
}

func (i *Implementation) setpointID(key string) driver.ValueID {
	return i.ValueID(catalog.ThermostatSetpoint, Setpoint, key)
}

func (i *Implementation) setpoint(key string) (float64, bool) {
	id := i.setpointID(key)

	v, found := i.Value(id)
	if !found {
		return 0, false
	}

	f, ok := feature.Float(v)
	if !ok {
		return 0, false
	}

	return round(toCelsius(f, i.Node().GetValueMetadata(id).Unit)), true
}

// bounds returns the range of a setpoint in celsius, from the node's metadata where known.
func (i *Implementation) bounds(key string) [2]float64 {
	b := defaultHeatingBounds
	if key == SetpointCooling {
		b = defaultCoolingBounds
	}

	md := i.Node().GetValueMetadata(i.setpointID(key))

	if md.Min != nil {
		b[0] = round(toCelsius(*md.Min, md.Unit))
	}

	if md.Max != nil {
		b[1] = round(toCelsius(*md.Max, md.Unit))
	}

	return b
}

// targetTemperature is the setpoint the current mode drives towards, the midpoint of the range
// in auto mode.
func (i *Implementation) targetTemperature() (float64, bool) {
	m, _ := i.mode()

	switch {
	case m == hostCool && i.hasSetpoint(SetpointCooling):
		return i.setpoint(SetpointCooling)
	case m == hostAuto && i.dual():
		low, lowOK := i.setpoint(SetpointHeating)
		high, highOK := i.setpoint(SetpointCooling)

		if !lowOK || !highOK {
			return 0, false
		}

		return round((low + high) / 2), true
	case i.hasSetpoint(SetpointHeating):
		return i.setpoint(SetpointHeating)
	default:
		return i.setpoint(SetpointCooling)
	}
}

func (i *Implementation) writeSetpoint(ctx context.Context, key string, celsius float64) error {
	id := i.setpointID(key)
	unit := i.Node().GetValueMetadata(id).Unit

	return i.Write(ctx, id, round(fromCelsius(celsius, unit)))
}

func (i *Implementation) getCurrentState(_ context.Context) (any, error) {
	if s, ok := i.currentState(); ok {
		return s, nil
	}

	_, err := i.Read(i.ValueID(catalog.ThermostatState, State, ""), nil)
	return nil, err
}

func (i *Implementation) getTargetState(_ context.Context) (any, error) {
	if m, ok := i.mode(); ok {
		return m, nil
	}

	_, err := i.Read(i.ValueID(catalog.ThermostatMode, Mode, ""), nil)
	return nil, err
}

func (i *Implementation) setTargetState(ctx context.Context, v any) error {
	m, ok := feature.Int(v)
	if !ok || m < hostOff || m > hostAuto {
		return host.ErrCommunicationFailure
	}

	return i.Write(ctx, i.ValueID(catalog.ThermostatMode, Mode, ""), m)
}

func (i *Implementation) getTemperature(_ context.Context) (any, error) {
	if t, ok := i.temperature(); ok {
		return t, nil
	}

	_, err := i.Read(i.temperatureID(), nil)
	return nil, err
}

func (i *Implementation) getTargetTemperature(_ context.Context) (any, error) {
	if t, ok := i.targetTemperature(); ok {
		return t, nil
	}

	_, err := i.Read(i.setpointID(SetpointHeating), nil)
	return nil, err
}

func (i *Implementation) setTargetTemperature(ctx context.Context, v any) error {
	t, ok := feature.Float(v)
	if !ok {
		return host.ErrCommunicationFailure
	}

	m, _ := i.mode()

	switch {
	case m == hostCool && i.hasSetpoint(SetpointCooling):
		return i.writeSetpoint(ctx, SetpointCooling, feature.Clamp(t, i.bounds(SetpointCooling)[0], i.bounds(SetpointCooling)[1]))
	case m == hostAuto && i.dual():
		return i.shift(ctx, t)
	case i.hasSetpoint(SetpointHeating):
		return i.writeSetpoint(ctx, SetpointHeating, feature.Clamp(t, i.bounds(SetpointHeating)[0], i.bounds(SetpointHeating)[1]))
	default:
		return i.writeSetpoint(ctx, SetpointCooling, feature.Clamp(t, i.bounds(SetpointCooling)[0], i.bounds(SetpointCooling)[1]))
	}
}

// shift moves the heating and cooling range so that its midpoint lands on target.
func (i *Implementation) shift(ctx context.Context, target float64) error {
	low, lowOK := i.setpoint(SetpointHeating)
	high, highOK := i.setpoint(SetpointCooling)

	if !lowOK || !highOK {
		_, err := i.Read(i.setpointID(SetpointHeating), nil)
		if err == nil {
			_, err = i.Read(i.setpointID(SetpointCooling), nil)
		}
		return err
	}

	delta := target - (low+high)/2
	newLow, newHigh := ShiftRange(low, high, delta, i.bounds(SetpointHeating), i.bounds(SetpointCooling), MinGap)

	i.Logger().LogDebug(ctx, "Shifting thermostat range.", logwrap.Datum("Low", newLow), logwrap.Datum("High", newHigh))

	if newLow != low {
		if err := i.writeSetpoint(ctx, SetpointHeating, newLow); err != nil {
			return err
		}
	}

	if newHigh != high {
		if err := i.writeSetpoint(ctx, SetpointCooling, newHigh); err != nil {
			return err
		}
	}

	return nil
}

func (i *Implementation) getSetpoint(key string) host.GetHandler {
	return func(_ context.Context) (any, error) {
		if t, ok := i.setpoint(key); ok {
			return t, nil
		}

		_, err := i.Read(i.setpointID(key), nil)
		return nil, err
	}
}

// setThreshold writes one end of the range, the other end is pushed away to keep the gap.
func (i *Implementation) setThreshold(key string) host.SetHandler {
	return func(ctx context.Context, v any) error {
		t, ok := feature.Float(v)
		if !ok {
			return host.ErrCommunicationFailure
		}

		b := i.bounds(key)
		t = feature.Clamp(t, b[0], b[1])

		if err := i.writeSetpoint(ctx, key, t); err != nil {
			return err
		}

		if key == SetpointHeating {
			if high, ok := i.setpoint(SetpointCooling); ok && high < t+MinGap {
				return i.writeSetpoint(ctx, SetpointCooling, t+MinGap)
			}
		} else {
			if low, ok := i.setpoint(SetpointHeating); ok && low > t-MinGap {
				return i.writeSetpoint(ctx, SetpointHeating, t-MinGap)
			}
		}

		return nil
	}
}

func toCelsius(v float64, unit string) float64 {
	if unit == fahrenheit {
		return (v - 32) * 5 / 9
	}

	return v
}

func fromCelsius(v float64, unit string) float64 {
	if unit == fahrenheit {
		return v*9/5 + 32
	}

	return v
}

func round(v float64) float64 {
	return math.Round(v*10) / 10
}

func ptr(f float64) *float64 {
	return &f
}
