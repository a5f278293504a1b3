package catalog

import "fmt"

// CommandClass identifies a capability group on the mesh network.
type CommandClass uint16

const (
	BinarySensor       CommandClass = 0x30
	MultilevelSensor   CommandClass = 0x31
	ColorSwitch        CommandClass = 0x33
	BinarySwitch       CommandClass = 0x25
	MultilevelSwitch   CommandClass = 0x26
	ThermostatMode     CommandClass = 0x40
	ThermostatState    CommandClass = 0x42
	ThermostatSetpoint CommandClass = 0x43
	DoorLock           CommandClass = 0x62
	BarrierOperator    CommandClass = 0x66
	WindowCovering     CommandClass = 0x6a
	Notification       CommandClass = 0x71
	ManufacturerInfo   CommandClass = 0x72
	Lock               CommandClass = 0x76
	SoundSwitch        CommandClass = 0x79
	Battery            CommandClass = 0x80
	Version            CommandClass = 0x86
	CentralScene       CommandClass = 0x5b
)

var names = map[CommandClass]string{
	BinarySensor:       "Binary Sensor",
	MultilevelSensor:   "Multilevel Sensor",
	ColorSwitch:        "Color Switch",
	BinarySwitch:       "Binary Switch",
	MultilevelSwitch:   "Multilevel Switch",
	ThermostatMode:     "Thermostat Mode",
	ThermostatState:    "Thermostat Operating State",
	ThermostatSetpoint: "Thermostat Setpoint",
	DoorLock:           "Door Lock",
	BarrierOperator:    "Barrier Operator",
	WindowCovering:     "Window Covering",
	Notification:       "Notification",
	ManufacturerInfo:   "Manufacturer Specific",
	Lock:               "Lock",
	SoundSwitch:        "Sound Switch",
	Battery:            "Battery",
	Version:            "Version",
	CentralScene:       "Central Scene",
}

func (c CommandClass) String() string {
	if n, ok := names[c]; ok {
		return n
	}

	return fmt.Sprintf("Unknown(0x%02x)", uint16(c))
}

// Group is a capability group as seen by the resolver, one group may be served by several
// command classes (legacy and extended lock for example).
type Group string

const (
	GroupClimate       Group = "Climate"
	GroupCovering      Group = "Covering"
	GroupBarrier       Group = "Barrier"
	GroupLock          Group = "Lock"
	GroupColor         Group = "Color"
	GroupDimmer        Group = "Dimmer"
	GroupOnOff         Group = "OnOff"
	GroupSiren         Group = "Siren"
	GroupNumericSensor Group = "NumericSensor"
	GroupNotification  Group = "Notification"
	GroupBinarySensor  Group = "BinarySensor"
	GroupScene         Group = "Scene"
	GroupBattery       Group = "Battery"
)

var groupMembers = map[Group][]CommandClass{
	GroupClimate:       {ThermostatMode, ThermostatSetpoint},
	GroupCovering:      {WindowCovering},
	GroupBarrier:       {BarrierOperator},
	GroupLock:          {DoorLock, Lock},
	GroupColor:         {ColorSwitch},
	GroupDimmer:        {MultilevelSwitch},
	GroupOnOff:         {BinarySwitch},
	GroupSiren:         {SoundSwitch},
	GroupNumericSensor: {MultilevelSensor},
	GroupNotification:  {Notification},
	GroupBinarySensor:  {BinarySensor},
	GroupScene:         {CentralScene},
	GroupBattery:       {Battery},
}

// Groups lists every known group.
var Groups = []Group{
	GroupClimate, GroupCovering, GroupBarrier, GroupLock, GroupColor, GroupDimmer, GroupOnOff,
	GroupSiren, GroupNumericSensor, GroupNotification, GroupBinarySensor, GroupScene, GroupBattery,
}

// Members returns the command classes which make up a group.
func (g Group) Members() []CommandClass {
	return groupMembers[g]
}

// SubEndpointRelevant is the subset of groups which also appear meaningfully on a root endpoint,
// a root endpoint group is suppressed if any sub endpoint declares it.
var SubEndpointRelevant = map[Group]bool{
	GroupClimate:       true,
	GroupCovering:      true,
	GroupBarrier:       true,
	GroupLock:          true,
	GroupColor:         true,
	GroupDimmer:        true,
	GroupOnOff:         true,
	GroupSiren:         true,
	GroupNumericSensor: true,
	GroupNotification:  true,
	GroupBinarySensor:  true,
}
