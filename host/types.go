package host

// ServiceType is the short form of a HAP service type.
type ServiceType string

const (
	ServiceAccessoryInformation  ServiceType = "3E"
	ServiceBattery               ServiceType = "96"
	ServiceCarbonMonoxideSensor  ServiceType = "7F"
	ServiceContactSensor         ServiceType = "80"
	ServiceGarageDoorOpener      ServiceType = "41"
	ServiceHumiditySensor        ServiceType = "82"
	ServiceLeakSensor            ServiceType = "83"
	ServiceLightbulb             ServiceType = "43"
	ServiceLightSensor           ServiceType = "84"
	ServiceLockMechanism         ServiceType = "45"
	ServiceMotionSensor          ServiceType = "85"
	ServiceServiceLabel          ServiceType = "CC"
	ServiceSmokeSensor           ServiceType = "87"
	ServiceStatelessProgrammable ServiceType = "89"
	ServiceSwitch                ServiceType = "49"
	ServiceTemperatureSensor     ServiceType = "8A"
	ServiceThermostat            ServiceType = "4A"
	ServiceWindowCovering        ServiceType = "8C"
	ServiceAirQualitySensor      ServiceType = "8D"
)

// CharacteristicType is the short form of a HAP characteristic type, or a full UUID for
// custom characteristics.
type CharacteristicType string

const (
	CharIdentify                    CharacteristicType = "14"
	CharManufacturer                CharacteristicType = "20"
	CharModel                       CharacteristicType = "21"
	CharName                        CharacteristicType = "23"
	CharSerialNumber                CharacteristicType = "30"
	CharFirmwareRevision            CharacteristicType = "52"
	CharConfiguredName              CharacteristicType = "E3"
	CharOn                          CharacteristicType = "25"
	CharBrightness                  CharacteristicType = "8"
	CharHue                         CharacteristicType = "13"
	CharSaturation                  CharacteristicType = "2F"
	CharColorTemperature            CharacteristicType = "CE"
	CharCurrentPosition             CharacteristicType = "6D"
	CharTargetPosition              CharacteristicType = "7C"
	CharPositionState               CharacteristicType = "72"
	CharHoldPosition                CharacteristicType = "6F"
	CharCurrentHeatingCoolingState  CharacteristicType = "F"
	CharTargetHeatingCoolingState   CharacteristicType = "33"
	CharCurrentTemperature          CharacteristicType = "11"
	CharTargetTemperature           CharacteristicType = "35"
	CharTemperatureDisplayUnits     CharacteristicType = "36"
	CharCoolingThresholdTemperature CharacteristicType = "D"
	CharHeatingThresholdTemperature CharacteristicType = "12"
	CharCurrentDoorState            CharacteristicType = "E"
	CharTargetDoorState             CharacteristicType = "32"
	CharObstructionDetected         CharacteristicType = "24"
	CharLockCurrentState            CharacteristicType = "1D"
	CharLockTargetState             CharacteristicType = "1E"
	CharCurrentRelativeHumidity     CharacteristicType = "10"
	CharCurrentAmbientLightLevel    CharacteristicType = "6B"
	CharAirQuality                  CharacteristicType = "95"
	CharLeakDetected                CharacteristicType = "70"
	CharMotionDetected              CharacteristicType = "22"
	CharContactSensorState          CharacteristicType = "6A"
	CharSmokeDetected               CharacteristicType = "76"
	CharCarbonMonoxideDetected      CharacteristicType = "69"
	CharProgrammableSwitchEvent     CharacteristicType = "73"
	CharServiceLabelIndex           CharacteristicType = "CB"
	CharServiceLabelNamespace       CharacteristicType = "CD"
	CharBatteryLevel                CharacteristicType = "68"
	CharChargingState               CharacteristicType = "8F"
	CharStatusLowBattery            CharacteristicType = "79"
	CharStatusFault                 CharacteristicType = "77"
)

// Perm is a characteristic permission.
type Perm string

const (
	PermRead   Perm = "pr"
	PermWrite  Perm = "pw"
	PermNotify Perm = "ev"
)

const (
	StatusFaultNone    = 0
	StatusFaultGeneral = 1
)

var faultCapable = map[ServiceType]bool{
	ServiceBattery:              true,
	ServiceCarbonMonoxideSensor: true,
	ServiceContactSensor:        true,
	ServiceHumiditySensor:       true,
	ServiceLeakSensor:           true,
	ServiceLightSensor:          true,
	ServiceMotionSensor:         true,
	ServiceSmokeSensor:          true,
	ServiceTemperatureSensor:    true,
	ServiceAirQualitySensor:     true,
	ServiceLockMechanism:        true,
	ServiceThermostat:           true,
	ServiceWindowCovering:       true,
	ServiceGarageDoorOpener:     true,
	ServiceLightbulb:            true,
	ServiceSwitch:               true,
}

// SupportsStatusFault reports if a service type carries the optional StatusFault characteristic.
func SupportsStatusFault(t ServiceType) bool {
	return faultCapable[t]
}
