package catalog

// Feature names a feature handler type.
type Feature string

const (
	FeatureThermostat         Feature = "Thermostat"
	FeatureWindowCovering     Feature = "WindowCovering"
	FeatureGarageDoor         Feature = "GarageDoor"
	FeatureLock               Feature = "Lock"
	FeatureColor              Feature = "Color"
	FeatureDimmer             Feature = "Dimmer"
	FeatureSwitch             Feature = "Switch"
	FeatureSiren              Feature = "Siren"
	FeatureMultilevelSensor   Feature = "MultilevelSensor"
	FeatureLeakSensor         Feature = "LeakSensor"
	FeatureMotionSensor       Feature = "MotionSensor"
	FeatureContactSensor      Feature = "ContactSensor"
	FeatureSmokeSensor        Feature = "SmokeSensor"
	FeatureCarbonMonoxide     Feature = "CarbonMonoxideSensor"
	FeatureProgrammableSwitch Feature = "ProgrammableSwitch"
	FeatureBattery            Feature = "Battery"
)

// Features lists every feature a rule may attach.
var Features = []Feature{
	FeatureThermostat, FeatureWindowCovering, FeatureGarageDoor, FeatureLock, FeatureColor,
	FeatureDimmer, FeatureSwitch, FeatureSiren, FeatureMultilevelSensor, FeatureLeakSensor,
	FeatureMotionSensor, FeatureContactSensor, FeatureSmokeSensor, FeatureCarbonMonoxide,
	FeatureProgrammableSwitch, FeatureBattery,
}

// Known reports if a feature name is part of the catalog.
func Known(f Feature) bool {
	for _, k := range Features {
		if k == f {
			return true
		}
	}

	return false
}

// ObsoleteCharacteristics are characteristic types written by earlier bridge versions which are
// removed from every cached service upon adoption.
var ObsoleteCharacteristics = []string{
	// Custom power consumption characteristics, metering moved out of the bridge.
	"E863F10D-079E-48FF-8F27-9C2605A29F52",
	"E863F10C-079E-48FF-8F27-9C2605A29F52",
	// Custom node status characteristic, replaced by StatusFault.
	"9A1E5A47-7F1C-4F66-9F2E-1D1C6E0B4E10",
	// Custom last seen characteristic.
	"9A1E5A48-7F1C-4F66-9F2E-1D1C6E0B4E10",
}
