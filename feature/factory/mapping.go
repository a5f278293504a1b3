package factory

import (
	"github.com/shimmeringbee/zhap/catalog"
	"github.com/shimmeringbee/zhap/feature"
	"github.com/shimmeringbee/zhap/feature/zwave/alarm_sensor"
	"github.com/shimmeringbee/zhap/feature/zwave/barrier_operator"
	"github.com/shimmeringbee/zhap/feature/zwave/battery"
	"github.com/shimmeringbee/zhap/feature/zwave/binary_switch"
	"github.com/shimmeringbee/zhap/feature/zwave/central_scene"
	"github.com/shimmeringbee/zhap/feature/zwave/color_switch"
	"github.com/shimmeringbee/zhap/feature/zwave/door_lock"
	"github.com/shimmeringbee/zhap/feature/zwave/multilevel_sensor"
	"github.com/shimmeringbee/zhap/feature/zwave/multilevel_switch"
	"github.com/shimmeringbee/zhap/feature/zwave/sound_switch"
	"github.com/shimmeringbee/zhap/feature/zwave/thermostat"
	"github.com/shimmeringbee/zhap/feature/zwave/window_covering"
)

const ZWaveThermostat = "ZWaveThermostat"
const ZWaveWindowCovering = "ZWaveWindowCovering"
const ZWaveBarrierOperator = "ZWaveBarrierOperator"
const ZWaveDoorLock = "ZWaveDoorLock"
const ZWaveColorSwitch = "ZWaveColorSwitch"
const ZWaveMultilevelSwitch = "ZWaveMultilevelSwitch"
const ZWaveBinarySwitch = "ZWaveBinarySwitch"
const ZWaveSoundSwitch = "ZWaveSoundSwitch"
const ZWaveMultilevelSensor = "ZWaveMultilevelSensor"
const ZWaveAlarmSensor = "ZWaveAlarmSensor"
const ZWaveCentralScene = "ZWaveCentralScene"
const ZWaveBattery = "ZWaveBattery"

// Mapping names the implementation serving each feature.
var Mapping = map[catalog.Feature]string{
	catalog.FeatureThermostat:         ZWaveThermostat,
	catalog.FeatureWindowCovering:     ZWaveWindowCovering,
	catalog.FeatureGarageDoor:         ZWaveBarrierOperator,
	catalog.FeatureLock:               ZWaveDoorLock,
	catalog.FeatureColor:              ZWaveColorSwitch,
	catalog.FeatureDimmer:             ZWaveMultilevelSwitch,
	catalog.FeatureSwitch:             ZWaveBinarySwitch,
	catalog.FeatureSiren:              ZWaveSoundSwitch,
	catalog.FeatureMultilevelSensor:   ZWaveMultilevelSensor,
	catalog.FeatureLeakSensor:         ZWaveAlarmSensor,
	catalog.FeatureMotionSensor:       ZWaveAlarmSensor,
	catalog.FeatureContactSensor:      ZWaveAlarmSensor,
	catalog.FeatureSmokeSensor:        ZWaveAlarmSensor,
	catalog.FeatureCarbonMonoxide:     ZWaveAlarmSensor,
	catalog.FeatureProgrammableSwitch: ZWaveCentralScene,
	catalog.FeatureBattery:            ZWaveBattery,
}

// Create builds the handler for a feature, nil if no implementation serves it.
func Create(f catalog.Feature, b *feature.Base) feature.Handler {
	switch Mapping[f] {
	case ZWaveThermostat:
		return thermostat.NewThermostat(b)
	case ZWaveWindowCovering:
		return window_covering.NewWindowCovering(b)
	case ZWaveBarrierOperator:
		return barrier_operator.NewBarrierOperator(b)
	case ZWaveDoorLock:
		return door_lock.NewDoorLock(b)
	case ZWaveColorSwitch:
		return color_switch.NewColorSwitch(b)
	case ZWaveMultilevelSwitch:
		return multilevel_switch.NewMultilevelSwitch(b)
	case ZWaveBinarySwitch:
		return binary_switch.NewBinarySwitch(b)
	case ZWaveSoundSwitch:
		return sound_switch.NewSoundSwitch(b)
	case ZWaveMultilevelSensor:
		return multilevel_sensor.NewMultilevelSensor(b)
	case ZWaveAlarmSensor:
		if i, err := alarm_sensor.NewAlarmSensor(f, b); err == nil {
			return i
		}
		return nil
	case ZWaveCentralScene:
		return central_scene.NewCentralScene(b)
	case ZWaveBattery:
		return battery.NewBattery(b)
	default:
		return nil
	}
}
