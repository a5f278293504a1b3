package resolver

import (
	"context"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/shimmeringbee/zhap/catalog"
	"github.com/shimmeringbee/zhap/driver"
	"github.com/shimmeringbee/zhap/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func newResolver(t *testing.T) *Resolver {
	e, err := rules.Default()
	require.NoError(t, err)

	return New(e, DefaultPairs, logwrap.New(discard.Discard()))
}

func point(cc catalog.CommandClass, ep uint16, property string, key string) driver.ValueID {
	return driver.ValueID{CommandClass: cc, Endpoint: ep, Property: property, PropertyKey: key}
}

func features(d []Descriptor) []catalog.Feature {
	var out []catalog.Feature

	for _, f := range d {
		out = append(out, f.Feature)
	}

	return out
}

func TestResolver_Resolve(t *testing.T) {
	t.Run("on off declared on root and two sub endpoints only produces sub endpoint switches", func(t *testing.T) {
		r := newResolver(t)

		endpoints := []driver.Endpoint{
			{Index: 0, CommandClasses: []catalog.CommandClass{catalog.BinarySwitch}},
			{Index: 1, CommandClasses: []catalog.CommandClass{catalog.BinarySwitch}},
			{Index: 2, CommandClasses: []catalog.CommandClass{catalog.BinarySwitch}},
		}

		defined := []driver.ValueID{
			point(catalog.BinarySwitch, 0, "currentValue", ""),
			point(catalog.BinarySwitch, 1, "currentValue", ""),
			point(catalog.BinarySwitch, 2, "currentValue", ""),
		}

		d, err := r.Resolve(context.Background(), endpoints, defined)
		assert.NoError(t, err)

		assert.Equal(t, []Descriptor{
			{Endpoint: 1, Group: catalog.GroupOnOff, Feature: catalog.FeatureSwitch},
			{Endpoint: 2, Group: catalog.GroupOnOff, Feature: catalog.FeatureSwitch},
		}, d)
	})

	t.Run("root groups not declared by sub endpoints are still resolved on the root", func(t *testing.T) {
		r := newResolver(t)

		endpoints := []driver.Endpoint{
			{Index: 0, CommandClasses: []catalog.CommandClass{catalog.BinarySwitch, catalog.MultilevelSensor, catalog.Battery}},
			{Index: 1, CommandClasses: []catalog.CommandClass{catalog.BinarySwitch}},
		}

		defined := []driver.ValueID{
			point(catalog.BinarySwitch, 0, "currentValue", ""),
			point(catalog.MultilevelSensor, 0, "Air temperature", ""),
			point(catalog.Battery, 0, "level", ""),
			point(catalog.BinarySwitch, 1, "currentValue", ""),
		}

		d, err := r.Resolve(context.Background(), endpoints, defined)
		assert.NoError(t, err)

		assert.Equal(t, []catalog.Feature{catalog.FeatureMultilevelSensor, catalog.FeatureBattery, catalog.FeatureSwitch}, features(d))
		assert.Equal(t, uint16(1), d[2].Endpoint)
	})

	t.Run("a single endpoint device is never de-duplicated", func(t *testing.T) {
		r := newResolver(t)

		endpoints := []driver.Endpoint{{Index: 0, CommandClasses: []catalog.CommandClass{catalog.BinarySwitch}}}
		defined := []driver.ValueID{point(catalog.BinarySwitch, 0, "currentValue", "")}

		d, err := r.Resolve(context.Background(), endpoints, defined)
		assert.NoError(t, err)
		assert.Equal(t, []catalog.Feature{catalog.FeatureSwitch}, features(d))
	})

	t.Run("dimmer and covering on one endpoint produce only a window covering", func(t *testing.T) {
		r := newResolver(t)

		endpoints := []driver.Endpoint{{Index: 0, CommandClasses: []catalog.CommandClass{catalog.MultilevelSwitch, catalog.WindowCovering}}}
		defined := []driver.ValueID{
			point(catalog.MultilevelSwitch, 0, "currentValue", ""),
			point(catalog.WindowCovering, 0, "currentValue", "1"),
		}

		d, err := r.Resolve(context.Background(), endpoints, defined)
		assert.NoError(t, err)
		assert.Equal(t, []catalog.Feature{catalog.FeatureWindowCovering}, features(d))
	})

	t.Run("a declared group without defined points is omitted", func(t *testing.T) {
		r := newResolver(t)

		endpoints := []driver.Endpoint{{Index: 0, CommandClasses: []catalog.CommandClass{catalog.DoorLock, catalog.BinarySwitch}}}
		defined := []driver.ValueID{point(catalog.BinarySwitch, 0, "currentValue", "")}

		d, err := r.Resolve(context.Background(), endpoints, defined)
		assert.NoError(t, err)
		assert.Equal(t, []catalog.Feature{catalog.FeatureSwitch}, features(d))
	})

	t.Run("endpoints are resolved in index order regardless of input order", func(t *testing.T) {
		r := newResolver(t)

		endpoints := []driver.Endpoint{
			{Index: 2, CommandClasses: []catalog.CommandClass{catalog.BinarySwitch}},
			{Index: 1, CommandClasses: []catalog.CommandClass{catalog.MultilevelSwitch}},
		}

		defined := []driver.ValueID{
			point(catalog.BinarySwitch, 2, "currentValue", ""),
			point(catalog.MultilevelSwitch, 1, "currentValue", ""),
		}

		d, err := r.Resolve(context.Background(), endpoints, defined)
		assert.NoError(t, err)
		assert.Equal(t, []catalog.Feature{catalog.FeatureDimmer, catalog.FeatureSwitch}, features(d))
		assert.Equal(t, uint16(1), d[0].Endpoint)
		assert.Equal(t, uint16(2), endpoints[0].Index)
	})

	t.Run("resolving identical input twice yields identical output", func(t *testing.T) {
		r := newResolver(t)

		endpoints := []driver.Endpoint{
			{Index: 0, CommandClasses: []catalog.CommandClass{catalog.ThermostatMode, catalog.MultilevelSwitch, catalog.Battery, catalog.CentralScene}},
		}

		defined := []driver.ValueID{
			point(catalog.ThermostatMode, 0, "mode", ""),
			point(catalog.MultilevelSwitch, 0, "currentValue", ""),
			point(catalog.Battery, 0, "level", ""),
			point(catalog.CentralScene, 0, "scene", "001"),
		}

		first, err := r.Resolve(context.Background(), endpoints, defined)
		assert.NoError(t, err)

		second, err := r.Resolve(context.Background(), endpoints, defined)
		assert.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, []catalog.Feature{catalog.FeatureThermostat, catalog.FeatureProgrammableSwitch, catalog.FeatureBattery}, features(first))
	})
}

func TestResolver_Resolve_Notification(t *testing.T) {
	resolve := func(t *testing.T, points ...driver.ValueID) []catalog.Feature {
		r := newResolver(t)

		endpoints := []driver.Endpoint{{Index: 0, CommandClasses: []catalog.CommandClass{catalog.Notification, catalog.BinarySensor}}}

		d, err := r.Resolve(context.Background(), endpoints, points)
		require.NoError(t, err)

		return features(d)
	}

	t.Run("door status on access control attaches a contact sensor", func(t *testing.T) {
		f := resolve(t, point(catalog.Notification, 0, "Access Control", "Door status"))
		assert.Equal(t, []catalog.Feature{catalog.FeatureContactSensor}, f)
	})

	t.Run("motion sensor status on access control attaches motion and not contact", func(t *testing.T) {
		f := resolve(t, point(catalog.Notification, 0, "Access Control", "Motion sensor status"))
		assert.Equal(t, []catalog.Feature{catalog.FeatureMotionSensor}, f)
	})

	t.Run("unrecognised pairs attach neither", func(t *testing.T) {
		f := resolve(t,
			point(catalog.Notification, 0, "Access Control", "Keypad state"),
			point(catalog.Notification, 0, "Power Management", "Door status"),
		)
		assert.Empty(t, f)
	})

	t.Run("several alarm categories attach several sensors", func(t *testing.T) {
		f := resolve(t,
			point(catalog.Notification, 0, "Smoke Alarm", "Alarm status"),
			point(catalog.Notification, 0, "Water Alarm", "Water leak status"),
			point(catalog.Notification, 0, "Home Security", "Motion sensor status"),
		)
		assert.Equal(t, []catalog.Feature{catalog.FeatureLeakSensor, catalog.FeatureMotionSensor, catalog.FeatureSmokeSensor}, f)
	})

	t.Run("a bare property matches when no qualified point exists for it", func(t *testing.T) {
		f := resolve(t, point(catalog.Notification, 0, "Smoke Alarm", ""))
		assert.Equal(t, []catalog.Feature{catalog.FeatureSmokeSensor}, f)
	})

	t.Run("a bare property does not match when a qualified point exists for it", func(t *testing.T) {
		f := resolve(t,
			point(catalog.Notification, 0, "Smoke Alarm", ""),
			point(catalog.Notification, 0, "Smoke Alarm", "Dust in device status"),
		)
		assert.Empty(t, f)
	})

	t.Run("a bare property shared by several sensor kinds matches nothing", func(t *testing.T) {
		f := resolve(t, point(catalog.Notification, 0, "Access Control", ""))
		assert.Empty(t, f)
	})

	t.Run("legacy binary sensor is used if no notification matched", func(t *testing.T) {
		f := resolve(t,
			point(catalog.Notification, 0, "Access Control", "Keypad state"),
			point(catalog.BinarySensor, 0, "Water", ""),
		)
		assert.Equal(t, []catalog.Feature{catalog.FeatureLeakSensor}, f)
	})

	t.Run("legacy binary sensor is skipped if a notification matched", func(t *testing.T) {
		f := resolve(t,
			point(catalog.Notification, 0, "Access Control", "Door status"),
			point(catalog.BinarySensor, 0, "Water", ""),
		)
		assert.Equal(t, []catalog.Feature{catalog.FeatureContactSensor}, f)
	})

	t.Run("configured pairs extend the recognised set", func(t *testing.T) {
		r := newResolver(t)
		r.Pairs = append(r.Pairs, Pair{Property: "Access Control", PropertyKey: "Window status", Feature: catalog.FeatureContactSensor})

		endpoints := []driver.Endpoint{{Index: 0, CommandClasses: []catalog.CommandClass{catalog.Notification}}}

		d, err := r.Resolve(context.Background(), endpoints, []driver.ValueID{point(catalog.Notification, 0, "Access Control", "Window status")})
		assert.NoError(t, err)
		assert.Equal(t, []catalog.Feature{catalog.FeatureContactSensor}, features(d))
	})
}

func TestDescriptor_Key(t *testing.T) {
	t.Run("key combines endpoint and feature", func(t *testing.T) {
		assert.Equal(t, "2/Switch", Descriptor{Endpoint: 2, Feature: catalog.FeatureSwitch}.Key())
	})
}
