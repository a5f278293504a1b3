package accessory

import (
	"context"
	"errors"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/shimmeringbee/persistence/impl/memory"
	"github.com/shimmeringbee/zhap/catalog"
	"github.com/shimmeringbee/zhap/driver"
	"github.com/shimmeringbee/zhap/feature"
	"github.com/shimmeringbee/zhap/host"
	"github.com/shimmeringbee/zhap/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"testing"
)

const (
	namespace = "zhap"
	platform  = "ZWave"
)

func newNode() *driver.MemoryNode {
	n := driver.NewMemoryNode(6, "Porch")
	n.SetProductInformation("Aeotec", "Smart Switch 7", "1.2")
	n.AddEndpoint(0, catalog.BinarySwitch)
	n.Define(driver.ValueID{CommandClass: catalog.BinarySwitch, Property: "currentValue"}, true)

	return n
}

func newReconciler(n driver.Node, r host.Registry, f Factory) *Reconciler {
	return New(Options{
		Registry:  r,
		Namespace: namespace,
		Platform:  platform,
		Section:   memory.New(),
		Logger:    logwrap.New(discard.Discard()),
		Factory:   f,
		Pairs:     resolver.DefaultPairs,
	}, n)
}

func mockFactory(handlers map[catalog.Feature]feature.Handler) Factory {
	return func(f catalog.Feature, _ *feature.Base) feature.Handler {
		return handlers[f]
	}
}

func mockHandler(endpoint uint16, services ...*host.Service) *feature.MockHandler {
	h := &feature.MockHandler{}
	h.On("Init", mock.Anything).Return(nil).Maybe()
	h.On("ImplName").Return("Mock").Maybe()
	h.On("EndpointIndex").Return(endpoint).Maybe()
	h.On("Services").Return(services).Maybe()
	return h
}

func acceptingRegistry() *host.MockRegistry {
	r := &host.MockRegistry{}
	r.On("RegisterAccessories", namespace, platform, mock.Anything).Return(nil).Maybe()
	r.On("UpdateAccessories", mock.Anything).Return(nil).Maybe()
	return r
}

func TestReconciler_AdoptOrCreate(t *testing.T) {
	t.Run("creates, registers and stamps a new accessory", func(t *testing.T) {
		r := acceptingRegistry()
		defer r.AssertExpectations(t)

		set := NewSet()
		rc := newReconciler(newNode(), r, nil)

		a, err := rc.AdoptOrCreate(context.Background(), set, "uuid-6", "Porch")
		assert.NoError(t, err)
		assert.Equal(t, a, rc.Accessory())

		found, ok := set.Get("uuid-6")
		assert.True(t, ok)
		assert.Equal(t, a, found)

		info := a.Information()
		assert.Equal(t, "Aeotec", info.Characteristic(host.CharManufacturer).Value())
		assert.Equal(t, "Smart Switch 7", info.Characteristic(host.CharModel).Value())
		assert.Equal(t, "6", info.Characteristic(host.CharSerialNumber).Value())
		assert.Equal(t, "1.2", info.Characteristic(host.CharFirmwareRevision).Value())

		r.AssertCalled(t, "RegisterAccessories", namespace, platform, []*host.Accessory{a})
	})

	t.Run("adopts a cached accessory, refreshing stale details and pruning obsolete characteristics", func(t *testing.T) {
		r := acceptingRegistry()

		cached := host.NewAccessory("Old Porch", "uuid-6")
		cached.Information().Characteristic(host.CharManufacturer).UpdateValue("Stale")
		s := cached.AddService(host.ServiceSwitch, "Old Porch", "0")
		s.Characteristic(host.CharacteristicType(catalog.ObsoleteCharacteristics[0])).UpdateValue(12.5)
		s.Characteristic(host.CharOn).UpdateValue(true)

		rc := newReconciler(newNode(), r, nil)

		a, err := rc.AdoptOrCreate(context.Background(), NewSet(cached), "uuid-6", "Porch")
		assert.NoError(t, err)
		assert.Same(t, cached, a)

		assert.Equal(t, "Porch", a.Name())
		assert.Equal(t, "Aeotec", a.Information().Characteristic(host.CharManufacturer).Value())

		assert.Same(t, s, a.Service(host.ServiceSwitch, "0"))
		assert.False(t, s.HasCharacteristic(host.CharacteristicType(catalog.ObsoleteCharacteristics[0])))
		assert.True(t, s.HasCharacteristic(host.CharOn))

		r.AssertNotCalled(t, "RegisterAccessories", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("prunes configured obsolete characteristics", func(t *testing.T) {
		cached := host.NewAccessory("Porch", "uuid-6")
		cached.Information().Characteristic("CUSTOM").UpdateValue(1)

		rc := New(Options{
			Registry: acceptingRegistry(),
			Section:  memory.New(),
			Logger:   logwrap.New(discard.Discard()),
			Obsolete: []string{"CUSTOM"},
		}, newNode())

		_, err := rc.AdoptOrCreate(context.Background(), NewSet(cached), "uuid-6", "Porch")
		assert.NoError(t, err)
		assert.False(t, cached.Information().HasCharacteristic("CUSTOM"))
	})

	t.Run("a registration failure is returned and nothing is added", func(t *testing.T) {
		r := &host.MockRegistry{}
		r.On("RegisterAccessories", namespace, platform, mock.Anything).Return(errors.New("host down"))

		set := NewSet()
		rc := newReconciler(newNode(), r, nil)

		_, err := rc.AdoptOrCreate(context.Background(), set, "uuid-6", "Porch")
		assert.Error(t, err)
		assert.Empty(t, set.All())
		assert.Nil(t, rc.Accessory())
	})

	t.Run("identify requests are accepted", func(t *testing.T) {
		rc := newReconciler(newNode(), acceptingRegistry(), nil)

		a, err := rc.AdoptOrCreate(context.Background(), NewSet(), "uuid-6", "Porch")
		assert.NoError(t, err)

		assert.NoError(t, a.Information().Characteristic(host.CharIdentify).HandleSet(context.Background(), true))
	})
}

func TestReconciler_Reconcile(t *testing.T) {
	t.Run("attaches handlers through the factory and prunes ghost services", func(t *testing.T) {
		r := acceptingRegistry()
		defer r.AssertExpectations(t)

		cached := host.NewAccessory("Porch", "uuid-6")
		ghost := cached.AddService(host.ServiceLightbulb, "Porch", "0")

		rc := newReconciler(newNode(), r, nil)
		_, err := rc.AdoptOrCreate(context.Background(), NewSet(cached), "uuid-6", "Porch")
		assert.NoError(t, err)

		err = rc.Reconcile(context.Background(), []resolver.Descriptor{{Endpoint: 0, Group: catalog.GroupOnOff, Feature: catalog.FeatureSwitch}})
		assert.NoError(t, err)

		assert.Len(t, rc.Handlers(), 1)
		assert.Equal(t, "ZWaveBinarySwitch", rc.Handlers()[0].ImplName())

		assert.NotNil(t, cached.Service(host.ServiceSwitch, "0"))
		assert.Nil(t, cached.Service(host.ServiceLightbulb, "0"))
		assert.NotContains(t, cached.Services(), ghost)
		assert.NotNil(t, cached.Service(host.ServiceAccessoryInformation, ""))

		r.AssertCalled(t, "UpdateAccessories", []*host.Accessory{cached})
	})

	t.Run("keeps unchanged handlers, stops vanished ones and attaches new ones", func(t *testing.T) {
		a := host.NewAccessory("Porch", "uuid-6")
		switchService := a.AddService(host.ServiceSwitch, "Porch", "0")
		batteryService := a.AddService(host.ServiceBattery, "Porch", "0")

		sw := mockHandler(0, switchService)
		sw.On("Stop").Return()
		battery := mockHandler(0, batteryService)

		rc := newReconciler(newNode(), acceptingRegistry(), mockFactory(map[catalog.Feature]feature.Handler{
			catalog.FeatureSwitch:  sw,
			catalog.FeatureBattery: battery,
		}))
		_, err := rc.AdoptOrCreate(context.Background(), NewSet(a), "uuid-6", "Porch")
		assert.NoError(t, err)

		switchDescriptor := resolver.Descriptor{Endpoint: 0, Feature: catalog.FeatureSwitch}
		batteryDescriptor := resolver.Descriptor{Endpoint: 0, Feature: catalog.FeatureBattery}

		assert.NoError(t, rc.Reconcile(context.Background(), []resolver.Descriptor{switchDescriptor, batteryDescriptor}))
		assert.NoError(t, rc.Reconcile(context.Background(), []resolver.Descriptor{batteryDescriptor}))

		assert.Equal(t, []resolver.Descriptor{batteryDescriptor}, rc.Descriptors())
		sw.AssertCalled(t, "Stop")
		battery.AssertNumberOfCalls(t, "Init", 1)

		assert.Nil(t, a.Service(host.ServiceSwitch, "0"))
		assert.NotNil(t, a.Service(host.ServiceBattery, "0"))
	})

	t.Run("handlers follow resolution order after new features appear", func(t *testing.T) {
		a := host.NewAccessory("Porch", "uuid-6")
		switchService := a.AddService(host.ServiceSwitch, "Porch", "0")
		sensorService := a.AddService(host.ServiceTemperatureSensor, "Porch", "0")
		batteryService := a.AddService(host.ServiceBattery, "Porch", "0")

		sw := mockHandler(0, switchService)
		sensor := mockHandler(0, sensorService)
		battery := mockHandler(0, batteryService)

		rc := newReconciler(newNode(), acceptingRegistry(), mockFactory(map[catalog.Feature]feature.Handler{
			catalog.FeatureSwitch:           sw,
			catalog.FeatureMultilevelSensor: sensor,
			catalog.FeatureBattery:          battery,
		}))
		_, err := rc.AdoptOrCreate(context.Background(), NewSet(a), "uuid-6", "Porch")
		assert.NoError(t, err)

		switchDescriptor := resolver.Descriptor{Endpoint: 0, Feature: catalog.FeatureSwitch}
		sensorDescriptor := resolver.Descriptor{Endpoint: 0, Feature: catalog.FeatureMultilevelSensor}
		batteryDescriptor := resolver.Descriptor{Endpoint: 0, Feature: catalog.FeatureBattery}

		assert.NoError(t, rc.Reconcile(context.Background(), []resolver.Descriptor{switchDescriptor, batteryDescriptor}))
		assert.NoError(t, rc.Reconcile(context.Background(), []resolver.Descriptor{switchDescriptor, sensorDescriptor, batteryDescriptor}))

		assert.Equal(t, []resolver.Descriptor{switchDescriptor, sensorDescriptor, batteryDescriptor}, rc.Descriptors())
		assert.Equal(t, []feature.Handler{sw, sensor, battery}, rc.Handlers())
	})

	t.Run("features without an implementation are skipped", func(t *testing.T) {
		rc := newReconciler(newNode(), acceptingRegistry(), mockFactory(nil))
		_, err := rc.AdoptOrCreate(context.Background(), NewSet(), "uuid-6", "Porch")
		assert.NoError(t, err)

		assert.NoError(t, rc.Reconcile(context.Background(), []resolver.Descriptor{{Endpoint: 0, Feature: catalog.FeatureSwitch}}))
		assert.Empty(t, rc.Handlers())

		assert.ErrorIs(t, rc.Attach(context.Background(), resolver.Descriptor{Endpoint: 0, Feature: catalog.FeatureSwitch}), ErrNoImplementation)
	})

	t.Run("nothing can be attached before adoption", func(t *testing.T) {
		rc := newReconciler(newNode(), acceptingRegistry(), nil)

		assert.ErrorIs(t, rc.Attach(context.Background(), resolver.Descriptor{Endpoint: 0, Feature: catalog.FeatureSwitch}), ErrNoAccessory)
		assert.ErrorIs(t, rc.FinalizeAfterInit(context.Background()), ErrNoAccessory)
	})
}

func adopted(t *testing.T, n driver.Node, handlers ...*feature.MockHandler) (*Reconciler, *host.Accessory) {
	features := []catalog.Feature{catalog.FeatureSwitch, catalog.FeatureBattery, catalog.FeatureLeakSensor}
	mapping := map[catalog.Feature]feature.Handler{}

	var descriptors []resolver.Descriptor
	for i, h := range handlers {
		mapping[features[i]] = h
		descriptors = append(descriptors, resolver.Descriptor{Endpoint: h.EndpointIndex(), Feature: features[i]})
	}

	rc := newReconciler(n, acceptingRegistry(), mockFactory(mapping))
	a, err := rc.AdoptOrCreate(context.Background(), NewSet(), "uuid-6", "Porch")
	assert.NoError(t, err)

	for _, d := range descriptors {
		assert.NoError(t, rc.Attach(context.Background(), d))
	}

	return rc, a
}

func TestReconciler_Refresh(t *testing.T) {
	t.Run("a dead node gets a fault and no handler updates", func(t *testing.T) {
		n := newNode()
		n.SetStatus(driver.StatusDead)

		h := mockHandler(0)

		rc, acc := adopted(t, n, h)
		acc.AddService(host.ServiceSwitch, "Porch", "0")

		assert.NoError(t, rc.Refresh(context.Background(), nil))

		h.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		assert.Equal(t, host.StatusFaultGeneral, acc.Service(host.ServiceSwitch, "0").Characteristic(host.CharStatusFault).Value())
		assert.False(t, acc.Information().HasCharacteristic(host.CharStatusFault))
	})

	t.Run("a node that is not ready gets no handler updates and no fault", func(t *testing.T) {
		n := newNode()
		n.SetReady(false)

		h := mockHandler(0)
		rc, acc := adopted(t, n, h)
		acc.AddService(host.ServiceSwitch, "Porch", "0")

		assert.NoError(t, rc.Refresh(context.Background(), nil))

		h.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		assert.Equal(t, host.StatusFaultNone, acc.Service(host.ServiceSwitch, "0").Characteristic(host.CharStatusFault).Value())
	})

	t.Run("a node recovering clears the fault", func(t *testing.T) {
		n := newNode()
		n.SetStatus(driver.StatusDead)

		h := mockHandler(0)
		h.On("Update", mock.Anything, mock.Anything).Return()

		rc, acc := adopted(t, n, h)
		s := acc.AddService(host.ServiceSwitch, "Porch", "0")

		assert.NoError(t, rc.Refresh(context.Background(), nil))
		assert.Equal(t, host.StatusFaultGeneral, s.Characteristic(host.CharStatusFault).Value())

		n.SetStatus(driver.StatusAlive)
		assert.NoError(t, rc.Refresh(context.Background(), nil))
		assert.Equal(t, host.StatusFaultNone, s.Characteristic(host.CharStatusFault).Value())
		h.AssertNumberOfCalls(t, "Update", 1)
	})

	t.Run("events with an endpoint only update handlers on that endpoint", func(t *testing.T) {
		one := mockHandler(1)
		one.On("Update", mock.Anything, mock.Anything).Return()
		two := mockHandler(2)
		two.On("Update", mock.Anything, mock.Anything).Return()

		rc, _ := adopted(t, newNode(), one, two)

		ep := uint16(2)
		ev := &driver.ValueEvent{CommandClass: catalog.BinarySwitch, Endpoint: &ep, Property: "currentValue"}
		assert.NoError(t, rc.Refresh(context.Background(), ev))

		one.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		two.AssertCalled(t, "Update", mock.Anything, ev)

		unscoped := &driver.ValueEvent{CommandClass: catalog.Battery, Property: "level"}
		assert.NoError(t, rc.Refresh(context.Background(), unscoped))
		one.AssertCalled(t, "Update", mock.Anything, unscoped)
		two.AssertCalled(t, "Update", mock.Anything, unscoped)

		assert.NoError(t, rc.Refresh(context.Background(), nil))
		one.AssertNumberOfCalls(t, "Update", 2)
		two.AssertNumberOfCalls(t, "Update", 3)
	})

	t.Run("records the time of the last refresh", func(t *testing.T) {
		h := mockHandler(0)
		h.On("Update", mock.Anything, mock.Anything).Return()

		rc, _ := adopted(t, newNode(), h)
		assert.True(t, rc.LastRefresh().IsZero())

		assert.NoError(t, rc.Refresh(context.Background(), nil))
		assert.False(t, rc.LastRefresh().IsZero())
	})

	t.Run("refreshing before adoption fails", func(t *testing.T) {
		rc := newReconciler(newNode(), acceptingRegistry(), nil)
		assert.ErrorIs(t, rc.Refresh(context.Background(), nil), ErrNoAccessory)
	})
}

func TestReconciler_Rename(t *testing.T) {
	t.Run("renames the accessory and every handler, then notifies the host", func(t *testing.T) {
		h := mockHandler(0)
		h.On("Rename", "Back Porch").Return()

		rc, a := adopted(t, newNode(), h)

		assert.NoError(t, rc.Rename(context.Background(), "Back Porch"))

		assert.Equal(t, "Back Porch", a.Name())
		assert.Equal(t, "Back Porch", a.Information().Characteristic(host.CharName).Value())
		h.AssertCalled(t, "Rename", "Back Porch")
		rc.registry.(*host.MockRegistry).AssertCalled(t, "UpdateAccessories", []*host.Accessory{a})
	})

	t.Run("renames real handler services", func(t *testing.T) {
		rc := newReconciler(newNode(), acceptingRegistry(), nil)
		a, err := rc.AdoptOrCreate(context.Background(), NewSet(), "uuid-6", "Porch")
		assert.NoError(t, err)
		assert.NoError(t, rc.Reconcile(context.Background(), []resolver.Descriptor{{Endpoint: 0, Feature: catalog.FeatureSwitch}}))

		assert.NoError(t, rc.Rename(context.Background(), "Garden"))

		s := a.Service(host.ServiceSwitch, "0")
		assert.Equal(t, "Garden", s.Name())
		assert.Equal(t, "Garden", s.Characteristic(host.CharConfiguredName).Value())
	})
}

func TestReconciler_Swap(t *testing.T) {
	t.Run("rebinds handlers to endpoints of the replacement node", func(t *testing.T) {
		old := newNode()
		old.AddEndpoint(1, catalog.BinarySwitch)
		old.AddEndpoint(2, catalog.BinarySwitch)

		one := mockHandler(1)
		two := mockHandler(2)

		rc, _ := adopted(t, old, one, two)

		replacement := newNode()
		replacement.AddEndpoint(1, catalog.BinarySwitch)

		one.On("Rebind", replacement, driver.Endpoint{Index: 1, CommandClasses: []catalog.CommandClass{catalog.BinarySwitch}}).Return()

		assert.NoError(t, rc.Swap(context.Background(), replacement))

		assert.Equal(t, replacement, rc.Node())
		one.AssertExpectations(t)
		two.AssertNotCalled(t, "Rebind", mock.Anything, mock.Anything)
	})

	t.Run("rebinds real handlers so reads follow the new node", func(t *testing.T) {
		rc := newReconciler(newNode(), acceptingRegistry(), nil)
		a, err := rc.AdoptOrCreate(context.Background(), NewSet(), "uuid-6", "Porch")
		assert.NoError(t, err)
		assert.NoError(t, rc.Reconcile(context.Background(), []resolver.Descriptor{{Endpoint: 0, Feature: catalog.FeatureSwitch}}))

		replacement := newNode()
		replacement.Define(driver.ValueID{CommandClass: catalog.BinarySwitch, Property: "currentValue"}, false)
		assert.NoError(t, rc.Swap(context.Background(), replacement))

		assert.NoError(t, rc.Refresh(context.Background(), nil))
		assert.Equal(t, false, a.Service(host.ServiceSwitch, "0").Characteristic(host.CharOn).Value())
	})
}
