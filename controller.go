package zhap

import (
	"context"
	"fmt"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/zhap/host"
	"github.com/shimmeringbee/zhap/identity"
)

const (
	controllerManufacturer = "Z-Wave"
	controllerModel        = "Controller"
)

// setUpController adopts or creates the accessory representing the network's controller.
func (p *Platform) setUpController(ctx context.Context) error {
	uuid := p.identity.Resolve(identity.Key{NetworkID: p.networkID, Controller: true}, p.accessories.Identifiers())

	a, found := p.accessories.Get(uuid)
	if found {
		if a.Name() != p.config.ControllerName {
			a.SetName(p.config.ControllerName)
		}
	} else {
		a = host.NewAccessory(p.config.ControllerName, uuid)
	}

	info := a.Information()
	info.Characteristic(host.CharManufacturer).UpdateValue(controllerManufacturer)
	info.Characteristic(host.CharModel).UpdateValue(controllerModel)
	info.Characteristic(host.CharSerialNumber).UpdateValue(fmt.Sprintf("%08X", p.networkID))

	identify := info.Characteristic(host.CharIdentify)
	identify.SetProps(host.Props{Perms: []host.Perm{host.PermWrite}})
	identify.OnSet(func(ctx context.Context, _ any) error {
		p.logger.LogInfo(ctx, "Identify requested for controller.", logwrap.Datum("NetworkID", p.networkID))
		return nil
	})

	// The controller has no features, anything else was left by an earlier version.
	for _, s := range a.Services() {
		if s != info {
			a.RemoveService(s)
		}
	}

	if found {
		if err := p.registry.UpdateAccessories([]*host.Accessory{a}); err != nil {
			return fmt.Errorf("failed to update controller accessory: %w", err)
		}
	} else {
		p.logger.LogInfo(ctx, "Creating controller accessory.", logwrap.Datum("UUID", uuid))

		if err := p.registry.RegisterAccessories(p.config.Namespace, p.config.Platform, []*host.Accessory{a}); err != nil {
			return fmt.Errorf("failed to register controller accessory: %w", err)
		}

		p.accessories.Add(a)
	}

	p.m.Lock()
	p.controller = a
	p.owners[uuid] = controllerOwner
	p.m.Unlock()

	return nil
}

// Controller returns the controller's accessory, nil before Start.
func (p *Platform) Controller() *host.Accessory {
	p.m.RLock()
	defer p.m.RUnlock()

	return p.controller
}
