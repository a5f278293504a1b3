package zhap

import (
	"context"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/persistence"
	"github.com/shimmeringbee/zhap/identity"
	"strconv"
)

func (p *Platform) sectionRemoveDevice(id uint16) bool {
	return p.section.Section(deviceKey).SectionDelete(strconv.Itoa(int(id)))
}

func (p *Platform) sectionForDevice(id uint16) persistence.Section {
	return p.section.Section(deviceKey, strconv.Itoa(int(id)))
}

func (p *Platform) deviceListFromPersistence() []uint16 {
	var deviceList []uint16

	for _, k := range p.section.Section(deviceKey).SectionKeys() {
		if id, err := strconv.ParseUint(k, 10, 16); err == nil {
			deviceList = append(deviceList, uint16(id))
		}
	}

	return deviceList
}

// pruneOrphanedDevices removes persisted device state which has no cached accessory, left behind
// if the bridge was stopped before a removal completed.
func (p *Platform) pruneOrphanedDevices(ctx context.Context) {
	existing := p.accessories.Identifiers()

	for _, id := range p.deviceListFromPersistence() {
		uuid := p.identity.Resolve(identity.Key{NetworkID: p.networkID, DeviceID: id}, existing)

		if !existing.Has(uuid) {
			p.logger.LogInfo(ctx, "Removing persisted state of device without accessory.", logwrap.Datum("NodeID", id))
			p.sectionRemoveDevice(id)
		}
	}
}
