package feature

import (
	"context"
	"github.com/shimmeringbee/zhap/driver"
	"github.com/shimmeringbee/zhap/host"
)

const (
	LastUpdatedKey = "LastUpdated"
	LastChangedKey = "LastChanged"
)

// Handler translates one capability concern on one endpoint into host services.
type Handler interface {
	// Init creates the handler's services and characteristic handlers, it is called once after attach.
	Init(context.Context) error
	// Update refreshes the handler's characteristics. A nil event is a full refresh, otherwise the
	// handler checks the event with ShouldHandle and ignores events outside its data domain. Errors
	// are logged and never returned.
	Update(context.Context, *driver.ValueEvent)
	// Rename updates the display name of every service the handler owns.
	Rename(string)
	// Stop is called when the handler is removed from the accessory, it must not remove services.
	Stop()
	// EndpointIndex returns the endpoint the handler is bound to.
	EndpointIndex() uint16
	// Services returns the services the handler owns.
	Services() []*host.Service
	// Rebind swaps the node and endpoint the handler reads from and writes to.
	Rebind(driver.Node, driver.Endpoint)
	// ImplName returns the implementation name of the handler.
	ImplName() string
}
