package driver

import (
	"context"
	"github.com/shimmeringbee/zhap/catalog"
	"sync"
)

// MemoryNode is an in memory Node with settable values, writes are applied to the value store
// unless a write error is configured.
type MemoryNode struct {
	m *sync.RWMutex

	id           uint16
	name         string
	manufacturer string
	product      string
	firmware     string
	status       Status
	ready        bool

	endpoints []Endpoint
	values    map[ValueID]any
	metadata  map[ValueID]ValueMetadata
	order     []ValueID

	writeErr error
	writes   []Write
}

// Write is a recorded SetValue call.
type Write struct {
	ValueID ValueID
	Value   any
}

func NewMemoryNode(id uint16, name string) *MemoryNode {
	return &MemoryNode{
		m:        &sync.RWMutex{},
		id:       id,
		name:     name,
		status:   StatusAlive,
		ready:    true,
		values:   map[ValueID]any{},
		metadata: map[ValueID]ValueMetadata{},
	}
}

func (n *MemoryNode) ID() uint16 {
	return n.id
}

func (n *MemoryNode) Name() string {
	n.m.RLock()
	defer n.m.RUnlock()

	return n.name
}

func (n *MemoryNode) SetName(name string) {
	n.m.Lock()
	defer n.m.Unlock()

	n.name = name
}

func (n *MemoryNode) Manufacturer() string {
	n.m.RLock()
	defer n.m.RUnlock()

	return n.manufacturer
}

func (n *MemoryNode) Product() string {
	n.m.RLock()
	defer n.m.RUnlock()

	return n.product
}

func (n *MemoryNode) FirmwareVersion() string {
	n.m.RLock()
	defer n.m.RUnlock()

	return n.firmware
}

func (n *MemoryNode) SetProductInformation(manufacturer, product, firmware string) {
	n.m.Lock()
	defer n.m.Unlock()

	n.manufacturer = manufacturer
	n.product = product
	n.firmware = firmware
}

func (n *MemoryNode) Status() Status {
	n.m.RLock()
	defer n.m.RUnlock()

	return n.status
}

func (n *MemoryNode) SetStatus(s Status) {
	n.m.Lock()
	defer n.m.Unlock()

	n.status = s
}

func (n *MemoryNode) Ready() bool {
	n.m.RLock()
	defer n.m.RUnlock()

	return n.ready
}

func (n *MemoryNode) SetReady(r bool) {
	n.m.Lock()
	defer n.m.Unlock()

	n.ready = r
}

func (n *MemoryNode) SupportsCC(cc catalog.CommandClass) bool {
	for _, e := range n.Endpoints() {
		if e.SupportsCC(cc) {
			return true
		}
	}

	return false
}

func (n *MemoryNode) Endpoints() []Endpoint {
	n.m.RLock()
	defer n.m.RUnlock()

	return append([]Endpoint{}, n.endpoints...)
}

// AddEndpoint declares an endpoint, replacing any with the same index.
func (n *MemoryNode) AddEndpoint(index uint16, ccs ...catalog.CommandClass) {
	n.m.Lock()
	defer n.m.Unlock()

	for i, e := range n.endpoints {
		if e.Index == index {
			n.endpoints[i].CommandClasses = ccs
			return
		}
	}

	n.endpoints = append(n.endpoints, Endpoint{Index: index, CommandClasses: ccs})
}

// Define adds a point to the node, with an initial value which may be nil for unknown.
func (n *MemoryNode) Define(id ValueID, v any) {
	n.m.Lock()
	defer n.m.Unlock()

	if _, found := n.values[id]; !found {
		n.order = append(n.order, id)
	}

	n.values[id] = v
}

func (n *MemoryNode) DefineMetadata(id ValueID, md ValueMetadata) {
	n.m.Lock()
	defer n.m.Unlock()

	n.metadata[id] = md
}

func (n *MemoryNode) DefinedValueIDs() []ValueID {
	n.m.RLock()
	defer n.m.RUnlock()

	return append([]ValueID{}, n.order...)
}

func (n *MemoryNode) GetValue(id ValueID) (any, bool) {
	n.m.RLock()
	defer n.m.RUnlock()

	v, found := n.values[id]
	if !found || v == nil {
		return nil, false
	}

	return v, true
}

func (n *MemoryNode) GetValueMetadata(id ValueID) ValueMetadata {
	n.m.RLock()
	defer n.m.RUnlock()

	return n.metadata[id]
}

func (n *MemoryNode) SetValue(_ context.Context, id ValueID, v any) error {
	n.m.Lock()
	defer n.m.Unlock()

	n.writes = append(n.writes, Write{ValueID: id, Value: v})

	if n.writeErr != nil {
		return n.writeErr
	}

	if _, found := n.values[id]; !found {
		n.order = append(n.order, id)
	}

	n.values[id] = v
	return nil
}

// FailWrites makes every following SetValue return err, nil restores writes.
func (n *MemoryNode) FailWrites(err error) {
	n.m.Lock()
	defer n.m.Unlock()

	n.writeErr = err
}

// Writes returns every SetValue call made so far.
func (n *MemoryNode) Writes() []Write {
	n.m.RLock()
	defer n.m.RUnlock()

	return append([]Write{}, n.writes...)
}

var _ Node = (*MemoryNode)(nil)
