package driver

import (
	"context"
	"errors"
	"fmt"
	"github.com/shimmeringbee/zhap/catalog"
)

// ErrValueUnknown is returned when a point has no known value and nothing to fall back to.
var ErrValueUnknown = errors.New("value unknown")

// Status is the reachability of a node on the network.
type Status int

const (
	StatusUnknown Status = iota
	StatusAsleep
	StatusAwake
	StatusDead
	StatusAlive
)

func (s Status) String() string {
	switch s {
	case StatusAsleep:
		return "asleep"
	case StatusAwake:
		return "awake"
	case StatusDead:
		return "dead"
	case StatusAlive:
		return "alive"
	default:
		return "unknown"
	}
}

// ValueID addresses a single data point on a node.
type ValueID struct {
	CommandClass catalog.CommandClass
	Endpoint     uint16
	Property     string
	// PropertyKey is the optional qualifier of Property, empty when absent.
	PropertyKey string
}

func (v ValueID) String() string {
	if v.PropertyKey == "" {
		return fmt.Sprintf("%d-%s-%s", v.Endpoint, v.CommandClass, v.Property)
	}

	return fmt.Sprintf("%d-%s-%s-%s", v.Endpoint, v.CommandClass, v.Property, v.PropertyKey)
}

// ValueMetadata describes the unit and range of a data point.
type ValueMetadata struct {
	Label    string
	Unit     string
	Min      *float64
	Max      *float64
	Writable bool
}

// Endpoint is a numbered sub unit of a node, endpoint 0 is the root.
type Endpoint struct {
	Index          uint16
	CommandClasses []catalog.CommandClass
}

func (e Endpoint) SupportsCC(cc catalog.CommandClass) bool {
	for _, c := range e.CommandClasses {
		if c == cc {
			return true
		}
	}

	return false
}

// ValueEvent is a state change notification from the driver.
type ValueEvent struct {
	CommandClass catalog.CommandClass
	// Endpoint is nil if the driver did not specify one, which is treated as the root endpoint.
	Endpoint    *uint16
	Property    string
	PropertyKey string
	NewValue    any
}

// EndpointIndex returns the endpoint the event refers to, defaulting to the root.
func (e ValueEvent) EndpointIndex() uint16 {
	if e.Endpoint == nil {
		return 0
	}

	return *e.Endpoint
}

// ValueID returns the data point the event refers to.
func (e ValueEvent) ValueID() ValueID {
	return ValueID{
		CommandClass: e.CommandClass,
		Endpoint:     e.EndpointIndex(),
		Property:     e.Property,
		PropertyKey:  e.PropertyKey,
	}
}

// Node is a device as presented by the protocol driver. Interview, transport and security are
// the driver's concern, any blocking call carries the driver's own timeout.
type Node interface {
	ID() uint16
	Name() string
	Manufacturer() string
	Product() string
	FirmwareVersion() string
	Status() Status
	Ready() bool

	SupportsCC(catalog.CommandClass) bool
	Endpoints() []Endpoint
	DefinedValueIDs() []ValueID

	// GetValue returns the cached value of a point, false if the value is unknown.
	GetValue(ValueID) (any, bool)
	GetValueMetadata(ValueID) ValueMetadata
	SetValue(context.Context, ValueID, any) error
}

// EndpointByIndex finds the endpoint of a node with the provided index.
func EndpointByIndex(n Node, index uint16) (Endpoint, bool) {
	for _, e := range n.Endpoints() {
		if e.Index == index {
			return e, true
		}
	}

	return Endpoint{}, false
}
