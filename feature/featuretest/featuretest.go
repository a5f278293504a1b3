// Package featuretest builds handler dependencies for tests.
package featuretest

import (
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/shimmeringbee/persistence/impl/memory"
	"github.com/shimmeringbee/zhap/driver"
	"github.com/shimmeringbee/zhap/feature"
	"github.com/shimmeringbee/zhap/host"
	"github.com/shimmeringbee/zhap/resolver"
	"time"
)

// Options returns handler options bound to endpoint idx of the node, with in memory persistence and
// a discarding logger.
func Options(n driver.Node, idx uint16) feature.Options {
	ep, found := driver.EndpointByIndex(n, idx)
	if !found {
		ep = driver.Endpoint{Index: idx}
	}

	return feature.Options{
		Accessory:    host.NewAccessory(n.Name(), "test-uuid"),
		Node:         n,
		Endpoint:     ep,
		Name:         n.Name(),
		Section:      memory.New(),
		Pairs:        resolver.DefaultPairs,
		Logger:       logwrap.New(discard.Discard()),
		Lockout:      time.Minute,
		WriteTimeout: time.Second,
		WriteRetries: 1,
	}
}

// Base returns a base bound to endpoint idx of the node.
func Base(n driver.Node, idx uint16) *feature.Base {
	return feature.NewBase(Options(n, idx))
}

// Endpoint returns a pointer to an endpoint index, as carried by change events.
func Endpoint(idx uint16) *uint16 {
	return &idx
}
