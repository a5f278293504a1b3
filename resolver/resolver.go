package resolver

import (
	"context"
	"fmt"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/zhap/catalog"
	"github.com/shimmeringbee/zhap/driver"
	"github.com/shimmeringbee/zhap/rules"
	"sort"
)

// Descriptor is a feature to be attached to an endpoint of a device.
type Descriptor struct {
	Endpoint uint16
	Group    catalog.Group
	Feature  catalog.Feature
	Settings rules.Settings
}

// Key identifies a descriptor within a device, a device never has two descriptors with equal keys.
func (d Descriptor) Key() string {
	return fmt.Sprintf("%d/%s", d.Endpoint, d.Feature)
}

type Resolver struct {
	Engine *rules.Engine
	Pairs  []Pair

	logger logwrap.Logger
}

func New(e *rules.Engine, pairs []Pair, logger logwrap.Logger) *Resolver {
	return &Resolver{Engine: e, Pairs: pairs, logger: logger}
}

// Resolve decides which features a device's endpoints produce. The result is ordered by endpoint
// index and then by rule order, resolving identical input always yields identical output.
func (r *Resolver) Resolve(ctx context.Context, endpoints []driver.Endpoint, defined []driver.ValueID) ([]Descriptor, error) {
	sorted := make([]driver.Endpoint, len(endpoints))
	copy(sorted, endpoints)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	handledBySub := subEndpointGroups(sorted)

	var descriptors []Descriptor

	for _, ep := range sorted {
		in := r.input(ep, defined, handledBySub)

		matches, err := r.Engine.Execute(in)
		if err != nil {
			return nil, fmt.Errorf("endpoint %d: %w", ep.Index, err)
		}

		for _, m := range matches {
			r.logger.LogDebug(ctx, "Resolved feature.", logwrap.Datum("Endpoint", ep.Index), logwrap.Datum("Feature", string(m.Feature)), logwrap.Datum("Rule", m.Description))

			descriptors = append(descriptors, Descriptor{
				Endpoint: ep.Index,
				Group:    m.Group,
				Feature:  m.Feature,
				Settings: m.Settings,
			})
		}
	}

	return descriptors, nil
}

// subEndpointGroups returns the root relevant groups declared by any non root endpoint, it is
// empty for single endpoint devices.
func subEndpointGroups(endpoints []driver.Endpoint) map[catalog.Group]bool {
	handled := map[catalog.Group]bool{}

	if len(endpoints) <= 1 {
		return handled
	}

	for _, ep := range endpoints {
		if ep.Index == 0 {
			continue
		}

		for g := range catalog.SubEndpointRelevant {
			if declares(ep, g) {
				handled[g] = true
			}
		}
	}

	return handled
}

func declares(ep driver.Endpoint, g catalog.Group) bool {
	for _, cc := range g.Members() {
		if ep.SupportsCC(cc) {
			return true
		}
	}

	return false
}

func (r *Resolver) input(ep driver.Endpoint, defined []driver.ValueID, handledBySub map[catalog.Group]bool) rules.Input {
	var points []driver.ValueID
	definedCC := map[catalog.CommandClass]bool{}

	for _, v := range defined {
		if v.Endpoint == ep.Index {
			points = append(points, v)
			definedCC[v.CommandClass] = true
		}
	}

	in := rules.Input{Endpoint: ep.Index, Root: ep.Index == 0}

	for _, g := range catalog.Groups {
		if ep.Index == 0 && len(handledBySub) > 0 && handledBySub[g] {
			continue
		}

		for _, cc := range g.Members() {
			if ep.SupportsCC(cc) && definedCC[cc] {
				in.Has.Set(g)
				break
			}
		}
	}

	if in.Has.Notification {
		for _, f := range matchNotifications(r.Pairs, points) {
			in.Notification = append(in.Notification, string(f))
		}
	}

	if in.Has.BinarySensor {
		for _, p := range points {
			if p.CommandClass == catalog.BinarySensor {
				in.BinarySensorTypes = append(in.BinarySensorTypes, p.Property)
			}
		}
	}

	return in
}
