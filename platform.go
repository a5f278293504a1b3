package zhap

import (
	"context"
	"errors"
	"fmt"
	"github.com/shimmeringbee/callbacks"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/shimmeringbee/persistence"
	"github.com/shimmeringbee/zhap/accessory"
	"github.com/shimmeringbee/zhap/driver"
	"github.com/shimmeringbee/zhap/host"
	"github.com/shimmeringbee/zhap/identity"
	"github.com/shimmeringbee/zhap/resolver"
	"github.com/shimmeringbee/zhap/rules"
	"sync"
)

const (
	cacheKey  = "cache"
	deviceKey = "device"

	controllerOwner = -1
)

// ErrIdentityCollision is raised if two devices resolve to the same accessory identifier. It is
// fatal, the platform stops handling driver events.
var ErrIdentityCollision = errors.New("accessory identity collision")

var ErrStopped = errors.New("platform stopped")

// Platform bridges the nodes reported by a protocol driver onto host accessories.
type Platform struct {
	bus       *driver.Bus
	registry  host.Registry
	cache     *host.Cache
	section   persistence.Section
	config    Config
	networkID uint32
	logger    logwrap.Logger
	identity  identity.Resolver
	resolver  *resolver.Resolver
	callbacks callbacks.AdderCaller

	m           *sync.RWMutex
	ctx         context.Context
	accessories *accessory.Set
	devices     map[uint16]*accessory.Reconciler
	owners      map[string]int
	controller  *host.Accessory
	started     bool
	stopped     bool
	err         error
}

// New creates a platform. Accessories are registered with the registry and mirrored into the
// section, which also holds per device state.
func New(bus *driver.Bus, registry host.Registry, section persistence.Section, networkID uint32, cfg Config) (*Platform, error) {
	cfg = cfg.withDefaults()

	engine, err := rules.Default(cfg.Rules...)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	cache := host.NewCache(section.Section(cacheKey))
	logger := logwrap.New(discard.Discard())

	return &Platform{
		bus:         bus,
		registry:    &host.CachingRegistry{Registry: registry, Cache: cache},
		cache:       cache,
		section:     section,
		config:      cfg,
		networkID:   networkID,
		logger:      logger,
		identity:    identity.NewResolver(cfg.Namespace),
		resolver:    resolver.New(engine, cfg.Pairs(), logger),
		callbacks:   callbacks.Create(),
		m:           &sync.RWMutex{},
		ctx:         context.Background(),
		accessories: accessory.NewSet(),
		devices:     map[uint16]*accessory.Reconciler{},
		owners:      map[string]int{},
	}, nil
}

// Callbacks allows subscription to NodeSetUp and NodeTornDown.
func (p *Platform) Callbacks() callbacks.Adder {
	return p.callbacks
}

// Start loads cached accessories, sets up the controller and begins handling driver events.
func (p *Platform) Start(ctx context.Context) error {
	p.m.Lock()
	if p.stopped {
		p.m.Unlock()
		return ErrStopped
	}

	if p.started {
		p.m.Unlock()
		return nil
	}
	p.started = true
	p.ctx = ctx
	p.m.Unlock()

	sctx, end := p.logger.Segment(ctx, "Loading accessory cache.")
	cached := p.cache.Load()
	for _, a := range cached {
		p.accessories.Add(a)
		p.logger.LogDebug(sctx, "Loaded cached accessory.", logwrap.Datum("UUID", a.UUID()), logwrap.Datum("Name", a.Name()))
	}
	end()

	p.pruneOrphanedDevices(ctx)

	if err := p.setUpController(ctx); err != nil {
		return err
	}

	p.callbacks.Add(p.nodeReadyCallback)
	p.callbacks.Add(p.nodeRemovedCallback)

	p.bus.OnNode(driver.TopicNodeAdded, p.receiveNodeAdded)
	p.bus.OnNode(driver.TopicNodeReady, p.receiveNodeReady)
	p.bus.OnNode(driver.TopicNodeRemoved, p.receiveNodeRemoved)

	for _, topic := range driver.ValueTopics {
		p.bus.OnValue(topic, p.receiveValue)
	}

	return nil
}

// Stop stops every handler and ignores further driver events. Accessories stay registered, and
// the platform can not be started again.
func (p *Platform) Stop() {
	p.m.Lock()
	p.started = false
	p.stopped = true
	devices := p.reconcilers()
	p.m.Unlock()

	for _, r := range devices {
		r.Stop()
	}
}

// Err returns the fatal error that stopped the platform, if any.
func (p *Platform) Err() error {
	p.m.RLock()
	defer p.m.RUnlock()

	return p.err
}

func (p *Platform) running() (context.Context, bool) {
	p.m.RLock()
	defer p.m.RUnlock()

	return p.ctx, p.started && p.err == nil
}

func (p *Platform) fail(ctx context.Context, err error) {
	p.logger.LogError(ctx, "Platform stopping on fatal error.", logwrap.Err(err))

	p.m.Lock()
	if p.err == nil {
		p.err = err
	}
	p.m.Unlock()

	p.Stop()
}

func (p *Platform) reconcilers() []*accessory.Reconciler {
	var devices []*accessory.Reconciler
	for _, r := range p.devices {
		devices = append(devices, r)
	}
	return devices
}

func (p *Platform) device(id uint16) *accessory.Reconciler {
	p.m.RLock()
	defer p.m.RUnlock()

	return p.devices[id]
}

// Accessory returns the accessory of a set up node.
func (p *Platform) Accessory(id uint16) (*host.Accessory, bool) {
	if r := p.device(id); r != nil {
		return r.Accessory(), true
	}

	return nil, false
}

// Accessories returns every accessory known to the host, including the controller.
func (p *Platform) Accessories() []*host.Accessory {
	return p.accessories.All()
}

func (p *Platform) receiveNodeAdded(n driver.Node) {
	ctx, ok := p.running()
	if !ok {
		return
	}

	p.logger.LogInfo(ctx, "Node added.", logwrap.Datum("NodeID", n.ID()), logwrap.Datum("Ready", n.Ready()))

	if r := p.device(n.ID()); r != nil {
		p.logger.LogInfo(ctx, "Swapping node reference of known node.", logwrap.Datum("NodeID", n.ID()))

		if err := r.Swap(ctx, n); err != nil {
			p.logger.LogWarn(ctx, "Failed to swap node reference.", logwrap.Datum("NodeID", n.ID()), logwrap.Err(err))
			return
		}

		if err := r.Refresh(ctx, nil); err != nil {
			p.logger.LogWarn(ctx, "Failed to refresh swapped node.", logwrap.Datum("NodeID", n.ID()), logwrap.Err(err))
		}

		return
	}

	if n.Ready() {
		p.receiveNodeReady(n)
	}
}

func (p *Platform) receiveNodeReady(n driver.Node) {
	ctx, ok := p.running()
	if !ok {
		return
	}

	if err := p.callbacks.Call(ctx, nodeReady{node: n}); err != nil {
		p.logger.LogError(ctx, "Failed to set up node.", logwrap.Datum("NodeID", n.ID()), logwrap.Err(err))
	}
}

func (p *Platform) receiveNodeRemoved(n driver.Node) {
	ctx, ok := p.running()
	if !ok {
		return
	}

	if err := p.callbacks.Call(ctx, nodeRemoved{node: n}); err != nil {
		p.logger.LogError(ctx, "Failed to remove node.", logwrap.Datum("NodeID", n.ID()), logwrap.Err(err))
	}
}

func (p *Platform) receiveValue(n driver.Node, ev driver.ValueEvent) {
	ctx, ok := p.running()
	if !ok {
		return
	}

	r := p.device(n.ID())
	if r == nil {
		p.logger.LogTrace(ctx, "Ignoring value event for node without accessory.", logwrap.Datum("NodeID", n.ID()))
		return
	}

	if err := r.Refresh(ctx, &ev); err != nil {
		p.logger.LogWarn(ctx, "Failed to refresh accessory.", logwrap.Datum("NodeID", n.ID()), logwrap.Err(err))
	}
}

func (p *Platform) nodeReadyCallback(ctx context.Context, e nodeReady) error {
	n := e.node

	ctx, end := p.logger.Segment(ctx, "Setting up node.", logwrap.Datum("NodeID", n.ID()))
	defer end()

	r := p.device(n.ID())

	if r == nil {
		var err error
		if r, err = p.adopt(ctx, n); err != nil {
			return err
		}
	} else {
		if r.Node() != n {
			if err := r.Swap(ctx, n); err != nil {
				return err
			}
		}

		if name := nodeName(n); r.Accessory().Name() != name {
			if err := r.Rename(ctx, name); err != nil {
				p.logger.LogWarn(ctx, "Failed to rename accessory.", logwrap.Datum("NodeID", n.ID()), logwrap.Err(err))
			}
		}
	}

	descriptors, err := p.resolver.Resolve(ctx, n.Endpoints(), n.DefinedValueIDs())
	if err != nil {
		return fmt.Errorf("failed to resolve features: %w", err)
	}

	if err := r.Reconcile(ctx, descriptors); err != nil {
		return fmt.Errorf("failed to reconcile accessory: %w", err)
	}

	if err := r.Refresh(ctx, nil); err != nil {
		return fmt.Errorf("failed to refresh accessory: %w", err)
	}

	return p.callbacks.Call(ctx, NodeSetUp{Node: n, UUID: r.Accessory().UUID()})
}

// adopt resolves the node's identity and binds a new reconciler to its accessory.
func (p *Platform) adopt(ctx context.Context, n driver.Node) (*accessory.Reconciler, error) {
	key := identity.Key{NetworkID: p.networkID, DeviceID: n.ID()}
	uuid := p.identity.Resolve(key, p.accessories.Identifiers())

	p.m.Lock()
	if owner, found := p.owners[uuid]; found && owner != int(n.ID()) {
		p.m.Unlock()

		err := fmt.Errorf("%w: node %d resolves to %s, already owned by %d", ErrIdentityCollision, n.ID(), uuid, owner)
		p.fail(ctx, err)
		return nil, err
	}
	p.owners[uuid] = int(n.ID())
	p.m.Unlock()

	if p.identity.Migrated(key, p.accessories.Identifiers()) {
		p.logger.LogInfo(ctx, "Node keeps identifier of a previous naming scheme.", logwrap.Datum("NodeID", n.ID()), logwrap.Datum("UUID", uuid))
	}

	r := accessory.New(accessory.Options{
		Registry:     p.registry,
		Namespace:    p.config.Namespace,
		Platform:     p.config.Platform,
		Section:      p.sectionForDevice(n.ID()),
		Logger:       p.logger,
		Pairs:        p.config.Pairs(),
		Obsolete:     p.config.ObsoleteCharacteristics,
		Lockout:      p.config.Lockout,
		WriteTimeout: p.config.WriteTimeout,
		WriteRetries: p.config.WriteRetries,
	}, n)

	if _, err := r.AdoptOrCreate(ctx, p.accessories, uuid, nodeName(n)); err != nil {
		p.m.Lock()
		delete(p.owners, uuid)
		p.m.Unlock()
		return nil, err
	}

	p.m.Lock()
	p.devices[n.ID()] = r
	p.m.Unlock()

	return r, nil
}

func (p *Platform) nodeRemovedCallback(ctx context.Context, e nodeRemoved) error {
	n := e.node

	p.m.Lock()
	r, found := p.devices[n.ID()]
	delete(p.devices, n.ID())
	p.m.Unlock()

	if !found {
		p.logger.LogWarn(ctx, "Removal of unknown node.", logwrap.Datum("NodeID", n.ID()))
		return nil
	}

	r.Stop()

	a := r.Accessory()
	p.logger.LogInfo(ctx, "Removing accessory of removed node.", logwrap.Datum("NodeID", n.ID()), logwrap.Datum("UUID", a.UUID()))

	p.m.Lock()
	delete(p.owners, a.UUID())
	p.m.Unlock()

	p.accessories.Remove(a.UUID())
	p.sectionRemoveDevice(n.ID())

	if err := p.registry.UnregisterAccessories(p.config.Namespace, p.config.Platform, []*host.Accessory{a}); err != nil {
		return fmt.Errorf("failed to unregister accessory: %w", err)
	}

	return p.callbacks.Call(ctx, NodeTornDown{Node: n, UUID: a.UUID()})
}

// Rename renames the accessory of a set up node.
func (p *Platform) Rename(ctx context.Context, id uint16, name string) error {
	r := p.device(id)
	if r == nil {
		return fmt.Errorf("no accessory for node %d", id)
	}

	return r.Rename(ctx, name)
}

func nodeName(n driver.Node) string {
	if name := n.Name(); name != "" {
		return name
	}

	return fmt.Sprintf("Node %d", n.ID())
}
