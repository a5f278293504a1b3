package accessory

import (
	"context"
	"errors"
	"fmt"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/persistence"
	"github.com/shimmeringbee/persistence/converter"
	"github.com/shimmeringbee/zhap/catalog"
	"github.com/shimmeringbee/zhap/driver"
	"github.com/shimmeringbee/zhap/feature"
	"github.com/shimmeringbee/zhap/feature/factory"
	"github.com/shimmeringbee/zhap/host"
	"github.com/shimmeringbee/zhap/resolver"
	"golang.org/x/sync/semaphore"
	"sort"
	"strconv"
	"sync"
	"time"
)

const (
	featureKey     = "feature"
	LastRefreshKey = "LastRefresh"
)

var ErrNoImplementation = errors.New("no implementation for feature")
var ErrNoAccessory = errors.New("accessory not adopted")

// Factory builds the handler for a feature, returning nil if nothing serves it.
type Factory func(catalog.Feature, *feature.Base) feature.Handler

type Options struct {
	Registry  host.Registry
	Namespace string
	Platform  string

	// Section holds the reconciler's and its handlers' state, it is dropped with the device.
	Section persistence.Section
	Logger  logwrap.Logger
	Factory Factory
	Pairs   []resolver.Pair

	// Obsolete characteristic types removed upon adoption, in addition to the catalog's.
	Obsolete []string

	Lockout      time.Duration
	WriteTimeout time.Duration
	WriteRetries int
}

type attached struct {
	descriptor resolver.Descriptor
	handler    feature.Handler
}

// Reconciler owns the accessory of one device and the handlers attached to it. Every mutation
// of the accessory graph is serialised.
type Reconciler struct {
	registry     host.Registry
	namespace    string
	platform     string
	section      persistence.Section
	logger       logwrap.Logger
	factory      Factory
	pairs        []resolver.Pair
	obsolete     []string
	lockout      time.Duration
	writeTimeout time.Duration
	writeRetries int

	sem *semaphore.Weighted

	m         *sync.RWMutex
	node      driver.Node
	accessory *host.Accessory
	handlers  []attached
}

func New(o Options, n driver.Node) *Reconciler {
	if o.Factory == nil {
		o.Factory = factory.Create
	}

	obsolete := append([]string{}, catalog.ObsoleteCharacteristics...)
	obsolete = append(obsolete, o.Obsolete...)

	return &Reconciler{
		registry:     o.Registry,
		namespace:    o.Namespace,
		platform:     o.Platform,
		section:      o.Section,
		logger:       o.Logger,
		factory:      o.Factory,
		pairs:        o.Pairs,
		obsolete:     obsolete,
		lockout:      o.Lockout,
		writeTimeout: o.WriteTimeout,
		writeRetries: o.WriteRetries,
		sem:          semaphore.NewWeighted(1),
		m:            &sync.RWMutex{},
		node:         n,
	}
}

func (r *Reconciler) Node() driver.Node {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.node
}

func (r *Reconciler) Accessory() *host.Accessory {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.accessory
}

// Handlers returns the attached handlers, in attachment order.
func (r *Reconciler) Handlers() []feature.Handler {
	r.m.RLock()
	defer r.m.RUnlock()

	var handlers []feature.Handler
	for _, a := range r.handlers {
		handlers = append(handlers, a.handler)
	}

	return handlers
}

// Descriptors returns the descriptors of the attached handlers, in attachment order.
func (r *Reconciler) Descriptors() []resolver.Descriptor {
	r.m.RLock()
	defer r.m.RUnlock()

	var descriptors []resolver.Descriptor
	for _, a := range r.handlers {
		descriptors = append(descriptors, a.descriptor)
	}

	return descriptors
}

// AdoptOrCreate binds the reconciler to the accessory with the identifier, adopting it from the
// set or creating and registering it. Identity details are stamped from the live node either way.
func (r *Reconciler) AdoptOrCreate(ctx context.Context, set *Set, uuid string, name string) (*host.Accessory, error) {
	a, found := set.Get(uuid)

	if found {
		r.logger.LogDebug(ctx, "Adopting cached accessory.", logwrap.Datum("UUID", uuid))

		if a.Name() != name {
			r.logger.LogInfo(ctx, "Updating name of cached accessory.", logwrap.Datum("UUID", uuid), logwrap.Datum("From", a.Name()), logwrap.Datum("To", name))
			a.SetName(name)
		}

		r.pruneObsolete(ctx, a)
	} else {
		r.logger.LogInfo(ctx, "Creating accessory.", logwrap.Datum("UUID", uuid), logwrap.Datum("Name", name))
		a = host.NewAccessory(name, uuid)
	}

	r.stamp(a)

	if !found {
		if err := r.registry.RegisterAccessories(r.namespace, r.platform, []*host.Accessory{a}); err != nil {
			return nil, fmt.Errorf("failed to register accessory: %w", err)
		}

		set.Add(a)
	}

	r.m.Lock()
	r.accessory = a
	r.m.Unlock()

	return a, nil
}

// stamp writes the identity details of the live node onto the accessory.
func (r *Reconciler) stamp(a *host.Accessory) {
	n := r.Node()
	info := a.Information()

	info.Characteristic(host.CharManufacturer).UpdateValue(n.Manufacturer())
	info.Characteristic(host.CharModel).UpdateValue(n.Product())
	info.Characteristic(host.CharSerialNumber).UpdateValue(strconv.Itoa(int(n.ID())))

	if fw := n.FirmwareVersion(); fw != "" {
		info.Characteristic(host.CharFirmwareRevision).UpdateValue(fw)
	}

	identify := info.Characteristic(host.CharIdentify)
	identify.SetProps(host.Props{Perms: []host.Perm{host.PermWrite}})
	identify.OnSet(func(ctx context.Context, _ any) error {
		r.logger.LogInfo(ctx, "Identify requested.", logwrap.Datum("UUID", a.UUID()), logwrap.Datum("NodeID", n.ID()))
		return nil
	})
}

func (r *Reconciler) pruneObsolete(ctx context.Context, a *host.Accessory) {
	for _, s := range a.Services() {
		for _, id := range r.obsolete {
			if s.RemoveCharacteristic(host.CharacteristicType(id)) {
				r.logger.LogDebug(ctx, "Removed obsolete characteristic.", logwrap.Datum("Service", string(s.Type())), logwrap.Datum("Characteristic", id))
			}
		}
	}
}

// Reconcile brings the attached handlers in line with a resolution pass. Handlers with unchanged
// descriptors are kept, vanished ones stopped and new ones attached, then unowned services are
// pruned.
func (r *Reconciler) Reconcile(ctx context.Context, descriptors []resolver.Descriptor) error {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer r.sem.Release(1)

	ctx, end := r.logger.Segment(ctx, "Reconciling accessory features.", logwrap.Datum("NodeID", r.Node().ID()))
	defer end()

	wanted := map[string]bool{}
	for _, d := range descriptors {
		wanted[d.Key()] = true
	}

	for _, d := range r.Descriptors() {
		if !wanted[d.Key()] {
			r.detach(ctx, d.Key())
		}
	}

	for _, d := range descriptors {
		if r.attachedKey(d.Key()) {
			continue
		}

		if err := r.attach(ctx, d); err != nil {
			r.logger.LogError(ctx, "Failed to attach feature.", logwrap.Datum("Feature", string(d.Feature)), logwrap.Datum("Endpoint", d.Endpoint), logwrap.Err(err))
		}
	}

	r.sortHandlers(descriptors)

	return r.finalizeAfterInit(ctx)
}

// sortHandlers orders the attached handlers by their position in a resolution pass.
func (r *Reconciler) sortHandlers(descriptors []resolver.Descriptor) {
	position := map[string]int{}
	for i, d := range descriptors {
		position[d.Key()] = i
	}

	r.m.Lock()
	defer r.m.Unlock()

	sort.SliceStable(r.handlers, func(i, j int) bool {
		return position[r.handlers[i].descriptor.Key()] < position[r.handlers[j].descriptor.Key()]
	})
}

func (r *Reconciler) attachedKey(key string) bool {
	r.m.RLock()
	defer r.m.RUnlock()

	for _, a := range r.handlers {
		if a.descriptor.Key() == key {
			return true
		}
	}

	return false
}

// Attach builds, initialises and attaches the handler for a descriptor.
func (r *Reconciler) Attach(ctx context.Context, d resolver.Descriptor) error {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer r.sem.Release(1)

	return r.attach(ctx, d)
}

func (r *Reconciler) attach(ctx context.Context, d resolver.Descriptor) error {
	r.m.RLock()
	a, n := r.accessory, r.node
	r.m.RUnlock()

	if a == nil {
		return ErrNoAccessory
	}

	ep, found := driver.EndpointByIndex(n, d.Endpoint)
	if !found {
		ep = driver.Endpoint{Index: d.Endpoint}
	}

	b := feature.NewBase(feature.Options{
		Accessory:    a,
		Node:         n,
		Endpoint:     ep,
		Name:         a.Name(),
		Section:      r.featureSection(d),
		Settings:     d.Settings,
		Pairs:        r.pairs,
		Logger:       r.logger,
		Lockout:      r.lockout,
		WriteTimeout: r.writeTimeout,
		WriteRetries: r.writeRetries,
	})

	h := r.factory(d.Feature, b)
	if h == nil {
		return fmt.Errorf("%w: %s", ErrNoImplementation, d.Feature)
	}

	if err := h.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialise %s: %w", h.ImplName(), err)
	}

	r.logger.LogInfo(ctx, "Attached feature.", logwrap.Datum("Feature", string(d.Feature)), logwrap.Datum("Endpoint", d.Endpoint), logwrap.Datum("Implementation", h.ImplName()))

	r.m.Lock()
	r.handlers = append(r.handlers, attached{descriptor: d, handler: h})
	r.m.Unlock()

	return nil
}

func (r *Reconciler) featureSection(d resolver.Descriptor) persistence.Section {
	return r.section.Section(featureKey, strconv.Itoa(int(d.Endpoint)), string(d.Feature))
}

func (r *Reconciler) detach(ctx context.Context, key string) bool {
	r.m.Lock()
	var removed attached
	found := false
	for i, a := range r.handlers {
		if a.descriptor.Key() == key {
			removed, found = a, true
			r.handlers = append(r.handlers[:i], r.handlers[i+1:]...)
			break
		}
	}
	r.m.Unlock()

	if !found {
		return false
	}

	r.logger.LogInfo(ctx, "Detaching feature.", logwrap.Datum("Feature", string(removed.descriptor.Feature)), logwrap.Datum("Endpoint", removed.descriptor.Endpoint))
	removed.handler.Stop()

	r.section.Section(featureKey, strconv.Itoa(int(removed.descriptor.Endpoint))).SectionDelete(string(removed.descriptor.Feature))
	return true
}

// FinalizeAfterInit removes every service not owned by an attached handler, other than the
// identity service, and tells the host the accessory changed.
func (r *Reconciler) FinalizeAfterInit(ctx context.Context) error {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer r.sem.Release(1)

	return r.finalizeAfterInit(ctx)
}

func (r *Reconciler) finalizeAfterInit(ctx context.Context) error {
	a := r.Accessory()
	if a == nil {
		return ErrNoAccessory
	}

	keep := map[*host.Service]bool{a.Information(): true}
	for _, h := range r.Handlers() {
		for _, s := range h.Services() {
			keep[s] = true
		}
	}

	for _, s := range a.Services() {
		if !keep[s] {
			r.logger.LogInfo(ctx, "Pruning unowned service.", logwrap.Datum("Service", string(s.Type())), logwrap.Datum("Subtype", s.Subtype()))
			a.RemoveService(s)
		}
	}

	if err := r.registry.UpdateAccessories([]*host.Accessory{a}); err != nil {
		return fmt.Errorf("failed to update accessory: %w", err)
	}

	return nil
}

// Refresh applies the node's health to every service, then updates the handlers. An event with
// an endpoint only updates handlers bound to that endpoint, a nil event updates all of them.
// Handlers are not updated while the node is not ready or is dead.
func (r *Reconciler) Refresh(ctx context.Context, ev *driver.ValueEvent) error {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer r.sem.Release(1)

	a := r.Accessory()
	if a == nil {
		return ErrNoAccessory
	}

	n := r.Node()
	dead := n.Status() == driver.StatusDead
	r.applyFault(a, dead)

	if !n.Ready() || dead {
		r.logger.LogTrace(ctx, "Skipping refresh of unavailable node.", logwrap.Datum("NodeID", n.ID()), logwrap.Datum("Status", n.Status().String()), logwrap.Datum("Ready", n.Ready()))
		return nil
	}

	for _, h := range r.Handlers() {
		if ev != nil && ev.Endpoint != nil && *ev.Endpoint != h.EndpointIndex() {
			continue
		}

		h.Update(ctx, ev)
	}

	if r.section != nil {
		converter.Store(r.section, LastRefreshKey, time.Now(), converter.TimeEncoder)
	}

	return nil
}

func (r *Reconciler) applyFault(a *host.Accessory, fault bool) {
	status := host.StatusFaultNone
	if fault {
		status = host.StatusFaultGeneral
	}

	for _, s := range a.Services() {
		if !host.SupportsStatusFault(s.Type()) {
			continue
		}

		s.AddOptionalCharacteristic(host.CharStatusFault)
		s.Characteristic(host.CharStatusFault).UpdateValue(status)
	}
}

// LastRefresh returns when handlers were last updated.
func (r *Reconciler) LastRefresh() time.Time {
	if r.section == nil {
		return time.Time{}
	}

	t, _ := converter.Retrieve(r.section, LastRefreshKey, converter.TimeDecoder)
	return t
}

// Rename renames the accessory and every attached handler's services.
func (r *Reconciler) Rename(ctx context.Context, name string) error {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer r.sem.Release(1)

	a := r.Accessory()
	if a == nil {
		return ErrNoAccessory
	}

	a.SetName(name)

	for _, h := range r.Handlers() {
		h.Rename(name)
	}

	if err := r.registry.UpdateAccessories([]*host.Accessory{a}); err != nil {
		return fmt.Errorf("failed to update accessory: %w", err)
	}

	return nil
}

// Swap replaces the node reference, rebinding every handler to the endpoint with the same index
// on the new node. Handlers whose endpoint has vanished stay bound to the old endpoint.
func (r *Reconciler) Swap(ctx context.Context, n driver.Node) error {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer r.sem.Release(1)

	r.m.Lock()
	r.node = n
	r.m.Unlock()

	for _, h := range r.Handlers() {
		ep, found := driver.EndpointByIndex(n, h.EndpointIndex())
		if !found {
			r.logger.LogWarn(ctx, "Endpoint missing from replacement node, handler left bound to old node.", logwrap.Datum("NodeID", n.ID()), logwrap.Datum("Endpoint", h.EndpointIndex()), logwrap.Datum("Implementation", h.ImplName()))
			continue
		}

		h.Rebind(n, ep)
	}

	return nil
}

// Stop stops every attached handler, the accessory is left intact.
func (r *Reconciler) Stop() {
	for _, h := range r.Handlers() {
		h.Stop()
	}
}
