package feature

import (
	"context"
	"errors"
	"fmt"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/persistence"
	"github.com/shimmeringbee/persistence/converter"
	"github.com/shimmeringbee/retry"
	"github.com/shimmeringbee/zhap/catalog"
	"github.com/shimmeringbee/zhap/driver"
	"github.com/shimmeringbee/zhap/host"
	"github.com/shimmeringbee/zhap/resolver"
	"github.com/shimmeringbee/zhap/rules"
	"strconv"
	"sync"
	"time"
)

const (
	DefaultWriteTimeout = 5 * time.Second
	DefaultWriteRetries = 2
)

var ErrStopped = errors.New("handler stopped")

// Options carries everything a handler is constructed with.
type Options struct {
	Accessory *host.Accessory
	Node      driver.Node
	Endpoint  driver.Endpoint
	Name      string
	Section   persistence.Section
	Settings  rules.Settings
	Pairs     []resolver.Pair
	Logger    logwrap.Logger

	// Lockout is the window after a write in which matching change events are ignored.
	Lockout      time.Duration
	WriteTimeout time.Duration
	WriteRetries int
}

// Base is the behaviour shared by every handler: naming, service lookup-or-create with fault
// bootstrap, renaming, and writes to the node. Handlers embed it.
type Base struct {
	accessory    *host.Accessory
	section      persistence.Section
	settings     rules.Settings
	pairs        []resolver.Pair
	logger       logwrap.Logger
	lockout      time.Duration
	writeTimeout time.Duration
	writeRetries int

	m           *sync.RWMutex
	node        driver.Node
	endpoint    driver.Endpoint
	name        string
	services    []*host.Service
	lockedUntil map[driver.ValueID]time.Time
	stopped     bool
}

func NewBase(o Options) *Base {
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}

	if o.WriteRetries <= 0 {
		o.WriteRetries = DefaultWriteRetries
	}

	if o.Settings == nil {
		o.Settings = rules.Settings{}
	}

	return &Base{
		accessory:    o.Accessory,
		section:      o.Section,
		settings:     o.Settings,
		pairs:        o.Pairs,
		logger:       o.Logger,
		lockout:      o.Lockout,
		writeTimeout: o.WriteTimeout,
		writeRetries: o.WriteRetries,
		m:            &sync.RWMutex{},
		node:         o.Node,
		endpoint:     o.Endpoint,
		name:         o.Name,
		lockedUntil:  map[driver.ValueID]time.Time{},
	}
}

func (b *Base) Logger() logwrap.Logger {
	return b.logger
}

func (b *Base) Section() persistence.Section {
	return b.section
}

func (b *Base) Settings() rules.Settings {
	return b.settings
}

func (b *Base) Pairs() []resolver.Pair {
	return b.pairs
}

func (b *Base) Accessory() *host.Accessory {
	return b.accessory
}

func (b *Base) Node() driver.Node {
	b.m.RLock()
	defer b.m.RUnlock()

	return b.node
}

func (b *Base) Endpoint() driver.Endpoint {
	b.m.RLock()
	defer b.m.RUnlock()

	return b.endpoint
}

func (b *Base) EndpointIndex() uint16 {
	return b.Endpoint().Index
}

func (b *Base) Rebind(n driver.Node, ep driver.Endpoint) {
	b.m.Lock()
	defer b.m.Unlock()

	b.node = n
	b.endpoint = ep
}

// Name returns the display name of the handler's services, sub endpoints are suffixed with
// their index.
func (b *Base) Name() string {
	b.m.RLock()
	defer b.m.RUnlock()

	return b.serviceName()
}

func (b *Base) serviceName() string {
	if b.endpoint.Index == 0 {
		return b.name
	}

	return fmt.Sprintf("%s %d", b.name, b.endpoint.Index)
}

func (b *Base) Rename(name string) {
	b.m.Lock()
	b.name = name
	serviceName := b.serviceName()
	services := append([]*host.Service{}, b.services...)
	b.m.Unlock()

	for _, s := range services {
		s.SetName(serviceName)
		s.Characteristic(host.CharConfiguredName).UpdateValue(serviceName)
	}
}

func (b *Base) Services() []*host.Service {
	b.m.RLock()
	defer b.m.RUnlock()

	return append([]*host.Service{}, b.services...)
}

// Service gets or creates the handler's service of type t, with the endpoint index as subtype.
func (b *Base) Service(t host.ServiceType) *host.Service {
	return b.ServiceWithSubtype(t, strconv.Itoa(int(b.EndpointIndex())))
}

// ServiceWithSubtype gets or creates a service, taking ownership of it. An existing service is
// adopted as is, so characteristics restored from the cache are kept.
func (b *Base) ServiceWithSubtype(t host.ServiceType, subtype string) *host.Service {
	b.m.Lock()
	defer b.m.Unlock()

	for _, s := range b.services {
		if s.Type() == t && s.Subtype() == subtype {
			return s
		}
	}

	name := b.serviceName()

	s := b.accessory.AddService(t, name, subtype)

	s.AddOptionalCharacteristic(host.CharConfiguredName)
	if s.Characteristic(host.CharConfiguredName).Value() == nil {
		s.Characteristic(host.CharConfiguredName).UpdateValue(name)
	}

	if host.SupportsStatusFault(t) {
		s.AddOptionalCharacteristic(host.CharStatusFault)
		if s.Characteristic(host.CharStatusFault).Value() == nil {
			s.Characteristic(host.CharStatusFault).UpdateValue(host.StatusFaultNone)
		}
	}

	b.services = append(b.services, s)
	return s
}

// Unavailable reports if values read from the node can not be trusted as live.
func (b *Base) Unavailable() bool {
	n := b.Node()
	return !n.Ready() || n.Status() == driver.StatusDead
}

// ValueID addresses a point on the handler's endpoint.
func (b *Base) ValueID(cc catalog.CommandClass, property string, key string) driver.ValueID {
	return driver.ValueID{CommandClass: cc, Endpoint: b.EndpointIndex(), Property: property, PropertyKey: key}
}

// Value reads a point from the node.
func (b *Base) Value(id driver.ValueID) (any, bool) {
	return b.Node().GetValue(id)
}

// Read returns a point's value, or the fallback if the value is unknown. With no fallback an
// unknown value is a communication failure.
func (b *Base) Read(id driver.ValueID, fallback any) (any, error) {
	if v, ok := b.Value(id); ok {
		return v, nil
	}

	if fallback != nil {
		return fallback, nil
	}

	return nil, fmt.Errorf("%w: %s: %w", host.ErrCommunicationFailure, id, driver.ErrValueUnknown)
}

// Points returns the node's defined points on the handler's endpoint for a command class.
func (b *Base) Points(cc catalog.CommandClass) []driver.ValueID {
	var points []driver.ValueID
	idx := b.EndpointIndex()

	for _, v := range b.Node().DefinedValueIDs() {
		if v.CommandClass == cc && v.Endpoint == idx {
			points = append(points, v)
		}
	}

	return points
}

// Write sets a point on the node with retries, failures are reported as communication failures
// to the caller only. Events for the point are ignored for the lockout window afterwards.
func (b *Base) Write(ctx context.Context, id driver.ValueID, v any) error {
	b.m.Lock()
	if b.stopped {
		b.m.Unlock()
		return fmt.Errorf("%w: %w", host.ErrCommunicationFailure, ErrStopped)
	}

	if b.lockout > 0 {
		b.lockedUntil[id] = time.Now().Add(b.lockout)
	}
	n := b.node
	b.m.Unlock()

	if err := retry.Retry(ctx, b.writeTimeout, b.writeRetries, func(ctx context.Context) error {
		return n.SetValue(ctx, id, v)
	}); err != nil {
		b.logger.LogWarn(ctx, "Failed to write value to node.", logwrap.Datum("ValueID", id.String()), logwrap.Err(err))
		return fmt.Errorf("%w: %v", host.ErrCommunicationFailure, err)
	}

	b.logger.LogDebug(ctx, "Wrote value to node.", logwrap.Datum("ValueID", id.String()), logwrap.Datum("Value", v))
	return nil
}

// LockedOut reports if events for the point are to be ignored following a recent write.
func (b *Base) LockedOut(id driver.ValueID) bool {
	b.m.RLock()
	defer b.m.RUnlock()

	until, found := b.lockedUntil[id]
	return found && time.Now().Before(until)
}

// Touch records the time of an update, and of a change if the value changed.
func (b *Base) Touch(changed bool) {
	if b.section == nil {
		return
	}

	now := time.Now()

	if changed {
		converter.Store(b.section, LastChangedKey, now, converter.TimeEncoder)
	}

	converter.Store(b.section, LastUpdatedKey, now, converter.TimeEncoder)
}

func (b *Base) LastUpdateTime() time.Time {
	if b.section == nil {
		return time.Time{}
	}

	t, _ := converter.Retrieve(b.section, LastUpdatedKey, converter.TimeDecoder)
	return t
}

func (b *Base) LastChangeTime() time.Time {
	if b.section == nil {
		return time.Time{}
	}

	t, _ := converter.Retrieve(b.section, LastChangedKey, converter.TimeDecoder)
	return t
}

// Set updates a characteristic, recording the update and whether it changed anything.
func (b *Base) Set(s *host.Service, t host.CharacteristicType, v any) {
	c := s.Characteristic(t)
	changed := c.Value() != v

	c.UpdateValue(v)
	b.Touch(changed)
}

func (b *Base) Stop() {
	b.m.Lock()
	defer b.m.Unlock()

	b.stopped = true
}

func (b *Base) Stopped() bool {
	b.m.RLock()
	defer b.m.RUnlock()

	return b.stopped
}
