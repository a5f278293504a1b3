package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrCommunicationFailure is the generic status surfaced to the host when a characteristic
// read or write could not be completed.
var ErrCommunicationFailure = errors.New("service communication failure")

type GetHandler func(context.Context) (any, error)
type SetHandler func(context.Context, any) error

// Props constrains a characteristic's value and access.
type Props struct {
	Perms       []Perm
	MinValue    *float64
	MaxValue    *float64
	MinStep     *float64
	ValidValues []int
}

type Characteristic struct {
	m *sync.RWMutex

	typ   CharacteristicType
	value any
	props Props

	get GetHandler
	set SetHandler
}

func newCharacteristic(t CharacteristicType) *Characteristic {
	return &Characteristic{
		m:     &sync.RWMutex{},
		typ:   t,
		props: Props{Perms: []Perm{PermRead, PermNotify}},
	}
}

func (c *Characteristic) Type() CharacteristicType {
	return c.typ
}

func (c *Characteristic) Value() any {
	c.m.RLock()
	defer c.m.RUnlock()

	return c.value
}

// UpdateValue sets the cached value, as a notification from the accessory side.
func (c *Characteristic) UpdateValue(v any) {
	c.m.Lock()
	defer c.m.Unlock()

	c.value = v
}

func (c *Characteristic) Props() Props {
	c.m.RLock()
	defer c.m.RUnlock()

	return c.props
}

func (c *Characteristic) SetProps(p Props) {
	c.m.Lock()
	defer c.m.Unlock()

	c.props = p
}

func (c *Characteristic) HasPerm(p Perm) bool {
	c.m.RLock()
	defer c.m.RUnlock()

	for _, pp := range c.props.Perms {
		if pp == p {
			return true
		}
	}

	return false
}

func (c *Characteristic) OnGet(h GetHandler) {
	c.m.Lock()
	defer c.m.Unlock()

	c.get = h
}

func (c *Characteristic) OnSet(h SetHandler) {
	c.m.Lock()
	defer c.m.Unlock()

	c.set = h
}

// HandleGet is called by the host when a controller reads the characteristic.
func (c *Characteristic) HandleGet(ctx context.Context) (any, error) {
	c.m.RLock()
	h := c.get
	c.m.RUnlock()

	if h == nil {
		return c.Value(), nil
	}

	v, err := h(ctx)
	if err != nil {
		return nil, communicationFailure(err)
	}

	c.UpdateValue(v)
	return v, nil
}

// HandleSet is called by the host when a controller writes the characteristic.
func (c *Characteristic) HandleSet(ctx context.Context, v any) error {
	c.m.RLock()
	h := c.set
	c.m.RUnlock()

	if h == nil {
		return fmt.Errorf("characteristic %s is not writable", c.typ)
	}

	if err := h(ctx, v); err != nil {
		return communicationFailure(err)
	}

	c.UpdateValue(v)
	return nil
}

func communicationFailure(err error) error {
	if errors.Is(err, ErrCommunicationFailure) {
		return err
	}

	return fmt.Errorf("%w: %v", ErrCommunicationFailure, err)
}
