package host

import "sync"

// Accessory is the host persisted entity representing one device. The identifier never changes
// once assigned.
type Accessory struct {
	m *sync.RWMutex

	uuid     string
	name     string
	services []*Service
}

// NewAccessory creates an accessory with its identity service.
func NewAccessory(name string, uuid string) *Accessory {
	a := &Accessory{
		m:    &sync.RWMutex{},
		uuid: uuid,
		name: name,
	}

	a.AddService(ServiceAccessoryInformation, name, "")
	return a
}

func (a *Accessory) UUID() string {
	return a.uuid
}

func (a *Accessory) Name() string {
	a.m.RLock()
	defer a.m.RUnlock()

	return a.name
}

func (a *Accessory) SetName(name string) {
	a.m.Lock()
	a.name = name
	a.m.Unlock()

	a.Information().SetName(name)
}

// Information returns the identity service, which every accessory has.
func (a *Accessory) Information() *Service {
	return a.AddService(ServiceAccessoryInformation, a.Name(), "")
}

// Service looks up a service by type and subtype.
func (a *Accessory) Service(t ServiceType, subtype string) *Service {
	a.m.RLock()
	defer a.m.RUnlock()

	return a.find(t, subtype)
}

// AddService returns the service with the type and subtype, creating it if absent. There is at
// most one service per type and subtype.
func (a *Accessory) AddService(t ServiceType, name string, subtype string) *Service {
	a.m.Lock()
	defer a.m.Unlock()

	if s := a.find(t, subtype); s != nil {
		return s
	}

	s := NewService(t, name, subtype)
	a.services = append(a.services, s)
	return s
}

// attachService adds an already constructed service, used when loading from cache.
func (a *Accessory) attachService(s *Service) {
	a.m.Lock()
	defer a.m.Unlock()

	if existing := a.find(s.typ, s.subtype); existing != nil {
		for i, e := range a.services {
			if e == existing {
				a.services[i] = s
			}
		}
		return
	}

	a.services = append(a.services, s)
}

func (a *Accessory) RemoveService(s *Service) bool {
	a.m.Lock()
	defer a.m.Unlock()

	for i, e := range a.services {
		if e == s {
			a.services = append(a.services[:i], a.services[i+1:]...)
			return true
		}
	}

	return false
}

func (a *Accessory) Services() []*Service {
	a.m.RLock()
	defer a.m.RUnlock()

	return append([]*Service(nil), a.services...)
}

func (a *Accessory) find(t ServiceType, subtype string) *Service {
	for _, s := range a.services {
		if s.typ == t && s.subtype == subtype {
			return s
		}
	}

	return nil
}
