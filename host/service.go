package host

import "sync"

// Service is keyed by type and subtype within an accessory.
type Service struct {
	m *sync.RWMutex

	typ     ServiceType
	subtype string
	name    string

	characteristics []*Characteristic
	optional        map[CharacteristicType]bool
}

func NewService(t ServiceType, name string, subtype string) *Service {
	s := &Service{
		m:        &sync.RWMutex{},
		typ:      t,
		subtype:  subtype,
		name:     name,
		optional: map[CharacteristicType]bool{},
	}

	s.Characteristic(CharName).UpdateValue(name)
	return s
}

func (s *Service) Type() ServiceType {
	return s.typ
}

func (s *Service) Subtype() string {
	return s.subtype
}

func (s *Service) Name() string {
	s.m.RLock()
	defer s.m.RUnlock()

	return s.name
}

// SetName updates the display name of the service and its Name characteristic.
func (s *Service) SetName(name string) {
	s.m.Lock()
	s.name = name
	s.m.Unlock()

	s.Characteristic(CharName).UpdateValue(name)
}

// AddOptionalCharacteristic declares a characteristic as optional before it is added.
func (s *Service) AddOptionalCharacteristic(t CharacteristicType) {
	s.m.Lock()
	defer s.m.Unlock()

	s.optional[t] = true
}

func (s *Service) IsOptional(t CharacteristicType) bool {
	s.m.RLock()
	defer s.m.RUnlock()

	return s.optional[t]
}

// HasCharacteristic reports if the characteristic has been added, without adding it.
func (s *Service) HasCharacteristic(t CharacteristicType) bool {
	s.m.RLock()
	defer s.m.RUnlock()

	return s.find(t) != nil
}

// Characteristic returns the characteristic of the type, adding it if absent.
func (s *Service) Characteristic(t CharacteristicType) *Characteristic {
	s.m.Lock()
	defer s.m.Unlock()

	if c := s.find(t); c != nil {
		return c
	}

	c := newCharacteristic(t)
	s.characteristics = append(s.characteristics, c)
	return c
}

func (s *Service) RemoveCharacteristic(t CharacteristicType) bool {
	s.m.Lock()
	defer s.m.Unlock()

	for i, c := range s.characteristics {
		if c.typ == t {
			s.characteristics = append(s.characteristics[:i], s.characteristics[i+1:]...)
			return true
		}
	}

	return false
}

func (s *Service) Characteristics() []*Characteristic {
	s.m.RLock()
	defer s.m.RUnlock()

	return append([]*Characteristic(nil), s.characteristics...)
}

func (s *Service) find(t CharacteristicType) *Characteristic {
	for _, c := range s.characteristics {
		if c.typ == t {
			return c
		}
	}

	return nil
}
