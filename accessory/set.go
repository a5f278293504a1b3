package accessory

import (
	"github.com/shimmeringbee/zhap/host"
	"github.com/shimmeringbee/zhap/identity"
	"sort"
	"sync"
)

// Set is the collection of accessories persisted by the host, keyed by identifier.
type Set struct {
	m           *sync.RWMutex
	accessories map[string]*host.Accessory
}

func NewSet(accessories ...*host.Accessory) *Set {
	s := &Set{m: &sync.RWMutex{}, accessories: map[string]*host.Accessory{}}

	for _, a := range accessories {
		s.accessories[a.UUID()] = a
	}

	return s
}

func (s *Set) Get(uuid string) (*host.Accessory, bool) {
	s.m.RLock()
	defer s.m.RUnlock()

	a, found := s.accessories[uuid]
	return a, found
}

func (s *Set) Add(a *host.Accessory) {
	s.m.Lock()
	defer s.m.Unlock()

	s.accessories[a.UUID()] = a
}

func (s *Set) Remove(uuid string) bool {
	s.m.Lock()
	defer s.m.Unlock()

	_, found := s.accessories[uuid]
	delete(s.accessories, uuid)

	return found
}

// Identifiers returns the identifiers in the set, as consulted by the identity resolver.
func (s *Set) Identifiers() identity.Set {
	s.m.RLock()
	defer s.m.RUnlock()

	ids := identity.Set{}
	for uuid := range s.accessories {
		ids[uuid] = struct{}{}
	}

	return ids
}

// All returns every accessory, ordered by identifier.
func (s *Set) All() []*host.Accessory {
	s.m.RLock()
	defer s.m.RUnlock()

	var accessories []*host.Accessory
	for _, a := range s.accessories {
		accessories = append(accessories, a)
	}

	sort.Slice(accessories, func(i, j int) bool {
		return accessories[i].UUID() < accessories[j].UUID()
	})

	return accessories
}
