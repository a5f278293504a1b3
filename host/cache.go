package host

import (
	"github.com/shimmeringbee/persistence"
	"sort"
	"strconv"
	"sync"
)

const (
	accessoryKey      = "accessory"
	serviceKey        = "service"
	characteristicKey = "characteristic"

	nameKey     = "name"
	typeKey     = "type"
	subtypeKey  = "subtype"
	kindKey     = "kind"
	valueKey    = "value"
	optionalKey = "optional"
)

const (
	kindNil    = "nil"
	kindBool   = "bool"
	kindInt    = "int"
	kindFloat  = "float"
	kindString = "string"
)

// Cache persists the accessory graph, it is the bridge side copy of what the host runtime keeps
// between restarts.
type Cache struct {
	section persistence.Section
}

func NewCache(s persistence.Section) *Cache {
	return &Cache{section: s}
}

// Save writes the accessory, replacing any previously cached copy.
func (c *Cache) Save(a *Accessory) {
	as := c.section.Section(accessoryKey, a.UUID())
	as.Set(nameKey, a.Name())

	ss := as.Section(serviceKey)
	for _, k := range ss.SectionKeys() {
		ss.SectionDelete(k)
	}

	for i, s := range a.Services() {
		sec := ss.Section(strconv.Itoa(i))
		sec.Set(typeKey, string(s.Type()))
		sec.Set(subtypeKey, s.Subtype())
		sec.Set(nameKey, s.Name())

		cs := sec.Section(characteristicKey)
		for _, ch := range s.Characteristics() {
			chs := cs.Section(string(ch.Type()))
			chs.Set(optionalKey, s.IsOptional(ch.Type()))
			storeValue(chs, ch.Value())
		}
	}
}

func (c *Cache) Remove(uuid string) bool {
	return c.section.Section(accessoryKey).SectionDelete(uuid)
}

// Load returns every cached accessory, ordered by identifier.
func (c *Cache) Load() []*Accessory {
	var accessories []*Accessory

	uuids := c.section.Section(accessoryKey).SectionKeys()
	sort.Strings(uuids)

	for _, uuid := range uuids {
		as := c.section.Section(accessoryKey, uuid)
		name, _ := as.String(nameKey)

		a := &Accessory{m: &sync.RWMutex{}, uuid: uuid, name: name}

		ss := as.Section(serviceKey)
		for _, k := range sortedIndexKeys(ss.SectionKeys()) {
			sec := ss.Section(k)

			t, _ := sec.String(typeKey)
			st, _ := sec.String(subtypeKey)
			sn, _ := sec.String(nameKey)

			s := &Service{m: &sync.RWMutex{}, typ: ServiceType(t), subtype: st, name: sn, optional: map[CharacteristicType]bool{}}

			cs := sec.Section(characteristicKey)
			for _, ct := range cs.SectionKeys() {
				chs := cs.Section(ct)

				if opt, ok := chs.Bool(optionalKey); ok && opt {
					s.AddOptionalCharacteristic(CharacteristicType(ct))
				}

				s.Characteristic(CharacteristicType(ct)).UpdateValue(retrieveValue(chs))
			}

			a.attachService(s)
		}

		accessories = append(accessories, a)
	}

	return accessories
}

func storeValue(s persistence.Section, v any) {
	switch tv := v.(type) {
	case bool:
		s.Set(kindKey, kindBool)
		s.Set(valueKey, tv)
	case int:
		s.Set(kindKey, kindInt)
		s.Set(valueKey, tv)
	case float64:
		s.Set(kindKey, kindFloat)
		s.Set(valueKey, tv)
	case string:
		s.Set(kindKey, kindString)
		s.Set(valueKey, tv)
	default:
		s.Set(kindKey, kindNil)
	}
}

func retrieveValue(s persistence.Section) any {
	kind, _ := s.String(kindKey)

	switch kind {
	case kindBool:
		v, _ := s.Bool(valueKey)
		return v
	case kindInt:
		v, _ := s.Int(valueKey)
		return int(v)
	case kindFloat:
		v, _ := s.Float(valueKey)
		return v
	case kindString:
		v, _ := s.String(valueKey)
		return v
	default:
		return nil
	}
}

func sortedIndexKeys(keys []string) []string {
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})

	return keys
}
