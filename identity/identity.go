package identity

import (
	"fmt"
	"github.com/google/uuid"
)

// Key is what an identifier is derived from: a device on a network, or the network's controller.
type Key struct {
	NetworkID  uint32
	DeviceID   uint16
	Controller bool
}

// Scheme renders the seed string for a key, every naming scheme the bridge has ever shipped is
// kept as a Scheme so that accessories created by it can still be found.
type Scheme func(namespace string, k Key) string

// Current is the naming scheme used for new accessories.
func Current(namespace string, k Key) string {
	if k.Controller {
		return fmt.Sprintf("%s-%d-controller", namespace, k.NetworkID)
	}

	return fmt.Sprintf("%s-%d-%d", namespace, k.NetworkID, k.DeviceID)
}

// HexNetwork rendered the network identifier in hexadecimal.
func HexNetwork(namespace string, k Key) string {
	if k.Controller {
		return fmt.Sprintf("%s-%08X-controller", namespace, k.NetworkID)
	}

	return fmt.Sprintf("%s-%08X-%d", namespace, k.NetworkID, k.DeviceID)
}

// NodePrefixed prefixed the device identifier.
func NodePrefixed(namespace string, k Key) string {
	if k.Controller {
		return fmt.Sprintf("%s-%d-node-controller", namespace, k.NetworkID)
	}

	return fmt.Sprintf("%s-%d-node%d", namespace, k.NetworkID, k.DeviceID)
}

// Unscoped was the first scheme, it did not include the network.
func Unscoped(namespace string, k Key) string {
	if k.Controller {
		return fmt.Sprintf("%s-controller", namespace)
	}

	return fmt.Sprintf("%s-%d", namespace, k.DeviceID)
}

// LegacySchemes are previously shipped schemes, newest first.
var LegacySchemes = []Scheme{HexNetwork, NodePrefixed, Unscoped}

// Generate hashes a seed into an accessory identifier.
func Generate(seed string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

// Set is a set of identifiers already known to the host.
type Set map[string]struct{}

func NewSet(ids ...string) Set {
	s := Set{}
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Set) Has(id string) bool {
	_, found := s[id]
	return found
}

type Resolver struct {
	Namespace string
	Current   Scheme
	Legacy    []Scheme
}

func NewResolver(namespace string) Resolver {
	return Resolver{
		Namespace: namespace,
		Current:   Current,
		Legacy:    LegacySchemes,
	}
}

// Resolve returns the identifier for the key. If an accessory exists under a legacy scheme's
// identifier, the newest such identifier is returned so automations referencing it keep working.
// Resolve has no side effects, and is idempotent for the same existing set.
func (r Resolver) Resolve(k Key, existing Set) string {
	for _, scheme := range r.Legacy {
		if id := Generate(scheme(r.Namespace, k)); existing.Has(id) {
			return id
		}
	}

	return Generate(r.Current(r.Namespace, k))
}

// Migrated reports if Resolve would return a legacy identifier.
func (r Resolver) Migrated(k Key, existing Set) bool {
	return r.Resolve(k, existing) != Generate(r.Current(r.Namespace, k))
}
