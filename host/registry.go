package host

// Registry is the host runtime's accessory registration surface.
type Registry interface {
	RegisterAccessories(namespace string, platform string, accessories []*Accessory) error
	UnregisterAccessories(namespace string, platform string, accessories []*Accessory) error
	// UpdateAccessories signals that the name or structure of accessories has changed.
	UpdateAccessories(accessories []*Accessory) error
}

// CachingRegistry passes calls to the host registry, and mirrors the outcome into the
// accessory cache so that the accessories can be adopted after a restart.
type CachingRegistry struct {
	Registry Registry
	Cache    *Cache
}

func (c *CachingRegistry) RegisterAccessories(namespace string, platform string, accessories []*Accessory) error {
	if err := c.Registry.RegisterAccessories(namespace, platform, accessories); err != nil {
		return err
	}

	for _, a := range accessories {
		c.Cache.Save(a)
	}

	return nil
}

func (c *CachingRegistry) UnregisterAccessories(namespace string, platform string, accessories []*Accessory) error {
	if err := c.Registry.UnregisterAccessories(namespace, platform, accessories); err != nil {
		return err
	}

	for _, a := range accessories {
		c.Cache.Remove(a.UUID())
	}

	return nil
}

func (c *CachingRegistry) UpdateAccessories(accessories []*Accessory) error {
	if err := c.Registry.UpdateAccessories(accessories); err != nil {
		return err
	}

	for _, a := range accessories {
		c.Cache.Save(a)
	}

	return nil
}

var _ Registry = (*CachingRegistry)(nil)
