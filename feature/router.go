package feature

import (
	"github.com/shimmeringbee/zhap/catalog"
	"github.com/shimmeringbee/zhap/driver"
)

// ShouldHandle reports if a change event is relevant to a handler bound to endpoint, serving the
// command class cc and optionally any of the alternates. A nil event is a full refresh and is
// always relevant. An empty property accepts every property.
func ShouldHandle(ev *driver.ValueEvent, endpoint uint16, cc catalog.CommandClass, property string, alternates ...catalog.CommandClass) bool {
	if ev == nil {
		return true
	}

	if ev.EndpointIndex() != endpoint {
		return false
	}

	if ev.CommandClass != cc {
		found := false

		for _, a := range alternates {
			if ev.CommandClass == a {
				found = true
				break
			}
		}

		if !found {
			return false
		}
	}

	return property == "" || ev.Property == property
}
