package resolver

import (
	"github.com/shimmeringbee/zhap/catalog"
	"github.com/shimmeringbee/zhap/driver"
)

// Pair maps a notification point, by property and qualifier, to the sensor feature it signals.
type Pair struct {
	Property    string          `yaml:"property"`
	PropertyKey string          `yaml:"propertyKey"`
	Feature     catalog.Feature `yaml:"feature"`
}

// DefaultPairs are the recognised notification points. Any further pair is a configuration
// decision and is supplied through Resolver.Pairs.
var DefaultPairs = []Pair{
	{Property: "Water Alarm", PropertyKey: "Sensor status", Feature: catalog.FeatureLeakSensor},
	{Property: "Water Alarm", PropertyKey: "Water leak status", Feature: catalog.FeatureLeakSensor},
	{Property: "Home Security", PropertyKey: "Motion sensor status", Feature: catalog.FeatureMotionSensor},
	{Property: "Access Control", PropertyKey: "Motion sensor status", Feature: catalog.FeatureMotionSensor},
	{Property: "Access Control", PropertyKey: "Door status", Feature: catalog.FeatureContactSensor},
	{Property: "Smoke Alarm", PropertyKey: "Sensor status", Feature: catalog.FeatureSmokeSensor},
	{Property: "Smoke Alarm", PropertyKey: "Alarm status", Feature: catalog.FeatureSmokeSensor},
	{Property: "CO Alarm", PropertyKey: "Sensor status", Feature: catalog.FeatureCarbonMonoxide},
}

// matchNotifications returns the sensor features signalled by an endpoint's notification points,
// in pair table order without duplicates.
//
// A pair matches if a point carries exactly its property and qualifier. If no point for the
// property carries any qualifier, a point with the bare property matches instead, but only when
// every pair for that property names the same feature.
func matchNotifications(pairs []Pair, points []driver.ValueID) []catalog.Feature {
	exact := map[[2]string]bool{}
	bare := map[string]bool{}
	qualified := map[string]bool{}

	for _, p := range points {
		if p.CommandClass != catalog.Notification {
			continue
		}

		if p.PropertyKey == "" {
			bare[p.Property] = true
		} else {
			qualified[p.Property] = true
			exact[[2]string{p.Property, p.PropertyKey}] = true
		}
	}

	propertyFeatures := map[string]map[catalog.Feature]bool{}
	for _, pair := range pairs {
		if propertyFeatures[pair.Property] == nil {
			propertyFeatures[pair.Property] = map[catalog.Feature]bool{}
		}
		propertyFeatures[pair.Property][pair.Feature] = true
	}

	var features []catalog.Feature
	seen := map[catalog.Feature]bool{}

	for _, pair := range pairs {
		matched := exact[[2]string{pair.Property, pair.PropertyKey}]

		if !matched && bare[pair.Property] && !qualified[pair.Property] {
			matched = len(propertyFeatures[pair.Property]) == 1
		}

		if matched && !seen[pair.Feature] {
			seen[pair.Feature] = true
			features = append(features, pair.Feature)
		}
	}

	return features
}
