package thermostat

// MinGap is the smallest distance kept between the heating and cooling setpoints.
const MinGap = 0.5

// ShiftRange moves both setpoints of a dual setpoint thermostat by delta. Each end is clamped to
// its own bounds, then the gap between them is restored by moving the end opposite to the
// direction of travel: the low end when moving up, the high end when moving down. The high end is
// never below the low end.
func ShiftRange(low, high, delta float64, lowBounds, highBounds [2]float64, minGap float64) (float64, float64) {
	newLow := clamp(low+delta, lowBounds)
	newHigh := clamp(high+delta, highBounds)

	if newHigh < newLow+minGap {
		if delta > 0 {
			newLow = newHigh - minGap
		} else {
			newHigh = newLow + minGap
		}
	}

	return newLow, newHigh
}

func clamp(v float64, bounds [2]float64) float64 {
	if v < bounds[0] {
		return bounds[0]
	}

	if v > bounds[1] {
		return bounds[1]
	}

	return v
}
