package rules

type Settings map[string]interface{}

func (s Settings) Int(k string) (int, bool) {
	val, found := s[k]

	if found {
		i, ok := val.(int)
		return i, ok
	} else {
		return 0, false
	}
}

// Float returns a numeric setting, YAML decodes whole numbers as int so those are widened.
func (s Settings) Float(k string) (float64, bool) {
	val, found := s[k]

	if !found {
		return 0.0, false
	}

	switch v := val.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0.0, false
	}
}

// Merge returns a copy of s overlaid with o.
func (s Settings) Merge(o Settings) Settings {
	out := Settings{}

	for k, v := range s {
		out[k] = v
	}

	for k, v := range o {
		out[k] = v
	}

	return out
}
