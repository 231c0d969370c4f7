package translation

// Preference selects the speed versus quality trade-off for a translation.
// It maps onto the beam width used by the decoder.
type Preference string

const (
	// PreferenceFast favors latency with a narrow beam.
	PreferenceFast Preference = "fast"
	// PreferenceBalanced is the default trade-off.
	PreferenceBalanced Preference = "balanced"
	// PreferenceAccurate favors quality with a wide beam.
	PreferenceAccurate Preference = "accurate"
)

// BeamWidth returns the beam search width for this preference.
// Unrecognized values fall back to the balanced width so a stray
// preference can never abort a translation.
func (p Preference) BeamWidth() int {
	switch p {
	case PreferenceFast:
		return 2
	case PreferenceAccurate:
		return 8
	default:
		return 4
	}
}

// Valid reports whether p is one of the accepted preference values.
func (p Preference) Valid() bool {
	switch p {
	case PreferenceFast, PreferenceBalanced, PreferenceAccurate:
		return true
	default:
		return false
	}
}
