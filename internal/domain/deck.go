package domain

// Deck is the fixed ordered set of allowed estimates. A vote is either one
// of these values or an explicit pass (nil).
var Deck = []float64{0, 1, 2, 3, 5, 8, 13, 20, 40, 100}

// ValidEstimate reports whether v is a legal vote value.
func ValidEstimate(v *float64) bool {
	if v == nil {
		return true
	}
	for _, d := range Deck {
		if *v == d {
			return true
		}
	}
	return false
}
