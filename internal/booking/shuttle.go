package booking

import "strings"

// ShuttleRules decides whether a car type is priced per passenger.  A label
// is a shuttle when it contains one of Keywords and is not listed verbatim
// in Exceptions.
type ShuttleRules struct {
	Keywords   []string
	Exceptions []string
}

// DefaultShuttleRules is the production rule table.  The solo limousine
// contains the shuttle keyword but is booked per vehicle.
var DefaultShuttleRules = ShuttleRules{
	Keywords:   []string{"셔틀"},
	Exceptions: []string{"스테이하롱 셔틀 리무진 단독"},
}

// IsShuttle classifies a car type label.
func (r ShuttleRules) IsShuttle(label string) bool {
	label = strings.TrimSpace(label)
	for _, ex := range r.Exceptions {
		if label == ex {
			return false
		}
	}
	for _, kw := range r.Keywords {
		if kw != "" && strings.Contains(label, kw) {
			return true
		}
	}
	return false
}

// Quantity returns the priced quantity of a car booking: passengers for
// shuttles, vehicles otherwise.
func (r ShuttleRules) Quantity(label string, passengers, vehicles int) int {
	if r.IsShuttle(label) {
		return passengers
	}
	return vehicles
}
