package pricing

import "fmt"

// ApplyType is the user's intent for an airport transfer: one direction
// or both.
type ApplyType string

const (
	ApplyPickup  ApplyType = "pickup"
	ApplySending ApplyType = "sending"
	ApplyBoth    ApplyType = "both"
)

// Airport categories as stored in airport_price.airport_category.
const (
	CategoryPickup  = "픽업"
	CategorySending = "샌딩"
)

// AirportCategorySlot is the root slot of the airport chain.
const AirportCategorySlot = "airport_category"

var legCategories = map[ApplyType][]string{
	ApplyPickup:  {CategoryPickup},
	ApplySending: {CategorySending},
	ApplyBoth:    {CategoryPickup, CategorySending},
}

// LegCategories returns the fixed category of each leg for an apply type.
// The second leg of "both" is never user-selectable.
func LegCategories(a ApplyType) ([]string, error) {
	cats, ok := legCategories[a]
	if !ok {
		return nil, fmt.Errorf("unknown apply type %q", a)
	}
	return append([]string(nil), cats...), nil
}

// AirportLegs returns one independent selection per leg with the category
// slot already set.  Legs share no state.
func AirportLegs(a ApplyType) ([]Selection, error) {
	cats, err := LegCategories(a)
	if err != nil {
		return nil, err
	}
	chain := ChainFor(Tables[AirportPrice])
	out := make([]Selection, 0, len(cats))
	for _, c := range cats {
		empty := Selection{Values: map[string]string{}, Options: map[string][]string{}}
		out = append(out, chain.Reduce(empty, AirportCategorySlot, c))
	}
	return out, nil
}
