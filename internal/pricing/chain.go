package pricing

import (
	"fmt"
	"time"
)

// DateSlot is the selection slot holding the usage date of date-scoped
// tables.  It sits upstream of every attribute.
const DateSlot = "usage_date"

// DateLayout is the wire format of DateSlot values.
const DateLayout = "2006-01-02"

// Selection is the serialisable state of one cascading form: the value
// chosen for each slot and the option list currently offered for it.
type Selection struct {
	Values  map[string]string   `json:"values"`
	Options map[string][]string `json:"options"`
}

// Clone returns a deep copy of s.
func (s Selection) Clone() Selection {
	out := Selection{
		Values:  make(map[string]string, len(s.Values)),
		Options: make(map[string][]string, len(s.Options)),
	}
	for k, v := range s.Values {
		out.Values[k] = v
	}
	for k, v := range s.Options {
		out.Options[k] = append([]string(nil), v...)
	}
	return out
}

// Chain is a directed dependency graph over named selection slots.
// Setting a slot invalidates every slot reachable from it.
type Chain struct {
	order []string
	next  map[string][]string
}

// LinearChain builds the chain slots[0] -> slots[1] -> ... .
func LinearChain(slots ...string) Chain {
	c := Chain{order: append([]string(nil), slots...), next: make(map[string][]string, len(slots))}
	for i := 0; i+1 < len(slots); i++ {
		c.next[slots[i]] = []string{slots[i+1]}
	}
	return c
}

// ChainFor returns the dependency chain of a catalog table.  Date-scoped
// tables get DateSlot as their root.
func ChainFor(t Table) Chain {
	if t.DateScoped {
		return LinearChain(append([]string{DateSlot}, t.Chain...)...)
	}
	return LinearChain(t.Chain...)
}

// Slots returns the slots in topological order.
func (c Chain) Slots() []string { return append([]string(nil), c.order...) }

// Has reports whether slot belongs to the chain.
func (c Chain) Has(slot string) bool {
	for _, s := range c.order {
		if s == slot {
			return true
		}
	}
	return false
}

// Downstream returns every slot reachable from slot, excluding slot.
func (c Chain) Downstream(slot string) []string {
	var out []string
	seen := map[string]bool{slot: true}
	queue := append([]string(nil), c.next[slot]...)
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		queue = append(queue, c.next[s]...)
	}
	return out
}

// Reduce sets slot to value and clears the value and option list of every
// downstream slot.  The input selection is not modified.
func (c Chain) Reduce(sel Selection, slot, value string) Selection {
	out := sel.Clone()
	out.Values[slot] = value
	for _, d := range c.Downstream(slot) {
		delete(out.Values, d)
		delete(out.Options, d)
	}
	return out
}

// NextOpen returns the first slot in order without a value, or "" when
// every slot is set.
func (c Chain) NextOpen(sel Selection) string {
	for _, s := range c.order {
		if sel.Values[s] == "" {
			return s
		}
	}
	return ""
}

// Filters converts a selection into resolver filters.  A malformed date is
// reported as an error rather than dropped.
func (c Chain) Filters(sel Selection) (Filters, error) {
	f := Filters{Values: make(map[string]string, len(sel.Values))}
	for k, v := range sel.Values {
		if k == DateSlot {
			if v == "" {
				continue
			}
			d, err := time.Parse(DateLayout, v)
			if err != nil {
				return Filters{}, fmt.Errorf("%w: %q", ErrInvalidDate, v)
			}
			f.Date = &d
			continue
		}
		f.Values[k] = v
	}
	return f, nil
}
