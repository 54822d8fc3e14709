package pricing

import (
	"context"
	"fmt"
)

// Step is the result of applying one choice to a selection: the new
// selection (with the next option list loaded) and, once the chain is
// complete, the code resolution.
type Step struct {
	Selection  Selection   `json:"selection"`
	Next       string      `json:"next,omitempty"`
	Resolution *Resolution `json:"-"`
}

// Selector drives a Selection through a table's chain using a Resolver.
type Selector struct {
	resolver *Resolver
}

// NewSelector returns a Selector backed by r.
func NewSelector(r *Resolver) *Selector { return &Selector{resolver: r} }

// Start returns an empty selection for table with the first option list
// loaded.  Date-scoped tables start with no options until a date is set.
func (s *Selector) Start(ctx context.Context, table string) (Step, error) {
	t, err := LookupTable(table)
	if err != nil {
		return Step{}, err
	}
	sel := Selection{Values: map[string]string{}, Options: map[string][]string{}}
	return s.advance(ctx, t, ChainFor(t), sel)
}

// Apply sets slot to value, invalidates everything downstream and loads
// the option list of the next open slot.  When no slot is left open the
// code is resolved.
func (s *Selector) Apply(ctx context.Context, table string, sel Selection, slot, value string) (Step, error) {
	t, err := LookupTable(table)
	if err != nil {
		return Step{}, err
	}
	chain := ChainFor(t)
	if !chain.Has(slot) {
		return Step{}, fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, table, slot)
	}
	if sel.Values == nil {
		sel.Values = map[string]string{}
	}
	return s.advance(ctx, t, chain, chain.Reduce(sel, slot, value))
}

func (s *Selector) advance(ctx context.Context, t Table, chain Chain, sel Selection) (Step, error) {
	if sel.Options == nil {
		sel.Options = map[string][]string{}
	}
	f, err := chain.Filters(sel)
	if err != nil {
		return Step{}, err
	}
	next := chain.NextOpen(sel)
	if next == "" {
		res, err := s.resolver.ResolveCode(ctx, t.Name, f)
		if err != nil {
			return Step{}, err
		}
		return Step{Selection: sel, Resolution: &res}, nil
	}
	if next == DateSlot {
		return Step{Selection: sel, Next: next}, nil
	}
	opts, err := s.resolver.ListOptions(ctx, t.Name, next, f)
	if err != nil {
		return Step{}, err
	}
	sel.Options[next] = opts
	return Step{Selection: sel, Next: next}, nil
}
