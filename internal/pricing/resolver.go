package pricing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/travel-booking-core/internal/model"
)

// Outcome classifies a code lookup.
type Outcome int

const (
	NotFound Outcome = iota
	Found
	Ambiguous
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case Ambiguous:
		return "ambiguous"
	}
	return "not_found"
}

// Resolution is the three-way result of ResolveCode.  Entry is set only
// for Found; Candidates carries every matching row for Ambiguous.
type Resolution struct {
	Outcome    Outcome
	Code       string
	Entry      model.PriceEntry
	Candidates []model.PriceEntry
}

// Err converts a non-Found resolution into its error kind.
func (r Resolution) Err(table string) error {
	switch r.Outcome {
	case Found:
		return nil
	case Ambiguous:
		codes := make([]string, 0, len(r.Candidates))
		for _, c := range r.Candidates {
			codes = append(codes, c.Code)
		}
		return &AmbiguousMatchError{Table: table, Codes: codes}
	}
	return ErrNotFound
}

// Filters is the set of choices made so far plus the optional usage date
// for date-scoped tables.
type Filters struct {
	Values map[string]string
	Date   *time.Time
}

// Resolver walks a table's attribute chain against a Catalog.  It holds
// no state between calls.
type Resolver struct {
	catalog Catalog
}

// NewResolver returns a Resolver reading from c.
func NewResolver(c Catalog) *Resolver { return &Resolver{catalog: c} }

// ListOptions returns the sorted distinct non-empty values of attr among
// rows matching f.  Filters for attributes outside the table's chain are
// ignored.
func (r *Resolver) ListOptions(ctx context.Context, table, attr string, f Filters) ([]string, error) {
	t, err := LookupTable(table)
	if err != nil {
		return nil, err
	}
	if !t.HasAttr(attr) {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, table, attr)
	}
	q := t.query(f, attr)
	delete(q.Equals, attr)
	rows, err := r.catalog.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		v := strings.TrimSpace(row.Attr(attr))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

// ResolveCode maps a fully specified selection to a single code.  An
// incomplete selection resolves to NotFound without touching the catalog;
// several matching rows resolve to Ambiguous and are never narrowed.
func (r *Resolver) ResolveCode(ctx context.Context, table string, f Filters) (Resolution, error) {
	t, err := LookupTable(table)
	if err != nil {
		return Resolution{}, err
	}
	if !t.Complete(f) {
		return Resolution{Outcome: NotFound}, nil
	}
	rows, err := r.catalog.Query(ctx, t.query(f, ""))
	if err != nil {
		return Resolution{}, err
	}
	switch len(rows) {
	case 0:
		return Resolution{Outcome: NotFound}, nil
	case 1:
		return Resolution{Outcome: Found, Code: rows[0].Code, Entry: rows[0]}, nil
	}
	return Resolution{Outcome: Ambiguous, Candidates: rows}, nil
}

// Price reads the current price of code.  It re-queries the catalog on
// every call so that prices changed after the options were loaded are
// picked up.
func (r *Resolver) Price(ctx context.Context, table, code string) (model.PriceEntry, error) {
	if _, err := LookupTable(table); err != nil {
		return model.PriceEntry{}, err
	}
	rows, err := r.catalog.ByCode(ctx, table, code)
	if err != nil {
		return model.PriceEntry{}, err
	}
	switch len(rows) {
	case 0:
		return model.PriceEntry{}, ErrNotFound
	case 1:
		return rows[0], nil
	}
	res := Resolution{Outcome: Ambiguous, Candidates: rows}
	return model.PriceEntry{}, res.Err(table)
}

// Complete reports whether every attribute of the chain is pinned and,
// for date-scoped tables, a date is given.
func (t Table) Complete(f Filters) bool {
	for _, a := range t.Chain {
		if strings.TrimSpace(f.Values[a]) == "" {
			return false
		}
	}
	if t.DateScoped && f.Date == nil {
		return false
	}
	return true
}

func (t Table) query(f Filters, orderBy string) Query {
	eq := make(map[string]string, len(f.Values))
	for k, v := range f.Values {
		v = strings.TrimSpace(v)
		if v == "" || !t.HasAttr(k) {
			continue
		}
		eq[k] = v
	}
	q := Query{Table: t.Name, Equals: eq, OrderBy: orderBy}
	if t.DateScoped && f.Date != nil {
		d := *f.Date
		q.OnDate = &d
	}
	return q
}
