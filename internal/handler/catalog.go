package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/travel-booking-core/internal/pricing"
)

// CatalogHandler exposes the cascading price selection.  It is read-only
// and needs no authentication.
type CatalogHandler struct {
    Resolver *pricing.Resolver
    Selector *pricing.Selector
}

// NewCatalogHandler constructs a CatalogHandler over r.
func NewCatalogHandler(r *pricing.Resolver) *CatalogHandler {
    if r == nil {
        panic("nil resolver passed to NewCatalogHandler")
    }
    return &CatalogHandler{Resolver: r, Selector: pricing.NewSelector(r)}
}

// filtersFromQuery reads every chain attribute of t plus usage_date from
// the query string.
func filtersFromQuery(c echo.Context, t pricing.Table) (pricing.Filters, error) {
    f := pricing.Filters{Values: map[string]string{}}
    for _, a := range t.Chain {
        if v := strings.TrimSpace(c.QueryParam(a)); v != "" {
            f.Values[a] = v
        }
    }
    d, err := parseDate(c.QueryParam(pricing.DateSlot))
    if err != nil {
        return pricing.Filters{}, err
    }
    f.Date = d
    return f, nil
}

// Options handles GET /v1/catalog/:table/options?attr=...  It returns the
// distinct values of attr among rows matching the other query parameters.
func (h *CatalogHandler) Options(c echo.Context) error {
    t, err := pricing.LookupTable(c.Param("table"))
    if err != nil {
        return writeError(c, err)
    }
    attr := strings.TrimSpace(c.QueryParam("attr"))
    if attr == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "attr is required"})
    }
    f, err := filtersFromQuery(c, t)
    if err != nil {
        return writeError(c, err)
    }
    opts, err := h.Resolver.ListOptions(c.Request().Context(), t.Name, attr, f)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"table": t.Name, "attr": attr, "options": opts})
}

// Resolve handles GET /v1/catalog/:table/resolve.  A fully specified
// selection returns its code and current price; an incomplete or
// unmatched one answers 404 and several matches answer 409.
func (h *CatalogHandler) Resolve(c echo.Context) error {
    t, err := pricing.LookupTable(c.Param("table"))
    if err != nil {
        return writeError(c, err)
    }
    f, err := filtersFromQuery(c, t)
    if err != nil {
        return writeError(c, err)
    }
    res, err := h.Resolver.ResolveCode(c.Request().Context(), t.Name, f)
    if err != nil {
        return writeError(c, err)
    }
    if res.Outcome != pricing.Found {
        return writeError(c, res.Err(t.Name))
    }
    return c.JSON(http.StatusOK, echo.Map{"table": t.Name, "code": res.Code, "price": res.Entry.Price})
}

type selectBody struct {
    Selection pricing.Selection `json:"selection"`
    Slot      string            `json:"slot"`
    Value     string            `json:"value"`
}

// Select handles POST /v1/catalog/:table/select.  With an empty slot it
// starts a new selection; otherwise it applies slot=value, clears every
// downstream choice and returns the next option list.  When the chain is
// complete the response carries the resolution.
func (h *CatalogHandler) Select(c echo.Context) error {
    table := c.Param("table")
    var body selectBody
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    ctx := c.Request().Context()
    var step pricing.Step
    var err error
    if strings.TrimSpace(body.Slot) == "" {
        step, err = h.Selector.Start(ctx, table)
    } else {
        step, err = h.Selector.Apply(ctx, table, body.Selection, body.Slot, strings.TrimSpace(body.Value))
    }
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, stepJSON(step))
}

// AirportLegs handles GET /v1/catalog/airport/legs?apply_type=both.  It
// returns one independent selection per leg with the category fixed and
// the route options loaded.
func (h *CatalogHandler) AirportLegs(c echo.Context) error {
    apply := pricing.ApplyType(strings.TrimSpace(c.QueryParam("apply_type")))
    cats, err := pricing.LegCategories(apply)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    ctx := c.Request().Context()
    legs := make([]echo.Map, 0, len(cats))
    for _, cat := range cats {
        empty := pricing.Selection{Values: map[string]string{}, Options: map[string][]string{}}
        step, err := h.Selector.Apply(ctx, pricing.AirportPrice, empty, pricing.AirportCategorySlot, cat)
        if err != nil {
            return writeError(c, err)
        }
        legs = append(legs, stepJSON(step))
    }
    return c.JSON(http.StatusOK, echo.Map{"apply_type": apply, "legs": legs})
}

func stepJSON(step pricing.Step) echo.Map {
    out := echo.Map{"selection": step.Selection, "next": step.Next}
    if r := step.Resolution; r != nil {
        res := echo.Map{"outcome": r.Outcome.String()}
        switch r.Outcome {
        case pricing.Found:
            res["code"] = r.Code
            res["price"] = r.Entry.Price
        case pricing.Ambiguous:
            codes := make([]string, 0, len(r.Candidates))
            for _, e := range r.Candidates {
                codes = append(codes, e.Code)
            }
            res["codes"] = codes
        }
        out["resolution"] = res
    }
    return out
}
