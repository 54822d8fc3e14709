package handler

import (
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/travel-booking-core/internal/booking"
    "github.com/iliyamo/travel-booking-core/internal/middleware"
    "github.com/iliyamo/travel-booking-core/internal/model"
    "github.com/iliyamo/travel-booking-core/internal/pricing"
)

// ReservationHandler exposes reservation saving and lookup.
type ReservationHandler struct {
    Writer *booking.ReservationWriter
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(w *booking.ReservationWriter) *ReservationHandler {
    if w == nil {
        panic("nil writer passed to NewReservationHandler")
    }
    return &ReservationHandler{Writer: w}
}

type detailBody struct {
    Kind           string  `json:"kind" validate:"required"`
    PriceCode      string  `json:"price_code" validate:"required"`
    CarType        string  `json:"car_type"`
    Quantity       int     `json:"quantity" validate:"gte=0"`
    UsageDate      string  `json:"usage_date" validate:"date"`
    PassengerCount int     `json:"passenger_count" validate:"gte=0"`
    VehicleCount   int     `json:"vehicle_count" validate:"gte=0"`
    Location       string  `json:"location" validate:"max=255"`
    Note           *string `json:"note"`
}

type saveBody struct {
    QuoteID string       `json:"quote_id" validate:"required,uuid"`
    Type    string       `json:"type" validate:"required"`
    Details []detailBody `json:"details" validate:"required,min=1,dive"`
}

type statusBody struct {
    Status string `json:"status" validate:"required,oneof=pending confirmed completed cancelled"`
}

func reservationJSON(r *model.Reservation) echo.Map {
    return echo.Map{
        "id":         r.ID,
        "user_id":    r.UserID,
        "quote_id":   r.QuoteID,
        "type":       r.Type,
        "status":     r.Status,
        "created_at": r.CreatedAt.Format(time.RFC3339),
    }
}

func detailsJSON(details []model.ReservationDetail) []echo.Map {
    out := make([]echo.Map, 0, len(details))
    for _, d := range details {
        m := echo.Map{
            "id":              d.ID,
            "kind":            d.Kind,
            "price_code":      d.PriceCode,
            "quantity":        d.Quantity,
            "unit_price":      d.UnitPrice,
            "total_price":     d.TotalPrice,
            "passenger_count": d.PassengerCount,
            "vehicle_count":   d.VehicleCount,
            "location":        d.Location,
            "note":            d.Note,
        }
        if d.UsageDate != nil {
            m["usage_date"] = d.UsageDate.Format(pricing.DateLayout)
        }
        out = append(out, m)
    }
    return out
}

func reservationID(c echo.Context) (uuid.UUID, error) {
    id, err := uuid.Parse(c.Param("id"))
    if err != nil {
        return uuid.Nil, &booking.ValidationError{Fields: map[string]string{"id": "invalid reservation id"}}
    }
    return id, nil
}

// Save handles POST /v1/reservations.  A new reservation answers 201, a
// replaced one 200.  When some detail rows failed the response is 207 and
// carries both the rows written and the failures.
func (h *ReservationHandler) Save(c echo.Context) error {
    var body saveBody
    if err := bindValid(c, &body); err != nil {
        return writeError(c, err)
    }
    req := booking.SaveRequest{QuoteID: uuid.MustParse(body.QuoteID), Type: body.Type}
    for _, d := range body.Details {
        date, err := parseDate(d.UsageDate)
        if err != nil {
            return writeError(c, err)
        }
        req.Details = append(req.Details, booking.DetailDraft{
            Kind: d.Kind, PriceCode: d.PriceCode, CarType: d.CarType, Quantity: d.Quantity,
            UsageDate: date, PassengerCount: d.PassengerCount, VehicleCount: d.VehicleCount,
            Location: d.Location, Note: d.Note,
        })
    }

    res, err := h.Writer.Save(c.Request().Context(), middleware.CurrentUser(c), req)
    var perr *booking.PartialWriteError
    if errors.As(err, &perr) && res != nil {
        out := partialJSON(perr)
        out["reservation"] = reservationJSON(&res.Reservation)
        out["details"] = detailsJSON(res.Details)
        return c.JSON(http.StatusMultiStatus, out)
    }
    if err != nil {
        return writeError(c, err)
    }
    status := http.StatusCreated
    if res.Updated {
        status = http.StatusOK
    }
    return c.JSON(status, echo.Map{
        "reservation": reservationJSON(&res.Reservation),
        "details":     detailsJSON(res.Details),
        "updated":     res.Updated,
    })
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
    id, err := reservationID(c)
    if err != nil {
        return writeError(c, err)
    }
    r, details, err := h.Writer.Details(c.Request().Context(), middleware.CurrentUser(c), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"reservation": reservationJSON(r), "details": detailsJSON(details)})
}

// Summary handles GET /v1/reservations/:id/summary.
func (h *ReservationHandler) Summary(c echo.Context) error {
    id, err := reservationID(c)
    if err != nil {
        return writeError(c, err)
    }
    s, err := h.Writer.Summary(c.Request().Context(), middleware.CurrentUser(c), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, s)
}

// UpdateStatus handles PATCH /v1/reservations/:id/status.  Staff only.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
    id, err := reservationID(c)
    if err != nil {
        return writeError(c, err)
    }
    var body statusBody
    if err := bindValid(c, &body); err != nil {
        return writeError(c, err)
    }
    r, err := h.Writer.UpdateStatus(c.Request().Context(), middleware.CurrentUser(c), id, body.Status)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, reservationJSON(r))
}

// List handles GET /v1/staff/reservations.  Query parameters status,
// type, user_id and quote_id filter; page and page_size paginate.
func (h *ReservationHandler) List(c echo.Context) error {
    f := model.ReservationFilter{Status: c.QueryParam("status"), Type: c.QueryParam("type")}
    verr := &booking.ValidationError{Fields: map[string]string{}}
    for key, dst := range map[string]*uuid.UUID{"user_id": &f.UserID, "quote_id": &f.QuoteID} {
        if v := c.QueryParam(key); v != "" {
            id, err := uuid.Parse(v)
            if err != nil {
                verr.Fields[key] = "invalid uuid"
                continue
            }
            *dst = id
        }
    }
    for key, dst := range map[string]*int{"page": &f.Page, "page_size": &f.PageSize} {
        if v := c.QueryParam(key); v != "" {
            n, err := strconv.Atoi(v)
            if err != nil || n < 1 {
                verr.Fields[key] = "must be a positive integer"
                continue
            }
            *dst = n
        }
    }
    if len(verr.Fields) > 0 {
        return writeError(c, verr)
    }
    items, total, err := h.Writer.List(c.Request().Context(), middleware.CurrentUser(c), f)
    if err != nil {
        return writeError(c, err)
    }
    out := make([]echo.Map, 0, len(items))
    for i := range items {
        out = append(out, reservationJSON(&items[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out, "count": len(out), "total": total})
}
