package handler

import (
    "errors"
    "net/http"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/travel-booking-core/internal/booking"
    "github.com/iliyamo/travel-booking-core/internal/middleware"
    "github.com/iliyamo/travel-booking-core/internal/model"
    "github.com/iliyamo/travel-booking-core/internal/pricing"
)

// QuoteHandler exposes draft quotes, item additions, submission and the
// quote summary.  Every route runs behind JWTAuth.
type QuoteHandler struct {
    Quotes *booking.QuoteService
}

// NewQuoteHandler constructs a QuoteHandler.
func NewQuoteHandler(s *booking.QuoteService) *QuoteHandler {
    if s == nil {
        panic("nil service passed to NewQuoteHandler")
    }
    return &QuoteHandler{Quotes: s}
}

type airportLegBody struct {
    Route        string `json:"route" validate:"required"`
    CarType      string `json:"car_type" validate:"required"`
    UsageDate    string `json:"usage_date" validate:"date"`
    Location     string `json:"location" validate:"max=255"`
    FlightNumber string `json:"flight_number" validate:"max=32"`
}

type airportBody struct {
    ApplyType       string           `json:"apply_type" validate:"required,oneof=pickup sending both"`
    Legs            []airportLegBody `json:"legs" validate:"required,min=1,max=2,dive"`
    SpecialRequests *string          `json:"special_requests"`
}

type roomRowBody struct {
    Category    string `json:"category" validate:"required"`
    PersonCount int    `json:"person_count" validate:"gte=0"`
}

type roomBody struct {
    UsageDate       string        `json:"usage_date" validate:"required,date"`
    Schedule        string        `json:"schedule" validate:"required"`
    Cruise          string        `json:"cruise" validate:"required"`
    RoomType        string        `json:"room_type" validate:"required"`
    Rows            []roomRowBody `json:"rows" validate:"required,min=1,dive"`
    SpecialRequests *string       `json:"special_requests"`
}

type carBody struct {
    UsageDate       string  `json:"usage_date" validate:"required,date"`
    Schedule        string  `json:"schedule" validate:"required"`
    Cruise          string  `json:"cruise" validate:"required"`
    CarType         string  `json:"car_type" validate:"required"`
    CarCategory     string  `json:"car_category" validate:"required"`
    PassengerCount  int     `json:"passenger_count" validate:"gte=0"`
    VehicleCount    int     `json:"vehicle_count" validate:"gte=0"`
    Location        string  `json:"location" validate:"max=255"`
    SpecialRequests *string `json:"special_requests"`
}

type itemBody struct {
    ServiceType     string            `json:"service_type" validate:"required,oneof=hotel rentcar tour"`
    Values          map[string]string `json:"values" validate:"required"`
    UsageDate       string            `json:"usage_date" validate:"date"`
    Quantity        int               `json:"quantity" validate:"gte=0"`
    PersonCount     int               `json:"person_count" validate:"gte=0"`
    PassengerCount  int               `json:"passenger_count" validate:"gte=0"`
    VehicleCount    int               `json:"vehicle_count" validate:"gte=0"`
    Location        string            `json:"location" validate:"max=255"`
    SpecialRequests *string           `json:"special_requests"`
}

func quoteJSON(q *model.Quote) echo.Map {
    return echo.Map{
        "id":          q.ID,
        "user_id":     q.UserID,
        "title":       q.Title,
        "status":      q.Status,
        "total_price": q.TotalPrice,
        "created_at":  q.CreatedAt.Format(time.RFC3339),
    }
}

func itemsJSON(items []model.LineItem) []echo.Map {
    out := make([]echo.Map, 0, len(items))
    for _, it := range items {
        m := echo.Map{
            "id":             it.ID,
            "quote_id":       it.QuoteID,
            "service_type":   it.ServiceType,
            "service_ref_id": it.ServiceRefID,
            "quantity":       it.Quantity,
            "unit_price":     it.UnitPrice,
            "total_price":    it.TotalPrice,
        }
        if it.UsageDate != nil {
            m["usage_date"] = it.UsageDate.Format(pricing.DateLayout)
        }
        out = append(out, m)
    }
    return out
}

// itemsCreated answers an item addition: 201 with the new items, or 207
// with the items written and the failed rows when only some were stored.
func itemsCreated(c echo.Context, items []model.LineItem, err error) error {
    var perr *booking.PartialWriteError
    if errors.As(err, &perr) {
        out := partialJSON(perr)
        out["items"] = itemsJSON(items)
        return c.JSON(http.StatusMultiStatus, out)
    }
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"items": itemsJSON(items)})
}

func quoteID(c echo.Context) (uuid.UUID, error) {
    id, err := uuid.Parse(c.Param("id"))
    if err != nil {
        return uuid.Nil, &booking.ValidationError{Fields: map[string]string{"id": "invalid quote id"}}
    }
    return id, nil
}

// bindValid binds the JSON body into dst and runs the registered validator.
func bindValid(c echo.Context, dst interface{}) error {
    if err := c.Bind(dst); err != nil {
        return &booking.ValidationError{Fields: map[string]string{"body": "invalid request body"}}
    }
    return c.Validate(dst)
}

// Draft handles POST /v1/quotes/draft.  It returns the caller's latest
// draft quote, creating one when there is none.
func (h *QuoteHandler) Draft(c echo.Context) error {
    q, err := h.Quotes.DraftQuote(c.Request().Context(), middleware.CurrentUser(c))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, quoteJSON(q))
}

// AddAirport handles POST /v1/quotes/:id/airport.
func (h *QuoteHandler) AddAirport(c echo.Context) error {
    id, err := quoteID(c)
    if err != nil {
        return writeError(c, err)
    }
    var body airportBody
    if err := bindValid(c, &body); err != nil {
        return writeError(c, err)
    }
    req := booking.AirportRequest{QuoteID: id, ApplyType: pricing.ApplyType(body.ApplyType), SpecialRequests: body.SpecialRequests}
    for _, l := range body.Legs {
        d, err := parseDate(l.UsageDate)
        if err != nil {
            return writeError(c, err)
        }
        req.Legs = append(req.Legs, booking.AirportLegChoice{
            Route: l.Route, CarType: l.CarType, UsageDate: d, Location: l.Location, FlightNumber: l.FlightNumber,
        })
    }
    items, err := h.Quotes.AddAirport(c.Request().Context(), middleware.CurrentUser(c), req)
    return itemsCreated(c, items, err)
}

// AddRooms handles POST /v1/quotes/:id/rooms.
func (h *QuoteHandler) AddRooms(c echo.Context) error {
    id, err := quoteID(c)
    if err != nil {
        return writeError(c, err)
    }
    var body roomBody
    if err := bindValid(c, &body); err != nil {
        return writeError(c, err)
    }
    d, err := parseDate(body.UsageDate)
    if err != nil {
        return writeError(c, err)
    }
    req := booking.RoomRequest{
        QuoteID: id, UsageDate: d, Schedule: body.Schedule, Cruise: body.Cruise, RoomType: body.RoomType,
        SpecialRequests: body.SpecialRequests,
    }
    for _, r := range body.Rows {
        req.Rows = append(req.Rows, booking.RoomCount{Category: r.Category, PersonCount: r.PersonCount})
    }
    items, err := h.Quotes.AddRooms(c.Request().Context(), middleware.CurrentUser(c), req)
    return itemsCreated(c, items, err)
}

// AddCar handles POST /v1/quotes/:id/cars.
func (h *QuoteHandler) AddCar(c echo.Context) error {
    id, err := quoteID(c)
    if err != nil {
        return writeError(c, err)
    }
    var body carBody
    if err := bindValid(c, &body); err != nil {
        return writeError(c, err)
    }
    d, err := parseDate(body.UsageDate)
    if err != nil {
        return writeError(c, err)
    }
    items, err := h.Quotes.AddCar(c.Request().Context(), middleware.CurrentUser(c), booking.CarRequest{
        QuoteID: id, UsageDate: d, Schedule: body.Schedule, Cruise: body.Cruise,
        CarType: body.CarType, CarCategory: body.CarCategory,
        PassengerCount: body.PassengerCount, VehicleCount: body.VehicleCount,
        Location: body.Location, SpecialRequests: body.SpecialRequests,
    })
    return itemsCreated(c, items, err)
}

// AddItem handles POST /v1/quotes/:id/items for hotel, rent car and tour.
func (h *QuoteHandler) AddItem(c echo.Context) error {
    id, err := quoteID(c)
    if err != nil {
        return writeError(c, err)
    }
    var body itemBody
    if err := bindValid(c, &body); err != nil {
        return writeError(c, err)
    }
    d, err := parseDate(body.UsageDate)
    if err != nil {
        return writeError(c, err)
    }
    items, err := h.Quotes.AddItem(c.Request().Context(), middleware.CurrentUser(c), booking.ItemRequest{
        QuoteID: id, ServiceType: model.ServiceType(body.ServiceType), Values: body.Values, UsageDate: d,
        Quantity: body.Quantity, PersonCount: body.PersonCount, PassengerCount: body.PassengerCount,
        VehicleCount: body.VehicleCount, Location: body.Location, SpecialRequests: body.SpecialRequests,
    })
    return itemsCreated(c, items, err)
}

// Submit handles POST /v1/quotes/:id/submit.
func (h *QuoteHandler) Submit(c echo.Context) error {
    id, err := quoteID(c)
    if err != nil {
        return writeError(c, err)
    }
    q, err := h.Quotes.Submit(c.Request().Context(), middleware.CurrentUser(c), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, quoteJSON(q))
}

// Summary handles GET /v1/quotes/:id/summary.
func (h *QuoteHandler) Summary(c echo.Context) error {
    id, err := quoteID(c)
    if err != nil {
        return writeError(c, err)
    }
    s, err := h.Quotes.Summary(c.Request().Context(), middleware.CurrentUser(c), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, s)
}
