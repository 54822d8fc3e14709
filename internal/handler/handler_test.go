package handler

import (
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/travel-booking-core/internal/booking"
    "github.com/iliyamo/travel-booking-core/internal/middleware"
    "github.com/iliyamo/travel-booking-core/internal/pricing"
    "github.com/iliyamo/travel-booking-core/internal/repository"
    "github.com/iliyamo/travel-booking-core/internal/utils"
)

const testSecret = "test-secret"

type testServer struct {
    e     *echo.Echo
    store *memStore
}

// newTestServer wires the handlers over in-memory stores with the same
// route layout as the router package.
func newTestServer(t *testing.T) *testServer {
    t.Helper()
    store := newMemStore()
    resolver := pricing.NewResolver(testCatalog())
    mat := booking.NewMaterializer(resolver, booking.DefaultShuttleRules)
    quotes := booking.NewQuoteService(quoteStore{store}, serviceStore{store}, resolver, mat, quietLogger())
    writer := booking.NewReservationWriter(reservationStore{store}, quoteStore{store}, mat, quietLogger())

    e := echo.New()
    e.Validator = NewValidator()
    cat := NewCatalogHandler(resolver)
    e.GET("/v1/catalog/airport/legs", cat.AirportLegs)
    e.GET("/v1/catalog/:table/options", cat.Options)
    e.GET("/v1/catalog/:table/resolve", cat.Resolve)
    e.POST("/v1/catalog/:table/select", cat.Select)

    q := NewQuoteHandler(quotes)
    r := NewReservationHandler(writer)
    g := e.Group("/v1", middleware.JWTAuth(testSecret))
    g.POST("/quotes/draft", q.Draft)
    g.POST("/quotes/:id/airport", q.AddAirport)
    g.POST("/quotes/:id/items", q.AddItem)
    g.POST("/quotes/:id/submit", q.Submit)
    g.GET("/quotes/:id/summary", q.Summary)
    g.POST("/reservations", r.Save)
    g.GET("/reservations/:id", r.Get)
    g.GET("/reservations/:id/summary", r.Summary)
    staff := e.Group("/v1/staff", middleware.JWTAuth(testSecret), middleware.RequireRole(middleware.RoleStaff))
    staff.GET("/reservations", r.List)
    staff.PATCH("/reservations/:id/status", r.UpdateStatus)
    return &testServer{e: e, store: store}
}

func token(t *testing.T, id uuid.UUID, role string) string {
    t.Helper()
    tok, err := utils.NewAccessToken(testSecret, id, "u@example.com", role, time.Hour)
    require.NoError(t, err)
    return tok.Token
}

func (s *testServer) do(t *testing.T, method, path, tok, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
    t.Helper()
    var req *http.Request
    if body == "" {
        req = httptest.NewRequest(method, path, nil)
    } else {
        req = httptest.NewRequest(method, path, strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    if tok != "" {
        req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
    }
    rec := httptest.NewRecorder()
    s.e.ServeHTTP(rec, req)
    out := map[string]interface{}{}
    _ = json.Unmarshal(rec.Body.Bytes(), &out)
    return rec, out
}

func TestCatalogOptionsAndResolve(t *testing.T) {
    s := newTestServer(t)

    rec, body := s.do(t, http.MethodGet, "/v1/catalog/airport_price/options?attr=airport_route&airport_category="+pricing.CategoryPickup, "", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, []interface{}{"다낭공항"}, body["options"])

    rec, body = s.do(t, http.MethodGet, "/v1/catalog/airport_price/resolve?airport_category="+pricing.CategorySending+"&airport_route=다낭공항&airport_car_type=4인승", "", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "AP-002", body["code"])
    assert.EqualValues(t, 180000, body["price"])
}

func TestCatalogResolveOutcomes(t *testing.T) {
    s := newTestServer(t)

    rec, _ := s.do(t, http.MethodGet, "/v1/catalog/airport_price/resolve?airport_category="+pricing.CategoryPickup, "", "")
    assert.Equal(t, http.StatusNotFound, rec.Code, "incomplete selection")

    rec, body := s.do(t, http.MethodGet, "/v1/catalog/tour_price/resolve?tour_name=하롱베이&tour_capacity=4&tour_vehicle=밴&tour_type=단독", "", "")
    require.Equal(t, http.StatusConflict, rec.Code)
    assert.ElementsMatch(t, []interface{}{"TR-1", "TR-2"}, body["codes"])

    rec, _ = s.do(t, http.MethodGet, "/v1/catalog/users/resolve", "", "")
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    rec, body = s.do(t, http.MethodPost, "/v1/catalog/room_price/select", "",
        `{"selection":{"values":{},"options":{}},"slot":"usage_date","value":"2026-13-45"}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
    assert.Contains(t, body["error"], "invalid usage date")
}

func TestCatalogAirportLegsFixesCategories(t *testing.T) {
    s := newTestServer(t)

    rec, body := s.do(t, http.MethodGet, "/v1/catalog/airport/legs?apply_type=both", "", "")
    require.Equal(t, http.StatusOK, rec.Code)
    legs, ok := body["legs"].([]interface{})
    require.True(t, ok)
    require.Len(t, legs, 2)
    for i, want := range []string{pricing.CategoryPickup, pricing.CategorySending} {
        sel := legs[i].(map[string]interface{})["selection"].(map[string]interface{})
        values := sel["values"].(map[string]interface{})
        assert.Equal(t, want, values[pricing.AirportCategorySlot])
    }

    rec, _ = s.do(t, http.MethodGet, "/v1/catalog/airport/legs?apply_type=roundtrip", "", "")
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuoteRequiresToken(t *testing.T) {
    s := newTestServer(t)
    rec, body := s.do(t, http.MethodPost, "/v1/quotes/draft", "", "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.Equal(t, booking.ErrAuthRequired.Error(), body["error"])
}

func TestQuoteAirportFlow(t *testing.T) {
    s := newTestServer(t)
    tok := token(t, uuid.New(), middleware.RoleCustomer)

    rec, q := s.do(t, http.MethodPost, "/v1/quotes/draft", tok, "")
    require.Equal(t, http.StatusOK, rec.Code)
    id := q["id"].(string)

    // Same draft comes back on the second call.
    _, again := s.do(t, http.MethodPost, "/v1/quotes/draft", tok, "")
    assert.Equal(t, id, again["id"])

    rec, body := s.do(t, http.MethodPost, "/v1/quotes/"+id+"/airport", tok, `{
        "apply_type": "both",
        "legs": [
            {"route": "다낭공항", "car_type": "4인승", "usage_date": "2026-11-02"},
            {"route": "다낭공항", "car_type": "4인승", "usage_date": "2026-11-05"}
        ]
    }`)
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    items := body["items"].([]interface{})
    require.Len(t, items, 2)
    assert.EqualValues(t, 200000, items[0].(map[string]interface{})["unit_price"])
    assert.EqualValues(t, 180000, items[1].(map[string]interface{})["unit_price"])

    rec, sum := s.do(t, http.MethodGet, "/v1/quotes/"+id+"/summary", tok, "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.EqualValues(t, 380000, sum["live_total"])

    rec, sub := s.do(t, http.MethodPost, "/v1/quotes/"+id+"/submit", tok, "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "submitted", sub["status"])
    assert.EqualValues(t, 380000, sub["total_price"])

    // Submitted quotes no longer accept items.
    rec, _ = s.do(t, http.MethodPost, "/v1/quotes/"+id+"/airport", tok, `{"apply_type":"pickup","legs":[{"route":"다낭공항","car_type":"4인승"}]}`)
    assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestQuoteAirportPartialWrite(t *testing.T) {
    s := newTestServer(t)
    tok := token(t, uuid.New(), middleware.RoleCustomer)
    _, q := s.do(t, http.MethodPost, "/v1/quotes/draft", tok, "")
    s.store.failServiceNth = 2

    rec, body := s.do(t, http.MethodPost, fmt.Sprintf("/v1/quotes/%s/airport", q["id"]), tok, `{
        "apply_type": "both",
        "legs": [
            {"route": "다낭공항", "car_type": "4인승"},
            {"route": "다낭공항", "car_type": "4인승"}
        ]
    }`)
    require.Equal(t, http.StatusMultiStatus, rec.Code, rec.Body.String())
    assert.EqualValues(t, 1, body["written"])
    require.Len(t, body["items"], 1)
    failures := body["failures"].([]interface{})
    require.Len(t, failures, 1)
    assert.EqualValues(t, 1, failures[0].(map[string]interface{})["index"])
    assert.Equal(t, "AP-002", failures[0].(map[string]interface{})["price_code"])
}

func TestQuoteValidationErrors(t *testing.T) {
    s := newTestServer(t)
    tok := token(t, uuid.New(), middleware.RoleCustomer)
    _, q := s.do(t, http.MethodPost, "/v1/quotes/draft", tok, "")
    id := q["id"].(string)

    rec, body := s.do(t, http.MethodPost, "/v1/quotes/"+id+"/airport", tok, `{"apply_type":"sideways","legs":[{"route":"","car_type":"4인승","usage_date":"02/11/2026"}]}`)
    require.Equal(t, http.StatusBadRequest, rec.Code)
    fields := body["fields"].(map[string]interface{})
    assert.Contains(t, fields, "apply_type")
    assert.Contains(t, fields, "legs[0].route")
    assert.Contains(t, fields, "legs[0].usage_date")

    rec, _ = s.do(t, http.MethodPost, "/v1/quotes/not-a-uuid/submit", tok, "")
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    // Empty quotes cannot be submitted.
    rec, _ = s.do(t, http.MethodPost, "/v1/quotes/"+id+"/submit", tok, "")
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuoteOwnership(t *testing.T) {
    s := newTestServer(t)
    owner := token(t, uuid.New(), middleware.RoleCustomer)
    other := token(t, uuid.New(), middleware.RoleCustomer)
    _, q := s.do(t, http.MethodPost, "/v1/quotes/draft", owner, "")

    rec, _ := s.do(t, http.MethodGet, fmt.Sprintf("/v1/quotes/%s/summary", q["id"]), other, "")
    assert.Equal(t, http.StatusForbidden, rec.Code)

    rec, _ = s.do(t, http.MethodGet, fmt.Sprintf("/v1/quotes/%s/summary", uuid.New()), owner, "")
    assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReservationSaveCreateThenUpdate(t *testing.T) {
    s := newTestServer(t)
    user := uuid.New()
    tok := token(t, user, middleware.RoleCustomer)
    _, q := s.do(t, http.MethodPost, "/v1/quotes/draft", tok, "")

    payload := fmt.Sprintf(`{"quote_id":%q,"type":"airport","details":[{"kind":"reservation_airport","price_code":"AP-001","quantity":1,"usage_date":"2026-11-02","passenger_count":3}]}`, q["id"])
    rec, body := s.do(t, http.MethodPost, "/v1/reservations", tok, payload)
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    res := body["reservation"].(map[string]interface{})
    resID := res["id"].(string)
    assert.Equal(t, "pending", res["status"])

    payload = fmt.Sprintf(`{"quote_id":%q,"type":"airport","details":[{"kind":"reservation_airport","price_code":"AP-002","quantity":2}]}`, q["id"])
    rec, body = s.do(t, http.MethodPost, "/v1/reservations", tok, payload)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    assert.Equal(t, true, body["updated"])
    assert.Equal(t, resID, body["reservation"].(map[string]interface{})["id"])

    rec, got := s.do(t, http.MethodGet, "/v1/reservations/"+resID, tok, "")
    require.Equal(t, http.StatusOK, rec.Code)
    details := got["details"].([]interface{})
    require.Len(t, details, 1, "previous details are replaced")
    assert.Equal(t, "AP-002", details[0].(map[string]interface{})["price_code"])
    assert.EqualValues(t, 360000, details[0].(map[string]interface{})["total_price"])

    rec, sum := s.do(t, http.MethodGet, "/v1/reservations/"+resID+"/summary", tok, "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.EqualValues(t, 360000, sum["total"])
}

func TestReservationSaveValidation(t *testing.T) {
    s := newTestServer(t)
    tok := token(t, uuid.New(), middleware.RoleCustomer)

    rec, body := s.do(t, http.MethodPost, "/v1/reservations", tok, `{"quote_id":"nope","type":"airport","details":[]}`)
    require.Equal(t, http.StatusBadRequest, rec.Code)
    fields := body["fields"].(map[string]interface{})
    assert.Contains(t, fields, "quote_id")
    assert.Contains(t, fields, "details")

    payload := fmt.Sprintf(`{"quote_id":%q,"type":"airport","details":[{"kind":"reservation_hotel","price_code":"AP-001"}]}`, uuid.New())
    rec, body = s.do(t, http.MethodPost, "/v1/reservations", tok, payload)
    require.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, body["fields"], "details[0].kind")
}

func TestReservationStatusIsStaffOnly(t *testing.T) {
    s := newTestServer(t)
    user := uuid.New()
    tok := token(t, user, middleware.RoleCustomer)
    _, q := s.do(t, http.MethodPost, "/v1/quotes/draft", tok, "")
    payload := fmt.Sprintf(`{"quote_id":%q,"type":"airport","details":[{"kind":"reservation_airport","price_code":"AP-001","quantity":1}]}`, q["id"])
    _, body := s.do(t, http.MethodPost, "/v1/reservations", tok, payload)
    resID := body["reservation"].(map[string]interface{})["id"].(string)
    path := "/v1/staff/reservations/" + resID + "/status"

    rec, _ := s.do(t, http.MethodPatch, path, tok, `{"status":"confirmed"}`)
    assert.Equal(t, http.StatusForbidden, rec.Code)

    staff := token(t, uuid.New(), middleware.RoleStaff)
    rec, got := s.do(t, http.MethodPatch, path, staff, `{"status":"confirmed"}`)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "confirmed", got["status"])

    rec, _ = s.do(t, http.MethodPatch, path, staff, `{"status":"pending"}`)
    assert.Equal(t, http.StatusConflict, rec.Code)

    rec, _ = s.do(t, http.MethodPatch, path, staff, `{"status":"archived"}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaffListReservations(t *testing.T) {
    s := newTestServer(t)
    user := uuid.New()
    tok := token(t, user, middleware.RoleCustomer)
    _, q := s.do(t, http.MethodPost, "/v1/quotes/draft", tok, "")
    payload := fmt.Sprintf(`{"quote_id":%q,"type":"airport","details":[{"kind":"reservation_airport","price_code":"AP-001","quantity":1}]}`, q["id"])
    rec, _ := s.do(t, http.MethodPost, "/v1/reservations", tok, payload)
    require.Equal(t, http.StatusCreated, rec.Code)

    staff := token(t, uuid.New(), middleware.RoleStaff)
    rec, body := s.do(t, http.MethodGet, "/v1/staff/reservations?status=pending&user_id="+user.String(), staff, "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.EqualValues(t, 1, body["total"])

    rec, body = s.do(t, http.MethodGet, "/v1/staff/reservations?status=lost&page=0", staff, "")
    require.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, body["fields"], "page")

    rec, body = s.do(t, http.MethodGet, "/v1/staff/reservations?status=lost", staff, "")
    require.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, body["fields"], "status")

    rec, _ = s.do(t, http.MethodGet, "/v1/staff/reservations", tok, "")
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWriteErrorMapping(t *testing.T) {
    cases := []struct {
        err  error
        code int
    }{
        {booking.ErrAuthRequired, http.StatusUnauthorized},
        {&booking.ValidationError{Fields: map[string]string{"x": "required"}}, http.StatusBadRequest},
        {&booking.PartialWriteError{Written: 1, Failures: []booking.RowError{{Index: 1, Kind: booking.KindCruise, Code: "RM-A", Err: repository.ErrTimeout}}}, http.StatusMultiStatus},
        {&pricing.AmbiguousMatchError{Table: pricing.TourPrice, Codes: []string{"A", "B"}}, http.StatusConflict},
        {fmt.Errorf("insert: %w", repository.ErrTimeout), http.StatusGatewayTimeout},
        {pricing.ErrNotFound, http.StatusNotFound},
        {repository.ErrNotFound, http.StatusNotFound},
        {repository.ErrForbidden, http.StatusForbidden},
        {repository.ErrConflict, http.StatusConflict},
        {pricing.ErrUnknownAttribute, http.StatusBadRequest},
        {fmt.Errorf("%w: %q", pricing.ErrInvalidDate, "2026-13-45"), http.StatusBadRequest},
        {errors.New("boom"), http.StatusInternalServerError},
    }
    e := echo.New()
    for _, tc := range cases {
        rec := httptest.NewRecorder()
        c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
        require.NoError(t, writeError(c, tc.err))
        assert.Equal(t, tc.code, rec.Code, tc.err.Error())
    }
}

func TestHealthReady(t *testing.T) {
    e := echo.New()
    rec := httptest.NewRecorder()
    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/readyz", nil), rec)
    h := &HealthHandler{DB: pingerFunc(func() error { return errors.New("down") })}
    require.NoError(t, h.Ready(c))
    assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

    rec = httptest.NewRecorder()
    c = e.NewContext(httptest.NewRequest(http.MethodGet, "/readyz", nil), rec)
    h = &HealthHandler{DB: pingerFunc(func() error { return nil })}
    require.NoError(t, h.Ready(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"redis":"disabled"`)
}
