package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-booking-core/internal/database"
	"github.com/iliyamo/travel-booking-core/internal/model"
	"github.com/iliyamo/travel-booking-core/internal/pricing"
)

func newMock(t *testing.T, dialect string) (Conn, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	d, err := database.DialectFor(dialect)
	require.NoError(t, err)
	return NewConn(db, d, time.Second), mock
}

func TestCatalogQueryMySQL(t *testing.T) {
	c, mock := newMock(t, database.MySQL)
	repo := NewCatalogRepo(c)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT code, price, airport_category, airport_route, airport_car_type, start_date, end_date FROM airport_price " +
			"WHERE airport_category = ? AND airport_route = ? ORDER BY airport_car_type, code")).
		WithArgs("픽업", "다낭공항").
		WillReturnRows(sqlmock.NewRows([]string{"code", "price", "airport_category", "airport_route", "airport_car_type", "start_date", "end_date"}).
			AddRow("AP-001", 200000, "픽업", "다낭공항", "4인승", nil, nil).
			AddRow("AP-003", 260000, "픽업", "다낭공항", nil, nil, nil))

	rows, err := repo.Query(context.Background(), pricing.Query{
		Table:   pricing.AirportPrice,
		Equals:  map[string]string{"airport_route": "다낭공항", "airport_category": "픽업"},
		OrderBy: "airport_car_type",
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "AP-001", rows[0].Code)
	assert.Equal(t, int64(200000), rows[0].Price)
	assert.Equal(t, "4인승", rows[0].Attr("airport_car_type"))
	assert.Equal(t, "", rows[1].Attr("airport_car_type"))
	assert.Nil(t, rows[0].StartDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogQueryPostgresDateWindow(t *testing.T) {
	c, mock := newMock(t, database.Postgres)
	repo := NewCatalogRepo(c)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM room_price WHERE cruise = $1 AND schedule = $2 AND (start_date IS NULL OR start_date <= $3) AND (end_date IS NULL OR end_date >= $4) ORDER BY code")).
		WithArgs("A", "1박2일", "2025-03-01", "2025-03-01").
		WillReturnRows(sqlmock.NewRows([]string{"code", "price", "schedule", "cruise", "room_type", "room_category", "start_date", "end_date"}).
			AddRow("R1", 1500000, "1박2일", "A", "발코니", "성인", start, nil))

	d := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rows, err := repo.Query(context.Background(), pricing.Query{
		Table:  pricing.RoomPrice,
		Equals: map[string]string{"schedule": "1박2일", "cruise": "A"},
		OnDate: &d,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].StartDate)
	assert.True(t, rows[0].StartDate.Equal(start))
	assert.Nil(t, rows[0].EndDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogQueryRejectsUnknownColumn(t *testing.T) {
	c, mock := newMock(t, database.MySQL)
	_, err := NewCatalogRepo(c).Query(context.Background(), pricing.Query{
		Table:  pricing.AirportPrice,
		Equals: map[string]string{"1=1 OR code": "x"},
	})
	assert.ErrorIs(t, err, pricing.ErrUnknownAttribute)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuoteGetByIDNotFound(t *testing.T) {
	c, mock := newMock(t, database.MySQL)
	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("FROM quote WHERE id = ?")).
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "status", "total_price", "created_at"}))

	_, err := NewQuoteRepo(c).GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuoteListItemsNullTotal(t *testing.T) {
	c, mock := newMock(t, database.MySQL)
	qid, iid, sid := uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM quote_item WHERE quote_id = ?")).
		WithArgs(qid.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quote_id", "service_type", "service_ref_id", "quantity", "unit_price", "total_price", "usage_date", "created_at"}).
			AddRow(iid.String(), qid.String(), "airport", sid.String(), 1, 200000, nil, nil, now))

	items, err := NewQuoteRepo(c).ListItems(context.Background(), qid)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, model.ServiceAirport, items[0].ServiceType)
	assert.Equal(t, sid, items[0].ServiceRefID)
	assert.Zero(t, items[0].TotalPrice)
	assert.Nil(t, items[0].UsageDate)
}

func TestReservationCreateDuplicate(t *testing.T) {
	c, mock := newMock(t, database.MySQL)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservation")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := NewReservationRepo(c).Create(context.Background(), &model.Reservation{
		UserID: uuid.New(), QuoteID: uuid.New(), Type: "airport", Status: model.StatusPending,
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestReservationDeleteDetailsTouchesEveryTable(t *testing.T) {
	c, mock := newMock(t, database.Postgres)
	id := uuid.New()
	for _, table := range database.DetailTables() {
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM "+table+" WHERE reservation_id = $1")).
			WithArgs(id.String()).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	require.NoError(t, NewReservationRepo(c).DeleteDetails(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationInsertDetailUnknownKind(t *testing.T) {
	c, mock := newMock(t, database.MySQL)
	err := NewReservationRepo(c).InsertDetail(context.Background(), &model.ReservationDetail{Kind: "reservation_spa"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoundTripTimeout(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	c := NewConn(db, database.Dialect{Name: database.MySQL}, 10*time.Millisecond)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservation SET re_status = ?")).
		WillDelayFor(200 * time.Millisecond).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewReservationRepo(c).UpdateStatus(context.Background(), uuid.New(), model.StatusConfirmed)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))
	assert.ErrorIs(t, classify(context.DeadlineExceeded), ErrTimeout)
	assert.ErrorIs(t, classify(context.DeadlineExceeded), context.DeadlineExceeded)
	assert.ErrorIs(t, classify(&mysql.MySQLError{Number: 1062}), ErrDuplicate)
	assert.Equal(t, assert.AnError, classify(assert.AnError))
}

func TestReservationListFiltersAndPages(t *testing.T) {
	c, mock := newMock(t, database.Postgres)
	repo := NewReservationRepo(c)
	id, user, quote := uuid.New(), uuid.New(), uuid.New()
	created := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reservation WHERE re_status = $1 AND re_type = $2")).
		WithArgs(model.StatusPending, "cruise").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(41))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE re_status = $1 AND re_type = $2 ORDER BY re_created_at DESC, re_id LIMIT $3 OFFSET $4")).
		WithArgs(model.StatusPending, "cruise", 20, 40).
		WillReturnRows(sqlmock.NewRows([]string{"re_id", "re_user_id", "re_quote_id", "re_type", "re_status", "re_created_at"}).
			AddRow(id, user, quote, "cruise", model.StatusPending, created))

	out, total, err := repo.List(context.Background(), model.ReservationFilter{Status: model.StatusPending, Type: "cruise", Page: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(41), total)
	require.Len(t, out, 1)
	assert.Equal(t, id, out[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPageBounds(t *testing.T) {
	limit, offset := pageBounds(0, 0)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)
	limit, offset = pageBounds(2, 500)
	assert.Equal(t, 100, limit)
	assert.Equal(t, 100, offset)
}
