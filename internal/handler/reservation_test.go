package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/classroom-booking/internal/booking"
	"github.com/iliyamo/classroom-booking/internal/model"
	"github.com/iliyamo/classroom-booking/internal/repository"
)

type stubReader struct {
	byID map[string]*model.Reservation
}

func (s *stubReader) FindByID(_ context.Context, id string) (*model.Reservation, error) {
	r, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r, nil
}

func (s *stubReader) ListByStudent(_ context.Context, studentID uint64) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range s.byID {
		if r.StudentID == studentID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func testContext(t *testing.T, method, target string, studentID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if studentID > 0 {
		c.Set("student_id", studentID)
	}
	return c, rec
}

func TestGetReservationOwnerOnly(t *testing.T) {
	res := &model.Reservation{
		ID: "r1", StudentID: 7, Classroom: "Tokyo", Date: "2026-09-01",
		StartTime: "10:00", EndTime: "17:00", Status: model.StatusConfirmed,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	h := &ReservationHandler{Store: &stubReader{byID: map[string]*model.Reservation{"r1": res}}}

	c, rec := testContext(t, http.MethodGet, "/v1/reservations/r1", 7)
	c.SetParamNames("id")
	c.SetParamValues("r1")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = testContext(t, http.MethodGet, "/v1/reservations/r1", 8)
	c.SetParamNames("id")
	c.SetParamValues("r1")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	c, rec = testContext(t, http.MethodGet, "/v1/reservations/nope", 7)
	c.SetParamNames("id")
	c.SetParamValues("nope")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetReservationUnauthenticated(t *testing.T) {
	h := &ReservationHandler{Store: &stubReader{byID: map[string]*model.Reservation{}}}
	c, rec := testContext(t, http.MethodGet, "/v1/reservations/r1", 0)
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWriteBookingErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{booking.ErrValidation, http.StatusBadRequest},
		{booking.ErrDuplicateBooking, http.StatusConflict},
		{booking.ErrCapacityFull, http.StatusConflict},
		{booking.ErrImmutable, http.StatusConflict},
		{booking.ErrSessionNotFound, http.StatusNotFound},
		{booking.ErrNotFound, http.StatusNotFound},
		{booking.ErrNotOwner, http.StatusForbidden},
		{booking.ErrLockTimeout, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		c, rec := testContext(t, http.MethodPost, "/v1/reservations", 7)
		require.NoError(t, writeBookingError(c, tc.err))
		assert.Equal(t, tc.status, rec.Code, "%v", tc.err)
	}
}

func TestWriteBookingErrorLockTimeoutRetryAfter(t *testing.T) {
	c, rec := testContext(t, http.MethodPost, "/v1/reservations", 7)
	require.NoError(t, writeBookingError(c, booking.ErrLockTimeout))
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
}
