package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/classroom-booking/internal/booking"
	"github.com/iliyamo/classroom-booking/internal/model"
	"github.com/iliyamo/classroom-booking/internal/repository"
)

// ReservationReader reads committed reservations for display.
type ReservationReader interface {
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	ListByStudent(ctx context.Context, studentID uint64) ([]model.Reservation, error)
}

// ReservationHandler exposes the write transaction over HTTP.  All
// methods assume JWT authentication has populated the student id.
type ReservationHandler struct {
	Svc   *booking.Service
	Store ReservationReader
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(svc *booking.Service, store ReservationReader) *ReservationHandler {
	return &ReservationHandler{Svc: svc, Store: store}
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	studentID, err := getStudentID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req booking.BookRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.StudentID = studentID

	res, err := h.Svc.Book(c.Request().Context(), req)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": newReservationView(res)})
}

// Cancel handles DELETE /v1/reservations/:id.  Cancelling twice reports
// success both times.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	studentID, err := getStudentID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.Bind(&body) // reason is optional; an empty body is fine

	if err := h.Svc.Cancel(c.Request().Context(), c.Param("id"), studentID, body.Reason); err != nil {
		return writeBookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Update handles PATCH /v1/reservations/:id.
func (h *ReservationHandler) Update(c echo.Context) error {
	studentID, err := getStudentID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var patch booking.UpdatePatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.Svc.Update(c.Request().Context(), c.Param("id"), studentID, patch)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": newReservationView(res)})
}

// Confirm handles POST /v1/reservations/:id/confirm, promoting a
// waitlisted reservation when capacity allows.
func (h *ReservationHandler) Confirm(c echo.Context) error {
	studentID, err := getStudentID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	res, err := h.Svc.ConfirmWaitlisted(c.Request().Context(), c.Param("id"), studentID)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": newReservationView(res)})
}

// Complete handles POST /v1/reservations/:id/complete, marking
// attendance and writing the billing entry.
func (h *ReservationHandler) Complete(c echo.Context) error {
	studentID, err := getStudentID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	res, err := h.Svc.Complete(c.Request().Context(), c.Param("id"), studentID)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": newReservationView(res)})
}

// Get handles GET /v1/reservations/:id for the owning student.
func (h *ReservationHandler) Get(c echo.Context) error {
	studentID, err := getStudentID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	res, err := h.Store.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reservation"})
	}
	if res.StudentID != studentID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": newReservationView(res)})
}

// ListMine handles GET /v1/my-reservations.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	studentID, err := getStudentID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.Store.ListByStudent(c.Request().Context(), studentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	items := make([]reservationView, 0, len(list))
	for i := range list {
		items = append(items, newReservationView(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// writeBookingError maps write-transaction errors onto HTTP responses.
// Business rejections carry a stable code so clients can present
// alternatives; infrastructure failures signal that a retry may help.
func writeBookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, booking.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "code": "validation"})
	case errors.Is(err, booking.ErrDuplicateBooking):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already booked that day", "code": "duplicate_booking"})
	case errors.Is(err, booking.ErrCapacityFull):
		return c.JSON(http.StatusConflict, echo.Map{"error": "slot is full", "code": "capacity_full"})
	case errors.Is(err, booking.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found", "code": "session_not_found"})
	case errors.Is(err, booking.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found", "code": "not_found"})
	case errors.Is(err, booking.ErrNotOwner):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "code": "not_owner"})
	case errors.Is(err, booking.ErrImmutable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation can no longer be modified", "code": "immutable"})
	case errors.Is(err, booking.ErrLockTimeout):
		c.Response().Header().Set("Retry-After", "2")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "system busy, retry", "code": "lock_timeout"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error", "code": "internal"})
	}
}

// reservationView is the JSON rendering of a reservation.
type reservationView struct {
	ID            string    `json:"id"`
	StudentID     uint64    `json:"student_id"`
	Classroom     string    `json:"classroom"`
	Date          string    `json:"date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	Status        string    `json:"status"`
	Venue         string    `json:"venue,omitempty"`
	ClassroomType string    `json:"classroom_type,omitempty"`
	FirstLecture  bool      `json:"first_lecture"`
	Options       string    `json:"options,omitempty"`
	CancelReason  string    `json:"cancel_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newReservationView(r *model.Reservation) reservationView {
	return reservationView{
		ID:            r.ID,
		StudentID:     r.StudentID,
		Classroom:     r.Classroom,
		Date:          r.Date,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		Status:        r.Status,
		Venue:         r.Venue,
		ClassroomType: r.ClassroomType,
		FirstLecture:  r.FirstLecture,
		Options:       r.Options,
		CancelReason:  r.CancelReason,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
