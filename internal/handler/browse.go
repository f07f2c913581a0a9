package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/classroom-booking/internal/availability"
	"github.com/iliyamo/classroom-booking/internal/cache"
	"github.com/iliyamo/classroom-booking/internal/catalog"
	"github.com/iliyamo/classroom-booking/internal/model"
	"github.com/iliyamo/classroom-booking/internal/repository"
)

// ReservationSource is the authoritative reader backing the
// ALL_RESERVATIONS snapshot rebuild.
type ReservationSource interface {
	ListAll(ctx context.Context) ([]model.Reservation, error)
}

// BrowseHandler serves the cache-backed read paths: availability per
// session and the session list.  These paths tolerate bounded staleness;
// the write transaction never reads through them.
type BrowseHandler struct {
	Catalog      *catalog.Catalog
	Cache        *cache.Cache
	Reservations ReservationSource
}

// NewBrowseHandler constructs a BrowseHandler.
func NewBrowseHandler(cat *catalog.Catalog, c *cache.Cache, reservations ReservationSource) *BrowseHandler {
	return &BrowseHandler{Catalog: cat, Cache: c, Reservations: reservations}
}

// GetAvailability handles GET /v1/availability?classroom=&date=.  It
// reports remaining capacity and fullness per slot from the cached
// snapshots.
func (h *BrowseHandler) GetAvailability(c echo.Context) error {
	classroom := c.QueryParam("classroom")
	date := c.QueryParam("date")
	if classroom == "" || !model.ValidDate(date) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "classroom and date (YYYY-MM-DD) required"})
	}
	ctx := c.Request().Context()

	sess, err := h.Catalog.FindSession(ctx, date, classroom)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load schedule"})
	}

	entry, err := h.Cache.GetOrRebuild(ctx, cache.KeyAllReservations, func(ctx context.Context) (any, error) {
		return h.Reservations.ListAll(ctx)
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	var all []model.Reservation
	if err := entry.Decode(&all); err != nil {
		h.Cache.Invalidate(ctx, cache.KeyAllReservations)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	forSession := make([]model.Reservation, 0)
	for i := range all {
		if all[i].Date == date && all[i].Classroom == classroom {
			forSession = append(forSession, all[i])
		}
	}

	result, err := availability.Compute(sess, forSession)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute availability"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"classroom":        classroom,
		"date":             date,
		"per_slot":         result.PerSlot,
		"is_full":          result.IsFull,
		"snapshot_version": entry.Version,
	})
}

// ListSessions handles GET /v1/sessions?from=&to= with inclusive,
// optional date bounds.
func (h *BrowseHandler) ListSessions(c echo.Context) error {
	from := c.QueryParam("from")
	to := c.QueryParam("to")
	if from != "" && !model.ValidDate(from) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
	}
	if to != "" && !model.ValidDate(to) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
	}
	sessions, err := h.Catalog.ListSessions(c.Request().Context(), from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load schedule"})
	}
	items := make([]sessionView, 0, len(sessions))
	for i := range sessions {
		items = append(items, newSessionView(&sessions[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// sessionView is the JSON rendering of a session.
type sessionView struct {
	Classroom        string `json:"classroom"`
	Date             string `json:"date"`
	Venue            string `json:"venue"`
	ClassroomType    string `json:"classroom_type"`
	StartTime        string `json:"start_time,omitempty"`
	EndTime          string `json:"end_time,omitempty"`
	FirstStart       string `json:"first_start,omitempty"`
	FirstEnd         string `json:"first_end,omitempty"`
	SecondStart      string `json:"second_start,omitempty"`
	SecondEnd        string `json:"second_end,omitempty"`
	BeginnerStart    string `json:"beginner_start,omitempty"`
	MaxCapacity      int    `json:"max_capacity"`
	BeginnerCapacity int    `json:"beginner_capacity,omitempty"`
	IsCancelled      bool   `json:"is_cancelled"`
}

func newSessionView(s *model.Session) sessionView {
	return sessionView{
		Classroom:        s.Classroom,
		Date:             s.Date,
		Venue:            s.Venue,
		ClassroomType:    s.Type,
		StartTime:        s.StartTime,
		EndTime:          s.EndTime,
		FirstStart:       s.FirstStart,
		FirstEnd:         s.FirstEnd,
		SecondStart:      s.SecondStart,
		SecondEnd:        s.SecondEnd,
		BeginnerStart:    s.BeginnerStart,
		MaxCapacity:      s.MaxCapacity,
		BeginnerCapacity: s.BeginnerCapacity,
		IsCancelled:      s.IsCancelled,
	}
}
