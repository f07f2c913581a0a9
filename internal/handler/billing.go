package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/classroom-booking/internal/cache"
	"github.com/iliyamo/classroom-booking/internal/model"
)

// BillingSource is the authoritative reader backing the
// ACCOUNTING_MASTER snapshot rebuild.
type BillingSource interface {
	ListAll(ctx context.Context) ([]model.BillingEntry, error)
}

// BillingHandler serves the cached accounting snapshot.
type BillingHandler struct {
	Cache   *cache.Cache
	Billing BillingSource
}

// NewBillingHandler constructs a BillingHandler.
func NewBillingHandler(c *cache.Cache, billing BillingSource) *BillingHandler {
	return &BillingHandler{Cache: c, Billing: billing}
}

// List handles GET /v1/billing?month=.  The authenticated student sees
// only their own entries, optionally filtered by invoicing month.
func (h *BillingHandler) List(c echo.Context) error {
	studentID, err := getStudentID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	month := c.QueryParam("month")
	if month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "month must be YYYY-MM"})
		}
	}
	ctx := c.Request().Context()

	entry, err := h.Cache.GetOrRebuild(ctx, cache.KeyAccountingMaster, func(ctx context.Context) (any, error) {
		return h.Billing.ListAll(ctx)
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load billing"})
	}
	var all []model.BillingEntry
	if err := entry.Decode(&all); err != nil {
		h.Cache.Invalidate(ctx, cache.KeyAccountingMaster)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load billing"})
	}

	items := make([]billingView, 0)
	for i := range all {
		e := &all[i]
		if e.StudentID != studentID {
			continue
		}
		if month != "" && e.Month != month {
			continue
		}
		items = append(items, billingView{
			ReservationID: e.ReservationID,
			Date:          e.Date,
			Month:         e.Month,
			AmountCents:   e.AmountCents,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "snapshot_version": entry.Version})
}

type billingView struct {
	ReservationID string `json:"reservation_id"`
	Date          string `json:"date"`
	Month         string `json:"month"`
	AmountCents   uint32 `json:"amount_cents"`
}
