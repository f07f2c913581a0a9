package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/classroom-booking/internal/model"
)

// BillingRepo owns the billing_entries table.  One entry is written per
// completed reservation; the unique key on reservation_id makes the
// completion step idempotent at the storage level.
type BillingRepo struct {
	db *sql.DB
}

// NewBillingRepo returns a BillingRepo bound to the given database.
func NewBillingRepo(db *sql.DB) *BillingRepo { return &BillingRepo{db: db} }

// Append inserts a billing entry and populates its generated ID.
func (r *BillingRepo) Append(ctx context.Context, e *model.BillingEntry) error {
	const q = `INSERT INTO billing_entries
       (reservation_id, student_id, date, month, amount_cents)
       VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, e.ReservationID, e.StudentID, e.Date, e.Month, e.AmountCents)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// ListAll returns every billing entry ordered by month then creation.
// It is the rebuild source for the ACCOUNTING_MASTER snapshot.
func (r *BillingRepo) ListAll(ctx context.Context) ([]model.BillingEntry, error) {
	const q = `SELECT id, reservation_id, student_id, date, month, amount_cents, created_at
       FROM billing_entries ORDER BY month, created_at`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.BillingEntry, 0)
	for rows.Next() {
		var e model.BillingEntry
		if err := rows.Scan(&e.ID, &e.ReservationID, &e.StudentID, &e.Date, &e.Month, &e.AmountCents, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
