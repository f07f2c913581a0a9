package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/classroom-booking/internal/model"
)

// ReservationRepo owns the reservations table.  Rows are appended and
// updated, never deleted: a cancelled reservation stays behind for audit
// history.  All mutations happen inside the reservation write
// transaction while the per-session lock is held.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given
// database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, student_id, classroom, date, start_time, end_time,
       status, venue, classroom_type, first_lecture, options, cancel_reason,
       created_at, updated_at`

// Append inserts a new reservation row and reads back the row to
// populate server-generated timestamps.
func (r *ReservationRepo) Append(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations
       (id, student_id, classroom, date, start_time, end_time, status,
        venue, classroom_type, first_lecture, options, cancel_reason)
       VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		res.ID, res.StudentID, res.Classroom, res.Date, res.StartTime, res.EndTime,
		res.Status, res.Venue, res.ClassroomType, res.FirstLecture, res.Options, res.CancelReason,
	)
	if err != nil {
		return err
	}
	stored, err := r.FindByID(ctx, res.ID)
	if err != nil {
		return err
	}
	res.CreatedAt = stored.CreatedAt
	res.UpdatedAt = stored.UpdatedAt
	return nil
}

// FindByID returns the reservation with the given id, or ErrNotFound.
func (r *ReservationRepo) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

// UpdateByID rewrites the mutable columns of an existing reservation.
// The id, student and creation timestamp never change.
func (r *ReservationRepo) UpdateByID(ctx context.Context, res *model.Reservation) error {
	const q = `UPDATE reservations SET
       classroom = ?, date = ?, start_time = ?, end_time = ?, status = ?,
       venue = ?, classroom_type = ?, first_lecture = ?, options = ?, cancel_reason = ?
       WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q,
		res.Classroom, res.Date, res.StartTime, res.EndTime, res.Status,
		res.Venue, res.ClassroomType, res.FirstLecture, res.Options, res.CancelReason,
		res.ID,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// The row may match its previous values; distinguish absence.
		if _, err := r.FindByID(ctx, res.ID); err != nil {
			return err
		}
	}
	return nil
}

// ListBySession returns every reservation for the (date, classroom)
// pair, any status.  The write transaction filters for occupancy itself.
func (r *ReservationRepo) ListBySession(ctx context.Context, date, classroom string) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
       WHERE date = ? AND classroom = ? ORDER BY created_at`
	return r.list(ctx, q, date, classroom)
}

// ListActiveByStudentAndDate returns the student's non-cancelled
// reservations on a date.  Used for the one-booking-per-day rule.
func (r *ReservationRepo) ListActiveByStudentAndDate(ctx context.Context, studentID uint64, date string) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
       WHERE student_id = ? AND date = ? AND status <> 'CANCELLED' ORDER BY created_at`
	return r.list(ctx, q, studentID, date)
}

// ListByStudent returns all of a student's reservations, newest first.
func (r *ReservationRepo) ListByStudent(ctx context.Context, studentID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
       WHERE student_id = ? ORDER BY created_at DESC`
	return r.list(ctx, q, studentID)
}

// ListAll returns every reservation ordered by date.  It is the rebuild
// source for the ALL_RESERVATIONS snapshot.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations ORDER BY date, created_at`
	return r.list(ctx, q)
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(
		&res.ID, &res.StudentID, &res.Classroom, &res.Date, &res.StartTime, &res.EndTime,
		&res.Status, &res.Venue, &res.ClassroomType, &res.FirstLecture, &res.Options,
		&res.CancelReason, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
