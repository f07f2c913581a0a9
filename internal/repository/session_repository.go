package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/classroom-booking/internal/model"
)

// SessionRepo reads session definitions from the sessions table.  The
// table is append-mostly and owned by an administrative process; this
// service never mutates it.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo returns a SessionRepo bound to the given database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

const sessionColumns = `id, classroom, date, venue, classroom_type,
       start_time, end_time, first_start, first_end, second_start, second_end,
       beginner_start, max_capacity, beginner_capacity, billing_rate_cents,
       is_cancelled, created_at, updated_at`

// FindByDateClassroom returns the session for the (date, classroom)
// pair, or ErrNotFound when the date is unscheduled.  At most one row
// can match; the pair carries a unique key.
func (r *SessionRepo) FindByDateClassroom(ctx context.Context, date, classroom string) (*model.Session, error) {
	const q = `SELECT ` + sessionColumns + ` FROM sessions WHERE date = ? AND classroom = ?`
	row := r.db.QueryRowContext(ctx, q, date, classroom)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// ListAll returns every session ordered by date then classroom.  It is
// the rebuild source for the SCHEDULE_MASTER snapshot.
func (r *SessionRepo) ListAll(ctx context.Context) ([]model.Session, error) {
	const q = `SELECT ` + sessionColumns + ` FROM sessions ORDER BY date, classroom`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*model.Session, error) {
	var s model.Session
	var start, end, firstStart, firstEnd, secondStart, secondEnd, beginnerStart sql.NullString
	err := row.Scan(
		&s.ID, &s.Classroom, &s.Date, &s.Venue, &s.Type,
		&start, &end, &firstStart, &firstEnd, &secondStart, &secondEnd,
		&beginnerStart, &s.MaxCapacity, &s.BeginnerCapacity, &s.BillingRateCents,
		&s.IsCancelled, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.StartTime = start.String
	s.EndTime = end.String
	s.FirstStart = firstStart.String
	s.FirstEnd = firstEnd.String
	s.SecondStart = secondStart.String
	s.SecondEnd = secondEnd.String
	s.BeginnerStart = beginnerStart.String
	return &s, nil
}
