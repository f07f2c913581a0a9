package model

import "time"

// Reservation statuses.  Transitions are restricted: CONFIRMED may move
// to CANCELLED or COMPLETED, WAITLISTED may move to CONFIRMED or
// CANCELLED.  A CANCELLED reservation is never reactivated; the row is
// retained for audit history.
const (
	StatusConfirmed  = "CONFIRMED"
	StatusWaitlisted = "WAITLISTED"
	StatusCancelled  = "CANCELLED"
	StatusCompleted  = "COMPLETED"
)

// Reservation records a student's claim on a classroom session.  The ID
// is generated server-side at creation and never supplied by clients.
//
// Fields:
//  ID            – UUID string, primary key.
//  StudentID     – student who owns the reservation.
//  Classroom     – classroom of the target session.
//  Date          – session date, "2006-01-02".
//  StartTime     – booked window start "HH:MM".
//  EndTime       – booked window end "HH:MM".
//  Status        – CONFIRMED, WAITLISTED, CANCELLED or COMPLETED.
//  Venue         – venue snapshot taken from the session at booking time.
//  ClassroomType – session type snapshot.
//  FirstLecture  – true when this is the student's beginner lecture.
//  Options       – free-form descriptive options, preserved verbatim
//                  across updates; immaterial to capacity logic.
//  CancelReason  – optional reason recorded on cancellation.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Reservation struct {
	ID            string    // reservations.id
	StudentID     uint64    // reservations.student_id
	Classroom     string    // reservations.classroom
	Date          string    // reservations.date
	StartTime     string    // reservations.start_time
	EndTime       string    // reservations.end_time
	Status        string    // reservations.status
	Venue         string    // reservations.venue
	ClassroomType string    // reservations.classroom_type
	FirstLecture  bool      // reservations.first_lecture
	Options       string    // reservations.options
	CancelReason  string    // reservations.cancel_reason
	CreatedAt     time.Time // reservations.created_at
	UpdatedAt     time.Time // reservations.updated_at
}

// Active reports whether the reservation still claims its day: any
// status other than CANCELLED.  Used for the one-booking-per-day rule.
func (r *Reservation) Active() bool {
	return r.Status != StatusCancelled
}

// OccupiesCapacity reports whether the reservation counts against slot
// capacity.  Waitlisted reservations wait outside the capacity count;
// completed ones occupied their slot and keep counting.
func (r *Reservation) OccupiesCapacity() bool {
	return r.Status == StatusConfirmed || r.Status == StatusCompleted
}

// CanTransition reports whether moving from the reservation's current
// status to next is a legal lifecycle step.
func (r *Reservation) CanTransition(next string) bool {
	switch r.Status {
	case StatusConfirmed:
		return next == StatusCancelled || next == StatusCompleted
	case StatusWaitlisted:
		return next == StatusConfirmed || next == StatusCancelled
	default:
		return false
	}
}
