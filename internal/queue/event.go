// Package queue defines message payloads exchanged over the message
// broker and the background consumer that processes them.
package queue

// ReservationConfirmedEvent is published when a reservation commits with
// CONFIRMED status, either at booking time or on waitlist promotion.  It
// carries enough for downstream consumers to log or notify without
// querying the primary database.
type ReservationConfirmedEvent struct {
	ReservationID string `json:"reservation_id"`
	StudentID     uint64 `json:"student_id"`
	Classroom     string `json:"classroom"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Venue         string `json:"venue"`
	ClassroomType string `json:"classroom_type"`
	FirstLecture  bool   `json:"first_lecture"`
	ConfirmedAt   string `json:"confirmed_at"`
}
