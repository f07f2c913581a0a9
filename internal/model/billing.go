package model

import "time"

// BillingEntry is written when a reservation completes.  Entries feed the
// accounting master snapshot and are grouped by calendar month for
// invoicing.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – completed reservation this entry bills.
//  StudentID     – billed student.
//  Date          – session date of the completed reservation.
//  Month         – invoicing month, "2006-01".
//  AmountCents   – billed amount in cents.
//  CreatedAt     – creation timestamp.
type BillingEntry struct {
	ID            uint64    // billing_entries.id
	ReservationID string    // billing_entries.reservation_id
	StudentID     uint64    // billing_entries.student_id
	Date          string    // billing_entries.date
	Month         string    // billing_entries.month
	AmountCents   uint32    // billing_entries.amount_cents
	CreatedAt     time.Time // billing_entries.created_at
}
