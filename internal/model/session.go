package model

import "time"

// Classroom session types.  The type decides how the day is divided into
// bookable slots: session-based and full-day classrooms expose a single
// "all" slot, dual-slot classrooms expose independent morning and
// afternoon windows.
const (
	TypeSessionBased = "SESSION"
	TypeDualSlot     = "DUAL_SLOT"
	TypeFullDay      = "FULL_DAY"
)

// Slot names used by the availability calculator.
const (
	SlotAll      = "all"
	SlotFirst    = "first"
	SlotSecond   = "second"
	SlotBeginner = "beginner"
)

// Session represents one scheduled offering of a classroom on a calendar
// date.  Sessions are created and edited by an administrative process and
// are read-only to this service; exactly one session exists per
// (classroom, date) pair.
//
// Fields:
//  ID               – primary key identifier.
//  Classroom        – classroom name (e.g. "Tokyo").
//  Date             – calendar date, "2006-01-02", no time component.
//  Venue            – physical venue description.
//  Type             – SESSION, DUAL_SLOT or FULL_DAY.
//  StartTime        – opening time "HH:MM" (SESSION / FULL_DAY).
//  EndTime          – closing time "HH:MM" (SESSION / FULL_DAY).
//  FirstStart       – first-slot window start (DUAL_SLOT only).
//  FirstEnd         – first-slot window end.
//  SecondStart      – second-slot window start.
//  SecondEnd        – second-slot window end.
//  BeginnerStart    – optional beginner sub-slot start; empty when unused.
//  MaxCapacity      – maximum occupants per slot, never negative.
//  BeginnerCapacity – sub-allocation for the beginner slot; 0 means the
//                     beginner slot shares MaxCapacity.
//  BillingRateCents – amount billed when a reservation completes.
//  IsCancelled      – true when the session has been called off.
type Session struct {
	ID               uint64    // sessions.id
	Classroom        string    // sessions.classroom
	Date             string    // sessions.date
	Venue            string    // sessions.venue
	Type             string    // sessions.classroom_type
	StartTime        string    // sessions.start_time (nullable)
	EndTime          string    // sessions.end_time (nullable)
	FirstStart       string    // sessions.first_start (nullable)
	FirstEnd         string    // sessions.first_end (nullable)
	SecondStart      string    // sessions.second_start (nullable)
	SecondEnd        string    // sessions.second_end (nullable)
	BeginnerStart    string    // sessions.beginner_start (nullable)
	MaxCapacity      int       // sessions.max_capacity
	BeginnerCapacity int       // sessions.beginner_capacity
	BillingRateCents uint32    // sessions.billing_rate_cents
	IsCancelled      bool      // sessions.is_cancelled
	CreatedAt        time.Time // sessions.created_at
	UpdatedAt        time.Time // sessions.updated_at
}

// Window returns the overall bookable window of the session as minutes
// since midnight.  For dual-slot sessions it spans from the first slot's
// start to the second slot's end.
func (s *Session) Window() (start, end int, err error) {
	if s.Type == TypeDualSlot {
		start, err = ParseClock(s.FirstStart)
		if err != nil {
			return 0, 0, err
		}
		end, err = ParseClock(s.SecondEnd)
		if err != nil {
			return 0, 0, err
		}
		return start, end, nil
	}
	start, err = ParseClock(s.StartTime)
	if err != nil {
		return 0, 0, err
	}
	end, err = ParseClock(s.EndTime)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}
