// Package availability computes remaining capacity per slot for one
// session.  The computation is pure: it reads a session definition and
// the reservations loaded for it, and has no side effects.  Both the
// cached read path and the locked write path call into it; only the
// write path feeds it data re-read from the authoritative store.
package availability

import (
	"fmt"

	"github.com/iliyamo/classroom-booking/internal/model"
)

// Result reports remaining capacity and fullness per slot name.
type Result struct {
	PerSlot map[string]int  `json:"per_slot"`
	IsFull  map[string]bool `json:"is_full"`
}

type slotWindow struct {
	name     string
	start    int // minutes since midnight, inclusive
	end      int // exclusive
	capacity int
	// beginnerOnly slots only count reservations flagged as a first
	// lecture; the slot is a sub-allocation, not a shared window.
	beginnerOnly bool
}

// Compute derives the slot set from the session type and counts active
// reservations into each slot using a half-open interval intersection
// test.  A reservation spanning several slot windows counts toward each
// of them.  Remaining counts are clamped at zero: overbooking introduced
// by manual edits surfaces as IsFull, never as a negative number.  A
// cancelled session reports zero remaining and full for every slot.
func Compute(session *model.Session, reservations []model.Reservation) (Result, error) {
	slots, err := slotWindows(session, reservations)
	if err != nil {
		return Result{}, err
	}
	res := Result{
		PerSlot: make(map[string]int, len(slots)),
		IsFull:  make(map[string]bool, len(slots)),
	}
	for _, slot := range slots {
		if session.IsCancelled {
			res.PerSlot[slot.name] = 0
			res.IsFull[slot.name] = true
			continue
		}
		count := 0
		for i := range reservations {
			r := &reservations[i]
			if !r.OccupiesCapacity() {
				continue
			}
			if slot.beginnerOnly && !r.FirstLecture {
				continue
			}
			if occupies(r, slot.start, slot.end) {
				count++
			}
		}
		remaining := slot.capacity - count
		if remaining < 0 {
			remaining = 0
		}
		res.PerSlot[slot.name] = remaining
		res.IsFull[slot.name] = remaining == 0
	}
	return res, nil
}

// Remaining returns the remaining capacity for a single slot, or 0 when
// the slot is not part of the session's slot set.
func Remaining(session *model.Session, reservations []model.Reservation, slot string) (int, error) {
	res, err := Compute(session, reservations)
	if err != nil {
		return 0, err
	}
	return res.PerSlot[slot], nil
}

// SlotsSpanned returns the names of the session's slots whose windows
// intersect the half-open [startTime, endTime) interval.  A booking
// occupies every slot it intersects, so admission needs room in all of
// them; an all-day booking on a dual-slot session spans both windows.
// The beginner sub-slot is excluded: it is a sub-allocation with its
// own remaining count, see BeginnerRemaining.
func SlotsSpanned(session *model.Session, startTime, endTime string) ([]string, error) {
	start, err := model.ParseClock(startTime)
	if err != nil {
		return nil, err
	}
	end, err := model.ParseClock(endTime)
	if err != nil {
		return nil, err
	}
	slots, err := slotWindows(session, nil)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, w := range slots {
		if start < w.end && end > w.start {
			names = append(names, w.name)
		}
	}
	return names, nil
}

// BeginnerRemaining reports the remaining beginner sub-allocation for a
// booking spanning [startTime, endTime), and whether that interval
// touches the beginner window at all.  When it does not, the
// sub-allocation places no constraint on the booking.  Unlike Compute,
// the window is derived whether or not a first lecture is already
// booked: the caller asks on behalf of an incoming one.
func BeginnerRemaining(session *model.Session, reservations []model.Reservation, startTime, endTime string) (int, bool, error) {
	if session.BeginnerStart == "" {
		return 0, false, nil
	}
	start, err := model.ParseClock(startTime)
	if err != nil {
		return 0, false, err
	}
	end, err := model.ParseClock(endTime)
	if err != nil {
		return 0, false, err
	}
	bs, err := model.ParseClock(session.BeginnerStart)
	if err != nil {
		return 0, false, err
	}
	_, dayEnd, err := session.Window()
	if err != nil {
		return 0, false, err
	}
	if start >= dayEnd || end <= bs {
		return 0, false, nil
	}
	capacity := session.MaxCapacity
	if session.BeginnerCapacity > 0 {
		capacity = session.BeginnerCapacity
	}
	count := 0
	for i := range reservations {
		r := &reservations[i]
		if !r.OccupiesCapacity() || !r.FirstLecture {
			continue
		}
		if occupies(r, bs, dayEnd) {
			count++
		}
	}
	remaining := capacity - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true, nil
}

// occupies applies the half-open intersection test.  Reservations whose
// times cannot be parsed (mangled by manual edits) are counted into
// every slot: the conservative reading keeps a broken row from admitting
// an over-capacity booking.
func occupies(r *model.Reservation, slotStart, slotEnd int) bool {
	rs, err := model.ParseClock(r.StartTime)
	if err != nil {
		return true
	}
	re, err := model.ParseClock(r.EndTime)
	if err != nil {
		return true
	}
	return rs < slotEnd && re > slotStart
}

func slotWindows(s *model.Session, reservations []model.Reservation) ([]slotWindow, error) {
	var slots []slotWindow
	switch s.Type {
	case model.TypeDualSlot:
		fs, err := model.ParseClock(s.FirstStart)
		if err != nil {
			return nil, fmt.Errorf("session %s/%s: %w", s.Classroom, s.Date, err)
		}
		fe, err := model.ParseClock(s.FirstEnd)
		if err != nil {
			return nil, fmt.Errorf("session %s/%s: %w", s.Classroom, s.Date, err)
		}
		ss, err := model.ParseClock(s.SecondStart)
		if err != nil {
			return nil, fmt.Errorf("session %s/%s: %w", s.Classroom, s.Date, err)
		}
		se, err := model.ParseClock(s.SecondEnd)
		if err != nil {
			return nil, fmt.Errorf("session %s/%s: %w", s.Classroom, s.Date, err)
		}
		slots = append(slots,
			slotWindow{name: model.SlotFirst, start: fs, end: fe, capacity: s.MaxCapacity},
			slotWindow{name: model.SlotSecond, start: ss, end: se, capacity: s.MaxCapacity},
		)
	case model.TypeSessionBased, model.TypeFullDay:
		start, end, err := s.Window()
		if err != nil {
			return nil, fmt.Errorf("session %s/%s: %w", s.Classroom, s.Date, err)
		}
		slots = append(slots, slotWindow{name: model.SlotAll, start: start, end: end, capacity: s.MaxCapacity})
	default:
		return nil, fmt.Errorf("session %s/%s: unknown classroom type %q", s.Classroom, s.Date, s.Type)
	}

	if s.BeginnerStart != "" && hasFirstLecture(reservations) {
		bs, err := model.ParseClock(s.BeginnerStart)
		if err != nil {
			return nil, fmt.Errorf("session %s/%s: %w", s.Classroom, s.Date, err)
		}
		_, end, err := s.Window()
		if err != nil {
			return nil, fmt.Errorf("session %s/%s: %w", s.Classroom, s.Date, err)
		}
		capacity := s.MaxCapacity
		if s.BeginnerCapacity > 0 {
			capacity = s.BeginnerCapacity
		}
		slots = append(slots, slotWindow{
			name: model.SlotBeginner, start: bs, end: end,
			capacity: capacity, beginnerOnly: true,
		})
	}
	return slots, nil
}

func hasFirstLecture(reservations []model.Reservation) bool {
	for i := range reservations {
		if reservations[i].FirstLecture && reservations[i].Active() {
			return true
		}
	}
	return false
}
