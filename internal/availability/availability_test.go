package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/classroom-booking/internal/model"
)

func sessionBased(capacity int) *model.Session {
	return &model.Session{
		Classroom:   "Tokyo",
		Date:        "2026-09-01",
		Type:        model.TypeSessionBased,
		StartTime:   "10:00",
		EndTime:     "17:00",
		MaxCapacity: capacity,
	}
}

func dualSlot(capacity int) *model.Session {
	return &model.Session{
		Classroom:   "Osaka",
		Date:        "2026-09-01",
		Type:        model.TypeDualSlot,
		FirstStart:  "10:00",
		FirstEnd:    "12:30",
		SecondStart: "13:30",
		SecondEnd:   "16:00",
		MaxCapacity: capacity,
	}
}

func confirmed(id, start, end string) model.Reservation {
	return model.Reservation{
		ID: id, StudentID: 1, Classroom: "Tokyo", Date: "2026-09-01",
		StartTime: start, EndTime: end, Status: model.StatusConfirmed,
	}
}

func TestComputeSessionBased(t *testing.T) {
	sess := sessionBased(3)
	res, err := Compute(sess, []model.Reservation{
		confirmed("a", "10:00", "12:00"),
		confirmed("b", "10:00", "17:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{model.SlotAll: 1}, res.PerSlot)
	assert.False(t, res.IsFull[model.SlotAll])
}

func TestComputeDualSlotIndependentWindows(t *testing.T) {
	sess := dualSlot(2)
	res, err := Compute(sess, []model.Reservation{
		confirmed("a", "10:00", "12:30"),
		confirmed("b", "10:00", "12:30"),
		confirmed("c", "13:30", "16:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.PerSlot[model.SlotFirst])
	assert.True(t, res.IsFull[model.SlotFirst])
	assert.Equal(t, 1, res.PerSlot[model.SlotSecond])
	assert.False(t, res.IsFull[model.SlotSecond])
}

func TestComputeSpanningReservationCountsBothSlots(t *testing.T) {
	sess := dualSlot(1)
	res, err := Compute(sess, []model.Reservation{
		confirmed("a", "11:00", "14:00"),
	})
	require.NoError(t, err)
	assert.True(t, res.IsFull[model.SlotFirst])
	assert.True(t, res.IsFull[model.SlotSecond])
}

func TestComputeHalfOpenBoundary(t *testing.T) {
	// A reservation ending exactly when the second slot starts does not
	// touch the second slot.
	sess := dualSlot(1)
	res, err := Compute(sess, []model.Reservation{
		confirmed("a", "10:00", "13:30"),
	})
	require.NoError(t, err)
	assert.True(t, res.IsFull[model.SlotFirst])
	assert.False(t, res.IsFull[model.SlotSecond])
}

func TestComputeStatusFiltering(t *testing.T) {
	sess := sessionBased(2)
	waitlisted := confirmed("w", "10:00", "17:00")
	waitlisted.Status = model.StatusWaitlisted
	cancelled := confirmed("x", "10:00", "17:00")
	cancelled.Status = model.StatusCancelled
	completed := confirmed("c", "10:00", "17:00")
	completed.Status = model.StatusCompleted

	res, err := Compute(sess, []model.Reservation{waitlisted, cancelled, completed})
	require.NoError(t, err)
	// Only the completed one occupies capacity.
	assert.Equal(t, 1, res.PerSlot[model.SlotAll])
}

func TestComputeClampsAtZero(t *testing.T) {
	sess := sessionBased(1)
	res, err := Compute(sess, []model.Reservation{
		confirmed("a", "10:00", "17:00"),
		confirmed("b", "10:00", "17:00"),
		confirmed("c", "10:00", "17:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.PerSlot[model.SlotAll])
	assert.True(t, res.IsFull[model.SlotAll])
}

func TestComputeZeroCapacityAlwaysFull(t *testing.T) {
	sess := sessionBased(0)
	res, err := Compute(sess, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.PerSlot[model.SlotAll])
	assert.True(t, res.IsFull[model.SlotAll])
}

func TestComputeCancelledSessionFullEverywhere(t *testing.T) {
	sess := dualSlot(5)
	sess.IsCancelled = true
	res, err := Compute(sess, nil)
	require.NoError(t, err)
	for _, slot := range []string{model.SlotFirst, model.SlotSecond} {
		assert.Equal(t, 0, res.PerSlot[slot])
		assert.True(t, res.IsFull[slot])
	}
}

func TestComputeUnparseableReservationCountsEverywhere(t *testing.T) {
	sess := dualSlot(1)
	broken := confirmed("a", "25:99", "12:00")
	res, err := Compute(sess, []model.Reservation{broken})
	require.NoError(t, err)
	assert.True(t, res.IsFull[model.SlotFirst])
	assert.True(t, res.IsFull[model.SlotSecond])
}

func TestComputeBeginnerSlot(t *testing.T) {
	sess := sessionBased(10)
	sess.BeginnerStart = "13:00"
	sess.BeginnerCapacity = 2

	first := confirmed("a", "13:00", "17:00")
	first.FirstLecture = true
	regular := confirmed("b", "13:00", "17:00")

	res, err := Compute(sess, []model.Reservation{first, regular})
	require.NoError(t, err)
	// Regular attendees never count against the beginner sub-allocation.
	assert.Equal(t, 1, res.PerSlot[model.SlotBeginner])
	assert.Equal(t, 8, res.PerSlot[model.SlotAll])
}

func TestComputeBeginnerSlotAbsentWithoutFirstLectures(t *testing.T) {
	sess := sessionBased(10)
	sess.BeginnerStart = "13:00"
	res, err := Compute(sess, []model.Reservation{confirmed("a", "13:00", "17:00")})
	require.NoError(t, err)
	_, ok := res.PerSlot[model.SlotBeginner]
	assert.False(t, ok)
}

func TestComputeUnknownTypeFails(t *testing.T) {
	sess := sessionBased(1)
	sess.Type = "MYSTERY"
	_, err := Compute(sess, nil)
	assert.Error(t, err)
}

func TestSlotsSpanned(t *testing.T) {
	dual := dualSlot(1)

	names, err := SlotsSpanned(dual, "10:00", "12:00")
	require.NoError(t, err)
	assert.Equal(t, []string{model.SlotFirst}, names)

	names, err = SlotsSpanned(dual, "13:30", "16:00")
	require.NoError(t, err)
	assert.Equal(t, []string{model.SlotSecond}, names)

	// An interval crossing the midday gap spans both windows.
	names, err = SlotsSpanned(dual, "11:00", "14:00")
	require.NoError(t, err)
	assert.Equal(t, []string{model.SlotFirst, model.SlotSecond}, names)

	// The gap itself touches neither window.
	names, err = SlotsSpanned(dual, "12:30", "13:30")
	require.NoError(t, err)
	assert.Empty(t, names)

	names, err = SlotsSpanned(sessionBased(1), "10:00", "11:00")
	require.NoError(t, err)
	assert.Equal(t, []string{model.SlotAll}, names)

	_, err = SlotsSpanned(dual, "bogus", "12:00")
	assert.Error(t, err)
}

func TestBeginnerRemaining(t *testing.T) {
	sess := sessionBased(10)
	sess.BeginnerStart = "13:00"
	sess.BeginnerCapacity = 2

	early := confirmed("a", "10:00", "12:00")
	early.FirstLecture = true
	late := confirmed("b", "13:00", "17:00")
	late.FirstLecture = true
	existing := []model.Reservation{early, late}

	// Only the first lecture inside the beginner window consumes the
	// sub-allocation.
	remaining, constrained, err := BeginnerRemaining(sess, existing, "13:00", "17:00")
	require.NoError(t, err)
	assert.True(t, constrained)
	assert.Equal(t, 1, remaining)

	// A booking entirely before the beginner window is unconstrained.
	_, constrained, err = BeginnerRemaining(sess, existing, "10:00", "12:00")
	require.NoError(t, err)
	assert.False(t, constrained)

	// No beginner window configured at all.
	_, constrained, err = BeginnerRemaining(sessionBased(10), nil, "13:00", "17:00")
	require.NoError(t, err)
	assert.False(t, constrained)
}

func TestRemainingUnknownSlotIsZero(t *testing.T) {
	n, err := Remaining(sessionBased(5), nil, "second")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
