package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	cases := map[string]int{
		"00:00": 0,
		"10:00": 600,
		"13:30": 810,
		"23:59": 1439,
	}
	for in, want := range cases {
		got, err := ParseClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "10", "24:00", "10:60", "-1:00", "aa:bb"} {
		_, err := ParseClock(in)
		assert.Error(t, err, in)
	}
}

func TestValidDate(t *testing.T) {
	assert.True(t, ValidDate("2026-09-01"))
	assert.False(t, ValidDate("2026-13-01"))
	assert.False(t, ValidDate("01-09-2026"))
	assert.False(t, ValidDate(""))
}

func TestSessionWindow(t *testing.T) {
	s := &Session{Type: TypeSessionBased, StartTime: "10:00", EndTime: "17:00"}
	start, end, err := s.Window()
	require.NoError(t, err)
	assert.Equal(t, 600, start)
	assert.Equal(t, 1020, end)

	dual := &Session{Type: TypeDualSlot, FirstStart: "09:00", SecondEnd: "16:00"}
	start, end, err = dual.Window()
	require.NoError(t, err)
	assert.Equal(t, 540, start)
	assert.Equal(t, 960, end)
}

func TestReservationTransitions(t *testing.T) {
	confirmed := &Reservation{Status: StatusConfirmed}
	assert.True(t, confirmed.CanTransition(StatusCancelled))
	assert.True(t, confirmed.CanTransition(StatusCompleted))
	assert.False(t, confirmed.CanTransition(StatusWaitlisted))

	waitlisted := &Reservation{Status: StatusWaitlisted}
	assert.True(t, waitlisted.CanTransition(StatusConfirmed))
	assert.True(t, waitlisted.CanTransition(StatusCancelled))
	assert.False(t, waitlisted.CanTransition(StatusCompleted))

	cancelled := &Reservation{Status: StatusCancelled}
	for _, next := range []string{StatusConfirmed, StatusCompleted, StatusWaitlisted} {
		assert.False(t, cancelled.CanTransition(next))
	}

	completed := &Reservation{Status: StatusCompleted}
	assert.False(t, completed.CanTransition(StatusCancelled))
}

func TestOccupiesCapacity(t *testing.T) {
	assert.True(t, (&Reservation{Status: StatusConfirmed}).OccupiesCapacity())
	assert.True(t, (&Reservation{Status: StatusCompleted}).OccupiesCapacity())
	assert.False(t, (&Reservation{Status: StatusWaitlisted}).OccupiesCapacity())
	assert.False(t, (&Reservation{Status: StatusCancelled}).OccupiesCapacity())
}
