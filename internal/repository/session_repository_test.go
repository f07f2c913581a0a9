package repository

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/classroom-booking/internal/model"
)

var sessionCols = []string{
	"id", "classroom", "date", "venue", "classroom_type",
	"start_time", "end_time", "first_start", "first_end", "second_start", "second_end",
	"beginner_start", "max_capacity", "beginner_capacity", "billing_rate_cents",
	"is_cancelled", "created_at", "updated_at",
}

func TestSessionFindByDateClassroom(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewSessionRepo(db)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM sessions WHERE date = \\? AND classroom = \\?").
		WithArgs("2026-09-01", "Tokyo").
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(
			uint64(1), "Tokyo", "2026-09-01", "Main Hall", model.TypeSessionBased,
			"10:00", "17:00", nil, nil, nil, nil,
			nil, 12, 0, uint32(250000),
			false, now, now,
		))

	s, err := repo.FindByDateClassroom(context.Background(), "2026-09-01", "Tokyo")
	require.NoError(t, err)
	assert.Equal(t, "Tokyo", s.Classroom)
	assert.Equal(t, "10:00", s.StartTime)
	assert.Empty(t, s.FirstStart, "NULL columns scan to empty strings")
	assert.Equal(t, 12, s.MaxCapacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionFindByDateClassroomNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewSessionRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM sessions WHERE date = \\? AND classroom = \\?").
		WithArgs("2026-09-01", "Nowhere").
		WillReturnRows(sqlmock.NewRows(sessionCols))

	_, err = repo.FindByDateClassroom(context.Background(), "2026-09-01", "Nowhere")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionListAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewSessionRepo(db)

	now := time.Now().UTC()
	dual := []driver.Value{
		uint64(2), "Osaka", "2026-09-02", "Annex", model.TypeDualSlot,
		nil, nil, "10:00", "12:30", "13:30", "16:00",
		"13:00", 8, 2, uint32(180000),
		false, now, now,
	}
	mock.ExpectQuery("SELECT (.+) FROM sessions ORDER BY date, classroom").
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(dual...))

	list, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.TypeDualSlot, list[0].Type)
	assert.Equal(t, "13:30", list[0].SecondStart)
	assert.Equal(t, 2, list[0].BeginnerCapacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}
