package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var availabilityRowColumns = []string{"id", "room_id", "date", "available_size", "booked_slots", "created_at", "updated_at"}

func TestEnsureAvailability(t *testing.T) {
	t.Run("Creates Then Reads", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAvailabilityRepository(db)
		roomID := uuid.New()
		d := day("2025-03-10")
		now := time.Now()

		mock.ExpectExec(`INSERT INTO room_availability (.+) ON CONFLICT \(room_id, date\) DO NOTHING`).
			WithArgs(sqlmock.AnyArg(), roomID, d, 2).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FROM room_availability WHERE room_id = \$1 AND date = \$2`).
			WithArgs(roomID, d).
			WillReturnRows(sqlmock.NewRows(availabilityRowColumns).
				AddRow(uuid.New(), roomID, d, 2, []byte(`{"09:00AM": 1}`), now, now))

		record, err := repo.Ensure(context.Background(), roomID, d, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, record.AvailableSize)
		assert.Equal(t, 1, record.Booked("09:00AM"))
		assert.Equal(t, 0, record.Booked("10:00AM"))
		assert.False(t, record.IsFull("09:00AM"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Insert Error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAvailabilityRepository(db)

		mock.ExpectExec(`INSERT INTO room_availability`).WillReturnError(fmt.Errorf("connection reset"))

		record, err := repo.Ensure(context.Background(), uuid.New(), day("2025-03-10"), 1)
		assert.Error(t, err)
		assert.Nil(t, record)
		assert.Contains(t, err.Error(), "failed to create availability for 2025-03-10")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListAvailabilityRange(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAvailabilityRepository(db)
	roomID := uuid.New()
	from, to := day("2025-03-10"), day("2025-03-12")
	now := time.Now()

	mock.ExpectQuery(`FROM room_availability WHERE room_id = \$1 AND date BETWEEN \$2 AND \$3 ORDER BY date`).
		WithArgs(roomID, from, to).
		WillReturnRows(sqlmock.NewRows(availabilityRowColumns).
			AddRow(uuid.New(), roomID, from, 1, []byte(`{}`), now, now).
			AddRow(uuid.New(), roomID, to, 1, nil, now, now))

	records, err := repo.ListRange(context.Background(), roomID, from, to)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.False(t, records[1].IsFull("09:00AM"))
	assert.NotNil(t, records[1].BookedSlots)
	assert.NoError(t, mock.ExpectationsWereMet())
}
