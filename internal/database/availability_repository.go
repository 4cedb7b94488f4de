package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/models"
	"github.com/jmoiron/sqlx"
)

// SlotUnavailableError is returned when a conditional slot increment finds the slot full
type SlotUnavailableError struct {
	Day  time.Time
	Slot string
}

func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("slot %s on %s is no longer available", e.Slot, e.Day.Format("2006-01-02"))
}

const availabilityColumns = `id, room_id, date, available_size, booked_slots, created_at, updated_at`

// AvailabilityRepository handles the per-room per-day slot ledger
type AvailabilityRepository struct {
	db DB
}

// NewAvailabilityRepository creates a new availability repository
func NewAvailabilityRepository(db DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// Ensure returns the ledger row for (room, day), creating it with availableSize when absent
func (r *AvailabilityRepository) Ensure(ctx context.Context, roomID uuid.UUID, day time.Time, availableSize int) (*models.RoomAvailability, error) {
	if err := ensureDay(ctx, r.db, roomID, day, availableSize); err != nil {
		return nil, err
	}

	var record models.RoomAvailability
	query := `SELECT ` + availabilityColumns + ` FROM room_availability WHERE room_id = $1 AND date = $2`
	if err := getOne(ctx, r.db, &record, query, roomID, day); err != nil {
		return nil, fmt.Errorf("failed to get availability: %w", err)
	}
	return &record, nil
}

// ListRange returns existing ledger rows between from and to inclusive, ordered by date
func (r *AvailabilityRepository) ListRange(ctx context.Context, roomID uuid.UUID, from, to time.Time) ([]models.RoomAvailability, error) {
	query := `SELECT ` + availabilityColumns + `
		FROM room_availability
		WHERE room_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date`

	records := []models.RoomAvailability{}
	if err := r.db.SelectContext(ctx, &records, query, roomID, from, to); err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	return records, nil
}

func ensureDay(ctx context.Context, ex sqlx.ExecerContext, roomID uuid.UUID, day time.Time, availableSize int) error {
	query := `
		INSERT INTO room_availability (id, room_id, date, available_size, booked_slots)
		VALUES ($1, $2, $3, $4, '{}')
		ON CONFLICT (room_id, date) DO NOTHING`
	if _, err := ex.ExecContext(ctx, query, uuid.New(), roomID, day, availableSize); err != nil {
		return fmt.Errorf("failed to create availability for %s: %w", day.Format("2006-01-02"), err)
	}
	return nil
}

// lockDays takes row locks on the room's ledger rows for the span, in date order
func lockDays(ctx context.Context, tx *sqlx.Tx, roomID uuid.UUID, from, to time.Time) error {
	query := `
		SELECT id FROM room_availability
		WHERE room_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
		FOR UPDATE`
	var ids []uuid.UUID
	if err := sqlx.SelectContext(ctx, tx, &ids, query, roomID, from, to); err != nil {
		return fmt.Errorf("failed to lock availability: %w", err)
	}
	return nil
}

// reserveSlot increments one slot counter only while it is below available_size
func reserveSlot(ctx context.Context, tx *sqlx.Tx, roomID uuid.UUID, day time.Time, slot string) error {
	query := `
		UPDATE room_availability
		SET booked_slots = jsonb_set(booked_slots, ARRAY[$3::text],
		        to_jsonb(COALESCE((booked_slots->>$3::text)::int, 0) + 1)),
		    updated_at = NOW()
		WHERE room_id = $1 AND date = $2
		  AND COALESCE((booked_slots->>$3::text)::int, 0) < available_size`

	result, err := tx.ExecContext(ctx, query, roomID, day, slot)
	if err != nil {
		return fmt.Errorf("failed to reserve slot %s: %w", slot, err)
	}
	return requireAffected(result, &SlotUnavailableError{Day: day, Slot: slot})
}

// releaseSlot decrements one slot counter, never below zero. Missing rows or keys are a no-op.
func releaseSlot(ctx context.Context, tx *sqlx.Tx, roomID uuid.UUID, day time.Time, slot string) error {
	query := `
		UPDATE room_availability
		SET booked_slots = jsonb_set(booked_slots, ARRAY[$3::text],
		        to_jsonb(GREATEST(COALESCE((booked_slots->>$3::text)::int, 0) - 1, 0))),
		    updated_at = NOW()
		WHERE room_id = $1 AND date = $2
		  AND booked_slots->>$3::text IS NOT NULL`

	if _, err := tx.ExecContext(ctx, query, roomID, day, slot); err != nil {
		return fmt.Errorf("failed to release slot %s: %w", slot, err)
	}
	return nil
}

// releaseBooking gives back every day x label of a booking
func releaseBooking(ctx context.Context, tx *sqlx.Tx, b *models.Booking) error {
	for _, day := range b.Days() {
		for _, slot := range b.TimeSlots {
			if err := releaseSlot(ctx, tx, b.RoomID, day, slot); err != nil {
				return err
			}
		}
	}
	return nil
}
