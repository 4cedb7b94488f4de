package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// AvailabilityStore reads and lazily creates per-day slot ledgers
type AvailabilityStore interface {
	Ensure(ctx context.Context, roomID uuid.UUID, day time.Time, availableSize int) (*models.RoomAvailability, error)
	ListRange(ctx context.Context, roomID uuid.UUID, from, to time.Time) ([]models.RoomAvailability, error)
}

// OverlapReader lists bookings that block clock ranges in a date span
type OverlapReader interface {
	ActiveOverlapping(ctx context.Context, roomID uuid.UUID, from, to time.Time) ([]models.Booking, error)
}

// ConflictChecker decides whether a resolved slot set is free on every day of a span.
// It is advisory; the booking transaction re-verifies under row locks.
type ConflictChecker struct {
	availability AvailabilityStore
	bookings     OverlapReader
	logger       *logrus.Logger
}

// NewConflictChecker creates a new conflict checker
func NewConflictChecker(availability AvailabilityStore, bookings OverlapReader, logger *logrus.Logger) *ConflictChecker {
	return &ConflictChecker{
		availability: availability,
		bookings:     bookings,
		logger:       logger,
	}
}

// Check returns a *ConflictError for the first day and slot that cannot take another booking.
// Day ledgers are created on first touch with the room's size.
func (c *ConflictChecker) Check(ctx context.Context, room *models.Room, spaceType *models.SpaceType, days []time.Time, slots models.ResolvedSlots) error {
	if len(days) == 0 {
		return nil
	}

	requested := SlotIntervals(slots, spaceType.SlotLength())
	var active []models.Booking
	if len(requested) > 0 {
		var err error
		active, err = c.bookings.ActiveOverlapping(ctx, room.ID, days[0], days[len(days)-1])
		if err != nil {
			return err
		}
	}

	for _, day := range days {
		if slots.Kind == models.SlotKindLabels {
			record, err := c.availability.Ensure(ctx, room.ID, day, room.AvailableSize())
			if err != nil {
				return err
			}
			for _, label := range slots.Labels {
				if record.IsFull(label) {
					c.logger.WithFields(logrus.Fields{
						"room_id": room.ID,
						"date":    day.Format(dateLayout),
						"slot":    label,
						"booked":  record.Booked(label),
					}).Debug("Slot is full")
					return &ConflictError{Day: day, Slot: label}
				}
			}
		}

		if err := overlapOnDay(day, spaceType.SlotLength(), requested, active); err != nil {
			return err
		}
	}
	return nil
}

// VerifyOverlap checks requested clock intervals against already active bookings.
// It is used inside the booking transaction once the day rows are locked.
func VerifyOverlap(slotLength time.Duration, days []time.Time, slots models.ResolvedSlots, active []models.Booking) error {
	requested := SlotIntervals(slots, slotLength)
	if len(requested) == 0 {
		return nil
	}
	for _, day := range days {
		if err := overlapOnDay(day, slotLength, requested, active); err != nil {
			return err
		}
	}
	return nil
}

// overlapOnDay compares the request with every active booking covering day.
// Labels against labels are left to the ledger counts; a range conflicts with anything it touches.
func overlapOnDay(day time.Time, slotLength time.Duration, requested []slotInterval, active []models.Booking) error {
	for i := range active {
		b := &active[i]
		if !b.Status.BlocksSlots() || day.Before(models.TruncateDay(b.StartDate)) || day.After(models.TruncateDay(b.EndDate)) {
			continue
		}
		existing := SlotIntervals(b.Slots(), slotLength)
		for _, req := range requested {
			for _, ex := range existing {
				if !req.IsRange && !ex.IsRange {
					continue
				}
				if req.Overlaps(ex.Interval) {
					return &ConflictError{Day: day, Slot: req.Name}
				}
			}
		}
	}
	return nil
}
