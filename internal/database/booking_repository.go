package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	// ErrAlreadyCancelled is returned when cancelling or updating a cancelled booking
	ErrAlreadyCancelled = errors.New("booking is already cancelled")
	// ErrCouponExhausted is returned when a coupon reached its usage limit mid-transaction
	ErrCouponExhausted = errors.New("coupon usage limit reached")
	// ErrDuplicateBookingCode is returned when a generated booking code collides
	ErrDuplicateBookingCode = errors.New("booking code already exists")
)

const bookingColumns = `
	id, booking_id, room_id, user_id, space_type_id, guests, start_date, end_date,
	start_time, time_slots, time_ranges, extra_amenities, status, total_amount,
	service_fee_and_tax, amount_paid, reward_points_used, reward_discount,
	coupon_code, coupon_discount, created_at, updated_at`

// Reservation describes the ledger effects of creating a booking
type Reservation struct {
	// AvailableSize seeds ledger rows that do not exist yet
	AvailableSize int
	// Verify runs after the span's ledger rows are locked, with the active bookings
	// overlapping the span. Returning an error aborts the transaction.
	Verify func(active []models.Booking) error
	// CouponID is redeemed in the same transaction when set
	CouponID *uuid.UUID
}

// BookingRepository handles database operations for bookings
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// CreateWithReservation inserts the booking and reserves every day x label slot atomically.
// Any failure, including a single full slot, rolls back the booking row and all increments.
func (r *BookingRepository) CreateWithReservation(ctx context.Context, b *models.Booking, res Reservation) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	days := b.Days()
	if len(days) == 0 {
		return fmt.Errorf("booking has an empty date span")
	}

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, day := range days {
			if err := ensureDay(ctx, tx, b.RoomID, day, res.AvailableSize); err != nil {
				return err
			}
		}
		if err := lockDays(ctx, tx, b.RoomID, b.StartDate, b.EndDate); err != nil {
			return err
		}

		if res.Verify != nil {
			active, err := activeOverlapping(ctx, tx, b.RoomID, b.StartDate, b.EndDate)
			if err != nil {
				return err
			}
			if err := res.Verify(active); err != nil {
				return err
			}
		}

		if err := insertBooking(ctx, tx, b); err != nil {
			return err
		}

		for _, day := range days {
			for _, slot := range b.TimeSlots {
				if err := reserveSlot(ctx, tx, b.RoomID, day, slot); err != nil {
					return err
				}
			}
		}

		_, err := tx.ExecContext(ctx, `
			UPDATE space_types
			SET last_booked_at = NOW(), bookings_count = bookings_count + 1, updated_at = NOW()
			WHERE id = $1`, b.SpaceTypeID)
		if err != nil {
			return fmt.Errorf("failed to update space type stats: %w", err)
		}

		if res.CouponID != nil {
			result, err := tx.ExecContext(ctx, `
				UPDATE coupons SET used_count = used_count + 1, updated_at = NOW()
				WHERE id = $1 AND used_count < usage_limit`, *res.CouponID)
			if err != nil {
				return fmt.Errorf("failed to redeem coupon: %w", err)
			}
			if err := requireAffected(result, ErrCouponExhausted); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertBooking(ctx context.Context, tx *sqlx.Tx, b *models.Booking) error {
	query := `
		INSERT INTO bookings (
			id, booking_id, room_id, user_id, space_type_id, guests, start_date, end_date,
			start_time, time_slots, time_ranges, extra_amenities, status, total_amount,
			service_fee_and_tax, amount_paid, reward_points_used, reward_discount,
			coupon_code, coupon_discount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING created_at, updated_at`

	err := tx.QueryRowxContext(ctx, query,
		b.ID, b.BookingID, b.RoomID, b.UserID, b.SpaceTypeID, b.Guests, b.StartDate, b.EndDate,
		b.StartTime, b.TimeSlots, b.TimeRanges, b.ExtraAmenities, b.Status, b.TotalAmount,
		b.ServiceFeeAndTax, b.AmountPaid, b.RewardPointsUsed, b.RewardDiscount,
		b.CouponCode, b.CouponDiscount,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && strings.Contains(pqErr.Constraint, "booking_id") {
			return ErrDuplicateBookingCode
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func activeOverlapping(ctx context.Context, q sqlx.QueryerContext, roomID uuid.UUID, from, to time.Time) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE room_id = $1 AND start_date <= $3 AND end_date >= $2
		  AND status = ANY($4)`

	bookings := []models.Booking{}
	if err := sqlx.SelectContext(ctx, q, &bookings, query, roomID, from, to, pq.Array(models.ActiveBookingStatuses)); err != nil {
		return nil, fmt.Errorf("failed to load overlapping bookings: %w", err)
	}
	return bookings, nil
}

// ActiveOverlapping returns Booked/Confirmed bookings of the room whose span intersects [from, to]
func (r *BookingRepository) ActiveOverlapping(ctx context.Context, roomID uuid.UUID, from, to time.Time) ([]models.Booking, error) {
	return activeOverlapping(ctx, r.db, roomID, from, to)
}

// GetByID retrieves a booking by its UUID
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	if err := getOne(ctx, r.db, &b, query, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &b, nil
}

// GetByCode retrieves a booking by its human-readable M-code
func (r *BookingRepository) GetByCode(ctx context.Context, code string) (*models.Booking, error) {
	var b models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_id = $1`
	if err := getOne(ctx, r.db, &b, query, code); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &b, nil
}

// CodeExists reports whether a booking code is taken
func (r *BookingRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM bookings WHERE booking_id = $1)`, code)
	if err != nil {
		return false, fmt.Errorf("failed to check booking code: %w", err)
	}
	return exists, nil
}

// List returns bookings matching the filter, newest first
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.RoomID != nil {
		args = append(args, *filter.RoomID)
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)))
	}
	if filter.Date != nil {
		args = append(args, *filter.Date)
		conditions = append(conditions, fmt.Sprintf("start_date <= $%d AND end_date >= $%d", len(args), len(args)))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	bookings := []models.Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// Cancel marks the booking Cancelled and releases its slots in one transaction.
// Returns ErrAlreadyCancelled without touching the ledger when it was already cancelled.
func (r *BookingRepository) Cancel(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			UPDATE bookings SET status = $2, updated_at = NOW()
			WHERE id = $1 AND status <> $2
			RETURNING ` + bookingColumns
		if err := getOne(ctx, tx, &b, query, id, models.BookingStatusCancelled); err != nil {
			if errors.Is(err, ErrNotFound) {
				return r.missingOrCancelled(ctx, tx, id)
			}
			return fmt.Errorf("failed to cancel booking: %w", err)
		}
		return releaseBooking(ctx, tx, &b)
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Delete hard-deletes the booking, releasing its slots unless it was already cancelled
func (r *BookingRepository) Delete(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `DELETE FROM bookings WHERE id = $1 RETURNING ` + bookingColumns
		if err := getOne(ctx, tx, &b, query, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return err
			}
			return fmt.Errorf("failed to delete booking: %w", err)
		}

		if b.Status != models.BookingStatusCancelled {
			if err := releaseBooking(ctx, tx, &b); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx, `
			UPDATE space_types
			SET bookings_count = GREATEST(bookings_count - 1, 0), updated_at = NOW()
			WHERE id = $1`, b.SpaceTypeID)
		if err != nil {
			return fmt.Errorf("failed to update space type stats: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateStatus persists a non-cancel status change. Cancelled bookings cannot be revived.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus) (*models.Booking, error) {
	var b models.Booking
	query := `
		UPDATE bookings SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status <> $3
		RETURNING ` + bookingColumns
	if err := getOne(ctx, r.db, &b, query, id, status, models.BookingStatusCancelled); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, r.missingOrCancelled(ctx, r.db, id)
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	return &b, nil
}

func (r *BookingRepository) missingOrCancelled(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) error {
	var status models.BookingStatus
	if err := getOne(ctx, q, &status, `SELECT status FROM bookings WHERE id = $1`, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to get booking status: %w", err)
	}
	return ErrAlreadyCancelled
}
