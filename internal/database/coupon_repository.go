package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/models"
	"github.com/lib/pq"
)

// ErrDuplicateCoupon is returned when a coupon code is already taken
var ErrDuplicateCoupon = errors.New("coupon code already exists")

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

const couponColumns = `
	id, code, description, discount_type, discount_value, max_discount, min_purchase_amount,
	expiry_date, usage_limit, used_count, applicable_space_types, applicable_rooms,
	applicable_users, is_active, created_at, updated_at`

// CouponRepository handles database operations for coupons
type CouponRepository struct {
	db DB
}

// NewCouponRepository creates a new coupon repository
func NewCouponRepository(db DB) *CouponRepository {
	return &CouponRepository{db: db}
}

// Create inserts a coupon
func (r *CouponRepository) Create(ctx context.Context, c *models.Coupon) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	query := `
		INSERT INTO coupons (
			id, code, description, discount_type, discount_value, max_discount, min_purchase_amount,
			expiry_date, usage_limit, used_count, applicable_space_types, applicable_rooms,
			applicable_users, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		c.ID, c.Code, c.Description, c.DiscountType, c.DiscountValue, c.MaxDiscount, c.MinPurchaseAmount,
		c.ExpiryDate, c.UsageLimit, c.UsedCount, c.ApplicableSpaceTypes, c.ApplicableRooms,
		c.ApplicableUsers, c.IsActive,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCoupon
		}
		return fmt.Errorf("failed to create coupon: %w", err)
	}
	return nil
}

// GetByID retrieves a coupon
func (r *CouponRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var c models.Coupon
	if err := getOne(ctx, r.db, &c, `SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}
	return &c, nil
}

// GetActiveByCode retrieves an active coupon by its (upper-cased) code
func (r *CouponRepository) GetActiveByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var c models.Coupon
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1 AND is_active = TRUE`
	if err := getOne(ctx, r.db, &c, query, code); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}
	return &c, nil
}

// List returns all coupons, newest first
func (r *CouponRepository) List(ctx context.Context) ([]models.Coupon, error) {
	coupons := []models.Coupon{}
	if err := r.db.SelectContext(ctx, &coupons, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	return coupons, nil
}

// Update replaces the editable fields of a coupon
func (r *CouponRepository) Update(ctx context.Context, c *models.Coupon) error {
	query := `
		UPDATE coupons
		SET code = $2, description = $3, discount_type = $4, discount_value = $5, max_discount = $6,
		    min_purchase_amount = $7, expiry_date = $8, usage_limit = $9, applicable_space_types = $10,
		    applicable_rooms = $11, applicable_users = $12, is_active = $13, updated_at = NOW()
		WHERE id = $1
		RETURNING used_count, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		c.ID, c.Code, c.Description, c.DiscountType, c.DiscountValue, c.MaxDiscount,
		c.MinPurchaseAmount, c.ExpiryDate, c.UsageLimit, c.ApplicableSpaceTypes,
		c.ApplicableRooms, c.ApplicableUsers, c.IsActive,
	).Scan(&c.UsedCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return ErrDuplicateCoupon
		}
		return fmt.Errorf("failed to update coupon: %w", err)
	}
	return nil
}

// Delete removes a coupon
func (r *CouponRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete coupon: %w", err)
	}
	return requireAffected(result, ErrNotFound)
}
