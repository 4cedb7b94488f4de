package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/database"
	"github.com/issaclevi/wayzx-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// CouponStore persists coupons
type CouponStore interface {
	Create(ctx context.Context, c *models.Coupon) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	GetActiveByCode(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
	Update(ctx context.Context, c *models.Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CouponService validates and prices coupon codes
type CouponService struct {
	store  CouponStore
	logger *logrus.Logger
	now    func() time.Time
}

// NewCouponService creates a new coupon service
func NewCouponService(store CouponStore, logger *logrus.Logger) *CouponService {
	return &CouponService{store: store, logger: logger, now: time.Now}
}

// ApplyCouponInput is the context a coupon is evaluated against
type ApplyCouponInput struct {
	Code        string
	UserID      uuid.UUID
	RoomID      *uuid.UUID
	SpaceTypeID *uuid.UUID
	Amount      float64
}

// ApplyCoupon validates a code against the input and returns the discount it gives.
// It does not redeem the coupon; redemption happens with the booking.
func (s *CouponService) ApplyCoupon(ctx context.Context, in ApplyCouponInput) (*models.CouponQuote, error) {
	quote, _, err := s.quote(ctx, in)
	return quote, err
}

func (s *CouponService) quote(ctx context.Context, in ApplyCouponInput) (*models.CouponQuote, *models.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" {
		return nil, nil, validationf("couponCode", "coupon code is required")
	}
	if in.Amount <= 0 {
		return nil, nil, validationf("amount", "amount must be greater than zero")
	}

	coupon, err := s.store.GetActiveByCode(ctx, code)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil, &NotFoundError{Entity: "coupon", ID: code}
	}
	if err != nil {
		return nil, nil, err
	}

	if !s.now().Before(coupon.ExpiryDate) {
		return nil, nil, validationf("couponCode", "coupon %s has expired", code)
	}
	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return nil, nil, validationf("couponCode", "coupon %s has reached its usage limit", code)
	}
	if in.Amount < coupon.MinPurchaseAmount {
		return nil, nil, validationf("amount", "minimum purchase amount for coupon %s is %.2f", code, coupon.MinPurchaseAmount)
	}
	if !applicable(coupon.ApplicableUsers, &in.UserID) {
		return nil, nil, validationf("couponCode", "coupon %s is not valid for this user", code)
	}
	if !applicable(coupon.ApplicableRooms, in.RoomID) {
		return nil, nil, validationf("couponCode", "coupon %s is not valid for this room", code)
	}
	if !applicable(coupon.ApplicableSpaceTypes, in.SpaceTypeID) {
		return nil, nil, validationf("couponCode", "coupon %s is not valid for this space type", code)
	}

	discount := Discount(coupon, in.Amount)
	return &models.CouponQuote{
		CouponID:         coupon.ID,
		Code:             coupon.Code,
		DiscountType:     string(coupon.DiscountType),
		Discount:         discount,
		OriginalAmount:   in.Amount,
		DiscountedAmount: roundCurrency(in.Amount - discount),
	}, coupon, nil
}

// applicable reports whether id passes an optional allow-list. An empty list allows everything.
func applicable(list models.UUIDArray, id *uuid.UUID) bool {
	if len(list) == 0 {
		return true
	}
	return id != nil && list.Contains(id.String())
}

// Discount computes the coupon's discount for amount, capped by MaxDiscount and by the amount itself
func Discount(c *models.Coupon, amount float64) float64 {
	var d float64
	switch c.DiscountType {
	case models.DiscountTypePercentage:
		d = amount * c.DiscountValue / 100
		if c.MaxDiscount != nil && d > *c.MaxDiscount {
			d = *c.MaxDiscount
		}
	default:
		d = c.DiscountValue
	}
	if d > amount {
		d = amount
	}
	return roundCurrency(d)
}

// CreateCoupon validates and stores a new coupon. The expiry date is inclusive in loc.
func (s *CouponService) CreateCoupon(ctx context.Context, req models.CouponRequest, loc *time.Location) (*models.Coupon, error) {
	c := &models.Coupon{IsActive: true}
	if err := applyCouponRequest(c, req, loc); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, c); err != nil {
		if errors.Is(err, database.ErrDuplicateCoupon) {
			return nil, validationf("code", "coupon code %s already exists", c.Code)
		}
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"coupon_id": c.ID, "code": c.Code}).Info("Coupon created")
	return c, nil
}

// UpdateCoupon replaces a coupon's editable fields
func (s *CouponService) UpdateCoupon(ctx context.Context, id uuid.UUID, req models.CouponRequest, loc *time.Location) (*models.Coupon, error) {
	c, err := s.GetCoupon(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyCouponRequest(c, req, loc); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, c); err != nil {
		if errors.Is(err, database.ErrDuplicateCoupon) {
			return nil, validationf("code", "coupon code %s already exists", c.Code)
		}
		return nil, err
	}
	return c, nil
}

// GetCoupon loads a coupon by id
func (s *CouponService) GetCoupon(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	c, err := s.store.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, &NotFoundError{Entity: "coupon", ID: id.String()}
	}
	return c, err
}

// ListCoupons lists all coupons
func (s *CouponService) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	return s.store.List(ctx)
}

// DeleteCoupon removes a coupon
func (s *CouponService) DeleteCoupon(ctx context.Context, id uuid.UUID) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return &NotFoundError{Entity: "coupon", ID: id.String()}
	}
	return err
}

func applyCouponRequest(c *models.Coupon, req models.CouponRequest, loc *time.Location) error {
	discountType, ok := models.NormalizeDiscountType(req.DiscountType)
	if !ok {
		return validationf("discountType", "discount type must be Amount or Percentage")
	}
	if discountType == models.DiscountTypePercentage && req.DiscountValue > 100 {
		return validationf("discountValue", "percentage discount cannot exceed 100")
	}

	expiry, err := time.ParseInLocation(dateLayout, req.ExpiryDate, loc)
	if err != nil {
		return validationf("expiryDate", "invalid expiry date %q, use YYYY-MM-DD", req.ExpiryDate)
	}

	c.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	c.Description = req.Description
	c.DiscountType = discountType
	c.DiscountValue = req.DiscountValue
	c.MaxDiscount = req.MaxDiscount
	c.MinPurchaseAmount = req.MinPurchaseAmount
	c.ExpiryDate = expiry.AddDate(0, 0, 1) // valid through the whole expiry day
	c.UsageLimit = req.UsageLimit
	if c.UsageLimit == 0 {
		c.UsageLimit = 1
	}
	c.ApplicableSpaceTypes = models.UUIDArray(req.ApplicableSpaceTypes)
	c.ApplicableRooms = models.UUIDArray(req.ApplicableRooms)
	c.ApplicableUsers = models.UUIDArray(req.ApplicableUsers)
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	return nil
}
