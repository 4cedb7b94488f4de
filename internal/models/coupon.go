package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DiscountType is how a coupon's value is applied
type DiscountType string

const (
	DiscountTypeAmount     DiscountType = "Amount"
	DiscountTypePercentage DiscountType = "Percentage"
)

// NormalizeDiscountType maps any casing of a discount type to its canonical value
func NormalizeDiscountType(s string) (DiscountType, bool) {
	switch {
	case strings.EqualFold(s, string(DiscountTypeAmount)):
		return DiscountTypeAmount, true
	case strings.EqualFold(s, string(DiscountTypePercentage)):
		return DiscountTypePercentage, true
	}
	return "", false
}

// Coupon is a discount code
type Coupon struct {
	ID                   uuid.UUID    `db:"id" json:"id"`
	Code                 string       `db:"code" json:"code"`
	Description          string       `db:"description" json:"description"`
	DiscountType         DiscountType `db:"discount_type" json:"discountType"`
	DiscountValue        float64      `db:"discount_value" json:"discountValue"`
	MaxDiscount          *float64     `db:"max_discount" json:"maxDiscount,omitempty"`
	MinPurchaseAmount    float64      `db:"min_purchase_amount" json:"minPurchaseAmount"`
	ExpiryDate           time.Time    `db:"expiry_date" json:"expiryDate"`
	UsageLimit           int          `db:"usage_limit" json:"usageLimit"`
	UsedCount            int          `db:"used_count" json:"usedCount"`
	ApplicableSpaceTypes UUIDArray    `db:"applicable_space_types" json:"applicableSpaceTypes"`
	ApplicableRooms      UUIDArray    `db:"applicable_rooms" json:"applicableRooms"`
	ApplicableUsers      UUIDArray    `db:"applicable_users" json:"applicableUsers"`
	IsActive             bool         `db:"is_active" json:"isActive"`
	CreatedAt            time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time    `db:"updated_at" json:"updatedAt"`
}

// CouponRequest is the admin payload for creating or updating a coupon
type CouponRequest struct {
	Code                 string   `json:"code" binding:"required,min=3,max=50"`
	Description          string   `json:"description" binding:"max=500"`
	DiscountType         string   `json:"discountType" binding:"required"`
	DiscountValue        float64  `json:"discountValue" binding:"required,gte=1"`
	MaxDiscount          *float64 `json:"maxDiscount" binding:"omitempty,gt=0"`
	MinPurchaseAmount    float64  `json:"minPurchaseAmount" binding:"gte=0"`
	ExpiryDate           string   `json:"expiryDate" binding:"required,datestr"`
	UsageLimit           int      `json:"usageLimit" binding:"omitempty,min=1"`
	ApplicableSpaceTypes []string `json:"applicableSpaceTypes" binding:"omitempty,dive,uuid"`
	ApplicableRooms      []string `json:"applicableRooms" binding:"omitempty,dive,uuid"`
	ApplicableUsers      []string `json:"applicableUsers" binding:"omitempty,dive,uuid"`
	IsActive             *bool    `json:"isActive"`
}

// ApplyCouponRequest is the payload for POST /coupons/apply
type ApplyCouponRequest struct {
	Code        string  `json:"code" binding:"required"`
	RoomID      string  `json:"roomId" binding:"omitempty,uuid"`
	SpaceTypeID string  `json:"spaceTypeId" binding:"omitempty,uuid"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
}

// CouponQuote is the result of applying a coupon to an amount
type CouponQuote struct {
	CouponID         uuid.UUID `json:"couponId"`
	Code             string    `json:"code"`
	DiscountType     string    `json:"discountType"`
	Discount         float64   `json:"discount"`
	OriginalAmount   float64   `json:"originalAmount"`
	DiscountedAmount float64   `json:"discountedAmount"`
}
