package models

import (
	"time"

	"github.com/google/uuid"
)

// Default reward settings applied when no settings row exists yet
const (
	DefaultPointToCurrencyRate       = 10.0
	DefaultPointsPerBooking          = 5
	DefaultMinBookingAmountForPoints = 1000.0
	DefaultMaxPointsRedeemPercentage = 20.0
	DefaultPointsExpiryDays          = 365
)

// RewardSetting is the singleton reward configuration
type RewardSetting struct {
	ID                        int       `db:"id" json:"-"`
	PointToCurrencyRate       float64   `db:"point_to_currency_rate" json:"pointToCurrencyRate"`
	PointsPerBooking          int       `db:"points_per_booking" json:"pointsPerBooking"`
	MinBookingAmountForPoints float64   `db:"min_booking_amount_for_points" json:"minBookingAmountForPoints"`
	MaxPointsRedeemPercentage float64   `db:"max_points_redeem_percentage" json:"maxPointsRedeemPercentage"`
	PointsExpiryDays          int       `db:"points_expiry_days" json:"pointsExpiryDays"`
	UpdatedAt                 time.Time `db:"updated_at" json:"updatedAt"`
}

// DefaultRewardSetting returns the settings used before an admin changes anything
func DefaultRewardSetting() RewardSetting {
	return RewardSetting{
		ID:                        1,
		PointToCurrencyRate:       DefaultPointToCurrencyRate,
		PointsPerBooking:          DefaultPointsPerBooking,
		MinBookingAmountForPoints: DefaultMinBookingAmountForPoints,
		MaxPointsRedeemPercentage: DefaultMaxPointsRedeemPercentage,
		PointsExpiryDays:          DefaultPointsExpiryDays,
	}
}

// RewardSettingLog records one admin change of the reward settings
type RewardSettingLog struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ChangedBy uuid.UUID `db:"changed_by" json:"changedBy"`
	ChangedAt time.Time `db:"changed_at" json:"changedAt"`
	IPAddress string    `db:"ip_address" json:"ipAddress"`
	Changes   JSONMap   `db:"changes" json:"changes"`
	Reason    string    `db:"reason" json:"reason"`
}

// RewardAction is the kind of a reward history entry
type RewardAction string

const (
	RewardActionEarned       RewardAction = "Earned"
	RewardActionUsed         RewardAction = "Used"
	RewardActionAdminAdded   RewardAction = "Admin Added"
	RewardActionAdminRemoved RewardAction = "Admin Removed"
	RewardActionExpired      RewardAction = "Expired"
)

// UserReward is a user's point balance
type UserReward struct {
	UserID         uuid.UUID `db:"user_id" json:"userId"`
	TotalPoints    int       `db:"total_points" json:"totalPoints"`
	LifetimeEarned int       `db:"lifetime_earned" json:"lifetimeEarned"`
	LifetimeUsed   int       `db:"lifetime_used" json:"lifetimeUsed"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// RewardHistoryEntry is one append-only ledger entry. Points are signed.
type RewardHistoryEntry struct {
	ID        uuid.UUID    `db:"id" json:"id"`
	UserID    uuid.UUID    `db:"user_id" json:"userId"`
	Action    RewardAction `db:"action" json:"action"`
	Points    int          `db:"points" json:"points"`
	BookingID *uuid.UUID   `db:"booking_id" json:"bookingId,omitempty"`
	Note      string       `db:"note" json:"note"`
	CreatedBy *uuid.UUID   `db:"created_by" json:"createdBy,omitempty"`
	IPAddress string       `db:"ip_address" json:"ipAddress,omitempty"`
	ExpiresAt *time.Time   `db:"expires_at" json:"expiresAt,omitempty"`
	ExpiredAt *time.Time   `db:"expired_at" json:"expiredAt,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
}

// PointsChange describes a balance mutation to be written with its history entry
type PointsChange struct {
	UserID    uuid.UUID
	Points    int // always positive; the action decides the sign
	Action    RewardAction
	BookingID *uuid.UUID
	Note      string
	CreatedBy *uuid.UUID
	IPAddress string
	ExpiresAt *time.Time
}

// UpdateRewardSettingsRequest is the admin payload for PUT /rewards/settings
type UpdateRewardSettingsRequest struct {
	PointToCurrencyRate       *float64 `json:"pointToCurrencyRate" binding:"omitempty,gte=1"`
	PointsPerBooking          *int     `json:"pointsPerBooking"`
	MinBookingAmountForPoints *float64 `json:"minBookingAmountForPoints" binding:"omitempty,gte=0"`
	MaxPointsRedeemPercentage *float64 `json:"maxPointsRedeemPercentage" binding:"omitempty,gte=0,lte=100"`
	PointsExpiryDays          *int     `json:"pointsExpiryDays" binding:"omitempty,gte=0"`
	Reason                    string   `json:"reason" binding:"max=500"`
}

// ModifyUserPointsRequest is the admin payload for POST /rewards/users/points
type ModifyUserPointsRequest struct {
	UserID string `json:"userId" binding:"required,uuid"`
	Points int    `json:"points" binding:"required,min=1"`
	Action string `json:"action" binding:"required,oneof=add remove"`
	Note   string `json:"note" binding:"max=500"`
}
