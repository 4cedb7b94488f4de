package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "Pending"
	BookingStatusBooked    BookingStatus = "Booked"
	BookingStatusConfirmed BookingStatus = "Confirmed"
	BookingStatusCancelled BookingStatus = "Cancelled"
)

// IsValid reports whether the status is a known value
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusBooked, BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

// BlocksSlots reports whether a booking in this status occupies its slots for conflict purposes.
// Pending bookings still hold ledger counts but are not considered by range overlap checks.
func (s BookingStatus) BlocksSlots() bool {
	return s == BookingStatusBooked || s == BookingStatusConfirmed
}

// ActiveBookingStatuses are the statuses that block overlapping clock ranges
var ActiveBookingStatuses = []string{string(BookingStatusBooked), string(BookingStatusConfirmed)}

// Booking is a reservation of a room over an inclusive date span
type Booking struct {
	ID               uuid.UUID     `db:"id" json:"id"`
	BookingID        string        `db:"booking_id" json:"bookingId"`
	RoomID           uuid.UUID     `db:"room_id" json:"roomId"`
	UserID           uuid.UUID     `db:"user_id" json:"userId"`
	SpaceTypeID      uuid.UUID     `db:"space_type_id" json:"spaceTypeId"`
	Guests           int           `db:"guests" json:"guests"`
	StartDate        time.Time     `db:"start_date" json:"startDate"`
	EndDate          time.Time     `db:"end_date" json:"endDate"`
	StartTime        string        `db:"start_time" json:"startTime"`
	TimeSlots        StringArray   `db:"time_slots" json:"timeSlots"`
	TimeRanges       TimeRanges    `db:"time_ranges" json:"timeRanges"`
	ExtraAmenities   StringArray   `db:"extra_amenities" json:"extraAmenities"`
	Status           BookingStatus `db:"status" json:"status"`
	TotalAmount      float64       `db:"total_amount" json:"totalAmount"`
	ServiceFeeAndTax float64       `db:"service_fee_and_tax" json:"serviceFeeAndTax"`
	AmountPaid       float64       `db:"amount_paid" json:"amountPaid"`
	RewardPointsUsed int           `db:"reward_points_used" json:"rewardPointsUsed"`
	RewardDiscount   float64       `db:"reward_discount" json:"rewardDiscount"`
	CouponCode       *string       `db:"coupon_code" json:"couponCode,omitempty"`
	CouponDiscount   float64       `db:"coupon_discount" json:"couponDiscount"`
	CreatedAt        time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updatedAt"`
}

// Days returns every calendar day of the booking span, inclusive
func (b *Booking) Days() []time.Time {
	return DaysBetween(b.StartDate, b.EndDate)
}

// Slots returns the resolved slot set stored on the booking
func (b *Booking) Slots() ResolvedSlots {
	if len(b.TimeRanges) > 0 {
		return ResolvedSlots{Kind: SlotKindRanges, Ranges: b.TimeRanges}
	}
	return ResolvedSlots{Kind: SlotKindLabels, Labels: b.TimeSlots}
}

// DaysBetween returns each day from start to end inclusive (dates are UTC midnights)
func DaysBetween(start, end time.Time) []time.Time {
	start = TruncateDay(start)
	end = TruncateDay(end)
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// TruncateDay maps t to midnight UTC of the same calendar date
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CreateBookingRequest is the payload for POST /bookings
type CreateBookingRequest struct {
	RoomID           string     `json:"roomId" binding:"required,uuid"`
	SpaceTypeID      string     `json:"spaceTypeId" binding:"omitempty,uuid"`
	UserID           string     `json:"userId" binding:"omitempty,uuid"` // admins may book on behalf of a user
	StartDate        string     `json:"start_date" binding:"required,datestr"`
	EndDate          string     `json:"end_date" binding:"omitempty,datestr"`
	StartTime        string     `json:"start_time"`
	Duration         int        `json:"duration" binding:"omitempty,min=1"` // slot count from start_time
	TimeRanges       []SlotItem `json:"timeRanges"`
	ExtraAmenities   []string   `json:"extraAmenity"`
	Guests           int        `json:"guests" binding:"omitempty,min=1"`
	ServiceFeeAndTax float64    `json:"serviceFeeAndTax" binding:"gte=0"`
	TotalAmount      float64    `json:"totalAmount" binding:"gte=0"`
	Status           string     `json:"status" binding:"omitempty,bookingstatus"`
	UseRewardPoints  bool       `json:"useRewardPoints"`
	PointsToUse      int        `json:"pointsToUse" binding:"gte=0"`
	CouponCode       string     `json:"couponCode" binding:"omitempty,max=50"`
}

// UpdateBookingStatusRequest is the payload for PUT /bookings/:ref/status
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required,bookingstatus"`
}

// BookingFilter narrows booking listings
type BookingFilter struct {
	UserID *uuid.UUID
	RoomID *uuid.UUID
	Date   *time.Time
	Limit  int
	Offset int
}
