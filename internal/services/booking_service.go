package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/database"
	"github.com/issaclevi/wayzx-backend/internal/models"
	"github.com/sirupsen/logrus"
)

const maxCodeAttempts = 5

// BookingStore persists bookings together with their ledger effects
type BookingStore interface {
	OverlapReader
	CreateWithReservation(ctx context.Context, b *models.Booking, res database.Reservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	GetByCode(ctx context.Context, code string) (*models.Booking, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus) (*models.Booking, error)
}

// RoomReader loads rooms
type RoomReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error)
}

// SpaceTypeReader loads space types
type SpaceTypeReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.SpaceType, error)
}

// BookingService runs the booking lifecycle: create, cancel, delete and status changes
type BookingService struct {
	bookings   BookingStore
	rooms      RoomReader
	spaceTypes SpaceTypeReader
	resolver   *SlotResolver
	checker    *ConflictChecker
	rewards    *RewardService
	coupons    *CouponService
	audit      *AuditService
	logger     *logrus.Logger
	newCode    func() (string, error)
}

// NewBookingService creates a new booking service
func NewBookingService(
	bookings BookingStore,
	rooms RoomReader,
	spaceTypes SpaceTypeReader,
	checker *ConflictChecker,
	rewards *RewardService,
	coupons *CouponService,
	audit *AuditService,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		bookings:   bookings,
		rooms:      rooms,
		spaceTypes: spaceTypes,
		resolver:   NewSlotResolver(),
		checker:    checker,
		rewards:    rewards,
		coupons:    coupons,
		audit:      audit,
		logger:     logger,
		newCode:    GenerateBookingCode,
	}
}

// GenerateBookingCode returns "M" followed by eight random digits
func GenerateBookingCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(90000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate booking code: %w", err)
	}
	return fmt.Sprintf("M%08d", n.Int64()+10000000), nil
}

// CreateBookingInput carries a booking request with its caller context
type CreateBookingInput struct {
	Request  models.CreateBookingRequest
	UserID   uuid.UUID
	Location *time.Location
}

// BookingResult is a created booking with its reward outcome
type BookingResult struct {
	Booking                   *models.Booking `json:"booking"`
	StartDate                 string          `json:"startDate"`
	EndDate                   string          `json:"endDate"`
	CreatedAtLocal            string          `json:"createdAtLocal"`
	RewardPointsEarned        int             `json:"rewardPointsEarned"`
	RewardPointsUsed          int             `json:"rewardPointsUsed"`
	MinAmountForPoints        float64         `json:"minAmountForPoints"`
	PointToCurrencyRate       float64         `json:"pointToCurrencyRate"`
	PointsPerBooking          int             `json:"pointsPerBooking"`
	MaxPointsRedeemPercentage float64         `json:"maxPointsRedeemPercentage"`
}

// CreateBooking validates the request, resolves its slots and commits the booking
// with all slot reservations in a single transaction. Reward effects follow the commit
// and never undo it.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*BookingResult, error) {
	req := in.Request
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	roomID, err := uuid.Parse(req.RoomID)
	if err != nil {
		return nil, validationf("roomId", "invalid room id")
	}
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, notFound(err, "room", req.RoomID)
	}

	spaceTypeID := room.SpaceTypeID
	if req.SpaceTypeID != "" {
		if spaceTypeID, err = uuid.Parse(req.SpaceTypeID); err != nil {
			return nil, validationf("spaceTypeId", "invalid space type id")
		}
		if spaceTypeID != room.SpaceTypeID {
			return nil, validationf("spaceTypeId", "room %s does not belong to space type %s", room.Name, req.SpaceTypeID)
		}
	}
	spaceType, err := s.spaceTypes.GetByID(ctx, spaceTypeID)
	if err != nil {
		return nil, notFound(err, "space type", spaceTypeID.String())
	}

	slotReq, err := ParseSlotRequest(req.StartTime, req.Duration, req.TimeRanges)
	if err != nil {
		return nil, err
	}
	slots, err := s.resolver.Resolve(spaceType, slotReq)
	if err != nil {
		return nil, err
	}

	from, to, err := ParseDateRange(req.StartDate, req.EndDate, loc)
	if err != nil {
		return nil, err
	}

	guests := req.Guests
	if guests == 0 {
		guests = 1
	}
	if room.Capacity > 0 && guests > room.Capacity {
		return nil, validationf("guests", "room %s holds at most %d guests", room.Name, room.Capacity)
	}

	status := models.BookingStatusBooked
	if req.Status != "" {
		status = models.BookingStatus(req.Status)
		if !status.IsValid() || status == models.BookingStatusCancelled {
			return nil, validationf("status", "invalid initial status %q", req.Status)
		}
	}

	settings := s.rewards.SettingsOrDefault(ctx)

	var pointsToUse int
	var rewardDiscount float64
	if req.UseRewardPoints {
		quote, err := s.rewards.CalculateDiscount(ctx, in.UserID, req.TotalAmount)
		if err != nil {
			return nil, err
		}
		pointsToUse, rewardDiscount = quote.PointsToUse, quote.DiscountAmount
		if req.PointsToUse > 0 {
			if req.PointsToUse > quote.PointsToUse {
				return nil, validationf("pointsToUse", "cannot use more than %d points for this booking", quote.PointsToUse)
			}
			pointsToUse = req.PointsToUse
			rewardDiscount = roundCurrency(float64(pointsToUse) / settings.PointToCurrencyRate)
		}
	}

	var (
		couponCode     *string
		couponID       *uuid.UUID
		couponDiscount float64
	)
	if strings.TrimSpace(req.CouponCode) != "" {
		quote, _, err := s.coupons.quote(ctx, ApplyCouponInput{
			Code:        req.CouponCode,
			UserID:      in.UserID,
			RoomID:      &room.ID,
			SpaceTypeID: &spaceType.ID,
			Amount:      req.TotalAmount,
		})
		if err != nil {
			return nil, err
		}
		couponCode, couponID, couponDiscount = &quote.Code, &quote.CouponID, quote.Discount
	}

	days := models.DaysBetween(from, to)
	if err := s.checker.Check(ctx, room, spaceType, days, slots); err != nil {
		return nil, err
	}

	amountPaid := req.TotalAmount - rewardDiscount - couponDiscount
	if amountPaid < 0 {
		amountPaid = 0
	}

	booking := &models.Booking{
		RoomID:           room.ID,
		UserID:           in.UserID,
		SpaceTypeID:      spaceType.ID,
		Guests:           guests,
		StartDate:        from,
		EndDate:          to,
		StartTime:        startTimeOf(slots),
		ExtraAmenities:   models.StringArray(req.ExtraAmenities),
		Status:           status,
		TotalAmount:      req.TotalAmount,
		ServiceFeeAndTax: req.ServiceFeeAndTax,
		AmountPaid:       roundCurrency(amountPaid),
		RewardPointsUsed: pointsToUse,
		RewardDiscount:   rewardDiscount,
		CouponCode:       couponCode,
		CouponDiscount:   couponDiscount,
	}
	if slots.Kind == models.SlotKindRanges {
		booking.TimeRanges = models.TimeRanges(slots.Ranges)
	} else {
		booking.TimeSlots = models.StringArray(slots.Labels)
	}

	reservation := database.Reservation{AvailableSize: room.AvailableSize(), CouponID: couponID}
	if len(SlotIntervals(slots, spaceType.SlotLength())) > 0 {
		reservation.Verify = func(active []models.Booking) error {
			return VerifyOverlap(spaceType.SlotLength(), days, slots, active)
		}
	}

	if err := s.commit(ctx, booking, reservation); err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{
		"booking_id": booking.BookingID,
		"room_id":    room.ID,
		"user_id":    in.UserID,
		"days":       len(days),
	})
	log.Info("Booking created")

	result := &BookingResult{
		Booking:                   booking,
		StartDate:                 FormatDay(booking.StartDate),
		EndDate:                   FormatDay(booking.EndDate),
		CreatedAtLocal:            booking.CreatedAt.In(loc).Format(time.RFC3339),
		MinAmountForPoints:        settings.MinBookingAmountForPoints,
		PointToCurrencyRate:       settings.PointToCurrencyRate,
		PointsPerBooking:          settings.PointsPerBooking,
		MaxPointsRedeemPercentage: settings.MaxPointsRedeemPercentage,
	}

	if pointsToUse > 0 {
		_, err := s.rewards.DeductPoints(ctx, models.PointsChange{
			UserID:    in.UserID,
			Points:    pointsToUse,
			Action:    models.RewardActionUsed,
			BookingID: &booking.ID,
			Note:      "Redeemed for booking " + booking.BookingID,
		})
		if err != nil {
			// The row already carries the discount; the ledger does not.
			log.WithError(err).WithFields(logrus.Fields{
				"points_unredeemed": pointsToUse,
				"reward_discount":   rewardDiscount,
				"amount_paid":       booking.AmountPaid,
			}).Error("Reward points not redeemed, booking needs reconciliation")
		} else {
			result.RewardPointsUsed = pointsToUse
		}
	}

	if req.TotalAmount >= settings.MinBookingAmountForPoints {
		_, err := s.rewards.AddPoints(ctx, models.PointsChange{
			UserID:    in.UserID,
			Points:    settings.PointsPerBooking,
			Action:    models.RewardActionEarned,
			BookingID: &booking.ID,
			Note:      "Earned for booking " + booking.BookingID,
		})
		if err != nil {
			log.WithError(err).Error("Failed to award reward points")
		} else {
			result.RewardPointsEarned = settings.PointsPerBooking
		}
	}

	return result, nil
}

// commit assigns a fresh booking code and writes the booking, retrying on code collisions
func (s *BookingService) commit(ctx context.Context, booking *models.Booking, res database.Reservation) error {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return err
		}
		exists, err := s.bookings.CodeExists(ctx, code)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		booking.BookingID = code
		err = s.bookings.CreateWithReservation(ctx, booking, res)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, database.ErrDuplicateBookingCode):
			booking.ID = uuid.Nil
			continue
		default:
			return mapReservationError(err)
		}
	}
	return fmt.Errorf("failed to allocate a unique booking code after %d attempts", maxCodeAttempts)
}

func mapReservationError(err error) error {
	var unavailable *database.SlotUnavailableError
	if errors.As(err, &unavailable) {
		return &ConflictError{Day: unavailable.Day, Slot: unavailable.Slot}
	}
	if errors.Is(err, database.ErrCouponExhausted) {
		return validationf("couponCode", "coupon usage limit reached")
	}
	return err
}

func startTimeOf(slots models.ResolvedSlots) string {
	if slots.Kind == models.SlotKindRanges && len(slots.Ranges) > 0 {
		return slots.Ranges[0].Start
	}
	if len(slots.Labels) > 0 {
		return slots.Labels[0]
	}
	return ""
}

// GetBooking loads a booking by UUID or booking code
func (s *BookingService) GetBooking(ctx context.Context, ref string) (*models.Booking, error) {
	ref = strings.TrimSpace(ref)
	var (
		b   *models.Booking
		err error
	)
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		b, err = s.bookings.GetByID(ctx, id)
	} else {
		b, err = s.bookings.GetByCode(ctx, strings.ToUpper(ref))
	}
	if err != nil {
		return nil, notFound(err, "booking", ref)
	}
	return b, nil
}

// ListBookings lists bookings matching filter
func (s *BookingService) ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	return s.bookings.List(ctx, filter)
}

// CancelBooking marks a booking Cancelled and releases its slots.
// Cancelling twice fails with ErrAlreadyCancelled and leaves the ledger untouched.
func (s *BookingService) CancelBooking(ctx context.Context, actor Actor, ref string) (*models.Booking, error) {
	b, err := s.GetBooking(ctx, ref)
	if err != nil {
		return nil, err
	}
	if b.Status == models.BookingStatusCancelled {
		return nil, ErrAlreadyCancelled
	}

	cancelled, err := s.bookings.Cancel(ctx, b.ID)
	if err != nil {
		if errors.Is(err, database.ErrAlreadyCancelled) {
			return nil, ErrAlreadyCancelled
		}
		return nil, notFound(err, "booking", ref)
	}

	s.logger.WithFields(logrus.Fields{"booking_id": cancelled.BookingID, "by": actor.UserID}).Info("Booking cancelled")
	_ = s.audit.RecordBy(ctx, actor, AuditActionBookingCancelled, "booking", cancelled.ID.String(), map[string]interface{}{
		"code": cancelled.BookingID,
	})
	return cancelled, nil
}

// DeleteBooking hard-deletes a booking, releasing its slots unless it was cancelled
func (s *BookingService) DeleteBooking(ctx context.Context, actor Actor, ref string) (*models.Booking, error) {
	b, err := s.GetBooking(ctx, ref)
	if err != nil {
		return nil, err
	}

	deleted, err := s.bookings.Delete(ctx, b.ID)
	if err != nil {
		return nil, notFound(err, "booking", ref)
	}

	s.logger.WithFields(logrus.Fields{"booking_id": deleted.BookingID, "by": actor.UserID}).Warn("Booking deleted")
	_ = s.audit.RecordBy(ctx, actor, AuditActionBookingDeleted, "booking", deleted.ID.String(), map[string]interface{}{
		"code":   deleted.BookingID,
		"status": deleted.Status,
	})
	return deleted, nil
}

// UpdateStatus changes a booking's status. Cancellation is routed through CancelBooking
// so that the ledger is released.
func (s *BookingService) UpdateStatus(ctx context.Context, actor Actor, ref, status string) (*models.Booking, error) {
	next := models.BookingStatus(status)
	if !next.IsValid() {
		return nil, validationf("status", "unknown status %q", status)
	}
	if next == models.BookingStatusCancelled {
		return s.CancelBooking(ctx, actor, ref)
	}

	b, err := s.GetBooking(ctx, ref)
	if err != nil {
		return nil, err
	}
	updated, err := s.bookings.UpdateStatus(ctx, b.ID, next)
	if err != nil {
		if errors.Is(err, database.ErrAlreadyCancelled) {
			return nil, ErrAlreadyCancelled
		}
		return nil, notFound(err, "booking", ref)
	}

	_ = s.audit.RecordBy(ctx, actor, AuditActionBookingStatusChange, "booking", updated.ID.String(), map[string]interface{}{
		"from": b.Status,
		"to":   updated.Status,
	})
	return updated, nil
}

// notFound converts a store ErrNotFound into a *NotFoundError and passes other errors through
func notFound(err error, entity, id string) error {
	if errors.Is(err, database.ErrNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return err
}
