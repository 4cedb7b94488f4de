package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/database"
	"github.com/issaclevi/wayzx-backend/internal/models"
	"github.com/sirupsen/logrus"
)

const expirySweepBatch = 500

// RewardStore persists reward settings, balances and history
type RewardStore interface {
	GetSettings(ctx context.Context) (*models.RewardSetting, error)
	UpdateSettings(ctx context.Context, s *models.RewardSetting, entry *models.RewardSettingLog) error
	SettingLogs(ctx context.Context, limit int) ([]models.RewardSettingLog, error)
	GetUserReward(ctx context.Context, userID uuid.UUID) (*models.UserReward, error)
	ListUserRewards(ctx context.Context, userID *uuid.UUID, limit, offset int) ([]models.UserReward, int, error)
	AddPoints(ctx context.Context, change models.PointsChange) (*models.UserReward, error)
	DeductPoints(ctx context.Context, change models.PointsChange) (*models.UserReward, error)
	ExpirePoints(ctx context.Context, userID uuid.UUID) (int, error)
	UsersWithExpiredPoints(ctx context.Context, limit int) ([]uuid.UUID, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]models.RewardHistoryEntry, error)
}

// DiscountQuote is the best redemption available for an amount
type DiscountQuote struct {
	AvailablePoints  int     `json:"availablePoints"`
	PointsToUse      int     `json:"pointsToUse"`
	DiscountAmount   float64 `json:"discountAmount"`
	RemainingPoints  int     `json:"remainingPoints"`
	MaxDiscount      float64 `json:"maxDiscount"`
	MaxPointsAllowed int     `json:"maxPointsAllowed"`
}

// RewardSummary is a user's balance with the settings needed to interpret it
type RewardSummary struct {
	UserID                    uuid.UUID `json:"userId"`
	TotalPoints               int       `json:"totalPoints"`
	LifetimeEarned            int       `json:"lifetimeEarned"`
	LifetimeUsed              int       `json:"lifetimeUsed"`
	PointValue                float64   `json:"pointValue"`
	PointToCurrencyRate       float64   `json:"pointToCurrencyRate"`
	PointsPerBooking          int       `json:"pointsPerBooking"`
	MinBookingAmountForPoints float64   `json:"minBookingAmountForPoints"`
	MaxPointsRedeemPercentage float64   `json:"maxPointsRedeemPercentage"`
}

// RewardService implements the reward ledger rules on top of a RewardStore
type RewardService struct {
	store  RewardStore
	cache  SettingsCache
	audit  *AuditService
	logger *logrus.Logger
	now    func() time.Time
}

// NewRewardService creates a new reward service
func NewRewardService(store RewardStore, cache SettingsCache, audit *AuditService, logger *logrus.Logger) *RewardService {
	if cache == nil {
		cache = NewMemorySettingsCache(0)
	}
	return &RewardService{
		store:  store,
		cache:  cache,
		audit:  audit,
		logger: logger,
		now:    time.Now,
	}
}

// Settings returns the current reward settings, through the cache
func (s *RewardService) Settings(ctx context.Context) (*models.RewardSetting, error) {
	if cached, ok := s.cache.Get(ctx); ok {
		return cached, nil
	}

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	s.sanitize(settings)
	s.cache.Set(ctx, settings)
	return settings, nil
}

// SettingsOrDefault returns the settings, falling back to defaults when they cannot be read
func (s *RewardService) SettingsOrDefault(ctx context.Context) *models.RewardSetting {
	settings, err := s.Settings(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Using default reward settings")
		d := models.DefaultRewardSetting()
		return &d
	}
	return settings
}

// sanitize repairs values that would break arithmetic if a row was edited by hand
func (s *RewardService) sanitize(settings *models.RewardSetting) {
	if settings.PointsPerBooking < 1 {
		s.logger.WithField("points_per_booking", settings.PointsPerBooking).Warn("Invalid points per booking, using default")
		settings.PointsPerBooking = models.DefaultPointsPerBooking
	}
	if settings.PointToCurrencyRate <= 0 {
		s.logger.WithField("point_to_currency_rate", settings.PointToCurrencyRate).Warn("Invalid point rate, using default")
		settings.PointToCurrencyRate = models.DefaultPointToCurrencyRate
	}
}

// GetUserPoints returns the spendable balance after expiring anything due
func (s *RewardService) GetUserPoints(ctx context.Context, userID uuid.UUID) (int, error) {
	reward, err := s.userReward(ctx, userID)
	if err != nil {
		return 0, err
	}
	return reward.TotalPoints, nil
}

func (s *RewardService) userReward(ctx context.Context, userID uuid.UUID) (*models.UserReward, error) {
	if expired, err := s.store.ExpirePoints(ctx, userID); err != nil {
		return nil, err
	} else if expired > 0 {
		s.logger.WithFields(logrus.Fields{"user_id": userID, "points": expired}).Info("Expired reward points")
	}

	reward, err := s.store.GetUserReward(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return &models.UserReward{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return reward, nil
}

// CalculateDiscount returns the largest redemption allowed for amount
func (s *RewardService) CalculateDiscount(ctx context.Context, userID uuid.UUID, amount float64) (*DiscountQuote, error) {
	if amount <= 0 {
		return nil, validationf("amount", "amount must be greater than zero")
	}

	balance, err := s.GetUserPoints(ctx, userID)
	if err != nil {
		return nil, err
	}
	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}

	maxDiscount := amount * settings.MaxPointsRedeemPercentage / 100
	maxPoints := int(math.Floor(maxDiscount * settings.PointToCurrencyRate))
	points := balance
	if points > maxPoints {
		points = maxPoints
	}

	return &DiscountQuote{
		AvailablePoints:  balance,
		PointsToUse:      points,
		DiscountAmount:   roundCurrency(float64(points) / settings.PointToCurrencyRate),
		RemainingPoints:  balance - points,
		MaxDiscount:      roundCurrency(maxDiscount),
		MaxPointsAllowed: maxPoints,
	}, nil
}

// AddPoints credits points. Earned points carry an expiry when the settings define one.
func (s *RewardService) AddPoints(ctx context.Context, change models.PointsChange) (*models.UserReward, error) {
	if change.Points <= 0 {
		return nil, validationf("points", "points must be greater than zero")
	}

	if change.Action == models.RewardActionEarned && change.ExpiresAt == nil {
		settings := s.SettingsOrDefault(ctx)
		if settings.PointsExpiryDays > 0 {
			expires := s.now().AddDate(0, 0, settings.PointsExpiryDays)
			change.ExpiresAt = &expires
		}
	}

	reward, err := s.store.AddPoints(ctx, change)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"user_id": change.UserID,
		"action":  change.Action,
		"points":  change.Points,
		"balance": reward.TotalPoints,
	}).Info("Reward points added")
	return reward, nil
}

// DeductPoints debits points, failing with *InsufficientPointsError when the balance is short
func (s *RewardService) DeductPoints(ctx context.Context, change models.PointsChange) (*models.UserReward, error) {
	if change.Points <= 0 {
		return nil, validationf("points", "points must be greater than zero")
	}

	available, err := s.GetUserPoints(ctx, change.UserID)
	if err != nil {
		return nil, err
	}
	if available < change.Points {
		return nil, &InsufficientPointsError{Available: available, Requested: change.Points}
	}

	reward, err := s.store.DeductPoints(ctx, change)
	if errors.Is(err, database.ErrInsufficientBalance) {
		current, _ := s.store.GetUserReward(ctx, change.UserID)
		if current != nil {
			available = current.TotalPoints
		}
		return nil, &InsufficientPointsError{Available: available, Requested: change.Points}
	}
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"user_id": change.UserID,
		"action":  change.Action,
		"points":  change.Points,
		"balance": reward.TotalPoints,
	}).Info("Reward points deducted")
	return reward, nil
}

// ModifyPointsInput is an admin balance adjustment
type ModifyPointsInput struct {
	Actor  Actor
	UserID uuid.UUID
	Points int
	Add    bool
	Note   string
}

// ModifyUserPoints applies an admin adjustment and audits it
func (s *RewardService) ModifyUserPoints(ctx context.Context, in ModifyPointsInput) (*models.UserReward, error) {
	adminID := in.Actor.UserID
	change := models.PointsChange{
		UserID:    in.UserID,
		Points:    in.Points,
		Note:      in.Note,
		CreatedBy: &adminID,
		IPAddress: in.Actor.IPAddress,
	}

	var (
		reward *models.UserReward
		err    error
	)
	if in.Add {
		change.Action = models.RewardActionAdminAdded
		reward, err = s.AddPoints(ctx, change)
	} else {
		change.Action = models.RewardActionAdminRemoved
		reward, err = s.DeductPoints(ctx, change)
	}
	if err != nil {
		return nil, err
	}

	_ = s.audit.RecordBy(ctx, in.Actor, AuditActionPointsAdjusted, "user_rewards", in.UserID.String(), map[string]interface{}{
		"action":  change.Action,
		"points":  in.Points,
		"note":    in.Note,
		"balance": reward.TotalPoints,
	})
	return reward, nil
}

// GetUserRewards returns the user's balance summary
func (s *RewardService) GetUserRewards(ctx context.Context, userID uuid.UUID) (*RewardSummary, error) {
	reward, err := s.userReward(ctx, userID)
	if err != nil {
		return nil, err
	}
	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}

	return &RewardSummary{
		UserID:                    userID,
		TotalPoints:               reward.TotalPoints,
		LifetimeEarned:            reward.LifetimeEarned,
		LifetimeUsed:              reward.LifetimeUsed,
		PointValue:                roundCurrency(float64(reward.TotalPoints) / settings.PointToCurrencyRate),
		PointToCurrencyRate:       settings.PointToCurrencyRate,
		PointsPerBooking:          settings.PointsPerBooking,
		MinBookingAmountForPoints: settings.MinBookingAmountForPoints,
		MaxPointsRedeemPercentage: settings.MaxPointsRedeemPercentage,
	}, nil
}

// History returns the newest history entries of a user
func (s *RewardService) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.RewardHistoryEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.History(ctx, userID, limit)
}

// ListUserRewards lists balances for admins, optionally for a single user
func (s *RewardService) ListUserRewards(ctx context.Context, userID *uuid.UUID, page, limit int) ([]models.UserReward, int, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.ListUserRewards(ctx, userID, limit, (page-1)*limit)
}

// SettingLogs returns the newest settings changes
func (s *RewardService) SettingLogs(ctx context.Context, limit int) ([]models.RewardSettingLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.SettingLogs(ctx, limit)
}

// UpdateSettings applies an admin change to the settings, logs the diff and invalidates the cache
func (s *RewardService) UpdateSettings(ctx context.Context, actor Actor, req models.UpdateRewardSettingsRequest) (*models.RewardSetting, error) {
	current, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	updated := *current
	changes := models.JSONMap{}

	diffFloat := func(field string, dst *float64, v *float64) {
		if v != nil && *v != *dst {
			changes[field] = map[string]interface{}{"from": *dst, "to": *v}
			*dst = *v
		}
	}
	diffInt := func(field string, dst *int, v *int) {
		if v != nil && *v != *dst {
			changes[field] = map[string]interface{}{"from": *dst, "to": *v}
			*dst = *v
		}
	}

	if req.PointsPerBooking != nil && *req.PointsPerBooking < 1 {
		return nil, validationf("pointsPerBooking", "points per booking must be at least 1")
	}
	if req.PointToCurrencyRate != nil && *req.PointToCurrencyRate <= 0 {
		return nil, validationf("pointToCurrencyRate", "point to currency rate must be greater than zero")
	}

	diffFloat("pointToCurrencyRate", &updated.PointToCurrencyRate, req.PointToCurrencyRate)
	diffInt("pointsPerBooking", &updated.PointsPerBooking, req.PointsPerBooking)
	diffFloat("minBookingAmountForPoints", &updated.MinBookingAmountForPoints, req.MinBookingAmountForPoints)
	diffFloat("maxPointsRedeemPercentage", &updated.MaxPointsRedeemPercentage, req.MaxPointsRedeemPercentage)
	diffInt("pointsExpiryDays", &updated.PointsExpiryDays, req.PointsExpiryDays)

	if len(changes) == 0 {
		return nil, validationf("", "no changes to reward settings")
	}

	entry := &models.RewardSettingLog{
		ChangedBy: actor.UserID,
		IPAddress: actor.IPAddress,
		Changes:   changes,
		Reason:    req.Reason,
	}
	if err := s.store.UpdateSettings(ctx, &updated, entry); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)

	s.logger.WithFields(logrus.Fields{"changed_by": actor.UserID, "changes": len(changes)}).Info("Reward settings updated")
	_ = s.audit.RecordBy(ctx, actor, AuditActionRewardSettingsEdit, "reward_settings", "1", map[string]interface{}{
		"changes": changes,
		"reason":  req.Reason,
	})
	return &updated, nil
}

// SweepExpiredPoints expires due points for every affected user
func (s *RewardService) SweepExpiredPoints(ctx context.Context) (users, points int, err error) {
	ids, err := s.store.UsersWithExpiredPoints(ctx, expirySweepBatch)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list users with expired points: %w", err)
	}

	for _, id := range ids {
		expired, err := s.store.ExpirePoints(ctx, id)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", id).Error("Failed to expire reward points")
			continue
		}
		if expired > 0 {
			users++
			points += expired
		}
	}
	return users, points, nil
}

func roundCurrency(v float64) float64 {
	return math.Round(v*100) / 100
}
