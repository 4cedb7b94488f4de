package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/models"
	"github.com/jmoiron/sqlx"
)

// ErrInsufficientBalance is returned when a deduction would make a balance negative
var ErrInsufficientBalance = errors.New("insufficient reward points")

const (
	rewardSettingColumns = `
		id, point_to_currency_rate, points_per_booking, min_booking_amount_for_points,
		max_points_redeem_percentage, points_expiry_days, updated_at`
	userRewardColumns    = `user_id, total_points, lifetime_earned, lifetime_used, created_at, updated_at`
	rewardHistoryColumns = `
		id, user_id, action, points, booking_id, note, created_by, ip_address,
		expires_at, expired_at, created_at`
)

// RewardRepository handles reward settings, balances and the points ledger
type RewardRepository struct {
	db DB
}

// NewRewardRepository creates a new reward repository
func NewRewardRepository(db DB) *RewardRepository {
	return &RewardRepository{db: db}
}

// GetSettings returns the singleton settings row, creating it with defaults on first use
func (r *RewardRepository) GetSettings(ctx context.Context) (*models.RewardSetting, error) {
	d := models.DefaultRewardSetting()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reward_settings (
			id, point_to_currency_rate, points_per_booking, min_booking_amount_for_points,
			max_points_redeem_percentage, points_expiry_days
		) VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`,
		d.PointToCurrencyRate, d.PointsPerBooking, d.MinBookingAmountForPoints,
		d.MaxPointsRedeemPercentage, d.PointsExpiryDays)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize reward settings: %w", err)
	}

	var s models.RewardSetting
	if err := getOne(ctx, r.db, &s, `SELECT `+rewardSettingColumns+` FROM reward_settings WHERE id = 1`); err != nil {
		return nil, fmt.Errorf("failed to get reward settings: %w", err)
	}
	return &s, nil
}

// UpdateSettings writes the settings and appends the change log entry in one transaction
func (r *RewardRepository) UpdateSettings(ctx context.Context, s *models.RewardSetting, entry *models.RewardSettingLog) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			UPDATE reward_settings
			SET point_to_currency_rate = $1, points_per_booking = $2, min_booking_amount_for_points = $3,
			    max_points_redeem_percentage = $4, points_expiry_days = $5, updated_at = NOW()
			WHERE id = 1
			RETURNING updated_at`
		if err := getOne(ctx, tx, &s.UpdatedAt, query,
			s.PointToCurrencyRate, s.PointsPerBooking, s.MinBookingAmountForPoints,
			s.MaxPointsRedeemPercentage, s.PointsExpiryDays); err != nil {
			return fmt.Errorf("failed to update reward settings: %w", err)
		}

		if entry == nil {
			return nil
		}
		if entry.ID == uuid.Nil {
			entry.ID = uuid.New()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reward_setting_logs (id, changed_by, ip_address, changes, reason)
			VALUES ($1, $2, $3, $4, $5)`,
			entry.ID, entry.ChangedBy, entry.IPAddress, entry.Changes, entry.Reason)
		if err != nil {
			return fmt.Errorf("failed to write reward settings log: %w", err)
		}
		return nil
	})
}

// SettingLogs returns the most recent settings changes
func (r *RewardRepository) SettingLogs(ctx context.Context, limit int) ([]models.RewardSettingLog, error) {
	logs := []models.RewardSettingLog{}
	query := `
		SELECT id, changed_by, changed_at, ip_address, changes, reason
		FROM reward_setting_logs ORDER BY changed_at DESC LIMIT $1`
	if err := r.db.SelectContext(ctx, &logs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list reward settings logs: %w", err)
	}
	return logs, nil
}

// GetUserReward returns a user's balance row
func (r *RewardRepository) GetUserReward(ctx context.Context, userID uuid.UUID) (*models.UserReward, error) {
	var ur models.UserReward
	if err := getOne(ctx, r.db, &ur, `SELECT `+userRewardColumns+` FROM user_rewards WHERE user_id = $1`, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user reward: %w", err)
	}
	return &ur, nil
}

// ListUserRewards returns balances page by page, optionally for a single user
func (r *RewardRepository) ListUserRewards(ctx context.Context, userID *uuid.UUID, limit, offset int) ([]models.UserReward, int, error) {
	rewards := []models.UserReward{}
	var total int

	if userID != nil {
		if err := r.db.SelectContext(ctx, &rewards,
			`SELECT `+userRewardColumns+` FROM user_rewards WHERE user_id = $1`, *userID); err != nil {
			return nil, 0, fmt.Errorf("failed to list user rewards: %w", err)
		}
		return rewards, len(rewards), nil
	}

	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM user_rewards`); err != nil {
		return nil, 0, fmt.Errorf("failed to count user rewards: %w", err)
	}
	query := `SELECT ` + userRewardColumns + ` FROM user_rewards ORDER BY total_points DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &rewards, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list user rewards: %w", err)
	}
	return rewards, total, nil
}

// AddPoints increments (creating if needed) the balance and appends a positive history entry
func (r *RewardRepository) AddPoints(ctx context.Context, change models.PointsChange) (*models.UserReward, error) {
	var ur models.UserReward
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		earned := 0
		if change.Action == models.RewardActionEarned {
			earned = change.Points
		}
		query := `
			INSERT INTO user_rewards (user_id, total_points, lifetime_earned)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id) DO UPDATE
			SET total_points = user_rewards.total_points + EXCLUDED.total_points,
			    lifetime_earned = user_rewards.lifetime_earned + EXCLUDED.lifetime_earned,
			    updated_at = NOW()
			RETURNING ` + userRewardColumns
		if err := getOne(ctx, tx, &ur, query, change.UserID, change.Points, earned); err != nil {
			return fmt.Errorf("failed to add points: %w", err)
		}
		return insertHistory(ctx, tx, change, change.Points)
	})
	if err != nil {
		return nil, err
	}
	return &ur, nil
}

// DeductPoints decrements the balance only if it covers the amount, appending a negative entry
func (r *RewardRepository) DeductPoints(ctx context.Context, change models.PointsChange) (*models.UserReward, error) {
	var ur models.UserReward
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		used := 0
		if change.Action == models.RewardActionUsed {
			used = change.Points
		}
		query := `
			UPDATE user_rewards
			SET total_points = total_points - $2, lifetime_used = lifetime_used + $3, updated_at = NOW()
			WHERE user_id = $1 AND total_points >= $2
			RETURNING ` + userRewardColumns
		if err := getOne(ctx, tx, &ur, query, change.UserID, change.Points, used); err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrInsufficientBalance
			}
			return fmt.Errorf("failed to deduct points: %w", err)
		}
		return insertHistory(ctx, tx, change, -change.Points)
	})
	if err != nil {
		return nil, err
	}
	return &ur, nil
}

// ExpirePoints claims the user's due Earned entries and deducts them once.
// The deduction is clamped to the current balance. Returns the points deducted.
func (r *RewardRepository) ExpirePoints(ctx context.Context, userID uuid.UUID) (int, error) {
	var deducted int
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var balance int
		if err := getOne(ctx, tx, &balance,
			`SELECT total_points FROM user_rewards WHERE user_id = $1 FOR UPDATE`, userID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			return fmt.Errorf("failed to lock user reward: %w", err)
		}

		var claimed []int
		if err := sqlx.SelectContext(ctx, tx, &claimed, `
			UPDATE user_reward_history SET expired_at = NOW()
			WHERE user_id = $1 AND action = $2 AND expired_at IS NULL
			  AND expires_at IS NOT NULL AND expires_at <= NOW()
			RETURNING points`, userID, models.RewardActionEarned); err != nil {
			return fmt.Errorf("failed to claim expired points: %w", err)
		}

		due := 0
		for _, p := range claimed {
			due += p
		}
		if due > balance {
			due = balance
		}
		if due <= 0 {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE user_rewards SET total_points = total_points - $2, updated_at = NOW()
			WHERE user_id = $1`, userID, due); err != nil {
			return fmt.Errorf("failed to deduct expired points: %w", err)
		}

		change := models.PointsChange{
			UserID: userID,
			Action: models.RewardActionExpired,
			Note:   "Points expired",
		}
		if err := insertHistory(ctx, tx, change, -due); err != nil {
			return err
		}
		deducted = due
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deducted, nil
}

// UsersWithExpiredPoints lists users holding unclaimed expired entries
func (r *RewardRepository) UsersWithExpiredPoints(ctx context.Context, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `
		SELECT DISTINCT user_id FROM user_reward_history
		WHERE action = $1 AND expired_at IS NULL AND expires_at IS NOT NULL AND expires_at <= NOW()
		LIMIT $2`
	if err := r.db.SelectContext(ctx, &ids, query, models.RewardActionEarned, limit); err != nil {
		return nil, fmt.Errorf("failed to find users with expired points: %w", err)
	}
	return ids, nil
}

// History returns a user's ledger entries, newest first
func (r *RewardRepository) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.RewardHistoryEntry, error) {
	entries := []models.RewardHistoryEntry{}
	query := `SELECT ` + rewardHistoryColumns + `
		FROM user_reward_history WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &entries, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to get reward history: %w", err)
	}
	return entries, nil
}

func insertHistory(ctx context.Context, tx *sqlx.Tx, change models.PointsChange, signedPoints int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO user_reward_history (
			id, user_id, action, points, booking_id, note, created_by, ip_address, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.New(), change.UserID, change.Action, signedPoints, change.BookingID,
		change.Note, change.CreatedBy, change.IPAddress, change.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to write reward history: %w", err)
	}
	return nil
}
