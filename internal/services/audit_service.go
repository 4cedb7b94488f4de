package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/database"
	"github.com/issaclevi/wayzx-backend/internal/utils"
	"github.com/sirupsen/logrus"
)

// Audit actions
const (
	AuditActionLogin               = "login"
	AuditActionLogout              = "logout"
	AuditActionRewardSettingsEdit  = "reward_settings_update"
	AuditActionPointsAdjusted      = "reward_points_adjusted"
	AuditActionBookingDeleted      = "booking_deleted"
	AuditActionBookingCancelled    = "booking_cancelled"
	AuditActionBookingStatusChange = "booking_status_changed"
)

// AuditService records administrative and security events in audit_logs
type AuditService struct {
	db      database.DB
	logger  *logrus.Logger
	enabled bool
}

// NewAuditService creates a new audit service. A disabled service only logs.
func NewAuditService(db database.DB, logger *logrus.Logger, enabled bool) *AuditService {
	return &AuditService{
		db:      db,
		logger:  logger,
		enabled: enabled,
	}
}

// AuditEvent is one audit log entry
type AuditEvent struct {
	UserID     *uuid.UUID // nil before authentication
	Action     string
	EntityType string
	EntityID   string
	IPAddress  string
	UserAgent  string
	Details    map[string]interface{}
}

// Actor identifies who performed an audited operation
type Actor struct {
	UserID    uuid.UUID
	IPAddress string
	UserAgent string
}

// Record writes an event. Failures are logged and returned; callers treat them as non-fatal.
func (s *AuditService) Record(ctx context.Context, event AuditEvent) error {
	if s == nil {
		return nil
	}
	if event.Details == nil {
		event.Details = map[string]interface{}{}
	}
	event.Details["device_info"] = utils.ParseUserAgent(event.UserAgent)

	entry := s.logger.WithFields(logrus.Fields{
		"action":      event.Action,
		"entity_type": event.EntityType,
		"entity_id":   event.EntityID,
		"ip":          event.IPAddress,
	})
	if !s.enabled {
		entry.Info("Audit event")
		return nil
	}

	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		event.UserID, event.Action, event.EntityType, event.EntityID, event.IPAddress, event.UserAgent, details,
	)
	if err != nil {
		entry.WithError(err).Error("Failed to write audit event")
		return fmt.Errorf("failed to log audit event: %w", err)
	}
	return nil
}

// RecordBy writes an event performed by actor
func (s *AuditService) RecordBy(ctx context.Context, actor Actor, action, entityType, entityID string, details map[string]interface{}) error {
	userID := actor.UserID
	return s.Record(ctx, AuditEvent{
		UserID:     &userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		IPAddress:  actor.IPAddress,
		UserAgent:  actor.UserAgent,
		Details:    details,
	})
}
