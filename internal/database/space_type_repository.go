package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/models"
)

const spaceTypeColumns = `
	id, name, description, is_active, allowed_slots, slot_behavior, slot_duration,
	last_booked_at, bookings_count, created_at, updated_at`

// SpaceTypeRepository handles database operations for space types
type SpaceTypeRepository struct {
	db DB
}

// NewSpaceTypeRepository creates a new space type repository
func NewSpaceTypeRepository(db DB) *SpaceTypeRepository {
	return &SpaceTypeRepository{db: db}
}

// Create inserts a space type
func (r *SpaceTypeRepository) Create(ctx context.Context, s *models.SpaceType) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	query := `
		INSERT INTO space_types (id, name, description, is_active, allowed_slots, slot_behavior, slot_duration)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		s.ID, s.Name, s.Description, s.IsActive, s.AllowedSlots, s.SlotBehavior, s.SlotDuration,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create space type: %w", err)
	}
	return nil
}

// GetByID retrieves a space type
func (r *SpaceTypeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SpaceType, error) {
	var s models.SpaceType
	query := `SELECT ` + spaceTypeColumns + ` FROM space_types WHERE id = $1`
	if err := getOne(ctx, r.db, &s, query, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get space type: %w", err)
	}
	return &s, nil
}

// List returns space types ordered by name
func (r *SpaceTypeRepository) List(ctx context.Context, activeOnly bool) ([]models.SpaceType, error) {
	query := `SELECT ` + spaceTypeColumns + ` FROM space_types`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name`

	spaceTypes := []models.SpaceType{}
	if err := r.db.SelectContext(ctx, &spaceTypes, query); err != nil {
		return nil, fmt.Errorf("failed to list space types: %w", err)
	}
	return spaceTypes, nil
}

// Update replaces the editable fields of a space type
func (r *SpaceTypeRepository) Update(ctx context.Context, s *models.SpaceType) error {
	query := `
		UPDATE space_types
		SET name = $2, description = $3, is_active = $4, allowed_slots = $5,
		    slot_behavior = $6, slot_duration = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := getOne(ctx, r.db, &s.UpdatedAt, query,
		s.ID, s.Name, s.Description, s.IsActive, s.AllowedSlots, s.SlotBehavior, s.SlotDuration)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to update space type: %w", err)
	}
	return nil
}

// Delete removes a space type
func (r *SpaceTypeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM space_types WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete space type: %w", err)
	}
	return requireAffected(result, ErrNotFound)
}
