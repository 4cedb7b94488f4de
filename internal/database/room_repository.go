package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/models"
)

const roomColumns = `
	id, name, description, location, price_per_hour, capacity, room_size, space_type_id,
	currency_code, currency_symbol, image_url, amenities, created_at, updated_at`

// RoomRepository handles database operations for rooms
type RoomRepository struct {
	db DB
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create inserts a room
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}
	query := `
		INSERT INTO rooms (
			id, name, description, location, price_per_hour, capacity, room_size, space_type_id,
			currency_code, currency_symbol, image_url, amenities
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		room.ID, room.Name, room.Description, room.Location, room.PricePerHour, room.Capacity,
		room.RoomSize, room.SpaceTypeID, room.CurrencyCode, room.CurrencySymbol, room.ImageURL, room.Amenities,
	).Scan(&room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

// GetByID retrieves a room
func (r *RoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	var room models.Room
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`
	if err := getOne(ctx, r.db, &room, query, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &room, nil
}

// List returns rooms, optionally restricted to one space type
func (r *RoomRepository) List(ctx context.Context, spaceTypeID *uuid.UUID) ([]models.Room, error) {
	rooms := []models.Room{}
	var err error
	if spaceTypeID != nil {
		err = r.db.SelectContext(ctx, &rooms,
			`SELECT `+roomColumns+` FROM rooms WHERE space_type_id = $1 ORDER BY name`, *spaceTypeID)
	} else {
		err = r.db.SelectContext(ctx, &rooms, `SELECT `+roomColumns+` FROM rooms ORDER BY name`)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

// Update replaces the editable fields of a room
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	query := `
		UPDATE rooms
		SET name = $2, description = $3, location = $4, price_per_hour = $5, capacity = $6,
		    room_size = $7, space_type_id = $8, currency_code = $9, currency_symbol = $10,
		    image_url = $11, amenities = $12, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := getOne(ctx, r.db, &room.UpdatedAt, query,
		room.ID, room.Name, room.Description, room.Location, room.PricePerHour, room.Capacity,
		room.RoomSize, room.SpaceTypeID, room.CurrencyCode, room.CurrencySymbol, room.ImageURL, room.Amenities)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to update room: %w", err)
	}
	return nil
}

// Delete removes a room
func (r *RoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	return requireAffected(result, ErrNotFound)
}
