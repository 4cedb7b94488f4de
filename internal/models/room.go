package models

import (
	"time"

	"github.com/google/uuid"
)

// Room is a bookable space
type Room struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	Name           string      `db:"name" json:"name"`
	Description    string      `db:"description" json:"description"`
	Location       string      `db:"location" json:"location"`
	PricePerHour   float64     `db:"price_per_hour" json:"pricePerHour"`
	Capacity       int         `db:"capacity" json:"capacity"`   // guests
	RoomSize       int         `db:"room_size" json:"roomSize"` // parallel bookable units
	SpaceTypeID    uuid.UUID   `db:"space_type_id" json:"spaceTypeId"`
	CurrencyCode   string      `db:"currency_code" json:"currencyCode"`
	CurrencySymbol string      `db:"currency_symbol" json:"currencySymbol"`
	ImageURL       *string     `db:"image_url" json:"imageUrl,omitempty"`
	Amenities      StringArray `db:"amenities" json:"amenities"`
	CreatedAt      time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updatedAt"`
}

// AvailableSize is the per-slot capacity used when a day's availability record is created
func (r *Room) AvailableSize() int {
	if r.RoomSize < 1 {
		return 1
	}
	return r.RoomSize
}

// RoomRequest is the admin payload for creating or updating a room
type RoomRequest struct {
	Name           string   `json:"name" binding:"required,min=2,max=200"`
	Description    string   `json:"description" binding:"max=2000"`
	Location       string   `json:"location" binding:"required"`
	PricePerHour   float64  `json:"pricePerHour" binding:"gte=0"`
	Capacity       int      `json:"capacity" binding:"required,min=1"`
	RoomSize       int      `json:"roomSize" binding:"omitempty,min=1"`
	SpaceTypeID    string   `json:"spaceTypeId" binding:"required,uuid"`
	CurrencyCode   string   `json:"currencyCode" binding:"omitempty,len=3"`
	CurrencySymbol string   `json:"currencySymbol"`
	ImageURL       *string  `json:"imageUrl" binding:"omitempty,url"`
	Amenities      []string `json:"amenities"`
}
