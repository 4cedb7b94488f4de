package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SlotBehavior controls how label-based slot requests are interpreted for a space type
type SlotBehavior string

const (
	SlotBehaviorConsecutive SlotBehavior = "consecutive"
	SlotBehaviorFullBlock   SlotBehavior = "full-block"
)

// IsValid reports whether the behavior is a known value
func (b SlotBehavior) IsValid() bool {
	return b == SlotBehaviorConsecutive || b == SlotBehaviorFullBlock
}

// SpaceType is a category of room with its own ordered slot vocabulary
type SpaceType struct {
	ID            uuid.UUID    `db:"id" json:"id"`
	Name          string       `db:"name" json:"name"`
	Description   string       `db:"description" json:"description"`
	IsActive      bool         `db:"is_active" json:"isActive"`
	AllowedSlots  StringArray  `db:"allowed_slots" json:"allowedSlots"`
	SlotBehavior  SlotBehavior `db:"slot_behavior" json:"slotBehavior"`
	SlotDuration  int          `db:"slot_duration" json:"slotDuration"` // hours
	LastBookedAt  *time.Time   `db:"last_booked_at" json:"lastBookedAt,omitempty"`
	BookingsCount int          `db:"bookings_count" json:"bookingsCount"`
	CreatedAt     time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updatedAt"`
}

// IsMeetingRoom reports whether the space type is a meeting room.
// Meeting rooms only accept literal presets (Morning, Evening).
func (s *SpaceType) IsMeetingRoom() bool {
	return strings.Contains(strings.ToLower(s.Name), "meeting")
}

// SlotLength returns the clock length of one label slot
func (s *SpaceType) SlotLength() time.Duration {
	if s.SlotDuration <= 0 {
		return time.Hour
	}
	return time.Duration(s.SlotDuration) * time.Hour
}

// SlotIndex returns the position of label in AllowedSlots, or -1
func (s *SpaceType) SlotIndex(label string) int {
	for i, slot := range s.AllowedSlots {
		if slot == label {
			return i
		}
	}
	return -1
}

// SpaceTypeRequest is the admin payload for creating or updating a space type
type SpaceTypeRequest struct {
	Name         string   `json:"name" binding:"required,min=2,max=100"`
	Description  string   `json:"description" binding:"max=1000"`
	IsActive     *bool    `json:"isActive"`
	AllowedSlots []string `json:"allowedSlots" binding:"required,min=1,dive,required"`
	SlotBehavior string   `json:"slotBehavior" binding:"omitempty,oneof=consecutive full-block"`
	SlotDuration int      `json:"slotDuration" binding:"omitempty,min=1,max=24"`
}
