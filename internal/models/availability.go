package models

import (
	"time"

	"github.com/google/uuid"
)

// RoomAvailability is the per-room per-day slot ledger
type RoomAvailability struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	RoomID        uuid.UUID  `db:"room_id" json:"roomId"`
	Date          time.Time  `db:"date" json:"date"`
	AvailableSize int        `db:"available_size" json:"availableSize"`
	BookedSlots   SlotCounts `db:"booked_slots" json:"bookedSlots"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

// Booked returns the number of units booked for a slot label
func (a *RoomAvailability) Booked(slot string) int {
	if a.BookedSlots == nil {
		return 0
	}
	return a.BookedSlots[slot]
}

// IsFull reports whether no unit is left for a slot label
func (a *RoomAvailability) IsFull(slot string) bool {
	return a.Booked(slot) >= a.AvailableSize
}

// SlotAvailability is the report entry for a single slot label
type SlotAvailability struct {
	Available   int  `json:"available"`
	Booked      int  `json:"booked"`
	IsAvailable bool `json:"isAvailable"`
}

// DayAvailability is one day of an availability report
type DayAvailability struct {
	Date          string                      `json:"date"`
	Day           string                      `json:"day"`
	AvailableSize int                         `json:"availableSize"`
	IsAvailable   bool                        `json:"isAvailable"`
	TimeSlots     map[string]SlotAvailability `json:"timeSlots"`
	Timeline      []TimelineCell              `json:"timeline,omitempty"`
}

// TimelineCell is a fixed-width clock cell of the day grid
type TimelineCell struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Status   string `json:"status"`
	IsBooked bool   `json:"isBooked"`
}

// AvailabilityReport is the response of the availability query
type AvailabilityReport struct {
	RoomID       uuid.UUID         `json:"roomId"`
	Room         string            `json:"room"`
	SpaceType    string            `json:"spaceType"`
	Location     string            `json:"location"`
	StartDate    string            `json:"startDate"`
	EndDate      string            `json:"endDate"`
	Availability []DayAvailability `json:"availability"`
}
