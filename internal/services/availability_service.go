package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// Day grid shown alongside the slot counts
const (
	timelineStart = 8 * 60
	timelineEnd   = 20 * 60
	timelineStep  = 30
)

// AvailabilityService builds read-only availability reports from the slot ledger
type AvailabilityService struct {
	availability AvailabilityStore
	bookings     OverlapReader
	rooms        RoomReader
	spaceTypes   SpaceTypeReader
	logger       *logrus.Logger
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(availability AvailabilityStore, bookings OverlapReader, rooms RoomReader, spaceTypes SpaceTypeReader, logger *logrus.Logger) *AvailabilityService {
	return &AvailabilityService{
		availability: availability,
		bookings:     bookings,
		rooms:        rooms,
		spaceTypes:   spaceTypes,
		logger:       logger,
	}
}

// AvailabilityQuery selects the room and inclusive day span of a report
type AvailabilityQuery struct {
	RoomID   uuid.UUID
	From     string
	To       string
	Timeline bool
	Location *time.Location
}

// GetAvailability reports per-day, per-slot counts for the room's allowed slots.
// Days without a ledger row report the room's full size. The report never creates rows.
func (s *AvailabilityService) GetAvailability(ctx context.Context, q AvailabilityQuery) (*models.AvailabilityReport, error) {
	loc := q.Location
	if loc == nil {
		loc = time.UTC
	}

	room, err := s.rooms.GetByID(ctx, q.RoomID)
	if err != nil {
		return nil, notFound(err, "room", q.RoomID.String())
	}
	spaceType, err := s.spaceTypes.GetByID(ctx, room.SpaceTypeID)
	if err != nil {
		return nil, notFound(err, "space type", room.SpaceTypeID.String())
	}

	from, to, err := ParseDateRange(q.From, q.To, loc)
	if err != nil {
		return nil, err
	}

	records, err := s.availability.ListRange(ctx, room.ID, from, to)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]*models.RoomAvailability, len(records))
	for i := range records {
		byDay[FormatDay(records[i].Date)] = &records[i]
	}

	var active []models.Booking
	if q.Timeline {
		if active, err = s.bookings.ActiveOverlapping(ctx, room.ID, from, to); err != nil {
			return nil, err
		}
	}

	report := &models.AvailabilityReport{
		RoomID:       room.ID,
		Room:         room.Name,
		SpaceType:    spaceType.Name,
		Location:     room.Location,
		StartDate:    FormatDay(from),
		EndDate:      FormatDay(to),
		Availability: make([]models.DayAvailability, 0, len(models.DaysBetween(from, to))),
	}

	for _, day := range models.DaysBetween(from, to) {
		record := byDay[FormatDay(day)]
		size := room.AvailableSize()
		if record != nil {
			size = record.AvailableSize
		}

		da := models.DayAvailability{
			Date:          FormatDay(day),
			Day:           day.Weekday().String(),
			AvailableSize: size,
			TimeSlots:     make(map[string]models.SlotAvailability, len(spaceType.AllowedSlots)),
		}
		for _, slot := range spaceType.AllowedSlots {
			booked := 0
			if record != nil {
				booked = record.Booked(slot)
			}
			available := size - booked
			if available < 0 {
				available = 0
			}
			da.TimeSlots[slot] = models.SlotAvailability{
				Available:   available,
				Booked:      booked,
				IsAvailable: available > 0,
			}
			if available > 0 {
				da.IsAvailable = true
			}
		}
		if q.Timeline {
			da.Timeline = timeline(day, spaceType.SlotLength(), active)
		}
		report.Availability = append(report.Availability, da)
	}

	return report, nil
}

// timeline marks each fixed-width cell of the day grid that an active booking touches
func timeline(day time.Time, slotLength time.Duration, active []models.Booking) []models.TimelineCell {
	var busy []models.Interval
	for i := range active {
		b := &active[i]
		if day.Before(models.TruncateDay(b.StartDate)) || day.After(models.TruncateDay(b.EndDate)) {
			continue
		}
		for _, iv := range SlotIntervals(b.Slots(), slotLength) {
			busy = append(busy, iv.Interval)
		}
	}

	cells := make([]models.TimelineCell, 0, (timelineEnd-timelineStart)/timelineStep)
	for start := timelineStart; start < timelineEnd; start += timelineStep {
		cell := models.Interval{Start: start, End: start + timelineStep}
		booked := false
		for _, iv := range busy {
			if cell.Overlaps(iv) {
				booked = true
				break
			}
		}
		status := "available"
		if booked {
			status = "booked"
		}
		cells = append(cells, models.TimelineCell{
			Start:    FormatClock(cell.Start),
			End:      FormatClock(cell.End),
			Status:   status,
			IsBooked: booked,
		})
	}
	return cells
}
