package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func availabilityFor(f *bookingFixture) *AvailabilityService {
	return NewAvailabilityService(
		f.store,
		f.store,
		roomMap{f.room.ID: f.room},
		spaceTypeMap{f.spaceType.ID: f.spaceType},
		quietLogger(),
	)
}

func TestGetAvailability_AfterPresetBooking(t *testing.T) {
	spaceType := coworkingType()
	spaceType.AllowedSlots = append(models.StringArray{"3H"}, hourlySlots...)
	f := newBookingFixture(t, spaceType, 1)
	ctx := context.Background()

	req := f.request("2030-01-07", "")
	req.TimeRanges = labels("3H")
	_, err := f.service.CreateBooking(ctx, CreateBookingInput{Request: req, UserID: uuid.New()})
	require.NoError(t, err)

	report, err := availabilityFor(f).GetAvailability(ctx, AvailabilityQuery{
		RoomID: f.room.ID,
		From:   "2030-01-07",
		To:     "2030-01-08",
	})
	require.NoError(t, err)

	assert.Equal(t, "Hot Desk", report.SpaceType)
	require.Len(t, report.Availability, 2)

	booked := report.Availability[0]
	assert.Equal(t, "2030-01-07", booked.Date)
	assert.Equal(t, "Monday", booked.Day)
	assert.Equal(t, models.SlotAvailability{Available: 0, Booked: 1, IsAvailable: false}, booked.TimeSlots["3H"])
	assert.Equal(t, models.SlotAvailability{Available: 1, Booked: 0, IsAvailable: true}, booked.TimeSlots["09:00AM"])
	assert.True(t, booked.IsAvailable)

	untouched := report.Availability[1]
	assert.Equal(t, 1, untouched.AvailableSize)
	assert.True(t, untouched.TimeSlots["3H"].IsAvailable)
	assert.Len(t, untouched.TimeSlots, len(spaceType.AllowedSlots))
	assert.Equal(t, -1, f.store.booked(f.room.ID, day("2030-01-08"), "3H"))
}

func TestGetAvailability_FullDay(t *testing.T) {
	spaceType := coworkingType()
	spaceType.AllowedSlots = models.StringArray{"09:00AM", "10:00AM"}
	f := newBookingFixture(t, spaceType, 1)
	ctx := context.Background()

	req := f.request("2030-01-07", "")
	req.TimeRanges = labels("09:00AM", "10:00AM")
	_, err := f.service.CreateBooking(ctx, CreateBookingInput{Request: req, UserID: uuid.New()})
	require.NoError(t, err)

	report, err := availabilityFor(f).GetAvailability(ctx, AvailabilityQuery{RoomID: f.room.ID, From: "2030-01-07"})
	require.NoError(t, err)
	require.Len(t, report.Availability, 1)
	assert.False(t, report.Availability[0].IsAvailable)
}

func TestGetAvailability_Timeline(t *testing.T) {
	f := newBookingFixture(t, coworkingType(), 2)
	ctx := context.Background()

	req := f.request("2030-01-07", "")
	req.TimeRanges = []models.SlotItem{{Range: &models.TimeRange{Start: "09:00", End: "10:00"}}}
	_, err := f.service.CreateBooking(ctx, CreateBookingInput{Request: req, UserID: uuid.New()})
	require.NoError(t, err)

	report, err := availabilityFor(f).GetAvailability(ctx, AvailabilityQuery{
		RoomID:   f.room.ID,
		From:     "2030-01-07",
		Timeline: true,
	})
	require.NoError(t, err)

	cells := report.Availability[0].Timeline
	require.Len(t, cells, 24)
	assert.Equal(t, "08:00", cells[0].Start)
	assert.False(t, cells[1].IsBooked)
	assert.True(t, cells[2].IsBooked)
	assert.Equal(t, "booked", cells[3].Status)
	assert.False(t, cells[4].IsBooked)
}

func TestGetAvailability_Errors(t *testing.T) {
	f := newBookingFixture(t, coworkingType(), 1)
	service := availabilityFor(f)
	ctx := context.Background()

	_, err := service.GetAvailability(ctx, AvailabilityQuery{RoomID: uuid.New(), From: "2030-01-07"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = service.GetAvailability(ctx, AvailabilityQuery{RoomID: f.room.ID, From: "2030-01-07", To: "2030-01-01"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = service.GetAvailability(ctx, AvailabilityQuery{RoomID: f.room.ID, From: "2030-01-01", To: "2030-12-31"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestVerifyOverlap(t *testing.T) {
	d := day("2030-01-07")
	active := []models.Booking{
		{StartDate: d, EndDate: d, Status: models.BookingStatusConfirmed, TimeRanges: models.TimeRanges{{Start: "13:00", End: "14:00"}}},
		{StartDate: d, EndDate: d, Status: models.BookingStatusCancelled, TimeRanges: models.TimeRanges{{Start: "09:00", End: "12:00"}}},
		{StartDate: d, EndDate: d, Status: models.BookingStatusBooked, TimeSlots: models.StringArray{"03:00PM"}},
	}

	tests := []struct {
		name     string
		slots    models.ResolvedSlots
		conflict bool
	}{
		{"cancelled booking ignored", models.ResolvedSlots{Kind: models.SlotKindRanges, Ranges: []models.TimeRange{{Start: "10:00", End: "11:00"}}}, false},
		{"range overlaps range", models.ResolvedSlots{Kind: models.SlotKindRanges, Ranges: []models.TimeRange{{Start: "13:30", End: "14:30"}}}, true},
		{"range touches range", models.ResolvedSlots{Kind: models.SlotKindRanges, Ranges: []models.TimeRange{{Start: "14:00", End: "15:00"}}}, false},
		{"range overlaps label", models.ResolvedSlots{Kind: models.SlotKindRanges, Ranges: []models.TimeRange{{Start: "15:30", End: "16:00"}}}, true},
		{"label overlaps range", models.ResolvedSlots{Kind: models.SlotKindLabels, Labels: []string{"01:00PM"}}, true},
		{"label against label left to ledger", models.ResolvedSlots{Kind: models.SlotKindLabels, Labels: []string{"03:00PM"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyOverlap(time.Hour, []time.Time{d}, tt.slots, active)
			if tt.conflict {
				assert.ErrorIs(t, err, ErrConflict)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.NoError(t, VerifyOverlap(time.Hour, []time.Time{day("2030-01-08")},
		models.ResolvedSlots{Kind: models.SlotKindRanges, Ranges: []models.TimeRange{{Start: "13:00", End: "14:00"}}}, active))
}
