package handlers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/database"
	"github.com/issaclevi/wayzx-backend/internal/models"
)

type memRooms struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]models.Room
}

func newMemRooms() *memRooms {
	return &memRooms{rooms: make(map[uuid.UUID]models.Room)}
}

func (m *memRooms) Create(_ context.Context, room *models.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}
	room.CreatedAt, room.UpdatedAt = time.Now(), time.Now()
	m.rooms[room.ID] = *room
	return nil
}

func (m *memRooms) GetByID(_ context.Context, id uuid.UUID) (*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &room, nil
}

func (m *memRooms) List(_ context.Context, spaceTypeID *uuid.UUID) ([]models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Room{}
	for _, room := range m.rooms {
		if spaceTypeID == nil || room.SpaceTypeID == *spaceTypeID {
			out = append(out, room)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRooms) Update(_ context.Context, room *models.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[room.ID]; !ok {
		return database.ErrNotFound
	}
	room.UpdatedAt = time.Now()
	m.rooms[room.ID] = *room
	return nil
}

func (m *memRooms) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.rooms, id)
	return nil
}

type memSpaceTypes struct {
	mu    sync.Mutex
	types map[uuid.UUID]models.SpaceType
}

func newMemSpaceTypes(seed ...models.SpaceType) *memSpaceTypes {
	m := &memSpaceTypes{types: make(map[uuid.UUID]models.SpaceType)}
	for _, s := range seed {
		m.types[s.ID] = s
	}
	return m
}

func (m *memSpaceTypes) Create(_ context.Context, s *models.SpaceType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m.types[s.ID] = *s
	return nil
}

func (m *memSpaceTypes) GetByID(_ context.Context, id uuid.UUID) (*models.SpaceType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.types[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &s, nil
}

func (m *memSpaceTypes) List(_ context.Context, activeOnly bool) ([]models.SpaceType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.SpaceType{}
	for _, s := range m.types {
		if !activeOnly || s.IsActive {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memSpaceTypes) Update(_ context.Context, s *models.SpaceType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.types[s.ID]; !ok {
		return database.ErrNotFound
	}
	m.types[s.ID] = *s
	return nil
}

func (m *memSpaceTypes) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.types[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.types, id)
	return nil
}

// memBookingStore covers the lookups, listing and cancellation paths of the booking handler
type memBookingStore struct {
	mu         sync.Mutex
	bookings   map[uuid.UUID]models.Booking
	lastFilter models.BookingFilter
	cancels    int
}

func newMemBookingStore(seed ...models.Booking) *memBookingStore {
	m := &memBookingStore{bookings: make(map[uuid.UUID]models.Booking)}
	for _, b := range seed {
		m.bookings[b.ID] = b
	}
	return m
}

func (m *memBookingStore) ActiveOverlapping(context.Context, uuid.UUID, time.Time, time.Time) ([]models.Booking, error) {
	return nil, nil
}

func (m *memBookingStore) CreateWithReservation(_ context.Context, b *models.Booking, _ database.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = *b
	return nil
}

func (m *memBookingStore) GetByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &b, nil
}

func (m *memBookingStore) GetByCode(_ context.Context, code string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if strings.EqualFold(b.BookingID, code) {
			return &b, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memBookingStore) CodeExists(ctx context.Context, code string) (bool, error) {
	_, err := m.GetByCode(ctx, code)
	return err == nil, nil
}

func (m *memBookingStore) List(_ context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	out := []models.Booking{}
	for _, b := range m.bookings {
		if filter.UserID != nil && b.UserID != *filter.UserID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *memBookingStore) Cancel(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if b.Status == models.BookingStatusCancelled {
		return nil, database.ErrAlreadyCancelled
	}
	b.Status = models.BookingStatusCancelled
	m.bookings[id] = b
	m.cancels++
	return &b, nil
}

func (m *memBookingStore) Delete(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	delete(m.bookings, id)
	return &b, nil
}

func (m *memBookingStore) UpdateStatus(_ context.Context, id uuid.UUID, status models.BookingStatus) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if b.Status == models.BookingStatusCancelled {
		return nil, database.ErrAlreadyCancelled
	}
	b.Status = status
	m.bookings[id] = b
	return &b, nil
}

// memAvailability hands out empty day ledgers
type memAvailability struct {
	mu   sync.Mutex
	days map[string]*models.RoomAvailability
}

func newMemAvailability() *memAvailability {
	return &memAvailability{days: make(map[string]*models.RoomAvailability)}
}

func (m *memAvailability) Ensure(_ context.Context, roomID uuid.UUID, day time.Time, availableSize int) (*models.RoomAvailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := roomID.String() + day.Format("2006-01-02")
	rec, ok := m.days[key]
	if !ok {
		rec = &models.RoomAvailability{ID: uuid.New(), RoomID: roomID, Date: day, AvailableSize: availableSize, BookedSlots: models.SlotCounts{}}
		m.days[key] = rec
	}
	copied := *rec
	return &copied, nil
}

func (m *memAvailability) ListRange(_ context.Context, roomID uuid.UUID, from, to time.Time) ([]models.RoomAvailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RoomAvailability
	for _, rec := range m.days {
		if rec.RoomID == roomID && !rec.Date.Before(from) && !rec.Date.After(to) {
			out = append(out, *rec)
		}
	}
	return out, nil
}
