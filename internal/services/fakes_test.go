package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/database"
	"github.com/issaclevi/wayzx-backend/internal/models"
)

// memBookings mimics the booking and ledger tables, serializing writes the way row locks do
type memBookings struct {
	mu             sync.Mutex
	ledger         map[string]*models.RoomAvailability
	bookings       map[uuid.UUID]*models.Booking
	coupons        *memCoupons
	spaceTypeStats map[uuid.UUID]int
	failCreate     error
}

func newMemBookings(coupons *memCoupons) *memBookings {
	return &memBookings{
		ledger:         map[string]*models.RoomAvailability{},
		bookings:       map[uuid.UUID]*models.Booking{},
		coupons:        coupons,
		spaceTypeStats: map[uuid.UUID]int{},
	}
}

func ledgerKey(roomID uuid.UUID, day time.Time) string {
	return roomID.String() + "|" + FormatDay(day)
}

func (m *memBookings) ensureLocked(roomID uuid.UUID, day time.Time, size int) *models.RoomAvailability {
	key := ledgerKey(roomID, day)
	if rec, ok := m.ledger[key]; ok {
		return rec
	}
	rec := &models.RoomAvailability{
		ID:            uuid.New(),
		RoomID:        roomID,
		Date:          models.TruncateDay(day),
		AvailableSize: size,
		BookedSlots:   models.SlotCounts{},
	}
	m.ledger[key] = rec
	return rec
}

func (m *memBookings) Ensure(ctx context.Context, roomID uuid.UUID, day time.Time, availableSize int) (*models.RoomAvailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyAvailability(m.ensureLocked(roomID, day, availableSize)), nil
}

func (m *memBookings) ListRange(ctx context.Context, roomID uuid.UUID, from, to time.Time) ([]models.RoomAvailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RoomAvailability
	for _, day := range models.DaysBetween(from, to) {
		if rec, ok := m.ledger[ledgerKey(roomID, day)]; ok {
			out = append(out, *copyAvailability(rec))
		}
	}
	return out, nil
}

// booked returns the ledger count of a slot, or -1 when the day has no row
func (m *memBookings) booked(roomID uuid.UUID, day time.Time, slot string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.ledger[ledgerKey(roomID, day)]
	if !ok {
		return -1
	}
	return rec.Booked(slot)
}

func copyAvailability(rec *models.RoomAvailability) *models.RoomAvailability {
	c := *rec
	c.BookedSlots = models.SlotCounts{}
	for k, v := range rec.BookedSlots {
		c.BookedSlots[k] = v
	}
	return &c
}

func (m *memBookings) activeLocked(roomID uuid.UUID, from, to time.Time) []models.Booking {
	var out []models.Booking
	for _, b := range m.bookings {
		if b.RoomID == roomID && b.Status.BlocksSlots() && !b.StartDate.After(to) && !b.EndDate.Before(from) {
			out = append(out, *b)
		}
	}
	return out
}

func (m *memBookings) ActiveOverlapping(ctx context.Context, roomID uuid.UUID, from, to time.Time) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeLocked(roomID, from, to), nil
}

func (m *memBookings) CreateWithReservation(ctx context.Context, b *models.Booking, res database.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return m.failCreate
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}

	days := b.Days()
	for _, day := range days {
		m.ensureLocked(b.RoomID, day, res.AvailableSize)
	}
	if res.Verify != nil {
		if err := res.Verify(m.activeLocked(b.RoomID, b.StartDate, b.EndDate)); err != nil {
			return err
		}
	}
	for _, existing := range m.bookings {
		if existing.BookingID == b.BookingID {
			return database.ErrDuplicateBookingCode
		}
	}

	// All checks happen before any write so a failure leaves nothing behind.
	for _, day := range days {
		rec := m.ledger[ledgerKey(b.RoomID, day)]
		for _, slot := range b.TimeSlots {
			if rec.Booked(slot) >= rec.AvailableSize {
				return &database.SlotUnavailableError{Day: day, Slot: slot}
			}
		}
	}
	if res.CouponID != nil {
		if err := m.coupons.redeem(*res.CouponID); err != nil {
			return err
		}
	}

	for _, day := range days {
		rec := m.ledger[ledgerKey(b.RoomID, day)]
		for _, slot := range b.TimeSlots {
			rec.BookedSlots[slot]++
		}
	}
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	stored := *b
	m.bookings[b.ID] = &stored
	m.spaceTypeStats[b.SpaceTypeID]++
	return nil
}

func (m *memBookings) releaseLocked(b *models.Booking) {
	for _, day := range b.Days() {
		rec, ok := m.ledger[ledgerKey(b.RoomID, day)]
		if !ok {
			continue
		}
		for _, slot := range b.TimeSlots {
			if rec.BookedSlots[slot] > 0 {
				rec.BookedSlots[slot]--
			}
		}
	}
}

func (m *memBookings) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	c := *b
	return &c, nil
}

func (m *memBookings) GetByCode(ctx context.Context, code string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.BookingID == code {
			c := *b
			return &c, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memBookings) CodeExists(ctx context.Context, code string) (bool, error) {
	_, err := m.GetByCode(ctx, code)
	return err == nil, nil
}

func (m *memBookings) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Booking{}
	for _, b := range m.bookings {
		if filter.UserID != nil && b.UserID != *filter.UserID {
			continue
		}
		if filter.RoomID != nil && b.RoomID != *filter.RoomID {
			continue
		}
		if filter.Date != nil && (filter.Date.Before(b.StartDate) || filter.Date.After(b.EndDate)) {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memBookings) Cancel(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
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
	m.releaseLocked(b)
	c := *b
	return &c, nil
}

func (m *memBookings) Delete(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if b.Status != models.BookingStatusCancelled {
		m.releaseLocked(b)
	}
	delete(m.bookings, id)
	if m.spaceTypeStats[b.SpaceTypeID] > 0 {
		m.spaceTypeStats[b.SpaceTypeID]--
	}
	return b, nil
}

func (m *memBookings) UpdateStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus) (*models.Booking, error) {
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
	c := *b
	return &c, nil
}

type roomMap map[uuid.UUID]*models.Room

func (m roomMap) GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	r, ok := m[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	c := *r
	return &c, nil
}

type spaceTypeMap map[uuid.UUID]*models.SpaceType

func (m spaceTypeMap) GetByID(ctx context.Context, id uuid.UUID) (*models.SpaceType, error) {
	s, ok := m[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	c := *s
	return &c, nil
}

// memCoupons mimics the coupons table
type memCoupons struct {
	mu      sync.Mutex
	coupons map[uuid.UUID]*models.Coupon
}

func newMemCoupons(coupons ...*models.Coupon) *memCoupons {
	m := &memCoupons{coupons: map[uuid.UUID]*models.Coupon{}}
	for _, c := range coupons {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		m.coupons[c.ID] = c
	}
	return m
}

func (m *memCoupons) redeem(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[id]
	if !ok || c.UsedCount >= c.UsageLimit {
		return database.ErrCouponExhausted
	}
	c.UsedCount++
	return nil
}

func (m *memCoupons) Create(ctx context.Context, c *models.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.coupons {
		if existing.Code == c.Code {
			return database.ErrDuplicateCoupon
		}
	}
	c.ID = uuid.New()
	stored := *c
	m.coupons[c.ID] = &stored
	return nil
}

func (m *memCoupons) GetByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCoupons) GetActiveByCode(ctx context.Context, code string) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.coupons {
		if c.Code == code && c.IsActive {
			cp := *c
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memCoupons) List(ctx context.Context) ([]models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Coupon{}
	for _, c := range m.coupons {
		out = append(out, *c)
	}
	return out, nil
}

func (m *memCoupons) Update(ctx context.Context, c *models.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.coupons[c.ID]; !ok {
		return database.ErrNotFound
	}
	stored := *c
	m.coupons[c.ID] = &stored
	return nil
}

func (m *memCoupons) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.coupons[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.coupons, id)
	return nil
}

// memRewards mimics the reward tables
type memRewards struct {
	mu           sync.Mutex
	settings     *models.RewardSetting
	settingReads int
	logs         []models.RewardSettingLog
	balances     map[uuid.UUID]*models.UserReward
	history      []models.RewardHistoryEntry
	failDeduct   error
	failAdd      error
}

func newMemRewards() *memRewards {
	s := models.DefaultRewardSetting()
	return &memRewards{settings: &s, balances: map[uuid.UUID]*models.UserReward{}}
}

func (m *memRewards) seed(userID uuid.UUID, points int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] = &models.UserReward{UserID: userID, TotalPoints: points, LifetimeEarned: points}
}

func (m *memRewards) balance(userID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ur, ok := m.balances[userID]; ok {
		return ur.TotalPoints
	}
	return 0
}

func (m *memRewards) entries(action models.RewardAction) []models.RewardHistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RewardHistoryEntry
	for _, e := range m.history {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

func (m *memRewards) GetSettings(ctx context.Context) (*models.RewardSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settingReads++
	s := *m.settings
	return &s, nil
}

func (m *memRewards) UpdateSettings(ctx context.Context, s *models.RewardSetting, entry *models.RewardSettingLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *s
	m.settings = &stored
	entry.ID = uuid.New()
	entry.ChangedAt = time.Now()
	m.logs = append(m.logs, *entry)
	return nil
}

func (m *memRewards) SettingLogs(ctx context.Context, limit int) ([]models.RewardSettingLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.RewardSettingLog(nil), m.logs...), nil
}

func (m *memRewards) GetUserReward(ctx context.Context, userID uuid.UUID) (*models.UserReward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ur, ok := m.balances[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	c := *ur
	return &c, nil
}

func (m *memRewards) ListUserRewards(ctx context.Context, userID *uuid.UUID, limit, offset int) ([]models.UserReward, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.UserReward
	for _, ur := range m.balances {
		if userID == nil || ur.UserID == *userID {
			out = append(out, *ur)
		}
	}
	return out, len(out), nil
}

func (m *memRewards) record(change models.PointsChange, signed int) {
	m.history = append(m.history, models.RewardHistoryEntry{
		ID:        uuid.New(),
		UserID:    change.UserID,
		Action:    change.Action,
		Points:    signed,
		BookingID: change.BookingID,
		Note:      change.Note,
		CreatedBy: change.CreatedBy,
		ExpiresAt: change.ExpiresAt,
		CreatedAt: time.Now(),
	})
}

func (m *memRewards) AddPoints(ctx context.Context, change models.PointsChange) (*models.UserReward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAdd != nil {
		return nil, m.failAdd
	}
	ur, ok := m.balances[change.UserID]
	if !ok {
		ur = &models.UserReward{UserID: change.UserID}
		m.balances[change.UserID] = ur
	}
	ur.TotalPoints += change.Points
	if change.Action == models.RewardActionEarned {
		ur.LifetimeEarned += change.Points
	}
	m.record(change, change.Points)
	c := *ur
	return &c, nil
}

func (m *memRewards) DeductPoints(ctx context.Context, change models.PointsChange) (*models.UserReward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDeduct != nil {
		return nil, m.failDeduct
	}
	ur, ok := m.balances[change.UserID]
	if !ok || ur.TotalPoints < change.Points {
		return nil, database.ErrInsufficientBalance
	}
	ur.TotalPoints -= change.Points
	if change.Action == models.RewardActionUsed {
		ur.LifetimeUsed += change.Points
	}
	m.record(change, -change.Points)
	c := *ur
	return &c, nil
}

func (m *memRewards) ExpirePoints(ctx context.Context, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ur, ok := m.balances[userID]
	if !ok {
		return 0, nil
	}
	now := time.Now()
	due := 0
	for i := range m.history {
		e := &m.history[i]
		if e.UserID == userID && e.Action == models.RewardActionEarned && e.ExpiredAt == nil &&
			e.ExpiresAt != nil && !e.ExpiresAt.After(now) {
			e.ExpiredAt = &now
			due += e.Points
		}
	}
	if due > ur.TotalPoints {
		due = ur.TotalPoints
	}
	if due <= 0 {
		return 0, nil
	}
	ur.TotalPoints -= due
	m.record(models.PointsChange{UserID: userID, Action: models.RewardActionExpired, Note: "Points expired"}, -due)
	return due, nil
}

func (m *memRewards) UsersWithExpiredPoints(ctx context.Context, limit int) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, e := range m.history {
		if e.Action == models.RewardActionEarned && e.ExpiredAt == nil && e.ExpiresAt != nil &&
			!e.ExpiresAt.After(now) && !seen[e.UserID] {
			seen[e.UserID] = true
			ids = append(ids, e.UserID)
		}
	}
	return ids, nil
}

func (m *memRewards) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.RewardHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RewardHistoryEntry
	for i := len(m.history) - 1; i >= 0 && len(out) < limit; i-- {
		if m.history[i].UserID == userID {
			out = append(out, m.history[i])
		}
	}
	return out, nil
}

// memUsers mimics the users table
type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[uuid.UUID]*models.User{}}
}

func (m *memUsers) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return database.ErrDuplicateUser
		}
	}
	user.ID = uuid.New()
	user.IsActive = true
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *memUsers) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *memUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memUsers) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

var errStoreDown = errors.New("store unavailable")
