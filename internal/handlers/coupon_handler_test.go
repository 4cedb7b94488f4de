package handlers

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/database"
	"github.com/issaclevi/wayzx-backend/internal/models"
	"github.com/issaclevi/wayzx-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCouponStore struct {
	mu      sync.Mutex
	coupons map[uuid.UUID]models.Coupon
}

func (m *memCouponStore) Create(_ context.Context, c *models.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.coupons {
		if existing.Code == c.Code {
			return database.ErrDuplicateCoupon
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.coupons[c.ID] = *c
	return nil
}

func (m *memCouponStore) GetByID(_ context.Context, id uuid.UUID) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &c, nil
}

func (m *memCouponStore) GetActiveByCode(_ context.Context, code string) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.coupons {
		if c.IsActive && strings.EqualFold(c.Code, code) {
			return &c, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memCouponStore) List(context.Context) ([]models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Coupon{}
	for _, c := range m.coupons {
		out = append(out, c)
	}
	return out, nil
}

func (m *memCouponStore) Update(_ context.Context, c *models.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.coupons[c.ID]; !ok {
		return database.ErrNotFound
	}
	m.coupons[c.ID] = *c
	return nil
}

func (m *memCouponStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.coupons[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.coupons, id)
	return nil
}

func setupCouponHandlerTest(t *testing.T) (*gin.Engine, *memCouponStore, testUser, testUser) {
	jwtService := testJWT()
	logger := quietLogger()
	router := newTestRouter(t)

	maxDiscount := 30.0
	welcome := models.Coupon{
		ID:            uuid.New(),
		Code:          "WELCOME10",
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: 10,
		MaxDiscount:   &maxDiscount,
		ExpiryDate:    time.Now().AddDate(1, 0, 0),
		IsActive:      true,
	}
	store := &memCouponStore{coupons: map[uuid.UUID]models.Coupon{welcome.ID: welcome}}

	h := NewCouponHandler(services.NewCouponService(store, logger), "Asia/Kolkata", logger)
	user := authed(jwtService, logger, false)
	admin := authed(jwtService, logger, true)
	router.POST("/coupons/apply", append(user, h.ApplyCoupon)...)
	router.GET("/coupons", append(admin, h.ListCoupons)...)
	router.POST("/coupons", append(admin, h.CreateCoupon)...)
	router.PUT("/coupons/:id", append(admin, h.UpdateCoupon)...)
	router.DELETE("/coupons/:id", append(admin, h.DeleteCoupon)...)

	return router, store, newTestUser(t, jwtService, models.RoleAdmin), newTestUser(t, jwtService, models.RoleUser)
}

func TestCouponHandler_Apply(t *testing.T) {
	router, store, _, user := setupCouponHandlerTest(t)

	w := doJSON(t, router, "POST", "/coupons/apply", map[string]interface{}{"code": "welcome10", "amount": 500}, user.token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data models.CouponQuote `json:"data"`
	}
	decode(t, w, &resp)
	assert.Equal(t, 30.0, resp.Data.Discount)
	assert.Equal(t, 470.0, resp.Data.DiscountedAmount)

	// Quoting never redeems.
	for _, c := range store.coupons {
		assert.Equal(t, 0, c.UsedCount)
	}

	w = doJSON(t, router, "POST", "/coupons/apply", map[string]interface{}{"code": "NOPE", "amount": 500}, user.token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, "POST", "/coupons/apply", map[string]interface{}{"code": "WELCOME10", "amount": 0}, user.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, "POST", "/coupons/apply", map[string]interface{}{"code": "WELCOME10", "amount": 500, "roomId": "bad"}, user.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCouponHandler_AdminCRUD(t *testing.T) {
	router, _, admin, user := setupCouponHandlerTest(t)

	body := map[string]interface{}{
		"code":          "flat50",
		"discountType":  "amount",
		"discountValue": 50,
		"expiryDate":    "2099-12-31",
	}

	w := doJSON(t, router, "POST", "/coupons", body, user.token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, "POST", "/coupons", body, admin.token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.Coupon
	decode(t, w, &created)
	assert.Equal(t, "FLAT50", created.Code)
	assert.Equal(t, models.DiscountTypeAmount, created.DiscountType)

	w = doJSON(t, router, "POST", "/coupons", body, admin.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body["discountValue"] = 75
	w = doJSON(t, router, "PUT", "/coupons/"+created.ID.String(), body, admin.token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, "GET", "/coupons", nil, admin.token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2`)

	w = doJSON(t, router, "DELETE", "/coupons/"+created.ID.String(), nil, admin.token)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, "DELETE", "/coupons/"+created.ID.String(), nil, admin.token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
