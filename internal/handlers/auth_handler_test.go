package handlers

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/database"
	"github.com/issaclevi/wayzx-backend/internal/models"
	"github.com/issaclevi/wayzx-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

func (m *memUserStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range m.users {
		if u.Email == user.Email {
			return database.ErrDuplicateUser
		}
	}
	user.ID = uuid.New()
	user.IsActive = true
	m.users[user.ID] = *user
	return nil
}

func (m *memUserStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &u, nil
}

func (m *memUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			return &u, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memUserStore) ListUsers(context.Context, int, int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func setupAuthHandlerTest(t *testing.T) (*gin.Engine, testUser) {
	jwtService := testJWT()
	logger := quietLogger()
	router := newTestRouter(t)

	store := &memUserStore{users: make(map[uuid.UUID]models.User)}
	service := services.NewAuthService(store, nil, jwtService, bcrypt.MinCost, nil, logger)
	h := NewAuthHandler(service, logger)

	router.POST("/auth/register", h.Register)
	router.POST("/auth/login", h.Login)
	router.POST("/auth/refresh", h.RefreshToken)
	router.POST("/auth/logout", h.Logout)
	router.GET("/users", append(authed(jwtService, logger, true), h.ListUsers)...)
	return router, newTestUser(t, jwtService, models.RoleAdmin)
}

func TestAuthHandler_RegisterLoginRefresh(t *testing.T) {
	router, admin := setupAuthHandlerTest(t)

	register := map[string]interface{}{
		"name":        "Asha",
		"email":       "asha@example.com",
		"phoneNumber": "+919876543210",
		"password":    "s3cret-pass",
		"loginType":   "manual",
	}
	w := doJSON(t, router, "POST", "/auth/register", register, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "password")

	w = doJSON(t, router, "POST", "/auth/register", register, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, "POST", "/auth/login", map[string]string{"email": "asha@example.com", "password": "wrong-pass"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CREDENTIALS")

	w = doJSON(t, router, "POST", "/auth/login", map[string]string{"email": "asha@example.com", "password": "s3cret-pass"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tokens models.AuthResponse
	decode(t, w, &tokens)
	assert.NotEmpty(t, tokens.AccessToken)

	w = doJSON(t, router, "POST", "/auth/refresh", map[string]string{"refreshToken": tokens.RefreshToken}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "POST", "/auth/refresh", map[string]string{"refreshToken": tokens.AccessToken}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, "POST", "/auth/logout", map[string]string{"refreshToken": tokens.RefreshToken}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "POST", "/auth/logout", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, "GET", "/users", nil, tokens.AccessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, "GET", "/users", nil, admin.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "asha@example.com")
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	router, _ := setupAuthHandlerTest(t)

	w := doJSON(t, router, "POST", "/auth/register", map[string]interface{}{
		"name":        "Asha",
		"email":       "not-an-email",
		"phoneNumber": "+919876543210",
		"password":    "s3cret-pass",
		"loginType":   "manual",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, "POST", "/auth/register", map[string]interface{}{
		"name":        "Asha",
		"email":       "asha@example.com",
		"phoneNumber": "+919876543210",
		"loginType":   "google",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
