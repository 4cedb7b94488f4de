package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/middleware"
	"github.com/issaclevi/wayzx-backend/internal/models"
	"github.com/issaclevi/wayzx-backend/pkg/jwt"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testJWT() *jwt.Service {
	return jwt.NewService("handler-access-secret", "handler-refresh-secret", time.Hour, 24*time.Hour)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidators())
	return gin.New()
}

type testUser struct {
	id    uuid.UUID
	token string
}

func newTestUser(t *testing.T, jwtService *jwt.Service, role string) testUser {
	t.Helper()
	id := uuid.New()
	token, err := jwtService.GenerateAccessToken(id, role+"@example.com", role)
	require.NoError(t, err)
	return testUser{id: id, token: token}
}

func authed(jwtService *jwt.Service, logger *logrus.Logger, admin bool) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{middleware.AuthMiddleware(jwtService, logger)}
	if admin {
		chain = append(chain, middleware.RequireRole(models.RoleAdmin))
	}
	return chain
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewBuffer(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}
