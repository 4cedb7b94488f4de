package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		ping   pingFunc
		status int
		db     string
	}{
		{"database up", func(context.Context) error { return nil }, http.StatusOK, `"database":"up"`},
		{"database down", func(context.Context) error { return errors.New("connection refused") }, http.StatusServiceUnavailable, `"database":"down"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t)
			router.GET("/health", NewHealthHandler(tt.ping, "test").Health)

			w := doJSON(t, router, "GET", "/health", nil, "")
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.db)
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}
