package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/issaclevi/wayzx-backend/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestRespondError(t *testing.T) {
	day := time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &services.ValidationError{Field: "guests", Message: "too many"}, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"invalid slot", &services.SlotError{Kind: services.ErrInvalidSlot, Slot: "11PM", Message: "bad slot"}, http.StatusBadRequest, "INVALID_SLOT"},
		{"invalid preset", &services.SlotError{Kind: services.ErrInvalidPreset, Message: "bad preset"}, http.StatusBadRequest, "INVALID_PRESET"},
		{"time format", &services.SlotError{Kind: services.ErrInvalidTimeFormat, Message: "bad time"}, http.StatusBadRequest, "INVALID_TIME_FORMAT"},
		{"insufficient slots", &services.SlotError{Kind: services.ErrInsufficientSlots, Message: "not enough"}, http.StatusUnprocessableEntity, "INSUFFICIENT_SLOTS"},
		{"not found", &services.NotFoundError{Entity: "room", ID: "x"}, http.StatusNotFound, "NOT_FOUND"},
		{"conflict", &services.ConflictError{Day: day, Slot: "09:00AM"}, http.StatusConflict, "SLOT_CONFLICT"},
		{"already cancelled", services.ErrAlreadyCancelled, http.StatusConflict, "ALREADY_CANCELLED"},
		{"already exists", services.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},
		{"credentials", services.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"points", &services.InsufficientPointsError{Available: 5, Requested: 50}, http.StatusUnprocessableEntity, "INSUFFICIENT_POINTS"},
		{"wrapped", fmt.Errorf("create booking: %w", services.ErrConflict), http.StatusConflict, "SLOT_CONFLICT"},
		{"internal", errors.New("pq: connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t)
			router.GET("/err", func(c *gin.Context) {
				respondError(c, quietLogger(), tt.err)
			})

			w := doJSON(t, router, "GET", "/err", nil, "")
			assert.Equal(t, tt.status, w.Code)

			var resp ErrorResponse
			decode(t, w, &resp)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestRespondError_Details(t *testing.T) {
	router := newTestRouter(t)
	router.GET("/conflict", func(c *gin.Context) {
		respondError(c, quietLogger(), &services.ConflictError{Day: time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC), Slot: "09:00AM"})
	})
	router.GET("/internal", func(c *gin.Context) {
		respondError(c, quietLogger(), errors.New("pq: password authentication failed"))
	})

	w := doJSON(t, router, "GET", "/conflict", nil, "")
	var body map[string]interface{}
	decode(t, w, &body)
	assert.Equal(t, map[string]interface{}{"date": "2030-03-04", "slot": "09:00AM"}, body["details"])

	w = doJSON(t, router, "GET", "/internal", nil, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
}
