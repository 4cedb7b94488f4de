package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/issaclevi/wayzx-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

type errorMapping struct {
	target error
	status int
	kind   string
	code   string
}

// Order matters: the first match wins.
var errorMappings = []errorMapping{
	{services.ErrInvalidSlot, http.StatusBadRequest, "invalid_slot", "INVALID_SLOT"},
	{services.ErrInvalidPreset, http.StatusBadRequest, "invalid_slot", "INVALID_PRESET"},
	{services.ErrInvalidTimeFormat, http.StatusBadRequest, "invalid_slot", "INVALID_TIME_FORMAT"},
	{services.ErrValidation, http.StatusBadRequest, "validation_error", "VALIDATION_FAILED"},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized", "INVALID_CREDENTIALS"},
	{services.ErrNotFound, http.StatusNotFound, "not_found", "NOT_FOUND"},
	{services.ErrConflict, http.StatusConflict, "conflict", "SLOT_CONFLICT"},
	{services.ErrAlreadyCancelled, http.StatusConflict, "conflict", "ALREADY_CANCELLED"},
	{services.ErrAlreadyExists, http.StatusConflict, "conflict", "ALREADY_EXISTS"},
	{services.ErrInsufficientPoints, http.StatusUnprocessableEntity, "insufficient_points", "INSUFFICIENT_POINTS"},
	{services.ErrInsufficientSlots, http.StatusUnprocessableEntity, "insufficient_slots", "INSUFFICIENT_SLOTS"},
}

// respondError maps a service error onto its HTTP status. Unknown errors are logged
// and answered with a generic 500 so internals never reach the client.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			resp := ErrorResponse{Error: m.kind, Message: err.Error(), Code: m.code}
			var conflict *services.ConflictError
			if errors.As(err, &conflict) {
				resp.Details = gin.H{"date": services.FormatDay(conflict.Day), "slot": conflict.Slot}
			}
			var points *services.InsufficientPointsError
			if errors.As(err, &points) {
				resp.Details = gin.H{"available": points.Available, "requested": points.Requested}
			}
			c.JSON(m.status, resp)
			return
		}
	}

	logger.WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}).WithError(err).Error("Request failed")
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "Something went wrong. Please try again later.",
		Code:    "INTERNAL_ERROR",
	})
}

// respondBindError answers a malformed or invalid request body
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
			Code:    "VALIDATION_FAILED",
			Details: fields,
		})
		return
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: "Invalid request body: " + err.Error(),
		Code:    "INVALID_REQUEST",
	})
}

func respondBadParam(c *gin.Context, name string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: "Invalid " + name,
		Code:    "INVALID_PARAMETER",
	})
}
