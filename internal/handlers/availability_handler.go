package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/issaclevi/wayzx-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// AvailabilityHandler serves room availability reports
type AvailabilityHandler struct {
	availabilityService *services.AvailabilityService
	defaultTimezone     string
	logger              *logrus.Logger
}

// NewAvailabilityHandler creates a new availability handler
func NewAvailabilityHandler(availabilityService *services.AvailabilityService, defaultTimezone string, logger *logrus.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		availabilityService: availabilityService,
		defaultTimezone:     defaultTimezone,
		logger:              logger,
	}
}

// GetAvailability handles GET /api/v1/rooms/:id/availability?startDate=&endDate=&timeline=
func (h *AvailabilityHandler) GetAvailability(c *gin.Context) {
	roomID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	report, err := h.availabilityService.GetAvailability(c.Request.Context(), services.AvailabilityQuery{
		RoomID:   roomID,
		From:     c.Query("startDate"),
		To:       c.Query("endDate"),
		Timeline: c.Query("timeline") == "true",
		Location: locationFrom(c, h.defaultTimezone),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
