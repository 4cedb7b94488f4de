package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/middleware"
	"github.com/issaclevi/wayzx-backend/internal/models"
	"github.com/issaclevi/wayzx-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// BookingHandler handles booking lifecycle requests
type BookingHandler struct {
	bookingService  *services.BookingService
	defaultTimezone string
	logger          *logrus.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookingService *services.BookingService, defaultTimezone string, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		bookingService:  bookingService,
		defaultTimezone: defaultTimezone,
		logger:          logger,
	}
}

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	// Only admins may book on behalf of another user.
	userID := userCtx.UserID
	if req.UserID != "" && userCtx.HasRole(models.RoleAdmin) {
		id, err := uuid.Parse(req.UserID)
		if err != nil {
			respondBadParam(c, "userId")
			return
		}
		userID = id
	}

	result, err := h.bookingService.CreateBooking(c.Request.Context(), services.CreateBookingInput{
		Request:  req,
		UserID:   userID,
		Location: locationFrom(c, h.defaultTimezone),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Booking created successfully",
		"data":    result,
	})
}

// ListBookings handles GET /api/v1/bookings. Admins see every booking, users their own.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	roomID, ok := optionalUUIDQuery(c, "roomId")
	if !ok {
		return
	}
	page, limit := pagination(c, 20, 100)
	filter := models.BookingFilter{RoomID: roomID, Limit: limit, Offset: (page - 1) * limit}

	if date := c.Query("date"); date != "" {
		day, err := services.ParseDay(date)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		filter.Date = &day
	}

	if userCtx.HasRole(models.RoleAdmin) {
		if filter.UserID, ok = optionalUUIDQuery(c, "userId"); !ok {
			return
		}
	} else {
		own := userCtx.UserID
		filter.UserID = &own
	}

	bookings, err := h.bookingService.ListBookings(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"page":     page,
		"limit":    limit,
	})
}

// GetBooking handles GET /api/v1/bookings/:ref where ref is a UUID or booking code
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, ok := h.ownedBooking(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, booking)
}

// CancelBooking handles POST /api/v1/bookings/:ref/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	booking, ok := h.ownedBooking(c)
	if !ok {
		return
	}

	cancelled, err := h.bookingService.CancelBooking(c.Request.Context(), actorFrom(c), booking.ID.String())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Booking cancelled successfully",
		"data":    cancelled,
	})
}

// UpdateStatus handles PUT /api/v1/bookings/:ref/status (admin)
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	booking, err := h.bookingService.UpdateStatus(c.Request.Context(), actorFrom(c), c.Param("ref"), req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Booking status updated",
		"data":    booking,
	})
}

// DeleteBooking handles DELETE /api/v1/bookings/:ref (admin)
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	deleted, err := h.bookingService.DeleteBooking(c.Request.Context(), actorFrom(c), c.Param("ref"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Booking deleted successfully",
		"bookingId": deleted.BookingID,
	})
}

// ownedBooking loads :ref and hides bookings of other users from non-admins behind a 404
func (h *BookingHandler) ownedBooking(c *gin.Context) (*models.Booking, bool) {
	userCtx := middleware.MustGetUserContext(c)

	booking, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("ref"))
	if err != nil {
		respondError(c, h.logger, err)
		return nil, false
	}
	if booking.UserID != userCtx.UserID && !userCtx.HasRole(models.RoleAdmin) {
		respondError(c, h.logger, &services.NotFoundError{Entity: "booking", ID: c.Param("ref")})
		return nil, false
	}
	return booking, true
}
