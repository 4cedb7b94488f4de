package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/database"
	"github.com/issaclevi/wayzx-backend/internal/models"
	"github.com/issaclevi/wayzx-backend/internal/services"
	"github.com/sirupsen/logrus"
)

const (
	defaultCurrencyCode   = "INR"
	defaultCurrencySymbol = "₹"
)

// RoomStore is the room persistence used by RoomHandler
type RoomStore interface {
	Create(ctx context.Context, room *models.Room) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error)
	List(ctx context.Context, spaceTypeID *uuid.UUID) ([]models.Room, error)
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RoomHandler handles room CRUD
type RoomHandler struct {
	rooms      RoomStore
	spaceTypes services.SpaceTypeReader
	logger     *logrus.Logger
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms RoomStore, spaceTypes services.SpaceTypeReader, logger *logrus.Logger) *RoomHandler {
	return &RoomHandler{rooms: rooms, spaceTypes: spaceTypes, logger: logger}
}

// ListRooms handles GET /api/v1/rooms?spaceTypeId=
func (h *RoomHandler) ListRooms(c *gin.Context) {
	spaceTypeID, ok := optionalUUIDQuery(c, "spaceTypeId")
	if !ok {
		return
	}

	rooms, err := h.rooms.List(c.Request.Context(), spaceTypeID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rooms": rooms,
		"total": len(rooms),
	})
}

// GetRoom handles GET /api/v1/rooms/:id
func (h *RoomHandler) GetRoom(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	room, err := h.rooms.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, storeError(err, "room", id))
		return
	}
	c.JSON(http.StatusOK, room)
}

// CreateRoom handles POST /api/v1/rooms (admin)
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req models.RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	room := &models.Room{}
	if !h.applyRequest(c, room, req) {
		return
	}
	if err := h.rooms.Create(c.Request.Context(), room); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{"room_id": room.ID, "name": room.Name}).Info("Room created")
	c.JSON(http.StatusCreated, room)
}

// UpdateRoom handles PUT /api/v1/rooms/:id (admin)
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req models.RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	room, err := h.rooms.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, storeError(err, "room", id))
		return
	}
	if !h.applyRequest(c, room, req) {
		return
	}
	if err := h.rooms.Update(c.Request.Context(), room); err != nil {
		respondError(c, h.logger, storeError(err, "room", id))
		return
	}
	c.JSON(http.StatusOK, room)
}

// DeleteRoom handles DELETE /api/v1/rooms/:id (admin)
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.rooms.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, storeError(err, "room", id))
		return
	}

	h.logger.WithField("room_id", id).Warn("Room deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Room deleted successfully"})
}

// applyRequest copies req onto room after checking the space type exists
func (h *RoomHandler) applyRequest(c *gin.Context, room *models.Room, req models.RoomRequest) bool {
	spaceTypeID, err := uuid.Parse(req.SpaceTypeID)
	if err != nil {
		respondBadParam(c, "spaceTypeId")
		return false
	}
	if _, err := h.spaceTypes.GetByID(c.Request.Context(), spaceTypeID); err != nil {
		respondError(c, h.logger, storeError(err, "space type", spaceTypeID))
		return false
	}

	room.Name = strings.TrimSpace(req.Name)
	room.Description = req.Description
	room.Location = req.Location
	room.PricePerHour = req.PricePerHour
	room.Capacity = req.Capacity
	room.RoomSize = req.RoomSize
	if room.RoomSize < 1 {
		room.RoomSize = 1
	}
	room.SpaceTypeID = spaceTypeID
	room.CurrencyCode = strings.ToUpper(req.CurrencyCode)
	room.CurrencySymbol = req.CurrencySymbol
	if room.CurrencyCode == "" {
		room.CurrencyCode = defaultCurrencyCode
	}
	if room.CurrencySymbol == "" && room.CurrencyCode == defaultCurrencyCode {
		room.CurrencySymbol = defaultCurrencySymbol
	}
	room.ImageURL = req.ImageURL
	room.Amenities = models.StringArray(req.Amenities)
	if room.Amenities == nil {
		room.Amenities = models.StringArray{}
	}
	return true
}

// storeError turns a repository ErrNotFound into a service NotFoundError
func storeError(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, database.ErrNotFound) {
		return &services.NotFoundError{Entity: entity, ID: id.String()}
	}
	return err
}
