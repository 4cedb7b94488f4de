package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// SpaceTypeStore is the space type persistence used by SpaceTypeHandler
type SpaceTypeStore interface {
	Create(ctx context.Context, s *models.SpaceType) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SpaceType, error)
	List(ctx context.Context, activeOnly bool) ([]models.SpaceType, error)
	Update(ctx context.Context, s *models.SpaceType) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SpaceTypeHandler handles space type CRUD
type SpaceTypeHandler struct {
	spaceTypes SpaceTypeStore
	logger     *logrus.Logger
}

// NewSpaceTypeHandler creates a new space type handler
func NewSpaceTypeHandler(spaceTypes SpaceTypeStore, logger *logrus.Logger) *SpaceTypeHandler {
	return &SpaceTypeHandler{spaceTypes: spaceTypes, logger: logger}
}

// ListSpaceTypes handles GET /api/v1/space-types?active=true
func (h *SpaceTypeHandler) ListSpaceTypes(c *gin.Context) {
	spaceTypes, err := h.spaceTypes.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"spaceTypes": spaceTypes,
		"total":      len(spaceTypes),
	})
}

// GetSpaceType handles GET /api/v1/space-types/:id
func (h *SpaceTypeHandler) GetSpaceType(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	spaceType, err := h.spaceTypes.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, storeError(err, "space type", id))
		return
	}
	c.JSON(http.StatusOK, spaceType)
}

// CreateSpaceType handles POST /api/v1/space-types (admin)
func (h *SpaceTypeHandler) CreateSpaceType(c *gin.Context) {
	var req models.SpaceTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	spaceType := &models.SpaceType{IsActive: true}
	applySpaceTypeRequest(spaceType, req)
	if err := h.spaceTypes.Create(c.Request.Context(), spaceType); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{"space_type_id": spaceType.ID, "name": spaceType.Name}).Info("Space type created")
	c.JSON(http.StatusCreated, spaceType)
}

// UpdateSpaceType handles PUT /api/v1/space-types/:id (admin)
func (h *SpaceTypeHandler) UpdateSpaceType(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req models.SpaceTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	spaceType, err := h.spaceTypes.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, storeError(err, "space type", id))
		return
	}
	applySpaceTypeRequest(spaceType, req)
	if err := h.spaceTypes.Update(c.Request.Context(), spaceType); err != nil {
		respondError(c, h.logger, storeError(err, "space type", id))
		return
	}
	c.JSON(http.StatusOK, spaceType)
}

// DeleteSpaceType handles DELETE /api/v1/space-types/:id (admin)
func (h *SpaceTypeHandler) DeleteSpaceType(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.spaceTypes.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, storeError(err, "space type", id))
		return
	}

	h.logger.WithField("space_type_id", id).Warn("Space type deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Space type deleted successfully"})
}

func applySpaceTypeRequest(s *models.SpaceType, req models.SpaceTypeRequest) {
	s.Name = strings.TrimSpace(req.Name)
	s.Description = req.Description
	if req.IsActive != nil {
		s.IsActive = *req.IsActive
	}

	slots := make(models.StringArray, 0, len(req.AllowedSlots))
	for _, slot := range req.AllowedSlots {
		slots = append(slots, strings.TrimSpace(slot))
	}
	s.AllowedSlots = slots

	s.SlotBehavior = models.SlotBehavior(req.SlotBehavior)
	if !s.SlotBehavior.IsValid() {
		s.SlotBehavior = models.SlotBehaviorConsecutive
	}
	s.SlotDuration = req.SlotDuration
	if s.SlotDuration < 1 {
		s.SlotDuration = 1
	}
}
