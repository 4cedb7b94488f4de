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

// CouponHandler handles coupon application and admin CRUD
type CouponHandler struct {
	couponService   *services.CouponService
	defaultTimezone string
	logger          *logrus.Logger
}

// NewCouponHandler creates a new coupon handler
func NewCouponHandler(couponService *services.CouponService, defaultTimezone string, logger *logrus.Logger) *CouponHandler {
	return &CouponHandler{
		couponService:   couponService,
		defaultTimezone: defaultTimezone,
		logger:          logger,
	}
}

// ApplyCoupon handles POST /api/v1/coupons/apply. It quotes a discount without redeeming.
func (h *CouponHandler) ApplyCoupon(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	in := services.ApplyCouponInput{
		Code:   req.Code,
		UserID: userCtx.UserID,
		Amount: req.Amount,
	}
	if req.RoomID != "" {
		id, err := uuid.Parse(req.RoomID)
		if err != nil {
			respondBadParam(c, "roomId")
			return
		}
		in.RoomID = &id
	}
	if req.SpaceTypeID != "" {
		id, err := uuid.Parse(req.SpaceTypeID)
		if err != nil {
			respondBadParam(c, "spaceTypeId")
			return
		}
		in.SpaceTypeID = &id
	}

	quote, err := h.couponService.ApplyCoupon(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon applied successfully",
		"data":    quote,
	})
}

// ListCoupons handles GET /api/v1/coupons (admin)
func (h *CouponHandler) ListCoupons(c *gin.Context) {
	coupons, err := h.couponService.ListCoupons(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"coupons": coupons,
		"total":   len(coupons),
	})
}

// CreateCoupon handles POST /api/v1/coupons (admin)
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var req models.CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	coupon, err := h.couponService.CreateCoupon(c.Request.Context(), req, locationFrom(c, h.defaultTimezone))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, coupon)
}

// UpdateCoupon handles PUT /api/v1/coupons/:id (admin)
func (h *CouponHandler) UpdateCoupon(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req models.CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	coupon, err := h.couponService.UpdateCoupon(c.Request.Context(), id, req, locationFrom(c, h.defaultTimezone))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, coupon)
}

// DeleteCoupon handles DELETE /api/v1/coupons/:id (admin)
func (h *CouponHandler) DeleteCoupon(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.couponService.DeleteCoupon(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Coupon deleted successfully"})
}
