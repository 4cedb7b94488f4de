package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/issaclevi/wayzx-backend/internal/config"
	"github.com/issaclevi/wayzx-backend/internal/handlers"
	"github.com/issaclevi/wayzx-backend/internal/middleware"
	"github.com/issaclevi/wayzx-backend/internal/models"
	"github.com/issaclevi/wayzx-backend/pkg/jwt"
	"github.com/sirupsen/logrus"
)

type routerDeps struct {
	jwtService   *jwt.Service
	rateLimiter  *middleware.RateLimiter
	health       *handlers.HealthHandler
	auth         *handlers.AuthHandler
	bookings     *handlers.BookingHandler
	availability *handlers.AvailabilityHandler
	rooms        *handlers.RoomHandler
	spaceTypes   *handlers.SpaceTypeHandler
	coupons      *handlers.CouponHandler
	rewards      *handlers.RewardHandler
}

func setupRouter(cfg *config.Config, logger *logrus.Logger, d routerDeps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", d.health.Health)

	authRequired := middleware.AuthMiddleware(d.jwtService, logger)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	limited := d.rateLimiter.Middleware()

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth", limited)
		{
			auth.POST("/register", d.auth.Register)
			auth.POST("/login", d.auth.Login)
			auth.POST("/refresh", d.auth.RefreshToken)
			auth.POST("/logout", d.auth.Logout)
		}

		v1.GET("/users", authRequired, adminOnly, d.auth.ListUsers)

		bookings := v1.Group("/bookings", authRequired)
		{
			bookings.POST("", limited, d.bookings.CreateBooking)
			bookings.GET("", d.bookings.ListBookings)
			bookings.GET("/:ref", d.bookings.GetBooking)
			bookings.POST("/:ref/cancel", d.bookings.CancelBooking)
			bookings.PUT("/:ref/status", adminOnly, d.bookings.UpdateStatus)
			bookings.DELETE("/:ref", adminOnly, d.bookings.DeleteBooking)
		}

		rooms := v1.Group("/rooms")
		{
			rooms.GET("", d.rooms.ListRooms)
			rooms.GET("/:id", d.rooms.GetRoom)
			rooms.GET("/:id/availability", d.availability.GetAvailability)
			rooms.POST("", authRequired, adminOnly, d.rooms.CreateRoom)
			rooms.PUT("/:id", authRequired, adminOnly, d.rooms.UpdateRoom)
			rooms.DELETE("/:id", authRequired, adminOnly, d.rooms.DeleteRoom)
		}

		spaceTypes := v1.Group("/space-types")
		{
			spaceTypes.GET("", d.spaceTypes.ListSpaceTypes)
			spaceTypes.GET("/:id", d.spaceTypes.GetSpaceType)
			spaceTypes.POST("", authRequired, adminOnly, d.spaceTypes.CreateSpaceType)
			spaceTypes.PUT("/:id", authRequired, adminOnly, d.spaceTypes.UpdateSpaceType)
			spaceTypes.DELETE("/:id", authRequired, adminOnly, d.spaceTypes.DeleteSpaceType)
		}

		coupons := v1.Group("/coupons", authRequired)
		{
			coupons.POST("/apply", d.coupons.ApplyCoupon)
			coupons.GET("", adminOnly, d.coupons.ListCoupons)
			coupons.POST("", adminOnly, d.coupons.CreateCoupon)
			coupons.PUT("/:id", adminOnly, d.coupons.UpdateCoupon)
			coupons.DELETE("/:id", adminOnly, d.coupons.DeleteCoupon)
		}

		rewards := v1.Group("/rewards")
		{
			rewards.GET("/settings", d.rewards.GetSettings)
			rewards.PUT("/settings", authRequired, adminOnly, d.rewards.UpdateSettings)
			rewards.GET("/settings/logs", authRequired, adminOnly, d.rewards.GetSettingLogs)
			rewards.GET("/me", authRequired, d.rewards.GetMyRewards)
			rewards.GET("/me/history", authRequired, d.rewards.GetMyHistory)
			rewards.GET("/users", authRequired, adminOnly, d.rewards.ListUserRewards)
			rewards.POST("/users/points", authRequired, adminOnly, d.rewards.ModifyUserPoints)
		}
	}

	return router
}
