package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/issaclevi/wayzx-backend/internal/config"
	"github.com/issaclevi/wayzx-backend/internal/database"
	"github.com/issaclevi/wayzx-backend/internal/handlers"
	"github.com/issaclevi/wayzx-backend/internal/middleware"
	"github.com/issaclevi/wayzx-backend/internal/services"
	"github.com/issaclevi/wayzx-backend/pkg/jwt"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Wayzx booking backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	if err := handlers.RegisterValidators(); err != nil {
		logger.Fatalf("Failed to register validators: %v", err)
	}

	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			logger.Fatalf("Failed to apply schema: %v", err)
		}
		logger.Info("Database schema applied")
	}

	// Reward settings cache: Redis when configured, in-process otherwise
	var (
		settingsCache services.SettingsCache
		redisClient   *redis.Client
	)
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("Redis unreachable, settings reads fall back to the database until it recovers")
		}
		cancel()
		settingsCache = services.NewRedisSettingsCache(redisClient, cfg.Redis.SettingsCacheTTL, logger)
		logger.WithField("addr", cfg.Redis.Addr).Info("Reward settings cached in Redis")
	} else {
		settingsCache = services.NewMemorySettingsCache(cfg.Redis.SettingsCacheTTL)
		logger.Info("Reward settings cached in memory")
	}

	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	userRepository := database.NewUserRepository(db)
	roomRepository := database.NewRoomRepository(db)
	spaceTypeRepository := database.NewSpaceTypeRepository(db)
	bookingRepository := database.NewBookingRepository(db)
	availabilityRepository := database.NewAvailabilityRepository(db)
	rewardRepository := database.NewRewardRepository(db)
	couponRepository := database.NewCouponRepository(db)
	refreshTokenRepository := database.NewRefreshTokenRepository(db)

	auditService := services.NewAuditService(db, logger, cfg.Security.EnableAuditLog)
	authService := services.NewAuthService(userRepository, refreshTokenRepository, jwtService, cfg.Security.BcryptCost, auditService, logger)
	rewardService := services.NewRewardService(rewardRepository, settingsCache, auditService, logger)
	couponService := services.NewCouponService(couponRepository, logger)
	conflictChecker := services.NewConflictChecker(availabilityRepository, bookingRepository, logger)
	bookingService := services.NewBookingService(
		bookingRepository,
		roomRepository,
		spaceTypeRepository,
		conflictChecker,
		rewardService,
		couponService,
		auditService,
		logger,
	)
	availabilityService := services.NewAvailabilityService(
		availabilityRepository,
		bookingRepository,
		roomRepository,
		spaceTypeRepository,
		logger,
	)

	cronService := services.NewCronService(rewardService, logger)
	if cfg.JWT.CleanupSchedule != "" {
		if err := cronService.ScheduleTokenCleanup(cfg.JWT.CleanupSchedule, refreshTokenRepository, cfg.JWT.CleanupRetention); err != nil {
			logger.Fatalf("Failed to schedule token cleanup: %v", err)
		}
	}
	if err := cronService.Start(cfg.Rewards.ExpirySweepSchedule); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	logger.Info("Services initialized")

	router := setupRouter(cfg, logger, routerDeps{
		jwtService:   jwtService,
		rateLimiter:  middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst),
		health:       handlers.NewHealthHandler(db, version),
		auth:         handlers.NewAuthHandler(authService, logger),
		bookings:     handlers.NewBookingHandler(bookingService, cfg.Server.DefaultTimezone, logger),
		availability: handlers.NewAvailabilityHandler(availabilityService, cfg.Server.DefaultTimezone, logger),
		rooms:        handlers.NewRoomHandler(roomRepository, spaceTypeRepository, logger),
		spaceTypes:   handlers.NewSpaceTypeHandler(spaceTypeRepository, logger),
		coupons:      handlers.NewCouponHandler(couponService, cfg.Server.DefaultTimezone, logger),
		rewards:      handlers.NewRewardHandler(rewardService, logger),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	logger.Info("Stopping cron service...")
	cronService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close Redis client")
		}
	}

	logger.Info("Server exited successfully")
}
