package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/database"
	"github.com/issaclevi/wayzx-backend/internal/models"
	"github.com/issaclevi/wayzx-backend/pkg/jwt"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// UserStore persists user accounts
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]models.User, error)
}

// RefreshTokenStore tracks issued refresh tokens for rotation and revocation
type RefreshTokenStore interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, token, ipAddress, userAgent string, expiresAt time.Time) error
	ConsumeRefreshToken(ctx context.Context, token string) (uuid.UUID, error)
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) (int64, error)
}

// AuthService registers users and issues token pairs. With a nil token store
// refresh tokens are stateless and stay valid until they expire.
type AuthService struct {
	users      UserStore
	tokens     RefreshTokenStore
	jwt        *jwt.Service
	bcryptCost int
	audit      *AuditService
	logger     *logrus.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, tokens RefreshTokenStore, jwtService *jwt.Service, bcryptCost int, audit *AuditService, logger *logrus.Logger) *AuthService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		jwt:        jwtService,
		bcryptCost: bcryptCost,
		audit:      audit,
		logger:     logger,
	}
}

// Register creates an account. Manual accounts need a password, social accounts a provider id.
func (s *AuthService) Register(ctx context.Context, actor Actor, req models.RegisterRequest) (*models.AuthResponse, error) {
	user := &models.User{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Role:        models.RoleUser,
		LoginType:   req.LoginType,
	}

	switch req.LoginType {
	case models.LoginTypeManual:
		if len(req.Password) < 8 {
			return nil, validationf("password", "password must be at least 8 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = models.NewNullString(string(hash))
	default:
		if req.LoginTypeID == "" {
			return nil, validationf("loginTypeId", "loginTypeId is required for %s sign-in", req.LoginType)
		}
		user.LoginTypeID = models.NewNullString(req.LoginTypeID)
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicateUser) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "login_type": user.LoginType}).Info("User registered")
	return s.issue(ctx, actor, user)
}

// Login checks credentials and issues a token pair
func (s *AuthService) Login(ctx context.Context, actor Actor, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if user.LoginType == models.LoginTypeManual {
		if !user.PasswordHash.Valid || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash.String), []byte(req.Password)) != nil {
			return nil, ErrInvalidCredentials
		}
	} else if !user.LoginTypeID.Valid || user.LoginTypeID.String != req.Password {
		return nil, ErrInvalidCredentials
	}

	actor.UserID = user.ID
	_ = s.audit.RecordBy(ctx, actor, AuditActionLogin, "user", user.ID.String(), nil)
	return s.issue(ctx, actor, user)
}

// Refresh exchanges a refresh token for a new pair, re-reading the user's role.
// A stored token is single use; presenting a spent one revokes every session of its owner.
func (s *AuthService) Refresh(ctx context.Context, actor Actor, refreshToken string) (*models.AuthResponse, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if s.tokens != nil {
		if _, err := s.tokens.ConsumeRefreshToken(ctx, refreshToken); err != nil {
			if !errors.Is(err, database.ErrNotFound) {
				return nil, err
			}
			revoked, revokeErr := s.tokens.RevokeAllUserTokens(ctx, claims.UserID)
			s.logger.WithFields(logrus.Fields{
				"user_id": claims.UserID,
				"ip":      actor.IPAddress,
				"revoked": revoked,
			}).WithError(revokeErr).Warn("Spent refresh token presented, revoking sessions")
			return nil, ErrInvalidCredentials
		}
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return s.issue(ctx, actor, user)
}

// Logout revokes a refresh token. Unknown or already revoked tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, actor Actor, refreshToken string) error {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return ErrInvalidCredentials
	}
	if s.tokens == nil {
		return nil
	}
	if _, err := s.tokens.ConsumeRefreshToken(ctx, refreshToken); err != nil && !errors.Is(err, database.ErrNotFound) {
		return err
	}

	actor.UserID = claims.UserID
	_ = s.audit.RecordBy(ctx, actor, AuditActionLogout, "user", claims.UserID.String(), nil)
	return nil
}

// ListUsers lists accounts for admins
func (s *AuthService) ListUsers(ctx context.Context, page, limit int) ([]models.User, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.users.ListUsers(ctx, limit, (page-1)*limit)
}

func (s *AuthService) issue(ctx context.Context, actor Actor, user *models.User) (*models.AuthResponse, error) {
	access, err := s.jwt.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwt.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	if s.tokens != nil {
		expiresAt := time.Now().Add(s.jwt.RefreshTokenExpiry())
		if err := s.tokens.StoreRefreshToken(ctx, user.ID, refresh, actor.IPAddress, actor.UserAgent, expiresAt); err != nil {
			return nil, err
		}
	}
	return &models.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwt.AccessTokenExpiry().Seconds()),
		User:         user,
	}, nil
}
