package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/ladder-inspection-api/internal/models"
	"github.com/noah-isme/ladder-inspection-api/pkg/directory"
	appErrors "github.com/noah-isme/ladder-inspection-api/pkg/errors"
)

type directoryAuthenticator interface {
	Authenticate(ctx context.Context, username, password string) (*models.DirectoryEntry, error)
}

type accountProvisioner interface {
	CreateOrUpdateFromLdap(ctx context.Context, entry models.DirectoryEntry) (*models.User, error)
}

type authUserRepository interface {
	FindActiveByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type loginRecorder interface {
	RecordLogin(outcome string, duration time.Duration)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService signs users in against the directory and issues access tokens.
type AuthService struct {
	directory directoryAuthenticator
	accounts  accountProvisioner
	repo      authUserRepository
	metrics   loginRecorder
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(dir directoryAuthenticator, accounts accountProvisioner, repo authUserRepository, metrics loginRecorder, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 8 * time.Hour
	}
	return &AuthService{
		directory: dir,
		accounts:  accounts,
		repo:      repo,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Login binds against the directory, mirrors the entry into the local user
// table and returns a signed access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, requestInvalid(err, "invalid login payload")
	}

	started := time.Now()
	entry, err := s.directory.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, directory.ErrInvalidCredentials), errors.Is(err, directory.ErrAmbiguousUser):
			s.recordLogin("invalid_credentials", started)
			s.logger.Info("directory login rejected", zap.String("username", req.Username), zap.Error(err))
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid username or password")
		case errors.Is(err, directory.ErrUnavailable):
			s.recordLogin("unavailable", started)
			return nil, appErrors.Wrap(err, appErrors.ErrDirectoryUnavailable.Code, appErrors.ErrDirectoryUnavailable.Status, "directory service is unavailable")
		default:
			s.recordLogin("error", started)
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to authenticate")
		}
	}

	user, err := s.accounts.CreateOrUpdateFromLdap(ctx, *entry)
	if err != nil {
		s.recordLogin("error", started)
		return nil, err
	}
	if !user.IsActive {
		s.recordLogin("inactive", started)
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}
	s.recordLogin("success", started)

	issuedAt := s.now()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, issuedAt); err != nil {
		s.logger.Warn("failed to update last login", zap.Error(err))
	}

	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &user.ID,
		Action:     models.AuditActionLogin,
		Resource:   "auth",
		ResourceID: &user.ID,
		NewValues:  []byte(`{"status":"success"}`),
		IPAddress:  req.IP,
		UserAgent:  req.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record login audit log", zap.Error(err))
	}

	token, err := s.generateAccessToken(user, issuedAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    issuedAt,
		User:        userInfo(user),
	}, nil
}

// Me returns the profile of the token owner. Accounts deactivated after the
// token was issued are rejected.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.UserInfo, error) {
	user, err := s.repo.FindActiveByID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "account is not available")
	}
	info := userInfo(user)
	return &info, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, jwt.WithIssuer(s.config.Issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) generateAccessToken(user *models.User, issuedAt time.Time) (string, error) {
	claims := &models.JWTClaims{
		UserID:   user.ID,
		Username: user.Username,
		FullName: user.FullName(),
		Groups:   append([]string(nil), user.Groups...),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}

func (s *AuthService) recordLogin(outcome string, started time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordLogin(outcome, time.Since(started))
}

func userInfo(user *models.User) models.UserInfo {
	groups := []string(user.Groups)
	if groups == nil {
		groups = []string{}
	}
	return models.UserInfo{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName(),
		Initials: user.Initials(),
		Groups:   groups,
	}
}
