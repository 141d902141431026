package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ladder-inspection-api/internal/models"
	appErrors "github.com/noah-isme/ladder-inspection-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindActiveByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateDirectoryFields(ctx context.Context, user *models.User) error
	SetActive(ctx context.Context, id string, active bool) error
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// UserService manages directory-backed local accounts.
type UserService struct {
	repo   userRepository
	logger *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns an active user by id. Inactive users are reported as missing.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.lookup(func() (*models.User, error) { return s.repo.FindActiveByID(ctx, id) })
}

// GetByUsername returns a user by username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.lookup(func() (*models.User, error) { return s.repo.FindByUsername(ctx, strings.TrimSpace(username)) })
}

// GetByEmail returns a user by e-mail address.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.lookup(func() (*models.User, error) { return s.repo.FindByEmail(ctx, strings.TrimSpace(email)) })
}

func (s *UserService) lookup(find func() (*models.User, error)) (*models.User, error) {
	user, err := find()
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// CreateOrUpdateFromLdap upserts the local account for a directory entry by
// username. Existing accounts keep their id, username and active flag.
func (s *UserService) CreateOrUpdateFromLdap(ctx context.Context, entry models.DirectoryEntry) (*models.User, error) {
	username := strings.TrimSpace(entry.Username)
	if username == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "directory entry has no username")
	}

	user, err := s.repo.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		user = models.NewUserFromDirectory(entry)
		if err := s.repo.Create(ctx, user); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
		}
		s.logger.Info("user created from directory", zap.String("username", username), zap.Strings("groups", user.Groups))
		return user, nil
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	user.ApplyDirectoryEntry(entry)
	if err := s.repo.UpdateDirectoryFields(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return user, nil
}

// Activate re-enables a local account.
func (s *UserService) Activate(ctx context.Context, id string, meta models.AuditMeta) (*models.User, error) {
	return s.setActive(ctx, id, true, meta)
}

// Deactivate blocks a local account from signing in. Users cannot
// deactivate themselves.
func (s *UserService) Deactivate(ctx context.Context, id string, meta models.AuditMeta) (*models.User, error) {
	if id == meta.ActorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you cannot deactivate your own account")
	}
	return s.setActive(ctx, id, false, meta)
}

func (s *UserService) setActive(ctx context.Context, id string, active bool, meta models.AuditMeta) (*models.User, error) {
	user, err := s.lookup(func() (*models.User, error) { return s.repo.FindByID(ctx, id) })
	if err != nil {
		return nil, err
	}
	if user.IsActive == active {
		return user, nil
	}

	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	action := models.AuditActionUserDeactivate
	if active {
		action = models.AuditActionUserActivate
	}
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     stringPtr(meta.ActorID),
		Action:     action,
		Resource:   "user",
		ResourceID: &user.ID,
		OldValues:  auditPayload(map[string]bool{"is_active": user.IsActive}),
		NewValues:  auditPayload(map[string]bool{"is_active": active}),
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record user audit log", zap.Error(err))
	}

	user.IsActive = active
	return user, nil
}
