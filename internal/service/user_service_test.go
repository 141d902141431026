package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ladder-inspection-api/internal/models"
	appErrors "github.com/noah-isme/ladder-inspection-api/pkg/errors"
)

type mockUserRepo struct {
	users        map[string]*models.User
	listUsers    []models.User
	listCount    int
	listErr      error
	findErr      error
	createErr    error
	auditLogs    []*models.AuditLog
	lastLogin    map[string]time.Time
	directorySet int
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	if m.listUsers != nil {
		return m.listUsers, m.listCount, nil
	}
	var users []models.User
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if user, ok := m.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindActiveByID(ctx context.Context, id string) (*models.User, error) {
	user, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if u.Username == username {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.users == nil {
		m.users = make(map[string]*models.User)
	}
	if user.ID == "" {
		user.ID = "generated-" + user.Username
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) UpdateDirectoryFields(ctx context.Context, user *models.User) error {
	m.directorySet++
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) SetActive(ctx context.Context, id string, active bool) error {
	user, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.IsActive = active
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if m.lastLogin == nil {
		m.lastLogin = make(map[string]time.Time)
	}
	m.lastLogin[id] = ts
	return nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func TestUserServiceList(t *testing.T) {
	repo := &mockUserRepo{listUsers: []models.User{{ID: "1", Username: "anna"}}, listCount: 1}
	svc := NewUserService(repo, zap.NewNop())
	users, pagination, err := svc.List(context.Background(), models.UserFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, 10, pagination.PageSize)
}

func TestUserServiceListError(t *testing.T) {
	repo := &mockUserRepo{listErr: errors.New("boom")}
	svc := NewUserService(repo, zap.NewNop())
	_, _, err := svc.List(context.Background(), models.UserFilter{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

func TestUserServiceGetExcludesInactive(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"1": {ID: "1", Username: "anna", IsActive: true},
		"2": {ID: "2", Username: "bernd", IsActive: false},
	}}
	svc := NewUserService(repo, zap.NewNop())

	user, err := svc.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "anna", user.Username)

	_, err = svc.Get(context.Background(), "2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestUserServiceLookups(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"1": {ID: "1", Username: "anna", Email: "anna@example.org", IsActive: true},
	}}
	svc := NewUserService(repo, zap.NewNop())

	byName, err := svc.GetByUsername(context.Background(), " anna ")
	require.NoError(t, err)
	assert.Equal(t, "1", byName.ID)

	byMail, err := svc.GetByEmail(context.Background(), "anna@example.org")
	require.NoError(t, err)
	assert.Equal(t, "1", byMail.ID)

	_, err = svc.GetByEmail(context.Background(), "nobody@example.org")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestUserServiceCreateOrUpdateFromLdapCreates(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{}}
	svc := NewUserService(repo, zap.NewNop())

	user, err := svc.CreateOrUpdateFromLdap(context.Background(), models.DirectoryEntry{
		DN:        "uid=anna,ou=people,dc=example,dc=org",
		Username:  "anna",
		Email:     "anna@example.org",
		FirstName: "Anna",
		LastName:  "Schmidt",
		Groups:    []string{"leitern-pruefer"},
	})
	require.NoError(t, err)
	assert.True(t, user.IsActive)
	assert.Equal(t, "generated-anna", user.ID)
	assert.Equal(t, []string{"leitern-pruefer"}, []string(user.Groups))
	assert.Len(t, repo.users, 1)
}

func TestUserServiceCreateOrUpdateFromLdapUpdatesExisting(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"1": {ID: "1", Username: "anna", Email: "old@example.org", IsActive: false},
	}}
	svc := NewUserService(repo, zap.NewNop())

	user, err := svc.CreateOrUpdateFromLdap(context.Background(), models.DirectoryEntry{
		Username: "anna",
		Email:    "anna@example.org",
		Groups:   []string{"leitern-admin", " "},
	})
	require.NoError(t, err)
	assert.Equal(t, "1", user.ID)
	assert.Equal(t, "anna@example.org", user.Email)
	assert.False(t, user.IsActive)
	assert.Equal(t, []string{"leitern-admin"}, []string(user.Groups))
	assert.Equal(t, 1, repo.directorySet)
	assert.Len(t, repo.users, 1)
}

func TestUserServiceCreateOrUpdateFromLdapRequiresUsername(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, zap.NewNop())
	_, err := svc.CreateOrUpdateFromLdap(context.Background(), models.DirectoryEntry{Username: "  "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidArgument))
}

func TestUserServiceDeactivateAndActivate(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"1": {ID: "1", Username: "anna", IsActive: true}}}
	svc := NewUserService(repo, zap.NewNop())
	meta := models.AuditMeta{ActorID: "admin"}

	user, err := svc.Deactivate(context.Background(), "1", meta)
	require.NoError(t, err)
	assert.False(t, user.IsActive)
	assert.False(t, repo.users["1"].IsActive)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserDeactivate, repo.auditLogs[0].Action)

	user, err = svc.Activate(context.Background(), "1", meta)
	require.NoError(t, err)
	assert.True(t, user.IsActive)
	require.Len(t, repo.auditLogs, 2)
	assert.Equal(t, models.AuditActionUserActivate, repo.auditLogs[1].Action)
}

func TestUserServiceDeactivateSelfForbidden(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"1": {ID: "1", Username: "anna", IsActive: true}}}
	svc := NewUserService(repo, zap.NewNop())
	_, err := svc.Deactivate(context.Background(), "1", models.AuditMeta{ActorID: "1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
	assert.True(t, repo.users["1"].IsActive)
}

func TestUserServiceActivateMissing(t *testing.T) {
	svc := NewUserService(&mockUserRepo{users: map[string]*models.User{}}, zap.NewNop())
	_, err := svc.Activate(context.Background(), "missing", models.AuditMeta{})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
