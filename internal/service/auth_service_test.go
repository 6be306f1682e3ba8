package service_test

import (
	"context"
	"errors"
	"testing"

	"beewear/internal/config"
	"beewear/internal/dto"
	"beewear/internal/model"
	"beewear/internal/repository"
	"beewear/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username && u.Active {
			return u, nil
		}
	}
	return nil, errors.New("record not found")
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return u, nil
}

func (r *stubUserRepo) List(_ context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range r.users {
		if u.Active {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (r *stubUserRepo) ListAll(_ context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range r.users {
		result = append(result, *u)
	}
	return result, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return errors.New("record not found")
	}
	u.Active = false
	return nil
}

func (r *stubUserRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return errors.New("record not found")
	}
	u.Active = true
	return nil
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

func authTestConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
	}
}

func seedUser(t *testing.T, svc service.AuthService, username, password, role string) dto.UserResponse {
	t.Helper()
	u, err := svc.CreateUser(context.Background(), dto.CreateUserRequest{
		Username: username,
		Name:     "Test User",
		Password: password,
		Role:     role,
	})
	require.NoError(t, err)
	return *u
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc := service.NewAuthService(newStubUserRepo(), authTestConfig())
	seedUser(t, svc, "maya", "s3cret-pass", "manager")

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "maya", Password: "s3cret-pass"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)
	assert.Equal(t, "manager", resp.User.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := service.NewAuthService(newStubUserRepo(), authTestConfig())
	seedUser(t, svc, "maya", "s3cret-pass", "staff")

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "maya", Password: "wrong"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := service.NewAuthService(newStubUserRepo(), authTestConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "ghost", Password: "whatever"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestRefreshRotatesTokens(t *testing.T) {
	svc := service.NewAuthService(newStubUserRepo(), authTestConfig())
	seedUser(t, svc, "maya", "s3cret-pass", "admin")

	login, err := svc.Login(context.Background(), dto.LoginRequest{Username: "maya", Password: "s3cret-pass"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, login.User.ID, refreshed.User.ID)
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	svc := service.NewAuthService(newStubUserRepo(), authTestConfig())

	_, err := svc.Refresh(context.Background(), "not.a.jwt")
	assert.Error(t, err)
}

func TestRefreshRejectsDeactivatedUser(t *testing.T) {
	repo := newStubUserRepo()
	svc := service.NewAuthService(repo, authTestConfig())
	created := seedUser(t, svc, "maya", "s3cret-pass", "staff")

	login, err := svc.Login(context.Background(), dto.LoginRequest{Username: "maya", Password: "s3cret-pass"})
	require.NoError(t, err)

	id, err := uuid.Parse(created.ID)
	require.NoError(t, err)
	require.NoError(t, svc.DeactivateUser(context.Background(), id))

	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	assert.Error(t, err)
}

func TestDeactivatedUserCannotLogin(t *testing.T) {
	repo := newStubUserRepo()
	svc := service.NewAuthService(repo, authTestConfig())
	created := seedUser(t, svc, "maya", "s3cret-pass", "staff")

	id, err := uuid.Parse(created.ID)
	require.NoError(t, err)
	require.NoError(t, svc.DeactivateUser(context.Background(), id))

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "maya", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	require.NoError(t, svc.ReactivateUser(context.Background(), id))
	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "maya", Password: "s3cret-pass"})
	assert.NoError(t, err)
}

func TestUpdateUserChangesPassword(t *testing.T) {
	svc := service.NewAuthService(newStubUserRepo(), authTestConfig())
	created := seedUser(t, svc, "maya", "old-password1", "staff")

	id, err := uuid.Parse(created.ID)
	require.NoError(t, err)
	_, err = svc.UpdateUser(context.Background(), id, dto.UpdateUserRequest{Password: "new-password1"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "maya", Password: "old-password1"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "maya", Password: "new-password1"})
	require.NoError(t, err)
	assert.Equal(t, "maya", resp.User.Username)
}

func TestListUsersFiltersInactive(t *testing.T) {
	svc := service.NewAuthService(newStubUserRepo(), authTestConfig())
	seedUser(t, svc, "alice", "password-one", "admin")
	created := seedUser(t, svc, "bob", "password-two", "staff")

	id, err := uuid.Parse(created.ID)
	require.NoError(t, err)
	require.NoError(t, svc.DeactivateUser(context.Background(), id))

	active, err := svc.ListUsers(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := svc.ListUsers(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
