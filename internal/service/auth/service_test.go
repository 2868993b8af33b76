package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medilink/pharmacare-api/internal/model"
	pkgauth "github.com/medilink/pharmacare-api/pkg/auth"
	apperrors "github.com/medilink/pharmacare-api/pkg/errors"
	"github.com/medilink/pharmacare-api/pkg/security"
)

type fakeUserRepo struct {
	byID    map[uuid.UUID]*model.User
	byEmail map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[uuid.UUID]*model.User{}, byEmail: map[string]*model.User{}}
}

func (f *fakeUserRepo) CreateWithProfile(_ context.Context, user *model.User) error {
	if _, exists := f.byEmail[user.Email]; exists {
		return apperrors.Conflict("email already registered", nil)
	}
	user.ID = uuid.New()
	f.byID[user.ID] = user
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	return u, nil
}

func newTestService() (*Service, *fakeUserRepo) {
	users := newFakeUserRepo()
	hasher := security.NewBcryptHasher(4)
	tokens := pkgauth.NewJWTService(pkgauth.Config{
		Secret:             "test-secret",
		RefreshSecret:      "test-refresh-secret",
		ExpiryHours:        1,
		RefreshExpiryHours: 24,
	})
	return NewService(users, hasher, tokens), users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService()

	user, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "ama@example.com",
		Password: "correct-horse",
		Name:     "Ama",
		Role:     model.RolePatient,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	pair, loggedIn, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "ama@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, user.ID, loggedIn.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()

	req := &model.RegisterRequest{Email: "kofi@example.com", Password: "long-enough", Name: "Kofi", Role: model.RoleDoctor}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestLoginBadCredentials(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "esi@example.com",
		Password: "right-password",
		Name:     "Esi",
		Role:     model.RolePatient,
	})
	require.NoError(t, err)

	// Unknown email and wrong password look identical to the caller.
	_, _, err = svc.Login(context.Background(), &model.LoginRequest{Email: "esi@example.com", Password: "wrong-password"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))

	_, _, err = svc.Login(context.Background(), &model.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))
}

func TestRefresh(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "yaw@example.com",
		Password: "long-enough",
		Name:     "Yaw",
		Role:     model.RoleInsurer,
	})
	require.NoError(t, err)

	pair, _, err := svc.Login(context.Background(), &model.LoginRequest{Email: "yaw@example.com", Password: "long-enough"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), &model.RefreshRequest{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.Refresh(context.Background(), &model.RefreshRequest{RefreshToken: "not-a-token"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))
}
