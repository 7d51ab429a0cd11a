package authservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"Hermes/internal/storage"
	"Hermes/proto/authpb"
)

// fakeUserStore — UserStore на карте.
type fakeUserStore map[string]storage.User

func (f fakeUserStore) CreateUser(_ context.Context, u storage.User) error {
	if _, ok := f[u.Username]; ok {
		return storage.ErrUserExists
	}
	f[u.Username] = u
	return nil
}

func (f fakeUserStore) GetUser(_ context.Context, username string) (storage.User, error) {
	u, ok := f[username]
	if !ok {
		return storage.User{}, storage.ErrUserNotFound
	}
	return u, nil
}

func TestRegisterThenLogin(t *testing.T) {
	svc := NewAuthService(fakeUserStore{})
	ctx := context.Background()

	reg, err := svc.Register(ctx, &authpb.RegisterRequest{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)
	require.True(t, reg.Success)

	resp, err := svc.Login(ctx, &authpb.LoginRequest{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, roleUser, resp.Role)
}

func TestRegisterStoresHashNotPassword(t *testing.T) {
	store := fakeUserStore{}
	svc := NewAuthService(store)

	_, err := svc.Register(context.Background(), &authpb.RegisterRequest{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)
	require.NotEqual(t, "s3cret", store["alice"].PasswordHash)
	require.NotEmpty(t, store["alice"].PasswordHash)
}

func TestRegisterDuplicate(t *testing.T) {
	svc := NewAuthService(fakeUserStore{})
	ctx := context.Background()

	_, err := svc.Register(ctx, &authpb.RegisterRequest{Username: "alice", Password: "one"})
	require.NoError(t, err)

	resp, err := svc.Register(ctx, &authpb.RegisterRequest{Username: "alice", Password: "two"})
	require.Equal(t, codes.AlreadyExists, status.Code(err))
	require.False(t, resp.Success)
	require.Equal(t, "User already exists", resp.ErrorMessage)
}

func TestRegisterCoercesUnknownRole(t *testing.T) {
	store := fakeUserStore{}
	svc := NewAuthService(store)
	ctx := context.Background()

	_, err := svc.Register(ctx, &authpb.RegisterRequest{Username: "alice", Password: "x", Role: "superuser"})
	require.NoError(t, err)
	require.Equal(t, roleUser, store["alice"].Role)

	_, err = svc.Register(ctx, &authpb.RegisterRequest{Username: "root", Password: "x", Role: roleAdmin})
	require.NoError(t, err)
	require.Equal(t, roleAdmin, store["root"].Role)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(fakeUserStore{})
	ctx := context.Background()

	_, err := svc.Register(ctx, &authpb.RegisterRequest{Password: "x"})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = svc.Register(ctx, &authpb.RegisterRequest{Username: "alice"})
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// Неверное имя и неверный пароль должны быть неразличимы снаружи.
func TestLoginInvalidCredentialsIndistinguishable(t *testing.T) {
	svc := NewAuthService(fakeUserStore{})
	ctx := context.Background()

	_, err := svc.Register(ctx, &authpb.RegisterRequest{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)

	wrongPass, errPass := svc.Login(ctx, &authpb.LoginRequest{Username: "alice", Password: "nope"})
	noUser, errUser := svc.Login(ctx, &authpb.LoginRequest{Username: "ghost", Password: "nope"})

	require.Equal(t, codes.Unauthenticated, status.Code(errPass))
	require.Equal(t, codes.Unauthenticated, status.Code(errUser))
	require.Equal(t, wrongPass.ErrorMessage, noUser.ErrorMessage)
}

func TestGetRole(t *testing.T) {
	svc := NewAuthService(fakeUserStore{
		"root": {Username: "root", Role: roleAdmin},
	})
	ctx := context.Background()

	resp, err := svc.GetRole(ctx, &authpb.RoleRequest{Username: "root"})
	require.NoError(t, err)
	require.Equal(t, roleAdmin, resp.Role)

	// Неизвестное имя — user, не ошибка
	resp, err = svc.GetRole(ctx, &authpb.RoleRequest{Username: "ghost"})
	require.NoError(t, err)
	require.Equal(t, roleUser, resp.Role)

	_, err = svc.GetRole(ctx, &authpb.RoleRequest{})
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}
