package authservice

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"Hermes/internal/storage"
	"Hermes/proto/authpb"
)

var serviceLogger = slog.With("component", "authservice")

// bcryptCost — стоимость хеширования пароля при регистрации.
const bcryptCost = 10

// Роли, которые принимает регистрация. Все остальное приводится к user.
const (
	roleUser  = "user"
	roleAdmin = "admin"
)

// UserStore — нужная сервису часть хранилища пользователей.
type UserStore interface {
	CreateUser(ctx context.Context, u storage.User) error
	GetUser(ctx context.Context, username string) (storage.User, error)
}

// AuthService реализует gRPC интерфейс AuthServiceServer.
// Сервис stateless: вся память — таблица users.
type AuthService struct {
	authpb.UnimplementedAuthServiceServer
	store UserStore
}

func NewAuthService(store UserStore) *AuthService {
	serviceLogger.Info("Creating new AuthService instance")
	return &AuthService{store: store}
}

// Register создает пользователя с bcrypt-хешем пароля.
func (s *AuthService) Register(ctx context.Context, req *authpb.RegisterRequest) (*authpb.RegisterResponse, error) {
	serviceLogger.Info("Received Register request", "username", req.Username)

	if req.Username == "" {
		return &authpb.RegisterResponse{
			Success:      false,
			ErrorMessage: "Username cannot be empty",
		}, status.Error(codes.InvalidArgument, "username is required")
	}
	if req.Password == "" {
		return &authpb.RegisterResponse{
			Success:      false,
			ErrorMessage: "Password cannot be empty",
		}, status.Error(codes.InvalidArgument, "password is required")
	}

	role := req.Role
	if role != roleAdmin {
		role = roleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		serviceLogger.Error("Failed to hash password", "error", err)
		return &authpb.RegisterResponse{
			Success:      false,
			ErrorMessage: "Failed to register user",
		}, status.Error(codes.Internal, "hashing error")
	}

	err = s.store.CreateUser(ctx, storage.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         role,
	})
	if errors.Is(err, storage.ErrUserExists) {
		serviceLogger.Warn("Register: user already exists", "username", req.Username)
		return &authpb.RegisterResponse{
			Success:      false,
			ErrorMessage: "User already exists",
		}, status.Error(codes.AlreadyExists, "user already exists")
	}
	if err != nil {
		serviceLogger.Error("Failed to create user", "error", err, "username", req.Username)
		return &authpb.RegisterResponse{
			Success:      false,
			ErrorMessage: "Failed to register user",
		}, status.Error(codes.Internal, "database error")
	}

	serviceLogger.Info("User registered", "username", req.Username, "role", role)
	return &authpb.RegisterResponse{Success: true}, nil
}

// Login сверяет пароль с хешем и отдает роль пользователя.
// Неверное имя и неверный пароль снаружи неразличимы.
func (s *AuthService) Login(ctx context.Context, req *authpb.LoginRequest) (*authpb.LoginResponse, error) {
	serviceLogger.Info("Received Login request", "username", req.Username)

	if req.Username == "" || req.Password == "" {
		return &authpb.LoginResponse{
			Success:      false,
			ErrorMessage: "Invalid credentials",
		}, status.Error(codes.InvalidArgument, "username and password are required")
	}

	user, err := s.store.GetUser(ctx, req.Username)
	if errors.Is(err, storage.ErrUserNotFound) {
		return &authpb.LoginResponse{
			Success:      false,
			ErrorMessage: "Invalid credentials",
		}, status.Error(codes.Unauthenticated, "invalid credentials")
	}
	if err != nil {
		serviceLogger.Error("Failed to load user", "error", err, "username", req.Username)
		return &authpb.LoginResponse{
			Success:      false,
			ErrorMessage: "Server error",
		}, status.Error(codes.Internal, "database error")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		serviceLogger.Warn("Login: wrong password", "username", req.Username)
		return &authpb.LoginResponse{
			Success:      false,
			ErrorMessage: "Invalid credentials",
		}, status.Error(codes.Unauthenticated, "invalid credentials")
	}

	serviceLogger.Info("Login successful", "username", req.Username, "role", user.Role)
	return &authpb.LoginResponse{Success: true, Role: user.Role}, nil
}

// GetRole выдает роль по имени. Для неизвестного имени возвращаем user:
// сокет-логин исторически пускает любое имя (см. DESIGN.md).
func (s *AuthService) GetRole(ctx context.Context, req *authpb.RoleRequest) (*authpb.RoleResponse, error) {
	if req.Username == "" {
		return nil, status.Error(codes.InvalidArgument, "username is required")
	}

	user, err := s.store.GetUser(ctx, req.Username)
	if errors.Is(err, storage.ErrUserNotFound) {
		return &authpb.RoleResponse{Role: roleUser}, nil
	}
	if err != nil {
		serviceLogger.Error("Failed to load user", "error", err, "username", req.Username)
		return nil, status.Error(codes.Internal, "database error")
	}
	return &authpb.RoleResponse{Role: user.Role}, nil
}
