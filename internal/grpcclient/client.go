package grpcclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"Hermes/proto/authpb"
)

var clientLogger = slog.With("component", "grpc-client")

const callTimeout = 3 * time.Second

// ErrInvalidCredentials возвращается, когда Auth Service отверг пару
// имя/пароль или такой пользователь уже есть.
var (
	ErrInvalidCredentials = errors.New("grpcclient: invalid credentials")
	ErrUserExists         = errors.New("grpcclient: user already exists")
)

// AuthClient оборачивает gRPC клиент Auth Service.
type AuthClient struct {
	conn   *grpc.ClientConn
	client authpb.AuthServiceClient
}

// NewAuthClient создает подключение к Auth Service.
// В продакшене здесь будут TLS credentials.
func NewAuthClient(address string) (*AuthClient, error) {
	clientLogger.Info("Connecting to Auth Service", "address", address)

	conn, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		clientLogger.Error("Failed to connect to Auth Service", "error", err, "address", address)
		return nil, fmt.Errorf("failed to connect to auth service: %w", err)
	}

	return &AuthClient{
		conn:   conn,
		client: authpb.NewAuthServiceClient(conn),
	}, nil
}

// Register регистрирует пользователя через gRPC.
func (c *AuthClient) Register(ctx context.Context, username, password, role string) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := c.client.Register(ctx, &authpb.RegisterRequest{
		Username: username,
		Password: password,
		Role:     role,
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return ErrUserExists
		}
		clientLogger.Error("gRPC Register failed", "error", err, "username", username)
		return fmt.Errorf("grpc register failed: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("grpc register failed: %s", resp.ErrorMessage)
	}
	return nil
}

// Login проверяет пару имя/пароль и возвращает роль.
func (c *AuthClient) Login(ctx context.Context, username, password string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.Login(ctx, &authpb.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		if status.Code(err) == codes.Unauthenticated {
			return "", ErrInvalidCredentials
		}
		clientLogger.Error("gRPC Login failed", "error", err,
			"duration", time.Since(start), "username", username)
		return "", fmt.Errorf("grpc login failed: %w", err)
	}
	if !resp.Success {
		return "", ErrInvalidCredentials
	}
	return resp.Role, nil
}

// RoleFor возвращает роль пользователя; Hub дергает его при login по сокету.
func (c *AuthClient) RoleFor(ctx context.Context, username string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := c.client.GetRole(ctx, &authpb.RoleRequest{Username: username})
	if err != nil {
		clientLogger.Error("gRPC GetRole failed", "error", err, "username", username)
		return "", fmt.Errorf("grpc get role failed: %w", err)
	}
	return resp.Role, nil
}

// Close закрывает соединение с Auth Service.
func (c *AuthClient) Close() error {
	if c.conn != nil {
		clientLogger.Info("Closing connection to Auth Service")
		return c.conn.Close()
	}
	return nil
}
