package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"Hermes/internal/authservice"
	"Hermes/internal/storage"
	"Hermes/proto/authpb"
)

var serverLogger = slog.With("component", "grpc-server")

func main() {
	// Загружаем .env файл
	if err := godotenv.Load(); err != nil {
		serverLogger.Warn("File .env not found, using system environment variables")
	}

	serverLogger.Info("Starting Auth Service gRPC Server")

	connStr := os.Getenv("HERMES_DB_CONN")
	if connStr == "" {
		serverLogger.Error("Environment variable HERMES_DB_CONN is not set")
		os.Exit(1)
	}

	store, err := storage.NewStorage(connStr)
	if err != nil {
		serverLogger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	serverLogger.Info("Database connection established")

	authSvc := authservice.NewAuthService(store)

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(loggingInterceptor),
	)
	authpb.RegisterAuthServiceServer(grpcServer, authSvc)

	// Reflection для отладки (можно отключить в продакшене)
	reflection.Register(grpcServer)

	addr := os.Getenv("HERMES_AUTH_LISTEN")
	if addr == "" {
		addr = ":9090"
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		serverLogger.Error("Failed to listen", "address", addr, "error", err)
		os.Exit(1)
	}

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			serverLogger.Error("gRPC server failed", "error", err)
			os.Exit(1)
		}
	}()

	serverLogger.Info("🚀 Auth Service gRPC Server is running", "address", lis.Addr())

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	serverLogger.Info("Shutdown signal received")

	shutdownTimer := time.NewTimer(5 * time.Second)
	defer shutdownTimer.Stop()

	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		serverLogger.Info("gRPC server stopped gracefully")
	case <-shutdownTimer.C:
		serverLogger.Warn("Force stopping gRPC server")
		grpcServer.Stop()
	}

	serverLogger.Info("Auth Service shutdown complete")
}

// loggingInterceptor логирует все gRPC запросы. Тела запросов не пишем:
// в них пароли.
func loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()

	resp, err := handler(ctx, req)

	duration := time.Since(start)
	if err != nil {
		serverLogger.Error("gRPC request failed",
			"method", info.FullMethod,
			"duration", fmt.Sprintf("%v", duration),
			"error", err)
	} else {
		serverLogger.Info("gRPC request completed",
			"method", info.FullMethod,
			"duration", fmt.Sprintf("%v", duration))
	}

	return resp, err
}
