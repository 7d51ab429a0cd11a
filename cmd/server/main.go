package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"Hermes/internal/blobstore"
	"Hermes/internal/grpcclient"
	"Hermes/internal/handlers"
	"Hermes/internal/storage"
	"Hermes/internal/websocket"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Загружаем переменные окружения из .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Файл .env не найден, переменные окружения будут взяты из системы")
	}

	log.Println("🚀 Запуск Hermes Chat Server")

	connStr := os.Getenv("HERMES_DB_CONN")
	if connStr == "" {
		log.Fatal("❌ Не задана переменная окружения HERMES_DB_CONN")
	}

	store, err := storage.NewStorage(connStr)
	if err != nil {
		log.Fatalf("❌ Ошибка подключения к базе: %v", err)
	}
	defer store.Close()
	log.Println("✅ Подключение к базе данных установлено")

	// Подключаемся к Auth Service
	authAddr := envOr("HERMES_AUTH_ADDR", "localhost:9090")
	authClient, err := grpcclient.NewAuthClient(authAddr)
	if err != nil {
		log.Fatalf("❌ Ошибка подключения к Auth Service: %v", err)
	}
	defer authClient.Close()
	log.Printf("✅ Auth Service: %s", authAddr)

	// Каталог загрузок
	addr := envOr("HERMES_ADDR", "0.0.0.0:8443")
	baseURL := envOr("HERMES_BASE_URL", "http://localhost:8443")
	blobs, err := blobstore.NewStore(envOr("HERMES_UPLOAD_DIR", "uploads"), baseURL)
	if err != nil {
		log.Fatalf("❌ Ошибка каталога загрузок: %v", err)
	}

	// Создаем Hub - центральный диспетчер чата
	hub := websocket.NewHub(store, authClient)
	go hub.Run()
	log.Println("✅ WebSocket Hub запущен")

	// Обработчики HTTP запросов
	chatHandler := handlers.NewChatHandler(hub)
	authHandler := handlers.NewAuthHandler(authClient)
	messageHandler := handlers.NewMessageHandler(hub, authClient)
	uploadHandler := handlers.NewUploadHandler(blobs)

	// Маршруты
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", chatHandler.ServeWS)
	mux.HandleFunc("POST /login", authHandler.Login)
	mux.HandleFunc("POST /register", authHandler.Register)
	mux.HandleFunc("DELETE /delete-message/{id}", messageHandler.Delete)
	mux.HandleFunc("PUT /edit-message/{id}", messageHandler.Edit)
	mux.HandleFunc("POST /upload", uploadHandler.Upload)
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(blobs.Dir()))))
	mux.HandleFunc("GET /health", healthCheck)

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	certFile := os.Getenv("HERMES_CERT_FILE")
	keyFile := os.Getenv("HERMES_KEY_FILE")

	go func() {
		var err error
		if certFile != "" && keyFile != "" {
			log.Printf("🌐 Сервер запущен на https://%s", addr)
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			log.Printf("🌐 Сервер запущен на http://%s (без TLS)", addr)
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Ошибка запуска сервера: %v", err)
		}
	}()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Println("🛑 Получен сигнал завершения")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Ошибка при завершении сервера: %v", err)
	}

	hub.Stop()
	log.Println("✅ Сервер остановлен")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok","service":"hermes-chat","timestamp":"` +
		time.Now().Format(time.RFC3339) + `"}`))
}
