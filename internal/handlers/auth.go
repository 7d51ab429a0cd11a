package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"Hermes/internal/grpcclient"
)

var authLogger = slog.With("component", "auth-http")

// AuthHandler — тонкие HTTP обертки над Auth Service.
type AuthHandler struct {
	Auth *grpcclient.AuthClient
}

func NewAuthHandler(auth *grpcclient.AuthClient) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// Register обрабатывает POST /register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	err := h.Auth.Register(r.Context(), req.Username, req.Password, req.Role)
	if errors.Is(err, grpcclient.ErrUserExists) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "User already exists"})
		return
	}
	if err != nil {
		authLogger.Error("register failed", "error", err, "username", req.Username)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Server error"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered"})
}

// Login обрабатывает POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	role, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, grpcclient.ErrInvalidCredentials) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		return
	}
	if err != nil {
		authLogger.Error("login failed", "error", err, "username", req.Username)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user": map[string]string{
			"username": req.Username,
			"role":     role,
		},
	})
}
