package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/7858072571/task-manager/database"
	"github.com/7858072571/task-manager/services"
)

// AuthHandler handles authentication and profile endpoints
type AuthHandler struct {
	authService *services.AuthService
	userService *database.UserService
}

func NewAuthHandler(authService *services.AuthService, userService *database.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

// Login validates an email/password pair and returns a session token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	// Parse request
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	// Validate email
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		http.Error(w, "Invalid email address", http.StatusBadRequest)
		return
	}

	user, token, err := h.authService.Login(req.Email, req.Password)
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		log.Printf("Error validating login: %v", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	// Record the signed-in user so the session survives without a token
	if err := h.userService.SetCurrentUser(user.ID); err != nil {
		log.Printf("Error setting current user: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "success",
		"token":  token,
		"user":   sanitizeUser(*user),
	})
}

// Register creates a new local account
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	// Parse request
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Avatar   string `json:"avatar"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if req.Email == "" || !strings.Contains(req.Email, "@") {
		http.Error(w, "Invalid email address", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Password == "" {
		http.Error(w, "Name and password are required", http.StatusBadRequest)
		return
	}

	user, token, err := h.authService.Register(req.Name, req.Email, req.Password, req.Avatar)
	if errors.Is(err, database.ErrEmailTaken) {
		http.Error(w, "Email already registered", http.StatusConflict)
		return
	}
	if err != nil {
		log.Printf("Error registering user: %v", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"status": "success",
		"token":  token,
		"user":   sanitizeUser(*user),
	})
}

// Session resolves the current identity. A valid Bearer token wins and
// yields a synthesized session user; otherwise the persisted current-user
// marker is consulted.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	if email, ok := sessionEmail(r, h.authService); ok {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "valid",
			"user":   sanitizeUser(h.authService.SessionUser(email)),
		})
		return
	}

	user, err := h.userService.CurrentUser()
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, "No active session", http.StatusUnauthorized)
		return
	}
	if err != nil {
		log.Printf("Error resolving current user: %v", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "valid",
		"user":   sanitizeUser(*user),
	})
}

// Logout clears the persisted current-user marker
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.ClearCurrentUser(); err != nil {
		log.Printf("Error clearing current user: %v", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "success",
	})
}

// UpdateUser merges profile changes into a stored user
func (h *AuthHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var patch database.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	user, err := h.userService.UpdateUser(id, patch)
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error updating user %s: %v", id, err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "success",
		"user":   sanitizeUser(*user),
	})
}

// DeleteUser removes a stored user
func (h *AuthHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.userService.DeleteUser(id)
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error deleting user %s: %v", id, err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "success",
	})
}

// GetAvatar returns a user's stored avatar
func (h *AuthHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	avatar, err := h.userService.Avatar(id)
	if errors.Is(err, database.ErrNotFound) {
		avatar = database.PlaceholderAvatar
	} else if err != nil {
		log.Printf("Error reading avatar for user %s: %v", id, err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"avatar": avatar,
	})
}

// sanitizeUser strips the credential secret before a user leaves the API.
func sanitizeUser(u database.User) database.User {
	u.Password = ""
	return u
}
