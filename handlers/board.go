package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/7858072571/task-manager/database"
	"github.com/7858072571/task-manager/services"
)

// BoardHandler handles board-related endpoints
type BoardHandler struct {
	stores      *services.StoreManager
	authService *services.AuthService
	hub         *services.Hub
}

func NewBoardHandler(stores *services.StoreManager, authService *services.AuthService, hub *services.Hub) *BoardHandler {
	return &BoardHandler{
		stores:      stores,
		authService: authService,
		hub:         hub,
	}
}

// store resolves the task store for the authenticated request, writing the
// error response itself when that fails.
func (h *BoardHandler) store(w http.ResponseWriter, r *http.Request) (*services.TaskStore, string, bool) {
	email, ok := r.Context().Value(emailContextKey).(string)
	if !ok {
		http.Error(w, "user not found", http.StatusUnauthorized)
		return nil, "", false
	}

	ts, err := h.stores.Store(email)
	if err != nil {
		log.Printf("Error loading board for %s: %v", email, err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return nil, "", false
	}
	return ts, email, true
}

// boardPayload assembles the full view state for one user's board.
func boardPayload(ts *services.TaskStore) map[string]any {
	return map[string]any{
		"tasks":      ts.Tasks(),
		"columns":    ts.Columns(),
		"metrics":    ts.Metrics(),
		"activities": ts.Activities(),
	}
}

// broadcast pushes the updated board to every connection the user has open.
func (h *BoardHandler) broadcast(email string, ts *services.TaskStore) {
	h.hub.BroadcastToUser(email, services.WebSocketMessage{
		Type: "board",
		Data: boardPayload(ts),
	})
}

// GetBoard returns the tasks, derived columns, metrics and recent activity
func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	ts, _, ok := h.store(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "success",
		"data":   boardPayload(ts),
	})
}

// CreateTask adds a placeholder task to a column and returns its id
func (h *BoardHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	ts, email, ok := h.store(w, r)
	if !ok {
		return
	}

	var req struct {
		ColumnID string `json:"columnId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	if !database.ValidStatus(req.ColumnID) {
		http.Error(w, "Invalid column id", http.StatusBadRequest)
		return
	}

	id := ts.AddTask(req.ColumnID)
	h.broadcast(email, ts)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"status": "success",
		"id":     id,
	})
}

// UpdateTask merges edits into a task
func (h *BoardHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	ts, email, ok := h.store(w, r)
	if !ok {
		return
	}

	var update services.TaskUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	if update.Priority != nil && *update.Priority != database.PriorityLow &&
		*update.Priority != database.PriorityMedium && *update.Priority != database.PriorityHigh {
		http.Error(w, "Invalid priority", http.StatusBadRequest)
		return
	}

	ts.UpdateTask(mux.Vars(r)["id"], update)
	h.broadcast(email, ts)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "success",
		"data":   boardPayload(ts),
	})
}

// MoveTask drops a task into another column
func (h *BoardHandler) MoveTask(w http.ResponseWriter, r *http.Request) {
	ts, email, ok := h.store(w, r)
	if !ok {
		return
	}

	var req struct {
		ColumnID string `json:"columnId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	if !database.ValidStatus(req.ColumnID) {
		http.Error(w, "Invalid column id", http.StatusBadRequest)
		return
	}

	ts.MoveTask(mux.Vars(r)["id"], req.ColumnID)
	h.broadcast(email, ts)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "success",
		"data":   boardPayload(ts),
	})
}

// DeleteTask removes a task from the board
func (h *BoardHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	ts, email, ok := h.store(w, r)
	if !ok {
		return
	}

	ts.DeleteTask(mux.Vars(r)["id"])
	h.broadcast(email, ts)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "success",
		"data":   boardPayload(ts),
	})
}

// HandleWebSocket upgrades the HTTP connection to a WebSocket connection
func (h *BoardHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	email, ok := r.Context().Value(emailContextKey).(string)
	if !ok {
		http.Error(w, "user not found", http.StatusUnauthorized)
		return
	}

	// Upgrade HTTP connection to WebSocket
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // Allow all origins in development
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading to WebSocket: %v", err)
		return
	}

	// Register client in the hub. A user may keep several tabs or devices
	// connected at once; each gets its own client.
	client := &services.Client{
		Hub:   h.hub,
		Conn:  conn,
		Send:  make(chan []byte, 256),
		Email: email,
	}

	h.hub.Register(client)
	log.Printf("WebSocket client registered: %s", email)

	// Start goroutines for reading and writing
	go client.WritePump()
	go client.ReadPump()
}
