package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/cors"

	"github.com/7858072571/task-manager/database"
	"github.com/7858072571/task-manager/handlers"
	"github.com/7858072571/task-manager/services"
)

func main() {
	// Load environment variables from .env file
	if err := LoadEnv(".env"); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	// Initialize database
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./task-manager.db"
	}
	db, err := database.InitDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize the key-value store. An optional quota mimics the
	// per-origin storage limit the data layout was designed around.
	store := database.NewStore(db)
	if quota := os.Getenv("STORAGE_QUOTA_BYTES"); quota != "" {
		bytes, err := strconv.Atoi(quota)
		if err != nil {
			log.Fatalf("Invalid STORAGE_QUOTA_BYTES: %v", err)
		}
		store.SetQuota(bytes)
	}

	// Initialize services
	userService, err := database.NewUserService(store)
	if err != nil {
		log.Fatalf("Failed to initialize user service: %v", err)
	}
	if os.Getenv("SEED_USERS") == "true" {
		if err := userService.SeedDefaultUsers(); err != nil {
			log.Printf("Error seeding default users: %v", err)
		}
	}
	boardService := database.NewBoardService(store)
	authService := services.NewAuthService(userService)
	storeManager := services.NewStoreManager(boardService)

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, userService)
	boardHandler := handlers.NewBoardHandler(storeManager, authService, hub)
	authMiddleware := handlers.NewAuthMiddleware(authService)

	// Setup router
	r := mux.NewRouter()

	// Auth routes
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/api/auth/session", authHandler.Session).Methods("GET")
	r.HandleFunc("/api/auth/logout", authHandler.Logout).Methods("POST")

	// Board and user routes (protected)
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(authMiddleware.Auth)
	protected.HandleFunc("/board", boardHandler.GetBoard).Methods("GET")
	protected.HandleFunc("/board/tasks", boardHandler.CreateTask).Methods("POST")
	protected.HandleFunc("/board/tasks/{id}", boardHandler.UpdateTask).Methods("PATCH")
	protected.HandleFunc("/board/tasks/{id}", boardHandler.DeleteTask).Methods("DELETE")
	protected.HandleFunc("/board/tasks/{id}/move", boardHandler.MoveTask).Methods("POST")
	protected.HandleFunc("/users/{id}", authHandler.UpdateUser).Methods("PUT")
	protected.HandleFunc("/users/{id}", authHandler.DeleteUser).Methods("DELETE")
	protected.HandleFunc("/users/{id}/avatar", authHandler.GetAvatar).Methods("GET")

	// WebSocket route for real-time updates
	protected.HandleFunc("/ws", boardHandler.HandleWebSocket)

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // In production, change to your domain
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Server starting on port %s", port)
	log.Fatal(server.ListenAndServe())
}
