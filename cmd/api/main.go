package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chepyr/go-todo/internal/auth"
	"github.com/chepyr/go-todo/internal/config"
	"github.com/chepyr/go-todo/internal/db"
	"github.com/chepyr/go-todo/internal/handlers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.Debug {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}

	dbConn := initDB(cfg)
	defer func() {
		if err := dbConn.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}
	}()

	handler := initHandlers(cfg, dbConn)
	defer handler.RateLimiter.Stop()
	defer handler.WSHub.Close()

	server := initServer(cfg, handler)
	startServer(server)
}

func initDB(cfg *config.Config) *sql.DB {
	dbConn, err := db.Connect(cfg.DBDriver, cfg.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.Migrate(ctx, dbConn, cfg.DBDriver); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Printf("Connected to %s database", cfg.DBDriver)
	return dbConn
}

func initHandlers(cfg *config.Config, dbConn *sql.DB) *handlers.Handler {
	return &handlers.Handler{
		UserRepo:    db.NewUserRepository(dbConn),
		TaskRepo:    db.NewTaskRepository(dbConn),
		TagRepo:     db.NewTagRepository(dbConn),
		Tokens:      auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiration),
		RateLimiter: handlers.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow),
		WSHub:       handlers.NewWSHub(),
		Origins:     cfg.CORSOrigins,
	}
}

func initServer(cfg *config.Config, handler *handlers.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func startServer(server *http.Server) {
	log.Printf("Starting todo API on %s (version %s)", server.Addr, handlers.Version)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped")
}
