package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/chepyr/go-todo/internal/auth"
	"github.com/chepyr/go-todo/internal/db"
	"github.com/chepyr/go-todo/internal/models"
)

const (
	Version = "0.1.0"

	requestTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20 // 1MB
)

type Handler struct {
	UserRepo    db.UserRepositoryInterface
	TaskRepo    db.TaskRepositoryInterface
	TagRepo     db.TagRepositoryInterface
	Tokens      *auth.TokenIssuer
	RateLimiter *RateLimiter
	WSHub       *WSHub
	// Origins is the CORS and websocket origin allow list.
	Origins []string
}

// Routes registers every endpoint on a new mux and wraps it with the
// logging and CORS middlewares.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.Root)

	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("GET /api/auth/me", h.AuthMiddleware(h.Me))
	mux.HandleFunc("DELETE /api/auth/me", h.AuthMiddleware(h.DeleteMe))

	mux.HandleFunc("GET /api/tags", h.AuthMiddleware(h.ListTags))
	mux.HandleFunc("POST /api/tags", h.AuthMiddleware(h.CreateTag))
	mux.HandleFunc("GET /api/tags/{id}", h.AuthMiddleware(h.GetTag))
	mux.HandleFunc("DELETE /api/tags/{id}", h.AuthMiddleware(h.DeleteTag))

	mux.HandleFunc("GET /api/tasks", h.AuthMiddleware(h.ListTasks))
	mux.HandleFunc("POST /api/tasks", h.AuthMiddleware(h.CreateTask))
	mux.HandleFunc("GET /api/tasks/{id}", h.AuthMiddleware(h.GetTask))
	mux.HandleFunc("PUT /api/tasks/{id}", h.AuthMiddleware(h.UpdateTask))
	mux.HandleFunc("PATCH /api/tasks/{id}", h.AuthMiddleware(h.ToggleTask))
	mux.HandleFunc("DELETE /api/tasks/{id}", h.AuthMiddleware(h.DeleteTask))

	mux.HandleFunc("GET /api/ws", h.HandleWebSocket)

	return logRequests(h.enableCORS(mux))
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{
		"message": "Todo API is running",
		"version": Version,
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func sendError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: message})
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// sendStoreError maps repository and validation errors to a response.
// Unexpected errors are logged and reported as a bare 500.
func sendStoreError(w http.ResponseWriter, err error, resource string) {
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &validationErr):
		sendError(w, validationErr.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, db.ErrNotFound):
		sendError(w, resource+" not found", http.StatusNotFound)
	case errors.Is(err, db.ErrConflict):
		sendError(w, resource+" already exists", http.StatusConflict)
	default:
		log.Printf("%s operation failed: %v", resource, err)
		sendError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// decodeJSON reads a body of at most 1MB into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		sendError(w, "Invalid JSON body", http.StatusUnprocessableEntity)
		return false
	}
	return true
}

// pathID parses the {id} path segment. Anything that is not a positive
// integer is reported the same way as a missing row.
func pathID(w http.ResponseWriter, r *http.Request, resource string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		sendError(w, resource+" not found", http.StatusNotFound)
		return 0, false
	}
	return id, true
}

func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), requestTimeout)
}
