package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/chepyr/go-todo/internal/auth"
	"github.com/chepyr/go-todo/internal/db"
	"github.com/chepyr/go-todo/internal/models"
	"github.com/google/uuid"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if h.RateLimiter != nil && !h.RateLimiter.Allow(ip) {
		log.Printf("Rate limit exceeded for IP: %s", ip)
		sendError(w, "Too many attempts. Please try again later.", http.StatusTooManyRequests)
		return
	}

	var input credentials
	if !decodeJSON(w, r, &input) {
		return
	}
	email := normalizeEmail(input.Email)
	if !auth.ValidEmail(email) {
		sendError(w, "Invalid email address", http.StatusUnprocessableEntity)
		return
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		sendError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	if err := h.UserRepo.Create(ctx, user); err != nil {
		if errors.Is(err, db.ErrConflict) {
			sendError(w, "Email already registered", http.StatusConflict)
			return
		}
		sendStoreError(w, err, "User")
		return
	}

	log.Printf("User registered: %s", user.Email)
	sendJSON(w, http.StatusCreated, user)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if h.RateLimiter != nil && !h.RateLimiter.Allow(ip) {
		log.Printf("Rate limit exceeded for IP: %s", ip)
		sendError(w, "Too many login attempts. Please try again later.", http.StatusTooManyRequests)
		return
	}

	var input credentials
	if !decodeJSON(w, r, &input) {
		return
	}
	email := normalizeEmail(input.Email)

	ctx, cancel := requestContext(r)
	defer cancel()
	user, err := h.UserRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		sendStoreError(w, err, "User")
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, input.Password) {
		log.Printf("Failed login for email: %s", email)
		sendUnauthorized(w, "Incorrect email or password")
		return
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		log.Printf("Error generating token: %v", err)
		sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	log.Printf("User logged in: %s", user.Email)
	sendJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, currentUser(r))
}

// DeleteMe removes the account; the store cascades to its tasks and tags.
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	ctx, cancel := requestContext(r)
	defer cancel()
	if err := h.UserRepo.Delete(ctx, user.ID); err != nil {
		sendStoreError(w, err, "User")
		return
	}
	if h.WSHub != nil {
		h.WSHub.CloseOwner(user.ID)
	}
	log.Printf("User deleted: %s", user.Email)
	w.WriteHeader(http.StatusNoContent)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
