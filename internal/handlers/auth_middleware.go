package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/chepyr/go-todo/internal/db"
	"github.com/chepyr/go-todo/internal/models"
)

type contextKey string

const userContextKey contextKey = "user"

var errUnauthenticated = errors.New("unauthenticated")

/*
Resolve the bearer token to a user and put it into the request context.
Every failure is answered with the same 401.
*/
func (h *Handler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		user, err := h.authenticate(r.Context(), bearerToken(r))
		if err != nil {
			if errors.Is(err, errUnauthenticated) {
				sendUnauthorized(w, "Could not validate credentials")
				return
			}
			log.Printf("Error authenticating request: %v", err)
			sendError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// authenticate returns errUnauthenticated for a missing or invalid token and
// for tokens whose user no longer exists.
func (h *Handler) authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, errUnauthenticated
	}
	userID, err := h.Tokens.Resolve(token)
	if err != nil {
		return nil, errUnauthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	user, err := h.UserRepo.GetByID(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, errUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func bearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func sendUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	sendError(w, message, http.StatusUnauthorized)
}

// currentUser is only valid behind AuthMiddleware.
func currentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(userContextKey).(*models.User)
	return user
}
