package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chepyr/go-todo/internal/auth"
	"github.com/chepyr/go-todo/internal/db"
	"github.com/chepyr/go-todo/internal/models"
	"github.com/google/uuid"
)

var testSecret = strings.Repeat("a", 32)

type MockUserRepository struct {
	users     map[string]*models.User
	createErr error
	getErr    error
	mutex     sync.Mutex
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*models.User)}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.users[user.Email]; exists {
		return db.ErrConflict
	}
	m.users[user.Email] = user
	return nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	user, exists := m.users[email]
	if !exists {
		return nil, db.ErrNotFound
	}
	return user, nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for email, user := range m.users {
		if user.ID == id {
			delete(m.users, email)
			return nil
		}
	}
	return db.ErrNotFound
}

func SetupMockUser(email, password string) *MockUserRepository {
	repo := NewMockUserRepository()
	hash, _ := auth.HashPassword(password)
	repo.users[email] = &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	return repo
}

// newTestHandler wires a Handler to a fresh in-memory sqlite database.
func newTestHandler(t *testing.T) (*Handler, *sql.DB) {
	t.Helper()

	dbx, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	dbx.SetMaxOpenConns(1)
	if err := db.Migrate(context.Background(), dbx, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	h := &Handler{
		UserRepo:    db.NewUserRepository(dbx),
		TaskRepo:    db.NewTaskRepository(dbx),
		TagRepo:     db.NewTagRepository(dbx),
		Tokens:      auth.NewTokenIssuer(testSecret, time.Hour),
		RateLimiter: NewRateLimiter(100, time.Minute),
		WSHub:       NewWSHub(),
	}
	t.Cleanup(func() {
		h.RateLimiter.Stop()
		h.WSHub.Close()
		dbx.Close()
	})
	return h, dbx
}

// createUser stores a user directly and returns it with a bearer header value.
func createUser(t *testing.T, h *Handler, email string) (*models.User, string) {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "unused",
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.UserRepo.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return user, "Bearer " + token
}

func doRequest(t *testing.T, handler http.Handler, method, path, authz string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}
