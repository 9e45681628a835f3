package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/chepyr/go-todo/internal/models"
)

func createTaskHTTP(t *testing.T, handler http.Handler, authz string, body map[string]any) models.Task {
	t.Helper()
	rec := doRequest(t, handler, http.MethodPost, "/api/tasks", authz, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task %v: %d %s", body, rec.Code, rec.Body.String())
	}
	return decodeBody[models.Task](t, rec)
}

// register -> login -> create -> toggle -> delete -> 404
func TestTaskLifecycle(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := h.Routes()

	rec := doRequest(t, mux, http.MethodPost, "/api/auth/register", "",
		`{"email":"a@x.io","password":"Passw0rdX"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, mux, http.MethodPost, "/api/auth/login", "",
		`{"email":"a@x.io","password":"Passw0rdX"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	login := decodeBody[tokenResponse](t, rec)
	if login.TokenType != "bearer" || login.AccessToken == "" {
		t.Fatalf("unexpected login response: %+v", login)
	}
	authz := "Bearer " + login.AccessToken

	task := createTaskHTTP(t, mux, authz, map[string]any{"title": "Buy milk", "tags": []string{"Home", "urgent"}})
	if task.Priority != models.PriorityMedium || task.IsCompleted || task.Description != nil {
		t.Errorf("unexpected defaults: %+v", task)
	}
	if len(task.Tags) != 2 || task.Tags[0] != "home" || task.Tags[1] != "urgent" {
		t.Errorf("tags = %v, want [home urgent]", task.Tags)
	}
	if task.UserID != login.User.ID {
		t.Errorf("user_id = %s, want %s", task.UserID, login.User.ID)
	}

	path := "/api/tasks/" + formatID(task.ID)
	rec = doRequest(t, mux, http.MethodPatch, path, authz, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: %d %s", rec.Code, rec.Body.String())
	}
	if toggled := decodeBody[models.Task](t, rec); !toggled.IsCompleted {
		t.Error("toggle should complete the task")
	}

	if rec := doRequest(t, mux, http.MethodDelete, path, authz, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	if rec := doRequest(t, mux, http.MethodGet, path, authz, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: %d", rec.Code)
	}
}

func TestTasks_RequireAuth(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := h.Routes()

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/tasks"},
		{http.MethodPost, "/api/tasks"},
		{http.MethodGet, "/api/tasks/1"},
		{http.MethodPut, "/api/tasks/1"},
		{http.MethodPatch, "/api/tasks/1"},
		{http.MethodDelete, "/api/tasks/1"},
		{http.MethodGet, "/api/tags"},
		{http.MethodGet, "/api/auth/me"},
	} {
		rec := doRequest(t, mux, tc.method, tc.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: want 401, got %d", tc.method, tc.path, rec.Code)
		}
		if rec.Header().Get("WWW-Authenticate") != "Bearer" {
			t.Errorf("%s %s: missing WWW-Authenticate", tc.method, tc.path)
		}
	}
}

func TestTasks_CreateValidation(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := h.Routes()
	_, authz := createUser(t, h, "v@example.com")

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "Missing title", body: `{}`, want: http.StatusUnprocessableEntity},
		{name: "Blank title", body: `{"title":"   "}`, want: http.StatusUnprocessableEntity},
		{name: "Title too long", body: `{"title":"` + strings.Repeat("t", 201) + `"}`, want: http.StatusUnprocessableEntity},
		{name: "Description too long", body: `{"title":"ok","description":"` + strings.Repeat("d", 2001) + `"}`, want: http.StatusUnprocessableEntity},
		{name: "Bad priority", body: `{"title":"ok","priority":"urgent"}`, want: http.StatusUnprocessableEntity},
		{name: "Null priority", body: `{"title":"ok","priority":null}`, want: http.StatusUnprocessableEntity},
		{name: "Tag too long", body: `{"title":"ok","tags":["` + strings.Repeat("g", 51) + `"]}`, want: http.StatusUnprocessableEntity},
		{name: "Malformed JSON", body: `{"title":`, want: http.StatusUnprocessableEntity},
		{name: "Max title", body: `{"title":"` + strings.Repeat("t", 200) + `","priority":"low"}`, want: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, mux, http.MethodPost, "/api/tasks", authz, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("want %d, got %d (%s)", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestTasks_NonNumericIDIsNotFound(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := h.Routes()
	_, authz := createUser(t, h, "ids@example.com")

	for _, path := range []string{"/api/tasks/abc", "/api/tasks/-1", "/api/tasks/0", "/api/tags/abc"} {
		if rec := doRequest(t, mux, http.MethodGet, path, authz, nil); rec.Code != http.StatusNotFound {
			t.Errorf("GET %s: want 404, got %d", path, rec.Code)
		}
	}
}

func TestTasks_MethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := h.Routes()
	_, authz := createUser(t, h, "m@example.com")

	if rec := doRequest(t, mux, http.MethodPost, "/api/tasks/1", authz, nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /api/tasks/1: want 405, got %d", rec.Code)
	}
	if rec := doRequest(t, mux, http.MethodPut, "/api/tags/1", authz, nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("PUT /api/tags/1: want 405, got %d", rec.Code)
	}
}

func TestTasks_UpdatePartial(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := h.Routes()
	_, authz := createUser(t, h, "u@example.com")

	task := createTaskHTTP(t, mux, authz, map[string]any{
		"title": "Write report", "description": "Q3", "tags": []string{"work", "home"},
	})
	path := "/api/tasks/" + formatID(task.ID)

	rec := doRequest(t, mux, http.MethodPut, path, authz, `{"priority":"high"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}
	got := decodeBody[models.Task](t, rec)
	if got.Priority != models.PriorityHigh || got.Title != "Write report" ||
		got.Description == nil || *got.Description != "Q3" || len(got.Tags) != 2 {
		t.Errorf("priority-only update changed other fields: %+v", got)
	}
	if got.UpdatedAt.Before(task.UpdatedAt) {
		t.Errorf("updated_at went backwards: %v < %v", got.UpdatedAt, task.UpdatedAt)
	}

	rec = doRequest(t, mux, http.MethodPut, path, authz, `{"tags":[]}`)
	if got := decodeBody[models.Task](t, rec); len(got.Tags) != 0 || got.Priority != models.PriorityHigh {
		t.Errorf("tags:[] should clear tags only: %+v", got)
	}

	rec = doRequest(t, mux, http.MethodPut, path, authz, `{"description":null,"tags":null}`)
	if got := decodeBody[models.Task](t, rec); got.Description != nil || len(got.Tags) != 0 {
		t.Errorf("null description should clear: %+v", got)
	}

	for _, body := range []string{`{"title":""}`, `{"title":null}`, `{"priority":"urgent"}`, `{"is_completed":null}`} {
		if rec := doRequest(t, mux, http.MethodPut, path, authz, body); rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("PUT %s: want 422, got %d", body, rec.Code)
		}
	}

	if rec := doRequest(t, mux, http.MethodPut, "/api/tasks/9999", authz, `{"title":"x"}`); rec.Code != http.StatusNotFound {
		t.Errorf("update missing task: want 404, got %d", rec.Code)
	}
}

func TestTasks_ToggleTwiceRestores(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := h.Routes()
	_, authz := createUser(t, h, "t@example.com")

	task := createTaskHTTP(t, mux, authz, map[string]any{"title": "flip"})
	path := "/api/tasks/" + formatID(task.ID)
	doRequest(t, mux, http.MethodPatch, path, authz, nil)
	rec := doRequest(t, mux, http.MethodPatch, path, authz, nil)
	if got := decodeBody[models.Task](t, rec); got.IsCompleted != task.IsCompleted {
		t.Errorf("two toggles should restore is_completed=%v", task.IsCompleted)
	}
}

func TestTasks_Isolation(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := h.Routes()
	_, alice := createUser(t, h, "alice@example.com")
	_, bob := createUser(t, h, "bob@example.com")

	task := createTaskHTTP(t, mux, alice, map[string]any{"title": "secret", "tags": []string{"private"}})
	path := "/api/tasks/" + formatID(task.ID)

	for _, tc := range []struct {
		method string
		body   any
	}{
		{http.MethodGet, nil},
		{http.MethodPut, `{"title":"pwned"}`},
		{http.MethodPatch, nil},
		{http.MethodDelete, nil},
	} {
		if rec := doRequest(t, mux, tc.method, path, bob, tc.body); rec.Code != http.StatusNotFound {
			t.Errorf("bob %s alice's task: want 404, got %d", tc.method, rec.Code)
		}
	}

	rec := doRequest(t, mux, http.MethodGet, "/api/tasks?tags=private", bob, nil)
	if tasks := decodeBody[[]models.Task](t, rec); len(tasks) != 0 {
		t.Errorf("bob sees alice's tasks: %+v", tasks)
	}

	rec = doRequest(t, mux, http.MethodGet, path, alice, nil)
	if got := decodeBody[models.Task](t, rec); got.Title != "secret" || got.IsCompleted {
		t.Errorf("alice's task was modified: %+v", got)
	}
}

func TestTasks_ListFilters(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := h.Routes()
	_, authz := createUser(t, h, "f@example.com")

	a := createTaskHTTP(t, mux, authz, map[string]any{"title": "Alpha", "priority": "high", "tags": []string{"work"}})
	b := createTaskHTTP(t, mux, authz, map[string]any{"title": "Bravo", "priority": "low", "tags": []string{"home"}})
	c := createTaskHTTP(t, mux, authz, map[string]any{"title": "Charlie", "description": "grocery run", "tags": []string{"work", "home"}})
	doRequest(t, mux, http.MethodPatch, "/api/tasks/"+formatID(b.ID), authz, nil)

	tests := []struct {
		name  string
		query string
		want  []int64
	}{
		{name: "Completed", query: "status_filter=completed", want: []int64{b.ID}},
		{name: "Pending", query: "status_filter=pending&sort_order=asc", want: []int64{a.ID, c.ID}},
		{name: "Priority", query: "priority=high", want: []int64{a.ID}},
		{name: "Bogus priority ignored", query: "priority=urgent&sort_by=title&sort_order=asc", want: []int64{a.ID, b.ID, c.ID}},
		{name: "Search description", query: "search=GROCERY", want: []int64{c.ID}},
		{name: "Tags OR without duplicates", query: "tags=work,home&sort_by=title&sort_order=asc", want: []int64{a.ID, b.ID, c.ID}},
		{name: "Single tag", query: "tags=work&sort_by=title&sort_order=desc", want: []int64{c.ID, a.ID}},
		{name: "Unknown sort falls back", query: "sort_by=bogus&sort_order=asc", want: []int64{a.ID, b.ID, c.ID}},
		{name: "Title desc", query: "sort_by=title", want: []int64{c.ID, b.ID, a.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, mux, http.MethodGet, "/api/tasks?"+tt.query, authz, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("list: %d", rec.Code)
			}
			tasks := decodeBody[[]models.Task](t, rec)
			if len(tasks) != len(tt.want) {
				t.Fatalf("got %d tasks, want %d", len(tasks), len(tt.want))
			}
			for i, task := range tasks {
				if task.ID != tt.want[i] {
					t.Fatalf("position %d: got task %d, want %d", i, task.ID, tt.want[i])
				}
			}
		})
	}
}

func TestRoot(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doRequest(t, h.Routes(), http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /: %d", rec.Code)
	}
	body := decodeBody[map[string]string](t, rec)
	if body["message"] != "Todo API is running" || body["version"] != Version {
		t.Errorf("unexpected body %v", body)
	}
}
