package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/chepyr/go-todo/internal/models"
)

/*
GET /api/tasks
query: status_filter, priority, search, tags (comma separated), sort_by, sort_order
*/
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.TaskFilter{
		Status:    q.Get("status_filter"),
		Priority:  q.Get("priority"),
		Search:    q.Get("search"),
		Tags:      q.Get("tags"),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	tasks, err := h.TaskRepo.List(ctx, currentUser(r).ID, filter)
	if err != nil {
		sendStoreError(w, err, "Task")
		return
	}
	sendJSON(w, http.StatusOK, tasks)
}

// POST /api/tasks
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var input models.TaskCreate
	if !decodeJSON(w, r, &input) {
		return
	}
	if err := input.Normalize(); err != nil {
		sendStoreError(w, err, "Task")
		return
	}

	now := time.Now().UTC()
	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority.Value,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	if err := h.TaskRepo.Create(ctx, user.ID, task, input.Tags); err != nil {
		sendStoreError(w, err, "Task")
		return
	}
	h.broadcast(taskCreated, task)
	w.Header().Set("Location", "/api/tasks/"+formatID(task.ID))
	sendJSON(w, http.StatusCreated, task)
}

// GET /api/tasks/{id}
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Task")
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	task, err := h.TaskRepo.GetByID(ctx, currentUser(r).ID, id)
	if err != nil {
		sendStoreError(w, err, "Task")
		return
	}
	sendJSON(w, http.StatusOK, task)
}

// PUT /api/tasks/{id} applies only the fields present in the body.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Task")
	if !ok {
		return
	}

	var input models.TaskUpdate
	if !decodeJSON(w, r, &input) {
		return
	}
	if err := input.Normalize(); err != nil {
		sendStoreError(w, err, "Task")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	task, err := h.TaskRepo.Update(ctx, currentUser(r).ID, id, input)
	if err != nil {
		sendStoreError(w, err, "Task")
		return
	}
	h.broadcast(taskUpdated, task)
	sendJSON(w, http.StatusOK, task)
}

// PATCH /api/tasks/{id} flips is_completed; the body is ignored.
func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Task")
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	task, err := h.TaskRepo.ToggleComplete(ctx, currentUser(r).ID, id)
	if err != nil {
		sendStoreError(w, err, "Task")
		return
	}
	h.broadcast(taskUpdated, task)
	sendJSON(w, http.StatusOK, task)
}

// DELETE /api/tasks/{id}
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Task")
	if !ok {
		return
	}
	user := currentUser(r)

	ctx, cancel := requestContext(r)
	defer cancel()
	if err := h.TaskRepo.Delete(ctx, user.ID, id); err != nil {
		sendStoreError(w, err, "Task")
		return
	}
	if h.WSHub != nil {
		h.WSHub.Broadcast(user.ID, TaskEvent{Event: taskDeleted, TaskID: id})
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) broadcast(event string, task *models.Task) {
	if h.WSHub == nil {
		return
	}
	h.WSHub.Broadcast(task.UserID, TaskEvent{Event: event, TaskID: task.ID, Task: task})
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
