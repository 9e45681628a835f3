package handlers

import (
	"net/http"

	"github.com/chepyr/go-todo/internal/models"
)

// GET /api/tags?search=
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()
	tags, err := h.TagRepo.List(ctx, currentUser(r).ID, r.URL.Query().Get("search"))
	if err != nil {
		sendStoreError(w, err, "Tag")
		return
	}
	sendJSON(w, http.StatusOK, tags)
}

// POST /api/tags
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var input struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	name, err := models.ValidateTagName(input.Name)
	if err != nil {
		sendStoreError(w, err, "Tag")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	tag, err := h.TagRepo.Create(ctx, user.ID, name)
	if err != nil {
		sendStoreError(w, err, "Tag")
		return
	}
	w.Header().Set("Location", "/api/tags/"+formatID(tag.ID))
	sendJSON(w, http.StatusCreated, tag)
}

// GET /api/tags/{id}
func (h *Handler) GetTag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Tag")
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	tag, err := h.TagRepo.GetByID(ctx, currentUser(r).ID, id)
	if err != nil {
		sendStoreError(w, err, "Tag")
		return
	}
	sendJSON(w, http.StatusOK, tag)
}

// DELETE /api/tags/{id}
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Tag")
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	if err := h.TagRepo.Delete(ctx, currentUser(r).ID, id); err != nil {
		sendStoreError(w, err, "Tag")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
