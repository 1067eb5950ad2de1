package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/afflytics/afflytics/internal/content"
	"github.com/afflytics/afflytics/internal/model"
)

// ServedByHeader tells clients which store tier answered a request.
const ServedByHeader = "X-Served-By"

// PostHandler exposes blog post CRUD over the resilient content store.
type PostHandler struct {
	service *content.Service
	logger  *slog.Logger
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(service *content.Service, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		service: service,
		logger:  logger.With("component", "handler.post"),
	}
}

// postRequest is the body for create and update operations.
type postRequest struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags,omitempty"`
	Published bool     `json:"published"`
}

func (req *postRequest) validate() string {
	if strings.TrimSpace(req.Title) == "" {
		return "title is required"
	}
	return ""
}

// List handles GET /api/v1/posts.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, tier, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list posts failed", "error", err)
		writeDomainError(w, err)
		return
	}
	w.Header().Set(ServedByHeader, string(tier))
	writeJSON(w, http.StatusOK, posts)
}

// Get handles GET /api/v1/posts/{id}.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, tier, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set(ServedByHeader, string(tier))
	writeJSON(w, http.StatusOK, post)
}

// Create handles POST /api/v1/posts.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", msg)
		return
	}

	post := &model.Post{
		Title:     req.Title,
		Body:      req.Body,
		Tags:      req.Tags,
		Published: req.Published,
	}
	tier, err := h.service.Create(r.Context(), post)
	if err != nil {
		h.logger.Error("create post failed", "error", err)
		writeDomainError(w, err)
		return
	}

	if tier == content.TierFallback {
		h.logger.Warn("post created on fallback tier", "post_id", post.ID)
	}
	w.Header().Set(ServedByHeader, string(tier))
	writeJSON(w, http.StatusCreated, post)
}

// Update handles PATCH /api/v1/posts/{id}.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", msg)
		return
	}

	existing, _, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	existing.Title = req.Title
	existing.Body = req.Body
	existing.Tags = req.Tags
	existing.Published = req.Published

	tier, err := h.service.Update(r.Context(), existing)
	if err != nil {
		h.logger.Error("update post failed", "post_id", id, "error", err)
		writeDomainError(w, err)
		return
	}
	w.Header().Set(ServedByHeader, string(tier))
	writeJSON(w, http.StatusOK, existing)
}

// Delete handles DELETE /api/v1/posts/{id}.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	tier, err := h.service.Delete(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set(ServedByHeader, string(tier))
	w.WriteHeader(http.StatusNoContent)
}
