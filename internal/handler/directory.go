package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/shiftline/internal/model"
	"github.com/dukerupert/shiftline/internal/store"
)

// DirectoryHandler lists and creates the people and tags shifts belong to.
type DirectoryHandler struct {
	people *store.PersonStore
	tags   *store.TagStore
	logger *slog.Logger
}

func NewDirectoryHandler(ps *store.PersonStore, ts *store.TagStore, logger *slog.Logger) *DirectoryHandler {
	return &DirectoryHandler{people: ps, tags: ts, logger: logger}
}

func (h *DirectoryHandler) ListPeople(w http.ResponseWriter, r *http.Request) {
	people, err := h.people.List()
	if err != nil {
		h.logger.Error("list people", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list people")
		return
	}
	if people == nil {
		people = []model.Person{}
	}
	writeJSON(w, http.StatusOK, people)
}

func (h *DirectoryHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		Department string `json:"department"`
		Location   string `json:"location"`
		Role       string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	p, err := h.people.Create(req.Name, req.Department, req.Location, req.Role)
	if err != nil {
		h.logger.Error("create person", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create person")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *DirectoryHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.List()
	if err != nil {
		h.logger.Error("list tags", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tags")
		return
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	writeJSON(w, http.StatusOK, tags)
}

func (h *DirectoryHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name             string        `json:"name"`
		Kind             model.TagKind `json:"kind"`
		Icon             string        `json:"icon"`
		Color            string        `json:"color"`
		RequiresCoverage bool          `json:"requires_coverage"`
		MinCoverage      *int          `json:"min_coverage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	switch req.Kind {
	case "", model.TagStation, model.TagTask:
	default:
		writeError(w, http.StatusBadRequest, "kind must be STATION or TASK")
		return
	}
	if !validColor(req.Color) {
		writeError(w, http.StatusBadRequest, "color must be a hex color (e.g. #FF0000)")
		return
	}
	if req.MinCoverage != nil && *req.MinCoverage < 0 {
		writeError(w, http.StatusBadRequest, "min_coverage must not be negative")
		return
	}

	t, err := h.tags.Create(req.Name, req.Kind, req.Icon, req.Color, req.RequiresCoverage, req.MinCoverage)
	if err != nil {
		h.logger.Error("create tag", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create tag")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}
