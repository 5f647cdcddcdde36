package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/shiftline/internal/editor"
	"github.com/dukerupert/shiftline/internal/geometry"
	"github.com/dukerupert/shiftline/internal/model"
	"github.com/dukerupert/shiftline/internal/recurrence"
	"github.com/dukerupert/shiftline/internal/store"
	"github.com/dukerupert/shiftline/internal/websocket"
)

type ShiftHandler struct {
	shifts *store.ShiftStore
	people *store.PersonStore
	tags   *store.TagStore
	hub    *websocket.Hub
	mapper geometry.Mapper
	loc    *time.Location
	logger *slog.Logger
}

func NewShiftHandler(ss *store.ShiftStore, ps *store.PersonStore, ts *store.TagStore, hub *websocket.Hub, m geometry.Mapper, loc *time.Location, logger *slog.Logger) *ShiftHandler {
	return &ShiftHandler{shifts: ss, people: ps, tags: ts, hub: hub, mapper: m, loc: loc, logger: logger}
}

func (h *ShiftHandler) broadcast(typ string, s model.Shift) {
	if h.hub != nil {
		h.hub.Broadcast(websocket.ShiftMessage(typ, s))
	}
}

type segmentRequest struct {
	ID        string         `json:"id"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Label     string         `json:"label"`
	Notes     string         `json:"notes"`
	Location  string         `json:"location"`
	Color     string         `json:"color"`
	TagID     *string        `json:"tag_id"`
	Attrs     map[string]any `json:"attrs"`
}

type shiftRequest struct {
	PersonID         *string          `json:"person_id"`
	TagID            *string          `json:"tag_id"`
	StartTime        time.Time        `json:"start_time"`
	EndTime          time.Time        `json:"end_time"`
	IsRecurring      bool             `json:"is_recurring"`
	RecurrenceRule   string           `json:"recurrence_rule"`
	OverridesShiftID *string          `json:"overrides_shift_id"`
	Segments         []segmentRequest `json:"segments"`
}

// validate checks the request and returns a message for the client, or "".
func (h *ShiftHandler) validate(req *shiftRequest) (string, error) {
	if (req.PersonID == nil) == (req.TagID == nil) {
		return "exactly one of person_id or tag_id is required", nil
	}
	if req.StartTime.IsZero() || !req.EndTime.After(req.StartTime) {
		return "end_time must be after start_time", nil
	}
	if msg := validRule(req.IsRecurring, req.RecurrenceRule); msg != "" {
		return msg, nil
	}

	if req.PersonID != nil {
		p, err := h.people.GetByID(*req.PersonID)
		if err != nil {
			return "", err
		}
		if p == nil {
			return "person not found", nil
		}
	} else {
		t, err := h.tags.GetByID(*req.TagID)
		if err != nil {
			return "", err
		}
		if t == nil {
			return "tag not found", nil
		}
	}

	if req.OverridesShiftID != nil {
		if req.IsRecurring {
			return "a recurring shift cannot override another shift", nil
		}
		target, err := h.shifts.GetByID(*req.OverridesShiftID)
		if err != nil {
			return "", err
		}
		if target == nil || !target.IsRecurring {
			return "overrides_shift_id must name a recurring shift", nil
		}
	}

	for i, g := range req.Segments {
		if !g.EndTime.After(g.StartTime) {
			return fmt.Sprintf("segment %d: end_time must be after start_time", i), nil
		}
		if !validColor(g.Color) {
			return fmt.Sprintf("segment %d: color must be a hex color (e.g. #FF0000)", i), nil
		}
	}
	return "", nil
}

func validRule(recurring bool, rule string) string {
	if !recurring {
		return ""
	}
	if strings.TrimSpace(rule) == "" {
		return "recurrence_rule is required for recurring shifts"
	}
	if _, err := recurrence.Parse(rule); err != nil {
		return "invalid recurrence_rule"
	}
	return ""
}

func (h *ShiftHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req shiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	msg, err := h.validate(&req)
	if err != nil {
		h.logger.Error("validate shift", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to validate shift")
		return
	}
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	start := req.StartTime.In(h.loc)
	sh := model.Shift{
		PersonID:         req.PersonID,
		TagID:            req.TagID,
		StartTime:        start,
		EndTime:          req.EndTime.In(h.loc),
		ShiftDate:        start,
		IsRecurring:      req.IsRecurring,
		RecurrenceRule:   req.RecurrenceRule,
		OverridesShiftID: req.OverridesShiftID,
	}
	for _, g := range req.Segments {
		sh.Segments = append(sh.Segments, model.Segment{
			ID:        g.ID,
			StartTime: g.StartTime,
			EndTime:   g.EndTime,
			Label:     strings.TrimSpace(g.Label),
			Notes:     g.Notes,
			Location:  g.Location,
			Color:     g.Color,
			TagID:     g.TagID,
			Attrs:     g.Attrs,
		})
	}

	created, err := h.shifts.Create(sh)
	if err != nil {
		if errors.Is(err, store.ErrInvalidShift) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("create shift", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create shift")
		return
	}

	h.broadcast(websocket.TypeShiftSaved, *created)
	writeJSON(w, http.StatusCreated, created)
}

// load fetches the shift named by the path, writing the error response
// itself when it cannot.
func (h *ShiftHandler) load(w http.ResponseWriter, r *http.Request) (*model.Shift, bool) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	sh, err := h.shifts.GetByID(id)
	if err != nil {
		h.logger.Error("get shift", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get shift")
		return nil, false
	}
	if sh == nil {
		writeError(w, http.StatusNotFound, "shift not found")
		return nil, false
	}
	return sh, true
}

func (h *ShiftHandler) Get(w http.ResponseWriter, r *http.Request) {
	sh, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sh)
}

func (h *ShiftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sh, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.shifts.Delete(sh.ID); err != nil {
		h.logger.Error("delete shift", "id", sh.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete shift")
		return
	}

	h.broadcast(websocket.TypeShiftDeleted, *sh)
	w.WriteHeader(http.StatusNoContent)
}

// Commit saves the complete desired state of a shift. Segments missing from
// the body are deleted.
func (h *ShiftHandler) Commit(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}

	var c model.ShiftCommit
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	c.ShiftID = existing.ID
	if msg := validRule(c.IsRecurring, c.RecurrenceRule); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	for i, g := range c.Segments {
		if !validColor(g.Color) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("segment %d: color must be a hex color (e.g. #FF0000)", i))
			return
		}
	}

	h.save(w, r, *existing, c)
}

func (h *ShiftHandler) save(w http.ResponseWriter, r *http.Request, existing model.Shift, c model.ShiftCommit) {
	c.StartTime = c.StartTime.In(h.loc)
	c.EndTime = c.EndTime.In(h.loc)

	saved, err := h.shifts.SaveShift(r.Context(), c)
	if err != nil {
		h.writeSaveError(w, c.ShiftID, err)
		return
	}

	if !existing.IsRecurring && !existing.ShiftDate.Equal(saved.ShiftDate) {
		h.broadcast(websocket.TypeShiftSaved, existing)
	}
	h.broadcast(websocket.TypeShiftSaved, *saved)
	writeJSON(w, http.StatusOK, saved)
}

func (h *ShiftHandler) writeSaveError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, store.ErrShiftNotFound):
		writeError(w, http.StatusNotFound, "shift not found")
	case errors.Is(err, store.ErrInvalidShift), errors.Is(err, editor.ErrInvalidSpan):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("save shift", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save shift")
	}
}
