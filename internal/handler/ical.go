package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/shiftline/internal/ical"
	"github.com/dukerupert/shiftline/internal/store"
)

// ICalHandler serves a person's or tag's shifts as a subscribable calendar.
type ICalHandler struct {
	shifts *store.ShiftStore
	people *store.PersonStore
	tags   *store.TagStore
	loc    *time.Location
	logger *slog.Logger
}

func NewICalHandler(ss *store.ShiftStore, ps *store.PersonStore, ts *store.TagStore, loc *time.Location, logger *slog.Logger) *ICalHandler {
	return &ICalHandler{shifts: ss, people: ps, tags: ts, loc: loc, logger: logger}
}

func writeCalendar(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

func (h *ICalHandler) Person(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	p, err := h.people.GetByID(id)
	if err != nil {
		h.logger.Error("get person", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get person")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "person not found")
		return
	}
	shifts, err := h.shifts.ListByPerson(id)
	if err != nil {
		h.logger.Error("list person shifts", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list shifts")
		return
	}
	writeCalendar(w, ical.Export(p.Name, shifts, h.loc, time.Now()))
}

func (h *ICalHandler) Tag(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	t, err := h.tags.GetByID(id)
	if err != nil {
		h.logger.Error("get tag", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get tag")
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "tag not found")
		return
	}
	shifts, err := h.shifts.ListByTag(id)
	if err != nil {
		h.logger.Error("list tag shifts", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list shifts")
		return
	}
	writeCalendar(w, ical.Export(t.Name, shifts, h.loc, time.Now()))
}
