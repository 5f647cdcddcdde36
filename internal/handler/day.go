package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/shiftline/internal/geometry"
	"github.com/dukerupert/shiftline/internal/model"
	"github.com/dukerupert/shiftline/internal/store"
	"github.com/dukerupert/shiftline/internal/view"
)

// DayHandler serves the timeline of one date for a person, a tag, or
// everyone.
type DayHandler struct {
	shifts *store.ShiftStore
	people *store.PersonStore
	tags   *store.TagStore
	mapper geometry.Mapper
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

func NewDayHandler(ss *store.ShiftStore, ps *store.PersonStore, ts *store.TagStore, m geometry.Mapper, loc *time.Location, logger *slog.Logger) *DayHandler {
	return &DayHandler{shifts: ss, people: ps, tags: ts, mapper: m, loc: loc, now: time.Now, logger: logger}
}

// dayResponse carries a nil View when nothing is scheduled, which the
// client renders differently from a view with no segments.
type dayResponse struct {
	Date   string        `json:"date"`
	Person *model.Person `json:"person,omitempty"`
	Tag    *model.Tag    `json:"tag,omitempty"`
	View   *view.DayView `json:"view"`
}

type daysResponse struct {
	Date  string         `json:"date"`
	Views []view.DayView `json:"views"`
}

func (h *DayHandler) date(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	day, err := parseDate(r, h.loc, h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return day, true
}

func (h *DayHandler) PersonDay(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	day, ok := h.date(w, r)
	if !ok {
		return
	}

	person, err := h.people.GetByID(id)
	if err != nil {
		h.logger.Error("get person", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get person")
		return
	}
	if person == nil {
		writeError(w, http.StatusNotFound, "person not found")
		return
	}

	shifts, err := h.shifts.ListByPerson(id)
	if err != nil {
		h.logger.Error("list person shifts", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list shifts")
		return
	}

	writeJSON(w, http.StatusOK, dayResponse{
		Date:   day.Format(dateLayout),
		Person: person,
		View:   view.PersonDay(localizeAll(shifts, h.loc), day, h.mapper),
	})
}

func (h *DayHandler) TagDay(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	day, ok := h.date(w, r)
	if !ok {
		return
	}

	tag, err := h.tags.GetByID(id)
	if err != nil {
		h.logger.Error("get tag", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get tag")
		return
	}
	if tag == nil {
		writeError(w, http.StatusNotFound, "tag not found")
		return
	}

	tagShifts, err := h.shifts.ListByTag(id)
	if err != nil {
		h.logger.Error("list tag shifts", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list shifts")
		return
	}
	personShifts, err := h.shifts.ListAllPersonShifts()
	if err != nil {
		h.logger.Error("list person shifts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list shifts")
		return
	}

	writeJSON(w, http.StatusOK, dayResponse{
		Date: day.Format(dateLayout),
		Tag:  tag,
		View: view.TagDay(localizeAll(personShifts, h.loc), localizeAll(tagShifts, h.loc), day, h.mapper),
	})
}

// People lists the day view of every person with a shift on the date.
func (h *DayHandler) People(w http.ResponseWriter, r *http.Request) {
	day, ok := h.date(w, r)
	if !ok {
		return
	}
	shifts, err := h.shifts.ListAllPersonShifts()
	if err != nil {
		h.logger.Error("list person shifts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list shifts")
		return
	}
	writeJSON(w, http.StatusOK, daysResponse{
		Date:  day.Format(dateLayout),
		Views: view.People(localizeAll(shifts, h.loc), day, h.mapper),
	})
}

// Tags lists the composite view of every tag with a shift on the date.
func (h *DayHandler) Tags(w http.ResponseWriter, r *http.Request) {
	day, ok := h.date(w, r)
	if !ok {
		return
	}
	personShifts, err := h.shifts.ListAllPersonShifts()
	if err != nil {
		h.logger.Error("list person shifts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list shifts")
		return
	}
	tagShifts, err := h.shifts.ListAllTagShifts()
	if err != nil {
		h.logger.Error("list tag shifts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list shifts")
		return
	}
	writeJSON(w, http.StatusOK, daysResponse{
		Date:  day.Format(dateLayout),
		Views: view.Tags(localizeAll(personShifts, h.loc), localizeAll(tagShifts, h.loc), day, h.mapper),
	})
}
