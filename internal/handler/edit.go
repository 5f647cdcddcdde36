package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/shiftline/internal/editor"
	"github.com/dukerupert/shiftline/internal/layout"
	"github.com/dukerupert/shiftline/internal/model"
	"github.com/dukerupert/shiftline/internal/recurrence"
	"github.com/dukerupert/shiftline/internal/websocket"
)

// editOp is one step of an edit batch. X and Width are pixels on the
// shift's timeline; ID names a segment. Days are two-letter weekday codes
// (MO, TU, ...) for set_weekdays.
type editOp struct {
	Op        string   `json:"op"`
	ID        string   `json:"id"`
	X         float64  `json:"x"`
	Width     float64  `json:"width"`
	Value     string   `json:"value"`
	TagID     *string  `json:"tag_id"`
	Recurring bool     `json:"recurring"`
	Rule      string   `json:"rule"`
	Days      []string `json:"days"`
	Interval  int      `json:"interval"`
}

var weekdayCodes = map[string]time.Weekday{
	"SU": time.Sunday, "MO": time.Monday, "TU": time.Tuesday, "WE": time.Wednesday,
	"TH": time.Thursday, "FR": time.Friday, "SA": time.Saturday,
}

type editRequest struct {
	Ops  []editOp `json:"ops"`
	Save bool     `json:"save"`
}

type editResponse struct {
	Commit model.ShiftCommit `json:"commit"`
	Dirty  bool              `json:"dirty"`
	Height int               `json:"height"`
	Layout layout.Layout     `json:"layout"`
	Added  []string          `json:"added,omitempty"`
	Shift  *model.Shift      `json:"shift,omitempty"`
}

// Edit replays a batch of pointer gestures and field edits on a draft of the
// shift. The resulting commit is returned as a preview, or persisted when
// save is set.
func (h *ShiftHandler) Edit(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}

	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	d := editor.NewDraft(localize(*existing, h.loc), h.mapper)
	var added []string
	for i, op := range req.Ops {
		id, err := h.apply(d, op)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("op %d (%s): %v", i, op.Op, err))
			return
		}
		if id != "" {
			added = append(added, id)
		}
	}

	commit, err := d.Commit()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp := editResponse{
		Commit: commit,
		Dirty:  d.Dirty(),
		Height: d.Height(),
		Layout: d.Layout(),
		Added:  added,
	}

	if !req.Save {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	saved, err := d.Save(r.Context(), h.shifts)
	if err != nil {
		var se *editor.SaveError
		if errors.As(err, &se) {
			h.writeSaveError(w, se.ShiftID, se.Err)
			return
		}
		h.writeSaveError(w, existing.ID, err)
		return
	}

	h.broadcast(websocket.TypeShiftSaved, *saved)
	resp.Dirty = d.Dirty()
	resp.Shift = saved
	writeJSON(w, http.StatusOK, resp)
}

// apply runs one op against d and returns the id of a segment it created.
func (h *ShiftHandler) apply(d *editor.Draft, op editOp) (string, error) {
	switch op.Op {
	case "move_shift":
		return "", d.MoveShift(op.X)
	case "resize_shift":
		return "", d.ResizeShift(op.Width)
	case "move_segment":
		return "", d.MoveSegment(op.ID, op.X)
	case "resize_segment":
		return "", d.ResizeSegment(op.ID, op.Width)
	case "set_label":
		return "", d.SetLabel(op.ID, op.Value)
	case "set_color":
		if !validColor(op.Value) {
			return "", fmt.Errorf("color must be a hex color (e.g. #FF0000)")
		}
		return "", d.SetColor(op.ID, op.Value)
	case "set_location":
		return "", d.SetLocation(op.ID, op.Value)
	case "set_notes":
		return "", d.SetNotes(op.ID, op.Value)
	case "set_tag":
		if op.TagID == nil || *op.TagID == "" {
			return "", d.SetTag(op.ID, nil)
		}
		tag, err := h.tags.GetByID(*op.TagID)
		if err != nil {
			return "", err
		}
		if tag == nil {
			return "", fmt.Errorf("tag %s not found", *op.TagID)
		}
		return "", d.SetTag(op.ID, tag)
	case "set_recurrence":
		return "", d.SetRecurrence(op.Recurring, op.Rule)
	case "set_weekdays":
		return "", setWeekdays(d, op.Days, op.Interval)
	case "add_segment":
		return d.AddSegment(), nil
	case "delete_segment":
		return "", d.DeleteSegment(op.ID)
	}
	return "", fmt.Errorf("unknown op")
}

// setWeekdays turns the weekday toggles into a weekly rule. No days stops
// the shift repeating.
func setWeekdays(d *editor.Draft, codes []string, interval int) error {
	if len(codes) == 0 {
		return d.SetRecurrence(false, "")
	}
	days := make([]time.Weekday, 0, len(codes))
	for _, c := range codes {
		wd, ok := weekdayCodes[strings.ToUpper(strings.TrimSpace(c))]
		if !ok {
			return fmt.Errorf("unknown weekday %q", c)
		}
		days = append(days, wd)
	}
	rule, err := recurrence.Build(recurrence.Weekly, interval, days)
	if err != nil {
		return err
	}
	return d.SetRecurrence(true, rule.String())
}
