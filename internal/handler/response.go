package handler

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dukerupert/shiftline/internal/model"
)

const dateLayout = "2006-01-02"

var hexColorRegexp = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIDParam(r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	return id, id != ""
}

// parseDate reads the date query parameter in loc, defaulting to today.
func parseDate(r *http.Request, loc *time.Location, now time.Time) (time.Time, error) {
	s := r.URL.Query().Get("date")
	if s == "" {
		y, m, d := now.In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	}
	return time.ParseInLocation(dateLayout, s, loc)
}

func validColor(c string) bool {
	return c == "" || hexColorRegexp.MatchString(c)
}

// localize moves a stored shift's instants into loc so clock times and
// derived dates read as local.
func localize(s model.Shift, loc *time.Location) model.Shift {
	return s.In(loc)
}

func localizeAll(shifts []model.Shift, loc *time.Location) []model.Shift {
	out := make([]model.Shift, len(shifts))
	for i, s := range shifts {
		out[i] = localize(s, loc)
	}
	return out
}
