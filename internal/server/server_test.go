package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/shiftline/internal/database"
	"github.com/dukerupert/shiftline/internal/geometry"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, geometry.Default(), time.UTC, slog.Default()).Router()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRoutes(t *testing.T) {
	h := newTestServer(t)

	var person struct{ ID string }
	rec := do(t, h, http.MethodPost, "/api/people", map[string]string{"name": "A"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create person status = %d", rec.Code)
	}
	json.Unmarshal(rec.Body.Bytes(), &person)

	var tag struct{ ID string }
	rec = do(t, h, http.MethodPost, "/api/tags", map[string]string{"name": "Desk"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create tag status = %d", rec.Code)
	}
	json.Unmarshal(rec.Body.Bytes(), &tag)

	var shift struct{ ID string }
	rec = do(t, h, http.MethodPost, "/api/shifts", map[string]any{
		"person_id":       person.ID,
		"start_time":      time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		"end_time":        time.Date(2024, 6, 1, 17, 0, 0, 0, time.UTC),
		"is_recurring":    true,
		"recurrence_rule": "FREQ=DAILY",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create shift status = %d body %s", rec.Code, rec.Body)
	}
	json.Unmarshal(rec.Body.Bytes(), &shift)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/people", http.StatusOK},
		{http.MethodGet, "/api/tags", http.StatusOK},
		{http.MethodGet, "/api/day?date=2024-06-03", http.StatusOK},
		{http.MethodGet, "/api/tags/day?date=2024-06-03", http.StatusOK},
		{http.MethodGet, "/api/people/" + person.ID + "/day?date=2024-06-03", http.StatusOK},
		{http.MethodGet, "/api/tags/" + tag.ID + "/day?date=2024-06-03", http.StatusOK},
		{http.MethodGet, "/api/people/" + person.ID + "/shifts.ics", http.StatusOK},
		{http.MethodGet, "/api/tags/" + tag.ID + "/shifts.ics", http.StatusOK},
		{http.MethodGet, "/api/shifts/" + shift.ID, http.StatusOK},
		{http.MethodPost, "/api/shifts/" + shift.ID + "/edits", http.StatusOK},
		{http.MethodGet, "/api/shifts/missing", http.StatusNotFound},
		{http.MethodPut, "/api/shifts/" + shift.ID, http.StatusMethodNotAllowed},
		{http.MethodDelete, "/api/shifts/" + shift.ID, http.StatusNoContent},
	}
	for _, tt := range tests {
		var body any
		if tt.method == http.MethodPost {
			body = map[string]any{"ops": []any{}}
		}
		if rec := do(t, h, tt.method, tt.path, body); rec.Code != tt.want {
			t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}
}
