package handler

import (
	"net/http"
	"strings"
	"testing"
)

func TestICalExport(t *testing.T) {
	env := setup(t)
	a, desk, daily := seedDesk(t, env)

	rec := call(t, env.ical.Person, http.MethodGet, "/", a.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{"BEGIN:VCALENDAR", "UID:" + daily.ID + "@shiftline", "RRULE:FREQ=DAILY", "X-WR-CALNAME:A"} {
		if !strings.Contains(body, want) {
			t.Errorf("calendar missing %q:\n%s", want, body)
		}
	}

	rec = call(t, env.ical.Tag, http.MethodGet, "/", desk.ID, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "X-WR-CALNAME:Desk") {
		t.Errorf("tag calendar status = %d body %s", rec.Code, rec.Body)
	}

	if rec := call(t, env.ical.Person, http.MethodGet, "/", "ghost", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown person status = %d, want 404", rec.Code)
	}
	if rec := call(t, env.ical.Tag, http.MethodGet, "/", "ghost", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown tag status = %d, want 404", rec.Code)
	}
}

func TestDirectory(t *testing.T) {
	env := setup(t)

	rec := call(t, env.dir.ListPeople, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty people = %d %s", rec.Code, rec.Body)
	}

	rec = call(t, env.dir.CreatePerson, http.MethodPost, "/", "", map[string]string{"name": "  Alice "})
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), `"name":"Alice"`) {
		t.Errorf("create person = %d %s", rec.Code, rec.Body)
	}
	if rec := call(t, env.dir.CreatePerson, http.MethodPost, "/", "", map[string]string{"name": " "}); rec.Code != http.StatusBadRequest {
		t.Errorf("blank name status = %d", rec.Code)
	}

	rec = call(t, env.dir.CreateTag, http.MethodPost, "/", "", map[string]any{"name": "Desk", "kind": "TASK", "color": "#6BA0E5", "min_coverage": 2})
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), `"kind":"TASK"`) {
		t.Errorf("create tag = %d %s", rec.Code, rec.Body)
	}
	for _, bad := range []map[string]any{
		{"name": "X", "kind": "ROOM"},
		{"name": "X", "color": "blue"},
		{"name": "X", "min_coverage": -1},
		{"name": ""},
	} {
		if rec := call(t, env.dir.CreateTag, http.MethodPost, "/", "", bad); rec.Code != http.StatusBadRequest {
			t.Errorf("CreateTag(%v) status = %d, want 400", bad, rec.Code)
		}
	}

	rec = call(t, env.dir.ListTags, http.MethodGet, "/", "", nil)
	if !strings.Contains(rec.Body.String(), "Desk") {
		t.Errorf("tags = %s", rec.Body)
	}
}
