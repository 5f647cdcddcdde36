package handler

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
	"github.com/dukerupert/shiftline/internal/model"
	"github.com/dukerupert/shiftline/internal/store"
	"github.com/dukerupert/shiftline/internal/websocket"
)

type testEnv struct {
	shifts *store.ShiftStore
	people *store.PersonStore
	tags   *store.TagStore
	day    *DayHandler
	shift  *ShiftHandler
	dir    *DirectoryHandler
	ical   *ICalHandler
}

func setup(t *testing.T) testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.Default()
	ss := store.NewShiftStore(db)
	ps := store.NewPersonStore(db)
	ts := store.NewTagStore(db)
	hub := websocket.NewHub(logger)
	m := geometry.Default()

	return testEnv{
		shifts: ss,
		people: ps,
		tags:   ts,
		day:    NewDayHandler(ss, ps, ts, m, time.UTC, logger),
		shift:  NewShiftHandler(ss, ps, ts, hub, m, time.UTC, logger),
		dir:    NewDirectoryHandler(ps, ts, logger),
		ical:   NewICalHandler(ss, ps, ts, time.UTC, logger),
	}
}

func at(day, hour, min int) time.Time {
	return time.Date(2024, 6, day, hour, min, 0, 0, time.UTC)
}

// call invokes h with an optional JSON body and {id} path value.
func call(t *testing.T, h http.HandlerFunc, method, target, id string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if id != "" {
		req.SetPathValue("id", id)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

// seedDesk stores person A with a daily 09:00-17:00 shift holding a Desk
// segment 09:00-11:00, and Desk's own daily shift.
func seedDesk(t *testing.T, env testEnv) (*model.Person, *model.Tag, *model.Shift) {
	t.Helper()
	a, err := env.people.Create("A", "", "", "")
	if err != nil {
		t.Fatal(err)
	}
	desk, err := env.tags.Create("Desk", model.TagStation, "", "#6BA0E5", false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.shifts.Create(model.Shift{
		TagID: &desk.ID, StartTime: at(1, 9, 0), EndTime: at(1, 17, 0),
		IsRecurring: true, RecurrenceRule: "FREQ=DAILY",
	}); err != nil {
		t.Fatal(err)
	}
	sh, err := env.shifts.Create(model.Shift{
		PersonID: &a.ID, StartTime: at(1, 9, 0), EndTime: at(1, 17, 0),
		IsRecurring: true, RecurrenceRule: "FREQ=DAILY",
		Segments: []model.Segment{
			{ID: "desk-seg", StartTime: at(1, 9, 0), EndTime: at(1, 11, 0), Label: "Desk", TagID: &desk.ID},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return a, desk, sh
}
