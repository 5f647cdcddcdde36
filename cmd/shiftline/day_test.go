package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/shiftline/internal/database"
	"github.com/dukerupert/shiftline/internal/model"
	"github.com/dukerupert/shiftline/internal/store"
)

// seed creates a database with one person working 09:00-17:00 on
// 2024-06-03, the first two hours on the Desk tag. It returns the config
// path, person id and tag id.
func seed(t *testing.T) (string, string, string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "shiftline.db")
	t.Setenv("SHIFTLINE_DB_PATH", dbPath)
	t.Setenv("SHIFTLINE_TIMEZONE", "UTC")

	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	p, err := store.NewPersonStore(db).Create("Alice", "Ops", "", "")
	if err != nil {
		t.Fatalf("create person: %v", err)
	}
	tag, err := store.NewTagStore(db).Create("Desk", model.TagStation, "", "#6BA0E5", false, nil)
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}

	ss := store.NewShiftStore(db)
	start := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	_, err = ss.Create(model.Shift{
		PersonID:  &p.ID,
		StartTime: start,
		EndTime:   start.Add(8 * time.Hour),
		Segments: []model.Segment{
			{StartTime: start, EndTime: start.Add(2 * time.Hour), Label: "Desk", Location: "Lobby", TagID: &tag.ID},
		},
	})
	if err != nil {
		t.Fatalf("create shift: %v", err)
	}
	_, err = ss.Create(model.Shift{
		TagID:     &tag.ID,
		StartTime: start,
		EndTime:   start.Add(12 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create tag shift: %v", err)
	}
	return filepath.Join(dir, "shiftline.yaml"), p.ID, tag.ID
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveCommand(t *testing.T) {
	cfg, id, _ := seed(t)

	out, err := run(t, "resolve", "--config", cfg, "--person", id, "--date", "2024-06-03")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.HasPrefix(out, "Alice 2024-06-03 09:00-17:00\n") {
		t.Errorf("header missing, got:\n%s", out)
	}
	if !strings.Contains(out, "09:00-11:00") || !strings.Contains(out, "Desk") || !strings.Contains(out, "Lobby") {
		t.Errorf("segment line missing, got:\n%s", out)
	}

	out, err = run(t, "resolve", "--config", cfg, "--person", id, "--date", "2024-06-04")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out != "Alice: nothing scheduled on 2024-06-04\n" {
		t.Errorf("out = %q, want nothing scheduled", out)
	}
}

func TestResolveCommandJSON(t *testing.T) {
	cfg, id, _ := seed(t)

	out, err := run(t, "resolve", "--config", cfg, "--person", id, "--date", "2024-06-03", "--json")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.Contains(out, `"row_count": 1`) {
		t.Errorf("json view missing row_count, got:\n%s", out)
	}
}

func TestResolveCommandErrors(t *testing.T) {
	cfg, id, _ := seed(t)

	if _, err := run(t, "resolve", "--config", cfg, "--person", "nope", "--date", "2024-06-03"); err == nil {
		t.Error("unknown person: expected error")
	}
	if _, err := run(t, "resolve", "--config", cfg, "--person", id, "--date", "06/03/2024"); err == nil {
		t.Error("bad date: expected error")
	}
	if _, err := run(t, "resolve", "--config", cfg); err == nil {
		t.Error("missing --person: expected error")
	}
}

func TestTagDayCommand(t *testing.T) {
	cfg, _, tagID := seed(t)

	out, err := run(t, "tagday", "--config", cfg, "--tag", tagID, "--date", "2024-06-03")
	if err != nil {
		t.Fatalf("tagday: %v", err)
	}
	if !strings.HasPrefix(out, "Desk 2024-06-03 09:00-21:00\n") {
		t.Errorf("header missing, got:\n%s", out)
	}
	if !strings.Contains(out, "09:00-11:00") || !strings.Contains(out, "Alice") {
		t.Errorf("Alice's desk hours missing, got:\n%s", out)
	}

	if _, err := run(t, "tagday", "--config", cfg, "--tag", "nope", "--date", "2024-06-03"); err == nil {
		t.Error("unknown tag: expected error")
	}
}

func TestDescribe(t *testing.T) {
	if got := describe("FREQ=WEEKLY;BYDAY=MO,WE"); got != "Repeats weekly on Mon, Wed" {
		t.Errorf("describe = %q", got)
	}
	if got := describe("garbage"); got != "garbage" {
		t.Errorf("describe(garbage) = %q, want raw rule", got)
	}
}
