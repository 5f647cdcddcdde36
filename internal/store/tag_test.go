package store

import (
	"testing"

	"github.com/dukerupert/shiftline/internal/model"
)

func TestTagCreateAndGet(t *testing.T) {
	st := setupTestDB(t)

	minCov := 2
	created, err := st.tags.Create("Register", model.TagTask, "LuCash", "#FF9900", true, &minCov)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := st.tags.GetByID(created.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID = %+v, %v", got, err)
	}
	if got.Kind != model.TagTask {
		t.Errorf("kind = %q, want %q", got.Kind, model.TagTask)
	}
	if !got.RequiresCoverage {
		t.Error("requires_coverage = false, want true")
	}
	if got.MinCoverage == nil || *got.MinCoverage != 2 {
		t.Errorf("min_coverage = %v, want 2", got.MinCoverage)
	}

	missing, err := st.tags.GetByID("nope")
	if err != nil || missing != nil {
		t.Errorf("GetByID(nope) = %+v, %v; want nil, nil", missing, err)
	}
}

func TestTagDefaultsAndOrder(t *testing.T) {
	st := setupTestDB(t)

	for _, name := range []string{"Stock", "Desk"} {
		if _, err := st.tags.Create(name, "", "", "", false, nil); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	tags, err := st.tags.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tags) != 2 || tags[0].Name != "Desk" || tags[1].Name != "Stock" {
		t.Fatalf("tags = %+v, want Desk then Stock", tags)
	}
	if tags[0].Kind != model.TagStation {
		t.Errorf("default kind = %q, want %q", tags[0].Kind, model.TagStation)
	}
	if tags[0].MinCoverage != nil {
		t.Errorf("min_coverage = %v, want nil", *tags[0].MinCoverage)
	}
}
