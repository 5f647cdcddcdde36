package tagview

import (
	"encoding/json"
	"testing"

	"github.com/dukerupert/shiftline/internal/model"
)

func TestSameID(t *testing.T) {
	tests := []struct {
		v    any
		id   string
		want bool
	}{
		{"desk", "desk", true},
		{" desk ", "desk", true},
		{"desk", "Desk", false},
		{"42", "42", true},
		{float64(42), "42", true},
		{json.Number("42"), "42.0", true},
		{42, " 42", true},
		{"042", "42", true},
		{"", "", false},
		{nil, "42", false},
		{true, "true", false},
		{ptr("desk"), "desk", true},
		{(*string)(nil), "desk", false},
	}

	for _, tt := range tests {
		if got := SameID(tt.v, tt.id); got != tt.want {
			t.Errorf("SameID(%#v, %q) = %v, want %v", tt.v, tt.id, got, tt.want)
		}
	}
}

func TestMatchesPrecedence(t *testing.T) {
	tests := []struct {
		name string
		seg  model.Segment
		want bool
	}{
		{
			name: "direct id",
			seg:  model.Segment{TagID: ptr("desk")},
			want: true,
		},
		{
			name: "direct id wins over embedded tag",
			seg:  model.Segment{TagID: ptr("kitchen"), Tag: &model.Tag{ID: "desk"}},
			want: false,
		},
		{
			name: "embedded tag when direct id empty",
			seg:  model.Segment{TagID: ptr(" "), Tag: &model.Tag{ID: "desk"}},
			want: true,
		},
		{
			name: "embedded tag wins over attrs",
			seg: model.Segment{
				Tag:   &model.Tag{ID: "kitchen"},
				Attrs: map[string]any{"entityId": "desk"},
			},
			want: false,
		},
		{
			name: "attrs top level",
			seg:  model.Segment{Attrs: map[string]any{"entityId": "desk"}},
			want: true,
		},
		{
			name: "attrs nested relation",
			seg: model.Segment{Attrs: map[string]any{
				"entities": map[string]any{"id": "desk", "name": "Desk"},
			}},
			want: true,
		},
		{
			name: "attrs inside list",
			seg: model.Segment{Attrs: map[string]any{
				"links": []any{map[string]any{"other": 1}, map[string]any{"tag_id": float64(7)}},
			}},
			want: false,
		},
		{
			name: "attrs unrelated key",
			seg:  model.Segment{Attrs: map[string]any{"label": "desk"}},
			want: false,
		},
		{
			name: "nothing",
			seg:  model.Segment{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.seg, "desk"); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchesNumericIDInAttrs(t *testing.T) {
	seg := model.Segment{Attrs: map[string]any{
		"links": []any{map[string]any{"other": 1}, map[string]any{"tag_id": float64(7)}},
	}}
	if !Matches(seg, "7") {
		t.Error("expected numeric tag_id in nested list to match")
	}
}

func TestMatchesDepthLimit(t *testing.T) {
	var inner any = map[string]any{"id": "desk"}
	for i := 0; i < maxDepth+2; i++ {
		inner = map[string]any{"next": inner}
	}
	seg := model.Segment{Attrs: inner.(map[string]any)}
	if Matches(seg, "desk") {
		t.Error("search should stop at the depth limit")
	}
}
