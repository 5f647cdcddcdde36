package model

import "time"

type TagKind string

const (
	TagStation TagKind = "STATION"
	TagTask    TagKind = "TASK"
)

type Tag struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Kind             TagKind   `json:"kind"`
	Icon             string    `json:"icon,omitempty"`
	Color            string    `json:"color,omitempty"`
	RequiresCoverage bool      `json:"requires_coverage"`
	MinCoverage      *int      `json:"min_coverage,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
