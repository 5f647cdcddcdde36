// Package layout assigns overlapping segments to visual rows.
package layout

import "sort"

const (
	HeaderHeight  = 30
	SegmentHeight = 70
)

// Span is a segment in minutes relative to its shift start.
type Span struct {
	ID    string
	Start int
	End   int
}

type Layout struct {
	RowOf    map[string]int `json:"row_of"`
	RowCount int            `json:"row_count"`
}

// Pack places spans greedily: each span, in start order, takes the lowest
// row whose last span has ended by its start. Spans sharing a start keep
// their input order.
func Pack(spans []Span) Layout {
	order := make([]int, len(spans))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return spans[order[a]].Start < spans[order[b]].Start
	})

	rowOf := make(map[string]int, len(spans))
	var rowEnds []int
	for _, i := range order {
		sp := spans[i]
		row := -1
		for r, end := range rowEnds {
			if end <= sp.Start {
				row = r
				break
			}
		}
		if row == -1 {
			row = len(rowEnds)
			rowEnds = append(rowEnds, sp.End)
		} else {
			rowEnds[row] = sp.End
		}
		rowOf[sp.ID] = row
	}

	return Layout{RowOf: rowOf, RowCount: len(rowEnds)}
}

// ContainerHeight is the pixel height of a shift box with rowCount rows. An
// empty shift still reserves one row.
func ContainerHeight(rowCount int) int {
	if rowCount < 1 {
		rowCount = 1
	}
	return HeaderHeight + rowCount*SegmentHeight
}
