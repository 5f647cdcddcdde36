package editor

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/shiftline/internal/geometry"
	"github.com/dukerupert/shiftline/internal/layout"
	"github.com/dukerupert/shiftline/internal/model"
	"github.com/dukerupert/shiftline/internal/recurrence"
)

const (
	ShiftMinWidth   = 150
	ShiftMaxWidth   = 1000
	SegmentMinWidth = 30

	NewSegmentMinutes = 100
	NewSegmentGap     = 60
	NewSegmentColor   = "#ffffff"
)

// Saver persists the complete desired state of one shift.
type Saver interface {
	SaveShift(ctx context.Context, commit model.ShiftCommit) (*model.Shift, error)
}

// SaveError reports a failed save. The draft keeps its edits so the save
// can be retried.
type SaveError struct {
	ShiftID string
	Err     error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save shift %s: %v", e.ShiftID, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// SegmentDraft is one segment being edited. Segment.Start and Segment.End
// are minutes relative to the shift start.
type SegmentDraft struct {
	Segment model.Segment `json:"segment"`
	Box     Box           `json:"box"`
}

// Draft is the local edit buffer of one shift. Nothing reaches the Saver
// until Save is called.
type Draft struct {
	mapper   geometry.Mapper
	original model.Shift

	start    time.Time
	initialX float64

	shift       Box
	segments    []*SegmentDraft
	isRecurring bool
	rule        string
	dirty       bool
}

// NewDraft loads a shift into an edit buffer. Segment offsets come from
// absolute segment times when present, otherwise from Start/End.
func NewDraft(shift model.Shift, m geometry.Mapper) *Draft {
	d := &Draft{mapper: m}
	d.load(shift)
	return d
}

func (d *Draft) load(shift model.Shift) {
	m := d.mapper
	base := m.Baseline(shift.StartTime)

	d.original = shift
	d.start = shift.StartTime
	d.initialX = m.TimeToPixel(shift.StartTime, base)
	d.isRecurring = shift.IsRecurring
	d.rule = shift.RecurrenceRule
	d.dirty = false

	d.shift = NewBox(m, d.initialX, m.MinutesToPixels(shift.Duration().Minutes()))
	d.shift.MinWidth = ShiftMinWidth
	d.shift.MaxWidth = ShiftMaxWidth

	d.segments = d.segments[:0]
	for _, seg := range shift.Segments {
		if !seg.StartTime.IsZero() && !seg.EndTime.IsZero() {
			seg.Start = roundMinutes(seg.StartTime.Sub(shift.StartTime))
			seg.End = roundMinutes(seg.EndTime.Sub(shift.StartTime))
		}
		d.segments = append(d.segments, d.newSegmentDraft(seg))
	}
}

func (d *Draft) newSegmentDraft(seg model.Segment) *SegmentDraft {
	m := d.mapper
	box := NewBox(m,
		math.Round(m.MinutesToPixels(float64(seg.Start))),
		math.Round(m.MinutesToPixels(float64(seg.End-seg.Start))))
	box.MinWidth = SegmentMinWidth
	box.Bound = d.shift.Width
	return &SegmentDraft{Segment: seg, Box: box}
}

func (d *Draft) ShiftID() string { return d.original.ID }

// Dirty reports whether the buffer holds unsaved edits.
func (d *Draft) Dirty() bool { return d.dirty }

// ShiftBox returns a copy of the shift box geometry.
func (d *Draft) ShiftBox() Box { return d.shift }

// Segments returns copies of the edited segments in buffer order.
func (d *Draft) Segments() []SegmentDraft {
	out := make([]SegmentDraft, len(d.segments))
	for i, s := range d.segments {
		out[i] = *s
	}
	return out
}

func (d *Draft) Recurrence() (bool, string) {
	return d.isRecurring, d.rule
}

// Window returns the shift's absolute start and end as currently edited.
func (d *Draft) Window() (time.Time, time.Time) {
	start := d.mapper.PixelToTime(d.shift.X-d.initialX, d.start)
	end := d.mapper.PixelToTime(d.shift.Width, start)
	return start, end
}

// SegmentWindow returns the absolute start and end of a segment as currently
// edited.
func (d *Draft) SegmentWindow(id string) (time.Time, time.Time, error) {
	seg, err := d.find(id)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, _ := d.Window()
	return start.Add(time.Duration(seg.Segment.Start) * time.Minute),
		start.Add(time.Duration(seg.Segment.End) * time.Minute), nil
}

// Layout packs the edited segments into rows.
func (d *Draft) Layout() layout.Layout {
	spans := make([]layout.Span, len(d.segments))
	for i, s := range d.segments {
		spans[i] = layout.Span{ID: s.Segment.ID, Start: s.Segment.Start, End: s.Segment.End}
	}
	return layout.Pack(spans)
}

// Height is the container height the shift box needs for its rows.
func (d *Draft) Height() int {
	return layout.ContainerHeight(d.Layout().RowCount)
}

// box returns the shift box for id "" and a segment box otherwise.
func (d *Draft) box(id string) (*Box, error) {
	if id == "" {
		return &d.shift, nil
	}
	seg, err := d.find(id)
	if err != nil {
		return nil, err
	}
	return &seg.Box, nil
}

func (d *Draft) find(id string) (*SegmentDraft, error) {
	for _, s := range d.segments {
		if s.Segment.ID == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSegment, id)
}

// Begin starts a drag or resize on the shift box (id "") or a segment.
func (d *Draft) Begin(id string, mode State) error {
	b, err := d.box(id)
	if err != nil {
		return err
	}
	switch mode {
	case Dragging:
		return b.BeginDrag()
	case Resizing:
		if id == "" {
			b.MaxWidth = d.maxShiftWidth()
		}
		return b.BeginResize()
	}
	return fmt.Errorf("begin %s: unsupported mode", mode)
}

// Move feeds a pointer position to an in-progress drag (left edge) or
// resize (width).
func (d *Draft) Move(id string, px float64) error {
	b, err := d.box(id)
	if err != nil {
		return err
	}
	switch b.State {
	case Dragging:
		return b.DragTo(px)
	case Resizing:
		return b.ResizeTo(px)
	}
	return ErrNotDragging
}

// Release ends the in-progress interaction at px and records the snapped
// geometry in the buffer.
func (d *Draft) Release(id string, px float64) error {
	b, err := d.box(id)
	if err != nil {
		return err
	}
	switch b.State {
	case Dragging:
		err = b.EndDrag(px)
	case Resizing:
		err = b.EndResize(px)
	default:
		return ErrNotDragging
	}
	if err != nil {
		return err
	}

	if id == "" {
		for _, s := range d.segments {
			if s.Box.Fit(d.shift.Width) {
				s.Segment.Start = d.mapper.PixelsToMinutes(s.Box.X)
				s.Segment.End = d.mapper.PixelsToMinutes(s.Box.X + s.Box.Width)
			}
		}
	} else {
		seg, _ := d.find(id)
		seg.Segment.Start = d.mapper.PixelsToMinutes(seg.Box.X)
		seg.Segment.End = d.mapper.PixelsToMinutes(seg.Box.X + seg.Box.Width)
	}
	d.dirty = true
	return nil
}

// maxShiftWidth keeps the right edge of the shift on the visible timeline.
func (d *Draft) maxShiftWidth() float64 {
	limit := float64(ShiftMaxWidth)
	if ext := d.mapper.Extent(); ext > 0 && ext-d.shift.X < limit {
		limit = ext - d.shift.X
	}
	return math.Max(limit, ShiftMinWidth)
}

// Cancel abandons an in-progress interaction without touching the buffer.
func (d *Draft) Cancel(id string) error {
	b, err := d.box(id)
	if err != nil {
		return err
	}
	b.Cancel()
	return nil
}

// MoveShift drags the shift box to x in one step.
func (d *Draft) MoveShift(x float64) error {
	return d.gesture("", Dragging, x)
}

// ResizeShift resizes the shift box to width in one step.
func (d *Draft) ResizeShift(width float64) error {
	return d.gesture("", Resizing, width)
}

func (d *Draft) MoveSegment(id string, x float64) error {
	return d.gesture(id, Dragging, x)
}

func (d *Draft) ResizeSegment(id string, width float64) error {
	return d.gesture(id, Resizing, width)
}

func (d *Draft) gesture(id string, mode State, px float64) error {
	if err := d.Begin(id, mode); err != nil {
		return err
	}
	return d.Release(id, px)
}

func (d *Draft) SetLabel(id, label string) error {
	return d.update(id, func(s *model.Segment) { s.Label = label })
}

func (d *Draft) SetColor(id, color string) error {
	return d.update(id, func(s *model.Segment) { s.Color = color })
}

func (d *Draft) SetLocation(id, location string) error {
	return d.update(id, func(s *model.Segment) { s.Location = location })
}

func (d *Draft) SetNotes(id, notes string) error {
	return d.update(id, func(s *model.Segment) { s.Notes = notes })
}

// SetTag assigns a tag to a segment; nil clears it.
func (d *Draft) SetTag(id string, tag *model.Tag) error {
	return d.update(id, func(s *model.Segment) {
		if tag == nil {
			s.TagID = nil
			s.Tag = nil
			return
		}
		tagID := tag.ID
		t := *tag
		s.TagID = &tagID
		s.Tag = &t
	})
}

func (d *Draft) update(id string, fn func(*model.Segment)) error {
	seg, err := d.find(id)
	if err != nil {
		return err
	}
	fn(&seg.Segment)
	d.dirty = true
	return nil
}

// SetRecurrence changes the recurrence settings. A recurring shift needs a
// valid rule; turning recurrence off clears the rule.
func (d *Draft) SetRecurrence(recurring bool, rule string) error {
	if !recurring {
		d.isRecurring = false
		d.rule = ""
		d.dirty = true
		return nil
	}
	if _, err := recurrence.Parse(rule); err != nil {
		return fmt.Errorf("set recurrence: %w", err)
	}
	d.isRecurring = true
	d.rule = rule
	d.dirty = true
	return nil
}

// AddSegment appends a blank segment at the first gap of at least an hour
// and returns its id.
func (d *Draft) AddSegment() string {
	existing := make([]model.Segment, len(d.segments))
	for i, s := range d.segments {
		existing[i] = s.Segment
	}
	sort.SliceStable(existing, func(i, j int) bool { return existing[i].Start < existing[j].Start })

	start := 0
	for _, s := range existing {
		if s.Start >= start+NewSegmentGap {
			break
		}
		if s.End > start {
			start = s.End
		}
	}

	seg := model.Segment{
		ID:      uuid.NewString(),
		ShiftID: d.original.ID,
		Start:   start,
		End:     start + NewSegmentMinutes,
		Color:   NewSegmentColor,
	}
	d.segments = append(d.segments, d.newSegmentDraft(seg))
	d.dirty = true
	return seg.ID
}

// DeleteSegment removes a segment from the buffer immediately.
func (d *Draft) DeleteSegment(id string) error {
	for i, s := range d.segments {
		if s.Segment.ID == id {
			d.segments = append(d.segments[:i], d.segments[i+1:]...)
			d.dirty = true
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownSegment, id)
}

// Commit converts the buffer to absolute times. Segment times are the
// (possibly moved) shift start plus each segment's relative offsets.
func (d *Draft) Commit() (model.ShiftCommit, error) {
	start, end := d.Window()
	c := model.ShiftCommit{
		ShiftID:        d.original.ID,
		StartTime:      start,
		EndTime:        end,
		IsRecurring:    d.isRecurring,
		RecurrenceRule: d.rule,
		Segments:       make([]model.SegmentCommit, 0, len(d.segments)),
	}

	for _, s := range d.segments {
		seg := s.Segment
		if seg.End <= seg.Start {
			return model.ShiftCommit{}, fmt.Errorf("%w: segment %s", ErrInvalidSpan, seg.ID)
		}
		var tagID *string
		switch {
		case seg.TagID != nil:
			id := *seg.TagID
			tagID = &id
		case seg.Tag != nil:
			id := seg.Tag.ID
			tagID = &id
		}
		c.Segments = append(c.Segments, model.SegmentCommit{
			ID:        seg.ID,
			StartTime: start.Add(time.Duration(seg.Start) * time.Minute),
			EndTime:   start.Add(time.Duration(seg.End) * time.Minute),
			Label:     seg.Label,
			Location:  seg.Location,
			Notes:     seg.Notes,
			Color:     seg.Color,
			TagID:     tagID,
		})
	}
	return c, nil
}

// Save sends the whole buffer as one commit. On success the buffer is
// reloaded from the saved shift; on failure it is left untouched and a
// *SaveError is returned.
func (d *Draft) Save(ctx context.Context, saver Saver) (*model.Shift, error) {
	c, err := d.Commit()
	if err != nil {
		return nil, err
	}

	saved, err := saver.SaveShift(ctx, c)
	if err != nil {
		return nil, &SaveError{ShiftID: d.original.ID, Err: err}
	}
	if saved == nil {
		return nil, &SaveError{ShiftID: d.original.ID, Err: fmt.Errorf("shift not found")}
	}

	d.load(saved.In(d.start.Location()))
	return saved, nil
}

// Discard drops every unsaved edit.
func (d *Draft) Discard() {
	d.load(d.original)
}

func roundMinutes(dur time.Duration) int {
	return int(math.Round(dur.Minutes()))
}
