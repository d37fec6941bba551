package anchor

import "github.com/notebridge/notebridge/internal/notebook"

// Gravity controls how an anchor responds to text inserted exactly at
// its position. A left-sticky anchor stays before the inserted text and
// keeps its line number; a right-sticky anchor stays after it and is
// pushed down.
type Gravity int

const (
	GravityLeft Gravity = iota
	GravityRight
)

// Anchor is a position marker bound to one line of a view. Anchors are
// owned by the Tracker; they are invalidated, never deleted, when their
// cell is removed.
type Anchor struct {
	Line    int
	Gravity Gravity
	Cell    notebook.CellID
	valid   bool
}

// Valid reports whether the anchor still tracks a live cell.
func (a *Anchor) Valid() bool {
	return a.valid
}

// Range is an inclusive line range. A range with End < Start is empty,
// which occurs for the content range of a cell with no source lines.
type Range struct {
	Start int
	End   int
}

// Empty reports whether the range covers no lines.
func (r Range) Empty() bool {
	return r.End < r.Start
}

// Len returns the number of lines covered.
func (r Range) Len() int {
	if r.Empty() {
		return 0
	}
	return r.End - r.Start + 1
}

// Contains reports whether line falls inside the range.
func (r Range) Contains(line int) bool {
	return line >= r.Start && line <= r.End
}
