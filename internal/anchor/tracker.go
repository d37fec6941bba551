package anchor

import (
	"sort"
	"sync"

	"github.com/notebridge/notebridge/internal/notebook"
)

// Tracker maps document positions to cell boundaries and keeps the
// mapping alive across edits. One left-sticky anchor tracks each cell's
// marker header line.
type Tracker struct {
	mu        sync.RWMutex
	anchors   []*Anchor // sorted by line; may contain invalidated entries
	byCell    map[notebook.CellID]*Anchor
	lineCount int
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		byCell: make(map[notebook.CellID]*Anchor),
	}
}

// Place rebuilds all anchors from the document's current cell sequence.
// Anchors for cells no longer present are invalidated in place so that
// stale references held by callers answer "none".
func (t *Tracker) Place(doc *notebook.Document) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, a := range t.anchors {
		a.valid = false
	}

	cells := doc.Cells()
	anchors := make([]*Anchor, 0, len(cells))
	byCell := make(map[notebook.CellID]*Anchor, len(cells))

	line := 0
	for _, c := range cells {
		a := &Anchor{
			Line:    line,
			Gravity: GravityLeft,
			Cell:    c.ID,
			valid:   true,
		}
		anchors = append(anchors, a)
		byCell[c.ID] = a
		line += c.LineCount()
	}

	t.anchors = anchors
	t.byCell = byCell
	t.lineCount = line
}

// CellAt returns the cell occupying the given line: the nearest valid
// anchor at or before the line, scanning backward. Returns false for a
// line outside the document or one not preceded by any valid anchor.
func (t *Tracker) CellAt(line int) (notebook.CellID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if line < 0 || line >= t.lineCount {
		return "", false
	}

	// Binary search for the first anchor past the line, then scan
	// backward over invalidated entries.
	i := sort.Search(len(t.anchors), func(i int) bool {
		return t.anchors[i].Line > line
	})
	for i--; i >= 0; i-- {
		if t.anchors[i].valid {
			return t.anchors[i].Cell, true
		}
	}
	return "", false
}

// RangeOf returns the full line range of a cell, marker line included.
// Returns false if the cell's anchor has been invalidated.
func (t *Tracker) RangeOf(id notebook.CellID) (Range, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rangeLocked(id)
}

// ContentRangeOf returns the cell's range excluding the structural
// marker header line. The range is empty for a cell with no source.
func (t *Tracker) ContentRangeOf(id notebook.CellID) (Range, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.rangeLocked(id)
	if !ok {
		return Range{}, false
	}
	return Range{Start: r.Start + 1, End: r.End}, true
}

// rangeLocked resolves a cell range (must hold lock). The end is the
// next valid anchor's line minus one, or the document end for the last
// cell.
func (t *Tracker) rangeLocked(id notebook.CellID) (Range, bool) {
	a, ok := t.byCell[id]
	if !ok || !a.valid {
		return Range{}, false
	}

	end := t.lineCount - 1
	i := sort.Search(len(t.anchors), func(i int) bool {
		return t.anchors[i].Line > a.Line
	})
	for ; i < len(t.anchors); i++ {
		if t.anchors[i].valid {
			end = t.anchors[i].Line - 1
			break
		}
	}
	return Range{Start: a.Line, End: end}, true
}

// Valid reports in O(1) whether the anchor for a cell is still valid.
func (t *Tracker) Valid(id notebook.CellID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	a, ok := t.byCell[id]
	return ok && a.valid
}

// Invalidate marks a cell's anchor invalid. Subsequent lookups answer
// "none". The anchor entry is retained until the next Place.
func (t *Tracker) Invalidate(id notebook.CellID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if a, ok := t.byCell[id]; ok {
		a.valid = false
	}
}

// AdjustForEdit shifts anchors for an edit of delta lines at the given
// line. A positive delta inserts lines at that position; a negative
// delta removes -delta lines starting there. Gravity decides the fate
// of an anchor sitting exactly at an insertion point.
func (t *Tracker) AdjustForEdit(line, delta int) {
	if delta == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if delta > 0 {
		for _, a := range t.anchors {
			if a.Line > line || (a.Line == line && a.Gravity == GravityRight) {
				a.Line += delta
			}
		}
	} else {
		removedEnd := line - delta // one past the removed range
		for _, a := range t.anchors {
			switch {
			case a.Line >= removedEnd:
				a.Line += delta
			case a.Line >= line:
				a.Line = line
			}
		}
	}

	t.lineCount += delta
	sort.SliceStable(t.anchors, func(i, j int) bool {
		return t.anchors[i].Line < t.anchors[j].Line
	})
}

// SetLineCount records the total line count used to resolve the last
// cell's end.
func (t *Tracker) SetLineCount(n int) {
	t.mu.Lock()
	t.lineCount = n
	t.mu.Unlock()
}

// LineCount returns the tracked total line count.
func (t *Tracker) LineCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lineCount
}

// AnchorFor returns a copy of the anchor tracking a cell's start line.
func (t *Tracker) AnchorFor(id notebook.CellID) (Anchor, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	a, ok := t.byCell[id]
	if !ok || !a.valid {
		return Anchor{}, false
	}
	return *a, true
}
