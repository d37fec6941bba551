package viewsync

import "github.com/notebridge/notebridge/internal/notebook"

// Overlay is the transient per-cell editing surface. Its content is the
// authoritative cell source only while open. Region coordinates are
// absolute human-view lines covering the cell's content range (marker
// line excluded).
type Overlay struct {
	CellID      notebook.CellID
	RegionStart int
	RegionEnd   int

	buffer *View
}

// Lines returns the overlay's current content.
func (o *Overlay) Lines() []string {
	return o.buffer.Lines()
}

// Len returns the overlay's line count.
func (o *Overlay) Len() int {
	return o.buffer.Len()
}

// ToDocumentLine translates an overlay-local line to an absolute
// human-view line.
func (o *Overlay) ToDocumentLine(local int) int {
	return o.RegionStart + local
}

// FromDocumentLine translates an absolute human-view line to an
// overlay-local line. Returns false for lines outside the region.
func (o *Overlay) FromDocumentLine(abs int) (int, bool) {
	if abs < o.RegionStart || abs > o.RegionEnd {
		return 0, false
	}
	return abs - o.RegionStart, true
}
