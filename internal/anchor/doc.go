// Package anchor tracks cell boundary positions across edits.
//
// Each cell's start line in the document's line form is tracked by one
// left-sticky anchor. A cell's end resolves to the next cell's start
// anchor minus one, or to the document end for the last cell. Anchors
// are invalidated, not deleted, when their cell is removed; lookups
// against an invalidated anchor answer "none" rather than returning
// stale coordinates. Callers must treat "none" as "operation no longer
// applicable" and never retry blindly.
//
// The tracker keeps anchors in a sorted index so CellAt resolves by
// binary search, and a by-ID map so validity checks are O(1).
package anchor
