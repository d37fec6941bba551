package notebook

import (
	"encoding/json"

	"github.com/google/uuid"
)

// CellID uniquely identifies a cell. IDs are stable across moves,
// inserts, deletes, and undo; they are never reused within a document.
type CellID string

// NewCellID mints a fresh cell ID.
func NewCellID() CellID {
	return CellID(uuid.NewString())
}

// CellKind classifies a cell's content.
type CellKind int

const (
	KindCode CellKind = iota
	KindMarkdown
	KindRaw
)

// String returns the kind's canonical name.
func (k CellKind) String() string {
	switch k {
	case KindCode:
		return "code"
	case KindMarkdown:
		return "markdown"
	case KindRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// ParseKind parses a canonical kind name.
func ParseKind(s string) (CellKind, bool) {
	switch s {
	case "code":
		return KindCode, true
	case "markdown":
		return KindMarkdown, true
	case "raw":
		return KindRaw, true
	default:
		return KindCode, false
	}
}

// Cell is the unit of editable content in a document.
// Outputs and Metadata are opaque; the document model stores them
// verbatim for the serialization and execution collaborators.
type Cell struct {
	ID       CellID
	Kind     CellKind
	Source   []string
	Outputs  json.RawMessage
	Metadata json.RawMessage
}

// NewCell creates a cell with a fresh ID.
func NewCell(kind CellKind, source []string) *Cell {
	return &Cell{
		ID:     NewCellID(),
		Kind:   kind,
		Source: append([]string(nil), source...),
	}
}

// Clone returns a deep copy of the cell. The ID is preserved.
func (c *Cell) Clone() *Cell {
	clone := &Cell{
		ID:     c.ID,
		Kind:   c.Kind,
		Source: append([]string(nil), c.Source...),
	}
	if c.Outputs != nil {
		clone.Outputs = append(json.RawMessage(nil), c.Outputs...)
	}
	if c.Metadata != nil {
		clone.Metadata = append(json.RawMessage(nil), c.Metadata...)
	}
	return clone
}

// LineCount returns the number of lines the cell occupies in the
// document's line form: one marker line plus the source lines.
func (c *Cell) LineCount() int {
	return 1 + len(c.Source)
}

// sameContent reports whether the cell's kind and source match exactly.
func (c *Cell) sameContent(kind CellKind, source []string) bool {
	if c.Kind != kind || len(c.Source) != len(source) {
		return false
	}
	for i, line := range c.Source {
		if line != source[i] {
			return false
		}
	}
	return true
}
