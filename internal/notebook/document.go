package notebook

import (
	"encoding/json"
	"sync"
)

// MoveDirection selects which way MoveCell shifts a cell.
type MoveDirection int

const (
	MoveUp MoveDirection = iota
	MoveDown
)

// Document is an ordered sequence of cells plus document-level metadata.
// The document owns its cells; callers must not retain cell pointers
// across mutations. Each open document is owned by a single logical
// processing thread, but the model is internally locked so that the
// proxy registry can inspect it from correlation callbacks.
type Document struct {
	mu       sync.RWMutex
	cells    []*Cell
	language string
}

// NewDocument creates a document with the given cells. Cells without an
// ID are assigned one. An empty document receives a single empty code
// cell so the line form is never zero lines.
func NewDocument(language string, cells []*Cell) *Document {
	d := &Document{language: language}
	for _, c := range cells {
		if c.ID == "" {
			c.ID = NewCellID()
		}
		d.cells = append(d.cells, c)
	}
	if len(d.cells) == 0 {
		d.cells = append(d.cells, NewCell(KindCode, nil))
	}
	return d
}

// Language returns the declared analysis language.
func (d *Document) Language() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.language
}

// SetLanguage changes the declared analysis language. The caller is
// responsible for regenerating the shadow view and re-attaching the
// backend afterward.
func (d *Document) SetLanguage(lang string) {
	d.mu.Lock()
	d.language = lang
	d.mu.Unlock()
}

// Len returns the number of cells.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.cells)
}

// Cells returns a snapshot of the cell sequence. The cells are clones;
// mutating them does not affect the document.
func (d *Document) Cells() []*Cell {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*Cell, len(d.cells))
	for i, c := range d.cells {
		out[i] = c.Clone()
	}
	return out
}

// CellByID returns a clone of the cell with the given ID.
func (d *Document) CellByID(id CellID) (*Cell, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if i := d.indexLocked(id); i >= 0 {
		return d.cells[i].Clone(), true
	}
	return nil, false
}

// IndexOf returns the position of a cell, or -1 if absent.
func (d *Document) IndexOf(id CellID) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.indexLocked(id)
}

// InsertCell inserts a new cell at index and returns its ID.
func (d *Document) InsertCell(index int, kind CellKind, source []string) (CellID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if index < 0 || index > len(d.cells) {
		return "", ErrIndexOutOfRange
	}

	cell := NewCell(kind, source)
	d.cells = append(d.cells, nil)
	copy(d.cells[index+1:], d.cells[index:])
	d.cells[index] = cell
	return cell.ID, nil
}

// DeleteCell removes a cell. Deleting the last remaining cell replaces
// it with an empty code cell so the document never becomes empty.
func (d *Document) DeleteCell(id CellID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.indexLocked(id)
	if i < 0 {
		return ErrCellNotFound
	}

	d.cells = append(d.cells[:i], d.cells[i+1:]...)
	if len(d.cells) == 0 {
		d.cells = append(d.cells, NewCell(KindCode, nil))
	}
	return nil
}

// MoveCell swaps a cell with its neighbor in the given direction and
// returns the cell's new index.
func (d *Document) MoveCell(id CellID, dir MoveDirection) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.indexLocked(id)
	if i < 0 {
		return 0, ErrCellNotFound
	}

	j := i - 1
	if dir == MoveDown {
		j = i + 1
	}
	if j < 0 || j >= len(d.cells) {
		return 0, ErrCannotMove
	}

	d.cells[i], d.cells[j] = d.cells[j], d.cells[i]
	return j, nil
}

// SetCellKind changes a cell's kind in place. The ID is preserved.
func (d *Document) SetCellKind(id CellID, kind CellKind) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.indexLocked(id)
	if i < 0 {
		return ErrCellNotFound
	}
	d.cells[i].Kind = kind
	return nil
}

// SetCellSource replaces a cell's source lines. Used by the synchronizer
// when flushing an overlay or applying backend edits.
func (d *Document) SetCellSource(id CellID, source []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.indexLocked(id)
	if i < 0 {
		return ErrCellNotFound
	}
	d.cells[i].Source = append([]string(nil), source...)
	return nil
}

// SetOutputs stores execution outputs for a cell. The payload is opaque.
func (d *Document) SetOutputs(id CellID, outputs json.RawMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.indexLocked(id)
	if i < 0 {
		return ErrCellNotFound
	}
	d.cells[i].Outputs = append(json.RawMessage(nil), outputs...)
	return nil
}

// SetCells replaces the entire cell sequence. Used by undo/redo to
// restore a structural snapshot with IDs intact. The cells are cloned.
func (d *Document) SetCells(cells []*Cell) {
	d.mu.Lock()
	defer d.mu.Unlock()

	next := make([]*Cell, 0, len(cells))
	for _, c := range cells {
		next = append(next, c.Clone())
	}
	if len(next) == 0 {
		next = append(next, NewCell(KindCode, nil))
	}
	d.cells = next
}

// Lines renders the document's line form: for each cell, a marker header
// line followed by the cell's source lines.
func (d *Document) Lines() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var lines []string
	for _, c := range d.cells {
		lines = append(lines, MarkerFor(c.Kind))
		lines = append(lines, c.Source...)
	}
	return lines
}

// indexLocked returns the index of a cell by ID (must hold lock).
func (d *Document) indexLocked(id CellID) int {
	for i, c := range d.cells {
		if c.ID == id {
			return i
		}
	}
	return -1
}
