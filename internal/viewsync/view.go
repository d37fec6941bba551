package viewsync

import (
	"strings"
	"sync"
)

// View is a line buffer backing one projection of the document. The
// version increments on every mutation so consumers can detect change
// without diffing.
type View struct {
	mu      sync.RWMutex
	lines   []string
	version int64
}

// NewView creates a view with the given lines.
func NewView(lines []string) *View {
	return &View{lines: append([]string(nil), lines...)}
}

// Len returns the line count.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.lines)
}

// Version returns the mutation counter.
func (v *View) Version() int64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.version
}

// Lines returns a copy of all lines.
func (v *View) Lines() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]string(nil), v.lines...)
}

// Line returns one line, or "" if out of range.
func (v *View) Line(i int) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if i < 0 || i >= len(v.lines) {
		return ""
	}
	return v.lines[i]
}

// Slice returns a copy of the inclusive line range [start, end].
func (v *View) Slice(start, end int) ([]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if start < 0 || end >= len(v.lines) || end < start-1 {
		return nil, ErrLineRange
	}
	if end < start {
		return nil, nil
	}
	return append([]string(nil), v.lines[start:end+1]...), nil
}

// Replace substitutes the inclusive line range [start, end] with repl.
// An end of start-1 inserts before start without removing anything.
func (v *View) Replace(start, end int, repl []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if start < 0 || start > len(v.lines) || end >= len(v.lines) || end < start-1 {
		return ErrLineRange
	}

	next := make([]string, 0, len(v.lines)-(end-start+1)+len(repl))
	next = append(next, v.lines[:start]...)
	next = append(next, repl...)
	if end+1 <= len(v.lines) {
		next = append(next, v.lines[end+1:]...)
	}

	v.lines = next
	v.version++
	return nil
}

// SetLines replaces the entire content.
func (v *View) SetLines(lines []string) {
	v.mu.Lock()
	v.lines = append([]string(nil), lines...)
	v.version++
	v.mu.Unlock()
}

// Text returns the view joined with newlines, the form handed to the
// analysis backend.
func (v *View) Text() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return strings.Join(v.lines, "\n")
}
