package event

import (
	"sort"
	"sync"
)

// ViewChange describes an affected line range of the human view,
// inclusive on both ends.
type ViewChange struct {
	StartLine int
	EndLine   int
}

// ChangeHandler receives coalesced view changes on flush.
type ChangeHandler func(changes []ViewChange)

// Notifier accumulates view-changed notifications and delivers them
// coalesced. Overlapping and adjacent ranges merge into one.
type Notifier struct {
	mu       sync.Mutex
	pending  []ViewChange
	handlers []ChangeHandler
}

// NewNotifier creates a notifier with no subscribers.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers a handler for flushed changes.
func (n *Notifier) Subscribe(h ChangeHandler) {
	if h == nil {
		return
	}
	n.mu.Lock()
	n.handlers = append(n.handlers, h)
	n.mu.Unlock()
}

// Changed records an affected line range.
func (n *Notifier) Changed(startLine, endLine int) {
	if endLine < startLine {
		startLine, endLine = endLine, startLine
	}
	n.mu.Lock()
	n.pending = append(n.pending, ViewChange{StartLine: startLine, EndLine: endLine})
	n.mu.Unlock()
}

// Flush coalesces pending changes and delivers them to every handler.
// A flush with nothing pending delivers nothing.
func (n *Notifier) Flush() {
	n.mu.Lock()
	pending := n.pending
	n.pending = nil
	handlers := append([]ChangeHandler(nil), n.handlers...)
	n.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	coalesced := Coalesce(pending)
	for _, h := range handlers {
		h(coalesced)
	}
}

// Pending returns the number of uncoalesced pending changes.
func (n *Notifier) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending)
}

// Coalesce merges overlapping and adjacent ranges and returns them
// sorted by start line.
func Coalesce(changes []ViewChange) []ViewChange {
	if len(changes) <= 1 {
		return changes
	}

	sorted := append([]ViewChange(nil), changes...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartLine < sorted[j].StartLine
	})

	out := sorted[:1]
	for _, c := range sorted[1:] {
		last := &out[len(out)-1]
		if c.StartLine <= last.EndLine+1 {
			if c.EndLine > last.EndLine {
				last.EndLine = c.EndLine
			}
			continue
		}
		out = append(out, c)
	}
	return out
}
