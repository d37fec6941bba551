package viewsync

import (
	"fmt"
	"sync"

	"github.com/notebridge/notebridge/internal/anchor"
	"github.com/notebridge/notebridge/internal/event"
	"github.com/notebridge/notebridge/internal/history"
	"github.com/notebridge/notebridge/internal/notebook"
	"github.com/notebridge/notebridge/internal/shadow"
)

// SynchronizerOption configures a Synchronizer.
type SynchronizerOption func(*Synchronizer)

// WithNotifier sets the view-changed notifier.
func WithNotifier(n *event.Notifier) SynchronizerOption {
	return func(s *Synchronizer) {
		s.notifier = n
	}
}

// WithHistoryLimit caps the number of undo steps.
func WithHistoryLimit(n int) SynchronizerOption {
	return func(s *Synchronizer) {
		s.hist = history.NewHistory(n)
	}
}

// WithOverlayCloseHook registers a callback invoked whenever the overlay
// closes, used to detach the protocol session bound to it.
func WithOverlayCloseHook(fn func()) SynchronizerOption {
	return func(s *Synchronizer) {
		s.onOverlayClose = fn
	}
}

// Synchronizer propagates edits between the human view, the shadow
// view, and the transient edit overlay, and owns undo coordination.
type Synchronizer struct {
	mu sync.Mutex

	doc     *notebook.Document
	tracker *anchor.Tracker
	human   *View
	shadowV *View
	hist    *history.History

	notifier       *event.Notifier
	onOverlayClose func()

	overlay    *Overlay
	buffers    map[notebook.CellID]*View // cached overlay buffers
	generation uint64
}

// NewSynchronizer builds both views from the document and places the
// anchors.
func NewSynchronizer(doc *notebook.Document, opts ...SynchronizerOption) *Synchronizer {
	s := &Synchronizer{
		doc:      doc,
		tracker:  anchor.NewTracker(),
		hist:     history.NewHistory(0),
		notifier: event.NewNotifier(),
		buffers:  make(map[notebook.CellID]*View),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.human = NewView(doc.Lines())
	s.shadowV = NewView(shadow.Project(doc))
	s.tracker.Place(doc)
	return s
}

// Document returns the underlying document model.
func (s *Synchronizer) Document() *notebook.Document { return s.doc }

// Tracker returns the anchor tracker.
func (s *Synchronizer) Tracker() *anchor.Tracker { return s.tracker }

// HumanView returns the authoritative human-facing view.
func (s *Synchronizer) HumanView() *View { return s.human }

// ShadowView returns the backend-facing view.
func (s *Synchronizer) ShadowView() *View { return s.shadowV }

// History returns the document's undo history.
func (s *Synchronizer) History() *history.History { return s.hist }

// Notifier returns the view-changed notifier.
func (s *Synchronizer) Notifier() *event.Notifier { return s.notifier }

// Overlay returns the open overlay, or nil.
func (s *Synchronizer) Overlay() *Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlay
}

// Generation returns the overlay generation counter. It increments on
// every overlay open and close; the protocol proxy stamps outgoing
// requests with it and discards replies whose generation no longer
// matches.
func (s *Synchronizer) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// OpenOverlay enters edit mode for a cell: the cell's content-range
// lines are copied into a fresh or cached overlay buffer.
func (s *Synchronizer) OpenOverlay(id notebook.CellID) (*Overlay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.overlay != nil {
		return nil, ErrOverlayOpen
	}

	r, ok := s.tracker.ContentRangeOf(id)
	if !ok {
		return nil, ErrStaleCell
	}

	cell, ok := s.doc.CellByID(id)
	if !ok {
		return nil, ErrStaleCell
	}

	// Cached buffers are reused so a cell keeps its editing surface
	// identity across repeated open/close cycles.
	buf, ok := s.buffers[id]
	if !ok {
		buf = NewView(cell.Source)
		s.buffers[id] = buf
	} else {
		buf.SetLines(cell.Source)
	}

	s.overlay = &Overlay{
		CellID:      id,
		RegionStart: r.Start,
		RegionEnd:   r.End,
		buffer:      buf,
	}
	s.generation++
	return s.overlay, nil
}

// CloseOverlay flushes the overlay content into the cell's source,
// destroys the overlay, and detaches the protocol session bound to it.
func (s *Synchronizer) CloseOverlay() error {
	s.mu.Lock()

	if s.overlay == nil {
		s.mu.Unlock()
		return ErrOverlayClosed
	}

	id := s.overlay.CellID
	lines := s.overlay.buffer.Lines()
	s.overlay = nil
	s.generation++

	var err error
	if s.tracker.Valid(id) {
		err = s.doc.SetCellSource(id, lines)
	}
	hook := s.onOverlayClose
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return err
}

// discardOverlayLocked drops the overlay without flushing, used when
// the overlay's cell is deleted out from under it (must hold lock).
// Returns the detach hook to run after the lock is released.
func (s *Synchronizer) discardOverlayLocked() func() {
	if s.overlay == nil {
		return nil
	}
	s.overlay = nil
	s.generation++
	return s.onOverlayClose
}

// BeginInsertSession opens the undo group for a continuous text
// insertion session. All overlay mutations until EndInsertSession
// coalesce into one undo step.
func (s *Synchronizer) BeginInsertSession() {
	s.hist.BeginGroup("insert")
}

// EndInsertSession closes the insertion session's undo group.
func (s *Synchronizer) EndInsertSession() {
	s.hist.EndGroup()
}

// OverlayReplace substitutes the overlay-local inclusive line range
// [localStart, localEnd] with repl and propagates the change to the
// document, the human view, and the shadow view. A localEnd of
// localStart-1 inserts without removing.
func (s *Synchronizer) OverlayReplace(localStart, localEnd int, repl []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.overlay == nil {
		return ErrOverlayClosed
	}

	ov := s.overlay
	before, ok := s.doc.CellByID(ov.CellID)
	if !ok || !s.tracker.Valid(ov.CellID) {
		return ErrStaleCell
	}

	if err := ov.buffer.Replace(localStart, localEnd, repl); err != nil {
		return err
	}

	after := ov.buffer.Lines()
	if err := s.applyCellSourceLocked(ov.CellID, after); err != nil {
		return err
	}

	s.hist.Push(&cellEditCommand{
		s:      s,
		cellID: ov.CellID,
		before: before.Source,
		after:  after,
	})
	return nil
}

// ApplyCellEdit replaces one cell's entire source as a discrete undo
// step. The proxy uses it to land backend-produced edits (format,
// rename) after applying them to an in-memory copy.
func (s *Synchronizer) ApplyCellEdit(id notebook.CellID, newSource []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyCellEditLocked(id, newSource)
}

// ApplyCellEdits lands several whole-cell replacements as one undo
// step, applying them in descending document order so earlier cells'
// line numbers never shift under the still-pending ones.
func (s *Synchronizer) ApplyCellEdits(edits map[notebook.CellID][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ordered := make([]notebook.CellID, 0, len(edits))
	for id := range edits {
		if !s.tracker.Valid(id) {
			return ErrStaleCell
		}
		ordered = append(ordered, id)
	}

	// Bottom of the document first.
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			ri, _ := s.tracker.RangeOf(ordered[i])
			rj, _ := s.tracker.RangeOf(ordered[j])
			if rj.Start > ri.Start {
				ordered[i], ordered[j] = ordered[j], ordered[i]
			}
		}
	}

	s.hist.BeginGroup("apply edits")
	for _, id := range ordered {
		if err := s.applyCellEditLocked(id, edits[id]); err != nil {
			s.hist.CancelGroup()
			return err
		}
	}
	s.hist.EndGroup()
	return nil
}

// applyCellEditLocked lands one whole-cell replacement and records its
// undo step (must hold lock).
func (s *Synchronizer) applyCellEditLocked(id notebook.CellID, newSource []string) error {
	before, ok := s.doc.CellByID(id)
	if !ok || !s.tracker.Valid(id) {
		return ErrStaleCell
	}

	if err := s.applyCellSourceLocked(id, newSource); err != nil {
		return err
	}

	if s.overlay != nil && s.overlay.CellID == id {
		s.overlay.buffer.SetLines(newSource)
	}

	s.hist.Push(&cellEditCommand{
		s:      s,
		cellID: id,
		before: before.Source,
		after:  newSource,
	})
	return nil
}

// applyCellSourceLocked writes a cell's new source through to the
// document, both views, the overlay geometry, and the anchors (must
// hold lock).
func (s *Synchronizer) applyCellSourceLocked(id notebook.CellID, source []string) error {
	// Resync point: if the views disagree on line count the human view
	// wins and the shadow view is regenerated before the region edit.
	if s.human.Len() != s.shadowV.Len() {
		s.shadowV.SetLines(shadow.Project(s.doc))
	}

	r, ok := s.tracker.ContentRangeOf(id)
	if !ok {
		return ErrStaleCell
	}

	oldLen := r.Len()
	delta := len(source) - oldLen

	if err := s.doc.SetCellSource(id, source); err != nil {
		return err
	}

	if err := s.human.Replace(r.Start, r.End, source); err != nil {
		return fmt.Errorf("human view replace: %w", err)
	}

	shadowRepl, err := shadow.ProjectRegion(s.doc, id, source)
	if err != nil {
		return err
	}
	// The shadow region includes the marker header slot.
	if err := s.shadowV.Replace(r.Start-1, r.End, shadowRepl); err != nil {
		return fmt.Errorf("shadow view replace: %w", err)
	}

	if delta != 0 {
		s.tracker.AdjustForEdit(r.Start, delta)
		// Any resize can move the overlay's cell, not just an edit to
		// the overlay's own cell, so its region is re-read from the
		// anchors rather than patched in place.
		if s.overlay != nil {
			if or, ok := s.tracker.ContentRangeOf(s.overlay.CellID); ok {
				s.overlay.RegionStart = or.Start
				s.overlay.RegionEnd = or.End
			}
		}
	}

	s.notifier.Changed(r.Start-1, r.Start+len(source)-1)
	s.checkInvariantLocked()
	return nil
}

// checkInvariantLocked asserts the 1:1 line-count invariant. On
// disagreement the human view wins and the shadow view is fully
// regenerated (must hold lock).
func (s *Synchronizer) checkInvariantLocked() {
	if s.human.Len() == s.shadowV.Len() {
		return
	}
	s.doc.Reconcile(s.human.Lines())
	s.shadowV.SetLines(shadow.Project(s.doc))
	s.tracker.Place(s.doc)
}

// Undo reverts the last undo step against the human view's history,
// then reconciles the document and refreshes the overlay and shadow
// views from the now-authoritative human view.
func (s *Synchronizer) Undo() error {
	s.mu.Lock()

	if err := s.hist.Undo(); err != nil {
		s.mu.Unlock()
		return err
	}
	hook := s.resyncFromHumanLocked()
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

// Redo re-applies the last undone step, then resyncs like Undo.
func (s *Synchronizer) Redo() error {
	s.mu.Lock()

	if err := s.hist.Redo(); err != nil {
		s.mu.Unlock()
		return err
	}
	hook := s.resyncFromHumanLocked()
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

// resyncFromHumanLocked makes the human view authoritative: reconcile
// the document from its lines, regenerate the shadow view, re-place
// anchors, and refresh the overlay content (must hold lock). Returns
// the overlay detach hook to run after the lock is released, if the
// overlay's cell no longer exists.
func (s *Synchronizer) resyncFromHumanLocked() func() {
	s.doc.Reconcile(s.human.Lines())
	s.tracker.Place(s.doc)
	s.shadowV.SetLines(shadow.Project(s.doc))

	var hook func()
	if s.overlay != nil {
		id := s.overlay.CellID
		r, ok := s.tracker.ContentRangeOf(id)
		cell, exists := s.doc.CellByID(id)
		if !ok || !exists {
			hook = s.discardOverlayLocked()
		} else {
			s.overlay.RegionStart = r.Start
			s.overlay.RegionEnd = r.End
			s.overlay.buffer.SetLines(cell.Source)
		}
	}

	if n := s.human.Len(); n > 0 {
		s.notifier.Changed(0, n-1)
	}
	return hook
}

// --- structural operations ---

// InsertCell inserts a new cell and rebuilds both views. The operation
// is one undo step.
func (s *Synchronizer) InsertCell(index int, kind notebook.CellKind, source []string) (notebook.CellID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.doc.Cells()
	id, err := s.doc.InsertCell(index, kind, source)
	if err != nil {
		return "", err
	}
	s.finishStructuralLocked(before)
	return id, nil
}

// DeleteCell removes a cell, invalidates its anchor, and discards the
// overlay if it was bound to the cell. One undo step.
func (s *Synchronizer) DeleteCell(id notebook.CellID) error {
	s.mu.Lock()

	before := s.doc.Cells()
	if err := s.doc.DeleteCell(id); err != nil {
		s.mu.Unlock()
		return err
	}
	s.tracker.Invalidate(id)

	var hook func()
	if s.overlay != nil && s.overlay.CellID == id {
		hook = s.discardOverlayLocked()
	}
	s.finishStructuralLocked(before)
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

// MoveCell swaps a cell with its neighbor. One undo step.
func (s *Synchronizer) MoveCell(id notebook.CellID, dir notebook.MoveDirection) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.doc.Cells()
	idx, err := s.doc.MoveCell(id, dir)
	if err != nil {
		return 0, err
	}
	s.finishStructuralLocked(before)
	return idx, nil
}

// SetCellKind changes a cell's kind, which also re-projects its shadow
// region. One undo step.
func (s *Synchronizer) SetCellKind(id notebook.CellID, kind notebook.CellKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.doc.Cells()
	if err := s.doc.SetCellKind(id, kind); err != nil {
		return err
	}
	s.finishStructuralLocked(before)
	return nil
}

// finishStructuralLocked rebuilds views after a structural mutation and
// records the before/after snapshot as one undo step (must hold lock).
func (s *Synchronizer) finishStructuralLocked(before []*notebook.Cell) {
	after := s.doc.Cells()
	s.rebuildLocked()
	s.hist.Push(&structuralCommand{
		s:      s,
		before: before,
		after:  after,
	})
}

// rebuildLocked regenerates both views and anchors from the document
// (must hold lock).
func (s *Synchronizer) rebuildLocked() {
	s.human.SetLines(s.doc.Lines())
	s.shadowV.SetLines(shadow.Project(s.doc))
	s.tracker.Place(s.doc)

	// A structural change above the overlay's cell shifts its region.
	if s.overlay != nil {
		if r, ok := s.tracker.ContentRangeOf(s.overlay.CellID); ok {
			s.overlay.RegionStart = r.Start
			s.overlay.RegionEnd = r.End
		}
	}

	if n := s.human.Len(); n > 0 {
		s.notifier.Changed(0, n-1)
	}
}

// Rebuild regenerates both views from the document. Exposed for the
// proxy's full-resync path (language change, invariant repair).
func (s *Synchronizer) Rebuild() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuildLocked()
}

// --- undo commands ---

// cellEditCommand restores one cell's source. It mutates the human
// view and the document together; the post-undo resync re-derives the
// rest.
type cellEditCommand struct {
	s      *Synchronizer
	cellID notebook.CellID
	before []string
	after  []string
}

func (c *cellEditCommand) Apply() error {
	return c.restore(c.after)
}

func (c *cellEditCommand) Revert() error {
	return c.restore(c.before)
}

func (c *cellEditCommand) restore(source []string) error {
	if !c.s.tracker.Valid(c.cellID) {
		return ErrStaleCell
	}
	return c.s.applyCellSourceLocked(c.cellID, source)
}

func (c *cellEditCommand) Description() string { return "edit cell" }

// structuralCommand restores a full cell-sequence snapshot, preserving
// every ID across undo.
type structuralCommand struct {
	s      *Synchronizer
	before []*notebook.Cell
	after  []*notebook.Cell
}

func (c *structuralCommand) Apply() error {
	c.s.doc.SetCells(c.after)
	c.s.rebuildLocked()
	return nil
}

func (c *structuralCommand) Revert() error {
	c.s.doc.SetCells(c.before)
	c.s.rebuildLocked()
	return nil
}

func (c *structuralCommand) Description() string { return "structural edit" }
