package proxy

import (
	"encoding/json"

	"github.com/notebridge/notebridge/internal/notebook"
)

// handlePublishDiagnostics filters backend diagnostics and re-homes
// them to the human view. Line numbers survive unchanged thanks to the
// 1:1 mapping; what gets dropped is anything landing outside a code
// cell's content range, where the shadow view holds blank filler the
// user never wrote.
func (s *Session) handlePublishDiagnostics(_ string, params json.RawMessage) {
	var p PublishDiagnosticsParams
	if err := json.Unmarshal(params, &p); err != nil {
		return
	}
	if p.URI != s.ShadowURI() {
		return
	}

	s.mu.Lock()
	handler := s.diagnostics
	s.mu.Unlock()
	if handler == nil {
		return
	}

	handler(PublishDiagnosticsParams{
		URI:         s.HumanURI(),
		Version:     p.Version,
		Diagnostics: s.filterDiagnostics(p.Diagnostics),
	})
}

// filterDiagnostics keeps diagnostics whose start lands inside a code
// cell's content range. An empty result is a meaningful "all clear" and
// is returned as an empty, non-nil slice.
func (s *Session) filterDiagnostics(diags []Diagnostic) []Diagnostic {
	tracker := s.views.Tracker()
	doc := s.views.Document()

	kept := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		id, ok := tracker.CellAt(d.Range.Start.Line)
		if !ok {
			continue
		}
		cell, ok := doc.CellByID(id)
		if !ok || cell.Kind != notebook.KindCode {
			continue
		}
		cr, ok := tracker.ContentRangeOf(id)
		if !ok || d.Range.Start.Line < cr.Start {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}

// handleShowDocument redirects a backend focus request targeting the
// shadow identity to a user-facing one. A target inside an open overlay
// is delivered in overlay coordinates; a target outside it closes the
// overlay first so the jump lands on committed content.
func (s *Session) handleShowDocument(_ string, params json.RawMessage) {
	var p ShowDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return
	}
	if p.URI != s.ShadowURI() {
		return
	}

	s.mu.Lock()
	handler := s.focus
	s.mu.Unlock()
	if handler == nil {
		return
	}

	var pos Position
	if p.Selection != nil {
		pos = p.Selection.Start
	}

	if ov := s.views.Overlay(); ov != nil {
		if local, ok := ov.FromDocumentLine(pos.Line); ok {
			handler(s.OverlayURI(), Position{Line: local, Character: pos.Character})
			return
		}
		_ = s.views.CloseOverlay()
	}
	handler(s.HumanURI(), pos)
}
