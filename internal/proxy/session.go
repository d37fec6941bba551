package proxy

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/notebridge/notebridge/internal/notebook"
	"github.com/notebridge/notebridge/internal/viewsync"
)

// DiagnosticsHandler receives diagnostics after filtering and
// re-homing, already addressed to the human view.
type DiagnosticsHandler func(PublishDiagnosticsParams)

// FocusHandler receives backend-initiated focus requests after
// redirection to a user-facing identity.
type FocusHandler func(uri DocumentURI, pos Position)

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithDiagnosticsHandler sets the sink for re-homed diagnostics.
func WithDiagnosticsHandler(h DiagnosticsHandler) SessionOption {
	return func(s *Session) { s.diagnostics = h }
}

// WithFocusHandler sets the sink for redirected focus requests.
func WithFocusHandler(h FocusHandler) SessionOption {
	return func(s *Session) { s.focus = h }
}

// Session mediates between one notebook document and one analysis
// backend. Outbound requests naming the human view or the overlay are
// rewritten to the shadow identity; inbound results are rewritten back
// according to the method's strategy. All operations are no-ops while
// no backend is attached.
//
// Results are always delivered in human-view coordinates, even for
// overlay-origin requests; the embedding UI projects into overlay-local
// lines with Overlay.FromDocumentLine when it needs to.
type Session struct {
	views *viewsync.Synchronizer
	docID string

	mu       sync.Mutex
	tr       *Transport
	version  int
	classSeq map[RequestClass]uint64
	inflight map[RequestClass]int64

	diagnostics DiagnosticsHandler
	focus       FocusHandler
}

// NewSession creates a session for a document. The docID becomes the
// authority component of every synthetic identity the session emits.
func NewSession(docID string, views *viewsync.Synchronizer, opts ...SessionOption) *Session {
	s := &Session{
		views:    views,
		docID:    docID,
		classSeq: make(map[RequestClass]uint64),
		inflight: make(map[RequestClass]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DocID returns the document identifier.
func (s *Session) DocID() string { return s.docID }

// Views returns the view synchronizer this session fronts.
func (s *Session) Views() *viewsync.Synchronizer { return s.views }

// HumanURI returns the human view identity.
func (s *Session) HumanURI() DocumentURI { return HumanURI(s.docID) }

// OverlayURI returns the edit overlay identity.
func (s *Session) OverlayURI() DocumentURI { return OverlayURI(s.docID) }

// PreviewURI returns the read-only preview identity.
func (s *Session) PreviewURI() DocumentURI { return PreviewURI(s.docID) }

// ShadowURI returns the backend-facing identity. It changes when the
// document's language changes.
func (s *Session) ShadowURI() DocumentURI {
	return ShadowURI(s.docID, s.views.Document().Language())
}

// Attach connects a backend transport and announces the shadow document
// to it. Notification handlers for diagnostics and focus requests are
// registered on the transport.
func (s *Session) Attach(tr *Transport) error {
	s.mu.Lock()
	s.tr = tr
	s.version = 1
	v := s.version
	s.mu.Unlock()

	tr.OnNotification(MethodPublishDiagnostics, s.handlePublishDiagnostics)
	tr.OnNotification(MethodShowDocument, s.handleShowDocument)

	return tr.Notify(MethodDidOpen, DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{
			URI:        s.ShadowURI(),
			LanguageID: s.views.Document().Language(),
			Version:    v,
			Text:       s.shadowText(),
		},
	})
}

// Detach closes the shadow document on the backend and drops the
// transport. Subsequent proxy operations become no-ops.
func (s *Session) Detach() error {
	s.mu.Lock()
	tr := s.tr
	s.tr = nil
	s.mu.Unlock()

	if tr == nil {
		return nil
	}
	return tr.Notify(MethodDidClose, DidCloseTextDocumentParams{
		TextDocument: TextDocumentIdentifier{URI: s.ShadowURI()},
	})
}

// transport returns the attached transport, or nil.
func (s *Session) transport() *Transport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tr
}

// shadowText renders the shadow view as one string.
func (s *Session) shadowText() string {
	return strings.Join(s.views.ShadowView().Lines(), "\n")
}

// SyncShadow pushes the current shadow content to the backend as a
// full-content change. Called from the deferred notification queue
// after human-view edits settle.
func (s *Session) SyncShadow() error {
	s.mu.Lock()
	tr := s.tr
	if tr == nil {
		s.mu.Unlock()
		return nil
	}
	s.version++
	v := s.version
	s.mu.Unlock()

	return tr.Notify(MethodDidChange, DidChangeTextDocumentParams{
		TextDocument: VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: TextDocumentIdentifier{URI: s.ShadowURI()},
			Version:                v,
		},
		ContentChanges: []TextDocumentContentChangeEvent{{Text: s.shadowText()}},
	})
}

// SetLanguage switches the analysis language. The shadow document is
// closed under its old identity, regenerated, and reopened under the
// new one; anything the backend knew about the old identity is gone.
func (s *Session) SetLanguage(languageID string) error {
	oldURI := s.ShadowURI()

	s.views.Document().SetLanguage(languageID)
	s.views.Rebuild()

	tr := s.transport()
	if tr == nil {
		return nil
	}

	if err := tr.Notify(MethodDidClose, DidCloseTextDocumentParams{
		TextDocument: TextDocumentIdentifier{URI: oldURI},
	}); err != nil {
		return err
	}

	s.mu.Lock()
	s.version = 1
	v := s.version
	s.mu.Unlock()

	return tr.Notify(MethodDidOpen, DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{
			URI:        s.ShadowURI(),
			LanguageID: languageID,
			Version:    v,
			Text:       s.shadowText(),
		},
	})
}

// Request forwards a position-bearing request to the backend. The
// params' textDocument.uri decides the originating view; human and
// overlay origins are rewritten to the shadow identity before dispatch,
// with overlay-local lines shifted to absolute ones. The reply handler
// receives the result already rewritten per the method's strategy.
//
// With no backend attached the request is dropped and reply is never
// invoked. A reply whose originating overlay has since closed, or that
// was superseded by a newer request of the same interactive class, is
// delivered as ErrStaleReply.
func (s *Session) Request(method string, params json.RawMessage, reply ReplyHandler) error {
	tr := s.transport()
	if tr == nil {
		return nil
	}

	spec := specFor(method)

	rewritten, overlayOrigin, err := s.outbound(params)
	if err != nil {
		return err
	}
	gen := s.views.Generation()

	var seq uint64
	if spec.class != ClassNone {
		s.mu.Lock()
		s.classSeq[spec.class]++
		seq = s.classSeq[spec.class]
		prev := s.inflight[spec.class]
		delete(s.inflight, spec.class)
		s.mu.Unlock()
		if prev != 0 {
			tr.Cancel(prev)
		}
	}

	id, err := tr.Call(method, json.RawMessage(rewritten), func(result json.RawMessage, err error) {
		if err != nil {
			reply(nil, err)
			return
		}
		if overlayOrigin && s.views.Generation() != gen {
			reply(nil, ErrStaleReply)
			return
		}
		if spec.class != ClassNone && !s.isCurrent(spec.class, seq) {
			reply(nil, ErrStaleReply)
			return
		}
		reply(s.inbound(result, spec.strategy), nil)
	})
	if err != nil {
		return err
	}

	if spec.class != ClassNone {
		s.mu.Lock()
		if s.classSeq[spec.class] == seq {
			s.inflight[spec.class] = id
		}
		s.mu.Unlock()
	}
	return nil
}

// isCurrent reports whether seq is still the newest issue of its class.
func (s *Session) isCurrent(class RequestClass, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.classSeq[class] == seq
}

// outbound rewrites request params toward the shadow identity. Params
// without a recognizable identity pass through untouched.
func (s *Session) outbound(params json.RawMessage) (json.RawMessage, bool, error) {
	uri := DocumentURI(gjson.GetBytes(params, "textDocument.uri").String())
	if uri == "" {
		return params, false, nil
	}
	scheme, docID, ok := SplitURI(uri)
	if !ok || docID != s.docID {
		return params, false, nil
	}

	switch scheme {
	case schemeShadow:
		return params, false, nil
	case schemeOverlay:
		ov := s.views.Overlay()
		if ov == nil {
			return nil, false, viewsync.ErrOverlayClosed
		}
		out, err := sjson.SetBytes(params, "textDocument.uri", string(s.ShadowURI()))
		if err != nil {
			return params, false, nil
		}
		if line := gjson.GetBytes(out, "position.line"); line.Exists() {
			out, err = sjson.SetBytes(out, "position.line", ov.ToDocumentLine(int(line.Int())))
			if err != nil {
				return params, false, nil
			}
		}
		return out, true, nil
	default:
		out, err := sjson.SetBytes(params, "textDocument.uri", string(s.ShadowURI()))
		if err != nil {
			return params, false, nil
		}
		return out, false, nil
	}
}

// inbound rewrites a result back toward a user-facing identity.
func (s *Session) inbound(result json.RawMessage, strategy RewriteStrategy) json.RawMessage {
	switch strategy {
	case StrategyDirect:
		return rewriteURIs(result, s.ShadowURI(), s.HumanURI())
	case StrategyIndirect:
		return rewriteURIs(result, s.ShadowURI(), s.PreviewURI())
	default:
		return result
	}
}

// FormatCell asks the backend to format one cell's content range and
// applies the resulting edits as a single undo step. done, if non-nil,
// is invoked once the edits are applied or the attempt abandoned.
func (s *Session) FormatCell(id notebook.CellID, opts FormattingOptions, done func(error)) error {
	tr := s.transport()
	if tr == nil {
		return nil
	}

	cr, ok := s.views.Tracker().ContentRangeOf(id)
	if !ok {
		return viewsync.ErrStaleCell
	}
	if cr.Empty() {
		finish(done, nil)
		return nil
	}

	shadowVersion := s.views.ShadowView().Version()
	params := DocumentRangeFormattingParams{
		TextDocument: TextDocumentIdentifier{URI: s.ShadowURI()},
		Range: Range{
			Start: Position{Line: cr.Start},
			End:   Position{Line: cr.End + 1},
		},
		Options: opts,
	}

	_, err := tr.Call(MethodRangeFormatting, params, func(result json.RawMessage, err error) {
		if err != nil {
			finish(done, err)
			return
		}
		if s.views.ShadowView().Version() != shadowVersion {
			finish(done, ErrStaleReply)
			return
		}

		var edits []TextEdit
		if err := json.Unmarshal(result, &edits); err != nil || len(edits) == 0 {
			finish(done, nil)
			return
		}

		cell, ok := s.views.Document().CellByID(id)
		if !ok {
			finish(done, viewsync.ErrStaleCell)
			return
		}

		local := make([]TextEdit, len(edits))
		for i, e := range edits {
			e.Range.Start.Line -= cr.Start
			e.Range.End.Line -= cr.Start
			local[i] = e
		}
		newSource, err := applyEditsToLines(cell.Source, local)
		if err != nil {
			finish(done, err)
			return
		}
		finish(done, s.views.ApplyCellEdit(id, newSource))
	})
	return err
}

// FormatDocument asks the backend to format the whole shadow document
// and applies the edits cell by cell, bottom of the document first, as
// a single undo step. Edits that touch marker or placeholder lines, or
// that cross a cell boundary, are dropped.
func (s *Session) FormatDocument(opts FormattingOptions, done func(error)) error {
	tr := s.transport()
	if tr == nil {
		return nil
	}

	shadowVersion := s.views.ShadowView().Version()
	params := DocumentFormattingParams{
		TextDocument: TextDocumentIdentifier{URI: s.ShadowURI()},
		Options:      opts,
	}

	_, err := tr.Call(MethodFormatting, params, func(result json.RawMessage, err error) {
		if err != nil {
			finish(done, err)
			return
		}
		if s.views.ShadowView().Version() != shadowVersion {
			finish(done, ErrStaleReply)
			return
		}

		var edits []TextEdit
		if err := json.Unmarshal(result, &edits); err != nil || len(edits) == 0 {
			finish(done, nil)
			return
		}
		finish(done, s.applyEditsByCell(edits))
	})
	return err
}

// RenameAt asks the backend to rename the symbol at a position in the
// originating view and applies the workspace edit to this document.
func (s *Session) RenameAt(origin DocumentURI, pos Position, newName string, done func(error)) error {
	tr := s.transport()
	if tr == nil {
		return nil
	}

	scheme, docID, ok := SplitURI(origin)
	if !ok || docID != s.docID {
		return ErrUnknownDocument
	}
	if scheme == schemeOverlay {
		ov := s.views.Overlay()
		if ov == nil {
			return viewsync.ErrOverlayClosed
		}
		pos.Line = ov.ToDocumentLine(pos.Line)
	}

	shadowVersion := s.views.ShadowView().Version()
	params := RenameParams{
		TextDocument: TextDocumentIdentifier{URI: s.ShadowURI()},
		Position:     pos,
		NewName:      newName,
	}

	_, err := tr.Call(MethodRename, params, func(result json.RawMessage, err error) {
		if err != nil {
			finish(done, err)
			return
		}
		if s.views.ShadowView().Version() != shadowVersion {
			finish(done, ErrStaleReply)
			return
		}

		var we WorkspaceEdit
		if err := json.Unmarshal(result, &we); err != nil {
			finish(done, nil)
			return
		}
		edits := we.Changes[s.ShadowURI()]
		if len(edits) == 0 {
			finish(done, nil)
			return
		}
		finish(done, s.applyEditsByCell(edits))
	})
	return err
}

// applyEditsByCell groups shadow-coordinate edits by owning cell,
// rejects boundary violations, and pushes the per-cell results through
// the synchronizer as one undo step.
func (s *Session) applyEditsByCell(edits []TextEdit) error {
	tracker := s.views.Tracker()
	doc := s.views.Document()

	byCell := make(map[notebook.CellID][]TextEdit)
	for _, e := range edits {
		id, ok := tracker.CellAt(e.Range.Start.Line)
		if !ok {
			continue
		}
		cell, ok := doc.CellByID(id)
		if !ok || cell.Kind != notebook.KindCode {
			continue
		}
		cr, ok := tracker.ContentRangeOf(id)
		if !ok || e.Range.Start.Line < cr.Start {
			// Touches the placeholder line.
			continue
		}
		// An exclusive end at column 0 of the next marker line is
		// still within this cell; anything further crosses a boundary.
		if e.Range.End.Line > cr.End+1 ||
			(e.Range.End.Line == cr.End+1 && e.Range.End.Character > 0) {
			continue
		}
		byCell[id] = append(byCell[id], e)
	}
	if len(byCell) == 0 {
		return nil
	}

	newSources := make(map[notebook.CellID][]string, len(byCell))
	for id, cellEdits := range byCell {
		cr, ok := tracker.ContentRangeOf(id)
		if !ok {
			continue
		}
		cell, ok := doc.CellByID(id)
		if !ok {
			continue
		}

		local := make([]TextEdit, len(cellEdits))
		for i, e := range cellEdits {
			e.Range.Start.Line -= cr.Start
			e.Range.End.Line -= cr.Start
			local[i] = e
		}
		source, err := applyEditsToLines(cell.Source, local)
		if err != nil {
			return err
		}
		newSources[id] = source
	}

	return s.views.ApplyCellEdits(newSources)
}

// finish invokes a completion callback if one was provided.
func finish(done func(error), err error) {
	if done != nil {
		done(err)
	}
}
