// Package viewsync keeps the human view, the shadow view, and the
// transient edit overlay synchronized.
//
// The human view is the authoritative, user-editable projection of the
// document; the shadow view is the derived, backend-only projection
// with an identical line count. The Synchronizer routes every mutation
// so both views stay consistent: overlay edits replace the cell's
// region in both views, structural operations rebuild both views, and
// undo/redo replays against the human view's history followed by a
// document reconcile.
//
// # Overlay state machine
//
// At most one overlay exists per document. Closed is the initial and
// terminal state: the human view is authoritative. Open binds the
// overlay to exactly one cell; every overlay mutation triggers a shadow
// region replace, a human-view region replace, an overlay geometry
// resize when the line count changed, and anchor re-placement. Closing
// flushes the overlay content into the cell's source and detaches the
// protocol session bound to the overlay.
//
// # Undo granularity
//
// Overlay mutations inside one continuous insertion session coalesce
// into exactly one undo step; discrete commands each produce their own.
// The overlay has no history of its own: undo and redo always act on
// the human view's history, after which the document is reconciled and
// the overlay and shadow views refresh from the human view.
//
// If the human and shadow views ever disagree on line count, the human
// view wins and the shadow view is regenerated in full.
package viewsync
