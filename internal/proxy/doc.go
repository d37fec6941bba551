// Package proxy makes an LSP-style analysis backend believe it is
// talking to one plain-text document while all user-facing interaction
// happens through the notebook's human view or its edit overlay.
//
// Outgoing requests carrying a position in the human view or the
// overlay are rewritten to reference the shadow view before dispatch,
// keeping the same line number, which is valid because the two views
// share a 1:1 line mapping. Incoming responses that embed the shadow document's
// identity are rewritten back: navigation results (go to definition and
// friends) take the direct strategy and point at the human view itself;
// list results (find references) take the indirect strategy and point
// at a virtual preview identity that renders the human view's content
// without mutating it. Rewriting is recursive over arbitrary result
// shapes; malformed payloads pass through unrewritten so partial
// functionality degrades instead of disappearing.
//
// Diagnostics published against the shadow view are filtered (anything
// landing in a non-code cell region is dropped) and re-published
// against the human view at the same lines. Range-based edit results
// (format, rename) are applied to an in-memory copy first and then
// pushed through the view synchronizer, bottom of the document first.
//
// Replies are correlated by request id. A reply that arrives after its
// overlay closed, or after a newer request of the same interactive
// class was issued, is discarded. With no backend attached every proxy
// operation is a no-op, not an error.
package proxy
