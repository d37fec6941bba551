// Package shadow derives the backend-facing code-only projection of a
// notebook document.
//
// The projection preserves a structural invariant: the shadow view has
// exactly the same line count as the human view, and line N in one
// corresponds to line N in the other. Code cells project as a blank
// placeholder line (the marker header slot) followed by their source
// verbatim; markdown and raw cells project as the same number of blank
// lines. Because the projection of a cell never needs cross-cell
// context beyond line counts, a single-cell resync costs O(edited cell
// size) rather than O(document size).
package shadow
