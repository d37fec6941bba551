// Package notebook implements the cell-structured document model.
//
// A Document is an ordered sequence of Cells. Each cell has a stable,
// globally unique ID, a kind (code, markdown, or raw), and a source made
// of text lines. Outputs and metadata are opaque payloads owned by the
// serialization and execution collaborators; the document stores them
// without interpretation.
//
// # Line form
//
// The document renders to a line-based textual form in which every cell
// occupies one marker header line followed by its source lines:
//
//	# %%
//	x = 1
//	# %% [markdown]
//	Some prose.
//
// The same marker grammar drives Reconcile, the recovery path that
// re-derives the cell list from raw line content after a bulk edit
// (undo/redo, large paste). Reconcile matches cells by exact content
// first so that IDs survive edits that did not touch a cell, then falls
// back to positional matching, and mints a new ID only when no match
// exists.
//
// # Invariants
//
//   - Exactly one cell occupies any given line range of the line form.
//   - Cells are totally ordered.
//   - A cell ID is immutable for the cell's lifetime and is never
//     duplicated or silently dropped by a document mutation.
package notebook
