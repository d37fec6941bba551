// Package history provides undo/redo for the human view.
//
// Edits are captured as commands with Apply and Revert methods. The
// History type manages the undo and redo stacks and supports grouping:
// commands pushed between BeginGroup and EndGroup coalesce into a single
// undo step. The view synchronizer uses a group per continuous text
// insertion session so an entire burst of overlay mutations undoes as
// one step, while discrete commands (delete-cell, paste) each stand
// alone.
//
// There is exactly one history per document, owned by the synchronizer;
// the edit overlay has no history of its own.
package history
