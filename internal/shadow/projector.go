package shadow

import (
	"github.com/notebridge/notebridge/internal/notebook"
)

// Placeholder occupies the marker header slot of every cell in the
// shadow view. It must be a line the analysis backend ignores.
const Placeholder = ""

// Project derives the full shadow view from the document. The result
// has exactly as many lines as the document's line form.
func Project(doc *notebook.Document) []string {
	var lines []string
	for _, c := range doc.Cells() {
		lines = append(lines, projectCell(c.Kind, c.Source)...)
	}
	return lines
}

// ProjectRegion is the incremental form used on single-cell edits: it
// returns the replacement shadow lines for one cell given its new
// source. Non-code cells project to blank lines regardless of content.
func ProjectRegion(doc *notebook.Document, id notebook.CellID, newSource []string) ([]string, error) {
	cell, ok := doc.CellByID(id)
	if !ok {
		return nil, notebook.ErrCellNotFound
	}
	return projectCell(cell.Kind, newSource), nil
}

// projectCell emits the shadow lines for one cell: placeholder header
// plus verbatim source for code, all-blank of identical count otherwise.
func projectCell(kind notebook.CellKind, source []string) []string {
	lines := make([]string, 0, len(source)+1)
	lines = append(lines, Placeholder)
	if kind == notebook.KindCode {
		lines = append(lines, source...)
		return lines
	}
	for range source {
		lines = append(lines, "")
	}
	return lines
}
