package notebook

import "strings"

// Marker lines delimit cells in the document's line form. Code cells use
// the bare percent marker; markdown and raw cells carry a kind tag.
const (
	markerCode     = "# %%"
	markerMarkdown = "# %% [markdown]"
	markerRaw      = "# %% [raw]"
)

// MarkerFor returns the marker header line for a cell kind.
func MarkerFor(kind CellKind) string {
	switch kind {
	case KindMarkdown:
		return markerMarkdown
	case KindRaw:
		return markerRaw
	default:
		return markerCode
	}
}

// ParseMarker reports whether line is a cell marker and, if so, the kind
// it introduces. Trailing whitespace is ignored; anything after the kind
// tag disqualifies the line.
func ParseMarker(line string) (CellKind, bool) {
	trimmed := strings.TrimRight(line, " \t")
	switch trimmed {
	case markerCode:
		return KindCode, true
	case markerMarkdown:
		return KindMarkdown, true
	case markerRaw:
		return KindRaw, true
	default:
		return KindCode, false
	}
}

// parsedCell is an intermediate cell derived from raw lines.
type parsedCell struct {
	kind   CellKind
	source []string
}

// parseLines splits raw line content into parsed cells. Lines before the
// first marker are treated as a leading code cell so that no content is
// ever dropped.
func parseLines(lines []string) []parsedCell {
	var cells []parsedCell
	var current *parsedCell

	for _, line := range lines {
		if kind, ok := ParseMarker(line); ok {
			cells = append(cells, parsedCell{kind: kind})
			current = &cells[len(cells)-1]
			continue
		}
		if current == nil {
			cells = append(cells, parsedCell{kind: KindCode})
			current = &cells[len(cells)-1]
		}
		current.source = append(current.source, line)
	}

	return cells
}
