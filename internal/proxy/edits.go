package proxy

import (
	"sort"
	"strings"
)

// applyEditsToLines applies a set of text edits to a copy of lines and
// returns the result. Edits are applied bottom-up (descending start
// position) so earlier edits never invalidate the coordinates of later
// ones; the input slice is never mutated, so a failing edit leaves the
// caller's state untouched. Line numbers are relative to lines[0];
// character offsets are UTF-16 code units.
func applyEditsToLines(lines []string, edits []TextEdit) ([]string, error) {
	out := append([]string(nil), lines...)
	if len(edits) == 0 {
		return out, nil
	}

	ordered := append([]TextEdit(nil), edits...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return comparePositions(ordered[i].Range.Start, ordered[j].Range.Start) > 0
	})

	for _, e := range ordered {
		next, err := applyOneEdit(out, e)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

// applyOneEdit splices a single edit into lines.
func applyOneEdit(lines []string, e TextEdit) ([]string, error) {
	start, end := e.Range.Start, e.Range.End
	if comparePositions(start, end) > 0 {
		return nil, ErrInvalidEdit
	}
	if start.Line < 0 || start.Line > len(lines) {
		return nil, ErrInvalidEdit
	}

	// An edit ending at the first character of line N (exclusive) may
	// name N == len(lines); the range then covers a trailing newline
	// that line buffers do not store. Clamp to the end of the last line
	// and drop the replacement's trailing newline to match.
	newText := e.NewText
	if end.Line >= len(lines) {
		if len(lines) == 0 {
			lines = []string{""}
		}
		end.Line = len(lines) - 1
		end.Character = utf16Len(lines[end.Line])
		newText = strings.TrimSuffix(newText, "\n")
	}
	if start.Line >= len(lines) {
		start.Line = len(lines) - 1
		start.Character = utf16Len(lines[start.Line])
	}

	prefix := lines[start.Line][:utf16ToByteOffset(lines[start.Line], start.Character)]
	suffix := lines[end.Line][utf16ToByteOffset(lines[end.Line], end.Character):]

	spliced := strings.Split(prefix+newText+suffix, "\n")

	out := make([]string, 0, len(lines)-(end.Line-start.Line+1)+len(spliced))
	out = append(out, lines[:start.Line]...)
	out = append(out, spliced...)
	out = append(out, lines[end.Line+1:]...)
	return out, nil
}
