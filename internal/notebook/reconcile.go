package notebook

// Reconcile re-derives the cell list from raw line content. It is the
// recovery path after an external bulk edit (undo/redo, large paste)
// that changed many cells without per-edit hooks.
//
// Matching runs in two passes so that IDs survive wherever possible:
//
//  1. Exact match: a new cell whose kind and source equal an unconsumed
//     old cell adopts that cell's ID, outputs, and metadata.
//  2. Positional match: a still-unmatched new cell adopts the ID of the
//     unconsumed old cell at the same position if the kind agrees, then
//     falls back to the first unconsumed old cell of the same kind.
//
// A new ID is minted only when no match exists. Old cells with no match
// are dropped; their IDs leave the document permanently.
func (d *Document) Reconcile(lines []string) {
	parsed := parseLines(lines)
	if len(parsed) == 0 {
		parsed = []parsedCell{{kind: KindCode}}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	old := d.cells
	consumed := make([]bool, len(old))
	matched := make([]*Cell, len(parsed))

	// Pass 1: exact content equality.
	for pi, pc := range parsed {
		for oi, oc := range old {
			if consumed[oi] || !oc.sameContent(pc.kind, pc.source) {
				continue
			}
			consumed[oi] = true
			matched[pi] = oc
			break
		}
	}

	// Pass 2: positional, then same-kind fallback.
	for pi, pc := range parsed {
		if matched[pi] != nil {
			continue
		}
		if pi < len(old) && !consumed[pi] && old[pi].Kind == pc.kind {
			consumed[pi] = true
			matched[pi] = old[pi]
			continue
		}
		for oi, oc := range old {
			if consumed[oi] || oc.Kind != pc.kind {
				continue
			}
			consumed[oi] = true
			matched[pi] = oc
			break
		}
	}

	next := make([]*Cell, len(parsed))
	for pi, pc := range parsed {
		if oc := matched[pi]; oc != nil {
			oc.Kind = pc.kind
			oc.Source = append([]string(nil), pc.source...)
			next[pi] = oc
			continue
		}
		next[pi] = NewCell(pc.kind, pc.source)
	}

	d.cells = next
}
