package anchor

import (
	"testing"

	"github.com/notebridge/notebridge/internal/notebook"
)

// threeCellDoc builds:
//
//	line 0: # %%            (cell A)
//	line 1: a1
//	line 2: a2
//	line 3: # %% [markdown] (cell B)
//	line 4: b1
//	line 5: # %%            (cell C)
//	line 6: c1
func threeCellDoc(t *testing.T) (*notebook.Document, []notebook.CellID) {
	t.Helper()
	a := notebook.NewCell(notebook.KindCode, []string{"a1", "a2"})
	b := notebook.NewCell(notebook.KindMarkdown, []string{"b1"})
	c := notebook.NewCell(notebook.KindCode, []string{"c1"})
	doc := notebook.NewDocument("python", []*notebook.Cell{a, b, c})
	return doc, []notebook.CellID{a.ID, b.ID, c.ID}
}

func TestPlace_And_CellAt(t *testing.T) {
	doc, ids := threeCellDoc(t)
	tr := NewTracker()
	tr.Place(doc)

	tests := []struct {
		line int
		want notebook.CellID
		ok   bool
	}{
		{0, ids[0], true},
		{1, ids[0], true},
		{2, ids[0], true},
		{3, ids[1], true},
		{4, ids[1], true},
		{5, ids[2], true},
		{6, ids[2], true},
		{7, "", false},
		{-1, "", false},
	}

	for _, tt := range tests {
		got, ok := tr.CellAt(tt.line)
		if ok != tt.ok || got != tt.want {
			t.Errorf("CellAt(%d) = (%s, %v), want (%s, %v)", tt.line, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRangeOf(t *testing.T) {
	doc, ids := threeCellDoc(t)
	tr := NewTracker()
	tr.Place(doc)

	tests := []struct {
		id   notebook.CellID
		want Range
	}{
		{ids[0], Range{0, 2}},
		{ids[1], Range{3, 4}},
		{ids[2], Range{5, 6}},
	}

	for i, tt := range tests {
		got, ok := tr.RangeOf(tt.id)
		if !ok {
			t.Fatalf("cell %d: RangeOf returned none", i)
		}
		if got != tt.want {
			t.Errorf("cell %d: RangeOf = %+v, want %+v", i, got, tt.want)
		}
	}
}

func TestContentRangeOf_ExcludesMarker(t *testing.T) {
	doc, ids := threeCellDoc(t)
	tr := NewTracker()
	tr.Place(doc)

	got, ok := tr.ContentRangeOf(ids[0])
	if !ok {
		t.Fatal("ContentRangeOf returned none")
	}
	if (got != Range{1, 2}) {
		t.Errorf("ContentRangeOf = %+v, want {1 2}", got)
	}
}

func TestContentRangeOf_EmptyCell(t *testing.T) {
	c := notebook.NewCell(notebook.KindCode, nil)
	doc := notebook.NewDocument("python", []*notebook.Cell{c})
	tr := NewTracker()
	tr.Place(doc)

	got, ok := tr.ContentRangeOf(c.ID)
	if !ok {
		t.Fatal("ContentRangeOf returned none")
	}
	if !got.Empty() {
		t.Errorf("expected empty content range, got %+v", got)
	}
}

func TestInvalidate_AnswersNone(t *testing.T) {
	doc, ids := threeCellDoc(t)
	tr := NewTracker()
	tr.Place(doc)

	tr.Invalidate(ids[1])

	if tr.Valid(ids[1]) {
		t.Error("Valid returned true for invalidated anchor")
	}
	if _, ok := tr.RangeOf(ids[1]); ok {
		t.Error("RangeOf returned coordinates for invalidated anchor")
	}
	// Lines previously owned by B now resolve to the nearest valid
	// anchor at or before them, which is A.
	if got, ok := tr.CellAt(4); !ok || got != ids[0] {
		t.Errorf("CellAt(4) = (%s, %v), want cell A", got, ok)
	}
	// A's range now extends to B's old region since B's anchor no
	// longer terminates it.
	if got, _ := tr.RangeOf(ids[0]); (got != Range{0, 4}) {
		t.Errorf("RangeOf(A) = %+v, want {0 4}", got)
	}
}

func TestAdjustForEdit_InsertInsideCell(t *testing.T) {
	doc, ids := threeCellDoc(t)
	tr := NewTracker()
	tr.Place(doc)

	// Insert two lines inside cell A's content (at line 2). Anchors at
	// or before line 2 stay; later anchors shift down.
	tr.AdjustForEdit(2, 2)

	if a, _ := tr.AnchorFor(ids[0]); a.Line != 0 {
		t.Errorf("anchor A moved to %d", a.Line)
	}
	if b, _ := tr.AnchorFor(ids[1]); b.Line != 5 {
		t.Errorf("anchor B = %d, want 5", b.Line)
	}
	if c, _ := tr.AnchorFor(ids[2]); c.Line != 7 {
		t.Errorf("anchor C = %d, want 7", c.Line)
	}
	if tr.LineCount() != 9 {
		t.Errorf("line count = %d, want 9", tr.LineCount())
	}
}

func TestAdjustForEdit_GravityAtInsertionPoint(t *testing.T) {
	doc, ids := threeCellDoc(t)
	tr := NewTracker()
	tr.Place(doc)

	// Insert exactly at cell B's start anchor. Left-sticky anchors stay
	// before the inserted text.
	tr.AdjustForEdit(3, 1)

	if b, _ := tr.AnchorFor(ids[1]); b.Line != 3 {
		t.Errorf("left-sticky anchor moved to %d on insert at its position", b.Line)
	}
	if c, _ := tr.AnchorFor(ids[2]); c.Line != 6 {
		t.Errorf("anchor C = %d, want 6", c.Line)
	}
}

func TestAdjustForEdit_Delete(t *testing.T) {
	doc, ids := threeCellDoc(t)
	tr := NewTracker()
	tr.Place(doc)

	// Delete lines 1-2 (cell A's content).
	tr.AdjustForEdit(1, -2)

	if a, _ := tr.AnchorFor(ids[0]); a.Line != 0 {
		t.Errorf("anchor A = %d, want 0", a.Line)
	}
	if b, _ := tr.AnchorFor(ids[1]); b.Line != 1 {
		t.Errorf("anchor B = %d, want 1", b.Line)
	}
	if tr.LineCount() != 5 {
		t.Errorf("line count = %d, want 5", tr.LineCount())
	}
}

func TestAdjustForEdit_DeleteSpanningAnchor(t *testing.T) {
	doc, ids := threeCellDoc(t)
	tr := NewTracker()
	tr.Place(doc)

	// Delete lines 2-4, which covers cell B's anchor at line 3. The
	// anchor clamps to the deletion start.
	tr.AdjustForEdit(2, -3)

	if b, _ := tr.AnchorFor(ids[1]); b.Line != 2 {
		t.Errorf("anchor B = %d, want clamp to 2", b.Line)
	}
	if c, _ := tr.AnchorFor(ids[2]); c.Line != 2 {
		t.Errorf("anchor C = %d, want 2", c.Line)
	}
}

func TestAnchorStability_InsertDoesNotMoveOtherCells(t *testing.T) {
	// Inserting strictly inside one cell's content range never changes
	// any earlier cell's start anchor.
	doc, ids := threeCellDoc(t)
	tr := NewTracker()
	tr.Place(doc)

	beforeA, _ := tr.AnchorFor(ids[0])

	// Insert inside cell C's content (line 6).
	tr.AdjustForEdit(6, 3)

	afterA, _ := tr.AnchorFor(ids[0])
	if beforeA.Line != afterA.Line {
		t.Errorf("cell A anchor moved: %d -> %d", beforeA.Line, afterA.Line)
	}
	afterB, _ := tr.AnchorFor(ids[1])
	if afterB.Line != 3 {
		t.Errorf("cell B anchor moved to %d", afterB.Line)
	}
}
