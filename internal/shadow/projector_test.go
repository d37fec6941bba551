package shadow

import (
	"testing"

	"github.com/notebridge/notebridge/internal/notebook"
)

func TestProject_LineCountMatchesHumanView(t *testing.T) {
	doc := notebook.NewDocument("python", []*notebook.Cell{
		notebook.NewCell(notebook.KindCode, []string{"x = 1", "y = 2"}),
		notebook.NewCell(notebook.KindMarkdown, []string{"one", "two", "three"}),
		notebook.NewCell(notebook.KindRaw, nil),
		notebook.NewCell(notebook.KindCode, nil),
	})

	human := doc.Lines()
	shadowLines := Project(doc)

	if len(shadowLines) != len(human) {
		t.Fatalf("shadow has %d lines, human has %d", len(shadowLines), len(human))
	}
}

func TestProject_CodeVerbatimAfterPlaceholder(t *testing.T) {
	doc := notebook.NewDocument("python", []*notebook.Cell{
		notebook.NewCell(notebook.KindCode, []string{"import os", "print(os.getcwd())"}),
	})

	got := Project(doc)
	want := []string{Placeholder, "import os", "print(os.getcwd())"}
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestProject_MarkdownAllBlank(t *testing.T) {
	doc := notebook.NewDocument("python", []*notebook.Cell{
		notebook.NewCell(notebook.KindMarkdown, []string{"# Title", "prose"}),
	})

	got := Project(doc)
	if len(got) != 3 {
		t.Fatalf("got %d lines, want 3", len(got))
	}
	for i, line := range got {
		if line != "" {
			t.Errorf("line %d = %q, want blank", i, line)
		}
	}
}

func TestProjectRegion_CodeCell(t *testing.T) {
	c := notebook.NewCell(notebook.KindCode, []string{"old"})
	doc := notebook.NewDocument("python", []*notebook.Cell{c})

	got, err := ProjectRegion(doc, c.ID, []string{"new1", "new2"})
	if err != nil {
		t.Fatalf("ProjectRegion: %v", err)
	}
	want := []string{Placeholder, "new1", "new2"}
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestProjectRegion_NonCodeCellBlankRegardlessOfContent(t *testing.T) {
	c := notebook.NewCell(notebook.KindMarkdown, []string{"old"})
	doc := notebook.NewDocument("python", []*notebook.Cell{c})

	got, err := ProjectRegion(doc, c.ID, []string{"some", "markdown", "text"})
	if err != nil {
		t.Fatalf("ProjectRegion: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d lines, want 4", len(got))
	}
	for i, line := range got {
		if line != "" {
			t.Errorf("line %d = %q, want blank", i, line)
		}
	}
}

func TestProjectRegion_UnknownCell(t *testing.T) {
	doc := notebook.NewDocument("python", nil)
	if _, err := ProjectRegion(doc, "missing", nil); err != notebook.ErrCellNotFound {
		t.Errorf("expected ErrCellNotFound, got %v", err)
	}
}
