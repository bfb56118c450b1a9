package manuscript

import (
	"strings"
	"testing"
)

func TestTextParser_Paragraphs(t *testing.T) {
	input := "It was late.\nThe rain kept on.\n\nMira waited.\n\nNobody came."
	p := &TextParser{}
	m, err := p.Parse(strings.NewReader(input), "chapter-one.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.Title != "chapter-one" {
		t.Errorf("expected title %q, got %q", "chapter-one", m.Title)
	}
	want := []string{
		"It was late.\nThe rain kept on.",
		"Mira waited.",
		"Nobody came.",
	}
	if len(m.Sections) != len(want) {
		t.Fatalf("expected %d sections, got %d", len(want), len(m.Sections))
	}
	for i, w := range want {
		if m.Sections[i].Text != w {
			t.Errorf("section[%d]: expected %q, got %q", i, w, m.Sections[i].Text)
		}
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	m, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Sections) != 0 {
		t.Errorf("expected no sections, got %d", len(m.Sections))
	}
	if m.Body() != "" {
		t.Errorf("expected empty body, got %q", m.Body())
	}
}

func TestTextParser_BlankLineRuns(t *testing.T) {
	// Whitespace-only lines count as blank and runs collapse.
	input := "One.\n\n   \n\t\nTwo."
	p := &TextParser{}
	m, err := p.Parse(strings.NewReader(input), "gaps.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(m.Sections))
	}
	if got := m.Body(); got != "One.\n\nTwo." {
		t.Errorf("body = %q", got)
	}
}
