package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/docqa/internal/doctree"
	"github.com/dgallion1/docqa/internal/segment"
)

func TestLoadBytes_PlainTextUnchanged(t *testing.T) {
	input := "--- PAGE 1 ---\nGrace period is 30 days.\r\n"
	got, err := LoadBytes([]byte(input), "policy.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != input {
		t.Errorf("expected text unchanged, got %q", got)
	}
}

func TestLoadBytes_MarkdownSections(t *testing.T) {
	input := "Issued 2024.\n\n# Title\n\nIntro text.\n\n## Section A\n\nSection A content.\n\n### Subsection A1\n\nSubsection A1 content.\n"
	got, err := LoadBytes([]byte(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "Issued 2024.\n\n--- SECTION 1 [line 3] ---\nTitle\nIntro text.") {
		t.Errorf("unexpected start: %q", got)
	}
	if !strings.Contains(got, "--- SECTION 3 [line 11] ---\nTitle > Section A > Subsection A1\nSubsection A1 content.") {
		t.Errorf("expected nested heading path, got %q", got)
	}

	sections := segment.Segment(got)
	if len(sections) != 4 {
		t.Fatalf("expected preamble plus 3 sections, got %d", len(sections))
	}
	if sections[0].Normalized != "Issued 2024." {
		t.Errorf("expected preamble section first, got %q", sections[0].Normalized)
	}
	if sections[1].Normalized != "Title Intro text." {
		t.Errorf("expected marker label stripped from normalized text, got %q", sections[1].Normalized)
	}
}

func TestFlatten_MarkerLabels(t *testing.T) {
	tree := &doctree.DocTree{
		Locator: "row",
		Children: []*doctree.DocNode{
			{Title: "Rows 2-3", Text: "Benefit: Dental", Page: 2},
			{Title: "Notes", Text: "No position."},
		},
	}
	got := Flatten(tree)
	want := "--- SECTION 1 [row 2] ---\nRows 2-3\nBenefit: Dental\n\n--- SECTION 2 ---\nNotes\nNo position."
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	tree.Locator = "li]ne\n"
	if got := Flatten(tree); !strings.HasPrefix(got, "--- SECTION 1 [line 2] ---\n") {
		t.Errorf("expected brackets and newlines removed from label, got %q", got)
	}

	tree.Locator = ""
	if got := Flatten(tree); !strings.HasPrefix(got, "--- SECTION 1 ---\n") {
		t.Errorf("expected unlabelled marker without a locator, got %q", got)
	}
}

func TestLoadBytes_CSVRowLabels(t *testing.T) {
	got, err := LoadBytes([]byte("Benefit,Limit\nDental,5000\n"), "schedule.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sections := segment.Segment(got)
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d: %q", len(sections), got)
	}
	if !strings.HasPrefix(sections[0].Raw, "--- SECTION 1 [row 2] ---") {
		t.Errorf("expected row label on marker, got %q", sections[0].Raw)
	}
	if strings.Contains(sections[0].Normalized, "row 2") {
		t.Errorf("marker label leaked into normalized text: %q", sections[0].Normalized)
	}
}

func TestLoadBytes_Rejects(t *testing.T) {
	if _, err := LoadBytes([]byte("%PDF-1.7"), "policy.pdf"); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if _, err := LoadBytes([]byte{0xff, 0xfe, 0x00}, "policy.txt"); err == nil {
		t.Error("expected error for invalid UTF-8")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("Room rent is 1% of SI."), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Room rent is 1% of SI." {
		t.Errorf("unexpected text %q", got)
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestForFile(t *testing.T) {
	for _, name := range []string{"a.md", "b.MARKDOWN", "c.csv", "d.html", "e.htm"} {
		if _, err := ForFile(name); err != nil {
			t.Errorf("%s: unexpected error: %v", name, err)
		}
		if !IsSupportedExtension(name) {
			t.Errorf("%s: expected supported", name)
		}
	}
	if IsSupportedExtension("f.docx") {
		t.Error("docx should not be supported")
	}
}
