package chunking

import (
	"strings"
	"testing"
)

func TestSplitterOverlap(t *testing.T) {
	s := NewSplitter(10, 4)

	chunks := s.Split("abcdefghijklmnopqrstuvwxyz")
	if len(chunks) == 0 {
		t.Fatalf("expected chunks")
	}
	for i, chunk := range chunks {
		if len([]rune(chunk)) > 10 {
			t.Fatalf("chunk %d exceeds size: %q", i, chunk)
		}
	}
	// Step is size minus overlap, so consecutive chunks share a suffix.
	if !strings.HasPrefix(chunks[1], chunks[0][6:]) {
		t.Fatalf("chunks do not overlap: %q then %q", chunks[0], chunks[1])
	}
}

func TestSplitterEmptyInput(t *testing.T) {
	s := NewSplitter(100, 10)
	if chunks := s.Split(""); chunks != nil {
		t.Fatalf("expected nil for empty input, got %v", chunks)
	}
	if chunks := s.Split("   \n  "); len(chunks) != 0 {
		t.Fatalf("expected no chunks for whitespace input, got %v", chunks)
	}
}

func TestSplitterNormalizesBadParameters(t *testing.T) {
	s := NewSplitter(0, 50)
	if s.ChunkSize <= 0 {
		t.Fatalf("chunk size not defaulted: %d", s.ChunkSize)
	}
	s = NewSplitter(100, 100)
	if s.Overlap >= s.ChunkSize {
		t.Fatalf("overlap not clamped: %d", s.Overlap)
	}
}

func TestMarkdownSplitterKeepsHeadingWithChunk(t *testing.T) {
	s := NewMarkdownSplitter(1000, 0)

	text := "intro text\n\n# Setup\ninstall the thing\n\n# Usage\nrun the thing"
	chunks := s.Split(text)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != "intro text" {
		t.Fatalf("preamble chunk wrong: %q", chunks[0])
	}
	if !strings.HasPrefix(chunks[1], "# Setup\n") || !strings.Contains(chunks[1], "install") {
		t.Fatalf("section chunk missing heading: %q", chunks[1])
	}
	if !strings.HasPrefix(chunks[2], "# Usage\n") {
		t.Fatalf("section chunk missing heading: %q", chunks[2])
	}
}

func TestMarkdownSplitterSizeSplitsLongSections(t *testing.T) {
	s := NewMarkdownSplitter(20, 0)

	text := "## Long\n" + strings.Repeat("word ", 20)
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected the section to be size-split, got %d chunks", len(chunks))
	}
	for i, chunk := range chunks {
		if !strings.HasPrefix(chunk, "## Long\n") {
			t.Fatalf("chunk %d lost its heading: %q", i, chunk)
		}
	}
}

func TestMarkdownSplitterIgnoresHashInsideText(t *testing.T) {
	s := NewMarkdownSplitter(1000, 0)

	chunks := s.Split("issue #42 is fixed")
	if len(chunks) != 1 || chunks[0] != "issue #42 is fixed" {
		t.Fatalf("inline hash treated as heading: %v", chunks)
	}
}
