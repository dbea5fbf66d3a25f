package chunker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkoukk/tiktoken-go"
)

func newTestChunker(t *testing.T, maxTokens, overlap int) *Chunker {
	t.Helper()
	c, err := New("docs", maxTokens, overlap)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestChunkContent_HeadingSplit(t *testing.T) {
	input := `Intro text before any heading.

## Balance Control

Balance control uses sensors and actuators.

## Gait Planning

Gait planning details here.
`

	c := newTestChunker(t, 1000, 100)
	chunks, err := c.ChunkContent("docs/chapter-1/overview.md", []byte(input))
	if err != nil {
		t.Fatalf("ChunkContent failed: %v", err)
	}

	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0].Text, "Intro text") {
		t.Errorf("Chunk 0 missing preamble text")
	}
	if !strings.HasPrefix(chunks[1].Text, "## Balance Control") {
		t.Errorf("Chunk 1 should start with its heading, got %q", chunks[1].Text[:30])
	}
	if chunks[1].Metadata.SectionTitle != "Balance Control" {
		t.Errorf("Chunk 1 SectionTitle: expected %q, got %q", "Balance Control", chunks[1].Metadata.SectionTitle)
	}
	if chunks[2].Metadata.SectionTitle != "Gait Planning" {
		t.Errorf("Chunk 2 SectionTitle: expected %q, got %q", "Gait Planning", chunks[2].Metadata.SectionTitle)
	}
}

func TestChunkContent_NoHeadings(t *testing.T) {
	input := "Just plain text content.\n\nNo headings anywhere.\n"

	c := newTestChunker(t, 1000, 100)
	chunks, err := c.ChunkContent("docs/notes.md", []byte(input))
	if err != nil {
		t.Fatalf("ChunkContent failed: %v", err)
	}

	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Metadata.SectionTitle != "unknown" {
		t.Errorf("Expected sentinel section title, got %q", chunks[0].Metadata.SectionTitle)
	}
}

func TestChunkContent_CodeFenceNotBoundary(t *testing.T) {
	input := "## Section One\n\nSome text.\n\n```\n## not a heading\n```\n\nMore text.\n"

	c := newTestChunker(t, 1000, 100)
	chunks, err := c.ChunkContent("docs/code.md", []byte(input))
	if err != nil {
		t.Fatalf("ChunkContent failed: %v", err)
	}

	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk (fence content is not a boundary), got %d", len(chunks))
	}
	if !strings.Contains(chunks[0].Text, "## not a heading") {
		t.Errorf("Fenced content missing from chunk")
	}
}

func TestChunkContent_TokenBudget(t *testing.T) {
	// A single section far over the budget must be windowed.
	input := "## Long Section\n\n" + strings.Repeat("balance control for bipedal robots ", 200)

	maxTokens := 100
	c := newTestChunker(t, maxTokens, 20)
	chunks, err := c.ChunkContent("docs/long.md", []byte(input))
	if err != nil {
		t.Fatalf("ChunkContent failed: %v", err)
	}

	if len(chunks) < 2 {
		t.Fatalf("Expected multiple windowed chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if n := c.CountTokens(chunk.Text); n > maxTokens {
			t.Errorf("Chunk %d has %d tokens, budget is %d", i, n, maxTokens)
		}
	}
}

func TestChunkContent_OverlapTokens(t *testing.T) {
	overlap := 10
	input := "## Windowed\n\n" + strings.Repeat("walking gait posture sensor ", 150)

	c := newTestChunker(t, 50, overlap)
	chunks, err := c.ChunkContent("docs/windowed.md", []byte(input))
	if err != nil {
		t.Fatalf("ChunkContent failed: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks, got %d", len(chunks))
	}

	enc, err := tiktoken.GetEncoding(Encoding)
	if err != nil {
		t.Fatalf("GetEncoding failed: %v", err)
	}

	// The head of each window after the first decodes the same tokens as
	// the tail of its predecessor.
	for i := 1; i < len(chunks); i++ {
		headTokens := enc.Encode(chunks[i].Text, nil, nil)
		if len(headTokens) < overlap {
			continue // final short window
		}
		shared := enc.Decode(headTokens[:overlap])
		if !strings.HasSuffix(chunks[i-1].Text, shared) {
			t.Errorf("Chunk %d does not end with the %d-token head of chunk %d", i-1, overlap, i)
		}
	}
}

func TestChunkFile_MetadataAndStableIDs(t *testing.T) {
	dir := t.TempDir()
	lessonDir := filepath.Join(dir, "docs", "chapter-3", "lesson-2")
	if err := os.MkdirAll(lessonDir, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	path := filepath.Join(lessonDir, "balance.md")
	content := "## Balance\n\nBalance is key for bipeds.\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	c := newTestChunker(t, 1000, 100)
	first, err := c.ChunkFile(path)
	if err != nil {
		t.Fatalf("ChunkFile failed: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(first))
	}

	meta := first[0].Metadata
	if meta.Chapter != "chapter-3" {
		t.Errorf("Chapter: expected %q, got %q", "chapter-3", meta.Chapter)
	}
	if meta.Lesson != "lesson-2" {
		t.Errorf("Lesson: expected %q, got %q", "lesson-2", meta.Lesson)
	}
	if meta.SourceURL != "/chapter-3-lesson-2-balance" {
		t.Errorf("SourceURL: expected %q, got %q", "/chapter-3-lesson-2-balance", meta.SourceURL)
	}
	if meta.FilePath != path {
		t.Errorf("FilePath: expected %q, got %q", path, meta.FilePath)
	}

	// Re-chunking the same file yields identical ids and text.
	second, err := c.ChunkFile(path)
	if err != nil {
		t.Fatalf("second ChunkFile failed: %v", err)
	}
	if len(second) != len(first) {
		t.Fatalf("Chunk count changed between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Text != second[i].Text {
			t.Errorf("Chunk %d not reproducible across runs", i)
		}
	}
	if first[0].ID != "balance_chunk_0" {
		t.Errorf("ID: expected %q, got %q", "balance_chunk_0", first[0].ID)
	}
}

func TestChunkFiles_Concatenation(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, 0, 2)
	for _, name := range []string{"a.md", "b.md"} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("## "+name+"\n\ncontent\n"), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		paths = append(paths, p)
	}

	c := newTestChunker(t, 1000, 100)
	chunks, err := c.ChunkFiles(paths)
	if err != nil {
		t.Fatalf("ChunkFiles failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0].Text, "a.md") || !strings.Contains(chunks[1].Text, "b.md") {
		t.Errorf("Chunks not in input file order")
	}
}

func TestNew_RejectsInvalidOverlap(t *testing.T) {
	if _, err := New("docs", 100, 100); err == nil {
		t.Error("Expected error for overlap == max tokens")
	}
	if _, err := New("docs", 100, 150); err == nil {
		t.Error("Expected error for overlap > max tokens")
	}
	if _, err := New("docs", 0, 0); err == nil {
		t.Error("Expected error for zero max tokens")
	}
}
