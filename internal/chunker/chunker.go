// Package chunker splits markdown documents into bounded, metadata-tagged
// chunks for indexing. Documents are partitioned at level-2 headings, then
// any oversized section is re-split under a token budget with overlapping
// windows so retrieval never loses context at a window edge.
package chunker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// Encoding is the tiktoken vocabulary used for all token accounting.
// Chunk-time and embedding-time budgets are only comparable because the
// whole deployment shares this one encoding.
const Encoding = "cl100k_base"

// Metadata describes where a chunk came from. Fields that cannot be
// resolved hold "unknown", never the empty string.
type Metadata struct {
	Chapter      string `json:"chapter"`
	Lesson       string `json:"lesson"`
	SectionTitle string `json:"section_title"`
	SourceURL    string `json:"source_url"`
	FilePath     string `json:"file_path"`
}

// Chunk is the atomic retrieval unit: a bounded run of document text plus
// its metadata. IDs are stable across re-ingestion of the same file with
// the same chunking parameters.
type Chunk struct {
	ID       string
	Text     string
	Metadata Metadata
}

// Chunker splits markdown files under a token budget.
type Chunker struct {
	parser        goldmark.Markdown
	enc           *tiktoken.Tiktoken
	maxTokens     int
	overlapTokens int
	docsRoot      string
}

// New creates a Chunker. overlapTokens must be strictly smaller than
// maxTokens or the sliding window would never advance.
func New(docsRoot string, maxTokens, overlapTokens int) (*Chunker, error) {
	if maxTokens < 1 {
		return nil, fmt.Errorf("max tokens must be at least 1, got %d", maxTokens)
	}
	if overlapTokens < 0 || overlapTokens >= maxTokens {
		return nil, fmt.Errorf("overlap tokens must be in [0, max tokens): got overlap=%d max=%d", overlapTokens, maxTokens)
	}
	enc, err := tiktoken.GetEncoding(Encoding)
	if err != nil {
		return nil, fmt.Errorf("load %s encoding: %w", Encoding, err)
	}
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &Chunker{
		parser:        md,
		enc:           enc,
		maxTokens:     maxTokens,
		overlapTokens: overlapTokens,
		docsRoot:      docsRoot,
	}, nil
}

// ChunkFile loads a markdown file and returns its chunks.
func (c *Chunker) ChunkFile(path string) ([]Chunk, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return c.ChunkContent(path, source)
}

// ChunkFiles chunks every file in order. No state crosses file boundaries.
func (c *Chunker) ChunkFiles(paths []string) ([]Chunk, error) {
	var all []Chunk
	for _, p := range paths {
		chunks, err := c.ChunkFile(p)
		if err != nil {
			return nil, err
		}
		all = append(all, chunks...)
	}
	return all, nil
}

// ChunkContent chunks already-loaded markdown. The path is used only for
// ids and metadata, so content fetched from a remote source can reuse it.
func (c *Chunker) ChunkContent(path string, source []byte) ([]Chunk, error) {
	sections := c.splitSections(source)

	var texts []string
	for _, sec := range sections {
		if len(c.enc.Encode(sec, nil, nil)) <= c.maxTokens {
			texts = append(texts, sec)
			continue
		}
		texts = append(texts, c.windowText(sec)...)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	chunks := make([]Chunk, 0, len(texts))
	for i, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		chunks = append(chunks, Chunk{
			ID:       fmt.Sprintf("%s_chunk_%d", stem, i),
			Text:     t,
			Metadata: c.extractMetadata(path, t),
		})
	}
	return chunks, nil
}

// splitSections partitions the document at level-2 headings. Text before
// the first heading is its own section; each heading carries its following
// text until the next level-2 heading or end of input. The goldmark AST is
// used to find boundaries so "##" inside fenced code blocks is not a split
// point. Empty sections are dropped.
func (c *Chunker) splitSections(source []byte) []string {
	doc := c.parser.Parser().Parse(text.NewReader(source))

	var offsets []int
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			h := n.(*ast.Heading)
			if h.Level == 2 && h.Lines().Len() > 0 {
				offsets = append(offsets, lineStart(source, h.Lines().At(0).Start))
			}
		}
		return ast.WalkContinue, nil
	})

	if len(offsets) == 0 {
		if sec := strings.TrimSpace(string(source)); sec != "" {
			return []string{sec}
		}
		return nil
	}

	var sections []string
	appendSection := func(start, end int) {
		if sec := strings.TrimSpace(string(source[start:end])); sec != "" {
			sections = append(sections, sec)
		}
	}
	appendSection(0, offsets[0])
	for i, start := range offsets {
		end := len(source)
		if i+1 < len(offsets) {
			end = offsets[i+1]
		}
		appendSection(start, end)
	}
	return sections
}

// windowText slides a window of maxTokens across the token sequence,
// advancing by (maxTokens - overlapTokens) per step. The final window takes
// the remaining tail and may be shorter.
func (c *Chunker) windowText(s string) []string {
	tokens := c.enc.Encode(s, nil, nil)
	var out []string
	start := 0
	for start < len(tokens) {
		end := start + c.maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		out = append(out, c.enc.Decode(tokens[start:end]))
		if end == len(tokens) {
			break
		}
		start = end - c.overlapTokens
	}
	return out
}

// CountTokens reports the token count of text under the shared encoding.
func (c *Chunker) CountTokens(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// extractMetadata derives chunk metadata from the file path and content.
// Chapter and lesson come from path components containing "chapter" or
// "lesson"; the section title is the first level-1 or level-2 heading in
// the chunk; the source URL is the docs-relative path with separators
// replaced by hyphens.
func (c *Chunker) extractMetadata(path, chunkText string) Metadata {
	meta := Metadata{
		Chapter:      "unknown",
		Lesson:       "unknown",
		SectionTitle: "unknown",
		SourceURL:    sourceURL(c.docsRoot, path),
		FilePath:     path,
	}

	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		lower := strings.ToLower(part)
		if strings.Contains(lower, "chapter") {
			meta.Chapter = part
		}
		if strings.Contains(lower, "lesson") {
			meta.Lesson = part
		}
	}
	if meta.Chapter == "unknown" {
		if parent := filepath.Base(filepath.Dir(path)); parent != "." && parent != string(filepath.Separator) {
			meta.Chapter = parent
		} else {
			meta.Chapter = "general"
		}
	}

	if title := firstHeadingTitle(c.parser, chunkText); title != "" {
		meta.SectionTitle = title
	}
	return meta
}

// firstHeadingTitle returns the first H1/H2 title in the text, or "".
func firstHeadingTitle(md goldmark.Markdown, chunkText string) string {
	source := []byte(chunkText)
	doc := md.Parser().Parse(text.NewReader(source))
	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil || len(tree.Items) == 0 {
		return ""
	}
	return string(tree.Items[0].Title)
}

// sourceURL converts a file path into a site link: the docs-root prefix is
// stripped, the extension dropped, and separators become hyphens.
func sourceURL(docsRoot, path string) string {
	rel := filepath.ToSlash(path)
	root := filepath.ToSlash(docsRoot)
	if root != "" {
		if idx := strings.Index(rel, root+"/"); idx >= 0 {
			rel = rel[idx+len(root)+1:]
		}
	}
	rel = strings.TrimPrefix(rel, "./")
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return "/" + strings.ReplaceAll(rel, "/", "-")
}

// lineStart walks back from pos to the start of its line. Goldmark heading
// segments begin after the "## " marker; splitting must keep the marker
// with the section.
func lineStart(source []byte, pos int) int {
	for pos > 0 && source[pos-1] != '\n' {
		pos--
	}
	return pos
}
