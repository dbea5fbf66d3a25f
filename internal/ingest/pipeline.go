// Package ingest drives the indexing pipeline: discover markdown files,
// chunk them, embed the chunks, and upsert the vectors. One bad file never
// aborts a run; failures are counted and reported at the end.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/sobiamehak/humanoid-robotic-book/internal/chunker"
	"github.com/sobiamehak/humanoid-robotic-book/internal/embedding"
	"github.com/sobiamehak/humanoid-robotic-book/internal/storage"
)

// Upserter is the index boundary the pipeline writes to.
type Upserter interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, points []storage.IndexedPoint) error
}

// Document is one markdown file fetched from a non-filesystem source.
type Document struct {
	Path    string
	Content []byte
}

// Result summarizes one ingestion run.
type Result struct {
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Chunks     int      `json:"chunks"`
	Errors     []string `json:"errors,omitempty"`
}

// Pipeline chunks, embeds, and indexes markdown content.
type Pipeline struct {
	chunker  *chunker.Chunker
	embedder embedding.Provider
	store    Upserter
	logger   *slog.Logger
}

// New creates a Pipeline.
func New(ch *chunker.Chunker, embedder embedding.Provider, store Upserter, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		chunker:  ch,
		embedder: embedder,
		store:    store,
		logger:   logger,
	}
}

// IngestDir indexes every markdown file under root.
func (p *Pipeline) IngestDir(ctx context.Context, root string) (*Result, error) {
	paths, err := ListMarkdownFiles(root)
	if err != nil {
		return nil, fmt.Errorf("list markdown files: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no markdown files under %s", root)
	}
	return p.IngestFiles(ctx, paths)
}

// IngestFiles indexes the given files, continuing past per-file failures.
func (p *Pipeline) IngestFiles(ctx context.Context, paths []string) (*Result, error) {
	if err := p.store.EnsureCollection(ctx); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	result := &Result{}
	for _, path := range paths {
		chunks, err := p.chunker.ChunkFile(path)
		if err != nil {
			p.fail(result, path, err)
			continue
		}
		if err := p.indexChunks(ctx, path, chunks); err != nil {
			p.fail(result, path, err)
			continue
		}
		result.Successful++
		result.Chunks += len(chunks)
		p.logger.Info("Indexed file", "path", path, "chunks", len(chunks))
	}
	return result, nil
}

// IngestDocuments indexes in-memory documents, such as files fetched from a
// GitHub repository.
func (p *Pipeline) IngestDocuments(ctx context.Context, docs []Document) (*Result, error) {
	if err := p.store.EnsureCollection(ctx); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	result := &Result{}
	for _, doc := range docs {
		chunks, err := p.chunker.ChunkContent(doc.Path, doc.Content)
		if err != nil {
			p.fail(result, doc.Path, err)
			continue
		}
		if err := p.indexChunks(ctx, doc.Path, chunks); err != nil {
			p.fail(result, doc.Path, err)
			continue
		}
		result.Successful++
		result.Chunks += len(chunks)
		p.logger.Info("Indexed document", "path", doc.Path, "chunks", len(chunks))
	}
	return result, nil
}

func (p *Pipeline) fail(result *Result, path string, err error) {
	result.Failed++
	result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
	p.logger.Warn("Skipping file", "path", path, "error", err)
}

// indexChunks embeds one file's chunks and upserts them as a unit.
func (p *Pipeline) indexChunks(ctx context.Context, path string, chunks []chunker.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embed: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	points := make([]storage.IndexedPoint, len(chunks))
	for i, c := range chunks {
		points[i] = storage.IndexedPoint{
			ID:     c.ID,
			Vector: vectors[i],
			Payload: storage.PointPayload{
				Text:       c.Text,
				Metadata:   c.Metadata,
				SourceFile: path,
			},
		}
	}
	if err := p.store.Upsert(ctx, points); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

// ListMarkdownFiles walks root and returns every .md and .mdx file in
// lexical order.
func ListMarkdownFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".mdx":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
