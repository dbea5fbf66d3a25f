// Package retriever turns a user query into ranked chunk hits and
// assembles the context string and source citations handed to generation.
package retriever

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sobiamehak/humanoid-robotic-book/internal/embedding"
	"github.com/sobiamehak/humanoid-robotic-book/internal/storage"
)

// Searcher is the vector-index boundary the retriever depends on.
type Searcher interface {
	Search(ctx context.Context, vector []float32, topK int) ([]storage.RetrievalHit, error)
}

// Source is one citation: the section title and site link of a hit.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Retriever embeds queries and searches the index. An index or embedding
// failure degrades to an empty hit list; callers treat that as "no
// information found", never as a request-fatal error.
type Retriever struct {
	embedder embedding.Provider
	fallback embedding.Provider
	searcher Searcher
	logger   *slog.Logger
}

// New creates a Retriever. fallback may be nil; when set it is used for
// query embedding only after the primary provider fails, which is the one
// explicit opt-in to degraded-mode vectors.
func New(embedder embedding.Provider, fallback embedding.Provider, searcher Searcher, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		embedder: embedder,
		fallback: fallback,
		searcher: searcher,
		logger:   logger,
	}
}

// Retrieve returns the topK highest-similarity hits for the query, in
// descending score order with full metadata preserved.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]storage.RetrievalHit, error) {
	if r.searcher == nil {
		r.logger.Warn("No index configured, returning no hits", "query_prefix", prefix(query))
		return nil, nil
	}

	vector, err := r.embedQuery(ctx, query)
	if err != nil {
		r.logger.Warn("Query embedding failed, returning no hits",
			"query_prefix", prefix(query), "error", err)
		return nil, nil
	}

	hits, err := r.searcher.Search(ctx, vector, topK)
	if err != nil {
		r.logger.Warn("Index search failed, returning no hits",
			"query_prefix", prefix(query), "error", err)
		return nil, nil
	}
	return hits, nil
}

// embedQuery embeds through the primary provider, then through the
// explicit fallback if one was configured.
func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	vector, err := embedding.EmbedOne(ctx, r.embedder, query)
	if err == nil {
		return vector, nil
	}
	if r.fallback == nil {
		return nil, err
	}
	r.logger.Warn("Embedding provider failed, using degraded fallback vectors", "error", err)
	return embedding.EmbedOne(ctx, r.fallback, query)
}

// BuildContext joins hit texts in ranking order with blank-line separators
// and collects sources, deduplicated by (title, url) with first-seen order
// preserved. Empty hits yield ("", nil): no information found, not an error.
func BuildContext(hits []storage.RetrievalHit) (string, []Source) {
	if len(hits) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(hits))
	var sources []Source
	seen := make(map[Source]bool)

	for _, hit := range hits {
		parts = append(parts, hit.Text)
		source := Source{
			Title: hit.Metadata.SectionTitle,
			URL:   hit.Metadata.SourceURL,
		}
		if !seen[source] {
			seen[source] = true
			sources = append(sources, source)
		}
	}
	return strings.Join(parts, "\n\n"), sources
}

// prefix trims a query for logging so full user content stays out of logs.
func prefix(query string) string {
	if len(query) > 50 {
		return query[:50]
	}
	return query
}
