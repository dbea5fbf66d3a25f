package storage

import "github.com/sobiamehak/humanoid-robotic-book/internal/chunker"

// DefaultCollection is the Qdrant collection holding the textbook index.
const DefaultCollection = "textbook_content"

// PointPayload is what the index stores alongside each vector. It carries
// the chunk text and full metadata so sources can be rebuilt from a search
// result without a secondary lookup.
type PointPayload struct {
	Text       string
	Metadata   chunker.Metadata
	SourceFile string
}

// IndexedPoint is one vector plus payload, keyed by the stable chunk id.
// Upserting the same id again overwrites the point, so re-ingestion is
// idempotent rather than additive.
type IndexedPoint struct {
	ID      string
	Vector  []float32
	Payload PointPayload
}

// RetrievalHit is a scored search result. Hits are ephemeral, produced per
// query and never persisted.
type RetrievalHit struct {
	ChunkID  string
	Text     string
	Metadata chunker.Metadata
	Score    float64
}
