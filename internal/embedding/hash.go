package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// HashProvider is a degraded-mode provider: vectors are derived from a
// content hash, so they are fixed-dimension and stable per input but carry
// no semantic similarity. It exists so a deployment without an embedding
// key can still run end to end, and as the explicit query-time fallback a
// caller may opt into. It must never be selected silently.
type HashProvider struct {
	dimension int
}

// NewHash creates a degraded-mode provider with the given dimension, which
// must match the collection the vectors will be searched against.
func NewHash(dimension int) *HashProvider {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &HashProvider{dimension: dimension}
}

// Dimension reports the configured vector size.
func (p *HashProvider) Dimension() int {
	return p.dimension
}

// Embed derives one unit-length vector per text. Repeated calls with the
// same text produce the same vector.
func (p *HashProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = p.hashVector(text)
	}
	return vectors, nil
}

// hashVector expands a SHA-256 digest chain into the vector, then
// normalises so cosine scores stay in a sane range.
func (p *HashProvider) hashVector(text string) []float32 {
	vec := make([]float32, p.dimension)
	digest := sha256.Sum256([]byte(text))
	buf := digest[:]
	var block byte
	for i := 0; i < p.dimension; i++ {
		if len(buf) < 4 {
			// Chain on the full previous digest plus a block counter so
			// every block of the expansion stays text-dependent.
			block++
			digest = sha256.Sum256(append(digest[:], block))
			buf = digest[:]
		}
		raw := binary.BigEndian.Uint32(buf[:4])
		buf = buf[4:]
		// Map to [-1, 1).
		vec[i] = float32(raw)/float32(math.MaxUint32>>1) - 1
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
