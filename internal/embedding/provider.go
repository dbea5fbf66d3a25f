// Package embedding converts text into fixed-dimension vectors through a
// pluggable provider. The ingestion path aborts loudly when the provider is
// unavailable; query-time callers may opt into an explicit degraded
// fallback (see HashProvider) but the adapter never swaps one in silently.
package embedding

import (
	"context"
	"fmt"
)

// Provider generates one vector per input text, preserving input order.
// Dimension is a provider property; callers must not assume one dimension
// across providers, and a vector collection must be built from exactly one.
type Provider interface {
	// Embed returns len(texts) vectors in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension reports the fixed vector size this provider produces.
	Dimension() int
}

// EmbedOne embeds a single text through a provider.
func EmbedOne(ctx context.Context, p Provider, text string) ([]float32, error) {
	vectors, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for 1 text", ErrUnavailable, len(vectors))
	}
	return vectors[0], nil
}
