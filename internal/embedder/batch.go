package embedder

import (
	"context"
	"fmt"

	"github.com/srijanshukla18/wiki-in-a-box/pkg/types"
)

// EmbedTexts embeds texts in batches of DefaultBatchSize and returns one unit
// vector per text, in order. Every vector has the same dimension; any
// provider failure or inconsistency is reported as types.ErrEncoding.
func EmbedTexts(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: %v", types.ErrEncoding, ErrNoProviderEnabled)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	dim := e.Dimension()

	for start := 0; start < len(texts); start += DefaultBatchSize {
		end := min(start+DefaultBatchSize, len(texts))

		resp, err := e.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: texts[start:end]})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", types.ErrEncoding, err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("%w: got %d embeddings for %d texts", types.ErrEncoding, len(resp.Embeddings), end-start)
		}

		for _, emb := range resp.Embeddings {
			if dim == 0 {
				dim = len(emb.Vector)
			}
			if len(emb.Vector) == 0 || len(emb.Vector) != dim {
				return nil, fmt.Errorf("%w: %w: want %d, got %d", types.ErrEncoding, ErrDimensionMismatch, dim, len(emb.Vector))
			}
			out = append(out, NormalizeVector(emb.Vector))
		}
	}

	return out, nil
}

// EmbedQuery embeds a single text as a unit vector
func EmbedQuery(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := EmbedTexts(ctx, e, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
