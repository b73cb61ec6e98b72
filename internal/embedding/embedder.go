// Package embedding generates text embeddings for semantic topic extraction.
package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/CyanTarantula/trend-pulse/internal/config"
)

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	Name() string
}

// New builds the embedder selected by EMBEDDING_PROVIDER. It returns a nil
// Embedder when the provider is "none".
func New(cfg *config.Config) (Embedder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	switch cfg.EmbeddingProviderName() {
	case config.EmbeddingProviderNone:
		return nil, nil
	case config.EmbeddingProviderHTTP:
		return NewHTTPEmbedder(HTTPOptions{
			Endpoint:       cfg.EmbeddingEndpoint,
			RequestTimeout: cfg.EmbeddingTimeout,
		}), nil
	case config.EmbeddingProviderOpenAI:
		embedder, err := NewOpenAIEmbedder(OpenAIOptions{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			Model:          cfg.EmbeddingModel,
			RequestTimeout: cfg.EmbeddingTimeout,
		})
		if err != nil {
			return nil, err
		}
		return embedder, nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.EmbeddingProvider)
	}
}

// Probe embeds a short text once to confirm the backend is reachable and
// returns well-formed vectors.
func Probe(ctx context.Context, embedder Embedder) error {
	if embedder == nil {
		return fmt.Errorf("embedder is nil")
	}
	vectors, err := embedder.Embed(ctx, []string{"trend probe"})
	if err != nil {
		return fmt.Errorf("probe %s: %w", embedder.Name(), err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return fmt.Errorf("probe %s: empty embedding response", embedder.Name())
	}
	return nil
}

// CosineSimilarity returns the cosine of the angle between a and b. Zero
// magnitude vectors score 0.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same length: %d != %d", len(a), len(b))
	}

	var dot, aMagnitude, bMagnitude float64
	for i := range a {
		dot += a[i] * b[i]
		aMagnitude += a[i] * a[i]
		bMagnitude += b[i] * b[i]
	}
	if aMagnitude == 0 || bMagnitude == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(aMagnitude) * math.Sqrt(bMagnitude)), nil
}

func validateVectors(vectors [][]float64, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("embedding response count mismatch: requested=%d returned=%d", want, len(vectors))
	}
	for i, vector := range vectors {
		if len(vector) == 0 {
			return fmt.Errorf("embedding %d is empty", i)
		}
		for j, value := range vector {
			if math.IsNaN(value) || math.IsInf(value, 0) {
				return fmt.Errorf("embedding %d has non-finite value at index %d", i, j)
			}
		}
	}
	return nil
}

func nonEmpty(texts []string) bool {
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			return false
		}
	}
	return len(texts) > 0
}
