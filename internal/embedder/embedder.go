// Package embedder provides interfaces and implementations for text embedding,
// plus the persistent embedding cache used by the ranking pipeline.
package embedder

import (
	"context"
	"math"
	"strings"
)

// Role distinguishes how a text participates in similarity search. Some
// model families (E5) are trained with asymmetric prefixes and embed the
// same text differently depending on role.
type Role string

const (
	// RoleQuery marks the reference document being searched with.
	RoleQuery Role = "query"

	// RolePassage marks a corpus record being searched over.
	RolePassage Role = "passage"
)

// Embedder defines the interface for text embedding services.
// Implementations return L2-normalized vectors.
type Embedder interface {
	// Embed generates an embedding vector for a single text input.
	Embed(ctx context.Context, text string, role Role) ([]float32, error)

	// EmbedBatch generates embedding vectors for multiple text inputs.
	// Returns a slice of embeddings in the same order as the input texts.
	EmbedBatch(ctx context.Context, texts []string, role Role) ([][]float32, error)

	// Dimension returns the dimensionality of the embedding vectors.
	Dimension() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string
}

// ModelConfig holds configuration for a specific embedding model.
type ModelConfig struct {
	Dimension  int  // Embedding dimension
	RolePrefix bool // Whether the model expects query:/passage: input prefixes
}

// KnownModels maps embedding model names to their configurations.
var KnownModels = map[string]ModelConfig{
	"nomic-embed-text":  {Dimension: 768},
	"mxbai-embed-large": {Dimension: 1024},
	"all-minilm":        {Dimension: 384},
	"e5-base-v2":        {Dimension: 768, RolePrefix: true},
	"e5-large-v2":       {Dimension: 1024, RolePrefix: true},
}

// GetModelConfig returns the configuration for a model, or defaults if
// unknown. Unknown models in the E5 family still get role prefixing. The
// default dimension is advisory only: for models outside KnownModels the
// true width is whatever the runtime returns, and consumers must size
// against the actual vectors.
func GetModelConfig(modelName string) ModelConfig {
	if cfg, ok := KnownModels[modelName]; ok {
		return cfg
	}
	return ModelConfig{
		Dimension:  768,
		RolePrefix: needsRolePrefix(modelName),
	}
}

// needsRolePrefix reports whether the model family is trained with
// asymmetric query/passage prefixes.
func needsRolePrefix(modelName string) bool {
	return strings.Contains(strings.ToLower(modelName), "e5")
}

// ApplyRolePrefix prepends the role marker the model expects. It is a no-op
// for models that were not trained with prefixes.
func ApplyRolePrefix(modelName, text string, role Role) string {
	if !GetModelConfig(modelName).RolePrefix {
		return text
	}
	return string(role) + ": " + strings.TrimSpace(text)
}

// Normalize scales the vector to unit length in place and returns it.
// Zero vectors are returned unchanged.
func Normalize(vector []float32) []float32 {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vector
	}
	norm := math.Sqrt(sum)
	for i, v := range vector {
		vector[i] = float32(float64(v) / norm)
	}
	return vector
}
