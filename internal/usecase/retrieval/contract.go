package retrieval

import (
	"context"

	"github.com/meridian-cloud/chatdex/internal/domain"
)

// ChunkSearcher serves approximate nearest-neighbor candidates from the store.
type ChunkSearcher interface {
	Search(ctx context.Context, vector []float32, k int) ([]domain.Chunk, error)
}

// Gate decides whether a question is in scope for retrieval at all.
type Gate interface {
	InScope(question string) bool
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
