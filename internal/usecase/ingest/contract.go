package ingest

import (
	"context"

	"github.com/meridian-cloud/chatdex/internal/domain"
)

// Splitter breaks document text into bounded overlapping chunks.
type Splitter interface {
	Split(text string) []string
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// ChunkAdder persists chunks with their vectors.
type ChunkAdder interface {
	Add(ctx context.Context, chunks []domain.Chunk) error
}
