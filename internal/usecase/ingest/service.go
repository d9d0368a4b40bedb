// Package ingest turns raw document text into embedded, persisted chunks.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meridian-cloud/chatdex/internal/domain"
)

// Service handles document ingestion.
type Service struct {
	splitter Splitter
	embed    Embedder
	chunks   ChunkAdder
	logger   *zap.Logger
}

// New creates an ingestion service.
func New(splitter Splitter, embed Embedder, chunks ChunkAdder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{splitter: splitter, embed: embed, chunks: chunks, logger: logger}
}

// Ingest splits the document, embeds every chunk, and persists the batch.
// Returns the number of chunks stored. Unlike retrieval, ingestion failures
// are surfaced: a partially embedded document is not written.
func (s *Service) Ingest(ctx context.Context, content, source, fileName string) (int, error) {
	if strings.TrimSpace(content) == "" {
		return 0, domain.ErrEmptyDocument
	}

	parts := s.splitter.Split(content)
	if len(parts) == 0 {
		return 0, domain.ErrEmptyDocument
	}

	chunks := make([]domain.Chunk, 0, len(parts))
	for i, part := range parts {
		res, err := s.embed.Embed(ctx, part)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		chunks = append(chunks, domain.Chunk{
			ID:      uuid.NewString(),
			Content: part,
			Metadata: map[string]string{
				domain.MetaSource:   source,
				domain.MetaFileName: fileName,
			},
			Vector: res.Embedding,
		})
	}

	if err := s.chunks.Add(ctx, chunks); err != nil {
		return 0, fmt.Errorf("persist chunks: %w", err)
	}

	s.logger.Info("document ingested",
		zap.String("source", source),
		zap.String("file_name", fileName),
		zap.Int("chunks", len(chunks)),
	)
	return len(chunks), nil
}
