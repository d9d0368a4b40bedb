// Package retrieval implements the gated retrieve-and-rank pipeline:
// a keyword gate short-circuits off-topic questions, then candidates from
// the vector store are re-ranked by exact cosine similarity.
package retrieval

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-cloud/chatdex/internal/domain"
	"github.com/meridian-cloud/chatdex/internal/metrics"
)

// DefaultTopK bounds how many chunks a retrieval returns.
const DefaultTopK = 3

// Service handles evidence retrieval for chat questions.
type Service struct {
	searcher ChunkSearcher
	gate     Gate
	embed    Embedder
	topK     int
	logger   *zap.Logger
}

// New creates a retrieval service. topK <= 0 falls back to DefaultTopK.
func New(searcher ChunkSearcher, gate Gate, embed Embedder, topK int, logger *zap.Logger) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		searcher: searcher,
		gate:     gate,
		embed:    embed,
		topK:     topK,
		logger:   logger,
	}
}

// Retrieve returns up to topK chunks ranked best-first, plus elapsed wall
// time. Off-topic questions and infrastructure failures both yield an empty
// result; retrieval never returns an error to its caller.
func (s *Service) Retrieve(
	ctx context.Context, question, sessionID string,
) ([]domain.ScoredChunk, time.Duration) {
	start := time.Now()

	if !s.gate.InScope(question) {
		metrics.GateDecisionsTotal.WithLabelValues("rejected").Inc()
		s.logger.Debug("question gated out of scope",
			zap.String("session_id", sessionID),
		)
		return nil, 0
	}
	metrics.GateDecisionsTotal.WithLabelValues("accepted").Inc()

	queryRes, err := s.embed.Embed(ctx, question)
	if err != nil {
		metrics.RetrievalDegradedTotal.Inc()
		s.logger.Warn("query embedding failed, degrading to empty evidence",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, time.Since(start)
	}

	candidates, err := s.searcher.Search(ctx, queryRes.Embedding, s.topK)
	if err != nil {
		metrics.RetrievalDegradedTotal.Inc()
		s.logger.Warn("vector store search failed, degrading to empty evidence",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, time.Since(start)
	}

	scored := s.rank(ctx, queryRes.Embedding, candidates)
	if len(scored) > s.topK {
		scored = scored[:s.topK]
	}

	elapsed := time.Since(start)
	metrics.RetrievalDuration.Observe(elapsed.Seconds())

	s.logger.Debug("retrieval completed",
		zap.String("session_id", sessionID),
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", len(scored)),
		zap.Duration("elapsed", elapsed),
	)
	return scored, elapsed
}
