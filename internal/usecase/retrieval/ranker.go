package retrieval

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/meridian-cloud/chatdex/internal/domain"
)

// rank re-scores store candidates by exact cosine similarity against the
// query embedding and orders them best-first. Candidates whose embedding
// fails are dropped rather than failing the whole retrieval.
func (s *Service) rank(
	ctx context.Context, queryVec []float32, candidates []domain.Chunk,
) []domain.ScoredChunk {
	scored := make([]domain.ScoredChunk, 0, len(candidates))

	for _, c := range candidates {
		res, err := s.embed.Embed(ctx, c.Content)
		if err != nil {
			s.logger.Warn("candidate embedding failed, dropping candidate",
				zap.String("chunk_id", c.ID),
				zap.Error(err),
			)
			continue
		}
		scored = append(scored, domain.ScoredChunk{
			Chunk: c,
			Score: cosineSimilarity(queryVec, res.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// cosineSimilarity returns 0.0 when either vector has zero magnitude or the
// dimensions disagree, so degenerate inputs rank last instead of producing NaN.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
