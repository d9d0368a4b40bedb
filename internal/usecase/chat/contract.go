package chat

import (
	"context"
	"time"

	"github.com/meridian-cloud/chatdex/internal/domain"
)

// Retriever produces ranked evidence for a question. Never errors: retrieval
// degradation yields an empty list.
type Retriever interface {
	Retrieve(ctx context.Context, question, sessionID string) ([]domain.ScoredChunk, time.Duration)
}

// Sessions is the conversational history store contract.
type Sessions interface {
	Append(sessionID string, role domain.Role, content string)
	Format(sessionID string) string
}

// Explainer produces a structured explanation for a finished response.
// Implementations degrade to a fallback record instead of erroring.
type Explainer interface {
	Explain(ctx context.Context, question string, evidence []domain.ScoredChunk, history, response string) domain.Explanation
}
