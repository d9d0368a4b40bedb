package chat

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/meridian-cloud/chatdex/internal/domain"
)

const explainInstruction = "You explain how an assistant's answer was produced. " +
	"Respond with a single JSON object with exactly these string fields: " +
	`"summary", "key_points" (array of strings), "sources" (array of strings), ` +
	`"confidence" (one of "high", "medium", "low"), "limitations". ` +
	"Respond with JSON only, no prose and no code fences."

// ModelExplainer asks the generative model for a structured explanation and
// parses the JSON reply. Any failure degrades to the fixed fallback record.
type ModelExplainer struct {
	generator domain.Generator
	logger    *zap.Logger
}

// NewModelExplainer creates a model-backed explainer.
func NewModelExplainer(generator domain.Generator, logger *zap.Logger) *ModelExplainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelExplainer{generator: generator, logger: logger}
}

// Explain implements Explainer.
func (e *ModelExplainer) Explain(
	ctx context.Context, question string, evidence []domain.ScoredChunk, history, response string,
) domain.Explanation {
	var b strings.Builder
	b.WriteString("Question:\n")
	b.WriteString(question)
	if len(evidence) > 0 {
		b.WriteString("\n\nEvidence used:\n")
		b.WriteString(strings.Join(domain.Contents(evidence), "\n\n"))
	}
	if history != "" {
		b.WriteString("\n\n")
		b.WriteString(history)
	}
	b.WriteString("\n\nAnswer given:\n")
	b.WriteString(response)

	result, err := e.generator.Generate(ctx, explainInstruction, b.String())
	if err != nil {
		e.logger.Warn("explanation generation failed, using fallback", zap.Error(err))
		return domain.FallbackExplanation()
	}

	exp, err := parseExplanation(result.Text)
	if err != nil {
		e.logger.Warn("explanation output unparseable, using fallback", zap.Error(err))
		return domain.FallbackExplanation()
	}
	return exp
}

// parseExplanation decodes the model reply, tolerating code fences around
// the JSON object.
func parseExplanation(text string) (domain.Explanation, error) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var exp domain.Explanation
	if err := json.Unmarshal([]byte(trimmed), &exp); err != nil {
		return domain.Explanation{}, err
	}
	if exp.Summary == "" {
		exp.Summary = domain.FallbackExplanation().Summary
	}
	return exp, nil
}
