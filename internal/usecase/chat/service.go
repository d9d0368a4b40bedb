// Package chat composes retrieved evidence, session history, and the
// generative model into user-facing responses.
package chat

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-cloud/chatdex/internal/domain"
)

// FailureResponse is returned to the user when the generative model call
// fails. Generation failure is never surfaced as a raw error.
const FailureResponse = "Sorry, there was an error processing your request. Please try again later."

// Answer is the result of one chat turn.
type Answer struct {
	Response      string
	Evidence      []domain.ScoredChunk
	Explanation   *domain.Explanation
	RetrievalTime time.Duration
}

// Service handles chat response composition.
type Service struct {
	retriever Retriever
	sessions  Sessions
	generator domain.Generator
	explainer Explainer
	persona   string
	logger    *zap.Logger
}

// New creates a chat service. explainer may be nil when explanations are
// disabled entirely.
func New(
	retriever Retriever, sessions Sessions, generator domain.Generator,
	explainer Explainer, persona string, logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		retriever: retriever,
		sessions:  sessions,
		generator: generator,
		explainer: explainer,
		persona:   persona,
		logger:    logger,
	}
}

// Respond answers a question within a session: retrieve evidence, compose
// the system instruction, invoke the model, and record both turns.
func (s *Service) Respond(ctx context.Context, question, sessionID string, explain bool) (Answer, error) {
	if strings.TrimSpace(question) == "" {
		return Answer{}, domain.ErrEmptyQuestion
	}
	if sessionID == "" {
		sessionID = domain.DefaultSessionID
	}

	evidence, elapsed := s.retriever.Retrieve(ctx, question, sessionID)

	s.sessions.Append(sessionID, domain.RoleUser, question)
	history := s.sessions.Format(sessionID)

	system := buildSystemPrompt(s.persona, domain.Contents(evidence), history)

	response := FailureResponse
	result, err := s.generator.Generate(ctx, system, question)
	if err != nil {
		s.logger.Error("generation failed, returning failure response",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	} else {
		response = result.Text
	}

	s.sessions.Append(sessionID, domain.RoleAssistant, response)

	answer := Answer{
		Response:      response,
		Evidence:      evidence,
		RetrievalTime: elapsed,
	}

	if explain && s.explainer != nil {
		exp := s.explainer.Explain(ctx, question, evidence, history, response)
		answer.Explanation = &exp
	}

	return answer, nil
}

// RetrieveEvidence exposes ranked evidence without generating a response,
// for callers that only display sources.
func (s *Service) RetrieveEvidence(ctx context.Context, question, sessionID string) ([]domain.ScoredChunk, time.Duration, error) {
	if strings.TrimSpace(question) == "" {
		return nil, 0, domain.ErrEmptyQuestion
	}
	if sessionID == "" {
		sessionID = domain.DefaultSessionID
	}
	evidence, elapsed := s.retriever.Retrieve(ctx, question, sessionID)
	return evidence, elapsed, nil
}
