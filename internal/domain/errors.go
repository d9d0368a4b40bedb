package domain

import "errors"

var (
	// ErrStoreUnavailable signals a vector store failure.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrGenerationFailed signals a generative model failure.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrEmptyQuestion signals a blank or missing question.
	ErrEmptyQuestion = errors.New("question is required")
	// ErrEmptyDocument signals a blank ingestion payload.
	ErrEmptyDocument = errors.New("document content is required")
)
