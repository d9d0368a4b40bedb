// Package chatdex embeds the retrieval-and-chat engine in a Go process,
// without the HTTP server. The caller supplies model providers; storage
// and session state are wired internally.
package chatdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-cloud/chatdex/internal/chunker"
	dbRedis "github.com/meridian-cloud/chatdex/internal/db/redis"
	"github.com/meridian-cloud/chatdex/internal/domain"
	"github.com/meridian-cloud/chatdex/internal/gate"
	chunkrepo "github.com/meridian-cloud/chatdex/internal/repository/chunk"
	"github.com/meridian-cloud/chatdex/internal/session"
	chatuc "github.com/meridian-cloud/chatdex/internal/usecase/chat"
	ingestuc "github.com/meridian-cloud/chatdex/internal/usecase/ingest"
	retrievaluc "github.com/meridian-cloud/chatdex/internal/usecase/retrieval"
)

const defaultReadinessTimeout = 10 * time.Second

// EmbeddingResult carries an embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder vectorizes text. Implementations must be deterministic for
// identical input and model configuration.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// Generator maps a (system, user) prompt pair to text.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Evidence is one retrieved chunk with its relevance score.
type Evidence struct {
	Content  string
	Score    float64
	Metadata map[string]string
}

// Explanation describes how an answer was produced.
type Explanation struct {
	Summary     string
	KeyPoints   []string
	Sources     []string
	Confidence  string
	Limitations string
}

// Answer is the result of one chat turn. Explanation is set only when the
// client was built with WithExplanations.
type Answer struct {
	Response      string
	Evidence      []Evidence
	Explanation   *Explanation
	RetrievalTime time.Duration
}

// Client is the chatdex embedded entry point.
type Client struct {
	store     *dbRedis.Store
	chatSvc   *chatuc.Service
	ingestSvc *ingestuc.Service
	retrieval *retrievaluc.Service
	explain   bool
}

// New creates a chatdex Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("chatdex: database address required (use WithRedis)")
	}
	if cfg.embedder == nil {
		return nil, errors.New("chatdex: embedder required (use WithEmbedder)")
	}
	if cfg.generator == nil {
		return nil, errors.New("chatdex: generator required (use WithGenerator)")
	}
	if cfg.dimensions <= 0 {
		return nil, errors.New("chatdex: vector dimensions required (use WithDimensions)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("chatdex: create store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("chatdex: database not ready: %w", err)
	}

	c, err := wireClient(ctx, store, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(ctx context.Context, store *dbRedis.Store, cfg *clientConfig) (*Client, error) {
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	repo := chunkrepo.New(store, cfg.dimensions)
	if cfg.hnswM > 0 || cfg.hnswEFConstruct > 0 {
		repo = repo.WithHNSW(chunkrepo.HNSWConfig{
			M:           cfg.hnswM,
			EFConstruct: cfg.hnswEFConstruct,
		})
	}
	if err := repo.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("chatdex: ensure index: %w", err)
	}

	splitter, err := chunker.New(cfg.chunkSize, cfg.chunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("chatdex: chunking config: %w", err)
	}

	embedder := &embedderAdapter{inner: cfg.embedder}
	generator := &generatorAdapter{inner: cfg.generator}

	keywordGate := gate.New(cfg.keywords, cfg.gateThreshold)
	sessions := session.NewStore(cfg.maxHistoryPairs, logger)

	retrievalSvc := retrievaluc.New(repo, keywordGate, embedder, cfg.topK, logger)

	var explainer chatuc.Explainer
	if cfg.explain {
		explainer = chatuc.NewModelExplainer(generator, logger)
	}
	chatSvc := chatuc.New(retrievalSvc, sessions, generator, explainer, cfg.persona, logger)
	ingestSvc := ingestuc.New(splitter, embedder, repo, logger)

	return &Client{
		store:     store,
		chatSvc:   chatSvc,
		ingestSvc: ingestSvc,
		retrieval: retrievalSvc,
		explain:   cfg.explain,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Chat answers a question within a session.
func (c *Client) Chat(ctx context.Context, question, sessionID string) (Answer, error) {
	answer, err := c.chatSvc.Respond(ctx, question, sessionID, c.explain)
	if err != nil {
		return Answer{}, fmt.Errorf("chat: %w", err)
	}
	out := Answer{
		Response:      answer.Response,
		Evidence:      fromScored(answer.Evidence),
		RetrievalTime: answer.RetrievalTime,
	}
	if answer.Explanation != nil {
		out.Explanation = &Explanation{
			Summary:     answer.Explanation.Summary,
			KeyPoints:   answer.Explanation.KeyPoints,
			Sources:     answer.Explanation.Sources,
			Confidence:  answer.Explanation.Confidence,
			Limitations: answer.Explanation.Limitations,
		}
	}
	return out, nil
}

// Retrieve returns ranked evidence without generating a response.
func (c *Client) Retrieve(ctx context.Context, question, sessionID string) ([]Evidence, error) {
	scored, _, err := c.chatSvc.RetrieveEvidence(ctx, question, sessionID)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	return fromScored(scored), nil
}

// Ingest splits a document into chunks, embeds them, and stores the batch.
// Returns the number of chunks stored.
func (c *Client) Ingest(ctx context.Context, content, source, fileName string) (int, error) {
	n, err := c.ingestSvc.Ingest(ctx, content, source, fileName)
	if err != nil {
		return 0, fmt.Errorf("ingest: %w", err)
	}
	return n, nil
}

func fromScored(scored []domain.ScoredChunk) []Evidence {
	out := make([]Evidence, len(scored))
	for i, sc := range scored {
		out[i] = Evidence{
			Content:  sc.Chunk.Content,
			Score:    sc.Score,
			Metadata: sc.Chunk.Metadata,
		}
	}
	return out
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// generatorAdapter wraps the public Generator to satisfy internal domain.Generator.
type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Generate(ctx context.Context, system, user string) (domain.GenerationResult, error) {
	text, err := a.inner.Generate(ctx, system, user)
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("generate: %w", err)
	}
	return domain.GenerationResult{Text: text}, nil
}
