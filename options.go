package chatdex

import "go.uber.org/zap"

// Option configures the embedded client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs           []string
	password        string
	dimensions      int
	hnswM           int
	hnswEFConstruct int
	embedder        Embedder
	generator       Generator
	keywords        []string
	gateThreshold   int
	topK            int
	maxHistoryPairs int
	persona         string
	chunkSize       int
	chunkOverlap    int
	explain         bool
	logger          *zap.Logger
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		chunkSize:    1000,
		chunkOverlap: 200,
	}
}

// WithRedis sets the Redis connection parameters.
func WithRedis(addrs []string, password string) Option {
	return func(c *clientConfig) {
		c.addrs = addrs
		c.password = password
	}
}

// WithDimensions sets the embedding vector dimension. Required.
func WithDimensions(dim int) Option {
	return func(c *clientConfig) {
		c.dimensions = dim
	}
}

// WithHNSW sets HNSW index build parameters.
func WithHNSW(m, efConstruct int) Option {
	return func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	}
}

// WithEmbedder sets the embedding provider. Required.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithGenerator sets the generative model provider. Required.
func WithGenerator(g Generator) Option {
	return func(c *clientConfig) {
		c.generator = g
	}
}

// WithKeywords sets the gate vocabulary. An empty vocabulary rejects every
// question, skipping retrieval entirely.
func WithKeywords(keywords []string) Option {
	return func(c *clientConfig) {
		c.keywords = keywords
	}
}

// WithGateThreshold sets the fuzzy match threshold (0-100 scale).
func WithGateThreshold(threshold int) Option {
	return func(c *clientConfig) {
		c.gateThreshold = threshold
	}
}

// WithTopK bounds how many chunks a retrieval returns.
func WithTopK(k int) Option {
	return func(c *clientConfig) {
		c.topK = k
	}
}

// WithMaxHistoryPairs bounds how many user+assistant pairs a session retains.
func WithMaxHistoryPairs(pairs int) Option {
	return func(c *clientConfig) {
		c.maxHistoryPairs = pairs
	}
}

// WithPersona sets the assistant identity used in the system instruction.
func WithPersona(persona string) Option {
	return func(c *clientConfig) {
		c.persona = persona
	}
}

// WithChunking sets document split parameters for ingestion.
func WithChunking(size, overlap int) Option {
	return func(c *clientConfig) {
		c.chunkSize = size
		c.chunkOverlap = overlap
	}
}

// WithExplanations enables the model-backed explanation generator.
func WithExplanations() Option {
	return func(c *clientConfig) {
		c.explain = true
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}
