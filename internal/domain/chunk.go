package domain

// KeyPrefix namespaces all chatdex keys in the store.
const KeyPrefix = "chatdex:"

// Metadata keys attached to every chunk at ingestion time.
const (
	MetaSource   = "source"
	MetaFileName = "file_name"
)

// Chunk is the atomic unit of retrievable evidence: a bounded slice of source
// document text plus opaque metadata. Chunks are created once at ingestion and
// never mutated by the retrieval path.
type Chunk struct {
	ID       string
	Content  string
	Metadata map[string]string
	// Vector is set during ingestion for persistence; it is not
	// rehydrated on reads and never exposed to clients.
	Vector []float32
}

// ScoredChunk pairs a chunk with its cosine similarity against the query
// embedding. Produced transiently by the ranker; lifetime is one retrieval.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Contents extracts the chunk texts from a scored list, in order.
func Contents(scored []ScoredChunk) []string {
	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = s.Chunk.Content
	}
	return out
}
