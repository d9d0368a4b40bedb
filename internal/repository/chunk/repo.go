// Package chunk persists document chunks in the vector store and serves
// approximate nearest-neighbor candidates for retrieval.
package chunk

import (
	"context"
	"fmt"

	"github.com/meridian-cloud/chatdex/internal/db"
	"github.com/meridian-cloud/chatdex/internal/domain"
)

const (
	keyPrefix = domain.KeyPrefix + "chunk:"
	indexName = domain.KeyPrefix + "chunk:idx"
)

// store is the consumer interface for chunk persistence (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// HNSWConfig carries index build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements chunk storage and similarity search over the db facade.
type Repo struct {
	store store
	dim   int
	hnsw  HNSWConfig
}

// New creates a chunk repository for vectors of the given dimension.
func New(s store, dim int) *Repo {
	return &Repo{store: s, dim: dim}
}

// WithHNSW sets HNSW index build parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// EnsureIndex creates the chunk FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("probe index: %w", err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     indexName,
		Prefixes: []string{keyPrefix},
		Fields: []db.IndexField{
			{Name: "__content", Type: db.IndexFieldText},
			{Name: domain.MetaSource, Type: db.IndexFieldTag},
			{
				Name:              "__vector",
				Alias:             "vector",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         r.dim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.hnsw.M,
				VectorEFConstruct: r.hnsw.EFConstruct,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && err != db.ErrIndexExists {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Add persists chunks with their precomputed vectors in one pipelined write.
func (r *Repo) Add(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, 0, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		if c.ID == "" {
			return fmt.Errorf("chunk %d: id is required", i)
		}
		if len(c.Vector) != r.dim {
			return fmt.Errorf("chunk %s: vector dim %d, want %d", c.ID, len(c.Vector), r.dim)
		}
		items = append(items, db.HashSetItem{
			Key:    keyPrefix + c.ID,
			Fields: toHashFields(c),
		})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("add chunks: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Search returns up to k chunks in the store's own approximate-nearest-
// neighbor order. Callers re-rank; scores from the store are discarded.
func (r *Repo) Search(ctx context.Context, vector []float32, k int) ([]domain.Chunk, error) {
	q := &db.KNNQuery{
		IndexName:    indexName,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"__content", domain.MetaSource, domain.MetaFileName, "__vector_score"},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w: %w", domain.ErrStoreUnavailable, err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		chunks = append(chunks, fromSearchEntry(entry))
	}
	return chunks, nil
}
