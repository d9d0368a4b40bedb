package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/meridian-cloud/chatdex/internal/domain"
)

// --- Mocks ---

type mockSearcher struct {
	chunks []domain.Chunk
	err    error
	called bool
}

func (m *mockSearcher) Search(_ context.Context, _ []float32, _ int) ([]domain.Chunk, error) {
	m.called = true
	return m.chunks, m.err
}

type mockGate struct {
	inScope bool
}

func (m *mockGate) InScope(_ string) bool {
	return m.inScope
}

// mockEmbedder returns a fixed vector per input text.
type mockEmbedder struct {
	vectors map[string][]float32
	err     error
	errOn   string
	calls   int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	if m.errOn != "" && text == m.errOn {
		return domain.EmbeddingResult{}, errors.New("embed failed")
	}
	return domain.EmbeddingResult{Embedding: m.vectors[text]}, nil
}

func chunksOf(contents ...string) []domain.Chunk {
	out := make([]domain.Chunk, len(contents))
	for i, c := range contents {
		out[i] = domain.Chunk{ID: c, Content: c}
	}
	return out
}

// --- Tests ---

func TestRetrieve_RanksByCosineSimilarity(t *testing.T) {
	searcher := &mockSearcher{chunks: chunksOf("close", "far")}
	embedder := &mockEmbedder{vectors: map[string][]float32{
		"query": {1, 0},
		"close": {0.9, 0.1},
		"far":   {0.1, 0.9},
	}}

	svc := New(searcher, &mockGate{inScope: true}, embedder, 3, nil)

	scored, _ := svc.Retrieve(context.Background(), "query", "s1")
	if len(scored) != 2 {
		t.Fatalf("got %d results, want 2", len(scored))
	}
	if scored[0].Chunk.Content != "close" {
		t.Errorf("top result = %q, want %q", scored[0].Chunk.Content, "close")
	}
	if scored[0].Score <= scored[1].Score {
		t.Errorf("scores not descending: %f then %f", scored[0].Score, scored[1].Score)
	}
}

func TestRetrieve_ZeroVectorScoresZero(t *testing.T) {
	searcher := &mockSearcher{chunks: chunksOf("degenerate")}
	embedder := &mockEmbedder{vectors: map[string][]float32{
		"query":      {1, 0},
		"degenerate": {0, 0},
	}}

	svc := New(searcher, &mockGate{inScope: true}, embedder, 3, nil)

	scored, _ := svc.Retrieve(context.Background(), "query", "s1")
	if len(scored) != 1 {
		t.Fatalf("got %d results, want 1", len(scored))
	}
	if scored[0].Score != 0.0 {
		t.Errorf("zero-vector score = %f, want 0.0", scored[0].Score)
	}
}

func TestRetrieve_GateRejection(t *testing.T) {
	searcher := &mockSearcher{chunks: chunksOf("a")}
	svc := New(searcher, &mockGate{inScope: false}, &mockEmbedder{}, 3, nil)

	scored, elapsed := svc.Retrieve(context.Background(), "hello", "s1")
	if len(scored) != 0 {
		t.Errorf("got %d results for gated question, want 0", len(scored))
	}
	if elapsed != 0 {
		t.Errorf("elapsed = %v for gated question, want 0", elapsed)
	}
	if searcher.called {
		t.Error("store was queried for an out-of-scope question")
	}
}

func TestRetrieve_StoreFailureDegrades(t *testing.T) {
	searcher := &mockSearcher{err: domain.ErrStoreUnavailable}
	embedder := &mockEmbedder{vectors: map[string][]float32{"query": {1, 0}}}

	svc := New(searcher, &mockGate{inScope: true}, embedder, 3, nil)

	scored, elapsed := svc.Retrieve(context.Background(), "query", "s1")
	if len(scored) != 0 {
		t.Errorf("got %d results on store failure, want 0", len(scored))
	}
	if elapsed < 0 {
		t.Errorf("elapsed = %v, want >= 0", elapsed)
	}
}

func TestRetrieve_QueryEmbeddingFailureDegrades(t *testing.T) {
	searcher := &mockSearcher{chunks: chunksOf("a")}
	embedder := &mockEmbedder{err: errors.New("provider down")}

	svc := New(searcher, &mockGate{inScope: true}, embedder, 3, nil)

	scored, _ := svc.Retrieve(context.Background(), "query", "s1")
	if len(scored) != 0 {
		t.Errorf("got %d results on embedding failure, want 0", len(scored))
	}
	if searcher.called {
		t.Error("store was queried after query embedding failed")
	}
}

func TestRetrieve_FailedCandidateIsDropped(t *testing.T) {
	searcher := &mockSearcher{chunks: chunksOf("good", "broken")}
	embedder := &mockEmbedder{
		vectors: map[string][]float32{
			"query": {1, 0},
			"good":  {1, 0},
		},
		errOn: "broken",
	}

	svc := New(searcher, &mockGate{inScope: true}, embedder, 3, nil)

	scored, _ := svc.Retrieve(context.Background(), "query", "s1")
	if len(scored) != 1 {
		t.Fatalf("got %d results, want 1 (failed candidate dropped)", len(scored))
	}
	if scored[0].Chunk.Content != "good" {
		t.Errorf("kept candidate = %q, want %q", scored[0].Chunk.Content, "good")
	}
}

func TestRetrieve_TruncatesToTopK(t *testing.T) {
	searcher := &mockSearcher{chunks: chunksOf("a", "b", "c")}
	embedder := &mockEmbedder{vectors: map[string][]float32{
		"query": {1, 0},
		"a":     {1, 0},
		"b":     {0.5, 0.5},
		"c":     {0, 1},
	}}

	svc := New(searcher, &mockGate{inScope: true}, embedder, 2, nil)

	scored, _ := svc.Retrieve(context.Background(), "query", "s1")
	if len(scored) != 2 {
		t.Errorf("got %d results, want topK=2", len(scored))
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0.0},
		{"dimension mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0.0},
		{"both empty", nil, nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("cosineSimilarity = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestRetrieve_StableOrderOnTies(t *testing.T) {
	searcher := &mockSearcher{chunks: chunksOf("first", "second")}
	embedder := &mockEmbedder{vectors: map[string][]float32{
		"query":  {1, 0},
		"first":  {1, 0},
		"second": {1, 0},
	}}

	svc := New(searcher, &mockGate{inScope: true}, embedder, 3, nil)

	scored, _ := svc.Retrieve(context.Background(), "query", "s1")
	if len(scored) != 2 {
		t.Fatalf("got %d results, want 2", len(scored))
	}
	if scored[0].Chunk.Content != "first" {
		t.Errorf("tie broke store order: top = %q, want %q", scored[0].Chunk.Content, "first")
	}
}
