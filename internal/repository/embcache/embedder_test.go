package embcache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/meridian-cloud/chatdex/internal/db"
	"github.com/meridian-cloud/chatdex/internal/domain"
)

// --- Mocks ---

type mockKV struct {
	data   map[string]string
	getErr error
	setErr error
	sets   int
}

func newMockKV() *mockKV {
	return &mockKV{data: make(map[string]string)}
}

func (m *mockKV) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return []byte(v), nil
}

func (m *mockKV) Set(_ context.Context, key string, value []byte) error {
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = string(value)
	return nil
}

func (m *mockKV) SetWithTTL(ctx context.Context, key string, value []byte, _ time.Duration) error {
	return m.Set(ctx, key, value)
}

type countingEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (c *countingEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	c.calls++
	return c.result, c.err
}

// --- Tests ---

func TestEmbed_MissThenHit(t *testing.T) {
	kv := newMockKV()
	inner := &countingEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{0.1, 0.2},
		TotalTokens: 7,
	}}

	cached := New(inner, kv, 0, nil)
	ctx := context.Background()

	first, err := cached.Embed(ctx, "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	second, err := cached.Embed(ctx, "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("inner embedder called %d times, want 1", inner.calls)
	}
	if len(first.Embedding) != len(second.Embedding) {
		t.Error("cached result differs from fresh result")
	}
}

func TestEmbed_DifferentTextsDifferentKeys(t *testing.T) {
	kv := newMockKV()
	inner := &countingEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}

	cached := New(inner, kv, 0, nil)
	ctx := context.Background()

	_, _ = cached.Embed(ctx, "one")
	_, _ = cached.Embed(ctx, "two")

	if inner.calls != 2 {
		t.Errorf("inner embedder called %d times, want 2", inner.calls)
	}
}

func TestEmbed_CacheReadFailureFallsThrough(t *testing.T) {
	kv := newMockKV()
	kv.getErr = errors.New("timeout")
	inner := &countingEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}

	cached := New(inner, kv, 0, nil)

	res, err := cached.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(res.Embedding) != 1 {
		t.Error("result not produced by inner embedder")
	}
}

func TestEmbed_CorruptEntryIgnored(t *testing.T) {
	kv := newMockKV()
	kv.data[cacheKey("hello")] = "{not json"
	inner := &countingEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}

	cached := New(inner, kv, 0, nil)

	if _, err := cached.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner embedder called %d times, want 1", inner.calls)
	}
}

func TestEmbed_InnerErrorNotCached(t *testing.T) {
	kv := newMockKV()
	inner := &countingEmbedder{err: domain.ErrEmbeddingProvider}

	cached := New(inner, kv, 0, nil)

	if _, err := cached.Embed(context.Background(), "hello"); !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Errorf("err = %v, want ErrEmbeddingProvider", err)
	}
	if kv.sets != 0 {
		t.Error("error result was written to the cache")
	}
}

func TestEmbed_StoredPayloadRoundTrips(t *testing.T) {
	kv := newMockKV()
	inner := &countingEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.5},
		PromptTokens: 3,
		TotalTokens:  3,
	}}

	cached := New(inner, kv, 0, nil)
	_, _ = cached.Embed(context.Background(), "hello")

	raw, ok := kv.data[cacheKey("hello")]
	if !ok {
		t.Fatal("nothing written to cache")
	}
	var stored domain.EmbeddingResult
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("stored payload is not valid JSON: %v", err)
	}
	if stored.TotalTokens != 3 {
		t.Errorf("stored tokens = %d, want 3", stored.TotalTokens)
	}
}
