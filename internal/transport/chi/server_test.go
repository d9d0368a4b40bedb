package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/meridian-cloud/chatdex/internal/domain"
	"github.com/meridian-cloud/chatdex/internal/session"
	chatuc "github.com/meridian-cloud/chatdex/internal/usecase/chat"
	healthuc "github.com/meridian-cloud/chatdex/internal/usecase/health"
	ingestuc "github.com/meridian-cloud/chatdex/internal/usecase/ingest"
)

// --- Mocks ---

type stubRetriever struct {
	evidence []domain.ScoredChunk
}

func (s *stubRetriever) Retrieve(_ context.Context, _, _ string) ([]domain.ScoredChunk, time.Duration) {
	return s.evidence, 10 * time.Millisecond
}

type stubGenerator struct {
	text string
	err  error
}

func (s *stubGenerator) Generate(_ context.Context, _, _ string) (domain.GenerationResult, error) {
	if s.err != nil {
		return domain.GenerationResult{}, s.err
	}
	return domain.GenerationResult{Text: s.text}, nil
}

type stubSplitter struct{}

func (stubSplitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return []string{text}
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{1}}, nil
}

type stubAdder struct {
	err error
}

func (s *stubAdder) Add(_ context.Context, _ []domain.Chunk) error {
	return s.err
}

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(_ context.Context) error {
	return s.err
}

func newTestServer(t *testing.T, gen *stubGenerator, retr *stubRetriever, adder *stubAdder, ping *stubPinger) http.Handler {
	t.Helper()

	sessions := session.NewStore(5, nil)
	chatSvc := chatuc.New(retr, sessions, gen, nil, "", zap.NewNop())
	ingestSvc := ingestuc.New(stubSplitter{}, stubEmbedder{}, adder, zap.NewNop())
	healthSvc := healthuc.New(ping, nil, nil)

	server := NewServer(chatSvc, ingestSvc, healthSvc, zap.NewNop())
	r := chirouter.NewRouter()
	server.Routes(r)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestChat_OK(t *testing.T) {
	retr := &stubRetriever{evidence: []domain.ScoredChunk{{
		Chunk: domain.Chunk{ID: "c1", Content: "evidence text"},
		Score: 0.9,
	}}}
	h := newTestServer(t, &stubGenerator{text: "the answer"}, retr, &stubAdder{}, &stubPinger{})

	rec := doJSON(t, h, http.MethodPost, "/chat", `{"question": "what is my premium?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Response string `json:"response"`
		Sources  []struct {
			Content string  `json:"content"`
			Score   float64 `json:"score"`
		} `json:"sources"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Response != "the answer" {
		t.Errorf("response = %q", resp.Response)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].Content != "evidence text" {
		t.Errorf("sources = %+v", resp.Sources)
	}
}

func TestChat_EmptyQuestion(t *testing.T) {
	h := newTestServer(t, &stubGenerator{text: "x"}, &stubRetriever{}, &stubAdder{}, &stubPinger{})

	rec := doJSON(t, h, http.MethodPost, "/chat", `{"question": ""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Code != codeValidationFailed {
		t.Errorf("code = %q, want %q", resp.Code, codeValidationFailed)
	}
}

func TestChat_InvalidBody(t *testing.T) {
	h := newTestServer(t, &stubGenerator{text: "x"}, &stubRetriever{}, &stubAdder{}, &stubPinger{})

	rec := doJSON(t, h, http.MethodPost, "/chat", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestChat_GenerationFailureStillOK(t *testing.T) {
	h := newTestServer(t, &stubGenerator{err: domain.ErrGenerationFailed}, &stubRetriever{}, &stubAdder{}, &stubPinger{})

	rec := doJSON(t, h, http.MethodPost, "/chat", `{"question": "q"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (generation failure is user-visible text)", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), chatuc.FailureResponse) {
		t.Errorf("body = %s, want failure response text", rec.Body.String())
	}
}

func TestRetrieve_OK(t *testing.T) {
	retr := &stubRetriever{evidence: []domain.ScoredChunk{{
		Chunk: domain.Chunk{ID: "c1", Content: "evidence"},
		Score: 0.8,
	}}}
	h := newTestServer(t, &stubGenerator{}, retr, &stubAdder{}, &stubPinger{})

	rec := doJSON(t, h, http.MethodPost, "/retrieve", `{"question": "premium?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp retrieveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Errorf("items = %+v", resp.Items)
	}
}

func TestIngestDocument_Created(t *testing.T) {
	h := newTestServer(t, &stubGenerator{}, &stubRetriever{}, &stubAdder{}, &stubPinger{})

	rec := doJSON(t, h, http.MethodPost, "/documents", `{"content": "policy text", "file_name": "p.pdf"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}

	var resp ingestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Chunks != 1 {
		t.Errorf("chunks = %d, want 1", resp.Chunks)
	}
}

func TestIngestDocument_Empty(t *testing.T) {
	h := newTestServer(t, &stubGenerator{}, &stubRetriever{}, &stubAdder{}, &stubPinger{})

	rec := doJSON(t, h, http.MethodPost, "/documents", `{"content": ""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestIngestDocument_StoreUnavailable(t *testing.T) {
	adder := &stubAdder{err: domain.ErrStoreUnavailable}
	h := newTestServer(t, &stubGenerator{}, &stubRetriever{}, adder, &stubPinger{})

	rec := doJSON(t, h, http.MethodPost, "/documents", `{"content": "text"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHealth_OK(t *testing.T) {
	h := newTestServer(t, &stubGenerator{}, &stubRetriever{}, &stubAdder{}, &stubPinger{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHealth_Degraded(t *testing.T) {
	h := newTestServer(t, &stubGenerator{}, &stubRetriever{}, &stubAdder{}, &stubPinger{err: context.DeadlineExceeded})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
