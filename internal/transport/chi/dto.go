package chi

import (
	"time"

	"github.com/meridian-cloud/chatdex/internal/domain"
	chatuc "github.com/meridian-cloud/chatdex/internal/usecase/chat"
)

type chatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
	Explain   bool   `json:"explain,omitempty"`
}

type chatResponse struct {
	Response        string              `json:"response"`
	Sources         []evidenceItem      `json:"sources,omitempty"`
	Explanation     *domain.Explanation `json:"explanation,omitempty"`
	RetrievalTimeMS int64               `json:"retrieval_time_ms"`
}

type retrieveRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

type retrieveResponse struct {
	Items           []evidenceItem `json:"items"`
	RetrievalTimeMS int64          `json:"retrieval_time_ms"`
}

type evidenceItem struct {
	Content  string            `json:"content"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type ingestRequest struct {
	Content  string `json:"content"`
	Source   string `json:"source,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

type ingestResponse struct {
	Chunks int `json:"chunks"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func answerToResponse(a chatuc.Answer) chatResponse {
	return chatResponse{
		Response:        a.Response,
		Sources:         evidenceItems(a.Evidence),
		Explanation:     a.Explanation,
		RetrievalTimeMS: a.RetrievalTime.Milliseconds(),
	}
}

func evidenceToResponse(evidence []domain.ScoredChunk, elapsed time.Duration) retrieveResponse {
	return retrieveResponse{
		Items:           evidenceItems(evidence),
		RetrievalTimeMS: elapsed.Milliseconds(),
	}
}

func evidenceItems(evidence []domain.ScoredChunk) []evidenceItem {
	items := make([]evidenceItem, len(evidence))
	for i, sc := range evidence {
		items[i] = evidenceItem{
			Content:  sc.Chunk.Content,
			Score:    sc.Score,
			Metadata: sc.Chunk.Metadata,
		}
	}
	return items
}
