package client

import (
	"math"
	"time"

	"github.com/liliang-cn/askdesk/internal/domain"
)

// Wire types mirror the service's JSON, which uses snake_case and naive
// ISO-8601 timestamps.

type wireDocument struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	UploadDate string `json:"upload_date"`
	ChunkCount int    `json:"chunk_count"`
	FileSize   int64  `json:"file_size"`
	Status     string `json:"status"`
}

type documentListResponse struct {
	Documents []wireDocument `json:"documents"`
	Total     int            `json:"total"`
}

type uploadResponse struct {
	DocumentID    string `json:"document_id"`
	Filename      string `json:"filename"`
	Status        string `json:"status"`
	ChunksCreated int    `json:"chunks_created"`
}

type queryRequest struct {
	Query       string   `json:"query"`
	Mode        string   `json:"mode"`
	DocumentIDs []string `json:"document_ids,omitempty"`
	TopK        int      `json:"top_k,omitempty"`
}

type wireSource struct {
	Type           string   `json:"type"`
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Reference      string   `json:"reference"`
	RelevanceScore *float64 `json:"relevance_score"`
	Score          *float64 `json:"score"`
}

type queryResponse struct {
	Answer     string       `json:"answer"`
	Sources    []wireSource `json:"sources"`
	Confidence float64      `json:"confidence"`
	ModeUsed   string       `json:"mode_used"`
}

// HealthStatus is the service's self-report
type HealthStatus struct {
	Status         string `json:"status"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	VectorDB       string `json:"vector_db,omitempty"`
	LLM            string `json:"llm,omitempty"`
}

// errorResponse covers the service's {"detail": ...} error body
type errorResponse struct {
	Detail  any    `json:"detail"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// parseTimestamp accepts RFC 3339 and the zone-less form the service emits,
// which is UTC. Unparseable values yield the zero time.
func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (d wireDocument) toDomain() domain.Document {
	chunks := d.ChunkCount
	if chunks < 0 {
		chunks = 0
	}
	return domain.Document{
		ID:         d.ID,
		Filename:   d.Filename,
		UploadDate: parseTimestamp(d.UploadDate),
		ChunkCount: chunks,
		Status:     domain.ParseDocumentStatus(d.Status),
	}
}

func (s wireSource) toDomain() domain.Source {
	score := s.RelevanceScore
	if score == nil {
		score = s.Score
	}
	typ := domain.SourceTypePDF
	if s.Type == string(domain.SourceTypeWeb) {
		typ = domain.SourceTypeWeb
	}
	return domain.Source{
		Type:      typ,
		Title:     s.Title,
		Content:   s.Content,
		Reference: s.Reference,
		Score:     score,
	}
}

func (r queryResponse) toDomain() *domain.QueryResult {
	sources := make([]domain.Source, 0, len(r.Sources))
	for _, s := range r.Sources {
		sources = append(sources, s.toDomain())
	}
	return &domain.QueryResult{
		Answer:     r.Answer,
		Sources:    sources,
		Confidence: confidencePercent(r.Confidence),
		ModeUsed:   domain.QueryMode(r.ModeUsed),
	}
}

func confidencePercent(c float64) int {
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return int(math.Round(c))
}
