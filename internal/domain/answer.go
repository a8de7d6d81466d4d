package domain

import "time"

// QueryMode selects the retrieval scope the service uses for a query
type QueryMode string

// Query modes
const (
	QueryModeWeb        QueryMode = "web"
	QueryModePDF        QueryMode = "pdf"
	QueryModeHybrid     QueryMode = "hybrid"
	QueryModeRestricted QueryMode = "restricted"
)

// Valid reports whether m is one of the known modes
func (m QueryMode) Valid() bool {
	switch m {
	case QueryModeWeb, QueryModePDF, QueryModeHybrid, QueryModeRestricted:
		return true
	}
	return false
}

// SourceType tells where a cited source came from
type SourceType string

const (
	SourceTypePDF SourceType = "pdf"
	SourceTypeWeb SourceType = "web"
)

// Source represents a citation attached to an answer
type Source struct {
	Type      SourceType `json:"type"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Reference string     `json:"reference"`
	Score     *float64   `json:"score,omitempty"`
}

// Answer is the result of the most recently completed query
type Answer struct {
	Text       string    `json:"text"`
	Sources    []Source  `json:"sources"`
	Confidence int       `json:"confidence"`
	Mode       QueryMode `json:"mode"`
	Timestamp  time.Time `json:"timestamp"`
	Query      string    `json:"query"`
}

// QueryRequest is sent to the service. An empty DocumentIDs means no
// document scoping; the service picks the default scope.
type QueryRequest struct {
	Query       string
	Mode        QueryMode
	DocumentIDs []string
	TopK        int
}

// QueryResult is the service's answer to a QueryRequest
type QueryResult struct {
	Answer     string
	Sources    []Source
	Confidence int
	ModeUsed   QueryMode
}
