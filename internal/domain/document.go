package domain

import (
	"io"
	"time"
)

// DocumentStatus is the processing state the service reports for a document
type DocumentStatus string

// Document status constants
const (
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusReady      DocumentStatus = "ready"
	DocumentStatusError      DocumentStatus = "error"
)

// ParseDocumentStatus maps a status reported by the service onto the client's
// three states. Unknown or empty values are treated as ready, which is what
// the service assumes for documents it has indexed.
func ParseDocumentStatus(s string) DocumentStatus {
	switch s {
	case "processing", "pending":
		return DocumentStatusProcessing
	case "error", "failed":
		return DocumentStatusError
	default:
		return DocumentStatusReady
	}
}

// Document represents an uploaded document known to the service
type Document struct {
	ID         string         `json:"id"`
	Filename   string         `json:"filename"`
	UploadDate time.Time      `json:"upload_date"`
	ChunkCount int            `json:"chunk_count"`
	Status     DocumentStatus `json:"status"`
}

// Upload is a file presented by the user for ingestion.
// Size is negative when unknown; progress is only reported for a positive size.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// UploadResult is what the service returns for a completed upload
type UploadResult struct {
	DocumentID    string
	Filename      string
	ChunksCreated int
}
