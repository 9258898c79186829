package domain

import "time"

type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// Document is an uploaded file tracked through extraction and indexing.
type Document struct {
	ID          string           `json:"id"`
	ProjectID   string           `json:"project_id"`
	Filename    string           `json:"filename"`
	FileType    string           `json:"file_type"`
	FileSize    int64            `json:"file_size"`
	StoragePath string           `json:"storage_path"`
	Status      DocumentStatus   `json:"status"`
	Metadata    DocumentMetadata `json:"metadata"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type DocumentMetadata struct {
	ChunksCreated int `json:"chunks_created,omitempty"`
	TextLength    int `json:"text_length,omitempty"`
}

// MinExtractedTextLength is the length extracted text must exceed to be indexed.
const MinExtractedTextLength = 50
