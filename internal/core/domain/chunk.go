package domain

import "time"

const SourceTypeFile = "file"

// Chunk is a persisted retrieval unit. Chunks are created in one batch per
// document and never mutated.
type Chunk struct {
	ID         string        `json:"id"`
	ProjectID  string        `json:"project_id"`
	Content    string        `json:"content"`
	SourceType string        `json:"source_type"`
	ChunkIndex int           `json:"chunk_index"`
	Metadata   ChunkMetadata `json:"metadata"`
	CreatedAt  time.Time     `json:"created_at"`
}

// ChunkMetadata carries the citation fields every chunk has plus an open
// extension map for anything else.
type ChunkMetadata struct {
	Title       string         `json:"title"`
	Source      string         `json:"source"`
	ChunkIndex  int            `json:"chunk_index"`
	TotalChunks int            `json:"total_chunks"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// SourceName returns the name used when citing the chunk.
func (m ChunkMetadata) SourceName() string {
	if m.Source != "" {
		return m.Source
	}
	if m.Title != "" {
		return m.Title
	}
	return "Unknown"
}
