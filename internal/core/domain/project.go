package domain

import "time"

const (
	DefaultProjectName        = "Chat Uploads"
	DefaultProjectDescription = "Files uploaded via chat interface"
	DefaultProjectType        = "uploads"

	// NewProjectType is used when a project is created without a type.
	NewProjectType = "portfolio_company"
)

// Project is the ownership boundary for documents and chunks.
type Project struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsDefault reports whether p is the owner's catch-all upload project.
func (p Project) IsDefault() bool {
	return p.Type == DefaultProjectType && p.Name == DefaultProjectName
}

// ProjectPatch holds the fields of an update; nil leaves a field unchanged.
type ProjectPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Type        *string `json:"type"`
}

type ProjectDetail struct {
	Project
	DocumentCount int `json:"document_count"`
	ChatCount     int `json:"chat_count"`
}

type ProjectStats struct {
	ProjectID        string         `json:"project_id"`
	ProjectName      string         `json:"project_name"`
	TotalDocuments   int            `json:"total_documents"`
	TotalChunks      int            `json:"total_vector_chunks"`
	DocumentsByType  map[string]int `json:"documents_by_type"`
	ChunksBySource   map[string]int `json:"chunks_by_source"`
	ProcessingStatus map[string]int `json:"processing_status"`
	Documents        []Document     `json:"documents"`
}
