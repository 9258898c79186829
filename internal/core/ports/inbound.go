package ports

import (
	"context"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
)

type IndexRequest struct {
	Content   string
	Filename  string
	OwnerID   string
	ProjectID string
}

// DocumentIndexer chunks extracted text and persists it for retrieval.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, req IndexRequest) (int, error)
}

// Searcher ranks chunks against a query.
type Searcher interface {
	SimilaritySearch(ctx context.Context, query, projectID string, topK int) ([]domain.RetrievalResult, error)
	SearchAll(ctx context.Context, query, ownerID string) ([]domain.RetrievalResult, error)
	// SearchProject is SimilaritySearch restricted to projects the owner holds.
	SearchProject(ctx context.Context, query, ownerID, projectID string, topK int) ([]domain.RetrievalResult, error)
}

// Responder turns retrieved context and history into a reply. It never fails.
type Responder interface {
	GenerateResponse(ctx context.Context, query string, results []domain.RetrievalResult, history []domain.ChatMessage) string
}

// DocumentProcessor extracts and indexes an uploaded document.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}
