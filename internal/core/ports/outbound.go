package ports

import (
	"context"
	"io"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
)

// ChunkStore persists chunks and loads search candidates.
type ChunkStore interface {
	// InsertBatch stores all chunks atomically.
	InsertBatch(ctx context.Context, chunks []domain.Chunk) error
	ListByProject(ctx context.Context, projectID string, limit int) ([]domain.Chunk, error)
	DeleteBySource(ctx context.Context, projectID, source string) (int, error)
	DeleteByProject(ctx context.Context, projectID string) (int, error)
	CountBySourceType(ctx context.Context, projectID string) (map[string]int, error)
}

// ProjectStore manages projects scoped by owner.
type ProjectStore interface {
	// FindOrCreateDefault returns the owner's catch-all upload project,
	// creating it on first use.
	FindOrCreateDefault(ctx context.Context, ownerID string) (*domain.Project, error)
	FindDefault(ctx context.Context, ownerID string) (*domain.Project, error)
	GetByID(ctx context.Context, ownerID, projectID string) (*domain.Project, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Project, error)
	Create(ctx context.Context, project *domain.Project) error
	// Update writes name, description and type of an owned project.
	Update(ctx context.Context, project *domain.Project) error
	// Delete removes an owned project with its documents, chunks and chats.
	Delete(ctx context.Context, ownerID, projectID string) error
	CountContents(ctx context.Context, projectID string) (documents, chats int, err error)
}

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	MarkCompleted(ctx context.Context, id string, meta domain.DocumentMetadata) error
	MarkFailed(ctx context.Context, id string, errMessage string) error
	ListByProject(ctx context.Context, projectID string) ([]domain.Document, error)
	Delete(ctx context.Context, id string) error
	DeleteByProject(ctx context.Context, projectID string) (int, error)
}

// ConversationStore persists chats and their messages.
type ConversationStore interface {
	CreateChat(ctx context.Context, chat *domain.Chat) error
	GetChat(ctx context.Context, ownerID, chatID string) (*domain.Chat, error)
	AppendMessage(ctx context.Context, message *domain.ChatMessage) error
	// ListRecentMessages returns at most limit messages in chronological order.
	ListRecentMessages(ctx context.Context, chatID string, limit int) ([]domain.ChatMessage, error)
	ListMessages(ctx context.Context, chatID string) ([]domain.ChatMessage, error)
	SearchMessages(ctx context.Context, ownerID, query, projectID string, limit int) ([]domain.MessageHit, error)
	// ListChats returns the owner's chats, most recently active first. An
	// empty projectID lists every chat.
	ListChats(ctx context.Context, ownerID, projectID string, limit int) ([]domain.ChatSummary, error)
	// SetChatProject changes the retrieval scope of a chat; "" spans all projects.
	SetChatProject(ctx context.Context, ownerID, chatID, projectID string) error
	DeleteChat(ctx context.Context, ownerID, chatID string) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes indexing events.
type MessageQueue interface {
	PublishDocumentUploaded(ctx context.Context, documentID string) error
	SubscribeDocumentUploaded(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor turns raw upload bytes into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType, filename string) (string, error)
}

// Chunker splits text into overlapping segments.
type Chunker interface {
	Split(text string) []string
}

// Scorer rates how relevant a chunk is to a query, in [0,1].
type Scorer interface {
	Score(query, content string) float64
}

// ChatModel completes a conversation with an external LLM.
type ChatModel interface {
	Complete(ctx context.Context, messages []domain.ChatMessage) (string, error)
}
