package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
	"github.com/dealdesk/diligence-assistant/internal/core/ports"
)

type IndexDocumentUseCase struct {
	chunks   ports.ChunkStore
	projects ports.ProjectStore
	chunker  ports.Chunker
	newID    func() string
	now      func() time.Time
}

func NewIndexDocumentUseCase(
	chunks ports.ChunkStore,
	projects ports.ProjectStore,
	chunker ports.Chunker,
) *IndexDocumentUseCase {
	return &IndexDocumentUseCase{
		chunks:   chunks,
		projects: projects,
		chunker:  chunker,
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// IndexDocument chunks req.Content and stores every retained chunk in one
// batch. It returns the number of chunks created; zero means nothing was
// persisted.
func (uc *IndexDocumentUseCase) IndexDocument(ctx context.Context, req ports.IndexRequest) (int, error) {
	if req.OwnerID == "" && req.ProjectID == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, "index document", errors.New("owner id is required"))
	}

	pieces := uc.chunker.Split(req.Content)
	if len(pieces) == 0 {
		slog.Info("document_index_skipped", "filename", req.Filename, "reason", "no chunks")
		return 0, nil
	}

	projectID, err := uc.resolveProject(ctx, req)
	if err != nil {
		return 0, err
	}

	batch := uc.buildChunks(projectID, req.Filename, pieces)
	if err := uc.chunks.InsertBatch(ctx, batch); err != nil {
		return 0, fmt.Errorf("insert chunk batch: %w", err)
	}

	slog.Info("document_indexed", "filename", req.Filename, "project_id", projectID, "chunks", len(batch))
	return len(batch), nil
}

func (uc *IndexDocumentUseCase) resolveProject(ctx context.Context, req ports.IndexRequest) (string, error) {
	if req.ProjectID != "" {
		return req.ProjectID, nil
	}
	project, err := uc.projects.FindOrCreateDefault(ctx, req.OwnerID)
	if err != nil {
		return "", fmt.Errorf("resolve default project: %w", err)
	}
	return project.ID, nil
}

func (uc *IndexDocumentUseCase) buildChunks(projectID, filename string, pieces []string) []domain.Chunk {
	createdAt := uc.now()
	out := make([]domain.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		out = append(out, domain.Chunk{
			ID:         uc.newID(),
			ProjectID:  projectID,
			Content:    piece,
			SourceType: domain.SourceTypeFile,
			ChunkIndex: i,
			Metadata: domain.ChunkMetadata{
				Title:       filename,
				Source:      filename,
				ChunkIndex:  i,
				TotalChunks: len(pieces),
			},
			CreatedAt: createdAt,
		})
	}
	return out
}
