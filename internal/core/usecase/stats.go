package usecase

import (
	"context"
	"fmt"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
	"github.com/dealdesk/diligence-assistant/internal/core/ports"
)

type ProjectStatsUseCase struct {
	projects ports.ProjectStore
	docs     ports.DocumentRepository
	chunks   ports.ChunkStore
}

func NewProjectStatsUseCase(projects ports.ProjectStore, docs ports.DocumentRepository, chunks ports.ChunkStore) *ProjectStatsUseCase {
	return &ProjectStatsUseCase{projects: projects, docs: docs, chunks: chunks}
}

func (uc *ProjectStatsUseCase) ProjectStats(ctx context.Context, ownerID, projectID string) (*domain.ProjectStats, error) {
	project, err := uc.projects.GetByID(ctx, ownerID, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetch project: %w", err)
	}

	docs, err := uc.docs.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("list project documents: %w", err)
	}
	bySource, err := uc.chunks.CountBySourceType(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("count project chunks: %w", err)
	}

	stats := &domain.ProjectStats{
		ProjectID:       project.ID,
		ProjectName:     project.Name,
		TotalDocuments:  len(docs),
		DocumentsByType: map[string]int{},
		ChunksBySource:  bySource,
		ProcessingStatus: map[string]int{
			string(domain.StatusCompleted):  0,
			string(domain.StatusProcessing): 0,
			string(domain.StatusFailed):     0,
		},
		Documents: docs,
	}
	for _, doc := range docs {
		fileType := doc.FileType
		if fileType == "" {
			fileType = "unknown"
		}
		stats.DocumentsByType[fileType]++
		stats.ProcessingStatus[string(doc.Status)]++
	}
	for _, n := range bySource {
		stats.TotalChunks += n
	}
	return stats, nil
}
