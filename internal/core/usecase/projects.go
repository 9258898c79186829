package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
	"github.com/dealdesk/diligence-assistant/internal/core/ports"
)

// ProjectUseCase manages an owner's projects. The default upload project is
// created on demand and keeps its name and type.
type ProjectUseCase struct {
	projects ports.ProjectStore
	docs     ports.DocumentRepository
	storage  ports.ObjectStorage
	now      func() time.Time
}

func NewProjectUseCase(projects ports.ProjectStore, docs ports.DocumentRepository, storage ports.ObjectStorage) *ProjectUseCase {
	return &ProjectUseCase{
		projects: projects,
		docs:     docs,
		storage:  storage,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (uc *ProjectUseCase) CreateProject(ctx context.Context, ownerID, name, description, projectType string) (*domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create project", errors.New("name is required"))
	}
	projectType = strings.TrimSpace(projectType)
	if projectType == "" {
		projectType = domain.NewProjectType
	}
	if projectType == domain.DefaultProjectType {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create project", fmt.Errorf("type %q is reserved", projectType))
	}

	now := uc.now()
	project := &domain.Project{
		OwnerID:     ownerID,
		Name:        name,
		Description: strings.TrimSpace(description),
		Type:        projectType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	slog.Info("project_created", "project_id", project.ID, "type", project.Type)
	return project, nil
}

// ListProjects returns the owner's projects, newest first.
func (uc *ProjectUseCase) ListProjects(ctx context.Context, ownerID string) ([]domain.Project, error) {
	projects, err := uc.projects.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})
	return projects, nil
}

func (uc *ProjectUseCase) GetProject(ctx context.Context, ownerID, projectID string) (*domain.ProjectDetail, error) {
	project, err := uc.projects.GetByID(ctx, ownerID, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetch project: %w", err)
	}
	documents, chats, err := uc.projects.CountContents(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("count project contents: %w", err)
	}
	return &domain.ProjectDetail{Project: *project, DocumentCount: documents, ChatCount: chats}, nil
}

func (uc *ProjectUseCase) UpdateProject(ctx context.Context, ownerID, projectID string, patch domain.ProjectPatch) (*domain.Project, error) {
	project, err := uc.projects.GetByID(ctx, ownerID, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetch project: %w", err)
	}

	if patch.Name != nil || patch.Type != nil {
		if project.IsDefault() {
			return nil, domain.WrapError(domain.ErrInvalidInput, "update project", errors.New("the default upload project cannot be renamed or retyped"))
		}
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "update project", errors.New("name must not be empty"))
		}
		project.Name = name
	}
	if patch.Type != nil {
		projectType := strings.TrimSpace(*patch.Type)
		switch projectType {
		case "":
			projectType = domain.NewProjectType
		case domain.DefaultProjectType:
			return nil, domain.WrapError(domain.ErrInvalidInput, "update project", fmt.Errorf("type %q is reserved", projectType))
		}
		project.Type = projectType
	}
	if patch.Description != nil {
		project.Description = strings.TrimSpace(*patch.Description)
	}

	if err := uc.projects.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return project, nil
}

// DeleteProject removes the project with its documents, chunks and chats.
// Stored files are removed first; a file that cannot be removed is logged
// and left behind.
func (uc *ProjectUseCase) DeleteProject(ctx context.Context, ownerID, projectID string) error {
	project, err := uc.projects.GetByID(ctx, ownerID, projectID)
	if err != nil {
		return fmt.Errorf("fetch project: %w", err)
	}

	docs, err := uc.docs.ListByProject(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("list project documents: %w", err)
	}
	for _, doc := range docs {
		if doc.StoragePath == "" {
			continue
		}
		if err := uc.storage.Delete(ctx, doc.StoragePath); err != nil {
			slog.Warn("storage_delete_failed", "document_id", doc.ID, "storage_path", doc.StoragePath, "error", err.Error())
		}
	}

	if err := uc.projects.Delete(ctx, ownerID, project.ID); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	slog.Info("project_deleted", "project_id", project.ID, "documents", len(docs))
	return nil
}
