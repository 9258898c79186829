package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
	"github.com/dealdesk/diligence-assistant/internal/core/ports"
)

type IndexingMode string

const (
	IndexingSync  IndexingMode = "sync"
	IndexingAsync IndexingMode = "async"
)

type UploadUseCase struct {
	projects  ports.ProjectStore
	docs      ports.DocumentRepository
	chunks    ports.ChunkStore
	storage   ports.ObjectStorage
	queue     ports.MessageQueue
	processor *ProcessDocumentUseCase
	mode      IndexingMode
	now       func() time.Time
}

func NewUploadUseCase(
	projects ports.ProjectStore,
	docs ports.DocumentRepository,
	chunks ports.ChunkStore,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	processor *ProcessDocumentUseCase,
	mode IndexingMode,
) *UploadUseCase {
	if mode != IndexingAsync || queue == nil {
		mode = IndexingSync
	}
	return &UploadUseCase{
		projects:  projects,
		docs:      docs,
		chunks:    chunks,
		storage:   storage,
		queue:     queue,
		processor: processor,
		mode:      mode,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// UploadFiles stores every file in the owner's default project and indexes
// it. A file that fails is reported in UploadReport.Errors; only failing to
// resolve the project fails the whole call.
func (uc *UploadUseCase) UploadFiles(ctx context.Context, ownerID string, files []domain.UploadFile) (*domain.UploadReport, error) {
	if err := validateUpload(ownerID, files); err != nil {
		return nil, err
	}
	project, err := uc.projects.FindOrCreateDefault(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("resolve default project: %w", err)
	}
	return uc.uploadAll(ctx, ownerID, project.ID, files), nil
}

// UploadToProject stores and indexes files in an owned project.
func (uc *UploadUseCase) UploadToProject(ctx context.Context, ownerID, projectID string, files []domain.UploadFile) (*domain.UploadReport, error) {
	if err := validateUpload(ownerID, files); err != nil {
		return nil, err
	}
	project, err := uc.projects.GetByID(ctx, ownerID, projectID)
	if err != nil {
		return nil, fmt.Errorf("resolve project: %w", err)
	}
	return uc.uploadAll(ctx, ownerID, project.ID, files), nil
}

// ListProjectFiles returns the documents of an owned project, newest first.
func (uc *UploadUseCase) ListProjectFiles(ctx context.Context, ownerID, projectID string) ([]domain.Document, error) {
	project, err := uc.projects.GetByID(ctx, ownerID, projectID)
	if err != nil {
		return nil, fmt.Errorf("resolve project: %w", err)
	}
	docs, err := uc.docs.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("list project documents: %w", err)
	}
	return docs, nil
}

func validateUpload(ownerID string, files []domain.UploadFile) error {
	if ownerID == "" {
		return domain.WrapError(domain.ErrUnauthorized, "upload files", errors.New("owner id is required"))
	}
	if len(files) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "upload files", errors.New("no files provided"))
	}
	return nil
}

func (uc *UploadUseCase) uploadAll(ctx context.Context, ownerID, projectID string, files []domain.UploadFile) *domain.UploadReport {
	report := &domain.UploadReport{ProjectID: projectID, Files: []domain.UploadedFile{}}
	for _, file := range files {
		uploaded, err := uc.uploadOne(ctx, ownerID, projectID, file)
		if err != nil {
			slog.Warn("upload_file_failed", "filename", file.Filename, "project_id", projectID, "error", err.Error())
			report.Errors = append(report.Errors, uploadErrorMessage(file.Filename, err))
			continue
		}
		report.Files = append(report.Files, *uploaded)
	}
	report.FilesUploaded = len(report.Files)
	report.Success = report.FilesUploaded > 0
	return report
}

func (uc *UploadUseCase) uploadOne(ctx context.Context, ownerID, projectID string, file domain.UploadFile) (*domain.UploadedFile, error) {
	now := uc.now()
	mimeType := file.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	storageKey := fmt.Sprintf("%s/%d-%s", sanitizeFilename(ownerID), now.UnixMilli(), sanitizeFilename(file.Filename))

	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(file.Data)); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Filename:    file.Filename,
		FileType:    mimeType,
		FileSize:    int64(len(file.Data)),
		StoragePath: storageKey,
		Status:      domain.StatusProcessing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if uc.mode == IndexingAsync {
		if err := uc.queue.PublishDocumentUploaded(ctx, doc.ID); err != nil {
			return nil, fmt.Errorf("publish upload event: %w", err)
		}
		return uploadedFile(doc), nil
	}

	if _, err := uc.processor.process(ctx, doc); err != nil {
		return nil, err
	}
	return uploadedFile(doc), nil
}

// ListUploads returns the documents of the owner's default project, newest first.
func (uc *UploadUseCase) ListUploads(ctx context.Context, ownerID string) ([]domain.Document, error) {
	project, err := uc.projects.FindDefault(ctx, ownerID)
	if errors.Is(err, domain.ErrProjectNotFound) {
		return []domain.Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find default project: %w", err)
	}

	docs, err := uc.docs.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("list project documents: %w", err)
	}
	return docs, nil
}

// DeleteUpload removes a document, its stored bytes and the chunks indexed
// from it.
func (uc *UploadUseCase) DeleteUpload(ctx context.Context, ownerID, documentID string) error {
	if documentID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "delete upload", errors.New("document id is required"))
	}

	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}
	if _, err := uc.projects.GetByID(ctx, ownerID, doc.ProjectID); err != nil {
		if errors.Is(err, domain.ErrProjectNotFound) {
			return domain.WrapError(domain.ErrDocumentNotFound, "delete upload", err)
		}
		return fmt.Errorf("verify document owner: %w", err)
	}

	if doc.StoragePath != "" {
		if err := uc.storage.Delete(ctx, doc.StoragePath); err != nil {
			slog.Warn("storage_delete_failed", "document_id", doc.ID, "storage_path", doc.StoragePath, "error", err.Error())
		}
	}

	removed, err := uc.chunks.DeleteBySource(ctx, doc.ProjectID, doc.Filename)
	if err != nil {
		return fmt.Errorf("delete document chunks: %w", err)
	}
	if err := uc.docs.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	slog.Info("document_deleted", "document_id", doc.ID, "project_id", doc.ProjectID, "chunks", removed)
	return nil
}

// ClearUploads drops every chunk and document of the owner's default project.
func (uc *UploadUseCase) ClearUploads(ctx context.Context, ownerID string) (*domain.ClearReport, error) {
	report := &domain.ClearReport{}
	project, err := uc.projects.FindDefault(ctx, ownerID)
	if errors.Is(err, domain.ErrProjectNotFound) {
		return report, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find default project: %w", err)
	}

	if report.VectorsDeleted, err = uc.chunks.DeleteByProject(ctx, project.ID); err != nil {
		return nil, fmt.Errorf("delete project chunks: %w", err)
	}
	if report.DocumentsDeleted, err = uc.docs.DeleteByProject(ctx, project.ID); err != nil {
		return nil, fmt.Errorf("delete project documents: %w", err)
	}
	return report, nil
}

func uploadedFile(doc *domain.Document) *domain.UploadedFile {
	return &domain.UploadedFile{
		ID:            doc.ID,
		Filename:      doc.Filename,
		FileType:      doc.FileType,
		FileSize:      doc.FileSize,
		Status:        doc.Status,
		ChunksCreated: doc.Metadata.ChunksCreated,
		TextLength:    doc.Metadata.TextLength,
	}
}

func uploadErrorMessage(filename string, err error) string {
	if errors.Is(err, domain.ErrExtractionEmpty) {
		return extractionFailureMessage(filename)
	}
	return fmt.Sprintf("Failed to process %s: %v", filename, err)
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}
