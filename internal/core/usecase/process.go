package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
	"github.com/dealdesk/diligence-assistant/internal/core/ports"
)

type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	storage   ports.ObjectStorage
	extractor ports.TextExtractor
	indexer   ports.DocumentIndexer
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	indexer ports.DocumentIndexer,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:      repo,
		storage:   storage,
		extractor: extractor,
		indexer:   indexer,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	_, err := uc.ProcessDocument(ctx, documentID)
	return err
}

// ProcessDocument indexes a stored document and returns what was produced.
// Redelivered events for a completed document return its recorded metadata
// without indexing again.
func (uc *ProcessDocumentUseCase) ProcessDocument(ctx context.Context, documentID string) (domain.DocumentMetadata, error) {
	doc, err := uc.loadDocument(ctx, documentID)
	if err != nil {
		return domain.DocumentMetadata{}, err
	}
	if doc.Status == domain.StatusCompleted {
		slog.Info("document_already_processed", "document_id", doc.ID)
		return doc.Metadata, nil
	}
	return uc.process(ctx, doc)
}

// process runs extraction and indexing for a stored document and records
// the final status on it.
func (uc *ProcessDocumentUseCase) process(ctx context.Context, doc *domain.Document) (domain.DocumentMetadata, error) {
	meta, err := uc.pipeline(ctx, doc)
	if err != nil {
		if failErr := uc.markFailed(ctx, doc, err); failErr != nil {
			return domain.DocumentMetadata{}, fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return domain.DocumentMetadata{}, err
	}

	if err := uc.repo.MarkCompleted(ctx, doc.ID, meta); err != nil {
		return domain.DocumentMetadata{}, fmt.Errorf("set status=completed: %w", err)
	}
	doc.Status = domain.StatusCompleted
	doc.Metadata = meta
	return meta, nil
}

func (uc *ProcessDocumentUseCase) pipeline(ctx context.Context, doc *domain.Document) (domain.DocumentMetadata, error) {
	raw, err := uc.readSource(ctx, doc)
	if err != nil {
		return domain.DocumentMetadata{}, err
	}

	text, err := uc.extractText(ctx, doc, raw)
	if err != nil {
		return domain.DocumentMetadata{}, err
	}

	created, err := uc.indexer.IndexDocument(ctx, ports.IndexRequest{
		Content:   text,
		Filename:  doc.Filename,
		ProjectID: doc.ProjectID,
	})
	if err != nil {
		return domain.DocumentMetadata{}, fmt.Errorf("index document: %w", err)
	}

	return domain.DocumentMetadata{
		ChunksCreated: created,
		TextLength:    len([]rune(text)),
	}, nil
}

func (uc *ProcessDocumentUseCase) loadDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

func (uc *ProcessDocumentUseCase) readSource(ctx context.Context, doc *domain.Document) ([]byte, error) {
	reader, err := uc.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read source document: %w", err)
	}
	return raw, nil
}

// extractText treats extractor failures and near-empty output alike: the
// document has no usable text.
func (uc *ProcessDocumentUseCase) extractText(ctx context.Context, doc *domain.Document, raw []byte) (string, error) {
	text, err := uc.extractor.Extract(ctx, raw, doc.FileType, doc.Filename)
	if err != nil {
		slog.Warn("text_extraction_failed", "document_id", doc.ID, "filename", doc.Filename, "error", err.Error())
		return "", domain.WrapError(domain.ErrExtractionEmpty, "extract text", err)
	}
	// Only the threshold looks at trimmed text; chunk offsets follow the
	// extraction as returned.
	if usable := len([]rune(strings.TrimSpace(text))); usable <= domain.MinExtractedTextLength {
		return "", domain.WrapError(
			domain.ErrExtractionEmpty,
			"extract text",
			fmt.Errorf("extracted %d characters", usable),
		)
	}
	return text, nil
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, doc *domain.Document, processErr error) error {
	msg := processErr.Error()
	if errors.Is(processErr, domain.ErrExtractionEmpty) {
		msg = extractionFailureMessage(doc.Filename)
	}
	doc.Status = domain.StatusFailed
	doc.Error = msg
	return uc.repo.MarkFailed(ctx, doc.ID, msg)
}

func extractionFailureMessage(filename string) string {
	return fmt.Sprintf("Could not extract readable text from %s. The PDF might be image-based or encrypted.", filename)
}
