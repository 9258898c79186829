package router

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/dealdesk/diligence-assistant/internal/core/ports"
	"github.com/dealdesk/diligence-assistant/internal/infrastructure/extractor/htmltext"
	"github.com/dealdesk/diligence-assistant/internal/infrastructure/extractor/pdf"
	"github.com/dealdesk/diligence-assistant/internal/infrastructure/extractor/plaintext"
	"github.com/dealdesk/diligence-assistant/internal/infrastructure/extractor/spreadsheet"
)

const (
	kindPDF         = "pdf"
	kindSpreadsheet = "spreadsheet"
	kindHTML        = "html"
	kindText        = "text"
)

var mimeKinds = map[string]string{
	"application/pdf": kindPDF,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": kindSpreadsheet,
	"text/html":        kindHTML,
	"text/plain":       kindText,
	"text/markdown":    kindText,
	"text/csv":         kindText,
	"application/json": kindText,
	"text/xml":         kindText,
	"application/xml":  kindText,
}

var extensionKinds = map[string]string{
	".pdf":  kindPDF,
	".xlsx": kindSpreadsheet,
	".html": kindHTML,
	".htm":  kindHTML,
	".txt":  kindText,
	".md":   kindText,
	".csv":  kindText,
	".json": kindText,
	".xml":  kindText,
}

// Extractor picks a format-specific extractor by MIME type, then by file
// extension, and falls back to printable-ASCII filtering.
type Extractor struct {
	byKind   map[string]ports.TextExtractor
	fallback ports.TextExtractor
}

func New() *Extractor {
	return &Extractor{
		byKind: map[string]ports.TextExtractor{
			kindPDF:         pdf.NewExtractor(),
			kindSpreadsheet: spreadsheet.NewExtractor(),
			kindHTML:        htmltext.NewExtractor(),
			kindText:        plaintext.NewExtractor(),
		},
		fallback: plaintext.NewFallback(),
	}
}

func (e *Extractor) Extract(ctx context.Context, data []byte, mimeType, filename string) (string, error) {
	return e.pick(mimeType, filename).Extract(ctx, data, mimeType, filename)
}

func (e *Extractor) pick(mimeType, filename string) ports.TextExtractor {
	if kind, ok := mimeKinds[normalizeMIME(mimeType)]; ok {
		return e.byKind[kind]
	}
	if kind, ok := extensionKinds[strings.ToLower(filepath.Ext(filename))]; ok {
		return e.byKind[kind]
	}
	return e.fallback
}

func normalizeMIME(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
