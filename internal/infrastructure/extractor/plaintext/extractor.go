package plaintext

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns UTF-8 text as-is, trimmed.
func (e *Extractor) Extract(_ context.Context, data []byte, _ string, filename string) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("invalid utf-8 in %s", filename)
	}
	return strings.TrimSpace(string(data)), nil
}

// Fallback handles unknown formats: everything outside printable ASCII,
// newlines and tabs is dropped.
type Fallback struct{}

func NewFallback() *Fallback {
	return &Fallback{}
}

func (f *Fallback) Extract(_ context.Context, data []byte, _, _ string) (string, error) {
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		if (c >= 0x20 && c <= 0x7e) || c == '\n' || c == '\r' || c == '\t' {
			b.WriteByte(c)
		}
	}
	return strings.TrimSpace(b.String()), nil
}
