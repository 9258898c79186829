package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
	"github.com/dealdesk/diligence-assistant/internal/core/ports"
)

const DefaultLLMTimeout = 60 * time.Second

// FallbackObserver is notified whenever a reply is produced without the LLM.
type FallbackObserver interface {
	RecordLLMFallback(reason string)
}

type ResponseUseCase struct {
	model        ports.ChatModel
	timeout      time.Duration
	historyLimit int
	observer     FallbackObserver
}

// NewResponseUseCase builds the responder. A nil model means no LLM is
// configured and every reply comes from the fallback path.
func NewResponseUseCase(model ports.ChatModel, timeout time.Duration, historyLimit int) *ResponseUseCase {
	if timeout <= 0 {
		timeout = DefaultLLMTimeout
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryMessages
	}
	return &ResponseUseCase{
		model:        model,
		timeout:      timeout,
		historyLimit: historyLimit,
	}
}

func (uc *ResponseUseCase) WithObserver(observer FallbackObserver) *ResponseUseCase {
	uc.observer = observer
	return uc
}

// GenerateResponse asks the LLM to answer query from results and history.
// Any LLM failure degrades to a deterministic reply built from results.
func (uc *ResponseUseCase) GenerateResponse(
	ctx context.Context,
	query string,
	results []domain.RetrievalResult,
	history []domain.ChatMessage,
) string {
	if uc.model == nil {
		return uc.fallback("not_configured", results, nil)
	}

	callCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	reply, err := uc.model.Complete(callCtx, buildMessages(query, results, history, uc.historyLimit))
	if err != nil {
		return uc.fallback(fallbackReason(err), results, err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return uc.fallback("empty_reply", results, nil)
	}
	return reply
}

func (uc *ResponseUseCase) fallback(reason string, results []domain.RetrievalResult, cause error) string {
	attrs := []any{"reason", reason, "sources", len(results)}
	if cause != nil {
		attrs = append(attrs, "error", cause.Error())
	}
	slog.Warn("llm_fallback", attrs...)
	if uc.observer != nil {
		uc.observer.RecordLLMFallback(reason)
	}
	return buildFallbackResponse(results)
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrLLMUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrTemporary):
		return "temporary"
	default:
		return "error"
	}
}
