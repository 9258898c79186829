package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
	"github.com/dealdesk/diligence-assistant/internal/core/ports"
)

const (
	chatTitleRunes     = 50
	messageSearchLimit = 10

	DefaultChatListLimit = 20
	MaxChatListLimit     = 100
)

// SendRequest asks for one chat turn. ProjectID moves the chat to that
// project and AllProjects moves it back to cross-project retrieval; the new
// scope is kept for later turns.
type SendRequest struct {
	OwnerID     string
	ChatID      string
	ProjectID   string
	AllProjects bool
	Message     string
}

type ChatUseCase struct {
	conversations ports.ConversationStore
	projects      ports.ProjectStore
	searcher      ports.Searcher
	responder     ports.Responder
	historyLimit  int
	now           func() time.Time
}

func NewChatUseCase(
	conversations ports.ConversationStore,
	projects ports.ProjectStore,
	searcher ports.Searcher,
	responder ports.Responder,
	historyLimit int,
) *ChatUseCase {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryMessages
	}
	return &ChatUseCase{
		conversations: conversations,
		projects:      projects,
		searcher:      searcher,
		responder:     responder,
		historyLimit:  historyLimit,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Send answers the user's message from retrieved context and stores both
// turns. Retrieval uses the chat's project, or every owned project when the
// chat has none. Nothing is stored when the project or retrieval fails.
func (uc *ChatUseCase) Send(ctx context.Context, req SendRequest) (*domain.ChatReply, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "send message", errors.New("message is required"))
	}
	if req.AllProjects && req.ProjectID != "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "send message", errors.New("project_id and all_projects are exclusive"))
	}
	if req.ProjectID != "" {
		if _, err := uc.projects.GetByID(ctx, req.OwnerID, req.ProjectID); err != nil {
			return nil, fmt.Errorf("resolve chat project: %w", err)
		}
	}

	chat, isNew, err := uc.resolveChat(ctx, req)
	if err != nil {
		return nil, err
	}
	scope := chat.ProjectID
	switch {
	case req.ProjectID != "":
		scope = req.ProjectID
	case req.AllProjects:
		scope = ""
	}

	sources, err := uc.retrieve(ctx, req.OwnerID, scope, req.Message)
	if err != nil {
		return nil, err
	}

	var history []domain.ChatMessage
	if isNew {
		chat.ProjectID = scope
		if err := uc.conversations.CreateChat(ctx, chat); err != nil {
			return nil, fmt.Errorf("create chat: %w", err)
		}
	} else {
		if scope != chat.ProjectID {
			if err := uc.conversations.SetChatProject(ctx, req.OwnerID, chat.ID, scope); err != nil {
				return nil, fmt.Errorf("update chat project: %w", err)
			}
			chat.ProjectID = scope
		}
		history, err = uc.conversations.ListRecentMessages(ctx, chat.ID, uc.historyLimit)
		if err != nil {
			return nil, fmt.Errorf("load chat history: %w", err)
		}
	}

	if _, err := uc.appendMessage(ctx, chat.ID, domain.RoleUser, req.Message); err != nil {
		return nil, err
	}

	response := uc.responder.GenerateResponse(ctx, req.Message, sources, history)

	reply, err := uc.appendMessage(ctx, chat.ID, domain.RoleAssistant, response)
	if err != nil {
		return nil, err
	}

	return &domain.ChatReply{
		ChatID:    chat.ID,
		MessageID: reply.ID,
		Response:  response,
		Sources:   sources,
	}, nil
}

// ListChats returns the owner's chats, most recently active first. An empty
// projectID lists chats of every project.
func (uc *ChatUseCase) ListChats(ctx context.Context, ownerID, projectID string, limit int) ([]domain.ChatSummary, error) {
	if limit <= 0 {
		limit = DefaultChatListLimit
	}
	if limit > MaxChatListLimit {
		limit = MaxChatListLimit
	}
	chats, err := uc.conversations.ListChats(ctx, ownerID, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

// DeleteChat removes an owned chat with its messages.
func (uc *ChatUseCase) DeleteChat(ctx context.Context, ownerID, chatID string) error {
	if chatID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "delete chat", errors.New("chat id is required"))
	}
	if err := uc.conversations.DeleteChat(ctx, ownerID, chatID); err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	return nil
}

// History returns all messages of an owned chat in chronological order.
func (uc *ChatUseCase) History(ctx context.Context, ownerID, chatID string) ([]domain.ChatMessage, error) {
	if _, err := uc.conversations.GetChat(ctx, ownerID, chatID); err != nil {
		return nil, fmt.Errorf("fetch chat: %w", err)
	}
	messages, err := uc.conversations.ListMessages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return messages, nil
}

// SearchMessages finds the owner's messages containing query, newest first.
func (uc *ChatUseCase) SearchMessages(ctx context.Context, ownerID, query, projectID string) ([]domain.MessageHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search messages", errors.New("query is required"))
	}
	hits, err := uc.conversations.SearchMessages(ctx, ownerID, query, projectID, messageSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	return hits, nil
}

// resolveChat loads an existing chat or prepares an unsaved new one.
func (uc *ChatUseCase) resolveChat(ctx context.Context, req SendRequest) (*domain.Chat, bool, error) {
	if req.ChatID != "" {
		chat, err := uc.conversations.GetChat(ctx, req.OwnerID, req.ChatID)
		if err != nil {
			return nil, false, fmt.Errorf("fetch chat: %w", err)
		}
		return chat, false, nil
	}
	return &domain.Chat{
		ID:        uuid.NewString(),
		OwnerID:   req.OwnerID,
		Title:     chatTitle(req.Message),
		CreatedAt: uc.now(),
	}, true, nil
}

func (uc *ChatUseCase) retrieve(ctx context.Context, ownerID, projectID, query string) ([]domain.RetrievalResult, error) {
	var (
		results []domain.RetrievalResult
		err     error
	)
	if projectID != "" {
		results, err = uc.searcher.SearchProject(ctx, query, ownerID, projectID, 0)
	} else {
		results, err = uc.searcher.SearchAll(ctx, query, ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	return results, nil
}

func (uc *ChatUseCase) appendMessage(ctx context.Context, chatID string, role domain.Role, content string) (*domain.ChatMessage, error) {
	msg := &domain.ChatMessage{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		CreatedAt: uc.now(),
	}
	if err := uc.conversations.AppendMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save %s message: %w", role, err)
	}
	return msg, nil
}

func chatTitle(message string) string {
	runes := []rune(message)
	if len(runes) <= chatTitleRunes {
		return message
	}
	return string(runes[:chatTitleRunes]) + "..."
}
