package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
)

type ConversationRepository struct {
	db *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) CreateChat(ctx context.Context, chat *domain.Chat) error {
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO chats (id, owner_id, project_id, title, created_at)
VALUES ($1, $2, $3, $4, $5)
`, chat.ID, chat.OwnerID, nullableString(chat.ProjectID), chat.Title, chat.CreatedAt)
	if err != nil {
		return fmt.Errorf("create chat: %w", err)
	}
	return nil
}

func (r *ConversationRepository) GetChat(ctx context.Context, ownerID, chatID string) (*domain.Chat, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, owner_id, COALESCE(project_id, ''), title, created_at
FROM chats
WHERE id = $1 AND owner_id = $2
`, chatID, ownerID)

	var chat domain.Chat
	if err := row.Scan(&chat.ID, &chat.OwnerID, &chat.ProjectID, &chat.Title, &chat.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrChatNotFound, "get chat", fmt.Errorf("id=%s", chatID))
		}
		return nil, fmt.Errorf("get chat: %w", err)
	}
	return &chat, nil
}

func (r *ConversationRepository) AppendMessage(ctx context.Context, message *domain.ChatMessage) error {
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO chat_messages (id, chat_id, role, content, created_at)
VALUES ($1, $2, $3, $4, $5)
`, message.ID, message.ChatID, string(message.Role), message.Content, message.CreatedAt)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (r *ConversationRepository) ListRecentMessages(ctx context.Context, chatID string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, chat_id, role, content, created_at
FROM chat_messages
WHERE chat_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent messages: %w", err)
	}
	defer rows.Close()

	out, err := scanMessages(rows, limit)
	if err != nil {
		return nil, err
	}

	// Returned in descending order from SQL; reverse to keep chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *ConversationRepository) ListMessages(ctx context.Context, chatID string) ([]domain.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, chat_id, role, content, created_at
FROM chat_messages
WHERE chat_id = $1
ORDER BY created_at ASC, id ASC
`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows, 0)
}

// SearchMessages does a case-insensitive substring match over the owner's
// messages, newest first. An empty projectID searches every chat.
func (r *ConversationRepository) SearchMessages(ctx context.Context, ownerID, query, projectID string, limit int) ([]domain.MessageHit, error) {
	if limit <= 0 {
		return []domain.MessageHit{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT m.id, m.chat_id, m.role, m.content, m.created_at, c.title, COALESCE(c.project_id, '')
FROM chat_messages m
JOIN chats c ON c.id = m.chat_id
WHERE c.owner_id = $1
  AND strpos(lower(m.content), lower($2)) > 0
  AND ($3 = '' OR c.project_id = $3)
ORDER BY m.created_at DESC, m.id
LIMIT $4
`, ownerID, query, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	defer rows.Close()

	out := make([]domain.MessageHit, 0)
	for rows.Next() {
		var hit domain.MessageHit
		var role string
		if err := rows.Scan(
			&hit.ID,
			&hit.ChatID,
			&role,
			&hit.Content,
			&hit.CreatedAt,
			&hit.ChatTitle,
			&hit.ProjectID,
		); err != nil {
			return nil, fmt.Errorf("scan message hit: %w", err)
		}
		hit.Role = domain.Role(role)
		out = append(out, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message hits: %w", err)
	}
	return out, nil
}

// lastMessagePreviewRunes bounds the last message shown in chat lists.
const lastMessagePreviewRunes = 100

func (r *ConversationRepository) ListChats(ctx context.Context, ownerID, projectID string, limit int) ([]domain.ChatSummary, error) {
	if limit <= 0 {
		return []domain.ChatSummary{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT c.id, c.owner_id, COALESCE(c.project_id, ''), c.title, c.created_at,
	COUNT(m.id),
	COALESCE(MAX(m.created_at), c.created_at) AS updated_at,
	COALESCE((
		SELECT left(l.content, $4)
		FROM chat_messages l
		WHERE l.chat_id = c.id
		ORDER BY l.created_at DESC, l.id DESC
		LIMIT 1
	), '')
FROM chats c
LEFT JOIN chat_messages m ON m.chat_id = c.id
WHERE c.owner_id = $1
  AND ($2 = '' OR c.project_id = $2)
GROUP BY c.id
ORDER BY updated_at DESC, c.id
LIMIT $3
`, ownerID, projectID, limit, lastMessagePreviewRunes)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ChatSummary, 0)
	for rows.Next() {
		var s domain.ChatSummary
		if err := rows.Scan(
			&s.ID,
			&s.OwnerID,
			&s.ProjectID,
			&s.Title,
			&s.CreatedAt,
			&s.MessageCount,
			&s.UpdatedAt,
			&s.LastMessage,
		); err != nil {
			return nil, fmt.Errorf("scan chat summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}
	return out, nil
}

func (r *ConversationRepository) SetChatProject(ctx context.Context, ownerID, chatID, projectID string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE chats
SET project_id = $1
WHERE id = $2 AND owner_id = $3
`, nullableString(projectID), chatID, ownerID)
	if err != nil {
		return fmt.Errorf("set chat project: %w", err)
	}
	return affectedOrNotFound(result, domain.ErrChatNotFound, "set chat project", chatID)
}

// DeleteChat removes an owned chat; messages go through ON DELETE CASCADE.
func (r *ConversationRepository) DeleteChat(ctx context.Context, ownerID, chatID string) error {
	result, err := r.db.ExecContext(ctx, `
DELETE FROM chats
WHERE id = $1 AND owner_id = $2
`, chatID, ownerID)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	return affectedOrNotFound(result, domain.ErrChatNotFound, "delete chat", chatID)
}

func scanMessages(rows *sql.Rows, capacity int) ([]domain.ChatMessage, error) {
	out := make([]domain.ChatMessage, 0, capacity)
	for rows.Next() {
		var msg domain.ChatMessage
		var role string
		if err := rows.Scan(&msg.ID, &msg.ChatID, &role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = domain.Role(role)
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}

func nullableString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
