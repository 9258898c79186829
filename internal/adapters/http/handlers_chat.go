package httpadapter

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
	"github.com/dealdesk/diligence-assistant/internal/core/usecase"
)

type chatRequest struct {
	Message     string `json:"message"`
	ChatID      string `json:"chat_id"`
	ProjectID   string `json:"project_id"`
	AllProjects bool   `json:"all_projects"`
}

func (rt *Router) sendChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeDetail(w, http.StatusBadRequest, "message is required")
		return
	}

	started := time.Now()
	reply, err := rt.chat.Send(r.Context(), usecase.SendRequest{
		OwnerID:     ownerFromContext(r.Context()),
		ChatID:      req.ChatID,
		ProjectID:   req.ProjectID,
		AllProjects: req.AllProjects,
		Message:     req.Message,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.observeRAG("chat", retrievalScope(req.ProjectID), len(reply.Sources), started)
	writeJSON(w, http.StatusOK, reply)
}

func (rt *Router) chatHistory(w http.ResponseWriter, r *http.Request) {
	chatID := r.PathValue("chatID")
	messages, err := rt.chat.History(r.Context(), ownerFromContext(r.Context()), chatID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		ChatID   string               `json:"chat_id"`
		Messages []domain.ChatMessage `json:"messages"`
	}{ChatID: chatID, Messages: messages})
}

func (rt *Router) searchMessages(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeDetail(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	hits, err := rt.chat.SearchMessages(r.Context(), ownerFromContext(r.Context()), query, r.URL.Query().Get("project_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Query   string              `json:"query"`
		Results []domain.MessageHit `json:"results"`
	}{Query: query, Results: hits})
}

func (rt *Router) listChats(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeDetail(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	chats, err := rt.chat.ListChats(r.Context(), ownerFromContext(r.Context()), r.URL.Query().Get("project_id"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Chats []domain.ChatSummary `json:"chats"`
		Total int                  `json:"total"`
	}{Chats: chats, Total: len(chats)})
}

func (rt *Router) deleteChat(w http.ResponseWriter, r *http.Request) {
	chatID := r.PathValue("chatID")
	if err := rt.chat.DeleteChat(r.Context(), ownerFromContext(r.Context()), chatID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Chat %s deleted", chatID),
	})
}
