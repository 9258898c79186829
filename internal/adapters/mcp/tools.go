package mcpadapter

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
	"github.com/dealdesk/diligence-assistant/internal/core/usecase"
)

type SearchInput struct {
	Query     string `json:"query" jsonschema:"the question or keywords to match against indexed documents"`
	OwnerID   string `json:"owner_id" jsonschema:"the user whose projects are searched"`
	ProjectID string `json:"project_id,omitempty" jsonschema:"restrict the search to one project"`
	TopK      int    `json:"top_k,omitempty" jsonschema:"maximum results; only valid together with project_id"`
}

type SearchOutput struct {
	Results []domain.RetrievalResult `json:"results"`
	Count   int                      `json:"count"`
}

type AskInput struct {
	Query       string `json:"query" jsonschema:"the question to answer from the documents"`
	OwnerID     string `json:"owner_id" jsonschema:"the user asking"`
	ProjectID   string `json:"project_id,omitempty" jsonschema:"move the chat to one project"`
	AllProjects bool   `json:"all_projects,omitempty" jsonschema:"move the chat back to retrieval across every project"`
	ChatID      string `json:"chat_id,omitempty" jsonschema:"continue an existing chat"`
}

type AskOutput struct {
	ChatID   string                   `json:"chat_id"`
	Response string                   `json:"response"`
	Sources  []domain.RetrievalResult `json:"sources"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Rank uploaded due-diligence document chunks against a query",
	}, s.handleSearch)

	if s.services.Chat != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask_documents",
			Description: "Answer a question from uploaded due-diligence documents and record it in chat history",
		}, s.handleAsk)
	}
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, errors.New("query is required")
	}
	if strings.TrimSpace(input.OwnerID) == "" {
		return nil, SearchOutput{}, errors.New("owner_id is required")
	}
	if input.TopK != 0 && input.ProjectID == "" {
		return nil, SearchOutput{}, errors.New("top_k requires project_id; a search across projects returns a fixed number of results")
	}
	topK := input.TopK
	if topK <= 0 {
		topK = s.topK
	}

	var (
		results []domain.RetrievalResult
		err     error
	)
	if input.ProjectID != "" {
		results, err = s.services.Searcher.SearchProject(ctx, input.Query, input.OwnerID, input.ProjectID, topK)
	} else {
		results, err = s.services.Searcher.SearchAll(ctx, input.Query, input.OwnerID)
	}
	if err != nil {
		return nil, SearchOutput{}, err
	}
	if results == nil {
		results = []domain.RetrievalResult{}
	}
	return nil, SearchOutput{Results: results, Count: len(results)}, nil
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	reply, err := s.services.Chat.Send(ctx, usecase.SendRequest{
		OwnerID:     input.OwnerID,
		ChatID:      input.ChatID,
		ProjectID:   input.ProjectID,
		AllProjects: input.AllProjects,
		Message:     input.Query,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{ChatID: reply.ChatID, Response: reply.Response, Sources: reply.Sources}, nil
}
