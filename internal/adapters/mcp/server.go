// Package mcpadapter exposes document search and question answering as MCP
// tools over stdio.
package mcpadapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
	"github.com/dealdesk/diligence-assistant/internal/core/ports"
	"github.com/dealdesk/diligence-assistant/internal/core/usecase"
)

const Version = "0.1.0"

var ErrMissingSearcher = errors.New("mcp: searcher is required")

type ChatService interface {
	Send(ctx context.Context, req usecase.SendRequest) (*domain.ChatReply, error)
}

type Services struct {
	Searcher ports.Searcher
	// Chat is optional; without it ask_documents is not registered.
	Chat ChatService
}

type Server struct {
	services Services
	topK     int
	server   *mcp.Server
}

func NewServer(services Services, topK int) (*Server, error) {
	if services.Searcher == nil {
		return nil, ErrMissingSearcher
	}
	if topK <= 0 {
		topK = usecase.DefaultTopK
	}
	s := &Server{
		services: services,
		topK:     topK,
		server:   mcp.NewServer(&mcp.Implementation{Name: "diligence-assistant", Version: Version}, nil),
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
