// Package cli implements ragctl, an operator tool for indexing files and
// exercising retrieval without the HTTP API.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
	"github.com/dealdesk/diligence-assistant/internal/core/ports"
	"github.com/dealdesk/diligence-assistant/internal/core/usecase"
)

type UploadService interface {
	UploadFiles(ctx context.Context, ownerID string, files []domain.UploadFile) (*domain.UploadReport, error)
	ListUploads(ctx context.Context, ownerID string) ([]domain.Document, error)
	ClearUploads(ctx context.Context, ownerID string) (*domain.ClearReport, error)
	UploadToProject(ctx context.Context, ownerID, projectID string, files []domain.UploadFile) (*domain.UploadReport, error)
}

type ProjectService interface {
	CreateProject(ctx context.Context, ownerID, name, description, projectType string) (*domain.Project, error)
	ListProjects(ctx context.Context, ownerID string) ([]domain.Project, error)
	DeleteProject(ctx context.Context, ownerID, projectID string) error
}

type ChatService interface {
	Send(ctx context.Context, req usecase.SendRequest) (*domain.ChatReply, error)
}

type Services struct {
	Uploads  UploadService
	Projects ProjectService
	Searcher ports.Searcher
	Chat     ChatService
	TopK     int
}

type options struct {
	owner   string
	project string
	asJSON  bool
}

// NewRootCommand builds the command tree around services.
func NewRootCommand(services Services) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "ragctl",
		Short:         "Index and query due-diligence documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.owner, "owner", "local", "owner id whose projects are used")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print results as JSON")

	root.AddCommand(
		newIndexCommand(services, opts),
		newSearchCommand(services, opts),
		newAskCommand(services, opts),
		newUploadsCommand(services, opts),
		newProjectsCommand(services, opts),
	)
	return root
}
