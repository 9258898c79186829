package httpadapter

import (
	"context"
	"net/http"

	"github.com/dealdesk/diligence-assistant/internal/config"
	"github.com/dealdesk/diligence-assistant/internal/core/domain"
	"github.com/dealdesk/diligence-assistant/internal/core/usecase"
)

type chatServiceFake struct {
	reply     *domain.ChatReply
	history   []domain.ChatMessage
	hits      []domain.MessageHit
	chats     []domain.ChatSummary
	err       error
	lastSend  usecase.SendRequest
	listArgs  []any
	deletedID string
}

func (f *chatServiceFake) Send(_ context.Context, req usecase.SendRequest) (*domain.ChatReply, error) {
	f.lastSend = req
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func (f *chatServiceFake) History(context.Context, string, string) ([]domain.ChatMessage, error) {
	return f.history, f.err
}

func (f *chatServiceFake) SearchMessages(context.Context, string, string, string) ([]domain.MessageHit, error) {
	return f.hits, f.err
}

func (f *chatServiceFake) ListChats(_ context.Context, ownerID, projectID string, limit int) ([]domain.ChatSummary, error) {
	f.listArgs = []any{ownerID, projectID, limit}
	return f.chats, f.err
}

func (f *chatServiceFake) DeleteChat(_ context.Context, _, chatID string) error {
	f.deletedID = chatID
	return f.err
}

type uploadServiceFake struct {
	files     []domain.UploadFile
	ownerID   string
	projectID string
	deletedID string
	docs      []domain.Document
	err       error
}

func (f *uploadServiceFake) UploadFiles(_ context.Context, ownerID string, files []domain.UploadFile) (*domain.UploadReport, error) {
	f.ownerID = ownerID
	f.files = files
	if f.err != nil {
		return nil, f.err
	}
	report := &domain.UploadReport{}
	for _, file := range files {
		report.Files = append(report.Files, domain.UploadedFile{Filename: file.Filename, Status: domain.StatusCompleted})
	}
	report.FilesUploaded = len(report.Files)
	report.Success = report.FilesUploaded > 0
	return report, nil
}

func (f *uploadServiceFake) ListUploads(_ context.Context, ownerID string) ([]domain.Document, error) {
	f.ownerID = ownerID
	return f.docs, f.err
}

func (f *uploadServiceFake) DeleteUpload(_ context.Context, ownerID, documentID string) error {
	f.ownerID = ownerID
	f.deletedID = documentID
	return f.err
}

func (f *uploadServiceFake) ClearUploads(context.Context, string) (*domain.ClearReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ClearReport{VectorsDeleted: 12, DocumentsDeleted: 2}, nil
}

func (f *uploadServiceFake) UploadToProject(ctx context.Context, ownerID, projectID string, files []domain.UploadFile) (*domain.UploadReport, error) {
	f.projectID = projectID
	report, err := f.UploadFiles(ctx, ownerID, files)
	if err != nil {
		return nil, err
	}
	report.ProjectID = projectID
	return report, nil
}

func (f *uploadServiceFake) ListProjectFiles(_ context.Context, ownerID, projectID string) ([]domain.Document, error) {
	f.ownerID = ownerID
	f.projectID = projectID
	return f.docs, f.err
}

type projectServiceFake struct {
	created   createProjectRequest
	patch     domain.ProjectPatch
	deletedID string
	projects  []domain.Project
	err       error
}

func (f *projectServiceFake) CreateProject(_ context.Context, ownerID, name, description, projectType string) (*domain.Project, error) {
	f.created = createProjectRequest{Name: name, Description: description, Type: projectType}
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Project{ID: "proj-new", OwnerID: ownerID, Name: name, Description: description, Type: projectType}, nil
}

func (f *projectServiceFake) ListProjects(context.Context, string) ([]domain.Project, error) {
	return f.projects, f.err
}

func (f *projectServiceFake) GetProject(_ context.Context, ownerID, projectID string) (*domain.ProjectDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ProjectDetail{Project: domain.Project{ID: projectID, OwnerID: ownerID}, DocumentCount: 3, ChatCount: 1}, nil
}

func (f *projectServiceFake) UpdateProject(_ context.Context, ownerID, projectID string, patch domain.ProjectPatch) (*domain.Project, error) {
	f.patch = patch
	if f.err != nil {
		return nil, f.err
	}
	project := &domain.Project{ID: projectID, OwnerID: ownerID}
	if patch.Name != nil {
		project.Name = *patch.Name
	}
	return project, nil
}

func (f *projectServiceFake) DeleteProject(_ context.Context, _, projectID string) error {
	f.deletedID = projectID
	return f.err
}

type statsServiceFake struct {
	err error
}

func (f statsServiceFake) ProjectStats(_ context.Context, _ string, projectID string) (*domain.ProjectStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ProjectStats{ProjectID: projectID, TotalChunks: 7}, nil
}

type searcherFake struct {
	results      []domain.RetrievalResult
	err          error
	projectCalls []string
	allCalls     []string
	lastTopK     int
}

func (f *searcherFake) SimilaritySearch(_ context.Context, _ string, projectID string, topK int) ([]domain.RetrievalResult, error) {
	f.projectCalls = append(f.projectCalls, projectID)
	f.lastTopK = topK
	return f.results, f.err
}

func (f *searcherFake) SearchProject(ctx context.Context, query, _ string, projectID string, topK int) ([]domain.RetrievalResult, error) {
	return f.SimilaritySearch(ctx, query, projectID, topK)
}

func (f *searcherFake) SearchAll(_ context.Context, _ string, ownerID string) ([]domain.RetrievalResult, error) {
	f.allCalls = append(f.allCalls, ownerID)
	return f.results, f.err
}

type testDeps struct {
	chat     *chatServiceFake
	uploads  *uploadServiceFake
	projects *projectServiceFake
	stats    statsServiceFake
	searcher *searcherFake
}

func newTestDeps() *testDeps {
	return &testDeps{
		chat:     &chatServiceFake{reply: &domain.ChatReply{ChatID: "chat-1", Response: "ok"}},
		uploads:  &uploadServiceFake{},
		projects: &projectServiceFake{},
		searcher: &searcherFake{},
	}
}

func (d *testDeps) handler(cfg config.Config) http.Handler {
	if cfg.TopK == 0 {
		cfg.TopK = 5
	}
	return NewRouter(cfg, Services{
		Chat:     d.chat,
		Uploads:  d.uploads,
		Projects: d.projects,
		Stats:    d.stats,
		Searcher: d.searcher,
	}, nil).Handler()
}
