package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dealdesk/diligence-assistant/internal/config"
	"github.com/dealdesk/diligence-assistant/internal/core/domain"
	"github.com/dealdesk/diligence-assistant/internal/core/ports"
	"github.com/dealdesk/diligence-assistant/internal/core/usecase"
	"github.com/dealdesk/diligence-assistant/internal/observability/metrics"
)

const (
	maxInFlightRequests = 64
	backpressureWait    = 200 * time.Millisecond
	maxJSONBodyBytes    = 1 << 20
)

type ChatService interface {
	Send(ctx context.Context, req usecase.SendRequest) (*domain.ChatReply, error)
	History(ctx context.Context, ownerID, chatID string) ([]domain.ChatMessage, error)
	SearchMessages(ctx context.Context, ownerID, query, projectID string) ([]domain.MessageHit, error)
	ListChats(ctx context.Context, ownerID, projectID string, limit int) ([]domain.ChatSummary, error)
	DeleteChat(ctx context.Context, ownerID, chatID string) error
}

type UploadService interface {
	UploadFiles(ctx context.Context, ownerID string, files []domain.UploadFile) (*domain.UploadReport, error)
	ListUploads(ctx context.Context, ownerID string) ([]domain.Document, error)
	DeleteUpload(ctx context.Context, ownerID, documentID string) error
	ClearUploads(ctx context.Context, ownerID string) (*domain.ClearReport, error)
	UploadToProject(ctx context.Context, ownerID, projectID string, files []domain.UploadFile) (*domain.UploadReport, error)
	ListProjectFiles(ctx context.Context, ownerID, projectID string) ([]domain.Document, error)
}

type ProjectService interface {
	CreateProject(ctx context.Context, ownerID, name, description, projectType string) (*domain.Project, error)
	ListProjects(ctx context.Context, ownerID string) ([]domain.Project, error)
	GetProject(ctx context.Context, ownerID, projectID string) (*domain.ProjectDetail, error)
	UpdateProject(ctx context.Context, ownerID, projectID string, patch domain.ProjectPatch) (*domain.Project, error)
	DeleteProject(ctx context.Context, ownerID, projectID string) error
}

type StatsService interface {
	ProjectStats(ctx context.Context, ownerID, projectID string) (*domain.ProjectStats, error)
}

type Services struct {
	Chat     ChatService
	Uploads  UploadService
	Projects ProjectService
	Stats    StatsService
	Searcher ports.Searcher
}

type Router struct {
	chat     ChatService
	uploads  UploadService
	projects ProjectService
	stats    StatsService
	searcher ports.Searcher
	metrics  *metrics.HTTPServerMetrics

	topK           int
	maxUploadBytes int64
	jwtSecret      string
	rateLimitRPS   float64
	rateLimitBurst int
}

func NewRouter(cfg config.Config, services Services, httpMetrics *metrics.HTTPServerMetrics) *Router {
	return &Router{
		chat:           services.Chat,
		uploads:        services.Uploads,
		projects:       services.Projects,
		stats:          services.Stats,
		searcher:       services.Searcher,
		metrics:        httpMetrics,
		topK:           cfg.TopK,
		maxUploadBytes: cfg.MaxUploadBytes,
		jwtSecret:      cfg.AuthJWTSecret,
		rateLimitRPS:   cfg.RateLimitRPS,
		rateLimitBurst: cfg.RateLimitBurst,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	mux.HandleFunc("POST /v1/chat", rt.sendChat)
	mux.HandleFunc("GET /v1/chat/history/{chatID}", rt.chatHistory)
	mux.HandleFunc("GET /v1/chat/search", rt.searchMessages)
	mux.HandleFunc("DELETE /v1/chat/{chatID}", rt.deleteChat)
	mux.HandleFunc("GET /v1/chats", rt.listChats)

	mux.HandleFunc("POST /v1/uploads", rt.uploadFiles)
	mux.HandleFunc("GET /v1/uploads", rt.listUploads)
	mux.HandleFunc("DELETE /v1/uploads/{id}", rt.deleteUpload)
	mux.HandleFunc("DELETE /v1/uploads", rt.clearUploads)

	mux.HandleFunc("POST /v1/search", rt.search)
	mux.HandleFunc("GET /v1/projects/{projectID}/stats", rt.projectStats)

	mux.HandleFunc("POST /v1/projects", rt.createProject)
	mux.HandleFunc("GET /v1/projects", rt.listProjects)
	mux.HandleFunc("GET /v1/projects/{projectID}", rt.getProject)
	mux.HandleFunc("PATCH /v1/projects/{projectID}", rt.updateProject)
	mux.HandleFunc("DELETE /v1/projects/{projectID}", rt.deleteProject)
	mux.HandleFunc("POST /v1/projects/{projectID}/files", rt.uploadProjectFiles)
	mux.HandleFunc("GET /v1/projects/{projectID}/files", rt.listProjectFiles)

	var handler http.Handler = mux
	handler = authMiddleware(rt.jwtSecret, handler)
	handler = backpressureMiddleware(handler, maxInFlightRequests, backpressureWait)
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) observeRAG(endpoint, scope string, sources int, started time.Time) {
	if rt.metrics == nil {
		return
	}
	rt.metrics.RecordRAGObservation(endpoint, scope, sources, time.Since(started))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func retrievalScope(projectID string) string {
	if projectID == "" {
		return "all_projects"
	}
	return "project"
}
