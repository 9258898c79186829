package httpadapter

import (
	"net/http"
	"strings"
	"time"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
)

type searchRequest struct {
	Query     string `json:"query"`
	ProjectID string `json:"project_id"`
	TopK      int    `json:"top_k"`
}

// search exposes retrieval without generation, mostly for debugging ranking.
func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeDetail(w, http.StatusBadRequest, "query is required")
		return
	}
	// Cross-project search has a fixed global cap.
	if req.TopK != 0 && req.ProjectID == "" {
		writeDetail(w, http.StatusBadRequest, "top_k requires project_id")
		return
	}
	topK := req.TopK
	if topK <= 0 {
		topK = rt.topK
	}

	owner := ownerFromContext(r.Context())
	started := time.Now()
	var (
		results []domain.RetrievalResult
		err     error
	)
	if req.ProjectID != "" {
		results, err = rt.searcher.SearchProject(r.Context(), req.Query, owner, req.ProjectID, topK)
	} else {
		results, err = rt.searcher.SearchAll(r.Context(), req.Query, owner)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.observeRAG("search", retrievalScope(req.ProjectID), len(results), started)

	writeJSON(w, http.StatusOK, struct {
		Query   string                   `json:"query"`
		Results []domain.RetrievalResult `json:"results"`
		Count   int                      `json:"count"`
	}{Query: req.Query, Results: results, Count: len(results)})
}

func (rt *Router) projectStats(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.stats.ProjectStats(r.Context(), ownerFromContext(r.Context()), r.PathValue("projectID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
