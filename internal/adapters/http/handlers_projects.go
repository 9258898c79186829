package httpadapter

import (
	"fmt"
	"net/http"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
)

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

func (rt *Router) createProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	project, err := rt.projects.CreateProject(r.Context(), ownerFromContext(r.Context()), req.Name, req.Description, req.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (rt *Router) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := rt.projects.ListProjects(r.Context(), ownerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Projects []domain.Project `json:"projects"`
		Total    int              `json:"total"`
	}{Projects: projects, Total: len(projects)})
}

func (rt *Router) getProject(w http.ResponseWriter, r *http.Request) {
	detail, err := rt.projects.GetProject(r.Context(), ownerFromContext(r.Context()), r.PathValue("projectID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (rt *Router) updateProject(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProjectPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	project, err := rt.projects.UpdateProject(r.Context(), ownerFromContext(r.Context()), r.PathValue("projectID"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (rt *Router) deleteProject(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectID")
	if err := rt.projects.DeleteProject(r.Context(), ownerFromContext(r.Context()), projectID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Project %s deleted", projectID),
	})
}
