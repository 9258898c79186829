package httpadapter

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
)

const multipartMemoryBytes = 32 << 20

func (rt *Router) uploadFiles(w http.ResponseWriter, r *http.Request) {
	files, ok := rt.readMultipartFiles(w, r)
	if !ok {
		return
	}
	report, err := rt.uploads.UploadFiles(r.Context(), ownerFromContext(r.Context()), files)
	rt.writeUploadReport(w, r, report, err)
}

func (rt *Router) uploadProjectFiles(w http.ResponseWriter, r *http.Request) {
	files, ok := rt.readMultipartFiles(w, r)
	if !ok {
		return
	}
	report, err := rt.uploads.UploadToProject(r.Context(), ownerFromContext(r.Context()), r.PathValue("projectID"), files)
	rt.writeUploadReport(w, r, report, err)
}

func (rt *Router) listProjectFiles(w http.ResponseWriter, r *http.Request) {
	docs, err := rt.uploads.ListProjectFiles(r.Context(), ownerFromContext(r.Context()), r.PathValue("projectID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Documents []domain.Document `json:"documents"`
		Total     int               `json:"total"`
	}{Documents: docs, Total: len(docs)})
}

func (rt *Router) writeUploadReport(w http.ResponseWriter, r *http.Request, report *domain.UploadReport, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordUploads(len(report.Files), len(report.Errors))
	}
	writeJSON(w, http.StatusOK, report)
}

// readMultipartFiles reads the "files" (or "file") parts of the request.
// On failure it writes the response and returns false.
func (rt *Router) readMultipartFiles(w http.ResponseWriter, r *http.Request) ([]domain.UploadFile, bool) {
	if rt.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		writeDetail(w, http.StatusBadRequest, "multipart form is required")
		return nil, false
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		writeDetail(w, http.StatusBadRequest, "multipart field 'files' is required")
		return nil, false
	}

	files := make([]domain.UploadFile, 0, len(headers))
	for _, header := range headers {
		file, err := readUploadFile(header)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, err.Error())
			return nil, false
		}
		files = append(files, file)
	}
	return files, true
}

func readUploadFile(header *multipart.FileHeader) (domain.UploadFile, error) {
	f, err := header.Open()
	if err != nil {
		return domain.UploadFile{}, fmt.Errorf("open %s: %w", header.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.UploadFile{}, fmt.Errorf("read %s: %w", header.Filename, err)
	}
	return domain.UploadFile{
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}

func (rt *Router) listUploads(w http.ResponseWriter, r *http.Request) {
	docs, err := rt.uploads.ListUploads(r.Context(), ownerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Documents []domain.Document `json:"documents"`
		Total     int               `json:"total"`
	}{Documents: docs, Total: len(docs)})
}

func (rt *Router) deleteUpload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := rt.uploads.DeleteUpload(r.Context(), ownerFromContext(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Document %s deleted", id),
	})
}

func (rt *Router) clearUploads(w http.ResponseWriter, r *http.Request) {
	report, err := rt.uploads.ClearUploads(r.Context(), ownerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
