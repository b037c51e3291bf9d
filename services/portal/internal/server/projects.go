package server

import (
	"net/http"
	"strings"

	"leilaoai/services/portal/internal/app"
)

type projectRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Price          string `json:"price"`
	EstimatedPrice string `json:"estimatedPrice"`
}

type manualLotRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		projects, err := s.app.ListProjects()
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": projects,
			"count": len(projects),
		})
	case http.MethodPost:
		s.handleCreateProject(w, r)
	default:
		methodNotAllowed(w)
	}
}

// handleCreateProject takes a multipart form with an optional edital, or a
// JSON body for an empty project.
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var (
		in     app.ProjectInput
		edital *app.Upload
		pages  string
	)
	if isMultipart(r) {
		upload, err := s.readUpload(w, r)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		edital = upload
		in = app.ProjectInput{
			Name:           r.FormValue("name"),
			Description:    r.FormValue("description"),
			Price:          r.FormValue("price"),
			EstimatedPrice: r.FormValue("estimatedPrice"),
		}
		pages = r.FormValue("pages")
	} else {
		var req projectRequest
		if err := decodeJSON(r, &req); err != nil {
			writeAppError(w, r, err)
			return
		}
		in = app.ProjectInput(req)
	}
	if edital != nil && !s.allowRate(w, r) {
		return
	}
	project, err := s.app.CreateProject(r.Context(), in, edital, pages)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// /api/projects/{id}[/reanalyze|/municipal|/lots|/edital]
func (s *Server) handleProjectByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/projects/")
	parts := strings.SplitN(path, "/", 2)
	id := parts[0]
	if id == "" {
		notFound(w)
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "reanalyze":
			s.handleReanalyzeProject(w, r, id)
		case "municipal":
			s.handleMunicipal(w, r, id)
		case "lots":
			s.handleCreateLot(w, r, id)
		case "edital":
			s.handleEditalDownload(w, r, id)
		default:
			notFound(w)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		project, err := s.app.GetProject(id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, project)
	case http.MethodPatch:
		var patch app.ProjectPatch
		if err := decodeJSON(r, &patch); err != nil {
			writeAppError(w, r, err)
			return
		}
		project, err := s.app.UpdateProject(r.Context(), id, patch)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, project)
	case http.MethodDelete:
		if err := s.app.DeleteProject(r.Context(), id); err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

// handleReanalyzeProject re-runs the pipeline. A multipart body may carry a
// replacement edital and a page selection.
func (s *Server) handleReanalyzeProject(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var (
		edital *app.Upload
		pages  string
	)
	if isMultipart(r) {
		upload, err := s.readUpload(w, r)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		edital = upload
		pages = r.FormValue("pages")
	}
	if !s.allowRate(w, r) {
		return
	}
	project, err := s.app.ReanalyzeProject(r.Context(), id, edital, pages)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleMunicipal(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	upload, err := s.readUpload(w, r)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	project, err := s.app.AttachMunicipal(r.Context(), id, upload)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleCreateLot(w http.ResponseWriter, r *http.Request, projectID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req manualLotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	if !s.allowRate(w, r) {
		return
	}
	lot, err := s.app.CreateManualLot(r.Context(), projectID, req.Text)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, lot)
}

// handleEditalDownload returns a pre-signed URL for the stored edital.
func (s *Server) handleEditalDownload(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	url, err := s.app.EditalDownloadURL(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
