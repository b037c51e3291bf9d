package server

import (
	"net/http"
	"strconv"
	"strings"

	"leilaoai/pkg/domain"
	"leilaoai/services/portal/internal/app"
)

type relevanceRequest struct {
	IsRelevant *bool `json:"isRelevant"`
}

type marketResponse struct {
	app.MarketResult
	Message string `json:"message,omitempty"`
}

// /api/lots/{id}[/favorite|/reanalyze|/matricula|/discrepancies/{index}|/market|/simulation]
func (s *Server) handleLotByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/lots/")
	parts := strings.SplitN(path, "/", 3)
	id := parts[0]
	if id == "" {
		notFound(w)
		return
	}
	if len(parts) > 1 {
		switch {
		case parts[1] == "discrepancies" && len(parts) == 3:
			s.handleDiscrepancy(w, r, id, parts[2])
		case len(parts) == 3:
			notFound(w)
		case parts[1] == "favorite":
			s.handleFavorite(w, r, id)
		case parts[1] == "reanalyze":
			s.handleReanalyzeLot(w, r, id)
		case parts[1] == "matricula":
			s.handleMatricula(w, r, id)
		case parts[1] == "market":
			s.handleMarket(w, r, id)
		case parts[1] == "simulation":
			s.handleSimulation(w, r, id)
		default:
			notFound(w)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		lot, err := s.app.GetLot(id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, lot)
	case http.MethodPatch:
		var patch app.LotPatch
		if err := decodeJSON(r, &patch); err != nil {
			writeAppError(w, r, err)
			return
		}
		lot, err := s.app.UpdateLot(r.Context(), id, patch)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, lot)
	case http.MethodDelete:
		if err := s.app.DeleteLot(r.Context(), id); err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleFavorite(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	lot, err := s.app.ToggleFavorite(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lot)
}

func (s *Server) handleReanalyzeLot(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r) {
		return
	}
	lot, err := s.app.ReanalyzeLot(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lot)
}

func (s *Server) handleMatricula(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodPost:
		upload, err := s.readUpload(w, r)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		if !s.allowRate(w, r) {
			return
		}
		lot, err := s.app.UploadMatricula(r.Context(), id, upload)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, lot)
	case http.MethodDelete:
		lot, err := s.app.RemoveMatricula(r.Context(), id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, lot)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleDiscrepancy(w http.ResponseWriter, r *http.Request, id, rawIndex string) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w)
		return
	}
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		writeAppError(w, r, app.ErrDiscrepancyNotFound)
		return
	}
	var req relevanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	if req.IsRelevant == nil {
		writeErrorCode(w, http.StatusBadRequest, "REQUEST_INVALID", "Informe isRelevant")
		return
	}
	lot, err := s.app.SetDiscrepancyRelevance(r.Context(), id, index, *req.IsRelevant)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lot)
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		entries, err := s.app.ListMarket(id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": entries,
			"count": len(entries),
		})
	case http.MethodPost:
		if !s.allowRate(w, r) {
			return
		}
		result, err := s.app.SearchMarket(r.Context(), id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		resp := marketResponse{MarketResult: result}
		if result.NoOpportunities {
			resp.Message = "Nenhuma oportunidade encontrada"
		}
		writeJSON(w, http.StatusOK, resp)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleSimulation(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		result, err := s.app.Simulation(id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	case http.MethodPut:
		var in domain.FinancialInputs
		if err := decodeJSON(r, &in); err != nil {
			writeAppError(w, r, err)
			return
		}
		result, err := s.app.SaveSimulation(r.Context(), id, in)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	default:
		methodNotAllowed(w)
	}
}
