package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"leilaoai/internal/ratelimit"
	"leilaoai/internal/util"
	"leilaoai/pkg/pdftext"
	"leilaoai/services/portal/internal/app"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Limiter        *ratelimit.Limiter
	TrustedProxies *util.TrustedProxies
	AllowedOrigins []string
	MaxUploadBytes int64
}

// Server exposes the portal API.
type Server struct {
	app            *app.App
	limiter        *ratelimit.Limiter
	trustedProxies *util.TrustedProxies
	allowedOrigins []string
	mux            *http.ServeMux
	maxUploadBytes int64
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("server: app is required")
	}
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 50 * 1024 * 1024
	}
	s := &Server{
		app:            cfg.App,
		limiter:        cfg.Limiter,
		trustedProxies: cfg.TrustedProxies,
		allowedOrigins: cfg.AllowedOrigins,
		mux:            http.NewServeMux(),
		maxUploadBytes: maxUploadBytes,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.allowedOrigins, s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/events", s.handleEvents)
	s.mux.HandleFunc("/api/dashboard", s.handleDashboard)
	s.mux.HandleFunc("/api/pdf/pages", s.handlePageCount)

	// projects
	s.mux.HandleFunc("/api/projects", s.handleProjects)
	s.mux.HandleFunc("/api/projects/", s.handleProjectByID)

	// lots
	s.mux.HandleFunc("/api/lots/", s.handleLotByID)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"ai":     s.app.AIConfigured(),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	summary, err := s.app.Dashboard()
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handlePageCount lets the client pick pages before creating a project.
func (s *Server) handlePageCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	upload, err := s.readUpload(w, r)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if upload == nil {
		writeAppError(w, r, app.ErrFileRequired)
		return
	}
	pages, err := s.app.CountPages(upload)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"pages":            pages,
		"maxSelectedPages": pdftext.MaxSelectedPages,
	})
}

// allowRate applies the per-client limit to endpoints that call the LLM or
// the classifieds site. It writes the response itself when the request is
// rejected.
func (s *Server) allowRate(w http.ResponseWriter, r *http.Request) bool {
	if s.limiter == nil {
		return true
	}
	key := util.ClientIP(r, s.trustedProxies)
	decision, err := s.limiter.Allow(r.Context(), key)
	if err != nil {
		util.LoggerFromContext(r.Context()).Error("rate limiter unavailable", "err", err)
		writeErrorCode(w, http.StatusServiceUnavailable, "SYSTEM_RATE_LIMIT_UNAVAILABLE", "Serviço temporariamente indisponível")
		return false
	}
	if !decision.Allowed {
		seconds := int(decision.RetryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		writeError(w, http.StatusTooManyRequests, "Muitas requisições, tente novamente em instantes")
		return false
	}
	return true
}

// readUpload parses a multipart body and returns the "file" field, or nil
// when the form has no file.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*app.Upload, error) {
	if r.ContentLength > s.maxUploadBytes {
		return nil, &http.MaxBytesError{Limit: s.maxUploadBytes}
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, errInvalidForm
	}
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, errInvalidForm
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &app.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/")
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		return errInvalidJSON
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "Método não permitido")
}

func notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "Não encontrado")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
