// Package server exposes the restoration pipeline over HTTP.
package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"fringerestore/internal/httputil"
	"fringerestore/pkg/config"
	"fringerestore/pkg/restoration"
	"fringerestore/pkg/visualization"
)

// Server handles restoration requests.
type Server struct {
	restorer       *restoration.Restorer
	maxUploadBytes int64
	logger         *logrus.Logger
}

// NewServer creates a server around restorer. A nil cfg uses
// config.DefaultConfig and a nil logger the logrus standard logger.
func NewServer(restorer *restoration.Restorer, cfg *config.Config, logger *logrus.Logger) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		restorer:       restorer,
		maxUploadBytes: cfg.Server.MaxUploadBytes,
		logger:         logger,
	}
}

// ServeMux registers the API routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/restore", s.restoreHandler)
	mux.HandleFunc("/api/preview", s.previewHandler)
	mux.HandleFunc("/healthz", s.healthHandler)
	return mux
}

// Handler returns the routes wrapped with request ID, logging and panic
// recovery middleware.
func (s *Server) Handler() http.Handler {
	return withRequestID(withLogging(s.logger, withRecovery(s.logger, s.ServeMux())))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
}

// restoreHandler responds with {"matrix": [[row, col, value], ...], "peaks": [min, max]}
func (s *Server) restoreHandler(w http.ResponseWriter, r *http.Request) {
	report, ok := s.restore(w, r)
	if !ok {
		return
	}
	httputil.WriteJSONOK(w, report.Result)
}

// previewHandler renders the sparse result as an HTML scatter chart
func (s *Server) previewHandler(w http.ResponseWriter, r *http.Request) {
	report, ok := s.restore(w, r)
	if !ok {
		return
	}

	title := fmt.Sprintf("Restored phase, carrier %s", report.Carrier)
	var buf bytes.Buffer
	if err := visualization.RenderChart(&buf, report.Result, title); err != nil {
		s.logger.WithError(err).Error("failed to render preview")
		httputil.WriteJSONError(w, http.StatusInternalServerError, "failed to render preview")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.WithError(err).Warn("failed to write preview")
	}
}

// restore runs the shared part of both endpoints. It writes the error
// response itself and reports whether the caller should continue.
func (s *Server) restore(w http.ResponseWriter, r *http.Request) (*restoration.Report, bool) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w, http.MethodPost)
		return nil, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	req, err := parseRestoreForm(r, s.maxUploadBytes)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	req.ID = RequestID(r.Context())

	report, err := s.restorer.Restore(req)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return report, true
}

// writeError maps form and pipeline failures to status codes
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var fe *formError
	if errors.As(err, &fe) {
		httputil.WriteJSONError(w, http.StatusBadRequest, fe.msg)
		return
	}

	status := statusFor(restoration.KindOf(err))
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("restoration failed")
	}
	httputil.WriteJSONError(w, status, err.Error())
}

// statusFor maps a restoration error kind to its HTTP status
func statusFor(kind restoration.Kind) int {
	switch kind {
	case restoration.KindInput:
		return http.StatusBadRequest
	case restoration.KindConfiguration:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
