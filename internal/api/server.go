// Package api exposes the HTTP interface over the import pipeline. It is a
// thin presentation adapter: it collects the three strings the pipeline
// needs (token, database id, isbn) and renders the result or the error.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/shelfbridge/shelfbridge/internal/metrics"
	"github.com/shelfbridge/shelfbridge/internal/pipeline"
)

// Importer runs the pipeline for one ISBN.
type Importer interface {
	Run(ctx context.Context, creds pipeline.Credentials, isbn string) (pipeline.Report, error)
}

// Server wires HTTP handlers to the pipeline runner.
type Server struct {
	router   chi.Router
	importer Importer
	creds    pipeline.Credentials
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes. The supplied
// credentials act as session defaults; a request may override them.
func NewServer(importer Importer, creds pipeline.Credentials, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{importer: importer, creds: creds, logger: logger}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(90 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Post("/imports", s.submitImport)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

type importRequest struct {
	ISBN       string `json:"isbn"`
	Token      string `json:"token,omitempty"`
	DatabaseID string `json:"database_id,omitempty"`
}

type importResponse struct {
	RunID  string                    `json:"run_id"`
	ISBN   string                    `json:"isbn"`
	Record pipeline.RecordHandle     `json:"record"`
	Book   pipeline.BookRecord       `json:"book"`
	Fields pipeline.MappedProperties `json:"fields"`
}

type errorResponse struct {
	Stage   string `json:"stage,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

func (s *Server) submitImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, s.logger, http.StatusBadRequest, errorResponse{Message: "invalid JSON"})
		return
	}
	if req.ISBN == "" {
		writeJSON(w, s.logger, http.StatusBadRequest, errorResponse{Message: "isbn is required"})
		return
	}

	creds := s.creds
	if req.Token != "" {
		creds.Token = req.Token
	}
	if req.DatabaseID != "" {
		creds.DatabaseID = req.DatabaseID
	}

	report, err := s.importer.Run(r.Context(), creds, req.ISBN)
	if err != nil {
		status, body := renderError(err)
		writeJSON(w, s.logger, status, body)
		return
	}

	writeJSON(w, s.logger, http.StatusCreated, importResponse{
		RunID:  report.RunID,
		ISBN:   report.ISBN,
		Record: report.Record,
		Book:   report.Book,
		Fields: report.Properties,
	})
}

// renderError translates a pipeline failure into an HTTP status and a
// user-facing body carrying stage and kind.
func renderError(err error) (int, errorResponse) {
	var perr *pipeline.Error
	if !errors.As(err, &perr) {
		return http.StatusInternalServerError, errorResponse{Message: err.Error()}
	}
	body := errorResponse{
		Stage:   string(perr.Stage),
		Kind:    string(perr.Kind),
		Message: perr.Error(),
	}
	switch perr.Kind {
	case pipeline.KindNotFound:
		return http.StatusNotFound, body
	case pipeline.KindAuth:
		return http.StatusUnauthorized, body
	case pipeline.KindRateLimited:
		return http.StatusTooManyRequests, body
	case pipeline.KindSchemaMismatch:
		return http.StatusConflict, body
	case pipeline.KindParse, pipeline.KindFetch, pipeline.KindWrite:
		return http.StatusBadGateway, body
	default:
		return http.StatusInternalServerError, body
	}
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write JSON failed", zap.Error(err))
	}
}
