// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	goerrors "github.com/go-errors/errors"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/analyze"
	"github.com/pdiddy/deep-research/internal/archive"
	"github.com/pdiddy/deep-research/internal/research"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Maximum accepted request body.
const maxBodyBytes = 1 << 20

type deepResearchRequest struct {
	Query   string              `json:"query"`
	Options research.RunOptions `json:"options"`
}

type searchRequest struct {
	Query   string              `json:"query"`
	Options types.SearchOptions `json:"options"`
}

// failureBody is the body of a 500 response. Stack is omitted in production.
type failureBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

func (s *Server) handleDeepResearch(w http.ResponseWriter, r *http.Request) {
	var req deepResearchRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "Query is required")
		return
	}
	if len(req.Options.Personas) > 0 {
		if _, err := analyze.Resolve(req.Options.Personas); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	s.logger.Info("deep research request",
		zap.String("query", query),
		zap.Strings("personas", req.Options.Personas))
	report, err := s.researcher.Run(r.Context(), query, req.Options)
	if err != nil {
		s.logger.Error("deep research failed", zap.String("query", query), zap.Error(err))
		s.respondJSON(w, http.StatusInternalServerError, s.failure("Deep research failed", err))
		return
	}

	if s.store != nil && report.ID != "" {
		if err := s.store.Save(r.Context(), report); err != nil {
			s.logger.Warn("archiving report failed", zap.String("id", report.ID), zap.Error(err))
		}
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.searcher == nil {
		s.respondError(w, http.StatusNotFound, "Search is not enabled")
		return
	}
	var req searchRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "Query is required")
		return
	}

	resp, err := s.searcher.Search(r.Context(), query, req.Options)
	if err != nil {
		s.logger.Error("search failed", zap.String("query", query), zap.Error(err))
		s.respondJSON(w, http.StatusInternalServerError, s.failure("Search failed", err))
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusNotFound, "Report archive is not enabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var (
		list []archive.Summary
		err  error
	)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		list, err = s.store.Search(r.Context(), q, limit)
	} else {
		list, err = s.store.List(r.Context(), limit)
	}
	if err != nil {
		s.logger.Error("listing reports failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Listing reports failed")
		return
	}
	if list == nil {
		list = []archive.Summary{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"reports": list})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusNotFound, "Report archive is not enabled")
		return
	}
	id := chi.URLParam(r, "id")
	report, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Report not found")
			return
		}
		s.logger.Error("loading report failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Loading report failed")
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handlePersonas(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"personas": analyze.Catalogue(),
		"default":  analyze.DefaultPersonas,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.respondError(w, http.StatusNotFound, "Not found")
}

// failure builds a 500 body, attaching the stack frames outside production.
// The error text itself is only logged: it can carry upstream response bodies.
func (s *Server) failure(msg string, err error) failureBody {
	f := failureBody{Error: msg, Message: "unexpected error"}
	var pe *research.PhaseError
	if errors.As(err, &pe) {
		f.Message = pe.Message()
	}
	if !s.cfg.Production {
		var stacked *goerrors.Error
		if errors.As(err, &stacked) {
			f.Stack = string(stacked.Stack())
		}
	}
	return f
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
