// Package server exposes the question answering pipeline and stored
// evaluation reports over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/compasshq/compass/internal/eval"
	"github.com/compasshq/compass/internal/query"
	"github.com/compasshq/compass/internal/report"
)

// ReportStore is the subset of the report store the API reads from.
type ReportStore interface {
	Get(ctx context.Context, id string) (*report.Record, error)
	List(ctx context.Context) ([]*report.Record, error)
}

type Server struct {
	answerer eval.Answerer
	reports  ReportStore
}

func New(answerer eval.Answerer, reports ReportStore) *Server {
	return &Server{answerer: answerer, reports: reports}
}

// Router returns the API routes. Middleware is attached by the caller.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/v1/query", s.handleQuery).Methods(http.MethodPost)
	r.HandleFunc("/v1/reports", s.handleListReports).Methods(http.MethodGet)
	r.HandleFunc("/v1/reports/{id}", s.handleGetReport).Methods(http.MethodGet)
	return r
}

type queryRequest struct {
	Question string `json:"question"`
}

type queryResponse struct {
	Question  string `json:"question"`
	Component string `json:"component,omitempty"`
	QueryType string `json:"query_type"`
	Brief     string `json:"brief"`
	Detailed  string `json:"detailed"`
	Raw       string `json:"raw"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	ctx := r.Context()
	component, queryType := query.Parse(req.Question)

	formats, err := s.answerer.Answer(ctx, req.Question)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to answer question", "error", err)
		writeError(w, http.StatusBadGateway, "failed to answer question")
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Question:  req.Question,
		Component: component,
		QueryType: string(queryType),
		Brief:     formats.Brief,
		Detailed:  formats.Detailed,
		Raw:       formats.Raw,
	})
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	records, err := s.reports.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list reports", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}

	if records == nil {
		records = []*report.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	record, err := s.reports.Get(r.Context(), id)
	if errors.Is(err, eval.ErrNotFound) {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load report", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load report")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
