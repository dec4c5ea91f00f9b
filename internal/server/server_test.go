package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/compasshq/compass/internal/eval"
	"github.com/compasshq/compass/internal/report"
)

type stubAnswerer struct {
	err error
}

func (a *stubAnswerer) Answer(ctx context.Context, question string) (eval.AnswerFormats, error) {
	if a.err != nil {
		return eval.AnswerFormats{}, a.err
	}
	return eval.AnswerFormats{
		Brief:    "brief answer",
		Detailed: "detailed answer",
		Raw:      "raw answer",
	}, nil
}

type stubStore struct {
	records []*report.Record
	err     error
}

func (s *stubStore) Get(ctx context.Context, id string) (*report.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("report %q: %w", id, eval.ErrNotFound)
}

func (s *stubStore) List(ctx context.Context) ([]*report.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func TestHandleQuery(t *testing.T) {
	srv := New(&stubAnswerer{}, &stubStore{})

	body := strings.NewReader(`{"question": "How do I use the PaymentButton?"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/query", body)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body)
	}

	var resp struct {
		Component string `json:"component"`
		QueryType string `json:"query_type"`
		Brief     string `json:"brief"`
		Detailed  string `json:"detailed"`
		Raw       string `json:"raw"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Component != "PaymentButton" {
		t.Errorf("component = %q, want PaymentButton", resp.Component)
	}
	if resp.QueryType != "usage" {
		t.Errorf("query_type = %q, want usage", resp.QueryType)
	}
	if resp.Brief != "brief answer" || resp.Detailed != "detailed answer" || resp.Raw != "raw answer" {
		t.Errorf("unexpected answer payload: %+v", resp)
	}
}

func TestHandleQuery_Validation(t *testing.T) {
	srv := New(&stubAnswerer{}, &stubStore{})

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing question", `{}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			srv.Router().ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandleQuery_AnswererFailure(t *testing.T) {
	srv := New(&stubAnswerer{err: errors.New("codex unavailable")}, &stubStore{})

	body := strings.NewReader(`{"question": "How do I use the PaymentButton?"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/query", body)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestHandleListReports(t *testing.T) {
	store := &stubStore{records: []*report.Record{
		{ID: "run-1", Report: eval.EvaluationReport{RunID: "run-1", TotalTestCases: 2}},
		{ID: "run-2", Report: eval.EvaluationReport{RunID: "run-2", TotalTestCases: 4}},
	}}
	srv := New(&stubAnswerer{}, store)

	req := httptest.NewRequest(http.MethodGet, "/v1/reports", nil)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var records []report.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}
}

func TestHandleListReports_Empty(t *testing.T) {
	srv := New(&stubAnswerer{}, &stubStore{})

	req := httptest.NewRequest(http.MethodGet, "/v1/reports", nil)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want an empty JSON array", body)
	}
}

func TestHandleGetReport(t *testing.T) {
	store := &stubStore{records: []*report.Record{
		{ID: "run-1", Report: eval.EvaluationReport{RunID: "run-1", Successful: 3}},
	}}
	srv := New(&stubAnswerer{}, store)

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/reports/run-1", nil)
		rec := httptest.NewRecorder()

		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var record report.Record
		if err := json.Unmarshal(rec.Body.Bytes(), &record); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if record.Report.Successful != 3 {
			t.Errorf("successful = %d, want 3", record.Report.Successful)
		}
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/reports/nope", nil)
		rec := httptest.NewRecorder()

		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}
