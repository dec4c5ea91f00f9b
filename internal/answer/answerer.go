// Package answer builds the three answer formats for a component
// question: a raw technical analysis plus brief and detailed
// business-friendly translations of it.
package answer

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/compasshq/compass/internal/eval"
	"github.com/compasshq/compass/internal/query"
)

const tracerName = "github.com/compasshq/compass/internal/answer"

// Service answers component questions. It runs the technical analyzer
// for the raw output, then translates it into the brief and detailed
// formats. A cache, when configured, short-circuits repeat questions
// about the same component and query type.
type Service struct {
	analyzer   Analyzer
	translator *Translator
	cache      *Cache
}

type ServiceOption func(*Service)

// WithCache enables answer caching.
func WithCache(cache *Cache) ServiceOption {
	return func(s *Service) { s.cache = cache }
}

func NewService(analyzer Analyzer, translator *Translator, opts ...ServiceOption) (*Service, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("answer: analyzer is required")
	}
	if translator == nil {
		return nil, fmt.Errorf("answer: translator is required")
	}
	s := &Service{analyzer: analyzer, translator: translator}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Answer implements eval.Answerer.
func (s *Service) Answer(ctx context.Context, question string) (eval.AnswerFormats, error) {
	tracer := otel.Tracer(tracerName)

	component, queryType := query.Parse(question)

	ctx, span := tracer.Start(ctx, "Service.Answer",
		trace.WithAttributes(
			attribute.String("query.component", component),
			attribute.String("query.type", string(queryType)),
		),
	)
	defer span.End()

	slog.InfoContext(ctx, "Answering question", "component", component, "query_type", queryType)

	if formats, ok := s.fromCache(ctx, component, queryType); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		span.SetStatus(codes.Ok, "answered from cache")
		return formats, nil
	}

	raw, err := s.analyze(ctx, tracer, question)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "technical analysis failed")
		return eval.AnswerFormats{}, err
	}

	brief, detailed, err := s.translate(ctx, tracer, raw, component)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "translation failed")
		return eval.AnswerFormats{}, err
	}

	s.store(ctx, component, queryType, brief, detailed, raw)

	span.SetStatus(codes.Ok, "answered")
	return eval.AnswerFormats{Brief: brief, Detailed: detailed, Raw: raw}, nil
}

func (s *Service) analyze(ctx context.Context, tracer trace.Tracer, question string) (string, error) {
	ctx, span := tracer.Start(ctx, "Service.Analyze")
	defer span.End()

	raw, err := s.analyzer.Analyze(ctx, question)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analyzer failed")
		return "", fmt.Errorf("analyze question: %w", err)
	}

	span.SetAttributes(attribute.Int("analysis.length", len(raw)))
	span.SetStatus(codes.Ok, "")
	return raw, nil
}

func (s *Service) translate(ctx context.Context, tracer trace.Tracer, raw, component string) (string, string, error) {
	ctx, span := tracer.Start(ctx, "Service.Translate")
	defer span.End()

	if component == "" {
		component = "the requested component"
	}

	brief, detailed, err := s.translator.Translate(ctx, raw, component)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "translator failed")
		return "", "", fmt.Errorf("translate analysis: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return brief, detailed, nil
}

// fromCache reports a hit only when the question names a component.
func (s *Service) fromCache(ctx context.Context, component string, queryType query.Type) (eval.AnswerFormats, bool) {
	if s.cache == nil || component == "" {
		return eval.AnswerFormats{}, false
	}

	entry, err := s.cache.Get(ctx, component, string(queryType))
	if err != nil {
		slog.WarnContext(ctx, "Cache lookup failed", "error", err)
		return eval.AnswerFormats{}, false
	}
	if entry == nil {
		return eval.AnswerFormats{}, false
	}

	slog.InfoContext(ctx, "Cache hit", "component", component, "query_type", queryType)
	return eval.AnswerFormats{
		Brief:    entry.BriefOutput,
		Detailed: entry.DetailedOutput,
		Raw:      entry.RawOutput,
	}, true
}

// store is best effort, a cache write failure never fails the answer.
func (s *Service) store(ctx context.Context, component string, queryType query.Type, brief, detailed, raw string) {
	if s.cache == nil || component == "" {
		return
	}

	err := s.cache.Set(ctx, Entry{
		Component:      component,
		QueryType:      string(queryType),
		BriefOutput:    brief,
		DetailedOutput: detailed,
		RawOutput:      raw,
	})
	if err != nil {
		slog.WarnContext(ctx, "Cache write failed", "error", err)
	}
}
