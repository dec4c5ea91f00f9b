// Package report persists evaluation reports in MongoDB so past runs
// can be browsed through the HTTP API.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/compasshq/compass/internal/eval"
)

const (
	tracerName       = "github.com/compasshq/compass/internal/report"
	reportCollection = "evaluation_reports"
)

// Record is a stored evaluation run.
type Record struct {
	ID        string                `bson:"_id" json:"id"`
	CreatedAt time.Time             `bson:"created_at" json:"created_at"`
	Report    eval.EvaluationReport `bson:"report" json:"report"`
}

type Store struct {
	conn *mongo.Database
}

func NewStore(conn *mongo.Database) *Store {
	return &Store{conn: conn}
}

func (s *Store) Insert(ctx context.Context, report eval.EvaluationReport) error {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "Store.Insert")
	span.SetAttributes(
		attribute.String("report.run_id", report.RunID),
		attribute.Int("report.total_test_cases", report.TotalTestCases),
	)
	defer span.End()

	record := Record{
		ID:        report.RunID,
		CreatedAt: time.Now().UTC(),
		Report:    report,
	}

	if _, err := s.conn.Collection(reportCollection).InsertOne(ctx, record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to insert report")
		return err
	}

	span.SetStatus(codes.Ok, "report inserted")
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "Store.Get")
	span.SetAttributes(attribute.String("report.run_id", id))
	defer span.End()

	var record Record

	err := s.conn.Collection(reportCollection).FindOne(ctx, map[string]any{"_id": id}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		span.SetStatus(codes.Error, "report not found")
		return nil, fmt.Errorf("report %q: %w", id, eval.ErrNotFound)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "database error")
		return nil, err
	}

	span.SetStatus(codes.Ok, "report found")
	return &record, nil
}

func (s *Store) List(ctx context.Context) ([]*Record, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "Store.List")
	defer span.End()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := s.conn.Collection(reportCollection).Find(ctx, map[string]any{}, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query reports")
		return nil, err
	}

	defer func() {
		_ = cursor.Close(ctx)
	}()

	var items []*Record

	for cursor.Next(ctx) {
		var record Record

		if err := cursor.Decode(&record); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to decode report")
			return nil, err
		}

		items = append(items, &record)
	}

	if err := cursor.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cursor error")
		return nil, err
	}

	span.SetAttributes(attribute.Int("reports.count", len(items)))
	span.SetStatus(codes.Ok, "reports listed")
	return items, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.conn.Collection(reportCollection).DeleteOne(ctx, map[string]any{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("report %q: %w", id, eval.ErrNotFound)
	}
	return nil
}
