// Package mongox holds the MongoDB connection helper shared by the
// binaries.
package mongox

import (
	"context"
	"log/slog"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MustConnect connects to the MongoDB instance named by MONGO_URI and
// returns the MONGO_DB database. It panics when the database is
// unreachable, the binaries cannot serve without it.
func MustConnect() *mongo.Database {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	name := os.Getenv("MONGO_DB")
	if name == "" {
		name = "compass"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "uri", uri, "error", err)
		panic(err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		slog.Error("Failed to ping MongoDB", "uri", uri, "error", err)
		panic(err)
	}

	slog.Info("Connected to MongoDB", "database", name)
	return client.Database(name)
}
