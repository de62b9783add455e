// Copyright 2026 © The Praxis Authors
// SPDX-License-Identifier: Apache-2.0

// Package memory is the long-term store for cycle experience. Each
// completed cycle is condensed into a summary, embedded, and upserted as
// a point; later recalls find the nearest experiences by meaning rather
// than by recency.
package memory

import "context"

// VectorStore is the backend holding embedded cycle experience. The
// runtime ships a Qdrant gRPC store and an in-memory cosine store; both
// are collection-scoped so several agents can share one backend.
type VectorStore interface {
	// Upsert writes points, replacing any point with the same ID.
	Upsert(ctx context.Context, collection string, points []Point) error
	// Search returns up to limit points nearest to vector, best first,
	// dropping results that score below scoreThreshold.
	Search(ctx context.Context, collection string, vector []float32, limit int, scoreThreshold float32) ([]SearchResult, error)
	// CreateCollection prepares a collection for vectors of the given
	// size. Calling it on an existing collection is allowed.
	CreateCollection(ctx context.Context, name string, vectorSize uint64) error
}

// Point is one stored experience: the embedded summary vector plus the
// cycle fields (id, action, outcome, reward, lesson) as payload.
type Point struct {
	ID        string         `json:"id"`
	Vector    []float32      `json:"vector"`
	Payload   map[string]any `json:"payload"`
	Timestamp int64          `json:"timestamp"`
}

// SearchResult pairs a recalled point with its similarity score.
type SearchResult struct {
	ID    string  `json:"id"`
	Score float32 `json:"score"`
	Point Point   `json:"point"`
}

// Embedder turns summary text into a vector. The runtime treats it as an
// external collaborator: timeouts and retries wrap around it, and its
// failures are recorded, never fatal.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
