package weather

import (
	"context"
)

// Fetcher abstracts the weather data source (OpenWeatherMap today).
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, at Coordinates) (Document, error)
}

// Store is the contract the Elasticsearch store (and the in-memory store) must satisfy.
// Implementations return *StoreError on failure.
type Store interface {
	IndexExists(ctx context.Context, index string) (bool, error)
	CreateIndex(ctx context.Context, index string, schema IndexSchema) error
	IndexDocument(ctx context.Context, index string, doc Document) (IndexAck, error)
}
