package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/i474232898/weather-indexer/internal/weather"
)

var (
	// ErrIndexNotFound is returned when writing to an index that was never created.
	ErrIndexNotFound = errors.New("index not found")
)

// memIndex holds the schema and the documents written to one index.
type memIndex struct {
	schema weather.IndexSchema
	docs   []weather.Document
	nextID int
}

// MemoryStore is a concurrency-safe in-memory implementation of weather.Store,
// used for dry runs without a cluster.
type MemoryStore struct {
	mu sync.RWMutex

	// key: index name
	indices map[string]*memIndex

	// max number of documents kept per index (0 = unlimited)
	maxHistory int
}

// NewMemoryStore creates a new MemoryStore.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int) *MemoryStore {
	return &MemoryStore{
		indices:    make(map[string]*memIndex),
		maxHistory: maxHistory,
	}
}

func (s *MemoryStore) IndexExists(_ context.Context, index string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indices[index]
	return ok, nil
}

func (s *MemoryStore) CreateIndex(_ context.Context, index string, schema weather.IndexSchema) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.indices[index]; ok {
		return &weather.StoreError{Op: "create", Index: index, Err: weather.ErrIndexAlreadyExists}
	}
	s.indices[index] = &memIndex{schema: schema}
	return nil
}

// IndexDocument appends doc and enforces retention. Unlike Elasticsearch the
// index is not auto-created.
func (s *MemoryStore) IndexDocument(_ context.Context, index string, doc weather.Document) (weather.IndexAck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.indices[index]
	if !ok {
		return weather.IndexAck{}, &weather.StoreError{Op: "index", Index: index, Err: ErrIndexNotFound}
	}

	idx.docs = append(idx.docs, doc)
	idx.nextID++

	if s.maxHistory > 0 && len(idx.docs) > s.maxHistory {
		over := len(idx.docs) - s.maxHistory
		idx.docs = idx.docs[over:]
	}

	return weather.IndexAck{
		Index:   index,
		ID:      strconv.Itoa(idx.nextID),
		Version: 1,
		Result:  "created",
	}, nil
}

// Documents returns a copy of the documents currently held for index.
func (s *MemoryStore) Documents(index string) ([]weather.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.indices[index]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, index)
	}
	out := make([]weather.Document, len(idx.docs))
	copy(out, idx.docs)
	return out, nil
}

// Schema returns the schema index was created with.
func (s *MemoryStore) Schema(index string) (weather.IndexSchema, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.indices[index]
	if !ok {
		return weather.IndexSchema{}, false
	}
	return idx.schema, true
}
