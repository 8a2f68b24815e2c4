package weather

import (
	"context"
	"sync"
)

type fakeStore struct {
	mu sync.Mutex

	exists    bool
	existsErr error
	createErr error
	indexErr  error

	existsCalls int
	created     []IndexSchema
	indexed     []Document
}

func (f *fakeStore) IndexExists(_ context.Context, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.existsCalls++
	return f.exists, f.existsErr
}

func (f *fakeStore) CreateIndex(_ context.Context, _ string, schema IndexSchema) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, schema)
	return f.createErr
}

func (f *fakeStore) IndexDocument(_ context.Context, index string, doc Document) (IndexAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, doc)
	if f.indexErr != nil {
		return IndexAck{}, f.indexErr
	}
	return IndexAck{Index: index, ID: "1", Version: 1, Result: "created"}, nil
}

type fakeFetcher struct {
	doc   Document
	err   error
	calls int
	at    Coordinates
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) Fetch(_ context.Context, at Coordinates) (Document, error) {
	f.calls++
	f.at = at
	return f.doc, f.err
}

func ptr[T any](v T) *T { return &v }
