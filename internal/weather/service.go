package weather

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Stage names the step a cycle ended at.
type Stage string

const (
	StageDone  Stage = "done"
	StageFetch Stage = "fetch"
	StageStore Stage = "store"
)

// CycleResult is the outcome of one fetch-then-index cycle.
// Err is a *FetchError when Stage is StageFetch and a *StoreError when Stage is StageStore.
type CycleResult struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Stage     Stage
	Document  *Document
	Ack       *IndexAck
	Err       error
}

// OK reports whether the document was written.
func (r CycleResult) OK() bool {
	return r.Err == nil && r.Stage == StageDone
}

// Service runs ingest cycles: one fetch for a fixed point, one document write.
type Service struct {
	fetcher Fetcher
	store   Store
	index   string
	at      Coordinates
	log     *zap.SugaredLogger

	mu   sync.RWMutex
	last *CycleResult
}

// NewService creates a new Service.
func NewService(fetcher Fetcher, store Store, index string, at Coordinates, log *zap.SugaredLogger) *Service {
	return &Service{
		fetcher: fetcher,
		store:   store,
		index:   index,
		at:      at,
		log:     log,
	}
}

// RunCycle fetches the current observation and indexes it. Failures are
// logged once and reported in the result; nothing is retried and a document
// fetched before a failed write is dropped.
func (s *Service) RunCycle(ctx context.Context) (res CycleResult) {
	res = CycleResult{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	log := s.log.With("cycle", res.ID, "location", s.at.Key())
	defer func() {
		res.Duration = time.Since(res.StartedAt)
		s.remember(res)
	}()

	doc, err := s.fetcher.Fetch(ctx, s.at)
	if err != nil {
		log.Errorw("error fetching data", "provider", s.fetcher.Name(), "error", err)
		res.Stage = StageFetch
		res.Err = err
		return res
	}
	res.Document = &doc

	ack, err := s.store.IndexDocument(ctx, s.index, doc)
	if err != nil {
		log.Errorw("error indexing data", "index", s.index, "error", err)
		res.Stage = StageStore
		res.Err = err
		return res
	}
	res.Ack = &ack
	res.Stage = StageDone

	fields := []any{"index", ack.Index, "id", ack.ID, "result", ack.Result}
	if at, ok := doc.ObservedAt(); ok {
		fields = append(fields, "observed_at", at)
	}
	log.Infow("data indexed successfully", fields...)
	return res
}

func (s *Service) remember(res CycleResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &res
}

// LastCycle returns the most recent cycle result, if any cycle has run.
func (s *Service) LastCycle() (CycleResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return CycleResult{}, false
	}
	return *s.last, true
}
