package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/i474232898/weather-indexer/internal/weather"
)

// ElasticConfig configures the Elasticsearch connection.
type ElasticConfig struct {
	Addresses []string
	// Transport overrides the HTTP transport; nil uses the client default.
	Transport http.RoundTripper
}

// ElasticStore writes weather documents to Elasticsearch.
type ElasticStore struct {
	es *elasticsearch.Client
}

// NewElasticStore creates a client for the configured cluster. No request is
// made until the first operation.
func NewElasticStore(cfg ElasticConfig) (*ElasticStore, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return &ElasticStore{es: es}, nil
}

// IndexExists reports whether index is present: 200 means yes, 404 means no,
// anything else is a *weather.StoreError.
func (s *ElasticStore) IndexExists(ctx context.Context, index string) (bool, error) {
	res, err := s.es.Indices.Exists([]string{index}, s.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, storeErr("exists", index, 0, err)
	}
	defer drain(res)

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		_, rerr := responseError(res)
		return false, storeErr("exists", index, res.StatusCode, rerr)
	}
}

// CreateIndex creates index with the given settings and mapping.
// A concurrent creation surfaces as weather.ErrIndexAlreadyExists.
func (s *ElasticStore) CreateIndex(ctx context.Context, index string, schema weather.IndexSchema) error {
	body, err := schema.Body()
	if err != nil {
		return storeErr("create", index, 0, err)
	}

	res, err := s.es.Indices.Create(index,
		s.es.Indices.Create.WithBody(bytes.NewReader(body)),
		s.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return storeErr("create", index, 0, err)
	}
	defer drain(res)

	if res.IsError() {
		errType, rerr := responseError(res)
		if errType == "resource_already_exists_exception" {
			rerr = fmt.Errorf("%w: %v", weather.ErrIndexAlreadyExists, rerr)
		}
		return storeErr("create", index, res.StatusCode, rerr)
	}
	return nil
}

type indexResponse struct {
	Index   string `json:"_index"`
	ID      string `json:"_id"`
	Version int64  `json:"_version"`
	Result  string `json:"result"`
}

// IndexDocument appends doc to index; the cluster assigns the document id.
func (s *ElasticStore) IndexDocument(ctx context.Context, index string, doc weather.Document) (weather.IndexAck, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return weather.IndexAck{}, storeErr("index", index, 0, err)
	}

	res, err := s.es.Index(index, bytes.NewReader(body), s.es.Index.WithContext(ctx))
	if err != nil {
		return weather.IndexAck{}, storeErr("index", index, 0, err)
	}
	defer drain(res)

	if res.IsError() {
		_, rerr := responseError(res)
		return weather.IndexAck{}, storeErr("index", index, res.StatusCode, rerr)
	}

	var ir indexResponse
	if err := json.NewDecoder(res.Body).Decode(&ir); err != nil {
		return weather.IndexAck{}, storeErr("index", index, res.StatusCode, fmt.Errorf("decode response: %w", err))
	}

	return weather.IndexAck{
		Index:   ir.Index,
		ID:      ir.ID,
		Version: ir.Version,
		Result:  ir.Result,
	}, nil
}

func storeErr(op, index string, code int, err error) *weather.StoreError {
	return &weather.StoreError{Op: op, Index: index, StatusCode: code, Err: err}
}

// errorBody is the error envelope of a cluster response. Some responses carry
// error as a plain string, in which case Type stays empty.
type errorBody struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// responseError turns an error response body into an error value and
// reports the cluster's error.type, if any.
func responseError(res *esapi.Response) (string, error) {
	if res.Body == nil {
		return "", errors.New(res.Status())
	}
	b, err := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err != nil || len(b) == 0 {
		return "", errors.New(res.Status())
	}
	var eb errorBody
	_ = json.Unmarshal(b, &eb)
	return eb.Error.Type, fmt.Errorf("%s: %s", res.Status(), bytes.TrimSpace(b))
}

func drain(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_, _ = io.Copy(io.Discard, res.Body)
		res.Body.Close()
	}
}
