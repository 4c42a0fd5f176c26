// internal/search/client.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"service-directory/internal/common/errors"
	"service-directory/internal/common/logger"
)

// Hit is one raw search engine match before database hydration.
type Hit struct {
	ID        int64
	ModelType string
	Score     float64
	// DistanceKm is populated from the geo sort value when the query sorted
	// by distance. Documents without a location sort at infinity.
	DistanceKm *float64
}

// Results is the parsed engine response.
type Results struct {
	Total int64
	Hits  []Hit
}

// Executor runs a compiled query document against the search engine.
type Executor interface {
	Execute(ctx context.Context, doc map[string]interface{}, from, size int) (*Results, error)
}

// EngineClient is the Elasticsearch-backed Executor.
type EngineClient struct {
	es        *elasticsearch.Client
	indexName string
	timeout   time.Duration
	log       logger.Logger
}

// NewEngineClient creates an Executor bound to one index.
func NewEngineClient(es *elasticsearch.Client, indexName string, timeout time.Duration, log logger.Logger) *EngineClient {
	return &EngineClient{
		es:        es,
		indexName: indexName,
		timeout:   timeout,
		log:       log,
	}
}

// Execute sends the query document and parses the hit envelope. Engine
// failures are returned as typed errors so callers can distinguish "no
// matches" from "engine unavailable".
func (c *EngineClient) Execute(ctx context.Context, doc map[string]interface{}, from, size int) (*Results, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := esapi.SearchRequest{
		Index: []string{c.indexName},
		Body:  bytes.NewReader(body),
		From:  &from,
		Size:  &size,
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.NewSearchTimeoutError(c.indexName)
		}
		return nil, errors.NewSearchUnavailableError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == http.StatusNotFound {
			return nil, errors.NewIndexNotFoundError(c.indexName)
		}
		return nil, errors.NewSearchQueryFailedError(fmt.Errorf("search request failed: %s", res.Status()))
	}

	var envelope searchEnvelope
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, errors.NewSearchQueryFailedError(fmt.Errorf("failed to decode search response: %w", err))
	}

	return c.parseEnvelope(envelope), nil
}

type searchEnvelope struct {
	Hits struct {
		Total json.Number `json:"total"`
		Hits  []struct {
			ID     string                 `json:"_id"`
			Score  *float64               `json:"_score"`
			Source map[string]interface{} `json:"_source"`
			Sort   []interface{}          `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

func (c *EngineClient) parseEnvelope(envelope searchEnvelope) *Results {
	total, _ := envelope.Hits.Total.Int64()
	results := &Results{Total: total, Hits: make([]Hit, 0, len(envelope.Hits.Hits))}

	for _, raw := range envelope.Hits.Hits {
		id, err := parseDocumentID(raw.ID)
		if err != nil {
			c.log.Warn("skipping hit with unparseable document id", map[string]interface{}{
				"document_id": raw.ID,
			})
			continue
		}

		hit := Hit{ID: id}
		if raw.Score != nil {
			hit.Score = *raw.Score
		}
		if mt, ok := raw.Source["model_type"].(string); ok {
			hit.ModelType = mt
		}
		if len(raw.Sort) > 0 {
			hit.DistanceKm = parseSortDistance(raw.Sort[0])
		}
		results.Hits = append(results.Hits, hit)
	}
	return results
}

// parseDocumentID accepts a bare numeric id or a dotted "app.model.pk" id
// and returns the primary key.
func parseDocumentID(raw string) (int64, error) {
	if idx := strings.LastIndex(raw, "."); idx >= 0 {
		raw = raw[idx+1:]
	}
	return strconv.ParseInt(raw, 10, 64)
}

// parseSortDistance reads a geo-distance sort value. The engine serializes
// documents without a location as the string "Infinity", which has no JSON
// number representation.
func parseSortDistance(v interface{}) *float64 {
	switch val := v.(type) {
	case float64:
		return &val
	case string:
		if val == "Infinity" {
			inf := math.Inf(1)
			return &inf
		}
	}
	return nil
}
