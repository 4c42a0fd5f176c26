// internal/indexer/indexer.go
package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"

	"service-directory/internal/common/logger"
	"service-directory/internal/models"
	"service-directory/internal/search"
)

// indexMapping is the search index schema. The location field must be a
// geo_point or distance sorting and radius filtering silently misbehave.
const indexMapping = `{
	"mappings": {
		"properties": {
			"model_type":    {"type": "keyword"},
			"text":          {"type": "text"},
			"name":          {"type": "text"},
			"country":       {"type": "keyword"},
			"categories":    {"type": "long"},
			"keywords":      {"type": "keyword"},
			"age_range_min": {"type": "integer"},
			"age_range_max": {"type": "integer"},
			"location":      {"type": "geo_point"}
		}
	}
}`

// DocumentID is the engine document id for an organisation.
func DocumentID(org *models.Organisation) string {
	return fmt.Sprintf("%s.%d", search.OrganisationModelType, org.ID)
}

// Document renders the indexed form of an organisation. The text field is
// the free-text blob default searches run against.
func Document(org *models.Organisation) map[string]interface{} {
	categoryIDs := make([]int64, 0, len(org.Categories))
	categoryNames := make([]string, 0, len(org.Categories))
	for _, cat := range org.Categories {
		categoryIDs = append(categoryIDs, cat.ID)
		categoryNames = append(categoryNames, cat.Name)
	}
	keywordNames := org.KeywordNames()

	textParts := []string{org.Name}
	if org.About != "" {
		textParts = append(textParts, org.About)
	}
	textParts = append(textParts, keywordNames...)
	textParts = append(textParts, categoryNames...)

	doc := map[string]interface{}{
		"model_type": search.OrganisationModelType,
		"text":       strings.Join(textParts, "\n"),
		"name":       org.Name,
		"country":    org.Country.ISOCode,
		"categories": categoryIDs,
		"keywords":   keywordNames,
		"location": map[string]interface{}{
			"lat": org.Location.Lat,
			"lon": org.Location.Lon,
		},
	}
	if org.AgeRangeMin != nil {
		doc["age_range_min"] = *org.AgeRangeMin
	}
	if org.AgeRangeMax != nil {
		doc["age_range_max"] = *org.AgeRangeMax
	}
	return doc
}

// OrganisationLister streams the organisations to index.
type OrganisationLister interface {
	ListAll(ctx context.Context) ([]*models.Organisation, error)
}

// Rebuilder repopulates the search index from the database.
type Rebuilder struct {
	es        *elasticsearch.Client
	lister    OrganisationLister
	indexName string
	log       logger.Logger
}

func NewRebuilder(es *elasticsearch.Client, lister OrganisationLister, indexName string, log logger.Logger) *Rebuilder {
	return &Rebuilder{es: es, lister: lister, indexName: indexName, log: log}
}

// RecreateIndex drops and recreates the index with the directory mapping.
func (r *Rebuilder) RecreateIndex(ctx context.Context) error {
	del, err := r.es.Indices.Delete(
		[]string{r.indexName},
		r.es.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to delete index %s: %w", r.indexName, err)
	}
	del.Body.Close()
	if del.IsError() && del.StatusCode != http.StatusNotFound {
		return fmt.Errorf("failed to delete index %s: %s", r.indexName, del.Status())
	}

	create, err := r.es.Indices.Create(
		r.indexName,
		r.es.Indices.Create.WithContext(ctx),
		r.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", r.indexName, err)
	}
	defer create.Body.Close()
	if create.IsError() {
		return fmt.Errorf("failed to create index %s: %s", r.indexName, create.Status())
	}
	return nil
}

// Rebuild bulk-indexes every organisation and reports how many documents
// were indexed.
func (r *Rebuilder) Rebuild(ctx context.Context) (int64, error) {
	organisations, err := r.lister.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:  r.indexName,
		Client: r.es,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create bulk indexer: %w", err)
	}

	for _, org := range organisations {
		payload, err := json.Marshal(Document(org))
		if err != nil {
			return 0, fmt.Errorf("failed to encode organisation %d: %w", org.ID, err)
		}

		item := esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: DocumentID(org),
			Body:       bytes.NewReader(payload),
			OnFailure: func(_ context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				fields := map[string]interface{}{"document_id": item.DocumentID}
				if err != nil {
					fields["error"] = err.Error()
				} else {
					fields["error"] = res.Error.Reason
				}
				r.log.Error("failed to index organisation", fields)
			},
		}
		if err := bi.Add(ctx, item); err != nil {
			return 0, fmt.Errorf("bulk indexing aborted: %w", err)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return 0, fmt.Errorf("failed to flush bulk indexer: %w", err)
	}

	stats := bi.Stats()
	if stats.NumFailed > 0 {
		return int64(stats.NumFlushed), fmt.Errorf("%d of %d documents failed to index", stats.NumFailed, len(organisations))
	}
	return int64(stats.NumFlushed), nil
}
