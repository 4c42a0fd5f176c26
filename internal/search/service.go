// internal/search/service.go
package search

import (
	"context"
	"strings"
	"time"

	"service-directory/internal/common/config"
	"service-directory/internal/common/logger"
	"service-directory/internal/common/metrics"
	"service-directory/internal/common/observability"
	"service-directory/internal/models"
	"service-directory/internal/search/query"
)

// OrganisationModelType identifies organisation documents in the index.
const OrganisationModelType = "api.organisation"

// geoField is the indexed location field organisations are searched on.
const geoField = "location"

// Response is a formatted page of search results.
type Response struct {
	Total   int64                        `json:"total"`
	Results []models.OrganisationSummary `json:"results"`
}

// Service translates validated requests into engine queries and hydrated
// results.
type Service struct {
	executor  Executor
	formatter *Formatter
	cfg       config.SearchConfig
	obs       *observability.Observability
	log       logger.Logger
}

func NewService(executor Executor, formatter *Formatter, cfg config.SearchConfig, obs *observability.Observability, log logger.Logger) *Service {
	return &Service{
		executor:  executor,
		formatter: formatter,
		cfg:       cfg,
		obs:       obs,
		log:       log,
	}
}

// Search runs a validated request end to end: compile, execute, hydrate,
// summarize. Engine errors propagate typed so the transport layer can map
// them to a 503 instead of an empty page.
func (s *Service) Search(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	doc := query.Compile(s.buildQuery(req), s.compileOptions())

	results, err := s.executor.Execute(ctx, doc, 0, s.cfg.ResultLimit)
	if err != nil {
		s.recordOutcome(ctx, "error", start)
		return nil, err
	}

	organisations, err := s.formatter.Format(ctx, results.Hits)
	if err != nil {
		s.recordOutcome(ctx, "error", start)
		return nil, err
	}

	summaries := make([]models.OrganisationSummary, 0, len(organisations))
	for _, org := range organisations {
		summaries = append(summaries, org.Summarize())
	}

	s.recordOutcome(ctx, "success", start)
	s.log.Debug("search completed", map[string]interface{}{
		"total":    results.Total,
		"returned": len(summaries),
		"duration": time.Since(start).String(),
	})

	return &Response{Total: results.Total, Results: summaries}, nil
}

// buildQuery maps request fields onto the structured query. Free text goes
// through the fragment builder so engine syntax in user input is neutralized;
// categories, keywords, and country become fragments AND-joined onto the
// query string.
func (s *Service) buildQuery(req *Request) query.Query {
	var fragments []string

	if req.SearchTerm != "" {
		fragments = append(fragments, query.BuildFragment(
			s.cfg.ContentField, s.cfg.ContentField, query.OpContains, query.Clean(req.SearchTerm)))
	}
	if len(req.Categories) > 0 {
		values := make([]interface{}, 0, len(req.Categories))
		for _, id := range req.Categories {
			values = append(values, id)
		}
		fragments = append(fragments, query.BuildFragment(
			s.cfg.ContentField, "categories", query.OpIn, query.Collection(values...)))
	}
	if len(req.Keywords) > 0 {
		values := make([]interface{}, 0, len(req.Keywords))
		for _, name := range req.Keywords {
			values = append(values, name)
		}
		fragments = append(fragments, query.BuildFragment(
			s.cfg.ContentField, "keywords", query.OpIn, query.Collection(values...)))
	}
	if req.Country != "" {
		fragments = append(fragments, query.BuildFragment(
			s.cfg.ContentField, "country", query.OpExact, query.Clean(req.Country)))
	}

	queryString := query.MatchAll
	if len(fragments) > 0 {
		queryString = strings.Join(fragments, " AND ")
	}

	q := query.Query{QueryString: queryString}

	if req.Location != nil {
		q.DistancePoint = &query.DistanceAnchor{Field: geoField, Point: *req.Location}
		q.SortBy = []query.SortField{{Field: "distance", Direction: "asc"}}
		if req.RadiusKm != nil {
			q.DWithin = &query.RadiusFilter{
				Field:      geoField,
				Point:      *req.Location,
				DistanceKm: *req.RadiusKm,
			}
		}
	}

	return q
}

func (s *Service) compileOptions() query.Options {
	return query.Options{
		ContentField:            s.cfg.ContentField,
		ModelTypeField:          s.cfg.ModelTypeField,
		DefaultOperator:         s.cfg.DefaultOperator,
		FuzzyMinSim:             s.cfg.FuzzyMinSim,
		FuzzyMaxExpansions:      s.cfg.FuzzyMaxExpansions,
		IncludeSpelling:         s.cfg.IncludeSpelling,
		LimitToRegisteredModels: s.cfg.LimitModels(),
		RegisteredModels:        []string{OrganisationModelType},
		Logger:                  s.log,
	}
}

func (s *Service) recordOutcome(ctx context.Context, status string, start time.Time) {
	elapsed := time.Since(start)
	metrics.SearchRequestsTotal.WithLabelValues(status).Inc()
	metrics.SearchDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	if s.obs != nil {
		s.obs.RecordSearchProcessed(ctx, status)
		s.obs.RecordSearchDuration(ctx, elapsed, status)
	}
}
