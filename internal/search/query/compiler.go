// internal/search/query/compiler.go
package query

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"service-directory/internal/common/logger"
	"service-directory/internal/models"
)

// MatchAll is the query string that selects every document.
const MatchAll = "*:*"

// maxFacetSize caps how many buckets a terms facet may return.
const maxFacetSize = 100

// SortField orders results by one field.
type SortField struct {
	Field     string
	Direction string // "asc" or "desc"
}

// DistanceAnchor supplies the origin for distance sorting.
type DistanceAnchor struct {
	Field string
	Point models.Point
}

// BoundingBoxFilter restricts hits to a rectangular geo area described by
// two opposite corners in any orientation.
type BoundingBoxFilter struct {
	Field  string
	Point1 models.Point
	Point2 models.Point
}

// RadiusFilter restricts hits to a circle around a point.
type RadiusFilter struct {
	Field      string
	Point      models.Point
	DistanceKm float64
}

// TermsFacet describes a terms aggregation over one field.
type TermsFacet struct {
	GlobalScope bool
	FacetFilter map[string]interface{}
	Options     map[string]interface{}
}

// DateFacet describes a date histogram over one field.
type DateFacet struct {
	GapBy     string // "second" .. "year"
	GapAmount int
	StartDate time.Time
	EndDate   time.Time
}

// QueryFacet counts documents matching an arbitrary query string.
type QueryFacet struct {
	Name  string
	Query string
}

// Query is the structured search request handed to Compile.
type Query struct {
	QueryString   string
	Fields        []string
	SortBy        []SortField
	DistancePoint *DistanceAnchor
	Highlight     bool
	SpellingQuery string
	Facets        map[string]TermsFacet
	DateFacets    map[string]DateFacet
	QueryFacets   []QueryFacet
	NarrowQueries []string
	Models        []string
	Within        *BoundingBoxFilter
	DWithin       *RadiusFilter
}

// Options carries engine settings that shape every compiled document.
type Options struct {
	ContentField            string
	ModelTypeField          string
	DefaultOperator         string
	FuzzyMinSim             float64
	FuzzyMaxExpansions      int
	IncludeSpelling         bool
	LimitToRegisteredModels bool
	RegisteredModels        []string
	Logger                  logger.Logger
}

// Compile translates a structured Query into a complete engine query
// document. The output is deterministic: map-backed inputs are walked in
// sorted key order so identical queries always serialize identically.
func Compile(q Query, opts Options) map[string]interface{} {
	doc := make(map[string]interface{})
	var filters []interface{}

	queryClause := baseQuery(q.QueryString, opts)

	if len(q.Fields) > 0 {
		doc["fields"] = strings.Join(q.Fields, " ")
	}

	if sortClause := compileSort(q, opts); sortClause != nil {
		doc["sort"] = sortClause
	}

	if q.Highlight {
		doc["highlight"] = map[string]interface{}{
			"fields": map[string]interface{}{
				opts.ContentField: map[string]interface{}{"store": "yes"},
			},
		}
	}

	if opts.IncludeSpelling {
		spelling := q.QueryString
		if q.SpellingQuery != "" {
			spelling = q.SpellingQuery
		}
		doc["suggest"] = map[string]interface{}{
			"suggest": map[string]interface{}{
				"text": spelling,
				"term": map[string]interface{}{"field": "_all"},
			},
		}
	}

	if facets := compileFacets(q); len(facets) > 0 {
		doc["facets"] = facets
	}

	if modelFilter := compileModelFilter(q, opts); modelFilter != nil {
		filters = append(filters, modelFilter)
	}

	for _, narrow := range q.NarrowQueries {
		filters = append(filters, map[string]interface{}{
			"fquery": map[string]interface{}{
				"query": map[string]interface{}{
					"query_string": map[string]interface{}{"query": narrow},
				},
				"_cache": true,
			},
		})
	}

	if q.Within != nil {
		filters = append(filters, compileBoundingBox(q.Within))
	}

	if q.DWithin != nil {
		filters = append(filters, compileRadius(q.DWithin))
	}

	if len(filters) == 0 {
		doc["query"] = queryClause
		return doc
	}

	var filterClause interface{}
	if len(filters) == 1 {
		filterClause = filters[0]
	} else {
		filterClause = map[string]interface{}{
			"bool": map[string]interface{}{"must": filters},
		}
	}

	doc["query"] = map[string]interface{}{
		"filtered": map[string]interface{}{
			"query":  queryClause,
			"filter": filterClause,
		},
	}
	return doc
}

// baseQuery renders the textual query: match_all for the universal query
// string, a query_string clause otherwise.
func baseQuery(queryString string, opts Options) map[string]interface{} {
	if queryString == MatchAll {
		return map[string]interface{}{"match_all": map[string]interface{}{}}
	}
	return map[string]interface{}{
		"query_string": map[string]interface{}{
			"default_field":                opts.ContentField,
			"default_operator":             opts.DefaultOperator,
			"query":                        queryString,
			"analyze_wildcard":             true,
			"auto_generate_phrase_queries": true,
			"fuzzy_min_sim":                opts.FuzzyMinSim,
			"fuzzy_max_expansions":         opts.FuzzyMaxExpansions,
		},
	}
}

// compileSort renders the sort clause. A "distance" sort is only honoured
// when the query carries a distance anchor; without one the engine cannot
// order by proximity, so the field falls back to a plain sort with a warning
// rather than failing the whole request.
func compileSort(q Query, opts Options) []interface{} {
	if len(q.SortBy) == 0 {
		return nil
	}

	order := make([]interface{}, 0, len(q.SortBy))
	for _, sf := range q.SortBy {
		if sf.Field == "distance" && q.DistancePoint == nil && opts.Logger != nil {
			opts.Logger.Warn("distance sort requested without a distance anchor, sorting by the literal field instead", map[string]interface{}{
				"field": sf.Field,
			})
		}
		if sf.Field == "distance" && q.DistancePoint != nil {
			order = append(order, map[string]interface{}{
				"_geo_distance": map[string]interface{}{
					q.DistancePoint.Field: []float64{q.DistancePoint.Point.Lon, q.DistancePoint.Point.Lat},
					"order":               sf.Direction,
					"unit":                "km",
				},
			})
			continue
		}
		order = append(order, map[string]interface{}{
			sf.Field: map[string]interface{}{"order": sf.Direction},
		})
	}
	return order
}

// compileFacets renders terms, date-histogram and query facets into one
// facets clause, walking each facet map in sorted key order.
func compileFacets(q Query) map[string]interface{} {
	facets := make(map[string]interface{})

	for _, name := range sortedKeys(q.Facets) {
		spec := q.Facets[name]
		terms := map[string]interface{}{
			"field": name,
			"size":  maxFacetSize,
		}
		for _, opt := range sortedKeys(spec.Options) {
			terms[opt] = spec.Options[opt]
		}
		if size, ok := terms["size"].(int); ok && size > maxFacetSize {
			terms["size"] = maxFacetSize
		}

		facet := map[string]interface{}{"terms": terms}
		if spec.GlobalScope {
			facet["global"] = true
		}
		if spec.FacetFilter != nil {
			facet["facet_filter"] = spec.FacetFilter
		}
		facets[name] = facet
	}

	for _, name := range sortedKeys(q.DateFacets) {
		spec := q.DateFacets[name]
		facets[name] = map[string]interface{}{
			"date_histogram": map[string]interface{}{
				"field":    name,
				"interval": dateInterval(spec),
			},
			"facet_filter": map[string]interface{}{
				"range": map[string]interface{}{
					name: map[string]interface{}{
						"from": spec.StartDate.Format(esDateFormat),
						"to":   spec.EndDate.Format(esDateFormat),
					},
				},
			},
		}
	}

	for _, qf := range q.QueryFacets {
		facets[qf.Name] = map[string]interface{}{
			"query": map[string]interface{}{
				"query_string": map[string]interface{}{"query": qf.Query},
			},
		}
	}

	return facets
}

// dateInterval renders a histogram gap. Multi-unit gaps abbreviate the unit
// to its first letter ("2w"), except month and year which the engine only
// accepts spelled out.
func dateInterval(spec DateFacet) string {
	interval := strings.ToLower(spec.GapBy)
	if spec.GapAmount != 1 && interval != "month" && interval != "year" {
		interval = fmt.Sprintf("%d%s", spec.GapAmount, interval[:1])
	}
	return interval
}

// compileModelFilter renders the model-type terms filter. Explicit models on
// the query win; otherwise the registered set applies when limiting is on.
func compileModelFilter(q Query, opts Options) map[string]interface{} {
	var choices []string
	switch {
	case len(q.Models) > 0:
		choices = dedupeSorted(q.Models)
	case opts.LimitToRegisteredModels:
		choices = dedupeSorted(opts.RegisteredModels)
	}
	if len(choices) == 0 {
		return nil
	}
	return map[string]interface{}{
		"terms": map[string]interface{}{opts.ModelTypeField: choices},
	}
}

func compileBoundingBox(within *BoundingBoxFilter) map[string]interface{} {
	south, west, north, east := models.BoundingBox(within.Point1, within.Point2)
	return map[string]interface{}{
		"geo_bounding_box": map[string]interface{}{
			within.Field: map[string]interface{}{
				"top_left": map[string]interface{}{
					"lat": north,
					"lon": west,
				},
				"bottom_right": map[string]interface{}{
					"lat": south,
					"lon": east,
				},
			},
		},
	}
}

func compileRadius(dwithin *RadiusFilter) map[string]interface{} {
	return map[string]interface{}{
		"geo_distance": map[string]interface{}{
			"distance": fmt.Sprintf("%.6fkm", dwithin.DistanceKm),
			dwithin.Field: map[string]interface{}{
				"lat": dwithin.Point.Lat,
				"lon": dwithin.Point.Lon,
			},
		},
	}
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func dedupeSorted(models []string) []string {
	seen := make(map[string]struct{}, len(models))
	out := make([]string, 0, len(models))
	for _, m := range models {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
