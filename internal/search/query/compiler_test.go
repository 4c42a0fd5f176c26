// internal/search/query/compiler_test.go
package query

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-directory/internal/common/logger"
	"service-directory/internal/models"
)

func testOptions() Options {
	return Options{
		ContentField:       "text",
		ModelTypeField:     "model_type",
		DefaultOperator:    "AND",
		FuzzyMinSim:        0.5,
		FuzzyMaxExpansions: 50,
		Logger:             logger.NewNoOpLogger(),
	}
}

// ==========================================
// Base Query Tests
// ==========================================

func TestCompile_MatchAll(t *testing.T) {
	doc := Compile(Query{QueryString: MatchAll}, testOptions())

	assert.Equal(t, map[string]interface{}{
		"match_all": map[string]interface{}{},
	}, doc["query"])
}

func TestCompile_QueryString(t *testing.T) {
	doc := Compile(Query{QueryString: "(clinic)"}, testOptions())

	query, ok := doc["query"].(map[string]interface{})
	require.True(t, ok)
	qs, ok := query["query_string"].(map[string]interface{})
	require.True(t, ok)

	assert.Equal(t, "text", qs["default_field"])
	assert.Equal(t, "AND", qs["default_operator"])
	assert.Equal(t, "(clinic)", qs["query"])
	assert.Equal(t, true, qs["analyze_wildcard"])
	assert.Equal(t, true, qs["auto_generate_phrase_queries"])
	assert.Equal(t, 0.5, qs["fuzzy_min_sim"])
	assert.Equal(t, 50, qs["fuzzy_max_expansions"])
}

func TestCompile_FieldsJoinedWithSpaces(t *testing.T) {
	doc := Compile(Query{
		QueryString: MatchAll,
		Fields:      []string{"name", "address", "telephone"},
	}, testOptions())

	assert.Equal(t, "name address telephone", doc["fields"])
}

// ==========================================
// Sort Tests
// ==========================================

func TestCompile_PlainSort(t *testing.T) {
	doc := Compile(Query{
		QueryString: MatchAll,
		SortBy:      []SortField{{Field: "name", Direction: "asc"}},
	}, testOptions())

	require.Equal(t, []interface{}{
		map[string]interface{}{"name": map[string]interface{}{"order": "asc"}},
	}, doc["sort"])
}

func TestCompile_DistanceSortWithAnchor(t *testing.T) {
	doc := Compile(Query{
		QueryString: MatchAll,
		SortBy:      []SortField{{Field: "distance", Direction: "asc"}},
		DistancePoint: &DistanceAnchor{
			Field: "location",
			Point: models.Point{Lat: -33.92, Lon: 18.42},
		},
	}, testOptions())

	require.Equal(t, []interface{}{
		map[string]interface{}{
			"_geo_distance": map[string]interface{}{
				"location": []float64{18.42, -33.92},
				"order":    "asc",
				"unit":     "km",
			},
		},
	}, doc["sort"])
}

func TestCompile_DistanceSortWithoutAnchorFallsBack(t *testing.T) {
	// Without an anchor point the distance sort degrades to a plain field
	// sort instead of failing the request.
	doc := Compile(Query{
		QueryString: MatchAll,
		SortBy:      []SortField{{Field: "distance", Direction: "asc"}},
	}, testOptions())

	require.Equal(t, []interface{}{
		map[string]interface{}{"distance": map[string]interface{}{"order": "asc"}},
	}, doc["sort"])
}

// ==========================================
// Filter Combination Tests
// ==========================================

func TestCompile_NoFiltersLeavesBareQuery(t *testing.T) {
	doc := Compile(Query{QueryString: "(clinic)"}, testOptions())

	query, ok := doc["query"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, query, "query_string")
	assert.NotContains(t, query, "filtered")
}

func TestCompile_SingleFilterAttachedDirectly(t *testing.T) {
	doc := Compile(Query{
		QueryString:   MatchAll,
		NarrowQueries: []string{`categories:("3")`},
	}, testOptions())

	filtered := requireFiltered(t, doc)
	filter, ok := filtered["filter"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, filter, "fquery")
}

func TestCompile_MultipleFiltersWrappedInBoolMust(t *testing.T) {
	doc := Compile(Query{
		QueryString:   MatchAll,
		NarrowQueries: []string{`categories:("3")`, `country:("ZA")`},
	}, testOptions())

	filtered := requireFiltered(t, doc)
	filter, ok := filtered["filter"].(map[string]interface{})
	require.True(t, ok)
	boolClause, ok := filter["bool"].(map[string]interface{})
	require.True(t, ok)
	must, ok := boolClause["must"].([]interface{})
	require.True(t, ok)
	assert.Len(t, must, 2)
}

func TestCompile_NarrowQueriesAreCached(t *testing.T) {
	doc := Compile(Query{
		QueryString:   MatchAll,
		NarrowQueries: []string{`country:("ZA")`},
	}, testOptions())

	filtered := requireFiltered(t, doc)
	filter := filtered["filter"].(map[string]interface{})
	fquery, ok := filter["fquery"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, fquery["_cache"])
	assert.Equal(t, map[string]interface{}{
		"query_string": map[string]interface{}{"query": `country:("ZA")`},
	}, fquery["query"])
}

// ==========================================
// Geo Filter Tests
// ==========================================

func TestCompile_BoundingBoxNormalizesCorners(t *testing.T) {
	// Corners are given south-west last to prove orientation does not
	// matter.
	doc := Compile(Query{
		QueryString: MatchAll,
		Within: &BoundingBoxFilter{
			Field:  "location",
			Point1: models.Point{Lat: -33.0, Lon: 19.0},
			Point2: models.Point{Lat: -34.0, Lon: 18.0},
		},
	}, testOptions())

	filtered := requireFiltered(t, doc)
	filter := filtered["filter"].(map[string]interface{})
	box := filter["geo_bounding_box"].(map[string]interface{})["location"].(map[string]interface{})

	assert.Equal(t, map[string]interface{}{"lat": -33.0, "lon": 18.0}, box["top_left"])
	assert.Equal(t, map[string]interface{}{"lat": -34.0, "lon": 19.0}, box["bottom_right"])
}

func TestCompile_RadiusFilterFormatsDistance(t *testing.T) {
	doc := Compile(Query{
		QueryString: MatchAll,
		DWithin: &RadiusFilter{
			Field:      "location",
			Point:      models.Point{Lat: -33.92, Lon: 18.42},
			DistanceKm: 5,
		},
	}, testOptions())

	filtered := requireFiltered(t, doc)
	filter := filtered["filter"].(map[string]interface{})
	geo := filter["geo_distance"].(map[string]interface{})

	assert.Equal(t, "5.000000km", geo["distance"])
	assert.Equal(t, map[string]interface{}{"lat": -33.92, "lon": 18.42}, geo["location"])
}

// ==========================================
// Model Restriction Tests
// ==========================================

func TestCompile_RegisteredModelsFilter(t *testing.T) {
	opts := testOptions()
	opts.LimitToRegisteredModels = true
	opts.RegisteredModels = []string{"api.organisation"}

	doc := Compile(Query{QueryString: MatchAll}, opts)

	filtered := requireFiltered(t, doc)
	filter := filtered["filter"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{
		"model_type": []string{"api.organisation"},
	}, filter["terms"])
}

func TestCompile_ExplicitModelsSortedAndDeduped(t *testing.T) {
	doc := Compile(Query{
		QueryString: MatchAll,
		Models:      []string{"b.second", "a.first", "b.second"},
	}, testOptions())

	filtered := requireFiltered(t, doc)
	filter := filtered["filter"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{
		"model_type": []string{"a.first", "b.second"},
	}, filter["terms"])
}

func TestCompile_NoModelFilterWhenLimitingDisabled(t *testing.T) {
	doc := Compile(Query{QueryString: MatchAll}, testOptions())

	query := doc["query"].(map[string]interface{})
	assert.NotContains(t, query, "filtered")
}

// ==========================================
// Facet Tests
// ==========================================

func TestCompile_TermsFacet(t *testing.T) {
	doc := Compile(Query{
		QueryString: MatchAll,
		Facets: map[string]TermsFacet{
			"categories": {
				GlobalScope: true,
				FacetFilter: map[string]interface{}{
					"term": map[string]interface{}{"country": "ZA"},
				},
				Options: map[string]interface{}{"order": "term"},
			},
		},
	}, testOptions())

	facets := doc["facets"].(map[string]interface{})
	facet := facets["categories"].(map[string]interface{})

	assert.Equal(t, map[string]interface{}{
		"field": "categories",
		"size":  100,
		"order": "term",
	}, facet["terms"])
	assert.Equal(t, true, facet["global"])
	assert.Equal(t, map[string]interface{}{
		"term": map[string]interface{}{"country": "ZA"},
	}, facet["facet_filter"])
}

func TestCompile_TermsFacetSizeCapped(t *testing.T) {
	doc := Compile(Query{
		QueryString: MatchAll,
		Facets: map[string]TermsFacet{
			"categories": {Options: map[string]interface{}{"size": 5000}},
		},
	}, testOptions())

	facets := doc["facets"].(map[string]interface{})
	terms := facets["categories"].(map[string]interface{})["terms"].(map[string]interface{})
	assert.Equal(t, 100, terms["size"])
}

func TestCompile_DateFacetIntervals(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		spec     DateFacet
		expected string
	}{
		{
			name:     "single unit keeps the word",
			spec:     DateFacet{GapBy: "day", GapAmount: 1, StartDate: start, EndDate: end},
			expected: "day",
		},
		{
			name:     "multi unit abbreviates",
			spec:     DateFacet{GapBy: "week", GapAmount: 2, StartDate: start, EndDate: end},
			expected: "2w",
		},
		{
			name:     "month never abbreviates",
			spec:     DateFacet{GapBy: "month", GapAmount: 3, StartDate: start, EndDate: end},
			expected: "month",
		},
		{
			name:     "year never abbreviates",
			spec:     DateFacet{GapBy: "year", GapAmount: 2, StartDate: start, EndDate: end},
			expected: "year",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Compile(Query{
				QueryString: MatchAll,
				DateFacets:  map[string]DateFacet{"created_at": tt.spec},
			}, testOptions())

			facets := doc["facets"].(map[string]interface{})
			histogram := facets["created_at"].(map[string]interface{})["date_histogram"].(map[string]interface{})
			assert.Equal(t, tt.expected, histogram["interval"])
		})
	}
}

func TestCompile_DateFacetRangeFilter(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC)

	doc := Compile(Query{
		QueryString: MatchAll,
		DateFacets: map[string]DateFacet{
			"created_at": {GapBy: "month", GapAmount: 1, StartDate: start, EndDate: end},
		},
	}, testOptions())

	facets := doc["facets"].(map[string]interface{})
	facetFilter := facets["created_at"].(map[string]interface{})["facet_filter"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{
		"range": map[string]interface{}{
			"created_at": map[string]interface{}{
				"from": "2024-01-01T00:00:00",
				"to":   "2024-06-30T23:59:59",
			},
		},
	}, facetFilter)
}

func TestCompile_QueryFacet(t *testing.T) {
	doc := Compile(Query{
		QueryString: MatchAll,
		QueryFacets: []QueryFacet{{Name: "verified", Query: `verified_as:("*")`}},
	}, testOptions())

	facets := doc["facets"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{
		"query": map[string]interface{}{
			"query_string": map[string]interface{}{"query": `verified_as:("*")`},
		},
	}, facets["verified"])
}

// ==========================================
// Auxiliary Clause Tests
// ==========================================

func TestCompile_Highlight(t *testing.T) {
	doc := Compile(Query{QueryString: "(clinic)", Highlight: true}, testOptions())

	assert.Equal(t, map[string]interface{}{
		"fields": map[string]interface{}{
			"text": map[string]interface{}{"store": "yes"},
		},
	}, doc["highlight"])
}

func TestCompile_SpellingSuggestions(t *testing.T) {
	opts := testOptions()
	opts.IncludeSpelling = true

	doc := Compile(Query{QueryString: "(helth)", SpellingQuery: "helth"}, opts)

	assert.Equal(t, map[string]interface{}{
		"suggest": map[string]interface{}{
			"text": "helth",
			"term": map[string]interface{}{"field": "_all"},
		},
	}, doc["suggest"])
}

func TestCompile_SpellingFallsBackToQueryString(t *testing.T) {
	opts := testOptions()
	opts.IncludeSpelling = true

	doc := Compile(Query{QueryString: "(helth)"}, opts)

	suggest := doc["suggest"].(map[string]interface{})["suggest"].(map[string]interface{})
	assert.Equal(t, "(helth)", suggest["text"])
}

// ==========================================
// Determinism Tests
// ==========================================

func TestCompile_Deterministic(t *testing.T) {
	q := Query{
		QueryString: "(clinic)",
		Facets: map[string]TermsFacet{
			"categories": {},
			"keywords":   {},
			"country":    {},
		},
		NarrowQueries: []string{`country:("ZA")`, `categories:("3")`},
		Models:        []string{"b.second", "a.first"},
		SortBy:        []SortField{{Field: "name", Direction: "asc"}},
	}
	opts := testOptions()

	first, err := json.Marshal(Compile(q, opts))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		next, err := json.Marshal(Compile(q, opts))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(next))
	}
}

func requireFiltered(t *testing.T, doc map[string]interface{}) map[string]interface{} {
	t.Helper()
	query, ok := doc["query"].(map[string]interface{})
	require.True(t, ok)
	filtered, ok := query["filtered"].(map[string]interface{})
	require.True(t, ok)
	return filtered
}
