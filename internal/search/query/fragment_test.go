// internal/search/query/fragment_test.go
package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testContentField = "text"

// ==========================================
// Fragment Builder Tests
// ==========================================

func TestBuildFragment_SingleWordOperators(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		op       FilterOp
		value    Value
		expected string
	}{
		{
			name:     "contains single word on content field",
			field:    testContentField,
			op:       OpContains,
			value:    Clean("clinic"),
			expected: "(clinic)",
		},
		{
			name:     "contains single word on named field",
			field:    "name",
			op:       OpContains,
			value:    Clean("clinic"),
			expected: "name:(clinic)",
		},
		{
			name:     "startswith appends wildcard",
			field:    "name",
			op:       OpStartswith,
			value:    Clean("hosp"),
			expected: "name:(hosp*)",
		},
		{
			name:     "fuzzy appends tilde",
			field:    testContentField,
			op:       OpFuzzy,
			value:    Clean("helth"),
			expected: "(helth~)",
		},
		{
			name:     "exact quotes the value",
			field:    "country",
			op:       OpExact,
			value:    Clean("ZA"),
			expected: `country:("ZA")`,
		},
		{
			name:     "exact escapes an embedded quote",
			field:    "country",
			op:       OpExact,
			value:    Clean(`za"x`),
			expected: `country:("za\"x")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildFragment(testContentField, tt.field, tt.op, tt.value)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestBuildFragment_MultiWordValues(t *testing.T) {
	tests := []struct {
		name     string
		op       FilterOp
		value    Value
		expected string
	}{
		{
			name:     "contains joins terms with AND",
			op:       OpContains,
			value:    Clean("mental health"),
			expected: "(mental AND health)",
		},
		{
			name:     "startswith transforms each term before joining",
			op:       OpStartswith,
			value:    Clean("mental health"),
			expected: "(mental* AND health*)",
		},
		{
			name:     "fuzzy transforms each term before joining",
			op:       OpFuzzy,
			value:    Clean("mental helth"),
			expected: "(mental~ AND helth~)",
		},
		{
			name:     "exact input skips term splitting",
			op:       OpContains,
			value:    Exact("mental health"),
			expected: `("mental health")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildFragment(testContentField, testContentField, tt.op, tt.value)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestBuildFragment_RangeOperators(t *testing.T) {
	tests := []struct {
		name     string
		op       FilterOp
		value    Value
		expected string
	}{
		{
			name:     "gt excludes the bound",
			op:       OpGt,
			value:    Clean(18),
			expected: `age_range_min:({"18" TO *})`,
		},
		{
			name:     "gte includes the bound",
			op:       OpGte,
			value:    Clean(18),
			expected: `age_range_min:(["18" TO *])`,
		},
		{
			name:     "lt excludes the bound",
			op:       OpLt,
			value:    Clean(65),
			expected: `age_range_min:({* TO "65"})`,
		},
		{
			name:     "lte includes the bound",
			op:       OpLte,
			value:    Clean(65),
			expected: `age_range_min:([* TO "65"])`,
		},
		{
			name:     "range renders both bounds quoted",
			op:       OpRange,
			value:    Collection(18, 65),
			expected: `age_range_min:(["18" TO "65"])`,
		},
		{
			name:     "gte escapes a quoted string bound",
			op:       OpGte,
			value:    Clean(`a"b`),
			expected: `age_range_min:(["a\"b" TO *])`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildFragment(testContentField, "age_range_min", tt.op, tt.value)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestBuildFragment_InOperator(t *testing.T) {
	got := BuildFragment(testContentField, "categories", OpIn, Collection(3, 7, 12))
	assert.Equal(t, `categories:("3" OR "7" OR "12")`, got)
}

func TestBuildFragment_InOperatorSingleValue(t *testing.T) {
	got := BuildFragment(testContentField, "categories", OpIn, Collection("counselling"))
	assert.Equal(t, `categories:("counselling")`, got)
}

func TestBuildFragment_RawValuePassesThrough(t *testing.T) {
	// Raw text keeps its syntax characters and is never re-parenthesized.
	got := BuildFragment(testContentField, "name", OpContains, Raw("clinic*"))
	assert.Equal(t, "name:clinic*", got)
}

func TestBuildFragment_DatetimeNormalization(t *testing.T) {
	ts := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	got := BuildFragment(testContentField, "created_at", OpGte, Clean(ts))
	assert.Equal(t, `created_at:(["2024-03-15T09:30:00" TO *])`, got)
}

func TestBuildFragment_BooleanNormalization(t *testing.T) {
	got := BuildFragment(testContentField, "verified", OpExact, Clean(true))
	assert.Equal(t, `verified:("true")`, got)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "escapes syntax characters",
			input:    "a:b (c)",
			expected: `a\:b \(c\)`,
		},
		{
			name:     "lowercases reserved words",
			input:    "food AND shelter",
			expected: "food and shelter",
		},
		{
			name:     "plain text untouched",
			input:    "mental health",
			expected: "mental health",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanText(tt.input))
		})
	}
}
