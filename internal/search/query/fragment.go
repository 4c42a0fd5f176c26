// internal/search/query/fragment.go
package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FilterOp enumerates the filter operators understood by the fragment
// builder. The set is closed: Build dispatches with an exhaustive switch so a
// new operator without a rendering rule fails at compile time.
type FilterOp int

const (
	OpContains FilterOp = iota
	OpStartswith
	OpExact
	OpFuzzy
	OpGt
	OpGte
	OpLt
	OpLte
	OpRange
	OpIn
)

func (op FilterOp) String() string {
	switch op {
	case OpContains:
		return "contains"
	case OpStartswith:
		return "startswith"
	case OpExact:
		return "exact"
	case OpFuzzy:
		return "fuzzy"
	case OpGt:
		return "gt"
	case OpGte:
		return "gte"
	case OpLt:
		return "lt"
	case OpLte:
		return "lte"
	case OpRange:
		return "range"
	case OpIn:
		return "in"
	}
	return "unknown"
}

// ValueKind describes how a value's text is prepared before substitution.
type ValueKind int

const (
	// KindClean escapes query-syntax characters in the value (the default).
	KindClean ValueKind = iota
	// KindExact renders the value as a quoted phrase.
	KindExact
	// KindRaw passes pre-escaped literal text through untouched, skipping
	// all post-processing.
	KindRaw
)

// Value is one filter comparison value. Scalar operators read Single;
// OpRange and OpIn read Values.
type Value struct {
	Kind   ValueKind
	Single interface{}
	Values []interface{}
}

// Clean wraps a scalar value with syntax-character escaping.
func Clean(v interface{}) Value {
	return Value{Kind: KindClean, Single: v}
}

// Exact wraps a scalar value to be matched as a quoted phrase.
func Exact(v interface{}) Value {
	return Value{Kind: KindExact, Single: v}
}

// Raw wraps pre-escaped query text supplied by the caller.
func Raw(s string) Value {
	return Value{Kind: KindRaw, Single: s}
}

// Collection wraps the value list for OpRange and OpIn.
func Collection(vs ...interface{}) Value {
	return Value{Kind: KindClean, Values: vs}
}

// reservedChars are the query-syntax characters escaped by KindClean.
// Backslash must be first so escapes are not escaped again.
var reservedChars = []string{
	`\`, `+`, `-`, `&&`, `||`, `!`, `(`, `)`, `{`, `}`,
	`[`, `]`, `^`, `"`, `~`, `*`, `?`, `:`, `/`,
}

var reservedWords = []string{"AND", "OR", "NOT", "TO"}

// CleanText escapes reserved query-syntax characters and lowercases reserved
// boolean words so user-supplied terms cannot alter query structure.
func CleanText(s string) string {
	words := strings.Fields(s)
	cleaned := make([]string, 0, len(words))
	for _, word := range words {
		for _, reserved := range reservedWords {
			if word == reserved {
				word = strings.ToLower(word)
			}
		}
		for _, char := range reservedChars {
			word = strings.ReplaceAll(word, char, `\`+char)
		}
		cleaned = append(cleaned, word)
	}
	return strings.Join(cleaned, " ")
}

// esDateFormat is the engine-native datetime literal layout.
const esDateFormat = "2006-01-02T15:04:05"

// toLiteral normalizes a scalar to engine-native literal text.
func toLiteral(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.Format(esDateFormat)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// exactPhrase quotes prepared text as a phrase.
func exactPhrase(s string) string {
	return `"` + s + `"`
}

// phraseValue renders a scalar as a quoted phrase. Clean string input is
// escaped first so a quote in the text cannot terminate the phrase early.
// Non-string scalars become engine literals, which may legitimately contain
// syntax characters (datetime colons), so they skip the escaper.
func phraseValue(value Value) string {
	if value.Kind == KindExact {
		return value.prepare()
	}
	if s, ok := value.Single.(string); ok && value.Kind == KindClean {
		return exactPhrase(CleanText(s))
	}
	return exactPhrase(toLiteral(value.Single))
}

// prepare returns the substitution-ready text for a scalar value.
func (v Value) prepare() string {
	lit := toLiteral(v.Single)
	switch v.Kind {
	case KindRaw:
		return lit
	case KindExact:
		return exactPhrase(lit)
	default:
		return CleanText(lit)
	}
}

// BuildFragment renders one filter condition as query-language text:
// "field:(fragment)", or the bare fragment when field is the content field.
// Pure function of its inputs; contentField names the default search field.
func BuildFragment(contentField, field string, op FilterOp, value Value) string {
	var frag string

	if value.Kind == KindRaw {
		frag = value.prepare()
	} else {
		switch op {
		case OpContains, OpStartswith, OpFuzzy:
			frag = buildTermsFragment(op, value)

		case OpIn:
			options := make([]string, 0, len(value.Values))
			for _, candidate := range value.Values {
				options = append(options, `"`+toLiteral(candidate)+`"`)
			}
			frag = "(" + strings.Join(options, " OR ") + ")"

		case OpRange:
			if len(value.Values) == 2 {
				start := toLiteral(value.Values[0])
				end := toLiteral(value.Values[1])
				frag = fmt.Sprintf(`["%s" TO "%s"]`, start, end)
			}

		case OpExact:
			frag = phraseValue(value)

		case OpGt:
			frag = fmt.Sprintf("{%s TO *}", phraseValue(value))
		case OpGte:
			frag = fmt.Sprintf("[%s TO *]", phraseValue(value))
		case OpLt:
			frag = fmt.Sprintf("{* TO %s}", phraseValue(value))
		case OpLte:
			frag = fmt.Sprintf("[* TO %s]", phraseValue(value))
		}
	}

	// Wrap in parens unless the caller supplied raw text or the fragment is
	// already parenthesized.
	if len(frag) > 0 && value.Kind != KindRaw {
		if !strings.HasPrefix(frag, "(") && !strings.HasSuffix(frag, ")") {
			frag = "(" + frag + ")"
		}
	}

	if field == contentField {
		return frag
	}
	return field + ":" + frag
}

// buildTermsFragment renders contains/startswith/fuzzy values: exact values
// pass through as a phrase, everything else is transformed term by term and
// AND-joined when multi-word.
func buildTermsFragment(op FilterOp, value Value) string {
	if value.Kind == KindExact {
		return value.prepare()
	}

	prepared := value.prepare()
	terms := make([]string, 0, 4)
	for _, possible := range strings.Split(prepared, " ") {
		if possible == "" {
			continue
		}
		switch op {
		case OpStartswith:
			terms = append(terms, possible+"*")
		case OpFuzzy:
			terms = append(terms, possible+"~")
		default:
			terms = append(terms, possible)
		}
	}

	switch len(terms) {
	case 0:
		return ""
	case 1:
		return terms[0]
	default:
		return "(" + strings.Join(terms, " AND ") + ")"
	}
}
