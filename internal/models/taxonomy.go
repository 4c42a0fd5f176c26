// internal/models/taxonomy.go
package models

// Country is a supported country, matched case-insensitively by ISO code.
type Country struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	ISOCode string `json:"isoCode"`
}

// Category groups keywords, e.g. "Health Services".
type Category struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	ShowOnHomePage bool   `json:"showOnHomePage"`
}

// Keyword is a searchable tag attached to organisations, grouped by category.
type Keyword struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Categories     []string `json:"categories,omitempty"`
	ShowOnHomePage bool     `json:"showOnHomePage"`
}

// CategoryKeywordGroup is the home page grouping: one category together with
// the keywords flagged for home page display.
type CategoryKeywordGroup struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}
