// internal/storage/taxonomy.go
package storage

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"service-directory/internal/common/errors"
	"service-directory/internal/common/logger"
	"service-directory/internal/models"
)

// TaxonomyRepository reads countries, categories and keywords.
type TaxonomyRepository struct {
	db  *sql.DB
	log logger.Logger
}

func NewTaxonomyRepository(db *sql.DB, log logger.Logger) *TaxonomyRepository {
	return &TaxonomyRepository{db: db, log: log}
}

// GetCountryByISOCode matches a country case-insensitively by ISO code.
func (r *TaxonomyRepository) GetCountryByISOCode(ctx context.Context, isoCode string) (*models.Country, error) {
	var country models.Country
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, iso_code
		FROM countries
		WHERE LOWER(iso_code) = $1`, strings.ToLower(isoCode)).
		Scan(&country.ID, &country.Name, &country.ISOCode)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.NewQueryExecutionFailedError(err)
	}
	return &country, nil
}

// ListKeywords returns keywords with the categories each belongs to,
// optionally restricted to one category name.
func (r *TaxonomyRepository) ListKeywords(ctx context.Context, categoryName string) ([]models.Keyword, error) {
	query := `
		SELECT k.id, k.name, k.show_on_home_page, COALESCE(cat.name, '')
		FROM keywords k
		LEFT JOIN keyword_categories kc ON kc.keyword_id = k.id
		LEFT JOIN categories cat ON cat.id = kc.category_id`
	args := []interface{}{}
	if categoryName != "" {
		query += `
		WHERE cat.name = $1`
		args = append(args, categoryName)
	}
	query += `
		ORDER BY k.name, cat.name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError(err)
	}
	defer rows.Close()

	var keywords []models.Keyword
	index := make(map[int64]int)
	for rows.Next() {
		var (
			kw       models.Keyword
			category string
		)
		if err := rows.Scan(&kw.ID, &kw.Name, &kw.ShowOnHomePage, &category); err != nil {
			return nil, errors.NewQueryExecutionFailedError(err)
		}
		if pos, ok := index[kw.ID]; ok {
			if category != "" {
				keywords[pos].Categories = append(keywords[pos].Categories, category)
			}
			continue
		}
		if category != "" {
			kw.Categories = []string{category}
		}
		index[kw.ID] = len(keywords)
		keywords = append(keywords, kw)
	}
	return keywords, rows.Err()
}

// HomePageGroups returns the home page layout: every category flagged for
// display, each with its displayable keywords.
func (r *TaxonomyRepository) HomePageGroups(ctx context.Context) ([]models.CategoryKeywordGroup, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cat.name, k.name
		FROM categories cat
		JOIN keyword_categories kc ON kc.category_id = cat.id
		JOIN keywords k ON k.id = kc.keyword_id
		WHERE cat.show_on_home_page = TRUE AND k.show_on_home_page = TRUE
		ORDER BY cat.name, k.name`)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError(err)
	}
	defer rows.Close()

	var groups []models.CategoryKeywordGroup
	for rows.Next() {
		var categoryName, keywordName string
		if err := rows.Scan(&categoryName, &keywordName); err != nil {
			return nil, errors.NewQueryExecutionFailedError(err)
		}
		if len(groups) == 0 || groups[len(groups)-1].Name != categoryName {
			groups = append(groups, models.CategoryKeywordGroup{Name: categoryName})
		}
		last := len(groups) - 1
		groups[last].Keywords = append(groups[last].Keywords, keywordName)
	}
	return groups, rows.Err()
}
