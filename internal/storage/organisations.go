// internal/storage/organisations.go
package storage

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/lib/pq"

	"service-directory/internal/common/errors"
	"service-directory/internal/common/logger"
	"service-directory/internal/models"
)

// OrganisationRepository reads directory entries from Postgres, the system
// of record behind the search index.
type OrganisationRepository struct {
	db  *sql.DB
	log logger.Logger
}

func NewOrganisationRepository(db *sql.DB, log logger.Logger) *OrganisationRepository {
	return &OrganisationRepository{db: db, log: log}
}

const organisationColumns = `
	o.id, o.name, o.about, o.address, o.telephone, o.emergency_telephone,
	o.email, o.web, o.verified_as, o.age_range_min, o.age_range_max,
	o.opening_hours, o.facility_code, o.latitude, o.longitude,
	c.id, c.name, c.iso_code`

// GetByID returns one organisation with its categories and keywords.
func (r *OrganisationRepository) GetByID(ctx context.Context, id int64) (*models.Organisation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT`+organisationColumns+`
		FROM organisations o
		JOIN countries c ON c.id = o.country_id
		WHERE o.id = $1`, id)

	org, err := scanOrganisation(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewOrganisationNotFoundError(id)
		}
		return nil, errors.NewQueryExecutionFailedError(err)
	}

	byID := map[int64]*models.Organisation{org.ID: org}
	if err := r.attachTaxonomy(ctx, byID); err != nil {
		return nil, err
	}
	return org, nil
}

// GetByIDs loads a batch of organisations keyed by id. Missing ids are
// simply absent from the map; callers decide whether that matters.
func (r *OrganisationRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Organisation, error) {
	byID := make(map[int64]*models.Organisation, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT`+organisationColumns+`
		FROM organisations o
		JOIN countries c ON c.id = o.country_id
		WHERE o.id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError(err)
	}
	defer rows.Close()

	for rows.Next() {
		org, err := scanOrganisation(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError(err)
		}
		byID[org.ID] = org
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError(err)
	}

	if err := r.attachTaxonomy(ctx, byID); err != nil {
		return nil, err
	}
	return byID, nil
}

// ListAll streams every organisation, used by the index rebuilder.
func (r *OrganisationRepository) ListAll(ctx context.Context) ([]*models.Organisation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT`+organisationColumns+`
		FROM organisations o
		JOIN countries c ON c.id = o.country_id
		ORDER BY o.id`)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError(err)
	}
	defer rows.Close()

	var organisations []*models.Organisation
	byID := make(map[int64]*models.Organisation)
	for rows.Next() {
		org, err := scanOrganisation(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError(err)
		}
		organisations = append(organisations, org)
		byID[org.ID] = org
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError(err)
	}

	if err := r.attachTaxonomy(ctx, byID); err != nil {
		return nil, err
	}
	return organisations, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrganisation(row rowScanner) (*models.Organisation, error) {
	var (
		org                models.Organisation
		about              sql.NullString
		telephone          sql.NullString
		emergencyTelephone sql.NullString
		email              sql.NullString
		web                sql.NullString
		verifiedAs         sql.NullString
		ageRangeMin        sql.NullInt64
		ageRangeMax        sql.NullInt64
		openingHours       sql.NullString
		facilityCode       sql.NullString
	)

	err := row.Scan(
		&org.ID, &org.Name, &about, &org.Address, &telephone, &emergencyTelephone,
		&email, &web, &verifiedAs, &ageRangeMin, &ageRangeMax,
		&openingHours, &facilityCode, &org.Location.Lat, &org.Location.Lon,
		&org.Country.ID, &org.Country.Name, &org.Country.ISOCode,
	)
	if err != nil {
		return nil, err
	}

	org.About = about.String
	org.Telephone = telephone.String
	org.EmergencyTelephone = emergencyTelephone.String
	org.Email = email.String
	org.Web = web.String
	org.VerifiedAs = verifiedAs.String
	org.OpeningHours = openingHours.String
	org.FacilityCode = facilityCode.String
	if ageRangeMin.Valid {
		v := int(ageRangeMin.Int64)
		org.AgeRangeMin = &v
	}
	if ageRangeMax.Valid {
		v := int(ageRangeMax.Int64)
		org.AgeRangeMax = &v
	}
	return &org, nil
}

// attachTaxonomy fills in categories and keywords for every organisation in
// the map with two batch queries instead of a query per organisation.
func (r *OrganisationRepository) attachTaxonomy(ctx context.Context, byID map[int64]*models.Organisation) error {
	if len(byID) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT oc.organisation_id, cat.id, cat.name, cat.show_on_home_page
		FROM organisation_categories oc
		JOIN categories cat ON cat.id = oc.category_id
		WHERE oc.organisation_id = ANY($1)
		ORDER BY oc.organisation_id, cat.name`, pq.Array(ids))
	if err != nil {
		return errors.NewQueryExecutionFailedError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var orgID int64
		var cat models.Category
		if err := rows.Scan(&orgID, &cat.ID, &cat.Name, &cat.ShowOnHomePage); err != nil {
			return errors.NewQueryExecutionFailedError(err)
		}
		if org, ok := byID[orgID]; ok {
			org.Categories = append(org.Categories, cat)
		}
	}
	if err := rows.Err(); err != nil {
		return errors.NewQueryExecutionFailedError(err)
	}

	keywordRows, err := r.db.QueryContext(ctx, `
		SELECT ok.organisation_id, k.id, k.name, k.show_on_home_page
		FROM organisation_keywords ok
		JOIN keywords k ON k.id = ok.keyword_id
		WHERE ok.organisation_id = ANY($1)
		ORDER BY ok.organisation_id, k.name`, pq.Array(ids))
	if err != nil {
		return errors.NewQueryExecutionFailedError(err)
	}
	defer keywordRows.Close()

	for keywordRows.Next() {
		var orgID int64
		var kw models.Keyword
		if err := keywordRows.Scan(&orgID, &kw.ID, &kw.Name, &kw.ShowOnHomePage); err != nil {
			return errors.NewQueryExecutionFailedError(err)
		}
		if org, ok := byID[orgID]; ok {
			org.Keywords = append(org.Keywords, kw)
		}
	}
	return keywordRows.Err()
}
