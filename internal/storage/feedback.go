// internal/storage/feedback.go
package storage

import (
	"context"
	"database/sql"

	"service-directory/internal/common/errors"
	"service-directory/internal/common/logger"
	"service-directory/internal/models"
)

// FeedbackRepository persists end-user feedback about organisations.
type FeedbackRepository struct {
	db  *sql.DB
	log logger.Logger
}

func NewFeedbackRepository(db *sql.DB, log logger.Logger) *FeedbackRepository {
	return &FeedbackRepository{db: db, log: log}
}

// InsertReport stores an incorrect-information report and fills in the
// generated id and timestamp.
func (r *FeedbackRepository) InsertReport(ctx context.Context, report *models.IncorrectInformationReport) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO organisation_reports
			(organisation_id, contact_details, address, trading_hours, other, other_detail)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, reported_at`,
		report.OrganisationID,
		boolValue(report.ContactDetails),
		boolValue(report.Address),
		boolValue(report.TradingHours),
		boolValue(report.Other),
		nullableString(report.OtherDetail),
	).Scan(&report.ID, &report.ReportedAt)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

// InsertRating stores a quality rating and fills in the generated id and
// timestamp.
func (r *FeedbackRepository) InsertRating(ctx context.Context, rating *models.Rating) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO organisation_ratings (organisation_id, rating)
		VALUES ($1, $2)
		RETURNING id, rated_at`,
		rating.OrganisationID,
		rating.Rating,
	).Scan(&rating.ID, &rating.RatedAt)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

func boolValue(v *bool) bool {
	return v != nil && *v
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
