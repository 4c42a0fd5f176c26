// internal/api/organisations.go
package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"service-directory/internal/analytics"
	"service-directory/internal/common/errors"
	"service-directory/internal/common/validation"
	"service-directory/internal/models"
)

const reportSchema = `{
	"type": "object",
	"properties": {
		"contactDetails": {"type": "boolean"},
		"address": {"type": "boolean"},
		"tradingHours": {"type": "boolean"},
		"other": {"type": "boolean"},
		"otherDetail": {"type": "string", "maxLength": 500}
	},
	"additionalProperties": false
}`

const ratingSchema = `{
	"type": "object",
	"properties": {
		"rating": {"type": "string", "enum": ["poor", "average", "good"]}
	},
	"required": ["rating"],
	"additionalProperties": false
}`

// handleGetOrganisation serves GET /api/organisation/{id}.
func (h *Handlers) handleGetOrganisation(w http.ResponseWriter, r *http.Request) {
	id, verr := organisationID(r)
	if verr != nil {
		writeError(w, h.log, verr)
		return
	}

	org, err := h.orgs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	h.track(r.Context(), analytics.Event{
		Category: "organisation",
		Action:   "view",
		Label:    strconv.FormatInt(id, 10),
		Page:     r.URL.Path,
	})

	writeJSON(w, http.StatusOK, org)
}

// handleReportIncorrectInformation serves POST /api/organisation/{id}/report.
func (h *Handlers) handleReportIncorrectInformation(w http.ResponseWriter, r *http.Request) {
	id, verr := organisationID(r)
	if verr != nil {
		writeError(w, h.log, verr)
		return
	}

	document, verr := decodeJSONBody(r)
	if verr != nil {
		writeError(w, h.log, verr)
		return
	}
	if verr := validation.ValidateJSON(reportSchema, document); verr != nil {
		writeError(w, h.log, verr)
		return
	}

	report := &models.IncorrectInformationReport{
		OrganisationID: id,
		ContactDetails: boolField(document, "contactDetails"),
		Address:        boolField(document, "address"),
		TradingHours:   boolField(document, "tradingHours"),
		Other:          boolField(document, "other"),
	}
	if detail, ok := document["otherDetail"].(string); ok {
		report.OtherDetail = detail
	}

	if !anyFlagged(report) {
		writeError(w, h.log, errors.NewValidationError([]errors.FieldError{{
			Field:   "body",
			Message: "at least one area must be flagged as incorrect",
			Code:    "EMPTY_REPORT",
		}}))
		return
	}

	// The organisation must exist before feedback is accepted against it.
	if _, err := h.orgs.GetByID(r.Context(), id); err != nil {
		writeError(w, h.log, err)
		return
	}

	if err := h.feedback.InsertReport(r.Context(), report); err != nil {
		writeError(w, h.log, err)
		return
	}

	h.track(r.Context(), analytics.Event{
		Category: "organisation",
		Action:   "report-incorrect-information",
		Label:    strconv.FormatInt(id, 10),
		Page:     r.URL.Path,
	})

	writeJSON(w, http.StatusCreated, report)
}

// handleRateOrganisation serves POST /api/organisation/{id}/rate.
func (h *Handlers) handleRateOrganisation(w http.ResponseWriter, r *http.Request) {
	id, verr := organisationID(r)
	if verr != nil {
		writeError(w, h.log, verr)
		return
	}

	document, verr := decodeJSONBody(r)
	if verr != nil {
		writeError(w, h.log, verr)
		return
	}
	if verr := validation.ValidateJSON(ratingSchema, document); verr != nil {
		writeError(w, h.log, verr)
		return
	}

	if _, err := h.orgs.GetByID(r.Context(), id); err != nil {
		writeError(w, h.log, err)
		return
	}

	rating := &models.Rating{
		OrganisationID: id,
		Rating:         document["rating"].(string),
	}
	if err := h.feedback.InsertRating(r.Context(), rating); err != nil {
		writeError(w, h.log, err)
		return
	}

	h.track(r.Context(), analytics.Event{
		Category: "organisation",
		Action:   "rate",
		Label:    rating.Rating,
		Page:     r.URL.Path,
	})

	writeJSON(w, http.StatusCreated, rating)
}

func organisationID(r *http.Request) (int64, *errors.ValidationError) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewValidationError([]errors.FieldError{{
			Field:   "id",
			Message: "organisation id must be a positive integer",
			Code:    "INVALID_IDENTIFIER",
		}})
	}
	return id, nil
}

func boolField(document map[string]interface{}, key string) *bool {
	if v, ok := document[key].(bool); ok {
		return &v
	}
	return nil
}

func anyFlagged(report *models.IncorrectInformationReport) bool {
	for _, flag := range []*bool{report.ContactDetails, report.Address, report.TradingHours, report.Other} {
		if flag != nil && *flag {
			return true
		}
	}
	return false
}
