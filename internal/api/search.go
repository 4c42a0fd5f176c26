// internal/api/search.go
package api

import (
	"net/http"

	"service-directory/internal/analytics"
	"service-directory/internal/common/errors"
	"service-directory/internal/search"
)

// handleSearch serves GET /api/search.
func (h *Handlers) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, verr := search.ParseRequest(r.URL.Query())
	if verr != nil {
		writeError(w, h.log, verr)
		return
	}

	// Resolve the country filter against known countries so only canonical
	// ISO codes reach the query compiler.
	if req.Country != "" {
		country, err := h.taxonomy.GetCountryByISOCode(r.Context(), req.Country)
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		if country == nil {
			writeError(w, h.log, errors.NewValidationError([]errors.FieldError{{
				Field:   "country",
				Message: "unknown country code",
				Code:    "UNKNOWN_COUNTRY",
			}}))
			return
		}
		req.Country = country.ISOCode
	}

	resp, err := h.search.Search(r.Context(), req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	label := req.SearchTerm
	if req.PlaceName != "" {
		label = req.PlaceName
	}
	h.track(r.Context(), analytics.Event{
		Category: "search",
		Action:   "query",
		Label:    label,
		Page:     r.URL.RequestURI(),
	})

	writeJSON(w, http.StatusOK, resp)
}
