// internal/search/request.go
package search

import (
	"net/url"
	"strconv"
	"strings"

	"service-directory/internal/common/errors"
	"service-directory/internal/models"
)

// Request is a validated search request. Optional parts are nil when the
// caller omitted them.
type Request struct {
	SearchTerm string
	Location   *models.Point
	RadiusKm   *float64
	Categories []int64
	Keywords   []string
	Country    string

	// PlaceName is the human-readable label for Location. It feeds usage
	// tracking only and never reaches the engine.
	PlaceName string
}

// ParseRequest validates raw query parameters into a Request. All fields are
// checked before returning so the caller sees every problem at once, each
// attributed to the parameter that caused it.
func ParseRequest(values url.Values) (*Request, *errors.ValidationError) {
	req := &Request{
		SearchTerm: strings.TrimSpace(values.Get("q")),
		Country:    strings.TrimSpace(values.Get("country")),
		PlaceName:  strings.TrimSpace(values.Get("place_name")),
	}
	var fieldErrors []errors.FieldError

	if req.Country != "" && len(req.Country) < 2 {
		fieldErrors = append(fieldErrors, errors.FieldError{
			Field:   "country",
			Message: "country must be at least two characters",
			Code:    "TOO_SHORT",
		})
	}

	if raw := strings.TrimSpace(values.Get("location")); raw != "" {
		point, err := models.ParsePoint(raw)
		if err != nil {
			fieldErrors = append(fieldErrors, errors.FieldError{
				Field:   "location",
				Message: err.Error(),
				Code:    "INVALID_POINT",
			})
		} else {
			req.Location = &point
		}
	}

	if raw := strings.TrimSpace(values.Get("radius")); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		switch {
		case err != nil:
			fieldErrors = append(fieldErrors, errors.FieldError{
				Field:   "radius",
				Message: "radius must be a number of kilometres",
				Code:    "INVALID_NUMBER",
			})
		case radius <= 0:
			fieldErrors = append(fieldErrors, errors.FieldError{
				Field:   "radius",
				Message: "radius must be greater than zero",
				Code:    "OUT_OF_RANGE",
			})
		default:
			req.RadiusKm = &radius
		}
	}

	// A radius on its own is meaningless: there is no circle without a
	// centre.
	if req.RadiusKm != nil && values.Get("location") == "" {
		fieldErrors = append(fieldErrors, errors.FieldError{
			Field:   "radius",
			Message: "radius requires a location to measure from",
			Code:    "MISSING_DEPENDENT_FIELD",
		})
	}

	for _, raw := range values["category"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				fieldErrors = append(fieldErrors, errors.FieldError{
					Field:   "category",
					Message: "category must be a positive integer identifier",
					Code:    "INVALID_IDENTIFIER",
				})
				continue
			}
			req.Categories = append(req.Categories, id)
		}
	}

	for _, raw := range values["keyword"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			req.Keywords = append(req.Keywords, part)
		}
	}

	if len(fieldErrors) > 0 {
		return nil, errors.NewValidationError(fieldErrors)
	}
	return req, nil
}
