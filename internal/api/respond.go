// internal/api/respond.go
package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"service-directory/internal/common/errors"
	"service-directory/internal/common/logger"
)

type errorBody struct {
	Code    errors.ErrorCode    `json:"code"`
	Message string              `json:"message"`
	Errors  []errors.FieldError `json:"errors,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps internal errors onto the API's error envelope. Validation
// failures carry their per-field list; everything else exposes code and
// message only, details stay in the logs.
func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	status := errors.StatusFor(err)

	var valErr *errors.ValidationError
	if stderrors.As(err, &valErr) {
		writeJSON(w, status, errorEnvelope{Error: errorBody{
			Code:    errors.ErrCodeValidationFailed,
			Message: "Request validation failed",
			Errors:  valErr.Fields,
		}})
		return
	}

	var stdErr *errors.StandardError
	if stderrors.As(err, &stdErr) {
		if status >= http.StatusInternalServerError {
			log.WithError(err).Error("request failed", nil)
		}
		writeJSON(w, status, errorEnvelope{Error: errorBody{
			Code:    stdErr.Code,
			Message: stdErr.Message,
		}})
		return
	}

	log.WithError(err).Error("request failed with unclassified error", nil)
	writeJSON(w, http.StatusInternalServerError, errorEnvelope{Error: errorBody{
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
	}})
}

// decodeJSONBody decodes a request body into a generic document for schema
// validation.
func decodeJSONBody(r *http.Request) (map[string]interface{}, *errors.ValidationError) {
	var document map[string]interface{}
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&document); err != nil {
		return nil, errors.NewValidationError([]errors.FieldError{{
			Field:   "body",
			Message: "request body must be a JSON object",
			Code:    "INVALID_JSON",
		}})
	}
	return document, nil
}
