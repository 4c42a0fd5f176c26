// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"service-directory/internal/common/errors"
)

// ValidateJSON checks a decoded request body against a JSON schema and
// converts the schema violations into the per-field error list the API
// returns. A nil result means the document is valid.
func ValidateJSON(schema string, document interface{}) *errors.ValidationError {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return errors.NewValidationError([]errors.FieldError{{
			Field:   "body",
			Message: fmt.Sprintf("request body could not be validated: %v", err),
			Code:    "INVALID_BODY",
		}})
	}
	if result.Valid() {
		return nil
	}

	fields := make([]errors.FieldError, 0, len(result.Errors()))
	for _, violation := range result.Errors() {
		fields = append(fields, errors.FieldError{
			Field:   fieldName(violation.Field()),
			Message: violation.Description(),
			Code:    strings.ToUpper(violation.Type()),
		})
	}
	return errors.NewValidationError(fields)
}

// fieldName strips the schema library's "(root)" prefix so errors name the
// request field the caller actually sent.
func fieldName(raw string) string {
	if raw == "(root)" {
		return "body"
	}
	return strings.TrimPrefix(raw, "(root).")
}
