package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError represents a backend error response.
type APIError struct {
	StatusCode int          `json:"status_code"`
	Message    string       `json:"message"`
	Fields     []FieldError `json:"fields,omitempty"`
}

// FieldError is one entry of a structured validation error list.
type FieldError struct {
	Loc []interface{} `json:"loc"`
	Msg string        `json:"msg"`
}

// Field returns the offending field name, or a placeholder when the backend
// did not include one.
func (f FieldError) Field() string {
	// The first location element is the payload section ("body", "query"),
	// the second is the field itself.
	if len(f.Loc) > 1 {
		return fmt.Sprintf("%v", f.Loc[1])
	}
	if len(f.Loc) == 1 {
		return fmt.Sprintf("%v", f.Loc[0])
	}
	return "field"
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error (%d)", e.StatusCode)
}

// ValidationMessage concatenates the structured field errors into one
// readable message, or "" when no field errors are present.
func (e *APIError) ValidationMessage() string {
	if len(e.Fields) == 0 {
		return ""
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field(), f.Msg))
	}
	return strings.Join(parts, "; ")
}

// errorBody is the wire shape of backend error responses. detail is either a
// plain string or a structured list of field errors.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

// parseAPIError builds an APIError from a response body, tolerating every
// malformed variant the backend might produce.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return apiErr
	}

	if len(parsed.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(parsed.Detail, &detail); err == nil {
			apiErr.Message = detail
			return apiErr
		}

		var fields []FieldError
		if err := json.Unmarshal(parsed.Detail, &fields); err == nil {
			apiErr.Fields = fields
			return apiErr
		}
	}

	apiErr.Message = parsed.Message
	return apiErr
}
