package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Codes carried in the error_code extension of a problem
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeMissingParameter = "MISSING_PARAMETER"
	CodeEntityNotFound   = "ENTITY_NOT_FOUND"
	CodeInsufficientData = "INSUFFICIENT_DATA"
)

// APIError is a client-facing failure with a stable code. Details is whatever
// helps the caller fix the request: a field list, the parameter name or the
// underlying message.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// problemType maps the code onto an RFC 7807 type URI
func (e *APIError) problemType() string {
	switch e.ErrorCode {
	case CodeValidationFailed, CodeInvalidRequest, CodeInvalidParameter, CodeMissingParameter:
		return TypeValidation
	case CodeEntityNotFound:
		return TypeNotFound
	case CodeInsufficientData:
		return TypeInsufficientData
	default:
		return TypeInternal
	}
}

func newAPIError(status int, code, message string, details interface{}) *APIError {
	return &APIError{StatusCode: status, ErrorCode: code, Message: message, Details: details}
}

// ValidationError names one rejected field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the details payload of a failed struct validation
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// ValidationFailed lists every field a validator rejected
func ValidationFailed(fields []ValidationError) *APIError {
	return newAPIError(http.StatusBadRequest, CodeValidationFailed, "Request validation failed",
		ValidationErrors{Errors: fields})
}

// FieldInvalid rejects a single field or query parameter
func FieldInvalid(field, message string) *APIError {
	return newAPIError(http.StatusBadRequest, CodeValidationFailed, "Request validation failed",
		ValidationError{Field: field, Message: message})
}

// InvalidRequest wraps a request that could not be checked at all
func InvalidRequest(err error) *APIError {
	return newAPIError(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// InvalidParameter names the parameter whose value was rejected
func InvalidParameter(name string, err error) *APIError {
	return newAPIError(http.StatusBadRequest, CodeInvalidParameter, fmt.Sprintf("Invalid value for %s", name), err.Error())
}

// MissingParameter names a parameter the operation cannot run without
func MissingParameter(name string) *APIError {
	return newAPIError(http.StatusBadRequest, CodeMissingParameter, "Required parameter is missing", name)
}

// EntityNotFound reports a company code absent from the dataset
func EntityNotFound(err error) *APIError {
	return newAPIError(http.StatusNotFound, CodeEntityNotFound, "Company not found", err.Error())
}

// InsufficientData reports a series too short for the requested analysis
func InsufficientData(err error) *APIError {
	return newAPIError(http.StatusUnprocessableEntity, CodeInsufficientData, "Not enough observations for this analysis", err.Error())
}
