// Package apperr implements the gateway's structured error type and the
// error-kind → HTTP-status mapping described in spec.md section 7.
package apperr

import "fmt"

// Code identifies a class of application error.
type Code string

const (
	CodeValidationFailed    Code = "VALIDATION_FAILED"
	CodeConflict            Code = "CONFLICT"
	CodeNotFound            Code = "NOT_FOUND"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeForbidden           Code = "FORBIDDEN"
	CodeUpstreamFailed      Code = "UPSTREAM_FAILED"
	CodeServiceUnavailable  Code = "SERVICE_UNAVAILABLE"
	CodeBackendUnavailable  Code = "BACKEND_UNAVAILABLE"
	CodeInternalServer      Code = "INTERNAL_SERVER_ERROR"
)

// AppError is the structured error type surfaced across the gateway.
// Handlers type-assert *AppError to decide the HTTP response shape.
type AppError struct {
	Code       Code
	Message    string
	Details    map[string]interface{}
	StatusCode int
}

func (e *AppError) Error() string {
	return e.Message
}

// ToResponse renders the error as the JSON body returned to clients.
func (e *AppError) ToResponse() map[string]interface{} {
	resp := map[string]interface{}{
		"error": map[string]interface{}{
			"code":    e.Code,
			"message": e.Message,
		},
	}
	if len(e.Details) > 0 {
		resp["error"].(map[string]interface{})["details"] = e.Details
	}
	return resp
}

func statusForCode(code Code) int {
	switch code {
	case CodeValidationFailed, CodeConflict:
		return 400
	case CodeUnauthorized:
		return 401
	case CodeForbidden:
		return 403
	case CodeNotFound:
		return 404
	case CodeServiceUnavailable:
		return 503
	case CodeUpstreamFailed, CodeBackendUnavailable:
		return 502
	default:
		return 500
	}
}

// New creates an AppError of the given code with a plain message.
func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusForCode(code)}
}

// NewWithDetails creates an AppError carrying structured detail fields.
func NewWithDetails(code Code, message string, details map[string]interface{}) *AppError {
	return &AppError{Code: code, Message: message, Details: details, StatusCode: statusForCode(code)}
}

// Wrap attaches an underlying error's message to a new AppError of the given code.
func Wrap(code Code, message string, err error) *AppError {
	if err == nil {
		return New(code, message)
	}
	return New(code, fmt.Sprintf("%s: %v", message, err))
}

// ValidationFailed reports a name-pattern or immutable-field violation (spec 7).
func ValidationFailed(message string) *AppError {
	return New(CodeValidationFailed, message)
}

// Conflict reports a create collision against an existing record name.
func Conflict(name string) *AppError {
	return New(CodeConflict, fmt.Sprintf("a resource named %q already exists", name))
}

// NotFound reports a store miss for the named resource kind/identifier.
func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// Unauthorized reports a missing or invalid bearer token.
func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message)
}

// Forbidden reports a permission-evaluator denial.
func Forbidden() *AppError {
	return New(CodeForbidden, "you do not have permission to perform this action")
}

// UpstreamFailed reports an orchestrator or store transport error.
func UpstreamFailed(err error) *AppError {
	return Wrap(CodeUpstreamFailed, "upstream call failed", err)
}

// ServiceUnavailable reports no backend endpoints or no ready replica.
func ServiceUnavailable(reason string) *AppError {
	return New(CodeServiceUnavailable, reason)
}

// BackendUnavailable reports a resource- or session-store transport failure (spec 4.1/4.2).
func BackendUnavailable(err error) *AppError {
	return Wrap(CodeBackendUnavailable, "backend store unavailable", err)
}

// InternalServer reports an unexpected internal failure.
func InternalServer(err error) *AppError {
	return Wrap(CodeInternalServer, "internal server error", err)
}

// As extracts an *AppError from err, returning ok=false if err is not one.
func As(err error) (*AppError, bool) {
	ae, ok := err.(*AppError)
	return ae, ok
}
