package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned when a query is submitted with no text
	ErrEmptyQuery = errors.New("please enter a query")
	// ErrQuerySuperseded is returned to a query whose result arrived after a newer submission
	ErrQuerySuperseded = errors.New("query superseded by a newer submission")
	// ErrUnsupportedFile is returned for uploads with a disallowed extension
	ErrUnsupportedFile = errors.New("unsupported file type")
	// ErrFileTooLarge is returned for uploads over the configured size limit
	ErrFileTooLarge = errors.New("file too large")
	// ErrNotFound indicates resource not found
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidRequest indicates invalid request
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")
)

// Service operations, used to label ServiceError values
const (
	OpListDocuments  = "list documents"
	OpUploadDocument = "upload document"
	OpDeleteDocument = "delete document"
	OpSubmitQuery    = "submit query"
	OpHealth         = "health check"
)

// ServiceError is any failure reported by the remote document service,
// whether the request never completed or the server answered with an error.
type ServiceError struct {
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

func (e *ServiceError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Detail != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Detail)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": failed"
	}
}

// Unwrap returns the underlying cause
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsServiceError reports whether err is or wraps a ServiceError
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}
