package services

import (
	"errors"
	"fmt"
)

// Rejections raised before any network call is made.
var (
	ErrNoFileSelected = errors.New("no file selected")
	ErrUploadRequired = errors.New("upload required before querying")
	ErrEmptyQuery     = errors.New("empty query")
)

// Operation names used by OperationError.
const (
	OpUpload = "upload"
	OpQuery  = "query"
)

// OperationError is a failed upload or query call. Its message is what the
// result area shows.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	switch e.Op {
	case OpUpload:
		return "Error uploading file: " + e.Err.Error()
	case OpQuery:
		return "Error submitting query: " + e.Err.Error()
	default:
		return fmt.Sprintf("Error during %s: %v", e.Op, e.Err)
	}
}

func (e *OperationError) Unwrap() error { return e.Err }

// ServiceError is a non-2xx response from the external service.
type ServiceError struct {
	StatusCode int
	Detail     string
}

func (e *ServiceError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("service returned status %d: %s", e.StatusCode, e.Detail)
}
