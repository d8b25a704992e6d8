package analysis

import (
	"errors"
	"fmt"
)

var (
	ErrSubmissionPending = errors.New("a submission is already in flight")

	// ErrServiceFailure matches every *ServiceError.
	ErrServiceFailure = errors.New("analysis service failure")
	// ErrMalformedResult marks a 2xx answer that carries no usable analysis.
	ErrMalformedResult = errors.New("malformed result")
)

// NetworkError means the request never produced an HTTP response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServiceError means the service answered, but not with a usable result.
type ServiceError struct {
	Op         string
	StatusCode int
	Body       string
	Reason     string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Reason, e.StatusCode)
	}
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("%s: service error %d: %s", e.Op, e.StatusCode, body)
}

func (e *ServiceError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrServiceFailure, e.Err}
	}
	return []error{ErrServiceFailure}
}
