package client

import (
	"errors"
	"fmt"
	"net/http"

	"zonecrawl/pkg/pipeline"
)

// Error classes shared with the pipeline retry policy.
const (
	ClassNetwork   = pipeline.ClassNetwork
	ClassServer    = pipeline.ClassServer
	ClassRateLimit = pipeline.ClassRateLimit
	ClassClient    = pipeline.ClassClient
	ClassParse     = pipeline.ClassParse
)

// APIError represents an upstream error with its classification.
type APIError struct {
	StatusCode int
	Class      pipeline.Class
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream %s error (status %d): %s: %v",
			e.Class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("upstream %s error (status %d): %s",
		e.Class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the error is worth retrying. Client errors
// and malformed responses will not resolve on retry.
func (e *APIError) Retryable() bool {
	switch e.Class {
	case ClassNetwork, ClassServer, ClassRateLimit:
		return true
	default:
		return false
	}
}

// classifyStatus categorizes a non-200 HTTP status.
func classifyStatus(status int) pipeline.Class {
	switch {
	case status == http.StatusTooManyRequests:
		return ClassRateLimit
	case status >= 500:
		return ClassServer
	default:
		return ClassClient
	}
}

// OutcomeOf maps a client error to a pipeline outcome. APIError carries
// its own retryability; anything unclassified is treated as permanent.
func OutcomeOf[R any](err error) pipeline.Outcome[R] {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Retryable() {
			return pipeline.Retryable[R](apiErr.Class, err)
		}
		return pipeline.Permanent[R](apiErr.Class, err)
	}
	return pipeline.Permanent[R]("", err)
}
