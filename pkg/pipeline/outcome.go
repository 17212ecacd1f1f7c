// Package pipeline implements the bounded fetch-and-aggregate worker pool
// shared by the discovery and geometry stages: a fixed set of workers
// pulling units from a shared source, running each unit through a bounded
// retry loop, and merging classified outcomes into a single aggregator.
package pipeline

// Class categorizes why an attempt failed. It selects the backoff profile
// for retryable failures.
type Class string

const (
	// ClassNetwork represents transport and timeout errors.
	ClassNetwork Class = "network"

	// ClassServer represents 5xx upstream errors.
	ClassServer Class = "server"

	// ClassRateLimit represents 429 responses, retried with longer backoff.
	ClassRateLimit Class = "rate_limit"

	// ClassClient represents non-retryable 4xx upstream errors.
	ClassClient Class = "client"

	// ClassParse represents malformed upstream responses.
	ClassParse Class = "parse"
)

// Status tags the terminal result of handling one work unit attempt.
type Status int

const (
	// StatusSuccess means the unit produced a payload.
	StatusSuccess Status = iota

	// StatusEmpty means the unit completed but there was nothing there: an
	// empty listing page, or a card without geometry. Not an error.
	StatusEmpty

	// StatusRetryable means the attempt failed transiently. The retryer
	// converts it to StatusPermanent once attempts are exhausted; it never
	// reaches an aggregator.
	StatusRetryable

	// StatusPermanent means the unit failed and retrying will not help.
	StatusPermanent
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusEmpty:
		return "empty"
	case StatusRetryable:
		return "retryable"
	case StatusPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of one work unit. Exactly one status
// per completed attempt; Payload is set only for StatusSuccess, Err only
// for failures.
type Outcome[R any] struct {
	Status  Status
	Class   Class
	Payload R
	Err     error
}

// Success builds a successful outcome carrying payload.
func Success[R any](payload R) Outcome[R] {
	return Outcome[R]{Status: StatusSuccess, Payload: payload}
}

// Empty builds an empty outcome.
func Empty[R any]() Outcome[R] {
	return Outcome[R]{Status: StatusEmpty}
}

// Retryable builds a transient-failure outcome.
func Retryable[R any](class Class, err error) Outcome[R] {
	return Outcome[R]{Status: StatusRetryable, Class: class, Err: err}
}

// Permanent builds a permanent-failure outcome.
func Permanent[R any](class Class, err error) Outcome[R] {
	return Outcome[R]{Status: StatusPermanent, Class: class, Err: err}
}
