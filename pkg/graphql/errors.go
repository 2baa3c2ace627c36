package graphql

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrBudgetExhausted is returned when the endpoint's error budget refuses the request.
	ErrBudgetExhausted = errors.New("upstream error budget exhausted")
)

// ErrorClass represents a classification of upstream failures.
type ErrorClass string

const (
	// ClassClient represents 4xx responses.
	ClassClient ErrorClass = "client"

	// ClassServer represents 5xx responses.
	ClassServer ErrorClass = "server"

	// ClassNetwork represents transport and timeout errors.
	ClassNetwork ErrorClass = "network"

	// ClassGraphQL represents a response carrying a GraphQL "errors" array.
	ClassGraphQL ErrorClass = "graphql"

	// ClassDecode represents a response that is not a GraphQL JSON envelope.
	ClassDecode ErrorClass = "decode"

	// ClassBudget represents a request refused by the error budget.
	ClassBudget ErrorClass = "budget"
)

// Error is a failed fetch against one endpoint. Pages render it inline for
// the affected list only.
type Error struct {
	Endpoint   string
	Operation  string
	StatusCode int
	Class      ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "graphql %s error", e.Class)
	if e.Operation != "" {
		fmt.Fprintf(&b, " in %s", e.Operation)
	}
	if e.Endpoint != "" {
		fmt.Fprintf(&b, " at %s", e.Endpoint)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// ClassOf returns the class of err, or "" when it is not an *Error.
func ClassOf(err error) ErrorClass {
	var gqlErr *Error
	if errors.As(err, &gqlErr) {
		return gqlErr.Class
	}
	return ""
}

// shouldRetry determines if an error class is retried.
func shouldRetry(class ErrorClass) bool {
	switch class {
	case ClassServer, ClassNetwork:
		return true
	default:
		// Client, GraphQL and decode errors repeat identically; budget
		// refusals must not be hammered.
		return false
	}
}

// countsAgainstBudget reports whether a failure is charged to the endpoint.
func countsAgainstBudget(class ErrorClass) bool {
	return class == ClassServer || class == ClassNetwork
}
