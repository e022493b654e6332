package framework

import (
	"strconv"
	"strings"
)

// AggregatedError collects the failures of steps that keep going after
// an error, like the runnables of a Runner or the module bring-up.
type AggregatedError struct {
	Errors []error
}

// Error renders a single failure as is, more as a numbered list.
func (e *AggregatedError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	for n, err := range e.Errors {
		if n > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(strconv.Itoa(n + 1))
		sb.WriteString(") ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Unwrap lets errors.Is and errors.As look at each failure.
func (e *AggregatedError) Unwrap() []error {
	return e.Errors
}

// Len is the number of failures collected.
func (e *AggregatedError) Len() int {
	return len(e.Errors)
}

// Add records the non-nil errors.
func (e *AggregatedError) Add(errs ...error) *AggregatedError {
	for _, err := range errs {
		if err != nil {
			e.Errors = append(e.Errors, err)
		}
	}
	return e
}

// Aggregate returns nil when nothing failed.
func (e *AggregatedError) Aggregate() error {
	if e.Len() == 0 {
		return nil
	}
	return e
}
