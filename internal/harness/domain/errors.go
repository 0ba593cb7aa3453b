package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is matching. Each typed error below reports Is() == true
// for exactly one of them.
var (
	// ErrUndefinedStep is returned when no step definition matches a line.
	ErrUndefinedStep = errors.New("undefined step")

	// ErrAmbiguousStep is returned when more than one step definition matches a line.
	ErrAmbiguousStep = errors.New("ambiguous step")

	// ErrNetwork is returned when the target could not be reached or timed out.
	ErrNetwork = errors.New("network error")

	// ErrAssertion is returned when a response does not meet an expectation.
	ErrAssertion = errors.New("assertion failed")

	// ErrUnregisteredMock is returned when a mock is resolved without a registration.
	ErrUnregisteredMock = errors.New("unregistered mock")

	// ErrNoResponse is returned when an assertion runs before any request was sent.
	ErrNoResponse = errors.New("no response: send a request before asserting on it")
)

// UndefinedStepError names the line that matched no step definition.
type UndefinedStepError struct {
	Step string
}

func (e *UndefinedStepError) Error() string {
	return fmt.Sprintf("undefined step: %q", e.Step)
}

func (e *UndefinedStepError) Is(target error) bool {
	return target == ErrUndefinedStep
}

// AmbiguousStepError names the line and every pattern that matched it.
type AmbiguousStepError struct {
	Step     string
	Patterns []string
}

func (e *AmbiguousStepError) Error() string {
	return fmt.Sprintf("ambiguous step: %q matches %s", e.Step, strings.Join(quoteAll(e.Patterns), ", "))
}

func (e *AmbiguousStepError) Is(target error) bool {
	return target == ErrAmbiguousStep
}

// NetworkError wraps a transport failure. Non-2xx responses are never NetworkErrors.
type NetworkError struct {
	Method  string
	URL     string
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	kind := "request failed"
	if e.Timeout {
		kind = "request timed out"
	}
	return fmt.Sprintf("%s: %s %s: %v", kind, e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// AssertionFailure carries the expected and actual values of a failed check.
// Subject names what was checked: "status code", a JSON path, or a header.
type AssertionFailure struct {
	Subject  string
	Expected any
	Actual   any
	Message  string
}

func (e *AssertionFailure) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Subject, e.Message)
	}
	return fmt.Sprintf("%s: expected %v, got %v", e.Subject, e.Expected, e.Actual)
}

func (e *AssertionFailure) Is(target error) bool {
	return target == ErrAssertion
}

// UnregisteredMockError names the capability and key that had no registration.
type UnregisteredMockError struct {
	Capability string
	Key        any
}

func (e *UnregisteredMockError) Error() string {
	return fmt.Sprintf("unregistered mock: no value registered for %s(%v)", e.Capability, e.Key)
}

func (e *UnregisteredMockError) Is(target error) bool {
	return target == ErrUnregisteredMock
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
