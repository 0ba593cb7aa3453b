// Package assert evaluates expectations against a domain.Response. Every
// failure is a *domain.AssertionFailure; a missing response is domain.ErrNoResponse.
package assert

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"

	"github.com/shopspring/decimal"

	"apicheck/internal/harness/domain"
)

// Check is one expectation over a response.
type Check func(resp *domain.Response) error

// All runs checks in order and returns the first failure. Later checks are not run.
func All(resp *domain.Response, checks ...Check) error {
	for _, check := range checks {
		if err := check(resp); err != nil {
			return err
		}
	}
	return nil
}

// Status fails unless the response status code equals expected.
func Status(resp *domain.Response, expected int) error {
	if resp == nil {
		return domain.ErrNoResponse
	}
	if resp.StatusCode != expected {
		return &domain.AssertionFailure{Subject: "status code", Expected: expected, Actual: resp.StatusCode}
	}
	return nil
}

// FieldNotNull fails if path does not exist or holds JSON null.
func FieldNotNull(resp *domain.Response, path string) error {
	actual, err := resolve(resp, path)
	if err != nil {
		return err
	}
	if actual == nil {
		return &domain.AssertionFailure{Subject: path, Expected: "not null", Actual: nil}
	}
	return nil
}

// FieldEquals fails if path does not exist or its value differs from expected.
// Numbers compare by exact decimal value regardless of Go type; other kinds never
// equal a number.
func FieldEquals(resp *domain.Response, path string, expected any) error {
	actual, err := resolve(resp, path)
	if err != nil {
		return err
	}
	if !valuesEqual(actual, expected) {
		return &domain.AssertionFailure{Subject: path, Expected: expected, Actual: actual}
	}
	return nil
}

// FieldMatches fails unless the value at path, rendered as text, matches pattern.
func FieldMatches(resp *domain.Response, path, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	actual, err := resolve(resp, path)
	if err != nil {
		return err
	}
	if actual == nil || !re.MatchString(fmt.Sprint(actual)) {
		return &domain.AssertionFailure{Subject: path, Expected: "match " + pattern, Actual: actual}
	}
	return nil
}

// ArraySize fails unless path holds an array whose length satisfies pred.
func ArraySize(resp *domain.Response, path string, pred SizePredicate) error {
	actual, err := resolve(resp, path)
	if err != nil {
		return err
	}
	arr, ok := actual.([]any)
	if !ok {
		return &domain.AssertionFailure{
			Subject: path,
			Message: fmt.Sprintf("expected an array, got %s", describe(actual)),
		}
	}
	if !pred.Test(len(arr)) {
		return &domain.AssertionFailure{Subject: path + " size", Expected: pred.String(), Actual: len(arr)}
	}
	return nil
}

// HeaderEquals fails unless the first value of header name equals expected.
func HeaderEquals(resp *domain.Response, name, expected string) error {
	if resp == nil {
		return domain.ErrNoResponse
	}
	actual := resp.Headers.Get(name)
	if actual != expected {
		return &domain.AssertionFailure{Subject: "header " + name, Expected: expected, Actual: actual}
	}
	return nil
}

// resolve looks up path in the response body, turning every way the lookup can
// fail into an assertion failure.
func resolve(resp *domain.Response, path string) (any, error) {
	if resp == nil {
		return nil, domain.ErrNoResponse
	}
	if resp.DecodeErr != nil {
		return nil, &domain.AssertionFailure{Subject: path, Message: resp.DecodeErr.Error()}
	}
	value, found, err := lookup(resp.Body, path)
	if err != nil {
		return nil, &domain.AssertionFailure{Subject: path, Message: err.Error()}
	}
	if !found {
		return nil, &domain.AssertionFailure{Subject: path, Message: "path does not exist"}
	}
	return value, nil
}

// valuesEqual compares decoded JSON against a Go value.
func valuesEqual(actual, expected any) bool {
	actualNum, aok := toDecimal(actual)
	expectedNum, eok := toDecimal(expected)
	if aok || eok {
		return aok && eok && actualNum.Equal(expectedNum)
	}
	return reflect.DeepEqual(actual, expected)
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt32(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case float64:
		return decimal.NewFromFloat(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case decimal.Decimal:
		return n, true
	default:
		return decimal.Decimal{}, false
	}
}

func describe(v any) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case map[string]any:
		return "an object"
	case json.Number:
		return "a number"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
