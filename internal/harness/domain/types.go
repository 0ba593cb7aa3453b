package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"time"
)

// Source identifies where a Response came from.
type Source string

const (
	// SourceHTTP marks a response received from the network.
	SourceHTTP Source = "http"
	// SourceMock marks a response rendered from a mock registration.
	SourceMock Source = "mock"
)

// RequestSpec accumulates one HTTP call. Given steps mutate it; the executor only reads it.
type RequestSpec struct {
	Method  string
	Path    string
	Query   map[string]string
	Headers map[string]string
	Body    any // nil means no body
}

// NewRequestSpec returns an empty GET request with initialized maps.
func NewRequestSpec() RequestSpec {
	return RequestSpec{
		Method:  http.MethodGet,
		Query:   make(map[string]string),
		Headers: make(map[string]string),
	}
}

// Clone returns a copy whose maps can be modified without affecting r.
func (r RequestSpec) Clone() RequestSpec {
	c := r
	c.Query = maps.Clone(r.Query)
	c.Headers = maps.Clone(r.Headers)
	if c.Query == nil {
		c.Query = make(map[string]string)
	}
	if c.Headers == nil {
		c.Headers = make(map[string]string)
	}
	return c
}

// Response is immutable once built.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       any // decoded JSON tree; numbers are json.Number
	Raw        []byte
	Source     Source
	Duration   time.Duration

	// DecodeErr is set when Raw is non-empty but not JSON.
	DecodeErr error
}

// NewResponse decodes raw as JSON when possible. An empty body decodes to nil
// without error so status-only checks still work.
func NewResponse(status int, headers http.Header, raw []byte, source Source) *Response {
	if headers == nil {
		headers = make(http.Header)
	}
	resp := &Response{
		StatusCode: status,
		Headers:    headers,
		Raw:        raw,
		Source:     source,
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return resp
	}
	body, err := DecodeJSON(raw)
	if err != nil {
		resp.DecodeErr = err
		return resp
	}
	resp.Body = body
	return resp
}

// DecodeJSON parses a JSON document into a generic tree, keeping numbers as
// json.Number so integers never lose precision.
func DecodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("response body is not valid JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("response body is not valid JSON: trailing data")
	}
	return doc, nil
}

// ResponseSource produces the response a "when" step stores in the scenario.
// Implementations: httpexec.LiveHTTP (network) and mock.Registered (in memory).
type ResponseSource interface {
	Respond(ctx context.Context) (*Response, error)
}
