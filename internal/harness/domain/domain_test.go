package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DomainSuite struct {
	suite.Suite
}

func TestDomainSuite(t *testing.T) {
	suite.Run(t, new(DomainSuite))
}

func (s *DomainSuite) TestErrorKinds() {
	s.Run("each typed error matches its own sentinel only", func() {
		cases := []struct {
			err      error
			sentinel error
		}{
			{&UndefinedStepError{Step: "I dance"}, ErrUndefinedStep},
			{&AmbiguousStepError{Step: "x", Patterns: []string{"a", "b"}}, ErrAmbiguousStep},
			{&NetworkError{Method: "GET", URL: "http://x", Err: errors.New("refused")}, ErrNetwork},
			{&AssertionFailure{Subject: "status code", Expected: 200, Actual: 404}, ErrAssertion},
			{&UnregisteredMockError{Capability: "getUser", Key: 99}, ErrUnregisteredMock},
		}
		all := []error{ErrUndefinedStep, ErrAmbiguousStep, ErrNetwork, ErrAssertion, ErrUnregisteredMock, ErrNoResponse}
		for _, c := range cases {
			for _, sentinel := range all {
				s.Equal(sentinel == c.sentinel, errors.Is(c.err, sentinel), "%T vs %v", c.err, sentinel)
			}
		}
	})

	s.Run("wrapped errors stay matchable", func() {
		wrapped := fmt.Errorf("step 3: %w", &AssertionFailure{Subject: "id", Expected: 7, Actual: 8})
		var failure *AssertionFailure
		s.Require().True(errors.As(wrapped, &failure))
		s.Equal(7, failure.Expected)
		s.Equal(8, failure.Actual)
		s.True(errors.Is(wrapped, ErrAssertion))
	})

	s.Run("network error unwraps to its cause", func() {
		cause := errors.New("connection refused")
		err := &NetworkError{Method: "GET", URL: "http://localhost:1", Err: cause}
		s.ErrorIs(err, cause)
		s.Contains(err.Error(), "request failed")
		s.Contains((&NetworkError{Timeout: true, Err: cause}).Error(), "timed out")
	})

	s.Run("messages", func() {
		s.Equal(`undefined step: "I dance"`, (&UndefinedStepError{Step: "I dance"}).Error())
		s.Equal("status code: expected 200, got 404",
			(&AssertionFailure{Subject: "status code", Expected: 200, Actual: 404}).Error())
		s.Equal("data: path does not exist",
			(&AssertionFailure{Subject: "data", Message: "path does not exist"}).Error())
		s.Contains((&UnregisteredMockError{Capability: "getUser", Key: 99}).Error(), "getUser(99)")
	})
}

func (s *DomainSuite) TestNewResponse() {
	s.Run("decodes JSON with exact numbers", func() {
		resp := NewResponse(http.StatusOK, nil, []byte(`{"id": 9007199254740993}`), SourceHTTP)
		s.Require().NoError(resp.DecodeErr)
		body := resp.Body.(map[string]any)
		s.Equal(json.Number("9007199254740993"), body["id"])
		s.NotNil(resp.Headers)
	})

	s.Run("empty body is not an error", func() {
		resp := NewResponse(http.StatusNoContent, nil, nil, SourceHTTP)
		s.NoError(resp.DecodeErr)
		s.Nil(resp.Body)
	})

	s.Run("non JSON body keeps raw bytes", func() {
		resp := NewResponse(http.StatusOK, nil, []byte("<html></html>"), SourceHTTP)
		s.Error(resp.DecodeErr)
		s.Equal("<html></html>", string(resp.Raw))
	})

	s.Run("trailing data is rejected", func() {
		_, err := DecodeJSON([]byte(`{} {}`))
		s.Error(err)
	})
}

func (s *DomainSuite) TestRequestSpecClone() {
	orig := NewRequestSpec()
	orig.Query["page"] = "2"

	c := orig.Clone()
	c.Query["page"] = "3"
	c.Headers["X-Test"] = "1"

	s.Equal("2", orig.Query["page"])
	s.Empty(orig.Headers)
	s.Equal(http.MethodGet, c.Method)
}
