package steps

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"apicheck/internal/harness/domain"
	"apicheck/internal/harness/httpexec"
	"apicheck/internal/harness/scenario"
)

type RegistrySuite struct {
	suite.Suite
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.registry = Default()
}

func (s *RegistrySuite) TestPlaceholderCapture() {
	m, err := s.registry.Resolve(`I send a GET request to "/users" with query parameter "page" as '2'`)
	s.Require().NoError(err)
	s.Equal(`I send a GET request to {string} with query parameter {string} as {string}`, m.Definition.Pattern)
	s.Equal(Args{"/users", "page", "2"}, m.Args)

	m, err = s.registry.Resolve(`I send a GET request to "/users" for user with ID 2`)
	s.Require().NoError(err)
	s.Equal("/users", m.Args.String(0))
	s.Equal(2, m.Args.Int(1))
}

func (s *RegistrySuite) TestEmptyStringCapture() {
	m, err := s.registry.Resolve(`I set the request body with name "" and job "leader"`)
	s.Require().NoError(err)
	s.Equal(Args{"", "leader"}, m.Args)
}

func (s *RegistrySuite) TestUndefinedStep() {
	_, err := s.registry.Resolve("I do something nobody registered")
	s.ErrorIs(err, domain.ErrUndefinedStep)

	var undefined *domain.UndefinedStepError
	s.Require().ErrorAs(err, &undefined)
	s.Equal("I do something nobody registered", undefined.Step)
}

func (s *RegistrySuite) TestIntOutOfRangeIsReported() {
	_, err := s.registry.Resolve("the response status code should be 99999999999999999999")
	s.Require().Error(err)
	s.NotErrorIs(err, domain.ErrUndefinedStep)
	s.ErrorIs(err, strconv.ErrRange)
	s.Contains(err.Error(), "the response status code should be {int}")
}

func (s *RegistrySuite) TestUnquotedStringDoesNotMatch() {
	_, err := s.registry.Resolve("I send a GET request to /users")
	s.ErrorIs(err, domain.ErrUndefinedStep)
}

func (s *RegistrySuite) TestAmbiguousStep() {
	r := NewRegistry()
	noop := func(context.Context, *scenario.Context, Args) error { return nil }
	r.MustAdd(`the value is {int}`, noop)
	r.MustAdd(`the value is 5`, noop)

	_, err := r.Resolve("the value is 5")
	s.ErrorIs(err, domain.ErrAmbiguousStep)

	var ambiguous *domain.AmbiguousStepError
	s.Require().ErrorAs(err, &ambiguous)
	s.ElementsMatch([]string{`the value is {int}`, `the value is 5`}, ambiguous.Patterns)
}

func (s *RegistrySuite) TestAddRejectsDuplicates() {
	r := NewRegistry()
	noop := func(context.Context, *scenario.Context, Args) error { return nil }
	s.NoError(r.Add("a step", noop))
	s.Error(r.Add("a step", noop))
	s.Error(r.Add("another step", nil))
}

func (s *RegistrySuite) TestRegexMetacharactersAreLiteral() {
	r := NewRegistry()
	r.MustAdd(`price is (roughly) {int}.`, func(context.Context, *scenario.Context, Args) error { return nil })

	m, err := r.Resolve("price is (roughly) 10.")
	s.Require().NoError(err)
	s.Equal(10, m.Args.Int(0))

	_, err = r.Resolve("price is roughly 10x")
	s.ErrorIs(err, domain.ErrUndefinedStep)
}

func (s *RegistrySuite) TestBuiltInStepsDoNotOverlap() {
	texts := []string{
		`I set the base URI to "http://localhost"`,
		`I have a request for "users" endpoint`,
		`I send a GET request to "/users"`,
		`I send a GET request to "/users" with query parameter "page" as "2"`,
		`I send a GET request to "/users" for user with ID 2`,
		`I set the request body with name "morpheus" and job "leader"`,
		`I send a POST request to "/users"`,
		`the response status code should be 200`,
		`the response should contain a list of users`,
		`the response should contain user with ID 2 and email "janet.weaver@reqres.in"`,
		`the response should contain name "morpheus" and job "leader"`,
		`the response should contain an ID`,
		`I have a mocked user service returning user with ID 1, email "a@b.c", first name "A", and last name "B"`,
		`I request user with ID 1 from the mocked service`,
		`the mocked user response should contain ID 1, email "a@b.c", first name "A", and last name "B"`,
		`I set the header "X-Trace" to "abc"`,
		`I send a "DELETE" request to "/users/2"`,
		`the response field "data.email" should be "x"`,
		`the response field "data.id" should be 2`,
		`the response field "data" should not be null`,
		`the response field "data" should have 6 items`,
		`the response header "Content-Type" should be "application/json"`,
		`the mocked service should have been called 1 times`,
	}
	for _, text := range texts {
		_, err := s.registry.Resolve(text)
		s.NoError(err, text)
	}
	s.Len(s.registry.Definitions(), len(texts))
}

func (s *RegistrySuite) TestThenWithoutWhen() {
	sc := scenario.New(context.Background(), scenario.Config{}, "no when")
	err := s.registry.Dispatch(context.Background(), sc, "the response status code should be 200")
	s.ErrorIs(err, domain.ErrNoResponse)
}

func (s *RegistrySuite) TestMockedUserSteps() {
	ctx := context.Background()
	sc := scenario.New(ctx, scenario.Config{}, "mocked user")

	for _, text := range []string{
		`I have a mocked user service returning user with ID 1, email "test@example.com", first name "John", and last name "Doe"`,
		`I request user with ID 1 from the mocked service`,
		`the mocked user response should contain ID 1, email "test@example.com", first name "John", and last name "Doe"`,
		`the response status code should be 200`,
		`the mocked service should have been called 1 times`,
	} {
		s.Require().NoError(s.registry.Dispatch(ctx, sc, text), text)
	}

	err := s.registry.Dispatch(ctx, sc, `the mocked user response should contain ID 1, email "other@example.com", first name "John", and last name "Doe"`)
	var failure *domain.AssertionFailure
	s.Require().ErrorAs(err, &failure)
	s.Equal("email", failure.Subject)

	err = s.registry.Dispatch(ctx, sc, `I request user with ID 2 from the mocked service`)
	s.ErrorIs(err, domain.ErrUnregisteredMock)
}

func (s *RegistrySuite) TestHTTPSteps() {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "2" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("{}"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"id":2,"email":"janet.weaver@reqres.in"}}`))
	})
	mux.HandleFunc("POST /api/users", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		body["id"] = "7"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(body)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	ctx := context.Background()
	cfg := scenario.Config{BaseURI: "http://127.0.0.1:1", Executor: httpexec.NewExecutor(time.Second)}

	get := scenario.New(ctx, cfg, "get")
	for _, text := range []string{
		`I set the base URI to "` + server.URL + `/api"`,
		`I have a request for "users" endpoint`,
		`I send a GET request to "/users" for user with ID 2`,
		`the response status code should be 200`,
		`the response should contain user with ID 2 and email "janet.weaver@reqres.in"`,
		`the response field "data.id" should be 2`,
		`the response header "Content-Type" should be "application/json"`,
	} {
		s.Require().NoError(s.registry.Dispatch(ctx, get, text), text)
	}

	post := scenario.New(ctx, cfg, "post")
	for _, text := range []string{
		`I set the base URI to "` + server.URL + `/api"`,
		`I set the request body with name "morpheus" and job "leader"`,
		`I send a POST request to "/users"`,
		`the response status code should be 201`,
		`the response should contain name "morpheus" and job "leader"`,
		`the response should contain an ID`,
	} {
		s.Require().NoError(s.registry.Dispatch(ctx, post, text), text)
	}

	missing := scenario.New(ctx, cfg, "missing")
	missing.SetBaseURI(server.URL + "/api")
	s.Require().NoError(s.registry.Dispatch(ctx, missing, `I send a GET request to "/users" for user with ID 23`))
	err := s.registry.Dispatch(ctx, missing, `the response status code should be 200`)
	var failure *domain.AssertionFailure
	s.Require().ErrorAs(err, &failure)
	s.Equal(200, failure.Expected)
	s.Equal(404, failure.Actual)
}
