// Package scenario holds the mutable state of one scenario execution. A Context
// is created from a Config at scenario start and never shared, so a base URI
// override or a mock registration cannot leak into another scenario.
package scenario

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"apicheck/internal/common/logging"
	"apicheck/internal/common/types"
	"apicheck/internal/harness/domain"
	"apicheck/internal/harness/httpexec"
	"apicheck/internal/harness/mock"
)

// Config is the read-only run configuration copied into every Context.
type Config struct {
	BaseURI  string
	Executor *httpexec.Executor
	Fixtures []mock.Registration
}

// Context is the per-scenario state. It is not safe for concurrent use.
type Context struct {
	id   types.ScenarioID
	name string

	baseURI  string
	request  domain.RequestSpec
	last     *domain.Response
	executor *httpexec.Executor
	mocks    *mock.Provider
	logger   *slog.Logger
}

// New creates a Context for the named scenario.
func New(ctx context.Context, cfg Config, name string) *Context {
	executor := cfg.Executor
	if executor == nil {
		executor = httpexec.NewExecutor(httpexec.DefaultTimeout)
	}
	mocks := mock.NewProvider()
	mocks.RegisterAll(cfg.Fixtures)

	id := types.NewScenarioID()
	return &Context{
		id:       id,
		name:     name,
		baseURI:  cfg.BaseURI,
		request:  domain.NewRequestSpec(),
		executor: executor,
		mocks:    mocks,
		logger:   logging.FromContext(logging.WithScenario(ctx, id, name)),
	}
}

// ID returns the unique ID of this scenario execution.
func (c *Context) ID() types.ScenarioID {
	return c.id
}

// Name returns the scenario name.
func (c *Context) Name() string {
	return c.name
}

// BaseURI returns the target base URI in effect for this scenario.
func (c *Context) BaseURI() string {
	return c.baseURI
}

// SetBaseURI overrides the base URI for the rest of this scenario only.
// The value is not validated; a malformed URI fails when a request is sent.
func (c *Context) SetBaseURI(uri string) {
	c.baseURI = uri
	c.logger.Debug("Base URI set", "base_uri", uri)
}

// NewRequest discards the pending request and starts an empty one.
func (c *Context) NewRequest() {
	c.request = domain.NewRequestSpec()
	c.logger.Debug("Request initialized")
}

// AddQueryParam sets a query parameter on the pending request.
func (c *Context) AddQueryParam(name, value string) {
	c.request.Query[name] = value
	c.logger.Debug("Query parameter set", "name", name, "value", value)
}

// SetHeader sets a header on the pending request.
func (c *Context) SetHeader(name, value string) {
	c.request.Headers[name] = value
	c.logger.Debug("Header set", "name", name)
}

// SetJSONBody sets a flat JSON object as the pending request body.
func (c *Context) SetJSONBody(fields map[string]string) {
	body := make(map[string]string, len(fields))
	for k, v := range fields {
		body[k] = v
	}
	c.request.Body = body
	c.request.Headers["Content-Type"] = "application/json"
	c.logger.Debug("Request body set", "body", body)
}

// Request returns a copy of the pending request.
func (c *Context) Request() domain.RequestSpec {
	return c.request.Clone()
}

// Send issues the pending request with the given method against path and
// stores the response. The pending request itself is left unchanged.
func (c *Context) Send(ctx context.Context, method, path string) (*domain.Response, error) {
	spec := c.request.Clone()
	spec.Method = strings.ToUpper(method)
	if spec.Method == "" {
		spec.Method = http.MethodGet
	}
	spec.Path = path
	return c.Use(ctx, httpexec.LiveHTTP{Executor: c.executor, BaseURI: c.baseURI, Request: spec})
}

// Resolve answers from the mock registration for (capability, key) and stores the response.
func (c *Context) Resolve(ctx context.Context, capability string, key any) (*domain.Response, error) {
	return c.Use(ctx, mock.Registered{Provider: c.mocks, Capability: capability, Key: key})
}

// Use runs src and stores its response as the last response. On error the last
// response is cleared so no later step can assert against a stale one.
func (c *Context) Use(ctx context.Context, src domain.ResponseSource) (*domain.Response, error) {
	resp, err := src.Respond(ctx)
	if err != nil {
		c.last = nil
		return nil, err
	}
	c.last = resp
	c.logger.Debug("Response stored", "status", resp.StatusCode, "source", resp.Source)
	return resp, nil
}

// LastResponse returns the most recent response, or domain.ErrNoResponse if
// no "when" step has produced one yet.
func (c *Context) LastResponse() (*domain.Response, error) {
	if c.last == nil {
		return nil, domain.ErrNoResponse
	}
	return c.last, nil
}

// Mocks returns the scenario's mock provider.
func (c *Context) Mocks() *mock.Provider {
	return c.mocks
}
