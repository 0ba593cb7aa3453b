// Package httpexec sends RequestSpecs over the network and turns whatever comes
// back into a domain.Response. Only transport failures are errors.
package httpexec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"apicheck/internal/common/logging"
	"apicheck/internal/common/metrics"
	"apicheck/internal/harness/domain"
)

// DefaultTimeout bounds a request when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Executor performs HTTP calls for scenarios. It holds no per-scenario state
// and is safe for concurrent use.
type Executor struct {
	client         *http.Client
	defaultHeaders map[string]string
}

// Option configures an Executor.
type Option func(*Executor)

// WithHTTPClient replaces the underlying client. Its Timeout is kept as is.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Executor) {
		e.client = c
	}
}

// WithDefaultHeaders sets headers sent on every request unless the request sets them itself.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(e *Executor) {
		for k, v := range headers {
			e.defaultHeaders[k] = v
		}
	}
}

// NewExecutor creates an Executor whose requests give up after timeout.
func NewExecutor(timeout time.Duration, opts ...Option) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	e := &Executor{
		client:         &http.Client{Timeout: timeout},
		defaultHeaders: make(map[string]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute sends spec to baseURI joined with spec.Path.
// Non-2xx statuses are returned as responses. Unreachable targets, malformed
// URLs, timeouts and cancellation are returned as *domain.NetworkError.
func (e *Executor) Execute(ctx context.Context, baseURI string, spec domain.RequestSpec) (*domain.Response, error) {
	method := strings.ToUpper(spec.Method)
	if method == "" {
		method = http.MethodGet
	}
	target := JoinURL(baseURI, spec.Path)

	u, err := withQuery(target, spec.Query)
	if err != nil {
		return nil, &domain.NetworkError{Method: method, URL: target, Err: err}
	}

	var body io.Reader
	if spec.Body != nil {
		payload, err := json.Marshal(spec.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	for k, v := range e.defaultHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range spec.Headers {
		req.Header.Set(k, v)
	}
	if spec.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	logging.DebugContext(ctx, "Sending request", "method", method, "url", u, "headers", req.Header)

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		metrics.RecordOutboundRequest(method, "error", time.Since(start))
		return nil, &domain.NetworkError{Method: method, URL: u, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	if err != nil {
		metrics.RecordOutboundRequest(method, "error", duration)
		return nil, &domain.NetworkError{Method: method, URL: u, Timeout: isTimeout(err), Err: err}
	}
	metrics.RecordOutboundRequest(method, strconv.Itoa(resp.StatusCode), duration)

	out := domain.NewResponse(resp.StatusCode, resp.Header, raw, domain.SourceHTTP)
	out.Duration = duration

	logging.DebugContext(ctx, "Received response",
		"method", method,
		"url", u,
		"status", resp.StatusCode,
		"duration", duration,
		"body", string(raw),
	)
	return out, nil
}

// JoinURL concatenates base and path with exactly one slash at the joint.
// An absolute http(s) path is returned unchanged; an empty path yields base.
func JoinURL(base, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// ResourcePath appends an ID segment to path, e.g. ("/users", 2) -> "/users/2".
func ResourcePath(path string, id any) string {
	return strings.TrimRight(path, "/") + "/" + fmt.Sprint(id)
}

func withQuery(target string, query map[string]string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid target URL %q: scheme and host are required", target)
	}
	if len(query) == 0 {
		return u.String(), nil
	}
	q := u.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// LiveHTTP is the network-backed domain.ResponseSource.
type LiveHTTP struct {
	Executor *Executor
	BaseURI  string
	Request  domain.RequestSpec
}

// Respond executes the prepared request.
func (l LiveHTTP) Respond(ctx context.Context) (*domain.Response, error) {
	return l.Executor.Execute(ctx, l.BaseURI, l.Request)
}

var _ domain.ResponseSource = LiveHTTP{}
