// Package mock holds canned values for named capabilities, scoped to one
// scenario. Registrations are testify expectations and every resolution is a
// recorded call, so a scenario can check how often a capability was used.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	testifymock "github.com/stretchr/testify/mock"

	"apicheck/internal/common/metrics"
	"apicheck/internal/harness/domain"
)

// Registration is one (capability, key) -> value mapping.
type Registration struct {
	Capability string `yaml:"capability"`
	Key        any    `yaml:"key"`
	Value      any    `yaml:"value"`
}

// Provider resolves registered values synchronously. It is not safe for
// concurrent use; each scenario owns its own Provider.
type Provider struct {
	m testifymock.Mock
}

// NewProvider returns an empty Provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Register stores value for (capability, key), replacing any earlier value for the same pair.
func (p *Provider) Register(capability string, key, value any) {
	if call := p.expectation(capability, key); call != nil {
		call.Unset()
	}
	p.m.On(capability, key).Return(value)
}

// RegisterAll registers every entry in order.
func (p *Provider) RegisterAll(regs []Registration) {
	for _, r := range regs {
		p.Register(r.Capability, r.Key, r.Value)
	}
}

// Resolve returns the value registered for (capability, key).
// There is no default: a missing registration is an *domain.UnregisteredMockError.
func (p *Provider) Resolve(capability string, key any) (any, error) {
	if p.expectation(capability, key) == nil {
		metrics.RecordMockResolution(capability, false)
		return nil, &domain.UnregisteredMockError{Capability: capability, Key: key}
	}
	args := p.m.MethodCalled(capability, key)
	metrics.RecordMockResolution(capability, true)
	return args.Get(0), nil
}

// Calls reports how many times capability has been resolved successfully.
func (p *Provider) Calls(capability string) int {
	n := 0
	for _, call := range p.m.Calls {
		if call.Method == capability {
			n++
		}
	}
	return n
}

func (p *Provider) expectation(capability string, key any) *testifymock.Call {
	for _, call := range p.m.ExpectedCalls {
		if call.Method != capability {
			continue
		}
		if _, diffs := call.Arguments.Diff([]any{key}); diffs == 0 {
			return call
		}
	}
	return nil
}

// Registered is the in-memory domain.ResponseSource. The resolved value is
// rendered as a 200 JSON response so assertions cannot tell it from a live one.
type Registered struct {
	Provider   *Provider
	Capability string
	Key        any
}

// Respond resolves the registration. It never touches the network.
func (r Registered) Respond(_ context.Context) (*domain.Response, error) {
	value, err := r.Provider.Resolve(r.Capability, r.Key)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("rendering %s(%v): %w", r.Capability, r.Key, err)
	}
	headers := http.Header{"Content-Type": {"application/json"}}
	return domain.NewResponse(http.StatusOK, headers, raw, domain.SourceMock), nil
}

var _ domain.ResponseSource = Registered{}
