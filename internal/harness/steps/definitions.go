package steps

import (
	"context"
	"net/http"

	"apicheck/internal/harness/assert"
	"apicheck/internal/harness/domain"
	"apicheck/internal/harness/httpexec"
	"apicheck/internal/harness/scenario"
)

// UserCapability is the mock capability behind the mocked user service steps.
const UserCapability = "getUser"

// User is the value a mocked user service returns.
type User struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Default returns a Registry holding the built-in step table.
func Default() *Registry {
	r := NewRegistry()
	registerRequestSteps(r)
	registerResponseSteps(r)
	registerMockSteps(r)
	return r
}

func registerRequestSteps(r *Registry) {
	r.MustAdd(`I set the base URI to {string}`, func(_ context.Context, sc *scenario.Context, args Args) error {
		sc.SetBaseURI(args.String(0))
		return nil
	})
	r.MustAdd(`I have a request for {string} endpoint`, func(_ context.Context, sc *scenario.Context, _ Args) error {
		sc.NewRequest()
		return nil
	})
	r.MustAdd(`I set the header {string} to {string}`, func(_ context.Context, sc *scenario.Context, args Args) error {
		sc.SetHeader(args.String(0), args.String(1))
		return nil
	})
	r.MustAdd(`I set the request body with name {string} and job {string}`, func(_ context.Context, sc *scenario.Context, args Args) error {
		sc.SetJSONBody(map[string]string{"name": args.String(0), "job": args.String(1)})
		return nil
	})

	r.MustAdd(`I send a GET request to {string}`, func(ctx context.Context, sc *scenario.Context, args Args) error {
		_, err := sc.Send(ctx, http.MethodGet, args.String(0))
		return err
	})
	r.MustAdd(`I send a GET request to {string} with query parameter {string} as {string}`, func(ctx context.Context, sc *scenario.Context, args Args) error {
		sc.AddQueryParam(args.String(1), args.String(2))
		_, err := sc.Send(ctx, http.MethodGet, args.String(0))
		return err
	})
	r.MustAdd(`I send a GET request to {string} for user with ID {int}`, func(ctx context.Context, sc *scenario.Context, args Args) error {
		_, err := sc.Send(ctx, http.MethodGet, httpexec.ResourcePath(args.String(0), args.Int(1)))
		return err
	})
	r.MustAdd(`I send a POST request to {string}`, func(ctx context.Context, sc *scenario.Context, args Args) error {
		_, err := sc.Send(ctx, http.MethodPost, args.String(0))
		return err
	})
	r.MustAdd(`I send a {string} request to {string}`, func(ctx context.Context, sc *scenario.Context, args Args) error {
		_, err := sc.Send(ctx, args.String(0), args.String(1))
		return err
	})
}

func registerResponseSteps(r *Registry) {
	r.MustAdd(`the response status code should be {int}`, then(func(resp *domain.Response, args Args) error {
		return assert.Status(resp, args.Int(0))
	}))
	r.MustAdd(`the response should contain a list of users`, then(func(resp *domain.Response, _ Args) error {
		return assert.All(resp,
			func(r *domain.Response) error { return assert.FieldNotNull(r, "data") },
			func(r *domain.Response) error { return assert.ArraySize(r, "data", assert.SizeGreaterThan(0)) },
			func(r *domain.Response) error { return assert.FieldNotNull(r, "data[0].id") },
			func(r *domain.Response) error { return assert.FieldNotNull(r, "data[0].email") },
		)
	}))
	r.MustAdd(`the response should contain user with ID {int} and email {string}`, then(func(resp *domain.Response, args Args) error {
		return assert.All(resp,
			fieldEquals("data.id", args.Int(0)),
			fieldEquals("data.email", args.String(1)),
		)
	}))
	r.MustAdd(`the response should contain name {string} and job {string}`, then(func(resp *domain.Response, args Args) error {
		return assert.All(resp,
			fieldEquals("name", args.String(0)),
			fieldEquals("job", args.String(1)),
		)
	}))
	r.MustAdd(`the response should contain an ID`, then(func(resp *domain.Response, _ Args) error {
		return assert.FieldNotNull(resp, "id")
	}))

	r.MustAdd(`the response field {string} should be {string}`, then(func(resp *domain.Response, args Args) error {
		return assert.FieldEquals(resp, args.String(0), args.String(1))
	}))
	r.MustAdd(`the response field {string} should be {int}`, then(func(resp *domain.Response, args Args) error {
		return assert.FieldEquals(resp, args.String(0), args.Int(1))
	}))
	r.MustAdd(`the response field {string} should not be null`, then(func(resp *domain.Response, args Args) error {
		return assert.FieldNotNull(resp, args.String(0))
	}))
	r.MustAdd(`the response field {string} should have {int} items`, then(func(resp *domain.Response, args Args) error {
		return assert.ArraySize(resp, args.String(0), assert.SizeEqual(args.Int(1)))
	}))
	r.MustAdd(`the response header {string} should be {string}`, then(func(resp *domain.Response, args Args) error {
		return assert.HeaderEquals(resp, args.String(0), args.String(1))
	}))
}

func registerMockSteps(r *Registry) {
	r.MustAdd(`I have a mocked user service returning user with ID {int}, email {string}, first name {string}, and last name {string}`,
		func(_ context.Context, sc *scenario.Context, args Args) error {
			user := User{ID: args.Int(0), Email: args.String(1), FirstName: args.String(2), LastName: args.String(3)}
			sc.Mocks().Register(UserCapability, user.ID, user)
			return nil
		})
	r.MustAdd(`I request user with ID {int} from the mocked service`, func(ctx context.Context, sc *scenario.Context, args Args) error {
		_, err := sc.Resolve(ctx, UserCapability, args.Int(0))
		return err
	})
	r.MustAdd(`the mocked user response should contain ID {int}, email {string}, first name {string}, and last name {string}`,
		then(func(resp *domain.Response, args Args) error {
			return assert.All(resp,
				fieldEquals("id", args.Int(0)),
				fieldEquals("email", args.String(1)),
				fieldEquals("first_name", args.String(2)),
				fieldEquals("last_name", args.String(3)),
			)
		}))
	r.MustAdd(`the mocked service should have been called {int} times`, func(_ context.Context, sc *scenario.Context, args Args) error {
		if calls := sc.Mocks().Calls(UserCapability); calls != args.Int(0) {
			return &domain.AssertionFailure{Subject: UserCapability + " calls", Expected: args.Int(0), Actual: calls}
		}
		return nil
	})
}

// then adapts a check on the last response into a Handler. Without a prior
// "when" step it fails with domain.ErrNoResponse.
func then(check func(resp *domain.Response, args Args) error) Handler {
	return func(_ context.Context, sc *scenario.Context, args Args) error {
		resp, err := sc.LastResponse()
		if err != nil {
			return err
		}
		return check(resp, args)
	}
}

func fieldEquals(path string, expected any) assert.Check {
	return func(r *domain.Response) error { return assert.FieldEquals(r, path, expected) }
}
