// Package steps maps step text to handlers. Patterns are cucumber-style
// expressions with {string} and {int} placeholders, compiled once into
// anchored regular expressions.
package steps

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"apicheck/internal/harness/domain"
	"apicheck/internal/harness/scenario"
)

// Handler runs one step against the scenario state.
type Handler func(ctx context.Context, sc *scenario.Context, args Args) error

type paramKind int

const (
	paramString paramKind = iota
	paramInt
)

var placeholderPattern = regexp.MustCompile(`\{(string|int)\}`)

// Definition is one registered step.
type Definition struct {
	Pattern string
	Handler Handler

	re     *regexp.Regexp
	params []paramKind
}

// Args holds the values captured from step text, in pattern order.
// {string} captures are strings with the quotes removed; {int} captures are ints.
type Args []any

// String returns argument i as a string.
func (a Args) String(i int) string {
	if i < 0 || i >= len(a) {
		return ""
	}
	if s, ok := a[i].(string); ok {
		return s
	}
	return fmt.Sprint(a[i])
}

// Int returns argument i as an int, or 0 if it is not one.
func (a Args) Int(i int) int {
	if i < 0 || i >= len(a) {
		return 0
	}
	n, _ := a[i].(int)
	return n
}

// Match is a resolved step ready to run.
type Match struct {
	Text       string
	Definition *Definition
	Args       Args
}

// Run invokes the matched handler.
func (m Match) Run(ctx context.Context, sc *scenario.Context) error {
	return m.Definition.Handler(ctx, sc, m.Args)
}

// Registry is an ordered table of step definitions. It is read-only once
// populated and safe to share between scenarios.
type Registry struct {
	defs []*Definition
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers handler for pattern.
func (r *Registry) Add(pattern string, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("step %q: nil handler", pattern)
	}
	re, params, err := compile(pattern)
	if err != nil {
		return fmt.Errorf("step %q: %w", pattern, err)
	}
	for _, d := range r.defs {
		if d.Pattern == pattern {
			return fmt.Errorf("step %q: already registered", pattern)
		}
	}
	r.defs = append(r.defs, &Definition{Pattern: pattern, Handler: handler, re: re, params: params})
	return nil
}

// MustAdd is like Add but panics on error. It is meant for static tables.
func (r *Registry) MustAdd(pattern string, handler Handler) {
	if err := r.Add(pattern, handler); err != nil {
		panic(err)
	}
}

// Definitions returns the registered definitions in registration order.
func (r *Registry) Definitions() []*Definition {
	out := make([]*Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Resolve finds the single definition matching text.
func (r *Registry) Resolve(text string) (Match, error) {
	text = strings.TrimSpace(text)
	var (
		found   []*Definition
		matched Args
	)
	for _, d := range r.defs {
		args, ok, err := d.match(text)
		if err != nil {
			return Match{}, err
		}
		if !ok {
			continue
		}
		if len(found) == 0 {
			matched = args
		}
		found = append(found, d)
	}

	switch len(found) {
	case 0:
		return Match{}, &domain.UndefinedStepError{Step: text}
	case 1:
		return Match{Text: text, Definition: found[0], Args: matched}, nil
	default:
		patterns := make([]string, len(found))
		for i, d := range found {
			patterns[i] = d.Pattern
		}
		return Match{}, &domain.AmbiguousStepError{Step: text, Patterns: patterns}
	}
}

// Dispatch resolves text and runs it.
func (r *Registry) Dispatch(ctx context.Context, sc *scenario.Context, text string) error {
	m, err := r.Resolve(text)
	if err != nil {
		return err
	}
	return m.Run(ctx, sc)
}

// match reports whether text matches d. A line that matches but carries an
// {int} outside the int range is an error, not a miss.
func (d *Definition) match(text string) (Args, bool, error) {
	sub := d.re.FindStringSubmatchIndex(text)
	if sub == nil {
		return nil, false, nil
	}
	args := make(Args, 0, len(d.params))
	group := 1
	for _, kind := range d.params {
		switch kind {
		case paramString:
			// double-quoted, then single-quoted alternative
			for alt := 0; alt < 2; alt++ {
				start, end := sub[2*(group+alt)], sub[2*(group+alt)+1]
				if start >= 0 {
					args = append(args, text[start:end])
					break
				}
			}
			group += 2
		case paramInt:
			raw := text[sub[2*group]:sub[2*group+1]]
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, false, fmt.Errorf("step %q: argument %d of %q: %w", text, len(args)+1, d.Pattern, err)
			}
			args = append(args, n)
			group++
		}
	}
	return args, true, nil
}

func compile(pattern string) (*regexp.Regexp, []paramKind, error) {
	var (
		b      strings.Builder
		params []paramKind
		last   int
	)
	b.WriteString("^")
	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(pattern, -1) {
		b.WriteString(regexp.QuoteMeta(pattern[last:loc[0]]))
		switch pattern[loc[2]:loc[3]] {
		case "string":
			b.WriteString(`(?:"([^"]*)"|'([^']*)')`)
			params = append(params, paramString)
		case "int":
			b.WriteString(`(-?\d+)`)
			params = append(params, paramInt)
		}
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(pattern[last:]))
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, nil, err
	}
	return re, params, nil
}
