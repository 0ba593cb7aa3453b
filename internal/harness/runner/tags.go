package runner

import (
	"fmt"
	"strings"
)

// TagFilter selects scenarios by tag. The expression syntax is the one godog
// accepts on the command line: "&&" joins groups that must all hold, "," joins
// alternatives inside a group and "~" negates a tag.
//
//	@API                 tagged @API
//	@API && ~@slow       tagged @API and not @slow
//	@smoke,@API          tagged @smoke or @API
type TagFilter struct {
	expr   string
	groups [][]tagTerm
}

type tagTerm struct {
	name   string
	negate bool
}

// ParseTagFilter parses expr. An empty expression matches every scenario.
func ParseTagFilter(expr string) (TagFilter, error) {
	f := TagFilter{expr: strings.TrimSpace(expr)}
	if f.expr == "" {
		return f, nil
	}
	for _, group := range strings.Split(f.expr, "&&") {
		var terms []tagTerm
		for _, raw := range strings.Split(group, ",") {
			raw = strings.TrimSpace(raw)
			t := tagTerm{}
			if strings.HasPrefix(raw, "~") {
				t.negate = true
				raw = strings.TrimSpace(raw[1:])
			}
			if !strings.HasPrefix(raw, "@") || len(raw) < 2 || strings.ContainsAny(raw, " \t") {
				return TagFilter{}, fmt.Errorf("invalid tag expression %q: bad tag %q", expr, raw)
			}
			t.name = raw
			terms = append(terms, t)
		}
		f.groups = append(f.groups, terms)
	}
	return f, nil
}

// String returns the expression the filter was parsed from.
func (f TagFilter) String() string {
	return f.expr
}

// Match reports whether tags satisfy the filter.
func (f TagFilter) Match(tags []string) bool {
	has := make(map[string]bool, len(tags))
	for _, t := range tags {
		has[t] = true
	}
	for _, group := range f.groups {
		ok := false
		for _, t := range group {
			if has[t.name] != t.negate {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// Filter returns the scenarios whose tags match, preserving order.
func (f TagFilter) Filter(scenarios []Scenario) []Scenario {
	if len(f.groups) == 0 {
		return scenarios
	}
	out := make([]Scenario, 0, len(scenarios))
	for _, s := range scenarios {
		if f.Match(s.Tags) {
			out = append(out, s)
		}
	}
	return out
}
