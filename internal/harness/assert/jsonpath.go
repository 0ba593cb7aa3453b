package assert

import (
	"fmt"
	"strconv"
	"strings"
)

// lookup resolves a dotted/bracketed path such as "data[0].email" against a
// decoded JSON tree. A leading "$" or "$." is accepted and ignored.
//
// A field segment applied to an array collects that field from every element,
// so "data.id" on a list of users yields the list of ids. Elements without the
// field contribute nil.
//
// found is false when any segment does not exist; err is reserved for paths
// that cannot be parsed.
func lookup(doc any, path string) (value any, found bool, err error) {
	rest := strings.TrimPrefix(path, "$")
	rest = strings.TrimPrefix(rest, ".")
	if rest == "" {
		return doc, true, nil
	}

	segments, err := splitPath(rest)
	if err != nil {
		return nil, false, err
	}

	current := doc
	for _, seg := range segments {
		if seg.field != "" {
			next, ok := field(current, seg.field)
			if !ok {
				return nil, false, nil
			}
			current = next
		}
		for _, idx := range seg.indexes {
			arr, ok := current.([]any)
			if !ok || idx < 0 || idx >= len(arr) {
				return nil, false, nil
			}
			current = arr[idx]
		}
	}
	return current, true, nil
}

type segment struct {
	field   string
	indexes []int
}

// splitPath splits "a.b[0][1].c" into {a} {b [0 1]} {c}.
func splitPath(path string) ([]segment, error) {
	var segments []segment
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return nil, fmt.Errorf("invalid path %q: empty segment", path)
		}
		seg := segment{}
		open := strings.IndexByte(part, '[')
		if open < 0 {
			seg.field = part
			segments = append(segments, seg)
			continue
		}
		seg.field = part[:open]
		brackets := part[open:]
		for brackets != "" {
			if brackets[0] != '[' {
				return nil, fmt.Errorf("invalid path %q: unexpected %q", path, brackets)
			}
			end := strings.IndexByte(brackets, ']')
			if end < 0 {
				return nil, fmt.Errorf("invalid path %q: unclosed bracket", path)
			}
			idx, err := strconv.Atoi(brackets[1:end])
			if err != nil {
				return nil, fmt.Errorf("invalid array index in %q: %w", path, err)
			}
			seg.indexes = append(seg.indexes, idx)
			brackets = brackets[end+1:]
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func field(doc any, name string) (any, bool) {
	switch v := doc.(type) {
	case map[string]any:
		val, ok := v[name]
		return val, ok
	case []any:
		out := make([]any, 0, len(v))
		for _, elem := range v {
			val, _ := field(elem, name)
			out = append(out, val)
		}
		return out, true
	default:
		return nil, false
	}
}
