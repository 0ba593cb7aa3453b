package assert

import "fmt"

// SizePredicate is a comparison applied to an array length.
type SizePredicate struct {
	op string
	n  int
}

// SizeGreaterThan matches lengths strictly greater than n.
func SizeGreaterThan(n int) SizePredicate { return SizePredicate{op: ">", n: n} }

// SizeAtLeast matches lengths greater than or equal to n.
func SizeAtLeast(n int) SizePredicate { return SizePredicate{op: ">=", n: n} }

// SizeEqual matches lengths equal to n.
func SizeEqual(n int) SizePredicate { return SizePredicate{op: "==", n: n} }

// SizeAtMost matches lengths less than or equal to n.
func SizeAtMost(n int) SizePredicate { return SizePredicate{op: "<=", n: n} }

// Test reports whether size satisfies the predicate.
func (p SizePredicate) Test(size int) bool {
	switch p.op {
	case ">":
		return size > p.n
	case ">=":
		return size >= p.n
	case "<=":
		return size <= p.n
	default:
		return size == p.n
	}
}

func (p SizePredicate) String() string {
	if p.op == "" {
		return fmt.Sprintf("== %d", p.n)
	}
	return fmt.Sprintf("%s %d", p.op, p.n)
}
