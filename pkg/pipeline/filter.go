package pipeline

import (
	"reflect"
	"strings"

	"github.com/declarative-dom/ddom-sub003/pkg/item"
)

// Operator is one of the closed set of boolean-returning filter operators.
type Operator string

const (
	OpGT         Operator = ">"
	OpLT         Operator = "<"
	OpGTE        Operator = ">="
	OpLTE        Operator = "<="
	OpEQ         Operator = "=="
	OpNEQ        Operator = "!="
	OpStrictEQ   Operator = "==="
	OpStrictNEQ  Operator = "!=="
	OpAnd        Operator = "&&"
	OpOr         Operator = "||"
	OpNot        Operator = "!"
	OpTruthy     Operator = "?"
	OpIncludes   Operator = "includes"
	OpStartsWith Operator = "startsWith"
	OpEndsWith   Operator = "endsWith"
)

// Unary reports whether the operator consults only the left operand.
func (op Operator) Unary() bool {
	return op == OpNot || op == OpTruthy
}

// Valid reports whether the operator is part of the closed set.
func (op Operator) Valid() bool {
	switch op {
	case OpGT, OpLT, OpGTE, OpLTE, OpEQ, OpNEQ, OpStrictEQ, OpStrictNEQ,
		OpAnd, OpOr, OpNot, OpTruthy, OpIncludes, OpStartsWith, OpEndsWith:
		return true
	default:
		return false
	}
}

// FilterCriterion is one condition an item must satisfy. Items pass the
// filter stage iff they satisfy every criterion.
type FilterCriterion struct {
	Left  Operand
	Op    Operator
	Right Operand
}

// applyFilter keeps the items satisfying every criterion.
func applyFilter(criteria []FilterCriterion, src []any) []any {
	if len(criteria) == 0 {
		return src
	}

	out := make([]any, 0, len(src))
	for i, it := range src {
		pass := true
		for _, c := range criteria {
			if !evalCriterion(c, it, i) {
				pass = false
				break
			}
		}
		if pass {
			out = append(out, it)
		}
	}
	return out
}

// evalCriterion evaluates one criterion for one item.
// A missing operand fails the criterion.
func evalCriterion(c FilterCriterion, it any, index int) bool {
	left, ok := c.Left.resolve(it, index)
	if !ok {
		return false
	}

	if c.Op.Unary() {
		switch c.Op {
		case OpNot:
			return !truthy(left)
		default:
			return truthy(left)
		}
	}

	right, ok := c.Right.resolve(it, index)
	if !ok {
		return false
	}

	switch c.Op {
	case OpGT:
		cmp, ok := compareValues(left, right)
		return ok && cmp > 0
	case OpLT:
		cmp, ok := compareValues(left, right)
		return ok && cmp < 0
	case OpGTE:
		cmp, ok := compareValues(left, right)
		return ok && cmp >= 0
	case OpLTE:
		cmp, ok := compareValues(left, right)
		return ok && cmp <= 0
	case OpEQ:
		return item.Equal(left, right)
	case OpNEQ:
		return !item.Equal(left, right)
	case OpStrictEQ:
		return strictEqual(left, right)
	case OpStrictNEQ:
		return !strictEqual(left, right)
	case OpAnd:
		return truthy(left) && truthy(right)
	case OpOr:
		return truthy(left) || truthy(right)
	case OpIncludes:
		return includes(left, right)
	case OpStartsWith:
		ls, lok := left.(string)
		rs, rok := right.(string)
		return lok && rok && strings.HasPrefix(ls, rs)
	case OpEndsWith:
		ls, lok := left.(string)
		rs, rok := right.(string)
		return lok && rok && strings.HasSuffix(ls, rs)
	default:
		return false
	}
}

// compareValues orders two values: numerically when both are numeric,
// lexically when both are strings. ok is false for incomparable pairs.
func compareValues(a, b any) (int, bool) {
	if af, aok := item.Number(a); aok {
		bf, bok := item.Number(b)
		if !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	if as, aok := a.(string); aok {
		bs, bok := b.(string)
		if !bok {
			return 0, false
		}
		return strings.Compare(as, bs), true
	}
	return 0, false
}

// strictEqual requires the same dynamic type in addition to equal values.
func strictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	return item.Equal(a, b)
}

// includes implements membership: substring for strings, element
// containment for slices.
func includes(container, member any) bool {
	switch c := container.(type) {
	case string:
		s, ok := member.(string)
		return ok && strings.Contains(c, s)
	case []any:
		for _, elem := range c {
			if item.Equal(elem, member) {
				return true
			}
		}
		return false
	case []string:
		s, ok := member.(string)
		if !ok {
			return false
		}
		for _, elem := range c {
			if elem == s {
				return true
			}
		}
		return false
	default:
		return false
	}
}
