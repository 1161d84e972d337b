package pipeline

import (
	"github.com/declarative-dom/ddom-sub003/pkg/item"
)

// Accessor derives a value from one item during stage evaluation.
// The index is the item's position in the stage's input snapshot.
type Accessor func(it any, index int) any

// Operand is one side of a filter criterion or the subject of a sort
// criterion. Exactly one field is set; the shape declares how a value is
// obtained, so a plain string literal is never mistaken for a property
// name.
type Operand struct {
	// Value is a literal.
	Value any

	// Prop names an item property to read.
	Prop string

	// Fn computes the value from the item.
	Fn Accessor
}

// Lit builds a literal operand.
func Lit(v any) Operand {
	return Operand{Value: v}
}

// Prop builds a property-accessor operand.
func Prop(name string) Operand {
	return Operand{Prop: name}
}

// Fn builds a function-accessor operand.
func Fn(fn Accessor) Operand {
	return Operand{Fn: fn}
}

// isZero reports whether the operand was left undeclared.
func (o Operand) isZero() bool {
	return o.Fn == nil && o.Prop == "" && o.Value == nil
}

// resolve produces the operand's value for one item. ok is false when the
// operand reads a property the item does not have; a missing operand fails
// its criterion instead of raising an error.
func (o Operand) resolve(it any, index int) (v any, ok bool) {
	switch {
	case o.Fn != nil:
		return o.Fn(it, index), true
	case o.Prop != "":
		return propOf(it, o.Prop)
	default:
		return o.Value, true
	}
}

// propOf reads a named property from an item-shaped value.
func propOf(v any, name string) (any, bool) {
	switch val := v.(type) {
	case item.Item:
		return val.Get(name)
	case item.Props:
		out, ok := val[name]
		return out, ok
	case map[string]any:
		out, ok := val[name]
		return out, ok
	default:
		return nil, false
	}
}

// truthy reports whether a value counts as true for the logical operators:
// false, nil, zero numbers, and empty strings are false, everything else
// is true.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val != ""
	default:
		if f, ok := item.Number(v); ok {
			return f != 0
		}
		return true
	}
}
