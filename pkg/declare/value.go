package declare

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// nativeValue converts a cty value into its plain Go counterpart. Numbers
// widen to float64, objects and maps become map[string]any, lists and
// tuples become []any. Null and unknown values become nil.
func nativeValue(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("number out of range: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			nv, err := nativeValue(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, nv)
		}
		return out, nil

	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			nv, err := nativeValue(ev)
			if err != nil {
				return nil, fmt.Errorf("attribute %q: %w", k.AsString(), err)
			}
			out[k.AsString()] = nv
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}

// evalExpr evaluates a literal expression with no variables in scope and
// converts the result. Documents carry data, not programs, so traversals
// and function calls fail here.
func evalExpr(expr hcl.Expression) (any, error) {
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, errors.New(diags.Error())
	}
	return nativeValue(v)
}

// evalString evaluates an expression that must yield a string.
func evalString(expr hcl.Expression) (string, error) {
	v, err := evalExpr(expr)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("want a string, got %T", v)
	}
	return s, nil
}

// evalSlice evaluates an expression into a slice. A scalar or object
// becomes a one-element slice, so `prepend = { ... }` and
// `prepend = [{ ... }]` both work.
func evalSlice(expr hcl.Expression) ([]any, error) {
	v, err := evalExpr(expr)
	if err != nil {
		return nil, err
	}
	switch tv := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return tv, nil
	default:
		return []any{tv}, nil
	}
}
