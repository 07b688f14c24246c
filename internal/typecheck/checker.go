package typecheck

import (
	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
)

// Checker applies IsAssignable with a configured strictness.
type Checker struct {
	mode Mode
}

// New creates a checker.
func New(mode Mode) *Checker {
	return &Checker{mode: mode}
}

// Mode returns the configured strictness.
func (c *Checker) Mode() Mode {
	if c == nil {
		return DefaultMode
	}
	return c.mode
}

// AssertAssignable returns nil when value may flow into receiver, or when
// checking is disabled. Otherwise it returns a TypeMismatch diagnostic whose
// severity follows the mode.
func (c *Checker) AssertAssignable(value, receiver ir.Type, pos syntax.Pos) *diag.Diagnostic {
	mode := c.Mode()
	if mode == Disabled || IsAssignable(value, receiver) {
		return nil
	}
	const format = "Type mismatch. Type of %s is not assignable to type %s"
	if mode == Warning {
		return diag.Warningf(diag.TypeMismatch, pos, format, value.Name(), receiver.Name())
	}
	return diag.Errorf(diag.TypeMismatch, pos, format, value.Name(), receiver.Name())
}

// IfAssignable fuses a check with value construction: a failed check in
// Error mode fails the result, a warning travels with the built value, and
// a passing check returns the value.
func IfAssignable[T any](c *Checker, value, receiver ir.Type, pos syntax.Pos, build func() T) diag.Result[T] {
	d := c.AssertAssignable(value, receiver, pos)
	if d == nil {
		return diag.Ok(build())
	}
	if d.IsError() {
		return diag.Fail[T](d)
	}
	return diag.OkWith(build(), d)
}

// IsAssignable reports whether a value of type value may be used where
// receiver is expected.
//
// Rules, in order: Any (or an unknown nil type) on either side passes;
// identity; type parameters accept anything within their bound; union
// receivers accept any member and union values need every member to fit;
// arrays, streams and maps are covariant; inheritance is transitive and
// sees through aliases; a primitive value fits a type whose base primitive
// it is, and a primitive receiver accepts any type based on it.
func IsAssignable(value, receiver ir.Type) bool {
	return isAssignable(value, receiver, 0)
}

const maxAssignDepth = 64

func isAssignable(value, receiver ir.Type, depth int) bool {
	if depth > maxAssignDepth {
		return false
	}
	if ir.IsAny(value) || ir.IsAny(receiver) {
		return true
	}
	if value == receiver {
		return true
	}
	if tp, ok := receiver.(*ir.TypeParameter); ok {
		return tp.Bound == nil || isAssignable(value, tp.Bound, depth+1)
	}
	if _, ok := value.(*ir.TypeParameter); ok {
		return true
	}

	uv, ur := ir.Unwrap(value), ir.Unwrap(receiver)
	if uv == ur {
		return true
	}

	if u, ok := ur.(*ir.UnionType); ok {
		for _, m := range u.Members() {
			if isAssignable(value, m, depth+1) {
				return true
			}
		}
	}
	if u, ok := uv.(*ir.UnionType); ok && len(u.Members()) > 0 {
		all := true
		for _, m := range u.Members() {
			if !isAssignable(m, receiver, depth+1) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}

	switch r := ur.(type) {
	case *ir.ArrayType:
		if v, ok := uv.(*ir.ArrayType); ok {
			return isAssignable(v.Member, r.Member, depth+1)
		}
		return false
	case *ir.StreamType:
		if v, ok := uv.(*ir.StreamType); ok {
			return isAssignable(v.Member, r.Member, depth+1)
		}
		return false
	case *ir.MapType:
		if v, ok := uv.(*ir.MapType); ok {
			return isAssignable(v.Key, r.Key, depth+1) && isAssignable(v.Value, r.Value, depth+1)
		}
		return false
	}
	switch uv.(type) {
	case *ir.ArrayType, *ir.StreamType, *ir.MapType:
		return false
	}

	if ir.InheritsFrom(value, receiver) {
		return true
	}
	if vp, ok := uv.(*ir.Primitive); ok {
		return ir.BasePrimitive(receiver) == vp
	}
	if rp, ok := ur.(*ir.Primitive); ok {
		return ir.BasePrimitive(value) == rp
	}
	return false
}
