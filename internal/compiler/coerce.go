package compiler

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
)

// literalValue converts a source literal to a typed value. Null literals
// have type Any.
func literalValue(lit syntax.Literal) (ir.IRValue, *ir.Primitive, *diag.Diagnostic) {
	switch lit.Kind {
	case syntax.LiteralString:
		return ir.IRString(lit.Text), ir.String, nil
	case syntax.LiteralInt:
		n, err := strconv.ParseInt(strings.TrimSpace(lit.Text), 10, 64)
		if err != nil {
			return nil, nil, diag.Errorf(diag.StructuralError, lit.Pos, "Invalid integer literal %s", lit.Text)
		}
		return ir.IRInt(n), ir.Int, nil
	case syntax.LiteralDecimal:
		d, err := ir.NewIRDecimal(lit.Text)
		if err != nil {
			return nil, nil, diag.Errorf(diag.StructuralError, lit.Pos, "Invalid decimal literal %s", lit.Text)
		}
		return d, ir.Decimal, nil
	case syntax.LiteralBool:
		b, err := strconv.ParseBool(lit.Text)
		if err != nil {
			return nil, nil, diag.Errorf(diag.StructuralError, lit.Pos, "Invalid boolean literal %s", lit.Text)
		}
		return ir.IRBool(b), ir.Boolean, nil
	case syntax.LiteralNull:
		return ir.IRNull{}, ir.Any, nil
	default:
		diag.Defectf(lit.Pos, "unknown literal kind %s", lit.Kind)
		return nil, nil, nil
	}
}

// coerceLiteral converts a literal to the base primitive of target. The
// literal is returned unchanged when target has no base primitive, when
// either side is Any, when the primitives already agree, or when no
// conversion applies.
func coerceLiteral(lit *ir.LiteralExpression, target ir.Type) *ir.LiteralExpression {
	want := ir.BasePrimitive(target)
	have := ir.BasePrimitive(lit.Type)
	if want == nil || want == ir.Any || have == nil || have == ir.Any || want == have {
		return lit
	}
	v, ok := coerceValue(lit.Value, want)
	if !ok {
		return lit
	}
	return &ir.LiteralExpression{Value: v, Type: want}
}

// coerceValue converts v to a value of primitive target.
func coerceValue(v ir.IRValue, target *ir.Primitive) (ir.IRValue, bool) {
	switch val := v.(type) {
	case ir.IRString:
		return coerceString(string(val), target)
	case ir.IRInt:
		switch target {
		case ir.Int:
			return val, true
		case ir.Decimal, ir.Double:
			d, err := ir.NewIRDecimal(strconv.FormatInt(int64(val), 10))
			return d, err == nil
		case ir.String:
			return ir.IRString(strconv.FormatInt(int64(val), 10)), true
		}
	case ir.IRDecimal:
		switch target {
		case ir.Decimal, ir.Double:
			return val, true
		case ir.Int:
			n, err := val.D.Int64()
			return ir.IRInt(n), err == nil
		case ir.String:
			return ir.IRString(val.String()), true
		}
	case ir.IRBool:
		switch target {
		case ir.Boolean:
			return val, true
		case ir.String:
			return ir.IRString(strconv.FormatBool(bool(val))), true
		}
	case ir.IRTemporal:
		if target == ir.String {
			return ir.IRString(val.String()), true
		}
		if target.IsTemporal() && temporalKindOf(target) == val.Kind {
			return val, true
		}
	}
	return nil, false
}

func coerceString(s string, target *ir.Primitive) (ir.IRValue, bool) {
	switch {
	case target == ir.String:
		return ir.IRString(s), true
	case target == ir.Int:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		return ir.IRInt(n), err == nil
	case target == ir.Decimal || target == ir.Double:
		d, err := ir.NewIRDecimal(s)
		return d, err == nil
	case target == ir.Boolean:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		return ir.IRBool(b), err == nil
	case target.IsTemporal():
		return parseTemporal(s, target)
	}
	return nil, false
}

var timeLayouts = []string{"15:04:05.999999999", "15:04:05", "15:04"}

// parseTemporal parses date and time text in the many formats schemas use
// (ISO-8601, RFC 1123, slash dates, epoch millis).
func parseTemporal(s string, target *ir.Primitive) (ir.IRValue, bool) {
	s = strings.TrimSpace(s)
	kind := temporalKindOf(target)
	if kind == ir.TemporalTime {
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return ir.IRTemporal{Kind: kind, Time: t}, true
			}
		}
		return nil, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return nil, false
	}
	return ir.IRTemporal{Kind: kind, Time: t}, true
}

func temporalKindOf(p *ir.Primitive) ir.TemporalKind {
	switch p {
	case ir.Date:
		return ir.TemporalDate
	case ir.Time:
		return ir.TemporalTime
	case ir.DateTime:
		return ir.TemporalDateTime
	default:
		return ir.TemporalInstant
	}
}

// valuePrimitive is the primitive a literal value was parsed as.
func valuePrimitive(v ir.IRValue) *ir.Primitive {
	switch val := v.(type) {
	case ir.IRString:
		return ir.String
	case ir.IRInt:
		return ir.Int
	case ir.IRDecimal:
		return ir.Decimal
	case ir.IRBool:
		return ir.Boolean
	case ir.IRTemporal:
		switch val.Kind {
		case ir.TemporalDate:
			return ir.Date
		case ir.TemporalTime:
			return ir.Time
		case ir.TemporalDateTime:
			return ir.DateTime
		default:
			return ir.Instant
		}
	default:
		return ir.Any
	}
}
