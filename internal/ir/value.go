package ir

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/cockroachdb/apd/v3"
)

// IRValue is a sealed interface representing typed literal values in a
// compiled document: enum literals, defaults, given facts, constraint
// operands and annotation arguments.
//
// Floats are not representable. Decimal literals keep their exact digits in
// IRDecimal so that canonical encoding (and therefore fingerprints) is
// deterministic.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRNull is the null literal.
type IRNull struct{}

func (IRNull) irValue() {}

// IRString is a string literal.
type IRString string

func (IRString) irValue() {}

// IRInt is an integer literal.
type IRInt int64

func (IRInt) irValue() {}

// IRBool is a boolean literal.
type IRBool bool

func (IRBool) irValue() {}

// IRDecimal is an exact decimal literal.
type IRDecimal struct {
	D *apd.Decimal
}

func (IRDecimal) irValue() {}

// String renders the decimal without exponent.
func (d IRDecimal) String() string {
	if d.D == nil {
		return "0"
	}
	return d.D.Text('f')
}

// TemporalKind is the precision of an IRTemporal.
type TemporalKind int

const (
	TemporalInstant TemporalKind = iota
	TemporalDateTime
	TemporalDate
	TemporalTime
)

// IRTemporal is an instant, local date-time, date or time literal.
type IRTemporal struct {
	Kind TemporalKind
	Time time.Time
}

func (IRTemporal) irValue() {}

// String renders the value in its canonical ISO-8601 form.
func (t IRTemporal) String() string {
	switch t.Kind {
	case TemporalDate:
		return t.Time.Format("2006-01-02")
	case TemporalTime:
		return t.Time.Format("15:04:05")
	case TemporalDateTime:
		return t.Time.Format("2006-01-02T15:04:05")
	default:
		return t.Time.UTC().Format(time.RFC3339Nano)
	}
}

// IRArray is a list of values.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject is a map of string keys to values.
// Use SortedKeys() for deterministic iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// NewIRDecimal parses a finite decimal literal.
func NewIRDecimal(s string) (IRDecimal, error) {
	d, _, err := apd.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return IRDecimal{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	if d.Form != apd.Finite {
		return IRDecimal{}, fmt.Errorf("invalid decimal %q: not a finite number", s)
	}
	return IRDecimal{D: d}, nil
}

// MustIRDecimal is like NewIRDecimal but panics on error.
// Use only in tests or with constant input.
func MustIRDecimal(s string) IRDecimal {
	d, err := NewIRDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FormatValue renders a value the way it would be written in source.
func FormatValue(v IRValue) string {
	switch val := v.(type) {
	case nil, IRNull:
		return "null"
	case IRString:
		return strconv.Quote(string(val))
	case IRInt:
		return strconv.FormatInt(int64(val), 10)
	case IRBool:
		return strconv.FormatBool(bool(val))
	case IRDecimal:
		return val.String()
	case IRTemporal:
		return strconv.Quote(val.String())
	case IRArray:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = FormatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case IRObject:
		keys := val.SortedKeys()
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + FormatValue(val[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ValueKind names the runtime kind of a literal value. It is used when
// checking that in-lists are homogeneous.
func ValueKind(v IRValue) string {
	switch val := v.(type) {
	case nil, IRNull:
		return "Null"
	case IRString:
		return "String"
	case IRInt:
		return "Int"
	case IRBool:
		return "Boolean"
	case IRDecimal:
		return "Decimal"
	case IRTemporal:
		switch val.Kind {
		case TemporalDate:
			return "Date"
		case TemporalTime:
			return "Time"
		case TemporalDateTime:
			return "DateTime"
		default:
			return "Instant"
		}
	case IRArray:
		return "Array"
	case IRObject:
		return "Object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// CRITICAL: Go's sort.Strings uses UTF-8 which produces DIFFERENT order.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings by UTF-16 code units.
func compareKeysRFC8785(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}
