package ir

// Primitive is a built-in scalar type in the lang.taxi namespace.
type Primitive struct {
	name QualifiedName
	Doc  string
}

func (*Primitive) typeNode() {}

// Name returns the qualified name, e.g. lang.taxi.String.
func (p *Primitive) Name() QualifiedName { return p.name }

func newPrimitive(simple, doc string) *Primitive {
	return &Primitive{name: NewQualifiedName(PrimitiveNamespace, simple), Doc: doc}
}

// The built-in primitives.
var (
	String   = newPrimitive("String", "A collection of characters.")
	Int      = newPrimitive("Int", "A signed integer.")
	Decimal  = newPrimitive("Decimal", "A signed decimal number with exact digits.")
	Double   = newPrimitive("Double", "A signed floating point number.")
	Boolean  = newPrimitive("Boolean", "Represents a value which is either true or false.")
	Instant  = newPrimitive("Instant", "A point in time, with date, time and zone.")
	DateTime = newPrimitive("DateTime", "A date and time, without a zone.")
	Date     = newPrimitive("Date", "A date, without a time or zone.")
	Time     = newPrimitive("Time", "A time of day, without a date or zone.")
	Any      = newPrimitive("Any", "Can be anything. Assignable to and from every type.")
	Void     = newPrimitive("Void", "Nothing. Returned by operations without a result.")
)

// Names of the built-in parameterized types.
var (
	ArrayName  = NewQualifiedName(PrimitiveNamespace, "Array")
	MapName    = NewQualifiedName(PrimitiveNamespace, "Map")
	StreamName = NewQualifiedName(PrimitiveNamespace, "Stream")
)

var primitives = []*Primitive{String, Int, Decimal, Double, Boolean, Instant, DateTime, Date, Time, Any, Void}

// Primitives returns every built-in primitive.
func Primitives() []*Primitive {
	out := make([]*Primitive, len(primitives))
	copy(out, primitives)
	return out
}

// PrimitiveByName finds a primitive by simple or qualified name.
func PrimitiveByName(name string) (*Primitive, bool) {
	for _, p := range primitives {
		if string(p.name) == name || p.name.Simple() == name {
			return p, true
		}
	}
	return nil, false
}

// IsNumeric reports whether p is Int, Decimal or Double.
func (p *Primitive) IsNumeric() bool {
	return p == Int || p == Decimal || p == Double
}

// IsTemporal reports whether p is a date or time primitive.
func (p *Primitive) IsTemporal() bool {
	return p == Instant || p == DateTime || p == Date || p == Time
}

// IsBuiltinGeneric reports whether name is Array, Map or Stream, qualified
// or not.
func IsBuiltinGeneric(name string) bool {
	switch name {
	case "Array", "Map", "Stream", string(ArrayName), string(MapName), string(StreamName):
		return true
	}
	return false
}
