package ir

// Unwrap follows aliases until it reaches a non-alias type. Alias cycles and
// undefined aliases stop at the last alias seen.
func Unwrap(t Type) Type {
	seen := map[*TypeAlias]bool{}
	for {
		a, ok := t.(*TypeAlias)
		if !ok || a.Target() == nil || seen[a] {
			return t
		}
		seen[a] = true
		t = a.Target()
	}
}

// Supertypes returns the direct parents of t: declared inheritance for
// objects and enums, the target for aliases.
func Supertypes(t Type) []Type {
	switch v := t.(type) {
	case *ObjectType:
		return v.Inherits()
	case *EnumType:
		if v.Definition() == nil {
			return nil
		}
		return v.Definition().Inherits
	case *TypeAlias:
		if v.Target() == nil {
			return nil
		}
		return []Type{v.Target()}
	default:
		return nil
	}
}

// InheritsFrom reports whether t is ancestor or transitively inherits from
// it. Aliases are transparent on both sides.
func InheritsFrom(t, ancestor Type) bool {
	if t == nil || ancestor == nil {
		return false
	}
	target := Unwrap(ancestor)
	seen := map[Type]bool{}
	queue := []Type{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		if cur == ancestor || cur == target || Unwrap(cur) == target {
			return true
		}
		queue = append(queue, Supertypes(cur)...)
	}
	return false
}

// BasePrimitive returns the primitive t ultimately derives from, or nil.
//
// Object types without a primitive supertype fall back to the return type
// of their backing expression.
func BasePrimitive(t Type) *Primitive {
	return basePrimitive(t, map[Type]bool{})
}

func basePrimitive(t Type, seen map[Type]bool) *Primitive {
	if t == nil || seen[t] {
		return nil
	}
	seen[t] = true
	switch v := t.(type) {
	case *Primitive:
		return v
	case *TypeAlias:
		return basePrimitive(v.Target(), seen)
	case *EnumType:
		if v.Definition() != nil && v.Definition().BasePrimitive != nil {
			return v.Definition().BasePrimitive
		}
		for _, parent := range Supertypes(v) {
			if p := basePrimitive(parent, seen); p != nil {
				return p
			}
		}
		return nil
	case *ObjectType:
		for _, parent := range v.Inherits() {
			if p := basePrimitive(parent, seen); p != nil {
				return p
			}
		}
		if expr := v.Expression(); expr != nil {
			return basePrimitive(expr.ReturnType(), seen)
		}
		return nil
	default:
		return nil
	}
}

// IsCollection reports whether t (through aliases) is an array.
func IsCollection(t Type) bool {
	_, ok := Unwrap(t).(*ArrayType)
	return ok
}

// IsCollectionLike reports whether t (through aliases) holds many values:
// an array or a stream.
func IsCollectionLike(t Type) bool {
	switch Unwrap(t).(type) {
	case *ArrayType, *StreamType:
		return true
	default:
		return false
	}
}

// CollectionMember returns the member type of an array or stream, or t
// itself.
func CollectionMember(t Type) Type {
	switch v := Unwrap(t).(type) {
	case *ArrayType:
		return v.Member
	case *StreamType:
		return v.Member
	default:
		return t
	}
}

// IsAny reports whether t is nil or the Any primitive.
func IsAny(t Type) bool {
	return t == nil || Unwrap(t) == Any
}

// ReferencedTypes returns the named types t refers to directly: supertypes,
// field types, alias targets, union and join members, annotation types and
// type references inside backing expressions. Wrapper types are looked
// through. Primitives are not included.
func ReferencedTypes(t Type) []Type {
	c := &refCollector{seen: map[Type]bool{t: true}}
	switch v := t.(type) {
	case *ObjectType:
		c.metadata(&v.Meta)
		for _, parent := range v.Inherits() {
			c.add(parent)
		}
		for _, f := range v.Fields() {
			c.field(f)
		}
		c.expression(v.Expression())
	case *EnumType:
		c.metadata(&v.Meta)
		for _, parent := range Supertypes(v) {
			c.add(parent)
		}
	case *TypeAlias:
		c.metadata(&v.Meta)
		c.add(v.Target())
	case *UnionType:
		c.metadata(&v.Meta)
		for _, m := range v.Members() {
			c.add(m)
		}
	case *JoinType:
		c.metadata(&v.Meta)
		c.add(v.Left())
		for _, r := range v.Rights() {
			c.add(r)
		}
	case *AnnotationType:
		for _, f := range v.Fields() {
			c.field(f)
		}
	default:
		c.add(t)
	}
	return c.out
}

type refCollector struct {
	seen map[Type]bool
	out  []Type
}

func (c *refCollector) add(t Type) {
	switch v := t.(type) {
	case nil, *Primitive, *TypeParameter:
		return
	case *ArrayType:
		c.add(v.Member)
	case *StreamType:
		c.add(v.Member)
	case *MapType:
		c.add(v.Key)
		c.add(v.Value)
	default:
		if c.seen[t] {
			return
		}
		c.seen[t] = true
		c.out = append(c.out, t)
	}
}

func (c *refCollector) metadata(m *Meta) {
	for _, a := range m.Annotations {
		if a.Type != nil {
			c.add(a.Type)
		}
	}
}

func (c *refCollector) field(f *Field) {
	c.add(f.Type)
	for _, a := range f.Annotations {
		if a.Type != nil {
			c.add(a.Type)
		}
	}
	if expr := f.Expression(); expr != nil {
		c.expression(expr)
	}
}

func (c *refCollector) expression(e Expression) {
	WalkExpression(e, func(e Expression) {
		switch v := e.(type) {
		case *TypeReferenceExpression:
			c.add(v.Type)
		case *CastExpression:
			c.add(v.Type)
		}
	})
}
