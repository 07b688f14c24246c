package ir

import (
	"fmt"
	"strings"
)

// Describe renders a document as a tree of maps, slices, strings, int64 and
// bools suitable for MarshalCanonical. It is the stable external form used
// by golden snapshots, JSON output and document fingerprints.
//
// Empty values are omitted so the description never contains null.
func Describe(doc *Document) map[string]any {
	out := map[string]any{"schemaVersion": SchemaVersion}
	if doc == nil {
		return out
	}
	putList(out, "types", doc.Types(), func(t Type) any { return DescribeType(t) })
	putList(out, "functions", doc.Functions(), func(f *Function) any { return describeFunction(f) })
	putList(out, "services", doc.Services(), func(s *Service) any { return describeService(s) })
	putList(out, "policies", doc.Policies(), func(p *Policy) any { return describePolicy(p) })
	putList(out, "dataSources", doc.DataSources(), func(ds *DataSource) any { return describeDataSource(ds) })
	putList(out, "queries", doc.Queries(), func(q *Query) any { return describeQuery(q) })
	putList(out, "views", doc.Views(), func(v *View) any { return describeView(v) })
	if doc.Synonyms != nil {
		syn := map[string]any{}
		for _, n := range doc.Synonyms.Names() {
			syn[string(n)] = namesToAny(doc.Synonyms.Synonyms(n))
		}
		if len(syn) > 0 {
			out["synonyms"] = syn
		}
	}
	return out
}

// DescribeType renders one type.
func DescribeType(t Type) map[string]any {
	out := map[string]any{"name": string(nameOf(t))}
	switch v := t.(type) {
	case *Primitive:
		out["kind"] = "primitive"
	case *ObjectType:
		out["kind"] = "object"
		describeMeta(out, &v.Meta)
		if def := v.Definition(); def != nil {
			putNames(out, "inherits", def.Inherits)
			putStrings(out, "modifiers", def.Modifiers)
			putStrings(out, "format", def.Format)
			putString(out, "discriminator", def.Discriminator)
			putList(out, "fields", def.Fields, func(f *Field) any { return describeField(f) })
			if def.Expression != nil {
				out["expression"] = FormatExpression(def.Expression)
			}
			if def.Anonymous {
				out["anonymous"] = true
			}
		}
		if p := BasePrimitive(v); p != nil {
			out["basePrimitive"] = string(p.Name())
		}
	case *EnumType:
		out["kind"] = "enum"
		describeMeta(out, &v.Meta)
		if def := v.Definition(); def != nil {
			putNames(out, "inherits", def.Inherits)
			if def.BasePrimitive != nil {
				out["basePrimitive"] = string(def.BasePrimitive.Name())
			}
			if def.Lenient {
				out["lenient"] = true
			}
			putList(out, "values", def.Values, func(ev *EnumValue) any {
				m := map[string]any{"name": ev.Name, "value": FormatValue(ev.Value)}
				putString(m, "doc", ev.Doc)
				putNameList(m, "synonyms", ev.Synonyms)
				if ev.Default {
					m["default"] = true
				}
				return m
			})
		}
	case *TypeAlias:
		out["kind"] = "alias"
		describeMeta(out, &v.Meta)
		if v.Target() != nil {
			out["target"] = string(v.Target().Name())
		}
	case *UnionType:
		out["kind"] = "union"
		describeMeta(out, &v.Meta)
		putNames(out, "members", v.Members())
	case *JoinType:
		out["kind"] = "join"
		describeMeta(out, &v.Meta)
		if v.Left() != nil {
			out["left"] = string(v.Left().Name())
		}
		putNames(out, "rights", v.Rights())
	case *AnnotationType:
		out["kind"] = "annotation"
		describeMeta(out, &v.Meta)
		putList(out, "fields", v.Fields(), func(f *Field) any { return describeField(f) })
	case *ArrayType, *MapType, *StreamType:
		out["kind"] = "parameterized"
	case *TypeParameter:
		out["kind"] = "typeParameter"
		if v.Bound != nil {
			out["bound"] = string(v.Bound.Name())
		}
	}
	return out
}

func describeMeta(out map[string]any, m *Meta) {
	putString(out, "doc", m.Doc)
	putList(out, "annotations", m.Annotations, func(a *Annotation) any { return describeAnnotation(a) })
}

func describeAnnotation(a *Annotation) any {
	m := map[string]any{"name": string(a.Name)}
	if len(a.Params) > 0 {
		params := map[string]any{}
		for _, p := range a.Params {
			params[p.Name] = FormatValue(p.Value)
		}
		m["params"] = params
	}
	return m
}

func describeField(f *Field) map[string]any {
	out := map[string]any{"name": f.Name, "type": string(nameOf(f.Type))}
	if f.Nullable {
		out["nullable"] = true
	}
	putString(out, "doc", f.Doc)
	putStrings(out, "modifiers", f.Modifiers)
	putList(out, "annotations", f.Annotations, func(a *Annotation) any { return describeAnnotation(a) })
	putList(out, "constraints", f.Constraints, func(c Constraint) any { return FormatConstraint(c) })
	if f.Accessor != nil {
		out["accessor"] = FormatAccessor(f.Accessor)
	}
	putString(out, "memberSource", string(f.MemberSource))
	if f.Block != nil && f.Block.Condition != nil {
		out["when"] = FormatExpression(f.Block.Condition)
	}
	return out
}

func describeParam(p *Parameter) any {
	m := map[string]any{"type": string(nameOf(p.Type))}
	putString(m, "name", p.Name)
	if p.Vararg {
		m["vararg"] = true
	}
	if p.Nullable {
		m["nullable"] = true
	}
	putList(m, "constraints", p.Constraints, func(c Constraint) any { return FormatConstraint(c) })
	return m
}

func describeFunction(f *Function) any {
	out := map[string]any{"name": string(f.Name())}
	describeMeta(out, &f.Meta)
	if def := f.Definition(); def != nil {
		putList(out, "typeParams", def.TypeParams, func(tp *TypeParameter) any { return tp.Param })
		putList(out, "params", def.Params, func(p *Parameter) any { return describeParam(p) })
		out["returns"] = string(nameOf(def.Return))
		putStrings(out, "modifiers", def.Modifiers)
	}
	return out
}

func describeService(s *Service) any {
	out := map[string]any{"name": string(s.Name)}
	describeMeta(out, &s.Meta)
	putList(out, "operations", s.Operations, func(op *Operation) any {
		m := map[string]any{"name": op.Name, "returns": string(nameOf(op.Return))}
		putString(m, "scope", string(op.Scope))
		putString(m, "doc", op.Doc)
		putList(m, "params", op.Params, func(p *Parameter) any { return describeParam(p) })
		putList(m, "contract", op.Contract, func(c Constraint) any { return FormatConstraint(c) })
		return m
	})
	return out
}

func describePolicy(p *Policy) any {
	out := map[string]any{"name": string(p.Name), "target": string(nameOf(p.Target))}
	describeMeta(out, &p.Meta)
	putList(out, "rules", p.Rules, func(r *PolicyRule) any {
		m := map[string]any{"scope": r.Scope}
		putList(m, "cases", r.Cases, func(c *PolicyCase) any {
			return map[string]any{
				"condition":   FormatConstraint(c.Condition),
				"instruction": formatInstruction(c.Instruction),
			}
		})
		if r.Else != nil {
			m["else"] = formatInstruction(r.Else)
		}
		return m
	})
	return out
}

func formatInstruction(i *Instruction) string {
	if i == nil {
		return ""
	}
	if len(i.Attributes) > 0 {
		return fmt.Sprintf("%s (%s)", i.Kind, strings.Join(i.Attributes, ", "))
	}
	return string(i.Kind)
}

func describeDataSource(ds *DataSource) any {
	out := map[string]any{"name": string(ds.Name), "kind": ds.Kind, "target": string(nameOf(ds.Target))}
	describeMeta(out, &ds.Meta)
	if len(ds.Params) > 0 {
		params := map[string]any{}
		for _, p := range ds.Params {
			params[p.Name] = FormatValue(p.Value)
		}
		out["params"] = params
	}
	return out
}

func describeQuery(q *Query) any {
	out := map[string]any{"name": string(q.Name), "mode": string(q.Mode)}
	describeMeta(out, &q.Meta)
	putList(out, "params", q.Params, func(p *Parameter) any { return describeParam(p) })
	putList(out, "given", q.Facts, func(f *Fact) any { return describeFact(f) })
	putList(out, "discovery", q.Discovery, func(d *DiscoveryType) any {
		m := map[string]any{"type": string(nameOf(d.Type))}
		putList(m, "constraints", d.Constraints, func(c Constraint) any { return FormatConstraint(c) })
		putList(m, "startingFacts", d.StartingFacts, func(f *Fact) any { return describeFact(f) })
		if d.Anonymous {
			m["anonymous"] = true
			if o, ok := Unwrap(CollectionMember(d.Type)).(*ObjectType); ok {
				m["definition"] = DescribeType(o)
			}
		}
		return m
	})
	if p := q.Projection; p != nil {
		m := map[string]any{"result": string(nameOf(p.Result))}
		if p.Concrete != nil {
			m["concrete"] = string(p.Concrete.Name())
		}
		if p.Anonymous != nil {
			m["anonymous"] = DescribeType(p.Anonymous)
		}
		out["projection"] = m
	}
	return out
}

func describeFact(f *Fact) any {
	return map[string]any{"name": f.Name, "type": string(nameOf(f.Type)), "value": FormatValue(f.Value)}
}

func describeView(v *View) any {
	out := map[string]any{"name": string(v.Name)}
	describeMeta(out, &v.Meta)
	putList(out, "finds", v.Finds, func(f *ViewFind) any {
		m := map[string]any{}
		putNames(m, "types", f.Types)
		putList(m, "joins", f.Joins, func(j *ViewJoin) any {
			return fmt.Sprintf("%s.%s = %s.%s", j.Left.Name(), j.LeftField.Name, j.Right.Name(), j.RightField.Name)
		})
		putList(m, "filter", f.Filter, func(c Constraint) any { return FormatConstraint(c) })
		if f.Projection != nil {
			m["projection"] = DescribeType(f.Projection)
		}
		return m
	})
	return out
}

// FormatExpression renders an expression in source-like form.
func FormatExpression(e Expression) string {
	switch v := e.(type) {
	case nil:
		return ""
	case *LiteralExpression:
		return FormatValue(v.Value)
	case *TypeReferenceExpression:
		return string(nameOf(v.Type))
	case *FunctionCall:
		return fmt.Sprintf("%s(%s)", v.Function.Name(), formatArgs(v.Args))
	case *ExtensionFunctionCall:
		return fmt.Sprintf("%s.%s(%s)", FormatExpression(v.Receiver), v.Function.Name().Simple(), formatArgs(v.Args))
	case *BinaryOperatorExpression:
		return fmt.Sprintf("%s %s %s", formatOperand(v.Left), v.Operator.Symbol(), formatOperand(v.Right))
	case *CastExpression:
		return fmt.Sprintf("(%s) %s", nameOf(v.Type), formatOperand(v.Inner))
	case *FieldReference:
		return v.Selector()
	case *ModelAttributeReference:
		name := ""
		if v.Field != nil {
			name = v.Field.Name
		}
		return fmt.Sprintf("%s::%s", nameOf(v.Source), name)
	case *CollectionProjection:
		return fmt.Sprintf("%s as %s", FormatExpression(v.Source), nameOf(v.Target))
	default:
		return fmt.Sprintf("%T", e)
	}
}

func formatOperand(e Expression) string {
	if _, ok := e.(*BinaryOperatorExpression); ok {
		return "(" + FormatExpression(e) + ")"
	}
	return FormatExpression(e)
}

func formatArgs(args []Expression) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = FormatExpression(a)
	}
	return strings.Join(parts, ", ")
}

// FormatAccessor renders an accessor in source-like form.
func FormatAccessor(a Accessor) string {
	switch v := a.(type) {
	case nil:
		return ""
	case *ColumnAccessor:
		if v.Name != "" {
			return fmt.Sprintf("column(%q)", v.Name)
		}
		return fmt.Sprintf("column(%d)", v.Index)
	case *PathAccessor:
		return fmt.Sprintf("%s(%q)", v.Kind, v.Path)
	case *DefaultAccessor:
		return fmt.Sprintf("default(%s)", FormatValue(v.Value))
	case *ConditionalAccessor:
		parts := make([]string, len(v.Cases))
		for i, c := range v.Cases {
			cond := "else"
			if c.Condition != nil {
				cond = FormatExpression(c.Condition)
			}
			parts[i] = cond + " -> " + FormatExpression(c.Value)
		}
		return "when { " + strings.Join(parts, "; ") + " }"
	case *ExpressionAccessor:
		return FormatExpression(v.Expression)
	default:
		return fmt.Sprintf("%T", a)
	}
}

// FormatConstraint renders a constraint in source-like form.
func FormatConstraint(c Constraint) string {
	switch v := c.(type) {
	case nil:
		return ""
	case *ComparisonConstraint:
		return fmt.Sprintf("%s %s %s", formatConstraintOperand(v.Left), v.Operator.Symbol(), formatConstraintOperand(v.Right))
	case *InListConstraint:
		values := make([]string, len(v.Values))
		for i, val := range v.Values {
			values[i] = FormatValue(val)
		}
		kw := "in"
		if v.Negated {
			kw = "not in"
		}
		return fmt.Sprintf("%s %s [%s]", formatConstraintOperand(v.Subject), kw, strings.Join(values, ", "))
	case *LikeConstraint:
		return fmt.Sprintf("%s like %q", formatConstraintOperand(v.Subject), v.Pattern)
	case *AndConstraint:
		return formatConnective(v.Left, "&&", v.Right)
	case *OrConstraint:
		return formatConnective(v.Left, "||", v.Right)
	default:
		return fmt.Sprintf("%T", c)
	}
}

func formatConnective(left Constraint, op string, right Constraint) string {
	wrap := func(c Constraint) string {
		switch c.(type) {
		case *AndConstraint, *OrConstraint:
			return "(" + FormatConstraint(c) + ")"
		}
		return FormatConstraint(c)
	}
	return wrap(left) + " " + op + " " + wrap(right)
}

func formatConstraintOperand(o ConstraintOperand) string {
	switch v := o.(type) {
	case *PropertyTypeOperand:
		return string(nameOf(v.Type))
	case *PropertyFieldOperand:
		parts := []string{"this"}
		for _, f := range v.Path {
			parts = append(parts, f.Name)
		}
		return strings.Join(parts, ".")
	case *ValueOperand:
		return FormatValue(v.Value)
	case *ParameterOperand:
		return v.Name
	default:
		return fmt.Sprintf("%T", o)
	}
}

func putString(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}

func putStrings(m map[string]any, key string, values []string) {
	if len(values) == 0 {
		return
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	m[key] = out
}

func putNames(m map[string]any, key string, types []Type) {
	if len(types) == 0 {
		return
	}
	out := make([]any, len(types))
	for i, t := range types {
		out[i] = string(nameOf(t))
	}
	m[key] = out
}

func putNameList(m map[string]any, key string, names []QualifiedName) {
	if len(names) == 0 {
		return
	}
	m[key] = namesToAny(names)
}

func namesToAny(names []QualifiedName) []any {
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}

func putList[T any](m map[string]any, key string, items []T, f func(T) any) {
	if len(items) == 0 {
		return
	}
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = f(item)
	}
	m[key] = out
}
