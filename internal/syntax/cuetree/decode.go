package cuetree

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"

	"github.com/taxilang/taxilang-sub000/internal/syntax"
)

// DecodeDocuments decodes every document under a top-level "documents"
// struct, in declaration order, using each label as the document's source
// name. A value without "documents" is decoded as a single document.
//
//	documents: "people.taxi": {
//		namespace: "acme"
//		types: Person: fields: name: "FirstName"
//	}
func DecodeDocuments(v cue.Value) ([]*syntax.Document, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError("documents", err)
	}
	docs := v.LookupPath(cue.ParsePath("documents"))
	if !docs.Exists() {
		doc, err := DecodeDocument(v, "")
		if err != nil {
			return nil, err
		}
		return []*syntax.Document{doc}, nil
	}
	iter, err := docs.Fields()
	if err != nil {
		return nil, formatCUEError("documents", err)
	}
	var out []*syntax.Document
	for iter.Next() {
		doc, err := DecodeDocument(iter.Value(), iter.Label())
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// DecodeDocument decodes one parse tree. source names the document in
// positions; when empty, the "source" field or the CUE file name is used.
//
// The CUE value should be the document struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`namespace: "acme", types: Height: inherits: ["Int"]`)
//	doc, err := DecodeDocument(v, "acme.taxi")
func DecodeDocument(v cue.Value, source string) (*syntax.Document, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError("document", err)
	}
	d := &decoder{source: source}
	if d.source == "" {
		s, err := d.str(v, "source", "document")
		if err != nil {
			return nil, err
		}
		d.source = s
	}
	return d.document(v)
}

type decoder struct {
	source string
}

func (d *decoder) pos(v cue.Value) syntax.Pos {
	p := v.Pos()
	src := d.source
	if src == "" && p.IsValid() {
		src = p.Filename()
	}
	if !p.IsValid() {
		return syntax.Pos{Source: src}
	}
	return syntax.Pos{Source: src, Line: p.Line(), Column: p.Column()}
}

func (d *decoder) errorf(v cue.Value, path, format string, args ...any) error {
	return &DecodeError{Path: path, Message: fmt.Sprintf(format, args...), Pos: v.Pos()}
}

func lookup(v cue.Value, key string) (cue.Value, bool) {
	f := v.LookupPath(cue.MakePath(cue.Str(key)))
	return f, f.Exists()
}

func has(v cue.Value, key string) bool {
	_, ok := lookup(v, key)
	return ok
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func (d *decoder) str(v cue.Value, key, path string) (string, error) {
	f, ok := lookup(v, key)
	if !ok {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(join(path, key), err)
	}
	return s, nil
}

func (d *decoder) boolean(v cue.Value, key, path string) (bool, error) {
	f, ok := lookup(v, key)
	if !ok {
		return false, nil
	}
	b, err := f.Bool()
	if err != nil {
		return false, formatCUEError(join(path, key), err)
	}
	return b, nil
}

func (d *decoder) strs(v cue.Value, key, path string) ([]string, error) {
	var out []string
	err := d.each(v, key, path, func(item cue.Value, p string) error {
		s, err := item.String()
		if err != nil {
			return formatCUEError(p, err)
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

// each calls fn for every element of the list at key, if present.
func (d *decoder) each(v cue.Value, key, path string, fn func(cue.Value, string) error) error {
	f, ok := lookup(v, key)
	if !ok {
		return nil
	}
	path = join(path, key)
	iter, err := f.List()
	if err != nil {
		return formatCUEError(path, err)
	}
	for i := 0; iter.Next(); i++ {
		if err := fn(iter.Value(), fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

// fields calls fn for every field of the struct at key, if present, in
// declaration order.
func (d *decoder) fields(v cue.Value, key, path string, fn func(string, cue.Value, string) error) error {
	f, ok := lookup(v, key)
	if !ok {
		return nil
	}
	path = join(path, key)
	iter, err := f.Fields()
	if err != nil {
		return formatCUEError(path, err)
	}
	for iter.Next() {
		if err := fn(iter.Label(), iter.Value(), join(path, iter.Label())); err != nil {
			return err
		}
	}
	return nil
}

func isString(v cue.Value) bool {
	return v.IncompleteKind() == cue.StringKind
}

func (d *decoder) document(v cue.Value) (*syntax.Document, error) {
	doc := &syntax.Document{Source: d.source}
	var err error
	if doc.Namespace, err = d.str(v, "namespace", ""); err != nil {
		return nil, err
	}
	if err := d.each(v, "imports", "", func(item cue.Value, p string) error {
		name, err := item.String()
		if err != nil {
			return formatCUEError(p, err)
		}
		doc.Imports = append(doc.Imports, syntax.Import{Name: name, Pos: d.pos(item)})
		return nil
	}); err != nil {
		return nil, err
	}

	named := []struct {
		key    string
		decode func(name string, v cue.Value, path string) (syntax.Decl, error)
	}{
		{"types", d.typeDecl},
		{"enums", d.enumDecl},
		{"aliases", d.aliasDecl},
		{"unions", d.unionDecl},
		{"joins", d.joinDecl},
		{"annotationTypes", d.annotationTypeDecl},
		{"functions", d.functionDecl},
		{"services", d.serviceDecl},
		{"policies", d.policyDecl},
		{"dataSources", d.dataSourceDecl},
		{"views", d.viewDecl},
	}
	for _, group := range named {
		if err := d.fields(v, group.key, "", func(name string, item cue.Value, p string) error {
			decl, err := group.decode(name, item, p)
			if err != nil {
				return err
			}
			doc.Decls = append(doc.Decls, decl)
			return nil
		}); err != nil {
			return nil, err
		}
	}
	if err := d.each(v, "queries", "", func(item cue.Value, p string) error {
		q, err := d.queryDecl(item, p)
		if err != nil {
			return err
		}
		doc.Decls = append(doc.Decls, q)
		return nil
	}); err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *decoder) typeRef(v cue.Value, path string) (syntax.TypeRef, error) {
	s, err := v.String()
	if err != nil {
		return syntax.TypeRef{}, formatCUEError(path, err)
	}
	ref, err := syntax.ParseTypeRef(s, d.pos(v))
	if err != nil {
		return syntax.TypeRef{}, d.errorf(v, path, "%v", err)
	}
	return ref, nil
}

func (d *decoder) optTypeRef(v cue.Value, key, path string) (*syntax.TypeRef, error) {
	f, ok := lookup(v, key)
	if !ok {
		return nil, nil
	}
	ref, err := d.typeRef(f, join(path, key))
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (d *decoder) typeRefs(v cue.Value, key, path string) ([]syntax.TypeRef, error) {
	var out []syntax.TypeRef
	err := d.each(v, key, path, func(item cue.Value, p string) error {
		ref, err := d.typeRef(item, p)
		if err != nil {
			return err
		}
		out = append(out, ref)
		return nil
	})
	return out, err
}

func (d *decoder) literal(v cue.Value, path string) (syntax.Literal, error) {
	lit := syntax.Literal{Pos: d.pos(v)}
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return lit, formatCUEError(path, err)
		}
		lit.Kind, lit.Text = syntax.LiteralString, s
	case cue.IntKind, cue.FloatKind:
		text, err := v.MarshalJSON()
		if err != nil {
			return lit, formatCUEError(path, err)
		}
		lit.Kind, lit.Text = syntax.LiteralInt, string(text)
		if v.Kind() == cue.FloatKind {
			lit.Kind = syntax.LiteralDecimal
		}
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return lit, formatCUEError(path, err)
		}
		lit.Kind, lit.Text = syntax.LiteralBool, fmt.Sprint(b)
	case cue.NullKind:
		lit.Kind, lit.Text = syntax.LiteralNull, "null"
	default:
		return lit, d.errorf(v, path, "expected a literal, found %s", v.IncompleteKind())
	}
	return lit, nil
}

func (d *decoder) literalParams(v cue.Value, key, path string) ([]syntax.AnnotationParam, error) {
	var out []syntax.AnnotationParam
	err := d.fields(v, key, path, func(name string, item cue.Value, p string) error {
		lit, err := d.literal(item, p)
		if err != nil {
			return err
		}
		out = append(out, syntax.AnnotationParam{Name: name, Value: lit, Pos: d.pos(item)})
		return nil
	})
	return out, err
}

// annotations decodes ["Id", {name: "Tag", params: {value: "x"}}].
func (d *decoder) annotations(v cue.Value, path string) ([]syntax.Annotation, error) {
	var out []syntax.Annotation
	err := d.each(v, "annotations", path, func(item cue.Value, p string) error {
		a := syntax.Annotation{Pos: d.pos(item)}
		if isString(item) {
			name, err := item.String()
			if err != nil {
				return formatCUEError(p, err)
			}
			a.Name = name
			out = append(out, a)
			return nil
		}
		var err error
		if a.Name, err = d.str(item, "name", p); err != nil {
			return err
		}
		if a.Name == "" {
			return d.errorf(item, p, "annotation name is required")
		}
		if a.Params, err = d.literalParams(item, "params", p); err != nil {
			return err
		}
		out = append(out, a)
		return nil
	})
	return out, err
}

// meta decodes the doc and annotations shared by most declarations.
func (d *decoder) meta(v cue.Value, path string) (string, []syntax.Annotation, error) {
	if isString(v) {
		return "", nil, nil
	}
	doc, err := d.str(v, "doc", path)
	if err != nil {
		return "", nil, err
	}
	anns, err := d.annotations(v, path)
	return doc, anns, err
}

func (d *decoder) typeDecl(name string, v cue.Value, path string) (syntax.Decl, error) {
	decl := &syntax.TypeDecl{Name: name, Pos: d.pos(v)}
	var err error
	if decl.Doc, decl.Annotations, err = d.meta(v, path); err != nil {
		return nil, err
	}
	if decl.Modifiers, err = d.strs(v, "modifiers", path); err != nil {
		return nil, err
	}
	if decl.Inherits, err = d.typeRefs(v, "inherits", path); err != nil {
		return nil, err
	}
	if has(v, "fields") || has(v, "blocks") {
		if decl.Body, err = d.typeBody(v, path); err != nil {
			return nil, err
		}
	}
	if by, ok := lookup(v, "by"); ok {
		if decl.Expr, err = d.expr(by, join(path, "by")); err != nil {
			return nil, err
		}
	}
	if decl.Format, err = d.strs(v, "format", path); err != nil {
		return nil, err
	}
	if decl.Discriminator, err = d.str(v, "discriminator", path); err != nil {
		return nil, err
	}
	return decl, nil
}

func (d *decoder) enumDecl(name string, v cue.Value, path string) (syntax.Decl, error) {
	decl := &syntax.EnumDecl{Name: name, Pos: d.pos(v)}
	var err error
	if decl.Doc, decl.Annotations, err = d.meta(v, path); err != nil {
		return nil, err
	}
	if decl.Inherits, err = d.typeRefs(v, "inherits", path); err != nil {
		return nil, err
	}
	if decl.Lenient, err = d.boolean(v, "lenient", path); err != nil {
		return nil, err
	}
	err = d.each(v, "values", path, func(item cue.Value, p string) error {
		val := syntax.EnumValueDecl{Pos: d.pos(item)}
		if isString(item) {
			s, err := item.String()
			if err != nil {
				return formatCUEError(p, err)
			}
			val.Name = s
			decl.Values = append(decl.Values, val)
			return nil
		}
		var err error
		if val.Name, err = d.str(item, "name", p); err != nil {
			return err
		}
		if val.Doc, val.Annotations, err = d.meta(item, p); err != nil {
			return err
		}
		if lit, ok := lookup(item, "value"); ok {
			l, err := d.literal(lit, join(p, "value"))
			if err != nil {
				return err
			}
			val.Value = &l
		}
		if val.Synonyms, err = d.strs(item, "synonyms", p); err != nil {
			return err
		}
		if val.Default, err = d.boolean(item, "default", p); err != nil {
			return err
		}
		decl.Values = append(decl.Values, val)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decl, nil
}

// aliasDecl accepts the shorthand Name: "Target".
func (d *decoder) aliasDecl(name string, v cue.Value, path string) (syntax.Decl, error) {
	decl := &syntax.AliasDecl{Name: name, Pos: d.pos(v)}
	target := v
	if !isString(v) {
		var err error
		if decl.Doc, decl.Annotations, err = d.meta(v, path); err != nil {
			return nil, err
		}
		var ok bool
		if target, ok = lookup(v, "target"); !ok {
			return nil, d.errorf(v, path, "alias target is required")
		}
		path = join(path, "target")
	}
	ref, err := d.typeRef(target, path)
	if err != nil {
		return nil, err
	}
	decl.Target = ref
	return decl, nil
}

func (d *decoder) unionDecl(name string, v cue.Value, path string) (syntax.Decl, error) {
	decl := &syntax.UnionDecl{Name: name, Pos: d.pos(v)}
	var err error
	if decl.Doc, decl.Annotations, err = d.meta(v, path); err != nil {
		return nil, err
	}
	if decl.Members, err = d.typeRefs(v, "members", path); err != nil {
		return nil, err
	}
	return decl, nil
}

func (d *decoder) joinDecl(name string, v cue.Value, path string) (syntax.Decl, error) {
	decl := &syntax.JoinDecl{Name: name, Pos: d.pos(v)}
	var err error
	if decl.Doc, decl.Annotations, err = d.meta(v, path); err != nil {
		return nil, err
	}
	left, ok := lookup(v, "left")
	if !ok {
		return nil, d.errorf(v, path, "join left type is required")
	}
	if decl.Left, err = d.typeRef(left, join(path, "left")); err != nil {
		return nil, err
	}
	if decl.Rights, err = d.typeRefs(v, "rights", path); err != nil {
		return nil, err
	}
	return decl, nil
}

func (d *decoder) annotationTypeDecl(name string, v cue.Value, path string) (syntax.Decl, error) {
	decl := &syntax.AnnotationTypeDecl{Name: name, Pos: d.pos(v)}
	var err error
	if decl.Doc, decl.Annotations, err = d.meta(v, path); err != nil {
		return nil, err
	}
	if decl.Body, err = d.typeBody(v, path); err != nil {
		return nil, err
	}
	return decl, nil
}

func (d *decoder) functionDecl(name string, v cue.Value, path string) (syntax.Decl, error) {
	decl := &syntax.FunctionDecl{Name: name, Pos: d.pos(v)}
	var err error
	if decl.Doc, err = d.str(v, "doc", path); err != nil {
		return nil, err
	}
	if decl.TypeParams, err = d.strs(v, "typeParams", path); err != nil {
		return nil, err
	}
	if decl.Modifiers, err = d.strs(v, "modifiers", path); err != nil {
		return nil, err
	}
	if decl.Params, err = d.params(v, path); err != nil {
		return nil, err
	}
	ret, err := d.optTypeRef(v, "returns", path)
	if err != nil {
		return nil, err
	}
	if ret != nil {
		decl.Returns = *ret
	}
	return decl, nil
}

func (d *decoder) params(v cue.Value, path string) ([]syntax.ParamDecl, error) {
	var out []syntax.ParamDecl
	err := d.each(v, "params", path, func(item cue.Value, p string) error {
		pd := syntax.ParamDecl{Pos: d.pos(item)}
		var err error
		if pd.Name, err = d.str(item, "name", p); err != nil {
			return err
		}
		t, ok := lookup(item, "type")
		if !ok {
			return d.errorf(item, p, "parameter type is required")
		}
		if pd.Type, err = d.typeRef(t, join(p, "type")); err != nil {
			return err
		}
		if pd.Vararg, err = d.boolean(item, "vararg", p); err != nil {
			return err
		}
		if pd.Nullable, err = d.boolean(item, "nullable", p); err != nil {
			return err
		}
		if pd.Annotations, err = d.annotations(item, p); err != nil {
			return err
		}
		if c, ok := lookup(item, "constraints"); ok {
			if pd.Constraints, err = d.filter(c, join(p, "constraints")); err != nil {
				return err
			}
		}
		out = append(out, pd)
		return nil
	})
	return out, err
}

func (d *decoder) serviceDecl(name string, v cue.Value, path string) (syntax.Decl, error) {
	decl := &syntax.ServiceDecl{Name: name, Pos: d.pos(v)}
	var err error
	if decl.Doc, decl.Annotations, err = d.meta(v, path); err != nil {
		return nil, err
	}
	err = d.each(v, "operations", path, func(item cue.Value, p string) error {
		op := syntax.OperationDecl{Pos: d.pos(item)}
		var err error
		if op.Name, err = d.str(item, "name", p); err != nil {
			return err
		}
		if op.Doc, op.Annotations, err = d.meta(item, p); err != nil {
			return err
		}
		if op.Scope, err = d.str(item, "scope", p); err != nil {
			return err
		}
		if op.Params, err = d.params(item, p); err != nil {
			return err
		}
		if op.Returns, err = d.optTypeRef(item, "returns", p); err != nil {
			return err
		}
		if c, ok := lookup(item, "contract"); ok {
			if op.Contract, err = d.filter(c, join(p, "contract")); err != nil {
				return err
			}
		}
		decl.Operations = append(decl.Operations, op)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decl, nil
}

func (d *decoder) policyDecl(name string, v cue.Value, path string) (syntax.Decl, error) {
	decl := &syntax.PolicyDecl{Name: name, Pos: d.pos(v)}
	var err error
	if decl.Doc, err = d.str(v, "doc", path); err != nil {
		return nil, err
	}
	target, ok := lookup(v, "target")
	if !ok {
		return nil, d.errorf(v, path, "policy target is required")
	}
	if decl.Target, err = d.typeRef(target, join(path, "target")); err != nil {
		return nil, err
	}
	err = d.each(v, "rules", path, func(item cue.Value, p string) error {
		rule := syntax.PolicyRuleDecl{Pos: d.pos(item)}
		var err error
		if rule.Scope, err = d.str(item, "scope", p); err != nil {
			return err
		}
		if err := d.each(item, "cases", p, func(cv cue.Value, cp string) error {
			pc := syntax.PolicyCaseDecl{Pos: d.pos(cv)}
			cond, ok := lookup(cv, "when")
			if !ok {
				return d.errorf(cv, cp, "policy case condition is required")
			}
			var err error
			if pc.Condition, err = d.filter(cond, join(cp, "when")); err != nil {
				return err
			}
			then, ok := lookup(cv, "then")
			if !ok {
				return d.errorf(cv, cp, "policy case instruction is required")
			}
			if pc.Instruction, err = d.instruction(then, join(cp, "then")); err != nil {
				return err
			}
			rule.Cases = append(rule.Cases, pc)
			return nil
		}); err != nil {
			return err
		}
		if e, ok := lookup(item, "else"); ok {
			instr, err := d.instruction(e, join(p, "else"))
			if err != nil {
				return err
			}
			rule.Else = &instr
		}
		decl.Rules = append(decl.Rules, rule)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decl, nil
}

// instruction decodes "permit", "filter" or {filter: ["a", "b"]}.
func (d *decoder) instruction(v cue.Value, path string) (syntax.PolicyInstruction, error) {
	instr := syntax.PolicyInstruction{Pos: d.pos(v)}
	if isString(v) {
		s, err := v.String()
		if err != nil {
			return instr, formatCUEError(path, err)
		}
		instr.Kind = s
		return instr, nil
	}
	if !has(v, "filter") {
		return instr, d.errorf(v, path, "expected permit, filter or {filter: [attributes]}")
	}
	instr.Kind = "filter"
	var err error
	instr.Attributes, err = d.strs(v, "filter", path)
	return instr, err
}

func (d *decoder) dataSourceDecl(name string, v cue.Value, path string) (syntax.Decl, error) {
	decl := &syntax.DataSourceDecl{Name: name, Pos: d.pos(v)}
	var err error
	if decl.Doc, decl.Annotations, err = d.meta(v, path); err != nil {
		return nil, err
	}
	if decl.Kind, err = d.str(v, "kind", path); err != nil {
		return nil, err
	}
	target, ok := lookup(v, "target")
	if !ok {
		return nil, d.errorf(v, path, "data source target is required")
	}
	if decl.Target, err = d.typeRef(target, join(path, "target")); err != nil {
		return nil, err
	}
	if decl.Params, err = d.literalParams(v, "params", path); err != nil {
		return nil, err
	}
	return decl, nil
}

func (d *decoder) queryDecl(v cue.Value, path string) (*syntax.QueryDecl, error) {
	decl := &syntax.QueryDecl{Pos: d.pos(v)}
	var err error
	if decl.Name, err = d.str(v, "name", path); err != nil {
		return nil, err
	}
	if decl.Doc, err = d.str(v, "doc", path); err != nil {
		return nil, err
	}
	if decl.Mode, err = d.str(v, "mode", path); err != nil {
		return nil, err
	}
	if decl.Params, err = d.params(v, path); err != nil {
		return nil, err
	}
	err = d.each(v, "given", path, func(item cue.Value, p string) error {
		g := syntax.GivenDecl{Pos: d.pos(item)}
		var err error
		if g.Name, err = d.str(item, "name", p); err != nil {
			return err
		}
		t, ok := lookup(item, "type")
		if !ok {
			return d.errorf(item, p, "fact type is required")
		}
		if g.Type, err = d.typeRef(t, join(p, "type")); err != nil {
			return err
		}
		val, ok := lookup(item, "value")
		if !ok {
			return d.errorf(item, p, "fact value is required")
		}
		if g.Value, err = d.literal(val, join(p, "value")); err != nil {
			return err
		}
		decl.Given = append(decl.Given, g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = d.each(v, "find", path, func(item cue.Value, p string) error {
		dd := syntax.DiscoveryDecl{Pos: d.pos(item)}
		t := item
		if !isString(item) {
			var ok bool
			if t, ok = lookup(item, "type"); !ok {
				return d.errorf(item, p, "discovery type is required")
			}
			if w, ok := lookup(item, "where"); ok {
				var err error
				if dd.Constraints, err = d.filter(w, join(p, "where")); err != nil {
					return err
				}
			}
		}
		var err error
		if dd.Type, err = d.typeRef(t, p); err != nil {
			return err
		}
		decl.Discovery = append(decl.Discovery, dd)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if body, ok := lookup(v, "findBody"); ok {
		if decl.AnonymousDiscovery, err = d.typeBody(body, join(path, "findBody")); err != nil {
			return nil, err
		}
	}
	if as, ok := lookup(v, "as"); ok {
		if decl.Projection, err = d.projection(as, join(path, "as")); err != nil {
			return nil, err
		}
	}
	return decl, nil
}

// projection decodes "Target[]" or {type?: "Target", fields: {...}, list?: true}.
func (d *decoder) projection(v cue.Value, path string) (*syntax.ProjectionDecl, error) {
	p := &syntax.ProjectionDecl{Pos: d.pos(v)}
	if isString(v) {
		ref, err := d.typeRef(v, path)
		if err != nil {
			return nil, err
		}
		p.Type = &ref
		return p, nil
	}
	var err error
	if p.Type, err = d.optTypeRef(v, "type", path); err != nil {
		return nil, err
	}
	if has(v, "fields") || has(v, "blocks") {
		if p.Body, err = d.typeBody(v, path); err != nil {
			return nil, err
		}
	}
	if p.Collection, err = d.boolean(v, "list", path); err != nil {
		return nil, err
	}
	if p.Type == nil && p.Body == nil {
		return nil, d.errorf(v, path, "projection needs a type or fields")
	}
	return p, nil
}

func (d *decoder) viewDecl(name string, v cue.Value, path string) (syntax.Decl, error) {
	decl := &syntax.ViewDecl{Name: name, Pos: d.pos(v)}
	var err error
	if decl.Doc, decl.Annotations, err = d.meta(v, path); err != nil {
		return nil, err
	}
	err = d.each(v, "finds", path, func(item cue.Value, p string) error {
		f := syntax.ViewFindDecl{Pos: d.pos(item)}
		var err error
		if f.Types, err = d.typeRefs(item, "types", p); err != nil {
			return err
		}
		if w, ok := lookup(item, "where"); ok {
			if f.Filter, err = d.filter(w, join(p, "where")); err != nil {
				return err
			}
		}
		if as, ok := lookup(item, "as"); ok {
			if f.Body, err = d.typeBody(as, join(p, "as")); err != nil {
				return err
			}
		}
		decl.Finds = append(decl.Finds, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decl, nil
}

// typeBody decodes {fields: {...}, blocks: [{fields: {...}, when: expr}]}.
func (d *decoder) typeBody(v cue.Value, path string) (*syntax.TypeBody, error) {
	body := &syntax.TypeBody{Pos: d.pos(v)}
	err := d.fields(v, "fields", path, func(name string, item cue.Value, p string) error {
		fd, err := d.fieldDecl(name, item, p)
		if err != nil {
			return err
		}
		body.Fields = append(body.Fields, fd)
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = d.each(v, "blocks", path, func(item cue.Value, p string) error {
		block := syntax.ConditionalBlock{Pos: d.pos(item)}
		if err := d.fields(item, "fields", p, func(name string, fv cue.Value, fp string) error {
			fd, err := d.fieldDecl(name, fv, fp)
			if err != nil {
				return err
			}
			block.Fields = append(block.Fields, fd)
			return nil
		}); err != nil {
			return err
		}
		if w, ok := lookup(item, "when"); ok {
			var err error
			if block.Condition, err = d.expr(w, join(p, "when")); err != nil {
				return err
			}
		}
		body.Conditionals = append(body.Conditionals, block)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// fieldDecl decodes a field. A bare string is its type.
func (d *decoder) fieldDecl(name string, v cue.Value, path string) (syntax.FieldDecl, error) {
	fd := syntax.FieldDecl{Name: name, Pos: d.pos(v)}
	if isString(v) {
		ref, err := d.typeRef(v, path)
		if err != nil {
			return fd, err
		}
		fd.Type, fd.Nullable = &ref, ref.Nullable
		return fd, nil
	}

	var err error
	if fd.Doc, fd.Annotations, err = d.meta(v, path); err != nil {
		return fd, err
	}
	if fd.Modifiers, err = d.strs(v, "modifiers", path); err != nil {
		return fd, err
	}
	if fd.Type, err = d.optTypeRef(v, "type", path); err != nil {
		return fd, err
	}
	if fd.Nullable, err = d.boolean(v, "nullable", path); err != nil {
		return fd, err
	}
	if fd.Type != nil && fd.Type.Nullable {
		fd.Nullable = true
	}
	if inline, ok := lookup(v, "inline"); ok {
		if fd.Inline, err = d.typeBody(inline, join(path, "inline")); err != nil {
			return fd, err
		}
		if fd.InlineList, err = d.boolean(v, "inlineList", path); err != nil {
			return fd, err
		}
	}
	if attr, ok := lookup(v, "attr"); ok {
		if fd.Attr, err = d.attrRef(attr, join(path, "attr")); err != nil {
			return fd, err
		}
	}
	if by, ok := lookup(v, "by"); ok {
		if fd.Expr, err = d.expr(by, join(path, "by")); err != nil {
			return fd, err
		}
	}
	if fd.Accessor, err = d.accessor(v, path); err != nil {
		return fd, err
	}
	if fd.Accessor != nil && fd.Expr != nil {
		return fd, d.errorf(v, path, "field %s has both an accessor and a by expression", name)
	}
	if c, ok := lookup(v, "constraints"); ok {
		if fd.Constraints, err = d.filter(c, join(path, "constraints")); err != nil {
			return fd, err
		}
	}
	return fd, nil
}

var accessorKeys = []string{"column", "columnName", "jsonPath", "xpath", "default", "when"}

func (d *decoder) accessor(v cue.Value, path string) (syntax.Accessor, error) {
	var found []string
	for _, k := range accessorKeys {
		if has(v, k) {
			found = append(found, k)
		}
	}
	switch {
	case len(found) == 0:
		return nil, nil
	case len(found) == 2 && found[0] == "column" && found[1] == "columnName":
	case len(found) > 1:
		return nil, d.errorf(v, path, "only one accessor may be given, found %s", strings.Join(found, ", "))
	}

	switch found[0] {
	case "column", "columnName":
		a := &syntax.ColumnAccessor{Pos: d.pos(v)}
		if col, ok := lookup(v, "column"); ok {
			n, err := col.Int64()
			if err != nil {
				return nil, formatCUEError(join(path, "column"), err)
			}
			a.Index = int(n)
		}
		var err error
		if a.Name, err = d.str(v, "columnName", path); err != nil {
			return nil, err
		}
		return a, nil
	case "jsonPath", "xpath":
		p, err := d.str(v, found[0], path)
		if err != nil {
			return nil, err
		}
		return &syntax.PathAccessor{Kind: found[0], Path: p, Pos: d.pos(v)}, nil
	case "default":
		f, _ := lookup(v, "default")
		lit, err := d.literal(f, join(path, "default"))
		if err != nil {
			return nil, err
		}
		return &syntax.DefaultAccessor{Value: lit, Pos: d.pos(f)}, nil
	default:
		return d.when(v, path)
	}
}

// when decodes [{when: expr, then: expr}, {then: expr}]; the case without a
// condition is the else branch.
func (d *decoder) when(v cue.Value, path string) (syntax.Accessor, error) {
	f, _ := lookup(v, "when")
	a := &syntax.ConditionalAccessor{Pos: d.pos(f)}
	err := d.each(v, "when", path, func(item cue.Value, p string) error {
		wc := syntax.WhenCase{Pos: d.pos(item)}
		var err error
		if cond, ok := lookup(item, "when"); ok {
			if wc.Condition, err = d.expr(cond, join(p, "when")); err != nil {
				return err
			}
		}
		then, ok := lookup(item, "then")
		if !ok {
			return d.errorf(item, p, "when case value is required")
		}
		if wc.Value, err = d.expr(then, join(p, "then")); err != nil {
			return err
		}
		a.Cases = append(a.Cases, wc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (d *decoder) attrRef(v cue.Value, path string) (*syntax.AttrRefExpr, error) {
	s, err := v.String()
	if err != nil {
		return nil, formatCUEError(path, err)
	}
	source, field, ok := strings.Cut(s, "::")
	if !ok || source == "" || field == "" {
		return nil, d.errorf(v, path, "expected Type::field, found %q", s)
	}
	ref, err := syntax.ParseTypeRef(source, d.pos(v))
	if err != nil {
		return nil, d.errorf(v, path, "%v", err)
	}
	return &syntax.AttrRefExpr{Source: ref, Field: field, Pos: d.pos(v)}, nil
}

// expr decodes an expression node. The node kind is given by which key is
// present: lit, type, call, op, paren, cast, field, attr or project.
func (d *decoder) expr(v cue.Value, path string) (syntax.Expr, error) {
	pos := d.pos(v)
	switch {
	case has(v, "lit"):
		f, _ := lookup(v, "lit")
		lit, err := d.literal(f, join(path, "lit"))
		if err != nil {
			return nil, err
		}
		return &syntax.LiteralExpr{Value: lit, Pos: pos}, nil
	case has(v, "cast"):
		f, _ := lookup(v, "cast")
		ref, err := d.typeRef(f, join(path, "cast"))
		if err != nil {
			return nil, err
		}
		innerV, ok := lookup(v, "expr")
		if !ok {
			return nil, d.errorf(v, path, "cast needs an expr")
		}
		inner, err := d.expr(innerV, join(path, "expr"))
		if err != nil {
			return nil, err
		}
		return &syntax.CastExpr{Type: ref, Inner: inner, Pos: pos}, nil
	case has(v, "type"):
		f, _ := lookup(v, "type")
		ref, err := d.typeRef(f, join(path, "type"))
		if err != nil {
			return nil, err
		}
		return &syntax.TypeRefExpr{Type: ref, Pos: pos}, nil
	case has(v, "call"):
		call := &syntax.CallExpr{Pos: pos}
		var err error
		if call.Name, err = d.str(v, "call", path); err != nil {
			return nil, err
		}
		if err := d.each(v, "args", path, func(item cue.Value, p string) error {
			arg, err := d.expr(item, p)
			if err != nil {
				return err
			}
			call.Args = append(call.Args, arg)
			return nil
		}); err != nil {
			return nil, err
		}
		if on, ok := lookup(v, "on"); ok {
			if call.Receiver, err = d.expr(on, join(path, "on")); err != nil {
				return nil, err
			}
		}
		return call, nil
	case has(v, "op"):
		op, err := d.str(v, "op", path)
		if err != nil {
			return nil, err
		}
		l, lok := lookup(v, "left")
		r, rok := lookup(v, "right")
		if !lok || !rok {
			return nil, d.errorf(v, path, "operator %s needs left and right", op)
		}
		left, err := d.expr(l, join(path, "left"))
		if err != nil {
			return nil, err
		}
		right, err := d.expr(r, join(path, "right"))
		if err != nil {
			return nil, err
		}
		return &syntax.BinaryExpr{Op: op, Left: left, Right: right, Pos: pos}, nil
	case has(v, "paren"):
		f, _ := lookup(v, "paren")
		inner, err := d.expr(f, join(path, "paren"))
		if err != nil {
			return nil, err
		}
		return &syntax.ParenExpr{Inner: inner, Pos: pos}, nil
	case has(v, "field"):
		s, err := d.str(v, "field", path)
		if err != nil {
			return nil, err
		}
		return &syntax.FieldRefExpr{Path: strings.Split(s, "."), Pos: pos}, nil
	case has(v, "attr"):
		f, _ := lookup(v, "attr")
		return d.attrRef(f, join(path, "attr"))
	case has(v, "project"):
		f, _ := lookup(v, "project")
		src, err := d.expr(f, join(path, "project"))
		if err != nil {
			return nil, err
		}
		pe := &syntax.ProjectionExpr{Source: src, Pos: pos}
		if pe.Target, err = d.optTypeRef(v, "as", path); err != nil {
			return nil, err
		}
		if body, ok := lookup(v, "body"); ok {
			if pe.Body, err = d.typeBody(body, join(path, "body")); err != nil {
				return nil, err
			}
		}
		if pe.Target == nil && pe.Body == nil {
			return nil, d.errorf(v, path, "projection needs as or body")
		}
		return pe, nil
	default:
		return nil, d.errorf(v, path, "unrecognised expression")
	}
}

// filter decodes a constraint tree:
//
//	{op: "==", left: operand, right: operand}
//	{subject: operand, anyOf: [...]} / {subject: operand, noneOf: [...]}
//	{subject: operand, like: "pattern"}
//	{and: [f, f, ...]} / {or: [f, f, ...]} / {paren: f}
func (d *decoder) filter(v cue.Value, path string) (syntax.Filter, error) {
	pos := d.pos(v)
	switch {
	case has(v, "and"), has(v, "or"):
		key := "and"
		if has(v, "or") {
			key = "or"
		}
		var parts []syntax.Filter
		if err := d.each(v, key, path, func(item cue.Value, p string) error {
			f, err := d.filter(item, p)
			if err != nil {
				return err
			}
			parts = append(parts, f)
			return nil
		}); err != nil {
			return nil, err
		}
		if len(parts) < 2 {
			return nil, d.errorf(v, path, "%s needs at least two filters", key)
		}
		out := parts[0]
		for _, next := range parts[1:] {
			if key == "and" {
				out = &syntax.AndFilter{Left: out, Right: next, Pos: pos}
			} else {
				out = &syntax.OrFilter{Left: out, Right: next, Pos: pos}
			}
		}
		return out, nil
	case has(v, "paren"):
		f, _ := lookup(v, "paren")
		inner, err := d.filter(f, join(path, "paren"))
		if err != nil {
			return nil, err
		}
		return &syntax.ParenFilter{Inner: inner, Pos: pos}, nil
	case has(v, "op"):
		op, err := d.str(v, "op", path)
		if err != nil {
			return nil, err
		}
		l, lok := lookup(v, "left")
		r, rok := lookup(v, "right")
		if !lok || !rok {
			return nil, d.errorf(v, path, "comparison %s needs left and right", op)
		}
		left, err := d.operand(l, join(path, "left"))
		if err != nil {
			return nil, err
		}
		right, err := d.operand(r, join(path, "right"))
		if err != nil {
			return nil, err
		}
		return &syntax.CompareFilter{Op: op, Left: left, Right: right, Pos: pos}, nil
	case has(v, "subject"):
		s, _ := lookup(v, "subject")
		subject, err := d.operand(s, join(path, "subject"))
		if err != nil {
			return nil, err
		}
		if has(v, "like") {
			pattern, err := d.str(v, "like", path)
			if err != nil {
				return nil, err
			}
			return &syntax.LikeFilter{Subject: subject, Pattern: pattern, Pos: pos}, nil
		}
		key, not := "anyOf", false
		if has(v, "noneOf") {
			key, not = "noneOf", true
		}
		in := &syntax.InFilter{Subject: subject, Not: not, Pos: pos}
		if err := d.each(v, key, path, func(item cue.Value, p string) error {
			lit, err := d.literal(item, p)
			if err != nil {
				return err
			}
			in.Values = append(in.Values, lit)
			return nil
		}); err != nil {
			return nil, err
		}
		return in, nil
	default:
		return nil, d.errorf(v, path, "unrecognised filter")
	}
}

// operand decodes {property: "Type"}, {path: "this.a"}, {value: lit} or
// {param: "name"}.
func (d *decoder) operand(v cue.Value, path string) (syntax.Operand, error) {
	pos := d.pos(v)
	switch {
	case has(v, "property"):
		f, _ := lookup(v, "property")
		ref, err := d.typeRef(f, join(path, "property"))
		if err != nil {
			return nil, err
		}
		return &syntax.PropertyOperand{Type: ref, Pos: pos}, nil
	case has(v, "path"):
		s, err := d.str(v, "path", path)
		if err != nil {
			return nil, err
		}
		return &syntax.FieldOperand{Path: strings.Split(s, "."), Pos: pos}, nil
	case has(v, "value"):
		f, _ := lookup(v, "value")
		lit, err := d.literal(f, join(path, "value"))
		if err != nil {
			return nil, err
		}
		return &syntax.LiteralOperand{Value: lit, Pos: pos}, nil
	case has(v, "param"):
		name, err := d.str(v, "param", path)
		if err != nil {
			return nil, err
		}
		return &syntax.ParamOperand{Name: name, Pos: pos}, nil
	default:
		return nil, d.errorf(v, path, "unrecognised operand")
	}
}
