package compiler

import (
	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/symbols"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
)

func (c *Compiler) compileService(scope symbols.Scope, name ir.QualifiedName, d *syntax.ServiceDecl) diag.Result[*ir.Service] {
	var diags diag.List
	svc := &ir.Service{Name: name}
	svc.Doc = d.Doc
	svc.AddUnit(unitOf(d.Pos))

	annotations := c.compileAnnotations(scope, d.Annotations)
	diags.Merge(annotations.Diagnostics())
	svc.Annotations = annotations.Value()

	sites := make([]site, len(d.Operations))
	for i, op := range d.Operations {
		sites[i] = site{name: op.Name, pos: op.Pos}
	}
	diags.Add(duplicateSites("Operation", name, sites)...)

	for i := range d.Operations {
		r := c.compileOperation(scope, name, &d.Operations[i])
		diags.Merge(r.Diagnostics())
		if op, ok := r.Get(); ok {
			svc.Operations = append(svc.Operations, op)
		}
	}
	if diags.HasErrors() {
		return diag.FailList[*ir.Service](diags)
	}
	return diag.OkWith(svc, diags...)
}

// compileOperation compiles one operation. The contract constrains the
// return type and may name the operation's parameters.
func (c *Compiler) compileOperation(scope symbols.Scope, service ir.QualifiedName, d *syntax.OperationDecl) diag.Result[*ir.Operation] {
	var diags diag.List
	opScope, ok := ir.ParseOperationScope(d.Scope)
	if !ok {
		diags.Add(diag.Errorf(diag.StructuralError, d.Pos,
			"Operation %s of %s has unknown scope %s", d.Name, service, d.Scope))
	}
	op := &ir.Operation{Name: d.Name, Scope: opScope, Doc: d.Doc, Unit: unitOf(d.Pos), Return: ir.Void}

	annotations := c.compileAnnotations(scope, d.Annotations)
	diags.Merge(annotations.Diagnostics())
	op.Annotations = annotations.Value()

	params := map[string]*ir.Parameter{}
	ps := c.compileParams(scope, d.Params, params)
	diags.Merge(ps.Diagnostics())
	op.Params = ps.Value()

	if d.Returns != nil {
		r := c.resolveTypeRef(scope, *d.Returns)
		diags.Merge(r.Diagnostics())
		if t, ok := r.Get(); ok {
			op.Return = t
		}
	}
	if d.Contract != nil {
		if d.Returns == nil {
			diags.Add(diag.Errorf(diag.StructuralError, d.Contract.FilterPos(),
				"Operation %s of %s declares a contract but returns nothing", d.Name, service))
		} else if op.Return != ir.Void {
			ctx := filterContext{scope: scope, targets: []ir.Type{op.Return}, params: params}
			r := c.compileFilter(ctx, d.Contract)
			diags.Merge(r.Diagnostics())
			if con, ok := r.Get(); ok {
				op.Contract = []ir.Constraint{con}
			}
		}
	}
	if diags.HasErrors() {
		return diag.FailList[*ir.Operation](diags)
	}
	return diag.OkWith(op, diags...)
}

func (c *Compiler) compilePolicy(scope symbols.Scope, name ir.QualifiedName, d *syntax.PolicyDecl) diag.Result[*ir.Policy] {
	target := c.resolveTypeRef(scope, d.Target)
	if target.Failed() {
		return diag.FailList[*ir.Policy](target.Diagnostics())
	}
	var diags diag.List
	p := &ir.Policy{Name: name, Target: target.Value()}
	p.Doc = d.Doc
	p.AddUnit(unitOf(d.Pos))

	for i := range d.Rules {
		rd := &d.Rules[i]
		rule := &ir.PolicyRule{Scope: rd.Scope}
		for j := range rd.Cases {
			cd := &rd.Cases[j]
			cond := c.compileFilter(filterContext{scope: scope, targets: []ir.Type{p.Target}}, cd.Condition)
			instr := c.compileInstruction(p.Target, &cd.Instruction)
			diags.Merge(diag.Collect(cond, instr))
			if cond.Failed() || instr.Failed() {
				continue
			}
			rule.Cases = append(rule.Cases, &ir.PolicyCase{Condition: cond.Value(), Instruction: instr.Value()})
		}
		if rd.Else != nil {
			instr := c.compileInstruction(p.Target, rd.Else)
			diags.Merge(instr.Diagnostics())
			rule.Else = instr.Value()
		}
		p.Rules = append(p.Rules, rule)
	}
	if diags.HasErrors() {
		return diag.FailList[*ir.Policy](diags)
	}
	return diag.OkWith(p, diags...)
}

// compileInstruction checks the instruction keyword and that every redacted
// attribute exists on the policy target.
func (c *Compiler) compileInstruction(target ir.Type, d *syntax.PolicyInstruction) diag.Result[*ir.Instruction] {
	kind := ir.InstructionKind(d.Kind)
	switch kind {
	case ir.InstructionPermit:
		if len(d.Attributes) > 0 {
			return diag.Fail[*ir.Instruction](diag.Errorf(diag.StructuralError, d.Pos,
				"permit does not take attributes"))
		}
	case ir.InstructionFilter:
	default:
		return diag.Fail[*ir.Instruction](diag.Errorf(diag.StructuralError, d.Pos,
			"Policy instruction %s is not one of permit or filter", d.Kind))
	}
	var diags diag.List
	for _, attr := range d.Attributes {
		diags.Merge(c.lookupField(ir.CollectionMember(target), attr, d.Pos).Diagnostics())
	}
	if diags.HasErrors() {
		return diag.FailList[*ir.Instruction](diags)
	}
	return diag.Ok(&ir.Instruction{Kind: kind, Attributes: d.Attributes})
}

func (c *Compiler) compileDataSource(scope symbols.Scope, name ir.QualifiedName, d *syntax.DataSourceDecl) diag.Result[*ir.DataSource] {
	var diags diag.List
	if d.Kind == "" {
		diags.Add(diag.Errorf(diag.StructuralError, d.Pos, "Data source %s must declare a kind", name))
	}
	target := c.resolveTypeRef(scope, d.Target)
	annotations := c.compileAnnotations(scope, d.Annotations)
	diags.Merge(diag.Collect(target, annotations))

	ds := &ir.DataSource{Name: name, Kind: d.Kind, Target: target.Value()}
	ds.Doc = d.Doc
	ds.Annotations = annotations.Value()
	ds.AddUnit(unitOf(d.Pos))
	for _, p := range d.Params {
		v, _, ld := literalValue(p.Value)
		if ld != nil {
			diags.Add(ld)
			continue
		}
		ds.Params = append(ds.Params, ir.AnnotationArg{Name: p.Name, Value: v})
	}
	if diags.HasErrors() {
		return diag.FailList[*ir.DataSource](diags)
	}
	return diag.OkWith(ds, diags...)
}
