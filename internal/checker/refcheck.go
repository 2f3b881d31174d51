// Package checker implements the two semantic passes that walk a parsed
// file against its symbol table: reference checking and enum-value
// validation.
package checker

import (
	"fmt"
	"sort"

	"github.com/oxhq/allium/internal/ast"
	"github.com/oxhq/allium/internal/diag"
	"github.com/oxhq/allium/internal/symtab"
	"github.com/oxhq/allium/internal/token"
)

// refChecker walks the AST verifying that every name in use resolves to a
// declared type, a bound variable, or a builtin. It maintains a single
// mutable bound-variable set whose lifetime tracks the scope under
// examination — cleared at the start of each rule and at the start of
// each entity's projection/derived phase.
type refChecker struct {
	file  string
	st    *symtab.Table
	bound map[string]bool
	diags []diag.Diagnostic
}

// CheckReferences verifies every name used in f resolves, returning one
// diagnostic per unresolved reference in walk order.
func CheckReferences(file string, f *ast.File, st *symtab.Table) []diag.Diagnostic {
	c := &refChecker{file: file, st: st, bound: map[string]bool{}}

	for _, ext := range f.Externals {
		for _, fld := range ext.Fields {
			c.resolveType(fld.Type, fld.Loc)
		}
	}
	for _, v := range f.Values {
		for _, fld := range v.Fields {
			c.resolveType(fld.Type, fld.Loc)
		}
	}
	for _, e := range f.Entities {
		c.checkEntity(e)
	}
	for _, r := range f.Rules {
		c.checkRule(r)
	}

	return c.diags
}

func (c *refChecker) typeNames() []string {
	names := make([]string, 0, len(c.st.Types))
	for n := range c.st.Types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (c *refChecker) boundNames() []string {
	names := make([]string, 0, len(c.bound))
	for n := range c.bound {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (c *refChecker) emit(loc token.Loc, message string, pool []string, name string) {
	d := diag.Diagnostic{File: c.file, Line: loc.Line, Col: loc.Col, Message: message}
	if sugg, ok := diag.Suggest(name, pool, diag.DefaultThreshold); ok {
		d.Suggestion = sugg
	}
	c.diags = append(c.diags, d)
}

// --- entity check ---

func (c *refChecker) checkEntity(e *ast.Entity) {
	for _, fld := range e.Fields {
		c.resolveType(fld.Type, fld.Loc)
	}
	for _, rel := range e.Relationships {
		if _, ok := c.st.Types[rel.Target]; !ok {
			c.emit(rel.TargetLoc, fmt.Sprintf("undefined entity '%s'", rel.Target), c.typeNames(), rel.Target)
		}
	}

	ti := c.st.Types[e.Name]

	for _, proj := range e.Projections {
		if ti == nil || ti.Relationships[proj.Source] == nil {
			c.emit(proj.Loc, fmt.Sprintf("undefined relationship '%s'", proj.Source), c.relationshipNames(ti), proj.Source)
		}
	}

	// Projection/derived phase: clear bound set, add this entity's
	// members, check every projection filter and derived expression,
	// then clear on exit.
	c.bound = map[string]bool{}
	if ti != nil {
		for name := range ti.GetAllMembers() {
			c.bound[name] = true
		}
	}
	for _, proj := range e.Projections {
		c.checkExpr(proj.Filter, false)
	}
	for _, d := range e.Derived {
		c.checkExpr(d.Expr, false)
	}
	c.bound = map[string]bool{}
}

func (c *refChecker) relationshipNames(ti *symtab.TypeInfo) []string {
	if ti == nil {
		return nil
	}
	names := make([]string, 0, len(ti.Relationships))
	for n := range ti.Relationships {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (c *refChecker) fieldNames(ti *symtab.TypeInfo) []string {
	if ti == nil {
		return nil
	}
	names := make([]string, 0, len(ti.Fields))
	for n := range ti.Fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// resolveType validates a field's type expression. primitive and enum are
// always valid; a bare entity-ref must be a declared type, diagnosed at
// the type expression's own location (spec §8 example 2: the diagnostic
// points at the invalid type name itself). Wrapper types (optional/set/
// list) delegate to their inner type via resolveWrappedType, which uses
// the containing field's location for any diagnostic instead (spec §4.4:
// "Wrapper types ... delegate to their inner type, using the containing
// field's location for any diagnostic").
func (c *refChecker) resolveType(t *ast.TypeExpr, fieldLoc token.Loc) {
	if t == nil {
		return
	}
	switch t.Kind {
	case ast.TypePrimitive, ast.TypeEnum:
		// always valid
	case ast.TypeEntityRef:
		if _, ok := c.st.Types[t.Name]; !ok {
			c.emit(t.Loc, fmt.Sprintf("undefined type '%s'", t.Name), c.typeNames(), t.Name)
		}
	case ast.TypeOptional, ast.TypeSet, ast.TypeList:
		c.resolveWrappedType(t.Inner, fieldLoc)
	}
}

// resolveWrappedType validates a type expression reached through at least
// one optional/set/list wrapper, emitting any diagnostic at fieldLoc — the
// containing field's own location — rather than the inner type's.
func (c *refChecker) resolveWrappedType(t *ast.TypeExpr, fieldLoc token.Loc) {
	if t == nil {
		return
	}
	switch t.Kind {
	case ast.TypePrimitive, ast.TypeEnum:
		// always valid
	case ast.TypeEntityRef:
		if _, ok := c.st.Types[t.Name]; !ok {
			c.emit(fieldLoc, fmt.Sprintf("undefined type '%s'", t.Name), c.typeNames(), t.Name)
		}
	case ast.TypeOptional, ast.TypeSet, ast.TypeList:
		c.resolveWrappedType(t.Inner, fieldLoc)
	}
}

// --- rule check ---

func (c *refChecker) checkRule(r *ast.Rule) {
	c.bound = map[string]bool{}

	if r.Trigger != nil {
		switch r.Trigger.Kind {
		case ast.TriggerStimulus, ast.TriggerChained:
			for _, p := range r.Trigger.Params {
				c.bound[p] = true
			}
		case ast.TriggerStateChange:
			ti, ok := c.st.Types[r.Trigger.Entity]
			if !ok {
				c.emit(r.Trigger.Loc, fmt.Sprintf("undefined entity '%s'", r.Trigger.Entity), c.typeNames(), r.Trigger.Entity)
			} else if _, ok := ti.Fields[r.Trigger.Field]; !ok {
				c.emit(r.Trigger.Loc, fmt.Sprintf("undefined field '%s' on entity '%s'", r.Trigger.Field, r.Trigger.Entity), c.fieldNames(ti), r.Trigger.Field)
			}
			c.bound[r.Trigger.Binding] = true
			c.checkExpr(r.Trigger.Value, true)
		case ast.TriggerCreated:
			if _, ok := c.st.Types[r.Trigger.Entity]; !ok {
				c.emit(r.Trigger.Loc, fmt.Sprintf("undefined entity '%s'", r.Trigger.Entity), c.typeNames(), r.Trigger.Entity)
			}
			c.bound[r.Trigger.Binding] = true
		case ast.TriggerTemporal, ast.TriggerDerived:
			c.checkExpr(r.Trigger.Expr, false)
		}
	}

	for _, lb := range r.Lets {
		c.checkExpr(lb.Expr, false)
		c.bound[lb.Name] = true
	}
	for _, req := range r.Requires {
		c.checkExpr(req, false)
	}
	for _, ens := range r.Ensures {
		c.checkExpr(ens, false)
	}

	c.bound = map[string]bool{}
}

// --- expression check ---

func (c *refChecker) checkExpr(e *ast.Expression, enumCtx bool) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.ExprIdent, ast.ExprEnumLit:
		c.checkIdent(e, enumCtx)
	case ast.ExprNumber, ast.ExprString, ast.ExprBool, ast.ExprNull:
		// literals are always valid
	case ast.ExprFieldAccess:
		// The field name itself is never checked — that would require
		// type inference the core does not attempt (spec §4.4).
		c.checkExpr(e.Object, enumCtx)
	case ast.ExprCall:
		c.checkExpr(e.Callee, enumCtx)
		argCtx := enumCtx || isArrayCall(e.Callee)
		for _, a := range e.Args {
			c.checkExpr(a, argCtx)
		}
	case ast.ExprBinary:
		c.checkExpr(e.Left, enumCtx)
		rightCtx := enumCtx
		if e.Op == "=" || e.Op == "!=" || e.Op == "in" {
			rightCtx = true
		}
		c.checkExpr(e.Right, rightCtx)
	case ast.ExprUnary:
		c.checkExpr(e.Operand, enumCtx)
	case ast.ExprLambda:
		wasBound := c.bound[e.Param]
		c.bound[e.Param] = true
		c.checkExpr(e.Body, enumCtx)
		if !wasBound {
			delete(c.bound, e.Param)
		}
	case ast.ExprJoinLookup:
		if _, ok := c.st.Types[e.Entity]; !ok {
			c.emit(e.Loc, fmt.Sprintf("undefined entity '%s'", e.Entity), c.typeNames(), e.Entity)
		}
		for _, p := range e.Pairs {
			c.checkExpr(p.Value, enumCtx)
		}
	case ast.ExprEntityCreate:
		if _, ok := c.st.Types[e.Entity]; !ok {
			c.emit(e.Loc, fmt.Sprintf("undefined entity '%s'", e.Entity), c.typeNames(), e.Entity)
		}
		for _, p := range e.Pairs {
			c.checkExpr(p.Value, true)
		}
	}
}

func (c *refChecker) checkIdent(e *ast.Expression, enumCtx bool) {
	name := e.Name
	if c.bound[name] || c.st.Types[name] != nil || isBuiltin(name) {
		return
	}
	if enumCtx && looksLikeLowercaseWord(name) {
		return
	}
	pool := append(c.boundNames(), c.typeNames()...)
	c.emit(e.Loc, fmt.Sprintf("undefined identifier '%s'", name), pool, name)
}

func isArrayCall(callee *ast.Expression) bool {
	return callee != nil && callee.Kind == ast.ExprIdent && callee.Name == ast.ArrayCallee
}
