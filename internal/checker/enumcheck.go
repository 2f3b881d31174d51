package checker

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/oxhq/allium/internal/ast"
	"github.com/oxhq/allium/internal/diag"
	"github.com/oxhq/allium/internal/symtab"
	"github.com/oxhq/allium/internal/token"
)

// enumChecker validates that identifiers compared or assigned against an
// enum-typed field are among its declared members. It runs independently
// of the reference checker and never consults its bound-variable set.
//
// Resolving which entity a bare `object.field` access belongs to needs a
// type context the grammar itself does not record for every binding (a
// stimulus parameter carries no declared type). boundTypes tracks the
// entity type of every name this pass can actually determine — exactly
// for state-change/created bindings — and falls back to the language's
// own naming convention (a lowercase binding name is the capitalised
// entity name: `user` for `User`) everywhere else, the same convention
// every worked example in the spec itself relies on. selfType additionally
// lets a bare field identifier (no object, as in a derived expression
// comparing one of its own entity's fields) resolve against the entity
// currently being walked.
type enumChecker struct {
	file       string
	st         *symtab.Table
	diags      []diag.Diagnostic
	boundTypes map[string]string
	selfType   *symtab.TypeInfo
}

// CheckEnums walks f looking for state-change trigger assignments, binary
// equality/inequality comparisons, and entity-creation initialisers
// against enum-typed fields, returning one diagnostic per invalid value.
func CheckEnums(file string, f *ast.File, st *symtab.Table) []diag.Diagnostic {
	c := &enumChecker{file: file, st: st}

	for _, r := range f.Rules {
		c.boundTypes = map[string]string{}
		c.selfType = nil
		if r.Trigger != nil {
			switch r.Trigger.Kind {
			case ast.TriggerStateChange:
				c.boundTypes[r.Trigger.Binding] = r.Trigger.Entity
				if r.Trigger.Value != nil {
					c.checkDirectAssignment(r.Trigger.Entity, r.Trigger.Field, r.Trigger.Value)
				}
			case ast.TriggerCreated:
				c.boundTypes[r.Trigger.Binding] = r.Trigger.Entity
			}
		}
		for _, lb := range r.Lets {
			if name, ok := identName(lb.Expr); ok {
				if t, ok := c.boundTypes[name]; ok {
					c.boundTypes[lb.Name] = t
				}
			}
		}
		for _, req := range r.Requires {
			c.walk(req)
		}
		for _, ens := range r.Ensures {
			c.walk(ens)
		}
	}
	c.boundTypes = nil
	for _, e := range f.Entities {
		c.selfType = st.Types[e.Name]
		for _, d := range e.Derived {
			c.walk(d.Expr)
		}
	}
	c.selfType = nil

	return c.diags
}

// walk recurses through an expression tree collecting enum-comparison and
// entity-creation patterns, descending into every sub-expression regardless
// of whether the current node matched.
func (c *enumChecker) walk(e *ast.Expression) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.ExprBinary:
		if e.Op == "=" || e.Op == "!=" {
			c.checkComparison(e)
		}
		c.walk(e.Left)
		c.walk(e.Right)
	case ast.ExprEntityCreate:
		c.checkEntityCreate(e)
		for _, p := range e.Pairs {
			c.walk(p.Value)
		}
	case ast.ExprFieldAccess:
		c.walk(e.Object)
	case ast.ExprCall:
		c.walk(e.Callee)
		for _, a := range e.Args {
			c.walk(a)
		}
	case ast.ExprUnary:
		c.walk(e.Operand)
	case ast.ExprLambda:
		c.walk(e.Body)
	case ast.ExprJoinLookup:
		for _, p := range e.Pairs {
			c.walk(p.Value)
		}
	}
}

// checkComparison handles a binary `=`/`!=` expression. Each side is
// resolved to an enum field independently — either a bare `object.field`
// access (object resolved via resolveObjectType) or a bare field
// identifier resolved against the entity currently in scope (selfType,
// set only while walking a derived expression) — then checked against
// the other side; applied symmetrically per spec §4.5.
func (c *enumChecker) checkComparison(e *ast.Expression) {
	if fi, field, ok := c.resolveFieldRef(e.Left); ok {
		c.checkAgainstField(fi, field, e.Right)
	}
	if fi, field, ok := c.resolveFieldRef(e.Right); ok {
		c.checkAgainstField(fi, field, e.Left)
	}
}

// resolveFieldRef resolves one side of a comparison to the enum field it
// names, if any.
func (c *enumChecker) resolveFieldRef(e *ast.Expression) (symtab.FieldInfo, string, bool) {
	if e == nil {
		return symtab.FieldInfo{}, "", false
	}
	if e.Kind == ast.ExprFieldAccess && e.Object != nil && e.Object.Kind == ast.ExprIdent {
		if typeName, ok := c.resolveObjectType(e.Object.Name); ok {
			if fi, ok := c.enumField(typeName, e.Field); ok {
				return fi, e.Field, true
			}
		}
		return symtab.FieldInfo{}, "", false
	}
	if (e.Kind == ast.ExprIdent) && c.selfType != nil {
		if fi, ok := c.selfType.Fields[e.Name]; ok && fi.IsEnum {
			return fi, e.Name, true
		}
	}
	return symtab.FieldInfo{}, "", false
}

// resolveObjectType determines the entity type of a bare identifier used
// as a comparison's object. It prefers an exactly known binding type
// (boundTypes, populated from state-change/created trigger bindings and
// let-aliases of them), then the trivial case of the identifier itself
// naming a declared type, then the naming convention every worked example
// in the spec uses: a lowercase binding name is the declared entity name
// with its first letter capitalised (`user` -> `User`).
func (c *enumChecker) resolveObjectType(name string) (string, bool) {
	if t, ok := c.boundTypes[name]; ok && t != "" {
		return t, true
	}
	if _, ok := c.st.Types[name]; ok {
		return name, true
	}
	if cap := capitalizeFirst(name); cap != name {
		if _, ok := c.st.Types[cap]; ok {
			return cap, true
		}
	}
	return "", false
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// checkAgainstField is the general comparison-pattern rule: a diagnostic is
// emitted unless the value is lowercase-underscore *and* no plausible
// suggestion exists, in which case it is assumed to be a variable rather
// than a mistyped enum member.
func (c *enumChecker) checkAgainstField(fi symtab.FieldInfo, fieldName string, value *ast.Expression) {
	if value == nil {
		return
	}
	val, ok := identName(value)
	if !ok || contains(fi.Members, val) {
		return
	}
	sugg, found := diag.Suggest(val, fi.Members, diag.DefaultThreshold)
	if found {
		c.emit(value.Loc, val, fieldName, fi.Members, sugg)
		return
	}
	if !looksLikeLowercaseWord(val) {
		c.emit(value.Loc, val, fieldName, fi.Members, "")
	}
}

// checkDirectAssignment handles the state-change trigger's value-expr: an
// unconditional check with a suggestion, no lowercase exemption (spec
// §4.5 "Direct enum assignment").
func (c *enumChecker) checkDirectAssignment(entity, field string, value *ast.Expression) {
	fi, ok := c.enumField(entity, field)
	if !ok {
		return
	}
	val, ok := identName(value)
	if !ok || contains(fi.Members, val) {
		return
	}
	sugg, _ := diag.Suggest(val, fi.Members, diag.DefaultThreshold)
	c.emit(value.Loc, val, field, fi.Members, sugg)
}

// checkEntityCreate flags an identifier initialiser for an enum field only
// when a plausible suggestion exists — the asymmetric rule of spec §4.5:
// without a typo candidate, the identifier is assumed to be a variable.
func (c *enumChecker) checkEntityCreate(e *ast.Expression) {
	ti, ok := c.st.Types[e.Entity]
	if !ok {
		return
	}
	for _, p := range e.Pairs {
		fi, ok := ti.Fields[p.Field]
		if !ok || !fi.IsEnum {
			continue
		}
		val, ok := identName(p.Value)
		if !ok || contains(fi.Members, val) {
			continue
		}
		if sugg, found := diag.Suggest(val, fi.Members, diag.DefaultThreshold); found {
			c.emit(p.Value.Loc, val, p.Field, fi.Members, sugg)
		}
	}
}

func (c *enumChecker) enumField(typeName, fieldName string) (symtab.FieldInfo, bool) {
	ti, ok := c.st.Types[typeName]
	if !ok {
		return symtab.FieldInfo{}, false
	}
	fi, ok := ti.Fields[fieldName]
	if !ok || !fi.IsEnum {
		return symtab.FieldInfo{}, false
	}
	return fi, true
}

func identName(e *ast.Expression) (string, bool) {
	if e == nil {
		return "", false
	}
	if e.Kind == ast.ExprIdent || e.Kind == ast.ExprEnumLit {
		return e.Name, true
	}
	return "", false
}

func (c *enumChecker) emit(loc token.Loc, value, field string, members []string, suggestion string) {
	msg := fmt.Sprintf("invalid enum value '%s' for field '%s' (expected: %s)", value, field, strings.Join(members, " | "))
	c.diags = append(c.diags, diag.Diagnostic{File: c.file, Line: loc.Line, Col: loc.Col, Message: msg, Suggestion: suggestion})
}
