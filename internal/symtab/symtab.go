// Package symtab builds the flat symbol index consumed by the checkers
// from a parsed *ast.File.
package symtab

import "github.com/oxhq/allium/internal/ast"

// Kind distinguishes the three declaration categories that produce a
// TypeInfo entry.
type Kind string

const (
	KindEntity   Kind = "entity"
	KindValue    Kind = "value"
	KindExternal Kind = "external"
)

// MemberKind tags what category a name resolves to within getAllMembers'
// tag-order precedence: field, then relationship, then projection, then
// derived — later insertion overwrites earlier on collision.
type MemberKind string

const (
	MemberField        MemberKind = "field"
	MemberRelationship MemberKind = "relationship"
	MemberProjection   MemberKind = "projection"
	MemberDerived      MemberKind = "derived"
)

// FieldInfo describes one field's declared type and, for enum fields, its
// allowed member list in declaration order (duplicates kept as given).
type FieldInfo struct {
	Type    *ast.TypeExpr
	IsEnum  bool
	Members []string
}

// TypeInfo summarises one declared type's members.
type TypeInfo struct {
	Kind          Kind
	Name          string
	Fields        map[string]FieldInfo
	Relationships map[string]*ast.Relationship
	Projections   map[string]*ast.Projection
	Derived       map[string]*ast.Derived
}

// GetAllMembers returns a mapping from member name to the category it
// belongs to, resolving collisions across categories by insertion order:
// field, then relationship, then projection, then derived — a later
// category's entry overwrites an earlier one for the same name.
func (ti *TypeInfo) GetAllMembers() map[string]MemberKind {
	all := make(map[string]MemberKind, len(ti.Fields)+len(ti.Relationships)+len(ti.Projections)+len(ti.Derived))
	for name := range ti.Fields {
		all[name] = MemberField
	}
	for name := range ti.Relationships {
		all[name] = MemberRelationship
	}
	for name := range ti.Projections {
		all[name] = MemberProjection
	}
	for name := range ti.Derived {
		all[name] = MemberDerived
	}
	return all
}

// Table is the three top-level maps the checkers consult.
type Table struct {
	Types    map[string]*TypeInfo
	Defaults map[string]*ast.Default
	Rules    map[string]*ast.Rule
}

// Build performs the single linear pass over a file's declaration
// collections, producing a Table. Duplicate top-level names silently
// overwrite (last-one-wins); this stage cannot fail.
func Build(f *ast.File) *Table {
	st := &Table{
		Types:    make(map[string]*TypeInfo),
		Defaults: make(map[string]*ast.Default),
		Rules:    make(map[string]*ast.Rule),
	}

	for _, ext := range f.Externals {
		st.Types[ext.Name] = &TypeInfo{
			Kind:   KindExternal,
			Name:   ext.Name,
			Fields: buildFields(ext.Fields),
		}
	}
	for _, v := range f.Values {
		st.Types[v.Name] = &TypeInfo{
			Kind:   KindValue,
			Name:   v.Name,
			Fields: buildFields(v.Fields),
		}
	}
	for _, e := range f.Entities {
		ti := &TypeInfo{
			Kind:          KindEntity,
			Name:          e.Name,
			Fields:        buildFields(e.Fields),
			Relationships: make(map[string]*ast.Relationship, len(e.Relationships)),
			Projections:   make(map[string]*ast.Projection, len(e.Projections)),
			Derived:       make(map[string]*ast.Derived, len(e.Derived)),
		}
		for _, r := range e.Relationships {
			ti.Relationships[r.Name] = r
		}
		for _, p := range e.Projections {
			ti.Projections[p.Name] = p
		}
		for _, d := range e.Derived {
			ti.Derived[d.Name] = d
		}
		st.Types[e.Name] = ti
	}

	for _, d := range f.Defaults {
		st.Defaults[d.Name] = d
	}
	for _, r := range f.Rules {
		st.Rules[r.Name] = r
	}

	return st
}

func buildFields(fields []*ast.Field) map[string]FieldInfo {
	m := make(map[string]FieldInfo, len(fields))
	for _, fld := range fields {
		fi := FieldInfo{Type: fld.Type}
		if fld.Type != nil && fld.Type.Kind == ast.TypeEnum {
			fi.IsEnum = true
			fi.Members = fld.Type.Members
		}
		m[fld.Name] = fi
	}
	return m
}
