package symtab

import (
	"testing"

	"github.com/oxhq/allium/internal/ast"
	"github.com/oxhq/allium/internal/lexer"
	"github.com/oxhq/allium/internal/parser"
)

func build(t *testing.T, src string) *Table {
	t.Helper()
	toks := lexer.Lex(src)
	f, err := parser.Parse("t.allium", toks)
	if err != nil {
		t.Fatalf("parse error: %s", err.String())
	}
	return Build(f)
}

func TestBuildIndexesTypesByKind(t *testing.T) {
	st := build(t, `
	external Clock { tick: Timestamp }
	value Address { line1: String }
	entity User { status: active | suspended }
	`)
	if st.Types["Clock"].Kind != KindExternal {
		t.Fatalf("got %v", st.Types["Clock"].Kind)
	}
	if st.Types["Address"].Kind != KindValue {
		t.Fatalf("got %v", st.Types["Address"].Kind)
	}
	if st.Types["User"].Kind != KindEntity {
		t.Fatalf("got %v", st.Types["User"].Kind)
	}
}

func TestEnumFieldRetainsMembersInOrder(t *testing.T) {
	st := build(t, `entity User { status: active | suspended | banned }`)
	fi := st.Types["User"].Fields["status"]
	if !fi.IsEnum {
		t.Fatalf("expected status to be an enum field")
	}
	want := []string{"active", "suspended", "banned"}
	if len(fi.Members) != len(want) {
		t.Fatalf("got %v", fi.Members)
	}
	for i, m := range want {
		if fi.Members[i] != m {
			t.Fatalf("member %d: got %q want %q", i, fi.Members[i], m)
		}
	}
}

func TestDuplicateTopLevelNameLastWins(t *testing.T) {
	st := build(t, `
	entity User { email: Email }
	entity User { status: active | suspended }
	`)
	if _, ok := st.Types["User"].Fields["email"]; ok {
		t.Fatalf("expected first declaration of User to be overwritten")
	}
	if _, ok := st.Types["User"].Fields["status"]; !ok {
		t.Fatalf("expected second declaration of User to win")
	}
}

func TestGetAllMembersPrecedence(t *testing.T) {
	ti := &TypeInfo{
		Fields:        map[string]FieldInfo{"x": {}},
		Relationships: map[string]*ast.Relationship{},
		Projections:   map[string]*ast.Projection{},
		Derived:       map[string]*ast.Derived{},
	}
	all := ti.GetAllMembers()
	if all["x"] != MemberField {
		t.Fatalf("got %v", all["x"])
	}

	ti2 := &TypeInfo{
		Fields:        map[string]FieldInfo{"x": {}},
		Relationships: map[string]*ast.Relationship{"x": {}},
		Projections:   map[string]*ast.Projection{},
		Derived:       map[string]*ast.Derived{},
	}
	all2 := ti2.GetAllMembers()
	if all2["x"] != MemberRelationship {
		t.Fatalf("relationship should overwrite field on collision, got %v", all2["x"])
	}
}

func TestDefaultsAndRulesIndexedByName(t *testing.T) {
	st := build(t, `
	entity Order { status: pending | shipped }
	default StandardOrder: Order { status: pending }
	rule R { when: X(o) ensures: true }
	`)
	if st.Defaults["StandardOrder"] == nil {
		t.Fatalf("expected default to be indexed")
	}
	if st.Rules["R"] == nil {
		t.Fatalf("expected rule to be indexed")
	}
}
