package checker

import (
	"testing"

	"github.com/oxhq/allium/internal/diag"
	"github.com/oxhq/allium/internal/lexer"
	"github.com/oxhq/allium/internal/parser"
	"github.com/oxhq/allium/internal/symtab"
)

func references(t *testing.T, src string) []diag.Diagnostic {
	t.Helper()
	toks := lexer.Lex(src)
	f, err := parser.Parse("t.allium", toks)
	if err != nil {
		t.Fatalf("parse error: %s", err.String())
	}
	st := symtab.Build(f)
	return CheckReferences("t.allium", f, st)
}

func TestCheckReferencesNoDiagnosticsOnValidSpec(t *testing.T) {
	diags := references(t, `
	entity User { email: Email  status: active | suspended }
	entity Post { author: User }
	rule SuspendUser {
		when: AdminSuspends(user)
		ensures: user.status = suspended
	}`)
	if len(diags) != 0 {
		t.Fatalf("got %v, want none", diags)
	}
}

func TestUndefinedFieldType(t *testing.T) {
	diags := references(t, `entity Account { avatar: Proflie }`)
	if len(diags) != 1 {
		t.Fatalf("got %v", diags)
	}
	if diags[0].Message != "undefined type 'Proflie'" {
		t.Fatalf("got %q", diags[0].Message)
	}
	if diags[0].Suggestion != "" {
		t.Fatalf("expected no suggestion, got %q", diags[0].Suggestion)
	}
}

func TestUndefinedEntityRelationshipTargetWithSuggestion(t *testing.T) {
	diags := references(t, `
	entity User { email: Email }
	entity Post { author: Usr for this owns }`)
	if len(diags) != 1 {
		t.Fatalf("got %v", diags)
	}
	if diags[0].Message != "undefined entity 'Usr'" || diags[0].Suggestion != "User" {
		t.Fatalf("got %+v", diags[0])
	}
}

func TestUndefinedIdentifierInRule(t *testing.T) {
	diags := references(t, `
	entity User { status: active | suspended }
	rule R {
		when: X(user)
		requires: usr.exists
		ensures: user.status = suspended
	}`)
	if len(diags) != 1 {
		t.Fatalf("got %v", diags)
	}
	if diags[0].Message != "undefined identifier 'usr'" || diags[0].Suggestion != "user" {
		t.Fatalf("got %+v", diags[0])
	}
}

func TestBoundVariablesNotFlagged(t *testing.T) {
	diags := references(t, `
	entity User { status: active | suspended }
	rule R {
		when: X(user)
		let other_user = user
		requires: other_user.status = active
		ensures: user.status = other_user.status
	}`)
	if len(diags) != 0 {
		t.Fatalf("got %v", diags)
	}
}

func TestEnumContextExemptsLowercaseWord(t *testing.T) {
	diags := references(t, `
	entity User { status: active | suspended }
	rule R {
		when: u: User.status becomes suspended
		ensures: true
	}`)
	if len(diags) != 0 {
		t.Fatalf("got %v", diags)
	}
}

func TestEntityScopeAddsMembersForDerived(t *testing.T) {
	diags := references(t, `
	entity Order {
		quantity: Integer
		price: Integer
		total: quantity * price
	}`)
	if len(diags) != 0 {
		t.Fatalf("got %v", diags)
	}
}

func TestEntityScopeDoesNotLeakAcrossEntities(t *testing.T) {
	diags := references(t, `
	entity Order {
		quantity: Integer
	}
	entity Invoice {
		amount: quantity + 1
	}`)
	found := false
	for _, d := range diags {
		if d.Message == "undefined identifier 'quantity'" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 'quantity' to not leak from Order's scope into Invoice's, got %v", diags)
	}
}

func TestUndefinedTypeInsideWrapperReportedAtFieldLocation(t *testing.T) {
	// spec §4.4: wrapper types (optional/set/list) delegate to their inner
	// type but use the *containing field's* location for the diagnostic,
	// not the inner type expression's own location.
	diags := references(t, `entity User { friends: Set<Usr> }`)
	if len(diags) != 1 {
		t.Fatalf("got %v", diags)
	}
	if diags[0].Message != "undefined type 'Usr'" {
		t.Fatalf("got message %q", diags[0].Message)
	}
	if diags[0].Col != 15 {
		t.Fatalf("got col %d, want 15 (the 'friends' field name, not 'Usr')", diags[0].Col)
	}
}

func TestLambdaParamShadowingRestoredAfterExit(t *testing.T) {
	diags := references(t, `
	entity Order { items: Set<String> }
	rule R {
		when: X(items)
		ensures: items.all(items => items.valid) and items.exists
	}`)
	if len(diags) != 0 {
		t.Fatalf("lambda shadowing of an already-bound name should not leak an undefined diagnostic: %v", diags)
	}
}

func TestLambdaParamNotPreviouslyBoundIsRemovedAfterExit(t *testing.T) {
	diags := references(t, `
	entity Order { items: Set<String> }
	rule R {
		when: X(order)
		ensures: order.items.all(i => i.valid) and i.exists
	}`)
	found := false
	for _, d := range diags {
		if d.Message == "undefined identifier 'i'" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 'i' to be undefined once the lambda's subtree is exited, got %v", diags)
	}
}

func TestProjectionUndefinedSource(t *testing.T) {
	diags := references(t, `
	entity User { status: active | suspended }
	entity Post {
		recent: missingRel with status = active
	}`)
	found := false
	for _, d := range diags {
		if d.Message == "undefined relationship 'missingRel'" {
			found = true
		}
	}
	if !found {
		t.Fatalf("got %v", diags)
	}
}

func TestFieldAfterDotNotChecked(t *testing.T) {
	// Field-level access validation after the first dot is out of scope
	// (spec §1 Non-goals) — "user.nonExistentField" should not itself be
	// flagged, only "user" as the object needs to resolve.
	diags := references(t, `
	entity User { status: active | suspended }
	rule R {
		when: X(user)
		ensures: user.nonExistentField = true
	}`)
	if len(diags) != 0 {
		t.Fatalf("got %v", diags)
	}
}

func TestJoinLookupUndefinedEntity(t *testing.T) {
	diags := references(t, `
	rule R {
		when: X(order)
		ensures: Accnt{ email: order }.exists
	}`)
	if len(diags) != 1 || diags[0].Message != "undefined entity 'Accnt'" {
		t.Fatalf("got %v", diags)
	}
}

func TestEntityCreatedUndefinedEntity(t *testing.T) {
	diags := references(t, `
	rule R {
		when: X(order)
		ensures: Invocie.created(amount: 1)
	}`)
	if len(diags) != 1 || diags[0].Message != "undefined entity 'Invocie'" {
		t.Fatalf("got %v", diags)
	}
}
