package allium

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckValidSpecWithTwoEntitiesAndOneRule(t *testing.T) {
	src := `entity User { email: Email  status: active | suspended }
entity Post { author: User }
rule SuspendUser {
  when: AdminSuspends(user)
  ensures: user.status = suspended
}
`
	diags := Check("foo.allium", src)
	if len(diags) != 0 {
		t.Fatalf("got %v, want none", diags)
	}
}

func TestCheckTypoInFieldType(t *testing.T) {
	src := "entity User { email: Email }\n" +
		"entity Account {\n" +
		"  name: String\n" +
		"    profile: Proflie\n" +
		"}\n"
	diags := Check("foo.allium", src)
	if len(diags) != 1 {
		t.Fatalf("got %v", diags)
	}
	if diags[0].Line != 4 || diags[0].Col != 14 {
		t.Fatalf("got %d:%d, want 4:14", diags[0].Line, diags[0].Col)
	}
	if diags[0].Message != "undefined type 'Proflie'" {
		t.Fatalf("got message %q", diags[0].Message)
	}
	if diags[0].Suggestion != "" {
		t.Fatalf("expected no suggestion, got %q", diags[0].Suggestion)
	}
}

func TestCheckEntityReferenceWithCloseTypo(t *testing.T) {
	src := "entity User {\n" +
		"  email: Email\n" +
		"}\n" +
		"\n" +
		"\n" +
		"\n" +
		"\n" +
		"entity Post { author: Usr for this owns }\n"
	diags := Check("foo.allium", src)
	if len(diags) != 1 {
		t.Fatalf("got %v", diags)
	}
	if diags[0].Line != 8 || diags[0].Col != 23 {
		t.Fatalf("got %d:%d, want 8:23", diags[0].Line, diags[0].Col)
	}
	if diags[0].Message != "undefined entity 'Usr'" || diags[0].Suggestion != "User" {
		t.Fatalf("got %+v", diags[0])
	}
}

func TestCheckUndefinedIdentifierInRule(t *testing.T) {
	src := `entity User { status: active | suspended }
rule R { when: X(user)  requires: usr.exists  ensures: user.status = suspended }
`
	diags := Check("foo.allium", src)
	if len(diags) != 1 {
		t.Fatalf("got %v", diags)
	}
	if diags[0].Message != "undefined identifier 'usr'" || diags[0].Suggestion != "user" {
		t.Fatalf("got %+v", diags[0])
	}
}

func TestCheckInvalidEnumMemberOnStateChange(t *testing.T) {
	src := `entity User { status: active | suspended }
rule R { when: X(user)  ensures: user.status = suspendd }
`
	diags := Check("foo.allium", src)
	if len(diags) != 1 {
		t.Fatalf("got %v", diags)
	}
	want := "invalid enum value 'suspendd' for field 'status' (expected: active | suspended)"
	if diags[0].Message != want {
		t.Fatalf("got %q want %q", diags[0].Message, want)
	}
	if diags[0].Suggestion != "suspended" {
		t.Fatalf("got suggestion %q", diags[0].Suggestion)
	}
}

func TestCheckEnumAssignmentWithPlausibleVariableRHS(t *testing.T) {
	src := `entity User { status: active | suspended }
rule R { when: X(user)  let other_user = user  ensures: user.status = other_user }
`
	diags := Check("foo.allium", src)
	if len(diags) != 0 {
		t.Fatalf("got %v, want none", diags)
	}
}

func TestCheckSyntaxErrorHaltsAtOneDiagnostic(t *testing.T) {
	src := `entity User { email Email }`
	diags := Check("bad.allium", src)
	if len(diags) != 1 {
		t.Fatalf("got %v, want exactly one diagnostic on a parse error", diags)
	}
}

func TestCheckDiagnosticOrderReferencesBeforeEnums(t *testing.T) {
	src := `entity User {
  status: active | suspended
}
entity Post { author: Usr }
rule R { when: X(user)  ensures: user.status = suspendd }
`
	diags := Check("order.allium", src)
	if len(diags) < 2 {
		t.Fatalf("expected both a reference and an enum diagnostic, got %v", diags)
	}
	sawEnum := false
	for _, d := range diags {
		if d.Message == "undefined type 'Usr'" && sawEnum {
			t.Fatalf("reference diagnostic arrived after an enum diagnostic: %v", diags)
		}
		if len(d.Message) > 0 && d.Message[0] == 'i' {
			sawEnum = true
		}
	}
}

func TestCheckEveryDiagnosticLocationIsWithinSource(t *testing.T) {
	src := `entity User { email: Bogus }
entity Post { author: AlsoBogus }
`
	diags := Check("loc.allium", src)
	lineCount := 1
	for _, c := range src {
		if c == '\n' {
			lineCount++
		}
	}
	for _, d := range diags {
		if d.Line < 1 || d.Line > lineCount {
			t.Fatalf("diagnostic line %d out of range [1,%d]: %+v", d.Line, lineCount, d)
		}
		if d.Col < 1 {
			t.Fatalf("diagnostic col %d < 1: %+v", d.Col, d)
		}
	}
}

func TestCheckGoldenFixtures(t *testing.T) {
	cases := []struct {
		file      string
		wantCount int
	}{
		{"valid.allium", 0},
		{"undefined_reference.allium", 1},
		{"invalid_enum.allium", 1},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.file, func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join("testdata", tc.file))
			if err != nil {
				t.Fatalf("reading fixture: %v", err)
			}
			diags := Check(tc.file, string(src))
			if len(diags) != tc.wantCount {
				t.Fatalf("%s: got %d diagnostics %v, want %d", tc.file, len(diags), diags, tc.wantCount)
			}
		})
	}
}

func TestCheckDeterminism(t *testing.T) {
	src := `entity User { status: active | suspended }
rule R { when: X(user)  ensures: user.status = suspended }
`
	d1 := Check("det.allium", src)
	d2 := Check("det.allium", src)
	if len(d1) != len(d2) {
		t.Fatalf("non-deterministic diagnostic counts: %d vs %d", len(d1), len(d2))
	}
	for i := range d1 {
		if d1[i] != d2[i] {
			t.Fatalf("non-deterministic diagnostic at %d: %+v vs %+v", i, d1[i], d2[i])
		}
	}
}
