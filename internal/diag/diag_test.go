package diag

import (
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
)

func TestDiagnosticStringWireFormat(t *testing.T) {
	d := Diagnostic{File: "foo.allium", Line: 4, Col: 14, Message: "undefined type 'Proflie'"}
	assert.Equal(t, "foo.allium:4:14: undefined type 'Proflie'", d.String())
}

func TestDiagnosticStringWithSuggestion(t *testing.T) {
	d := Diagnostic{File: "foo.allium", Line: 8, Col: 23, Message: "undefined entity 'Usr'", Suggestion: "User"}
	assert.Equal(t, "foo.allium:8:23: undefined entity 'Usr' (did you mean 'User'?)", d.String())
}

// assertDiagLines renders a readable diff (in the style the teacher's own
// diff-oriented tests use) when a list of rendered diagnostic lines
// doesn't match what was expected.
func assertDiagLines(t *testing.T, got []string, want []string) {
	t.Helper()
	if equalStrings(got, want) {
		return
	}
	diff := difflib.UnifiedDiff{
		A:        want,
		B:        got,
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	}
	text, _ := difflib.GetUnifiedDiffString(diff)
	t.Fatalf("diagnostic lines mismatch:\n%s", text)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAssertDiagLinesAcceptsEqualLines(t *testing.T) {
	got := []string{"a", "b"}
	want := []string{"a", "b"}
	assertDiagLines(t, got, want)
}
