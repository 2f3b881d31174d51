// Package allium implements the static semantic checker's core pipeline:
// lex, parse, build a symbol table, then run the reference and enum
// checkers and concatenate their diagnostics in stable order.
package allium

import (
	"github.com/oxhq/allium/internal/checker"
	"github.com/oxhq/allium/internal/diag"
	"github.com/oxhq/allium/internal/lexer"
	"github.com/oxhq/allium/internal/parser"
	"github.com/oxhq/allium/internal/symtab"
)

// Check lexes, parses, and semantically checks source, returning every
// diagnostic found. filename is used only to populate each diagnostic's
// file field — it is never opened or interpreted. A syntax error halts
// the pipeline early and the returned slice has exactly one element.
func Check(filename, source string) []diag.Diagnostic {
	toks := lexer.Lex(source)

	file, parseErr := parser.Parse(filename, toks)
	if parseErr != nil {
		return []diag.Diagnostic{*parseErr}
	}

	st := symtab.Build(file)

	var diags []diag.Diagnostic
	diags = append(diags, checker.CheckReferences(filename, file, st)...)
	diags = append(diags, checker.CheckEnums(filename, file, st)...)
	return diags
}
