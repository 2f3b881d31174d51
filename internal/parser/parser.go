// Package parser implements the recursive-descent parser that turns a
// token stream into an *ast.File, or returns a single diagnostic on the
// first syntax error encountered. No error recovery is attempted: the
// contract is at most one parse diagnostic per run, bubbled explicitly
// out of each production function rather than raised as a panic.
package parser

import (
	"fmt"

	"github.com/oxhq/allium/internal/ast"
	"github.com/oxhq/allium/internal/diag"
	"github.com/oxhq/allium/internal/token"
)

// Parse builds an *ast.File from toks, or returns a single diagnostic
// describing the first syntax error.
func Parse(file string, toks []token.Token) (*ast.File, *diag.Diagnostic) {
	p := &parser{toks: toks, file: file}
	return p.parseFile()
}

type parser struct {
	toks []token.Token
	pos  int
	file string
}

// --- token cursor helpers ---

func (p *parser) peek() token.Token {
	return p.peekN(0)
}

func (p *parser) peekN(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[i]
}

func (p *parser) advance() token.Token {
	t := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) isKeyword(t token.Token, kw string) bool {
	return t.Is(token.Keyword, kw)
}

func (p *parser) isPunct(t token.Token, lex string) bool {
	return t.Is(token.Punct, lex)
}

func (p *parser) isOperator(t token.Token, lex string) bool {
	return t.Is(token.Operator, lex)
}

func (p *parser) errAt(t token.Token, msg string) *diag.Diagnostic {
	return &diag.Diagnostic{File: p.file, Line: t.Loc.Line, Col: t.Loc.Col, Message: msg}
}

func (p *parser) unexpected(t token.Token) *diag.Diagnostic {
	if t.Kind == token.EOF {
		return p.errAt(t, "unexpected end of file")
	}
	return p.errAt(t, fmt.Sprintf("unexpected %s '%s'", t.Kind, t.Lexeme))
}

func (p *parser) expectKeyword(kw string) (token.Token, *diag.Diagnostic) {
	t := p.peek()
	if !p.isKeyword(t, kw) {
		return t, p.errAt(t, fmt.Sprintf("expected '%s'", kw))
	}
	return p.advance(), nil
}

func (p *parser) expectPunct(lex string) (token.Token, *diag.Diagnostic) {
	t := p.peek()
	if !p.isPunct(t, lex) {
		return t, p.errAt(t, fmt.Sprintf("expected '%s'", lex))
	}
	return p.advance(), nil
}

func (p *parser) expectOperator(lex string) (token.Token, *diag.Diagnostic) {
	t := p.peek()
	if !p.isOperator(t, lex) {
		return t, p.errAt(t, fmt.Sprintf("expected '%s'", lex))
	}
	return p.advance(), nil
}

func (p *parser) expectIdent() (token.Token, *diag.Diagnostic) {
	t := p.peek()
	if t.Kind != token.Ident {
		return t, p.errAt(t, "expected identifier")
	}
	return p.advance(), nil
}

// --- file-level dispatch ---

func (p *parser) parseFile() (*ast.File, *diag.Diagnostic) {
	f := &ast.File{}
	for {
		t := p.peek()
		if t.Kind == token.EOF {
			break
		}
		if t.Kind != token.Keyword {
			return nil, p.unexpected(t)
		}
		switch t.Lexeme {
		case "external":
			n, err := p.parseExternalEntity()
			if err != nil {
				return nil, err
			}
			f.Externals = append(f.Externals, n)
		case "value":
			n, err := p.parseValueType()
			if err != nil {
				return nil, err
			}
			f.Values = append(f.Values, n)
		case "entity":
			n, err := p.parseEntity()
			if err != nil {
				return nil, err
			}
			f.Entities = append(f.Entities, n)
		case "default":
			n, err := p.parseDefault()
			if err != nil {
				return nil, err
			}
			f.Defaults = append(f.Defaults, n)
		case "rule":
			n, err := p.parseRule()
			if err != nil {
				return nil, err
			}
			f.Rules = append(f.Rules, n)
		case "deferred":
			n, err := p.parseDeferred()
			if err != nil {
				return nil, err
			}
			f.Deferred = append(f.Deferred, n)
		case "open":
			n, err := p.parseOpenQuestion()
			if err != nil {
				return nil, err
			}
			f.Questions = append(f.Questions, n)
		default:
			return nil, p.unexpected(t)
		}
	}
	return f, nil
}

// --- entity-like declarations ---

func (p *parser) parseExternalEntity() (*ast.ExternalEntity, *diag.Diagnostic) {
	kw, err := p.expectKeyword("external")
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	fields, err := p.parseFieldsBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ExternalEntity{Name: name.Lexeme, Fields: fields, Loc: kw.Loc}, nil
}

func (p *parser) parseValueType() (*ast.ValueType, *diag.Diagnostic) {
	kw, err := p.expectKeyword("value")
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	fields, err := p.parseFieldsBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ValueType{Name: name.Lexeme, Fields: fields, Loc: kw.Loc}, nil
}

func (p *parser) parseFieldsBlock() ([]*ast.Field, *diag.Diagnostic) {
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var fields []*ast.Field
	for !p.isPunct(p.peek(), "}") {
		if p.peek().Kind == token.EOF {
			return nil, p.unexpected(p.peek())
		}
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fields = append(fields, &ast.Field{Name: name.Lexeme, Type: ty, Loc: name.Loc})
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return fields, nil
}

// parseType parses a type expression: primitive/entity-ref identifier,
// Set<T>/List<T>, trailing '?' optional wrapping, or a pipe-separated enum.
func (p *parser) parseType() (*ast.TypeExpr, *diag.Diagnostic) {
	t := p.peek()
	if t.Kind != token.Ident {
		return nil, p.unexpected(t)
	}

	var base *ast.TypeExpr
	if (t.Lexeme == "Set" || t.Lexeme == "List") && p.isOperator(p.peekN(1), "<") {
		p.advance() // Set/List
		p.advance() // '<'
		inner, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectOperator(">"); err != nil {
			return nil, err
		}
		kind := ast.TypeSet
		if t.Lexeme == "List" {
			kind = ast.TypeList
		}
		base = &ast.TypeExpr{Kind: kind, Inner: inner, Loc: t.Loc}
	} else if p.isPunct(p.peekN(1), "|") {
		members := []string{t.Lexeme}
		p.advance()
		for p.isPunct(p.peek(), "|") {
			p.advance()
			m, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			members = append(members, m.Lexeme)
		}
		base = &ast.TypeExpr{Kind: ast.TypeEnum, Members: members, Loc: t.Loc}
	} else {
		p.advance()
		if ast.Primitives[t.Lexeme] {
			base = &ast.TypeExpr{Kind: ast.TypePrimitive, Name: t.Lexeme, Loc: t.Loc}
		} else {
			base = &ast.TypeExpr{Kind: ast.TypeEntityRef, Name: t.Lexeme, Loc: t.Loc}
		}
	}

	if p.isPunct(p.peek(), "?") {
		p.advance()
		return &ast.TypeExpr{Kind: ast.TypeOptional, Inner: base, Loc: base.Loc}, nil
	}
	return base, nil
}

func (p *parser) parseEntity() (*ast.Entity, *diag.Diagnostic) {
	kw, err := p.expectKeyword("entity")
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}

	e := &ast.Entity{Name: name.Lexeme, Loc: kw.Loc}
	for !p.isPunct(p.peek(), "}") {
		if p.peek().Kind == token.EOF {
			return nil, p.unexpected(p.peek())
		}
		if err := p.parseEntityMember(e); err != nil {
			return nil, err
		}
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return e, nil
}

// parseEntityMember disambiguates between field, relationship, projection
// and derived using two-token look-ahead after the member's colon.
func (p *parser) parseEntityMember(e *ast.Entity) *diag.Diagnostic {
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	if _, err := p.expectPunct(":"); err != nil {
		return err
	}

	tok1 := p.peek()
	tok2 := p.peekN(1)

	switch {
	case tok1.Kind == token.Ident && p.isKeyword(tok2, "for"):
		rel, err := p.parseRelationship(name)
		if err != nil {
			return err
		}
		e.Relationships = append(e.Relationships, rel)
	case tok1.Kind == token.Ident && p.isKeyword(tok2, "with"):
		proj, err := p.parseProjection(name)
		if err != nil {
			return err
		}
		e.Projections = append(e.Projections, proj)
	case looksLikeType(tok1, tok2):
		ty, err := p.parseType()
		if err != nil {
			return err
		}
		e.Fields = append(e.Fields, &ast.Field{Name: name.Lexeme, Type: ty, Loc: name.Loc})
	default:
		expr, err := p.parseExpression()
		if err != nil {
			return err
		}
		e.Derived = append(e.Derived, &ast.Derived{Name: name.Lexeme, Expr: expr, Loc: name.Loc})
	}
	return nil
}

// looksLikeType is the local heuristic distinguishing a type expression
// from a derived expression by the member's first token and its successor.
func looksLikeType(tok1, tok2 token.Token) bool {
	if tok1.Kind != token.Ident {
		return false
	}
	if tok2.Kind == token.EOF {
		return true
	}
	if tok2.Is(token.Punct, "}") || tok2.Is(token.Punct, "?") || tok2.Is(token.Punct, "|") {
		return true
	}
	if tok2.Kind == token.Ident {
		return true
	}
	if tok2.Is(token.Operator, "<") && (tok1.Lexeme == "Set" || tok1.Lexeme == "List") {
		return true
	}
	return false
}

func (p *parser) parseRelationship(name token.Token) (*ast.Relationship, *diag.Diagnostic) {
	target, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("for"); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("this"); err != nil {
		return nil, err
	}
	cond, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return &ast.Relationship{Name: name.Lexeme, Target: target.Lexeme, Condition: cond.Lexeme, Loc: name.Loc, TargetLoc: target.Loc}, nil
}

func (p *parser) parseProjection(name token.Token) (*ast.Projection, *diag.Diagnostic) {
	source, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("with"); err != nil {
		return nil, err
	}
	filter, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.Projection{Name: name.Lexeme, Source: source.Lexeme, Filter: filter, Loc: name.Loc}, nil
}

// --- default / deferred / open question ---

func (p *parser) parseDefault() (*ast.Default, *diag.Diagnostic) {
	kw, err := p.expectKeyword("default")
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	entity, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	pairs, err := p.parseFieldValuePairs("}")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return &ast.Default{Name: name.Lexeme, Entity: entity.Lexeme, Fields: pairs, Loc: kw.Loc}, nil
}

func (p *parser) parseDeferred() (*ast.Deferred, *diag.Diagnostic) {
	kw, err := p.expectKeyword("deferred")
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	fields, err := p.parseFieldsBlock()
	if err != nil {
		return nil, err
	}
	return &ast.Deferred{Name: name.Lexeme, Fields: fields, Loc: kw.Loc}, nil
}

func (p *parser) parseOpenQuestion() (*ast.OpenQuestion, *diag.Diagnostic) {
	kw, err := p.expectKeyword("open")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("question"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	fields, err := p.parseFieldsBlock()
	if err != nil {
		return nil, err
	}
	return &ast.OpenQuestion{Name: name.Lexeme, Fields: fields, Loc: kw.Loc}, nil
}

// --- rule ---

func (p *parser) parseRule() (*ast.Rule, *diag.Diagnostic) {
	kw, err := p.expectKeyword("rule")
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}

	r := &ast.Rule{Name: name.Lexeme, Loc: kw.Loc}
	for !p.isPunct(p.peek(), "}") {
		t := p.peek()
		switch {
		case p.isKeyword(t, "when"):
			p.advance()
			if _, err := p.expectPunct(":"); err != nil {
				return nil, err
			}
			trig, err := p.parseTrigger()
			if err != nil {
				return nil, err
			}
			r.Trigger = trig
		case p.isKeyword(t, "let"):
			p.advance()
			lb, err := p.parseLetBinding()
			if err != nil {
				return nil, err
			}
			r.Lets = append(r.Lets, lb)
		case p.isKeyword(t, "requires"):
			p.advance()
			if _, err := p.expectPunct(":"); err != nil {
				return nil, err
			}
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			r.Requires = append(r.Requires, expr)
		case p.isKeyword(t, "ensures"):
			p.advance()
			if _, err := p.expectPunct(":"); err != nil {
				return nil, err
			}
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			r.Ensures = append(r.Ensures, expr)
		case t.Kind == token.EOF:
			return nil, p.unexpected(t)
		default:
			return nil, p.unexpected(t)
		}
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	if r.Trigger == nil {
		return nil, p.errAt(kw, fmt.Sprintf("rule '%s' has no trigger", r.Name))
	}
	return r, nil
}

func (p *parser) parseLetBinding() (*ast.LetBinding, *diag.Diagnostic) {
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOperator("="); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.LetBinding{Name: name.Lexeme, Expr: expr, Loc: name.Loc}, nil
}

// parseTrigger selects among stimulus, state-change, created, temporal,
// and derived variants. The chained variant has no parser production and
// is reserved for downstream rule composition.
func (p *parser) parseTrigger() (*ast.Trigger, *diag.Diagnostic) {
	t0 := p.peek()
	t1 := p.peekN(1)

	if t0.Kind == token.Ident && p.isPunct(t1, ":") {
		binding := t0.Lexeme
		loc := t0.Loc
		p.advance() // binding
		p.advance() // ':'
		entity, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct("."); err != nil {
			return nil, err
		}
		if p.isKeyword(p.peek(), "created") {
			p.advance()
			return &ast.Trigger{Kind: ast.TriggerCreated, Binding: binding, Entity: entity.Lexeme, Loc: loc}, nil
		}
		field, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKeyword("becomes"); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.Trigger{Kind: ast.TriggerStateChange, Binding: binding, Entity: entity.Lexeme, Field: field.Lexeme, Value: value, Loc: loc}, nil
	}

	if t0.Kind == token.Ident && p.isPunct(t1, "(") {
		name := t0.Lexeme
		loc := t0.Loc
		p.advance() // name
		p.advance() // '('
		var params []string
		for !p.isPunct(p.peek(), ")") {
			pt, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if p.isPunct(p.peek(), "?") {
				p.advance()
			}
			params = append(params, pt.Lexeme)
			if p.isPunct(p.peek(), ",") {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return &ast.Trigger{Kind: ast.TriggerStimulus, Name: name, Params: params, Loc: loc}, nil
	}

	loc := p.peek().Loc
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if expr.Kind == ast.ExprBinary && isComparisonOp(expr.Op) && containsIdentNow(expr) {
		return &ast.Trigger{Kind: ast.TriggerTemporal, Expr: expr, Loc: loc}, nil
	}
	return &ast.Trigger{Kind: ast.TriggerDerived, Expr: expr, Loc: loc}, nil
}

func isComparisonOp(op string) bool {
	switch op {
	case "<", "<=", ">", ">=":
		return true
	}
	return false
}

func containsIdentNow(e *ast.Expression) bool {
	found := false
	ast.Walk(e, func(n *ast.Expression) {
		if n.Kind == ast.ExprIdent && n.Name == "now" {
			found = true
		}
	})
	return found
}

// --- expressions ---

func (p *parser) parseExpression() (*ast.Expression, *diag.Diagnostic) {
	return p.parseOr()
}

func (p *parser) parseOr() (*ast.Expression, *diag.Diagnostic) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword(p.peek(), "or") {
		loc := p.peek().Loc
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.Expression{Kind: ast.ExprBinary, Op: "or", Left: left, Right: right, Loc: loc}
	}
	return left, nil
}

func (p *parser) parseAnd() (*ast.Expression, *diag.Diagnostic) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.isKeyword(p.peek(), "and") {
		loc := p.peek().Loc
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.Expression{Kind: ast.ExprBinary, Op: "and", Left: left, Right: right, Loc: loc}
	}
	return left, nil
}

func isCompareTok(t token.Token) (string, bool) {
	if t.Kind == token.Operator {
		switch t.Lexeme {
		case "=", "!=", "<", "<=", ">", ">=":
			return t.Lexeme, true
		}
	}
	if t.Kind == token.Keyword && (t.Lexeme == "in" || t.Lexeme == "with") {
		return t.Lexeme, true
	}
	return "", false
}

func (p *parser) parseComparison() (*ast.Expression, *diag.Diagnostic) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := isCompareTok(p.peek())
		if !ok {
			break
		}
		loc := p.peek().Loc
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.Expression{Kind: ast.ExprBinary, Op: op, Left: left, Right: right, Loc: loc}
	}
	return left, nil
}

func (p *parser) parseAdditive() (*ast.Expression, *diag.Diagnostic) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if !(t.Kind == token.Operator && (t.Lexeme == "+" || t.Lexeme == "-")) {
			break
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.Expression{Kind: ast.ExprBinary, Op: t.Lexeme, Left: left, Right: right, Loc: t.Loc}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (*ast.Expression, *diag.Diagnostic) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if !(t.Kind == token.Operator && (t.Lexeme == "*" || t.Lexeme == "/")) {
			break
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.Expression{Kind: ast.ExprBinary, Op: t.Lexeme, Left: left, Right: right, Loc: t.Loc}
	}
	return left, nil
}

func (p *parser) parseUnary() (*ast.Expression, *diag.Diagnostic) {
	t := p.peek()
	if p.isKeyword(t, "not") {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Expression{Kind: ast.ExprUnary, Op: "not", Operand: operand, Loc: t.Loc}, nil
	}
	if t.Kind == token.Operator && t.Lexeme == "-" {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Expression{Kind: ast.ExprUnary, Op: "-", Operand: operand, Loc: t.Loc}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (*ast.Expression, *diag.Diagnostic) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		switch {
		case p.isPunct(t, "."):
			p.advance()
			field, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			fa := &ast.Expression{Kind: ast.ExprFieldAccess, Object: expr, Field: field.Lexeme, Loc: t.Loc}
			if p.isPunct(p.peek(), "(") {
				p.advance()
				args, err := p.parseArgList(")")
				if err != nil {
					return nil, err
				}
				expr = &ast.Expression{Kind: ast.ExprCall, Callee: fa, Args: args, Loc: t.Loc}
			} else {
				expr = fa
			}
		case p.isPunct(t, "("):
			p.advance()
			args, err := p.parseArgList(")")
			if err != nil {
				return nil, err
			}
			expr = &ast.Expression{Kind: ast.ExprCall, Callee: expr, Args: args, Loc: t.Loc}
		case p.isPunct(t, "{"):
			if expr.Kind != ast.ExprIdent {
				return nil, p.errAt(t, "join-lookup requires an identifier entity name")
			}
			p.advance()
			pairs, err := p.parseJoinPairs()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct("}"); err != nil {
				return nil, err
			}
			expr = &ast.Expression{Kind: ast.ExprJoinLookup, Entity: expr.Name, Pairs: pairs, Loc: t.Loc}
		default:
			return expr, nil
		}
	}
}

func (p *parser) parsePrimary() (*ast.Expression, *diag.Diagnostic) {
	t := p.peek()
	switch {
	case p.isPunct(t, "("):
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return inner, nil
	case t.Kind == token.Number:
		p.advance()
		return &ast.Expression{Kind: ast.ExprNumber, NumberLit: t.Lexeme, Loc: t.Loc}, nil
	case t.Kind == token.String:
		p.advance()
		return &ast.Expression{Kind: ast.ExprString, StringLit: t.Lexeme, Loc: t.Loc}, nil
	case p.isKeyword(t, "true"):
		p.advance()
		return &ast.Expression{Kind: ast.ExprBool, BoolLit: true, Loc: t.Loc}, nil
	case p.isKeyword(t, "false"):
		p.advance()
		return &ast.Expression{Kind: ast.ExprBool, BoolLit: false, Loc: t.Loc}, nil
	case p.isKeyword(t, "null"):
		p.advance()
		return &ast.Expression{Kind: ast.ExprNull, Loc: t.Loc}, nil
	case p.isKeyword(t, "now"):
		p.advance()
		return &ast.Expression{Kind: ast.ExprIdent, Name: "now", Loc: t.Loc}, nil
	case p.isKeyword(t, "config"):
		p.advance()
		if _, err := p.expectOperator("/"); err != nil {
			return nil, err
		}
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return &ast.Expression{Kind: ast.ExprIdent, Name: "config/" + name.Lexeme, Loc: t.Loc}, nil
	case p.isPunct(t, "["):
		p.advance()
		elems, err := p.parseArgList("]")
		if err != nil {
			return nil, err
		}
		array := &ast.Expression{Kind: ast.ExprIdent, Name: ast.ArrayCallee, Loc: t.Loc}
		return &ast.Expression{Kind: ast.ExprCall, Callee: array, Args: elems, Loc: t.Loc}, nil
	case t.Kind == token.Ident:
		if p.isOperator(p.peekN(1), "=>") {
			p.advance() // param
			p.advance() // '=>'
			body, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			return &ast.Expression{Kind: ast.ExprLambda, Param: t.Lexeme, Body: body, Loc: t.Loc}, nil
		}
		if p.isPunct(p.peekN(1), ".") && p.isKeyword(p.peekN(2), "created") && p.isPunct(p.peekN(3), "(") {
			p.advance() // name
			p.advance() // '.'
			p.advance() // 'created'
			p.advance() // '('
			pairs, err := p.parseFieldValuePairs(")")
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return &ast.Expression{Kind: ast.ExprEntityCreate, Entity: t.Lexeme, Pairs: pairs, Loc: t.Loc}, nil
		}
		p.advance()
		return &ast.Expression{Kind: ast.ExprIdent, Name: t.Lexeme, Loc: t.Loc}, nil
	default:
		return nil, p.unexpected(t)
	}
}

// parseArgList parses zero-or-more comma-separated expressions up to and
// including the closer token, assuming the opener was already consumed.
func (p *parser) parseArgList(closer string) ([]*ast.Expression, *diag.Diagnostic) {
	var args []*ast.Expression
	if p.isPunct(p.peek(), closer) {
		p.advance()
		return args, nil
	}
	for {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.isPunct(p.peek(), ",") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectPunct(closer); err != nil {
		return nil, err
	}
	return args, nil
}

// parseFieldValuePairs parses comma-separated `field : value` pairs up to
// (but not consuming) closer. Used by entity-created and default bodies,
// where the colon-value is mandatory (no join-lookup shorthand).
func (p *parser) parseFieldValuePairs(closer string) ([]ast.FieldValue, *diag.Diagnostic) {
	var pairs []ast.FieldValue
	for !p.isPunct(p.peek(), closer) {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, ast.FieldValue{Field: name.Lexeme, Value: value})
		if p.isPunct(p.peek(), ",") {
			p.advance()
			continue
		}
		break
	}
	return pairs, nil
}

// parseJoinPairs parses comma-separated `field[: value]` pairs up to (but
// not consuming) the closing '}'. A bare field with no colon is shorthand
// for `field: field`.
func (p *parser) parseJoinPairs() ([]ast.FieldValue, *diag.Diagnostic) {
	var pairs []ast.FieldValue
	for !p.isPunct(p.peek(), "}") {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		var value *ast.Expression
		if p.isPunct(p.peek(), ":") {
			p.advance()
			v, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			value = v
		} else {
			value = &ast.Expression{Kind: ast.ExprIdent, Name: name.Lexeme, Loc: name.Loc}
		}
		pairs = append(pairs, ast.FieldValue{Field: name.Lexeme, Value: value})
		if p.isPunct(p.peek(), ",") {
			p.advance()
			continue
		}
		break
	}
	return pairs, nil
}
