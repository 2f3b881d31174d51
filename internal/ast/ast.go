// Package ast defines the typed abstract syntax tree produced by the
// allium parser. Tagged variants (TypeExpr, Trigger, Expression) are
// represented as single structs carrying every possible field rather than
// as interface hierarchies, so that a walker can descend into every
// sub-expression by nil-checking fields regardless of Kind — the same
// shape a tree walk over heterogeneous expression nodes takes in other
// single-pass semantic checkers for this language.
package ast

import "github.com/oxhq/allium/internal/token"

// File is the root node: an AlliumFile carrying the file's seven ordered
// top-level declaration collections.
type File struct {
	Externals []*ExternalEntity
	Values    []*ValueType
	Entities  []*Entity
	Defaults  []*Default
	Rules     []*Rule
	Deferred  []*Deferred
	Questions []*OpenQuestion
}

// ExternalEntity is a named declaration with only fields.
type ExternalEntity struct {
	Name   string
	Fields []*Field
	Loc    token.Loc
}

// ValueType is a named declaration of structured data without identity.
type ValueType struct {
	Name   string
	Fields []*Field
	Loc    token.Loc
}

// Entity is a first-class declared type with fields, relationships,
// projections, and derived values.
type Entity struct {
	Name          string
	Fields        []*Field
	Relationships []*Relationship
	Projections   []*Projection
	Derived       []*Derived
	Loc           token.Loc
}

// Field is a name/type pair on an entity-like declaration.
type Field struct {
	Name string
	Type *TypeExpr
	Loc  token.Loc
}

// TypeExpr is a tagged type-expression variant.
type TypeExpr struct {
	Kind    string // "primitive" | "entity-ref" | "enum" | "optional" | "set" | "list"
	Name    string // for primitive / entity-ref
	Members []string
	Inner   *TypeExpr // for optional / set / list
	Loc     token.Loc
}

const (
	TypePrimitive = "primitive"
	TypeEntityRef = "entity-ref"
	TypeEnum      = "enum"
	TypeOptional  = "optional"
	TypeSet       = "set"
	TypeList      = "list"
)

// Primitives is the closed set of bare-identifier primitive type names.
var Primitives = map[string]bool{
	"String": true, "Integer": true, "Decimal": true, "Boolean": true,
	"Timestamp": true, "Duration": true, "Email": true, "URL": true,
}

// Relationship is a named navigation from an entity to another entity.
type Relationship struct {
	Name      string
	Target    string
	Condition string
	Loc       token.Loc
	TargetLoc token.Loc // location of the Target identifier itself
}

// Projection is a filtered view of a relationship defined on an entity.
type Projection struct {
	Name   string
	Source string
	Filter *Expression
	Loc    token.Loc
}

// Derived is an entity member whose value is a computed expression.
type Derived struct {
	Name string
	Expr *Expression
	Loc  token.Loc
}

// FieldValue is a single field:value pair used by join-lookup and
// entity-created expressions.
type FieldValue struct {
	Field string
	Value *Expression
}

// Default is a file-level named default declaration.
type Default struct {
	Name   string
	Entity string
	Fields []FieldValue
	Loc    token.Loc
}

// Deferred is a file-level deferred specification.
type Deferred struct {
	Name   string
	Fields []*Field
	Loc    token.Loc
}

// OpenQuestion is a file-level open question.
type OpenQuestion struct {
	Name   string
	Fields []*Field
	Loc    token.Loc
}

// LetBinding is one `let` clause inside a rule body.
type LetBinding struct {
	Name string
	Expr *Expression
	Loc  token.Loc
}

// Trigger is a tagged trigger variant.
type Trigger struct {
	Kind    string // stimulus | state-change | created | temporal | derived | chained
	Name    string // stimulus / chained name
	Params  []string
	Binding string      // state-change / created binding
	Entity  string      // state-change / created entity
	Field   string      // state-change field
	Value   *Expression // state-change value-expr
	Expr    *Expression // temporal / derived expression
	Loc     token.Loc
}

const (
	TriggerStimulus    = "stimulus"
	TriggerStateChange = "state-change"
	TriggerCreated     = "created"
	TriggerTemporal    = "temporal"
	TriggerDerived     = "derived"
	TriggerChained     = "chained"
)

// Rule is a named behavioural rule.
type Rule struct {
	Name     string
	Trigger  *Trigger
	Lets     []*LetBinding
	Requires []*Expression
	Ensures  []*Expression
	Loc      token.Loc
}

// Expression is a tagged expression variant. Every sub-expression field is
// a pointer and nil when not applicable to Kind, so a generic walker can
// visit Object/Left/Right/Operand/Body/... uniformly.
type Expression struct {
	Kind string
	Loc  token.Loc

	// identifier / enum-value literal
	Name string
	// number literal (raw lexeme)
	NumberLit string
	// string literal
	StringLit string
	// boolean literal
	BoolLit bool

	// field-access
	Object *Expression
	Field  string

	// call
	Callee *Expression
	Args   []*Expression

	// binary
	Op    string
	Left  *Expression
	Right *Expression

	// unary
	Operand *Expression

	// lambda
	Param string
	Body  *Expression

	// join-lookup / entity-created
	Entity string
	Pairs  []FieldValue
}

const (
	ExprIdent        = "ident"
	ExprNumber       = "number"
	ExprString       = "string"
	ExprBool         = "bool"
	ExprNull         = "null"
	ExprEnumLit      = "enum"
	ExprFieldAccess  = "field-access"
	ExprCall         = "call"
	ExprBinary       = "binary"
	ExprUnary        = "unary"
	ExprLambda       = "lambda"
	ExprJoinLookup   = "join-lookup"
	ExprEntityCreate = "entity-created"
)

// ArrayCallee is the synthetic identifier name used as the callee of a
// call expression synthesized from a bracket-delimited literal array.
const ArrayCallee = "__array"

// Walk calls fn for e and recursively for every non-nil sub-expression,
// in the order the disambiguation and enum-context passes expect to see
// them. fn is called before descending into children.
func Walk(e *Expression, fn func(*Expression)) {
	if e == nil {
		return
	}
	fn(e)
	Walk(e.Object, fn)
	Walk(e.Callee, fn)
	for _, a := range e.Args {
		Walk(a, fn)
	}
	Walk(e.Left, fn)
	Walk(e.Right, fn)
	Walk(e.Operand, fn)
	Walk(e.Body, fn)
	for _, p := range e.Pairs {
		Walk(p.Value, fn)
	}
}
