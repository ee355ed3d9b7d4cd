// Copyright 2018 The CUE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ast defines the abstract syntax tree produced by the parser:
// a closed set of Node interfaces, each implemented by a fixed family
// of concrete struct types. The design (closed interfaces with
// unexported marker methods, rather than a single tagged struct) is
// grounded on cue/ast.
package ast

import "github.com/puppetlabs-toy-chest/puppetcpp-sub003/token"

// Node is any element of the tree: every Expr, Decl, and Stmt is a Node.
type Node interface {
	Pos() token.Pos
	End() token.Pos
	node()
}

// Expr is anything that evaluates to a Value.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a top-level or block-level statement: a bare expression, a
// resource declaration, a relationship, a control-flow construct, or a
// class/defined-type/node/function definition.
type Stmt interface {
	Node
	stmtNode()
}

// Label is the left-hand side of a hash entry or attribute: either a
// bareword/string key or a splat/default marker.
type Label interface {
	Node
	labelNode()
}

// base embeds common start/end position storage for every concrete node.
type base struct {
	StartPos token.Pos
	EndPos   token.Pos
}

func (b base) Pos() token.Pos { return b.StartPos }
func (b base) End() token.Pos { return b.EndPos }
func (base) node()            {}

// ---------------------------------------------------------------------
// Program

// Program is the root of a parsed manifest: a sequence of top-level
// statements.
type Program struct {
	base
	Statements []Stmt
}

// ---------------------------------------------------------------------
// Literal expressions

type (
	// UndefLit is the literal `undef`.
	UndefLit struct{ base }

	// DefaultLit is the literal `default`.
	DefaultLit struct{ base }

	// BoolLit is `true` or `false`.
	BoolLit struct {
		base
		Value bool
	}

	// IntLit is an integer literal, with its original base preserved for
	// round-tripping.
	IntLit struct {
		base
		Value int64
		Base  token.NumberBase
		Lit   string
	}

	// FloatLit is a floating-point literal.
	FloatLit struct {
		base
		Value float64
		Lit   string
	}

	// RegexLit is a /pattern/ or `pattern` regular expression literal.
	RegexLit struct {
		base
		Pattern string
	}

	// BareWord is an unquoted identifier used as a value, e.g. a resource
	// title shorthand or a function-call-free statement name.
	BareWord struct {
		base
		Name string
	}
)

func (*UndefLit) exprNode()   {}
func (*DefaultLit) exprNode() {}
func (*BoolLit) exprNode()    {}
func (*IntLit) exprNode()     {}
func (*FloatLit) exprNode()   {}
func (*RegexLit) exprNode()   {}
func (*BareWord) exprNode()   {}

// StringPart is one element of a StringLit's parts: either a literal text
// run or an interpolated expression.
type StringPart interface {
	Node
	stringPartNode()
}

// StringText is a literal run within an interpolated string.
type StringText struct {
	base
	Value string
}

func (*StringText) stringPartNode() {}

// StringInterp is a `${expr}` (or bare `$var`) interpolation within a
// string.
type StringInterp struct {
	base
	Expr Expr
}

func (*StringInterp) stringPartNode() {}

// StringLit is a double- or single-quoted string, or a heredoc body. For
// non-interpolated strings Parts holds exactly one StringText.
type StringLit struct {
	base
	Parts      []StringPart
	HeredocTag string // non-empty if this literal came from a heredoc
}

func (*StringLit) exprNode() {}

// ---------------------------------------------------------------------
// Variable, array, hash

// VariableExpr references a variable by name, e.g. $x or $::facts.
type VariableExpr struct {
	base
	Name string
}

func (*VariableExpr) exprNode() {}

// ArrayExpr is an array literal `[e1, e2, ...]`.
type ArrayExpr struct {
	base
	Elements []Expr
}

func (*ArrayExpr) exprNode() {}

// HashEntry is one `key => value` pair of a hash literal.
type HashEntry struct {
	base
	Key   Expr
	Value Expr
}

func (h *HashEntry) node() {}

// HashExpr is a hash literal `{k1 => v1, k2 => v2}`.
type HashExpr struct {
	base
	Entries []*HashEntry
}

func (*HashExpr) exprNode() {}

// ---------------------------------------------------------------------
// Type expressions (parsed in type position)

// TypeRefExpr is a bare or parameterized type reference, e.g. Integer,
// Array[String], Optional[Hash[String, Integer]].
type TypeRefExpr struct {
	base
	Name       string
	Parameters []Expr
}

func (*TypeRefExpr) exprNode() {}

// ---------------------------------------------------------------------
// Operators

// UnaryExpr is a prefix operator application: -x, !x, *x (splat), @x
// (virtual resource marker used only in resource bodies, not here).
type UnaryExpr struct {
	base
	Op token.Token
	X  Expr
}

func (*UnaryExpr) exprNode() {}

// BinaryExpr is an infix operator application.
type BinaryExpr struct {
	base
	Op token.Token
	X  Expr
	Y  Expr
}

func (*BinaryExpr) exprNode() {}

// AssignExpr is `lhs = rhs`, right-associative: "a = b = c" parses as
// "a = (b = c)".
type AssignExpr struct {
	base
	LHS Expr
	RHS Expr
}

func (*AssignExpr) exprNode() {}

// InExpr is `needle in haystack`.
type InExpr struct {
	base
	Needle   Expr
	Haystack Expr
}

func (*InExpr) exprNode() {}

// MatchExpr is `x =~ /re/` or `x !~ /re/`.
type MatchExpr struct {
	base
	Negate bool
	X      Expr
	Regex  Expr
}

func (*MatchExpr) exprNode() {}

// SelectorCase is one `test => value` arm of a SelectorExpr.
type SelectorCase struct {
	base
	Test  Expr // nil for the `default` case
	Value Expr
}

func (s *SelectorCase) node() {}

// SelectorExpr is `value ? { case1 => r1, default => r2 }`.
type SelectorExpr struct {
	base
	Value Expr
	Cases []*SelectorCase
}

func (*SelectorExpr) exprNode() {}

// AttributeQuery is one `attr == value` / `attr != value` term inside a
// collector expression `<| ... |>`, with its own and/or precedence: and
// binds tighter than or inside attribute queries, the same relative
// order as in expressions.
type AttributeQuery struct {
	base
	Attr   string
	Negate bool
	Value  Expr
}

func (a *AttributeQuery) node() {}

// QueryExpr is a boolean combination of AttributeQuery terms.
type QueryExpr struct {
	base
	Op    token.Token // token.AND or token.OR; zero value for a leaf
	Query *AttributeQuery
	X, Y  *QueryExpr
}

func (q *QueryExpr) node() {}

// CollectorExpr is `Type <| query |>` (non-exported resources only) or
// `Type <<| query |>>` (exported resources as well); IsExported
// distinguishes the two spellings.
type CollectorExpr struct {
	base
	TypeName   string
	Query      *QueryExpr
	IsExported bool
}

func (*CollectorExpr) exprNode() {}

// ---------------------------------------------------------------------
// Access and call expressions

// IndexExpr is `x[i]`, used for both array/hash indexing and type
// parameterization that was not resolved during parsing as a TypeRefExpr.
type IndexExpr struct {
	base
	X     Expr
	Index Expr
}

func (*IndexExpr) exprNode() {}

// AccessExpr is `x.y` method/function-chaining call syntax, e.g.
// $arr.map |$x| { ... }.
type AccessExpr struct {
	base
	X    Expr
	Call *CallExpr
}

func (*AccessExpr) exprNode() {}

// LambdaParam is one formal parameter of a lambda or function.
type LambdaParam struct {
	base
	Type    Expr // nil if untyped
	Name    string
	Default Expr // nil if no default
	Splat   bool
}

func (p *LambdaParam) node() {}

// LambdaExpr is `|$a, $b| { ... }`, the block argument of an iteration
// function call.
type LambdaExpr struct {
	base
	Params []*LambdaParam
	Body   []Stmt
}

func (*LambdaExpr) exprNode() {}

// CallExpr is a function call, with or without parentheses, optionally
// followed by a lambda block.
type CallExpr struct {
	base
	Func   Expr
	Args   []Expr
	Lambda *LambdaExpr // nil if no block given
}

func (*CallExpr) exprNode() {}

// ---------------------------------------------------------------------
// Statements

// ExprStmt wraps a bare expression used as a statement (e.g. a function
// call statement).
type ExprStmt struct {
	base
	X Expr
}

func (*ExprStmt) stmtNode() {}

// StmtList groups several statements produced by parsing a single
// syntactic construct (e.g. a chained relationship `a -> b ~> c`) that
// must be evaluated as an ordered sequence but has no other statement
// shape of its own.
type StmtList struct {
	base
	Stmts []Stmt
}

func (*StmtList) stmtNode() {}

// IfClause is one `if`/`elsif` arm.
type IfClause struct {
	base
	Cond Expr
	Body []Stmt
}

func (c *IfClause) node() {}

// IfStmt is an `if`/`elsif`/`else` chain.
type IfStmt struct {
	base
	Clauses []*IfClause
	Else    []Stmt // nil if no else
	Unless  bool   // true if this was written as `unless`
}

func (*IfStmt) stmtNode() {}

// CaseClause is one `case` arm: a list of match values (or a single
// `default`) plus a body.
type CaseClause struct {
	base
	Values  []Expr
	Default bool
	Body    []Stmt
}

func (c *CaseClause) node() {}

// CaseStmt is a `case $x { ... }` statement.
type CaseStmt struct {
	base
	Control Expr
	Clauses []*CaseClause
}

func (*CaseStmt) stmtNode() {}

// Parameter is one formal parameter of a class, defined type, or function
// definition.
type Parameter struct {
	base
	Type    Expr // nil if untyped
	Name    string
	Default Expr // nil if required
}

func (p *Parameter) node() {}

// ClassDecl is `class name(params) inherits parent { body }`.
type ClassDecl struct {
	base
	Name    string
	Params  []*Parameter
	Parent  string // "" if no `inherits` clause
	Body    []Stmt
}

func (*ClassDecl) stmtNode() {}

// DefineDecl is `define name(params) { body }`.
type DefineDecl struct {
	base
	Name   string
	Params []*Parameter
	Body   []Stmt
}

func (*DefineDecl) stmtNode() {}

// FunctionDecl is `function name(params) >> ReturnType { body }`, a
// user-defined (Puppet-language) function.
type FunctionDecl struct {
	base
	Name       string
	Params     []*Parameter
	ReturnType Expr // nil if unspecified
	Body       []Stmt
}

func (*FunctionDecl) stmtNode() {}

// NodeMatch is one matcher in a `node` statement's header: a literal
// hostname, a regex, or `default`.
type NodeMatch struct {
	base
	Name    string // set for literal hostname matches
	Regex   string // set for /regex/ matches
	Default bool
}

func (n *NodeMatch) node() {}

// NodeDecl is `node 'name1', /regex/, default { body }`.
type NodeDecl struct {
	base
	Matches []*NodeMatch
	Parent  string // "" if no `inherits` clause
	Body    []Stmt
}

func (*NodeDecl) stmtNode() {}

// ResourceAttr is one `key => value` attribute inside a resource body, or
// an attribute splat `* => $hash`.
type ResourceAttr struct {
	base
	Name  string // "" when Splat is true
	Splat bool
	Value Expr
	// AddOp is true for `+>` (append) rather than `=>` (set), used for
	// resource-default and resource-override merge semantics.
	AddOp bool
}

func (a *ResourceAttr) node() {}

// ResourceInstance is one `title: { attrs }` entry of a resource
// declaration.
type ResourceInstance struct {
	base
	Title Expr
	Attrs []*ResourceAttr
}

func (r *ResourceInstance) node() {}

// ResourceDecl is `[@[@]]type { instance1: {...} instance2: {...} }`.
type ResourceDecl struct {
	base
	TypeName  string
	Virtual   bool
	Exported  bool
	Instances []*ResourceInstance
	// IsDefaults marks a resource-default statement. The parser never
	// sets it: `Type { ... }` is parsed as an ordinary declaration.
	IsDefaults bool
}

func (*ResourceDecl) stmtNode() {}

// ResourceOverride is `Resource['title'] { attr => value }`, referencing
// an existing resource by its reference expression.
type ResourceOverride struct {
	base
	Ref   Expr
	Attrs []*ResourceAttr
}

func (*ResourceOverride) stmtNode() {}

// RelationshipStmt is `a -> b`, `a <- b`, `a ~> b`, or `a <~ b`, chaining
// resource references (or expressions producing them) with an edge kind.
type RelationshipStmt struct {
	base
	Op   token.Token // one of IN_EDGE, IN_EDGE_SUB, OUT_EDGE, OUT_EDGE_SUB
	X, Y Expr
}

func (*RelationshipStmt) stmtNode() {}

// EppText is a literal text run between EPP template tags.
type EppText struct {
	base
	Value string
}

func (e *EppText) node() {}

// EppTag is an interpolated `<%= expr %>` or statement `<% stmt %>` tag.
type EppTag struct {
	base
	Expr       Expr // set for <%= %> tags
	Stmt       Stmt // set for <% %> tags
	TrimBefore bool
	TrimAfter  bool
}

func (e *EppTag) node() {}

// EppNode is a text run or a tag within an EPP template body.
type EppNode interface {
	Node
	eppNode()
}

func (*EppText) eppNode() {}
func (*EppTag) eppNode()  {}

// EppTemplate is a parsed EPP template: an optional parameter list
// followed by a sequence of text/tag nodes, compiled by
// internal/core/eval from a template string rather than produced by the
// manifest parser.
type EppTemplate struct {
	base
	Params []*Parameter
	Nodes  []EppNode
}

func (*EppTemplate) node() {}
