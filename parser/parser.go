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

// Package parser implements a hand-written recursive-descent parser with
// precedence climbing over the scanner's token stream, producing an
// ast.Program. The overall shape — a parser struct holding only the
// current token, advanced by next(), with error
// recovery that records a diagnostic and resynchronizes at the next
// statement boundary — is grounded on cue/parser's parser.go.
package parser

import (
	"fmt"

	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/ast"
	perrors "github.com/puppetlabs-toy-chest/puppetcpp-sub003/errors"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/scanner"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/token"
)

type parser struct {
	sc   *scanner.Scanner
	errs perrors.List

	tok scanner.Token // current token
	src []byte        // full source, needed for RescanRegexAt offsets
}

// ParseFile parses the named manifest source and returns its AST. Any
// lex or parse errors are returned as a perrors.List (via errs.Err()),
// with partial results still returned in prog so callers can report
// multiple errors per compilation: the parser resyncs to the next
// statement boundary and keeps going after a statement-level error
// instead of aborting on the first one.
func ParseFile(filename string, src []byte) (*ast.Program, error) {
	f := token.NewFile(filename, len(src))
	f.SetLinesForContent(src)

	p := &parser{src: src}
	var sc scanner.Scanner
	p.sc = &sc
	sc.Init(f, src, func(offset, highlightLen int, msg string) {
		p.errs.Add(perrors.Newf(perrors.LexError, f.Pos(offset), "%s", msg))
	}, 0)
	p.next()

	prog := &ast.Program{}
	start := p.tok.Pos
	for p.tok.Tok != token.EOF {
		stmt := p.parseStmt()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
	}
	prog.StartPos = start
	prog.EndPos = p.tok.Pos
	return prog, p.errs.Err()
}

// ParseExpr parses a single standalone expression, used by EPP template
// compilation to turn a "<%= ... %>" tag's body into an ast.Expr without
// going through a full statement list.
func ParseExpr(filename string, src []byte) (ast.Expr, error) {
	f := token.NewFile(filename, len(src))
	f.SetLinesForContent(src)

	p := &parser{src: src}
	var sc scanner.Scanner
	p.sc = &sc
	sc.Init(f, src, func(offset, highlightLen int, msg string) {
		p.errs.Add(perrors.Newf(perrors.LexError, f.Pos(offset), "%s", msg))
	}, 0)
	p.next()

	expr := p.parseExpr(token.LowestPrec)
	if p.tok.Tok != token.EOF {
		p.errorf("expected end of expression, found %s", describe(p.tok))
	}
	return expr, p.errs.Err()
}

func (p *parser) next() { p.tok = p.sc.Scan() }

func (p *parser) pos() token.Pos { return p.tok.Pos }

// errorf records a parse error at the current token's position using the
// "expected X, found Y" message form when called from expect; general
// diagnostics use this directly.
func (p *parser) errorf(format string, args ...interface{}) {
	p.errs.Add(perrors.Newf(perrors.ParseError, p.pos(), format, args...))
}

func (p *parser) expect(tok token.Token) token.Pos {
	pos := p.pos()
	if p.tok.Tok != tok {
		p.errorf("expected %s, found %s", tok, describe(p.tok))
	} else {
		p.next()
	}
	return pos
}

func describe(t scanner.Token) string {
	if t.Lit != "" && (t.Tok == token.IDENT || t.Tok == token.TYPE_NAME || t.Tok == token.VARIABLE) {
		return fmt.Sprintf("%q", t.Lit)
	}
	return t.Tok.String()
}

// resync skips tokens until a likely statement boundary, used for error
// recovery so one malformed statement does not cascade into spurious
// downstream errors.
func (p *parser) resync() {
	for {
		switch p.tok.Tok {
		case token.EOF, token.SEMICOLON, token.RBRACE:
			return
		case token.IF, token.UNLESS, token.CASE, token.CLASS, token.DEFINE, token.NODE, token.FUNCTION:
			return
		}
		p.next()
	}
}

// ---------------------------------------------------------------------
// Statements

func (p *parser) parseStmt() ast.Stmt {
	switch p.tok.Tok {
	case token.SEMICOLON:
		p.next()
		return nil
	case token.IF, token.UNLESS:
		return p.parseIfStmt()
	case token.CASE:
		return p.parseCaseStmt()
	case token.CLASS:
		return p.parseClassDecl()
	case token.DEFINE:
		return p.parseDefineDecl()
	case token.FUNCTION:
		return p.parseFunctionDecl()
	case token.NODE:
		return p.parseNodeDecl()
	case token.TYPE_NAME:
		return p.parseTypeNameLeadStmt()
	case token.AT, token.ATAT:
		return p.parseResourceDecl()
	default:
		return p.parseExprOrRelationshipStmt()
	}
}

func (p *parser) parseBlock() []ast.Stmt {
	p.expect(token.LBRACE)
	var stmts []ast.Stmt
	for p.tok.Tok != token.RBRACE && p.tok.Tok != token.EOF {
		before := p.tok
		s := p.parseStmt()
		if s != nil {
			stmts = append(stmts, s)
		}
		if p.tok == before {
			// parseStmt made no progress; force advancement to avoid an
			// infinite loop on unexpected input.
			p.errorf("unexpected %s", describe(p.tok))
			p.next()
			p.resync()
		}
	}
	p.expect(token.RBRACE)
	return stmts
}

func (p *parser) parseIfStmt() ast.Stmt {
	start := p.pos()
	unless := p.tok.Tok == token.UNLESS
	p.next()

	stmt := &ast.IfStmt{Unless: unless}
	cond := p.parseExpr(token.LowestPrec)
	body := p.parseBlock()
	stmt.Clauses = append(stmt.Clauses, &ast.IfClause{Cond: cond, Body: body})

	for !unless && p.tok.Tok == token.ELSIF {
		p.next()
		c := p.parseExpr(token.LowestPrec)
		b := p.parseBlock()
		stmt.Clauses = append(stmt.Clauses, &ast.IfClause{Cond: c, Body: b})
	}
	if p.tok.Tok == token.ELSE {
		p.next()
		stmt.Else = p.parseBlock()
	}
	stmt.StartPos = start
	stmt.EndPos = p.pos()
	return stmt
}

func (p *parser) parseCaseStmt() ast.Stmt {
	start := p.pos()
	p.next()
	control := p.parseExpr(token.LowestPrec)
	p.expect(token.LBRACE)
	cs := &ast.CaseStmt{Control: control}
	for p.tok.Tok != token.RBRACE && p.tok.Tok != token.EOF {
		clause := &ast.CaseClause{}
		clauseStart := p.pos()
		if p.tok.Tok == token.DEFAULT {
			clause.Default = true
			p.next()
		} else {
			clause.Values = append(clause.Values, p.parseExpr(token.LowestPrec))
			for p.tok.Tok == token.COMMA {
				p.next()
				clause.Values = append(clause.Values, p.parseExpr(token.LowestPrec))
			}
		}
		p.expect(token.COLON)
		clause.Body = p.parseBlock()
		clause.StartPos = clauseStart
		clause.EndPos = p.pos()
		cs.Clauses = append(cs.Clauses, clause)
	}
	p.expect(token.RBRACE)
	cs.StartPos = start
	cs.EndPos = p.pos()
	return cs
}

func (p *parser) parseParamList() []*ast.Parameter {
	p.expect(token.LPAREN)
	var params []*ast.Parameter
	for p.tok.Tok != token.RPAREN && p.tok.Tok != token.EOF {
		param := &ast.Parameter{StartPos: p.pos()}
		if p.tok.Tok != token.VARIABLE {
			param.Type = p.parseTypeExpr()
		}
		nameTok := p.tok
		p.expect(token.VARIABLE)
		param.Name = nameTok.Lit
		if p.tok.Tok == token.ASSIGN {
			p.next()
			param.Default = p.parseExpr(token.AssignPrec + 1)
		}
		param.EndPos = p.pos()
		params = append(params, param)
		if p.tok.Tok == token.COMMA {
			p.next()
		} else {
			break
		}
	}
	p.expect(token.RPAREN)
	return params
}

func (p *parser) parseClassDecl() ast.Stmt {
	start := p.pos()
	p.next()
	nameTok := p.tok
	p.next()
	decl := &ast.ClassDecl{Name: nameTok.Lit}
	if p.tok.Tok == token.LPAREN {
		decl.Params = p.parseParamList()
	}
	if p.tok.Tok == token.INHERITS {
		p.next()
		parentTok := p.tok
		p.next()
		decl.Parent = parentTok.Lit
	}
	decl.Body = p.parseBlock()
	decl.StartPos = start
	decl.EndPos = p.pos()
	return decl
}

func (p *parser) parseDefineDecl() ast.Stmt {
	start := p.pos()
	p.next()
	nameTok := p.tok
	p.next()
	decl := &ast.DefineDecl{Name: nameTok.Lit}
	if p.tok.Tok == token.LPAREN {
		decl.Params = p.parseParamList()
	}
	decl.Body = p.parseBlock()
	decl.StartPos = start
	decl.EndPos = p.pos()
	return decl
}

func (p *parser) parseFunctionDecl() ast.Stmt {
	start := p.pos()
	p.next()
	nameTok := p.tok
	p.next()
	decl := &ast.FunctionDecl{Name: nameTok.Lit}
	if p.tok.Tok == token.LPAREN {
		decl.Params = p.parseParamList()
	}
	if p.tok.Tok == token.SHR {
		p.next()
		decl.ReturnType = p.parseTypeExpr()
	}
	decl.Body = p.parseBlock()
	decl.StartPos = start
	decl.EndPos = p.pos()
	return decl
}

func (p *parser) parseNodeDecl() ast.Stmt {
	start := p.pos()
	p.next()
	decl := &ast.NodeDecl{}
	for {
		m := &ast.NodeMatch{StartPos: p.pos()}
		switch p.tok.Tok {
		case token.DEFAULT:
			m.Default = true
			p.next()
		case token.REGEX:
			m.Regex = p.tok.Lit
			p.next()
		case token.STRING:
			m.Name = p.tok.Lit
			p.next()
		default:
			m.Name = p.tok.Lit
			p.next()
		}
		m.EndPos = p.pos()
		decl.Matches = append(decl.Matches, m)
		if p.tok.Tok == token.COMMA {
			p.next()
			continue
		}
		break
	}
	if p.tok.Tok == token.INHERITS {
		p.next()
		decl.Parent = p.tok.Lit
		p.next()
	}
	decl.Body = p.parseBlock()
	decl.StartPos = start
	decl.EndPos = p.pos()
	return decl
}

// parseTypeNameLeadStmt disambiguates the statements that begin with a
// TYPE_NAME token: a resource declaration (`File { ... }`), a resource
// override (`File['x'] { ... }`), a collector expression used as a
// statement, or a plain type-valued expression statement.
func (p *parser) parseTypeNameLeadStmt() ast.Stmt {
	start := p.pos()
	name := p.tok.Lit
	p.next()

	if p.tok.Tok == token.LBRACE {
		return p.finishResourceDecl(start, name, false, false)
	}

	expr := p.parsePostfixFromTypeName(start, name)
	if p.tok.Tok == token.LBRACE {
		ref := expr
		p.next()
		ov := &ast.ResourceOverride{Ref: ref, StartPos: start}
		for p.tok.Tok != token.RBRACE && p.tok.Tok != token.EOF {
			ov.Attrs = append(ov.Attrs, p.parseResourceAttr())
			if p.tok.Tok == token.COMMA {
				p.next()
			} else {
				break
			}
		}
		p.expect(token.RBRACE)
		ov.EndPos = p.pos()
		return ov
	}
	return p.finishExprStmt(expr)
}

func (p *parser) parsePostfixFromTypeName(start token.Pos, name string) ast.Expr {
	var expr ast.Expr = &ast.TypeRefExpr{Name: name, StartPos: start, EndPos: p.pos()}
	if p.tok.Tok == token.LBRACK {
		expr = p.parseTypeParamsOrIndex(start, expr)
	}
	return p.parsePostfix(expr)
}

func (p *parser) parseTypeParamsOrIndex(start token.Pos, base ast.Expr) ast.Expr {
	p.next() // consume '['
	var elems []ast.Expr
	for p.tok.Tok != token.RBRACK && p.tok.Tok != token.EOF {
		elems = append(elems, p.parseExpr(token.AssignPrec+1))
		if p.tok.Tok == token.COMMA {
			p.next()
		} else {
			break
		}
	}
	p.expect(token.RBRACK)
	if tr, ok := base.(*ast.TypeRefExpr); ok {
		tr.Parameters = elems
		tr.EndPos = p.pos()
		return tr
	}
	idx := &ast.IndexExpr{X: base, StartPos: start, EndPos: p.pos()}
	if len(elems) > 0 {
		idx.Index = elems[0]
	}
	return idx
}

// parseResourceDecl parses `@type { ... }` (virtual) or `@@type { ... }`
// (exported) resource declarations.
func (p *parser) parseResourceDecl() ast.Stmt {
	start := p.pos()
	exported := p.tok.Tok == token.ATAT
	p.next()
	nameTok := p.tok
	p.next()
	return p.finishResourceDecl(start, nameTok.Lit, true, exported)
}

func (p *parser) finishResourceDecl(start token.Pos, typeName string, virtual, exported bool) ast.Stmt {
	decl := &ast.ResourceDecl{TypeName: typeName, Virtual: virtual, Exported: exported, StartPos: start}
	p.expect(token.LBRACE)
	for p.tok.Tok != token.RBRACE && p.tok.Tok != token.EOF {
		inst := &ast.ResourceInstance{StartPos: p.pos()}
		if p.tok.Tok == token.MUL && !decl.IsDefaults {
			// an instance that starts with `*` is given no Title.
		} else {
			inst.Title = p.parseExpr(token.AssignPrec + 1)
		}
		p.expect(token.COLON)
		for p.tok.Tok != token.SEMICOLON && p.tok.Tok != token.RBRACE && p.tok.Tok != token.EOF {
			inst.Attrs = append(inst.Attrs, p.parseResourceAttr())
			if p.tok.Tok == token.COMMA {
				p.next()
			} else {
				break
			}
		}
		inst.EndPos = p.pos()
		decl.Instances = append(decl.Instances, inst)
		if p.tok.Tok == token.SEMICOLON {
			p.next()
		} else {
			break
		}
	}
	p.expect(token.RBRACE)
	decl.EndPos = p.pos()
	return decl
}

func (p *parser) parseResourceAttr() *ast.ResourceAttr {
	attr := &ast.ResourceAttr{StartPos: p.pos()}
	if p.tok.Tok == token.MUL {
		attr.Splat = true
		p.next()
	} else {
		attr.Name = p.tok.Lit
		p.next()
	}
	switch p.tok.Tok {
	case token.PARROW:
		attr.AddOp = true
		p.next()
	case token.ARROW_FAT:
		p.next()
	default:
		p.errorf("expected => or +>, found %s", describe(p.tok))
	}
	attr.Value = p.parseExpr(token.AssignPrec + 1)
	attr.EndPos = p.pos()
	return attr
}

// parseExprOrRelationshipStmt parses a bare expression statement, then
// checks for a trailing chained relationship operator, which can string
// together arbitrarily many resource references: `A -> B ~> C` becomes
// two RelationshipStmts sharing node B, wrapped in a StmtList.
func (p *parser) parseExprOrRelationshipStmt() ast.Stmt {
	expr := p.parseExpr(token.LowestPrec)
	return p.finishExprStmt(expr)
}

func (p *parser) finishExprStmt(expr ast.Expr) ast.Stmt {
	if !isRelOp(p.tok.Tok) {
		return &ast.ExprStmt{X: expr, StartPos: expr.Pos(), EndPos: expr.End()}
	}
	var rels []ast.Stmt
	cur := expr
	for isRelOp(p.tok.Tok) {
		op := p.tok.Tok
		p.next()
		rhs := p.parseExpr(token.RelPrec + 1)
		rels = append(rels, &ast.RelationshipStmt{Op: op, X: cur, Y: rhs, StartPos: cur.Pos(), EndPos: p.pos()})
		cur = rhs
	}
	if len(rels) == 1 {
		return rels[0]
	}
	return &ast.StmtList{Stmts: rels, StartPos: expr.Pos(), EndPos: p.pos()}
}

func isRelOp(t token.Token) bool {
	switch t {
	case token.IN_EDGE, token.IN_EDGE_SUB, token.OUT_EDGE, token.OUT_EDGE_SUB:
		return true
	}
	return false
}

// ---------------------------------------------------------------------
// Expressions: precedence climbing over token.go's precedence table,
// with ASSIGN as the sole right-associative operator.

func (p *parser) parseExpr(minPrec int) ast.Expr {
	lhs := p.parseUnary()
	for {
		op := p.tok.Tok
		prec := op.Precedence()
		if prec == token.LowestPrec || prec < minPrec {
			if op == token.IN {
				prec = token.InPrec
			} else {
				return lhs
			}
		}
		p.next()

		nextMin := prec + 1
		if op.IsRightAssociative() {
			nextMin = prec
		}
		rhs := p.parseExpr(nextMin)

		switch op {
		case token.ASSIGN:
			lhs = &ast.AssignExpr{LHS: lhs, RHS: rhs, StartPos: lhs.Pos(), EndPos: p.pos()}
		case token.IN:
			lhs = &ast.InExpr{Needle: lhs, Haystack: rhs, StartPos: lhs.Pos(), EndPos: p.pos()}
		case token.MATCH, token.NMATCH:
			lhs = &ast.MatchExpr{Negate: op == token.NMATCH, X: lhs, Regex: rhs, StartPos: lhs.Pos(), EndPos: p.pos()}
		default:
			lhs = &ast.BinaryExpr{Op: op, X: lhs, Y: rhs, StartPos: lhs.Pos(), EndPos: p.pos()}
		}
	}
}

func (p *parser) parseUnary() ast.Expr {
	switch p.tok.Tok {
	case token.SUB, token.NOT, token.MUL:
		op := p.tok.Tok
		pos := p.pos()
		p.next()
		x := p.parseUnary()
		return &ast.UnaryExpr{Op: op, X: x, StartPos: pos, EndPos: p.pos()}
	}
	return p.parseSelector()
}

func (p *parser) parseSelector() ast.Expr {
	x := p.parsePrimaryWithPostfix()
	if p.tok.Tok == token.QUESTION {
		start := x.Pos()
		p.next()
		p.expect(token.LBRACE)
		sel := &ast.SelectorExpr{Value: x, StartPos: start}
		for p.tok.Tok != token.RBRACE && p.tok.Tok != token.EOF {
			c := &ast.SelectorCase{StartPos: p.pos()}
			if p.tok.Tok == token.DEFAULT {
				p.next()
			} else {
				c.Test = p.parseExpr(token.AssignPrec + 1)
			}
			p.expect(token.ARROW_FAT)
			c.Value = p.parseExpr(token.AssignPrec + 1)
			c.EndPos = p.pos()
			sel.Cases = append(sel.Cases, c)
			if p.tok.Tok == token.COMMA {
				p.next()
			} else {
				break
			}
		}
		p.expect(token.RBRACE)
		sel.EndPos = p.pos()
		return sel
	}
	return x
}

func (p *parser) parsePrimaryWithPostfix() ast.Expr {
	x := p.parsePrimary()
	return p.parsePostfix(x)
}

func (p *parser) parsePostfix(x ast.Expr) ast.Expr {
	for {
		switch p.tok.Tok {
		case token.LBRACK:
			start := x.Pos()
			x = p.parseTypeParamsOrIndex(start, x)
		case token.PERIOD:
			p.next()
			fnName := p.tok.Lit
			fnPos := p.pos()
			p.next()
			call := &ast.CallExpr{Func: &ast.BareWord{Name: fnName, StartPos: fnPos, EndPos: p.pos()}, StartPos: fnPos}
			if p.tok.Tok == token.LPAREN {
				p.next()
				call.Args = p.parseArgList()
				p.expect(token.RPAREN)
			}
			if p.tok.Tok == token.PIPE {
				call.Lambda = p.parseLambda()
			}
			call.EndPos = p.pos()
			x = &ast.AccessExpr{X: x, Call: call, StartPos: x.Pos(), EndPos: p.pos()}
		default:
			return x
		}
	}
}

func (p *parser) parseArgList() []ast.Expr {
	var args []ast.Expr
	for p.tok.Tok != token.RPAREN && p.tok.Tok != token.EOF {
		args = append(args, p.parseExpr(token.AssignPrec+1))
		if p.tok.Tok == token.COMMA {
			p.next()
		} else {
			break
		}
	}
	return args
}

func (p *parser) parseLambda() *ast.LambdaExpr {
	start := p.pos()
	p.expect(token.PIPE)
	var params []*ast.LambdaParam
	for p.tok.Tok != token.PIPE && p.tok.Tok != token.EOF {
		lp := &ast.LambdaParam{StartPos: p.pos()}
		if p.tok.Tok == token.MUL {
			lp.Splat = true
			p.next()
		}
		if p.tok.Tok != token.VARIABLE {
			lp.Type = p.parseTypeExpr()
		}
		lp.Name = p.tok.Lit
		p.expect(token.VARIABLE)
		if p.tok.Tok == token.ASSIGN {
			p.next()
			lp.Default = p.parseExpr(token.AssignPrec + 1)
		}
		lp.EndPos = p.pos()
		params = append(params, lp)
		if p.tok.Tok == token.COMMA {
			p.next()
		} else {
			break
		}
	}
	p.expect(token.PIPE)
	body := p.parseBlock()
	return &ast.LambdaExpr{Params: params, Body: body, StartPos: start, EndPos: p.pos()}
}

// parseTypeExpr parses a type expression in type position: only
// TYPE_NAME-led expressions, optionally bracket-parameterized, are
// valid here.
func (p *parser) parseTypeExpr() ast.Expr {
	if p.tok.Tok != token.TYPE_NAME {
		p.errorf("expected a type name, found %s", describe(p.tok))
		return &ast.TypeRefExpr{Name: "Any", StartPos: p.pos(), EndPos: p.pos()}
	}
	start := p.pos()
	name := p.tok.Lit
	p.next()
	tr := &ast.TypeRefExpr{Name: name, StartPos: start, EndPos: p.pos()}
	if p.tok.Tok == token.LBRACK {
		return p.parseTypeParamsOrIndex(start, tr)
	}
	return tr
}

func (p *parser) parsePrimary() ast.Expr {
	start := p.pos()
	switch p.tok.Tok {
	case token.INT:
		lit := p.tok.Lit
		base := p.tok.Base
		v, err := parseIntLit(lit, base)
		if err != nil {
			p.errorf("malformed integer literal %q", lit)
		}
		p.next()
		return &ast.IntLit{Value: v, Base: base, Lit: lit, StartPos: start, EndPos: p.pos()}
	case token.FLOAT:
		lit := p.tok.Lit
		v, err := parseFloatLit(lit)
		if err != nil {
			p.errorf("malformed float literal %q", lit)
		}
		p.next()
		return &ast.FloatLit{Value: v, Lit: lit, StartPos: start, EndPos: p.pos()}
	case token.STRING:
		lit := p.tok.Lit
		p.next()
		return &ast.StringLit{Parts: []ast.StringPart{&ast.StringText{Value: lit, StartPos: start, EndPos: p.pos()}}, StartPos: start, EndPos: p.pos()}
	case token.STRING_START:
		return p.parseInterpolatedString(start)
	case token.REGEX:
		lit := p.tok.Lit
		p.next()
		return &ast.RegexLit{Pattern: lit, StartPos: start, EndPos: p.pos()}
	case token.QUO:
		// A '/' reached in expression position (rather than as a binary
		// division operator) can only be the start of a /pattern/ regex
		// literal; rescan from here using the scanner's ability to restart
		// from a saved byte offset.
		regexTok := p.sc.RescanRegexAt(start.Offset())
		p.next()
		return &ast.RegexLit{Pattern: regexTok.Lit, StartPos: start, EndPos: p.pos()}
	case token.VARIABLE:
		name := p.tok.Lit
		p.next()
		return &ast.VariableExpr{Name: name, StartPos: start, EndPos: p.pos()}
	case token.TRUE, token.FALSE:
		v := p.tok.Tok == token.TRUE
		p.next()
		return &ast.BoolLit{Value: v, StartPos: start, EndPos: p.pos()}
	case token.UNDEF:
		p.next()
		return &ast.UndefLit{StartPos: start, EndPos: p.pos()}
	case token.DEFAULT:
		p.next()
		return &ast.DefaultLit{StartPos: start, EndPos: p.pos()}
	case token.TYPE_NAME:
		name := p.tok.Lit
		p.next()
		return p.parseCollectorOrTypeTail(start, name)
	case token.LBRACK:
		p.next()
		arr := &ast.ArrayExpr{StartPos: start}
		for p.tok.Tok != token.RBRACK && p.tok.Tok != token.EOF {
			arr.Elements = append(arr.Elements, p.parseExpr(token.AssignPrec+1))
			if p.tok.Tok == token.COMMA {
				p.next()
			} else {
				break
			}
		}
		p.expect(token.RBRACK)
		arr.EndPos = p.pos()
		return arr
	case token.LBRACE:
		p.next()
		h := &ast.HashExpr{StartPos: start}
		for p.tok.Tok != token.RBRACE && p.tok.Tok != token.EOF {
			key := p.parseExpr(token.AssignPrec + 1)
			p.expect(token.ARROW_FAT)
			val := p.parseExpr(token.AssignPrec + 1)
			h.Entries = append(h.Entries, &ast.HashEntry{Key: key, Value: val, StartPos: key.Pos(), EndPos: p.pos()})
			if p.tok.Tok == token.COMMA {
				p.next()
			} else {
				break
			}
		}
		p.expect(token.RBRACE)
		h.EndPos = p.pos()
		return h
	case token.LPAREN:
		p.next()
		x := p.parseExpr(token.LowestPrec)
		p.expect(token.RPAREN)
		return x
	case token.PIPE:
		lambda := p.parseLambda()
		return lambda
	case token.IDENT, token.STATEMENT_CALL:
		return p.parseIdentOrCall(start)
	default:
		p.errorf("unexpected %s", describe(p.tok))
		p.next()
		return &ast.UndefLit{StartPos: start, EndPos: p.pos()}
	}
}

func (p *parser) parseCollectorOrTypeTail(start token.Pos, name string) ast.Expr {
	switch p.tok.Tok {
	case token.LPAREN:
		// Integer("42"), Float("3.14"), and similar: a type name used in
		// call position is a string-to-numeric conversion function, not a
		// bracket-parameterized type value.
		p.next()
		call := &ast.CallExpr{Func: &ast.BareWord{Name: name, StartPos: start, EndPos: start}, StartPos: start}
		call.Args = p.parseArgList()
		p.expect(token.RPAREN)
		if p.tok.Tok == token.PIPE {
			call.Lambda = p.parseLambda()
		}
		call.EndPos = p.pos()
		return call
	case token.LCOLL, token.LCOLLX:
		exported := p.tok.Tok == token.LCOLLX
		closeTok := token.RCOLL
		if exported {
			closeTok = token.RCOLLX
		}
		p.next()
		coll := &ast.CollectorExpr{TypeName: name, IsExported: exported, StartPos: start}
		if p.tok.Tok != closeTok {
			coll.Query = p.parseQueryExpr()
		}
		p.expect(closeTok)
		coll.EndPos = p.pos()
		return coll
	case token.LBRACK:
		return p.parseTypeParamsOrIndex(start, &ast.TypeRefExpr{Name: name, StartPos: start, EndPos: p.pos()})
	default:
		return &ast.TypeRefExpr{Name: name, StartPos: start, EndPos: p.pos()}
	}
}

// parseQueryExpr parses a collector query with its own precedence climb:
// inside `<| ... |>`, `and` binds tighter than `or`, the same relative
// order as in the expression grammar, and unparenthesized mixing of
// `and`/`or` is read left-to-right by precedence level.
func (p *parser) parseQueryExpr() *ast.QueryExpr {
	return p.parseQueryOr()
}

func (p *parser) parseQueryOr() *ast.QueryExpr {
	x := p.parseQueryAnd()
	for p.tok.Tok == token.OR {
		p.next()
		y := p.parseQueryAnd()
		x = &ast.QueryExpr{Op: token.OR, X: x, Y: y}
	}
	return x
}

func (p *parser) parseQueryAnd() *ast.QueryExpr {
	x := p.parseQueryTerm()
	for p.tok.Tok == token.AND {
		p.next()
		y := p.parseQueryTerm()
		x = &ast.QueryExpr{Op: token.AND, X: x, Y: y}
	}
	return x
}

func (p *parser) parseQueryTerm() *ast.QueryExpr {
	if p.tok.Tok == token.LPAREN {
		p.next()
		inner := p.parseQueryExpr()
		p.expect(token.RPAREN)
		return inner
	}
	attr := p.tok.Lit
	p.next()
	negate := false
	switch p.tok.Tok {
	case token.EQL:
		p.next()
	case token.NEQ:
		negate = true
		p.next()
	default:
		p.errorf("expected == or != in attribute query, found %s", describe(p.tok))
	}
	val := p.parseExpr(token.AssignPrec + 1)
	return &ast.QueryExpr{Query: &ast.AttributeQuery{Attr: attr, Negate: negate, Value: val}}
}

// parseIdentOrCall parses a bareword identifier, which is either a
// function call (`include foo` / `foo(bar)`), or a plain bareword value.
func (p *parser) parseIdentOrCall(start token.Pos) ast.Expr {
	name := p.tok.Lit
	p.next()

	if p.tok.Tok == token.LPAREN {
		p.next()
		args := p.parseArgList()
		p.expect(token.RPAREN)
		call := &ast.CallExpr{Func: &ast.BareWord{Name: name, StartPos: start, EndPos: start}, Args: args, StartPos: start}
		if p.tok.Tok == token.PIPE {
			call.Lambda = p.parseLambda()
		}
		call.EndPos = p.pos()
		return call
	}

	// Puppet's parenthesis-free statement-call form: `include foo, bar`.
	if canStartExpr(p.tok.Tok) {
		call := &ast.CallExpr{Func: &ast.BareWord{Name: name, StartPos: start, EndPos: start}, StartPos: start}
		call.Args = append(call.Args, p.parseExpr(token.AssignPrec+1))
		for p.tok.Tok == token.COMMA {
			p.next()
			call.Args = append(call.Args, p.parseExpr(token.AssignPrec+1))
		}
		if p.tok.Tok == token.PIPE {
			call.Lambda = p.parseLambda()
		}
		call.EndPos = p.pos()
		return call
	}

	if p.tok.Tok == token.PIPE {
		call := &ast.CallExpr{Func: &ast.BareWord{Name: name, StartPos: start, EndPos: start}, StartPos: start}
		call.Lambda = p.parseLambda()
		call.EndPos = p.pos()
		return call
	}

	return &ast.BareWord{Name: name, StartPos: start, EndPos: p.pos()}
}

func canStartExpr(t token.Token) bool {
	switch t {
	case token.INT, token.FLOAT, token.STRING, token.STRING_START, token.VARIABLE,
		token.TRUE, token.FALSE, token.UNDEF, token.DEFAULT, token.TYPE_NAME,
		token.LBRACK, token.LBRACE, token.REGEX, token.QUO, token.IDENT, token.SUB, token.NOT:
		return true
	}
	return false
}

// parseInterpolatedString drives the scanner's ScanStringText loop,
// recursively re-entering the expression parser for each "${...}"
// interpolation.
func (p *parser) parseInterpolatedString(start token.Pos) ast.Expr {
	lit := &ast.StringLit{StartPos: start}
	for {
		chunk := p.sc.ScanStringText()
		switch chunk.Tok {
		case token.STRING_TEXT:
			lit.Parts = append(lit.Parts, &ast.StringText{Value: chunk.Lit, StartPos: chunk.Pos, EndPos: chunk.Pos})
		case token.INTERP_START:
			p.next()
			expr := p.parseExpr(token.LowestPrec)
			lit.Parts = append(lit.Parts, &ast.StringInterp{Expr: expr, StartPos: chunk.Pos, EndPos: p.pos()})
			if p.tok.Tok != token.INTERP_END {
				p.errorf("expected end of interpolation, found %s", describe(p.tok))
			}
		case token.STRING_END:
			p.next()
			lit.EndPos = p.pos()
			return lit
		default:
			p.errorf("unterminated string literal")
			lit.EndPos = p.pos()
			return lit
		}
	}
}

func parseIntLit(lit string, base token.NumberBase) (int64, error) {
	var s string
	var radix int
	switch base {
	case token.Hex:
		s, radix = lit[2:], 16
	case token.Octal:
		if len(lit) > 1 {
			s, radix = lit[1:], 8
		} else {
			s, radix = lit, 10
		}
	default:
		s, radix = lit, 10
	}
	var v int64
	for _, c := range s {
		d := digitValue(c)
		if d < 0 || d >= radix {
			return 0, fmt.Errorf("invalid digit %q", c)
		}
		v = v*int64(radix) + int64(d)
	}
	return v, nil
}

func digitValue(c rune) int {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0')
	case 'a' <= c && c <= 'f':
		return int(c-'a') + 10
	case 'A' <= c && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

func parseFloatLit(lit string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(lit, "%g", &f)
	return f, err
}
