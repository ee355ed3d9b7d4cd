package eval

import (
	"fmt"
	"strings"

	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/ast"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/values"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/parser"
)

// compileEpp parses an EPP template's text into an ast.EppTemplate. It
// supports plain text with "${...}" interpolation (the same
// interpolation double-quoted strings use), "<%= expr %>" expression
// tags, "<% stmts %>" statement tags run for side effects, "<%# ... %>"
// comments, and a single leading "<%- | params | -%>" parameter tag.
// "<%-"/"-%>" trim the adjacent newline and indentation the way Puppet's
// own EPP engine does. Control-flow tags that span text (an "if" or
// "each" whose body is template text rather than a block expression)
// are not supported; such templates report a parse error from the
// unmatched opening tag's body instead of silently mis-rendering.
func compileEpp(name string, src []byte) (*ast.EppTemplate, error) {
	t := &ast.EppTemplate{}
	text := string(src)
	first := true

	for {
		idx := strings.Index(text, "<%")
		if idx < 0 {
			t.Nodes = append(t.Nodes, scanTextSegment(text)...)
			break
		}

		before := text[:idx]
		rest := text[idx+2:]

		trimLeft := strings.HasPrefix(rest, "-")
		if trimLeft {
			rest = rest[1:]
		}

		end := strings.Index(rest, "%>")
		if end < 0 {
			return nil, fmt.Errorf("epp %s: unterminated \"<%%\" tag", name)
		}
		body := rest[:end]
		after := rest[end+2:]

		trimRight := strings.HasSuffix(body, "-")
		if trimRight {
			body = body[:len(body)-1]
		}

		if trimLeft {
			before = strings.TrimRight(before, " \t")
			before = strings.TrimSuffix(before, "\n")
		}
		t.Nodes = append(t.Nodes, scanTextSegment(before)...)

		if trimRight {
			after = strings.TrimLeft(after, " \t")
			after = strings.TrimPrefix(after, "\n")
		}

		switch {
		case strings.HasPrefix(body, "#"):
			// comment tag: contributes nothing.
		case strings.HasPrefix(body, "="):
			expr, err := parser.ParseExpr(name, []byte(strings.TrimSpace(body[1:])))
			if err != nil {
				return nil, fmt.Errorf("epp %s: %w", name, err)
			}
			t.Nodes = append(t.Nodes, &ast.EppTag{Expr: expr, TrimBefore: trimLeft, TrimAfter: trimRight})
		case first && strings.HasPrefix(strings.TrimSpace(body), "|"):
			params, err := parseEppParams(name, strings.TrimSpace(body))
			if err != nil {
				return nil, err
			}
			t.Params = params
		default:
			prog, err := parser.ParseFile(name, []byte(body))
			if err != nil {
				return nil, fmt.Errorf("epp %s: %w", name, err)
			}
			t.Nodes = append(t.Nodes, &ast.EppTag{
				Stmt:       &ast.StmtList{Stmts: prog.Statements},
				TrimBefore: trimLeft,
				TrimAfter:  trimRight,
			})
		}

		first = false
		text = after
	}
	return t, nil
}

// parseEppParams parses a "| $a, $b = 1 |" parameter list. It wraps the
// pipe expression behind a throwaway bareword call (the only grammar
// position a "|params| {}" lambda block attaches to), pulls the parsed
// LambdaParams back out, and reshapes them into ast.Parameter, the form
// bindClassParams expects.
func parseEppParams(name, pipeExpr string) ([]*ast.Parameter, error) {
	prog, err := parser.ParseFile(name, []byte("__epp_params__ "+pipeExpr+" {}"))
	if err != nil {
		return nil, fmt.Errorf("epp %s: invalid parameter tag: %w", name, err)
	}
	if len(prog.Statements) != 1 {
		return nil, fmt.Errorf("epp %s: invalid parameter tag", name)
	}
	stmt, ok := prog.Statements[0].(*ast.ExprStmt)
	if !ok {
		return nil, fmt.Errorf("epp %s: invalid parameter tag", name)
	}
	call, ok := stmt.X.(*ast.CallExpr)
	if !ok || call.Lambda == nil {
		return nil, fmt.Errorf("epp %s: invalid parameter tag", name)
	}
	out := make([]*ast.Parameter, len(call.Lambda.Params))
	for i, p := range call.Lambda.Params {
		out[i] = &ast.Parameter{Type: p.Type, Name: p.Name, Default: p.Default}
	}
	return out, nil
}

// scanTextSegment splits a run of template text on "${...}" bare
// interpolations, tracking brace depth so a nested hash/block literal
// inside the interpolation doesn't end it early.
func scanTextSegment(text string) []ast.EppNode {
	var nodes []ast.EppNode
	var buf strings.Builder
	for i := 0; i < len(text); {
		if text[i] == '$' && i+1 < len(text) && text[i+1] == '{' {
			if buf.Len() > 0 {
				nodes = append(nodes, &ast.EppText{Value: buf.String()})
				buf.Reset()
			}
			depth := 1
			j := i + 2
			for ; j < len(text) && depth > 0; j++ {
				switch text[j] {
				case '{':
					depth++
				case '}':
					depth--
				}
			}
			inner := text[i+2 : j-1]
			if expr, err := parser.ParseExpr("epp-interpolation", []byte(inner)); err == nil {
				nodes = append(nodes, &ast.EppTag{Expr: expr})
			} else {
				nodes = append(nodes, &ast.EppText{Value: "${" + inner + "}"})
			}
			i = j
			continue
		}
		buf.WriteByte(text[i])
		i++
	}
	if buf.Len() > 0 {
		nodes = append(nodes, &ast.EppText{Value: buf.String()})
	}
	return nodes
}

// renderEppTemplate runs a compiled template's nodes against scope,
// which must already have tmpl.Params bound, and returns the rendered
// text.
func renderEppTemplate(e *Evaluator, tmpl *ast.EppTemplate, scope *Scope) (string, error) {
	var out strings.Builder
	for _, n := range tmpl.Nodes {
		switch x := n.(type) {
		case *ast.EppText:
			out.WriteString(x.Value)
		case *ast.EppTag:
			switch {
			case x.Expr != nil:
				v, err := e.evalExpr(x.Expr, scope)
				if err != nil {
					return "", err
				}
				out.WriteString(v.String())
			case x.Stmt != nil:
				list, ok := x.Stmt.(*ast.StmtList)
				if !ok {
					list = &ast.StmtList{Stmts: []ast.Stmt{x.Stmt}}
				}
				if _, err := e.evalBody(list.Stmts, scope, e.currentContainer); err != nil {
					return "", err
				}
			}
		}
	}
	return out.String(), nil
}

// eppArgs returns the named parameters carried by an optional final Hash
// among epp/inline_epp's trailing arguments, matching Puppet's
// epp(path, {params}) calling convention; any other trailing argument
// is ignored, and nil is returned when the last one is not a Hash.
func eppArgs(args []values.Value) map[string]values.Value {
	if len(args) == 0 {
		return nil
	}
	h, ok := args[len(args)-1].(*values.Hash)
	if !ok {
		return nil
	}
	out := make(map[string]values.Value, len(h.Pairs))
	for _, p := range h.Pairs {
		out[p.Key.String()] = p.Value
	}
	return out
}
