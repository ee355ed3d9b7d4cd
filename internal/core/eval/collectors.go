package eval

import (
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/ast"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/catalog"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/values"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/token"
)

// evalCollector evaluates a `Type <| query |>` or `Type <<| query |>>`
// expression: it matches candidate resources of the given type against
// the attribute query, realizes every match (clearing its Virtual
// flag), and returns the matches as an array of resource references.
func (e *Evaluator) evalCollector(x *ast.CollectorExpr, scope *Scope) (values.Value, error) {
	typeName := catalog.TitleCase(x.TypeName)
	var refs []values.Value
	for _, res := range e.Catalog.Resources() {
		if res.Key.Type != typeName {
			continue
		}
		if res.Exported && !x.IsExported {
			continue
		}
		match, err := e.evalQuery(x.Query, res, scope)
		if err != nil {
			return nil, err
		}
		if !match {
			continue
		}
		res.Virtual = false
		refs = append(refs, values.ResourceRef{TypeName: res.Key.Type, Title: res.Key.Title})
	}
	return values.NewArray(refs...), nil
}

// evalQuery evaluates q against res's attributes; a nil query (bare
// `Type <| |>`) matches every candidate of the type.
func (e *Evaluator) evalQuery(q *ast.QueryExpr, res *catalog.Resource, scope *Scope) (bool, error) {
	if q == nil {
		return true, nil
	}
	if q.Query != nil {
		return e.evalAttributeQuery(q.Query, res, scope)
	}
	left, err := e.evalQuery(q.X, res, scope)
	if err != nil {
		return false, err
	}
	if q.Op == token.AND && !left {
		return false, nil
	}
	if q.Op == token.OR && left {
		return true, nil
	}
	return e.evalQuery(q.Y, res, scope)
}

func (e *Evaluator) evalAttributeQuery(aq *ast.AttributeQuery, res *catalog.Resource, scope *Scope) (bool, error) {
	want, err := e.evalExpr(aq.Value, scope)
	if err != nil {
		return false, err
	}
	var got values.Value = values.Undef{}
	if aq.Attr == "tag" {
		for _, t := range res.Tags {
			if ws, ok := want.(values.String); ok && t == string(ws) {
				return !aq.Negate, nil
			}
		}
		return aq.Negate, nil
	}
	if v, ok := res.Attr(aq.Attr); ok {
		got = v
	}
	eq := values.Equivalent(got) == values.Equivalent(want)
	if aq.Negate {
		return !eq, nil
	}
	return eq, nil
}
