package eval

import (
	"fmt"

	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/ast"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/catalog"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/values"
	perrors "github.com/puppetlabs-toy-chest/puppetcpp-sub003/errors"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/token"
)

// evalStmt evaluates one statement. container identifies the resource
// that logically "contains" any resource declared directly within this
// statement (a Contains catalog edge); the zero Key means top-scope (no
// containing resource).
func (e *Evaluator) evalStmt(stmt ast.Stmt, scope *Scope, container catalog.Key) (values.Value, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		return e.evalExpr(s.X, scope)
	case *ast.StmtList:
		var last values.Value = values.Undef{}
		for _, sub := range s.Stmts {
			v, err := e.evalStmt(sub, scope, container)
			if err != nil {
				return nil, err
			}
			last = v
		}
		return last, nil
	case *ast.IfStmt:
		return e.evalIfStmt(s, scope, container)
	case *ast.CaseStmt:
		return e.evalCaseStmt(s, scope, container)
	case *ast.ClassDecl, *ast.DefineDecl, *ast.FunctionDecl, *ast.NodeDecl:
		return values.Undef{}, nil // already registered; declared on reference
	case *ast.ResourceDecl:
		return e.evalResourceDecl(s, scope, container)
	case *ast.ResourceOverride:
		return e.evalResourceOverride(s, scope, container)
	case *ast.RelationshipStmt:
		return e.evalRelationshipStmt(s, scope, container)
	default:
		return nil, perrors.Newf(perrors.EvaluationError, stmt.Pos(), "cannot evaluate statement of type %T", stmt)
	}
}

func (e *Evaluator) evalIfStmt(s *ast.IfStmt, scope *Scope, container catalog.Key) (values.Value, error) {
	for _, clause := range s.Clauses {
		v, err := e.evalExpr(clause.Cond, scope)
		if err != nil {
			return nil, err
		}
		truthy := values.Truthy(v)
		if s.Unless {
			truthy = !truthy
		}
		if truthy {
			return e.evalBody(clause.Body, scope.Child(), container)
		}
	}
	if s.Else != nil {
		return e.evalBody(s.Else, scope.Child(), container)
	}
	return values.Undef{}, nil
}

func (e *Evaluator) evalCaseStmt(s *ast.CaseStmt, scope *Scope, container catalog.Key) (values.Value, error) {
	v, err := e.evalExpr(s.Control, scope)
	if err != nil {
		return nil, err
	}
	var defaultClause *ast.CaseClause
	for _, c := range s.Clauses {
		if c.Default {
			defaultClause = c
			continue
		}
		for _, candidate := range c.Values {
			cv, err := e.evalExpr(candidate, scope)
			if err != nil {
				return nil, err
			}
			if selectorMatches(cv, v) {
				return e.evalBody(c.Body, scope.Child(), container)
			}
		}
	}
	if defaultClause != nil {
		return e.evalBody(defaultClause.Body, scope.Child(), container)
	}
	return values.Undef{}, nil
}

// declareClass ensures name is declared exactly once: a class may be
// included any number of times but evaluates its body only on first
// declaration, binding args as the class's parameters.
func (e *Evaluator) declareClass(name string, args map[string]values.Value, pos token.Pos) error {
	if e.declared[name] {
		return nil
	}
	cd, ok := e.Registry.Class(name)
	if !ok && e.autoload(FindManifest, name) {
		cd, ok = e.Registry.Class(name)
	}
	if !ok {
		return perrors.Newf(perrors.EvaluationError, pos, "unknown class: %q", name)
	}
	e.declared[name] = true

	var parentKey catalog.Key
	if cd.Decl.Parent != "" {
		if err := e.declareClass(cd.Decl.Parent, nil, pos); err != nil {
			return err
		}
		parentKey = catalog.Key{Type: "Class", Title: catalog.TitleCase(cd.Decl.Parent)}
	}

	scope := NewScope()
	e.bindFacts(scope)
	if err := e.bindClassParams(scope, cd.Decl.Params, args, pos); err != nil {
		return err
	}

	key := catalog.Key{Type: "Class", Title: catalog.TitleCase(name)}
	res := &catalog.Resource{Key: key, Container: e.currentContainer}
	e.Catalog.AddResource(res)
	if e.currentContainer.Type != "" {
		e.Catalog.AddEdge(e.currentContainer, key, catalog.Contains)
	}
	if parentKey.Type != "" {
		e.Catalog.AddEdge(parentKey, key, catalog.Before)
	}

	_, err := e.evalBody(cd.Decl.Body, scope, key)
	return err
}

// declareClassFrom is the entry point for the include/require/contain
// builtins: all three declare name at most once; require additionally
// adds an ordering edge so the declared class runs before
// the caller's container, matching `require`'s "this resource needs that
// class to have been applied first" semantics.
func (e *Evaluator) declareClassFrom(name string, strategy edgeStrategy, caller catalog.Key, ctx *FunctionCallContext) error {
	if err := e.declareClass(name, nil, ctx.Pos); err != nil {
		return err
	}
	if strategy == catalogRequireEdge && caller.Type != "" {
		key := catalog.Key{Type: "Class", Title: catalog.TitleCase(name)}
		e.Catalog.AddEdge(key, caller, catalog.Before)
	}
	return nil
}

// bindClassParams binds params into scope from args, evaluating each
// unsupplied parameter's default expression (if any) against scope itself
// so that a later default can reference an earlier parameter's value.
func (e *Evaluator) bindClassParams(scope *Scope, params []*ast.Parameter, args map[string]values.Value, pos token.Pos) error {
	for _, p := range params {
		if v, ok := args[p.Name]; ok {
			scope.Set(p.Name, v)
			continue
		}
		if p.Default != nil {
			v, err := e.evalExpr(p.Default, scope)
			if err != nil {
				return err
			}
			scope.Set(p.Name, v)
			continue
		}
		if _, ok := scope.Lookup(p.Name); ok {
			continue
		}
		return perrors.Newf(perrors.EvaluationError, pos, "class parameter $%s has no value and no default", p.Name)
	}
	return nil
}

// instantiateDefine evaluates one instance of a defined-type resource,
// one full evaluation per title: unlike a class, a defined type's body
// is re-evaluated for every title it is declared with.
func (e *Evaluator) instantiateDefine(typeName, title string, args map[string]values.Value, container catalog.Key, pos token.Pos) error {
	dd, ok := e.Registry.Define(typeName)
	if !ok && e.autoload(FindManifest, typeName) {
		dd, ok = e.Registry.Define(typeName)
	}
	if !ok {
		return perrors.Newf(perrors.EvaluationError, pos, "unknown resource type: %q", typeName)
	}
	scope := NewScope()
	e.bindFacts(scope)
	scope.Set("title", values.String(title))
	scope.Set("name", values.String(title))
	if err := e.bindClassParams(scope, dd.Decl.Params, args, pos); err != nil {
		return err
	}

	key := catalog.Key{Type: catalog.TitleCase(typeName), Title: title}
	res := &catalog.Resource{Key: key, Container: container}
	if !e.Catalog.AddResource(res) {
		return perrors.Newf(perrors.EvaluationError, pos, "duplicate declaration of %s", key)
	}
	if container.Type != "" {
		e.Catalog.AddEdge(container, key, catalog.Contains)
	}

	_, err := e.evalBody(dd.Decl.Body, scope, key)
	return err
}

func (e *Evaluator) evalResourceDecl(s *ast.ResourceDecl, scope *Scope, container catalog.Key) (values.Value, error) {
	typeName := catalog.TitleCase(s.TypeName)

	if typeName == "Class" {
		for _, inst := range s.Instances {
			title, err := e.titleString(inst.Title, scope)
			if err != nil {
				return nil, err
			}
			args, err := e.evalAttrArgs(inst.Attrs, scope)
			if err != nil {
				return nil, err
			}
			if err := e.declareClass(title, args, s.Pos()); err != nil {
				return nil, err
			}
		}
		return values.Undef{}, nil
	}

	for _, inst := range s.Instances {
		titles, err := e.titleStrings(inst.Title, scope)
		if err != nil {
			return nil, err
		}
		args, err := e.evalAttrArgs(inst.Attrs, scope)
		if err != nil {
			return nil, err
		}
		relArgs := extractRelationshipArgs(args)
		for _, title := range titles {
			if _, ok := e.Registry.Define(s.TypeName); ok {
				if err := e.instantiateDefine(s.TypeName, title, args, container, s.Pos()); err != nil {
					return nil, err
				}
				key := catalog.Key{Type: typeName, Title: title}
				if err := e.addRelationshipEdges(relArgs, key, s.Pos()); err != nil {
					return nil, err
				}
				continue
			}
			key := catalog.Key{Type: typeName, Title: title}
			res := &catalog.Resource{
				Key:       key,
				Exported:  s.Exported,
				Virtual:   s.Virtual,
				Container: container,
			}
			for name, v := range args {
				res.SetAttr(name, v)
			}
			if !e.Catalog.AddResource(res) {
				return nil, perrors.Newf(perrors.EvaluationError, s.Pos(), "duplicate declaration of %s", key)
			}
			if container.Type != "" {
				e.Catalog.AddEdge(container, key, catalog.Contains)
			}
			if err := e.addRelationshipEdges(relArgs, key, s.Pos()); err != nil {
				return nil, err
			}
		}
	}
	return values.Undef{}, nil
}

func (e *Evaluator) evalResourceOverride(s *ast.ResourceOverride, scope *Scope, container catalog.Key) (values.Value, error) {
	refVal, err := e.evalExpr(s.Ref, scope)
	if err != nil {
		return nil, err
	}
	keys, err := resourceKeysFromValue(refVal)
	if err != nil {
		return nil, perrors.Newf(perrors.EvaluationError, s.Pos(), "%s", err)
	}
	args, err := e.evalAttrArgs(s.Attrs, scope)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		res, ok := e.Catalog.Resource(key)
		if !ok {
			return nil, perrors.Newf(perrors.EvaluationError, s.Pos(), "cannot override %s: no such resource", key)
		}
		for name, v := range args {
			res.SetAttr(name, v)
		}
	}
	return values.Undef{}, nil
}

func resourceKeysFromValue(v values.Value) ([]catalog.Key, error) {
	switch rv := v.(type) {
	case values.ResourceRef:
		return []catalog.Key{{Type: rv.TypeName, Title: rv.Title}}, nil
	case values.String:
		return nil, fmt.Errorf("expected a resource reference, got a bare String")
	case *values.Array:
		var keys []catalog.Key
		for _, el := range rv.Elements {
			sub, err := resourceKeysFromValue(el)
			if err != nil {
				return nil, err
			}
			keys = append(keys, sub...)
		}
		return keys, nil
	default:
		return nil, fmt.Errorf("expected a resource reference, got %s", v.Type())
	}
}

func (e *Evaluator) evalRelationshipStmt(s *ast.RelationshipStmt, scope *Scope, container catalog.Key) (values.Value, error) {
	xv, err := e.evalExpr(s.X, scope)
	if err != nil {
		return nil, err
	}
	yv, err := e.evalExpr(s.Y, scope)
	if err != nil {
		return nil, err
	}
	xKeys, err := resourceKeysFromValue(xv)
	if err != nil {
		return nil, perrors.Newf(perrors.EvaluationError, s.X.Pos(), "%s", err)
	}
	yKeys, err := resourceKeysFromValue(yv)
	if err != nil {
		return nil, perrors.Newf(perrors.EvaluationError, s.Y.Pos(), "%s", err)
	}
	kind, reversed := edgeKindFor(s.Op)
	for _, xk := range xKeys {
		for _, yk := range yKeys {
			if reversed {
				e.Catalog.AddEdge(yk, xk, kind)
			} else {
				e.Catalog.AddEdge(xk, yk, kind)
			}
		}
	}
	return yv, nil
}

func edgeKindFor(op interface{ String() string }) (catalog.EdgeKind, bool) {
	switch op.String() {
	case "->":
		return catalog.Before, false
	case "~>":
		return catalog.Notify, false
	case "<-":
		return catalog.Before, true
	case "<~":
		return catalog.Notify, true
	default:
		return catalog.Before, false
	}
}

func (e *Evaluator) evalAttrArgs(attrs []*ast.ResourceAttr, scope *Scope) (map[string]values.Value, error) {
	args := map[string]values.Value{}
	for _, a := range attrs {
		if a.Splat {
			v, err := e.evalExpr(a.Value, scope)
			if err != nil {
				return nil, err
			}
			h, ok := v.(*values.Hash)
			if !ok {
				return nil, perrors.Newf(perrors.EvaluationError, a.Pos(), "splat attribute (*) requires a Hash value")
			}
			for _, p := range h.Pairs {
				if ks, ok := p.Key.(values.String); ok {
					args[string(ks)] = p.Value
				}
			}
			continue
		}
		v, err := e.evalExpr(a.Value, scope)
		if err != nil {
			return nil, err
		}
		args[a.Name] = v
	}
	return args, nil
}

// relationshipMetaparamKinds maps each relationship metaparameter name
// to the catalog edge kind it produces: a resource referencing another
// through before/require/notify/subscribe adds the corresponding edge
// to the dependency graph.
var relationshipMetaparamKinds = map[string]catalog.EdgeKind{
	"before":    catalog.Before,
	"notify":    catalog.Notify,
	"require":   catalog.Require,
	"subscribe": catalog.Subscribe,
}

// extractRelationshipArgs pulls the before/notify/require/subscribe
// keys out of args (deleting them so they are never stored as ordinary
// resource attributes) and returns them keyed by metaparameter name, for
// a later addRelationshipEdges call once the declaring resource's own
// catalog key is known.
func extractRelationshipArgs(args map[string]values.Value) map[string]values.Value {
	rel := map[string]values.Value{}
	for name := range relationshipMetaparamKinds {
		if v, ok := args[name]; ok {
			rel[name] = v
			delete(args, name)
		}
	}
	return rel
}

// addRelationshipEdges adds one catalog edge from key to each resource
// named by a before/notify/require/subscribe metaparameter value
// (a resource reference, a class reference, or an array of either).
func (e *Evaluator) addRelationshipEdges(rel map[string]values.Value, key catalog.Key, pos token.Pos) error {
	for name, v := range rel {
		targets, err := resourceKeysFromValue(v)
		if err != nil {
			return perrors.Newf(perrors.EvaluationError, pos, "%s metaparameter: %s", name, err)
		}
		kind := relationshipMetaparamKinds[name]
		for _, target := range targets {
			e.Catalog.AddEdge(key, target, kind)
		}
	}
	return nil
}

func (e *Evaluator) titleString(expr ast.Expr, scope *Scope) (string, error) {
	v, err := e.evalExpr(expr, scope)
	if err != nil {
		return "", err
	}
	s, ok := v.(values.String)
	if !ok {
		return "", perrors.Newf(perrors.EvaluationError, expr.Pos(), "resource title must be a String, got %s", v.Type())
	}
	return string(s), nil
}

func (e *Evaluator) titleStrings(expr ast.Expr, scope *Scope) ([]string, error) {
	v, err := e.evalExpr(expr, scope)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case values.String:
		return []string{string(t)}, nil
	case *values.Array:
		var out []string
		for _, el := range t.Elements {
			s, ok := el.(values.String)
			if !ok {
				return nil, perrors.Newf(perrors.EvaluationError, expr.Pos(), "resource title must be a String, got %s", el.Type())
			}
			out = append(out, string(s))
		}
		return out, nil
	default:
		return nil, perrors.Newf(perrors.EvaluationError, expr.Pos(), "resource title must be a String or Array[String], got %s", v.Type())
	}
}
