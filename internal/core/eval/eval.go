package eval

import (
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/ast"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/catalog"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/types"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/values"
	perrors "github.com/puppetlabs-toy-chest/puppetcpp-sub003/errors"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/token"
)

// BuiltinFunc is the implementation signature for a core library
// function, dispatched by name.
type BuiltinFunc func(ctx *FunctionCallContext) (values.Value, error)

// Evaluator walks a parsed Program, declaring classes/defined
// types/resources into a Catalog as it goes.
type Evaluator struct {
	Registry *Registry
	Facts    FactProvider
	Logger   Logger
	Finder   Finder
	Catalog  *catalog.Catalog
	Errors   perrors.List

	builtins map[string]BuiltinFunc
	declared map[string]bool // class name -> already declared

	hostname string

	// parseFile is the parser entry point injected via Compile, reused by
	// autoload to parse a manifest the Finder locates on demand when a
	// class/defined-type/function reference isn't already registered.
	// Stored as a field rather than imported directly so this package
	// keeps no dependency on the parser package, mirroring Compile's own
	// injection of parseFile.
	parseFile func(filename string, src []byte) (*ast.Program, error)

	// currentContainer is the resource whose body is currently being
	// evaluated, read by container-sensitive builtins (include/require/
	// contain). The core is single-threaded and cooperative, so a single
	// mutable field suffices in place of threading a container parameter
	// through every expression-evaluation call.
	currentContainer catalog.Key
}

// NewEvaluator constructs an Evaluator with the given external
// collaborators: facts, logger, and finder are each optional (nil is a
// valid, inert default).
func NewEvaluator(facts FactProvider, logger Logger, finder Finder) *Evaluator {
	e := &Evaluator{
		Registry: NewRegistry(),
		Facts:    facts,
		Logger:   logger,
		Finder:   finder,
		Catalog:  catalog.New(),
		declared: map[string]bool{},
	}
	e.builtins = builtinTable()
	return e
}

// Compile parses and registers src under filename, but does not evaluate
// it; call Run afterward to execute the top scope and produce a catalog.
func (e *Evaluator) Compile(parseFile func(filename string, src []byte) (*ast.Program, error), filename string, src []byte) error {
	e.parseFile = parseFile
	if e.Registry.AlreadyScanned(src) {
		return nil
	}
	prog, err := parseFile(filename, src)
	if err != nil {
		if list, ok := err.(perrors.List); ok {
			e.Errors = append(e.Errors, list...)
		} else {
			e.Errors.Add(perrors.Newf(perrors.ParseError, token.NoPos, "%s", err))
		}
	}
	if prog != nil {
		e.Registry.Register(prog, filename)
	}
	return nil
}

// Run evaluates prog's top-level statements (the entry-point manifest,
// typically site.pp), matches and evaluates the node definition for
// hostname if one exists, then finalizes the catalog.
func (e *Evaluator) Run(prog *ast.Program, hostname string) (*catalog.Catalog, error) {
	e.hostname = hostname
	e.Registry.Register(prog, "")
	top := NewScope()
	e.bindFacts(top)

	// Class[main] is the implicit container for every top-scope resource
	// declaration, mirroring Puppet's top-scope-as-class convention.
	mainKey := catalog.Key{Type: "Class", Title: "main"}
	e.Catalog.AddResource(&catalog.Resource{Key: mainKey})
	e.currentContainer = mainKey

	for _, stmt := range prog.Statements {
		switch stmt.(type) {
		case *ast.ClassDecl, *ast.DefineDecl, *ast.FunctionDecl, *ast.NodeDecl:
			continue // already registered
		}
		if _, err := e.evalStmt(stmt, top, mainKey); err != nil {
			e.Errors.Add(toErr(err, perrors.EvaluationError, e.posOf(stmt)))
		}
	}

	if hostname != "" {
		if nd, ok := e.Registry.MatchNode(hostname); ok {
			if _, err := e.evalBody(nd.Decl.Body, top.Child(), mainKey); err != nil {
				e.Errors.Add(toErr(err, perrors.EvaluationError, nd.Decl.Pos()))
			}
		}
	}

	if cyc := e.Catalog.Finalize(); cyc != nil {
		e.Errors.Add(perrors.Newf(perrors.CycleError, token.NoPos, "dependency cycle detected: %s", formatCycle(cyc)))
	}

	if err := e.Errors.Err(); err != nil {
		return e.Catalog, err
	}
	return e.Catalog, nil
}

func formatCycle(cyc []catalog.Key) string {
	s := ""
	for i, k := range cyc {
		if i > 0 {
			s += " -> "
		}
		s += k.String()
	}
	return s
}

// autoload consults the Finder for a not-yet-registered class, defined
// type, or function, parses and registers its source if found, and
// reports whether the name is registered afterward. It is a no-op if no
// Finder or parser is configured (the common case in tests, where every
// manifest is supplied up front via Compile).
func (e *Evaluator) autoload(kind FindKind, name string) bool {
	if e.Finder == nil || e.parseFile == nil {
		return false
	}
	src, filename, ok := e.Finder.FindDefinition(kind, name)
	if !ok {
		return false
	}
	if e.Registry.AlreadyScanned(src) {
		return true
	}
	prog, err := e.parseFile(filename, src)
	if err != nil {
		if list, ok := err.(perrors.List); ok {
			e.Errors = append(e.Errors, list...)
		}
		return false
	}
	if prog == nil {
		return false
	}
	e.Registry.Register(prog, filename)
	return true
}

func (e *Evaluator) bindFacts(scope *Scope) {
	if e.Facts == nil {
		return
	}
	for name, v := range e.Facts.Facts() {
		scope.Set(name, v)
	}
}

func (e *Evaluator) posOf(n ast.Node) token.Pos {
	if n == nil {
		return token.NoPos
	}
	return n.Pos()
}

func toErr(err error, kind perrors.Kind, pos token.Pos) perrors.Error {
	if pe, ok := err.(perrors.Error); ok {
		return pe
	}
	return perrors.Newf(kind, pos, "%s", err)
}

// evalBody evaluates a statement list in the given scope (callers that
// need a fresh scope create it themselves), returning the last
// statement's non-nil value (used as a function's implicit return
// value).
func (e *Evaluator) evalBody(stmts []ast.Stmt, scope *Scope, container catalog.Key) (values.Value, error) {
	saved := e.currentContainer
	e.currentContainer = container
	defer func() { e.currentContainer = saved }()

	var last values.Value = values.Undef{}
	for _, stmt := range stmts {
		v, err := e.evalStmt(stmt, scope, container)
		if err != nil {
			return nil, err
		}
		if v != nil {
			last = v
		}
	}
	return last, nil
}

// ---------------------------------------------------------------------
// Expressions

func (e *Evaluator) evalExpr(expr ast.Expr, scope *Scope) (values.Value, error) {
	switch x := expr.(type) {
	case *ast.UndefLit:
		return values.Undef{}, nil
	case *ast.DefaultLit:
		return values.Default{}, nil
	case *ast.BoolLit:
		return values.Bool(x.Value), nil
	case *ast.IntLit:
		return values.Integer(x.Value), nil
	case *ast.FloatLit:
		return values.Float(x.Value), nil
	case *ast.RegexLit:
		re, err := values.NewRegex(x.Pattern)
		if err != nil {
			return nil, perrors.Newf(perrors.EvaluationError, x.Pos(), "invalid regular expression /%s/: %s", x.Pattern, err)
		}
		return re, nil
	case *ast.BareWord:
		return values.String(x.Name), nil
	case *ast.StringLit:
		return e.evalStringLit(x, scope)
	case *ast.VariableExpr:
		if v, ok := scope.Lookup(x.Name); ok {
			return v, nil
		}
		return values.Undef{}, nil
	case *ast.ArrayExpr:
		elems := make([]values.Value, len(x.Elements))
		for i, el := range x.Elements {
			v, err := e.evalExpr(el, scope)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return values.NewArray(elems...), nil
	case *ast.HashExpr:
		pairs := make([]values.HashPair, len(x.Entries))
		for i, ent := range x.Entries {
			k, err := e.evalExpr(ent.Key, scope)
			if err != nil {
				return nil, err
			}
			v, err := e.evalExpr(ent.Value, scope)
			if err != nil {
				return nil, err
			}
			pairs[i] = values.HashPair{Key: k, Value: v}
		}
		return values.NewHash(pairs...), nil
	case *ast.TypeRefExpr:
		return e.evalTypeRef(x, scope)
	case *ast.UnaryExpr:
		return e.evalUnary(x, scope)
	case *ast.BinaryExpr:
		return e.evalBinaryExpr(x, scope)
	case *ast.AssignExpr:
		return e.evalAssign(x, scope)
	case *ast.InExpr:
		return e.evalIn(x, scope)
	case *ast.MatchExpr:
		return e.evalMatch(x, scope)
	case *ast.SelectorExpr:
		return e.evalSelector(x, scope)
	case *ast.IndexExpr:
		return e.evalIndex(x, scope)
	case *ast.CallExpr:
		return e.evalCall(x, scope)
	case *ast.AccessExpr:
		return e.evalAccess(x, scope)
	case *ast.LambdaExpr:
		return nil, perrors.Newf(perrors.EvaluationError, x.Pos(), "a lambda may only appear as a function call's block")
	case *ast.CollectorExpr:
		return e.evalCollector(x, scope)
	default:
		return nil, perrors.Newf(perrors.EvaluationError, expr.Pos(), "cannot evaluate %T", expr)
	}
}

func (e *Evaluator) evalStringLit(lit *ast.StringLit, scope *Scope) (values.Value, error) {
	if len(lit.Parts) == 1 {
		if t, ok := lit.Parts[0].(*ast.StringText); ok {
			return values.String(t.Value), nil
		}
	}
	out := ""
	for _, part := range lit.Parts {
		switch p := part.(type) {
		case *ast.StringText:
			out += p.Value
		case *ast.StringInterp:
			v, err := e.evalExpr(p.Expr, scope)
			if err != nil {
				return nil, err
			}
			out += v.String()
		}
	}
	return values.String(out), nil
}

// coreTypeNames are the built-in type-system names types.Build knows how
// to construct; any other TYPE_NAME used with bracket parameters is a
// resource-reference expression instead (e.g. Notify['a'], File['x','y']).
var coreTypeNames = map[string]bool{
	"Any": true, "Undef": true, "Default": true, "Boolean": true,
	"Scalar": true, "Numeric": true, "Data": true, "Integer": true,
	"Float": true, "String": true, "Enum": true, "Pattern": true,
	"Regexp": true, "Collection": true, "Array": true, "Hash": true,
	"Tuple": true, "Struct": true, "Optional": true, "NotUndef": true,
	"Variant": true, "Type": true, "Iterable": true, "Iterator": true,
	"Callable": true, "Resource": true,
}

func (e *Evaluator) evalTypeRef(x *ast.TypeRefExpr, scope *Scope) (values.Value, error) {
	if len(x.Parameters) > 0 && !coreTypeNames[x.Name] {
		return e.evalResourceRef(x, scope)
	}
	params := make([]interface{}, len(x.Parameters))
	for i, p := range x.Parameters {
		v, err := e.evalExpr(p, scope)
		if err != nil {
			return nil, err
		}
		params[i] = toBuilderParam(v)
	}
	t, err := types.Build(x.Name, params)
	if err != nil {
		return nil, perrors.Newf(perrors.TypeConversionError, x.Pos(), "%s", err)
	}
	return values.TypeValue{T: t}, nil
}

// evalResourceRef builds a ResourceRef (or an Array of them, for
// multi-title syntax like File['a', 'b']) from a parameterized
// resource-type reference.
func (e *Evaluator) evalResourceRef(x *ast.TypeRefExpr, scope *Scope) (values.Value, error) {
	typeName := catalog.TitleCase(x.Name)
	var titles []values.Value
	for _, p := range x.Parameters {
		v, err := e.evalExpr(p, scope)
		if err != nil {
			return nil, err
		}
		switch t := v.(type) {
		case values.String:
			titles = append(titles, values.ResourceRef{TypeName: typeName, Title: string(t)})
		case *values.Array:
			for _, el := range t.Elements {
				s, ok := el.(values.String)
				if !ok {
					return nil, perrors.Newf(perrors.EvaluationError, p.Pos(), "resource reference title must be a String, got %s", el.Type())
				}
				titles = append(titles, values.ResourceRef{TypeName: typeName, Title: string(s)})
			}
		default:
			return nil, perrors.Newf(perrors.EvaluationError, p.Pos(), "resource reference title must be a String, got %s", v.Type())
		}
	}
	if len(titles) == 1 {
		return titles[0], nil
	}
	return values.NewArray(titles...), nil
}

func toBuilderParam(v values.Value) interface{} {
	switch vv := v.(type) {
	case values.String:
		return string(vv)
	case values.Integer:
		return int64(vv)
	case values.Float:
		return float64(vv)
	case values.TypeValue:
		return vv.T
	default:
		return v
	}
}

func (e *Evaluator) evalUnary(x *ast.UnaryExpr, scope *Scope) (values.Value, error) {
	v, err := e.evalExpr(x.X, scope)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case token.SUB:
		switch n := v.(type) {
		case values.Integer:
			return -n, nil
		case values.Float:
			return -n, nil
		}
		return nil, perrors.Newf(perrors.EvaluationError, x.Pos(), "unary - expects a numeric operand, got %s", v.Type())
	case token.NOT:
		return values.Bool(!values.Truthy(v)), nil
	case token.MUL:
		if arr, ok := v.(*values.Array); ok {
			return arr, nil // splat is resolved by call-argument expansion, not here
		}
		return v, nil
	default:
		return nil, perrors.Newf(perrors.EvaluationError, x.Pos(), "unsupported unary operator %s", x.Op)
	}
}

func (e *Evaluator) evalAssign(x *ast.AssignExpr, scope *Scope) (values.Value, error) {
	v, err := e.evalExpr(x.RHS, scope)
	if err != nil {
		return nil, err
	}
	vr, ok := x.LHS.(*ast.VariableExpr)
	if !ok {
		return nil, perrors.Newf(perrors.EvaluationError, x.Pos(), "left side of assignment must be a variable")
	}
	if !scope.Set(vr.Name, v) {
		return nil, perrors.Newf(perrors.EvaluationError, x.Pos(), "cannot reassign variable $%s in the same scope", vr.Name)
	}
	return v, nil
}

func (e *Evaluator) evalIn(x *ast.InExpr, scope *Scope) (values.Value, error) {
	needle, err := e.evalExpr(x.Needle, scope)
	if err != nil {
		return nil, err
	}
	hay, err := e.evalExpr(x.Haystack, scope)
	if err != nil {
		return nil, err
	}
	switch h := hay.(type) {
	case *values.Array:
		nk := values.Equivalent(needle)
		for _, el := range h.Elements {
			if values.Equivalent(el) == nk {
				return values.Bool(true), nil
			}
		}
		return values.Bool(false), nil
	case *values.Hash:
		_, ok := h.Get(needle)
		return values.Bool(ok), nil
	case values.String:
		sub, ok := needle.(values.String)
		if !ok {
			return values.Bool(false), nil
		}
		return values.Bool(containsString(string(h), string(sub))), nil
	default:
		return values.Bool(false), nil
	}
}

func containsString(s, sub string) bool {
	if len(sub) == 0 {
		return true
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func (e *Evaluator) evalMatch(x *ast.MatchExpr, scope *Scope) (values.Value, error) {
	v, err := e.evalExpr(x.X, scope)
	if err != nil {
		return nil, err
	}
	rv, err := e.evalExpr(x.Regex, scope)
	if err != nil {
		return nil, err
	}
	var re values.Regex
	switch r := rv.(type) {
	case values.Regex:
		re = r
	case values.String:
		re, err = values.NewRegex(string(r))
		if err != nil {
			return nil, perrors.Newf(perrors.EvaluationError, x.Pos(), "invalid regular expression: %s", err)
		}
	default:
		return nil, perrors.Newf(perrors.EvaluationError, x.Pos(), "=~ expects a regex or string on the right, got %s", rv.Type())
	}
	s, ok := v.(values.String)
	if !ok {
		return values.Bool(x.Negate), nil
	}
	m := re.Compiled().FindStringSubmatch(string(s))
	matched := m != nil
	if matched {
		scope.SetMatch(m)
	}
	if x.Negate {
		matched = !matched
	}
	return values.Bool(matched), nil
}

func (e *Evaluator) evalSelector(x *ast.SelectorExpr, scope *Scope) (values.Value, error) {
	v, err := e.evalExpr(x.Value, scope)
	if err != nil {
		return nil, err
	}
	var defaultCase *ast.SelectorCase
	for _, c := range x.Cases {
		if c.Test == nil {
			defaultCase = c
			continue
		}
		tv, err := e.evalExpr(c.Test, scope)
		if err != nil {
			return nil, err
		}
		if selectorMatches(tv, v) {
			return e.evalExpr(c.Value, scope)
		}
	}
	if defaultCase != nil {
		return e.evalExpr(defaultCase.Value, scope)
	}
	return nil, perrors.Newf(perrors.EvaluationError, x.Pos(), "no matching selector case for value %s", values.Inspect(v))
}

func selectorMatches(test, v values.Value) bool {
	if re, ok := test.(values.Regex); ok {
		if s, ok := v.(values.String); ok {
			return re.Compiled().MatchString(string(s))
		}
		return false
	}
	return values.Equivalent(test) == values.Equivalent(v)
}

func (e *Evaluator) evalIndex(x *ast.IndexExpr, scope *Scope) (values.Value, error) {
	base, err := e.evalExpr(x.X, scope)
	if err != nil {
		return nil, err
	}
	idx, err := e.evalExpr(x.Index, scope)
	if err != nil {
		return nil, err
	}
	switch b := base.(type) {
	case *values.Array:
		i, ok := idx.(values.Integer)
		if !ok {
			return nil, perrors.Newf(perrors.EvaluationError, x.Pos(), "array index must be an Integer, got %s", idx.Type())
		}
		pos := int(i)
		if pos < 0 {
			pos += len(b.Elements)
		}
		if pos < 0 || pos >= len(b.Elements) {
			return values.Undef{}, nil
		}
		return b.Elements[pos], nil
	case *values.Hash:
		v, ok := b.Get(idx)
		if !ok {
			return values.Undef{}, nil
		}
		return v, nil
	case values.String:
		i, ok := idx.(values.Integer)
		if !ok {
			return nil, perrors.Newf(perrors.EvaluationError, x.Pos(), "string index must be an Integer, got %s", idx.Type())
		}
		runes := []rune(string(b))
		pos := int(i)
		if pos < 0 {
			pos += len(runes)
		}
		if pos < 0 || pos >= len(runes) {
			return values.Undef{}, nil
		}
		return values.String(string(runes[pos])), nil
	default:
		return nil, perrors.Newf(perrors.EvaluationError, x.Pos(), "cannot index a value of type %s", base.Type())
	}
}

func (e *Evaluator) evalAccess(x *ast.AccessExpr, scope *Scope) (values.Value, error) {
	recv, err := e.evalExpr(x.X, scope)
	if err != nil {
		return nil, err
	}
	call := x.Call
	args := make([]values.Value, 0, len(call.Args)+1)
	args = append(args, recv)
	for _, a := range call.Args {
		v, err := e.evalExpr(a, scope)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	name := call.Func.(*ast.BareWord).Name
	return e.dispatch(name, args, call.Lambda, scope, call.Pos())
}

func (e *Evaluator) evalCall(x *ast.CallExpr, scope *Scope) (values.Value, error) {
	name, ok := funcName(x.Func)
	if !ok {
		return nil, perrors.Newf(perrors.EvaluationError, x.Pos(), "expression is not callable")
	}
	args := make([]values.Value, 0, len(x.Args))
	for _, a := range x.Args {
		v, err := e.evalExpr(a, scope)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return e.dispatch(name, args, x.Lambda, scope, x.Pos())
}

func funcName(expr ast.Expr) (string, bool) {
	bw, ok := expr.(*ast.BareWord)
	if !ok {
		return "", false
	}
	return bw.Name, true
}

// dispatch resolves name against builtins, then user-defined functions,
// in that order: an unknown function is reported before argument-count/
// type mismatches, which are in turn reported before a user function's
// own body errors.
func (e *Evaluator) dispatch(name string, args []values.Value, lambda *ast.LambdaExpr, scope *Scope, pos token.Pos) (values.Value, error) {
	if fn, ok := e.builtins[name]; ok {
		ctx := &FunctionCallContext{Eval: e, Scope: scope, Pos: pos, Name: name, Args: args, Lambda: lambda}
		v, err := fn(ctx)
		if err != nil {
			if _, ok := err.(breakSignal); ok {
				return nil, err // control-flow signal, propagate unwrapped
			}
			return nil, toErr(err, perrors.EvaluationError, pos)
		}
		return v, nil
	}
	fd, ok := e.Registry.Function(name)
	if !ok && e.autoload(FindFunction, name) {
		fd, ok = e.Registry.Function(name)
	}
	if ok {
		return e.callUserFunction(fd, args, pos)
	}
	return nil, perrors.Newf(perrors.EvaluationError, pos, "unknown function: %q", name)
}

func (e *Evaluator) callUserFunction(fd *FunctionDef, args []values.Value, pos token.Pos) (values.Value, error) {
	scope := NewScope()
	e.bindFacts(scope)
	if err := e.bindParams(scope, fd.Decl.Params, args, pos); err != nil {
		return nil, err
	}
	return e.evalBody(fd.Decl.Body, scope, catalog.Key{})
}

// bindParams binds params into scope from the positional args, evaluating
// each unsupplied parameter's default expression (if any) against scope
// itself so a later default can see an earlier parameter's bound value.
func (e *Evaluator) bindParams(scope *Scope, params []*ast.Parameter, args []values.Value, pos token.Pos) error {
	if len(args) > len(params) {
		return perrors.Newf(perrors.EvaluationError, pos, "expected at most %d arguments, got %d", len(params), len(args))
	}
	for i, p := range params {
		var v values.Value
		if i < len(args) {
			v = args[i]
		} else if p.Default != nil {
			dv, err := e.evalExpr(p.Default, scope)
			if err != nil {
				return err
			}
			v = dv
		} else {
			return perrors.Newf(perrors.EvaluationError, pos, "missing required argument $%s", p.Name)
		}
		scope.Set(p.Name, v)
	}
	return nil
}

// callLambda invokes a lambda with the given argument values in a fresh
// child scope: a lambda of arity 1 receives the element, arity 2
// receives (index, element) or (key, value) depending on the source
// collection.
func (e *Evaluator) callLambda(scope *Scope, lambda *ast.LambdaExpr, args []values.Value) (values.Value, error) {
	if lambda == nil {
		return values.Undef{}, nil
	}
	child := scope.Child()
	n := len(lambda.Params)
	for i := 0; i < n; i++ {
		var v values.Value = values.Undef{}
		if i < len(args) {
			v = args[i]
		}
		child.Set(lambda.Params[i].Name, v)
	}
	return e.evalBody(lambda.Body, child, catalog.Key{})
}
