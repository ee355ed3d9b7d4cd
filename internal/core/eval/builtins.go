package eval

import (
	"fmt"
	"strings"

	perrors "github.com/puppetlabs-toy-chest/puppetcpp-sub003/errors"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/funcs"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/types"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/values"
)

// builtinTable returns the dispatch table of core library functions.
// Functions that need deep access to the Evaluator (Scope/Registry/
// Catalog) are implemented directly here rather than in
// internal/core/funcs, avoiding an eval<->funcs import cycle; funcs
// holds only the pure helper logic (versioncmp, split) these wrap.
func builtinTable() map[string]BuiltinFunc {
	t := map[string]BuiltinFunc{}

	for _, level := range []string{"alert", "crit", "debug", "emerg", "err", "info", "notice", "warning"} {
		level := level
		t[level] = func(ctx *FunctionCallContext) (values.Value, error) {
			return logFn(ctx, level)
		}
	}

	t["include"] = func(ctx *FunctionCallContext) (values.Value, error) { return declareClassesFn(ctx, catalogNoEdge) }
	t["require"] = func(ctx *FunctionCallContext) (values.Value, error) { return declareClassesFn(ctx, catalogRequireEdge) }
	t["contain"] = func(ctx *FunctionCallContext) (values.Value, error) { return declareClassesFn(ctx, catalogContainEdge) }
	t["declare"] = t["include"]

	t["realize"] = builtinRealize
	t["defined"] = builtinDefined
	t["assert_type"] = builtinAssertType
	t["each"] = builtinEach
	t["reverse_each"] = builtinReverseEach
	t["map"] = builtinMap
	t["filter"] = builtinFilter
	t["reduce"] = builtinReduce
	t["fail"] = builtinFail
	t["tag"] = builtinTag
	t["tagged"] = builtinTagged
	t["epp"] = builtinEpp
	t["inline_epp"] = builtinInlineEpp
	t["split"] = builtinSplit
	t["versioncmp"] = builtinVersionCmp
	t["with"] = builtinWith
	t["file"] = builtinFile
	t["break"] = builtinBreak
	t["sprintf"] = builtinSprintf

	t["Integer"] = builtinToInteger
	t["Float"] = builtinToFloat
	t["Numeric"] = builtinToNumeric
	t["String"] = builtinToString
	t["Boolean"] = builtinToBoolean
	t["Array"] = builtinToArray

	return t
}

// builtinToInteger implements the Integer(string) conversion function:
// strings convert via types.ParseStringToInteger, floats
// truncate toward zero, booleans become 0/1, and an Integer argument
// passes through unchanged. Anything else, or a malformed string, is a
// type-conversion-error.
func builtinToInteger(ctx *FunctionCallContext) (values.Value, error) {
	if len(ctx.Args) < 1 {
		return nil, perrors.Newf(perrors.TypeConversionError, ctx.Pos, "Integer expects at least 1 argument")
	}
	switch v := ctx.Args[0].(type) {
	case values.Integer:
		return v, nil
	case values.Float:
		return values.Integer(int64(v)), nil
	case values.Bool:
		if v {
			return values.Integer(1), nil
		}
		return values.Integer(0), nil
	case values.String:
		n, ok := types.ParseStringToInteger(string(v))
		if !ok {
			return nil, perrors.Newf(perrors.TypeConversionError, ctx.Pos, "cannot convert %q to an Integer", string(v))
		}
		return values.Integer(n), nil
	default:
		return nil, perrors.Newf(perrors.TypeConversionError, ctx.Pos, "cannot convert a value of type %s to an Integer", v.Type())
	}
}

// builtinToFloat implements the Float(string) conversion function,
// symmetric to builtinToInteger.
func builtinToFloat(ctx *FunctionCallContext) (values.Value, error) {
	if len(ctx.Args) < 1 {
		return nil, perrors.Newf(perrors.TypeConversionError, ctx.Pos, "Float expects at least 1 argument")
	}
	switch v := ctx.Args[0].(type) {
	case values.Float:
		return v, nil
	case values.Integer:
		return values.Float(float64(v)), nil
	case values.String:
		f, ok := types.ParseStringToFloat(string(v))
		if !ok {
			return nil, perrors.Newf(perrors.TypeConversionError, ctx.Pos, "cannot convert %q to a Float", string(v))
		}
		return values.Float(f), nil
	default:
		return nil, perrors.Newf(perrors.TypeConversionError, ctx.Pos, "cannot convert a value of type %s to a Float", v.Type())
	}
}

// builtinToNumeric tries an Integer conversion first, falling back to
// Float, matching Puppet's Numeric(string) dispatch which picks whichever
// of the two the string's lexical form denotes.
func builtinToNumeric(ctx *FunctionCallContext) (values.Value, error) {
	if len(ctx.Args) < 1 {
		return nil, perrors.Newf(perrors.TypeConversionError, ctx.Pos, "Numeric expects at least 1 argument")
	}
	if s, ok := ctx.Args[0].(values.String); ok {
		if n, ok := types.ParseStringToInteger(string(s)); ok {
			return values.Integer(n), nil
		}
		if f, ok := types.ParseStringToFloat(string(s)); ok {
			return values.Float(f), nil
		}
		return nil, perrors.Newf(perrors.TypeConversionError, ctx.Pos, "cannot convert %q to a Numeric", string(s))
	}
	switch ctx.Args[0].(type) {
	case values.Integer, values.Float:
		return ctx.Args[0], nil
	default:
		return nil, perrors.Newf(perrors.TypeConversionError, ctx.Pos, "cannot convert a value of type %s to a Numeric", ctx.Args[0].Type())
	}
}

func builtinToString(ctx *FunctionCallContext) (values.Value, error) {
	if len(ctx.Args) < 1 {
		return nil, perrors.Newf(perrors.TypeConversionError, ctx.Pos, "String expects at least 1 argument")
	}
	if s, ok := ctx.Args[0].(values.String); ok {
		return s, nil
	}
	return values.String(ctx.Args[0].String()), nil
}

func builtinToBoolean(ctx *FunctionCallContext) (values.Value, error) {
	if len(ctx.Args) < 1 {
		return nil, perrors.Newf(perrors.TypeConversionError, ctx.Pos, "Boolean expects at least 1 argument")
	}
	if s, ok := ctx.Args[0].(values.String); ok {
		switch strings.ToLower(string(s)) {
		case "true", "yes", "y", "1":
			return values.Bool(true), nil
		case "false", "no", "n", "0":
			return values.Bool(false), nil
		default:
			return nil, perrors.Newf(perrors.TypeConversionError, ctx.Pos, "cannot convert %q to a Boolean", string(s))
		}
	}
	return values.Bool(values.Truthy(ctx.Args[0])), nil
}

// builtinToArray wraps a non-Array, non-Undef value in a single-element
// Array; an Array argument passes through, and Undef converts to the
// empty Array.
func builtinToArray(ctx *FunctionCallContext) (values.Value, error) {
	if len(ctx.Args) < 1 {
		return nil, perrors.Newf(perrors.TypeConversionError, ctx.Pos, "Array expects at least 1 argument")
	}
	switch v := ctx.Args[0].(type) {
	case *values.Array:
		return v, nil
	case values.Undef:
		return values.NewArray(), nil
	default:
		return values.NewArray(v), nil
	}
}

func logFn(ctx *FunctionCallContext, level string) (values.Value, error) {
	msg := joinArgsAsString(ctx.Args)
	if ctx.Eval.Logger != nil {
		ctx.Eval.Logger.Log(level, msg)
	}
	return values.Undef{}, nil
}

func joinArgsAsString(args []values.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if s, ok := a.(values.String); ok {
			parts[i] = string(s)
		} else {
			parts[i] = a.String()
		}
	}
	return strings.Join(parts, " ")
}

// edgeStrategy describes how include/require/contain differ: all three
// declare the class exactly once, with the calling container as its
// containment parent, and require adds an ordering edge from the class to
// the calling container. contain adds no edge of its own and behaves as
// include does.
type edgeStrategy int

const (
	catalogNoEdge edgeStrategy = iota
	catalogRequireEdge
	catalogContainEdge
)

func declareClassesFn(ctx *FunctionCallContext, strategy edgeStrategy) (values.Value, error) {
	names, err := classNameArgs(ctx.Args)
	if err != nil {
		return nil, err
	}
	caller := ctx.Eval.currentContainer
	for _, name := range names {
		if err := ctx.Eval.declareClassFrom(name, strategy, caller, ctx); err != nil {
			return nil, err
		}
	}
	return values.Undef{}, nil
}

func classNameArgs(args []values.Value) ([]string, error) {
	var names []string
	for _, a := range args {
		switch v := a.(type) {
		case values.String:
			names = append(names, string(v))
		case *values.Array:
			for _, el := range v.Elements {
				s, ok := el.(values.String)
				if !ok {
					return nil, fmt.Errorf("class name must be a String, got %s", el.Type())
				}
				names = append(names, string(s))
			}
		default:
			return nil, fmt.Errorf("class name must be a String, got %s", a.Type())
		}
	}
	return names, nil
}

func builtinRealize(ctx *FunctionCallContext) (values.Value, error) {
	keys, err := resourceKeysFromValue(values.NewArray(ctx.Args...))
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		if res, ok := ctx.Eval.Catalog.Resource(k); ok {
			res.Virtual = false
		}
	}
	return values.Undef{}, nil
}

func builtinDefined(ctx *FunctionCallContext) (values.Value, error) {
	for _, a := range ctx.Args {
		s, ok := a.(values.String)
		if !ok {
			continue
		}
		name := string(s)
		if strings.HasPrefix(name, "$") {
			if _, ok := ctx.Scope.Lookup(strings.TrimPrefix(name, "$")); ok {
				return values.Bool(true), nil
			}
			continue
		}
		if _, ok := ctx.Eval.Registry.Class(name); ok {
			return values.Bool(true), nil
		}
		if _, ok := ctx.Eval.Registry.Define(name); ok {
			return values.Bool(true), nil
		}
		if _, ok := ctx.Eval.Registry.Function(name); ok {
			return values.Bool(true), nil
		}
	}
	return values.Bool(false), nil
}

func builtinAssertType(ctx *FunctionCallContext) (values.Value, error) {
	if len(ctx.Args) < 2 {
		return nil, fmt.Errorf("assert_type expects a type and a value")
	}
	tv, ok := ctx.Args[0].(values.TypeValue)
	if !ok {
		return nil, fmt.Errorf("assert_type expects a Type as its first argument, got %s", ctx.Args[0].Type())
	}
	v := ctx.Args[1]
	if !types.AssignableFrom(tv.T, v.Type()) {
		return nil, fmt.Errorf("expected a value of type %s, got %s", tv.T, v.Type())
	}
	return v, nil
}

func builtinFail(ctx *FunctionCallContext) (values.Value, error) {
	return nil, fmt.Errorf("%s", joinArgsAsString(ctx.Args))
}

func builtinTag(ctx *FunctionCallContext) (values.Value, error) {
	container := ctx.Eval.currentContainer
	res, ok := ctx.Eval.Catalog.Resource(container)
	if !ok {
		return values.Undef{}, nil
	}
	for _, a := range ctx.Args {
		if s, ok := a.(values.String); ok {
			res.Tags = append(res.Tags, string(s))
		}
	}
	return values.Undef{}, nil
}

func builtinTagged(ctx *FunctionCallContext) (values.Value, error) {
	container := ctx.Eval.currentContainer
	res, ok := ctx.Eval.Catalog.Resource(container)
	if !ok {
		return values.Bool(false), nil
	}
	for _, a := range ctx.Args {
		s, ok := a.(values.String)
		if !ok {
			continue
		}
		for _, t := range res.Tags {
			if t == string(s) {
				return values.Bool(true), nil
			}
		}
	}
	return values.Bool(false), nil
}

// builtinEpp renders a template file located through the configured
// Finder. A trailing Hash argument supplies named template parameters;
// anything else in the template's own scope comes only from its
// parameter defaults, matching Puppet's isolated EPP scoping.
func builtinEpp(ctx *FunctionCallContext) (values.Value, error) {
	if len(ctx.Args) < 1 {
		return nil, fmt.Errorf("epp expects a template path")
	}
	path, ok := ctx.Args[0].(values.String)
	if !ok {
		return nil, fmt.Errorf("epp expects a String path, got %s", ctx.Args[0].Type())
	}
	if ctx.Eval.Finder == nil {
		return nil, fmt.Errorf("epp(%q): no Finder configured", path)
	}
	src, filename, ok := ctx.Eval.Finder.Find(string(path))
	if !ok {
		return nil, fmt.Errorf("epp: template not found: %q", path)
	}
	return renderEpp(ctx, filename, src)
}

// builtinInlineEpp is builtinEpp for a template given directly as a
// string rather than resolved through the Finder.
func builtinInlineEpp(ctx *FunctionCallContext) (values.Value, error) {
	if len(ctx.Args) < 1 {
		return nil, fmt.Errorf("inline_epp expects a template string")
	}
	body, ok := ctx.Args[0].(values.String)
	if !ok {
		return nil, fmt.Errorf("inline_epp expects a String, got %s", ctx.Args[0].Type())
	}
	return renderEpp(ctx, "inline_epp", []byte(string(body)))
}

func renderEpp(ctx *FunctionCallContext, name string, src []byte) (values.Value, error) {
	tmpl, err := compileEpp(name, src)
	if err != nil {
		return nil, err
	}
	named := eppArgs(ctx.Args[1:])
	scope := NewScope()
	if err := ctx.Eval.bindClassParams(scope, tmpl.Params, named, ctx.Pos); err != nil {
		return nil, err
	}
	out, err := renderEppTemplate(ctx.Eval, tmpl, scope)
	if err != nil {
		return nil, err
	}
	return values.String(out), nil
}

func builtinSplit(ctx *FunctionCallContext) (values.Value, error) {
	if len(ctx.Args) != 2 {
		return nil, fmt.Errorf("split expects exactly 2 arguments, got %d", len(ctx.Args))
	}
	s, ok := ctx.Args[0].(values.String)
	if !ok {
		return nil, fmt.Errorf("split expects a String as its first argument, got %s", ctx.Args[0].Type())
	}
	sep, ok := ctx.Args[1].(values.String)
	if !ok {
		return nil, fmt.Errorf("split expects a String as its second argument, got %s", ctx.Args[1].Type())
	}
	parts := funcs.Split(string(s), string(sep))
	out := make([]values.Value, len(parts))
	for i, p := range parts {
		out[i] = values.String(p)
	}
	return values.NewArray(out...), nil
}

func builtinVersionCmp(ctx *FunctionCallContext) (values.Value, error) {
	if len(ctx.Args) != 2 {
		return nil, fmt.Errorf("versioncmp expects exactly 2 arguments, got %d", len(ctx.Args))
	}
	a, ok := ctx.Args[0].(values.String)
	if !ok {
		return nil, fmt.Errorf("versioncmp expects String arguments, got %s", ctx.Args[0].Type())
	}
	b, ok := ctx.Args[1].(values.String)
	if !ok {
		return nil, fmt.Errorf("versioncmp expects String arguments, got %s", ctx.Args[1].Type())
	}
	return values.Integer(funcs.VersionCmp(string(a), string(b))), nil
}

func builtinWith(ctx *FunctionCallContext) (values.Value, error) {
	return ctx.CallLambda(ctx.Args...)
}

func builtinFile(ctx *FunctionCallContext) (values.Value, error) {
	if len(ctx.Args) < 1 {
		return nil, fmt.Errorf("file expects at least one path argument")
	}
	if ctx.Eval.Finder == nil {
		return nil, fmt.Errorf("file: no Finder configured")
	}
	for _, a := range ctx.Args {
		path, ok := a.(values.String)
		if !ok {
			continue
		}
		if src, _, ok := ctx.Eval.Finder.Find(string(path)); ok {
			return values.String(string(src)), nil
		}
	}
	return nil, fmt.Errorf("file: could not find any of the given paths")
}

func builtinBreak(ctx *FunctionCallContext) (values.Value, error) {
	var v values.Value = values.Undef{}
	if len(ctx.Args) > 0 {
		v = ctx.Args[0]
	}
	return nil, breakSignal{value: v}
}

func builtinSprintf(ctx *FunctionCallContext) (values.Value, error) {
	if len(ctx.Args) < 1 {
		return nil, fmt.Errorf("sprintf expects at least a format string")
	}
	format, ok := ctx.Args[0].(values.String)
	if !ok {
		return nil, fmt.Errorf("sprintf expects a String format, got %s", ctx.Args[0].Type())
	}
	rest := make([]interface{}, len(ctx.Args)-1)
	for i, a := range ctx.Args[1:] {
		rest[i] = unwrapForPrintf(a)
	}
	return values.String(fmt.Sprintf(string(format), rest...)), nil
}

func unwrapForPrintf(v values.Value) interface{} {
	switch x := v.(type) {
	case values.String:
		return string(x)
	case values.Integer:
		return int64(x)
	case values.Float:
		return float64(x)
	case values.Bool:
		return bool(x)
	default:
		return v.String()
	}
}
