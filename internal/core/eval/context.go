package eval

import (
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/ast"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/values"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/token"
)

// BinaryOperatorContext is passed to a binary operator implementation,
// grounded on original_source's binary_operator_context.hpp: operators
// need the operand values, their source positions (for precise mismatch
// diagnostics), and a way to recurse into the evaluator for operators
// that are defined partly in terms of others (e.g. `!=` as `! (a == b)`).
type BinaryOperatorContext struct {
	Eval *Evaluator
	Pos  token.Pos
	Op   token.Token
	X, Y values.Value
	XPos, YPos token.Pos
}

// FunctionCallContext is passed to a function implementation, grounded on
// original_source's function_call_context.hpp: a function needs the
// evaluated arguments, an optional lambda to invoke (for iteration
// functions), the calling scope (so functions like `include` can resolve
// relative names), and the call's source position for diagnostics.
type FunctionCallContext struct {
	Eval   *Evaluator
	Scope  *Scope
	Pos    token.Pos
	Name   string
	Args   []values.Value
	Lambda *ast.LambdaExpr
}

// CallLambda invokes ctx's lambda (if any) with the given positional
// arguments, returning its body's final value. It is the hook iteration
// functions (each/map/filter/reduce/reverse_each) use to run user code
// against each element.
func (ctx *FunctionCallContext) CallLambda(args ...values.Value) (values.Value, error) {
	return ctx.Eval.callLambda(ctx.Scope, ctx.Lambda, args)
}
