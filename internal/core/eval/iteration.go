package eval

import (
	"fmt"

	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/ast"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/values"
)

// breakSignal is the control-flow value a `break` call raises from
// inside a lambda, recognized by the iteration driver to terminate
// early. It implements error so it propagates through the ordinary
// evalStmt/evalBody error-return chain without any extra plumbing.
type breakSignal struct {
	value values.Value
}

func (b breakSignal) Error() string { return "break" }

// iterationElements expands v into one [key, value] argument pair per
// call according to the iteration contract, or an error if v is not
// iterable: arrays yield [index, element]; hashes yield [key, value]
// pairs; integers yield a 0..n-1 range; strings yield each
// Unicode codepoint as a single-character string.
func iterationElements(v values.Value) ([][]values.Value, error) {
	switch c := v.(type) {
	case *values.Array:
		out := make([][]values.Value, len(c.Elements))
		for i, el := range c.Elements {
			out[i] = []values.Value{values.Integer(i), el}
		}
		return out, nil
	case *values.Hash:
		out := make([][]values.Value, len(c.Pairs))
		for i, p := range c.Pairs {
			out[i] = []values.Value{p.Key, p.Value}
		}
		return out, nil
	case values.Integer:
		n := int(c)
		out := make([][]values.Value, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, []values.Value{values.Integer(i), values.Integer(i)})
		}
		return out, nil
	case values.String:
		runes := []rune(string(c))
		out := make([][]values.Value, len(runes))
		for i, r := range runes {
			out[i] = []values.Value{values.Integer(i), values.String(string(r))}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot iterate a value of type %s", v.Type())
	}
}

// lambdaArgs narrows a [key, value] pair down to what the lambda's
// declared arity expects: arity 1 gets just the value (or a [key, value]
// 2-tuple Array when iterating a Hash), arity 2 gets both positionally.
func lambdaArgs(pair []values.Value, arity int, fromHash bool) []values.Value {
	if arity >= 2 {
		return pair
	}
	if fromHash {
		return []values.Value{values.NewArray(pair...)}
	}
	return []values.Value{pair[1]}
}

func builtinEach(ctx *FunctionCallContext) (values.Value, error) {
	if len(ctx.Args) != 1 {
		return nil, fmt.Errorf("each expects exactly 1 argument, got %d", len(ctx.Args))
	}
	_, fromHash := ctx.Args[0].(*values.Hash)
	pairs, err := iterationElements(ctx.Args[0])
	if err != nil {
		return nil, err
	}
	arity := lambdaArity(ctx.Lambda)
	for _, pair := range pairs {
		_, err := ctx.CallLambda(lambdaArgs(pair, arity, fromHash)...)
		if err != nil {
			if _, ok := err.(breakSignal); ok {
				break
			}
			return nil, err
		}
	}
	return ctx.Args[0], nil
}

func builtinReverseEach(ctx *FunctionCallContext) (values.Value, error) {
	if len(ctx.Args) != 1 {
		return nil, fmt.Errorf("reverse_each expects exactly 1 argument, got %d", len(ctx.Args))
	}
	_, fromHash := ctx.Args[0].(*values.Hash)
	pairs, err := iterationElements(ctx.Args[0])
	if err != nil {
		return nil, err
	}
	arity := lambdaArity(ctx.Lambda)
	for i := len(pairs) - 1; i >= 0; i-- {
		_, err := ctx.CallLambda(lambdaArgs(pairs[i], arity, fromHash)...)
		if err != nil {
			if _, ok := err.(breakSignal); ok {
				break
			}
			return nil, err
		}
	}
	return ctx.Args[0], nil
}

func builtinMap(ctx *FunctionCallContext) (values.Value, error) {
	if len(ctx.Args) != 1 {
		return nil, fmt.Errorf("map expects exactly 1 argument, got %d", len(ctx.Args))
	}
	_, fromHash := ctx.Args[0].(*values.Hash)
	pairs, err := iterationElements(ctx.Args[0])
	if err != nil {
		return nil, err
	}
	arity := lambdaArity(ctx.Lambda)
	results := make([]values.Value, 0, len(pairs))
	for _, pair := range pairs {
		v, err := ctx.CallLambda(lambdaArgs(pair, arity, fromHash)...)
		if err != nil {
			if b, ok := err.(breakSignal); ok {
				results = append(results, b.value)
				break
			}
			return nil, err
		}
		results = append(results, v)
	}
	return values.NewArray(results...), nil
}

func builtinFilter(ctx *FunctionCallContext) (values.Value, error) {
	if len(ctx.Args) != 1 {
		return nil, fmt.Errorf("filter expects exactly 1 argument, got %d", len(ctx.Args))
	}
	_, fromHash := ctx.Args[0].(*values.Hash)
	pairs, err := iterationElements(ctx.Args[0])
	if err != nil {
		return nil, err
	}
	arity := lambdaArity(ctx.Lambda)
	results := make([]values.Value, 0, len(pairs))
	for _, pair := range pairs {
		v, err := ctx.CallLambda(lambdaArgs(pair, arity, fromHash)...)
		if err != nil {
			if _, ok := err.(breakSignal); ok {
				break
			}
			return nil, err
		}
		if values.Truthy(v) {
			results = append(results, pair[1])
		}
	}
	return values.NewArray(results...), nil
}

func builtinReduce(ctx *FunctionCallContext) (values.Value, error) {
	if len(ctx.Args) < 1 || len(ctx.Args) > 2 {
		return nil, fmt.Errorf("reduce expects 1 or 2 arguments, got %d", len(ctx.Args))
	}
	_, fromHash := ctx.Args[0].(*values.Hash)
	pairs, err := iterationElements(ctx.Args[0])
	if err != nil {
		return nil, err
	}

	var memo values.Value
	start := 0
	if len(ctx.Args) == 2 {
		memo = ctx.Args[1]
	} else {
		if len(pairs) == 0 {
			return values.Undef{}, nil
		}
		memo = pairs[0][1]
		if fromHash {
			memo = values.NewArray(pairs[0]...)
		}
		start = 1
	}

	for _, pair := range pairs[start:] {
		elem := pair[1]
		if fromHash {
			elem = values.NewArray(pair...)
		}
		v, err := ctx.CallLambda(memo, elem)
		if err != nil {
			if b, ok := err.(breakSignal); ok {
				if _, isUndef := b.value.(values.Undef); !isUndef {
					memo = b.value
				}
				break
			}
			return nil, err
		}
		memo = v
	}
	return memo, nil
}

func lambdaArity(lambda *ast.LambdaExpr) int {
	if lambda == nil {
		return 1
	}
	return len(lambda.Params)
}
