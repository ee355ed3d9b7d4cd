package eval

import (
	"fmt"
	"math"

	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/ast"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/values"
	perrors "github.com/puppetlabs-toy-chest/puppetcpp-sub003/errors"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/token"
)

// evalBinaryExpr evaluates x's operands and dispatches to the operator
// implementation, building a BinaryOperatorContext per the original
// implementation's binary_operator_context.hpp pattern so the dispatch
// table can report precise type-mismatch diagnostics.
func (e *Evaluator) evalBinaryExpr(x *ast.BinaryExpr, scope *Scope) (values.Value, error) {
	xv, err := e.evalExpr(x.X, scope)
	if err != nil {
		return nil, err
	}
	// and/or short-circuit: the right operand is only evaluated when it
	// can affect the result.
	switch x.Op {
	case token.AND:
		if !values.Truthy(xv) {
			return values.Bool(false), nil
		}
		yv, err := e.evalExpr(x.Y, scope)
		if err != nil {
			return nil, err
		}
		return values.Bool(values.Truthy(yv)), nil
	case token.OR:
		if values.Truthy(xv) {
			return values.Bool(true), nil
		}
		yv, err := e.evalExpr(x.Y, scope)
		if err != nil {
			return nil, err
		}
		return values.Bool(values.Truthy(yv)), nil
	}

	yv, err := e.evalExpr(x.Y, scope)
	if err != nil {
		return nil, err
	}

	ctx := &BinaryOperatorContext{
		Eval: e, Pos: x.Pos(), Op: x.Op,
		X: xv, Y: yv, XPos: x.X.Pos(), YPos: x.Y.Pos(),
	}
	return evalBinaryOp(ctx)
}

func evalBinaryOp(ctx *BinaryOperatorContext) (values.Value, error) {
	switch ctx.Op {
	case token.EQL:
		return values.Bool(values.Equivalent(ctx.X) == values.Equivalent(ctx.Y)), nil
	case token.NEQ:
		return values.Bool(values.Equivalent(ctx.X) != values.Equivalent(ctx.Y)), nil
	case token.ADD:
		return arith(ctx, "+")
	case token.SUB:
		return arith(ctx, "-")
	case token.MUL:
		return arith(ctx, "*")
	case token.QUO:
		return arith(ctx, "/")
	case token.REM:
		return arith(ctx, "%")
	case token.SHL:
		return shift(ctx, true)
	case token.SHR:
		return shift(ctx, false)
	case token.LSS, token.LEQ, token.GTR, token.GEQ:
		return compare(ctx)
	default:
		return nil, perrors.Newf(perrors.EvaluationError, ctx.Pos, "unsupported binary operator %s", ctx.Op)
	}
}

func arith(ctx *BinaryOperatorContext, op string) (values.Value, error) {
	if v, ok, err := collectionArith(ctx, op); ok {
		return v, err
	}
	xIsInt, xn, xOk := asNumeric(ctx.X)
	yIsInt, yn, yOk := asNumeric(ctx.Y)
	if !xOk {
		return nil, typeMismatch(ctx, ctx.XPos, ctx.X)
	}
	if !yOk {
		return nil, typeMismatch(ctx, ctx.YPos, ctx.Y)
	}
	bothInt := xIsInt && yIsInt
	if bothInt {
		xi, yi := int64(xn), int64(yn)
		switch op {
		case "+":
			r, ok := addInt64(xi, yi)
			if !ok {
				return nil, perrors.Newf(perrors.EvaluationError, ctx.Pos, "arithmetic overflow: %d + %d", xi, yi)
			}
			return values.Integer(r), nil
		case "-":
			r, ok := subInt64(xi, yi)
			if !ok {
				return nil, perrors.Newf(perrors.EvaluationError, ctx.Pos, "arithmetic overflow: %d - %d", xi, yi)
			}
			return values.Integer(r), nil
		case "*":
			r, ok := mulInt64(xi, yi)
			if !ok {
				return nil, perrors.Newf(perrors.EvaluationError, ctx.Pos, "arithmetic overflow: %d * %d", xi, yi)
			}
			return values.Integer(r), nil
		case "/":
			if yi == 0 {
				return nil, perrors.Newf(perrors.EvaluationError, ctx.Pos, "division by zero")
			}
			return values.Integer(xi / yi), nil
		case "%":
			if yi == 0 {
				return nil, perrors.Newf(perrors.EvaluationError, ctx.Pos, "division by zero")
			}
			return values.Integer(xi % yi), nil
		}
	}
	if op == "%" {
		return nil, perrors.Newf(perrors.EvaluationError, ctx.Pos, "%% requires Integer operands")
	}
	var result float64
	switch op {
	case "+":
		result = xn + yn
	case "-":
		result = xn - yn
	case "*":
		result = xn * yn
	case "/":
		if yn == 0 {
			return nil, perrors.Newf(perrors.EvaluationError, ctx.Pos, "division by zero")
		}
		result = xn / yn
	}
	return values.Float(result), nil
}

// addInt64, subInt64, and mulInt64 detect signed 64-bit overflow by
// checking the result against the operands before trusting it, so that
// e.g. MaxInt64 + 1 raises an error instead of silently wrapping.
func addInt64(a, b int64) (int64, bool) {
	r := a + b
	if (b > 0 && r < a) || (b < 0 && r > a) {
		return 0, false
	}
	return r, true
}

func subInt64(a, b int64) (int64, bool) {
	r := a - b
	if (b < 0 && r < a) || (b > 0 && r > a) {
		return 0, false
	}
	return r, true
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if b == -1 && a == math.MinInt64 {
		return 0, false
	}
	r := a * b
	if r/b != a {
		return 0, false
	}
	return r, true
}

// collectionArith implements the Array/Hash +/- combinations. The bool
// return reports whether the left operand was an Array or Hash and the
// operator was + or - (and thus this function, not the numeric path,
// owns the result); when true, the accompanying value and error
// (possibly nil) are the final result.
func collectionArith(ctx *BinaryOperatorContext, op string) (values.Value, bool, error) {
	xa, xIsArray := ctx.X.(*values.Array)
	xh, xIsHash := ctx.X.(*values.Hash)
	if !xIsArray && !xIsHash {
		return nil, false, nil
	}
	switch op {
	case "+":
		switch y := ctx.Y.(type) {
		case *values.Array:
			if xIsArray {
				return xa.Concat(y), true, nil
			}
			if xIsHash {
				merged, err := hashMergeFlatOrPairs(xh, y)
				return merged, true, err
			}
		case *values.Hash:
			if xIsHash {
				return xh.Merge(y), true, nil
			}
			if xIsArray {
				return xa.Concat(hashAsPairArray(y)), true, nil
			}
		default:
			if xIsArray {
				return xa.Append(y), true, nil
			}
		}
		if xIsHash {
			return nil, true, perrors.Newf(perrors.EvaluationError, ctx.YPos, "a Hash can only be added to with a Hash or Array, got %s", ctx.Y.Type())
		}
	case "-":
		if xIsArray {
			switch y := ctx.Y.(type) {
			case *values.Array:
				return arrayMinus(xa, y.Elements), true, nil
			case *values.Hash:
				return arrayMinus(xa, hashAsPairArray(y).Elements), true, nil
			default:
				return arrayMinus(xa, []values.Value{y}), true, nil
			}
		}
		if xIsHash {
			switch y := ctx.Y.(type) {
			case *values.Hash:
				return hashMinusKeys(xh, pairKeys(y.Pairs)), true, nil
			case *values.Array:
				return hashMinusKeys(xh, y.Elements), true, nil
			default:
				return hashMinusKeys(xh, []values.Value{y}), true, nil
			}
		}
	}
	return nil, false, nil
}

// hashAsPairArray projects h into an Array of [key, value] 2-element
// Arrays, used by Array+Hash ("append each [k,v] pair as an element")
// and reused for Array-Hash too, since both resolve through the same
// pair projection.
func hashAsPairArray(h *values.Hash) *values.Array {
	out := make([]values.Value, len(h.Pairs))
	for i, p := range h.Pairs {
		out[i] = values.NewArray(p.Key, p.Value)
	}
	return values.NewArray(out...)
}

// hashMergeFlatOrPairs implements the Hash+Array rule: an array of
// 2-element arrays forms key/value merges; otherwise it must be an
// even-length flat list [k1,v1,k2,v2,...], and an odd length is an
// error.
func hashMergeFlatOrPairs(h *values.Hash, arr *values.Array) (*values.Hash, error) {
	allPairs := len(arr.Elements) > 0
	for _, el := range arr.Elements {
		pair, ok := el.(*values.Array)
		if !ok || len(pair.Elements) != 2 {
			allPairs = false
			break
		}
	}
	out := h
	if allPairs {
		for _, el := range arr.Elements {
			pair := el.(*values.Array)
			out = out.Set(pair.Elements[0], pair.Elements[1])
		}
		return out, nil
	}
	if len(arr.Elements)%2 != 0 {
		return h, fmt.Errorf("Hash + Array requires an even number of elements when not pairs, got %d", len(arr.Elements))
	}
	for i := 0; i+1 < len(arr.Elements); i += 2 {
		out = out.Set(arr.Elements[i], arr.Elements[i+1])
	}
	return out, nil
}

func pairKeys(pairs []values.HashPair) []values.Value {
	out := make([]values.Value, len(pairs))
	for i, p := range pairs {
		out[i] = p.Key
	}
	return out
}

// arrayMinus returns a new Array holding a's elements that are not
// structurally equivalent to any element of remove.
func arrayMinus(a *values.Array, remove []values.Value) *values.Array {
	drop := make(map[string]bool, len(remove))
	for _, r := range remove {
		drop[values.Equivalent(r)] = true
	}
	out := make([]values.Value, 0, len(a.Elements))
	for _, el := range a.Elements {
		if !drop[values.Equivalent(el)] {
			out = append(out, el)
		}
	}
	return values.NewArray(out...)
}

// hashMinusKeys returns a new Hash with every pair whose key is
// structurally equivalent to one of keys removed.
func hashMinusKeys(h *values.Hash, keys []values.Value) *values.Hash {
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[values.Equivalent(k)] = true
	}
	out := make([]values.HashPair, 0, len(h.Pairs))
	for _, p := range h.Pairs {
		if !drop[values.Equivalent(p.Key)] {
			out = append(out, p)
		}
	}
	return values.NewHash(out...)
}

func asNumeric(v values.Value) (isInt bool, f float64, ok bool) {
	switch n := v.(type) {
	case values.Integer:
		return true, float64(n), true
	case values.Float:
		return false, float64(n), true
	default:
		return false, 0, false
	}
}

func shift(ctx *BinaryOperatorContext, left bool) (values.Value, error) {
	xi, ok := ctx.X.(values.Integer)
	if !ok {
		return nil, typeMismatch(ctx, ctx.XPos, ctx.X)
	}
	yi, ok := ctx.Y.(values.Integer)
	if !ok {
		return nil, typeMismatch(ctx, ctx.YPos, ctx.Y)
	}
	if left {
		return values.Integer(int64(xi) << uint64(yi)), nil
	}
	return values.Integer(int64(xi) >> uint64(yi)), nil
}

func compare(ctx *BinaryOperatorContext) (values.Value, error) {
	if xs, ok := ctx.X.(values.String); ok {
		ys, ok := ctx.Y.(values.String)
		if !ok {
			return nil, typeMismatch(ctx, ctx.YPos, ctx.Y)
		}
		return values.Bool(compareOp(ctx.Op, stringCompare(string(xs), string(ys)))), nil
	}
	_, xn, xOk := asNumeric(ctx.X)
	_, yn, yOk := asNumeric(ctx.Y)
	if !xOk {
		return nil, typeMismatch(ctx, ctx.XPos, ctx.X)
	}
	if !yOk {
		return nil, typeMismatch(ctx, ctx.YPos, ctx.Y)
	}
	c := 0
	switch {
	case xn < yn:
		c = -1
	case xn > yn:
		c = 1
	}
	return values.Bool(compareOp(ctx.Op, c)), nil
}

func compareOp(op token.Token, c int) bool {
	switch op {
	case token.LSS:
		return c < 0
	case token.LEQ:
		return c <= 0
	case token.GTR:
		return c > 0
	case token.GEQ:
		return c >= 0
	}
	return false
}

func stringCompare(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func typeMismatch(ctx *BinaryOperatorContext, pos token.Pos, v values.Value) error {
	return perrors.Newf(perrors.EvaluationError, pos, "operator %s is not supported for a value of type %s", ctx.Op, v.Type())
}
