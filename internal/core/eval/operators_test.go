package eval

import (
	"math"
	"testing"

	"github.com/go-quicktest/qt"
	"github.com/google/go-cmp/cmp"

	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/values"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/token"
)

func binCtx(op token.Token, x, y values.Value) *BinaryOperatorContext {
	return &BinaryOperatorContext{Op: op, X: x, Y: y}
}

// TestIntegerAdditionOverflowErrors guards the testable property that
// MaxInt64 + 1 must error rather than silently wrap.
func TestIntegerAdditionOverflowErrors(t *testing.T) {
	_, err := evalBinaryOp(binCtx(token.ADD, values.Integer(math.MaxInt64), values.Integer(1)))
	qt.Assert(t, qt.IsNotNil(err))
}

func TestIntegerSubtractionUnderflowErrors(t *testing.T) {
	_, err := evalBinaryOp(binCtx(token.SUB, values.Integer(math.MinInt64), values.Integer(1)))
	qt.Assert(t, qt.IsNotNil(err))
}

func TestIntegerMultiplicationOverflowErrors(t *testing.T) {
	_, err := evalBinaryOp(binCtx(token.MUL, values.Integer(math.MaxInt64), values.Integer(2)))
	qt.Assert(t, qt.IsNotNil(err))
}

func TestIntegerArithmeticWithinRangeSucceeds(t *testing.T) {
	v, err := evalBinaryOp(binCtx(token.ADD, values.Integer(2), values.Integer(3)))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(v, values.Integer(5)))
}

func TestDivisionByZeroErrors(t *testing.T) {
	_, err := evalBinaryOp(binCtx(token.QUO, values.Integer(1), values.Integer(0)))
	qt.Assert(t, qt.IsNotNil(err))
}

func TestMixedIntFloatArithmeticPromotesToFloat(t *testing.T) {
	v, err := evalBinaryOp(binCtx(token.ADD, values.Integer(1), values.Float(0.5)))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(v, values.Float(1.5)))
}

func TestArrayPlusArrayConcatenates(t *testing.T) {
	a := values.NewArray(values.Integer(1), values.Integer(2))
	b := values.NewArray(values.Integer(3))
	v, err := evalBinaryOp(binCtx(token.ADD, a, b))
	qt.Assert(t, qt.IsNil(err))
	got := v.(*values.Array)
	want := []values.Value{values.Integer(1), values.Integer(2), values.Integer(3)}
	if diff := cmp.Diff(want, got.Elements); diff != "" {
		t.Errorf("Array+Array mismatch (-want +got):\n%s", diff)
	}
}

func TestArrayPlusAnyAppends(t *testing.T) {
	a := values.NewArray(values.Integer(1))
	v, err := evalBinaryOp(binCtx(token.ADD, a, values.Integer(2)))
	qt.Assert(t, qt.IsNil(err))
	got := v.(*values.Array)
	qt.Assert(t, qt.Equals(len(got.Elements), 2))
}

func TestArrayPlusHashAppendsPairs(t *testing.T) {
	a := values.NewArray()
	h := values.NewHash(values.HashPair{Key: values.String("k"), Value: values.Integer(1)})
	v, err := evalBinaryOp(binCtx(token.ADD, a, h))
	qt.Assert(t, qt.IsNil(err))
	got := v.(*values.Array)
	qt.Assert(t, qt.Equals(len(got.Elements), 1))
	pair := got.Elements[0].(*values.Array)
	qt.Assert(t, qt.DeepEquals(pair.Elements, []values.Value{values.String("k"), values.Integer(1)}))
}

func TestHashPlusHashMergesRightWins(t *testing.T) {
	h1 := values.NewHash(values.HashPair{Key: values.String("a"), Value: values.Integer(1)})
	h2 := values.NewHash(values.HashPair{Key: values.String("a"), Value: values.Integer(2)})
	v, err := evalBinaryOp(binCtx(token.ADD, h1, h2))
	qt.Assert(t, qt.IsNil(err))
	got, ok := v.(*values.Hash).Get(values.String("a"))
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(got, values.Integer(2)))
}

func TestHashPlusArrayOfPairsMerges(t *testing.T) {
	h := values.NewHash()
	pairs := values.NewArray(values.NewArray(values.String("a"), values.Integer(1)))
	v, err := evalBinaryOp(binCtx(token.ADD, h, pairs))
	qt.Assert(t, qt.IsNil(err))
	got, ok := v.(*values.Hash).Get(values.String("a"))
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(got, values.Integer(1)))
}

func TestHashPlusFlatArrayMerges(t *testing.T) {
	h := values.NewHash()
	flat := values.NewArray(values.String("a"), values.Integer(1), values.String("b"), values.Integer(2))
	v, err := evalBinaryOp(binCtx(token.ADD, h, flat))
	qt.Assert(t, qt.IsNil(err))
	got := v.(*values.Hash)
	qt.Assert(t, qt.Equals(len(got.Pairs), 2))
}

func TestHashPlusOddFlatArrayErrors(t *testing.T) {
	h := values.NewHash()
	flat := values.NewArray(values.String("a"), values.Integer(1), values.String("b"))
	_, err := evalBinaryOp(binCtx(token.ADD, h, flat))
	qt.Assert(t, qt.IsNotNil(err))
}

func TestArrayMinusArrayRemovesMatching(t *testing.T) {
	a := values.NewArray(values.Integer(1), values.Integer(2), values.Integer(3))
	b := values.NewArray(values.Integer(2))
	v, err := evalBinaryOp(binCtx(token.SUB, a, b))
	qt.Assert(t, qt.IsNil(err))
	got := v.(*values.Array)
	qt.Assert(t, qt.DeepEquals(got.Elements, []values.Value{values.Integer(1), values.Integer(3)}))
}

func TestHashMinusArrayRemovesKeys(t *testing.T) {
	h := values.NewHash(
		values.HashPair{Key: values.String("a"), Value: values.Integer(1)},
		values.HashPair{Key: values.String("b"), Value: values.Integer(2)},
	)
	remove := values.NewArray(values.String("a"))
	v, err := evalBinaryOp(binCtx(token.SUB, h, remove))
	qt.Assert(t, qt.IsNil(err))
	got := v.(*values.Hash)
	_, ok := got.Get(values.String("a"))
	qt.Assert(t, qt.IsFalse(ok))
	_, ok = got.Get(values.String("b"))
	qt.Assert(t, qt.IsTrue(ok))
}

func TestStringComparisonIsOrdinal(t *testing.T) {
	v, err := evalBinaryOp(binCtx(token.LSS, values.String("abc"), values.String("abd")))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(v, values.Bool(true)))
}

func TestComparingMismatchedTypesErrors(t *testing.T) {
	_, err := evalBinaryOp(binCtx(token.LSS, values.String("a"), values.Integer(1)))
	qt.Assert(t, qt.IsNotNil(err))
}
