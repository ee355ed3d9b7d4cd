package types_test

import (
	"math"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/types"
)

func TestAssignableScalarToAny(t *testing.T) {
	qt.Assert(t, qt.IsTrue(types.AssignableFrom(types.AnyType{}, types.IntegerType{Min: math.MinInt64, Max: math.MaxInt64})))
}

func TestAssignableIntegerRange(t *testing.T) {
	wide := types.IntegerType{Min: 0, Max: 100}
	narrow := types.IntegerType{Min: 10, Max: 20}
	qt.Assert(t, qt.IsTrue(types.AssignableFrom(wide, narrow)))
	qt.Assert(t, qt.IsFalse(types.AssignableFrom(narrow, wide)))
}

func TestAssignableNumericAcceptsIntegerAndFloat(t *testing.T) {
	qt.Assert(t, qt.IsTrue(types.AssignableFrom(types.NumericType{}, types.IntegerType{Min: math.MinInt64, Max: math.MaxInt64})))
	qt.Assert(t, qt.IsTrue(types.AssignableFrom(types.NumericType{}, types.FloatType{Min: math.Inf(-1), Max: math.Inf(1)})))
}

func TestVariantDedupByStructuralEquality(t *testing.T) {
	v := types.NewVariantType(types.BooleanType{}, types.BooleanType{}, types.UndefType{})
	qt.Assert(t, qt.Equals(len(v.Alternatives), 2))
}

func TestAssignableVariantMember(t *testing.T) {
	v := types.NewVariantType(types.BooleanType{}, types.UndefType{})
	qt.Assert(t, qt.IsTrue(types.AssignableFrom(v, types.BooleanType{})))
	qt.Assert(t, qt.IsFalse(types.AssignableFrom(v, types.StringType{Bounded: false})))
}

func TestNormalizeResourceTypeName(t *testing.T) {
	qt.Assert(t, qt.Equals(types.NormalizeResourceTypeName("file"), "File"))
	qt.Assert(t, qt.Equals(types.NormalizeResourceTypeName("my_module::sub_class"), "My_module::Sub_class"))
}

func TestInstanceOfIsAssignableFromAlias(t *testing.T) {
	qt.Assert(t, qt.IsTrue(types.InstanceOf(types.AnyType{}, types.BooleanType{})))
}

func TestArrayTypeStringUnbounded(t *testing.T) {
	a := &types.ArrayType{Element: types.BooleanType{}}
	qt.Assert(t, qt.Equals(a.String(), "Array[Boolean]"))
}
