package values_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/values"
)

func TestTruthy(t *testing.T) {
	qt.Assert(t, qt.IsFalse(values.Truthy(values.Undef{})))
	qt.Assert(t, qt.IsFalse(values.Truthy(values.Bool(false))))
	qt.Assert(t, qt.IsTrue(values.Truthy(values.Bool(true))))
	qt.Assert(t, qt.IsTrue(values.Truthy(values.Integer(0))))
	qt.Assert(t, qt.IsTrue(values.Truthy(values.String(""))))
}

func TestEquivalentHashIgnoresPairOrder(t *testing.T) {
	h1 := values.NewHash(
		values.HashPair{Key: values.String("a"), Value: values.Integer(1)},
		values.HashPair{Key: values.String("b"), Value: values.Integer(2)},
	)
	h2 := values.NewHash(
		values.HashPair{Key: values.String("b"), Value: values.Integer(2)},
		values.HashPair{Key: values.String("a"), Value: values.Integer(1)},
	)
	qt.Assert(t, qt.Equals(values.Equivalent(h1), values.Equivalent(h2)))
}

func TestEquivalentArrayOrderMatters(t *testing.T) {
	a1 := values.NewArray(values.Integer(1), values.Integer(2))
	a2 := values.NewArray(values.Integer(2), values.Integer(1))
	qt.Assert(t, qt.Not(qt.Equals(values.Equivalent(a1), values.Equivalent(a2))))
}

func TestArrayAppendDoesNotMutateReceiver(t *testing.T) {
	a := values.NewArray(values.Integer(1))
	b := a.Append(values.Integer(2))
	qt.Assert(t, qt.Equals(len(a.Elements), 1))
	qt.Assert(t, qt.Equals(len(b.Elements), 2))
}

func TestHashSetDoesNotMutateReceiver(t *testing.T) {
	h := values.NewHash(values.HashPair{Key: values.String("a"), Value: values.Integer(1)})
	h2 := h.Set(values.String("a"), values.Integer(2))
	v, _ := h.Get(values.String("a"))
	qt.Assert(t, qt.Equals(v, values.Integer(1)))
	v2, _ := h2.Get(values.String("a"))
	qt.Assert(t, qt.Equals(v2, values.Integer(2)))
}

func TestHashSetAppendsNewKeyPreservingOrder(t *testing.T) {
	h := values.NewHash(values.HashPair{Key: values.String("a"), Value: values.Integer(1)})
	h2 := h.Set(values.String("b"), values.Integer(2))
	qt.Assert(t, qt.Equals(len(h2.Pairs), 2))
	qt.Assert(t, qt.Equals(h2.Pairs[1].Key, values.Value(values.String("b"))))
}

func TestInspectQuotesStrings(t *testing.T) {
	qt.Assert(t, qt.Equals(values.Inspect(values.String("it's")), `'it\'s'`))
	qt.Assert(t, qt.Equals(values.Inspect(values.Undef{}), "undef"))
}
