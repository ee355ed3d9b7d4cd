package values

import "github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/types"

// Iterator is a lazily-produced sequence, the Value form of the
// "iterator" variant, built by ArrayIterator and HashIterator. The
// iteration builtins (`each`/`map`/`filter`/`reverse_each`) do not return
// an Iterator, and the evaluator's iteration contract does not accept one.
type Iterator struct {
	Element types.Type
	Next    func() (Value, bool)
}

func (it *Iterator) Type() types.Type {
	return &types.IteratorType{Element: it.Element}
}
func (it *Iterator) String() string { return "<iterator>" }
func (*Iterator) valueNode()        {}

// Drain exhausts the iterator into an Array, used when an Iterator value
// escapes into a context that requires a concrete collection (e.g.
// string interpolation or JSON projection).
func (it *Iterator) Drain() *Array {
	var elems []Value
	for {
		v, ok := it.Next()
		if !ok {
			break
		}
		elems = append(elems, v)
	}
	return &Array{Elements: elems}
}

// ArrayIterator returns an Iterator walking arr's elements in order.
func ArrayIterator(arr *Array) *Iterator {
	i := 0
	return &Iterator{
		Element: arr.Type().(*types.ArrayType).Element,
		Next: func() (Value, bool) {
			if i >= len(arr.Elements) {
				return nil, false
			}
			v := arr.Elements[i]
			i++
			return v, true
		},
	}
}

// HashIterator returns an Iterator walking h's pairs as [key, value]
// two-element Arrays, matching Puppet's each-on-a-Hash block arity of 2.
func HashIterator(h *Hash) *Iterator {
	i := 0
	return &Iterator{
		Element: &types.TupleType{Elements: []types.Type{types.AnyType{}, types.AnyType{}}},
		Next: func() (Value, bool) {
			if i >= len(h.Pairs) {
				return nil, false
			}
			p := h.Pairs[i]
			i++
			return NewArray(p.Key, p.Value), true
		},
	}
}

// Variable is a deferred reference to a scope-bound name, the Value
// form of the "variable" variant. The evaluator resolves variables,
// qualified ones included, without producing Variable values, so it is
// never an observable result of evaluating a manifest.
type Variable struct{ Name string }

func (Variable) Type() types.Type { return types.AnyType{} }
func (v Variable) String() string { return "$" + v.Name }
func (Variable) valueNode()       {}
