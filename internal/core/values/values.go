// Package values implements the runtime Value representation: a tagged
// variant over undef, defaulted, bool, integer (i64), float (f64),
// string, regex, type, array, hash, iterator, and variable-reference
// values, with shared-immutable semantics and copy-on-write updates.
// The closed-interface tagging style is grounded
// on cue/ast's Node family, adapted here to runtime values instead of
// syntax tree nodes.
package values

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/types"
)

// Value is any runtime value produced by evaluation.
type Value interface {
	// Type returns the most specific static Type describing this value.
	Type() types.Type
	// String renders the value in Puppet's canonical string-conversion
	// form (used by string interpolation).
	String() string
	valueNode()
}

// Undef is the single undef value.
type Undef struct{}

func (Undef) Type() types.Type { return types.UndefType{} }
func (Undef) String() string   { return "" }
func (Undef) valueNode()       {}

// Default is the single `default` value, used as a selector/case
// wildcard and as a resource-attribute sentinel.
type Default struct{}

func (Default) Type() types.Type { return types.DefaultType{} }
func (Default) String() string   { return "default" }
func (Default) valueNode()       {}

// Bool wraps a boolean value.
type Bool bool

func (Bool) Type() types.Type { return types.BooleanType{} }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) valueNode() {}

// Integer wraps a 64-bit signed integer.
type Integer int64

func (i Integer) Type() types.Type { return types.IntegerType{Min: int64(i), Max: int64(i)} }
func (i Integer) String() string   { return strconv.FormatInt(int64(i), 10) }
func (Integer) valueNode()         {}

// Float wraps a 64-bit float.
type Float float64

func (f Float) Type() types.Type {
	return types.FloatType{Min: float64(f), Max: float64(f), Bounded: true}
}
func (f Float) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }
func (Float) valueNode()       {}

// String wraps a Puppet string.
type String string

func (s String) Type() types.Type {
	return types.StringType{Bounded: true, MinLen: len(s), MaxLen: len(s)}
}
func (s String) String() string { return string(s) }
func (String) valueNode()       {}

// Regex wraps a compiled regular expression plus its source pattern.
type Regex struct {
	Pattern string
	re      *regexp.Regexp
}

// NewRegex compiles pattern (in RE2 syntax, using Go's native regexp
// engine rather than PCRE) into a Regex value.
func NewRegex(pattern string) (Regex, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Regex{}, err
	}
	return Regex{Pattern: pattern, re: re}, nil
}

// Compiled returns the underlying compiled expression.
func (r Regex) Compiled() *regexp.Regexp { return r.re }

func (Regex) Type() types.Type   { return types.RegexpType{} }
func (r Regex) String() string   { return "/" + r.Pattern + "/" }
func (Regex) valueNode()         {}

// TypeValue wraps a Type, making it a first-class value (e.g. the result
// of evaluating the bareword expression `Integer`).
type TypeValue struct{ T types.Type }

func (TypeValue) Type() types.Type      { return &types.TypeType{} }
func (t TypeValue) String() string      { return t.T.String() }
func (TypeValue) valueNode()            {}

// ResourceRef is a resource reference value, e.g. the result of
// evaluating `Notify['a']` or the bareword-title shorthand `Class[main]`.
// It is the operand type relationship statements and collectors work
// with.
type ResourceRef struct {
	TypeName string
	Title    string
}

func (ResourceRef) Type() types.Type { return types.ResourceType{} }
func (r ResourceRef) String() string { return r.TypeName + "[" + r.Title + "]" }
func (ResourceRef) valueNode()       {}

// Array is an ordered, shared-immutable sequence of values. Mutation
// functions (e.g. the Array `+` operator) must
// call Append, never mutate Elements in place, since an Array is freely
// aliased across scopes.
type Array struct{ Elements []Value }

func NewArray(elems ...Value) *Array { return &Array{Elements: elems} }

func (a *Array) Type() types.Type {
	if len(a.Elements) == 0 {
		return &types.ArrayType{Element: types.AnyType{}}
	}
	var elemT types.Type = a.Elements[0].Type()
	for _, e := range a.Elements[1:] {
		elemT = types.Generalize(types.NewVariantType(elemT, e.Type()))
	}
	return &types.ArrayType{Element: elemT, Bounded: true, MinSize: len(a.Elements), MaxSize: len(a.Elements)}
}

func (a *Array) String() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = Inspect(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (*Array) valueNode() {}

// Append returns a new Array with v appended; it never mutates a.
func (a *Array) Append(v Value) *Array {
	out := make([]Value, len(a.Elements)+1)
	copy(out, a.Elements)
	out[len(a.Elements)] = v
	return &Array{Elements: out}
}

// Concat returns a new Array with b's elements appended after a's.
func (a *Array) Concat(b *Array) *Array {
	out := make([]Value, 0, len(a.Elements)+len(b.Elements))
	out = append(out, a.Elements...)
	out = append(out, b.Elements...)
	return &Array{Elements: out}
}

// HashPair is one key/value entry of a Hash, order-preserved.
type HashPair struct {
	Key   Value
	Value Value
}

// Hash is an ordered (insertion order), shared-immutable key/value map.
// Mutation always produces a new Hash (copy-on-write), so closures that
// capture a Hash observe a stable snapshot.
type Hash struct {
	Pairs []HashPair
}

func NewHash(pairs ...HashPair) *Hash { return &Hash{Pairs: pairs} }

func (h *Hash) Type() types.Type {
	if len(h.Pairs) == 0 {
		return &types.HashType{Key: types.AnyType{}, Value: types.AnyType{}}
	}
	var keyT, valT types.Type = h.Pairs[0].Key.Type(), h.Pairs[0].Value.Type()
	for _, p := range h.Pairs[1:] {
		keyT = types.Generalize(types.NewVariantType(keyT, p.Key.Type()))
		valT = types.Generalize(types.NewVariantType(valT, p.Value.Type()))
	}
	return &types.HashType{Key: keyT, Value: valT, Bounded: true, MinSize: len(h.Pairs), MaxSize: len(h.Pairs)}
}

func (h *Hash) String() string {
	parts := make([]string, len(h.Pairs))
	for i, p := range h.Pairs {
		parts[i] = fmt.Sprintf("%s => %s", Inspect(p.Key), Inspect(p.Value))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (*Hash) valueNode() {}

// Get returns the value for key and whether it was present.
func (h *Hash) Get(key Value) (Value, bool) {
	ks := Equivalent(key)
	for _, p := range h.Pairs {
		if Equivalent(p.Key) == ks {
			return p.Value, true
		}
	}
	return nil, false
}

// Set returns a new Hash with key bound to val, preserving insertion
// order for existing keys and appending new ones (copy-on-write).
func (h *Hash) Set(key, val Value) *Hash {
	ks := Equivalent(key)
	out := make([]HashPair, len(h.Pairs))
	copy(out, h.Pairs)
	for i, p := range out {
		if Equivalent(p.Key) == ks {
			out[i] = HashPair{Key: key, Value: val}
			return &Hash{Pairs: out}
		}
	}
	out = append(out, HashPair{Key: key, Value: val})
	return &Hash{Pairs: out}
}

// Merge returns a new Hash with other's pairs overlaid onto h's (other
// wins on key collision), used by the Hash + Hash operator.
func (h *Hash) Merge(other *Hash) *Hash {
	out := h
	for _, p := range other.Pairs {
		out = out.Set(p.Key, p.Value)
	}
	return out
}

// Equivalent renders a canonical comparison key for a value, used for
// Hash key equality and Array/Hash deduplication. Equality in Puppet is
// case-sensitive for strings and structural for collections.
func Equivalent(v Value) string {
	switch vv := v.(type) {
	case Undef:
		return "undef:"
	case Default:
		return "default:"
	case Bool:
		return fmt.Sprintf("bool:%t", bool(vv))
	case Integer:
		return fmt.Sprintf("int:%d", int64(vv))
	case Float:
		return fmt.Sprintf("float:%v", float64(vv))
	case String:
		return "string:" + string(vv)
	case Regex:
		return "regex:" + vv.Pattern
	case TypeValue:
		return "type:" + vv.T.String()
	case ResourceRef:
		return "ref:" + vv.TypeName + "[" + vv.Title + "]"
	case *Array:
		parts := make([]string, len(vv.Elements))
		for i, e := range vv.Elements {
			parts[i] = Equivalent(e)
		}
		return "array:[" + strings.Join(parts, ",") + "]"
	case *Hash:
		parts := make([]string, len(vv.Pairs))
		for i, p := range vv.Pairs {
			parts[i] = Equivalent(p.Key) + "=>" + Equivalent(p.Value)
		}
		sort.Strings(parts)
		return "hash:{" + strings.Join(parts, ",") + "}"
	default:
		return fmt.Sprintf("other:%v", v)
	}
}

// Inspect renders v the way it would appear as a literal (quoted
// strings, etc.), as opposed to String's interpolation form.
func Inspect(v Value) string {
	switch vv := v.(type) {
	case String:
		return "'" + strings.ReplaceAll(string(vv), "'", "\\'") + "'"
	case Undef:
		return "undef"
	default:
		return v.String()
	}
}

// Truthy implements Puppet's boolean-coercion rule: everything is true
// except false and undef.
func Truthy(v Value) bool {
	switch vv := v.(type) {
	case Undef:
		return false
	case Bool:
		return bool(vv)
	default:
		return true
	}
}
