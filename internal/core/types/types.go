// Package types implements the Puppet type lattice: a closed
// tagged-variant Type interface with instance-of/assignable-from/
// generalize operations, grounded on the recursive coinductive-
// equivalence design of cue's internal/core/adt unifier (adapted here
// from unification to a simpler is-subtype lattice, since Puppet types
// do not unify, they only widen and narrow).
package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Type is any node of the Puppet type lattice.
type Type interface {
	// String renders the type in Puppet type-expression syntax.
	String() string
	typeNode()
}

// ---------------------------------------------------------------------
// Scalar and top/bottom types

type (
	// AnyType is the top of the lattice; every type is assignable to it.
	AnyType struct{}
	// UndefType matches only the undef value.
	UndefType struct{}
	// DefaultType matches only the `default` value.
	DefaultType struct{}
	// BooleanType matches true/false.
	BooleanType struct{}
	// ScalarType is the union of all scalar (non-collection) types.
	ScalarType struct{}
	// NumericType is the union of Integer and Float.
	NumericType struct{}
	// CallableType matches a function/lambda value; a nil Params means
	// any arity and any argument types are accepted.
	CallableType struct {
		Params     []Type
		BlockType  Type // nil if no block required
		ReturnType Type // nil if unconstrained
	}
)

func (AnyType) typeNode()      {}
func (UndefType) typeNode()    {}
func (DefaultType) typeNode()  {}
func (BooleanType) typeNode()  {}
func (ScalarType) typeNode()   {}
func (NumericType) typeNode()  {}
func (*CallableType) typeNode() {}

func (AnyType) String() string     { return "Any" }
func (UndefType) String() string   { return "Undef" }
func (DefaultType) String() string { return "Default" }
func (BooleanType) String() string { return "Boolean" }
func (ScalarType) String() string  { return "Scalar" }
func (NumericType) String() string { return "Numeric" }
func (c *CallableType) String() string {
	if c.Params == nil {
		return "Callable"
	}
	parts := make([]string, len(c.Params))
	for i, p := range c.Params {
		parts[i] = p.String()
	}
	return "Callable[" + strings.Join(parts, ", ") + "]"
}

// IntegerType matches whole numbers within [Min, Max] inclusive. An
// unbounded end is represented by math.MinInt64/math.MaxInt64. Min <=
// Max always holds for a constructible IntegerType, and a single-value
// range (Min==Max) is preserved rather than collapsed.
type IntegerType struct {
	Min, Max int64
}

func (IntegerType) typeNode() {}
func (t IntegerType) String() string {
	if t.Min == minInt64 && t.Max == maxInt64 {
		return "Integer"
	}
	if t.Min == t.Max {
		return fmt.Sprintf("Integer[%d, %d]", t.Min, t.Max)
	}
	lo, hi := "default", "default"
	if t.Min != minInt64 {
		lo = strconv.FormatInt(t.Min, 10)
	}
	if t.Max != maxInt64 {
		hi = strconv.FormatInt(t.Max, 10)
	}
	return fmt.Sprintf("Integer[%s, %s]", lo, hi)
}

const (
	minInt64 = -1 << 63
	maxInt64 = 1<<63 - 1
)

// NewIntegerType normalizes a possibly-swapped (min, max) pair: a range
// with min > max is invalid and is normalized by swapping.
func NewIntegerType(min, max int64) IntegerType {
	if min > max {
		min, max = max, min
	}
	return IntegerType{Min: min, Max: max}
}

// FloatType matches floating-point numbers within [Min, Max].
type FloatType struct {
	Min, Max float64
	Bounded  bool
}

func (FloatType) typeNode() {}
func (t FloatType) String() string {
	if !t.Bounded {
		return "Float"
	}
	return fmt.Sprintf("Float[%v, %v]", t.Min, t.Max)
}

// StringType matches strings whose length falls within [MinLen, MaxLen].
type StringType struct {
	MinLen, MaxLen int
	Bounded        bool
}

func (StringType) typeNode() {}
func (t StringType) String() string {
	if !t.Bounded {
		return "String"
	}
	return fmt.Sprintf("String[%d, %d]", t.MinLen, t.MaxLen)
}

// EnumType matches one of a fixed set of string values.
type EnumType struct{ Values []string }

func (EnumType) typeNode() {}
func (t EnumType) String() string {
	parts := make([]string, len(t.Values))
	for i, v := range t.Values {
		parts[i] = "'" + v + "'"
	}
	return "Enum[" + strings.Join(parts, ", ") + "]"
}

// PatternType matches strings matching any of a set of regexes.
type PatternType struct{ Patterns []string }

func (PatternType) typeNode() {}
func (t PatternType) String() string {
	return "Pattern[" + strings.Join(t.Patterns, ", ") + "]"
}

// RegexpType matches Regexp values, optionally restricted to one pattern.
type RegexpType struct{ Pattern string }

func (RegexpType) typeNode() {}
func (t RegexpType) String() string {
	if t.Pattern == "" {
		return "Regexp"
	}
	return fmt.Sprintf("Regexp[%s]", t.Pattern)
}

// ---------------------------------------------------------------------
// Collections

// CollectionType is the union of Array and Hash, optionally size-bounded.
type CollectionType struct {
	MinSize, MaxSize int
	Bounded          bool
}

func (CollectionType) typeNode() {}
func (t CollectionType) String() string {
	if !t.Bounded {
		return "Collection"
	}
	return fmt.Sprintf("Collection[%d, %d]", t.MinSize, t.MaxSize)
}

// ArrayType matches arrays whose elements satisfy Element and whose
// length falls within [MinSize, MaxSize].
type ArrayType struct {
	Element          Type
	MinSize, MaxSize int
	Bounded          bool
}

func (*ArrayType) typeNode() {}
func (t *ArrayType) String() string {
	if !t.Bounded {
		return "Array[" + t.Element.String() + "]"
	}
	return fmt.Sprintf("Array[%s, %d, %d]", t.Element.String(), t.MinSize, t.MaxSize)
}

// HashType matches hashes whose keys/values satisfy Key/Value and whose
// size falls within [MinSize, MaxSize].
type HashType struct {
	Key, Value       Type
	MinSize, MaxSize int
	Bounded          bool
}

func (*HashType) typeNode() {}
func (t *HashType) String() string {
	if !t.Bounded {
		return fmt.Sprintf("Hash[%s, %s]", t.Key.String(), t.Value.String())
	}
	return fmt.Sprintf("Hash[%s, %s, %d, %d]", t.Key.String(), t.Value.String(), t.MinSize, t.MaxSize)
}

// TupleType matches fixed-arity (possibly with a trailing repeated
// element) arrays, e.g. Tuple[Integer, String].
type TupleType struct {
	Elements []Type
}

func (*TupleType) typeNode() {}
func (t *TupleType) String() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.String()
	}
	return "Tuple[" + strings.Join(parts, ", ") + "]"
}

// StructEntry is one key => type entry of a Struct schema. Optional is
// true when the key's value may be Undef or the key may be entirely
// absent (written as a key wrapped in Optional[...] or NotUndef in
// Puppet's Struct syntax).
type StructEntry struct {
	Key      string
	ValType  Type
	Optional bool
}

// StructType matches hashes conforming to a fixed key => type schema.
type StructType struct {
	Entries []StructEntry
}

func (*StructType) typeNode() {}
func (t *StructType) String() string {
	parts := make([]string, len(t.Entries))
	for i, e := range t.Entries {
		k := "'" + e.Key + "'"
		if e.Optional {
			parts[i] = fmt.Sprintf("Optional[%s] => %s", k, e.ValType.String())
		} else {
			parts[i] = fmt.Sprintf("%s => %s", k, e.ValType.String())
		}
	}
	return "Struct[{" + strings.Join(parts, ", ") + "}]"
}

// IterableType matches any value whose iteration contract is satisfied
// (arrays, hashes, strings, ranges, iterators).
type IterableType struct{ Element Type }

func (*IterableType) typeNode() {}
func (t *IterableType) String() string {
	if t.Element == nil {
		return "Iterable"
	}
	return "Iterable[" + t.Element.String() + "]"
}

// IteratorType matches a lazily-evaluated Iterator value.
type IteratorType struct{ Element Type }

func (*IteratorType) typeNode() {}
func (t *IteratorType) String() string {
	if t.Element == nil {
		return "Iterator"
	}
	return "Iterator[" + t.Element.String() + "]"
}

// ---------------------------------------------------------------------
// Combinators

// OptionalType matches Undef or a value matching Elem.
type OptionalType struct{ Elem Type }

func (*OptionalType) typeNode() {}
func (t *OptionalType) String() string { return "Optional[" + t.Elem.String() + "]" }

// NotUndefType matches any value except Undef, optionally further
// restricted by Elem.
type NotUndefType struct{ Elem Type }

func (*NotUndefType) typeNode() {}
func (t *NotUndefType) String() string {
	if t.Elem == nil {
		return "NotUndef"
	}
	return "NotUndef[" + t.Elem.String() + "]"
}

// VariantType matches any value matching one of Alternatives, which are
// kept deduplicated by structural equality.
type VariantType struct{ Alternatives []Type }

func (*VariantType) typeNode() {}
func (t *VariantType) String() string {
	parts := make([]string, len(t.Alternatives))
	for i, a := range t.Alternatives {
		parts[i] = a.String()
	}
	return "Variant[" + strings.Join(parts, ", ") + "]"
}

// NewVariantType builds a VariantType, deduplicating alternatives whose
// String() form is identical.
func NewVariantType(alts ...Type) *VariantType {
	seen := map[string]bool{}
	out := make([]Type, 0, len(alts))
	for _, a := range alts {
		k := a.String()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, a)
	}
	return &VariantType{Alternatives: out}
}

// TypeType is the meta-type of a Type value itself, e.g. the type of the
// expression `Integer`.
type TypeType struct{ Elem Type } // Elem nil means the unparameterized `Type`

func (*TypeType) typeNode() {}
func (t *TypeType) String() string {
	if t.Elem == nil {
		return "Type"
	}
	return "Type[" + t.Elem.String() + "]"
}

// ---------------------------------------------------------------------
// Catalog types

// ResourceType matches a Resource value, optionally restricted to a
// resource type name and/or title.
type ResourceType struct {
	TypeName string // "" means any resource type; normalized, see NormalizeResourceTypeName
	Title    string // "" means any title
}

func (ResourceType) typeNode() {}
func (t ResourceType) String() string {
	switch {
	case t.TypeName == "":
		return "Resource"
	case t.Title == "":
		return fmt.Sprintf("%s", normalizedDisplay(t.TypeName))
	default:
		return fmt.Sprintf("%s['%s']", normalizedDisplay(t.TypeName), t.Title)
	}
}

// ClassType matches a Class value, optionally restricted to a class
// name.
type ClassType struct{ Name string }

func (ClassType) typeNode() {}
func (t ClassType) String() string {
	if t.Name == "" {
		return "Class"
	}
	return fmt.Sprintf("Class['%s']", t.Name)
}

// NormalizeResourceTypeName title-cases each "::"-separated segment of
// name and rejoins them, e.g. "file" -> "File", "my_module::sub_class"
// -> "My_module::Sub_class".
func NormalizeResourceTypeName(name string) string {
	segs := strings.Split(name, "::")
	for i, s := range segs {
		if s == "" {
			continue
		}
		segs[i] = strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
	}
	return strings.Join(segs, "::")
}

func normalizedDisplay(name string) string { return NormalizeResourceTypeName(name) }

// ---------------------------------------------------------------------
// instance-of / assignable-from / generalize

// pairKey identifies a (t, other) check in progress, used by the
// recursion guard so structurally-recursive types (a Struct field or
// Variant alternative that refers back to an enclosing type) terminate
// rather than recursing forever.
type pairKey struct {
	t, other string
}

type guard struct{ seen map[pairKey]bool }

func newGuard() *guard { return &guard{seen: map[pairKey]bool{}} }

func (g *guard) check(t, other Type) (already bool, commit func()) {
	key := pairKey{t.String(), other.String()}
	if g.seen[key] {
		return true, func() {}
	}
	g.seen[key] = true
	return false, func() { delete(g.seen, key) }
}

// AssignableFrom reports whether a value of type other may be assigned
// to a variable/parameter declared with type t: the subtype relation
// used for parameter and attribute checking.
func AssignableFrom(t, other Type) bool {
	return assignableFrom(t, other, newGuard())
}

func assignableFrom(t, other Type, g *guard) bool {
	if done, commit := g.check(t, other); done {
		return true
	} else {
		defer commit()
	}

	if _, ok := t.(AnyType); ok {
		return true
	}
	if v, ok := other.(*VariantType); ok {
		for _, alt := range v.Alternatives {
			if !assignableFrom(t, alt, g) {
				return false
			}
		}
		return true
	}
	if v, ok := t.(*VariantType); ok {
		for _, alt := range v.Alternatives {
			if assignableFrom(alt, other, g) {
				return true
			}
		}
		return false
	}
	if opt, ok := t.(*OptionalType); ok {
		if _, isUndef := other.(UndefType); isUndef {
			return true
		}
		return assignableFrom(opt.Elem, other, g)
	}
	if nu, ok := t.(*NotUndefType); ok {
		if _, isUndef := other.(UndefType); isUndef {
			return false
		}
		if nu.Elem == nil {
			return true
		}
		return assignableFrom(nu.Elem, other, g)
	}

	switch tt := t.(type) {
	case UndefType:
		_, ok := other.(UndefType)
		return ok
	case DefaultType:
		_, ok := other.(DefaultType)
		return ok
	case BooleanType:
		_, ok := other.(BooleanType)
		return ok
	case ScalarType:
		switch other.(type) {
		case BooleanType, IntegerType, FloatType, StringType, EnumType, PatternType, RegexpType, NumericType, ScalarType:
			return true
		}
		return false
	case NumericType:
		switch other.(type) {
		case IntegerType, FloatType, NumericType:
			return true
		}
		return false
	case IntegerType:
		o, ok := other.(IntegerType)
		if !ok {
			return false
		}
		return o.Min >= tt.Min && o.Max <= tt.Max
	case FloatType:
		o, ok := other.(FloatType)
		if !ok {
			return false
		}
		if !tt.Bounded {
			return true
		}
		return o.Bounded && o.Min >= tt.Min && o.Max <= tt.Max
	case StringType:
		switch o := other.(type) {
		case StringType:
			if !tt.Bounded {
				return true
			}
			return o.Bounded && o.MinLen >= tt.MinLen && o.MaxLen <= tt.MaxLen
		case EnumType:
			if tt.Bounded {
				for _, v := range o.Values {
					if len(v) < tt.MinLen || len(v) > tt.MaxLen {
						return false
					}
				}
			}
			return true
		case PatternType:
			return !tt.Bounded
		}
		return false
	case EnumType:
		o, ok := other.(EnumType)
		if !ok {
			return false
		}
		allowed := map[string]bool{}
		for _, v := range tt.Values {
			allowed[v] = true
		}
		for _, v := range o.Values {
			if !allowed[v] {
				return false
			}
		}
		return true
	case PatternType:
		_, isStr := other.(StringType)
		_, isEnum := other.(EnumType)
		_, isPat := other.(PatternType)
		return isStr || isEnum || isPat
	case RegexpType:
		o, ok := other.(RegexpType)
		if !ok {
			return false
		}
		return tt.Pattern == "" || tt.Pattern == o.Pattern
	case CollectionType:
		switch o := other.(type) {
		case CollectionType:
			return !tt.Bounded || (o.Bounded && o.MinSize >= tt.MinSize && o.MaxSize <= tt.MaxSize)
		case *ArrayType:
			return !tt.Bounded || (o.Bounded && o.MinSize >= tt.MinSize && o.MaxSize <= tt.MaxSize)
		case *HashType:
			return !tt.Bounded || (o.Bounded && o.MinSize >= tt.MinSize && o.MaxSize <= tt.MaxSize)
		}
		return false
	case *ArrayType:
		switch o := other.(type) {
		case *ArrayType:
			if !assignableFrom(tt.Element, o.Element, g) {
				return false
			}
			return !tt.Bounded || (o.Bounded && o.MinSize >= tt.MinSize && o.MaxSize <= tt.MaxSize)
		case *TupleType:
			for _, e := range o.Elements {
				if !assignableFrom(tt.Element, e, g) {
					return false
				}
			}
			return true
		}
		return false
	case *HashType:
		o, ok := other.(*HashType)
		if !ok {
			if st, ok := other.(*StructType); ok {
				for _, e := range st.Entries {
					if !assignableFrom(tt.Key, StringType{}, g) {
						return false
					}
					if !assignableFrom(tt.Value, e.ValType, g) {
						return false
					}
				}
				return true
			}
			return false
		}
		if !assignableFrom(tt.Key, o.Key, g) || !assignableFrom(tt.Value, o.Value, g) {
			return false
		}
		return !tt.Bounded || (o.Bounded && o.MinSize >= tt.MinSize && o.MaxSize <= tt.MaxSize)
	case *TupleType:
		o, ok := other.(*TupleType)
		if !ok || len(o.Elements) != len(tt.Elements) {
			return false
		}
		for i := range tt.Elements {
			if !assignableFrom(tt.Elements[i], o.Elements[i], g) {
				return false
			}
		}
		return true
	case *StructType:
		o, ok := other.(*StructType)
		if !ok {
			return false
		}
		byKey := map[string]StructEntry{}
		for _, e := range o.Entries {
			byKey[e.Key] = e
		}
		for _, want := range tt.Entries {
			got, present := byKey[want.Key]
			if !present {
				if !want.Optional {
					return false
				}
				continue
			}
			if !assignableFrom(want.ValType, got.ValType, g) {
				return false
			}
		}
		return true
	case *IterableType:
		el := elementOf(other)
		if el == nil {
			return false
		}
		if tt.Element == nil {
			return true
		}
		return assignableFrom(tt.Element, el, g)
	case *IteratorType:
		o, ok := other.(*IteratorType)
		if !ok {
			return false
		}
		if tt.Element == nil {
			return true
		}
		return assignableFrom(tt.Element, o.Element, g)
	case *TypeType:
		o, ok := other.(*TypeType)
		if !ok {
			return false
		}
		if tt.Elem == nil {
			return true
		}
		if o.Elem == nil {
			return false
		}
		return assignableFrom(tt.Elem, o.Elem, g)
	case *CallableType:
		o, ok := other.(*CallableType)
		if !ok {
			return false
		}
		if tt.Params == nil {
			return true
		}
		if len(o.Params) != len(tt.Params) {
			return false
		}
		for i := range tt.Params {
			if !assignableFrom(tt.Params[i], o.Params[i], g) {
				return false
			}
		}
		return true
	case ResourceType:
		o, ok := other.(ResourceType)
		if !ok {
			return false
		}
		if tt.TypeName != "" && !strings.EqualFold(tt.TypeName, o.TypeName) {
			return false
		}
		if tt.Title != "" && tt.Title != o.Title {
			return false
		}
		return true
	case ClassType:
		o, ok := other.(ClassType)
		if !ok {
			return false
		}
		return tt.Name == "" || tt.Name == o.Name
	}
	return false
}

func elementOf(t Type) Type {
	switch tt := t.(type) {
	case *ArrayType:
		return tt.Element
	case *HashType:
		return tt.Value
	case StringType:
		return StringType{Bounded: true, MinLen: 1, MaxLen: 1}
	case *IterableType:
		return tt.Element
	case *IteratorType:
		return tt.Element
	}
	return nil
}

// InstanceOf reports whether a runtime value's inferred type is
// assignable to t. Callers typically compute valueType via TypeOf on the
// value and then call AssignableFrom directly; InstanceOf is provided as
// a named convenience wrapper matching Puppet's own instance-of naming.
func InstanceOf(t Type, valueType Type) bool { return AssignableFrom(t, valueType) }

// Generalize widens t to the least specific type that still describes
// the same underlying kind, dropping size/range/enum restrictions, used
// when merging branches of a conditional or inferring a collection's
// declared element type.
func Generalize(t Type) Type {
	switch tt := t.(type) {
	case IntegerType:
		return IntegerType{Min: minInt64, Max: maxInt64}
	case FloatType:
		return FloatType{}
	case StringType:
		return StringType{}
	case EnumType:
		return StringType{}
	case PatternType:
		return StringType{}
	case RegexpType:
		return RegexpType{}
	case *ArrayType:
		return &ArrayType{Element: Generalize(tt.Element)}
	case *HashType:
		return &HashType{Key: Generalize(tt.Key), Value: Generalize(tt.Value)}
	case *TupleType:
		return &ArrayType{Element: generalizeUnion(tt.Elements)}
	case *StructType:
		key := Type(StringType{})
		var vals []Type
		for _, e := range tt.Entries {
			vals = append(vals, e.ValType)
		}
		return &HashType{Key: key, Value: generalizeUnion(vals)}
	case *VariantType:
		return generalizeUnion(tt.Alternatives)
	case CollectionType:
		return CollectionType{}
	case ResourceType:
		return ResourceType{}
	case ClassType:
		return ClassType{}
	default:
		return t
	}
}

func generalizeUnion(ts []Type) Type {
	if len(ts) == 0 {
		return AnyType{}
	}
	alts := make([]Type, len(ts))
	for i, t := range ts {
		alts[i] = Generalize(t)
	}
	v := NewVariantType(alts...)
	if len(v.Alternatives) == 1 {
		return v.Alternatives[0]
	}
	return v
}

// Equal reports structural equality of two type expressions.
func Equal(a, b Type) bool { return canonical(a) == canonical(b) }

func canonical(t Type) string {
	switch tt := t.(type) {
	case *VariantType:
		parts := make([]string, len(tt.Alternatives))
		for i, a := range tt.Alternatives {
			parts[i] = canonical(a)
		}
		sort.Strings(parts)
		return "Variant[" + strings.Join(parts, ",") + "]"
	default:
		return t.String()
	}
}
