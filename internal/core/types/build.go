package types

import "fmt"

// Build resolves a type-reference name plus already-evaluated parameter
// values into a concrete Type. The evaluator calls this once it has
// evaluated a TypeRefExpr's Parameters to Values; param here is the
// already-reduced interface{} form (numbers, strings, nested Type
// values) rather than raw ast.Expr.
func Build(name string, params []interface{}) (Type, error) {
	switch name {
	case "Any":
		return AnyType{}, nil
	case "Undef":
		return UndefType{}, nil
	case "Default":
		return DefaultType{}, nil
	case "Boolean":
		return BooleanType{}, nil
	case "Scalar":
		return ScalarType{}, nil
	case "Numeric":
		return NumericType{}, nil
	case "Data":
		return NewVariantType(ScalarType{}, UndefType{}, &ArrayType{Element: AnyType{}}, &HashType{Key: ScalarType{}, Value: AnyType{}}), nil
	case "Integer":
		return buildInteger(params)
	case "Float":
		return buildFloat(params)
	case "String":
		return buildString(params)
	case "Enum":
		return buildEnum(params)
	case "Pattern":
		return buildPattern(params)
	case "Regexp":
		return buildRegexp(params)
	case "Collection":
		return buildCollection(params)
	case "Array":
		return buildArray(params)
	case "Hash":
		return buildHash(params)
	case "Tuple":
		return buildTuple(params)
	case "Struct":
		return buildStruct(params)
	case "Optional":
		elem, err := one(params, "Optional")
		if err != nil {
			return nil, err
		}
		return &OptionalType{Elem: elem}, nil
	case "NotUndef":
		if len(params) == 0 {
			return &NotUndefType{}, nil
		}
		elem, err := one(params, "NotUndef")
		if err != nil {
			return nil, err
		}
		return &NotUndefType{Elem: elem}, nil
	case "Variant":
		alts, err := asTypes(params)
		if err != nil {
			return nil, err
		}
		return NewVariantType(alts...), nil
	case "Type":
		if len(params) == 0 {
			return &TypeType{}, nil
		}
		elem, err := one(params, "Type")
		if err != nil {
			return nil, err
		}
		return &TypeType{Elem: elem}, nil
	case "Iterable":
		if len(params) == 0 {
			return &IterableType{}, nil
		}
		elem, err := one(params, "Iterable")
		if err != nil {
			return nil, err
		}
		return &IterableType{Element: elem}, nil
	case "Iterator":
		if len(params) == 0 {
			return &IteratorType{}, nil
		}
		elem, err := one(params, "Iterator")
		if err != nil {
			return nil, err
		}
		return &IteratorType{Element: elem}, nil
	case "Callable":
		return buildCallable(params)
	case "Resource":
		return buildResource(params)
	case "Class":
		if len(params) == 0 {
			return ClassType{}, nil
		}
		s, ok := params[0].(string)
		if !ok {
			return nil, fmt.Errorf("Class parameter must be a string")
		}
		return ClassType{Name: NormalizeResourceTypeName(s)}, nil
	default:
		// Bareword resource type reference, e.g. File, My_module::Thing.
		return ResourceType{TypeName: NormalizeResourceTypeName(name)}, nil
	}
}

func one(params []interface{}, typeName string) (Type, error) {
	if len(params) != 1 {
		return nil, fmt.Errorf("%s expects exactly one type parameter", typeName)
	}
	t, ok := params[0].(Type)
	if !ok {
		return nil, fmt.Errorf("%s parameter must be a type", typeName)
	}
	return t, nil
}

func asTypes(params []interface{}) ([]Type, error) {
	out := make([]Type, 0, len(params))
	for _, p := range params {
		t, ok := p.(Type)
		if !ok {
			return nil, fmt.Errorf("expected a type parameter, got %T", p)
		}
		out = append(out, t)
	}
	return out, nil
}

func asInt(v interface{}) (int64, bool) {
	i, ok := v.(int64)
	return i, ok
}

func buildInteger(params []interface{}) (Type, error) {
	switch len(params) {
	case 0:
		return IntegerType{Min: minInt64, Max: maxInt64}, nil
	case 1:
		min, ok := asInt(params[0])
		if !ok {
			return nil, fmt.Errorf("Integer parameter must be an integer")
		}
		return NewIntegerType(min, maxInt64), nil
	case 2:
		min, ok1 := asInt(params[0])
		max, ok2 := asInt(params[1])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("Integer parameters must be integers")
		}
		return NewIntegerType(min, max), nil
	default:
		return nil, fmt.Errorf("Integer accepts at most 2 parameters")
	}
}

func buildFloat(params []interface{}) (Type, error) {
	toF := func(v interface{}) (float64, bool) {
		switch n := v.(type) {
		case float64:
			return n, true
		case int64:
			return float64(n), true
		}
		return 0, false
	}
	switch len(params) {
	case 0:
		return FloatType{}, nil
	case 1:
		min, ok := toF(params[0])
		if !ok {
			return nil, fmt.Errorf("Float parameter must be numeric")
		}
		return FloatType{Min: min, Max: 1e308, Bounded: true}, nil
	case 2:
		min, ok1 := toF(params[0])
		max, ok2 := toF(params[1])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("Float parameters must be numeric")
		}
		if min > max {
			min, max = max, min
		}
		return FloatType{Min: min, Max: max, Bounded: true}, nil
	}
	return nil, fmt.Errorf("Float accepts at most 2 parameters")
}

func buildString(params []interface{}) (Type, error) {
	switch len(params) {
	case 0:
		return StringType{}, nil
	case 1:
		n, ok := asInt(params[0])
		if !ok {
			return nil, fmt.Errorf("String parameter must be an integer")
		}
		return StringType{Bounded: true, MinLen: int(n), MaxLen: 1 << 30}, nil
	case 2:
		min, ok1 := asInt(params[0])
		max, ok2 := asInt(params[1])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("String parameters must be integers")
		}
		return StringType{Bounded: true, MinLen: int(min), MaxLen: int(max)}, nil
	}
	return nil, fmt.Errorf("String accepts at most 2 parameters")
}

func buildEnum(params []interface{}) (Type, error) {
	vals := make([]string, 0, len(params))
	for _, p := range params {
		s, ok := p.(string)
		if !ok {
			return nil, fmt.Errorf("Enum parameters must be strings")
		}
		vals = append(vals, s)
	}
	return EnumType{Values: vals}, nil
}

func buildPattern(params []interface{}) (Type, error) {
	pats := make([]string, 0, len(params))
	for _, p := range params {
		s, ok := p.(string)
		if !ok {
			return nil, fmt.Errorf("Pattern parameters must be strings")
		}
		pats = append(pats, s)
	}
	return PatternType{Patterns: pats}, nil
}

func buildRegexp(params []interface{}) (Type, error) {
	if len(params) == 0 {
		return RegexpType{}, nil
	}
	s, ok := params[0].(string)
	if !ok {
		return nil, fmt.Errorf("Regexp parameter must be a string")
	}
	return RegexpType{Pattern: s}, nil
}

func buildCollection(params []interface{}) (Type, error) {
	switch len(params) {
	case 0:
		return CollectionType{}, nil
	case 1:
		n, ok := asInt(params[0])
		if !ok {
			return nil, fmt.Errorf("Collection parameter must be an integer")
		}
		return CollectionType{Bounded: true, MinSize: int(n), MaxSize: 1 << 30}, nil
	case 2:
		min, ok1 := asInt(params[0])
		max, ok2 := asInt(params[1])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("Collection parameters must be integers")
		}
		return CollectionType{Bounded: true, MinSize: int(min), MaxSize: int(max)}, nil
	}
	return nil, fmt.Errorf("Collection accepts at most 2 parameters")
}

func buildArray(params []interface{}) (Type, error) {
	if len(params) == 0 {
		return &ArrayType{Element: AnyType{}}, nil
	}
	elem, ok := params[0].(Type)
	if !ok {
		return nil, fmt.Errorf("Array's first parameter must be a type")
	}
	switch len(params) {
	case 1:
		return &ArrayType{Element: elem}, nil
	case 2:
		n, ok := asInt(params[1])
		if !ok {
			return nil, fmt.Errorf("Array size parameter must be an integer")
		}
		return &ArrayType{Element: elem, Bounded: true, MinSize: int(n), MaxSize: 1 << 30}, nil
	case 3:
		min, ok1 := asInt(params[1])
		max, ok2 := asInt(params[2])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("Array size parameters must be integers")
		}
		return &ArrayType{Element: elem, Bounded: true, MinSize: int(min), MaxSize: int(max)}, nil
	}
	return nil, fmt.Errorf("Array accepts at most 3 parameters")
}

func buildHash(params []interface{}) (Type, error) {
	if len(params) == 0 {
		return &HashType{Key: ScalarType{}, Value: AnyType{}}, nil
	}
	if len(params) < 2 {
		return nil, fmt.Errorf("Hash requires a key and value type")
	}
	key, ok1 := params[0].(Type)
	val, ok2 := params[1].(Type)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("Hash's first two parameters must be types")
	}
	switch len(params) {
	case 2:
		return &HashType{Key: key, Value: val}, nil
	case 3:
		n, ok := asInt(params[2])
		if !ok {
			return nil, fmt.Errorf("Hash size parameter must be an integer")
		}
		return &HashType{Key: key, Value: val, Bounded: true, MinSize: int(n), MaxSize: 1 << 30}, nil
	case 4:
		min, ok1 := asInt(params[2])
		max, ok2 := asInt(params[3])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("Hash size parameters must be integers")
		}
		return &HashType{Key: key, Value: val, Bounded: true, MinSize: int(min), MaxSize: int(max)}, nil
	}
	return nil, fmt.Errorf("Hash accepts at most 4 parameters")
}

func buildTuple(params []interface{}) (Type, error) {
	elems, err := asTypes(params)
	if err != nil {
		return nil, fmt.Errorf("Tuple parameters must be types")
	}
	return &TupleType{Elements: elems}, nil
}

// StructFieldSpec is a pre-evaluated Struct field specification, built by
// the evaluator from a hash-literal type expression like
// `{'key' => Integer, Optional['other'] => String}`.
type StructFieldSpec struct {
	Key      string
	ValType  Type
	Optional bool
}

func buildStruct(params []interface{}) (Type, error) {
	entries := make([]StructEntry, 0, len(params))
	for _, p := range params {
		spec, ok := p.(StructFieldSpec)
		if !ok {
			return nil, fmt.Errorf("Struct parameters must be field specifications")
		}
		entries = append(entries, StructEntry{Key: spec.Key, ValType: spec.ValType, Optional: spec.Optional})
	}
	return &StructType{Entries: entries}, nil
}

func buildCallable(params []interface{}) (Type, error) {
	if len(params) == 0 {
		return &CallableType{}, nil
	}
	ps, err := asTypes(params)
	if err != nil {
		return nil, fmt.Errorf("Callable parameters must be types")
	}
	return &CallableType{Params: ps}, nil
}

func buildResource(params []interface{}) (Type, error) {
	switch len(params) {
	case 0:
		return ResourceType{}, nil
	case 1:
		s, ok := params[0].(string)
		if !ok {
			return nil, fmt.Errorf("Resource parameter must be a string")
		}
		return ResourceType{TypeName: NormalizeResourceTypeName(s)}, nil
	case 2:
		s, ok1 := params[0].(string)
		title, ok2 := params[1].(string)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("Resource parameters must be strings")
		}
		return ResourceType{TypeName: NormalizeResourceTypeName(s), Title: title}, nil
	}
	return nil, fmt.Errorf("Resource accepts at most 2 parameters")
}
