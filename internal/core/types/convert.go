package types

import (
	"strconv"
	"strings"
)

// ParseStringToInteger converts a Puppet string literal to an integer:
// leading/trailing whitespace and a sign separated by whitespace are
// allowed, then a 0x/0X hex, 0b/0B binary, leading-0 octal, or decimal
// body; a malformed string yields ok == false rather than a conversion
// error, leaving the caller (the Integer/Numeric conversion builtins) to
// report a TypeConversionError with position information.
func ParseStringToInteger(s string) (int64, bool) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, false
	}
	neg := false
	if t[0] == '+' || t[0] == '-' {
		neg = t[0] == '-'
		t = strings.TrimSpace(t[1:])
	}
	if t == "" {
		return 0, false
	}
	var v int64
	var err error
	switch {
	case strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X"):
		v, err = parseInt(t[2:], 16)
	case strings.HasPrefix(t, "0b") || strings.HasPrefix(t, "0B"):
		v, err = parseInt(t[2:], 2)
	case len(t) > 1 && t[0] == '0':
		v, err = parseInt(t[1:], 8)
	default:
		v, err = parseInt(t, 10)
	}
	if err != nil {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}

func parseInt(s string, base int) (int64, error) {
	u, err := strconv.ParseUint(s, base, 64)
	return int64(u), err
}

// ParseStringToFloat converts a Puppet string literal to a float:
// leading/trailing whitespace and a separated sign are allowed, and
// 0x/0X hex or 0b/0B binary bodies convert as integers widened to
// float; octal (a bare leading zero) gets no special treatment and is
// parsed as plain decimal, since Float has no octal literal form.
// Returns ok == false on malformed input.
func ParseStringToFloat(s string) (float64, bool) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, false
	}
	neg := false
	body := t
	if body[0] == '+' || body[0] == '-' {
		neg = body[0] == '-'
		body = strings.TrimSpace(body[1:])
	}
	switch {
	case strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X"):
		v, err := parseInt(body[2:], 16)
		if err != nil {
			return 0, false
		}
		f := float64(v)
		if neg {
			f = -f
		}
		return f, true
	case strings.HasPrefix(body, "0b") || strings.HasPrefix(body, "0B"):
		v, err := parseInt(body[2:], 2)
		if err != nil {
			return 0, false
		}
		f := float64(v)
		if neg {
			f = -f
		}
		return f, true
	}
	decimal := body
	if neg {
		decimal = "-" + body
	}
	f, err := strconv.ParseFloat(decimal, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// TypeOf returns the most specific type describing a concrete runtime
// scalar, used by the evaluator when checking actual arguments against
// declared parameter types. val may be any of: nil (Undef), bool,
// int64, float64, string.
func TypeOf(val interface{}) Type {
	switch v := val.(type) {
	case nil:
		return UndefType{}
	case bool:
		return BooleanType{}
	case int64:
		return IntegerType{Min: v, Max: v}
	case float64:
		return FloatType{Min: v, Max: v, Bounded: true}
	case string:
		n := len(v)
		return StringType{Bounded: true, MinLen: n, MaxLen: n}
	default:
		return AnyType{}
	}
}
