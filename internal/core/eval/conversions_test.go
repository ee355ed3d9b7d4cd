package eval_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/catalog"
)

// TestIntegerConversionFromHexString exercises string-to-numeric
// conversion: Integer("0x2A") must parse the hex body and widen it back
// to a decimal string via String().
func TestIntegerConversionFromHexString(t *testing.T) {
	cat := compile(t, `notify { String(Integer("0x2A")): }`)
	_, ok := cat.Resource(catalog.Key{Type: "Notify", Title: "42"})
	qt.Assert(t, qt.IsTrue(ok))
}

func TestIntegerConversionFromBinaryString(t *testing.T) {
	cat := compile(t, `notify { String(Integer("0b101")): }`)
	_, ok := cat.Resource(catalog.Key{Type: "Notify", Title: "5"})
	qt.Assert(t, qt.IsTrue(ok))
}

func TestIntegerConversionFromSignedWhitespaceString(t *testing.T) {
	cat := compile(t, `notify { String(Integer("- 7")): }`)
	_, ok := cat.Resource(catalog.Key{Type: "Notify", Title: "-7"})
	qt.Assert(t, qt.IsTrue(ok))
}

func TestFloatConversionFromString(t *testing.T) {
	cat := compile(t, `notify { String(Float("3.5")): }`)
	_, ok := cat.Resource(catalog.Key{Type: "Notify", Title: "3.5"})
	qt.Assert(t, qt.IsTrue(ok))
}

func TestIntegerConversionOfMalformedStringErrors(t *testing.T) {
	_, err := parseAndRun(t, `notify { String(Integer("not a number")): }`)
	qt.Assert(t, qt.IsNotNil(err))
}

func TestBooleanConversionFromString(t *testing.T) {
	cat := compile(t, `notify { String(Boolean("yes")): }`)
	_, ok := cat.Resource(catalog.Key{Type: "Notify", Title: "true"})
	qt.Assert(t, qt.IsTrue(ok))
}
