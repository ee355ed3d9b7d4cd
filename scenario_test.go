// Package scenario_test covers a handful of end-to-end compilation
// scenarios (S1-S6) against the pcore facade, one scenario_test.go at
// the module root using go-quicktest/qt assertions.
package scenario_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/catalog"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/pcore"
)

// recordingLogger captures every log call for assertion, grounded on the
// teacher's habit of a minimal fake collaborator per test rather than a
// mocking framework.
type recordingLogger struct {
	messages []string
}

func (l *recordingLogger) Log(level, message string) {
	l.messages = append(l.messages, message)
}

func compileOne(t *testing.T, src string, logger *recordingLogger) pcore.Result {
	t.Helper()
	res, err := pcore.Compile([]pcore.Source{{Filename: "site.pp", Text: []byte(src)}}, pcore.WithLogger(logger))
	qt.Assert(t, qt.IsNil(err))
	return res
}

// S1 - arithmetic literal: notice(1 + 2 * 3) logs "7".
func TestS1ArithmeticLiteral(t *testing.T) {
	logger := &recordingLogger{}
	compileOne(t, `notice(1 + 2 * 3)`, logger)
	qt.Assert(t, qt.DeepEquals(logger.messages, []string{"7"}))
}

// S2 - variable and string interpolation.
func TestS2Interpolation(t *testing.T) {
	logger := &recordingLogger{}
	compileOne(t, `$x = 10
notice("x=$x, y=${x + 1}")`, logger)
	qt.Assert(t, qt.DeepEquals(logger.messages, []string{"x=10, y=11"}))
}

// S3 - class with parameter and inheritance.
func TestS3ClassInheritance(t *testing.T) {
	logger := &recordingLogger{}
	res := compileOne(t, `
class base { notice("base") }
class child($p = 7) inherits base { notice("child:$p") }
include child
`, logger)
	qt.Assert(t, qt.DeepEquals(logger.messages, []string{"base", "child:7"}))

	for _, name := range []string{"Base", "Child", "main"} {
		_, ok := res.Catalog.Resource(catalogKey("Class", name))
		qt.Assert(t, qt.IsTrue(ok))
	}

	foundDep := false
	for _, e := range res.Catalog.Edges() {
		if e.From == catalogKey("Class", "Base") && e.To == catalogKey("Class", "Child") {
			foundDep = true
		}
	}
	qt.Assert(t, qt.IsTrue(foundDep))
}

// S4 - resource relationships and the require/subscribe projection the
// catalog's edges make available (the JSON projection itself is out of
// scope here, but the edges it would read from are asserted directly).
func TestS4ResourceRelationships(t *testing.T) {
	logger := &recordingLogger{}
	res := compileOne(t, `notify { 'a': } -> notify { 'b': } ~> notify { 'c': }`, logger)

	a, b, c := catalogKey("Notify", "a"), catalogKey("Notify", "b"), catalogKey("Notify", "c")
	var sawBefore, sawNotify bool
	for _, e := range res.Catalog.Edges() {
		if e.From == a && e.To == b && e.Kind.String() == "before" {
			sawBefore = true
		}
		if e.From == b && e.To == c && e.Kind.String() == "notify" {
			sawNotify = true
		}
	}
	qt.Assert(t, qt.IsTrue(sawBefore))
	qt.Assert(t, qt.IsTrue(sawNotify))
}

// S5 - iteration with break.
func TestS5ReduceWithBreak(t *testing.T) {
	logger := &recordingLogger{}
	compileOne(t, `
$sum = [1,2,3,4,5].reduce(0) |$m, $v| { if $v > 3 { break } else { $m + $v } }
notice($sum)
`, logger)
	qt.Assert(t, qt.DeepEquals(logger.messages, []string{"6"}))
}

// S6 - cycle error.
func TestS6CycleError(t *testing.T) {
	logger := &recordingLogger{}
	_, err := pcore.Compile([]pcore.Source{{Filename: "site.pp", Text: []byte(`
notify { 'a': require => Notify['b'] }
notify { 'b': require => Notify['a'] }
`)}}, pcore.WithLogger(logger))
	qt.Assert(t, qt.IsNotNil(err))
}

func catalogKey(typeName, title string) catalog.Key {
	return catalog.Key{Type: typeName, Title: title}
}
