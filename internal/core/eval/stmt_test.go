package eval_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/catalog"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/eval"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/parser"
)

func compile(t *testing.T, src string) *catalog.Catalog {
	t.Helper()
	prog, err := parser.ParseFile("test.pp", []byte(src))
	qt.Assert(t, qt.IsNil(err))
	e := eval.NewEvaluator(nil, nil, nil)
	cat, err := e.Run(prog, "")
	qt.Assert(t, qt.IsNil(err))
	return cat
}

// parseAndRun is compile's non-asserting counterpart, for tests that
// expect a parse or evaluation error.
func parseAndRun(t *testing.T, src string) (*catalog.Catalog, error) {
	t.Helper()
	prog, err := parser.ParseFile("test.pp", []byte(src))
	if err != nil {
		return nil, err
	}
	e := eval.NewEvaluator(nil, nil, nil)
	return e.Run(prog, "")
}

func hasEdge(cat *catalog.Catalog, from, to catalog.Key, kind catalog.EdgeKind) bool {
	for _, edge := range cat.Edges() {
		if edge.From == from && edge.To == to && edge.Kind == kind {
			return true
		}
	}
	return false
}

// TestRequireMetaparamAddsRequireEdge exercises catalog-finalization's
// relationship rule: a require metaparameter on a resource declaration
// adds a Require edge from that resource to the referenced one, not
// just an ordinary attribute.
func TestRequireMetaparamAddsRequireEdge(t *testing.T) {
	cat := compile(t, `
notify { 'a': }
notify { 'b': require => Notify['a'] }
`)
	b := catalog.Key{Type: "Notify", Title: "b"}
	a := catalog.Key{Type: "Notify", Title: "a"}
	qt.Assert(t, qt.IsTrue(hasEdge(cat, b, a, catalog.Require)))

	res, ok := cat.Resource(b)
	qt.Assert(t, qt.IsTrue(ok))
	_, hasAttr := res.Attr("require")
	qt.Assert(t, qt.IsFalse(hasAttr))
}

func TestBeforeNotifySubscribeMetaparamsAddEdges(t *testing.T) {
	cat := compile(t, `
notify { 'a': before => Notify['b'] }
notify { 'b': }
notify { 'c': notify => Notify['d'] }
notify { 'd': }
notify { 'e': subscribe => Notify['f'] }
notify { 'f': }
`)
	a, b := catalog.Key{Type: "Notify", Title: "a"}, catalog.Key{Type: "Notify", Title: "b"}
	c, d := catalog.Key{Type: "Notify", Title: "c"}, catalog.Key{Type: "Notify", Title: "d"}
	e, f := catalog.Key{Type: "Notify", Title: "e"}, catalog.Key{Type: "Notify", Title: "f"}
	qt.Assert(t, qt.IsTrue(hasEdge(cat, a, b, catalog.Before)))
	qt.Assert(t, qt.IsTrue(hasEdge(cat, c, d, catalog.Notify)))
	qt.Assert(t, qt.IsTrue(hasEdge(cat, e, f, catalog.Subscribe)))
}

// TestRequireMetaparamCycleDetected matches scenario S6: two resources
// mutually requiring each other via metaparameters (not -> chaining)
// must still surface as a cycle at Finalize.
func TestRequireMetaparamCycleDetected(t *testing.T) {
	prog, err := parser.ParseFile("test.pp", []byte(`
notify { 'a': require => Notify['b'] }
notify { 'b': require => Notify['a'] }
`))
	qt.Assert(t, qt.IsNil(err))
	e := eval.NewEvaluator(nil, nil, nil)
	_, runErr := e.Run(prog, "")
	qt.Assert(t, qt.IsNotNil(runErr))
}
