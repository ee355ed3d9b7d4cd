package parser_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/ast"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/parser"
)

func TestParseArithmeticPrecedence(t *testing.T) {
	prog, err := parser.ParseFile("test.pp", []byte(`notice(1 + 2 * 3)`))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(len(prog.Statements), 1))
}

func TestParseClassWithInheritance(t *testing.T) {
	prog, err := parser.ParseFile("test.pp", []byte(`
class base {
  notice('base')
}
class child($p = 7) inherits base {
  notice("child:$p")
}
`))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(len(prog.Statements), 2))
	cd, ok := prog.Statements[1].(*ast.ClassDecl)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(cd.Parent, "base"))
	qt.Assert(t, qt.Equals(len(cd.Params), 1))
}

func TestParseResourceRelationshipChain(t *testing.T) {
	prog, err := parser.ParseFile("test.pp", []byte(`notify { 'a': } -> notify { 'b': } ~> notify { 'c': }`))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(len(prog.Statements), 1))
	_, ok := prog.Statements[0].(*ast.RelationshipStmt)
	qt.Assert(t, qt.IsTrue(ok))
}

func TestParseResourceWithRequireMetaparam(t *testing.T) {
	prog, err := parser.ParseFile("test.pp", []byte(`notify { 'b': require => Notify['a'] }`))
	qt.Assert(t, qt.IsNil(err))
	rd, ok := prog.Statements[0].(*ast.ResourceDecl)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(len(rd.Instances), 1))
	qt.Assert(t, qt.Equals(len(rd.Instances[0].Attrs), 1))
	qt.Assert(t, qt.Equals(rd.Instances[0].Attrs[0].Name, "require"))
}

func TestParseHeredoc(t *testing.T) {
	prog, err := parser.ParseFile("test.pp", []byte("$x = @(END)\nhello\nEND\n"))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(len(prog.Statements), 1))
}

func TestParseErrorRecoveryAccumulatesList(t *testing.T) {
	_, err := parser.ParseFile("test.pp", []byte(`notify { 'a': ; notify { 'b': }`))
	qt.Assert(t, qt.IsNotNil(err))
}
