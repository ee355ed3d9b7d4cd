package factsyaml_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/values"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/testsupport/factsyaml"
)

const fixture = `
fqdn: agent01.example.com
os:
  family: RedHat
  release:
    major: "8"
processors:
  count: 4
tags:
  - web
  - frontend
`

func TestLoadScalarAndNested(t *testing.T) {
	p, err := factsyaml.Load([]byte(fixture))
	qt.Assert(t, qt.IsNil(err))

	v, ok := p.Fact("fqdn")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(v, values.String("agent01.example.com")))

	v, ok = p.Fact("processors")
	qt.Assert(t, qt.IsTrue(ok))
	h, ok := v.(*values.Hash)
	qt.Assert(t, qt.IsTrue(ok))
	count, ok := h.Get(values.String("count"))
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(count, values.Integer(4)))

	v, ok = p.Fact("tags")
	qt.Assert(t, qt.IsTrue(ok))
	arr, ok := v.(*values.Array)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(len(arr.Elements), 2))
}

func TestFactMissing(t *testing.T) {
	p, err := factsyaml.Load([]byte(fixture))
	qt.Assert(t, qt.IsNil(err))
	_, ok := p.Fact("does_not_exist")
	qt.Assert(t, qt.IsFalse(ok))
}

func TestFactsReturnsCopy(t *testing.T) {
	p, err := factsyaml.Load([]byte(fixture))
	qt.Assert(t, qt.IsNil(err))
	all := p.Facts()
	delete(all, "fqdn")
	_, ok := p.Fact("fqdn")
	qt.Assert(t, qt.IsTrue(ok))
}
