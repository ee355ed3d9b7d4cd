// Package eval implements the tree-walking evaluator: scopes, the
// class/defined-type/node registry, binary operator and function
// dispatch, the iteration contract, collector realization, and catalog
// finalization. The walker shape (an
// OpContext-like Evaluator threading a Scope through mutually-recursive
// eval methods) is grounded on cue/internal/core/adt's evaluator design,
// adapted from CUE's lazy constraint evaluation to Puppet's
// eager, side-effecting manifest evaluation.
package eval

import (
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/values"
)

// Scope is a lexical variable-binding environment. Puppet variables are
// write-once within a scope: Set fails if name is already bound in this
// exact scope, but a child scope may shadow a parent's binding freely.
type Scope struct {
	parent *Scope
	vars   map[string]values.Value
	// match holds the $0..$9 match-scope bindings established by the
	// last =~ in this lexical context. It is copy-on-write: SetMatch never
	// mutates an existing map in place but replaces it, so a holder of a
	// previous map keeps its contents, while lookups through this Scope
	// (including from child scopes) see the newest bindings.
	match map[string]values.Value
}

// NewScope creates a root scope with no parent.
func NewScope() *Scope {
	return &Scope{vars: map[string]values.Value{}}
}

// Child creates a new scope nested under s.
func (s *Scope) Child() *Scope {
	return &Scope{parent: s, vars: map[string]values.Value{}}
}

// Lookup resolves name by walking outward from s to the root scope, then
// checking each scope's match bindings for digit names ("0".."9").
func (s *Scope) Lookup(name string) (values.Value, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars[name]; ok {
			return v, true
		}
	}
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.match[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set binds name to v in s. It reports false (and does not rebind) if
// name is already bound directly in s, per Puppet's write-once-per-scope
// rule; rebinding in a child scope is always allowed since that is
// shadowing, not mutation.
func (s *Scope) Set(name string, v values.Value) bool {
	if _, exists := s.vars[name]; exists {
		return false
	}
	s.vars[name] = v
	return true
}

// SetMatch replaces s's match-variable bindings with a fresh map derived
// from a successful regex match's captures (copy-on-write: the old map,
// if still referenced by a closure that captured this Scope by value
// semantics elsewhere, is left untouched).
func (s *Scope) SetMatch(captures []string) {
	m := make(map[string]values.Value, len(captures))
	for i, c := range captures {
		m[itoa(i)] = values.String(c)
	}
	s.match = m
}

func itoa(i int) string {
	if i < 10 {
		return string(rune('0' + i))
	}
	// Puppet match variables beyond $9 are rare in core grammar (scanner
	// rejects multi-digit variable names outright); kept only so a
	// larger capture count degrades gracefully instead of panicking.
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}
