package eval

import (
	"github.com/opencontainers/go-digest"

	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/ast"
)

// ClassDef is a registered (not yet necessarily evaluated) class
// definition.
type ClassDef struct {
	Decl     *ast.ClassDecl
	Filename string
}

// DefineDef is a registered defined-type definition.
type DefineDef struct {
	Decl     *ast.DefineDecl
	Filename string
}

// FunctionDef is a registered user-defined (Puppet-language) function.
type FunctionDef struct {
	Decl     *ast.FunctionDecl
	Filename string
}

// NodeDef is a registered node definition.
type NodeDef struct {
	Decl     *ast.NodeDecl
	Filename string
}

// Registry holds every class/defined-type/function/node definition
// discovered so far, plus a digest-keyed record of which source files
// have already been scanned, so that re-importing the same file (e.g.
// because two classes both `include` a third) is a no-op rather than a
// duplicate-definition error.
type Registry struct {
	classes   map[string]*ClassDef
	defines   map[string]*DefineDef
	functions map[string]*FunctionDef
	nodes     []*NodeDef

	scanned map[digest.Digest]bool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		classes:   map[string]*ClassDef{},
		defines:   map[string]*DefineDef{},
		functions: map[string]*FunctionDef{},
		scanned:   map[digest.Digest]bool{},
	}
}

// AlreadyScanned reports whether src has already been registered, and if
// not, marks it as scanned. Content-addressing (rather than filename
// comparison) means a file reachable via two different search paths is
// still only scanned once.
func (r *Registry) AlreadyScanned(src []byte) bool {
	d := digest.FromBytes(src)
	if r.scanned[d] {
		return true
	}
	r.scanned[d] = true
	return false
}

// Register walks prog's top-level declarations and adds them to the
// registry. Statements that are not declarations (bare expressions,
// resource declarations at the top level, etc.) are ignored here; the
// evaluator handles those directly when it evaluates the entry-point
// program's statement list.
func (r *Registry) Register(prog *ast.Program, filename string) {
	for _, stmt := range prog.Statements {
		switch d := stmt.(type) {
		case *ast.ClassDecl:
			if _, exists := r.classes[d.Name]; !exists {
				r.classes[d.Name] = &ClassDef{Decl: d, Filename: filename}
			}
		case *ast.DefineDecl:
			if _, exists := r.defines[d.Name]; !exists {
				r.defines[d.Name] = &DefineDef{Decl: d, Filename: filename}
			}
		case *ast.FunctionDecl:
			if _, exists := r.functions[d.Name]; !exists {
				r.functions[d.Name] = &FunctionDef{Decl: d, Filename: filename}
			}
		case *ast.NodeDecl:
			r.nodes = append(r.nodes, &NodeDef{Decl: d, Filename: filename})
		}
	}
}

// Class looks up a registered class by name.
func (r *Registry) Class(name string) (*ClassDef, bool) {
	c, ok := r.classes[name]
	return c, ok
}

// Define looks up a registered defined type by name.
func (r *Registry) Define(name string) (*DefineDef, bool) {
	d, ok := r.defines[name]
	return d, ok
}

// Function looks up a registered user-defined function by name.
func (r *Registry) Function(name string) (*FunctionDef, bool) {
	f, ok := r.functions[name]
	return f, ok
}

// MatchNode returns the NodeDef whose matchers best match hostname: an
// exact literal-name match wins over a regex match, which wins over the
// `default` node; among same-priority matches, the earliest-registered
// node wins.
func (r *Registry) MatchNode(hostname string) (*NodeDef, bool) {
	var byRegex, byDefault *NodeDef
	for _, n := range r.nodes {
		for _, m := range n.Decl.Matches {
			switch {
			case m.Name != "" && m.Name == hostname:
				return n, true
			case m.Regex != "":
				if byRegex == nil && regexMatches(m.Regex, hostname) {
					byRegex = n
				}
			case m.Default:
				if byDefault == nil {
					byDefault = n
				}
			}
		}
	}
	if byRegex != nil {
		return byRegex, true
	}
	if byDefault != nil {
		return byDefault, true
	}
	return nil, false
}
