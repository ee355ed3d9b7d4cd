package eval

import "github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/values"

// FactProvider supplies facts (external node data) visible to a manifest
// as top-scope variables. The reference implementation,
// internal/testsupport/factsyaml.Provider, loads facts from a YAML
// fixture for tests.
type FactProvider interface {
	Fact(name string) (values.Value, bool)
	Facts() map[string]values.Value
}

// Logger receives structured diagnostic and progress messages emitted by
// the log family of functions (notice/warning/alert/...). It is a
// contract only; formatting and routing of these messages is left to the
// embedder.
type Logger interface {
	Log(level string, message string)
}

// FindKind identifies what category of definition a Finder lookup is
// for: a manifest (class/defined-type/node source), a function, or a
// type alias.
type FindKind int

const (
	FindManifest FindKind = iota
	FindFunction
	FindTypeAlias
)

func (k FindKind) String() string {
	switch k {
	case FindManifest:
		return "manifest"
	case FindFunction:
		return "function"
	case FindTypeAlias:
		return "type"
	default:
		return "unknown"
	}
}

// Finder locates source files for classes, defined types, functions, and
// type aliases by fully-qualified name. The reference implementation,
// internal/finder.DirFinder, maps "module::sub::thing" to
// "<modulepath>/module/manifests/sub/thing.pp", trying each module path
// root in order; a glob pattern only checks the mapped manifest path.
//
// Find resolves a literal path (used by the file/epp builtins, which
// take a path argument rather than a find_type+name pair).
type Finder interface {
	Find(path string) (source []byte, filename string, ok bool)
	FindDefinition(kind FindKind, fullyQualifiedName string) (source []byte, filename string, ok bool)
}
