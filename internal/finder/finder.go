// Package finder implements a reference on-disk Finder (eval.Finder) for
// the Puppet catalog compiler core: it supplies on-disk locations for
// classes, defined types, and manifests keyed by a find kind (manifest,
// function, or type) and a fully-qualified name. Filesystem layout
// conventions are deliberately kept out of the core itself, so this
// package is reference-quality plumbing for embedders, not a shipped
// pipeline stage.
//
// The module-path convention ("module::sub::thing" resolves under
// "<modulepath>/module/manifests/sub/thing.pp") is grounded on
// holomush-holomush's internal/plugin/capability pattern matching: glob
// patterns are compiled once and matched per lookup rather than
// re-parsed, using '.'-free glob separators since Puppet paths use the
// OS path separator, not '.'.
package finder

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/eval"
)

// DirFinder resolves classes, defined types, functions, and type aliases
// against a list of module-path roots, each containing one directory per
// module (e.g. "<root>/apache/manifests/vhost.pp" backs class
// "apache::vhost"). It also resolves literal relative paths for the
// file/epp builtins by checking each root directly.
type DirFinder struct {
	roots []string
	// manifestGlob matches any file under "<module>/manifests/**.pp",
	// used to validate candidate resolutions cheaply before a stat call.
	manifestGlob glob.Glob
}

// NewDirFinder returns a DirFinder searching roots in order; the first
// root containing a matching file wins.
func NewDirFinder(roots ...string) *DirFinder {
	return &DirFinder{
		roots:        append([]string(nil), roots...),
		manifestGlob: glob.MustCompile("*/manifests/**.pp", '/'),
	}
}

var _ eval.Finder = (*DirFinder)(nil)

// manifestPath maps a fully-qualified name to its module-relative path,
// per Puppet's autoload convention: "module" alone is
// "module/manifests/init.pp"; "module::a::b" is
// "module/manifests/a/b.pp".
func manifestPath(fqName string) string {
	segs := strings.Split(fqName, "::")
	module := segs[0]
	rest := segs[1:]
	if len(rest) == 0 {
		return filepath.Join(module, "manifests", "init.pp")
	}
	return filepath.Join(module, "manifests", filepath.Join(rest...)+".pp")
}

// functionPath maps a fully-qualified function name to its
// module-relative path: "module::func" is "module/functions/func.pp".
// Legacy Ruby functions (".rb") are not resolved here — only
// Puppet-language functions autoload through this finder.
func functionPath(fqName string) string {
	segs := strings.Split(fqName, "::")
	module := segs[0]
	rest := segs[1:]
	if len(rest) == 0 {
		return filepath.Join(module, "functions", module+".pp")
	}
	return filepath.Join(module, "functions", filepath.Join(rest...)+".pp")
}

// typePath maps a fully-qualified type-alias name to its module-relative
// path: "module::alias" is "module/types/alias.pp".
func typePath(fqName string) string {
	segs := strings.Split(fqName, "::")
	module := segs[0]
	rest := segs[1:]
	if len(rest) == 0 {
		return filepath.Join(module, "types", "init.pp")
	}
	return filepath.Join(module, "types", filepath.Join(rest...)+".pp")
}

// FindDefinition implements eval.Finder: it resolves name to a
// module-relative path according to kind, then searches each root in
// order.
func (f *DirFinder) FindDefinition(kind eval.FindKind, fqName string) ([]byte, string, bool) {
	var rel string
	switch kind {
	case eval.FindManifest:
		rel = manifestPath(fqName)
		if !f.manifestGlob.Match(filepath.ToSlash(rel)) {
			return nil, "", false
		}
	case eval.FindFunction:
		rel = functionPath(fqName)
	case eval.FindTypeAlias:
		rel = typePath(fqName)
	default:
		return nil, "", false
	}
	for _, root := range f.roots {
		full := filepath.Join(root, rel)
		src, err := os.ReadFile(full)
		if err == nil {
			return src, full, true
		}
	}
	return nil, "", false
}

// Find implements eval.Finder's literal-path resolution used by the
// file() and epp() builtins: path is tried relative to each root
// verbatim (no module-autoload convention applied).
func (f *DirFinder) Find(path string) ([]byte, string, bool) {
	if filepath.IsAbs(path) {
		if src, err := os.ReadFile(path); err == nil {
			return src, path, true
		}
		return nil, "", false
	}
	for _, root := range f.roots {
		full := filepath.Join(root, path)
		if src, err := os.ReadFile(full); err == nil {
			return src, full, true
		}
	}
	return nil, "", false
}

// Roots returns the configured module-path search roots, in search
// order.
func (f *DirFinder) Roots() []string { return append([]string(nil), f.roots...) }
