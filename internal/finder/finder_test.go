package finder_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/eval"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/finder"
)

func writeModule(t *testing.T, root string) {
	t.Helper()
	dirs := filepath.Join(root, "apache", "manifests", "vhost")
	qt.Assert(t, qt.IsNil(os.MkdirAll(dirs, 0o755)))
	qt.Assert(t, qt.IsNil(os.WriteFile(filepath.Join(root, "apache", "manifests", "init.pp"), []byte("class apache {}"), 0o644)))
	qt.Assert(t, qt.IsNil(os.WriteFile(filepath.Join(dirs, "ssl.pp"), []byte("class apache::vhost::ssl {}"), 0o644)))
	qt.Assert(t, qt.IsNil(os.MkdirAll(filepath.Join(root, "apache", "files"), 0o755)))
	qt.Assert(t, qt.IsNil(os.WriteFile(filepath.Join(root, "apache", "files", "httpd.conf"), []byte("# conf"), 0o644)))
}

func TestFindDefinitionManifest(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root)
	f := finder.NewDirFinder(root)

	src, _, ok := f.FindDefinition(eval.FindManifest, "apache")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(string(src), "class apache {}"))

	src, _, ok = f.FindDefinition(eval.FindManifest, "apache::vhost::ssl")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(string(src), "class apache::vhost::ssl {}"))
}

func TestFindDefinitionMissing(t *testing.T) {
	root := t.TempDir()
	f := finder.NewDirFinder(root)
	_, _, ok := f.FindDefinition(eval.FindManifest, "nope::nothing")
	qt.Assert(t, qt.IsFalse(ok))
}

func TestFindLiteralPath(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root)
	f := finder.NewDirFinder(root)

	src, _, ok := f.Find(filepath.Join("apache", "files", "httpd.conf"))
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(string(src), "# conf"))
}

func TestRootsSearchedInOrder(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	qt.Assert(t, qt.IsNil(os.MkdirAll(filepath.Join(rootB, "apache", "manifests"), 0o755)))
	qt.Assert(t, qt.IsNil(os.WriteFile(filepath.Join(rootB, "apache", "manifests", "init.pp"), []byte("class apache { }  # from B"), 0o644)))
	writeModule(t, rootA)

	f := finder.NewDirFinder(rootA, rootB)
	src, _, ok := f.FindDefinition(eval.FindManifest, "apache")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(string(src), "class apache {}"))
}
