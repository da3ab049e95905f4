package packaging

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeZip creates a small valid zip archive at path.
func writeZip(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("META-INF/taxonomyPackage.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<taxonomyPackage/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
}

func TestFindsNearestEnclosingArchive(t *testing.T) {
	base := t.TempDir()
	pkg := filepath.Join(base, "pkg.zip")
	writeZip(t, pkg)

	// The document lives inside the archive, so only its ancestors exist
	// on disk, and the archive itself is the nearest one that matters.
	doc := filepath.Join(pkg, "reports", "accounts.xhtml")

	found, ok := Discovery{}.FindEnclosingPackage(doc)
	require.True(t, ok)
	require.Equal(t, pkg, found)
}

func TestWalkContinuesPastNonArchiveAncestors(t *testing.T) {
	base := t.TempDir()
	pkg := filepath.Join(base, "outer.zip")
	writeZip(t, pkg)

	// corrupt.zip never exists on disk; the walk must skip it and keep
	// going outward until it reaches the real archive.
	doc := filepath.Join(pkg, "corrupt.zip", "accounts.xhtml")

	found, ok := Discovery{Boundary: base}.FindEnclosingPackage(doc)
	require.True(t, ok)
	require.Equal(t, pkg, found)
}

func TestMalformedArchiveIsNotAPackage(t *testing.T) {
	base := t.TempDir()
	corrupt := filepath.Join(base, "corrupt.zip")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a zip at all"), 0o644))

	doc := filepath.Join(corrupt, "accounts.xhtml")

	found, ok := Discovery{Boundary: base}.FindEnclosingPackage(doc)
	require.False(t, ok)
	require.Empty(t, found)
}

func TestSiblingArchiveIsNotEnclosing(t *testing.T) {
	base := t.TempDir()
	writeZip(t, filepath.Join(base, "pkg.zip"))

	// The document sits next to the archive, not inside it. A directory
	// containing a zip is not itself a package.
	doc := filepath.Join(base, "accounts.xhtml")
	require.NoError(t, os.WriteFile(doc, []byte("<html/>"), 0o644))

	found, ok := Discovery{Boundary: base}.FindEnclosingPackage(doc)
	require.False(t, ok)
	require.Empty(t, found)
}

func TestNoEnclosingArchiveIsNotAnError(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "a", "b")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	doc := filepath.Join(dir, "accounts.xhtml")
	require.NoError(t, os.WriteFile(doc, []byte("<html/>"), 0o644))

	found, ok := Discovery{Boundary: base}.FindEnclosingPackage(doc)
	require.False(t, ok)
	require.Empty(t, found)
}

func TestBoundaryStopsTheWalk(t *testing.T) {
	base := t.TempDir()
	pkg := filepath.Join(base, "pkg.zip")
	writeZip(t, pkg)

	// The boundary sits below the archive, so the walk must stop before
	// ever testing it.
	doc := filepath.Join(pkg, "inner", "accounts.xhtml")
	boundary := filepath.Join(pkg, "inner")

	found, ok := Discovery{Boundary: boundary}.FindEnclosingPackage(doc)
	require.False(t, ok)
	require.Empty(t, found)
}
