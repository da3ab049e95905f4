// Package packaging locates the taxonomy package archive, if any, that
// encloses a filing document. Registries deliver some filings as documents
// nested inside a package archive, addressed by paths like
// /staging/pkg.zip/reports/accounts.xhtml, so the enclosing archive has to
// be handed to the engine alongside the document itself.
package packaging

import (
	"archive/zip"
	"path/filepath"
)

// Discovery walks a document path's ancestors looking for a package
// archive. Boundary, when set, is the last ancestor tested; an empty
// boundary lets the walk continue to the filesystem root.
type Discovery struct {
	Boundary string
}

// FindEnclosingPackage tests each ancestor of documentPath, nearest first,
// as a candidate archive file and returns the first that opens as a valid
// zip. Ancestors that are directories, missing, or malformed archives are
// skipped without error. The boolean reports whether a package was found.
func (d Discovery) FindEnclosingPackage(documentPath string) (string, bool) {
	boundary := d.Boundary
	if boundary != "" {
		boundary = filepath.Clean(boundary)
	}

	current := filepath.Dir(filepath.Clean(documentPath))
	for {
		if isZipArchive(current) {
			return current, true
		}
		if current == boundary {
			return "", false
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

func isZipArchive(path string) bool {
	r, err := zip.OpenReader(path)
	if err != nil {
		return false
	}
	r.Close()
	return true
}
