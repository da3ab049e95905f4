// Package download stages a filing's source material on local disk ahead
// of processing: the primary document and any taxonomy packages the job
// references.
package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/filingviewerflow/internal/gcp"
	"github.com/Lllllllleong/filingviewerflow/internal/models"
)

// Manager fetches filing material into the per-invocation scratch
// directory. Sources are addressed by scheme: gs:// objects stream through
// the storage client, https:// documents come from the registry with the
// configured API key.
type Manager struct {
	storageClient *storage.Client
	httpClient    *http.Client
	apiKey        string
}

// NewManager builds a download manager. apiKey may be empty when the
// deployment only reads from buckets or public registries.
func NewManager(storageClient *storage.Client, apiKey string) *Manager {
	return &Manager{
		storageClient: storageClient,
		httpClient:    &http.Client{Timeout: 2 * time.Minute},
		apiKey:        apiKey,
	}
}

// Download stages everything the job names under destDir and returns where
// it all landed. The primary document is guaranteed to exist on disk when
// the error is nil.
func (m *Manager) Download(ctx context.Context, job models.FilingJob, destDir string) (*models.DownloadResult, error) {
	sourceDir := filepath.Join(destDir, "source")
	if err := os.MkdirAll(sourceDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create source dir: %w", err)
	}

	primaryPath := filepath.Join(sourceDir, documentFilename(job.DocumentLocation))
	if err := m.fetch(ctx, job.DocumentLocation, primaryPath); err != nil {
		return nil, fmt.Errorf("failed to download primary document: %w", err)
	}

	var packages []string
	if len(job.TaxonomyPackageLocations) > 0 {
		packagesDir := filepath.Join(destDir, "packages")
		if err := os.MkdirAll(packagesDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create packages dir: %w", err)
		}

		packages = make([]string, len(job.TaxonomyPackageLocations))
		eg, gctx := errgroup.WithContext(ctx)
		eg.SetLimit(4)
		for i, location := range job.TaxonomyPackageLocations {
			dest := filepath.Join(packagesDir, fmt.Sprintf("%02d_%s", i+1, documentFilename(location)))
			eg.Go(func() error {
				if err := m.fetch(gctx, location, dest); err != nil {
					return fmt.Errorf("package %s: %w", location, err)
				}
				packages[i] = dest
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, fmt.Errorf("failed to download taxonomy packages: %w", err)
		}
	}

	if _, err := os.Stat(primaryPath); err != nil {
		return nil, fmt.Errorf("primary document missing after download: %w", err)
	}

	slog.Info("Staged filing material.",
		"filingId", job.FilingID,
		"primaryDocument", primaryPath,
		"packageCount", len(packages),
	)
	return &models.DownloadResult{PrimaryDocument: primaryPath, TaxonomyPackages: packages}, nil
}

func (m *Manager) fetch(ctx context.Context, location, destPath string) error {
	switch {
	case strings.HasPrefix(location, "gs://"):
		bucket, object, err := gcp.ParseGCSURI(location)
		if err != nil {
			return err
		}
		return gcp.StreamObject(ctx, m.storageClient, bucket, object, destPath)
	case strings.HasPrefix(location, "https://"), strings.HasPrefix(location, "http://"):
		return m.fetchHTTP(ctx, location, destPath)
	default:
		return fmt.Errorf("unsupported document location scheme: %s", location)
	}
}

func (m *Manager) fetchHTTP(ctx context.Context, location, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", location, err)
	}
	if m.apiKey != "" {
		// The registry expects the API key as the basic auth username
		// with an empty password.
		req.SetBasicAuth(m.apiKey, "")
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", location, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, location)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create local file at %s: %w", destPath, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	return nil
}

// documentFilename derives a safe local filename from the source location.
func documentFilename(location string) string {
	if u, err := url.Parse(location); err == nil {
		base := path.Base(u.Path)
		if base != "" && base != "." && base != "/" && base != ".." {
			return base
		}
	}
	return "filing.xhtml"
}
