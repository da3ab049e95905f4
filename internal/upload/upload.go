// Package upload publishes generated viewer artifacts to the results
// bucket, one prefix per filing.
package upload

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"

	"github.com/Lllllllleong/filingviewerflow/internal/gcp"
)

// Manager uploads a worker's output directory under the filing's prefix in
// the results bucket. Writes are conditional on the object not existing,
// so a redelivered event republishes without clobbering anything.
type Manager struct {
	storageClient *storage.Client
	bucketName    string
}

// NewManager builds an upload manager targeting bucketName.
func NewManager(storageClient *storage.Client, bucketName string) *Manager {
	return &Manager{storageClient: storageClient, bucketName: bucketName}
}

// Publish uploads every regular file under dir to
// <bucket>/<filingID>/<relative path>, verifies the entrypoint artifact
// actually landed, and returns the entrypoint reference.
func (m *Manager) Publish(ctx context.Context, filingID, dir, entrypoint string) (string, error) {
	logCtx := slog.With("filingId", filingID, "bucket", m.bucketName)

	artifacts, err := collectArtifacts(dir, filingID)
	if err != nil {
		return "", err
	}

	logCtx.Info("Starting concurrent upload of artifacts.", "fileCount", len(artifacts))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(8)
	for localPath, destObject := range artifacts {
		eg.Go(func() error {
			if err := m.uploadFile(gctx, localPath, destObject); err != nil {
				return fmt.Errorf("artifact %s: %w", destObject, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return "", fmt.Errorf("one or more artifacts failed to upload: %w", err)
	}

	if err := m.verifyPublished(ctx, filingID, entrypoint); err != nil {
		return "", err
	}
	logCtx.Info("All artifacts published.", "entrypoint", entrypoint)
	return entrypoint, nil
}

// collectArtifacts maps every regular file under dir to its destination
// object name. An empty output directory is an error; a successful worker
// always leaves artifacts behind.
func collectArtifacts(dir, filingID string) (map[string]string, error) {
	artifacts := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		artifacts[path] = filingID + "/" + filepath.ToSlash(rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk output dir %s: %w", dir, err)
	}
	if len(artifacts) == 0 {
		return nil, fmt.Errorf("output directory %s has nothing to publish", dir)
	}
	return artifacts, nil
}

func (m *Manager) uploadFile(ctx context.Context, localPath, destObject string) error {
	const maxRetries = 4
	var backoff = 1 * time.Second
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		err := func() error {
			reader, err := os.Open(localPath)
			if err != nil {
				return fmt.Errorf("could not open local file %s: %w", localPath, err)
			}
			defer reader.Close()

			writeCtx, cancel := context.WithTimeout(ctx, time.Second*50)
			defer cancel()

			bucket := m.storageClient.Bucket(m.bucketName)
			return gcp.WriteObjectIfAbsent(writeCtx, bucket, destObject, contentTypeFor(localPath), reader)
		}()

		if err == nil {
			return nil
		}

		lastErr = err
		slog.Warn(
			"Upload failed, will retry.",
			"gcsObject", destObject,
			"attempt", i+1,
			"maxRetries", maxRetries,
			"backoff", backoff.String(),
			"error", err,
		)

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			slog.Error("Context cancelled during backoff. Aborting retries.", "gcsObject", destObject, "error", ctx.Err())
			return ctx.Err()
		}
	}
	slog.Error("Upload failed after all retries.", "gcsObject", destObject, "error", lastErr)
	return fmt.Errorf("upload for %s failed after all retries: %w", destObject, lastErr)
}

// verifyPublished lists the filing's prefix and confirms the entrypoint
// artifact is really there before the result advertises it.
func (m *Manager) verifyPublished(ctx context.Context, filingID, entrypoint string) error {
	want := filingID + "/" + entrypoint
	it := m.storageClient.Bucket(m.bucketName).Objects(ctx, &storage.Query{Prefix: filingID + "/"})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to list published artifacts: %w", err)
		}
		if attrs.Name == want {
			return nil
		}
	}
	return fmt.Errorf("entrypoint %s missing from published artifacts", want)
}

// Extensions the runtime's mime table may not know. Function containers
// ship no /etc/mime.types, so the builtin table is all there is.
var extraContentTypes = map[string]string{
	".xhtml": "application/xhtml+xml",
	".map":   "application/json",
}

func contentTypeFor(localPath string) string {
	ext := filepath.Ext(localPath)
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	if ct, ok := extraContentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
