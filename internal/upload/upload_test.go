package upload

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollectArtifactsMapsNestedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ixbrlviewer.html"), []byte("<html/>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "data.json"), []byte("{}"), 0o644))

	artifacts, err := collectArtifacts(dir, "filing-123")
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	require.Equal(t, "filing-123/ixbrlviewer.html", artifacts[filepath.Join(dir, "ixbrlviewer.html")])
	require.Equal(t, "filing-123/assets/data.json", artifacts[filepath.Join(dir, "assets", "data.json")])
}

func TestCollectArtifactsRejectsEmptyOutput(t *testing.T) {
	_, err := collectArtifacts(t.TempDir(), "filing-123")
	require.ErrorContains(t, err, "nothing to publish")
}

func TestPublishFailsFastOnEmptyOutput(t *testing.T) {
	// The walk happens before any bucket access, so no client is needed.
	m := NewManager(nil, "filing-results")
	_, err := m.Publish(context.Background(), "filing-123", t.TempDir(), "ixbrlviewer.html")
	require.ErrorContains(t, err, "nothing to publish")
}

func TestContentTypeFor(t *testing.T) {
	require.Contains(t, contentTypeFor("/out/ixbrlviewer.html"), "text/html")
	require.Equal(t, "application/xhtml+xml", contentTypeFor("/out/accounts.xhtml"))
	require.Equal(t, "application/octet-stream", contentTypeFor("/out/blob.unknownext"))
}
