package download

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/filingviewerflow/internal/models"
)

func TestDownloadStagesPrimaryDocumentWithAPIKey(t *testing.T) {
	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("ch-api-key:"))

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("<html>accounts</html>"))
	}))
	defer srv.Close()

	m := NewManager(nil, "ch-api-key")
	job := models.FilingJob{
		FilingID:         "filing-123",
		DocumentLocation: srv.URL + "/docs/accounts.xhtml",
	}

	destDir := t.TempDir()
	res, err := m.Download(context.Background(), job, destDir)
	require.NoError(t, err)

	require.Equal(t, wantAuth, gotAuth)
	require.Equal(t, filepath.Join(destDir, "source", "accounts.xhtml"), res.PrimaryDocument)
	content, err := os.ReadFile(res.PrimaryDocument)
	require.NoError(t, err)
	require.Equal(t, "<html>accounts</html>", string(content))
	require.Empty(t, res.TaxonomyPackages)
}

func TestDownloadSendsNoAuthWithoutKey(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	m := NewManager(nil, "")
	_, err := m.Download(context.Background(), models.FilingJob{
		FilingID:         "filing-123",
		DocumentLocation: srv.URL + "/accounts.xhtml",
	}, t.TempDir())
	require.NoError(t, err)
	require.Empty(t, gotAuth)
}

func TestDownloadFailsOnRegistryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	m := NewManager(nil, "ch-api-key")
	_, err := m.Download(context.Background(), models.FilingJob{
		FilingID:         "filing-123",
		DocumentLocation: srv.URL + "/accounts.xhtml",
	}, t.TempDir())
	require.ErrorContains(t, err, "unexpected status 429")
}

func TestDownloadStagesTaxonomyPackages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload for " + r.URL.Path))
	}))
	defer srv.Close()

	m := NewManager(nil, "")
	job := models.FilingJob{
		FilingID:         "filing-123",
		DocumentLocation: srv.URL + "/accounts.xhtml",
		TaxonomyPackageLocations: []string{
			srv.URL + "/packages/frc-2023.zip",
			srv.URL + "/packages/charities-2023.zip",
		},
	}

	destDir := t.TempDir()
	res, err := m.Download(context.Background(), job, destDir)
	require.NoError(t, err)

	require.Equal(t, []string{
		filepath.Join(destDir, "packages", "01_frc-2023.zip"),
		filepath.Join(destDir, "packages", "02_charities-2023.zip"),
	}, res.TaxonomyPackages)
	for _, p := range res.TaxonomyPackages {
		_, err := os.Stat(p)
		require.NoError(t, err)
	}
}

func TestDownloadRejectsUnknownScheme(t *testing.T) {
	m := NewManager(nil, "")
	_, err := m.Download(context.Background(), models.FilingJob{
		FilingID:         "filing-123",
		DocumentLocation: "ftp://registry.example/accounts.xhtml",
	}, t.TempDir())
	require.ErrorContains(t, err, "unsupported document location scheme")
}

func TestDocumentFilenameFallbacks(t *testing.T) {
	require.Equal(t, "accounts.xhtml", documentFilename("https://registry.example/a/b/accounts.xhtml?q=1"))
	require.Equal(t, "doc.xhtml", documentFilename("gs://bucket/filings/doc.xhtml"))
	require.Equal(t, "filing.xhtml", documentFilename("https://registry.example/"))
	require.Equal(t, "filing.xhtml", documentFilename("https://registry.example"))
}
