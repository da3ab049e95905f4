// Package config resolves the per-process settings for the filing pipeline
// from the environment plus an optional secrets bundle on disk. Options are
// loaded once at startup and never mutated afterwards.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Lllllllleong/filingviewerflow/internal/gcp"
)

// Options holds everything the functions need to wire themselves up.
type Options struct {
	ProjectID         string
	ResultsBucket     string
	CollectionName    string
	WorkflowID        string
	WorkflowLocation  string
	EnginePath        string
	ViewerScriptURL   string
	DiscoveryBoundary string
	DocumentAPIKey    string
}

// secretsBundle is the JSON shape of the file named by SECRETS_FILEPATH.
// It carries credential material that must not live in plain environment
// variables on the deployment.
type secretsBundle struct {
	DocumentAPIKey string `json:"documentApiKey"`
}

// Load reads the environment and, when SECRETS_FILEPATH is set, the secrets
// bundle. Missing required settings and unreadable bundles are errors.
func Load() (*Options, error) {
	opts := &Options{
		ProjectID:         gcp.GetEnv("PROJECT_ID", ""),
		ResultsBucket:     gcp.GetEnv("RESULTS_BUCKET", ""),
		CollectionName:    gcp.GetEnv("FIRESTORE_COLLECTION", "filings"),
		WorkflowID:        gcp.GetEnv("WORKFLOW_ID", "filing-index-refresher"),
		WorkflowLocation:  gcp.GetEnv("WORKFLOW_LOCATION", "europe-west2"),
		EnginePath:        gcp.GetEnv("ENGINE_PATH", "arelleCmdLine"),
		ViewerScriptURL:   gcp.GetEnv("VIEWER_SCRIPT_URL", "/ixbrlviewer.js"),
		DiscoveryBoundary: gcp.GetEnv("DISCOVERY_BOUNDARY", ""),
	}
	if opts.ProjectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	if opts.ResultsBucket == "" {
		return nil, fmt.Errorf("RESULTS_BUCKET environment variable must be set")
	}
	// Set-but-empty slips past the default. An empty URL would reach the
	// engine command line as a valueless --viewerURL switch.
	if opts.ViewerScriptURL == "" {
		return nil, fmt.Errorf("VIEWER_SCRIPT_URL environment variable must not be empty")
	}

	if secretsPath := gcp.GetEnv("SECRETS_FILEPATH", ""); secretsPath != "" {
		secrets, err := loadSecrets(secretsPath)
		if err != nil {
			return nil, err
		}
		opts.DocumentAPIKey = secrets.DocumentAPIKey
	}
	return opts, nil
}

func loadSecrets(path string) (*secretsBundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file %s: %w", path, err)
	}
	var secrets secretsBundle
	if err := json.Unmarshal(raw, &secrets); err != nil {
		return nil, fmt.Errorf("failed to parse secrets file %s: %w", path, err)
	}
	return &secrets, nil
}
