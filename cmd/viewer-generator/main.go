package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/filingviewerflow/internal/models"
	"github.com/Lllllllleong/filingviewerflow/internal/services"
)

var (
	generatorInstance *services.ViewerGeneratorFunction
	once              sync.Once
	initErr           error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Register the HTTP function with the framework.
	// "HandleGenerateViewer" is the entry point name we'll see in GCP.
	functions.HTTP("HandleGenerateViewer", handleGenerateViewer)
}

// main is required by the Go Functions Framework.
func main() {}

// handleGenerateViewer is the HTTP handler for the synchronous path. A
// processing failure is still a 200 with Success=false in the body; only
// malformed requests and initialization problems become HTTP errors.
func handleGenerateViewer(w http.ResponseWriter, r *http.Request) {
	// Use sync.Once for robust, one-time initialization of clients.
	once.Do(func() {
		generatorInstance, initErr = services.NewViewerGenerator(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical: viewer generator initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var job models.FilingJob
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		slog.Warn("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}
	if err := job.Validate(); err != nil {
		slog.Warn("Rejected invalid filing job", "error", err)
		http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
		return
	}

	res := generatorInstance.Process(r.Context(), job)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err, "filingId", job.FilingID)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}
