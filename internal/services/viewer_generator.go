package services

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"

	"github.com/Lllllllleong/filingviewerflow/internal/config"
	"github.com/Lllllllleong/filingviewerflow/internal/download"
	"github.com/Lllllllleong/filingviewerflow/internal/engine"
	"github.com/Lllllllleong/filingviewerflow/internal/models"
	"github.com/Lllllllleong/filingviewerflow/internal/packaging"
	"github.com/Lllllllleong/filingviewerflow/internal/processor"
	"github.com/Lllllllleong/filingviewerflow/internal/upload"
	"github.com/Lllllllleong/filingviewerflow/internal/worker"
)

// ViewerGeneratorFunction serves the synchronous path: one filing job in,
// one flat result out.
type ViewerGeneratorFunction struct {
	processor *processor.Processor
}

// NewViewerGenerator loads configuration, builds the clients and wires the
// processing pipeline.
func NewViewerGenerator(ctx context.Context) (*ViewerGeneratorFunction, error) {
	opts, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}

	f := &ViewerGeneratorFunction{processor: buildProcessor(storageClient, opts)}
	slog.Info("Viewer generator initialized.", "resultsBucket", opts.ResultsBucket, "enginePath", opts.EnginePath)
	return f, nil
}

// Process runs one filing and projects the outcome into the response
// shape. It never fails; whatever happened is in the response.
func (f *ViewerGeneratorFunction) Process(ctx context.Context, job models.FilingJob) models.ViewerResponse {
	return models.NewViewerResponse(f.processor.Run(ctx, job))
}

// buildProcessor assembles the pipeline the same way for both invocation
// boundaries.
func buildProcessor(storageClient *storage.Client, opts *config.Options) *processor.Processor {
	downloads := download.NewManager(storageClient, opts.DocumentAPIKey)
	factory := &worker.MainFactory{
		Engine:    engine.New(opts.EnginePath),
		Discovery: packaging.Discovery{Boundary: opts.DiscoveryBoundary},
		ScriptURL: opts.ViewerScriptURL,
	}
	uploads := upload.NewManager(storageClient, opts.ResultsBucket)
	return processor.New(downloads, factory, uploads)
}
