package services

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"

	"github.com/Lllllllleong/filingviewerflow/internal/config"
	"github.com/Lllllllleong/filingviewerflow/internal/gcp"
	"github.com/Lllllllleong/filingviewerflow/internal/models"
	"github.com/Lllllllleong/filingviewerflow/internal/processor"
	"github.com/Lllllllleong/filingviewerflow/internal/results"
)

// resultRecorder is the slice of the results recorder the event path needs.
// *results.Recorder satisfies it.
type resultRecorder interface {
	MarkProcessing(ctx context.Context, job models.FilingJob, eventID string) error
	Record(ctx context.Context, res models.WorkerResult) error
	TriggerIndexRefresh(ctx context.Context, res models.WorkerResult) error
}

// FilingEventFunction serves the event-driven path: jobs arrive as events,
// results land in Firestore and the index workflow picks them up.
type FilingEventFunction struct {
	processor *processor.Processor
	recorder  resultRecorder
}

// NewFilingEventProcessor loads configuration and builds the pipeline plus
// the result recorder.
func NewFilingEventProcessor(ctx context.Context) (*FilingEventFunction, error) {
	opts, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, opts.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	executionsClient, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}

	recorder := results.NewRecorder(firestoreClient, executionsClient, results.RecorderConfig{
		ProjectID:        opts.ProjectID,
		CollectionName:   opts.CollectionName,
		WorkflowID:       opts.WorkflowID,
		WorkflowLocation: opts.WorkflowLocation,
	})

	f := &FilingEventFunction{
		processor: buildProcessor(storageClient, opts),
		recorder:  recorder,
	}
	slog.Info("Filing event processor initialized.", "collection", opts.CollectionName, "workflowId", opts.WorkflowID)
	return f, nil
}

// Process handles one filing event end to end. Classified processing
// failures are recorded as results, not returned; only boundary failures
// (marking, recording, triggering) surface as errors so the platform can
// redeliver the event.
func (f *FilingEventFunction) Process(ctx context.Context, job models.FilingJob, eventID string) error {
	logCtx := slog.With("filingId", job.FilingID, "eventId", eventID)

	if err := f.recorder.MarkProcessing(ctx, job, eventID); err != nil {
		logCtx.Error("Failed to mark filing as processing.", "error", err)
		return err
	}

	result := f.processor.Run(ctx, job)

	if err := f.recorder.Record(ctx, result); err != nil {
		logCtx.Error("Failed to record filing result.", "error", err)
		return err
	}
	if err := f.recorder.TriggerIndexRefresh(ctx, result); err != nil {
		logCtx.Error("Failed to trigger index refresh workflow.", "error", err)
		return err
	}

	logCtx.Info("Filing result recorded and handed off.", "success", result.Success)
	return nil
}
