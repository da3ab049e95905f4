// Package processor orchestrates the lifecycle of one filing job: stage
// the inputs, build the processing capability, run it, publish what it
// produced. Nothing in here raises past Run; the caller always gets a
// normalized result it can hand straight back.
package processor

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Lllllllleong/filingviewerflow/internal/models"
	"github.com/Lllllllleong/filingviewerflow/internal/worker"
)

// The orchestrator's collaborators. download.Manager, worker.MainFactory
// and upload.Manager satisfy these in production; tests substitute fakes.
type (
	DownloadManager interface {
		Download(ctx context.Context, job models.FilingJob, destDir string) (*models.DownloadResult, error)
	}
	WorkerFactory interface {
		WorkerFor(job models.FilingJob) (worker.Worker, error)
	}
	UploadManager interface {
		Publish(ctx context.Context, filingID, dir, entrypoint string) (string, error)
	}
)

// Infrastructure failure messages, kept distinct from the engine's own so
// the reader of a result can tell which stage gave up.
const (
	msgScratchFailed  = "Failed to prepare local scratch space. Check the logs for details."
	msgDownloadFailed = "Failed to download filing documents. Check the logs for details."
	msgNoCapability   = "No processing capability available for this filing. Check the logs for details."
	msgNoEntrypoint   = "Processing succeeded but no entrypoint was reported. Check the logs for details."
	msgPublishFailed  = "Viewer was generated but could not be published. Check the logs for details."
)

// Processor runs each filing through the fixed sequence. The stages are
// strictly ordered; nothing overlaps within one invocation.
type Processor struct {
	downloads DownloadManager
	workers   WorkerFactory
	uploads   UploadManager
}

// New wires the orchestrator to its collaborators.
func New(downloads DownloadManager, workers WorkerFactory, uploads UploadManager) *Processor {
	return &Processor{downloads: downloads, workers: workers, uploads: uploads}
}

// Run processes one filing end to end. It never returns an error: every
// failure is classified into the result. Scratch space is created fresh per
// invocation and removed on every exit path.
func (p *Processor) Run(ctx context.Context, job models.FilingJob) models.WorkerResult {
	logCtx := slog.With("filingId", job.FilingID)
	logCtx.Info("Processing filing.", "documentLocation", job.DocumentLocation)

	scratchDir, err := os.MkdirTemp("", "filing-*")
	if err != nil {
		logCtx.Error("Failed to create scratch directory.", "error", err)
		return models.FailedResult(job.FilingID, msgScratchFailed, "")
	}
	defer func() {
		if err := os.RemoveAll(scratchDir); err != nil {
			logCtx.Warn("Failed to remove scratch directory.", "path", scratchDir, "error", err)
		}
	}()

	download, err := p.downloads.Download(ctx, job, scratchDir)
	if err != nil {
		logCtx.Error("Failed to download filing documents.", "error", err)
		return models.FailedResult(job.FilingID, msgDownloadFailed, "")
	}

	capability, err := p.workers.WorkerFor(job)
	if err != nil {
		logCtx.Error("Failed to build processing capability.", "error", err)
		return models.FailedResult(job.FilingID, msgNoCapability, "")
	}

	outputDir := filepath.Join(scratchDir, "viewer")
	if err := os.Mkdir(outputDir, 0o755); err != nil {
		logCtx.Error("Failed to create output directory.", "error", err)
		return models.FailedResult(job.FilingID, msgScratchFailed, "")
	}

	result := capability.Work(ctx, job, download, outputDir)
	if !result.Success {
		logCtx.Warn("Processing failed; nothing will be published.")
		return result
	}
	if result.ViewerEntrypoint == nil {
		logCtx.Error("Capability reported success without an entrypoint.")
		return models.FailedResult(job.FilingID, msgNoEntrypoint, result.Logs)
	}

	published, err := p.uploads.Publish(ctx, job.FilingID, outputDir, *result.ViewerEntrypoint)
	if err != nil {
		logCtx.Error("Failed to publish viewer artifacts.", "error", err)
		return models.FailedResult(job.FilingID, msgPublishFailed, result.Logs)
	}
	result.ViewerEntrypoint = &published

	logCtx.Info("Filing processed.", "entrypoint", published)
	return result
}
