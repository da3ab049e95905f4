// Package worker holds the processing capabilities that turn one staged
// filing into viewer artifacts plus extracted facts, and the factory that
// selects the capability for a job.
package worker

import (
	"context"

	"github.com/Lllllllleong/filingviewerflow/internal/models"
)

// Worker is the contract every processing capability implements. Work never
// returns an error; every outcome, good or bad, is folded into the result.
// outputDir is a fresh, empty directory the capability writes its artifacts
// into.
type Worker interface {
	Work(ctx context.Context, job models.FilingJob, download *models.DownloadResult, outputDir string) models.WorkerResult
}
