package worker

import (
	"context"
	"fmt"

	"github.com/Lllllllleong/filingviewerflow/internal/models"
)

// MapWorker is the test substitute capability: a fixed table of results
// keyed by filing ID. Asking it about a filing it was never configured for
// is a harness bug, so it panics rather than inventing an answer.
type MapWorker struct {
	Results map[string]models.WorkerResult
}

func (w *MapWorker) Work(_ context.Context, job models.FilingJob, _ *models.DownloadResult, _ string) models.WorkerResult {
	result, ok := w.Results[job.FilingID]
	if !ok {
		panic(fmt.Sprintf("map worker has no result configured for filing %q", job.FilingID))
	}
	return result
}
