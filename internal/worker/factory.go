package worker

import (
	"github.com/Lllllllleong/filingviewerflow/internal/engine"
	"github.com/Lllllllleong/filingviewerflow/internal/models"
	"github.com/Lllllllleong/filingviewerflow/internal/packaging"
)

// MainFactory builds the capability for each job. Selection is keyed on the
// job so further capabilities can slot in per registry or filing kind;
// today every filing maps to the viewer capability.
type MainFactory struct {
	Engine    engine.Engine
	Discovery packaging.Discovery
	ScriptURL string
}

func (f *MainFactory) WorkerFor(job models.FilingJob) (Worker, error) {
	return NewViewerWorker(f.Engine, f.Discovery, f.ScriptURL), nil
}
