package worker

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"cloud.google.com/go/civil"
	"github.com/Lllllllleong/filingviewerflow/internal/engine"
	"github.com/Lllllllleong/filingviewerflow/internal/models"
	"github.com/Lllllllleong/filingviewerflow/internal/packaging"
)

// ViewerHTMLFilename is the artifact the viewer plugin writes into the
// output directory. It doubles as the logical entrypoint reference carried
// in successful results.
const ViewerHTMLFilename = "ixbrlviewer.html"

// Fact local names extracted from every filing. Matching ignores the
// namespace so the same filing renders identically across taxonomy years.
const (
	factCompanyName      = "EntityCurrentLegalOrRegisteredName"
	factCompanyNumber    = "UKCompaniesHouseRegisteredNumber"
	factBalanceSheetDate = "BalanceSheetDate"
)

// The three failure messages keep the engine outcomes distinguishable for
// whoever reads the result: the engine refused the filing, the engine lied
// about succeeding, or the engine never ran.
const (
	msgEngineFailed      = "Viewer generation failed within Arelle. Check the logs for details."
	msgViewerNotFound    = "Arelle reported success but viewer was not found. Check the logs for details."
	msgEngineUnavailable = "Failed to run Arelle. Check the logs for details."
)

const engineLogFormat = "[%(messageCode)s] %(message)s - %(file)s"

// ViewerWorker renders the interactive viewer for one filing and pulls the
// index facts out of the engine's export. The discovery component is part
// of its configuration so enclosing package archives reach the engine
// without the orchestrator knowing about them.
type ViewerWorker struct {
	engine    engine.Engine
	discovery packaging.Discovery
	scriptURL string
}

// NewViewerWorker builds the production capability. scriptURL is where the
// generated stub viewer loads its script from at serve time.
func NewViewerWorker(eng engine.Engine, discovery packaging.Discovery, scriptURL string) *ViewerWorker {
	return &ViewerWorker{engine: eng, discovery: discovery, scriptURL: scriptURL}
}

func (w *ViewerWorker) Work(ctx context.Context, job models.FilingJob, download *models.DownloadResult, outputDir string) models.WorkerResult {
	logCtx := slog.With("filingId", job.FilingID)

	packages := make([]string, 0, len(download.TaxonomyPackages)+1)
	if pkg, ok := w.discovery.FindEnclosingPackage(download.PrimaryDocument); ok {
		logCtx.Info("Discovered enclosing taxonomy package.", "package", pkg)
		packages = append(packages, pkg)
	}
	packages = append(packages, download.TaxonomyPackages...)

	sess, err := w.engine.OpenSession(engine.Options{
		EntrypointFile:          download.PrimaryDocument,
		Packages:                packages,
		Plugins:                 []string{"ixbrl-viewer"},
		LogFormat:               engineLogFormat,
		DisablePersistentConfig: true,
		PluginOptions: map[string]string{
			"saveViewerDest":     outputDir,
			"useStubViewer":      "",
			"viewerNoCopyScript": "",
			"viewerURL":          w.scriptURL,
		},
	})
	if err != nil {
		logCtx.Error("Failed to open engine session.", "error", err)
		return models.FailedResult(job.FilingID, msgEngineUnavailable, "")
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logCtx.Warn("Failed to release engine session scratch.", "error", err)
		}
	}()

	ok, err := sess.Run(ctx)
	if err != nil {
		logCtx.Error("Engine could not be run.", "error", err)
		return models.FailedResult(job.FilingID, msgEngineUnavailable, sess.Logs())
	}
	logs := sess.Logs()
	if !ok {
		logCtx.Warn("Engine reported failure for filing.")
		return models.FailedResult(job.FilingID, msgEngineFailed, logs)
	}

	if _, err := os.Stat(filepath.Join(outputDir, ViewerHTMLFilename)); err != nil {
		logCtx.Error("Engine reported success but produced no viewer artifact.", "outputDir", outputDir)
		return models.FailedResult(job.FilingID, msgViewerNotFound, logs)
	}

	entrypoint := ViewerHTMLFilename
	result := models.WorkerResult{
		Success:          true,
		Logs:             logs,
		FilingID:         job.FilingID,
		ViewerEntrypoint: &entrypoint,
	}

	facts, err := sess.Facts()
	if err != nil {
		// A filing with no readable export still renders; the index just
		// gets no facts for it.
		logCtx.Warn("No usable facts export.", "error", err)
		return result
	}
	w.applyFacts(&result, facts, logCtx)
	return result
}

// applyFacts fills the optional result fields from the engine export. When
// a local name occurs more than once, the first fact in the engine's
// reported order is the one that counts.
func (w *ViewerWorker) applyFacts(result *models.WorkerResult, facts []engine.Fact, logCtx *slog.Logger) {
	var companyName, companyNumber, balanceSheetDate *string
	for _, f := range facts {
		switch f.LocalName() {
		case factCompanyName:
			if companyName == nil {
				v := f.Value
				companyName = &v
			}
		case factCompanyNumber:
			if companyNumber == nil {
				v := f.Value
				companyNumber = &v
			}
		case factBalanceSheetDate:
			if balanceSheetDate == nil {
				v := f.Value
				balanceSheetDate = &v
			}
		}
	}

	result.CompanyName = companyName
	result.CompanyNumber = companyNumber
	if balanceSheetDate != nil {
		date, err := civil.ParseDate(*balanceSheetDate)
		if err != nil {
			logCtx.Warn("Balance sheet date fact is not a date.", "value", *balanceSheetDate)
			return
		}
		result.DocumentDate = &date
	}
}
