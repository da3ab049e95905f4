package models

import "cloud.google.com/go/civil"

// DownloadResult describes the filing material staged on local disk by the
// download manager. PrimaryDocument always points at an existing file;
// TaxonomyPackages may be empty.
type DownloadResult struct {
	PrimaryDocument  string
	TaxonomyPackages []string
}

// WorkerResult is the single normalized outcome of processing one filing.
// Every failure mode in the pipeline is folded into this shape; nothing
// past the orchestrator raises. Optional fields stay typed (nil = absent)
// until the response projection decides how to serialize them.
type WorkerResult struct {
	Success          bool
	Error            *string
	Logs             string
	CompanyName      *string
	CompanyNumber    *string
	DocumentDate     *civil.Date
	FilingID         string
	ViewerEntrypoint *string
}

// FailedResult builds the failure shape used by every stage: a message for
// the operator plus whatever engine logs were captured before the failure.
func FailedResult(filingID, message, logs string) WorkerResult {
	return WorkerResult{
		Success:  false,
		Error:    &message,
		Logs:     logs,
		FilingID: filingID,
	}
}
