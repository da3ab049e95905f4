// Package results persists processing outcomes for the event-driven path
// and hands finished filings to the downstream index workflow.
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"cloud.google.com/go/firestore"
	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"

	"github.com/Lllllllleong/filingviewerflow/internal/models"
)

// maxLogBytes caps the engine logs stored on a filing record. Firestore
// documents have a hard size limit and engine logs can run long; the tail
// carries the failure summary, so that is the part kept.
const maxLogBytes = 256 << 10

// RecorderConfig locates the filing collection and the index workflow.
type RecorderConfig struct {
	ProjectID        string
	CollectionName   string
	WorkflowID       string
	WorkflowLocation string
}

// Recorder writes the filing record lifecycle (PROCESSING, then RENDERED or
// FAILED) and triggers the index refresh workflow once a result is in.
type Recorder struct {
	firestoreClient  *firestore.Client
	executionsClient *executions.Client
	config           RecorderConfig
}

// NewRecorder wires a recorder to its clients.
func NewRecorder(firestoreClient *firestore.Client, executionsClient *executions.Client, config RecorderConfig) *Recorder {
	return &Recorder{
		firestoreClient:  firestoreClient,
		executionsClient: executionsClient,
		config:           config,
	}
}

func (r *Recorder) docRef(filingID string) *firestore.DocumentRef {
	return r.firestoreClient.Collection(r.config.CollectionName).Doc(filingID)
}

// MarkProcessing stamps the filing record before work starts. The document
// ID is the filing ID, so a redelivered event resets the same record
// instead of creating a duplicate.
func (r *Recorder) MarkProcessing(ctx context.Context, job models.FilingJob, eventID string) error {
	record := models.FilingRecord{
		FilingID:      job.FilingID,
		CompanyNumber: job.CompanyNumber,
		RegistryCode:  job.RegistryCode,
		Status:        models.StatusProcessing,
		EventID:       eventID,
		StartedAt:     time.Now(),
	}
	if _, err := r.docRef(job.FilingID).Set(ctx, record); err != nil {
		return fmt.Errorf("failed to mark filing %s as processing: %w", job.FilingID, err)
	}
	return nil
}

// Record updates the filing record with the outcome.
func (r *Recorder) Record(ctx context.Context, res models.WorkerResult) error {
	if _, err := r.docRef(res.FilingID).Update(ctx, updatesFor(res)); err != nil {
		return fmt.Errorf("failed to record result for filing %s: %w", res.FilingID, err)
	}
	return nil
}

// updatesFor translates a result into field updates. Absent optionals stay
// off the record entirely.
func updatesFor(res models.WorkerResult) []firestore.Update {
	status := models.StatusRendered
	if !res.Success {
		status = models.StatusFailed
	}
	updates := []firestore.Update{
		{Path: "status", Value: status},
		{Path: "logs", Value: truncateLogs(res.Logs)},
		{Path: "completedAt", Value: time.Now()},
	}
	if res.Error != nil {
		updates = append(updates, firestore.Update{Path: "errorDetails", Value: *res.Error})
	}
	if res.CompanyName != nil {
		updates = append(updates, firestore.Update{Path: "companyName", Value: *res.CompanyName})
	}
	if res.CompanyNumber != nil {
		updates = append(updates, firestore.Update{Path: "companyNumber", Value: *res.CompanyNumber})
	}
	if res.DocumentDate != nil {
		updates = append(updates, firestore.Update{Path: "documentDate", Value: res.DocumentDate.String()})
	}
	if res.ViewerEntrypoint != nil {
		updates = append(updates, firestore.Update{Path: "viewerEntrypoint", Value: *res.ViewerEntrypoint})
	}
	return updates
}

// TriggerIndexRefresh starts the workflow that applies the filing result to
// the search index.
func (r *Recorder) TriggerIndexRefresh(ctx context.Context, res models.WorkerResult) error {
	payloadBytes, err := json.Marshal(indexPayload(res))
	if err != nil {
		return fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s",
			r.config.ProjectID, r.config.WorkflowLocation, r.config.WorkflowID),
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	}
	if _, err := r.executionsClient.CreateExecution(ctx, req); err != nil {
		return fmt.Errorf("failed to trigger index refresh workflow: %w", err)
	}
	return nil
}

func indexPayload(res models.WorkerResult) map[string]interface{} {
	payload := map[string]interface{}{
		"filingId": res.FilingID,
		"success":  res.Success,
	}
	if res.ViewerEntrypoint != nil {
		payload["viewerEntrypoint"] = *res.ViewerEntrypoint
	}
	return payload
}

func truncateLogs(logs string) string {
	if len(logs) <= maxLogBytes {
		return logs
	}
	tail := logs[len(logs)-maxLogBytes:]
	// The byte offset can land inside a multi-byte rune, and Firestore
	// rejects invalid UTF-8 in string fields. Step to the next rune start.
	for len(tail) > 0 && !utf8.RuneStart(tail[0]) {
		tail = tail[1:]
	}
	return "(truncated)\n" + tail
}
