package models

import "time"

// Filing status values as recorded in Firestore.
const (
	StatusProcessing = "PROCESSING"
	StatusRendered   = "RENDERED"
	StatusFailed     = "FAILED"
)

// FilingRecord is the per-filing record kept in Firestore by the event
// driven path. It tracks the processing status and, once finished, the
// extracted facts and the viewer entrypoint. The document ID is the
// filing ID, so redelivered events overwrite rather than duplicate.
type FilingRecord struct {
	FilingID         string    `firestore:"filingId,omitempty"`
	CompanyNumber    string    `firestore:"companyNumber,omitempty"`
	RegistryCode     string    `firestore:"registryCode,omitempty"`
	Status           string    `firestore:"status,omitempty"`
	ErrorDetails     string    `firestore:"errorDetails,omitempty"`
	CompanyName      string    `firestore:"companyName,omitempty"`
	DocumentDate     string    `firestore:"documentDate,omitempty"` // YYYY-MM-DD
	ViewerEntrypoint string    `firestore:"viewerEntrypoint,omitempty"`
	Logs             string    `firestore:"logs,omitempty"`
	EventID          string    `firestore:"eventId,omitempty"` // For traceability
	StartedAt        time.Time `firestore:"startedAt,omitempty"`
	CompletedAt      time.Time `firestore:"completedAt,omitempty"`
}
