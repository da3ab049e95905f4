package models

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

// These structs define the JSON payloads exchanged with the index side of
// the system: the job it submits and the flat result it reads back.

// FilingJob is the input for one processing invocation. It arrives either
// as an HTTP request body or as the data payload of a CloudEvent.
type FilingJob struct {
	FilingID                 string   `json:"filingId"`
	CompanyNumber            string   `json:"companyNumber"`
	RegistryCode             string   `json:"registryCode"`
	DocumentLocation         string   `json:"documentLocation"`
	TaxonomyPackageLocations []string `json:"taxonomyPackageLocations,omitempty"`
}

// Validate checks the fields every downstream stage depends on.
func (j FilingJob) Validate() error {
	if strings.TrimSpace(j.FilingID) == "" {
		return fmt.Errorf("filingId must be set")
	}
	if strings.TrimSpace(j.DocumentLocation) == "" {
		return fmt.Errorf("documentLocation must be set")
	}
	return nil
}

// ViewerResponse is the externally visible projection of a WorkerResult.
// The key set is fixed; optional fields are omitted entirely when absent,
// never serialized as null. DocumentDate renders as YYYY-MM-DD.
type ViewerResponse struct {
	CompanyName      *string     `json:"CompanyName,omitempty"`
	CompanyNumber    *string     `json:"CompanyNumber,omitempty"`
	Error            *string     `json:"Error,omitempty"`
	FilingID         string      `json:"FilingId"`
	Logs             string      `json:"Logs"`
	Success          bool        `json:"Success"`
	ViewerEntrypoint *string     `json:"ViewerEntrypoint,omitempty"`
	DocumentDate     *civil.Date `json:"DocumentDate,omitempty"`
}

// NewViewerResponse collapses the internal result into the external shape.
// This is the only place the optional-to-omitted translation happens.
func NewViewerResponse(res WorkerResult) ViewerResponse {
	return ViewerResponse{
		CompanyName:      res.CompanyName,
		CompanyNumber:    res.CompanyNumber,
		Error:            res.Error,
		FilingID:         res.FilingID,
		Logs:             res.Logs,
		Success:          res.Success,
		ViewerEntrypoint: res.ViewerEntrypoint,
		DocumentDate:     res.DocumentDate,
	}
}
