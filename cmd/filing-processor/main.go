package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/filingviewerflow/internal/models"
	"github.com/Lllllllleong/filingviewerflow/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	processorInstance *services.FilingEventFunction
	once              sync.Once
	initErr           error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Register the CloudEvent function. The framework will handle routing the event here.
	functions.CloudEvent("ProcessFilingEvent", processFilingEvent)
}

// main is required by the Go Functions Framework.
func main() {}

// processFilingEvent handles one queued filing job. Returning an error makes
// the platform redeliver the event, so only boundary failures (init, bad
// payload, record/trigger errors) propagate; filing-level failures are
// recorded by the service and absorbed here.
func processFilingEvent(ctx context.Context, e cloudevents.Event) error {
	// Use sync.Once for robust, one-time initialization of clients.
	once.Do(func() {
		processorInstance, initErr = services.NewFilingEventProcessor(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical: filing event processor initialization failed", "error", initErr)
		return fmt.Errorf("failed to initialize service: %w", initErr)
	}

	var job models.FilingJob
	if err := json.Unmarshal(e.Data(), &job); err != nil {
		slog.Error("Could not unmarshal event data", "error", err, "eventId", e.ID())
		return fmt.Errorf("failed to unmarshal event data: %w", err)
	}
	if err := job.Validate(); err != nil {
		slog.Error("Rejected invalid filing job", "error", err, "eventId", e.ID())
		return fmt.Errorf("invalid filing job: %w", err)
	}

	return processorInstance.Process(ctx, job, e.ID())
}
