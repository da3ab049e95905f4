package results

import (
	"strings"
	"testing"
	"unicode/utf8"

	"cloud.google.com/go/civil"
	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/filingviewerflow/internal/models"
)

func updateValue(t *testing.T, updates []firestore.Update, path string) interface{} {
	t.Helper()
	for _, u := range updates {
		if u.Path == path {
			return u.Value
		}
	}
	return nil
}

func hasUpdate(updates []firestore.Update, path string) bool {
	for _, u := range updates {
		if u.Path == path {
			return true
		}
	}
	return false
}

func TestUpdatesForSuccess(t *testing.T) {
	name := "Acme Ltd"
	number := "01234567"
	entrypoint := "ixbrlviewer.html"
	date := civil.Date{Year: 2023, Month: 12, Day: 31}
	res := models.WorkerResult{
		Success:          true,
		Logs:             "[info] rendered",
		CompanyName:      &name,
		CompanyNumber:    &number,
		DocumentDate:     &date,
		FilingID:         "filing-123",
		ViewerEntrypoint: &entrypoint,
	}

	updates := updatesFor(res)

	require.Equal(t, models.StatusRendered, updateValue(t, updates, "status"))
	require.Equal(t, "[info] rendered", updateValue(t, updates, "logs"))
	require.Equal(t, "Acme Ltd", updateValue(t, updates, "companyName"))
	require.Equal(t, "2023-12-31", updateValue(t, updates, "documentDate"))
	require.Equal(t, "ixbrlviewer.html", updateValue(t, updates, "viewerEntrypoint"))
	require.True(t, hasUpdate(updates, "completedAt"))
	require.False(t, hasUpdate(updates, "errorDetails"))
}

func TestUpdatesForFailureSkipsAbsentFacts(t *testing.T) {
	res := models.FailedResult("filing-123", "Viewer generation failed within Arelle. Check the logs for details.", "[error] boom")

	updates := updatesFor(res)

	require.Equal(t, models.StatusFailed, updateValue(t, updates, "status"))
	require.Equal(t, "Viewer generation failed within Arelle. Check the logs for details.", updateValue(t, updates, "errorDetails"))
	require.False(t, hasUpdate(updates, "companyName"))
	require.False(t, hasUpdate(updates, "documentDate"))
	require.False(t, hasUpdate(updates, "viewerEntrypoint"))
}

func TestIndexPayloadShape(t *testing.T) {
	entrypoint := "ixbrlviewer.html"
	payload := indexPayload(models.WorkerResult{
		Success:          true,
		FilingID:         "filing-123",
		ViewerEntrypoint: &entrypoint,
	})
	require.Equal(t, map[string]interface{}{
		"filingId":         "filing-123",
		"success":          true,
		"viewerEntrypoint": "ixbrlviewer.html",
	}, payload)

	payload = indexPayload(models.FailedResult("filing-456", "boom", ""))
	require.Equal(t, map[string]interface{}{
		"filingId": "filing-456",
		"success":  false,
	}, payload)
}

func TestTruncateLogsKeepsTail(t *testing.T) {
	require.Equal(t, "short", truncateLogs("short"))

	long := strings.Repeat("x", maxLogBytes) + "the end"
	got := truncateLogs(long)
	require.LessOrEqual(t, len(got), maxLogBytes+len("(truncated)\n"))
	require.True(t, strings.HasPrefix(got, "(truncated)\n"))
	require.True(t, strings.HasSuffix(got, "the end"))
}

func TestTruncateLogsStaysValidUTF8(t *testing.T) {
	// One leading ASCII byte shifts the cut point into the middle of a
	// three-byte euro sign.
	long := "x" + strings.Repeat("€", maxLogBytes/3+1)
	got := truncateLogs(long)

	require.True(t, utf8.ValidString(got))
	require.True(t, strings.HasPrefix(got, "(truncated)\n"))
	require.True(t, strings.HasSuffix(got, "€"))
}
