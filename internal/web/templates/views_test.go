package templates

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/JonMunkholm/csvconvert/internal/core"
	"github.com/JonMunkholm/csvconvert/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRuns(n int) []history.Run {
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := make([]history.Run, n)
	for i := range runs {
		runs[i] = history.Run{
			Mapping:    "orders",
			SourceName: "in.csv",
			Status:     history.StatusSucceeded,
			Processed:  3,
			Saved:      3,
			StartedAt:  started,
			FinishedAt: started.Add(1500 * time.Millisecond),
		}
	}
	return runs
}

func TestRunsPage_Rows(t *testing.T) {
	runs := sampleRuns(2)
	runs[1].Status = history.StatusFailed
	runs[1].ErrorCode = "ROW001"
	runs[1].ErrorMessage = "bad <row>"

	var buf bytes.Buffer
	err := RunsPage(RunsView{
		Runs:     runs,
		Mappings: []*core.Definition{{Name: "orders"}, {Name: "contacts"}},
		Filter:   history.ListOptions{Mapping: "contacts"},
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	body := buf.String()
	assert.Contains(t, body, "<title>Conversion runs</title>")
	assert.Contains(t, body, `<option value="contacts" selected>`)
	assert.Contains(t, body, `<option value="orders">`)
	assert.Contains(t, body, `<td class="succeeded">succeeded</td>`)
	assert.Contains(t, body, `<td class="failed">failed</td>`)
	assert.Contains(t, body, "<td>2024-03-01 12:00:00</td>")
	assert.Contains(t, body, "<td>1.5s</td>")
	assert.Contains(t, body, "ROW001: bad &lt;row&gt;")
	assert.NotContains(t, body, "Older runs")
}

func TestRunsPage_OlderRunsLink(t *testing.T) {
	var buf bytes.Buffer
	err := RunsPage(RunsView{
		Runs:   sampleRuns(2),
		Filter: history.ListOptions{Mapping: "orders", Limit: 2, Offset: 4},
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `<a href="/runs?limit=2&amp;mapping=orders&amp;offset=6">Older runs</a>`)
}

func TestOlderRunsURL(t *testing.T) {
	v := RunsView{Runs: sampleRuns(history.DefaultListLimit)}
	href, ok := v.olderRunsURL()
	require.True(t, ok)
	assert.Contains(t, href, "offset=50")

	v.Runs = v.Runs[:1]
	_, ok = v.olderRunsURL()
	assert.False(t, ok)
}

func TestErrorPage(t *testing.T) {
	var buf bytes.Buffer
	msg := core.UserMessage{Message: "Too <many> runs", Action: "Retry later", Code: "RUN001"}
	require.NoError(t, ErrorPage(msg).Render(context.Background(), &buf))

	body := buf.String()
	assert.Contains(t, body, "<title>Error</title>")
	assert.Contains(t, body, "Too &lt;many&gt; runs")
	assert.Contains(t, body, "Reference: RUN001")
}
