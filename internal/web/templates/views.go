package templates

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.960 generate

import (
	"net/url"
	"strconv"
	"time"

	"github.com/JonMunkholm/csvconvert/internal/core"
	"github.com/JonMunkholm/csvconvert/internal/history"
)

const timeLayout = "2006-01-02 15:04:05"

// RunsView is the data behind the run history page.
type RunsView struct {
	Runs     []history.Run
	Mappings []*core.Definition
	Filter   history.ListOptions
}

// olderRunsURL links the next page when the current one is full.
func (v RunsView) olderRunsURL() (string, bool) {
	limit := v.Filter.Limit
	if limit <= 0 {
		limit = history.DefaultListLimit
	}
	if len(v.Runs) < limit {
		return "", false
	}

	q := url.Values{}
	if v.Filter.Mapping != "" {
		q.Set("mapping", v.Filter.Mapping)
	}
	if v.Filter.Status != "" {
		q.Set("status", string(v.Filter.Status))
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(v.Filter.Offset+limit))
	return "/runs?" + q.Encode(), true
}

func elapsed(run history.Run) string {
	return run.Elapsed().Round(time.Millisecond).String()
}

func runError(run history.Run) string {
	if run.ErrorCode == "" {
		return ""
	}
	return run.ErrorCode + ": " + run.ErrorMessage
}
