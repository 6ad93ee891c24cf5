package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JonMunkholm/csvconvert/internal/core"
	"github.com/JonMunkholm/csvconvert/internal/csv"
	"github.com/JonMunkholm/csvconvert/internal/history"
	"github.com/JonMunkholm/csvconvert/internal/logging"
	"github.com/JonMunkholm/csvconvert/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// Response headers set on conversions.
const (
	headerRunID       = "X-Run-ID"
	headerRowsSaved   = "X-Rows-Saved"
	headerRowsSkipped = "X-Rows-Skipped"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 32 << 20

// MappingResponse describes a registered mapping.
type MappingResponse struct {
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Fields         []string       `json:"fields"`
	SourceHeader   bool           `json:"sourceHeader"`
	TargetHeader   bool           `json:"targetHeader"`
	ExpectedHeader []string       `json:"expectedHeader,omitempty"`
	SourceFormat   FormatResponse `json:"sourceFormat"`
	TargetFormat   FormatResponse `json:"targetFormat"`
}

// FormatResponse describes a dialect.
type FormatResponse struct {
	Delimiter  string `json:"delimiter"`
	Quote      string `json:"quote"`
	Escape     string `json:"escape"`
	ForceQuote bool   `json:"forceQuote"`
}

// RunListResponse is a page of run history.
type RunListResponse struct {
	Runs   []history.Run `json:"runs"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

func toMappingResponse(def *core.Definition) MappingResponse {
	return MappingResponse{
		Name:           def.Name,
		Description:    def.Description,
		Fields:         def.Mapping.Fields(),
		SourceHeader:   def.SourceHasHeader,
		TargetHeader:   def.TargetHasHeader,
		ExpectedHeader: def.ExpectedHeader,
		SourceFormat:   toFormatResponse(def.Source),
		TargetFormat:   toFormatResponse(def.Target),
	}
}

func toFormatResponse(d csv.Dialect) FormatResponse {
	return FormatResponse{
		Delimiter:  string(d.Delimiter),
		Quote:      string(d.Quote),
		Escape:     string(d.Escape),
		ForceQuote: d.ForceQuote,
	}
}

// handleHealth reports liveness and run slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":   "ok",
		"runs":     s.service.Limiter().Status(),
		"mappings": len(s.service.Definitions()),
	})
}

// handleListMappings returns every registered mapping.
func (s *Server) handleListMappings(w http.ResponseWriter, r *http.Request) {
	defs := s.service.Definitions()
	resp := make([]MappingResponse, len(defs))
	for i, def := range defs {
		resp[i] = toMappingResponse(def)
	}
	writeJSON(w, resp)
}

// handleConvert converts the uploaded "file" form field with the mapping
// named in the URL and returns the converted file.
//
// The output is written to a temp file first so that a failure halfway
// through still produces a proper error response instead of a truncated
// download.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "mapping")
	if _, err := s.service.Definition(name); err != nil {
		s.respondError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Convert.MaxFileSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.respondError(w, r, err)
			return
		}
		s.respondErrorStatus(w, r, fmt.Errorf("invalid form: %w", err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondErrorStatus(w, r, fmt.Errorf("no file provided: %w", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	out, err := os.CreateTemp("", "csvconvert-*.csv")
	if err != nil {
		s.respondErrorStatus(w, r, fmt.Errorf("create output file: %w", err), http.StatusInternalServerError)
		return
	}
	defer func() {
		out.Close()
		os.Remove(out.Name())
	}()

	targetName := outputName(header.Filename, name)

	ctx := WithRequestMetadata(r.Context(), r)
	res, err := s.service.Convert(ctx, core.ConvertRequest{
		Mapping:    name,
		Source:     file,
		Target:     out,
		SourceName: header.Filename,
		TargetName: targetName,
		SourceSize: header.Size,
	})
	if res != nil {
		w.Header().Set(headerRunID, res.RunID.String())
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if _, err := out.Seek(0, io.SeekStart); err != nil {
		s.respondErrorStatus(w, r, fmt.Errorf("rewind output file: %w", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, targetName))
	w.Header().Set(headerRowsSaved, strconv.Itoa(res.Counters.Saved))
	w.Header().Set(headerRowsSkipped, strconv.Itoa(res.Counters.Skipped))

	if _, err := io.Copy(w, out); err != nil {
		logging.FromContext(r.Context()).Warn("failed to send converted file",
			"run_id", res.RunID,
			"error", err,
		)
	}
}

// outputName derives the download name, e.g. "march.csv" with mapping
// "orders" becomes "march_orders.csv".
func outputName(sourceName, mapping string) string {
	base := filepath.Base(sourceName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "converted"
	}
	return base + "_" + mapping + ".csv"
}

// handleListRuns returns run history, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	opts := listOptions(r)
	runs, err := s.service.Runs(r.Context(), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, RunListResponse{Runs: runs, Limit: opts.Limit, Offset: opts.Offset})
}

// handleGetRun returns one run.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.Run(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, run)
}

// handleRunsPage renders run history as HTML.
func (s *Server) handleRunsPage(w http.ResponseWriter, r *http.Request) {
	opts := listOptions(r)
	runs, err := s.service.Runs(r.Context(), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render(w, r, http.StatusOK, templates.RunsPage(templates.RunsView{
		Runs:     runs,
		Mappings: s.service.Definitions(),
		Filter:   opts,
	}))
}

func listOptions(r *http.Request) history.ListOptions {
	q := r.URL.Query()
	return history.ListOptions{
		Mapping: q.Get("mapping"),
		Status:  history.Status(q.Get("status")),
		Limit:   parseIntParam(r, "limit", history.DefaultListLimit, 1),
		Offset:  parseIntParam(r, "offset", 0, 0),
	}
}

// parseIntParam parses an integer query parameter, falling back to
// defaultVal when it is missing, malformed or below minVal.
func parseIntParam(r *http.Request, name string, defaultVal, minVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < minVal {
		return defaultVal
	}
	return i
}
