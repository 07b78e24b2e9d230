package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crosscheck-hq/crosscheck/internal/core"
	"github.com/crosscheck-hq/crosscheck/internal/engine"
	"github.com/crosscheck-hq/crosscheck/internal/logging"
	"github.com/crosscheck-hq/crosscheck/internal/report"
	"github.com/crosscheck-hq/crosscheck/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus reports run limiter occupancy for monitoring.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}

// handleValidate accepts a multipart form with a "rules" file and a
// "data" file, runs the validation pipeline, and returns the run.
// An optional "keys" value names the duplicate-detection key columns.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.opts.MaxFileSize); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	ruleSheet, _, err := s.readUpload(r, "rules")
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, err.Error())
		return
	}
	data, dataName, err := s.readUpload(r, "data")
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, err.Error())
		return
	}

	logger := logging.WithFields(r.Context(), "dataset", dataName)
	logger.Info("validation requested", "bytes", len(data))

	run, err := s.service.Validate(r.Context(), core.ValidateRequest{
		DatasetName: dataName,
		RuleSheet:   ruleSheet,
		Data:        data,
		KeyFields:   splitList(r.FormValue("keys")),
	})
	if err != nil {
		writeError(r.Context(), w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// handleReconcile accepts a multipart form with "source" and "dest"
// files and compares them. Optional values: "keys" (comma-separated key
// columns) and "strict" (compare non-key fields too).
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.opts.MaxFileSize); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	source, sourceName, err := s.readUpload(r, "source")
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, err.Error())
		return
	}
	dest, destName, err := s.readUpload(r, "dest")
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, err.Error())
		return
	}

	strict := false
	if v := r.FormValue("strict"); v != "" {
		strict, err = strconv.ParseBool(v)
		if err != nil {
			writeError(r.Context(), w, http.StatusBadRequest, "invalid strict value: "+v)
			return
		}
	}

	logger := logging.WithFields(r.Context(), "source", sourceName, "destination", destName)
	logger.Info("reconciliation requested", "strict", strict)

	run, err := s.service.Reconcile(r.Context(), core.ReconcileRequest{
		SourceName:      sourceName,
		Source:          source,
		DestinationName: destName,
		Destination:     dest,
		KeyFields:       splitList(r.FormValue("keys")),
		Strict:          strict,
	})
	if err != nil {
		writeError(r.Context(), w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// handleListRuns returns recent run summaries, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(r.Context(), w, http.StatusBadRequest, "invalid limit: "+v)
			return
		}
		limit = n
	}

	runs, err := s.service.RecentRuns(r.Context(), limit)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "list runs: "+err.Error())
		return
	}
	if runs == nil {
		runs = []store.RunRecord{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// handleGetRun returns the full results of one run.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.runFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleRunReport streams a run's results as an xlsx workbook.
func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.runFromPath(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", run.Kind+"-"+run.ID.String()+".xlsx"))

	var err error
	switch {
	case run.Validation != nil:
		err = report.WriteValidation(w, run.Validation)
	case run.Reconciliation != nil:
		err = report.WriteReconciliation(w, run.Reconciliation)
	}
	if err != nil {
		// Headers are gone; all we can do is log.
		logging.FromContext(r.Context()).Error("render report", "run_id", run.ID, "error", err)
	}
}

// runFromPath resolves the runID path parameter, writing the error
// response itself when resolution fails.
func (s *Server) runFromPath(w http.ResponseWriter, r *http.Request) (*core.Run, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "invalid run ID")
		return nil, false
	}

	run, err := s.service.GetRun(id)
	if err != nil {
		writeError(r.Context(), w, http.StatusNotFound, "run not found")
		return nil, false
	}
	return run, true
}

// readUpload pulls one file out of the parsed multipart form, enforcing
// the size cap.
func (s *Server) readUpload(r *http.Request, field string) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("missing %q file", field)
	}
	defer file.Close()

	if header.Size > s.opts.MaxFileSize {
		return nil, "", fmt.Errorf("%q exceeds the maximum file size of %d bytes", field, s.opts.MaxFileSize)
	}

	data, err := io.ReadAll(io.LimitReader(file, s.opts.MaxFileSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read %q file: %w", field, err)
	}
	if int64(len(data)) > s.opts.MaxFileSize {
		return nil, "", fmt.Errorf("%q exceeds the maximum file size of %d bytes", field, s.opts.MaxFileSize)
	}
	return data, header.Filename, nil
}

// splitList parses a comma-separated form value into trimmed parts.
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// errorStatus maps service errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrTooManyRuns):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrNoRules), errors.Is(err, engine.ErrDatasetMissing):
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}
