package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crosscheck-hq/crosscheck/internal/engine"
	"github.com/crosscheck-hq/crosscheck/internal/rules"
	"github.com/crosscheck-hq/crosscheck/internal/store"
	"github.com/crosscheck-hq/crosscheck/internal/tabular"
)

// ErrRunNotFound is returned when a run ID is not in the registry.
var ErrRunNotFound = errors.New("run not found")

// Service runs validation and reconciliation pipelines and keeps their
// results addressable by run ID. Completed runs stay in memory for
// report rendering; summary rows additionally go to the history store
// when one is configured.
type Service struct {
	limiter    *RunLimiter
	history    *store.RunStore // nil means no persistence
	thresholds engine.Thresholds
	aliases    *rules.AliasTable
	maxRuns    int // in-memory registry cap

	mu    sync.RWMutex
	runs  map[uuid.UUID]*Run
	order []uuid.UUID // insertion order, oldest first
}

// ServiceOptions configures a Service. Zero values get defaults.
type ServiceOptions struct {
	Limiter    *RunLimiter
	History    *store.RunStore
	Thresholds engine.Thresholds
	Aliases    *rules.AliasTable
	MaxRuns    int
}

// NewService builds a Service. History may be nil, in which case runs
// live only in memory.
func NewService(opts ServiceOptions) *Service {
	limiter := opts.Limiter
	if limiter == nil {
		limiter = NewRunLimiter(DefaultMaxConcurrentRuns, DefaultMaxWaitTime)
	}
	maxRuns := opts.MaxRuns
	if maxRuns <= 0 {
		maxRuns = 100
	}
	return &Service{
		limiter:    limiter,
		history:    opts.History,
		thresholds: opts.Thresholds,
		aliases:    opts.Aliases,
		maxRuns:    maxRuns,
		runs:       make(map[uuid.UUID]*Run),
	}
}

// Run is one completed pipeline execution. Exactly one of Validation or
// Reconciliation is set, matching Kind.
type Run struct {
	ID             uuid.UUID             `json:"id"`
	Kind           string                `json:"kind"`
	CreatedAt      time.Time             `json:"created_at"`
	Validation     *ValidationReport     `json:"validation,omitempty"`
	Reconciliation *ReconciliationReport `json:"reconciliation,omitempty"`
}

// ValidationReport is the full outcome of one validation run.
type ValidationReport struct {
	DatasetName string                     `json:"dataset_name"`
	Headers     engine.HeaderMatch         `json:"headers"`
	TotalRows   int                        `json:"total_rows"`
	ErrorRows   int                        `json:"error_rows"`
	WarningRows int                        `json:"warning_rows"`
	TotalErrors int                        `json:"total_errors"`
	Status      string                     `json:"status"`
	Findings    []engine.ValidationOutcome `json:"findings"` // only rows with errors or warnings
	Duplicates  []engine.DuplicateEntry    `json:"duplicates"`
	Formatting  []engine.FormattingIssue   `json:"formatting"`
}

// ReconciliationReport is the full outcome of one reconciliation run.
type ReconciliationReport struct {
	SourceName      string                       `json:"source_name"`
	DestinationName string                       `json:"destination_name"`
	Strict          bool                         `json:"strict"`
	Result          *engine.ReconciliationResult `json:"result"`
}

// ValidateRequest carries the inputs of a validation run.
type ValidateRequest struct {
	DatasetName string
	RuleSheet   []byte
	Data        []byte
	KeyFields   []string // duplicate-detection key; empty means all columns
}

// Validate runs the full validation pipeline: load rules, parse the
// dataset, match headers, validate every row, detect duplicates, and
// detect formatting drift. The run is registered and its summary
// persisted before returning.
func (s *Service) Validate(ctx context.Context, req ValidateRequest) (*Run, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	fieldRules, err := rules.Load(req.RuleSheet, s.aliases)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	expected := make([]string, len(fieldRules))
	for i, r := range fieldRules {
		expected[i] = r.FieldName
	}

	ds, err := tabular.ParseDataset(req.DatasetName, req.Data)
	if err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	headers := engine.MatchHeaders(expected, ds.Columns)

	// Exports often carry preamble rows (titles, generation timestamps)
	// above the real header. When the first row matches none of the rule
	// fields, scan for the actual header row instead.
	if len(headers.Common) == 0 {
		if rescanned, err := tabular.ParseDatasetWithHeader(req.DatasetName, req.Data, expected); err == nil {
			ds = rescanned
			headers = engine.MatchHeaders(expected, ds.Columns)
			slog.Info("header row discovered below preamble", "dataset", ds.Name)
		}
	}

	report := &ValidationReport{
		DatasetName: ds.Name,
		Headers:     headers,
		TotalRows:   len(ds.Rows),
	}

	outcomes, err := engine.ValidateRecords(*ds, fieldRules)
	if err != nil {
		return nil, err
	}
	for _, o := range outcomes {
		if len(o.Errors) == 0 && len(o.Warnings) == 0 {
			continue
		}
		report.Findings = append(report.Findings, o)
		if len(o.Errors) > 0 {
			report.ErrorRows++
			report.TotalErrors += len(o.Errors)
		}
		if len(o.Warnings) > 0 {
			report.WarningRows++
		}
	}

	report.Duplicates = engine.DetectDuplicates(*ds, req.KeyFields)
	report.Formatting = engine.DetectFormattingIssues(*ds, fieldRules)
	report.Status = s.thresholds.Classify(report.TotalErrors + len(report.Duplicates))

	run := &Run{
		ID:         uuid.New(),
		Kind:       store.KindValidation,
		CreatedAt:  time.Now().UTC(),
		Validation: report,
	}
	s.register(run)
	s.persist(ctx, run)

	slog.Info("validation run complete",
		"run_id", run.ID,
		"dataset", report.DatasetName,
		"rows", report.TotalRows,
		"error_rows", report.ErrorRows,
		"duplicates", len(report.Duplicates),
		"status", report.Status,
	)
	return run, nil
}

// ReconcileRequest carries the inputs of a reconciliation run.
type ReconcileRequest struct {
	SourceName      string
	Source          []byte
	DestinationName string
	Destination     []byte
	KeyFields       []string
	Strict          bool
}

// Reconcile parses both datasets and compares them by composite key.
func (s *Service) Reconcile(ctx context.Context, req ReconcileRequest) (*Run, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	source, err := tabular.ParseDataset(req.SourceName, req.Source)
	if err != nil {
		return nil, fmt.Errorf("parse source: %w", err)
	}
	dest, err := tabular.ParseDataset(req.DestinationName, req.Destination)
	if err != nil {
		return nil, fmt.Errorf("parse destination: %w", err)
	}

	result, err := engine.Reconcile(source, dest, engine.ReconcileOptions{
		KeyFields:  req.KeyFields,
		Strict:     req.Strict,
		Thresholds: s.thresholds,
	})
	if err != nil {
		return nil, err
	}

	run := &Run{
		ID:        uuid.New(),
		Kind:      store.KindReconciliation,
		CreatedAt: time.Now().UTC(),
		Reconciliation: &ReconciliationReport{
			SourceName:      source.Name,
			DestinationName: dest.Name,
			Strict:          req.Strict,
			Result:          result,
		},
	}
	s.register(run)
	s.persist(ctx, run)

	slog.Info("reconciliation run complete",
		"run_id", run.ID,
		"source", source.Name,
		"destination", dest.Name,
		"missing", result.Summary.MissingCount,
		"extra", result.Summary.ExtraCount,
		"mismatches", result.Summary.MismatchCount,
		"status", result.Summary.Status,
	)
	return run, nil
}

// GetRun returns a registered run by ID.
func (s *Service) GetRun(id uuid.UUID) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// RecentRuns lists recent run summaries from history, newest first.
// Without a history store it falls back to the in-memory registry.
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]store.RunRecord, error) {
	if s.history != nil {
		return s.history.RecentRuns(ctx, limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.order) {
		limit = len(s.order)
	}
	out := make([]store.RunRecord, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, summarize(s.runs[s.order[i]]))
	}
	return out, nil
}

// LimiterStatus exposes the run limiter snapshot for monitoring.
func (s *Service) LimiterStatus() RunLimiterStatus {
	return s.limiter.Status()
}

// WaitForDrain blocks until in-flight runs finish. Used at shutdown.
func (s *Service) WaitForDrain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// register adds a run to the in-memory registry, evicting the oldest
// once the cap is reached.
func (s *Service) register(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	s.order = append(s.order, run.ID)
	for len(s.order) > s.maxRuns {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.runs, oldest)
	}
}

// persist writes the run summary to history. Persistence failures are
// logged, not returned: the run already succeeded and its results are
// servable from memory.
func (s *Service) persist(ctx context.Context, run *Run) {
	if s.history == nil {
		return
	}
	if err := s.history.InsertRun(ctx, summarize(run)); err != nil {
		slog.Error("persist run summary", "run_id", run.ID, "error", err)
	}
}

// summarize reduces a run to its history row.
func summarize(run *Run) store.RunRecord {
	rec := store.RunRecord{
		ID:        run.ID,
		Kind:      run.Kind,
		CreatedAt: run.CreatedAt,
	}

	switch {
	case run.Validation != nil:
		v := run.Validation
		rec.DatasetName = v.DatasetName
		rec.Status = v.Status
		rec.TotalRows = v.TotalRows
		rec.ErrorRows = v.ErrorRows
		rec.WarningRows = v.WarningRows
		rec.DuplicateRows = len(v.Duplicates)
		rec.FormattingRows = len(v.Formatting)

	case run.Reconciliation != nil:
		r := run.Reconciliation
		rec.DatasetName = r.SourceName + " vs " + r.DestinationName
		rec.Status = r.Result.Summary.Status
		rec.TotalRows = r.Result.Summary.SourceRecordCount
		rec.MissingRecords = r.Result.Summary.MissingCount
		rec.ExtraRecords = r.Result.Summary.ExtraCount
		rec.MismatchRecords = r.Result.Summary.MismatchCount
	}
	return rec
}
