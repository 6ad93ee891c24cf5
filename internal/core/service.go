package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/csvconvert/internal/csv"
	"github.com/JonMunkholm/csvconvert/internal/history"
	"github.com/JonMunkholm/csvconvert/internal/logging"
	"github.com/google/uuid"
)

// ContextCheckInterval is how many rows pass between context cancellation
// checks during a run.
const ContextCheckInterval = 1000

// ProgressLogInterval is how many rows pass between debug progress entries.
const ProgressLogInterval = 10000

// DefaultRunTimeout bounds a single conversion.
const DefaultRunTimeout = 10 * time.Minute

// RecordTimeout bounds writing a run to the history store.
const RecordTimeout = 5 * time.Second

// ServiceConfig holds the Service limits. Zero values use the defaults.
type ServiceConfig struct {
	MaxConcurrentRuns int
	MaxWaitTime       time.Duration
	RunTimeout        time.Duration
}

// Service runs conversions for registered definitions and records every run
// in a history store.
type Service struct {
	store      history.Store
	limiter    *RunLimiter
	runTimeout time.Duration
	now        func() time.Time

	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewService creates a Service. A nil store keeps history in memory.
func NewService(store history.Store, cfg ServiceConfig) *Service {
	if store == nil {
		store = history.NewMemoryStore(0)
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = DefaultRunTimeout
	}
	return &Service{
		store:      store,
		limiter:    NewRunLimiter(cfg.MaxConcurrentRuns, cfg.MaxWaitTime),
		runTimeout: cfg.RunTimeout,
		now:        time.Now,
		defs:       make(map[string]*Definition),
	}
}

// Register validates def and makes it available under def.Name.
func (s *Service) Register(def *Definition) error {
	if def == nil {
		return fmt.Errorf("%w: nil definition", ErrConfiguration)
	}
	if err := def.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.defs[def.Name]; exists {
		return fmt.Errorf("%w: mapping %q registered twice", ErrConfiguration, def.Name)
	}
	s.defs[def.Name] = def
	return nil
}

// Definition returns the definition registered under name.
func (s *Service) Definition(name string) (*Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDefinition, name)
	}
	return def, nil
}

// Definitions returns all registered definitions sorted by name.
func (s *Service) Definitions() []*Definition {
	s.mu.RLock()
	defs := make([]*Definition, 0, len(s.defs))
	for _, def := range s.defs {
		defs = append(defs, def)
	}
	s.mu.RUnlock()

	slices.SortFunc(defs, func(a, b *Definition) int { return strings.Compare(a.Name, b.Name) })
	return defs
}

// Limiter exposes the run limiter for status reporting and shutdown.
func (s *Service) Limiter() *RunLimiter { return s.limiter }

// Hooks are optional caller hooks chained after the service's own.
type Hooks struct {
	BeforeRow    BeforeRowFunc
	RowConverted AfterRowFunc
	Completed    CompletedFunc
}

// ConvertRequest describes one conversion.
type ConvertRequest struct {
	Mapping    string // registered definition name
	Source     io.Reader
	Target     io.Writer
	SourceName string
	TargetName string
	SourceSize int64 // bytes, 0 if unknown
	Hooks      Hooks
}

// RunResult summarizes a run.
type RunResult struct {
	RunID      uuid.UUID
	Mapping    string
	Counters   RunCounters
	BytesRead  int64
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the run took.
func (r *RunResult) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Convert runs the named definition from req.Source to req.Target.
//
// The result is nil only when the run never started (unknown mapping, bad
// request, or no free run slot). Otherwise it is returned together with any
// run error, and the run is recorded in history either way. A history write
// failure is logged, not returned.
func (s *Service) Convert(ctx context.Context, req ConvertRequest) (*RunResult, error) {
	def, err := s.Definition(req.Mapping)
	if err != nil {
		return nil, err
	}
	if req.Source == nil || req.Target == nil {
		return nil, fmt.Errorf("%w: source and target are required", ErrConfiguration)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	res := &RunResult{
		RunID:     uuid.New(),
		Mapping:   def.Name,
		StartedAt: s.now(),
	}
	logger := logging.WithFields(ctx,
		"run_id", res.RunID,
		"mapping", def.Name,
		"source", req.SourceName,
	)

	opts := []csv.ReaderOption{csv.WithSize(req.SourceSize)}
	if def.Sanitize {
		opts = append(opts, csv.WithSanitize())
	}
	src := csv.NewReader(req.Source, def.Source, opts...)
	dst := csv.NewWriter(req.Target, def.Target)

	logger.Info("conversion started", "size", req.SourceSize)

	conv, err := def.NewConverter()
	if err == nil {
		err = s.installHooks(ctx, conv, src, logger, req.Hooks)
	}
	if err == nil {
		err = conv.Convert(src, dst)
	}

	if conv != nil {
		res.Counters = conv.Counters()
	}
	res.BytesRead = src.BytesRead()
	res.FinishedAt = s.now()

	s.record(ctx, req, res, err, logger)

	if err != nil {
		logger.Warn("conversion failed",
			"error", err,
			"rows_processed", res.Counters.Processed,
			"rows_saved", res.Counters.Saved,
		)
		return res, err
	}

	logger.Info("conversion completed",
		"rows_processed", res.Counters.Processed,
		"rows_saved", res.Counters.Saved,
		"rows_skipped", res.Counters.Skipped,
		"bytes", res.BytesRead,
		"duration", res.Duration(),
	)
	return res, nil
}

// installHooks puts the cancellation check and progress logging in front of
// the caller's before-row hook and passes the other hooks through.
func (s *Service) installHooks(ctx context.Context, conv *Converter, src *csv.Reader, logger *slog.Logger, h Hooks) error {
	before := h.BeforeRow
	err := conv.OnBeforeRow(func(processed int, row []string) (bool, error) {
		if processed%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return false, err
			}
		}
		if processed%ProgressLogInterval == 0 {
			logger.Debug("conversion progress",
				"rows_processed", processed,
				"bytes", src.BytesRead(),
				"percent", src.Progress(),
			)
		}
		if before != nil {
			return before(processed, row)
		}
		return true, nil
	})
	if err != nil {
		return err
	}

	if h.RowConverted != nil {
		if err := conv.OnRowConverted(h.RowConverted); err != nil {
			return err
		}
	}
	if h.Completed != nil {
		if err := conv.OnCompleted(h.Completed); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) record(ctx context.Context, req ConvertRequest, res *RunResult, runErr error, logger *slog.Logger) {
	run := history.Run{
		ID:         res.RunID,
		Mapping:    res.Mapping,
		SourceName: req.SourceName,
		TargetName: req.TargetName,
		Status:     history.StatusSucceeded,
		Processed:  res.Counters.Processed,
		Saved:      res.Counters.Saved,
		Skipped:    res.Counters.Skipped,
		BytesRead:  res.BytesRead,
		IPAddress:  IPAddressFromContext(ctx),
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}
	if runErr != nil {
		run.Status = history.StatusFailed
		run.ErrorCode = MapError(runErr).Code
		run.ErrorMessage = runErr.Error()
	}

	// The run's own context may already be cancelled; history still gets written.
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RecordTimeout)
	defer cancel()

	if err := s.store.Record(recCtx, run); err != nil {
		logger.Error("failed to record run", "error", err)
	}
}

// Runs lists recorded runs, newest first.
func (s *Service) Runs(ctx context.Context, opts history.ListOptions) ([]history.Run, error) {
	return s.store.List(ctx, opts)
}

// Run returns one recorded run by id.
func (s *Service) Run(ctx context.Context, id string) (history.Run, error) {
	runID, err := uuid.Parse(id)
	if err != nil {
		return history.Run{}, fmt.Errorf("%w: %q", ErrRunNotFound, id)
	}

	run, err := s.store.Get(ctx, runID)
	if errors.Is(err, history.ErrNotFound) {
		return history.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Shutdown waits for in-flight runs to finish or ctx to end.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
