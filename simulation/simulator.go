/*
Package simulation runs one calculation across many policy variants.

PURPOSE:
  Answers "what if" questions: the same month of records is processed once
  per policy variant, and the results are compared against a baseline.
  Each variant is a set of dotted-key overrides applied to a base policy.

CONCURRENCY:
  Variants run on a bounded errgroup pool (default 4 workers). Every task
  builds its own Policy through Policy.With, so tasks share no mutable
  state. A failing task is recorded as an Outcome with Error set and never
  stops its siblings. Outcomes are collected in completion order and then
  sorted by variant name.

USAGE:
  sim := simulation.NewSimulator(policy, simulation.WithWorkers(8))
  report, err := sim.Run(ctx, simulation.Request{
      Input:    worktime.Request{Records: records, Period: "2025-05"},
      Variants: []simulation.Variant{
          {Name: "baseline"},
          {Name: "night-first", Overrides: map[string]any{
              "policies.work_classification.overlap_policy": "prioritize_night",
          }},
      },
  })

SEE ALSO:
  - compare.go: Baseline comparison
  - matrix.go: Variant generation from option categories
  - export.go: JSON and XLSX output
*/
package simulation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/seojaehong/hr-mvp-app/worktime"
)

// DefaultWorkers bounds the pool when no worker count is given.
const DefaultWorkers = 4

var (
	ErrNoVariants       = errors.New("no policy variants given")
	ErrDuplicateVariant = errors.New("duplicate variant name")
	ErrUnnamedVariant   = errors.New("variant name is required")
)

// =============================================================================
// TYPES
// =============================================================================

// Variant is a named set of dotted-key policy overrides.
type Variant struct {
	Name          string         `json:"name" yaml:"name"`
	Description   string         `json:"description,omitempty" yaml:"description"`
	Overrides     map[string]any `json:"overrides,omitempty" yaml:"overrides"`
	ConflictsWith []string       `json:"conflicts_with,omitempty" yaml:"conflicts_with"`

	parts []Variant
}

// Outcome is the result of one variant. Error is set only when the task
// itself failed; a calculation error is carried in Result.Error.
type Outcome struct {
	Variant   string           `json:"variant"`
	Overrides map[string]any   `json:"overrides,omitempty"`
	Result    *worktime.Result `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	Elapsed   time.Duration    `json:"elapsed_ns"`
}

// Failed reports whether the task or its calculation failed.
func (o Outcome) Failed() bool {
	return o.Error != "" || o.Result == nil || o.Result.Failed()
}

type Request struct {
	Input    worktime.Request
	Variants []Variant

	// Baseline names the variant the others are compared with. Empty means
	// the first variant given.
	Baseline string

	// Workers overrides the simulator's pool size when positive.
	Workers int
}

// Report is everything one simulation produced.
type Report struct {
	ID          uuid.UUID       `json:"id"`
	EmployeeID  string          `json:"employee_id"`
	Period      string          `json:"period"`
	Baseline    string          `json:"baseline"`
	CreatedAt   time.Time       `json:"created_at"`
	Outcomes    []Outcome       `json:"outcomes"`
	Comparisons []Comparison    `json:"comparisons"`
	Metrics     map[string]Stat `json:"metrics"`
}

// Outcome returns the outcome for a variant name.
func (r *Report) Outcome(name string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Variant == name {
			return o, true
		}
	}
	return Outcome{}, false
}

// =============================================================================
// SIMULATOR
// =============================================================================

type Simulator struct {
	base    *worktime.Policy
	workers int
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Simulator)

func WithWorkers(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock fixes the time source used for report and result timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSimulator creates a simulator over a base policy. A nil policy means
// the defaults.
func NewSimulator(base *worktime.Policy, opts ...Option) *Simulator {
	if base == nil {
		base = worktime.DefaultPolicy()
	}
	s := &Simulator{
		base:    base,
		workers: DefaultWorkers,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes the input once per variant and builds the report. It
// returns early only when ctx is done; tasks still running are abandoned.
func (s *Simulator) Run(ctx context.Context, req Request) (*Report, error) {
	if err := validateVariants(req.Variants); err != nil {
		return nil, err
	}
	baseline := req.Baseline
	if baseline == "" {
		baseline = req.Variants[0].Name
	} else if !hasVariant(req.Variants, baseline) {
		return nil, fmt.Errorf("baseline %q: %w", baseline, worktime.ErrNotFound)
	}

	workers := s.workers
	if req.Workers > 0 {
		workers = req.Workers
	}

	s.logger.Info("simulation started",
		"employee_id", req.Input.EmployeeID,
		"period", req.Input.Period,
		"variants", len(req.Variants),
		"workers", workers)

	var (
		mu       sync.Mutex
		outcomes = make([]Outcome, 0, len(req.Variants))
	)
	var g errgroup.Group
	g.SetLimit(workers)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, v := range req.Variants {
			v := v
			g.Go(func() error {
				out := s.runVariant(req.Input, v)
				mu.Lock()
				outcomes = append(outcomes, out)
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Variant < outcomes[j].Variant })

	report := &Report{
		ID:         uuid.New(),
		EmployeeID: req.Input.EmployeeID,
		Period:     req.Input.Period,
		Baseline:   baseline,
		CreatedAt:  s.now().UTC().Truncate(time.Second),
		Outcomes:   outcomes,
		Metrics:    Summarize(outcomes),
	}
	report.Comparisons = compareAll(report)

	failed := 0
	for _, o := range outcomes {
		if o.Failed() {
			failed++
		}
	}
	s.logger.Info("simulation finished", "id", report.ID, "variants", len(outcomes), "failed", failed)
	return report, nil
}

// runVariant never panics; a panic becomes the outcome's error.
func (s *Simulator) runVariant(input worktime.Request, v Variant) (out Outcome) {
	start := time.Now()
	out = Outcome{Variant: v.Name, Overrides: v.Overrides}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("variant panicked", "variant", v.Name, "panic", r)
			out.Result = nil
			out.Error = fmt.Sprintf("panic: %v", r)
		}
		out.Elapsed = time.Since(start)
	}()

	policy, err := s.base.With(v.Overrides)
	if err != nil {
		s.logger.Warn("variant rejected", "variant", v.Name, "error", err)
		out.Error = err.Error()
		return out
	}

	p := worktime.NewProcessor(policy,
		worktime.WithLogger(s.logger.With("variant", v.Name)),
		worktime.WithClock(s.now))
	result := p.Process(input)
	out.Result = &result
	return out
}

func validateVariants(variants []Variant) error {
	if len(variants) == 0 {
		return ErrNoVariants
	}
	seen := make(map[string]bool, len(variants))
	for i, v := range variants {
		if v.Name == "" {
			return fmt.Errorf("variant %d: %w", i, ErrUnnamedVariant)
		}
		if seen[v.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateVariant, v.Name)
		}
		seen[v.Name] = true
	}
	return nil
}

func hasVariant(variants []Variant, name string) bool {
	for _, v := range variants {
		if v.Name == name {
			return true
		}
	}
	return false
}

// IsClientError reports errors caused by a bad simulation request.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoVariants) ||
		errors.Is(err, ErrDuplicateVariant) ||
		errors.Is(err, ErrUnnamedVariant) ||
		worktime.IsNotFound(err)
}
