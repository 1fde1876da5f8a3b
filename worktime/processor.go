/*
processor.go - Entry point: detect mode, calculate, assemble the Result

PURPOSE:
  Processor.Process is the only public way to run a calculation. It never
  panics and never returns a Go error: every failure becomes an in-band
  ErrorDetails on the Result with processing_mode "error".

FLOW:
  1. Reject an empty batch (EMPTY_INPUT)
  2. Resolve the mode: explicit, or detected from the first record
  3. Normalize records (INVALID_INPUT_FORMAT / INPUT_VALIDATION_ERROR)
  4. Drop records outside the employment window
  5. Run the mode's calculator
  6. Merge everything into one Result, stamped with the processor's clock

SEE ALSO:
  - detect.go: Mode detection and normalization
  - attendance.go, timecard.go: The two calculators
*/
package worktime

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Request is one calculation for one employee and one month.
type Request struct {
	Records         []RawRecord
	Period          string
	EmployeeID      string
	Mode            Mode
	HireDate        *time.Time
	ResignationDate *time.Time
}

type Processor struct {
	policy *Policy
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Processor)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock sets the clock used for Result.ProcessedAt.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

func NewProcessor(policy *Policy, opts ...Option) *Processor {
	if policy == nil {
		policy = DefaultPolicy()
	}
	p := &Processor{policy: policy, logger: discardLogger, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) Policy() *Policy { return p.policy }

// Process runs one calculation.
func (p *Processor) Process(req Request) (result Result) {
	a := &assembly{req: req, trace: p.policy.Trace()}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("processing failed", "employee_id", req.EmployeeID, "period", req.Period, "panic", r)
			a.fail(newCalcError(CodeProcessing, "error during processing", fmt.Errorf("%v", r)))
			result = a.build(p.now())
		}
	}()

	p.run(a)
	return a.build(p.now())
}

func (p *Processor) run(a *assembly) {
	req := a.req
	if len(req.Records) == 0 {
		a.fail(newCalcError(CodeEmptyInput, "input data is empty", nil))
		return
	}

	mode := req.Mode
	if mode == "" {
		mode = DetectMode(req.Records)
	}
	a.mode = mode
	p.logger.Info("processing started", "employee_id", req.EmployeeID, "period", req.Period, "mode", string(mode), "records", len(req.Records))

	employment, err := employmentOf(req)
	if err != nil {
		a.fail(newCalcError(CodeInputValidation, "invalid employment dates", err))
		return
	}

	switch mode {
	case ModeAttendance:
		records, warns, err := NormalizeAttendance(req.Records, p.policy)
		a.warnings = append(a.warnings, warns...)
		if err != nil {
			a.fail(normalizeError(err))
			return
		}
		records = filterEmployment(records, employment, p.policy, func(r AttendanceRecord) Date { return r.Date }, a)
		out := NewAttendanceCalculator(p.policy, p.logger).Calculate(records, req.Period)
		a.warnings = append(a.warnings, out.Warnings...)
		a.attendance = out.Summary
		a.salary = out.SalaryBasis
		if out.Err != nil {
			a.fail(out.Err)
		}

	case ModeTimecard:
		records, warns, err := NormalizeTimecard(req.Records, p.policy)
		a.warnings = append(a.warnings, warns...)
		if err != nil {
			a.fail(normalizeError(err))
			return
		}
		records = filterEmployment(records, employment, p.policy, func(r TimeRecord) Date { return r.Date }, a)
		out := NewTimecardCalculator(p.policy, p.logger).Calculate(records, req.Period)
		a.warnings = append(a.warnings, out.Warnings...)
		a.timeSummary = out.Summary
		a.salary = out.SalaryBasis
		a.details = out.Details
		a.alerts = out.Alerts
		if out.Err != nil {
			a.fail(out.Err)
		}

	default:
		a.fail(newCalcError(CodeUnknownProcessingMode, fmt.Sprintf("unknown processing mode: %s", mode), nil))
	}
}

func normalizeError(err error) *CalculationError {
	if errors.Is(err, ErrMixedRecords) {
		return newCalcError(CodeInvalidInputFormat, "records do not share one input format", err)
	}
	return newCalcError(CodeInputValidation, "failed to validate input data", err)
}

func employmentOf(req Request) (Employment, error) {
	var e Employment
	if req.HireDate != nil {
		d := DateOf(*req.HireDate)
		e.HireDate = &d
	}
	if req.ResignationDate != nil {
		d := DateOf(*req.ResignationDate)
		e.ResignationDate = &d
	}
	if e.HireDate != nil && e.ResignationDate != nil && e.ResignationDate.Before(*e.HireDate) {
		return e, fmt.Errorf("%w: resignation %s before hire %s", ErrInvalidDate, e.ResignationDate, e.HireDate)
	}
	return e, nil
}

func filterEmployment[T any](records []T, e Employment, policy *Policy, dateOf func(T) Date, a *assembly) []T {
	if !e.bounded() {
		return records
	}
	kept := records[:0:0]
	dropped := 0
	for _, r := range records {
		if e.Allows(dateOf(r), policy) {
			kept = append(kept, r)
		} else {
			dropped++
		}
	}
	if dropped > 0 {
		w := &warnings{policy: policy}
		w.issue("%d records outside the employment window ignored", dropped)
		a.warnings = append(a.warnings, w.list...)
	}
	return kept
}

// =============================================================================
// RESULT ASSEMBLY
// =============================================================================

// assembly gathers the pieces of a Result. Calculators never touch it.
type assembly struct {
	req         Request
	mode        Mode
	attendance  *AttendanceSummary
	timeSummary *TimeSummary
	salary      *SalaryBasis
	details     []WorkDayDetail
	warnings    []string
	alerts      []ComplianceAlert
	err         *ErrorDetails
	trace       []TraceEntry
}

func (a *assembly) fail(err *CalculationError) {
	if a.err == nil {
		a.err = err.ErrorDetails()
	}
}

func (a *assembly) build(now time.Time) Result {
	mode := a.mode
	if mode == "" {
		mode = ModeUnknown
	}
	if a.err != nil {
		mode = ModeError
	}
	warnings := a.warnings
	if warnings == nil {
		warnings = []string{}
	}
	alerts := a.alerts
	if alerts == nil {
		alerts = []ComplianceAlert{}
	}
	return Result{
		EmployeeID:        a.req.EmployeeID,
		Period:            a.req.Period,
		ProcessingMode:    mode,
		AttendanceSummary: a.attendance,
		TimeSummary:       a.timeSummary,
		SalaryBasis:       a.salary,
		DailyDetails:      a.details,
		Warnings:          warnings,
		ComplianceAlerts:  alerts,
		Error:             a.err,
		PolicyTrace:       a.trace,
		ProcessedAt:       now.UTC().Truncate(time.Second),
	}
}
