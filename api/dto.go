/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Calculation results
  and simulation reports are returned as the engine produces them; the
  types here wrap inputs and stored rows.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - worktime/types.go: Result envelope
*/
package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/seojaehong/hr-mvp-app/simulation"
	"github.com/seojaehong/hr-mvp-app/worktime"
)

// =============================================================================
// CALCULATION
// =============================================================================

// ProcessRequest is the body of POST /api/worktime/process.
//
// Settings are resolved in order: the server defaults, then the stored
// profile named by ProfileID, then the inline Settings tree.
type ProcessRequest struct {
	EmployeeID      string               `json:"employee_id"`
	Period          string               `json:"period"`
	Mode            string               `json:"mode,omitempty"`
	HireDate        string               `json:"hire_date,omitempty"`
	ResignationDate string               `json:"resignation_date,omitempty"`
	Records         []worktime.RawRecord `json:"records"`
	ProfileID       string               `json:"profile_id,omitempty"`
	Settings        map[string]any       `json:"settings,omitempty"`
}

// toWorktime converts the body into an engine request.
func (r ProcessRequest) toWorktime() (worktime.Request, error) {
	mode, ok := worktime.ParseMode(r.Mode)
	if !ok {
		return worktime.Request{}, fmt.Errorf("mode %q: %w", r.Mode, worktime.ErrInvalidRecord)
	}
	hire, err := optionalDate(r.HireDate)
	if err != nil {
		return worktime.Request{}, fmt.Errorf("hire_date: %w", err)
	}
	resign, err := optionalDate(r.ResignationDate)
	if err != nil {
		return worktime.Request{}, fmt.Errorf("resignation_date: %w", err)
	}
	return worktime.Request{
		Records:         r.Records,
		Period:          r.Period,
		EmployeeID:      r.EmployeeID,
		Mode:            mode,
		HireDate:        hire,
		ResignationDate: resign,
	}, nil
}

func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", s, worktime.ErrInvalidDate)
	}
	return &t, nil
}

// ProcessResponse pairs the stored run id with the result.
type ProcessResponse struct {
	RunID  string          `json:"run_id"`
	Result worktime.Result `json:"result"`
}

// RunDTO represents a stored calculation run.
type RunDTO struct {
	ID         string          `json:"id"`
	EmployeeID string          `json:"employee_id"`
	Period     string          `json:"period"`
	Mode       string          `json:"mode"`
	ErrorCode  string          `json:"error_code,omitempty"`
	ProfileID  string          `json:"profile_id,omitempty"`
	CreatedAt  string          `json:"created_at"`
	Result     json.RawMessage `json:"result,omitempty"`
}

// =============================================================================
// PROFILES
// =============================================================================

// ProfileRequest creates or replaces a settings profile. Body is a YAML or
// JSON settings document; Settings is accepted instead for JSON clients.
type ProfileRequest struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Format   string         `json:"format,omitempty"`
	Body     string         `json:"body,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
}

// ProfileDTO represents a stored settings profile.
type ProfileDTO struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Format    string         `json:"format"`
	Version   int            `json:"version"`
	Body      string         `json:"body,omitempty"`
	Settings  map[string]any `json:"settings,omitempty"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

// PresetDTO is a built-in settings document.
type PresetDTO struct {
	Name     string         `json:"name"`
	YAML     string         `json:"yaml,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// HolidayDTO represents a holiday calendar row. An empty profile id is a
// global holiday.
type HolidayDTO struct {
	ID        string `json:"id"`
	ProfileID string `json:"profile_id,omitempty"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateHolidayRequest adds one holiday.
type CreateHolidayRequest struct {
	ProfileID string `json:"profile_id,omitempty"`
	Date      string `json:"date"`
	Name      string `json:"name"`
}

// =============================================================================
// SIMULATIONS
// =============================================================================

// SimulationRequest is the body of POST /api/simulations. Matrix
// categories expand after the explicit variants.
type SimulationRequest struct {
	Input           ProcessRequest        `json:"input"`
	Variants        []simulation.Variant  `json:"variants,omitempty"`
	Matrix          []simulation.Category `json:"matrix,omitempty"`
	FilterConflicts bool                  `json:"filter_conflicts,omitempty"`
	Baseline        string                `json:"baseline,omitempty"`
	Workers         int                   `json:"workers,omitempty"`
}

// SimulationDTO lists a stored simulation without its report.
type SimulationDTO struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	Period       string `json:"period"`
	Baseline     string `json:"baseline"`
	VariantCount int    `json:"variant_count"`
	CreatedAt    string `json:"created_at"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a sample scenario for the UI.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Preset      string `json:"preset"`
	Period      string `json:"period"`
	EmployeeID  string `json:"employee_id"`
	RecordCount int    `json:"record_count"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
