/*
handlers.go - HTTP API handlers for the work-time engine

PURPOSE:
  Exposes the calculation engine and the policy simulator via REST API.
  Handles HTTP request/response, JSON serialization, settings resolution
  and run persistence, and delegates to the worktime and simulation
  packages.

ENDPOINTS:
  Calculation:
    POST   /api/worktime/process       Calculate one employee month
    GET    /api/worktime/runs          List stored runs (?employee_id=&limit=)
    GET    /api/worktime/runs/{id}     Get a stored run with its result

  Profiles:
    GET    /api/profiles               List settings profiles
    POST   /api/profiles               Create or replace a profile
    GET    /api/profiles/{id}          Get a profile (id or name)
    DELETE /api/profiles/{id}          Delete a profile and its holidays
    GET    /api/presets                List built-in presets
    GET    /api/presets/{name}         Get a built-in preset

  Holidays:
    GET    /api/holidays               List holidays (?profile_id=)
    POST   /api/holidays               Add a holiday
    POST   /api/holidays/defaults      Add the 2025 public holidays
    DELETE /api/holidays/{id}          Delete a holiday

  Simulations:
    POST   /api/simulations            Run variants and store the report
    GET    /api/simulations            List stored simulations
    GET    /api/simulations/{id}       Get a stored report
    GET    /api/simulations/{id}/export.xlsx  Download a report workbook

SETTINGS RESOLUTION:
  server defaults -> stored profile -> inline settings -> holiday rows
  (global rows plus rows of the chosen profile).

ERROR HANDLING:
  Calculation failures are part of the result envelope and return 200.
  Request errors are returned as JSON with an HTTP status:
  - 400: Validation errors, invalid input, invalid strict settings
  - 404: Run, profile, preset, holiday or simulation not found
  - 409: Duplicate profile name
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Sample scenario handlers
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/seojaehong/hr-mvp-app/factory"
	"github.com/seojaehong/hr-mvp-app/simulation"
	"github.com/seojaehong/hr-mvp-app/store/sqlite"
	"github.com/seojaehong/hr-mvp-app/worktime"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Settings *factory.SettingsFactory

	// Defaults is the settings tree every request starts from.
	Defaults worktime.Settings
	Workers  int
	Logger   *slog.Logger

	now func() time.Time
}

type Option func(*Handler)

// WithDefaults sets the base settings tree.
func WithDefaults(settings worktime.Settings) Option {
	return func(h *Handler) { h.Defaults = settings }
}

// WithWorkers sets the default simulation pool size.
func WithWorkers(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.Workers = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.Logger = logger
		}
	}
}

// WithClock sets the clock used for results and reports.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, opts ...Option) *Handler {
	h := &Handler{
		Store:    store,
		Settings: factory.NewSettingsFactory(),
		Defaults: worktime.Settings{},
		Workers:  simulation.DefaultWorkers,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// resolveSettings builds the settings tree for one request and returns the
// resolved profile id.
func (h *Handler) resolveSettings(ctx context.Context, profileID string, inline map[string]any) (worktime.Settings, string, error) {
	settings := factory.Merge(h.Defaults, nil)

	if profileID != "" {
		rec, err := h.Store.GetProfile(ctx, profileID)
		if err != nil {
			return nil, "", fmt.Errorf("profile %q: %w", profileID, err)
		}
		profile, err := h.Settings.ParseSettings([]byte(rec.Body), factory.ParseFormat(rec.Format))
		if err != nil {
			return nil, "", fmt.Errorf("profile %q: %w", rec.Name, err)
		}
		settings = factory.Merge(settings, profile)
		profileID = rec.ID
	}
	settings = factory.Merge(settings, inline)

	rows, err := h.Store.HolidaysFor(ctx, profileID)
	if err != nil {
		return nil, "", err
	}
	holidays := make([]factory.Holiday, len(rows))
	for i, row := range rows {
		holidays[i] = factory.Holiday{Date: row.Date, Name: row.Name}
	}
	return factory.WithHolidays(settings, holidays), profileID, nil
}

func (h *Handler) processor(policy *worktime.Policy) *worktime.Processor {
	return worktime.NewProcessor(policy,
		worktime.WithLogger(h.Logger),
		worktime.WithClock(h.now))
}

// saveRun stores a result and returns the new run id.
func (h *Handler) saveRun(ctx context.Context, result worktime.Result, profileID string) (string, error) {
	body, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	run := sqlite.CalculationRun{
		ID:         uuid.NewString(),
		EmployeeID: result.EmployeeID,
		Period:     result.Period,
		Mode:       string(result.ProcessingMode),
		ProfileID:  profileID,
		ResultJSON: string(body),
		CreatedAt:  result.ProcessedAt,
	}
	if result.Error != nil {
		run.ErrorCode = string(result.Error.ErrorCode)
	}
	if err := h.Store.SaveRun(ctx, run); err != nil {
		return "", err
	}
	return run.ID, nil
}

// =============================================================================
// CALCULATION HANDLERS
// =============================================================================

// Process calculates one employee month and stores the run.
// POST /api/worktime/process
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	input, err := req.toWorktime()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	settings, profileID, err := h.resolveSettings(ctx, req.ProfileID, req.Settings)
	if err != nil {
		h.writeFailure(w, "Failed to resolve settings", err)
		return
	}
	policy, err := h.Settings.Policy(settings)
	if err != nil {
		h.writeFailure(w, "Invalid settings", err)
		return
	}

	result := h.processor(policy).Process(input)

	runID, err := h.saveRun(ctx, result, profileID)
	if err != nil {
		h.writeFailure(w, "Failed to store run", err)
		return
	}

	h.Logger.Info("worktime processed",
		"run_id", runID,
		"employee_id", result.EmployeeID,
		"mode", result.ProcessingMode,
		"alerts", len(result.ComplianceAlerts))
	writeJSON(w, http.StatusOK, ProcessResponse{RunID: runID, Result: result})
}

// ListRuns returns stored runs, newest first.
// GET /api/worktime/runs?employee_id=&limit=
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid limit", err)
		return
	}

	runs, err := h.Store.ListRuns(r.Context(), r.URL.Query().Get("employee_id"), limit)
	if err != nil {
		h.writeFailure(w, "Failed to list runs", err)
		return
	}

	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run, false)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRun returns one stored run with its result.
// GET /api/worktime/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(w, "Failed to get run", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(*run, true))
}

func toRunDTO(run sqlite.CalculationRun, withResult bool) RunDTO {
	dto := RunDTO{
		ID:         run.ID,
		EmployeeID: run.EmployeeID,
		Period:     run.Period,
		Mode:       run.Mode,
		ErrorCode:  run.ErrorCode,
		ProfileID:  run.ProfileID,
		CreatedAt:  run.CreatedAt.Format(time.RFC3339),
	}
	if withResult {
		dto.Result = json.RawMessage(run.ResultJSON)
	}
	return dto
}

// =============================================================================
// PROFILE HANDLERS
// =============================================================================

// ListProfiles returns every stored settings profile without its body.
// GET /api/profiles
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListProfiles(r.Context())
	if err != nil {
		h.writeFailure(w, "Failed to list profiles", err)
		return
	}

	dtos := make([]ProfileDTO, len(records))
	for i, rec := range records {
		dtos[i] = toProfileDTO(rec)
		dtos[i].Body = ""
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateProfile validates and stores a settings profile. Posting an
// existing id replaces the document and bumps its version.
// POST /api/profiles
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	format := factory.ParseFormat(req.Format)
	body := []byte(req.Body)
	if req.Body == "" && req.Settings != nil {
		encoded, err := h.Settings.MarshalSettings(req.Settings, format)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid settings", err)
			return
		}
		body = encoded
	}

	settings, err := h.Settings.ParseSettings(body, format)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid settings document", err)
		return
	}
	if _, err := h.Settings.Policy(factory.Merge(h.Defaults, settings)); err != nil {
		h.writeFailure(w, "Invalid settings", err)
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	if err := h.Store.SaveProfile(ctx, sqlite.ProfileRecord{
		ID:     id,
		Name:   req.Name,
		Format: string(format),
		Body:   string(body),
	}); err != nil {
		h.writeFailure(w, "Failed to save profile", err)
		return
	}

	rec, err := h.Store.GetProfile(ctx, id)
	if err != nil {
		h.writeFailure(w, "Failed to load profile", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProfileDTO(*rec))
}

// GetProfile returns a profile by id or name with its decoded settings.
// GET /api/profiles/{id}
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(w, "Failed to get profile", err)
		return
	}

	dto := toProfileDTO(*rec)
	if settings, err := h.Settings.ParseSettings([]byte(rec.Body), factory.ParseFormat(rec.Format)); err == nil {
		dto.Settings = settings
	}
	writeJSON(w, http.StatusOK, dto)
}

// DeleteProfile removes a profile and its holidays.
// DELETE /api/profiles/{id}
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteProfile(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeFailure(w, "Failed to delete profile", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

func toProfileDTO(rec sqlite.ProfileRecord) ProfileDTO {
	return ProfileDTO{
		ID:        rec.ID,
		Name:      rec.Name,
		Format:    rec.Format,
		Version:   rec.Version,
		Body:      rec.Body,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt: rec.UpdatedAt.Format(time.RFC3339),
	}
}

// ListPresets returns the built-in preset names.
// GET /api/presets
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	names := factory.PresetNames()
	dtos := make([]PresetDTO, len(names))
	for i, name := range names {
		dtos[i] = PresetDTO{Name: name}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPreset returns one built-in preset as YAML and as a settings tree.
// GET /api/presets/{name}
func (h *Handler) GetPreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	doc, err := factory.PresetYAML(name)
	if err != nil {
		h.writeFailure(w, "Failed to get preset", err)
		return
	}
	settings, err := h.Settings.Preset(name)
	if err != nil {
		h.writeFailure(w, "Failed to decode preset", err)
		return
	}
	writeJSON(w, http.StatusOK, PresetDTO{Name: name, YAML: doc, Settings: settings})
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns holidays. With profile_id set, returns the rows that
// apply to that profile (global rows included).
// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		rows []sqlite.HolidayRecord
		err  error
	)
	if r.URL.Query().Has("profile_id") {
		rows, err = h.Store.HolidaysFor(ctx, r.URL.Query().Get("profile_id"))
	} else {
		rows, err = h.Store.ListHolidays(ctx)
	}
	if err != nil {
		h.writeFailure(w, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, len(rows))
	for i, row := range rows {
		dtos[i] = HolidayDTO{
			ID:        row.ID,
			ProfileID: row.ProfileID,
			Date:      row.Date,
			Name:      row.Name,
			CreatedAt: row.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds a holiday. A second row for the same date and profile
// renames the existing one.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	holiday := sqlite.HolidayRecord{
		ID:        uuid.NewString(),
		ProfileID: req.ProfileID,
		Date:      req.Date,
		Name:      req.Name,
	}
	if err := h.Store.SaveHoliday(r.Context(), holiday); err != nil {
		h.writeFailure(w, "Failed to create holiday", err)
		return
	}

	writeJSON(w, http.StatusCreated, HolidayDTO{
		ID:        holiday.ID,
		ProfileID: holiday.ProfileID,
		Date:      holiday.Date,
		Name:      holiday.Name,
	})
}

// AddDefaultHolidays adds the 2025 Korean public holidays.
// POST /api/holidays/defaults?profile_id=
func (h *Handler) AddDefaultHolidays(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID := r.URL.Query().Get("profile_id")

	for _, day := range factory.KoreanHolidays2025 {
		if err := h.Store.SaveHoliday(ctx, sqlite.HolidayRecord{
			ID:        uuid.NewString(),
			ProfileID: profileID,
			Date:      day.Date,
			Name:      day.Name,
		}); err != nil {
			h.writeFailure(w, "Failed to add holidays", err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"status": "added",
		"count":  len(factory.KoreanHolidays2025),
	})
}

// DeleteHoliday deletes a holiday.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeFailure(w, "Failed to delete holiday", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// =============================================================================
// SIMULATION HANDLERS
// =============================================================================

// CreateSimulation runs the variants against one input and stores the report.
// POST /api/simulations
func (h *Handler) CreateSimulation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	input, err := req.Input.toWorktime()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input", err)
		return
	}

	settings, _, err := h.resolveSettings(ctx, req.Input.ProfileID, req.Input.Settings)
	if err != nil {
		h.writeFailure(w, "Failed to resolve settings", err)
		return
	}
	policy, err := h.Settings.Policy(settings)
	if err != nil {
		h.writeFailure(w, "Invalid settings", err)
		return
	}

	variants := append(req.Variants, simulation.Matrix(req.Matrix)...)
	if req.FilterConflicts {
		variants = simulation.FilterConflicts(variants)
	}

	sim := simulation.NewSimulator(policy,
		simulation.WithWorkers(h.Workers),
		simulation.WithLogger(h.Logger),
		simulation.WithClock(h.now))
	report, err := sim.Run(ctx, simulation.Request{
		Input:    input,
		Variants: variants,
		Baseline: req.Baseline,
		Workers:  req.Workers,
	})
	if err != nil {
		if simulation.IsClientError(err) {
			writeError(w, http.StatusBadRequest, "Invalid simulation", err)
			return
		}
		h.writeFailure(w, "Simulation failed", err)
		return
	}

	body, err := json.Marshal(report)
	if err != nil {
		h.writeFailure(w, "Failed to encode report", err)
		return
	}
	if err := h.Store.SaveSimulation(ctx, sqlite.SimulationRun{
		ID:           report.ID.String(),
		EmployeeID:   report.EmployeeID,
		Period:       report.Period,
		Baseline:     report.Baseline,
		VariantCount: len(report.Outcomes),
		ReportJSON:   string(body),
		CreatedAt:    report.CreatedAt,
	}); err != nil {
		h.writeFailure(w, "Failed to store simulation", err)
		return
	}

	writeJSON(w, http.StatusCreated, report)
}

// ListSimulations returns stored simulations without their reports.
// GET /api/simulations?limit=
func (h *Handler) ListSimulations(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid limit", err)
		return
	}
	runs, err := h.Store.ListSimulations(r.Context(), limit)
	if err != nil {
		h.writeFailure(w, "Failed to list simulations", err)
		return
	}

	dtos := make([]SimulationDTO, len(runs))
	for i, run := range runs {
		dtos[i] = SimulationDTO{
			ID:           run.ID,
			EmployeeID:   run.EmployeeID,
			Period:       run.Period,
			Baseline:     run.Baseline,
			VariantCount: run.VariantCount,
			CreatedAt:    run.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSimulation returns a stored report as it was written.
// GET /api/simulations/{id}
func (h *Handler) GetSimulation(w http.ResponseWriter, r *http.Request) {
	run, err := h.Store.GetSimulation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(w, "Failed to get simulation", err)
		return
	}
	writeJSON(w, http.StatusOK, json.RawMessage(run.ReportJSON))
}

// ExportSimulation renders a stored report as an XLSX workbook.
// GET /api/simulations/{id}/export.xlsx
func (h *Handler) ExportSimulation(w http.ResponseWriter, r *http.Request) {
	run, err := h.Store.GetSimulation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(w, "Failed to get simulation", err)
		return
	}

	var report simulation.Report
	if err := json.Unmarshal([]byte(run.ReportJSON), &report); err != nil {
		h.writeFailure(w, "Failed to decode report", err)
		return
	}

	var buf bytes.Buffer
	if err := simulation.WriteXLSX(&buf, &report); err != nil {
		h.writeFailure(w, "Failed to render workbook", err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="simulation-%s.xlsx"`, run.ID))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// =============================================================================
// ADMIN
// =============================================================================

// Health pings the database.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// ResetDatabase clears every table.
// POST /api/admin/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		h.writeFailure(w, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeFailure picks the status from the error and logs server errors.
func (h *Handler) writeFailure(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error(message, "error", err)
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case worktime.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, sqlite.ErrDuplicateProfile):
		return http.StatusConflict
	case worktime.IsClientError(err), simulation.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}
