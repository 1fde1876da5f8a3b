/*
Package sqlite persists calculation runs, simulation reports, settings
profiles and holiday rows in SQLite.

PURPOSE:
  The engine itself is pure; this store keeps what the API and CLI produce
  so results can be fetched again, and keeps the settings profiles and
  holiday calendar the API resolves policies from.

KEY TABLES:
  calculation_runs:  One row per Process call (result as JSON)
  simulation_runs:   One row per simulation report (report as JSON)
  settings_profiles: Named settings documents (YAML or JSON body, versioned)
  holidays:          Calendar rows, global (profile_id '') or per profile

RESULTS AS JSON:
  Results and reports are stored exactly as the API returned them. Only the
  columns needed for listing (employee, period, mode, error code) are
  broken out.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's WAL mode.

USAGE:
  store, err := sqlite.New("./data/worktime.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - api/handlers.go: Writes runs and reads profiles
  - factory/settings.go: Decodes profile bodies
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/seojaehong/hr-mvp-app/worktime"
)

var ErrDuplicateProfile = errors.New("settings profile name already exists")

// Store implements persistence using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS calculation_runs (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		period TEXT NOT NULL,
		mode TEXT NOT NULL,
		error_code TEXT,
		profile_id TEXT,
		result_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_employee_period
		ON calculation_runs(employee_id, period);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at
		ON calculation_runs(created_at DESC);

	CREATE TABLE IF NOT EXISTS simulation_runs (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		period TEXT NOT NULL,
		baseline TEXT NOT NULL,
		variant_count INTEGER NOT NULL,
		report_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_simulations_employee
		ON simulation_runs(employee_id);

	CREATE TABLE IF NOT EXISTS settings_profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		format TEXT NOT NULL,
		body TEXT NOT NULL,
		version INTEGER DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- profile_id '' marks a holiday that applies to every profile
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(profile_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_date
		ON holidays(date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CALCULATION RUNS
// =============================================================================

// CalculationRun is one stored Process call.
type CalculationRun struct {
	ID         string
	EmployeeID string
	Period     string
	Mode       string
	ErrorCode  string
	ProfileID  string
	ResultJSON string
	CreatedAt  time.Time
}

// SaveRun stores a calculation run. CreatedAt defaults to now.
func (s *Store) SaveRun(ctx context.Context, run CalculationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO calculation_runs
		(id, employee_id, period, mode, error_code, profile_id, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.EmployeeID,
		run.Period,
		run.Mode,
		nullString(run.ErrorCode),
		nullString(run.ProfileID),
		run.ResultJSON,
		timestamp(run.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save calculation run: %w", err)
	}
	return nil
}

// GetRun retrieves a calculation run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*CalculationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs, err := s.queryRuns(ctx, runColumns+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("calculation run %s: %w", id, worktime.ErrNotFound)
	}
	return &runs[0], nil
}

// ListRuns returns the newest runs first, optionally for one employee.
func (s *Store) ListRuns(ctx context.Context, employeeID string, limit int) ([]CalculationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	if employeeID != "" {
		return s.queryRuns(ctx, runColumns+" WHERE employee_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?", employeeID, limit)
	}
	return s.queryRuns(ctx, runColumns+" ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
}

const runColumns = `
	SELECT id, employee_id, period, mode, error_code, profile_id, result_json, created_at
	FROM calculation_runs`

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]CalculationRun, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query calculation runs: %w", err)
	}
	defer rows.Close()

	runs := []CalculationRun{}
	for rows.Next() {
		var r CalculationRun
		var errorCode, profileID sql.NullString
		var createdAt string
		if err := rows.Scan(&r.ID, &r.EmployeeID, &r.Period, &r.Mode, &errorCode, &profileID, &r.ResultJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan calculation run: %w", err)
		}
		r.ErrorCode = errorCode.String
		r.ProfileID = profileID.String
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// =============================================================================
// SIMULATION RUNS
// =============================================================================

// SimulationRun is one stored simulation report.
type SimulationRun struct {
	ID           string
	EmployeeID   string
	Period       string
	Baseline     string
	VariantCount int
	ReportJSON   string
	CreatedAt    time.Time
}

func (s *Store) SaveSimulation(ctx context.Context, run SimulationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO simulation_runs
		(id, employee_id, period, baseline, variant_count, report_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.EmployeeID, run.Period, run.Baseline, run.VariantCount, run.ReportJSON, timestamp(run.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save simulation run: %w", err)
	}
	return nil
}

func (s *Store) GetSimulation(ctx context.Context, id string) (*SimulationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var r SimulationRun
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, period, baseline, variant_count, report_json, created_at
		FROM simulation_runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.EmployeeID, &r.Period, &r.Baseline, &r.VariantCount, &r.ReportJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("simulation %s: %w", id, worktime.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get simulation: %w", err)
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &r, nil
}

// ListSimulations returns simulation rows newest first, without report bodies.
func (s *Store) ListSimulations(ctx context.Context, limit int) ([]SimulationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, period, baseline, variant_count, created_at
		FROM simulation_runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query simulations: %w", err)
	}
	defer rows.Close()

	runs := []SimulationRun{}
	for rows.Next() {
		var r SimulationRun
		var createdAt string
		if err := rows.Scan(&r.ID, &r.EmployeeID, &r.Period, &r.Baseline, &r.VariantCount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan simulation: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// =============================================================================
// SETTINGS PROFILES
// =============================================================================

// ProfileRecord is a stored settings document.
type ProfileRecord struct {
	ID        string
	Name      string
	Format    string
	Body      string
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SaveProfile inserts a profile or replaces the body of an existing one,
// bumping its version.
func (s *Store) SaveProfile(ctx context.Context, p ProfileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO settings_profiles (id, name, format, body, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			format = excluded.format,
			body = excluded.body,
			version = settings_profiles.version + 1,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query, p.ID, p.Name, p.Format, p.Body, now, now)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateProfile, p.Name)
		}
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (*ProfileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles, err := s.queryProfiles(ctx, profileColumns+" WHERE id = ? OR name = ?", id, id)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("settings profile %s: %w", id, worktime.ErrNotFound)
	}
	return &profiles[0], nil
}

func (s *Store) ListProfiles(ctx context.Context) ([]ProfileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryProfiles(ctx, profileColumns+" ORDER BY name")
}

// DeleteProfile removes a profile together with its own holiday rows.
func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM settings_profiles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("settings profile %s: %w", id, worktime.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM holidays WHERE profile_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete profile holidays: %w", err)
	}
	return tx.Commit()
}

const profileColumns = `
	SELECT id, name, format, body, version, created_at, updated_at
	FROM settings_profiles`

func (s *Store) queryProfiles(ctx context.Context, query string, args ...any) ([]ProfileRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	profiles := []ProfileRecord{}
	for rows.Next() {
		var p ProfileRecord
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Format, &p.Body, &p.Version, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// HolidayRecord is one calendar row. An empty ProfileID applies everywhere.
type HolidayRecord struct {
	ID        string
	ProfileID string
	Date      string
	Name      string
	CreatedAt time.Time
}

// SaveHoliday stores a holiday row. A second row for the same profile and
// date renames the existing one and keeps its ID.
func (s *Store) SaveHoliday(ctx context.Context, h HolidayRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO holidays (id, profile_id, date, name, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(profile_id, date) DO UPDATE SET name = excluded.name
	`
	_, err := s.db.ExecContext(ctx, query, h.ID, h.ProfileID, h.Date, h.Name, timestamp(h.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

// ListHolidays returns every holiday row ordered by date.
func (s *Store) ListHolidays(ctx context.Context) ([]HolidayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryHolidays(ctx, holidayColumns+" ORDER BY date, profile_id")
}

// HolidaysFor returns the global rows plus the rows of one profile. When
// both have the same date the profile row comes last.
func (s *Store) HolidaysFor(ctx context.Context, profileID string) ([]HolidayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryHolidays(ctx, holidayColumns+" WHERE profile_id = '' OR profile_id = ? ORDER BY date, profile_id", profileID)
}

func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("holiday %s: %w", id, worktime.ErrNotFound)
	}
	return nil
}

const holidayColumns = `
	SELECT id, profile_id, date, name, created_at
	FROM holidays`

func (s *Store) queryHolidays(ctx context.Context, query string, args ...any) ([]HolidayRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	holidays := []HolidayRecord{}
	for rows.Next() {
		var h HolidayRecord
		var createdAt string
		if err := rows.Scan(&h.ID, &h.ProfileID, &h.Date, &h.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		h.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// PruneResult counts rows removed by Prune.
type PruneResult struct {
	Runs        int64
	Simulations int64
}

// Prune deletes calculation runs and simulations created before cutoff.
// Timestamps are stored as UTC RFC3339 text, so they compare as strings.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (PruneResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out PruneResult
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return out, err
	}
	defer tx.Rollback()

	before := cutoff.UTC().Format(time.RFC3339)
	res, err := tx.ExecContext(ctx, `DELETE FROM calculation_runs WHERE created_at < ?`, before)
	if err != nil {
		return out, fmt.Errorf("failed to prune runs: %w", err)
	}
	out.Runs, _ = res.RowsAffected()

	res, err = tx.ExecContext(ctx, `DELETE FROM simulation_runs WHERE created_at < ?`, before)
	if err != nil {
		return out, fmt.Errorf("failed to prune simulations: %w", err)
	}
	out.Simulations, _ = res.RowsAffected()

	return out, tx.Commit()
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"calculation_runs", "simulation_runs", "holidays", "settings_profiles"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
