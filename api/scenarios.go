/*
scenarios.go - Sample scenario endpoints

PURPOSE:
  Lists the built-in sample scenarios and runs one against its preset so
  the UI can show a populated result without any setup.

ENDPOINTS:
  GET  /api/scenarios             List scenarios
  POST /api/scenarios/{id}/run    Calculate a scenario and store the run

SEE ALSO:
  - factory/scenarios.go: Scenario inputs
  - factory/presets.go: Preset settings
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seojaehong/hr-mvp-app/factory"
)

// ListScenarios returns all sample scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios := factory.Scenarios()
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = ScenarioDTO{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Category:    s.Category,
			Preset:      s.Preset,
			Period:      s.Request.Period,
			EmployeeID:  s.Request.EmployeeID,
			RecordCount: len(s.Request.Records),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RunScenario calculates a scenario under its preset. The run is stored
// with the preset name as its profile.
// POST /api/scenarios/{id}/run
func (h *Handler) RunScenario(w http.ResponseWriter, r *http.Request) {
	scenario, err := factory.FindScenario(chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(w, "Failed to find scenario", err)
		return
	}

	settings, err := h.Settings.Preset(scenario.Preset)
	if err != nil {
		h.writeFailure(w, "Failed to load preset", err)
		return
	}
	policy, err := h.Settings.Policy(settings)
	if err != nil {
		h.writeFailure(w, "Invalid preset", err)
		return
	}

	result := h.processor(policy).Process(scenario.Request)

	runID, err := h.saveRun(r.Context(), result, scenario.Preset)
	if err != nil {
		h.writeFailure(w, "Failed to store run", err)
		return
	}
	writeJSON(w, http.StatusOK, ProcessResponse{RunID: runID, Result: result})
}
