package server

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/detkit/detconf/internal/catalog"
	"github.com/detkit/detconf/internal/config"
	"github.com/detkit/detconf/internal/store"
	"github.com/detkit/detconf/internal/weights"
)

// Handlers serves the resolver API over an experiment store.
type Handlers struct {
	store    *store.Store
	datasets *catalog.DatasetCatalog
}

// NewHandlers creates the API handlers.
func NewHandlers(st *store.Store, datasets *catalog.DatasetCatalog) *Handlers {
	return &Handlers{
		store:    st,
		datasets: datasets,
	}
}

// ListExperiments handles GET /v1/experiments.
func (h *Handlers) ListExperiments(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.List()
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to list experiments")
		WriteError(w, http.StatusInternalServerError, "store_error", "failed to list experiments")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"experiments": names})
}

// GetExperiment handles GET /v1/experiments/{name}. Repeated ?set=
// parameters apply PATH=VALUE overrides; ?format=yaml returns the
// effective config as YAML instead of JSON.
func (h *Handlers) GetExperiment(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	overrides := r.URL.Query()["set"]

	cfg, ok := h.resolve(w, r, name, overrides)
	if !ok {
		return
	}

	if r.URL.Query().Get("format") == "yaml" {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "encoding_error", "failed to encode config")
			return
		}
		w.Header().Set("Content-Type", "application/x-yaml")
		w.WriteHeader(http.StatusOK)
		w.Write(data) //nolint:errcheck // response write errors are the client's problem
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// ValidationReport is the response of the validate endpoint. Schema
// violations are errors; unresolvable dataset names and weight reference
// problems are warnings, since they depend on the deployment environment.
type ValidationReport struct {
	Experiment string   `json:"experiment"`
	Valid      bool     `json:"valid"`
	Errors     []string `json:"errors,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// ValidateExperiment handles POST /v1/experiments/{name}/validate.
func (h *Handlers) ValidateExperiment(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	overrides := r.URL.Query()["set"]

	cfg, ok := h.resolve(w, r, name, overrides)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, h.buildReport(name, cfg))
}

func (h *Handlers) buildReport(name string, cfg *config.Config) ValidationReport {
	report := ValidationReport{Experiment: name, Valid: true}

	if err := cfg.Validate(); err != nil {
		report.Valid = false
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			report.Errors = verr.Errors
		} else {
			report.Errors = []string{err.Error()}
		}
	}

	datasetNames := append([]string{}, cfg.Datasets.Train...)
	datasetNames = append(datasetNames, cfg.Datasets.Test...)
	for _, missing := range h.datasets.Missing(datasetNames...) {
		report.Warnings = append(report.Warnings, "unknown dataset "+missing)
	}

	if _, err := weights.Parse(cfg.Model.Weight); err != nil {
		report.Warnings = append(report.Warnings, err.Error())
	}

	return report
}

// resolve loads the effective config, mapping store errors to API
// responses. Returns false when a response was already written.
func (h *Handlers) resolve(w http.ResponseWriter, r *http.Request, name string, overrides []string) (*config.Config, bool) {
	cfg, err := h.store.Resolve(name, overrides)
	switch {
	case err == nil:
		return cfg, true
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "no experiment named "+name)
	case errors.Is(err, store.ErrInvalidName):
		WriteError(w, http.StatusBadRequest, "invalid_name", err.Error())
	default:
		var unknownPath config.UnknownPathError
		if errors.As(err, &unknownPath) {
			WriteError(w, http.StatusBadRequest, "invalid_override", err.Error())
			return nil, false
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Str("experiment", name).Msg("failed to resolve experiment")
		WriteError(w, http.StatusBadRequest, "resolve_error", err.Error())
	}
	return nil, false
}
